// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-explainer/internal/pipeline"
	"github.com/pdiddy/paper-explainer/internal/storage/mocks"
	"github.com/pdiddy/paper-explainer/pkg/types"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, req types.Request) pipeline.Result {
	args := m.Called(ctx, req)
	return args.Get(0).(pipeline.Result)
}

// okRunner writes a real artifact and returns Ok.
func okRunner(t *testing.T, text string) (*mockRunner, string) {
	t.Helper()
	artifact := filepath.Join(t.TempDir(), "1234.5678_explanation.md")
	require.NoError(t, os.WriteFile(artifact, []byte(text), 0o644))
	m := &mockRunner{}
	m.On("Run", mock.Anything, mock.Anything).Return(pipeline.Ok(types.Explanation{
		Text:         text,
		ArtifactPath: artifact,
		Model:        "test-model",
		Audience:     types.AudienceScholar,
	}))
	return m, artifact
}

func newTestServer(t *testing.T, runner Runner, opts ...Option) *Server {
	t.Helper()
	opts = append([]Option{WithUploadDir(t.TempDir())}, opts...)
	s, err := New(runner, types.Defaults().Server, prometheus.NewRegistry(), opts...)
	require.NoError(t, err)
	return s
}

func multipartBody(t *testing.T, fields map[string]string, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func postExplain(t *testing.T, s *Server, fields map[string]string, fileName string, accept string) *http.Response {
	t.Helper()
	body, ct := multipartBody(t, fields, fileName, []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/explain", body)
	req.Header.Set("Content-Type", ct)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestIndex(t *testing.T) {
	s := newTestServer(t, &mockRunner{})
	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	page := string(body)
	assert.Contains(t, page, `name="url"`)
	assert.Contains(t, page, `accept=".pdf"`)
	assert.Contains(t, page, "Explain Paper")
}

func TestExplain_URLRendersHTML(t *testing.T) {
	runner, _ := okRunner(t, "# Executive Summary\n\nShort *summary*.\n")
	s := newTestServer(t, runner)

	resp := postExplain(t, s, map[string]string{"url": " https://arxiv.org/abs/1234.5678 "}, "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "<h1>Executive Summary</h1>")
	assert.Contains(t, string(body), "<em>summary</em>")
	assert.Contains(t, string(body), `href="/download/`)

	runner.AssertCalled(t, "Run", mock.Anything, types.Request{
		URL:      "https://arxiv.org/abs/1234.5678",
		Audience: types.AudienceScholar,
	})
}

func TestExplain_UploadJSONAndDownload(t *testing.T) {
	text := "# Executive Summary\nü\n"
	runner := &mockRunner{}
	s := newTestServer(t, runner)

	var seenPath string
	runner.On("Run", mock.Anything, mock.MatchedBy(func(r types.Request) bool {
		seenPath = r.UploadPath
		_, err := os.Stat(r.UploadPath)
		return r.URL == "" && filepath.Base(r.UploadPath) == "paper.pdf" && err == nil && r.Audience == types.AudienceStudent
	})).Return(okResult(t, text))

	resp := postExplain(t, s, map[string]string{"audience": "student"}, "paper.pdf", "application/json")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out explainResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, text, out.Explanation)
	assert.True(t, strings.HasPrefix(out.DownloadURL, "/download/"))

	_, err := os.Stat(seenPath)
	assert.True(t, os.IsNotExist(err), "uploaded copy should be removed after the run")

	dl, err := s.App().Test(httptest.NewRequest(http.MethodGet, out.DownloadURL, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, dl.StatusCode)
	assert.Contains(t, dl.Header.Get("Content-Disposition"), "_explanation.md")
	got, _ := io.ReadAll(dl.Body)
	assert.Equal(t, text, string(got))
}

func okResult(t *testing.T, text string) pipeline.Result {
	t.Helper()
	artifact := filepath.Join(t.TempDir(), "paper_explanation.md")
	require.NoError(t, os.WriteFile(artifact, []byte(text), 0o644))
	return pipeline.Ok(types.Explanation{Text: text, ArtifactPath: artifact, Audience: types.AudienceStudent})
}

func TestExplain_InputErrors(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string]string
		file     string
		wantCode string
	}{
		{"neither", map[string]string{}, "", "MISSING_INPUT"},
		{"both", map[string]string{"url": "https://arxiv.org/abs/1"}, "paper.pdf", "INVALID_INPUT"},
		{"not a pdf", map[string]string{}, "notes.txt", "INVALID_INPUT"},
		{"bad audience", map[string]string{"url": "https://arxiv.org/abs/1", "audience": "toddler"}, "", "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &mockRunner{}
			runner.On("Run", mock.Anything, types.Request{Audience: types.AudienceScholar}).
				Return(pipeline.Err(types.Request{}.Validate()))
			s := newTestServer(t, runner)

			resp := postExplain(t, s, tt.fields, tt.file, "application/json")
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var out errorPayload
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
			assert.Equal(t, tt.wantCode, out.Error.Code)
			assert.NotEmpty(t, out.RequestID)
		})
	}
}

func TestExplain_FailureShowsErrorWithoutLink(t *testing.T) {
	runner := &mockRunner{}
	runner.On("Run", mock.Anything, mock.Anything).Return(pipeline.Err(
		types.Errorf(types.DownloadFailure, "download", "could not download the PDF from arXiv: HTTP 404"),
	))
	s := newTestServer(t, runner)

	resp := postExplain(t, s, map[string]string{"url": "https://arxiv.org/abs/0000.0000"}, "", "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "could not download the PDF")
	assert.NotContains(t, string(body), "/download/")
}

func TestExplain_MirrorLink(t *testing.T) {
	runner := &mockRunner{}
	res := okResult(t, "text")
	exp, _ := res.Explanation()
	exp.MirrorKey = "explanations/k/paper_explanation.md"
	runner.On("Run", mock.Anything, mock.Anything).Return(pipeline.Ok(exp))

	store := &mocks.MockStorage{}
	store.On("PresignGet", mock.Anything, exp.MirrorKey, time.Hour).Return("https://s3.example/signed", nil)

	s := newTestServer(t, runner, WithMirrorLinks(store, time.Hour))
	resp := postExplain(t, s, map[string]string{"url": "https://arxiv.org/abs/1"}, "", "application/json")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out explainResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "https://s3.example/signed", out.MirrorURL)
	store.AssertExpectations(t)
}

func TestDownload_Unknown(t *testing.T) {
	s := newTestServer(t, &mockRunner{})

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/download/"+url.PathEscape("6f1d2a8e-1b7c-4d2e-9a3b-5c4d3e2f1a0b"), nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = s.App().Test(httptest.NewRequest(http.MethodGet, "/download/..%2F..%2Fetc%2Fpasswd", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, &mockRunner{})

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = s.App().Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "http_requests_total")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(types.MissingInput))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(types.ConversionFailure))
	assert.Equal(t, http.StatusBadGateway, statusFor(types.GenerationFailure))
	assert.Equal(t, http.StatusInternalServerError, statusFor(types.ConfigurationError))
	assert.Equal(t, "INTERNAL_ERROR", codeFor(""))
}

func TestArtifactRegistry_EvictsOldest(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := range 3 {
		runDir := filepath.Join(dir, "run"+string(rune('a'+i)))
		require.NoError(t, os.Mkdir(runDir, 0o755))
		p := filepath.Join(runDir, "1234.5678_explanation.md")
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
		paths = append(paths, p)
	}

	r := newArtifactRegistry(2)
	first := r.add(paths[0])
	second := r.add(paths[1])
	third := r.add(paths[2])

	assert.Equal(t, 2, r.count())
	_, ok := r.get(first)
	assert.False(t, ok, "oldest entry should be evicted")
	assert.NoFileExists(t, paths[0])
	assert.NoDirExists(t, filepath.Dir(paths[0]))

	for i, id := range []string{second, third} {
		got, ok := r.get(id)
		require.True(t, ok)
		assert.Equal(t, paths[i+1], got)
		assert.FileExists(t, got)
	}
}

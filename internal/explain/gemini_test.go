// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package explain

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-explainer/internal/httputil"
	"github.com/pdiddy/paper-explainer/pkg/types"
)

// withGeminiServer points the backend at an httptest server for one test.
func withGeminiServer(t *testing.T, h http.HandlerFunc) *GeminiBackend {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	orig := geminiBaseURL
	geminiBaseURL = srv.URL
	t.Cleanup(func() { geminiBaseURL = orig })

	g, err := NewGeminiBackend("test-key", srv.Client())
	require.NoError(t, err)
	return g
}

func TestNewGeminiBackend_EmptyKey(t *testing.T) {
	_, err := NewGeminiBackend("", nil)
	require.Error(t, err)
	assert.Equal(t, types.ConfigurationError, types.KindOf(err))
}

func TestGeminiUpload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "1234.5678.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 body"), 0o644))

	g := withGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/upload/v1beta/files", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Equal(t, "multipart", r.Header.Get("X-Goog-Upload-Protocol"))

		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		assert.Equal(t, "multipart/related", mediaType)

		mr := multipart.NewReader(r.Body, params["boundary"])
		meta, err := mr.NextPart()
		require.NoError(t, err)
		var m struct {
			File struct {
				DisplayName string `json:"display_name"`
			} `json:"file"`
		}
		require.NoError(t, json.NewDecoder(meta).Decode(&m))
		assert.Equal(t, "1234.5678.pdf", m.File.DisplayName)

		content, err := mr.NextPart()
		require.NoError(t, err)
		assert.Equal(t, "application/pdf", content.Header.Get("Content-Type"))
		body, _ := io.ReadAll(content)
		assert.Equal(t, "%PDF-1.4 body", string(body))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"file":{"name":"files/abc","displayName":"1234.5678.pdf","uri":"https://files/abc","mimeType":"application/pdf"}}`)
	})

	file, err := g.Upload(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, types.RemoteFile{
		Name:        "files/abc",
		DisplayName: "1234.5678.pdf",
		URI:         "https://files/abc",
		MIMEType:    "application/pdf",
	}, file)
}

func TestGeminiUpload_MissingFile(t *testing.T) {
	called := false
	g := withGeminiServer(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	_, err := g.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	assert.False(t, called, "no request should be sent for a missing file")
}

func TestGeminiUpload_ServerError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.pdf")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	g := withGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	})

	_, err := g.Upload(context.Background(), path)
	var se *httputil.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Contains(t, se.Body, "quota exceeded")
}

func TestGeminiGenerate(t *testing.T) {
	var calls int
	g := withGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/v1beta/models/gemini-2.5-pro:generateContent", r.URL.Path)

		var req geminiGenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		parts := req.Contents[0].Parts
		require.Len(t, parts, 2)
		assert.Equal(t, "the prompt", parts[0].Text)
		require.NotNil(t, parts[1].FileData)
		assert.Equal(t, "https://files/abc", parts[1].FileData.FileURI)
		assert.Equal(t, "application/pdf", parts[1].FileData.MIMEType)

		io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"# Executive "},{"text":"Summary"}]},"finishReason":"STOP"}]}`)
	})

	text, err := g.Generate(context.Background(), "models/gemini-2.5-pro", "the prompt", types.RemoteFile{
		Name: "files/abc", URI: "https://files/abc", MIMEType: "application/pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "# Executive Summary", text)
	assert.Equal(t, 1, calls)
}

func TestGeminiGenerate_Blocked(t *testing.T) {
	g := withGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"promptFeedback":{"blockReason":"SAFETY"}}`)
	})

	_, err := g.Generate(context.Background(), "m", "p", types.RemoteFile{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestGeminiGenerate_NoRetry(t *testing.T) {
	var calls int
	g := withGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := g.Generate(context.Background(), "m", "p", types.RemoteFile{})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestGeminiDelete(t *testing.T) {
	g := withGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/v1beta/files/abc", r.URL.Path)
		io.WriteString(w, "{}")
	})

	require.NoError(t, g.Delete(context.Background(), types.RemoteFile{Name: "files/abc"}))
	require.Error(t, g.Delete(context.Background(), types.RemoteFile{}))
}

func TestGeminiListModels(t *testing.T) {
	g := withGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models", r.URL.Path)
		if r.URL.Query().Get("pageToken") == "" {
			io.WriteString(w, `{"models":[{"name":"models/a","supportedGenerationMethods":["generateContent"]}],"nextPageToken":"p2"}`)
			return
		}
		assert.Equal(t, "p2", r.URL.Query().Get("pageToken"))
		io.WriteString(w, `{"models":[{"name":"models/b","supportedGenerationMethods":["embedContent"]}]}`)
	})

	models, err := g.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "models/a", models[0].Name)
	assert.True(t, models[0].SupportsGenerate())
	assert.False(t, models[1].SupportsGenerate())
}

func TestExplainer_WithGeminiBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "1234.5678.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o644))

	counts := map[string]int{}
	g := withGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/upload/"):
			counts["upload"]++
			io.WriteString(w, `{"file":{"name":"files/x","displayName":"1234.5678.pdf","uri":"https://files/x","mimeType":"application/pdf"}}`)
		case strings.HasSuffix(r.URL.Path, ":generateContent"):
			counts["generate"]++
			var req geminiGenerateRequest
			if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) ||
				!assert.Len(t, req.Contents, 1) || !assert.Len(t, req.Contents[0].Parts, 2) {
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}
			for _, s := range Sections {
				assert.Contains(t, req.Contents[0].Parts[0].Text, s)
			}
			assert.Equal(t, "https://files/x", req.Contents[0].Parts[1].FileData.FileURI)
			io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"done"}]}}]}`)
		case r.Method == http.MethodDelete:
			counts["delete"]++
			io.WriteString(w, "{}")
		}
	})

	e, err := NewExplainer(g, testAIConfig())
	require.NoError(t, err)

	text, err := e.Explain(context.Background(), path, types.AudienceScholar)
	require.NoError(t, err)
	assert.Equal(t, "done", text)
	assert.Equal(t, map[string]int{"upload": 1, "generate": 1, "delete": 1}, counts)
}

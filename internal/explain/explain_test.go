// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package explain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-explainer/pkg/types"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Upload(ctx context.Context, path string) (types.RemoteFile, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(types.RemoteFile), args.Error(1)
}

func (m *mockBackend) Generate(ctx context.Context, model, prompt string, file types.RemoteFile) (string, error) {
	args := m.Called(ctx, model, prompt, file)
	return args.String(0), args.Error(1)
}

func (m *mockBackend) Delete(ctx context.Context, file types.RemoteFile) error {
	args := m.Called(ctx, file)
	return args.Error(0)
}

func testAIConfig() types.AIConfig {
	return types.AIConfig{Backend: types.AIBackendGemini, Model: "test-model", APIKey: "test-key"}
}

var testFile = types.RemoteFile{
	Name:        "files/abc123",
	DisplayName: "1234.5678.pdf",
	URI:         "https://example.test/files/abc123",
	MIMEType:    "application/pdf",
}

func containsAllSections(prompt string) bool {
	for _, s := range Sections {
		if !strings.Contains(prompt, s) {
			return false
		}
	}
	return true
}

func TestNewExplainer_MissingCredential(t *testing.T) {
	cfg := testAIConfig()
	cfg.APIKey = ""

	_, err := NewExplainer(&mockBackend{}, cfg)
	require.Error(t, err)
	assert.Equal(t, types.ConfigurationError, types.KindOf(err))
}

func TestNewExplainer_NilBackend(t *testing.T) {
	_, err := NewExplainer(nil, testAIConfig())
	require.Error(t, err)
	assert.Equal(t, types.ConfigurationError, types.KindOf(err))
}

func TestExplain(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		setup       func(m *mockBackend)
		wantText    string
		wantKind    types.ErrorKind
		wantDeletes int
	}{
		{
			name: "happy path",
			setup: func(m *mockBackend) {
				m.On("Upload", ctx, "/tmp/paper.pdf").Return(testFile, nil).Once()
				m.On("Generate", ctx, "test-model", mock.MatchedBy(containsAllSections), testFile).
					Return("# Executive Summary\n...", nil).Once()
				m.On("Delete", mock.Anything, testFile).Return(nil).Once()
			},
			wantText:    "# Executive Summary\n...",
			wantDeletes: 1,
		},
		{
			name: "upload failure skips generate and delete",
			setup: func(m *mockBackend) {
				m.On("Upload", ctx, "/tmp/paper.pdf").Return(types.RemoteFile{}, errors.New("quota")).Once()
			},
			wantKind: types.UploadFailure,
		},
		{
			name: "generation failure still releases the file",
			setup: func(m *mockBackend) {
				m.On("Upload", ctx, "/tmp/paper.pdf").Return(testFile, nil).Once()
				m.On("Generate", ctx, "test-model", mock.Anything, testFile).Return("", errors.New("500")).Once()
				m.On("Delete", mock.Anything, testFile).Return(nil).Once()
			},
			wantKind:    types.GenerationFailure,
			wantDeletes: 1,
		},
		{
			name: "empty text is a generation failure",
			setup: func(m *mockBackend) {
				m.On("Upload", ctx, "/tmp/paper.pdf").Return(testFile, nil).Once()
				m.On("Generate", ctx, "test-model", mock.Anything, testFile).Return("", nil).Once()
				m.On("Delete", mock.Anything, testFile).Return(nil).Once()
			},
			wantKind:    types.GenerationFailure,
			wantDeletes: 1,
		},
		{
			name: "whitespace text is returned verbatim",
			setup: func(m *mockBackend) {
				m.On("Upload", ctx, "/tmp/paper.pdf").Return(testFile, nil).Once()
				m.On("Generate", ctx, "test-model", mock.Anything, testFile).Return("  \n", nil).Once()
				m.On("Delete", mock.Anything, testFile).Return(nil).Once()
			},
			wantText:    "  \n",
			wantDeletes: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockBackend{}
			tt.setup(m)

			e, err := NewExplainer(m, testAIConfig())
			require.NoError(t, err)

			got, err := e.Explain(ctx, "/tmp/paper.pdf", types.AudienceScholar)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, types.KindOf(err))
				assert.Empty(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantText, got)
			}

			m.AssertExpectations(t)
			m.AssertNumberOfCalls(t, "Delete", tt.wantDeletes)
		})
	}
}

func TestExplain_CleanupFailureIsObserved(t *testing.T) {
	ctx := context.Background()
	m := &mockBackend{}
	m.On("Upload", ctx, "/tmp/paper.pdf").Return(testFile, nil)
	m.On("Generate", ctx, "test-model", mock.Anything, testFile).Return("explanation", nil)
	m.On("Delete", mock.Anything, testFile).Return(errors.New("permission denied"))

	var observed []types.RemoteFile
	var observedErr error
	e, err := NewExplainer(m, testAIConfig(), WithCleanupObserver(func(f types.RemoteFile, err error) {
		observed = append(observed, f)
		observedErr = err
	}))
	require.NoError(t, err)

	got, err := e.Explain(ctx, "/tmp/paper.pdf", types.AudienceStudent)
	require.NoError(t, err, "cleanup failure must not change the result")
	assert.Equal(t, "explanation", got)
	require.Len(t, observed, 1)
	assert.Equal(t, testFile, observed[0])
	assert.EqualError(t, observedErr, "permission denied")
}

func TestExplain_ReleasesAfterCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := &mockBackend{}
	m.On("Upload", ctx, "/tmp/paper.pdf").Return(testFile, nil)
	m.On("Generate", ctx, "test-model", mock.Anything, testFile).
		Run(func(mock.Arguments) { cancel() }).
		Return("", context.Canceled)
	m.On("Delete", mock.MatchedBy(func(c context.Context) bool { return c.Err() == nil }), testFile).Return(nil)

	e, err := NewExplainer(m, testAIConfig())
	require.NoError(t, err)

	_, err = e.Explain(ctx, "/tmp/paper.pdf", types.AudienceScholar)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	m.AssertCalled(t, "Delete", mock.Anything, testFile)
}

func TestRenderPrompt(t *testing.T) {
	tests := []struct {
		name     string
		audience types.Audience
		want     string
	}{
		{"scholar", types.AudienceScholar, "research scholar in a related scientific field"},
		{"student", types.AudienceStudent, "undergraduate or master's student"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := RenderPrompt(tt.audience, "paper.pdf")
			require.NoError(t, err)
			assert.Contains(t, p, tt.want)
			assert.Contains(t, p, "(paper.pdf)")
			for i, s := range Sections {
				assert.Contains(t, p, s, "section %d missing", i+1)
			}
			assert.Contains(t, p, "explain the math")
		})
	}
}

func TestMIMEType(t *testing.T) {
	assert.Equal(t, "application/pdf", MIMEType("/x/Paper.PDF"))
	assert.Equal(t, "text/markdown", MIMEType("output/1-ab.md"))
	assert.Equal(t, "text/plain", MIMEType("notes.txt"))
	assert.Equal(t, "application/octet-stream", MIMEType("blob"))
}

func TestExplainObserved_ReportsStages(t *testing.T) {
	ctx := context.Background()
	m := &mockBackend{}
	m.On("Upload", ctx, "/tmp/paper.pdf").Return(testFile, nil)
	m.On("Generate", ctx, "test-model", mock.Anything, testFile).Return("text", nil)
	m.On("Delete", mock.Anything, testFile).Return(nil)

	e, err := NewExplainer(m, testAIConfig())
	require.NoError(t, err)

	var stages []types.Stage
	_, err = e.ExplainObserved(ctx, "/tmp/paper.pdf", types.AudienceScholar, func(s types.Stage) {
		stages = append(stages, s)
	})
	require.NoError(t, err)
	assert.Equal(t, []types.Stage{types.StageUploading, types.StageGenerating}, stages)
}

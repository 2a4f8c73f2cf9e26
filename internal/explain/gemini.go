// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package explain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/paper-explainer/internal/httputil"
	"github.com/pdiddy/paper-explainer/pkg/types"
)

// geminiBaseURL is the Gemini Developer API root. Package-level var for
// test substitution.
var geminiBaseURL = "https://generativelanguage.googleapis.com"

// GeminiBackend talks to the Gemini Developer API with a single API key.
type GeminiBackend struct {
	apiKey string
	Client *http.Client
}

// NewGeminiBackend returns a backend bound to apiKey. client may be nil.
func NewGeminiBackend(apiKey string, client *http.Client) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, types.Errorf(types.ConfigurationError, "gemini", "API key is empty")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &GeminiBackend{apiKey: apiKey, Client: client}, nil
}

// geminiFileResponse wraps the file resource returned by the upload endpoint.
type geminiFileResponse struct {
	File types.RemoteFile `json:"file"`
}

type geminiFileData struct {
	MIMEType string `json:"mime_type"`
	FileURI  string `json:"file_uri"`
}

type geminiPart struct {
	Text     string          `json:"text,omitempty"`
	FileData *geminiFileData `json:"file_data,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerateRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Model describes one model available to the configured key.
type Model struct {
	Name                       string   `json:"name"`
	DisplayName                string   `json:"displayName"`
	Description                string   `json:"description"`
	InputTokenLimit            int      `json:"inputTokenLimit"`
	OutputTokenLimit           int      `json:"outputTokenLimit"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
}

// SupportsGenerate reports whether the model accepts generateContent.
func (m Model) SupportsGenerate() bool {
	for _, method := range m.SupportedGenerationMethods {
		if method == "generateContent" {
			return true
		}
	}
	return false
}

type geminiModelsResponse struct {
	Models        []Model `json:"models"`
	NextPageToken string  `json:"nextPageToken"`
}

// Upload sends the file at path with the multipart upload protocol.
func (g *GeminiBackend) Upload(ctx context.Context, path string) (types.RemoteFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.RemoteFile{}, err
	}
	mimeType := MIMEType(path)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	meta, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"application/json; charset=UTF-8"}})
	if err != nil {
		return types.RemoteFile{}, err
	}
	if err := json.NewEncoder(meta).Encode(map[string]any{
		"file": map[string]string{"display_name": filepath.Base(path)},
	}); err != nil {
		return types.RemoteFile{}, err
	}

	content, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {mimeType}})
	if err != nil {
		return types.RemoteFile{}, err
	}
	if _, err := content.Write(data); err != nil {
		return types.RemoteFile{}, err
	}
	if err := mw.Close(); err != nil {
		return types.RemoteFile{}, err
	}

	req, err := http.NewRequest(http.MethodPost, geminiBaseURL+"/upload/v1beta/files", &body)
	if err != nil {
		return types.RemoteFile{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "multipart/related; boundary="+mw.Boundary())
	req.Header.Set("X-Goog-Upload-Protocol", "multipart")

	var out geminiFileResponse
	if err := g.doJSON(ctx, req, &out); err != nil {
		return types.RemoteFile{}, err
	}
	if out.File.Name == "" || out.File.URI == "" {
		return types.RemoteFile{}, fmt.Errorf("upload response carries no file handle")
	}
	if out.File.MIMEType == "" {
		out.File.MIMEType = mimeType
	}
	return out.File, nil
}

// Generate issues one generateContent call with the prompt and the file.
func (g *GeminiBackend) Generate(ctx context.Context, model, prompt string, file types.RemoteFile) (string, error) {
	payload, err := json.Marshal(geminiGenerateRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{Text: prompt},
				{FileData: &geminiFileData{MIMEType: file.MIMEType, FileURI: file.URI}},
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := geminiBaseURL + "/v1beta/models/" + url.PathEscape(strings.TrimPrefix(model, "models/")) + ":generateContent"
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out geminiGenerateResponse
	if err := g.doJSON(ctx, req, &out); err != nil {
		return "", err
	}
	if len(out.Candidates) == 0 {
		if out.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("prompt blocked: %s", out.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("response has no candidates")
	}

	var b strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String(), nil
}

// Delete removes the uploaded file from the service.
func (g *GeminiBackend) Delete(ctx context.Context, file types.RemoteFile) error {
	if file.Name == "" {
		return fmt.Errorf("remote file has no name")
	}
	req, err := http.NewRequest(http.MethodDelete, geminiBaseURL+"/v1beta/"+file.Name, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if err := g.doJSON(ctx, req, nil); err != nil {
		return fmt.Errorf("deleting %s: %w", describe(file), err)
	}
	return nil
}

// ListModels returns every model visible to the API key, following pages.
func (g *GeminiBackend) ListModels(ctx context.Context) ([]Model, error) {
	var models []Model
	token := ""
	for {
		q := url.Values{"pageSize": {"1000"}}
		if token != "" {
			q.Set("pageToken", token)
		}
		req, err := http.NewRequest(http.MethodGet, geminiBaseURL+"/v1beta/models?"+q.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		var page geminiModelsResponse
		if err := g.doJSON(ctx, req, &page); err != nil {
			return nil, err
		}
		models = append(models, page.Models...)
		if page.NextPageToken == "" {
			return models, nil
		}
		token = page.NextPageToken
	}
}

// doJSON authenticates req, sends it once and decodes a JSON body into out
// when out is non-nil.
func (g *GeminiBackend) doJSON(ctx context.Context, req *http.Request, out any) error {
	req.Header.Set("x-goog-api-key", g.apiKey)
	resp, err := httputil.Do(ctx, g.Client, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

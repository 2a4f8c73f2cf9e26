// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package explain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"cloud.google.com/go/vertexai/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/pdiddy/paper-explainer/pkg/types"
)

// vertexObjectPrefix groups uploaded documents inside the bucket.
const vertexObjectPrefix = "paper-explainer/"

// objectStore is the slice of Cloud Storage the backend uses. It exists so
// tests can stage objects without a bucket.
type objectStore interface {
	Write(ctx context.Context, name, contentType string, r io.Reader) error
	Delete(ctx context.Context, name string) error
	Close() error
}

// contentGenerator is the slice of the Vertex AI client the backend uses.
type contentGenerator interface {
	Generate(ctx context.Context, model string, parts ...genai.Part) (*genai.GenerateContentResponse, error)
	Close() error
}

// gcsBucket writes and deletes objects in one bucket.
type gcsBucket struct {
	client *storage.Client
	bucket string
}

// Write creates name only if it does not exist yet.
func (g *gcsBucket) Write(ctx context.Context, name, contentType string, r io.Reader) error {
	w := g.client.Bucket(g.bucket).Object(name).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("writing %s: %w", gcsURI(g.bucket, name), err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing %s: %w", gcsURI(g.bucket, name), err)
	}
	return nil
}

func (g *gcsBucket) Delete(ctx context.Context, name string) error {
	return g.client.Bucket(g.bucket).Object(name).Delete(ctx)
}

func (g *gcsBucket) Close() error { return g.client.Close() }

// vertexModels generates with the genai client.
type vertexModels struct {
	client *genai.Client
}

func (m *vertexModels) Generate(ctx context.Context, model string, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	return m.client.GenerativeModel(model).GenerateContent(ctx, parts...)
}

func (m *vertexModels) Close() error { return m.client.Close() }

// VertexBackend stages documents in a Cloud Storage bucket and generates
// with Vertex AI. The credential is a service-account JSON file.
type VertexBackend struct {
	ai      contentGenerator
	objects objectStore
	bucket  string
}

// NewVertexBackend connects to Vertex AI and Cloud Storage with the
// service-account file named by cfg.APIKey.
func NewVertexBackend(ctx context.Context, cfg types.AIConfig) (*VertexBackend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := []option.ClientOption{option.WithCredentialsFile(cfg.APIKey)}

	gcs, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, types.Errorf(types.ConfigurationError, "vertex", "storage.NewClient: %w", err)
	}
	ai, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Region, opts...)
	if err != nil {
		gcs.Close()
		return nil, types.Errorf(types.ConfigurationError, "vertex", "genai.NewClient: %w", err)
	}
	return &VertexBackend{
		ai:      &vertexModels{client: ai},
		objects: &gcsBucket{client: gcs, bucket: cfg.Bucket},
		bucket:  cfg.Bucket,
	}, nil
}

// Close releases both clients.
func (v *VertexBackend) Close() error {
	return errors.Join(v.ai.Close(), v.objects.Close())
}

// Upload writes the file at path to a new object under a unique name.
func (v *VertexBackend) Upload(ctx context.Context, path string) (types.RemoteFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.RemoteFile{}, err
	}
	defer f.Close()

	name := vertexObjectPrefix + uuid.NewString() + strings.ToLower(filepath.Ext(path))
	mimeType := vertexMIMEType(MIMEType(path))

	if err := v.objects.Write(ctx, name, mimeType, f); err != nil {
		return types.RemoteFile{}, err
	}

	return types.RemoteFile{
		Name:        name,
		DisplayName: filepath.Base(path),
		URI:         gcsURI(v.bucket, name),
		MIMEType:    mimeType,
	}, nil
}

// Generate asks model about the staged object.
func (v *VertexBackend) Generate(ctx context.Context, model, prompt string, file types.RemoteFile) (string, error) {
	resp, err := v.ai.Generate(ctx, model,
		genai.Text(prompt),
		genai.FileData{MIMEType: file.MIMEType, FileURI: file.URI},
	)
	if err != nil {
		return "", err
	}
	return vertexText(resp)
}

// Delete removes the staged object.
func (v *VertexBackend) Delete(ctx context.Context, file types.RemoteFile) error {
	if err := v.objects.Delete(ctx, file.Name); err != nil {
		return fmt.Errorf("deleting %s: %w", describe(file), err)
	}
	return nil
}

// vertexText concatenates the text parts of the first candidate.
func vertexText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil {
			return "", fmt.Errorf("prompt blocked: %v", resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("response has no candidates")
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return "", fmt.Errorf("candidate has no content (finish reason %v)", cand.FinishReason)
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}

// vertexMIMEType maps Markdown to text/plain, which Vertex accepts for
// file parts.
func vertexMIMEType(mimeType string) string {
	if mimeType == "text/markdown" {
		return "text/plain"
	}
	return mimeType
}

func gcsURI(bucket, name string) string {
	return "gs://" + bucket + "/" + name
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package explain uploads a document to a generative AI service and asks
// for a structured, audience-specific explanation of it.
package explain

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/paper-explainer/pkg/types"
)

// releaseTimeout bounds the remote delete issued after a request finishes.
const releaseTimeout = 30 * time.Second

// Backend abstracts the generative AI service so tests can supply a mock.
type Backend interface {
	// Upload copies the file at path to the service and returns its handle.
	Upload(ctx context.Context, path string) (types.RemoteFile, error)

	// Generate sends one prompt together with a file reference and returns
	// the generated text.
	Generate(ctx context.Context, model, prompt string, file types.RemoteFile) (string, error)

	// Delete releases the service-side copy of file.
	Delete(ctx context.Context, file types.RemoteFile) error
}

// CleanupFunc observes a failed release of a remote file. It never changes
// the outcome of the request that owned the file.
type CleanupFunc func(file types.RemoteFile, err error)

// Option configures an Explainer.
type Option func(*Explainer)

// WithCleanupObserver routes release failures to fn instead of the logger.
func WithCleanupObserver(fn CleanupFunc) Option {
	return func(e *Explainer) {
		if fn != nil {
			e.onCleanup = fn
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Explainer) {
		if l != nil {
			e.log = l
		}
	}
}

// Explainer runs the upload, generate and release sequence for one document
// at a time. It holds no per-request state and is safe for concurrent use
// when its Backend is.
type Explainer struct {
	backend   Backend
	model     string
	log       *slog.Logger
	onCleanup CleanupFunc
}

// NewExplainer binds backend to the model and credential in cfg. A missing
// credential is a ConfigurationError.
func NewExplainer(backend Backend, cfg types.AIConfig, opts ...Option) (*Explainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, types.Errorf(types.ConfigurationError, "explain", "no AI backend configured")
	}
	e := &Explainer{
		backend: backend,
		model:   cfg.Model,
		log:     slog.Default(),
	}
	e.onCleanup = e.logCleanup
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Model returns the model identifier used for generation.
func (e *Explainer) Model() string {
	return e.model
}

// Explain uploads the document at path, requests an explanation for
// audience and returns the generated text verbatim. Every external call is
// made exactly once. After a successful upload the remote file is released
// on every exit path.
func (e *Explainer) Explain(ctx context.Context, path string, audience types.Audience) (string, error) {
	return e.ExplainObserved(ctx, path, audience, nil)
}

// ExplainObserved is Explain with onStage called on entry to the uploading
// and generating stages. onStage may be nil.
func (e *Explainer) ExplainObserved(ctx context.Context, path string, audience types.Audience, onStage func(types.Stage)) (string, error) {
	if onStage == nil {
		onStage = func(types.Stage) {}
	}

	onStage(types.StageUploading)
	file, err := e.backend.Upload(ctx, path)
	if err != nil {
		return "", types.Errorf(types.UploadFailure, "upload", "uploading %s: %w", filepath.Base(path), err)
	}
	defer e.release(ctx, file)

	e.log.Debug("uploaded document", "name", file.Name, "display_name", file.DisplayName, "mime_type", file.MIMEType)

	name := file.DisplayName
	if name == "" {
		name = file.Name
	}
	prompt, err := RenderPrompt(audience, name)
	if err != nil {
		return "", types.Errorf(types.GenerationFailure, "prompt", "rendering prompt: %w", err)
	}

	onStage(types.StageGenerating)
	text, err := e.backend.Generate(ctx, e.model, prompt, file)
	if err != nil {
		return "", types.Errorf(types.GenerationFailure, "generate", "model %s: %w", e.model, err)
	}
	if text == "" {
		return "", types.Errorf(types.GenerationFailure, "generate", "model %s returned no text", e.model)
	}
	return text, nil
}

// release deletes file with a context that survives cancellation of the
// request, so an aborted request still cleans up.
func (e *Explainer) release(ctx context.Context, file types.RemoteFile) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := e.backend.Delete(ctx, file); err != nil {
		e.onCleanup(file, err)
	}
}

func (e *Explainer) logCleanup(file types.RemoteFile, err error) {
	e.log.Warn("failed to delete remote file", "name", file.Name, "error", err)
}

// MIMEType returns the upload content type for a document path.
func MIMEType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".md", ".markdown":
		return "text/markdown"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

// describe formats a RemoteFile for error messages.
func describe(file types.RemoteFile) string {
	if file.DisplayName != "" && file.DisplayName != file.Name {
		return fmt.Sprintf("%s (%s)", file.Name, file.DisplayName)
	}
	return file.Name
}

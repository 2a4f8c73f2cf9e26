// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one explanation request end to end: resolve the
// source, optionally convert it, explain it and write the downloadable copy.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/paper-explainer/internal/convert"
	"github.com/pdiddy/paper-explainer/internal/storage"
	"github.com/pdiddy/paper-explainer/pkg/types"
)

// ArtifactSuffix is appended to the input's base name to form the
// download file name.
const ArtifactSuffix = "_explanation.md"

// mirrorPrefix groups published artifacts in the object store.
const mirrorPrefix = "explanations/"

// Resolver turns a request into a local PDF.
type Resolver interface {
	Resolve(ctx context.Context, req types.Request) (types.LocalDocument, error)
}

// Explainer produces an explanation for a local document, reporting the
// uploading and generating stages to onStage.
type Explainer interface {
	ExplainObserved(ctx context.Context, path string, audience types.Audience, onStage func(types.Stage)) (string, error)
	Model() string
}

// Options controls conversion output and artifact placement.
type Options struct {
	// OutputDir receives converted Markdown (default "output").
	OutputDir string

	// Convert holds post-processing settings for the converter.
	Convert convert.Options

	// ArtifactDir is the parent of per-run artifact directories.
	// Empty means os.TempDir().
	ArtifactDir string

	// Progress receives status lines. Nil discards them.
	Progress io.Writer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithConverter enables the conversion stage.
func WithConverter(c convert.Converter) Option {
	return func(p *Pipeline) { p.converter = c }
}

// WithMirror publishes every artifact to s.
func WithMirror(s storage.Storage) Option {
	return func(p *Pipeline) { p.mirror = s }
}

// WithStageObserver calls fn on every state transition.
func WithStageObserver(fn func(types.Stage)) Option {
	return func(p *Pipeline) { p.onStage = fn }
}

// WithMetrics records stages and outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithOptions replaces the conversion and artifact options.
func WithOptions(o Options) Option {
	return func(p *Pipeline) { p.opts = o }
}

// Pipeline wires the stages together. A Pipeline holds no per-run state
// and may serve concurrent requests.
type Pipeline struct {
	resolver  Resolver
	converter convert.Converter
	explainer Explainer
	mirror    storage.Storage
	opts      Options
	onStage   func(types.Stage)
	metrics   *Metrics
	log       *slog.Logger
}

// New returns a Pipeline. Conversion is skipped unless WithConverter is given.
func New(r Resolver, e Explainer, opts ...Option) *Pipeline {
	p := &Pipeline{
		resolver:  r,
		explainer: e,
		opts:      Options{OutputDir: "output"},
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// run carries the observer for one request.
type run struct {
	p        *Pipeline
	progress io.Writer
	stage    types.Stage
}

func (r *run) enter(s types.Stage) {
	r.stage = s
	r.p.metrics.stage(s)
	if r.p.onStage != nil {
		r.p.onStage(s)
	}
}

// Run executes the pipeline for req. It never panics on stage failures;
// every failure becomes an Err result with no artifact.
func (p *Pipeline) Run(ctx context.Context, req types.Request) Result {
	start := time.Now()
	r := &run{p: p, progress: p.opts.Progress, stage: types.StageIdle}
	if r.progress == nil {
		r.progress = io.Discard
	}

	exp, err := r.execute(ctx, req)
	if err != nil {
		failedAt := r.stage
		r.enter(types.StageFailed)
		p.metrics.finish(string(types.KindOf(err)), time.Since(start).Seconds())
		p.log.Warn("pipeline failed", "stage", failedAt, "kind", types.KindOf(err), "error", err)
		return Err(err)
	}

	r.enter(types.StageDone)
	p.metrics.finish(outcomeOK, time.Since(start).Seconds())
	p.log.Info("pipeline done", "artifact", exp.ArtifactPath, "model", exp.Model, "duration", time.Since(start))
	return Ok(exp)
}

func (r *run) execute(ctx context.Context, req types.Request) (types.Explanation, error) {
	p := r.p
	if err := req.Validate(); err != nil {
		return types.Explanation{}, err
	}
	audience := req.Audience
	if audience == "" {
		audience = types.AudienceScholar
	}

	r.enter(types.StageResolving)
	doc, err := p.resolver.Resolve(ctx, req)
	if err != nil {
		return types.Explanation{}, err
	}

	target := doc.Path
	if p.converter != nil {
		r.enter(types.StageConverting)
		conv, err := convert.ConvertFile(ctx, p.converter, doc.Path, p.opts.OutputDir, p.opts.Convert, r.progress)
		if err != nil {
			return types.Explanation{}, err
		}
		target = conv.Path
	}

	text, err := p.explainer.ExplainObserved(ctx, target, audience, r.enter)
	if err != nil {
		return types.Explanation{}, err
	}

	artifact, err := writeArtifact(p.opts.ArtifactDir, artifactName(doc), text)
	if err != nil {
		return types.Explanation{}, err
	}
	fmt.Fprintf(r.progress, "explanation: %s\n", artifact)

	exp := types.Explanation{
		Text:         text,
		ArtifactPath: artifact,
		Model:        p.explainer.Model(),
		Audience:     audience,
		CreatedAt:    time.Now().UTC(),
	}
	if p.mirror != nil {
		exp.MirrorKey = p.publish(ctx, artifact, text)
	}
	return exp, nil
}

// artifactName is "<input base>_explanation.md". Downloads are named by
// the arXiv identifier rather than the random local file name.
func artifactName(doc types.LocalDocument) string {
	base := strings.TrimSuffix(filepath.Base(doc.Path), filepath.Ext(doc.Path))
	if doc.SourceURL != "" {
		if u, err := url.Parse(doc.SourceURL); err == nil {
			if id := strings.TrimSuffix(path.Base(u.Path), ".pdf"); id != "" && id != "." && id != "/" {
				base = id
			}
		}
	}
	return base + ArtifactSuffix
}

// writeArtifact writes text verbatim to name inside a new directory under
// parent and returns the file path.
func writeArtifact(parent, name, text string) (string, error) {
	dir, err := os.MkdirTemp(parent, "paper-explainer-out-")
	if err != nil {
		return "", types.Errorf(types.ArtifactFailure, "artifact", "creating directory: %w", err)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(text), 0o644); err != nil {
		os.RemoveAll(dir)
		return "", types.Errorf(types.ArtifactFailure, "artifact", "writing %s: %w", p, err)
	}
	return p, nil
}

// publish copies the artifact to the mirror. Mirror failures are logged
// and leave the local artifact as the only copy.
func (p *Pipeline) publish(ctx context.Context, artifact, text string) string {
	key := mirrorPrefix + uuid.NewString() + "/" + filepath.Base(artifact)
	_, err := p.mirror.Put(ctx, key, bytes.NewReader([]byte(text)), storage.PutObjectOptions{
		Size:        int64(len(text)),
		ContentType: "text/markdown; charset=utf-8",
	})
	if err != nil {
		p.log.Warn("failed to mirror explanation", "key", key, "error", err)
		return ""
	}
	return key
}

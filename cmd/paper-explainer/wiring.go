// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/pdiddy/paper-explainer/internal/acquire"
	"github.com/pdiddy/paper-explainer/internal/convert"
	"github.com/pdiddy/paper-explainer/internal/explain"
	"github.com/pdiddy/paper-explainer/internal/pipeline"
	"github.com/pdiddy/paper-explainer/internal/storage"
	"github.com/pdiddy/paper-explainer/pkg/types"
)

// assembly is a wired pipeline plus the resources it holds.
type assembly struct {
	pipeline *pipeline.Pipeline
	mirror   storage.Storage
	closers  []io.Closer
}

func (a *assembly) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// assemble wires resolver, optional converter, explainer and optional
// mirror. The credential is validated before anything else is built, so a
// missing key never reaches a pipeline stage.
func assemble(ctx context.Context, cfg types.Config, withConvert bool, progress io.Writer, log *slog.Logger, extra ...pipeline.Option) (*assembly, error) {
	if err := cfg.AI.Validate(); err != nil {
		return nil, err
	}

	backend, closer, err := explain.NewBackend(ctx, cfg.AI, &http.Client{})
	if err != nil {
		return nil, err
	}
	a := &assembly{closers: []io.Closer{closer}}

	explainer, err := explain.NewExplainer(backend, cfg.AI, explain.WithLogger(log))
	if err != nil {
		a.Close()
		return nil, err
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(log),
		pipeline.WithOptions(pipeline.Options{
			OutputDir:   cfg.Conversion.OutputDir,
			Convert:     convert.OptionsFrom(cfg.Conversion),
			ArtifactDir: cfg.Acquisition.TempDir,
			Progress:    progress,
		}),
		pipeline.WithStageObserver(func(s types.Stage) {
			log.Debug("stage", "stage", s)
		}),
	}

	if withConvert {
		conv, err := convert.New(ctx, cfg.Conversion, progress)
		if err != nil {
			a.Close()
			return nil, types.Errorf(types.ConfigurationError, "convert", "%w", err)
		}
		opts = append(opts, pipeline.WithConverter(conv))
	}

	if cfg.Storage.Enabled() {
		mirror, err := storage.NewMinIO(ctx, cfg.Storage)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.mirror = mirror
		opts = append(opts, pipeline.WithMirror(mirror))
	}

	resolver := acquire.NewResolver(cfg.Acquisition, progress)
	a.pipeline = pipeline.New(resolver, explainer, append(opts, extra...)...)
	return a, nil
}

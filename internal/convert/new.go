// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/paper-explainer/internal/container"
	"github.com/pdiddy/paper-explainer/pkg/types"
)

// New builds the converter selected by cfg.Backend. Image embedding is
// layered on top for backends that do not inline images themselves.
func New(ctx context.Context, cfg types.ConversionConfig, w io.Writer) (Converter, error) {
	switch cfg.Backend {
	case "", types.BackendTabula:
		var c Converter = &TabulaConverter{Log: w}
		if cfg.EmbedImages {
			c = WithImages(c, w)
		}
		return c, nil
	case types.BackendMarkitdown:
		rt, err := container.DetectRuntime(ctx)
		if err != nil {
			return nil, err
		}
		return NewMarkitdownConverter(ctx, rt, cfg.EmbedImages)
	default:
		return nil, fmt.Errorf("unknown conversion backend %q", cfg.Backend)
	}
}

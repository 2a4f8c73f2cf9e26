// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package explain

import (
	"context"
	"io"
	"net/http"

	"github.com/pdiddy/paper-explainer/pkg/types"
)

// NewBackend builds the backend selected by cfg.Backend. The returned
// closer releases client connections and is never nil.
func NewBackend(ctx context.Context, cfg types.AIConfig, client *http.Client) (Backend, io.Closer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	switch cfg.Backend {
	case types.AIBackendVertex:
		v, err := NewVertexBackend(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return v, v, nil
	default:
		g, err := NewGeminiBackend(cfg.APIKey, client)
		if err != nil {
			return nil, nil, err
		}
		return g, nopCloser{}, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

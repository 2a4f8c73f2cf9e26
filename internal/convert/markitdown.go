// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/pdiddy/paper-explainer/internal/container"
	"github.com/pdiddy/paper-explainer/pkg/types"
)

const imageMarkitdown = "markitdown:latest"

// MarkitdownConverter converts PDFs by piping them through the markitdown
// container image. It depends on a container.Runtime (docker or podman)
// injected at construction time.
type MarkitdownConverter struct {
	runtime container.Runtime

	// keepDataURIs asks markitdown to keep images inline as data URIs.
	keepDataURIs bool
}

// NewMarkitdownConverter creates a converter that uses the given container
// runtime to run the markitdown image. It verifies that the markitdown image
// exists locally before returning.
func NewMarkitdownConverter(ctx context.Context, rt container.Runtime, keepDataURIs bool) (*MarkitdownConverter, error) {
	if err := rt.ImageExists(ctx, imageMarkitdown); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &MarkitdownConverter{runtime: rt, keepDataURIs: keepDataURIs}, nil
}

func (m *MarkitdownConverter) Backend() types.ConversionBackend { return types.BackendMarkitdown }

// Convert pipes the PDF at pdfPath through the markitdown container and
// returns the resulting Markdown text.
func (m *MarkitdownConverter) Convert(ctx context.Context, pdfPath string) (string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	var args []string
	if m.keepDataURIs {
		args = append(args, "--keep-data-uris")
	}

	var out bytes.Buffer
	if err := m.runtime.Run(ctx, imageMarkitdown, args, f, &out); err != nil {
		return "", fmt.Errorf("converting %s with markitdown: %w", pdfPath, err)
	}

	if out.Len() == 0 {
		return "", fmt.Errorf("markitdown produced empty output for %s", pdfPath)
	}

	return out.String(), nil
}

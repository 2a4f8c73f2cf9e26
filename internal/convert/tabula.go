// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/tsawler/tabula"

	"github.com/pdiddy/paper-explainer/pkg/types"
)

// TabulaConverter converts PDFs in-process with the tabula extractor.
// Repeated page headers and footers are dropped.
type TabulaConverter struct {
	// Log receives extraction warnings. Nil discards them.
	Log io.Writer
}

func (t *TabulaConverter) Backend() types.ConversionBackend { return types.BackendTabula }

// Convert extracts the PDF at pdfPath as Markdown.
func (t *TabulaConverter) Convert(ctx context.Context, pdfPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	md, warnings, err := tabula.Open(pdfPath).ExcludeHeadersAndFooters().ToMarkdown()
	if err != nil {
		return "", fmt.Errorf("extracting %s: %w", pdfPath, err)
	}
	if len(warnings) > 0 && t.Log != nil {
		fmt.Fprintf(t.Log, "warning: %s: %s\n", pdfPath, tabula.FormatWarnings(warnings))
	}
	if strings.TrimSpace(md) == "" {
		return "", fmt.Errorf("no text extracted from %s", pdfPath)
	}
	return md, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert implements PDF-to-Markdown conversion with pluggable backends.
// Output files carry YAML frontmatter and are written atomically under an
// output directory with timestamped, collision-free names.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-explainer/pkg/types"
)

// Converter transforms a PDF file into Markdown text. Different backends
// (tabula, markitdown) implement this interface.
type Converter interface {
	// Convert reads a PDF at pdfPath and returns the Markdown content.
	Convert(ctx context.Context, pdfPath string) (string, error)

	// Backend names the implementation for frontmatter and logs.
	Backend() types.ConversionBackend
}

// Options controls post-processing and progress output.
type Options struct {
	KeepCode     bool
	EmbedImages  bool
	ShowProgress bool
}

// OptionsFrom extracts Options from the conversion config.
func OptionsFrom(cfg types.ConversionConfig) Options {
	return Options{
		KeepCode:     cfg.KeepCode,
		EmbedImages:  cfg.EmbedImages,
		ShowProgress: cfg.ShowProgress,
	}
}

// countPages is swapped in tests that use placeholder PDFs.
var countPages = api.PageCountFile

// frontmatter is the YAML header written above the converted body.
type frontmatter struct {
	SourcePDF   string                  `yaml:"source_pdf"`
	Backend     types.ConversionBackend `yaml:"backend"`
	Pages       int                     `yaml:"pages,omitempty"`
	ConvertedAt string                  `yaml:"converted_at"`
}

// ConvertFile converts pdfPath with c and writes the result to outDir as
// "<unix-seconds>-<id>.md". Any failure is a ConversionFailure and leaves
// no output file behind.
func ConvertFile(ctx context.Context, c Converter, pdfPath, outDir string, opts Options, w io.Writer) (types.ConvertedDocument, error) {
	if w == nil || !opts.ShowProgress {
		w = io.Discard
	}
	base := filepath.Base(pdfPath)

	pages, err := countPages(pdfPath)
	if err != nil {
		fmt.Fprintf(w, "warning: %s: page count unavailable (%v)\n", base, err)
		pages = 0
	}
	fmt.Fprintf(w, "converting: %s (%d pages, %s)\n", base, pages, c.Backend())

	body, err := c.Convert(ctx, pdfPath)
	if err != nil {
		return types.ConvertedDocument{}, types.Errorf(types.ConversionFailure, "convert", "converting %s: %w", base, err)
	}
	if !opts.KeepCode {
		body = stripCodeBlocks(body)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return types.ConvertedDocument{}, types.Errorf(types.ConversionFailure, "convert", "creating %s: %w", outDir, err)
	}

	content, err := addFrontmatter(frontmatter{
		SourcePDF:   pdfPath,
		Backend:     c.Backend(),
		Pages:       pages,
		ConvertedAt: time.Now().UTC().Format(time.RFC3339),
	}, body)
	if err != nil {
		return types.ConvertedDocument{}, types.Errorf(types.ConversionFailure, "convert", "frontmatter: %w", err)
	}

	mdPath := filepath.Join(outDir, outputName(time.Now()))
	if err := writeAtomic(mdPath, []byte(content)); err != nil {
		return types.ConvertedDocument{}, types.Errorf(types.ConversionFailure, "convert", "writing %s: %w", mdPath, err)
	}

	fmt.Fprintf(w, "converted: %s -> %s\n", base, mdPath)
	return types.ConvertedDocument{
		Path:     mdPath,
		Markdown: content,
		Pages:    pages,
		Backend:  c.Backend(),
	}, nil
}

// outputName returns "<unix-seconds>-<8 hex>.md". The random suffix keeps
// names unique when several conversions finish within the same second.
func outputName(now time.Time) string {
	return fmt.Sprintf("%d-%s.md", now.Unix(), uuid.NewString()[:8])
}

// addFrontmatter prepends a YAML frontmatter block to body.
func addFrontmatter(fm frontmatter, body string) (string, error) {
	data, err := yaml.Marshal(fm)
	if err != nil {
		return "", err
	}
	return "---\n" + string(data) + "---\n\n" + body, nil
}

// writeAtomic writes data to a temp file beside path and renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".convert-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		os.Remove(tmpPath)
		if writeErr != nil {
			return writeErr
		}
		return closeErr
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

var fencedBlock = regexp.MustCompile("(?ms)^[ \t]*```[^\n]*\n.*?^[ \t]*```[ \t]*$\n?")

// stripCodeBlocks removes fenced code blocks.
func stripCodeBlocks(md string) string {
	return fencedBlock.ReplaceAllString(md, "")
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire turns an explanation request into a local PDF path.
// A URL is validated, rewritten to its download form and streamed into a
// fresh temporary directory; an uploaded file is checked for existence.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/pdiddy/paper-explainer/internal/httputil"
	"github.com/pdiddy/paper-explainer/pkg/types"
)

// Resolver produces local PDF paths for requests.
type Resolver struct {
	// Client performs downloads. Nil means a client built from Config.Timeout.
	Client *http.Client

	Config types.AcquisitionConfig

	// Log receives status lines. Nil discards them.
	Log io.Writer
}

// NewResolver returns a Resolver whose HTTP client carries cfg.Timeout.
func NewResolver(cfg types.AcquisitionConfig, w io.Writer) *Resolver {
	return &Resolver{
		Client: &http.Client{Timeout: cfg.Timeout},
		Config: cfg,
		Log:    w,
	}
}

// Resolve validates req and returns the local document it refers to.
// Validation failures have no network or filesystem side effects.
func (r *Resolver) Resolve(ctx context.Context, req types.Request) (types.LocalDocument, error) {
	if err := req.Validate(); err != nil {
		return types.LocalDocument{}, err
	}
	if req.URL != "" {
		return r.download(ctx, req.URL)
	}
	return r.local(req.UploadPath)
}

// local verifies that an uploaded file exists and is a regular file.
func (r *Resolver) local(path string) (types.LocalDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return types.LocalDocument{}, types.Errorf(types.FileNotFound, "resolve", "could not access the PDF file %s: %w", path, err)
	}
	if info.IsDir() {
		return types.LocalDocument{}, types.Errorf(types.FileNotFound, "resolve", "%s is a directory", path)
	}
	r.logf("using: %s\n", path)
	return types.LocalDocument{Path: path, Source: types.SourceUpload}, nil
}

// download fetches the PDF behind rawURL into a new temporary directory.
func (r *Resolver) download(ctx context.Context, rawURL string) (types.LocalDocument, error) {
	pdfURL, err := PDFURL(rawURL)
	if err != nil {
		return types.LocalDocument{}, err
	}

	dir, err := os.MkdirTemp(r.Config.TempDir, "paper-explainer-")
	if err != nil {
		return types.LocalDocument{}, types.Errorf(types.DownloadFailure, "download", "creating temp directory: %w", err)
	}
	destPath := filepath.Join(dir, uuid.NewString()+".pdf")

	r.logf("downloading: %s\n", pdfURL)
	n, err := r.fetch(ctx, pdfURL, destPath)
	if err != nil {
		os.RemoveAll(dir)
		return types.LocalDocument{}, types.Errorf(types.DownloadFailure, "download", "could not download the PDF from arXiv: %w", err)
	}
	r.logf("downloaded: %s (%d bytes)\n", filepath.Base(destPath), n)

	return types.LocalDocument{Path: destPath, Source: types.SourceURL, SourceURL: pdfURL}, nil
}

// fetch streams url to destPath in fixed-size chunks.
func (r *Resolver) fetch(ctx context.Context, url, destPath string) (int64, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	if r.Config.UserAgent != "" {
		req.Header.Set("User-Agent", r.Config.UserAgent)
	}
	req.Header.Set("Accept", "application/pdf")

	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: r.Config.Timeout}
	}

	resp, err := httputil.Do(ctx, client, req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	f, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", destPath, err)
	}
	n, copyErr := httputil.CopyChunked(f, resp.Body, r.Config.ChunkSize)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		return n, fmt.Errorf("writing download: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("empty response body from %s", url)
	}
	return n, nil
}

func (r *Resolver) logf(format string, args ...any) {
	if r.Log != nil {
		fmt.Fprintf(r.Log, format, args...)
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of a failed response body is kept in errors.
const maxErrorBody = 512

// StatusError is returned by Do when the server answers outside 2xx.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("HTTP %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// Do executes req exactly once under ctx. A non-2xx response is drained,
// closed and converted to a *StatusError; on success the caller owns the
// response body.
func Do(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			URL:        redact(req.URL.String()),
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return resp, nil
}

// CopyChunked streams src into dst in writes of at most chunkSize bytes and
// returns the number of bytes written.
func CopyChunked(dst io.Writer, src io.Reader, chunkSize int) (int64, error) {
	if chunkSize <= 0 {
		chunkSize = 8192
	}
	buf := make([]byte, chunkSize)
	return io.CopyBuffer(onlyWriter{dst}, onlyReader{src}, buf)
}

// onlyWriter and onlyReader hide ReadFrom/WriteTo so io.CopyBuffer honours
// the buffer size.
type onlyWriter struct{ io.Writer }

type onlyReader struct{ io.Reader }

// redact drops the query string, which may carry a key.
func redact(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		return raw[:i]
	}
	return raw
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a pipeline failure.
type ErrorKind string

const (
	InvalidInput       ErrorKind = "invalid_input"
	MissingInput       ErrorKind = "missing_input"
	DownloadFailure    ErrorKind = "download_failure"
	FileNotFound       ErrorKind = "file_not_found"
	ConversionFailure  ErrorKind = "conversion_failure"
	UploadFailure      ErrorKind = "upload_failure"
	GenerationFailure  ErrorKind = "generation_failure"
	ConfigurationError ErrorKind = "configuration_error"

	// ArtifactFailure covers writing or publishing the downloadable copy.
	ArtifactFailure ErrorKind = "artifact_failure"
)

// Error is a classified failure. Op names the step that failed.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds an *Error of the given kind with a formatted cause.
// A %w verb in format keeps the wrapped error reachable.
func Errorf(kind ErrorKind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"errors"

	"github.com/pdiddy/paper-explainer/pkg/types"
)

// Result is the outcome of one run: either Ok with an explanation or Err
// with a classified failure. The zero value is an unclassified failure.
type Result struct {
	ok          bool
	explanation types.Explanation
	err         error
}

// Ok wraps a successful explanation.
func Ok(e types.Explanation) Result {
	return Result{ok: true, explanation: e}
}

// Err wraps a failure. Errors without a kind are reported as-is.
func Err(err error) Result {
	if err == nil {
		err = errors.New("pipeline failed without an error")
	}
	return Result{err: err}
}

// IsOk reports whether the run produced an explanation.
func (r Result) IsOk() bool { return r.ok }

// Explanation returns the explanation and true for an Ok result.
func (r Result) Explanation() (types.Explanation, bool) {
	return r.explanation, r.ok
}

// Kind returns the failure kind, or "" for an Ok result.
func (r Result) Kind() types.ErrorKind {
	if r.ok {
		return ""
	}
	return types.KindOf(r.err)
}

// Message is the human-readable failure text shown in place of an
// explanation. Empty for an Ok result.
func (r Result) Message() string {
	if r.ok || r.err == nil {
		return ""
	}
	return r.err.Error()
}

// Err returns the typed error, or nil for an Ok result.
func (r Result) Err() error {
	if r.ok {
		return nil
	}
	return r.err
}

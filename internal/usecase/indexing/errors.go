package indexing

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/searchbridge/internal/domain"
	"github.com/kailas-cloud/searchbridge/internal/domain/ledger"
)

// WriteError reports the identities a write could not store, each with its cause.
type WriteError struct {
	Index    string
	Op       ledger.Op
	Failures map[string]string
	// Err is the request-level failure; nil when only some documents were rejected.
	Err error
}

func (e *WriteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %d records: %v", e.Op, e.Index, len(e.Failures), e.Err)
	}
	return fmt.Sprintf("%s %s: %d records rejected", e.Op, e.Index, len(e.Failures))
}

func (e *WriteError) Unwrap() []error {
	if e.Err == nil {
		return []error{domain.ErrWriteFailed}
	}
	return []error{domain.ErrWriteFailed, e.Err}
}

// Identities returns the failed identities sorted.
func (e *WriteError) Identities() []string {
	out := make([]string, 0, len(e.Failures))
	for id := range e.Failures {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// IsRequestFailure reports whether err carries a write whose whole request
// failed, as opposed to documents the engine rejected one by one.
func IsRequestFailure(err error) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *WriteError:
		return e.Err != nil
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if IsRequestFailure(inner) {
				return true
			}
		}
		return false
	case interface{ Unwrap() error }:
		return IsRequestFailure(e.Unwrap())
	}
	return false
}

func requestFailed(index string, op ledger.Op, identities []string, err error) *WriteError {
	failures := make(map[string]string, len(identities))
	for _, id := range identities {
		failures[id] = err.Error()
	}
	return &WriteError{Index: index, Op: op, Failures: failures, Err: err}
}

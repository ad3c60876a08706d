// Package ragerr defines the error taxonomy shared by every CORE
// subsystem: chunker, indexer, store, retriever and orchestration.
package ragerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can decide whether to retry,
// surface it to the user, or unwind silently.
type Kind int

const (
	// KindUnknown is the zero value; never constructed directly.
	KindUnknown Kind = iota
	// KindIndexingAborted marks cooperative cancellation of an indexing run.
	KindIndexingAborted
	// KindEmbeddingError marks an embedding provider/transport failure.
	KindEmbeddingError
	// KindStoreError marks a persistence failure.
	KindStoreError
	// KindInvalidQuery marks a BM25 query that failed to parse.
	KindInvalidQuery
	// KindConfigError marks missing or invalid provider configuration.
	KindConfigError
)

func (k Kind) String() string {
	switch k {
	case KindIndexingAborted:
		return "IndexingAborted"
	case KindEmbeddingError:
		return "EmbeddingError"
	case KindStoreError:
		return "StoreError"
	case KindInvalidQuery:
		return "InvalidQuery"
	case KindConfigError:
		return "ConfigError"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type carried across CORE boundaries.
// Op names the operation that failed (e.g. "indexer.indexBook"),
// which lets logs pinpoint a failure without parsing message text.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, &ragerr.Error{Kind: ragerr.KindStoreError})
// style comparisons work by comparing on Kind rather than identity.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

func newErr(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Aborted wraps err as an IndexingAborted error.
func Aborted(op string, err error) *Error { return newErr(KindIndexingAborted, op, err) }

// Embedding wraps err as an EmbeddingError.
func Embedding(op string, err error) *Error { return newErr(KindEmbeddingError, op, err) }

// Store wraps err as a StoreError.
func Store(op string, err error) *Error { return newErr(KindStoreError, op, err) }

// InvalidQuery wraps err as an InvalidQuery error.
func InvalidQuery(op string, err error) *Error { return newErr(KindInvalidQuery, op, err) }

// Config wraps err as a ConfigError.
func Config(op string, err error) *Error { return newErr(KindConfigError, op, err) }

// Is reports whether err (or something it wraps) has the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// WrapError wraps err with additional context, matching the style
// used across the rest of this module's service layer.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

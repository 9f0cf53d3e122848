package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}
)

// Error implementations
func (e *NotFoundError) Error() string   { return e.Message }
func (e *ValidationError) Error() string { return e.Message }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int   { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

// Is lets NotFoundError and ValidationError match their sentinels
func (e *NotFoundError) Is(target error) bool   { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")

	// ErrArticleNotFound is fatal and never retried: the title is malformed
	// or the upstream wiki has no such page.
	ErrArticleNotFound = errors.New("article not found")

	// ErrSourceUnavailable means an upstream source kept failing after retries.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrSourceInconsistency means an upstream source broke its contract
	// (duplicate or out-of-order data). Never repaired silently.
	ErrSourceInconsistency = errors.New("source inconsistency")
)

// SourceError records which upstream source and operation failed.
// It matches Kind with errors.Is and unwraps to the underlying cause.
type SourceError struct {
	Source string // "revisions", "pageviews", "content", "geolocation"
	Op     string // e.g. "fetch page", "lookup"
	Kind   error  // one of the Err* sentinels above
	Err    error  // underlying cause, may be nil
}

// Error implements the error interface
func (e *SourceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v: %v", e.Source, e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying cause
func (e *SourceError) Unwrap() error { return e.Err }

// Is allows errors.Is() to match against the error kind
func (e *SourceError) Is(target error) bool { return target == e.Kind }

// StatusCode implements the HTTPError interface
func (e *SourceError) StatusCode() int {
	switch e.Kind {
	case ErrArticleNotFound:
		return http.StatusNotFound
	case ErrSourceInconsistency:
		return http.StatusBadGateway
	default:
		return http.StatusServiceUnavailable
	}
}

// NewArticleNotFound builds the error returned for a missing or malformed title.
func NewArticleNotFound(source, title string) *SourceError {
	return &SourceError{
		Source: source,
		Op:     "resolve title",
		Kind:   ErrArticleNotFound,
		Err:    fmt.Errorf("title %q", title),
	}
}

// NewSourceUnavailable wraps the last error seen after retries were exhausted.
func NewSourceUnavailable(source, op string, cause error) *SourceError {
	return &SourceError{Source: source, Op: op, Kind: ErrSourceUnavailable, Err: cause}
}

// NewSourceInconsistency reports an upstream contract violation.
func NewSourceInconsistency(source, op string, cause error) *SourceError {
	return &SourceError{Source: source, Op: op, Kind: ErrSourceInconsistency, Err: cause}
}

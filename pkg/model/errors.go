package model

import (
	"errors"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
)

// Session state errors. They are always caller-correctable.
var (
	ErrAlreadyActive      = goerr.New("call is already active")
	ErrNotActive          = goerr.New("call is not active")
	ErrEmptyUtterance     = goerr.New("no utterance to answer")
	ErrNoContext          = goerr.New("no context available, rebuild the corpus first")
	ErrResponseInProgress = goerr.New("response is already in progress")
)

// IsSessionStateError reports whether err is an illegal session transition
func IsSessionStateError(err error) bool {
	for _, target := range []error{ErrAlreadyActive, ErrNotActive, ErrEmptyUtterance, ErrNoContext, ErrResponseInProgress} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IngestionError reports a single document that could not be read. It never
// aborts the batch it belongs to.
type IngestionError struct {
	Document string
	Err      error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("failed to ingest %q: %v", e.Document, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

type GenerationErrorKind string

const (
	GenerationUnavailable     GenerationErrorKind = "unavailable"
	GenerationRateLimited     GenerationErrorKind = "rate_limited"
	GenerationInvalidResponse GenerationErrorKind = "invalid_response"
	GenerationUnknown         GenerationErrorKind = "unknown"
)

// GenerationError is a normalized failure of the generation backend
type GenerationError struct {
	Kind   GenerationErrorKind
	Detail string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("generation failed (%s)", e.Kind)
	}
	return fmt.Sprintf("generation failed (%s): %s", e.Kind, e.Detail)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Transient reports whether the caller may safely retry
func (e *GenerationError) Transient() bool {
	return e.Kind == GenerationUnavailable || e.Kind == GenerationRateLimited
}

// AsGenerationError extracts a GenerationError from an error chain
func AsGenerationError(err error) (*GenerationError, bool) {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr, true
	}
	return nil, false
}

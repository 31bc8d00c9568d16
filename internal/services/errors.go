package services

import (
	"errors"
	"fmt"
)

// Extraction errors.
var (
	ErrPayloadTooLarge    = errors.New("payload too large")
	ErrUnsupportedFormat  = errors.New("unsupported format")
	ErrEmptyContent       = errors.New("document has no extractable text")
	ErrUnreadableDocument = errors.New("document could not be parsed")
)

// Model invocation failure kinds. All of them are retried under the same budget.
var (
	ErrTimeout           = errors.New("model request timed out")
	ErrTransport         = errors.New("model request failed")
	ErrMalformedResponse = errors.New("model response is not a JSON object")
	ErrSchemaViolation   = errors.New("model response does not match schema")
)

// Orchestrator errors.
var (
	ErrPersistence      = errors.New("failed to persist review")
	ErrReviewInProgress = errors.New("document is already being reviewed")
	ErrAlreadyReviewed  = errors.New("document has already been reviewed")
	ErrDocumentNotFound = errors.New("document not found")
	ErrStudentNotFound  = errors.New("student profile not found")
	ErrInvalidKind      = errors.New("invalid review kind")
)

// InvocationError is returned once the retry budget is spent. Kind is the
// failure kind of the final attempt and Err its underlying cause.
type InvocationError struct {
	Kind     error
	Attempts int
	Err      error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("model invocation failed after %d attempts: %v: %v", e.Attempts, e.Kind, e.Err)
}

func (e *InvocationError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// attemptError tags a single attempt's failure with its kind.
type attemptError struct {
	kind error
	err  error
}

func (e *attemptError) Error() string {
	return fmt.Sprintf("%v: %v", e.kind, e.err)
}

func (e *attemptError) Unwrap() []error {
	return []error{e.kind, e.err}
}

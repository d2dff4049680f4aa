// Package shared holds the cross-cutting domain vocabulary: error kinds,
// domain events, and the value objects every bounded context speaks in.
// Nothing here may import outside the standard library.
package shared

import (
	"errors"
	"fmt"
)

// DomainError carries the bounded context and operation a failure came from,
// on top of a base kind that errors.Is() can match against.
type DomainError struct {
	Domain  string // bounded context, e.g. "progress", "quiz", "certificate"
	Op      string // failing operation, e.g. "Submit", "Generate"
	Kind    error  // base sentinel matched by errors.Is()
	Message string
	Err     error // wrapped cause, may be nil
}

func (e *DomainError) Error() string {
	prefix := fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
	if e.Err == nil {
		return prefix
	}
	return fmt.Sprintf("%s: %v", prefix, e.Err)
}

// Unwrap exposes the cause when there is one, otherwise the kind, so both
// errors.Is(err, cause) and errors.Is(err, kind) hold.
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

// NewDomainError builds a DomainError without a wrapped cause.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message}
}

// WrapError builds a DomainError around an underlying cause.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message, Err: err}
}

// Base kinds. Every DomainError points at one of these, which keeps
// errors.Is() checks independent of which context raised the failure.
var (
	// Lookup and existence
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Input validation
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// Lifecycle and state
	ErrConflict           = errors.New("conflict")
	ErrInvalidState       = errors.New("invalid state")
	ErrStateTransition    = errors.New("invalid state transition")
	ErrFailedPrecondition = errors.New("failed precondition")

	// Access
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Concurrency
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// Downstream services and everything else
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrInternal           = errors.New("internal error")
)

// Progress context
var (
	ErrCourseNotFound   = NewDomainError("progress", "Find", ErrNotFound, "course not found")
	ErrLessonNotFound   = NewDomainError("progress", "Find", ErrNotFound, "lesson not found")
	ErrProgressNotFound = NewDomainError("progress", "Find", ErrNotFound, "lesson progress not found")
)

// Quiz context
var (
	ErrQuizNotFound        = NewDomainError("quiz", "Find", ErrNotFound, "quiz not found")
	ErrQuestionNotFound    = NewDomainError("quiz", "Find", ErrNotFound, "question not found")
	ErrAttemptNotFound     = NewDomainError("quiz", "Find", ErrNotFound, "quiz attempt not found")
	ErrAttemptNotOwned     = NewDomainError("quiz", "Submit", ErrUnauthorized, "attempt belongs to another student")
	ErrAttemptSubmitted    = NewDomainError("quiz", "Submit", ErrConflict, "quiz already submitted")
	ErrAttemptNotSubmitted = NewDomainError("quiz", "Inspect", ErrInvalidState, "attempt has not been submitted")
)

// Certificate context
var (
	ErrCertificateNotFound = NewDomainError("certificate", "Find", ErrNotFound, "certificate not found")
	ErrCertificateExists   = NewDomainError("certificate", "Create", ErrAlreadyExists, "certificate already issued for this course and student")
	ErrCodeTaken           = NewDomainError("certificate", "Create", ErrConflict, "verification code already in use")
	ErrPDFNotReady         = NewDomainError("certificate", "Download", ErrFailedPrecondition, "certificate PDF not yet generated")
)

// PDF renderer
var (
	ErrRendererUnavailable = NewDomainError("pdfrender", "Render", ErrServiceUnavailable, "PDF renderer is unavailable")
	ErrRenderFailed        = NewDomainError("pdfrender", "Render", ErrExternalService, "PDF rendering failed")
	ErrPDFLoadFailed       = NewDomainError("pdfrender", "Load", ErrExternalService, "failed to load rendered PDF")
)

func isAny(err error, kinds ...error) bool {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether the error means the entity does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether the error is a conflict with existing state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsUnauthorized reports whether the caller lacks access.
func IsUnauthorized(err error) bool {
	return isAny(err, ErrUnauthorized, ErrForbidden)
}

// IsFailedPrecondition reports whether a required prior step is missing.
func IsFailedPrecondition(err error) bool {
	return errors.Is(err, ErrFailedPrecondition)
}

// IsValidation reports whether the error stems from rejected input.
func IsValidation(err error) bool {
	return isAny(err, ErrValidation, ErrInvalidID, ErrInvalidInput, ErrEmptyValue, ErrValueOutOfRange)
}

// IsExternalService reports whether a downstream dependency failed.
func IsExternalService(err error) bool {
	return isAny(err, ErrExternalService, ErrServiceUnavailable, ErrTimeout)
}

// IsRetryable reports whether repeating the operation could succeed.
func IsRetryable(err error) bool {
	return isAny(err, ErrServiceUnavailable, ErrTimeout, ErrConcurrentModification)
}

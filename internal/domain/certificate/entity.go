// Package certificate contains the issuance domain: eligibility results,
// the certificate record itself, and the verification lookup shapes.
package certificate

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cour-hub/cour-certification-hub/internal/domain/shared"
)

// Certificate is the durable proof of course completion. At most one ever
// exists per (CourseID, StudentID); VerificationCode is globally unique.
type Certificate struct {
	ID               uuid.UUID
	CourseID         uuid.UUID
	StudentID        uuid.UUID
	VerificationCode string
	CompletionRate   float64 // snapshot at issuance
	IssuedAt         time.Time
	PDFPath          *string // nil until rendering succeeds
}

// New creates a certificate record ready for insertion.
func New(id, courseID, studentID uuid.UUID, code string, completionRate float64, issuedAt time.Time) *Certificate {
	return &Certificate{
		ID:               id,
		CourseID:         courseID,
		StudentID:        studentID,
		VerificationCode: code,
		CompletionRate:   completionRate,
		IssuedAt:         issuedAt,
	}
}

// Rendered reports whether the PDF has been rendered.
func (c *Certificate) Rendered() bool {
	return c.PDFPath != nil
}

// Eligibility is the result of evaluating certification criteria for a
// (course, student) pair. Pure data; computing it has no side effects.
type Eligibility struct {
	Eligible            bool
	CompletionRate      float64
	CompletionMet       bool
	QuizzesMet          bool
	MissingRequirements []string
}

// VerificationResult is the public verification-lookup answer. A miss is
// Valid=false with every other field zeroed, never an error, so the public
// endpoint does not leak whether a failure or a miss occurred.
type VerificationResult struct {
	Valid          bool
	CertificateID  uuid.UUID
	CourseID       uuid.UUID
	CourseTitle    string
	StudentID      uuid.UUID
	CompletionRate float64
	IssuedAt       time.Time
}

// NotEligibleError is returned when issuance is requested while requirements
// are unmet. It keeps the structured requirement list so callers can branch
// on or display individual items rather than string-matching the message.
type NotEligibleError struct {
	CourseID  uuid.UUID
	StudentID uuid.UUID
	Missing   []string
}

// Error implements the error interface.
func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("certificate.Generate: student not eligible: %s", strings.Join(e.Missing, ", "))
}

// Is matches shared.ErrFailedPrecondition.
func (e *NotEligibleError) Is(target error) bool {
	return target == shared.ErrFailedPrecondition
}

// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"math"
	"regexp"
)

// ═══════════════════════════════════════════════════════════════════════════
// Percentage
// ═══════════════════════════════════════════════════════════════════════════

// Percentage represents a 0-100 percentage value.
type Percentage float64

// IsValid checks that the percentage is within [0, 100].
func (p Percentage) IsValid() bool {
	return p >= 0 && p <= 100
}

// Float64 returns the underlying float64 value.
func (p Percentage) Float64() float64 {
	return float64(p)
}

// String returns a human-readable representation with one decimal place.
func (p Percentage) String() string {
	return fmt.Sprintf("%.1f%%", float64(p))
}

// NewPercentage creates a Percentage with range validation.
func NewPercentage(v float64) (Percentage, error) {
	p := Percentage(v)
	if !p.IsValid() {
		return 0, ErrValueOutOfRange
	}
	return p, nil
}

// Round2 rounds a value to 2 decimal places using round-half-up.
// Used for completion rates so that 2/3 of 100 becomes 66.67.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// Ratio returns part/total as a percentage rounded to 2 decimal places.
// A zero total yields 0 rather than an error or NaN.
func Ratio(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return Round2(float64(part) * 100 / float64(total))
}

// ═══════════════════════════════════════════════════════════════════════════
// Verification Code
// ═══════════════════════════════════════════════════════════════════════════

// VerificationCodeLength is the length of a certificate verification code.
const VerificationCodeLength = 8

var verificationCodeRegex = regexp.MustCompile(`^[A-Z0-9]{8}$`)

// VerificationCode is a short public token allowing anyone to confirm a
// certificate's authenticity without access to internal ids.
type VerificationCode string

// IsValid checks the 8-char uppercase alphanumeric format.
func (c VerificationCode) IsValid() bool {
	return verificationCodeRegex.MatchString(string(c))
}

// String returns the string representation.
func (c VerificationCode) String() string {
	return string(c)
}

// NewVerificationCode creates a VerificationCode with format validation.
func NewVerificationCode(s string) (VerificationCode, error) {
	c := VerificationCode(s)
	if !c.IsValid() {
		return "", ErrInvalidFormat
	}
	return c, nil
}

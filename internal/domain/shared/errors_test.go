package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	err := NewDomainError("certificate", "Generate", ErrFailedPrecondition, "not eligible")
	assert.True(t, errors.Is(err, ErrFailedPrecondition))
	assert.False(t, errors.Is(err, ErrNotFound))

	wrapped := fmt.Errorf("outer: %w", err)
	assert.True(t, IsFailedPrecondition(wrapped))
}

func TestDomainError_SentinelKinds(t *testing.T) {
	assert.True(t, IsNotFound(ErrCertificateNotFound))
	assert.True(t, IsNotFound(ErrAttemptNotFound))
	assert.True(t, IsConflict(ErrAttemptSubmitted))
	assert.True(t, IsConflict(ErrCodeTaken))

	// A fresh error carrying ErrCodeTaken as its kind matches the sentinel,
	// which is what the issuer's collision-retry loop depends on.
	storeErr := NewDomainError("certificate", "InsertIfAbsent", ErrCodeTaken, "verification code already in use")
	assert.True(t, errors.Is(storeErr, ErrCodeTaken))
}

func TestWrapError_PreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapError("quiz", "Submit", ErrConflict, "persist failed", cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrConflict))
	assert.Contains(t, err.Error(), "quiz.Submit")
	assert.Contains(t, err.Error(), "connection reset")
}

package certificate

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/cour-hub/cour-certification-hub/internal/domain/shared"
)

func TestCertificate_Rendered(t *testing.T) {
	c := New(uuid.New(), uuid.New(), uuid.New(), "A3F9B2C1", 92.5, time.Now())
	assert.False(t, c.Rendered())

	path := "certificates/a3f9b2c1.pdf"
	c.PDFPath = &path
	assert.True(t, c.Rendered())
}

func TestNotEligibleError(t *testing.T) {
	err := &NotEligibleError{
		CourseID:  uuid.New(),
		StudentID: uuid.New(),
		Missing: []string{
			"Course completion 50.0% (required: 80.0%)",
			"Quiz not attempted: Final Exam",
		},
	}

	assert.True(t, errors.Is(err, shared.ErrFailedPrecondition))
	assert.Contains(t, err.Error(), "Course completion 50.0%")
	assert.Contains(t, err.Error(), "Quiz not attempted: Final Exam")
}

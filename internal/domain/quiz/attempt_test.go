package quiz

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/cour-hub/cour-certification-hub/internal/domain/shared"
)

func TestGrade(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	a := NewAttempt(uuid.New(), uuid.New(), uuid.New(), 4, now)
	assert.Equal(t, StatusStarted, a.Status())

	err := a.Grade(3, 60, now.Add(10*time.Minute))
	assert.NoError(t, err)
	assert.Equal(t, 3, a.Score)
	assert.Equal(t, 4, a.MaxScore)
	assert.Equal(t, 75.0, a.Percentage)
	assert.True(t, a.Passed)
	assert.Equal(t, StatusSubmitted, a.Status())
}

func TestGrade_PassBoundary(t *testing.T) {
	now := time.Now()

	// Exactly at the threshold passes.
	at := NewAttempt(uuid.New(), uuid.New(), uuid.New(), 5, now)
	assert.NoError(t, at.Grade(3, 60, now))
	assert.Equal(t, 60.0, at.Percentage)
	assert.True(t, at.Passed)

	// Just below fails.
	below := NewAttempt(uuid.New(), uuid.New(), uuid.New(), 3, now)
	assert.NoError(t, below.Grade(1, 60, now))
	assert.Equal(t, 33.33, below.Percentage)
	assert.False(t, below.Passed)
}

func TestGrade_RoundsHalfUp(t *testing.T) {
	now := time.Now()
	a := NewAttempt(uuid.New(), uuid.New(), uuid.New(), 3, now)
	assert.NoError(t, a.Grade(2, 60, now))
	assert.Equal(t, 66.67, a.Percentage)
}

func TestGrade_ZeroQuestions(t *testing.T) {
	now := time.Now()
	a := NewAttempt(uuid.New(), uuid.New(), uuid.New(), 0, now)
	assert.NoError(t, a.Grade(0, 60, now))
	assert.Equal(t, 0.0, a.Percentage)
	assert.False(t, a.Passed)
}

func TestGrade_AlreadySubmitted(t *testing.T) {
	now := time.Now()
	a := NewAttempt(uuid.New(), uuid.New(), uuid.New(), 2, now)
	assert.NoError(t, a.Grade(2, 60, now))

	err := a.Grade(1, 60, now.Add(time.Minute))
	assert.ErrorIs(t, err, shared.ErrAttemptSubmitted)
	// Grading fields untouched by the rejected call.
	assert.Equal(t, 2, a.Score)
	assert.Equal(t, 100.0, a.Percentage)
}

func TestOwnedBy(t *testing.T) {
	owner := uuid.New()
	a := NewAttempt(uuid.New(), uuid.New(), owner, 1, time.Now())
	assert.True(t, a.OwnedBy(owner))
	assert.False(t, a.OwnedBy(uuid.New()))
}

func TestBestAttempt(t *testing.T) {
	now := time.Now()
	mk := func(pct float64, submitted bool) *Attempt {
		a := NewAttempt(uuid.New(), uuid.New(), uuid.New(), 10, now)
		if submitted {
			a.Percentage = pct
			at := now
			a.SubmittedAt = &at
		}
		return a
	}

	assert.Nil(t, BestAttempt(nil))
	assert.Nil(t, BestAttempt([]*Attempt{mk(0, false)}))

	low := mk(40, true)
	high := mk(90, true)
	inProgress := mk(0, false)
	assert.Same(t, high, BestAttempt([]*Attempt{low, high, inProgress}))
	assert.Same(t, high, BestAttempt([]*Attempt{high, low}))

	// Ties keep the first maximal attempt scanned.
	tieA := mk(80, true)
	tieB := mk(80, true)
	assert.Same(t, tieA, BestAttempt([]*Attempt{tieA, tieB}))
}

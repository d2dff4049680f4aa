// Package quiz contains the grading-engine domain: the attempt lifecycle
// (started → submitted), answer grading against question answer keys, and
// best-attempt selection used by certification eligibility.
package quiz

import (
	"time"

	"github.com/google/uuid"

	"github.com/cour-hub/cour-certification-hub/internal/domain/shared"
)

// AttemptStatus is the lifecycle state of an attempt.
type AttemptStatus string

const (
	// StatusStarted - the attempt exists but has not been submitted.
	StatusStarted AttemptStatus = "started"
	// StatusSubmitted - the attempt is graded and terminal.
	StatusSubmitted AttemptStatus = "submitted"
)

// Attempt is one instance of a student working through a quiz. A student may
// hold any number of attempts per quiz; history is preserved so eligibility
// can pick the best one. The started→submitted transition is one-way and
// exactly-once, enforced by the repository's conditional Submit.
type Attempt struct {
	ID          uuid.UUID
	QuizID      uuid.UUID
	StudentID   uuid.UUID
	Score       int
	MaxScore    int // number of questions at start time, 1 point each
	Percentage  float64
	Passed      bool
	StartedAt   time.Time
	SubmittedAt *time.Time // nil while in progress
}

// NewAttempt creates a started attempt with zeroed grading fields.
func NewAttempt(id, quizID, studentID uuid.UUID, questionCount int, startedAt time.Time) *Attempt {
	return &Attempt{
		ID:        id,
		QuizID:    quizID,
		StudentID: studentID,
		MaxScore:  questionCount,
		StartedAt: startedAt,
	}
}

// Status derives the lifecycle state from SubmittedAt.
func (a *Attempt) Status() AttemptStatus {
	if a.SubmittedAt != nil {
		return StatusSubmitted
	}
	return StatusStarted
}

// IsSubmitted reports whether the attempt is terminal.
func (a *Attempt) IsSubmitted() bool {
	return a.SubmittedAt != nil
}

// OwnedBy reports whether the attempt belongs to the given student.
func (a *Attempt) OwnedBy(studentID uuid.UUID) bool {
	return a.StudentID == studentID
}

// Grade freezes score, percentage, and the pass flag, and stamps the
// submission time. The percentage guards against zero-question quizzes.
// Returns shared.ErrAttemptSubmitted when the attempt is already terminal;
// the repository re-checks this condition atomically at persist time.
func (a *Attempt) Grade(correctCount, passingScorePercent int, submittedAt time.Time) error {
	if a.IsSubmitted() {
		return shared.ErrAttemptSubmitted
	}

	a.Score = correctCount
	if a.MaxScore > 0 {
		a.Percentage = shared.Round2(float64(correctCount) * 100 / float64(a.MaxScore))
	} else {
		a.Percentage = 0
	}
	a.Passed = a.Percentage >= float64(passingScorePercent)
	at := submittedAt
	a.SubmittedAt = &at
	return nil
}

// Answer is a single (question, selected option) pair in a submission.
type Answer struct {
	QuestionID       uuid.UUID
	SelectedOptionID uuid.UUID
}

// StudentAnswer is a graded answer row, created in bulk exactly once at
// submission and immutable afterward. Identity is (AttemptID, QuestionID).
type StudentAnswer struct {
	AttemptID        uuid.UUID
	QuestionID       uuid.UUID
	SelectedOptionID uuid.UUID
	IsCorrect        bool
}

// AnswerDetail is the per-question view returned to the caller after
// grading: enough to display what was picked and what was right.
type AnswerDetail struct {
	QuestionID       uuid.UUID
	QuestionText     string
	SelectedOptionID uuid.UUID
	CorrectOptionID  uuid.UUID
	IsCorrect        bool
}

// BestAttempt folds over submitted attempts and returns the one with the
// highest percentage, or nil when none is submitted. Ties return the first
// maximal attempt scanned; percentage is the only comparison input.
func BestAttempt(attempts []*Attempt) *Attempt {
	var best *Attempt
	for _, a := range attempts {
		if !a.IsSubmitted() {
			continue
		}
		if best == nil || a.Percentage > best.Percentage {
			best = a
		}
	}
	return best
}

package quiz

import (
	"context"

	"github.com/google/uuid"
)

// AttemptRepository persists attempts and their graded answers.
//
// Submit carries the concurrency contract for the started→submitted
// transition: the write applies only while the stored row still has a null
// submission time, and the check and the write are atomic per attempt id.
// Implementations use a conditional UPDATE with an affected-row check
// (postgres) or a store-level mutex (memory).
type AttemptRepository interface {
	// Create persists a started attempt.
	Create(ctx context.Context, a *Attempt) error

	// GetByID returns an attempt, or a shared.ErrNotFound-kind error.
	GetByID(ctx context.Context, attemptID uuid.UUID) (*Attempt, error)

	// Submit persists the graded attempt and its answer rows in one logical
	// unit, if and only if the stored attempt has not been submitted yet.
	// Returns a shared.ErrConflict-kind error when another submission won;
	// in that case neither the attempt nor any answer row is modified.
	Submit(ctx context.Context, a *Attempt, answers []*StudentAnswer) error

	// ListByQuizAndStudent returns all attempts for a quiz/student pair,
	// in-progress ones included, most recently started first.
	ListByQuizAndStudent(ctx context.Context, quizID, studentID uuid.UUID) ([]*Attempt, error)

	// ListByStudent returns all attempts of a student across quizzes,
	// most recently started first.
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*Attempt, error)

	// AnswersByAttempt returns the graded answer rows of an attempt.
	// An unsubmitted attempt has none.
	AnswersByAttempt(ctx context.Context, attemptID uuid.UUID) ([]*StudentAnswer, error)
}

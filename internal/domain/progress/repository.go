package progress

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists lesson completion facts. Records are scoped by their
// natural key (lesson, student); operations on different keys never contend.
type Repository interface {
	// Get returns the progress record for (lessonID, studentID), or a
	// shared.ErrNotFound-kind error when no record exists. Callers that
	// need "not started" semantics substitute NewLessonProgress themselves.
	Get(ctx context.Context, lessonID, studentID uuid.UUID) (*LessonProgress, error)

	// Upsert creates or replaces the record for its (lesson, student) key.
	Upsert(ctx context.Context, p *LessonProgress) error

	// ListByLessons returns the existing records for the given lessons and
	// student. Lessons without a record are simply absent from the result.
	ListByLessons(ctx context.Context, lessonIDs []uuid.UUID, studentID uuid.UUID) ([]*LessonProgress, error)

	// CountCompleted returns how many of the given lessons the student has
	// completed.
	CountCompleted(ctx context.Context, lessonIDs []uuid.UUID, studentID uuid.UUID) (int, error)
}

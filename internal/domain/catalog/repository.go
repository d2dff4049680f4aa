package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Reader provides read access to the course topology and quiz answer keys.
// Implemented by the postgres catalog repository and by the in-memory store
// used in tests. All methods return shared.ErrNotFound-kind errors when the
// referenced entity does not exist.
type Reader interface {
	// GetCourse returns a course by id.
	GetCourse(ctx context.Context, courseID uuid.UUID) (*Course, error)

	// GetLesson returns a lesson by id.
	GetLesson(ctx context.Context, lessonID uuid.UUID) (*Lesson, error)

	// LessonIDsByCourse returns the ids of every lesson reachable through
	// the course's modules, in module/lesson order.
	LessonIDsByCourse(ctx context.Context, courseID uuid.UUID) ([]uuid.UUID, error)

	// LessonsByCourse returns every lesson of the course in module/lesson order.
	LessonsByCourse(ctx context.Context, courseID uuid.UUID) ([]*Lesson, error)

	// GetQuiz returns a quiz by id.
	GetQuiz(ctx context.Context, quizID uuid.UUID) (*Quiz, error)

	// CountQuestions returns the number of questions on a quiz.
	CountQuestions(ctx context.Context, quizID uuid.UUID) (int, error)

	// GetQuestion returns a question with its options and answer key.
	GetQuestion(ctx context.Context, questionID uuid.UUID) (*Question, error)

	// MandatoryQuizzesByCourse returns the quizzes of a course flagged
	// mandatory, the set that gates certification.
	MandatoryQuizzesByCourse(ctx context.Context, courseID uuid.UUID) ([]*Quiz, error)
}

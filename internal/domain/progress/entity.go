// Package progress contains the progress-store domain: per-(lesson, student)
// completion facts and the derived course completion rate.
package progress

import (
	"time"

	"github.com/google/uuid"

	"github.com/cour-hub/cour-certification-hub/internal/domain/shared"
)

// LessonProgress records whether a student has completed a lesson.
// Identity is (LessonID, StudentID). Completion is monotonic: once
// Completed is true it never becomes false, and CompletedAt never changes.
type LessonProgress struct {
	LessonID    uuid.UUID
	StudentID   uuid.UUID
	Completed   bool
	CompletedAt *time.Time
}

// NewLessonProgress returns a not-completed progress record. Reads of
// untouched lessons return this virtual zero value rather than an error.
func NewLessonProgress(lessonID, studentID uuid.UUID) *LessonProgress {
	return &LessonProgress{
		LessonID:  lessonID,
		StudentID: studentID,
	}
}

// MarkCompleted sets the completion fact. Idempotent: a second call is a
// no-op and reports false so callers can skip persistence and events.
func (p *LessonProgress) MarkCompleted(now time.Time) bool {
	if p.Completed {
		return false
	}
	p.Completed = true
	at := now
	p.CompletedAt = &at
	return true
}

// Validate checks the completedAt-iff-completed invariant.
func (p *LessonProgress) Validate() error {
	if p.LessonID == uuid.Nil || p.StudentID == uuid.Nil {
		return shared.ErrInvalidID
	}
	if p.Completed == (p.CompletedAt == nil) {
		return shared.ErrInvalidState
	}
	return nil
}

// CourseProgressSnapshot is derived per request, never persisted.
type CourseProgressSnapshot struct {
	CourseID         uuid.UUID
	CourseTitle      string
	StudentID        uuid.UUID
	TotalLessons     int
	CompletedLessons int
	CompletionRate   float64 // 0-100, rounded to 2 decimal places
}

// Snapshot computes the completion rate from counts. A course with no
// lessons yields rate 0 rather than a division error.
func Snapshot(courseID uuid.UUID, courseTitle string, studentID uuid.UUID, total, completed int) CourseProgressSnapshot {
	return CourseProgressSnapshot{
		CourseID:         courseID,
		CourseTitle:      courseTitle,
		StudentID:        studentID,
		TotalLessons:     total,
		CompletedLessons: completed,
		CompletionRate:   shared.Ratio(completed, total),
	}
}

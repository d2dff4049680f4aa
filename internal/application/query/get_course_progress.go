// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cour-hub/cour-certification-hub/internal/domain/catalog"
	"github.com/cour-hub/cour-certification-hub/internal/domain/progress"
	"github.com/cour-hub/cour-certification-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET COURSE PROGRESS QUERY
// Computes the course completion snapshot fresh per request from the
// lesson-progress rows scoped to the course's lesson set. Pull-based, not
// cached.
// ══════════════════════════════════════════════════════════════════════════════

// GetCourseProgressQuery contains the parameters for the snapshot.
type GetCourseProgressQuery struct {
	// CourseID is the course whose lessons are counted.
	CourseID uuid.UUID

	// StudentID is the student whose completions are counted.
	StudentID uuid.UUID
}

// Validate validates the query.
func (q GetCourseProgressQuery) Validate() error {
	if q.CourseID == uuid.Nil {
		return errors.New("get_course_progress: course_id is required")
	}
	if q.StudentID == uuid.Nil {
		return errors.New("get_course_progress: student_id is required")
	}
	return nil
}

// GetCourseProgressHandler handles the GetCourseProgressQuery.
type GetCourseProgressHandler struct {
	catalog      catalog.Reader
	progressRepo progress.Repository
}

// NewGetCourseProgressHandler creates a new GetCourseProgressHandler.
func NewGetCourseProgressHandler(cat catalog.Reader, progressRepo progress.Repository) *GetCourseProgressHandler {
	return &GetCourseProgressHandler{
		catalog:      cat,
		progressRepo: progressRepo,
	}
}

// Handle executes the query.
func (h *GetCourseProgressHandler) Handle(ctx context.Context, q GetCourseProgressQuery) (*progress.CourseProgressSnapshot, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_course_progress: validation failed: %w", err)
	}
	return h.Snapshot(ctx, q.CourseID, q.StudentID)
}

// Snapshot computes the completion snapshot. Also used directly by the
// eligibility evaluator so both paths share one definition of the rate.
func (h *GetCourseProgressHandler) Snapshot(ctx context.Context, courseID, studentID uuid.UUID) (*progress.CourseProgressSnapshot, error) {
	course, err := h.catalog.GetCourse(ctx, courseID)
	if err != nil {
		return nil, shared.WrapError("progress", "GetCourseProgress", shared.ErrNotFound, "course not found", err)
	}

	lessonIDs, err := h.catalog.LessonIDsByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("get_course_progress: failed to list lessons: %w", err)
	}

	completed := 0
	if len(lessonIDs) > 0 {
		completed, err = h.progressRepo.CountCompleted(ctx, lessonIDs, studentID)
		if err != nil {
			return nil, fmt.Errorf("get_course_progress: failed to count completions: %w", err)
		}
	}

	snap := progress.Snapshot(courseID, course.Title, studentID, len(lessonIDs), completed)
	return &snap, nil
}

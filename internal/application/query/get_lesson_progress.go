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
// GET LESSON PROGRESS QUERY
// Returns the per-lesson completion record for a student. A student who never
// touched the lesson gets a virtual not-completed record rather than an error.
// ══════════════════════════════════════════════════════════════════════════════

// GetLessonProgressQuery contains the parameters for the lookup.
type GetLessonProgressQuery struct {
	LessonID  uuid.UUID
	StudentID uuid.UUID
}

// Validate validates the query.
func (q GetLessonProgressQuery) Validate() error {
	if q.LessonID == uuid.Nil {
		return errors.New("get_lesson_progress: lesson_id is required")
	}
	if q.StudentID == uuid.Nil {
		return errors.New("get_lesson_progress: student_id is required")
	}
	return nil
}

// GetLessonProgressResult is the result of the lookup.
type GetLessonProgressResult struct {
	Progress    *progress.LessonProgress
	LessonTitle string
}

// GetLessonProgressHandler handles the GetLessonProgressQuery.
type GetLessonProgressHandler struct {
	catalog      catalog.Reader
	progressRepo progress.Repository
}

// NewGetLessonProgressHandler creates a new GetLessonProgressHandler.
func NewGetLessonProgressHandler(cat catalog.Reader, progressRepo progress.Repository) *GetLessonProgressHandler {
	return &GetLessonProgressHandler{
		catalog:      cat,
		progressRepo: progressRepo,
	}
}

// Handle executes the query.
func (h *GetLessonProgressHandler) Handle(ctx context.Context, q GetLessonProgressQuery) (*GetLessonProgressResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_lesson_progress: validation failed: %w", err)
	}

	lesson, err := h.catalog.GetLesson(ctx, q.LessonID)
	if err != nil {
		return nil, shared.WrapError("progress", "GetLessonProgress", shared.ErrNotFound, "lesson not found", err)
	}

	record, err := h.progressRepo.Get(ctx, q.LessonID, q.StudentID)
	if err != nil {
		if shared.IsNotFound(err) {
			record = progress.NewLessonProgress(q.LessonID, q.StudentID)
		} else {
			return nil, fmt.Errorf("get_lesson_progress: failed to load record: %w", err)
		}
	}

	return &GetLessonProgressResult{
		Progress:    record,
		LessonTitle: lesson.Title,
	}, nil
}

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
// LIST COURSE LESSON PROGRESS QUERY
// Per-lesson breakdown for a student across a whole course, in catalog order.
// Lessons without a stored record are filled with virtual not-completed rows.
// ══════════════════════════════════════════════════════════════════════════════

// ListCourseLessonProgressQuery contains the parameters for the listing.
type ListCourseLessonProgressQuery struct {
	CourseID  uuid.UUID
	StudentID uuid.UUID
}

// Validate validates the query.
func (q ListCourseLessonProgressQuery) Validate() error {
	if q.CourseID == uuid.Nil {
		return errors.New("list_course_lesson_progress: course_id is required")
	}
	if q.StudentID == uuid.Nil {
		return errors.New("list_course_lesson_progress: student_id is required")
	}
	return nil
}

// ListCourseLessonProgressResult is the result of the listing.
type ListCourseLessonProgressResult struct {
	CourseID    uuid.UUID
	CourseTitle string
	Items       []CourseLessonProgressItem
}

// CourseLessonProgressItem is one lesson row in the breakdown.
type CourseLessonProgressItem struct {
	Lesson   *catalog.Lesson
	Progress *progress.LessonProgress
}

// ListCourseLessonProgressHandler handles the ListCourseLessonProgressQuery.
type ListCourseLessonProgressHandler struct {
	catalog      catalog.Reader
	progressRepo progress.Repository
}

// NewListCourseLessonProgressHandler creates a new ListCourseLessonProgressHandler.
func NewListCourseLessonProgressHandler(cat catalog.Reader, progressRepo progress.Repository) *ListCourseLessonProgressHandler {
	return &ListCourseLessonProgressHandler{
		catalog:      cat,
		progressRepo: progressRepo,
	}
}

// Handle executes the query.
func (h *ListCourseLessonProgressHandler) Handle(ctx context.Context, q ListCourseLessonProgressQuery) (*ListCourseLessonProgressResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("list_course_lesson_progress: validation failed: %w", err)
	}

	course, err := h.catalog.GetCourse(ctx, q.CourseID)
	if err != nil {
		return nil, shared.WrapError("progress", "ListCourseLessonProgress", shared.ErrNotFound, "course not found", err)
	}

	lessons, err := h.catalog.LessonsByCourse(ctx, q.CourseID)
	if err != nil {
		return nil, fmt.Errorf("list_course_lesson_progress: failed to list lessons: %w", err)
	}

	lessonIDs := make([]uuid.UUID, len(lessons))
	for i, l := range lessons {
		lessonIDs[i] = l.ID
	}

	records, err := h.progressRepo.ListByLessons(ctx, lessonIDs, q.StudentID)
	if err != nil {
		return nil, fmt.Errorf("list_course_lesson_progress: failed to load records: %w", err)
	}

	byLesson := make(map[uuid.UUID]*progress.LessonProgress, len(records))
	for _, r := range records {
		byLesson[r.LessonID] = r
	}

	items := make([]CourseLessonProgressItem, 0, len(lessons))
	for _, l := range lessons {
		record, ok := byLesson[l.ID]
		if !ok {
			record = progress.NewLessonProgress(l.ID, q.StudentID)
		}
		items = append(items, CourseLessonProgressItem{Lesson: l, Progress: record})
	}

	return &ListCourseLessonProgressResult{
		CourseID:    course.ID,
		CourseTitle: course.Title,
		Items:       items,
	}, nil
}

package query

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cour-hub/cour-certification-hub/internal/domain/catalog"
	"github.com/cour-hub/cour-certification-hub/internal/domain/progress"
	"github.com/cour-hub/cour-certification-hub/internal/domain/shared"
	"github.com/cour-hub/cour-certification-hub/internal/infrastructure/persistence/memory"
)

func TestGetCourseProgress(t *testing.T) {
	ctx := context.Background()
	cat := memory.NewCatalogStore()
	progStore := memory.NewProgressStore()

	courseID := uuid.New()
	cat.SeedCourse(&catalog.Course{ID: courseID, Title: "Go Basics"})
	var lessonIDs []uuid.UUID
	for i := 0; i < 3; i++ {
		l := &catalog.Lesson{ID: uuid.New(), ModuleID: uuid.New(), Title: "L", OrderIndex: i}
		cat.SeedLesson(courseID, l)
		lessonIDs = append(lessonIDs, l.ID)
	}

	studentID := uuid.New()
	for _, id := range lessonIDs[:2] {
		rec := progress.NewLessonProgress(id, studentID)
		rec.MarkCompleted(time.Now())
		require.NoError(t, progStore.Upsert(ctx, rec))
	}

	h := NewGetCourseProgressHandler(cat, progStore)
	snap, err := h.Handle(ctx, GetCourseProgressQuery{CourseID: courseID, StudentID: studentID})
	require.NoError(t, err)

	assert.Equal(t, "Go Basics", snap.CourseTitle)
	assert.Equal(t, 3, snap.TotalLessons)
	assert.Equal(t, 2, snap.CompletedLessons)
	assert.Equal(t, 66.67, snap.CompletionRate)
}

func TestGetCourseProgress_EmptyCourse(t *testing.T) {
	ctx := context.Background()
	cat := memory.NewCatalogStore()
	courseID := uuid.New()
	cat.SeedCourse(&catalog.Course{ID: courseID, Title: "Empty"})

	h := NewGetCourseProgressHandler(cat, memory.NewProgressStore())
	snap, err := h.Handle(ctx, GetCourseProgressQuery{CourseID: courseID, StudentID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, 0, snap.TotalLessons)
	assert.Equal(t, 0.0, snap.CompletionRate)
}

func TestGetCourseProgress_UnknownCourse(t *testing.T) {
	h := NewGetCourseProgressHandler(memory.NewCatalogStore(), memory.NewProgressStore())
	_, err := h.Handle(context.Background(), GetCourseProgressQuery{CourseID: uuid.New(), StudentID: uuid.New()})
	assert.True(t, shared.IsNotFound(err))
}

func TestGetLessonProgress_VirtualRecord(t *testing.T) {
	ctx := context.Background()
	cat := memory.NewCatalogStore()
	courseID := uuid.New()
	cat.SeedCourse(&catalog.Course{ID: courseID, Title: "Go Basics"})
	lesson := &catalog.Lesson{ID: uuid.New(), ModuleID: uuid.New(), Title: "Maps", OrderIndex: 0}
	cat.SeedLesson(courseID, lesson)

	h := NewGetLessonProgressHandler(cat, memory.NewProgressStore())
	res, err := h.Handle(ctx, GetLessonProgressQuery{LessonID: lesson.ID, StudentID: uuid.New()})
	require.NoError(t, err)

	// Untouched lessons read as not-completed, not as an error.
	assert.False(t, res.Progress.Completed)
	assert.Nil(t, res.Progress.CompletedAt)
	assert.Equal(t, "Maps", res.LessonTitle)
}

func TestListCourseLessonProgress(t *testing.T) {
	ctx := context.Background()
	cat := memory.NewCatalogStore()
	progStore := memory.NewProgressStore()

	courseID := uuid.New()
	cat.SeedCourse(&catalog.Course{ID: courseID, Title: "Go Basics"})
	first := &catalog.Lesson{ID: uuid.New(), ModuleID: uuid.New(), Title: "A", OrderIndex: 0}
	second := &catalog.Lesson{ID: uuid.New(), ModuleID: uuid.New(), Title: "B", OrderIndex: 1}
	cat.SeedLesson(courseID, first)
	cat.SeedLesson(courseID, second)

	studentID := uuid.New()
	rec := progress.NewLessonProgress(first.ID, studentID)
	rec.MarkCompleted(time.Now())
	require.NoError(t, progStore.Upsert(ctx, rec))

	h := NewListCourseLessonProgressHandler(cat, progStore)
	res, err := h.Handle(ctx, ListCourseLessonProgressQuery{CourseID: courseID, StudentID: studentID})
	require.NoError(t, err)

	// Catalog order, with virtual rows for untouched lessons.
	require.Len(t, res.Items, 2)
	assert.Equal(t, first.ID, res.Items[0].Lesson.ID)
	assert.True(t, res.Items[0].Progress.Completed)
	assert.Equal(t, second.ID, res.Items[1].Lesson.ID)
	assert.False(t, res.Items[1].Progress.Completed)
}

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
	"github.com/cour-hub/cour-certification-hub/internal/domain/quiz"
	"github.com/cour-hub/cour-certification-hub/internal/infrastructure/persistence/memory"
)

// eligibilityFixture is one course with 4 lessons and one mandatory quiz.
type eligibilityFixture struct {
	cat       *memory.CatalogStore
	progStore *memory.ProgressStore
	attempts  *memory.AttemptStore
	courseID  uuid.UUID
	lessonIDs []uuid.UUID
	quiz      *catalog.Quiz
	handler   *CheckEligibilityHandler
}

func newEligibilityFixture(t *testing.T) *eligibilityFixture {
	t.Helper()
	f := &eligibilityFixture{
		cat:       memory.NewCatalogStore(),
		progStore: memory.NewProgressStore(),
		attempts:  memory.NewAttemptStore(),
		courseID:  uuid.New(),
	}
	f.cat.SeedCourse(&catalog.Course{ID: f.courseID, Title: "Go Basics"})
	for i := 0; i < 4; i++ {
		l := &catalog.Lesson{ID: uuid.New(), ModuleID: uuid.New(), Title: "L", OrderIndex: i}
		f.cat.SeedLesson(f.courseID, l)
		f.lessonIDs = append(f.lessonIDs, l.ID)
	}
	f.quiz = &catalog.Quiz{ID: uuid.New(), CourseID: f.courseID, Title: "Final Exam", Mandatory: true}
	f.cat.SeedQuiz(f.quiz)

	progressQuery := NewGetCourseProgressHandler(f.cat, f.progStore)
	f.handler = NewCheckEligibilityHandler(f.cat, f.attempts, progressQuery, DefaultCompletionThreshold)
	return f
}

func (f *eligibilityFixture) completeLessons(t *testing.T, studentID uuid.UUID, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		rec := progress.NewLessonProgress(f.lessonIDs[i], studentID)
		rec.MarkCompleted(time.Now())
		require.NoError(t, f.progStore.Upsert(context.Background(), rec))
	}
}

func (f *eligibilityFixture) submitAttempt(t *testing.T, studentID uuid.UUID, correct, total int) {
	t.Helper()
	ctx := context.Background()
	a := quiz.NewAttempt(uuid.New(), f.quiz.ID, studentID, total, time.Now())
	require.NoError(t, f.attempts.Create(ctx, a))
	require.NoError(t, a.Grade(correct, f.quiz.PassingScore(), time.Now()))
	require.NoError(t, f.attempts.Submit(ctx, a, nil))
}

func TestCheckEligibility_AllGatesMet(t *testing.T) {
	f := newEligibilityFixture(t)
	studentID := uuid.New()
	f.completeLessons(t, studentID, 4)
	f.submitAttempt(t, studentID, 4, 5) // 80%, passes the default 60

	res, err := f.handler.Handle(context.Background(), CheckEligibilityQuery{CourseID: f.courseID, StudentID: studentID})
	require.NoError(t, err)
	assert.True(t, res.Eligible)
	assert.True(t, res.CompletionMet)
	assert.True(t, res.QuizzesMet)
	assert.Equal(t, 100.0, res.CompletionRate)
	assert.Empty(t, res.MissingRequirements)
}

func TestCheckEligibility_CollectsAllMissing(t *testing.T) {
	f := newEligibilityFixture(t)
	studentID := uuid.New()
	f.completeLessons(t, studentID, 2) // 50%

	res, err := f.handler.Handle(context.Background(), CheckEligibilityQuery{CourseID: f.courseID, StudentID: studentID})
	require.NoError(t, err)
	assert.False(t, res.Eligible)
	assert.False(t, res.CompletionMet)
	assert.False(t, res.QuizzesMet)
	// Both failures reported together, not just the first. Quiz failures
	// come first, the completion shortfall last.
	require.Len(t, res.MissingRequirements, 2)
	assert.Equal(t, "Quiz not attempted: Final Exam", res.MissingRequirements[0])
	assert.Equal(t, "Course completion 50.0% (required: 80.0%)", res.MissingRequirements[1])
}

func TestCheckEligibility_FailedQuiz(t *testing.T) {
	f := newEligibilityFixture(t)
	studentID := uuid.New()
	f.completeLessons(t, studentID, 4)
	f.submitAttempt(t, studentID, 1, 4) // 25%, fails

	res, err := f.handler.Handle(context.Background(), CheckEligibilityQuery{CourseID: f.courseID, StudentID: studentID})
	require.NoError(t, err)
	assert.False(t, res.Eligible)
	assert.True(t, res.CompletionMet)
	assert.False(t, res.QuizzesMet)
	require.Len(t, res.MissingRequirements, 1)
	assert.Equal(t, "Quiz 'Final Exam' not passed (score: 25.0%, required: 60%)", res.MissingRequirements[0])
}

func TestCheckEligibility_BestAttemptWins(t *testing.T) {
	f := newEligibilityFixture(t)
	studentID := uuid.New()
	f.completeLessons(t, studentID, 4)
	f.submitAttempt(t, studentID, 1, 4) // failed first try
	f.submitAttempt(t, studentID, 4, 4) // passed later

	res, err := f.handler.Handle(context.Background(), CheckEligibilityQuery{CourseID: f.courseID, StudentID: studentID})
	require.NoError(t, err)
	assert.True(t, res.Eligible)
}

func TestCheckEligibility_RaisedPassingScoreRejudgesBestAttempt(t *testing.T) {
	f := newEligibilityFixture(t)
	studentID := uuid.New()
	f.completeLessons(t, studentID, 4)

	// Graded and passed while the quiz still required 60%.
	ctx := context.Background()
	a := quiz.NewAttempt(uuid.New(), f.quiz.ID, studentID, 10, time.Now())
	require.NoError(t, f.attempts.Create(ctx, a))
	require.NoError(t, a.Grade(7, 60, time.Now()))
	require.NoError(t, f.attempts.Submit(ctx, a, nil))
	require.True(t, a.Passed)

	// The bar is raised afterwards. The frozen verdict must not stand; the
	// gate compares the best percentage against the current passing score.
	f.quiz.PassingScorePercent = 80

	res, err := f.handler.Handle(ctx, CheckEligibilityQuery{CourseID: f.courseID, StudentID: studentID})
	require.NoError(t, err)
	assert.False(t, res.Eligible)
	assert.False(t, res.QuizzesMet)
	assert.True(t, res.CompletionMet)
	require.Len(t, res.MissingRequirements, 1)
	assert.Equal(t, "Quiz 'Final Exam' not passed (score: 70.0%, required: 80%)", res.MissingRequirements[0])
}

func TestCheckEligibility_ExactThreshold(t *testing.T) {
	f := newEligibilityFixture(t)
	studentID := uuid.New()

	// 4 of 5 lessons = 80%, exactly at the default threshold.
	extra := &catalog.Lesson{ID: uuid.New(), ModuleID: uuid.New(), Title: "L5", OrderIndex: 4}
	f.cat.SeedLesson(f.courseID, extra)
	f.lessonIDs = append(f.lessonIDs, extra.ID)

	f.completeLessons(t, studentID, 4)
	f.submitAttempt(t, studentID, 3, 4)

	res, err := f.handler.Handle(context.Background(), CheckEligibilityQuery{CourseID: f.courseID, StudentID: studentID})
	require.NoError(t, err)
	assert.Equal(t, 80.0, res.CompletionRate)
	assert.True(t, res.CompletionMet)
	assert.True(t, res.Eligible)
}

func TestCheckEligibility_NoMandatoryQuizzes(t *testing.T) {
	cat := memory.NewCatalogStore()
	progStore := memory.NewProgressStore()
	attempts := memory.NewAttemptStore()

	courseID := uuid.New()
	cat.SeedCourse(&catalog.Course{ID: courseID, Title: "Optional Quizzes Only"})
	lesson := &catalog.Lesson{ID: uuid.New(), ModuleID: uuid.New(), Title: "L", OrderIndex: 0}
	cat.SeedLesson(courseID, lesson)
	cat.SeedQuiz(&catalog.Quiz{ID: uuid.New(), CourseID: courseID, Title: "Bonus", Mandatory: false})

	studentID := uuid.New()
	rec := progress.NewLessonProgress(lesson.ID, studentID)
	rec.MarkCompleted(time.Now())
	require.NoError(t, progStore.Upsert(context.Background(), rec))

	h := NewCheckEligibilityHandler(cat, attempts, NewGetCourseProgressHandler(cat, progStore), 80)
	res, err := h.Handle(context.Background(), CheckEligibilityQuery{CourseID: courseID, StudentID: studentID})
	require.NoError(t, err)
	assert.True(t, res.Eligible, "optional quizzes never gate certification")
}

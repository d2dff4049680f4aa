package command

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cour-hub/cour-certification-hub/internal/domain/catalog"
	"github.com/cour-hub/cour-certification-hub/internal/domain/quiz"
	"github.com/cour-hub/cour-certification-hub/internal/domain/shared"
	"github.com/cour-hub/cour-certification-hub/internal/infrastructure/persistence/memory"
)

// quizFixture seeds a 4-question quiz and returns the pieces tests need.
type quizFixture struct {
	cat      *memory.CatalogStore
	attempts *memory.AttemptStore
	pub      *capturePublisher
	quiz     *catalog.Quiz
	// correct[i] and wrong[i] are option ids of question i.
	questions []uuid.UUID
	correct   []uuid.UUID
	wrong     []uuid.UUID
}

func newQuizFixture(t *testing.T, questionCount, passingScore int) *quizFixture {
	t.Helper()
	f := &quizFixture{
		cat:      memory.NewCatalogStore(),
		attempts: memory.NewAttemptStore(),
		pub:      &capturePublisher{},
	}

	courseID := uuid.New()
	f.cat.SeedCourse(&catalog.Course{ID: courseID, Title: "Go Basics"})
	f.quiz = &catalog.Quiz{
		ID:                  uuid.New(),
		CourseID:            courseID,
		Title:               "Final Exam",
		PassingScorePercent: passingScore,
		Mandatory:           true,
	}
	f.cat.SeedQuiz(f.quiz)

	for i := 0; i < questionCount; i++ {
		right := catalog.Option{ID: uuid.New(), Text: "right", Correct: true}
		wrong := catalog.Option{ID: uuid.New(), Text: "wrong"}
		q := &catalog.Question{
			ID:      uuid.New(),
			QuizID:  f.quiz.ID,
			Text:    "q",
			Options: []catalog.Option{right, wrong},
		}
		f.cat.SeedQuestion(q)
		f.questions = append(f.questions, q.ID)
		f.correct = append(f.correct, right.ID)
		f.wrong = append(f.wrong, wrong.ID)
	}
	return f
}

func (f *quizFixture) start(t *testing.T, studentID uuid.UUID) *quiz.Attempt {
	t.Helper()
	h := NewStartAttemptHandler(f.cat, f.attempts, f.pub, nil, nil)
	res, err := h.Handle(context.Background(), StartAttemptCommand{QuizID: f.quiz.ID, StudentID: studentID})
	require.NoError(t, err)
	return res.Attempt
}

func TestStartAttempt(t *testing.T) {
	f := newQuizFixture(t, 4, 60)
	studentID := uuid.New()

	a := f.start(t, studentID)
	assert.Equal(t, quiz.StatusStarted, a.Status())
	assert.Equal(t, 4, a.MaxScore)
	assert.Equal(t, 0, a.Score)
	assert.Len(t, f.pub.byType(shared.EventAttemptStarted), 1)

	// Every start creates a fresh attempt; history accumulates.
	b := f.start(t, studentID)
	assert.NotEqual(t, a.ID, b.ID)
	list, err := f.attempts.ListByQuizAndStudent(context.Background(), f.quiz.ID, studentID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestStartAttempt_UnknownQuiz(t *testing.T) {
	f := newQuizFixture(t, 1, 60)
	h := NewStartAttemptHandler(f.cat, f.attempts, nil, nil, nil)

	_, err := h.Handle(context.Background(), StartAttemptCommand{QuizID: uuid.New(), StudentID: uuid.New()})
	assert.True(t, shared.IsNotFound(err))
}

func TestSubmitAttempt_Grades(t *testing.T) {
	f := newQuizFixture(t, 4, 60)
	studentID := uuid.New()
	a := f.start(t, studentID)

	now := time.Date(2026, 6, 1, 14, 0, 0, 0, time.UTC)
	h := NewSubmitAttemptHandler(f.cat, f.attempts, f.pub, shared.FixedClock{Instant: now})

	// 3 of 4 correct.
	answers := []quiz.Answer{
		{QuestionID: f.questions[0], SelectedOptionID: f.correct[0]},
		{QuestionID: f.questions[1], SelectedOptionID: f.correct[1]},
		{QuestionID: f.questions[2], SelectedOptionID: f.correct[2]},
		{QuestionID: f.questions[3], SelectedOptionID: f.wrong[3]},
	}
	res, err := h.Handle(context.Background(), SubmitAttemptCommand{
		AttemptID: a.ID, StudentID: studentID, Answers: answers,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Attempt.Score)
	assert.Equal(t, 75.0, res.Attempt.Percentage)
	assert.True(t, res.Attempt.Passed)
	assert.Equal(t, now, *res.Attempt.SubmittedAt)
	assert.Equal(t, "Final Exam", res.QuizTitle)

	require.Len(t, res.Answers, 4)
	assert.True(t, res.Answers[0].IsCorrect)
	assert.False(t, res.Answers[3].IsCorrect)
	assert.Equal(t, f.correct[3], res.Answers[3].CorrectOptionID)

	assert.Len(t, f.pub.byType(shared.EventAttemptSubmitted), 1)

	// Answer rows persisted exactly once.
	rows, err := f.attempts.AnswersByAttempt(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestSubmitAttempt_OnlyOnce(t *testing.T) {
	f := newQuizFixture(t, 2, 60)
	studentID := uuid.New()
	a := f.start(t, studentID)

	h := NewSubmitAttemptHandler(f.cat, f.attempts, f.pub, nil)
	cmd := SubmitAttemptCommand{
		AttemptID: a.ID,
		StudentID: studentID,
		Answers: []quiz.Answer{
			{QuestionID: f.questions[0], SelectedOptionID: f.correct[0]},
			{QuestionID: f.questions[1], SelectedOptionID: f.correct[1]},
		},
	}

	_, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, shared.ErrAttemptSubmitted)
	assert.Len(t, f.pub.byType(shared.EventAttemptSubmitted), 1)
}

func TestSubmitAttempt_NotOwned(t *testing.T) {
	f := newQuizFixture(t, 1, 60)
	a := f.start(t, uuid.New())

	h := NewSubmitAttemptHandler(f.cat, f.attempts, nil, nil)
	_, err := h.Handle(context.Background(), SubmitAttemptCommand{
		AttemptID: a.ID,
		StudentID: uuid.New(), // someone else
		Answers:   []quiz.Answer{{QuestionID: f.questions[0], SelectedOptionID: f.correct[0]}},
	})
	assert.ErrorIs(t, err, shared.ErrAttemptNotOwned)
}

func TestSubmitAttempt_UnknownQuestionAborts(t *testing.T) {
	f := newQuizFixture(t, 2, 60)
	studentID := uuid.New()
	a := f.start(t, studentID)

	h := NewSubmitAttemptHandler(f.cat, f.attempts, f.pub, nil)
	_, err := h.Handle(context.Background(), SubmitAttemptCommand{
		AttemptID: a.ID,
		StudentID: studentID,
		Answers: []quiz.Answer{
			{QuestionID: f.questions[0], SelectedOptionID: f.correct[0]},
			{QuestionID: uuid.New(), SelectedOptionID: uuid.New()},
		},
	})
	assert.True(t, shared.IsNotFound(err))

	// Nothing was persisted: the attempt is still open and ungraded.
	stored, err := f.attempts.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsSubmitted())
	rows, err := f.attempts.AnswersByAttempt(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSubmitAttempt_FailingScore(t *testing.T) {
	f := newQuizFixture(t, 4, 80)
	studentID := uuid.New()
	a := f.start(t, studentID)

	h := NewSubmitAttemptHandler(f.cat, f.attempts, f.pub, nil)
	res, err := h.Handle(context.Background(), SubmitAttemptCommand{
		AttemptID: a.ID,
		StudentID: studentID,
		Answers: []quiz.Answer{
			{QuestionID: f.questions[0], SelectedOptionID: f.correct[0]},
			{QuestionID: f.questions[1], SelectedOptionID: f.correct[1]},
			{QuestionID: f.questions[2], SelectedOptionID: f.correct[2]},
			{QuestionID: f.questions[3], SelectedOptionID: f.wrong[3]},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 75.0, res.Attempt.Percentage)
	assert.False(t, res.Attempt.Passed)
}

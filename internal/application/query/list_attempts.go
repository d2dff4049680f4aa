package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cour-hub/cour-certification-hub/internal/domain/catalog"
	"github.com/cour-hub/cour-certification-hub/internal/domain/quiz"
	"github.com/cour-hub/cour-certification-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTEMPT HISTORY QUERIES
// Full attempt history, newest first: per (quiz, student), per student across
// all quizzes, and the graded detail of one attempt including its answers.
// ══════════════════════════════════════════════════════════════════════════════

// ListQuizAttemptsQuery lists a student's attempts for one quiz.
type ListQuizAttemptsQuery struct {
	QuizID    uuid.UUID
	StudentID uuid.UUID
}

// Validate validates the query.
func (q ListQuizAttemptsQuery) Validate() error {
	if q.QuizID == uuid.Nil {
		return errors.New("list_quiz_attempts: quiz_id is required")
	}
	if q.StudentID == uuid.Nil {
		return errors.New("list_quiz_attempts: student_id is required")
	}
	return nil
}

// ListStudentAttemptsQuery lists a student's attempts across all quizzes.
type ListStudentAttemptsQuery struct {
	StudentID uuid.UUID
}

// Validate validates the query.
func (q ListStudentAttemptsQuery) Validate() error {
	if q.StudentID == uuid.Nil {
		return errors.New("list_student_attempts: student_id is required")
	}
	return nil
}

// GetAttemptDetailsQuery fetches one attempt with its graded answers. Only the
// owning student may read it.
type GetAttemptDetailsQuery struct {
	AttemptID uuid.UUID
	StudentID uuid.UUID
}

// Validate validates the query.
func (q GetAttemptDetailsQuery) Validate() error {
	if q.AttemptID == uuid.Nil {
		return errors.New("get_attempt_details: attempt_id is required")
	}
	if q.StudentID == uuid.Nil {
		return errors.New("get_attempt_details: student_id is required")
	}
	return nil
}

// AttemptDetailsResult is the attempt plus its per-question grading rows.
type AttemptDetailsResult struct {
	Attempt   *quiz.Attempt
	QuizTitle string
	Answers   []quiz.AnswerDetail
}

// ListAttemptsHandler serves the attempt history queries.
type ListAttemptsHandler struct {
	catalog     catalog.Reader
	attemptRepo quiz.AttemptRepository
}

// NewListAttemptsHandler creates a new ListAttemptsHandler.
func NewListAttemptsHandler(cat catalog.Reader, attemptRepo quiz.AttemptRepository) *ListAttemptsHandler {
	return &ListAttemptsHandler{
		catalog:     cat,
		attemptRepo: attemptRepo,
	}
}

// HandleByQuiz executes the ListQuizAttemptsQuery.
func (h *ListAttemptsHandler) HandleByQuiz(ctx context.Context, q ListQuizAttemptsQuery) ([]*quiz.Attempt, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("list_quiz_attempts: validation failed: %w", err)
	}
	if _, err := h.catalog.GetQuiz(ctx, q.QuizID); err != nil {
		return nil, shared.WrapError("quiz", "ListQuizAttempts", shared.ErrNotFound, "quiz not found", err)
	}
	attempts, err := h.attemptRepo.ListByQuizAndStudent(ctx, q.QuizID, q.StudentID)
	if err != nil {
		return nil, fmt.Errorf("list_quiz_attempts: failed to list attempts: %w", err)
	}
	return attempts, nil
}

// HandleByStudent executes the ListStudentAttemptsQuery.
func (h *ListAttemptsHandler) HandleByStudent(ctx context.Context, q ListStudentAttemptsQuery) ([]*quiz.Attempt, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("list_student_attempts: validation failed: %w", err)
	}
	attempts, err := h.attemptRepo.ListByStudent(ctx, q.StudentID)
	if err != nil {
		return nil, fmt.Errorf("list_student_attempts: failed to list attempts: %w", err)
	}
	return attempts, nil
}

// HandleDetails executes the GetAttemptDetailsQuery.
func (h *ListAttemptsHandler) HandleDetails(ctx context.Context, q GetAttemptDetailsQuery) (*AttemptDetailsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_attempt_details: validation failed: %w", err)
	}

	attempt, err := h.attemptRepo.GetByID(ctx, q.AttemptID)
	if err != nil {
		return nil, shared.WrapError("quiz", "GetAttemptDetails", shared.ErrNotFound, "attempt not found", err)
	}
	if !attempt.OwnedBy(q.StudentID) {
		return nil, shared.ErrAttemptNotOwned
	}

	qz, err := h.catalog.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		return nil, shared.WrapError("quiz", "GetAttemptDetails", shared.ErrNotFound, "quiz not found", err)
	}

	rows, err := h.attemptRepo.AnswersByAttempt(ctx, q.AttemptID)
	if err != nil {
		return nil, fmt.Errorf("get_attempt_details: failed to load answers: %w", err)
	}

	details := make([]quiz.AnswerDetail, 0, len(rows))
	for _, row := range rows {
		question, err := h.catalog.GetQuestion(ctx, row.QuestionID)
		if err != nil {
			return nil, fmt.Errorf("get_attempt_details: failed to load question: %w", err)
		}
		details = append(details, quiz.AnswerDetail{
			QuestionID:       row.QuestionID,
			QuestionText:     question.Text,
			SelectedOptionID: row.SelectedOptionID,
			CorrectOptionID:  question.CorrectOptionID(),
			IsCorrect:        row.IsCorrect,
		})
	}

	return &AttemptDetailsResult{
		Attempt:   attempt,
		QuizTitle: qz.Title,
		Answers:   details,
	}, nil
}

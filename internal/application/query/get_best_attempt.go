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
// GET BEST ATTEMPT QUERY
// Highest submitted percentage for a (quiz, student) pair. In-progress
// attempts never count; no submitted attempt at all is a not-found.
// ══════════════════════════════════════════════════════════════════════════════

// GetBestAttemptQuery contains the parameters for the lookup.
type GetBestAttemptQuery struct {
	QuizID    uuid.UUID
	StudentID uuid.UUID
}

// Validate validates the query.
func (q GetBestAttemptQuery) Validate() error {
	if q.QuizID == uuid.Nil {
		return errors.New("get_best_attempt: quiz_id is required")
	}
	if q.StudentID == uuid.Nil {
		return errors.New("get_best_attempt: student_id is required")
	}
	return nil
}

// GetBestAttemptResult is the result of the lookup.
type GetBestAttemptResult struct {
	Attempt   *quiz.Attempt
	QuizTitle string
}

// GetBestAttemptHandler handles the GetBestAttemptQuery.
type GetBestAttemptHandler struct {
	catalog     catalog.Reader
	attemptRepo quiz.AttemptRepository
}

// NewGetBestAttemptHandler creates a new GetBestAttemptHandler.
func NewGetBestAttemptHandler(cat catalog.Reader, attemptRepo quiz.AttemptRepository) *GetBestAttemptHandler {
	return &GetBestAttemptHandler{
		catalog:     cat,
		attemptRepo: attemptRepo,
	}
}

// Handle executes the query.
func (h *GetBestAttemptHandler) Handle(ctx context.Context, q GetBestAttemptQuery) (*GetBestAttemptResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_best_attempt: validation failed: %w", err)
	}

	qz, err := h.catalog.GetQuiz(ctx, q.QuizID)
	if err != nil {
		return nil, shared.WrapError("quiz", "GetBestAttempt", shared.ErrNotFound, "quiz not found", err)
	}

	attempts, err := h.attemptRepo.ListByQuizAndStudent(ctx, q.QuizID, q.StudentID)
	if err != nil {
		return nil, fmt.Errorf("get_best_attempt: failed to list attempts: %w", err)
	}

	best := quiz.BestAttempt(attempts)
	if best == nil {
		return nil, shared.NewDomainError("quiz", "GetBestAttempt", shared.ErrNotFound, "no submitted attempts for quiz")
	}

	return &GetBestAttemptResult{
		Attempt:   best,
		QuizTitle: qz.Title,
	}, nil
}

package command

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
// SUBMIT ATTEMPT COMMAND
// Grades a submission against the current answer keys and freezes the
// attempt. The started→submitted transition is exactly-once per attempt:
// concurrent submissions race on the repository's conditional Submit, and
// every loser observes Conflict.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitAttemptCommand contains a full quiz submission.
type SubmitAttemptCommand struct {
	// AttemptID identifies the attempt being submitted.
	AttemptID uuid.UUID

	// StudentID is the authenticated caller; must own the attempt.
	StudentID uuid.UUID

	// Answers are the (question, selected option) pairs.
	Answers []quiz.Answer
}

// Validate validates the command.
func (c SubmitAttemptCommand) Validate() error {
	if c.AttemptID == uuid.Nil {
		return errors.New("submit_attempt: attempt_id is required")
	}
	if c.StudentID == uuid.Nil {
		return errors.New("submit_attempt: student_id is required")
	}
	for _, a := range c.Answers {
		if a.QuestionID == uuid.Nil {
			return errors.New("submit_attempt: answer question_id is required")
		}
	}
	return nil
}

// SubmitAttemptResult contains the graded attempt with per-question detail.
type SubmitAttemptResult struct {
	// Attempt is the graded, terminal attempt.
	Attempt *quiz.Attempt

	// QuizTitle is included for caller display.
	QuizTitle string

	// Answers holds per-question detail: question text, selected option,
	// correct option, correctness.
	Answers []quiz.AnswerDetail
}

// SubmitAttemptHandler handles the SubmitAttemptCommand.
type SubmitAttemptHandler struct {
	catalog        catalog.Reader
	attemptRepo    quiz.AttemptRepository
	eventPublisher shared.EventPublisher
	clock          shared.Clock
}

// NewSubmitAttemptHandler creates a new SubmitAttemptHandler.
func NewSubmitAttemptHandler(
	cat catalog.Reader,
	attemptRepo quiz.AttemptRepository,
	eventPublisher shared.EventPublisher,
	clock shared.Clock,
) *SubmitAttemptHandler {
	if eventPublisher == nil {
		eventPublisher = shared.NoopPublisher{}
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &SubmitAttemptHandler{
		catalog:        cat,
		attemptRepo:    attemptRepo,
		eventPublisher: eventPublisher,
		clock:          clock,
	}
}

// Handle executes the command.
func (h *SubmitAttemptHandler) Handle(ctx context.Context, cmd SubmitAttemptCommand) (*SubmitAttemptResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("submit_attempt: validation failed: %w", err)
	}

	attempt, err := h.attemptRepo.GetByID(ctx, cmd.AttemptID)
	if err != nil {
		return nil, shared.WrapError("quiz", "Submit", shared.ErrNotFound, "quiz attempt not found", err)
	}

	if !attempt.OwnedBy(cmd.StudentID) {
		return nil, shared.ErrAttemptNotOwned
	}

	// Early reject; the repository re-checks atomically below.
	if attempt.IsSubmitted() {
		return nil, shared.ErrAttemptSubmitted
	}

	q, err := h.catalog.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		return nil, shared.WrapError("quiz", "Submit", shared.ErrNotFound, "quiz not found", err)
	}

	// Grade every answer before writing anything: an unknown question
	// aborts the whole submission, no partial grading.
	correctCount := 0
	answers := make([]*quiz.StudentAnswer, 0, len(cmd.Answers))
	details := make([]quiz.AnswerDetail, 0, len(cmd.Answers))
	for _, sub := range cmd.Answers {
		question, err := h.catalog.GetQuestion(ctx, sub.QuestionID)
		if err != nil {
			return nil, shared.WrapError("quiz", "Submit", shared.ErrNotFound,
				fmt.Sprintf("question not found: %s", sub.QuestionID), err)
		}

		isCorrect := question.IsCorrectOption(sub.SelectedOptionID)
		if isCorrect {
			correctCount++
		}

		answers = append(answers, &quiz.StudentAnswer{
			AttemptID:        attempt.ID,
			QuestionID:       question.ID,
			SelectedOptionID: sub.SelectedOptionID,
			IsCorrect:        isCorrect,
		})
		details = append(details, quiz.AnswerDetail{
			QuestionID:       question.ID,
			QuestionText:     question.Text,
			SelectedOptionID: sub.SelectedOptionID,
			CorrectOptionID:  question.CorrectOptionID(),
			IsCorrect:        isCorrect,
		})
	}

	if err := attempt.Grade(correctCount, q.PassingScore(), h.clock.Now()); err != nil {
		return nil, err
	}

	// Atomic check-then-set: exactly one concurrent submission wins.
	if err := h.attemptRepo.Submit(ctx, attempt, answers); err != nil {
		if shared.IsConflict(err) {
			return nil, shared.ErrAttemptSubmitted
		}
		return nil, fmt.Errorf("submit_attempt: failed to persist submission: %w", err)
	}

	_ = h.eventPublisher.Publish(shared.NewAttemptSubmittedEvent(
		attempt.ID.String(), attempt.QuizID.String(), attempt.StudentID.String(),
		attempt.Score, attempt.MaxScore, attempt.Percentage, attempt.Passed,
	))

	return &SubmitAttemptResult{
		Attempt:   attempt,
		QuizTitle: q.Title,
		Answers:   details,
	}, nil
}

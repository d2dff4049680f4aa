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
// START ATTEMPT COMMAND
// Creates a fresh STARTED attempt. Every call creates a new attempt;
// multiple attempts per quiz/student are allowed and history is preserved
// for best-attempt semantics.
// ══════════════════════════════════════════════════════════════════════════════

// StartAttemptCommand contains the data to start a quiz attempt.
type StartAttemptCommand struct {
	// QuizID is the quiz being attempted.
	QuizID uuid.UUID

	// StudentID is the authenticated student starting the attempt.
	StudentID uuid.UUID
}

// Validate validates the command.
func (c StartAttemptCommand) Validate() error {
	if c.QuizID == uuid.Nil {
		return errors.New("start_attempt: quiz_id is required")
	}
	if c.StudentID == uuid.Nil {
		return errors.New("start_attempt: student_id is required")
	}
	return nil
}

// StartAttemptResult contains the created attempt.
type StartAttemptResult struct {
	// Attempt is the new STARTED attempt.
	Attempt *quiz.Attempt

	// QuizTitle is included for caller display.
	QuizTitle string
}

// StartAttemptHandler handles the StartAttemptCommand.
type StartAttemptHandler struct {
	catalog        catalog.Reader
	attemptRepo    quiz.AttemptRepository
	eventPublisher shared.EventPublisher
	clock          shared.Clock
	ids            shared.IDGenerator
}

// NewStartAttemptHandler creates a new StartAttemptHandler.
func NewStartAttemptHandler(
	cat catalog.Reader,
	attemptRepo quiz.AttemptRepository,
	eventPublisher shared.EventPublisher,
	clock shared.Clock,
	ids shared.IDGenerator,
) *StartAttemptHandler {
	if eventPublisher == nil {
		eventPublisher = shared.NoopPublisher{}
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if ids == nil {
		ids = shared.UUIDGenerator{}
	}
	return &StartAttemptHandler{
		catalog:        cat,
		attemptRepo:    attemptRepo,
		eventPublisher: eventPublisher,
		clock:          clock,
		ids:            ids,
	}
}

// Handle executes the command.
func (h *StartAttemptHandler) Handle(ctx context.Context, cmd StartAttemptCommand) (*StartAttemptResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("start_attempt: validation failed: %w", err)
	}

	q, err := h.catalog.GetQuiz(ctx, cmd.QuizID)
	if err != nil {
		return nil, shared.WrapError("quiz", "StartAttempt", shared.ErrNotFound, "quiz not found", err)
	}

	// maxScore is the question count at start time, one point per question.
	questionCount, err := h.catalog.CountQuestions(ctx, cmd.QuizID)
	if err != nil {
		return nil, fmt.Errorf("start_attempt: failed to count questions: %w", err)
	}

	attempt := quiz.NewAttempt(h.ids.NewID(), cmd.QuizID, cmd.StudentID, questionCount, h.clock.Now())
	if err := h.attemptRepo.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("start_attempt: failed to persist attempt: %w", err)
	}

	_ = h.eventPublisher.Publish(shared.NewAttemptStartedEvent(
		attempt.ID.String(), cmd.QuizID.String(), cmd.StudentID.String(), attempt.MaxScore,
	))

	return &StartAttemptResult{Attempt: attempt, QuizTitle: q.Title}, nil
}

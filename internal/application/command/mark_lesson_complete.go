// Package command contains write operations (CQRS - Commands).
package command

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
// MARK LESSON COMPLETE COMMAND
// Records a completion fact for a (lesson, student) pair. Idempotent:
// repeated calls return the existing record unchanged in substance.
// ══════════════════════════════════════════════════════════════════════════════

// MarkLessonCompleteCommand contains the data to mark a lesson complete.
type MarkLessonCompleteCommand struct {
	// LessonID is the lesson being completed.
	LessonID uuid.UUID

	// StudentID is the student completing it.
	StudentID uuid.UUID
}

// Validate validates the command.
func (c MarkLessonCompleteCommand) Validate() error {
	if c.LessonID == uuid.Nil {
		return errors.New("mark_lesson_complete: lesson_id is required")
	}
	if c.StudentID == uuid.Nil {
		return errors.New("mark_lesson_complete: student_id is required")
	}
	return nil
}

// MarkLessonCompleteResult contains the resulting progress record.
type MarkLessonCompleteResult struct {
	// Progress is the current state of the record after the command.
	Progress *progress.LessonProgress

	// LessonTitle is included for caller display.
	LessonTitle string

	// Changed indicates whether this call flipped the record to completed.
	// False means the lesson was already complete and nothing was written.
	Changed bool
}

// MarkLessonCompleteHandler handles the MarkLessonCompleteCommand.
type MarkLessonCompleteHandler struct {
	catalog        catalog.Reader
	progressRepo   progress.Repository
	eventPublisher shared.EventPublisher
	clock          shared.Clock
}

// NewMarkLessonCompleteHandler creates a new MarkLessonCompleteHandler.
func NewMarkLessonCompleteHandler(
	cat catalog.Reader,
	progressRepo progress.Repository,
	eventPublisher shared.EventPublisher,
	clock shared.Clock,
) *MarkLessonCompleteHandler {
	if eventPublisher == nil {
		eventPublisher = shared.NoopPublisher{}
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &MarkLessonCompleteHandler{
		catalog:        cat,
		progressRepo:   progressRepo,
		eventPublisher: eventPublisher,
		clock:          clock,
	}
}

// Handle executes the command.
func (h *MarkLessonCompleteHandler) Handle(ctx context.Context, cmd MarkLessonCompleteCommand) (*MarkLessonCompleteResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("mark_lesson_complete: validation failed: %w", err)
	}

	lesson, err := h.catalog.GetLesson(ctx, cmd.LessonID)
	if err != nil {
		return nil, shared.WrapError("progress", "MarkComplete", shared.ErrNotFound, "lesson not found", err)
	}

	// Fetch-or-create the record.
	rec, err := h.progressRepo.Get(ctx, cmd.LessonID, cmd.StudentID)
	if err != nil {
		if !shared.IsNotFound(err) {
			return nil, fmt.Errorf("mark_lesson_complete: failed to load progress: %w", err)
		}
		rec = progress.NewLessonProgress(cmd.LessonID, cmd.StudentID)
	}

	changed := rec.MarkCompleted(h.clock.Now())
	if changed {
		if err := h.progressRepo.Upsert(ctx, rec); err != nil {
			return nil, fmt.Errorf("mark_lesson_complete: failed to persist progress: %w", err)
		}
		_ = h.eventPublisher.Publish(shared.NewLessonCompletedEvent(
			cmd.LessonID.String(), cmd.StudentID.String(), *rec.CompletedAt,
		))
	}

	return &MarkLessonCompleteResult{
		Progress:    rec,
		LessonTitle: lesson.Title,
		Changed:     changed,
	}, nil
}

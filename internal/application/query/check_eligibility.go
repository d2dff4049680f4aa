package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cour-hub/cour-certification-hub/internal/domain/catalog"
	"github.com/cour-hub/cour-certification-hub/internal/domain/certificate"
	"github.com/cour-hub/cour-certification-hub/internal/domain/quiz"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHECK ELIGIBILITY QUERY
// Read-only evaluation of the two certification gates: the course completion
// rate against the configured threshold, and a passed attempt for every
// mandatory quiz. All failed requirements are collected and reported together
// so the caller sees the full picture in one call.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultCompletionThreshold is the completion rate (percent) required when no
// explicit threshold is configured.
const DefaultCompletionThreshold = 80.0

// CheckEligibilityQuery contains the parameters for the evaluation.
type CheckEligibilityQuery struct {
	CourseID  uuid.UUID
	StudentID uuid.UUID
}

// Validate validates the query.
func (q CheckEligibilityQuery) Validate() error {
	if q.CourseID == uuid.Nil {
		return errors.New("check_eligibility: course_id is required")
	}
	if q.StudentID == uuid.Nil {
		return errors.New("check_eligibility: student_id is required")
	}
	return nil
}

// CheckEligibilityHandler handles the CheckEligibilityQuery.
type CheckEligibilityHandler struct {
	catalog             catalog.Reader
	attemptRepo         quiz.AttemptRepository
	progressQuery       *GetCourseProgressHandler
	completionThreshold float64
}

// NewCheckEligibilityHandler creates a new CheckEligibilityHandler.
// A threshold of 0 or below falls back to DefaultCompletionThreshold.
func NewCheckEligibilityHandler(
	cat catalog.Reader,
	attemptRepo quiz.AttemptRepository,
	progressQuery *GetCourseProgressHandler,
	completionThreshold float64,
) *CheckEligibilityHandler {
	if completionThreshold <= 0 {
		completionThreshold = DefaultCompletionThreshold
	}
	return &CheckEligibilityHandler{
		catalog:             cat,
		attemptRepo:         attemptRepo,
		progressQuery:       progressQuery,
		completionThreshold: completionThreshold,
	}
}

// Handle executes the query.
func (h *CheckEligibilityHandler) Handle(ctx context.Context, q CheckEligibilityQuery) (*certificate.Eligibility, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("check_eligibility: validation failed: %w", err)
	}
	return h.Check(ctx, q.CourseID, q.StudentID)
}

// Check evaluates both gates and returns the verdict with every missing
// requirement listed. Also invoked by the certificate issuer.
func (h *CheckEligibilityHandler) Check(ctx context.Context, courseID, studentID uuid.UUID) (*certificate.Eligibility, error) {
	snap, err := h.progressQuery.Snapshot(ctx, courseID, studentID)
	if err != nil {
		return nil, err
	}

	result := &certificate.Eligibility{
		CompletionRate: snap.CompletionRate,
		CompletionMet:  snap.CompletionRate >= h.completionThreshold,
		QuizzesMet:     true,
	}

	quizzes, err := h.catalog.MandatoryQuizzesByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("check_eligibility: failed to list mandatory quizzes: %w", err)
	}

	for _, qz := range quizzes {
		attempts, err := h.attemptRepo.ListByQuizAndStudent(ctx, qz.ID, studentID)
		if err != nil {
			return nil, fmt.Errorf("check_eligibility: failed to list attempts: %w", err)
		}

		// The best attempt is re-judged against the quiz's current passing
		// score, not the Passed flag frozen at submit time. Raising the bar
		// after an attempt was graded must not leave the old verdict standing.
		best := quiz.BestAttempt(attempts)
		switch {
		case best == nil:
			result.QuizzesMet = false
			result.MissingRequirements = append(result.MissingRequirements,
				fmt.Sprintf("Quiz not attempted: %s", qz.Title))
		case best.Percentage < float64(qz.PassingScore()):
			result.QuizzesMet = false
			result.MissingRequirements = append(result.MissingRequirements,
				fmt.Sprintf("Quiz '%s' not passed (score: %.1f%%, required: %d%%)", qz.Title, best.Percentage, qz.PassingScore()))
		}
	}

	if !result.CompletionMet {
		result.MissingRequirements = append(result.MissingRequirements,
			fmt.Sprintf("Course completion %.1f%% (required: %.1f%%)", snap.CompletionRate, h.completionThreshold))
	}

	result.Eligible = result.CompletionMet && result.QuizzesMet
	return result, nil
}

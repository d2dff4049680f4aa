package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cour-hub/cour-certification-hub/internal/domain/quiz"
	"github.com/cour-hub/cour-certification-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTEMPT REPOSITORY IMPLEMENTATION
// Submit is the one write that races: the conditional UPDATE applies only
// while submitted_at is still null, so exactly one concurrent submission
// lands and every other one sees zero affected rows.
// ══════════════════════════════════════════════════════════════════════════════

// AttemptRepository implements quiz.AttemptRepository for PostgreSQL.
type AttemptRepository struct {
	conn *Connection
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(conn *Connection) *AttemptRepository {
	return &AttemptRepository{conn: conn}
}

// Create persists a started attempt.
func (r *AttemptRepository) Create(ctx context.Context, a *quiz.Attempt) error {
	query := `
		INSERT INTO quiz_attempts (
			id, quiz_id, student_id, score, max_score, percentage, passed,
			started_at, submitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.conn.Exec(ctx, query,
		a.ID,
		a.QuizID,
		a.StudentID,
		a.Score,
		a.MaxScore,
		a.Percentage,
		a.Passed,
		a.StartedAt,
		a.SubmittedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("quiz", "CreateAttempt", shared.ErrAlreadyExists, "attempt id already exists")
		}
		return fmt.Errorf("failed to create attempt: %w", err)
	}

	return nil
}

// GetByID returns an attempt by id.
func (r *AttemptRepository) GetByID(ctx context.Context, attemptID uuid.UUID) (*quiz.Attempt, error) {
	query := `
		SELECT id, quiz_id, student_id, score, max_score, percentage, passed,
			   started_at, submitted_at
		FROM quiz_attempts
		WHERE id = $1
	`

	return r.scanAttempt(r.conn.QueryRow(ctx, query, attemptID))
}

// Submit persists the graded attempt and its answer rows in one transaction.
// The UPDATE is guarded by submitted_at IS NULL; losing the race leaves the
// transaction rolled back with nothing written.
func (r *AttemptRepository) Submit(ctx context.Context, a *quiz.Attempt, answers []*quiz.StudentAnswer) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		query := `
			UPDATE quiz_attempts SET
				score = $1,
				percentage = $2,
				passed = $3,
				submitted_at = $4
			WHERE id = $5 AND submitted_at IS NULL
		`

		result, err := tx.Exec(ctx, query,
			a.Score,
			a.Percentage,
			a.Passed,
			a.SubmittedAt,
			a.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to submit attempt: %w", err)
		}

		if result.RowsAffected() == 0 {
			// Either the attempt does not exist or another submission won.
			var exists bool
			if err := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM quiz_attempts WHERE id = $1)", a.ID).Scan(&exists); err != nil {
				return fmt.Errorf("failed to check attempt existence: %w", err)
			}
			if !exists {
				return shared.ErrAttemptNotFound
			}
			return shared.ErrAttemptSubmitted
		}

		for _, ans := range answers {
			_, err := tx.Exec(ctx, `
				INSERT INTO student_answers (attempt_id, question_id, selected_option_id, is_correct)
				VALUES ($1, $2, $3, $4)
			`, ans.AttemptID, ans.QuestionID, ans.SelectedOptionID, ans.IsCorrect)
			if err != nil {
				return fmt.Errorf("failed to insert answer: %w", err)
			}
		}

		return nil
	})
}

// ListByQuizAndStudent returns all attempts for a quiz/student pair, most
// recently started first.
func (r *AttemptRepository) ListByQuizAndStudent(ctx context.Context, quizID, studentID uuid.UUID) ([]*quiz.Attempt, error) {
	query := `
		SELECT id, quiz_id, student_id, score, max_score, percentage, passed,
			   started_at, submitted_at
		FROM quiz_attempts
		WHERE quiz_id = $1 AND student_id = $2
		ORDER BY started_at DESC
	`

	rows, err := r.conn.Query(ctx, query, quizID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	return r.scanAttempts(rows)
}

// ListByStudent returns all attempts of a student, most recently started first.
func (r *AttemptRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*quiz.Attempt, error) {
	query := `
		SELECT id, quiz_id, student_id, score, max_score, percentage, passed,
			   started_at, submitted_at
		FROM quiz_attempts
		WHERE student_id = $1
		ORDER BY started_at DESC
	`

	rows, err := r.conn.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	return r.scanAttempts(rows)
}

// AnswersByAttempt returns the graded answer rows of an attempt.
func (r *AttemptRepository) AnswersByAttempt(ctx context.Context, attemptID uuid.UUID) ([]*quiz.StudentAnswer, error) {
	query := `
		SELECT attempt_id, question_id, selected_option_id, is_correct
		FROM student_answers
		WHERE attempt_id = $1
		ORDER BY created_at
	`

	rows, err := r.conn.Query(ctx, query, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to query answers: %w", err)
	}
	defer rows.Close()

	var answers []*quiz.StudentAnswer
	for rows.Next() {
		var ans quiz.StudentAnswer
		if err := rows.Scan(&ans.AttemptID, &ans.QuestionID, &ans.SelectedOptionID, &ans.IsCorrect); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, &ans)
	}

	return answers, rows.Err()
}

// scanAttempt scans a single attempt from a row.
func (r *AttemptRepository) scanAttempt(row pgx.Row) (*quiz.Attempt, error) {
	var a quiz.Attempt
	err := row.Scan(
		&a.ID,
		&a.QuizID,
		&a.StudentID,
		&a.Score,
		&a.MaxScore,
		&a.Percentage,
		&a.Passed,
		&a.StartedAt,
		&a.SubmittedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to scan attempt: %w", err)
	}
	return &a, nil
}

// scanAttempts scans multiple attempts from rows.
func (r *AttemptRepository) scanAttempts(rows pgx.Rows) ([]*quiz.Attempt, error) {
	var attempts []*quiz.Attempt
	for rows.Next() {
		var a quiz.Attempt
		err := rows.Scan(
			&a.ID,
			&a.QuizID,
			&a.StudentID,
			&a.Score,
			&a.MaxScore,
			&a.Percentage,
			&a.Passed,
			&a.StartedAt,
			&a.SubmittedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		attempts = append(attempts, &a)
	}
	return attempts, rows.Err()
}

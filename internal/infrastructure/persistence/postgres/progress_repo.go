package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cour-hub/cour-certification-hub/internal/domain/progress"
	"github.com/cour-hub/cour-certification-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProgressRepository implements progress.Repository for PostgreSQL.
type ProgressRepository struct {
	conn *Connection
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(conn *Connection) *ProgressRepository {
	return &ProgressRepository{conn: conn}
}

// Get returns the record for (lessonID, studentID).
func (r *ProgressRepository) Get(ctx context.Context, lessonID, studentID uuid.UUID) (*progress.LessonProgress, error) {
	query := `
		SELECT lesson_id, student_id, completed, completed_at
		FROM lesson_progress
		WHERE lesson_id = $1 AND student_id = $2
	`

	var p progress.LessonProgress
	err := r.conn.QueryRow(ctx, query, lessonID, studentID).Scan(
		&p.LessonID, &p.StudentID, &p.Completed, &p.CompletedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProgressNotFound
		}
		return nil, fmt.Errorf("failed to query lesson progress: %w", err)
	}

	return &p, nil
}

// Upsert creates or replaces the record on its (lesson, student) key. The
// upsert keeps repeat completions idempotent at the storage level too.
func (r *ProgressRepository) Upsert(ctx context.Context, p *progress.LessonProgress) error {
	query := `
		INSERT INTO lesson_progress (lesson_id, student_id, completed, completed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (lesson_id, student_id) DO UPDATE SET
			completed = EXCLUDED.completed,
			completed_at = EXCLUDED.completed_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, query,
		p.LessonID,
		p.StudentID,
		p.Completed,
		p.CompletedAt,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert lesson progress: %w", err)
	}

	return nil
}

// ListByLessons returns the existing records for the given lessons and student.
func (r *ProgressRepository) ListByLessons(ctx context.Context, lessonIDs []uuid.UUID, studentID uuid.UUID) ([]*progress.LessonProgress, error) {
	if len(lessonIDs) == 0 {
		return []*progress.LessonProgress{}, nil
	}

	query := `
		SELECT lesson_id, student_id, completed, completed_at
		FROM lesson_progress
		WHERE student_id = $1 AND lesson_id = ANY($2)
	`

	rows, err := r.conn.Query(ctx, query, studentID, lessonIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query lesson progress: %w", err)
	}
	defer rows.Close()

	var records []*progress.LessonProgress
	for rows.Next() {
		var p progress.LessonProgress
		if err := rows.Scan(&p.LessonID, &p.StudentID, &p.Completed, &p.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan lesson progress: %w", err)
		}
		records = append(records, &p)
	}

	return records, rows.Err()
}

// CountCompleted returns how many of the given lessons the student completed.
func (r *ProgressRepository) CountCompleted(ctx context.Context, lessonIDs []uuid.UUID, studentID uuid.UUID) (int, error) {
	if len(lessonIDs) == 0 {
		return 0, nil
	}

	query := `
		SELECT COUNT(*)
		FROM lesson_progress
		WHERE student_id = $1 AND lesson_id = ANY($2) AND completed
	`

	var count int
	if err := r.conn.QueryRow(ctx, query, studentID, lessonIDs).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}

	return count, nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cour-hub/cour-certification-hub/internal/domain/catalog"
	"github.com/cour-hub/cour-certification-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG REPOSITORY IMPLEMENTATION
// Read-only: the catalog is authored elsewhere, this side only consumes it.
// ══════════════════════════════════════════════════════════════════════════════

// CatalogRepository implements catalog.Reader for PostgreSQL.
type CatalogRepository struct {
	conn *Connection
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(conn *Connection) *CatalogRepository {
	return &CatalogRepository{conn: conn}
}

// GetCourse returns a course by id.
func (r *CatalogRepository) GetCourse(ctx context.Context, courseID uuid.UUID) (*catalog.Course, error) {
	query := `
		SELECT id, title, description
		FROM courses
		WHERE id = $1
	`

	var c catalog.Course
	err := r.conn.QueryRow(ctx, query, courseID).Scan(&c.ID, &c.Title, &c.Description)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to query course: %w", err)
	}

	return &c, nil
}

// GetLesson returns a lesson by id.
func (r *CatalogRepository) GetLesson(ctx context.Context, lessonID uuid.UUID) (*catalog.Lesson, error) {
	query := `
		SELECT id, module_id, title, position
		FROM lessons
		WHERE id = $1
	`

	var l catalog.Lesson
	err := r.conn.QueryRow(ctx, query, lessonID).Scan(&l.ID, &l.ModuleID, &l.Title, &l.OrderIndex)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to query lesson: %w", err)
	}

	return &l, nil
}

// LessonIDsByCourse returns the ids of every lesson in the course, in
// module/lesson order.
func (r *CatalogRepository) LessonIDsByCourse(ctx context.Context, courseID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT l.id
		FROM lessons l
		JOIN course_modules m ON m.id = l.module_id
		WHERE l.course_id = $1
		ORDER BY m.position, l.position
	`

	rows, err := r.conn.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lesson ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan lesson id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// LessonsByCourse returns every lesson of the course in module/lesson order.
func (r *CatalogRepository) LessonsByCourse(ctx context.Context, courseID uuid.UUID) ([]*catalog.Lesson, error) {
	query := `
		SELECT l.id, l.module_id, l.title, l.position
		FROM lessons l
		JOIN course_modules m ON m.id = l.module_id
		WHERE l.course_id = $1
		ORDER BY m.position, l.position
	`

	rows, err := r.conn.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	var lessons []*catalog.Lesson
	for rows.Next() {
		var l catalog.Lesson
		if err := rows.Scan(&l.ID, &l.ModuleID, &l.Title, &l.OrderIndex); err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, &l)
	}

	return lessons, rows.Err()
}

// GetQuiz returns a quiz by id.
func (r *CatalogRepository) GetQuiz(ctx context.Context, quizID uuid.UUID) (*catalog.Quiz, error) {
	query := `
		SELECT id, course_id, title, passing_score, mandatory
		FROM quizzes
		WHERE id = $1
	`

	var q catalog.Quiz
	err := r.conn.QueryRow(ctx, query, quizID).Scan(&q.ID, &q.CourseID, &q.Title, &q.PassingScorePercent, &q.Mandatory)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to query quiz: %w", err)
	}

	return &q, nil
}

// CountQuestions returns the number of questions on a quiz.
func (r *CatalogRepository) CountQuestions(ctx context.Context, quizID uuid.UUID) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, "SELECT COUNT(*) FROM questions WHERE quiz_id = $1", quizID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return count, nil
}

// GetQuestion returns a question with its options and answer key.
func (r *CatalogRepository) GetQuestion(ctx context.Context, questionID uuid.UUID) (*catalog.Question, error) {
	query := `
		SELECT id, quiz_id, text
		FROM questions
		WHERE id = $1
	`

	var q catalog.Question
	err := r.conn.QueryRow(ctx, query, questionID).Scan(&q.ID, &q.QuizID, &q.Text)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to query question: %w", err)
	}

	optQuery := `
		SELECT id, text, is_correct
		FROM question_options
		WHERE question_id = $1
		ORDER BY position
	`

	rows, err := r.conn.Query(ctx, optQuery, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var opt catalog.Option
		if err := rows.Scan(&opt.ID, &opt.Text, &opt.Correct); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		q.Options = append(q.Options, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &q, nil
}

// MandatoryQuizzesByCourse returns the quizzes flagged mandatory for a course.
func (r *CatalogRepository) MandatoryQuizzesByCourse(ctx context.Context, courseID uuid.UUID) ([]*catalog.Quiz, error) {
	query := `
		SELECT id, course_id, title, passing_score, mandatory
		FROM quizzes
		WHERE course_id = $1 AND mandatory
		ORDER BY created_at
	`

	rows, err := r.conn.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query mandatory quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []*catalog.Quiz
	for rows.Next() {
		var q catalog.Quiz
		if err := rows.Scan(&q.ID, &q.CourseID, &q.Title, &q.PassingScorePercent, &q.Mandatory); err != nil {
			return nil, fmt.Errorf("failed to scan quiz: %w", err)
		}
		quizzes = append(quizzes, &q)
	}

	return quizzes, rows.Err()
}

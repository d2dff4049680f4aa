// Package memory provides in-memory implementations of the domain
// repositories. A single mutex per store makes every check-and-write atomic,
// which is exactly the contract the conditional operations need. Used by
// tests and local runs without a database.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/cour-hub/cour-certification-hub/internal/domain/catalog"
	"github.com/cour-hub/cour-certification-hub/internal/domain/certificate"
	"github.com/cour-hub/cour-certification-hub/internal/domain/progress"
	"github.com/cour-hub/cour-certification-hub/internal/domain/quiz"
	"github.com/cour-hub/cour-certification-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG STORE
// ══════════════════════════════════════════════════════════════════════════════

// CatalogStore implements catalog.Reader over seeded data.
type CatalogStore struct {
	mu              sync.RWMutex
	courses         map[uuid.UUID]*catalog.Course
	lessons         map[uuid.UUID]*catalog.Lesson
	lessonsByCourse map[uuid.UUID][]uuid.UUID
	quizzes         map[uuid.UUID]*catalog.Quiz
	questions       map[uuid.UUID]*catalog.Question
	questionsByQuiz map[uuid.UUID][]uuid.UUID
}

// NewCatalogStore creates an empty catalog store.
func NewCatalogStore() *CatalogStore {
	return &CatalogStore{
		courses:         make(map[uuid.UUID]*catalog.Course),
		lessons:         make(map[uuid.UUID]*catalog.Lesson),
		lessonsByCourse: make(map[uuid.UUID][]uuid.UUID),
		quizzes:         make(map[uuid.UUID]*catalog.Quiz),
		questions:       make(map[uuid.UUID]*catalog.Question),
		questionsByQuiz: make(map[uuid.UUID][]uuid.UUID),
	}
}

// SeedCourse registers a course.
func (s *CatalogStore) SeedCourse(c *catalog.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[c.ID] = c
}

// SeedLesson registers a lesson under a course. Order of seeding is the
// course order.
func (s *CatalogStore) SeedLesson(courseID uuid.UUID, l *catalog.Lesson) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lessons[l.ID] = l
	s.lessonsByCourse[courseID] = append(s.lessonsByCourse[courseID], l.ID)
}

// SeedQuiz registers a quiz.
func (s *CatalogStore) SeedQuiz(q *catalog.Quiz) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[q.ID] = q
}

// SeedQuestion registers a question under its quiz.
func (s *CatalogStore) SeedQuestion(q *catalog.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[q.ID] = q
	s.questionsByQuiz[q.QuizID] = append(s.questionsByQuiz[q.QuizID], q.ID)
}

// GetCourse implements catalog.Reader.
func (s *CatalogStore) GetCourse(_ context.Context, courseID uuid.UUID) (*catalog.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courses[courseID]
	if !ok {
		return nil, shared.ErrCourseNotFound
	}
	return c, nil
}

// GetLesson implements catalog.Reader.
func (s *CatalogStore) GetLesson(_ context.Context, lessonID uuid.UUID) (*catalog.Lesson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lessons[lessonID]
	if !ok {
		return nil, shared.ErrLessonNotFound
	}
	return l, nil
}

// LessonIDsByCourse implements catalog.Reader.
func (s *CatalogStore) LessonIDsByCourse(_ context.Context, courseID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.lessonsByCourse[courseID]
	out := make([]uuid.UUID, len(ids))
	copy(out, ids)
	return out, nil
}

// LessonsByCourse implements catalog.Reader.
func (s *CatalogStore) LessonsByCourse(_ context.Context, courseID uuid.UUID) ([]*catalog.Lesson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.lessonsByCourse[courseID]
	lessons := make([]*catalog.Lesson, 0, len(ids))
	for _, id := range ids {
		lessons = append(lessons, s.lessons[id])
	}
	return lessons, nil
}

// GetQuiz implements catalog.Reader.
func (s *CatalogStore) GetQuiz(_ context.Context, quizID uuid.UUID) (*catalog.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quizzes[quizID]
	if !ok {
		return nil, shared.ErrQuizNotFound
	}
	return q, nil
}

// CountQuestions implements catalog.Reader.
func (s *CatalogStore) CountQuestions(_ context.Context, quizID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.questionsByQuiz[quizID]), nil
}

// GetQuestion implements catalog.Reader.
func (s *CatalogStore) GetQuestion(_ context.Context, questionID uuid.UUID) (*catalog.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[questionID]
	if !ok {
		return nil, shared.ErrQuestionNotFound
	}
	return q, nil
}

// MandatoryQuizzesByCourse implements catalog.Reader.
func (s *CatalogStore) MandatoryQuizzesByCourse(_ context.Context, courseID uuid.UUID) ([]*catalog.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var quizzes []*catalog.Quiz
	for _, q := range s.quizzes {
		if q.CourseID == courseID && q.Mandatory {
			quizzes = append(quizzes, q)
		}
	}
	sort.Slice(quizzes, func(i, j int) bool { return quizzes[i].Title < quizzes[j].Title })
	return quizzes, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS STORE
// ══════════════════════════════════════════════════════════════════════════════

type progressKey struct {
	lessonID  uuid.UUID
	studentID uuid.UUID
}

// ProgressStore implements progress.Repository.
type ProgressStore struct {
	mu      sync.RWMutex
	records map[progressKey]*progress.LessonProgress
}

// NewProgressStore creates an empty progress store.
func NewProgressStore() *ProgressStore {
	return &ProgressStore{records: make(map[progressKey]*progress.LessonProgress)}
}

// Get implements progress.Repository.
func (s *ProgressStore) Get(_ context.Context, lessonID, studentID uuid.UUID) (*progress.LessonProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[progressKey{lessonID, studentID}]
	if !ok {
		return nil, shared.ErrProgressNotFound
	}
	cp := *rec
	return &cp, nil
}

// Upsert implements progress.Repository.
func (s *ProgressStore) Upsert(_ context.Context, p *progress.LessonProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.records[progressKey{p.LessonID, p.StudentID}] = &cp
	return nil
}

// ListByLessons implements progress.Repository.
func (s *ProgressStore) ListByLessons(_ context.Context, lessonIDs []uuid.UUID, studentID uuid.UUID) ([]*progress.LessonProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*progress.LessonProgress
	for _, id := range lessonIDs {
		if rec, ok := s.records[progressKey{id, studentID}]; ok {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

// CountCompleted implements progress.Repository.
func (s *ProgressStore) CountCompleted(_ context.Context, lessonIDs []uuid.UUID, studentID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, id := range lessonIDs {
		if rec, ok := s.records[progressKey{id, studentID}]; ok && rec.Completed {
			count++
		}
	}
	return count, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ATTEMPT STORE
// ══════════════════════════════════════════════════════════════════════════════

// AttemptStore implements quiz.AttemptRepository. Submit holds the write lock
// across the submitted check and the write, making the transition exactly-once.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[uuid.UUID]*quiz.Attempt
	answers  map[uuid.UUID][]*quiz.StudentAnswer
	order    []uuid.UUID // creation order, newest listing reverses it
}

// NewAttemptStore creates an empty attempt store.
func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts: make(map[uuid.UUID]*quiz.Attempt),
		answers:  make(map[uuid.UUID][]*quiz.StudentAnswer),
	}
}

// Create implements quiz.AttemptRepository.
func (s *AttemptStore) Create(_ context.Context, a *quiz.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attempts[a.ID]; ok {
		return shared.NewDomainError("quiz", "CreateAttempt", shared.ErrAlreadyExists, "attempt id already exists")
	}
	cp := *a
	s.attempts[a.ID] = &cp
	s.order = append(s.order, a.ID)
	return nil
}

// GetByID implements quiz.AttemptRepository.
func (s *AttemptStore) GetByID(_ context.Context, attemptID uuid.UUID) (*quiz.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attempts[attemptID]
	if !ok {
		return nil, shared.ErrAttemptNotFound
	}
	cp := *a
	return &cp, nil
}

// Submit implements quiz.AttemptRepository.
func (s *AttemptStore) Submit(_ context.Context, a *quiz.Attempt, answers []*quiz.StudentAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.attempts[a.ID]
	if !ok {
		return shared.ErrAttemptNotFound
	}
	if stored.SubmittedAt != nil {
		return shared.ErrAttemptSubmitted
	}

	cp := *a
	s.attempts[a.ID] = &cp
	rows := make([]*quiz.StudentAnswer, len(answers))
	for i, ans := range answers {
		c := *ans
		rows[i] = &c
	}
	s.answers[a.ID] = rows
	return nil
}

// ListByQuizAndStudent implements quiz.AttemptRepository.
func (s *AttemptStore) ListByQuizAndStudent(_ context.Context, quizID, studentID uuid.UUID) ([]*quiz.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*quiz.Attempt
	for i := len(s.order) - 1; i >= 0; i-- {
		a := s.attempts[s.order[i]]
		if a.QuizID == quizID && a.StudentID == studentID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ListByStudent implements quiz.AttemptRepository.
func (s *AttemptStore) ListByStudent(_ context.Context, studentID uuid.UUID) ([]*quiz.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*quiz.Attempt
	for i := len(s.order) - 1; i >= 0; i-- {
		a := s.attempts[s.order[i]]
		if a.StudentID == studentID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

// AnswersByAttempt implements quiz.AttemptRepository.
func (s *AttemptStore) AnswersByAttempt(_ context.Context, attemptID uuid.UUID) ([]*quiz.StudentAnswer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.answers[attemptID]
	out := make([]*quiz.StudentAnswer, len(rows))
	for i, r := range rows {
		cp := *r
		out[i] = &cp
	}
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CERTIFICATE STORE
// ══════════════════════════════════════════════════════════════════════════════

type pairKey struct {
	courseID  uuid.UUID
	studentID uuid.UUID
}

// CertificateStore implements certificate.Repository. InsertIfAbsent holds
// the write lock across both uniqueness checks and the insert.
type CertificateStore struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*certificate.Certificate
	byPair map[pairKey]uuid.UUID
	byCode map[string]uuid.UUID
	order  []uuid.UUID
}

// NewCertificateStore creates an empty certificate store.
func NewCertificateStore() *CertificateStore {
	return &CertificateStore{
		byID:   make(map[uuid.UUID]*certificate.Certificate),
		byPair: make(map[pairKey]uuid.UUID),
		byCode: make(map[string]uuid.UUID),
	}
}

// InsertIfAbsent implements certificate.Repository.
func (s *CertificateStore) InsertIfAbsent(_ context.Context, c *certificate.Certificate) (*certificate.Certificate, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existingID, ok := s.byPair[pairKey{c.CourseID, c.StudentID}]; ok {
		cp := *s.byID[existingID]
		return &cp, false, nil
	}
	if _, ok := s.byCode[c.VerificationCode]; ok {
		return nil, false, shared.NewDomainError("certificate", "InsertIfAbsent", shared.ErrCodeTaken,
			"verification code already in use")
	}

	cp := *c
	s.byID[c.ID] = &cp
	s.byPair[pairKey{c.CourseID, c.StudentID}] = c.ID
	s.byCode[c.VerificationCode] = c.ID
	s.order = append(s.order, c.ID)

	out := cp
	return &out, true, nil
}

// GetByID implements certificate.Repository.
func (s *CertificateStore) GetByID(_ context.Context, certificateID uuid.UUID) (*certificate.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[certificateID]
	if !ok {
		return nil, shared.ErrCertificateNotFound
	}
	cp := *c
	return &cp, nil
}

// GetByCourseAndStudent implements certificate.Repository.
func (s *CertificateStore) GetByCourseAndStudent(_ context.Context, courseID, studentID uuid.UUID) (*certificate.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPair[pairKey{courseID, studentID}]
	if !ok {
		return nil, shared.ErrCertificateNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

// GetByVerificationCode implements certificate.Repository.
func (s *CertificateStore) GetByVerificationCode(_ context.Context, code string) (*certificate.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCode[code]
	if !ok {
		return nil, shared.ErrCertificateNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

// ListByStudent implements certificate.Repository.
func (s *CertificateStore) ListByStudent(_ context.Context, studentID uuid.UUID) ([]*certificate.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*certificate.Certificate
	for i := len(s.order) - 1; i >= 0; i-- {
		c := s.byID[s.order[i]]
		if c.StudentID == studentID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// SetPDFPath implements certificate.Repository.
func (s *CertificateStore) SetPDFPath(_ context.Context, certificateID uuid.UUID, pdfPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[certificateID]
	if !ok {
		return shared.ErrCertificateNotFound
	}
	p := pdfPath
	c.PDFPath = &p
	return nil
}

// ListUnrendered implements certificate.Repository.
func (s *CertificateStore) ListUnrendered(_ context.Context, limit int) ([]*certificate.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*certificate.Certificate
	for _, id := range s.order {
		if len(out) >= limit {
			break
		}
		c := s.byID[id]
		if c.PDFPath == nil {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

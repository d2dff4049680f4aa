package command

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cour-hub/cour-certification-hub/internal/application/query"
	"github.com/cour-hub/cour-certification-hub/internal/domain/catalog"
	"github.com/cour-hub/cour-certification-hub/internal/domain/certificate"
	"github.com/cour-hub/cour-certification-hub/internal/domain/progress"
	"github.com/cour-hub/cour-certification-hub/internal/domain/quiz"
	"github.com/cour-hub/cour-certification-hub/internal/domain/shared"
	"github.com/cour-hub/cour-certification-hub/internal/infrastructure/persistence/memory"
)

// stubEligibility returns a fixed verdict.
type stubEligibility struct {
	verdict *certificate.Eligibility
}

func (s *stubEligibility) Check(context.Context, uuid.UUID, uuid.UUID) (*certificate.Eligibility, error) {
	return s.verdict, nil
}

// fakeRenderer implements certificate.Renderer in memory.
type fakeRenderer struct {
	mu     sync.Mutex
	fail   bool
	calls  int
	loaded map[string][]byte
}

func (r *fakeRenderer) Render(_ context.Context, c *certificate.Certificate, _ string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.fail {
		return "", errors.New("renderer unavailable")
	}
	return "certificates/" + c.ID.String() + ".pdf", nil
}

func (r *fakeRenderer) Load(_ context.Context, path string) ([]byte, error) {
	if b, ok := r.loaded[path]; ok {
		return b, nil
	}
	return nil, errors.New("no such pdf")
}

func eligible(rate float64) *stubEligibility {
	return &stubEligibility{verdict: &certificate.Eligibility{
		Eligible: true, CompletionRate: rate, CompletionMet: true, QuizzesMet: true,
	}}
}

func seedCourse(cat *memory.CatalogStore) uuid.UUID {
	courseID := uuid.New()
	cat.SeedCourse(&catalog.Course{ID: courseID, Title: "Go Basics"})
	return courseID
}

func TestGenerateCertificate(t *testing.T) {
	ctx := context.Background()
	cat := memory.NewCatalogStore()
	courseID := seedCourse(cat)
	certs := memory.NewCertificateStore()
	pub := &capturePublisher{}
	renderer := &fakeRenderer{}
	now := time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)

	h := NewGenerateCertificateHandler(cat, certs, eligible(92.5), renderer, pub,
		shared.FixedClock{Instant: now}, nil, nil, nil)

	res, err := h.Handle(ctx, GenerateCertificateCommand{CourseID: courseID, StudentID: uuid.New()})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, 92.5, res.Certificate.CompletionRate)
	assert.Equal(t, now, res.Certificate.IssuedAt)

	_, err = shared.NewVerificationCode(res.Certificate.VerificationCode)
	assert.NoError(t, err)

	// Rendered inline and recorded.
	assert.True(t, res.Certificate.Rendered())
	assert.Len(t, pub.byType(shared.EventCertificateIssued), 1)
	assert.Len(t, pub.byType(shared.EventCertificateRendered), 1)
}

func TestGenerateCertificate_Idempotent(t *testing.T) {
	ctx := context.Background()
	cat := memory.NewCatalogStore()
	courseID := seedCourse(cat)
	certs := memory.NewCertificateStore()
	pub := &capturePublisher{}
	studentID := uuid.New()

	h := NewGenerateCertificateHandler(cat, certs, eligible(100), nil, pub, nil, nil, nil, nil)
	cmd := GenerateCertificateCommand{CourseID: courseID, StudentID: studentID}

	first, err := h.Handle(ctx, cmd)
	require.NoError(t, err)
	require.True(t, first.Created)

	second, err := h.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Certificate.ID, second.Certificate.ID)
	assert.Equal(t, first.Certificate.VerificationCode, second.Certificate.VerificationCode)
	assert.Len(t, pub.byType(shared.EventCertificateIssued), 1)
}

func TestGenerateCertificate_ConcurrentSingleRow(t *testing.T) {
	ctx := context.Background()
	cat := memory.NewCatalogStore()
	courseID := seedCourse(cat)
	certs := memory.NewCertificateStore()
	studentID := uuid.New()

	h := NewGenerateCertificateHandler(cat, certs, eligible(100), nil, &capturePublisher{}, nil, nil, nil, nil)
	cmd := GenerateCertificateCommand{CourseID: courseID, StudentID: studentID}

	const goroutines = 12
	var wg sync.WaitGroup
	ids := make(chan uuid.UUID, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := h.Handle(ctx, cmd)
			if assert.NoError(t, err) {
				ids <- res.Certificate.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	var first *uuid.UUID
	for id := range ids {
		if first == nil {
			v := id
			first = &v
			continue
		}
		assert.Equal(t, *first, id, "every caller must observe the same certificate")
	}
}

func TestGenerateCertificate_CodeCollisionRegenerates(t *testing.T) {
	ctx := context.Background()
	cat := memory.NewCatalogStore()
	courseID := seedCourse(cat)
	certs := memory.NewCertificateStore()

	// Occupy the code "AAAA1111" with an unrelated certificate.
	_, _, err := certs.InsertIfAbsent(ctx, certificate.New(uuid.New(), uuid.New(), uuid.New(), "AAAA1111", 90, time.Now()))
	require.NoError(t, err)

	codes := &shared.SequenceCodeGenerator{Codes: []string{"AAAA1111", "BBBB2222"}}
	h := NewGenerateCertificateHandler(cat, certs, eligible(100), nil, nil, nil, nil, codes, nil)

	res, err := h.Handle(ctx, GenerateCertificateCommand{CourseID: courseID, StudentID: uuid.New()})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "BBBB2222", res.Certificate.VerificationCode)
}

func TestGenerateCertificate_RenderFailureDoesNotFailIssuance(t *testing.T) {
	ctx := context.Background()
	cat := memory.NewCatalogStore()
	courseID := seedCourse(cat)
	certs := memory.NewCertificateStore()
	pub := &capturePublisher{}
	renderer := &fakeRenderer{fail: true}

	h := NewGenerateCertificateHandler(cat, certs, eligible(100), renderer, pub, nil, nil, nil, nil)

	res, err := h.Handle(ctx, GenerateCertificateCommand{CourseID: courseID, StudentID: uuid.New()})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.False(t, res.Certificate.Rendered())
	assert.Len(t, pub.byType(shared.EventCertificateIssued), 1)
	assert.Len(t, pub.byType(shared.EventCertificateRenderFailed), 1)

	// Still listed for the retry sweep.
	pending, err := certs.ListUnrendered(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestGenerateCertificate_NotEligible(t *testing.T) {
	ctx := context.Background()
	cat := memory.NewCatalogStore()
	courseID := seedCourse(cat)
	certs := memory.NewCertificateStore()

	checker := &stubEligibility{verdict: &certificate.Eligibility{
		Eligible:       false,
		CompletionRate: 50,
		MissingRequirements: []string{
			"Course completion 50.0% (required: 80.0%)",
			"Quiz not attempted: Final Exam",
		},
	}}
	h := NewGenerateCertificateHandler(cat, certs, checker, nil, nil, nil, nil, nil, nil)

	_, err := h.Handle(ctx, GenerateCertificateCommand{CourseID: courseID, StudentID: uuid.New()})
	var notEligible *certificate.NotEligibleError
	require.ErrorAs(t, err, &notEligible)
	assert.Len(t, notEligible.Missing, 2)
	assert.True(t, shared.IsFailedPrecondition(err))
}

func TestGenerateCertificate_UnknownCourse(t *testing.T) {
	ctx := context.Background()
	h := NewGenerateCertificateHandler(memory.NewCatalogStore(), memory.NewCertificateStore(),
		eligible(100), nil, nil, nil, nil, nil, nil)

	_, err := h.Handle(ctx, GenerateCertificateCommand{CourseID: uuid.New(), StudentID: uuid.New()})
	assert.True(t, shared.IsNotFound(err))
}

// End-to-end gate check: a student who completes all lessons and passes the
// mandatory quiz gets a certificate via the real eligibility evaluator.
func TestGenerateCertificate_WithRealEligibility(t *testing.T) {
	ctx := context.Background()
	cat := memory.NewCatalogStore()
	progStore := memory.NewProgressStore()
	attempts := memory.NewAttemptStore()
	certs := memory.NewCertificateStore()

	courseID := uuid.New()
	cat.SeedCourse(&catalog.Course{ID: courseID, Title: "Go Basics"})
	var lessonIDs []uuid.UUID
	for i := 0; i < 4; i++ {
		l := &catalog.Lesson{ID: uuid.New(), ModuleID: uuid.New(), Title: "L", OrderIndex: i}
		cat.SeedLesson(courseID, l)
		lessonIDs = append(lessonIDs, l.ID)
	}
	qz := &catalog.Quiz{ID: uuid.New(), CourseID: courseID, Title: "Final Exam", Mandatory: true}
	cat.SeedQuiz(qz)

	studentID := uuid.New()
	for _, id := range lessonIDs {
		rec := progress.NewLessonProgress(id, studentID)
		rec.MarkCompleted(time.Now())
		require.NoError(t, progStore.Upsert(ctx, rec))
	}

	progressQuery := query.NewGetCourseProgressHandler(cat, progStore)
	checker := query.NewCheckEligibilityHandler(cat, attempts, progressQuery, 80)
	h := NewGenerateCertificateHandler(cat, certs, checker, nil, nil, nil, nil, nil, nil)
	cmd := GenerateCertificateCommand{CourseID: courseID, StudentID: studentID}

	// Quiz not attempted yet: blocked.
	_, err := h.Handle(ctx, cmd)
	var notEligible *certificate.NotEligibleError
	require.ErrorAs(t, err, &notEligible)
	assert.Contains(t, notEligible.Missing, "Quiz not attempted: Final Exam")

	// Pass the quiz, then issuance succeeds with the real completion rate.
	startAndPass(t, attempts, qz.ID, studentID)

	res, err := h.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, 100.0, res.Certificate.CompletionRate)
}

// startAndPass creates and submits a passing attempt directly via the store.
func startAndPass(t *testing.T, store *memory.AttemptStore, quizID, studentID uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	a := quiz.NewAttempt(uuid.New(), quizID, studentID, 1, time.Now())
	require.NoError(t, store.Create(ctx, a))
	require.NoError(t, a.Grade(1, 60, time.Now()))
	require.NoError(t, store.Submit(ctx, a, nil))
}

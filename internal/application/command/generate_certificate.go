package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cour-hub/cour-certification-hub/internal/domain/catalog"
	"github.com/cour-hub/cour-certification-hub/internal/domain/certificate"
	"github.com/cour-hub/cour-certification-hub/internal/domain/shared"
	"github.com/cour-hub/cour-certification-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GENERATE CERTIFICATE COMMAND
// Issues a certificate for an eligible (course, student) pair. Issuance is
// at-most-once: a repeat request returns the existing record unchanged, and
// concurrent requests converge on a single row through the repository's
// conditional insert. PDF rendering is best effort; a render failure is
// recorded and retried later but never rolls back the issued certificate.
// ══════════════════════════════════════════════════════════════════════════════

// maxCodeAttempts bounds verification-code regeneration on collision. With an
// 8-char alphanumeric space a second collision in a row is already suspicious.
const maxCodeAttempts = 5

// EligibilityChecker evaluates the certification gates for a pair.
// Satisfied by query.CheckEligibilityHandler.
type EligibilityChecker interface {
	Check(ctx context.Context, courseID, studentID uuid.UUID) (*certificate.Eligibility, error)
}

// GenerateCertificateCommand contains the parameters for issuance.
type GenerateCertificateCommand struct {
	// CourseID is the course being certified.
	CourseID uuid.UUID

	// StudentID is the student requesting the certificate.
	StudentID uuid.UUID
}

// Validate validates the command.
func (c GenerateCertificateCommand) Validate() error {
	if c.CourseID == uuid.Nil {
		return errors.New("generate_certificate: course_id is required")
	}
	if c.StudentID == uuid.Nil {
		return errors.New("generate_certificate: student_id is required")
	}
	return nil
}

// GenerateCertificateResult contains the issued (or pre-existing) certificate.
type GenerateCertificateResult struct {
	// Certificate is the single record for the pair.
	Certificate *certificate.Certificate

	// Created is false when the pair was already certified and the existing
	// record was returned unchanged.
	Created bool
}

// GenerateCertificateHandler handles the GenerateCertificateCommand.
type GenerateCertificateHandler struct {
	catalog        catalog.Reader
	certRepo       certificate.Repository
	eligibility    EligibilityChecker
	renderer       certificate.Renderer
	eventPublisher shared.EventPublisher
	clock          shared.Clock
	ids            shared.IDGenerator
	codes          shared.CodeGenerator
	logger         *logger.Logger
}

// NewGenerateCertificateHandler creates a new GenerateCertificateHandler.
// The renderer may be nil, in which case issued certificates stay unrendered
// until a later render pass picks them up.
func NewGenerateCertificateHandler(
	cat catalog.Reader,
	certRepo certificate.Repository,
	eligibility EligibilityChecker,
	renderer certificate.Renderer,
	eventPublisher shared.EventPublisher,
	clock shared.Clock,
	ids shared.IDGenerator,
	codes shared.CodeGenerator,
	log *logger.Logger,
) *GenerateCertificateHandler {
	if eventPublisher == nil {
		eventPublisher = shared.NoopPublisher{}
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if ids == nil {
		ids = shared.UUIDGenerator{}
	}
	if codes == nil {
		codes = shared.UUIDGenerator{}
	}
	if log == nil {
		log = logger.Default()
	}
	return &GenerateCertificateHandler{
		catalog:        cat,
		certRepo:       certRepo,
		eligibility:    eligibility,
		renderer:       renderer,
		eventPublisher: eventPublisher,
		clock:          clock,
		ids:            ids,
		codes:          codes,
		logger:         log,
	}
}

// Handle executes the command.
func (h *GenerateCertificateHandler) Handle(ctx context.Context, cmd GenerateCertificateCommand) (*GenerateCertificateResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("generate_certificate: validation failed: %w", err)
	}

	course, err := h.catalog.GetCourse(ctx, cmd.CourseID)
	if err != nil {
		return nil, shared.WrapError("certificate", "Generate", shared.ErrNotFound, "course not found", err)
	}

	// Repeat requests short-circuit before any eligibility work.
	if existing, err := h.certRepo.GetByCourseAndStudent(ctx, cmd.CourseID, cmd.StudentID); err == nil {
		return &GenerateCertificateResult{Certificate: existing, Created: false}, nil
	} else if !shared.IsNotFound(err) {
		return nil, fmt.Errorf("generate_certificate: failed to check existing certificate: %w", err)
	}

	verdict, err := h.eligibility.Check(ctx, cmd.CourseID, cmd.StudentID)
	if err != nil {
		return nil, fmt.Errorf("generate_certificate: eligibility evaluation failed: %w", err)
	}
	if !verdict.Eligible {
		return nil, &certificate.NotEligibleError{
			CourseID:  cmd.CourseID,
			StudentID: cmd.StudentID,
			Missing:   verdict.MissingRequirements,
		}
	}

	cert, created, err := h.insertWithFreshCode(ctx, cmd, verdict.CompletionRate)
	if err != nil {
		return nil, err
	}

	if created {
		_ = h.eventPublisher.Publish(shared.NewCertificateIssuedEvent(
			cert.ID.String(),
			cert.CourseID.String(),
			cert.StudentID.String(),
			cert.VerificationCode,
			cert.CompletionRate,
		))
		h.render(ctx, cert, course.Title)
	}

	return &GenerateCertificateResult{Certificate: cert, Created: created}, nil
}

// insertWithFreshCode inserts the new record, regenerating the verification
// code while it collides with another certificate's. A pair conflict ends the
// loop immediately with the winner's record.
func (h *GenerateCertificateHandler) insertWithFreshCode(
	ctx context.Context,
	cmd GenerateCertificateCommand,
	completionRate float64,
) (*certificate.Certificate, bool, error) {
	issuedAt := h.clock.Now()

	for i := 0; i < maxCodeAttempts; i++ {
		cert := certificate.New(h.ids.NewID(), cmd.CourseID, cmd.StudentID, h.codes.NewCode(), completionRate, issuedAt)

		inserted, created, err := h.certRepo.InsertIfAbsent(ctx, cert)
		if err == nil {
			return inserted, created, nil
		}
		if errors.Is(err, shared.ErrCodeTaken) {
			h.logger.Warn("verification code collision, regenerating",
				logger.CourseID(cmd.CourseID.String()), logger.StudentID(cmd.StudentID.String()))
			continue
		}
		return nil, false, fmt.Errorf("generate_certificate: failed to insert certificate: %w", err)
	}

	return nil, false, shared.NewDomainError("certificate", "Generate", shared.ErrInternal,
		"verification code generation exhausted retries")
}

// render performs the initial best-effort PDF render. Failure is logged and
// published for the retry pass; the issued certificate is never rolled back.
func (h *GenerateCertificateHandler) render(ctx context.Context, cert *certificate.Certificate, courseTitle string) {
	if h.renderer == nil {
		return
	}

	path, err := h.renderer.Render(ctx, cert, courseTitle)
	if err != nil {
		h.logger.Error("certificate pdf render failed",
			logger.CertificateID(cert.ID.String()), logger.Err(err))
		_ = h.eventPublisher.Publish(shared.NewCertificateRenderFailedEvent(cert.ID.String(), err.Error()))
		return
	}

	if err := h.certRepo.SetPDFPath(ctx, cert.ID, path); err != nil {
		h.logger.Error("failed to persist pdf path",
			logger.CertificateID(cert.ID.String()), logger.Err(err))
		return
	}

	cert.PDFPath = &path
	_ = h.eventPublisher.Publish(shared.NewCertificateRenderedEvent(cert.ID.String(), path))
}

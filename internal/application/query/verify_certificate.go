package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/cour-hub/cour-certification-hub/internal/domain/catalog"
	"github.com/cour-hub/cour-certification-hub/internal/domain/certificate"
	"github.com/cour-hub/cour-certification-hub/internal/domain/shared"
	"github.com/cour-hub/cour-certification-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// VERIFY CERTIFICATE QUERY
// Public verification-code lookup. This endpoint never errors for the caller:
// a malformed code, an unknown code, or a lookup failure all come back as a
// not-valid verdict. Known codes return the public subset of the certificate.
// ══════════════════════════════════════════════════════════════════════════════

// VerifyCertificateQuery contains the code to look up. The code is normalized
// (trimmed, uppercased) before the format check.
type VerifyCertificateQuery struct {
	Code string
}

// VerifyCertificateHandler handles the VerifyCertificateQuery.
type VerifyCertificateHandler struct {
	certRepo certificate.Repository
	catalog  catalog.Reader
	logger   *logger.Logger
}

// NewVerifyCertificateHandler creates a new VerifyCertificateHandler.
func NewVerifyCertificateHandler(certRepo certificate.Repository, cat catalog.Reader, log *logger.Logger) *VerifyCertificateHandler {
	if log == nil {
		log = logger.Default()
	}
	return &VerifyCertificateHandler{
		certRepo: certRepo,
		catalog:  cat,
		logger:   log,
	}
}

// Handle executes the query. The only error returned is an internal one the
// caller may want to retry; everything about the code itself is a verdict.
func (h *VerifyCertificateHandler) Handle(ctx context.Context, q VerifyCertificateQuery) (*certificate.VerificationResult, error) {
	code, err := shared.NewVerificationCode(strings.ToUpper(strings.TrimSpace(q.Code)))
	if err != nil {
		return &certificate.VerificationResult{Valid: false}, nil
	}

	cert, err := h.certRepo.GetByVerificationCode(ctx, code.String())
	if err != nil {
		if shared.IsNotFound(err) {
			return &certificate.VerificationResult{Valid: false}, nil
		}
		return nil, fmt.Errorf("verify_certificate: lookup failed: %w", err)
	}

	result := &certificate.VerificationResult{
		Valid:          true,
		CertificateID:  cert.ID,
		CourseID:       cert.CourseID,
		StudentID:      cert.StudentID,
		CompletionRate: cert.CompletionRate,
		IssuedAt:       cert.IssuedAt,
	}

	// Title enrichment is best effort; a catalog miss does not invalidate a
	// certificate that exists.
	course, err := h.catalog.GetCourse(ctx, cert.CourseID)
	if err != nil {
		h.logger.Warn("course lookup failed during verification",
			logger.CertificateID(cert.ID.String()), logger.Err(err))
	} else {
		result.CourseTitle = course.Title
	}

	return result, nil
}

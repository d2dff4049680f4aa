package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cour-hub/cour-certification-hub/internal/domain/certificate"
	"github.com/cour-hub/cour-certification-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CERTIFICATE LOOKUP QUERIES
// Direct fetch by id, fetch by (course, student), and the per-student list.
// ══════════════════════════════════════════════════════════════════════════════

// GetCertificateQuery fetches one certificate by id.
type GetCertificateQuery struct {
	CertificateID uuid.UUID
}

// Validate validates the query.
func (q GetCertificateQuery) Validate() error {
	if q.CertificateID == uuid.Nil {
		return errors.New("get_certificate: certificate_id is required")
	}
	return nil
}

// GetCourseCertificateQuery fetches the certificate for a (course, student)
// pair. At most one exists.
type GetCourseCertificateQuery struct {
	CourseID  uuid.UUID
	StudentID uuid.UUID
}

// Validate validates the query.
func (q GetCourseCertificateQuery) Validate() error {
	if q.CourseID == uuid.Nil {
		return errors.New("get_course_certificate: course_id is required")
	}
	if q.StudentID == uuid.Nil {
		return errors.New("get_course_certificate: student_id is required")
	}
	return nil
}

// ListStudentCertificatesQuery lists a student's certificates.
type ListStudentCertificatesQuery struct {
	StudentID uuid.UUID
}

// Validate validates the query.
func (q ListStudentCertificatesQuery) Validate() error {
	if q.StudentID == uuid.Nil {
		return errors.New("list_student_certificates: student_id is required")
	}
	return nil
}

// GetCertificatesHandler serves the certificate lookup queries.
type GetCertificatesHandler struct {
	certRepo certificate.Repository
}

// NewGetCertificatesHandler creates a new GetCertificatesHandler.
func NewGetCertificatesHandler(certRepo certificate.Repository) *GetCertificatesHandler {
	return &GetCertificatesHandler{certRepo: certRepo}
}

// HandleByID executes the GetCertificateQuery.
func (h *GetCertificatesHandler) HandleByID(ctx context.Context, q GetCertificateQuery) (*certificate.Certificate, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_certificate: validation failed: %w", err)
	}
	cert, err := h.certRepo.GetByID(ctx, q.CertificateID)
	if err != nil {
		return nil, shared.WrapError("certificate", "GetCertificate", shared.ErrNotFound, "certificate not found", err)
	}
	return cert, nil
}

// HandleByCourse executes the GetCourseCertificateQuery.
func (h *GetCertificatesHandler) HandleByCourse(ctx context.Context, q GetCourseCertificateQuery) (*certificate.Certificate, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_course_certificate: validation failed: %w", err)
	}
	cert, err := h.certRepo.GetByCourseAndStudent(ctx, q.CourseID, q.StudentID)
	if err != nil {
		return nil, shared.WrapError("certificate", "GetCourseCertificate", shared.ErrNotFound, "certificate not found", err)
	}
	return cert, nil
}

// HandleByStudent executes the ListStudentCertificatesQuery.
func (h *GetCertificatesHandler) HandleByStudent(ctx context.Context, q ListStudentCertificatesQuery) ([]*certificate.Certificate, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("list_student_certificates: validation failed: %w", err)
	}
	certs, err := h.certRepo.ListByStudent(ctx, q.StudentID)
	if err != nil {
		return nil, fmt.Errorf("list_student_certificates: failed to list certificates: %w", err)
	}
	return certs, nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cour-hub/cour-certification-hub/internal/domain/certificate"
	"github.com/cour-hub/cour-certification-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CERTIFICATE REPOSITORY IMPLEMENTATION
// The schema's two unique constraints carry the issuance guarantees.
// InsertIfAbsent discriminates by violated constraint name: the pair
// constraint means the student is already certified (return the winner's
// row), the code constraint means a collision (caller regenerates).
// ══════════════════════════════════════════════════════════════════════════════

// CertificateRepository implements certificate.Repository for PostgreSQL.
type CertificateRepository struct {
	conn *Connection
}

// NewCertificateRepository creates a new CertificateRepository.
func NewCertificateRepository(conn *Connection) *CertificateRepository {
	return &CertificateRepository{conn: conn}
}

// InsertIfAbsent inserts the certificate unless the pair is already certified.
func (r *CertificateRepository) InsertIfAbsent(ctx context.Context, c *certificate.Certificate) (*certificate.Certificate, bool, error) {
	query := `
		INSERT INTO certificates (
			id, course_id, student_id, verification_code, completion_rate,
			issued_at, pdf_path
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		c.ID,
		c.CourseID,
		c.StudentID,
		c.VerificationCode,
		c.CompletionRate,
		c.IssuedAt,
		c.PDFPath,
	)
	if err == nil {
		return c, true, nil
	}

	switch UniqueConstraintName(err) {
	case "uq_certificates_course_student":
		existing, getErr := r.GetByCourseAndStudent(ctx, c.CourseID, c.StudentID)
		if getErr != nil {
			return nil, false, fmt.Errorf("failed to load existing certificate after conflict: %w", getErr)
		}
		return existing, false, nil
	case "uq_certificates_verification_code":
		return nil, false, shared.NewDomainError("certificate", "InsertIfAbsent", shared.ErrCodeTaken,
			"verification code already in use")
	}

	return nil, false, fmt.Errorf("failed to insert certificate: %w", err)
}

// GetByID returns a certificate by id.
func (r *CertificateRepository) GetByID(ctx context.Context, certificateID uuid.UUID) (*certificate.Certificate, error) {
	query := selectCertificate + " WHERE id = $1"
	return r.scanCertificate(r.conn.QueryRow(ctx, query, certificateID))
}

// GetByCourseAndStudent returns the certificate for the pair.
func (r *CertificateRepository) GetByCourseAndStudent(ctx context.Context, courseID, studentID uuid.UUID) (*certificate.Certificate, error) {
	query := selectCertificate + " WHERE course_id = $1 AND student_id = $2"
	return r.scanCertificate(r.conn.QueryRow(ctx, query, courseID, studentID))
}

// GetByVerificationCode returns the certificate carrying the code.
func (r *CertificateRepository) GetByVerificationCode(ctx context.Context, code string) (*certificate.Certificate, error) {
	query := selectCertificate + " WHERE verification_code = $1"
	return r.scanCertificate(r.conn.QueryRow(ctx, query, code))
}

// ListByStudent returns all certificates of a student, newest first.
func (r *CertificateRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*certificate.Certificate, error) {
	query := selectCertificate + " WHERE student_id = $1 ORDER BY issued_at DESC"

	rows, err := r.conn.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query certificates: %w", err)
	}
	defer rows.Close()

	return r.scanCertificates(rows)
}

// SetPDFPath records the rendered PDF's storage path.
func (r *CertificateRepository) SetPDFPath(ctx context.Context, certificateID uuid.UUID, pdfPath string) error {
	result, err := r.conn.Exec(ctx,
		"UPDATE certificates SET pdf_path = $1 WHERE id = $2",
		pdfPath, certificateID,
	)
	if err != nil {
		return fmt.Errorf("failed to set pdf path: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrCertificateNotFound
	}

	return nil
}

// ListUnrendered returns certificates without a rendered PDF, oldest first.
func (r *CertificateRepository) ListUnrendered(ctx context.Context, limit int) ([]*certificate.Certificate, error) {
	query := selectCertificate + " WHERE pdf_path IS NULL ORDER BY issued_at LIMIT $1"

	rows, err := r.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unrendered certificates: %w", err)
	}
	defer rows.Close()

	return r.scanCertificates(rows)
}

const selectCertificate = `
	SELECT id, course_id, student_id, verification_code, completion_rate,
		   issued_at, pdf_path
	FROM certificates`

// scanCertificate scans a single certificate from a row.
func (r *CertificateRepository) scanCertificate(row pgx.Row) (*certificate.Certificate, error) {
	var c certificate.Certificate
	err := row.Scan(
		&c.ID,
		&c.CourseID,
		&c.StudentID,
		&c.VerificationCode,
		&c.CompletionRate,
		&c.IssuedAt,
		&c.PDFPath,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrCertificateNotFound
		}
		return nil, fmt.Errorf("failed to scan certificate: %w", err)
	}
	return &c, nil
}

// scanCertificates scans multiple certificates from rows.
func (r *CertificateRepository) scanCertificates(rows pgx.Rows) ([]*certificate.Certificate, error) {
	var certs []*certificate.Certificate
	for rows.Next() {
		var c certificate.Certificate
		err := rows.Scan(
			&c.ID,
			&c.CourseID,
			&c.StudentID,
			&c.VerificationCode,
			&c.CompletionRate,
			&c.IssuedAt,
			&c.PDFPath,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan certificate: %w", err)
		}
		certs = append(certs, &c)
	}
	return certs, rows.Err()
}

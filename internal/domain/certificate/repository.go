package certificate

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists certificates.
//
// InsertIfAbsent carries the at-most-once issuance contract: the existence
// check and the insert are atomic per (course, student) key. A plain
// read-then-write is a race; implementations rely on a unique constraint
// (postgres) or a store-level mutex (memory).
type Repository interface {
	// InsertIfAbsent inserts the certificate unless one already exists for
	// its (CourseID, StudentID) pair. Returns the stored row and whether
	// this call created it; on a pre-existing pair the existing row comes
	// back with created=false and no error.
	//
	// A verification-code collision with a different (course, student) pair
	// returns a shared.ErrCodeTaken-kind error; the caller regenerates the
	// code and retries.
	InsertIfAbsent(ctx context.Context, c *Certificate) (*Certificate, bool, error)

	// GetByID returns a certificate, or a shared.ErrNotFound-kind error.
	GetByID(ctx context.Context, certificateID uuid.UUID) (*Certificate, error)

	// GetByCourseAndStudent returns the certificate for the pair, or a
	// shared.ErrNotFound-kind error.
	GetByCourseAndStudent(ctx context.Context, courseID, studentID uuid.UUID) (*Certificate, error)

	// GetByVerificationCode returns the certificate carrying the code, or a
	// shared.ErrNotFound-kind error.
	GetByVerificationCode(ctx context.Context, code string) (*Certificate, error)

	// ListByStudent returns all certificates of a student, most recently
	// issued first.
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*Certificate, error)

	// SetPDFPath records the rendered PDF's storage path. The only update a
	// certificate ever receives.
	SetPDFPath(ctx context.Context, certificateID uuid.UUID, pdfPath string) error

	// ListUnrendered returns certificates whose PDF has not been rendered
	// yet, oldest first, up to limit. Feeds the render retry job.
	ListUnrendered(ctx context.Context, limit int) ([]*Certificate, error)
}

// Renderer is the external PDF rendering collaborator. Possibly slow,
// possibly failing; issuance treats Render as best-effort.
type Renderer interface {
	// Render produces the PDF for a certificate and returns its storage path.
	Render(ctx context.Context, c *Certificate, courseTitle string) (string, error)

	// Load returns the rendered PDF bytes for a storage path.
	Load(ctx context.Context, path string) ([]byte, error)
}

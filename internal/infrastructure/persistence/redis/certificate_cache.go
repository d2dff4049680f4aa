package redis

import (
	"context"

	"github.com/google/uuid"

	"github.com/cour-hub/cour-certification-hub/internal/domain/certificate"
)

// CachedCertificateRepository decorates a certificate.Repository with Redis
// caching on the read paths hit by the public verification endpoint.
// Certificates never change after issuance apart from the one pdf_path
// update, so cached reads only go stale on that field; SetPDFPath drops the
// affected keys. Every cache failure falls through to the inner repository.
type CachedCertificateRepository struct {
	inner certificate.Repository
	cache *Cache
}

// NewCachedCertificateRepository creates a new CachedCertificateRepository.
func NewCachedCertificateRepository(inner certificate.Repository, cache *Cache) *CachedCertificateRepository {
	return &CachedCertificateRepository{
		inner: inner,
		cache: cache,
	}
}

// InsertIfAbsent delegates to the inner repository. Nothing to cache on the
// write path; reads populate lazily.
func (r *CachedCertificateRepository) InsertIfAbsent(ctx context.Context, c *certificate.Certificate) (*certificate.Certificate, bool, error) {
	return r.inner.InsertIfAbsent(ctx, c)
}

// GetByID returns a certificate, consulting the cache first.
func (r *CachedCertificateRepository) GetByID(ctx context.Context, certificateID uuid.UUID) (*certificate.Certificate, error) {
	key := CertificateKey(certificateID.String())

	var cached certificate.Certificate
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	cert, err := r.inner.GetByID(ctx, certificateID)
	if err != nil {
		return nil, err
	}

	_ = r.cache.Set(ctx, key, cert, TTLCertificate)
	return cert, nil
}

// GetByCourseAndStudent delegates to the inner repository. The issuance path
// reads this before inserting; serving it stale would break idempotence.
func (r *CachedCertificateRepository) GetByCourseAndStudent(ctx context.Context, courseID, studentID uuid.UUID) (*certificate.Certificate, error) {
	return r.inner.GetByCourseAndStudent(ctx, courseID, studentID)
}

// GetByVerificationCode returns the certificate carrying the code, consulting
// the cache first. This is the hot path: public, unauthenticated, repeatable.
func (r *CachedCertificateRepository) GetByVerificationCode(ctx context.Context, code string) (*certificate.Certificate, error) {
	key := VerificationKey(code)

	var cached certificate.Certificate
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	cert, err := r.inner.GetByVerificationCode(ctx, code)
	if err != nil {
		return nil, err
	}

	_ = r.cache.Set(ctx, key, cert, TTLVerification)
	return cert, nil
}

// ListByStudent delegates to the inner repository.
func (r *CachedCertificateRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*certificate.Certificate, error) {
	return r.inner.ListByStudent(ctx, studentID)
}

// SetPDFPath updates the inner repository and drops the cached entries so the
// next read sees the path.
func (r *CachedCertificateRepository) SetPDFPath(ctx context.Context, certificateID uuid.UUID, pdfPath string) error {
	if err := r.inner.SetPDFPath(ctx, certificateID, pdfPath); err != nil {
		return err
	}

	_ = r.cache.Delete(ctx, CertificateKey(certificateID.String()))
	if cert, err := r.inner.GetByID(ctx, certificateID); err == nil {
		_ = r.cache.Delete(ctx, VerificationKey(cert.VerificationCode))
	}
	return nil
}

// ListUnrendered delegates to the inner repository.
func (r *CachedCertificateRepository) ListUnrendered(ctx context.Context, limit int) ([]*certificate.Certificate, error) {
	return r.inner.ListUnrendered(ctx, limit)
}

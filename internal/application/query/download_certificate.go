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
// DOWNLOAD CERTIFICATE QUERY
// Streams the rendered PDF bytes for a certificate. A certificate whose render
// has not happened yet (or failed and awaits retry) is a precondition failure,
// not a broken certificate.
// ══════════════════════════════════════════════════════════════════════════════

// DownloadCertificateQuery contains the parameters for the download.
type DownloadCertificateQuery struct {
	CertificateID uuid.UUID
}

// Validate validates the query.
func (q DownloadCertificateQuery) Validate() error {
	if q.CertificateID == uuid.Nil {
		return errors.New("download_certificate: certificate_id is required")
	}
	return nil
}

// DownloadCertificateResult carries the PDF payload and a suggested filename.
type DownloadCertificateResult struct {
	Certificate *certificate.Certificate
	PDF         []byte
	Filename    string
}

// DownloadCertificateHandler handles the DownloadCertificateQuery.
type DownloadCertificateHandler struct {
	certRepo certificate.Repository
	renderer certificate.Renderer
}

// NewDownloadCertificateHandler creates a new DownloadCertificateHandler.
func NewDownloadCertificateHandler(certRepo certificate.Repository, renderer certificate.Renderer) *DownloadCertificateHandler {
	return &DownloadCertificateHandler{
		certRepo: certRepo,
		renderer: renderer,
	}
}

// Handle executes the query.
func (h *DownloadCertificateHandler) Handle(ctx context.Context, q DownloadCertificateQuery) (*DownloadCertificateResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("download_certificate: validation failed: %w", err)
	}

	cert, err := h.certRepo.GetByID(ctx, q.CertificateID)
	if err != nil {
		return nil, shared.WrapError("certificate", "DownloadCertificate", shared.ErrNotFound, "certificate not found", err)
	}

	if cert.PDFPath == nil {
		return nil, shared.ErrPDFNotReady
	}

	data, err := h.renderer.Load(ctx, *cert.PDFPath)
	if err != nil {
		return nil, shared.WrapError("certificate", "DownloadCertificate", shared.ErrPDFLoadFailed, "failed to load rendered pdf", err)
	}

	return &DownloadCertificateResult{
		Certificate: cert,
		PDF:         data,
		Filename:    fmt.Sprintf("certificate-%s.pdf", cert.VerificationCode),
	}, nil
}

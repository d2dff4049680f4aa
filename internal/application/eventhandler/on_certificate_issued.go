// Package eventhandler contains the domain event handlers that run off the
// dispatcher after commands commit. Handlers are side channels: audit
// logging, cache warming, render bookkeeping. None of them participate in
// the issuing transaction, so a failing handler never affects a certificate.
package eventhandler

import (
	"fmt"
	"log/slog"

	"github.com/cour-hub/cour-certification-hub/internal/domain/shared"
	"github.com/cour-hub/cour-certification-hub/internal/infrastructure/messaging"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON CERTIFICATE ISSUED HANDLER
// Writes the audit trail for issuance and rendering. Verification is public
// and certificates are legal-ish artifacts; every issuance and every failed
// render should be traceable from the logs alone.
// ═══════════════════════════════════════════════════════════════════════════

// OnCertificateIssuedHandler handles certificate lifecycle events.
type OnCertificateIssuedHandler struct {
	logger *slog.Logger
}

// NewOnCertificateIssuedHandler creates the handler.
func NewOnCertificateIssuedHandler(logger *slog.Logger) *OnCertificateIssuedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnCertificateIssuedHandler{logger: logger}
}

// HandleIssued logs the issuance audit record.
func (h *OnCertificateIssuedHandler) HandleIssued(event shared.Event) error {
	payload := event.Payload()
	h.logger.Info("certificate issued",
		"certificate_id", event.AggregateID(),
		"course_id", payload["course_id"],
		"student_id", payload["student_id"],
		"verification_code", payload["verification_code"],
		"completion_rate", payload["completion_rate"],
	)
	return nil
}

// HandleRendered logs the successful render.
func (h *OnCertificateIssuedHandler) HandleRendered(event shared.Event) error {
	h.logger.Info("certificate pdf rendered",
		"certificate_id", event.AggregateID(),
		"pdf_path", event.Payload()["pdf_path"],
	)
	return nil
}

// HandleRenderFailed logs the failure the retry job will pick up.
func (h *OnCertificateIssuedHandler) HandleRenderFailed(event shared.Event) error {
	h.logger.Warn("certificate pdf render failed, awaiting retry",
		"certificate_id", event.AggregateID(),
		"reason", event.Payload()["reason"],
	)
	return nil
}

// Register wires the handler into the dispatcher.
func (h *OnCertificateIssuedHandler) Register(d *messaging.Dispatcher) error {
	if err := d.Register(shared.EventCertificateIssued, "audit_certificate_issued", h.HandleIssued); err != nil {
		return fmt.Errorf("register issued handler: %w", err)
	}
	if err := d.Register(shared.EventCertificateRendered, "audit_certificate_rendered", h.HandleRendered); err != nil {
		return fmt.Errorf("register rendered handler: %w", err)
	}
	if err := d.Register(shared.EventCertificateRenderFailed, "audit_certificate_render_failed", h.HandleRenderFailed); err != nil {
		return fmt.Errorf("register render failed handler: %w", err)
	}
	return nil
}

// Package jobs contains the scheduled jobs of the certification hub.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cour-hub/cour-certification-hub/internal/domain/catalog"
	"github.com/cour-hub/cour-certification-hub/internal/domain/certificate"
	"github.com/cour-hub/cour-certification-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RENDER PENDING CERTIFICATES JOB
// Issuance never blocks on the PDF renderer: a failed render leaves the
// certificate valid but unrendered (pdf_path null). This job sweeps those
// rows and re-triggers rendering until it sticks. Certificates and their
// verification codes are unaffected either way.
// ══════════════════════════════════════════════════════════════════════════════

// RenderPendingCertificatesJob retries PDF rendering for unrendered
// certificates.
type RenderPendingCertificatesJob struct {
	certRepo       certificate.Repository
	catalog        catalog.Reader
	renderer       certificate.Renderer
	eventPublisher shared.EventPublisher
	logger         *slog.Logger
	config         RenderPendingConfig
}

// RenderPendingConfig contains configuration for the job.
type RenderPendingConfig struct {
	// BatchSize is the maximum certificates processed per run.
	BatchSize int

	// Timeout bounds a full run.
	Timeout time.Duration
}

// DefaultRenderPendingConfig returns sensible defaults.
func DefaultRenderPendingConfig() RenderPendingConfig {
	return RenderPendingConfig{
		BatchSize: 50,
		Timeout:   2 * time.Minute,
	}
}

// NewRenderPendingCertificatesJob creates the job.
func NewRenderPendingCertificatesJob(
	certRepo certificate.Repository,
	catalogReader catalog.Reader,
	renderer certificate.Renderer,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
	config RenderPendingConfig,
) *RenderPendingCertificatesJob {
	if logger == nil {
		logger = slog.Default()
	}
	if eventPublisher == nil {
		eventPublisher = shared.NoopPublisher{}
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	return &RenderPendingCertificatesJob{
		certRepo:       certRepo,
		catalog:        catalogReader,
		renderer:       renderer,
		eventPublisher: eventPublisher,
		logger:         logger,
		config:         config,
	}
}

// Name implements scheduler.Job.
func (j *RenderPendingCertificatesJob) Name() string {
	return "render_pending_certificates"
}

// Description implements scheduler.Job.
func (j *RenderPendingCertificatesJob) Description() string {
	return "Retries PDF rendering for certificates issued without a rendered PDF"
}

// Run implements scheduler.Job.
func (j *RenderPendingCertificatesJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	pending, err := j.certRepo.ListUnrendered(ctx, j.config.BatchSize)
	if err != nil {
		return fmt.Errorf("list unrendered certificates: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	j.logger.Info("rendering pending certificates", "count", len(pending))

	var failed int
	for _, cert := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		course, err := j.catalog.GetCourse(ctx, cert.CourseID)
		if err != nil {
			j.logger.Warn("course lookup failed for pending certificate",
				"certificate_id", cert.ID, "error", err)
			failed++
			continue
		}

		path, err := j.renderer.Render(ctx, cert, course.Title)
		if err != nil {
			j.logger.Warn("render retry failed",
				"certificate_id", cert.ID, "error", err)
			_ = j.eventPublisher.Publish(shared.NewCertificateRenderFailedEvent(cert.ID.String(), err.Error()))
			failed++
			continue
		}

		if err := j.certRepo.SetPDFPath(ctx, cert.ID, path); err != nil {
			j.logger.Error("failed to persist pdf path",
				"certificate_id", cert.ID, "error", err)
			failed++
			continue
		}

		_ = j.eventPublisher.Publish(shared.NewCertificateRenderedEvent(cert.ID.String(), path))
	}

	if failed > 0 {
		j.logger.Warn("render sweep finished with failures",
			"total", len(pending), "failed", failed)
	}

	return nil
}

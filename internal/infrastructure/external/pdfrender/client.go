// Package pdfrender implements the HTTP client for the certificate PDF
// rendering service. The renderer is an external collaborator: slow,
// occasionally down, never authoritative. Callers treat Render as
// best-effort and re-trigger failed renders later.
package pdfrender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cour-hub/cour-certification-hub/internal/domain/certificate"
	"github.com/cour-hub/cour-certification-hub/internal/domain/shared"
	"github.com/cour-hub/cour-certification-hub/pkg/circuitbreaker"
	"github.com/cour-hub/cour-certification-hub/pkg/retry"
	"github.com/cour-hub/cour-certification-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the renderer client.
type ClientConfig struct {
	// BaseURL is the renderer service base URL
	BaseURL string

	// APIKey authenticates against the renderer (if configured)
	APIKey string

	// Timeout is the HTTP request timeout. Rendering a certificate takes
	// seconds, not milliseconds.
	Timeout time.Duration

	// MaxRetries caps attempts per renderer call, including the first.
	MaxRetries int

	// RetryBaseDelay is the backoff before the first retry.
	RetryBaseDelay time.Duration

	// RetryMaxDelay caps the backoff between retries.
	RetryMaxDelay time.Duration

	// BreakerThreshold is the consecutive-failure count that opens the
	// circuit; BreakerTimeout is how long it stays open before a probe.
	BreakerThreshold int
	BreakerTimeout   time.Duration

	// Logger for structured logging
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:          baseURL,
		Timeout:          30 * time.Second,
		MaxRetries:       3,
		RetryBaseDelay:   500 * time.Millisecond,
		RetryMaxDelay:    10 * time.Second,
		BreakerThreshold: 3,
		BreakerTimeout:   60 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the renderer service client. Implements certificate.Renderer.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
	retrier    *retry.Retrier
	breaker    *circuitbreaker.CircuitBreaker
}

// NewClient creates a new renderer client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	c := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: config.Logger,
		retrier: retry.New(retry.Config{
			MaxAttempts:  config.MaxRetries,
			InitialDelay: config.RetryBaseDelay,
			MaxDelay:     config.RetryMaxDelay,
			Multiplier:   2.0,
			JitterFactor: 0.2,
		}),
	}
	c.breaker = circuitbreaker.New(circuitbreaker.Config{
		Name:             "pdf-renderer",
		FailureThreshold: config.BreakerThreshold,
		SuccessThreshold: 2,
		Timeout:          config.BreakerTimeout,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			c.logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

// renderRequest is the render endpoint payload.
type renderRequest struct {
	CertificateID    string  `json:"certificate_id"`
	CourseTitle      string  `json:"course_title"`
	StudentID        string  `json:"student_id"`
	VerificationCode string  `json:"verification_code"`
	CompletionRate   float64 `json:"completion_rate"`
	IssuedAt         string  `json:"issued_at"`

	// IssueDate is the human-readable date printed on the certificate.
	IssueDate string `json:"issue_date"`
}

// renderResponse is the render endpoint reply.
type renderResponse struct {
	Path string `json:"path"`
}

// Render produces the PDF for a certificate and returns its storage path.
func (c *Client) Render(ctx context.Context, cert *certificate.Certificate, courseTitle string) (string, error) {
	req := renderRequest{
		CertificateID:    cert.ID.String(),
		CourseTitle:      courseTitle,
		StudentID:        cert.StudentID.String(),
		VerificationCode: cert.VerificationCode,
		CompletionRate:   cert.CompletionRate,
		IssuedAt:         timeutil.FormatTimestamp(cert.IssuedAt),
		IssueDate:        timeutil.FormatIssueDate(cert.IssuedAt),
	}

	var resp renderResponse
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			return c.doJSON(ctx, http.MethodPost, "/api/v1/render", req, &resp)
		})
	})
	if err != nil {
		return "", shared.WrapError("certificate", "Render", shared.ErrRenderFailed, "renderer call failed", err)
	}

	if resp.Path == "" {
		return "", shared.NewDomainError("certificate", "Render", shared.ErrRenderFailed, "renderer returned empty path")
	}

	return resp.Path, nil
}

// Load returns the rendered PDF bytes for a storage path.
func (c *Client) Load(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			b, err := c.doGet(ctx, "/api/v1/pdf?path="+path)
			if err != nil {
				return err
			}
			data = b
			return nil
		})
	})
	if err != nil {
		return nil, shared.WrapError("certificate", "Load", shared.ErrPDFLoadFailed, "renderer fetch failed", err)
	}
	return data, nil
}

// IsHealthy pings the renderer's health endpoint.
func (c *Client) IsHealthy(ctx context.Context) bool {
	return c.doJSON(ctx, http.MethodGet, "/health", nil, nil) == nil
}

// doJSON performs a single JSON request.
func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return retry.Permanent(fmt.Errorf("marshal body: %w", err))
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, bodyReader)
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retry.Retryable(fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return retry.Retryable(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode >= 500 {
		return retry.Retryable(fmt.Errorf("renderer error: status %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		// Client errors do not heal with retries.
		return retry.Permanent(fmt.Errorf("renderer rejected request: status %d", resp.StatusCode))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return retry.Permanent(fmt.Errorf("unmarshal response: %w", err))
		}
	}

	return nil
}

// doGet performs a single raw GET and returns the body bytes.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, retry.Retryable(fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, retry.Retryable(fmt.Errorf("renderer error: status %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return nil, retry.Permanent(fmt.Errorf("pdf not available: status %d", resp.StatusCode))
	}

	return io.ReadAll(resp.Body)
}

package query

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cour-hub/cour-certification-hub/internal/domain/catalog"
	"github.com/cour-hub/cour-certification-hub/internal/domain/certificate"
	"github.com/cour-hub/cour-certification-hub/internal/infrastructure/persistence/memory"
)

func TestVerifyCertificate_Hit(t *testing.T) {
	ctx := context.Background()
	cat := memory.NewCatalogStore()
	certs := memory.NewCertificateStore()

	courseID := uuid.New()
	cat.SeedCourse(&catalog.Course{ID: courseID, Title: "Go Basics"})
	issued := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	cert := certificate.New(uuid.New(), courseID, uuid.New(), "A3F9B2C1", 91.5, issued)
	_, _, err := certs.InsertIfAbsent(ctx, cert)
	require.NoError(t, err)

	h := NewVerifyCertificateHandler(certs, cat, nil)
	res, err := h.Handle(ctx, VerifyCertificateQuery{Code: "A3F9B2C1"})
	require.NoError(t, err)

	assert.True(t, res.Valid)
	assert.Equal(t, cert.ID, res.CertificateID)
	assert.Equal(t, "Go Basics", res.CourseTitle)
	assert.Equal(t, 91.5, res.CompletionRate)
	assert.Equal(t, issued, res.IssuedAt)
}

func TestVerifyCertificate_NormalizesInput(t *testing.T) {
	ctx := context.Background()
	cat := memory.NewCatalogStore()
	certs := memory.NewCertificateStore()

	courseID := uuid.New()
	cat.SeedCourse(&catalog.Course{ID: courseID, Title: "Go Basics"})
	cert := certificate.New(uuid.New(), courseID, uuid.New(), "A3F9B2C1", 100, time.Now())
	_, _, err := certs.InsertIfAbsent(ctx, cert)
	require.NoError(t, err)

	h := NewVerifyCertificateHandler(certs, cat, nil)
	res, err := h.Handle(ctx, VerifyCertificateQuery{Code: "  a3f9b2c1  "})
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestVerifyCertificate_MissAndMalformed(t *testing.T) {
	ctx := context.Background()
	h := NewVerifyCertificateHandler(memory.NewCertificateStore(), memory.NewCatalogStore(), nil)

	// Unknown code: a verdict, not an error.
	res, err := h.Handle(ctx, VerifyCertificateQuery{Code: "ZZZZ9999"})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, uuid.Nil, res.CertificateID)

	// Malformed codes never reach the store.
	for _, code := range []string{"", "short", "toolongcode99", "bad!code"} {
		res, err := h.Handle(ctx, VerifyCertificateQuery{Code: code})
		require.NoError(t, err)
		assert.False(t, res.Valid, "code %q must be invalid", code)
	}
}

func TestVerifyCertificate_CourseMissStillValid(t *testing.T) {
	ctx := context.Background()
	certs := memory.NewCertificateStore()

	// Certificate exists but its course vanished from the catalog.
	cert := certificate.New(uuid.New(), uuid.New(), uuid.New(), "A3F9B2C1", 85, time.Now())
	_, _, err := certs.InsertIfAbsent(ctx, cert)
	require.NoError(t, err)

	h := NewVerifyCertificateHandler(certs, memory.NewCatalogStore(), nil)
	res, err := h.Handle(ctx, VerifyCertificateQuery{Code: "A3F9B2C1"})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.CourseTitle)
}

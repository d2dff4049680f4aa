package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cour-hub/cour-certification-hub/internal/domain/certificate"
	"github.com/cour-hub/cour-certification-hub/internal/domain/shared"
	"github.com/cour-hub/cour-certification-hub/internal/infrastructure/persistence/memory"
)

type stubRenderer struct {
	data    []byte
	loadErr error
	loaded  []string
}

func (r *stubRenderer) Render(_ context.Context, _ *certificate.Certificate, _ string) (string, error) {
	return "", errors.New("not used in download tests")
}

func (r *stubRenderer) Load(_ context.Context, path string) ([]byte, error) {
	r.loaded = append(r.loaded, path)
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return r.data, nil
}

func issuedCertificate(t *testing.T, store *memory.CertificateStore, code string) *certificate.Certificate {
	t.Helper()
	cert := certificate.New(uuid.New(), uuid.New(), uuid.New(), code, 95.0,
		time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC))
	_, created, err := store.InsertIfAbsent(context.Background(), cert)
	require.NoError(t, err)
	require.True(t, created)
	return cert
}

func TestDownloadCertificate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCertificateStore()
	cert := issuedCertificate(t, store, "A3F9B2C1")
	require.NoError(t, store.SetPDFPath(ctx, cert.ID, "certs/a3f9b2c1.pdf"))

	renderer := &stubRenderer{data: []byte("%PDF-1.7 fake")}
	h := NewDownloadCertificateHandler(store, renderer)

	res, err := h.Handle(ctx, DownloadCertificateQuery{CertificateID: cert.ID})
	require.NoError(t, err)

	assert.Equal(t, []byte("%PDF-1.7 fake"), res.PDF)
	assert.Equal(t, "certificate-A3F9B2C1.pdf", res.Filename)
	assert.Equal(t, cert.ID, res.Certificate.ID)
	assert.Equal(t, []string{"certs/a3f9b2c1.pdf"}, renderer.loaded)
}

func TestDownloadCertificate_NotRendered(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCertificateStore()
	cert := issuedCertificate(t, store, "B4C8D2E1")

	renderer := &stubRenderer{}
	h := NewDownloadCertificateHandler(store, renderer)
	_, err := h.Handle(ctx, DownloadCertificateQuery{CertificateID: cert.ID})

	assert.True(t, errors.Is(err, shared.ErrPDFNotReady))
	assert.Empty(t, renderer.loaded)
}

func TestDownloadCertificate_LoadFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCertificateStore()
	cert := issuedCertificate(t, store, "C5D9E3F2")
	require.NoError(t, store.SetPDFPath(ctx, cert.ID, "certs/gone.pdf"))

	h := NewDownloadCertificateHandler(store, &stubRenderer{loadErr: errors.New("blob missing")})
	_, err := h.Handle(ctx, DownloadCertificateQuery{CertificateID: cert.ID})

	assert.True(t, errors.Is(err, shared.ErrPDFLoadFailed))
	assert.False(t, shared.IsNotFound(err))
}

func TestDownloadCertificate_UnknownID(t *testing.T) {
	h := NewDownloadCertificateHandler(memory.NewCertificateStore(), &stubRenderer{})
	_, err := h.Handle(context.Background(), DownloadCertificateQuery{CertificateID: uuid.New()})
	assert.True(t, shared.IsNotFound(err))
}

func TestGetCertificates_Lookups(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCertificateStore()

	studentID := uuid.New()
	first := certificate.New(uuid.New(), uuid.New(), studentID, "D6E1F4A3", 88.0,
		time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	second := certificate.New(uuid.New(), uuid.New(), studentID, "E7F2A5B4", 100.0,
		time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	for _, c := range []*certificate.Certificate{first, second} {
		_, created, err := store.InsertIfAbsent(ctx, c)
		require.NoError(t, err)
		require.True(t, created)
	}

	h := NewGetCertificatesHandler(store)

	byID, err := h.HandleByID(ctx, GetCertificateQuery{CertificateID: first.ID})
	require.NoError(t, err)
	assert.Equal(t, "D6E1F4A3", byID.VerificationCode)

	byCourse, err := h.HandleByCourse(ctx, GetCourseCertificateQuery{
		CourseID:  second.CourseID,
		StudentID: studentID,
	})
	require.NoError(t, err)
	assert.Equal(t, second.ID, byCourse.ID)

	list, err := h.HandleByStudent(ctx, ListStudentCertificatesQuery{StudentID: studentID})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = h.HandleByCourse(ctx, GetCourseCertificateQuery{CourseID: uuid.New(), StudentID: studentID})
	assert.True(t, shared.IsNotFound(err))
}

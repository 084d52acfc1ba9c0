package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/thesis-portal/internal/dto"
	"github.com/noah-isme/thesis-portal/internal/models"
	"github.com/noah-isme/thesis-portal/internal/service"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
)

type fakeExportJobs struct {
	created  *dto.ExportJobResponse
	status   *dto.ExportStatusResponse
	list     []dto.ExportStatusResponse
	download *service.ExportDownload
	err      error
	limit    int
	lastReq  dto.ExportRequest
}

func (f *fakeExportJobs) CreateJob(_ context.Context, _ *models.Identity, req dto.ExportRequest) (*dto.ExportJobResponse, error) {
	f.lastReq = req
	return f.created, f.err
}

func (f *fakeExportJobs) GetStatus(context.Context, *models.Identity, string) (*dto.ExportStatusResponse, error) {
	return f.status, f.err
}

func (f *fakeExportJobs) ListJobs(_ context.Context, _ *models.Identity, limit int) ([]dto.ExportStatusResponse, error) {
	f.limit = limit
	return f.list, f.err
}

func (f *fakeExportJobs) ResolveDownload(context.Context, string) (*service.ExportDownload, error) {
	return f.download, f.err
}

func TestExportHandlerCreate(t *testing.T) {
	fake := &fakeExportJobs{created: &dto.ExportJobResponse{ID: "job-1", Status: models.ExportStatusQueued}}
	handler := NewExportHandler(fake)

	rec, c := newTestContext(http.MethodPost, "/exports", `{"formato":"csv","titulo":"riego"}`, testAdmin)
	handler.Create(c)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, models.ExportFormatCSV, fake.lastReq.Format)
	assert.Equal(t, "job-1", decodeEnvelope(t, rec).Data["id"])

	fake.err = appErrors.ErrForbidden
	rec, c = newTestContext(http.MethodPost, "/exports", `{"formato":"csv"}`, testDirector)
	handler.Create(c)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestExportHandlerStatusAndList(t *testing.T) {
	fake := &fakeExportJobs{
		status: &dto.ExportStatusResponse{ID: "job-1", Status: models.ExportStatusFinished, Progress: 100},
		list:   []dto.ExportStatusResponse{{ID: "job-1"}, {ID: "job-2"}},
	}
	handler := NewExportHandler(fake)

	rec, c := newTestContext(http.MethodGet, "/exports/job-1", "", testAdmin)
	c.AddParam("id", "job-1")
	handler.Status(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 100, decodeEnvelope(t, rec).Data["progress"])

	rec, c = newTestContext(http.MethodGet, "/exports", "", testAdmin)
	handler.List(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultExportListLimit, fake.limit)
	envelope := decodeList(t, rec.Body.Bytes())
	assert.Len(t, envelope.Data, 2)
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 2, envelope.Pagination.Count)

	rec, c = newTestContext(http.MethodGet, "/exports?limit=abc", "", testAdmin)
	handler.List(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportHandlerDownload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proyectos.csv")
	require.NoError(t, os.WriteFile(path, []byte("ID,Título\n1,Riego\n"), 0o600))
	file, err := os.Open(path)
	require.NoError(t, err)

	handler := NewExportHandler(&fakeExportJobs{download: &service.ExportDownload{
		File:     file,
		Filename: "proyectos.csv",
		Format:   models.ExportFormatCSV,
	}})
	rec, c := newTestContext(http.MethodGet, "/exports/download/tok", "", nil)
	c.AddParam("token", "tok")

	handler.Download(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="proyectos.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "ID,Título\n1,Riego\n", rec.Body.String())

	handler = NewExportHandler(&fakeExportJobs{err: appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")})
	rec, c = newTestContext(http.MethodGet, "/exports/download/bad", "", nil)
	c.AddParam("token", "bad")
	handler.Download(c)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/thesis-portal/internal/dto"
	"github.com/noah-isme/thesis-portal/internal/models"
	"github.com/noah-isme/thesis-portal/internal/repository"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
	"github.com/noah-isme/thesis-portal/pkg/jobs"
)

type memoryExportJobs struct {
	mu      sync.Mutex
	jobs    map[string]*models.ExportJob
	seq     int
	listErr error
}

func newMemoryExportJobs() *memoryExportJobs {
	return &memoryExportJobs{jobs: make(map[string]*models.ExportJob)}
}

func (m *memoryExportJobs) Create(_ context.Context, job *models.ExportJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	job.ID = fmt.Sprintf("job-%d", m.seq)
	job.CreatedAt = fixedNow
	copied := *job
	m.jobs[job.ID] = &copied
	return nil
}

func (m *memoryExportJobs) GetByID(_ context.Context, id string) (*models.ExportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (m *memoryExportJobs) Update(_ context.Context, id string, params repository.UpdateExportJobParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return appErrors.ErrNotFound
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (m *memoryExportJobs) ListQueued(context.Context, int) ([]models.ExportJob, error) {
	return m.filter(func(j *models.ExportJob) bool { return j.Status == models.ExportStatusQueued }), m.listErr
}

func (m *memoryExportJobs) ListFinishedBefore(_ context.Context, cutoff time.Time, _ int) ([]models.ExportJob, error) {
	return m.filter(func(j *models.ExportJob) bool {
		return j.Status == models.ExportStatusFinished && j.FinishedAt != nil && j.FinishedAt.Before(cutoff)
	}), m.listErr
}

func (m *memoryExportJobs) ListByCreator(_ context.Context, createdBy string, _ int) ([]models.ExportJob, error) {
	return m.filter(func(j *models.ExportJob) bool { return j.CreatedBy == createdBy }), m.listErr
}

func (m *memoryExportJobs) filter(keep func(*models.ExportJob) bool) []models.ExportJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ExportJob
	for _, j := range m.jobs {
		if keep(j) {
			out = append(out, *j)
		}
	}
	return out
}

type recordingQueue struct {
	jobs []jobs.Job
	err  error
}

func (q *recordingQueue) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type fakeGenerator struct {
	result *ExportResult
	err    error
}

func (f *fakeGenerator) Generate(context.Context, *models.ExportJob) (*ExportResult, error) {
	return f.result, f.err
}

func newExportJobFixture(t *testing.T) (*ExportJobService, *memoryExportJobs, *recordingQueue, *ExportService, *fakeAuditor) {
	t.Helper()
	repo := newMemoryExportJobs()
	queue := &recordingQueue{}
	exporter, _ := newExportServiceForTest(t, &fakeAdminProjects{projects: tableProjects()})
	auditor := &fakeAuditor{}
	svc := NewExportJobService(ExportJobServiceParams{
		Repo:        repo,
		Queue:       queue,
		Files:       exporter,
		Permissions: DefaultPermissionTable(),
		Auditor:     auditor,
		Config:      ExportJobServiceConfig{ResultTTL: time.Hour},
	})
	return svc, repo, queue, exporter, auditor
}

func TestExportJobServiceCreateJob(t *testing.T) {
	svc, repo, queue, _, auditor := newExportJobFixture(t)

	resp, err := svc.CreateJob(context.Background(), adminIdentity, dto.ExportRequest{Format: models.ExportFormatCSV, Titulo: " riego "})
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, resp.Status)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, ExportJobType, queue.jobs[0].Type)

	stored, err := repo.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, adminIdentity.Cedula, stored.Params.AdminCedula)
	assert.Equal(t, "riego", stored.Params.Titulo)
	assert.Equal(t, []string{models.AuditActionExport}, auditor.actions)
}

func TestExportJobServiceCreateJobRejects(t *testing.T) {
	svc, _, queue, _, _ := newExportJobFixture(t)
	ctx := context.Background()

	_, err := svc.CreateJob(ctx, studentIdentity, dto.ExportRequest{Format: models.ExportFormatCSV})
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.CreateJob(ctx, adminIdentity, dto.ExportRequest{Format: "xlsx"})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.CreateJob(ctx, nil, dto.ExportRequest{Format: models.ExportFormatCSV})
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
	assert.Empty(t, queue.jobs)
}

func TestExportJobServiceEnqueueFailureMarksJobFailed(t *testing.T) {
	svc, repo, queue, _, auditor := newExportJobFixture(t)
	queue.err = errors.New("queue export not started")

	_, err := svc.CreateJob(context.Background(), adminIdentity, dto.ExportRequest{Format: models.ExportFormatPDF})
	require.ErrorIs(t, err, appErrors.ErrInternal)

	stored, err := repo.GetByID(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFailed, stored.Status)
	require.Len(t, auditor.causes, 1)
	assert.Error(t, auditor.causes[0])
}

func TestExportJobServiceStatusOwnership(t *testing.T) {
	svc, _, _, _, _ := newExportJobFixture(t)
	ctx := context.Background()
	resp, err := svc.CreateJob(ctx, adminIdentity, dto.ExportRequest{Format: models.ExportFormatCSV})
	require.NoError(t, err)

	status, err := svc.GetStatus(ctx, adminIdentity, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportFormatCSV, status.Format)

	other := &models.Identity{Cedula: "4000000009", Rol: models.RoleAdmin}
	_, err = svc.GetStatus(ctx, other, resp.ID)
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.GetStatus(ctx, adminIdentity, "missing")
	require.ErrorIs(t, err, appErrors.ErrNotFound)

	list, err := svc.ListJobs(ctx, adminIdentity, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestExportWorkerLifecycleAndDownload(t *testing.T) {
	svc, repo, queue, exporter, _ := newExportJobFixture(t)
	ctx := context.Background()
	resp, err := svc.CreateJob(ctx, adminIdentity, dto.ExportRequest{Format: models.ExportFormatCSV})
	require.NoError(t, err)

	worker := NewExportWorker(repo, exporter, 3, nil)
	require.NoError(t, worker.Handle(ctx, queue.jobs[0]))

	stored, err := repo.GetByID(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, stored.Status)
	assert.Equal(t, 100, stored.Progress)
	require.NotNil(t, stored.ResultURL)

	token := extractToken(*stored.ResultURL)
	download, err := svc.ResolveDownload(ctx, token)
	require.NoError(t, err)
	defer download.File.Close() //nolint:errcheck
	assert.Equal(t, models.ExportFormatCSV, download.Format)
	assert.Equal(t, ".csv", filepath.Ext(download.Filename))
	content, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Plataforma de tutorías")

	_, err = svc.ResolveDownload(ctx, "broken")
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestExportWorkerRetriesThenFails(t *testing.T) {
	svc, repo, queue, _, _ := newExportJobFixture(t)
	ctx := context.Background()
	resp, err := svc.CreateJob(ctx, adminIdentity, dto.ExportRequest{Format: models.ExportFormatCSV})
	require.NoError(t, err)

	worker := NewExportWorker(repo, &fakeGenerator{err: errors.New("backend down")}, 2, nil)
	job := queue.jobs[0]
	require.Error(t, worker.Handle(ctx, job))
	stored, _ := repo.GetByID(ctx, resp.ID)
	assert.Equal(t, models.ExportStatusQueued, stored.Status)

	job.Attempt = 2
	require.Error(t, worker.Handle(ctx, job))
	stored, _ = repo.GetByID(ctx, resp.ID)
	assert.Equal(t, models.ExportStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Equal(t, "backend down", *stored.ErrorMessage)

	_, err = svc.ResolveDownload(ctx, "x.y.z.w")
	require.Error(t, err)
}

func TestExportJobServiceRecoverAndCleanup(t *testing.T) {
	svc, repo, queue, exporter, _ := newExportJobFixture(t)
	ctx := context.Background()
	_, err := svc.CreateJob(ctx, adminIdentity, dto.ExportRequest{Format: models.ExportFormatCSV})
	require.NoError(t, err)

	svc.RecoverPendingJobs(ctx)
	require.Len(t, queue.jobs, 2)

	worker := NewExportWorker(repo, exporter, 3, nil)
	require.NoError(t, worker.Handle(ctx, queue.jobs[0]))
	stored, _ := repo.GetByID(ctx, queue.jobs[0].ID)
	_, relPath, _, err := exporter.ParseToken(extractToken(*stored.ResultURL), true)
	require.NoError(t, err)

	svc.CleanupExpired(ctx, time.Now().Add(2*time.Hour))
	_, err = exporter.Open(relPath)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

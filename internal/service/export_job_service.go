package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/thesis-portal/internal/dto"
	"github.com/noah-isme/thesis-portal/internal/models"
	"github.com/noah-isme/thesis-portal/internal/repository"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
	"github.com/noah-isme/thesis-portal/pkg/jobs"
)

// ExportJobType is the queue job type of project table exports.
const ExportJobType = "project_table_export"

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error)
	ListByCreator(ctx context.Context, createdBy string, limit int) ([]models.ExportJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error)
}

type exportFiles interface {
	ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error)
	Open(relPath string) (*os.File, error)
	Delete(relPath string) error
	Cleanup(ttl time.Duration) ([]string, error)
}

// ExportJobServiceConfig governs queue recovery and cleanup.
type ExportJobServiceConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ExportJobServiceParams groups the collaborators of ExportJobService.
type ExportJobServiceParams struct {
	Repo        exportJobStore
	Queue       jobDispatcher
	Files       exportFiles
	Permissions permissionChecker
	Auditor     auditRecorder
	Validator   *validator.Validate
	Config      ExportJobServiceConfig
	Logger      *zap.Logger
}

// ExportDownload aggregates resolved download data.
type ExportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ExportFormat
	ExpiresAt time.Time
}

// ExportJobService manages the lifecycle of admin project table exports.
type ExportJobService struct {
	repo        exportJobStore
	queue       jobDispatcher
	files       exportFiles
	permissions permissionChecker
	auditor     auditRecorder
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         ExportJobServiceConfig
}

// NewExportJobService constructs the export job service.
func NewExportJobService(params ExportJobServiceParams) *ExportJobService {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Config.ResultTTL <= 0 {
		params.Config.ResultTTL = 24 * time.Hour
	}
	return &ExportJobService{
		repo:        params.Repo,
		queue:       params.Queue,
		files:       params.Files,
		permissions: params.Permissions,
		auditor:     params.Auditor,
		validator:   params.Validator,
		logger:      params.Logger,
		cfg:         params.Config,
	}
}

// CreateJob validates the request, persists the job and enqueues it.
func (s *ExportJobService) CreateJob(ctx context.Context, identity *models.Identity, req dto.ExportRequest) (*dto.ExportJobResponse, error) {
	if identity == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if identity.Rol != models.RoleAdmin || (s.permissions != nil && !s.permissions.HasPermission(identity, PermViewAllProjects)) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "solo los administradores pueden exportar proyectos")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "formato de exportación inválido")
	}
	job := &models.ExportJob{
		Format: req.Format,
		Params: models.ExportJobParams{
			AdminCedula: identity.Cedula,
			Estados:     req.Estados,
			Titulo:      strings.TrimSpace(req.Titulo),
		},
		Status:    models.ExportStatusQueued,
		CreatedBy: identity.Cedula,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: ExportJobType}); err != nil {
		status := models.ExportStatusFailed
		msg := "failed to enqueue job"
		now := time.Now().UTC()
		progress := 100
		_ = s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
			Status:       &status,
			Progress:     &progress,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		wrapped := appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
		s.audit(ctx, identity, wrapped)
		return nil, wrapped
	}
	s.audit(ctx, identity, nil)
	return &dto.ExportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// GetStatus reports a job to the administrator who requested it.
func (s *ExportJobService) GetStatus(ctx context.Context, identity *models.Identity, id string) (*dto.ExportStatusResponse, error) {
	if identity == nil {
		return nil, appErrors.ErrUnauthorized
	}
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exportación no encontrada")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.CreatedBy != identity.Cedula {
		return nil, appErrors.ErrForbidden
	}
	resp := statusResponse(job)
	return &resp, nil
}

// ListJobs returns the administrator's recent exports.
func (s *ExportJobService) ListJobs(ctx context.Context, identity *models.Identity, limit int) ([]dto.ExportStatusResponse, error) {
	if identity == nil {
		return nil, appErrors.ErrUnauthorized
	}
	rows, err := s.repo.ListByCreator(ctx, identity.Cedula, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list export jobs")
	}
	out := make([]dto.ExportStatusResponse, 0, len(rows))
	for i := range rows {
		out = append(out, statusResponse(&rows[i]))
	}
	return out, nil
}

// ResolveDownload validates the token and opens the stored export file.
func (s *ExportJobService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	jobID, relPath, expiresAt, err := s.files.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ExportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	file, err := s.files.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &ExportDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		Format:    job.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// RecoverPendingJobs replays queued jobs after a restart.
func (s *ExportJobService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Sugar().Warnw("failed to recover queued export jobs", "error", err)
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: ExportJobType}); err != nil {
			s.logger.Sugar().Warnw("failed to requeue pending job", "job_id", job.ID, "error", err)
		}
	}
}

// StartCleanup boots a goroutine that purges expired exports periodically.
func (s *ExportJobService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CleanupExpired(ctx, time.Now())
			}
		}
	}()
}

// CleanupExpired deletes the files of jobs finished before now-ResultTTL.
func (s *ExportJobService) CleanupExpired(ctx context.Context, now time.Time) {
	cutoff := now.Add(-s.cfg.ResultTTL)
	for {
		expired, err := s.repo.ListFinishedBefore(ctx, cutoff, 100)
		if err != nil {
			s.logger.Sugar().Warnw("cleanup list failed", "error", err)
			return
		}
		if len(expired) == 0 {
			break
		}
		for _, job := range expired {
			if job.ResultURL == nil {
				continue
			}
			token := extractToken(*job.ResultURL)
			if token == "" {
				continue
			}
			_, relPath, _, err := s.files.ParseToken(token, true)
			if err != nil {
				continue
			}
			if err := s.files.Delete(relPath); err != nil {
				s.logger.Sugar().Warnw("cleanup delete failed", "job_id", job.ID, "error", err)
			}
		}
		if len(expired) < 100 {
			break
		}
	}
	if _, err := s.files.Cleanup(s.cfg.ResultTTL); err != nil {
		s.logger.Sugar().Warnw("filesystem cleanup failed", "error", err)
	}
}

func (s *ExportJobService) audit(ctx context.Context, identity *models.Identity, cause error) {
	if s.auditor != nil {
		s.auditor.Record(ctx, identity, models.AuditActionExport, nil, cause)
	}
}

func statusResponse(job *models.ExportJob) dto.ExportStatusResponse {
	resp := dto.ExportStatusResponse{
		ID:         job.ID,
		Format:     job.Format,
		Status:     job.Status,
		Progress:   job.Progress,
		ResultURL:  job.ResultURL,
		CreatedAt:  job.CreatedAt,
		FinishedAt: job.FinishedAt,
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp
}

func extractToken(url string) string {
	if url == "" {
		return ""
	}
	parts := strings.Split(url, "/")
	return parts[len(parts)-1]
}

// ExportWorker bridges queue jobs to ExportService.
type ExportWorker struct {
	repo       exportJobStore
	exporter   exportGenerator
	logger     *zap.Logger
	maxRetries int
}

// NewExportWorker constructs a worker.
func NewExportWorker(repo exportJobStore, exporter exportGenerator, maxRetries int, logger *zap.Logger) *ExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &ExportWorker{
		repo:       repo,
		exporter:   exporter,
		logger:     logger,
		maxRetries: maxRetries,
	}
}

// Handle processes a queue job.
func (w *ExportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	processing := models.ExportStatusProcessing
	progress := 10
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:   &processing,
		Progress: &progress,
	}); err != nil {
		return err
	}
	result, err := w.exporter.Generate(ctx, record)
	if err != nil {
		msg := err.Error()
		if job.Attempt >= w.maxRetries {
			failed := models.ExportStatusFailed
			progress = 100
			now := time.Now().UTC()
			if updateErr := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
				Status:       &failed,
				Progress:     &progress,
				ErrorMessage: &msg,
				FinishedAt:   &now,
			}); updateErr != nil {
				w.logger.Sugar().Warnw("failed to mark job failed", "job_id", job.ID, "error", updateErr)
			}
		} else {
			queued := models.ExportStatusQueued
			reset := 0
			if updateErr := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
				Status:       &queued,
				Progress:     &reset,
				ErrorMessage: &msg,
			}); updateErr != nil {
				w.logger.Sugar().Warnw("failed to mark job queued", "job_id", job.ID, "error", updateErr)
			}
		}
		return err
	}
	finished := models.ExportStatusFinished
	progress = 100
	now := time.Now().UTC()
	url := result.URL
	clear := ""
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:       &finished,
		Progress:     &progress,
		ResultURL:    &url,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Sugar().Warnw("failed to mark job finished", "job_id", job.ID, "error", err)
		return err
	}
	w.logger.Info("export finished", zap.String("job_id", job.ID), zap.Int("rows", result.Rows))
	return nil
}

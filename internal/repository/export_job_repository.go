package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/thesis-portal/internal/models"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
)

const (
	exportJobSelect = "SELECT id, format, params, status, progress, result_url, created_by, created_at, finished_at, error_message FROM portal_export_jobs"

	defaultQueuedLimit   = 20
	defaultFinishedLimit = 50
)

// ExportJobRepository stores the lifecycle rows of admin project exports.
type ExportJobRepository struct {
	db *sqlx.DB
}

// NewExportJobRepository constructs the repository.
func NewExportJobRepository(db *sqlx.DB) *ExportJobRepository {
	return &ExportJobRepository{db: db}
}

// Create inserts job, filling in the id, status and creation time when unset.
func (r *ExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ExportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO portal_export_jobs (id, format, params, status, progress, result_url, created_by, created_at, finished_at, error_message) VALUES (:id, :format, :params, :status, :progress, :result_url, :created_by, :created_at, :finished_at, :error_message)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create export job %s: %w", job.ID, err)
	}
	return nil
}

// GetByID loads one job or returns appErrors.ErrNotFound.
func (r *ExportJobRepository) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	var job models.ExportJob
	err := r.db.GetContext(ctx, &job, exportJobSelect+" WHERE id = $1", id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("get export job %s: %w", id, err)
	}
	return &job, nil
}

// UpdateExportJobParams holds the fields a worker may change; nil means keep.
type UpdateExportJobParams struct {
	Status       *models.ExportStatus
	Progress     *int
	ResultURL    *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

func (p UpdateExportJobParams) assignments() ([]string, []interface{}) {
	var (
		cols []string
		args []interface{}
	)
	add := func(col string, v interface{}) {
		args = append(args, v)
		cols = append(cols, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if p.Status != nil {
		add("status", *p.Status)
	}
	if p.Progress != nil {
		add("progress", *p.Progress)
	}
	if p.ResultURL != nil {
		add("result_url", *p.ResultURL)
	}
	if p.ErrorMessage != nil {
		add("error_message", *p.ErrorMessage)
	}
	if p.FinishedAt != nil {
		add("finished_at", *p.FinishedAt)
	}
	return cols, args
}

// Update applies the non-nil fields of params to job id.
func (r *ExportJobRepository) Update(ctx context.Context, id string, params UpdateExportJobParams) error {
	cols, args := params.assignments()
	if len(cols) == 0 {
		return nil
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE portal_export_jobs SET %s WHERE id = $%d", strings.Join(cols, ", "), len(args))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update export job %s: %w", id, err)
	}
	return nil
}

// ListQueued returns the oldest queued jobs, re-enqueued after a restart.
func (r *ExportJobRepository) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	if limit <= 0 {
		limit = defaultQueuedLimit
	}
	return r.selectJobs(ctx, "list queued export jobs",
		exportJobSelect+" WHERE status = 'QUEUED' ORDER BY created_at ASC LIMIT $1", limit)
}

// ListFinishedBefore returns finished jobs older than cutoff whose files expire.
func (r *ExportJobRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	if limit <= 0 {
		limit = defaultFinishedLimit
	}
	return r.selectJobs(ctx, "list finished export jobs",
		exportJobSelect+" WHERE status = 'FINISHED' AND finished_at IS NOT NULL AND finished_at < $1 ORDER BY finished_at ASC LIMIT $2", cutoff, limit)
}

// ListByCreator returns the newest jobs requested by one administrator.
func (r *ExportJobRepository) ListByCreator(ctx context.Context, createdBy string, limit int) ([]models.ExportJob, error) {
	if limit <= 0 {
		limit = defaultQueuedLimit
	}
	return r.selectJobs(ctx, "list export jobs",
		exportJobSelect+" WHERE created_by = $1 ORDER BY created_at DESC LIMIT $2", createdBy, limit)
}

func (r *ExportJobRepository) selectJobs(ctx context.Context, op, query string, args ...interface{}) ([]models.ExportJob, error) {
	var jobs []models.ExportJob
	if err := r.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return jobs, nil
}

package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/thesis-portal/internal/models"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
)

var exportJobColumns = []string{"id", "format", "params", "status", "progress", "result_url", "created_by", "created_at", "finished_at", "error_message"}

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestExportJobRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	repo := NewExportJobRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO portal_export_jobs")).
		WithArgs(sqlmock.AnyArg(), "csv", sqlmock.AnyArg(), "QUEUED", 0, nil, "4000000001", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	job := &models.ExportJob{
		Format:    models.ExportFormatCSV,
		Params:    models.ExportJobParams{AdminCedula: "4000000001"},
		CreatedBy: "4000000001",
	}
	require.NoError(t, repo.Create(context.Background(), job))
	require.NotEmpty(t, job.ID)

	rows := sqlmock.NewRows(exportJobColumns).
		AddRow(job.ID, "csv", `{"adminCedula":"4000000001"}`, "QUEUED", 0, nil, "4000000001", time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, format, params, status, progress, result_url, created_by, created_at, finished_at, error_message FROM portal_export_jobs WHERE id = $1")).
		WithArgs(job.ID).
		WillReturnRows(rows)

	fetched, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, job.ID, fetched.ID)
	require.Equal(t, "4000000001", fetched.Params.AdminCedula)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportJobRepositoryGetMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM portal_export_jobs WHERE id = $1")).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "nope")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestExportJobRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	now := time.Now()
	status := models.ExportStatusFinished
	progress := 100
	result := "/api/v1/export/token"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE portal_export_jobs SET status = $1, progress = $2, result_url = $3, finished_at = $4 WHERE id = $5")).
		WithArgs(status, progress, result, now, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "job-1", UpdateExportJobParams{
		Status:     &status,
		Progress:   &progress,
		ResultURL:  &result,
		FinishedAt: &now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportJobRepositoryUpdateWithoutChanges(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	require.NoError(t, NewExportJobRepository(db).Update(context.Background(), "job-1", UpdateExportJobParams{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportJobRepositoryListQueued(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	rows := sqlmock.NewRows(exportJobColumns).
		AddRow("job-1", "pdf", `{"adminCedula":"4000000001"}`, "QUEUED", 0, nil, "4000000001", time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM portal_export_jobs WHERE status = 'QUEUED' ORDER BY created_at ASC LIMIT $1")).
		WithArgs(20).
		WillReturnRows(rows)

	jobs, err := repo.ListQueued(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, models.ExportFormatPDF, jobs[0].Format)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportJobRepositoryListFinishedBefore(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	rows := sqlmock.NewRows(exportJobColumns).
		AddRow("job-1", "csv", `{"adminCedula":"4000000001"}`, "FINISHED", 100, "/api/v1/export/token", "4000000001", time.Now().Add(-48*time.Hour), time.Now().Add(-25*time.Hour), nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM portal_export_jobs WHERE status = 'FINISHED' AND finished_at IS NOT NULL AND finished_at < $1 ORDER BY finished_at ASC LIMIT $2")).
		WithArgs(sqlmock.AnyArg(), 50).
		WillReturnRows(rows)

	jobs, err := repo.ListFinishedBefore(context.Background(), time.Now(), 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportJobRepositoryListByCreator(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	rows := sqlmock.NewRows(exportJobColumns).
		AddRow("job-2", "pdf", `{"adminCedula":"4000000001"}`, "PROCESSING", 40, nil, "4000000001", time.Now(), nil, nil).
		AddRow("job-1", "csv", `{"adminCedula":"4000000001"}`, "FAILED", 0, nil, "4000000001", time.Now().Add(-time.Hour), time.Now(), "backend unavailable")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE created_by = $1 ORDER BY created_at DESC LIMIT $2")).
		WithArgs("4000000001", 20).
		WillReturnRows(rows)

	jobs, err := repo.ListByCreator(context.Background(), "4000000001", 0)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	require.Equal(t, "job-2", jobs[0].ID)
	require.NotNil(t, jobs[1].ErrorMessage)
	require.NoError(t, mock.ExpectationsWereMet())
}

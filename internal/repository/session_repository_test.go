package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/thesis-portal/internal/models"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
)

func TestSessionRepositorySaveUpserts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db, 0, nil)

	now := time.Now().UTC()
	session := &models.Session{
		ID:        "5a1f3c9e-1111-4c1d-9d5b-000000000001",
		Cedula:    "2000000760",
		Identity:  models.Identity{Cedula: "2000000760", Nombre: "Marco Adarme", Rol: models.RoleDirector},
		CreatedAt: now,
		UpdatedAt: now,
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO portal_sessions (id, cedula, identity, created_at, updated_at)") + ".*ON CONFLICT \\(id\\) DO UPDATE").
		WithArgs(session.ID, "2000000760", sqlmock.AnyArg(), now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Save(context.Background(), session))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryGetAndList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db, 0, nil)

	columns := []string{"id", "cedula", "identity", "created_at", "updated_at"}
	identity := `{"cedula":"1000033333","nombre":"David Báez","rol":"ESTUDIANTE","esAdminGeneral":false,"comiteNombre":null,"programaCodigo":"115"}`
	mock.ExpectQuery(regexp.QuoteMeta("FROM portal_sessions WHERE id = $1")).
		WithArgs("sid-1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("sid-1", "1000033333", identity, time.Now(), time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("FROM portal_sessions ORDER BY created_at ASC")).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("sid-1", "1000033333", identity, time.Now(), time.Now()).
			AddRow("sid-2", "1000033333", identity, time.Now(), time.Now()))

	session, err := repo.Get(context.Background(), "sid-1")
	require.NoError(t, err)
	require.Equal(t, models.RoleStudent, session.Identity.Rol)

	sessions, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryGetMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("FROM portal_sessions WHERE id = $1")).
		WithArgs("gone").
		WillReturnError(sql.ErrNoRows)

	_, err := NewSessionRepository(db, 0, nil).Get(context.Background(), "gone")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestSessionRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM portal_sessions WHERE id = $1")).
		WithArgs("sid-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewSessionRepository(db, 0, nil).Delete(context.Background(), "sid-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryListPrunesAndSkipsUndecodable(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	repo := NewSessionRepository(db, 24*time.Hour, nil)
	repo.now = func() time.Time { return now }

	columns := []string{"id", "cedula", "identity", "created_at", "updated_at"}
	identity := `{"cedula":"1000033333","nombre":"David Báez","rol":"ESTUDIANTE"}`
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM portal_sessions WHERE created_at < $1")).
		WithArgs(now.Add(-24 * time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectQuery(regexp.QuoteMeta("FROM portal_sessions ORDER BY created_at ASC")).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("sid-bad", "1000033333", "{not json", now.Add(-2*time.Hour), now).
			AddRow("sid-ok", "1000033333", identity, now.Add(-time.Hour), now))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM portal_sessions WHERE id = $1")).
		WithArgs("sid-bad").
		WillReturnResult(sqlmock.NewResult(0, 1))

	sessions, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, "sid-ok", sessions[0].ID)
	require.Equal(t, models.RoleStudent, sessions[0].Identity.Rol)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryGetExpired(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	repo := NewSessionRepository(db, time.Hour, nil)
	repo.now = func() time.Time { return now }

	columns := []string{"id", "cedula", "identity", "created_at", "updated_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM portal_sessions WHERE id = $1")).
		WithArgs("sid-old").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("sid-old", "1000033333", `{"cedula":"1000033333"}`, now.Add(-2*time.Hour), now))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM portal_sessions WHERE id = $1")).
		WithArgs("sid-old").
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := repo.Get(context.Background(), "sid-old")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

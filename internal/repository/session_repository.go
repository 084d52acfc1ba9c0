package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/thesis-portal/internal/models"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
)

// SessionRepository persists portal sessions in PostgreSQL. A row lives as
// long as the token issued with it; older rows are ignored and pruned.
type SessionRepository struct {
	db     *sqlx.DB
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// sessionRow keeps the identity undecoded so one bad row cannot fail a scan.
type sessionRow struct {
	ID        string    `db:"id"`
	Cedula    string    `db:"cedula"`
	Identity  []byte    `db:"identity"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// NewSessionRepository constructs the repository. A zero ttl keeps rows until logout.
func NewSessionRepository(db *sqlx.DB, ttl time.Duration, logger *zap.Logger) *SessionRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRepository{db: db, ttl: ttl, logger: logger, now: time.Now}
}

// Save upserts a session row.
func (r *SessionRepository) Save(ctx context.Context, session *models.Session) error {
	const query = `INSERT INTO portal_sessions (id, cedula, identity, created_at, updated_at)
VALUES (:id, :cedula, :identity, :created_at, :updated_at)
ON CONFLICT (id) DO UPDATE SET cedula = EXCLUDED.cedula, identity = EXCLUDED.identity, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get returns a live session by id. Expired or undecodable rows are removed
// and reported as appErrors.ErrNotFound.
func (r *SessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	const query = `SELECT id, cedula, identity, created_at, updated_at FROM portal_sessions WHERE id = $1`
	var row sessionRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	session, ok := r.decode(ctx, row)
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return session, nil
}

// Delete removes a session row.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM portal_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// List prunes expired rows and returns the live sessions, oldest first.
func (r *SessionRepository) List(ctx context.Context) ([]models.Session, error) {
	if r.ttl > 0 {
		res, err := r.db.ExecContext(ctx, `DELETE FROM portal_sessions WHERE created_at < $1`, r.cutoff())
		if err != nil {
			return nil, fmt.Errorf("prune sessions: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			r.logger.Info("pruned expired sessions", zap.Int64("count", n))
		}
	}

	const query = `SELECT id, cedula, identity, created_at, updated_at FROM portal_sessions ORDER BY created_at ASC`
	var rows []sessionRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	sessions := make([]models.Session, 0, len(rows))
	for _, row := range rows {
		if session, ok := r.decode(ctx, row); ok {
			sessions = append(sessions, *session)
		}
	}
	return sessions, nil
}

func (r *SessionRepository) cutoff() time.Time {
	return r.now().UTC().Add(-r.ttl)
}

func (r *SessionRepository) decode(ctx context.Context, row sessionRow) (*models.Session, bool) {
	if r.ttl > 0 && row.CreatedAt.Before(r.cutoff()) {
		r.drop(ctx, row.ID, "expired")
		return nil, false
	}
	session := models.Session{ID: row.ID, Cedula: row.Cedula, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt}
	if err := json.Unmarshal(row.Identity, &session.Identity); err != nil {
		r.logger.Warn("dropping undecodable session", zap.String("session_id", row.ID), zap.Error(err))
		r.drop(ctx, row.ID, "undecodable")
		return nil, false
	}
	return &session, true
}

func (r *SessionRepository) drop(ctx context.Context, id, reason string) {
	if err := r.Delete(ctx, id); err != nil {
		r.logger.Warn("failed to drop session", zap.String("session_id", id), zap.String("reason", reason), zap.Error(err))
	}
}

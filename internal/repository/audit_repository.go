package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/thesis-portal/internal/models"
)

// AuditRepository appends portal mutations to portal_audit_log.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts an audit row.
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO portal_audit_log (id, actor, role, action, project_id, outcome, detail, request_id, created_at)
VALUES (:id, :actor, :role, :action, :project_id, :outcome, :detail, :request_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// ListByProject returns the newest entries recorded for a project.
func (r *AuditRepository) ListByProject(ctx context.Context, projectID int64, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `SELECT id, actor, role, action, project_id, outcome, detail, request_id, created_at
FROM portal_audit_log WHERE project_id = $1 ORDER BY created_at DESC LIMIT $2`
	var entries []models.AuditLog
	if err := r.db.SelectContext(ctx, &entries, query, projectID, limit); err != nil {
		return nil, fmt.Errorf("list audit log: %w", err)
	}
	return entries, nil
}

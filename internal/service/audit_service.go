package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/thesis-portal/internal/backend"
	"github.com/noah-isme/thesis-portal/internal/models"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
)

type auditRecorder interface {
	Record(ctx context.Context, identity *models.Identity, action string, projectID *int64, cause error)
}

type auditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	ListByProject(ctx context.Context, projectID int64, limit int) ([]models.AuditLog, error)
}

// AuditService appends portal mutations to the audit log. Write failures are
// logged and never fail the audited operation.
type AuditService struct {
	repo   auditRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewAuditService constructs the service. A nil repo disables recording.
func NewAuditService(repo auditRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger, now: time.Now}
}

// Record stores one entry; cause != nil marks the outcome as a failure.
func (s *AuditService) Record(ctx context.Context, identity *models.Identity, action string, projectID *int64, cause error) {
	if s == nil || s.repo == nil || identity == nil {
		return
	}
	entry := &models.AuditLog{
		Actor:     identity.Cedula,
		Role:      identity.Rol,
		Action:    action,
		ProjectID: projectID,
		Outcome:   models.AuditOutcomeSuccess,
		CreatedAt: s.now().UTC(),
	}
	if cause != nil {
		entry.Outcome = models.AuditOutcomeFailure
		msg := appErrors.FromError(cause).Message
		entry.Detail = &msg
	}
	if id := backend.RequestIDFrom(ctx); id != "" {
		entry.RequestID = &id
	}
	if err := s.repo.Create(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}

// ProjectTrail lists recent audit entries for a project.
func (s *AuditService) ProjectTrail(ctx context.Context, projectID int64, limit int) ([]models.AuditLog, error) {
	if s == nil || s.repo == nil {
		return []models.AuditLog{}, nil
	}
	entries, err := s.repo.ListByProject(ctx, projectID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load audit trail")
	}
	return entries, nil
}

package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/thesis-portal/internal/dto"
	"github.com/noah-isme/thesis-portal/internal/models"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
)

type projectBackend interface {
	Project(ctx context.Context, id int64) (*models.Project, error)
	CreateProject(ctx context.Context, cedulaEstudiante string, input models.CreateProjectInput) (*models.Project, error)
	ProjectHistory(ctx context.Context, projectID int64) ([]models.HistoryEntry, error)
	ChangeStatus(ctx context.Context, projectID int64, input models.ChangeStatusInput) (json.RawMessage, error)
}

type dashboardReloader interface {
	LoadInitialData(ctx context.Context, sessionID string, identity *models.Identity) (DashboardState, error)
	State(sessionID string) (DashboardState, bool)
	CloseModal(sessionID string)
}

type permissionChecker interface {
	HasPermission(identity *models.Identity, action string) bool
}

// WorkflowServiceParams groups workflow dependencies.
type WorkflowServiceParams struct {
	Backend     projectBackend
	Dashboard   dashboardReloader
	Permissions permissionChecker
	Auditor     auditRecorder
	Validator   *validator.Validate
	Logger      *zap.Logger
}

// WorkflowService runs project creation and status changes against the
// backend and refreshes the caller's dashboard afterwards.
type WorkflowService struct {
	backend     projectBackend
	dashboard   dashboardReloader
	permissions permissionChecker
	auditor     auditRecorder
	validator   *validator.Validate
	logger      *zap.Logger
	guard       *mutationGuard
}

// NewWorkflowService constructs the service.
func NewWorkflowService(params WorkflowServiceParams) *WorkflowService {
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	return &WorkflowService{
		backend:     params.Backend,
		dashboard:   params.Dashboard,
		permissions: params.Permissions,
		auditor:     params.Auditor,
		validator:   params.Validator,
		logger:      params.Logger,
		guard:       newMutationGuard(),
	}
}

// ChangeStatus applies a status-change event to a project. The backend is
// the only judge of whether the event is legal. On success the status modal
// closes and the dashboard reloads; a failed reload is reported through the
// returned state. On failure the modal stays open.
func (s *WorkflowService) ChangeStatus(ctx context.Context, sessionID string, identity *models.Identity, projectID int64, req dto.ChangeStatusRequest) (DashboardState, error) {
	if !s.permissions.HasPermission(identity, PermChangeStatus) {
		return DashboardState{}, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return DashboardState{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "seleccione un evento de cambio de estado")
	}

	release, err := s.guard.acquire(fmt.Sprintf("%s:status:%d", sessionID, projectID))
	if err != nil {
		return DashboardState{}, err
	}
	defer release()

	_, err = s.backend.ChangeStatus(ctx, projectID, models.ChangeStatusInput{
		TipoEventoID:             req.EventID,
		Descripcion:              req.Description,
		UsuarioResponsableCedula: identity.Cedula,
	})
	s.audit(ctx, identity, models.AuditActionChangeStatus, &projectID, err)
	if err != nil {
		s.logger.Warn("status change rejected", zap.Int64("project_id", projectID), zap.Int64("event_id", req.EventID), zap.Error(err))
		return DashboardState{}, err
	}

	s.dashboard.CloseModal(sessionID)
	state, err := s.reload(ctx, sessionID, identity)
	if err != nil {
		s.logger.Warn("dashboard reload after status change failed", zap.Int64("project_id", projectID), zap.Error(err))
	}
	return state, nil
}

// CreateProject registers the student's project and reloads the dashboard.
func (s *WorkflowService) CreateProject(ctx context.Context, sessionID string, identity *models.Identity, req dto.CreateProjectRequest) (*models.Project, error) {
	if !s.permissions.HasPermission(identity, PermCreateProject) {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "datos del proyecto incompletos")
	}
	if state, ok := s.dashboard.State(sessionID); ok && state.StudentProject != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "ya tienes un proyecto registrado")
	}

	release, err := s.guard.acquire(sessionID + ":create-project")
	if err != nil {
		return nil, err
	}
	defer release()

	project, err := s.backend.CreateProject(ctx, identity.Cedula, models.CreateProjectInput{
		Titulo:               req.Titulo,
		Descripcion:          req.Descripcion,
		ObjetivoGeneral:      req.ObjetivoGeneral,
		ModalidadID:          req.ModalidadID,
		LineaInvestigacionID: req.LineaInvestigacionID,
	})
	var projectID *int64
	if project != nil {
		projectID = &project.ID
	}
	s.audit(ctx, identity, models.AuditActionCreateProject, projectID, err)
	if err != nil {
		return nil, err
	}

	if _, err := s.reload(ctx, sessionID, identity); err != nil {
		s.logger.Warn("dashboard reload after project creation failed", zap.Error(err))
	}
	return project, nil
}

// Project returns one project for the detail view.
func (s *WorkflowService) Project(ctx context.Context, identity *models.Identity, projectID int64) (*models.Project, error) {
	if !s.permissions.HasPermission(identity, PermViewDetail) && !s.permissions.HasPermission(identity, PermViewAllProjects) {
		return nil, appErrors.ErrForbidden
	}
	project, err := s.backend.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proyecto no encontrado")
	}
	return project, nil
}

// History lists the status history shown in the history modal.
func (s *WorkflowService) History(ctx context.Context, identity *models.Identity, projectID int64) ([]models.HistoryEntry, error) {
	if !s.permissions.HasPermission(identity, PermViewHistory) {
		return nil, appErrors.ErrForbidden
	}
	entries, err := s.backend.ProjectHistory(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return orEmpty(entries), nil
}

func (s *WorkflowService) reload(ctx context.Context, sessionID string, identity *models.Identity) (DashboardState, error) {
	return s.dashboard.LoadInitialData(ctx, sessionID, identity)
}

func (s *WorkflowService) audit(ctx context.Context, identity *models.Identity, action string, projectID *int64, cause error) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, identity, action, projectID, cause)
}

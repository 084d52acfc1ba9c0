package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/thesis-portal/internal/dto"
	"github.com/noah-isme/thesis-portal/internal/models"
	"github.com/noah-isme/thesis-portal/internal/service"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
	"github.com/noah-isme/thesis-portal/pkg/response"
)

type projectWorkflow interface {
	ChangeStatus(ctx context.Context, sessionID string, identity *models.Identity, projectID int64, req dto.ChangeStatusRequest) (service.DashboardState, error)
	CreateProject(ctx context.Context, sessionID string, identity *models.Identity, req dto.CreateProjectRequest) (*models.Project, error)
	Project(ctx context.Context, identity *models.Identity, projectID int64) (*models.Project, error)
	History(ctx context.Context, identity *models.Identity, projectID int64) ([]models.HistoryEntry, error)
}

type auditTrail interface {
	ProjectTrail(ctx context.Context, projectID int64, limit int) ([]models.AuditLog, error)
}

const defaultAuditLimit = 50

// ProjectHandler exposes the project workflow.
type ProjectHandler struct {
	workflow    projectWorkflow
	views       dashboardRenderer
	audit       auditTrail
	permissions *service.PermissionTable
}

// NewProjectHandler constructs the handler.
func NewProjectHandler(workflow projectWorkflow, views dashboardRenderer, audit auditTrail, permissions *service.PermissionTable) *ProjectHandler {
	if permissions == nil {
		permissions = service.DefaultPermissionTable()
	}
	return &ProjectHandler{workflow: workflow, views: views, audit: audit, permissions: permissions}
}

// Create godoc
// @Summary Register the student's project
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateProjectRequest true "Project payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	sessionID, identity, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid project payload"))
		return
	}
	project, err := h.workflow.CreateProject(c.Request.Context(), sessionID, identity, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project, meta(c))
}

// Get godoc
// @Summary Project detail
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{id} [get]
func (h *ProjectHandler) Get(c *gin.Context) {
	_, identity, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	projectID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	project, err := h.workflow.Project(c.Request.Context(), identity, projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"project": project,
		"card":    service.BuildCard(project, h.permissions.ProjectActions(identity.Rol)),
	}, nil, meta(c))
}

// History godoc
// @Summary Project status history
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /projects/{id}/history [get]
func (h *ProjectHandler) History(c *gin.Context) {
	_, identity, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	projectID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.workflow.History(c.Request.Context(), identity, projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, service.HistoryRows(entries), nil, meta(c))
}

// ChangeStatus godoc
// @Summary Apply a status-change event
// @Description Sends the event to the backend, closes the status modal and returns the reloaded dashboard
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param payload body dto.ChangeStatusRequest true "Status change payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /projects/{id}/status [post]
func (h *ProjectHandler) ChangeStatus(c *gin.Context) {
	sessionID, identity, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	projectID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	state, err := h.workflow.ChangeStatus(c.Request.Context(), sessionID, identity, projectID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.views.Render(identity, state), nil, meta(c))
}

// Actions godoc
// @Summary Per-project actions allowed for the current role
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /projects/actions [get]
func (h *ProjectHandler) Actions(c *gin.Context) {
	_, identity, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.permissions.ProjectActions(identity.Rol), nil, meta(c))
}

// AuditTrail godoc
// @Summary Portal audit entries of a project
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param limit query int false "Maximum entries" default(50)
// @Success 200 {object} response.Envelope
// @Router /projects/{id}/audit [get]
func (h *ProjectHandler) AuditTrail(c *gin.Context) {
	projectID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	limit := defaultAuditLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit inválido"))
			return
		}
		limit = parsed
	}
	entries, err := h.audit.ProjectTrail(c.Request.Context(), projectID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, &response.Pagination{Limit: limit, Count: len(entries)}, meta(c))
}

package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/thesis-portal/internal/dto"
	"github.com/noah-isme/thesis-portal/internal/middleware"
	"github.com/noah-isme/thesis-portal/internal/models"
	"github.com/noah-isme/thesis-portal/internal/service"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
	"github.com/noah-isme/thesis-portal/pkg/response"
)

type dashboardRouter interface {
	LoadInitialData(ctx context.Context, sessionID string, identity *models.Identity) (service.DashboardState, error)
	Reload(ctx context.Context, sessionID string) (service.DashboardState, error)
	State(sessionID string) (service.DashboardState, bool)
	OpenModal(sessionID string, kind service.ModalKind, projectID int64) (service.ModalState, error)
	CloseModal(sessionID string)
}

type dashboardRenderer interface {
	Render(identity *models.Identity, state service.DashboardState) dto.DashboardView
}

// DashboardHandler serves the role dashboard of the current session.
type DashboardHandler struct {
	router dashboardRouter
	views  dashboardRenderer
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(router dashboardRouter, views dashboardRenderer) *DashboardHandler {
	return &DashboardHandler{router: router, views: views}
}

// Get godoc
// @Summary Role dashboard
// @Description Returns the dashboard of the session's role, loading it on first access. A failed load is reported in the view status.
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param refresh query bool false "Force a reload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	if h.router == nil || h.views == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	sessionID, identity, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	refresh, _ := strconv.ParseBool(c.Query("refresh"))

	state, cached := h.router.State(sessionID)
	if refresh || !cached || state.Status != service.LoadReady {
		// a failed load is still rendered; the view carries the error text
		state, _ = h.router.LoadInitialData(c.Request.Context(), sessionID, identity)
	}
	middleware.SetMeta(c, "cached", cached && !refresh && state.Status == service.LoadReady)
	h.render(c, identity, state)
}

// Reload godoc
// @Summary Reload the dashboard data
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /dashboard/reload [post]
func (h *DashboardHandler) Reload(c *gin.Context) {
	sessionID, identity, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	state, err := h.router.Reload(c.Request.Context(), sessionID)
	if err != nil && state.Status != service.LoadFailed {
		response.Error(c, err)
		return
	}
	h.render(c, identity, state)
}

// Modal godoc
// @Summary Open or close a dashboard modal
// @Tags Dashboard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ModalRequest true "Modal payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /dashboard/modal [post]
func (h *DashboardHandler) Modal(c *gin.Context) {
	sessionID, identity, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ModalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid modal payload"))
		return
	}
	if req.Open {
		if _, err := h.router.OpenModal(sessionID, service.ModalKind(req.Kind), req.ProjectID); err != nil {
			response.Error(c, err)
			return
		}
	} else {
		h.router.CloseModal(sessionID)
	}
	state, ok := h.router.State(sessionID)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrPreconditionFailed, "dashboard not loaded"))
		return
	}
	h.render(c, identity, state)
}

func (h *DashboardHandler) render(c *gin.Context, identity *models.Identity, state service.DashboardState) {
	response.JSON(c, http.StatusOK, h.views.Render(identity, state), nil, meta(c))
}

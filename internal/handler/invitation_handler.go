package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/thesis-portal/internal/dto"
	"github.com/noah-isme/thesis-portal/internal/models"
	"github.com/noah-isme/thesis-portal/internal/service"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
	"github.com/noah-isme/thesis-portal/pkg/response"
)

type invitationService interface {
	InviteDirector(ctx context.Context, sessionID string, identity *models.Identity, req dto.DirectorInviteRequest) (service.DashboardState, error)
	CancelDirectorInvite(ctx context.Context, sessionID string, identity *models.Identity, req dto.CancelDirectorInviteRequest) (service.DashboardState, error)
	RespondDirectorInvite(ctx context.Context, sessionID string, identity *models.Identity, notificationID int64, answer models.InvitationAnswer) (service.DashboardState, error)
	RespondInvitation(ctx context.Context, sessionID string, identity *models.Identity, notificationID int64, answer models.InvitationAnswer) (service.DashboardState, error)
	MarkRead(ctx context.Context, notificationID int64) error
	LookupStudent(ctx context.Context, req dto.StudentLookupRequest) (*models.StudentSummary, error)
	InvitePeer(ctx context.Context, sessionID string, identity *models.Identity, req dto.PeerInviteRequest) error
	SearchDirectors(ctx context.Context, term string) ([]models.Professor, error)
}

// InvitationHandler exposes director and peer invitations.
type InvitationHandler struct {
	service invitationService
	views   dashboardRenderer
}

// NewInvitationHandler constructs the handler.
func NewInvitationHandler(svc invitationService, views dashboardRenderer) *InvitationHandler {
	return &InvitationHandler{service: svc, views: views}
}

// InviteDirector godoc
// @Summary Invite a director to the student's project
// @Tags Invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.DirectorInviteRequest true "Director invitation"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /invitations/director [post]
func (h *InvitationHandler) InviteDirector(c *gin.Context) {
	sessionID, identity, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.DirectorInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid invitation payload"))
		return
	}
	state, err := h.service.InviteDirector(c.Request.Context(), sessionID, identity, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.views.Render(identity, state), nil, meta(c))
}

// CancelDirectorInvite godoc
// @Summary Withdraw the pending director invitation
// @Tags Invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CancelDirectorInviteRequest true "Cancellation"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /invitations/director [delete]
func (h *InvitationHandler) CancelDirectorInvite(c *gin.Context) {
	sessionID, identity, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CancelDirectorInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid cancellation payload"))
		return
	}
	state, err := h.service.CancelDirectorInvite(c.Request.Context(), sessionID, identity, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.views.Render(identity, state), nil, meta(c))
}

// InvitePeer godoc
// @Summary Invite another student into the project
// @Tags Invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.PeerInviteRequest true "Peer invitation"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /invitations/peer [post]
func (h *InvitationHandler) InvitePeer(c *gin.Context) {
	sessionID, identity, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.PeerInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid invitation payload"))
		return
	}
	if err := h.service.InvitePeer(c.Request.Context(), sessionID, identity, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Respond godoc
// @Summary Answer an invitation notification
// @Description Directors answer direction invitations, students answer project invitations
// @Tags Invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Param payload body dto.RespondInvitationRequest true "Answer"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /notifications/{id}/respond [post]
func (h *InvitationHandler) Respond(c *gin.Context) {
	sessionID, identity, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	notificationID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.RespondInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid answer payload"))
		return
	}

	var state service.DashboardState
	switch identity.Rol {
	case models.RoleDirector:
		state, err = h.service.RespondDirectorInvite(c.Request.Context(), sessionID, identity, notificationID, req.Respuesta)
	case models.RoleStudent:
		state, err = h.service.RespondInvitation(c.Request.Context(), sessionID, identity, notificationID, req.Respuesta)
	default:
		err = appErrors.ErrForbidden
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.views.Render(identity, state), nil, meta(c))
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags Notifications
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 204
// @Router /notifications/{id}/read [post]
func (h *InvitationHandler) MarkRead(c *gin.Context) {
	notificationID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), notificationID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// LookupStudent godoc
// @Summary Find a student by exact cedula or code
// @Tags Invitations
// @Produce json
// @Security BearerAuth
// @Param cedula query string false "Cedula"
// @Param codigo query string false "Student code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/lookup [get]
func (h *InvitationHandler) LookupStudent(c *gin.Context) {
	var req dto.StudentLookupRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lookup query"))
		return
	}
	student, err := h.service.LookupStudent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil, meta(c))
}

// SearchDirectors godoc
// @Summary Search directors for the invitation picker
// @Tags Invitations
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search term"
// @Success 200 {object} response.Envelope
// @Router /directors [get]
func (h *InvitationHandler) SearchDirectors(c *gin.Context) {
	directors, err := h.service.SearchDirectors(c.Request.Context(), strings.TrimSpace(c.Query("q")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, directors, nil, meta(c))
}

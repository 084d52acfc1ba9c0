package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/thesis-portal/internal/dto"
	"github.com/noah-isme/thesis-portal/internal/models"
	"github.com/noah-isme/thesis-portal/internal/service"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
	"github.com/noah-isme/thesis-portal/pkg/response"
)

type meetingService interface {
	RequestMeeting(ctx context.Context, sessionID string, identity *models.Identity, projectID int64, req dto.MeetingRequest) (*models.Meeting, error)
	List(ctx context.Context, identity *models.Identity) ([]service.MeetingView, error)
	RegisterMeetingDetails(ctx context.Context, sessionID string, identity *models.Identity, meeting models.Meeting, req dto.MeetingDetailsRequest) error
	FindMeeting(ctx context.Context, identity *models.Identity, meetingID int64) (models.Meeting, error)
}

// MeetingHandler exposes meeting requests and their follow-up.
type MeetingHandler struct {
	service meetingService
}

// NewMeetingHandler constructs the handler.
func NewMeetingHandler(svc meetingService) *MeetingHandler {
	return &MeetingHandler{service: svc}
}

// List godoc
// @Summary Meetings of the current director or student
// @Tags Meetings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /meetings [get]
func (h *MeetingHandler) List(c *gin.Context) {
	_, identity, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	meetings, err := h.service.List(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, meetings, nil, meta(c))
}

// Request godoc
// @Summary Request a meeting for a project
// @Tags Meetings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param payload body dto.MeetingRequest true "Meeting request"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /projects/{id}/meetings [post]
func (h *MeetingHandler) Request(c *gin.Context) {
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
	var req dto.MeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid meeting payload"))
		return
	}
	meeting, err := h.service.RequestMeeting(c.Request.Context(), sessionID, identity, projectID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, meeting, meta(c))
}

// RegisterDetails godoc
// @Summary Record topics, agreements and attendance of a past meeting
// @Description A failure after the details were saved answers PARTIAL_UPDATE naming the failed step
// @Tags Meetings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Meeting ID"
// @Param payload body dto.MeetingDetailsRequest true "Meeting details"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /meetings/{id}/details [post]
func (h *MeetingHandler) RegisterDetails(c *gin.Context) {
	sessionID, identity, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	meetingID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.MeetingDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid meeting details payload"))
		return
	}
	meeting, err := h.service.FindMeeting(c.Request.Context(), identity, meetingID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.RegisterMeetingDetails(c.Request.Context(), sessionID, identity, meeting, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/thesis-portal/internal/models"
	"github.com/noah-isme/thesis-portal/internal/service"
	"github.com/noah-isme/thesis-portal/pkg/response"
)

type notificationService interface {
	List(ctx context.Context, identity *models.Identity) ([]models.Notification, error)
	Current(ctx context.Context, identity *models.Identity) (service.NotificationSnapshot, error)
	NewPoller(identity *models.Identity) (*service.NotificationPoller, error)
}

const defaultHeartbeat = 25 * time.Second

// NotificationHandler exposes notifications and their live stream.
type NotificationHandler struct {
	service   notificationService
	heartbeat time.Duration
}

// NewNotificationHandler constructs the handler. A non-positive heartbeat
// falls back to 25s.
func NewNotificationHandler(svc notificationService, heartbeat time.Duration) *NotificationHandler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &NotificationHandler{service: svc, heartbeat: heartbeat}
}

// List godoc
// @Summary Every notification of the current user
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	_, identity, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	notifications, err := h.service.List(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notifications, nil, meta(c))
}

// Current godoc
// @Summary Pending notifications and unread count
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /notifications/current [get]
func (h *NotificationHandler) Current(c *gin.Context) {
	_, identity, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	snap, err := h.service.Current(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snap, nil, meta(c))
}

// Stream godoc
// @Summary Live notification snapshots
// @Description Server-sent events. Each "notifications" event carries the latest snapshot; "heartbeat" events keep idle connections open. The poller stops when the client disconnects.
// @Tags Notifications
// @Produce text/event-stream
// @Param access_token query string false "Session token for EventSource clients"
// @Success 200
// @Failure 403 {object} response.Envelope
// @Router /notifications/stream [get]
func (h *NotificationHandler) Stream(c *gin.Context) {
	_, identity, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	poller, err := h.service.NewPoller(identity)
	if err != nil {
		response.Error(c, err)
		return
	}

	ctx := c.Request.Context()
	updates, unsubscribe := poller.Subscribe()
	defer unsubscribe()
	poller.Start(ctx)
	defer poller.Stop()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-store")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-updates:
			c.SSEvent("notifications", snap)
		case now := <-heartbeat.C:
			c.SSEvent("heartbeat", gin.H{"at": now.UTC()})
		}
		c.Writer.Flush()
	}
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/thesis-portal/internal/dto"
	"github.com/noah-isme/thesis-portal/internal/middleware"
	"github.com/noah-isme/thesis-portal/internal/models"
	"github.com/noah-isme/thesis-portal/internal/service"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
	"github.com/noah-isme/thesis-portal/pkg/response"
)

type sessionProvider interface {
	Login(ctx context.Context, req dto.LoginRequest, previousSessionID string) (*service.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandler wires HTTP endpoints to the session provider.
type AuthHandler struct {
	sessions    sessionProvider
	permissions *service.PermissionTable
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(sessions sessionProvider, permissions *service.PermissionTable) *AuthHandler {
	if permissions == nil {
		permissions = service.DefaultPermissionTable()
	}
	return &AuthHandler{sessions: sessions, permissions: permissions}
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate against the thesis backend and open a portal session
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body dto.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	res, err := h.sessions.Login(c.Request.Context(), req, middleware.SessionIDFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.LoginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		Identity:  res.Session.Identity,
		Session:   h.describe(&res.Session.Identity),
	}, nil, meta(c))
}

// Logout godoc
// @Summary Close the current session
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID, _, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.sessions.Logout(c.Request.Context(), sessionID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Me godoc
// @Summary Current identity with its permissions and menu
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	_, identity, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.describe(identity), nil, meta(c))
}

func (h *AuthHandler) describe(identity *models.Identity) dto.SessionResponse {
	menu := make([]dto.MenuItem, 0)
	for _, item := range h.permissions.Menu(identity.Rol) {
		menu = append(menu, dto.MenuItem{Key: item.Key, Label: item.Label})
	}
	permissions := h.permissions.Permissions(identity.Rol)
	if permissions == nil {
		permissions = []string{}
	}
	return dto.SessionResponse{
		Identity:          *identity,
		Variant:           string(service.ResolveVariant(identity)),
		Permissions:       permissions,
		Menu:              menu,
		ShowNotifications: h.permissions.ShowsNotifications(identity.Rol),
	}
}

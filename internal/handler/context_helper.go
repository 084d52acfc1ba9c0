package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/thesis-portal/internal/middleware"
	"github.com/noah-isme/thesis-portal/internal/models"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
)

// sessionFromContext returns the session id and identity resolved by the
// session middleware.
func sessionFromContext(c *gin.Context) (string, *models.Identity, error) {
	identity := middleware.IdentityFrom(c)
	sessionID := middleware.SessionIDFrom(c)
	if identity == nil || sessionID == "" {
		return "", nil, appErrors.ErrUnauthorized
	}
	return sessionID, identity, nil
}

func int64Param(c *gin.Context, name string) (int64, error) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, name+" inválido")
	}
	return id, nil
}

func meta(c *gin.Context) map[string]interface{} {
	return middleware.ExtractMeta(c)
}

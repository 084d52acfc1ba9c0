package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/thesis-portal/internal/models"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
	"github.com/noah-isme/thesis-portal/pkg/response"
)

// PermissionChecker answers role permission questions.
type PermissionChecker interface {
	HasPermission(identity *models.Identity, action string) bool
}

// RequirePermission lets the request through when the session identity holds
// any of the given permissions.
func RequirePermission(checker PermissionChecker, permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := IdentityFrom(c)
		if identity == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		for _, p := range permissions {
			if checker.HasPermission(identity, p) {
				c.Next()
				return
			}
		}
		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireRoles restricts a route to the given roles.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		identity := IdentityFrom(c)
		if identity == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[identity.Rol]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

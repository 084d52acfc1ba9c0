package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/thesis-portal/internal/backend"
	"github.com/noah-isme/thesis-portal/pkg/middleware/requestid"
)

// BackendRequestID copies the request id onto the request context so backend
// calls and audit entries carry it.
func BackendRequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := requestid.Value(c); id != "" {
			c.Request = c.Request.WithContext(backend.WithRequestID(c.Request.Context(), id))
		}
		c.Next()
	}
}

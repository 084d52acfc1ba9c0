package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/thesis-portal/internal/models"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
)

// AuditRecorder appends entries to the audit log.
type AuditRecorder interface {
	Record(ctx context.Context, identity *models.Identity, action string, projectID *int64, cause error)
}

// AuditDenied records requests an authenticated user was forbidden to make.
func AuditDenied(recorder AuditRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if recorder == nil || c.Writer.Status() != http.StatusForbidden {
			return
		}
		identity := IdentityFrom(c)
		if identity == nil {
			return
		}
		cause := appErrors.Wrap(
			fmt.Errorf("%s %s", c.Request.Method, c.FullPath()),
			appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "acceso denegado",
		)
		recorder.Record(c.Request.Context(), identity, models.AuditActionAccessDenied, nil, cause)
	}
}

package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/thesis-portal/internal/models"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
	"github.com/noah-isme/thesis-portal/pkg/logger"
	"github.com/noah-isme/thesis-portal/pkg/response"
)

const (
	// ContextIdentityKey is the gin context key storing the session identity.
	ContextIdentityKey = "identity"
	// ContextSessionKey is the gin context key storing the session id.
	ContextSessionKey = "session_id"

	queryTokenParam = "access_token"
)

// SessionResolver maps a bearer token to the live session identity.
type SessionResolver interface {
	ParseToken(token string) (*models.SessionClaims, error)
	CurrentIdentity(ctx context.Context, sessionID string) (*models.Identity, bool)
}

// SessionOption customises the session middleware.
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	queryToken bool
}

// AllowQueryToken accepts the token from the access_token query parameter
// when no Authorization header is sent. EventSource clients cannot set headers.
func AllowQueryToken() SessionOption {
	return func(o *sessionOptions) { o.queryToken = true }
}

// Session protects routes by requiring a token bound to a live session.
func Session(resolver SessionResolver, opts ...SessionOption) gin.HandlerFunc {
	var o sessionOptions
	for _, opt := range opts {
		opt(&o)
	}
	return func(c *gin.Context) {
		token, err := bearerToken(c, o.queryToken)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		claims, err := resolver.ParseToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		identity, ok := resolver.CurrentIdentity(c.Request.Context(), claims.SessionID)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "la sesión ha finalizado"))
			c.Abort()
			return
		}

		c.Set(ContextIdentityKey, identity)
		c.Set(ContextSessionKey, claims.SessionID)
		logger.AddFields(c, zap.String("role", string(identity.Rol)))
		c.Next()
	}
}

// OptionalSession attaches the session when a valid token is present but
// never blocks. Login uses it to replace the caller's previous session.
func OptionalSession(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c, false)
		if err != nil {
			c.Next()
			return
		}
		claims, err := resolver.ParseToken(token)
		if err != nil {
			c.Next()
			return
		}
		c.Set(ContextSessionKey, claims.SessionID)
		if identity, ok := resolver.CurrentIdentity(c.Request.Context(), claims.SessionID); ok {
			c.Set(ContextIdentityKey, identity)
		}
		c.Next()
	}
}

// IdentityFrom returns the identity stored by Session.
func IdentityFrom(c *gin.Context) *models.Identity {
	value, exists := c.Get(ContextIdentityKey)
	if !exists {
		return nil
	}
	identity, _ := value.(*models.Identity)
	return identity
}

// SessionIDFrom returns the session id stored by Session.
func SessionIDFrom(c *gin.Context) string {
	return c.GetString(ContextSessionKey)
}

func bearerToken(c *gin.Context, allowQuery bool) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if allowQuery {
			if token := c.Query(queryTokenParam); token != "" {
				return token, nil
			}
		}
		return "", appErrors.ErrUnauthorized
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

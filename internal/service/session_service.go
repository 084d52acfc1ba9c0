package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/thesis-portal/internal/backend"
	"github.com/noah-isme/thesis-portal/internal/dto"
	"github.com/noah-isme/thesis-portal/internal/models"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
)

type sessionStore interface {
	Save(ctx context.Context, session *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Session, error)
}

type authenticator interface {
	Login(ctx context.Context, cedula, password string) (*models.Identity, error)
}

// IdentityListener is told when the identity bound to a session is replaced
// or removed, so per-session state derived from it can be discarded.
type IdentityListener interface {
	IdentityChanged(sessionID string)
}

// SessionConfig tunes token issuance.
type SessionConfig struct {
	Secret   string
	TokenTTL time.Duration
	Issuer   string
}

// SessionServiceParams groups the session provider dependencies.
type SessionServiceParams struct {
	Store       sessionStore
	Auth        authenticator
	Permissions *PermissionTable
	Auditor     auditRecorder
	Validator   *validator.Validate
	Config      SessionConfig
	Logger      *zap.Logger
	Now         func() time.Time
}

// LoginResult is a freshly authenticated session.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Session   models.Session
}

// SessionService is the session/identity provider. The durable store is the
// source of truth; an in-memory copy of every known session covers store
// outages.
type SessionService struct {
	store       sessionStore
	auth        authenticator
	permissions *PermissionTable
	auditor     auditRecorder
	validator   *validator.Validate
	cfg         SessionConfig
	logger      *zap.Logger
	now         func() time.Time

	mu        sync.RWMutex
	sessions  map[string]models.Session
	listeners []IdentityListener
}

// NewSessionService builds the provider and hydrates the local copy from the
// durable store before returning.
func NewSessionService(ctx context.Context, params SessionServiceParams) (*SessionService, error) {
	if params.Store == nil {
		params.Store = NewMemorySessionStore()
	}
	if params.Permissions == nil {
		params.Permissions = DefaultPermissionTable()
	}
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	if params.Config.TokenTTL <= 0 {
		params.Config.TokenTTL = 720 * time.Hour
	}
	if params.Config.Secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}

	svc := &SessionService{
		store:       params.Store,
		auth:        params.Auth,
		permissions: params.Permissions,
		auditor:     params.Auditor,
		validator:   params.Validator,
		cfg:         params.Config,
		logger:      params.Logger,
		now:         params.Now,
		sessions:    make(map[string]models.Session),
	}

	stored, err := svc.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("hydrate sessions: %w", err)
	}
	for _, session := range stored {
		svc.sessions[session.ID] = session
	}
	svc.logger.Info("sessions hydrated", zap.Int("count", len(stored)))
	return svc, nil
}

// AddListener registers a listener for identity changes.
func (s *SessionService) AddListener(l IdentityListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Login authenticates against the backend and opens a new session. A
// previous session of the same browser is closed first so exactly one
// identity stays active.
func (s *SessionService) Login(ctx context.Context, req dto.LoginRequest, previousSessionID string) (*LoginResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "cédula y contraseña son obligatorias")
	}
	if s.auth == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "authenticator not configured")
	}

	identity, err := s.auth.Login(ctx, req.Cedula, req.Password)
	if err != nil {
		s.logger.Warn("login rejected", zap.String("cedula", req.Cedula), zap.Error(err))
		return nil, authenticationError(err)
	}
	if identity == nil || identity.Cedula == "" {
		return nil, appErrors.Clone(appErrors.ErrAuthentication, "respuesta de autenticación inválida")
	}
	identity.Normalize()

	if previousSessionID != "" {
		if err := s.Logout(ctx, previousSessionID); err != nil {
			s.logger.Warn("failed to close previous session", zap.String("session_id", previousSessionID), zap.Error(err))
		}
	}

	now := s.now().UTC()
	session := models.Session{
		ID:        uuid.NewString(),
		Cedula:    identity.Cedula,
		Identity:  *identity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Save(ctx, &session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist session")
	}

	token, expiresAt, err := s.issueToken(session)
	if err != nil {
		_ = s.store.Delete(ctx, session.ID)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue session token")
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.audit(ctx, identity, models.AuditActionLogin, nil, nil)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Session: session}, nil
}

// Logout closes a session. Unknown sessions are ignored.
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	session, known := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	listeners := append([]IdentityListener(nil), s.listeners...)
	s.mu.Unlock()

	if err := s.store.Delete(ctx, sessionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	for _, l := range listeners {
		l.IdentityChanged(sessionID)
	}
	if known {
		s.audit(ctx, &session.Identity, models.AuditActionLogout, nil, nil)
	}
	return nil
}

// CurrentIdentity returns the identity bound to sessionID. The durable store
// is authoritative, so a logout or re-login on another portal instance takes
// effect on the next request. The local copy only answers while the store is
// unreachable.
func (s *SessionService) CurrentIdentity(ctx context.Context, sessionID string) (*models.Identity, bool) {
	if sessionID == "" {
		return nil, false
	}
	stored, err := s.store.Get(ctx, sessionID)
	switch {
	case err == nil:
		s.mu.Lock()
		s.sessions[stored.ID] = *stored
		s.mu.Unlock()
		identity := stored.Identity
		return &identity, true
	case errors.Is(err, appErrors.ErrNotFound):
		s.forget(sessionID)
		return nil, false
	}

	s.logger.Warn("session lookup failed, using local copy", zap.String("session_id", sessionID), zap.Error(err))
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	identity := session.Identity
	return &identity, true
}

// forget drops a session closed elsewhere and tells the listeners.
func (s *SessionService) forget(sessionID string) {
	s.mu.Lock()
	_, known := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	listeners := append([]IdentityListener(nil), s.listeners...)
	s.mu.Unlock()
	if !known {
		return
	}
	for _, l := range listeners {
		l.IdentityChanged(sessionID)
	}
}

// HasPermission evaluates the static role table. A nil identity or an
// unknown role has no permissions.
func (s *SessionService) HasPermission(identity *models.Identity, action string) bool {
	return s.permissions.HasPermission(identity, action)
}

// Permissions exposes the role table to callers composing views.
func (s *SessionService) Permissions() *PermissionTable {
	return s.permissions
}

// ParseToken validates a session token and returns its claims.
func (s *SessionService) ParseToken(tokenString string) (*models.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid session token")
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid session token claims")
	}
	return claims, nil
}

func (s *SessionService) issueToken(session models.Session) (string, time.Time, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.cfg.TokenTTL)
	claims := &models.SessionClaims{
		SessionID: session.ID,
		Cedula:    session.Identity.Cedula,
		Role:      session.Identity.Rol,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   session.Identity.Cedula,
			ID:        session.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *SessionService) audit(ctx context.Context, identity *models.Identity, action string, projectID *int64, cause error) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, identity, action, projectID, cause)
}

// authenticationError maps a failed backend login onto AuthenticationError,
// keeping the backend message for rejected credentials.
func authenticationError(err error) error {
	var reqErr *backend.RequestError
	if errors.As(err, &reqErr) {
		switch {
		case reqErr.Status == 0 || reqErr.Status >= http.StatusInternalServerError:
			return appErrors.Wrap(err, appErrors.ErrAuthentication.Code, appErrors.ErrAuthentication.Status, "no fue posible conectar con el servidor de autenticación")
		default:
			return appErrors.Wrap(err, appErrors.ErrAuthentication.Code, appErrors.ErrAuthentication.Status, reqErr.Message)
		}
	}
	return appErrors.Wrap(err, appErrors.ErrAuthentication.Code, appErrors.ErrAuthentication.Status, appErrors.ErrAuthentication.Message)
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/thesis-portal/internal/models"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
)

const sessionKeyPrefix = "portal:session:"

// SessionCacheRepository keeps portal sessions in Redis under
// portal:session:<id>, expiring together with the session token.
type SessionCacheRepository struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewSessionCacheRepository constructs the repository. A zero ttl keeps keys until logout.
func NewSessionCacheRepository(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *SessionCacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionCacheRepository{client: client, ttl: ttl, logger: logger}
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

// Save stores the session as JSON.
func (r *SessionCacheRepository) Save(ctx context.Context, session *models.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(session.ID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Get loads one session. Missing and undecodable keys yield appErrors.ErrNotFound.
func (r *SessionCacheRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	session, err := r.load(ctx, sessionKey(id))
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, appErrors.ErrNotFound
	}
	return session, nil
}

// Delete removes one session.
func (r *SessionCacheRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// List scans every session key, oldest session first. Keys that expire
// between SCAN and GET are skipped, undecodable ones are removed.
func (r *SessionCacheRepository) List(ctx context.Context) ([]models.Session, error) {
	var sessions []models.Session
	iter := r.client.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		session, err := r.load(ctx, iter.Val())
		if err != nil {
			return nil, err
		}
		if session != nil {
			sessions = append(sessions, *session)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan sessions: %w", err)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].CreatedAt.Before(sessions[j].CreatedAt) })
	return sessions, nil
}

// load returns nil without error when key is absent or was dropped.
func (r *SessionCacheRepository) load(ctx context.Context, key string) (*models.Session, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		r.logger.Warn("dropping undecodable session", zap.String("key", key), zap.Error(err))
		if err := r.client.Del(ctx, key).Err(); err != nil {
			r.logger.Warn("failed to drop session key", zap.String("key", key), zap.Error(err))
		}
		return nil, nil
	}
	return &session, nil
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
)

const catalogScanBatch = 200

// CacheRepository is the Redis side of the catalog cache. Values are stored
// as JSON; a nil client turns every call into a miss or no-op.
type CacheRepository struct {
	client redis.UniversalClient
	logger *zap.Logger
}

// NewCacheRepository wraps client for catalog lookups.
func NewCacheRepository(client redis.UniversalClient, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, logger: logger}
}

// Get decodes key into dest. Absent keys yield appErrors.ErrCacheMiss.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}
	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return appErrors.ErrCacheMiss
	case err != nil:
		return fmt.Errorf("read catalog cache %q: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// A payload from an older shape is treated as a miss and dropped.
		r.client.Del(ctx, key)
		r.logger.Warn("dropping undecodable catalog entry", zap.String("key", key), zap.Error(err))
		return appErrors.ErrCacheMiss
	}
	return nil
}

// Set stores value under key for ttl.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode catalog %q: %w", key, err)
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("write catalog cache %q: %w", key, err)
	}
	return nil
}

// DeleteByPattern unlinks every key matching pattern, one scan page at a time
// so large keyspaces never build a single huge command.
func (r *CacheRepository) DeleteByPattern(ctx context.Context, pattern string) error {
	if r.client == nil {
		return nil
	}
	var (
		cursor  uint64
		removed int64
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, catalogScanBatch).Result()
		if err != nil {
			return fmt.Errorf("scan catalog cache %q: %w", pattern, err)
		}
		if len(keys) > 0 {
			n, err := r.client.Unlink(ctx, keys...).Result()
			if err != nil {
				return fmt.Errorf("unlink catalog cache keys: %w", err)
			}
			removed += n
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	r.logger.Debug("catalog cache invalidated", zap.String("pattern", pattern), zap.Int64("keys", removed))
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/thesis-portal/internal/models"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
)

const catalogKeyPrefix = "portal:catalog:"

// CatalogCache abstracts the response cache for backend catalogs.
type CatalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type catalogBackend interface {
	Modalities(ctx context.Context) ([]models.Modality, error)
	ResearchLines(ctx context.Context) ([]models.ResearchLine, error)
	Areas(ctx context.Context) ([]models.ResearchArea, error)
	LinesByArea(ctx context.Context, areaID int64) ([]models.ResearchLine, error)
	StatusChangeEvents(ctx context.Context) ([]models.StatusChangeEvent, error)
	Statuses(ctx context.Context) ([]models.StatusInfo, error)
}

// CatalogService serves the read-mostly backend catalogs used by the project
// creation form and the status-change modal, through an optional Redis cache.
type CatalogService struct {
	backend catalogBackend
	cache   CatalogCache
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCatalogService constructs the service. A nil cache or enabled=false
// sends every call to the backend.
func NewCatalogService(backend catalogBackend, cache CatalogCache, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CatalogService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{backend: backend, cache: cache, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// CacheEnabled indicates whether responses are cached.
func (s *CatalogService) CacheEnabled() bool {
	return s != nil && s.enabled && s.cache != nil
}

func (s *CatalogService) Modalities(ctx context.Context) ([]models.Modality, error) {
	var out []models.Modality
	err := s.cached(ctx, "modalidades", &out, func(ctx context.Context) (interface{}, error) {
		return s.backend.Modalities(ctx)
	})
	return out, err
}

func (s *CatalogService) ResearchLines(ctx context.Context) ([]models.ResearchLine, error) {
	var out []models.ResearchLine
	err := s.cached(ctx, "lineas", &out, func(ctx context.Context) (interface{}, error) {
		return s.backend.ResearchLines(ctx)
	})
	return out, err
}

func (s *CatalogService) Areas(ctx context.Context) ([]models.ResearchArea, error) {
	var out []models.ResearchArea
	err := s.cached(ctx, "areas", &out, func(ctx context.Context) (interface{}, error) {
		return s.backend.Areas(ctx)
	})
	return out, err
}

func (s *CatalogService) LinesByArea(ctx context.Context, areaID int64) ([]models.ResearchLine, error) {
	var out []models.ResearchLine
	err := s.cached(ctx, fmt.Sprintf("lineas:area:%d", areaID), &out, func(ctx context.Context) (interface{}, error) {
		return s.backend.LinesByArea(ctx, areaID)
	})
	return out, err
}

// StatusChangeEvents lists the events an administrator may apply. The
// backend decides which event is legal for a given project.
func (s *CatalogService) StatusChangeEvents(ctx context.Context) ([]models.StatusChangeEvent, error) {
	var out []models.StatusChangeEvent
	err := s.cached(ctx, "eventos-cambio-estado", &out, func(ctx context.Context) (interface{}, error) {
		return s.backend.StatusChangeEvents(ctx)
	})
	return out, err
}

func (s *CatalogService) Statuses(ctx context.Context) ([]models.StatusInfo, error) {
	var out []models.StatusInfo
	err := s.cached(ctx, "estados", &out, func(ctx context.Context) (interface{}, error) {
		return s.backend.Statuses(ctx)
	})
	return out, err
}

// Invalidate drops every cached catalog.
func (s *CatalogService) Invalidate(ctx context.Context) error {
	if !s.CacheEnabled() {
		return nil
	}
	if err := s.cache.DeleteByPattern(ctx, catalogKeyPrefix+"*"); err != nil {
		s.logger.Warn("catalog cache invalidate failed", zap.Error(err))
		return err
	}
	return nil
}

// cached reads key into dest, or calls load and stores its result. Cache
// failures degrade to a direct backend read.
func (s *CatalogService) cached(ctx context.Context, key string, dest interface{}, load func(context.Context) (interface{}, error)) error {
	key = catalogKeyPrefix + key
	if s.CacheEnabled() {
		err := s.cache.Get(ctx, key, dest)
		switch {
		case err == nil:
			s.metrics.RecordCacheLookup(true)
			return nil
		case errors.Is(err, appErrors.ErrCacheMiss):
			s.metrics.RecordCacheLookup(false)
		default:
			s.metrics.RecordCacheLookup(false)
			s.logger.Warn("catalog cache get failed", zap.String("key", key), zap.Error(err))
		}
	}

	value, err := load(ctx)
	if err != nil {
		return err
	}
	if err := assign(dest, value); err != nil {
		return err
	}
	if s.CacheEnabled() {
		if err := s.cache.Set(ctx, key, dest, s.ttl); err != nil {
			s.logger.Warn("catalog cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

func assign(dest, value interface{}) error {
	switch d := dest.(type) {
	case *[]models.Modality:
		*d = orEmpty(value.([]models.Modality))
	case *[]models.ResearchLine:
		*d = orEmpty(value.([]models.ResearchLine))
	case *[]models.ResearchArea:
		*d = orEmpty(value.([]models.ResearchArea))
	case *[]models.StatusChangeEvent:
		*d = orEmpty(value.([]models.StatusChangeEvent))
	case *[]models.StatusInfo:
		*d = orEmpty(value.([]models.StatusInfo))
	default:
		return fmt.Errorf("unsupported catalog destination %T", dest)
	}
	return nil
}

func orEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

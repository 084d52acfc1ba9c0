package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/thesis-portal/internal/models"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
)

type memoryCatalogCache struct {
	data   map[string][]byte
	getErr error
	sets   int
}

func newMemoryCatalogCache() *memoryCatalogCache {
	return &memoryCatalogCache{data: map[string][]byte{}}
}

func (m *memoryCatalogCache) Get(_ context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCatalogCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.sets++
	m.data[key] = raw
	return nil
}

func (m *memoryCatalogCache) DeleteByPattern(_ context.Context, _ string) error {
	m.data = map[string][]byte{}
	return nil
}

type fakeCatalogBackend struct {
	modalities []models.Modality
	events     []models.StatusChangeEvent
	err        error
	calls      int
}

func (f *fakeCatalogBackend) Modalities(context.Context) ([]models.Modality, error) {
	f.calls++
	return f.modalities, f.err
}

func (f *fakeCatalogBackend) ResearchLines(context.Context) ([]models.ResearchLine, error) {
	f.calls++
	return nil, f.err
}

func (f *fakeCatalogBackend) Areas(context.Context) ([]models.ResearchArea, error) {
	f.calls++
	return nil, f.err
}

func (f *fakeCatalogBackend) LinesByArea(context.Context, int64) ([]models.ResearchLine, error) {
	f.calls++
	return nil, f.err
}

func (f *fakeCatalogBackend) StatusChangeEvents(context.Context) ([]models.StatusChangeEvent, error) {
	f.calls++
	return f.events, f.err
}

func (f *fakeCatalogBackend) Statuses(context.Context) ([]models.StatusInfo, error) {
	f.calls++
	return nil, f.err
}

func TestCatalogServiceServesSecondReadFromCache(t *testing.T) {
	backend := &fakeCatalogBackend{modalities: []models.Modality{{ID: 1, Nombre: "Trabajo de grado"}}}
	cache := newMemoryCatalogCache()
	svc := NewCatalogService(backend, cache, NewMetricsService(), time.Minute, nil, true)

	first, err := svc.Modalities(context.Background())
	require.NoError(t, err)
	second, err := svc.Modalities(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, backend.calls)
	assert.Equal(t, 1, cache.sets)
}

func TestCatalogServiceDisabledCacheAlwaysCallsBackend(t *testing.T) {
	backend := &fakeCatalogBackend{events: []models.StatusChangeEvent{{ID: 7, Nombre: "Aprobar formato"}}}
	svc := NewCatalogService(backend, newMemoryCatalogCache(), nil, time.Minute, nil, false)

	_, err := svc.StatusChangeEvents(context.Background())
	require.NoError(t, err)
	_, err = svc.StatusChangeEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, backend.calls)
}

func TestCatalogServiceDegradesOnCacheFailure(t *testing.T) {
	backend := &fakeCatalogBackend{}
	cache := newMemoryCatalogCache()
	cache.getErr = errors.New("redis down")
	svc := NewCatalogService(backend, cache, nil, time.Minute, nil, true)

	lines, err := svc.ResearchLines(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, lines)
	assert.Empty(t, lines)
}

func TestCatalogServicePropagatesBackendError(t *testing.T) {
	backend := &fakeCatalogBackend{err: appErrors.Clone(appErrors.ErrBackend, "Error al obtener modalidades")}
	cache := newMemoryCatalogCache()
	svc := NewCatalogService(backend, cache, nil, time.Minute, nil, true)

	_, err := svc.Modalities(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, cache.sets)
}

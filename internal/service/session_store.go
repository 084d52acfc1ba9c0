package service

import (
	"context"
	"sort"
	"sync"

	"github.com/noah-isme/thesis-portal/internal/models"
	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
)

// MemorySessionStore keeps sessions in process memory. Sessions do not
// survive a restart; used for development and tests.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

// NewMemorySessionStore constructs an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]models.Session)}
}

// Save upserts a session.
func (s *MemorySessionStore) Save(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	return nil
}

// Get returns a session or appErrors.ErrNotFound.
func (s *MemorySessionStore) Get(_ context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return &session, nil
}

// Delete removes a session; missing ids are ignored.
func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// List returns every stored session ordered by creation time.
func (s *MemorySessionStore) List(_ context.Context) ([]models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

package service

import (
	"sync"

	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
)

// mutationGuard rejects a second identical mutation of a session while the
// first one is still running.
type mutationGuard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

func newMutationGuard() *mutationGuard {
	return &mutationGuard{inflight: make(map[string]struct{})}
}

// acquire reserves key and returns its release func.
func (g *mutationGuard) acquire(key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inflight[key]; busy {
		return nil, appErrors.Clone(appErrors.ErrConflict, "la acción ya está en curso")
	}
	g.inflight[key] = struct{}{}
	return func() {
		g.mu.Lock()
		delete(g.inflight, key)
		g.mu.Unlock()
	}, nil
}

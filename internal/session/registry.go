// Package session maps authenticated identities to their in-memory
// repository and calendar cursor, loading each lazily on first use.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ayumi-hirano/schedcal/internal/repository"
	"github.com/ayumi-hirano/schedcal/internal/view"
	"github.com/ayumi-hirano/schedcal/libs/kv"
)

// Listener is invoked after a session becomes active (loaded into the
// registry) or inactive (evicted). Callbacks run synchronously under the
// registry lock, so they must be quick.
type Listener func(identity string, active bool)

type Session struct {
	Identity string
	Repo     *repository.Repository
	View     *view.Controller
}

type Registry struct {
	store  kv.Store
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	sessions  map[string]*Session
	listeners []Listener
}

func NewRegistry(store kv.Store, logger *slog.Logger) *Registry {
	return &Registry{
		store:    store,
		logger:   logger,
		now:      time.Now,
		sessions: map[string]*Session{},
	}
}

// Subscribe registers a listener for session lifecycle changes.
func (g *Registry) Subscribe(l Listener) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, l)
}

// Get returns the identity's session, loading its persisted state on first
// access.
func (g *Registry) Get(ctx context.Context, identity string) (*Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if s, ok := g.sessions[identity]; ok {
		return s, nil
	}

	repo, err := repository.Load(ctx, g.store, identity, g.logger)
	if err != nil {
		return nil, err
	}
	s := &Session{
		Identity: identity,
		Repo:     repo,
		View:     view.NewController(g.now()),
	}
	g.sessions[identity] = s
	g.logger.Info("session loaded", "identity", identity)
	for _, l := range g.listeners {
		l(identity, true)
	}
	return s, nil
}

// Evict drops the identity's in-memory state, typically on logout. Persisted
// data is untouched; the next Get reloads it.
func (g *Registry) Evict(identity string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.sessions[identity]; !ok {
		return
	}
	delete(g.sessions, identity)
	g.logger.Info("session evicted", "identity", identity)
	for _, l := range g.listeners {
		l(identity, false)
	}
}

// Active reports whether the identity currently has a loaded session.
func (g *Registry) Active(identity string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.sessions[identity]
	return ok
}

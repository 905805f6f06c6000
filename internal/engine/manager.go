package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dungeonworks/storyteller/internal/store"
)

const DefaultIdleTimeout = 30 * time.Minute

// Manager hands out one engine per user and retires engines that have gone
// idle. Its Tick method plugs into the driver loop.
type Manager struct {
	store store.SessionStore
	gen   Generator

	idleTimeout time.Duration
	engineOpts  []Opt
	now         func() time.Time
	logger      *slog.Logger

	mu      sync.Mutex
	engines map[string]*Engine
}

type ManagerOpt func(*Manager)

// WithIdleTimeout sets how long an engine may sit untouched before the sweep
// closes it.
func WithIdleTimeout(d time.Duration) ManagerOpt {
	return func(m *Manager) { m.idleTimeout = d }
}

// WithEngineOpts forwards options to every engine the manager creates.
func WithEngineOpts(opts ...Opt) ManagerOpt {
	return func(m *Manager) { m.engineOpts = opts }
}

func WithManagerClock(now func() time.Time) ManagerOpt {
	return func(m *Manager) { m.now = now }
}

func WithManagerLogger(logger *slog.Logger) ManagerOpt {
	return func(m *Manager) { m.logger = logger }
}

func NewManager(s store.SessionStore, gen Generator, opts ...ManagerOpt) *Manager {
	m := &Manager{
		store:       s,
		gen:         gen,
		idleTimeout: DefaultIdleTimeout,
		now:         time.Now,
		logger:      slog.Default(),
		engines:     map[string]*Engine{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Engine returns the engine for userID, creating it on first use.
func (m *Manager) Engine(userID string) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.engines[userID]; ok {
		return e
	}

	opts := append([]Opt{WithClock(m.now)}, m.engineOpts...)
	e := New(userID, m.store, m.gen, opts...)
	m.engines[userID] = e
	return e
}

// Release closes and forgets the engine for userID, if any. The session
// document stays in the store.
func (m *Manager) Release(userID string) {
	m.mu.Lock()
	e, ok := m.engines[userID]
	delete(m.engines, userID)
	m.mu.Unlock()

	if ok {
		e.Close()
	}
}

// Count returns the number of live engines.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.engines)
}

// Tick sweeps engines whose last activity is older than the idle timeout.
// Engines mid-generation are left alone regardless of age.
func (m *Manager) Tick(ctx context.Context) error {
	cutoff := m.now().Add(-m.idleTimeout)

	m.mu.Lock()
	var idle []*Engine
	var ids []string
	for id, e := range m.engines {
		if e.State() == StateGenerating {
			continue
		}
		if e.LastActive().Before(cutoff) {
			idle = append(idle, e)
			ids = append(ids, id)
			delete(m.engines, id)
		}
	}
	m.mu.Unlock()

	for i, e := range idle {
		e.Close()
		m.logger.Info("closed idle session engine", "user", ids[i])
	}
	return nil
}

// CloseAll closes every engine. Used at shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	engines := make([]*Engine, 0, len(m.engines))
	for _, e := range m.engines {
		engines = append(engines, e)
	}
	m.engines = map[string]*Engine{}
	m.mu.Unlock()

	for _, e := range engines {
		e.Close()
	}
}

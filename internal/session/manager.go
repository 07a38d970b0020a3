package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/denuncia-map-service/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Manager creates, tracks and expires sessions. Sessions never share
// collections; each one loads its own snapshot.
type Manager struct {
	source      string
	loader      Loader
	defaults    MapDefaults
	idleTimeout time.Duration
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics

	mu       sync.Mutex
	sessions map[string]*tracked
}

type tracked struct {
	session  *Session
	lastSeen time.Time
}

// ManagerConfig groups the Manager dependencies.
type ManagerConfig struct {
	Source      string
	Loader      Loader
	Defaults    MapDefaults
	IdleTimeout time.Duration
	// Clock defaults to real time when nil.
	Clock   clockwork.Clock
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// NewManager creates an empty Manager.
func NewManager(cfg ManagerConfig) *Manager {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Manager{
		source:      cfg.Source,
		loader:      cfg.Loader,
		defaults:    cfg.Defaults,
		idleTimeout: cfg.IdleTimeout,
		clock:       clock,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
		sessions:    make(map[string]*tracked),
	}
}

// Create registers a new session and runs its first load. The session is
// returned even when that load fails so the caller can retry with Reload.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	id := uuid.NewString()
	s := New(id, m.source, m.loader, m.defaults, m.logger, m.metrics)

	m.mu.Lock()
	m.sessions[id] = &tracked{session: s, lastSeen: m.clock.Now()}
	m.metrics.ActiveSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	m.logger.Info("session created", "session_id", id)
	return s, s.Reload(ctx, false)
}

// Get returns the session with id and marks it active.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	t.lastSeen = m.clock.Now()
	return t.session, true
}

// End discards a session and its state. It reports whether id existed.
func (m *Manager) End(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	m.metrics.ActiveSessions.Set(float64(len(m.sessions)))
	m.logger.Info("session ended", "session_id", id)
	return true
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep ends every session idle for at least the idle timeout and returns how
// many were removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	removed := 0
	for id, t := range m.sessions {
		if now.Sub(t.lastSeen) >= m.idleTimeout {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.metrics.ActiveSessions.Set(float64(len(m.sessions)))
		m.logger.Info("idle sessions expired", "removed", removed, "active", len(m.sessions))
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is cancelled.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := m.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			m.Sweep()
		}
	}
}

package mapview

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chid93/next-gen-prf/internal/geo"
	"github.com/chid93/next-gen-prf/internal/model"
)

// Manager opens and closes sessions that share one resolver.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	resolver *geo.Resolver
	opts     Options
}

// NewManager creates a manager.
func NewManager(resolver *geo.Resolver, opts Options) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		resolver: resolver,
		opts:     opts,
	}
}

// Options returns the options applied to new sessions.
func (m *Manager) Options() Options { return m.opts }

// Open creates a session bound to view and sends its initial commands.
func (m *Manager) Open(view View) *Session {
	return m.OpenWithID(uuid.NewString(), view, nil)
}

// OpenWithID opens a session under a caller-chosen id and replays
// previously stored markers into it. An existing session with the same
// id is closed first.
func (m *Manager) OpenWithID(id string, view View, markers []model.Marker) *Session {
	s := newSession(id, m.resolver, view, m.opts)
	s.open()
	if len(markers) > 0 {
		s.restore(markers)
	}

	m.mu.Lock()
	prev := m.sessions[id]
	m.sessions[id] = s
	m.mu.Unlock()

	if prev != nil {
		prev.close()
	}

	zap.L().Debug("mapview: session opened",
		zap.String("session_id", id),
		zap.Int("restored_markers", len(markers)),
	)
	return s
}

// Get returns an open session.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close tears down a session. Unknown ids return false.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return false
	}
	s.close()
	zap.L().Debug("mapview: session closed", zap.String("session_id", id))
	return true
}

// CloseAll tears down every open session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		s.close()
	}
	if len(all) > 0 {
		zap.L().Info("mapview: closed sessions", zap.Int("count", len(all)))
	}
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

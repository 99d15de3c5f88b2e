package ticker

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/JonasKimmer/liveticker-eintracht/internal/log"
)

// ErrNoSession is returned when an operation needs an active session
// but none exists.
var ErrNoSession = errors.New("no active ticker session")

// Manager owns the one active session of the process. Switching the
// match closes the previous session wholesale (timers, in-flight set,
// selection) before the new one starts, so no state leaks across
// matches.
type Manager struct {
	src  DataSource
	opts Options

	mu      sync.Mutex
	current *Session
}

// NewManager creates a manager; opts is the template every session is
// created with.
func NewManager(src DataSource, opts Options) *Manager {
	return &Manager{src: src, opts: opts}
}

// Activate starts a session for the match, tearing down any previous
// one. Re-activating the current match returns the running session.
// The previous session's teardown and the new session's initial load
// run outside the manager lock, so Current never blocks on a slow
// backend during a match switch.
func (m *Manager) Activate(matchID int) *Session {
	m.mu.Lock()
	if m.current != nil && m.current.MatchID() == matchID {
		session := m.current
		m.mu.Unlock()
		return session
	}
	previous := m.current
	session := NewSession(matchID, m.src, m.opts)
	m.current = session
	m.mu.Unlock()

	if previous != nil {
		log.Info("Switching match",
			zap.Int("from", previous.MatchID()),
			zap.Int("to", matchID),
		)
		previous.Close()
	}
	session.Start()
	return session
}

// Deactivate closes the active session, if any.
func (m *Manager) Deactivate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.Close()
		m.current = nil
	}
}

// Current returns the active session, or ErrNoSession.
func (m *Manager) Current() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, ErrNoSession
	}
	return m.current, nil
}

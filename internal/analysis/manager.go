package analysis

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/tphakala/pugmark/internal/errors"
	"github.com/tphakala/pugmark/internal/logger"
	"github.com/tphakala/pugmark/internal/upload"
)

// session owns at most one run at a time.
type session struct {
	id     string
	mu     sync.Mutex
	run    *Run
	closed bool
}

// discardRunLocked cancels the current run and releases its file content.
func (s *session) discardRunLocked() {
	if s.run == nil {
		return
	}
	s.run.Cancel()
	s.run.File().Release()
	s.run = nil
}

// Manager keeps one run per session. Idle sessions expire after the TTL
// and expiry cancels their run.
type Manager struct {
	engine   *Engine
	sessions *cache.Cache

	ctx    context.Context
	stop   context.CancelFunc
	mu     sync.RWMutex
	closed bool
}

// NewManager creates a session manager. Session lifetime is extended on
// every access.
func NewManager(engine *Engine, ttl, cleanupInterval time.Duration) *Manager {
	ctx, stop := context.WithCancel(context.Background())
	m := &Manager{
		engine:   engine,
		sessions: cache.New(ttl, cleanupInterval),
		ctx:      ctx,
		stop:     stop,
	}
	m.sessions.OnEvicted(m.evict)
	return m
}

func (m *Manager) evict(id string, value any) {
	s, ok := value.(*session)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.discardRunLocked()

	GetLogger().Debug("session closed", logger.String("session_id", id))
}

// Open creates a new empty session and returns its id.
func (m *Manager) Open() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", errShutdown()
	}

	id := uuid.NewString()
	m.sessions.SetDefault(id, &session{id: id})
	GetLogger().Debug("session opened", logger.String("session_id", id))
	return id, nil
}

// lookup returns the live session and extends its lifetime.
func (m *Manager) lookup(id string) (*session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, errShutdown()
	}

	value, ok := m.sessions.Get(id)
	if !ok {
		return nil, errSessionNotFound(id)
	}
	s, ok := value.(*session)
	if !ok {
		return nil, errSessionNotFound(id)
	}

	m.sessions.SetDefault(id, s)
	return s, nil
}

// Submit replaces the session's run with a new run for file. The previous
// run is cancelled, and its goroutine has exited, before the new run's
// timers are armed.
func (m *Manager) Submit(sessionID string, file *upload.File) (*Run, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errSessionNotFound(sessionID)
	}

	if prev := s.run; prev != nil {
		prev.Cancel()
		if prev.File() != file {
			prev.File().Release()
		}
		s.run = nil
	}

	run, err := m.engine.Start(m.ctx, sessionID, file)
	if err != nil {
		return nil, err
	}
	s.run = run
	return run, nil
}

// Current returns the session's run.
func (m *Manager) Current(sessionID string) (*Run, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		return nil, errSessionNotFound(sessionID)
	case s.run == nil:
		return nil, errors.Newf("session has no run").
			Category(errors.CategoryNotFound).
			Component("analysis").
			Build()
	}
	return s.run, nil
}

// Reset discards the session's run, if any. The session stays open.
func (m *Manager) Reset(sessionID string) error {
	s, err := m.lookup(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSessionNotFound(sessionID)
	}
	s.discardRunLocked()
	return nil
}

// Close discards the session and its run.
func (m *Manager) Close(sessionID string) error {
	if _, err := m.lookup(sessionID); err != nil {
		return err
	}
	m.sessions.Delete(sessionID)
	return nil
}

// Len returns the number of open sessions, including expired sessions not
// yet cleaned up.
func (m *Manager) Len() int {
	return m.sessions.ItemCount()
}

// Shutdown cancels every run and closes every session. Further calls fail.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.stop()
	for id := range m.sessions.Items() {
		m.sessions.Delete(id)
	}
	m.sessions.DeleteExpired()
}

func errSessionNotFound(id string) error {
	return errors.Newf("session not found").
		Category(errors.CategoryNotFound).
		Component("analysis").
		Context("session_id", id).
		Build()
}

func errShutdown() error {
	return errors.Newf("analysis manager is shut down").
		Category(errors.CategoryState).
		Component("analysis").
		Build()
}

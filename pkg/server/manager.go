package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/loomui/loom/pkg/loom"
)

// SessionManager tracks live sessions and evicts the ones a client has
// abandoned.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cfg    *Config
	render loom.RenderFunc
}

// NewSessionManager creates an empty manager for the given root render.
func NewSessionManager(render loom.RenderFunc, cfg *Config) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		render:   render,
	}
}

// Create mounts a fresh session. Persisted cell values for resumed
// sessions come through seeds; pass nil for a cold start.
func (m *SessionManager) Create(ctx context.Context, seeds []loom.Seed) (*Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}

	sess, err := newSession(id, m.render, seeds, m.cfg)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()

	if m.cfg.Metrics != nil {
		m.cfg.Metrics.ActiveSessions.Inc()
	}
	return sess, nil
}

// Resume recreates a session from its persisted snapshot, falling back
// to a cold start when no snapshot exists.
func (m *SessionManager) Resume(ctx context.Context, sessionID string) (*Session, error) {
	seeds := loadSeeds(ctx, m.cfg.Store, sessionID)
	return m.Create(ctx, seeds)
}

// Get returns a session by ID.
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// Remove closes and unregisters a session.
func (m *SessionManager) Remove(id string) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return
	}
	sess.Close()
	if m.cfg.Metrics != nil {
		m.cfg.Metrics.ActiveSessions.Dec()
	}
}

// Len reports the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep runs the TTL eviction loop until ctx is canceled.
func (m *SessionManager) Sweep(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *SessionManager) evictIdle() {
	cutoff := time.Now().Add(-m.cfg.SessionTTL)

	m.mu.RLock()
	var expired []string
	for id, sess := range m.sessions {
		if sess.idleSince().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range expired {
		m.cfg.Logger.Info("session expired", "session", id)
		m.Remove(id)
	}
}

// CloseAll tears down every session, for server shutdown.
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
		if m.cfg.Metrics != nil {
			m.cfg.Metrics.ActiveSessions.Dec()
		}
	}
}

func newSessionID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

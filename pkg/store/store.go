// Package store persists session snapshots so a reconnecting client can
// resume with its serializable state cells restored. Backends share one
// narrow interface; the server never cares which one is configured.
package store

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when no snapshot exists for a session ID.
var ErrNotFound = errors.New("store: snapshot not found")

// Snapshot is one serialized session state blob. Data is opaque to the
// store; the server owns its encoding.
type Snapshot struct {
	SessionID string    `json:"session_id"`
	Data      []byte    `json:"data"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store saves and restores session snapshots.
type Store interface {
	// Save writes the snapshot, replacing any previous one for the same
	// session ID.
	Save(ctx context.Context, snap *Snapshot) error

	// Load returns the snapshot for the session ID, or ErrNotFound.
	Load(ctx context.Context, sessionID string) (*Snapshot, error)

	// Delete removes the snapshot for the session ID. Deleting a missing
	// snapshot is not an error.
	Delete(ctx context.Context, sessionID string) error

	// Close releases backend resources.
	Close() error
}

// MemStore is an in-memory Store for tests and development.
type MemStore struct {
	mu    sync.RWMutex
	snaps map[string]*Snapshot
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{snaps: make(map[string]*Snapshot)}
}

// Save implements Store.
func (m *MemStore) Save(_ context.Context, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *snap
	cp.Data = append([]byte(nil), snap.Data...)
	m.snaps[snap.SessionID] = &cp
	return nil
}

// Load implements Store.
func (m *MemStore) Load(_ context.Context, sessionID string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.snaps[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *snap
	cp.Data = append([]byte(nil), snap.Data...)
	return &cp, nil
}

// Delete implements Store.
func (m *MemStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, sessionID)
	return nil
}

// Close implements Store.
func (m *MemStore) Close() error {
	return nil
}

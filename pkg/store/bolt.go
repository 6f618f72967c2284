package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketSnapshots = "snapshots"

// BoltStore persists snapshots in a local bbolt database. Suitable for
// single-node deployments; the database file is created on open.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the database at path and ensures the
// snapshot bucket exists.
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketSnapshots))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init bolt db: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Save implements Store.
func (s *BoltStore) Save(_ context.Context, snap *Snapshot) error {
	value, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("store: marshal snapshot: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketSnapshots))
		return b.Put([]byte(snap.SessionID), value)
	})
}

// Load implements Store.
func (s *BoltStore) Load(_ context.Context, sessionID string) (*Snapshot, error) {
	var snap *Snapshot

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketSnapshots))
		v := b.Get([]byte(sessionID))
		if v == nil {
			return ErrNotFound
		}
		snap = &Snapshot{}
		return json.Unmarshal(v, snap)
	})
	if err != nil {
		return nil, err
	}

	return snap, nil
}

// Delete implements Store.
func (s *BoltStore) Delete(_ context.Context, sessionID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketSnapshots))
		return b.Delete([]byte(sessionID))
	})
}

// Close implements Store.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Package memory provides an in-process ledger store for tests and local play.
package memory

import (
	"bytes"
	"context"
	"sync"

	"alpha-duel/sdk"
)

// Store keeps ledger entries in a map.
type Store struct {
	mu      sync.RWMutex
	entries map[string]sdk.Entry
}

// New returns an empty store.
func New() *Store {
	return &Store{entries: map[string]sdk.Entry{}}
}

// Get returns the live entry under key.
func (s *Store) Get(ctx context.Context, key sdk.Key, ledger uint32) (sdk.Entry, error) {
	if err := ctx.Err(); err != nil {
		return sdk.Entry{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key.String()]
	if !ok || entry.Expired(ledger) {
		return sdk.Entry{}, sdk.ErrNotFound
	}
	return sdk.Entry{Value: bytes.Clone(entry.Value), LiveUntil: entry.LiveUntil}, nil
}

// Commit applies all changes under one lock.
func (s *Store) Commit(ctx context.Context, changes []sdk.Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range changes {
		s.entries[c.Key.String()] = sdk.Entry{Value: bytes.Clone(c.Value), LiveUntil: c.LiveUntil}
	}
	return nil
}

// PurgeExpired drops entries whose lease ended before ledger and returns how many.
func (s *Store) PurgeExpired(ctx context.Context, ledger uint32) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, e := range s.entries {
		if e.Expired(ledger) {
			delete(s.entries, k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored entries, live or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ sdk.Store = (*Store)(nil)

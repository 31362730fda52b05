package sdk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
)

// State buffers the reads and writes of one invocation on top of a Store.
// Nothing reaches the Store until the host commits Changes.
type State struct {
	store  Store
	ledger uint32
	slots  map[string]*slot
	order  []string
}

type slot struct {
	key    Key
	entry  Entry
	exists bool
	dirty  bool
}

// NewState opens an overlay over store as seen at ledger.
func NewState(store Store, ledger uint32) *State {
	return &State{store: store, ledger: ledger, slots: map[string]*slot{}}
}

// Ledger returns the sequence the invocation executes at.
func (s *State) Ledger() uint32 { return s.ledger }

func (s *State) load(ctx context.Context, key Key) (*slot, error) {
	id := key.String()
	if sl, ok := s.slots[id]; ok {
		return sl, nil
	}
	sl := &slot{key: key}
	entry, err := s.store.Get(ctx, key, s.ledger)
	switch {
	case err == nil:
		if !entry.Expired(s.ledger) {
			sl.entry = entry
			sl.exists = true
		}
	case errors.Is(err, ErrNotFound):
	default:
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	s.slots[id] = sl
	return sl, nil
}

// Get returns a copy of the value under key and whether it exists.
func (s *State) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	sl, err := s.load(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !sl.exists {
		return nil, false, nil
	}
	return bytes.Clone(sl.entry.Value), true, nil
}

// Has reports whether key holds a live entry.
func (s *State) Has(ctx context.Context, key Key) (bool, error) {
	sl, err := s.load(ctx, key)
	if err != nil {
		return false, err
	}
	return sl.exists, nil
}

// Set writes value under key. A new temporary entry starts with
// MinTemporaryLease; an existing one keeps its lease.
func (s *State) Set(ctx context.Context, key Key, value []byte) error {
	sl, err := s.load(ctx, key)
	if err != nil {
		return err
	}
	if !sl.exists {
		sl.entry.LiveUntil = 0
		if key.Temporary() {
			sl.entry.LiveUntil = s.ledger + MinTemporaryLease
		}
	}
	sl.exists = true
	sl.entry.Value = bytes.Clone(value)
	s.markDirty(sl)
	return nil
}

// ExtendLease pushes the lease of a temporary entry to ledger+extendTo when
// fewer than threshold ledgers remain. Instance entries are left alone.
func (s *State) ExtendLease(ctx context.Context, key Key, threshold, extendTo uint32) error {
	sl, err := s.load(ctx, key)
	if err != nil {
		return err
	}
	if !sl.exists {
		return fmt.Errorf("extend lease %s: %w", key, ErrNotFound)
	}
	if !key.Temporary() {
		return nil
	}
	var remaining uint32
	if sl.entry.LiveUntil > s.ledger {
		remaining = sl.entry.LiveUntil - s.ledger
	}
	if remaining >= threshold {
		return nil
	}
	sl.entry.LiveUntil = s.ledger + extendTo
	s.markDirty(sl)
	return nil
}

// LiveUntil returns the lease of key, zero when missing or without expiry.
func (s *State) LiveUntil(ctx context.Context, key Key) (uint32, error) {
	sl, err := s.load(ctx, key)
	if err != nil {
		return 0, err
	}
	if !sl.exists {
		return 0, nil
	}
	return sl.entry.LiveUntil, nil
}

func (s *State) markDirty(sl *slot) {
	if sl.dirty {
		return
	}
	sl.dirty = true
	s.order = append(s.order, sl.key.String())
}

// Changes returns the buffered writes in first-write order.
func (s *State) Changes() []Change {
	out := make([]Change, 0, len(s.order))
	for _, id := range s.order {
		sl := s.slots[id]
		out = append(out, Change{
			Key:       sl.key,
			Value:     bytes.Clone(sl.entry.Value),
			LiveUntil: sl.entry.LiveUntil,
		})
	}
	return out
}

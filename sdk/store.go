package sdk

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Store when a key is missing or its lease ran out.
var ErrNotFound = errors.New("ledger entry not found")

// Entry is a stored value together with its lease.
// LiveUntil is the last ledger the entry is readable at; zero means no expiry.
type Entry struct {
	Value     []byte
	LiveUntil uint32
}

// Expired reports whether the entry is no longer live at ledger.
func (e Entry) Expired(ledger uint32) bool {
	return e.LiveUntil != 0 && e.LiveUntil < ledger
}

// Change is one buffered write produced by an invocation.
type Change struct {
	Key       Key
	Value     []byte
	LiveUntil uint32
}

// Store persists ledger entries. Commit must apply all changes or none.
type Store interface {
	Get(ctx context.Context, key Key, ledger uint32) (Entry, error)
	Commit(ctx context.Context, changes []Change) error
}

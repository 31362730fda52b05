// Package sdk is the host side of the contract: addresses, ledger keys and
// leases, the per-invocation state overlay and the serialized invocation host.
package sdk

import (
	"strconv"
	"strings"
)

// Address identifies an account or a contract.
type Address string

func (a Address) String() string { return string(a) }

// IsZero reports whether the address is empty after trimming.
func (a Address) IsZero() bool { return strings.TrimSpace(string(a)) == "" }

// KeyKind discriminates ledger keys.
type KeyKind uint8

const (
	KindSession  KeyKind = 1 // one game session, temporary
	KindAdmin    KeyKind = 2 // admin address, instance
	KindHub      KeyKind = 3 // escrow hub address, instance
	KindCodeHash KeyKind = 4 // deployed code hash, instance
	KindNonce    KeyKind = 5 // consumed authorization grant, temporary
)

// Key is a discriminated ledger key.
type Key struct {
	Kind    KeyKind
	Session uint32
	Name    string
}

func SessionKey(id uint32) Key { return Key{Kind: KindSession, Session: id} }
func AdminKey() Key            { return Key{Kind: KindAdmin} }
func HubKey() Key              { return Key{Kind: KindHub} }
func CodeHashKey() Key         { return Key{Kind: KindCodeHash} }
func NonceKey(id string) Key   { return Key{Kind: KindNonce, Name: id} }

// Temporary reports whether entries under this key expire with their lease.
// Instance entries live as long as the contract does.
func (k Key) Temporary() bool {
	return k.Kind == KindSession || k.Kind == KindNonce
}

// String renders the storage form of the key, e.g. "session:7".
func (k Key) String() string {
	switch k.Kind {
	case KindSession:
		return "session:" + strconv.FormatUint(uint64(k.Session), 10)
	case KindAdmin:
		return "admin"
	case KindHub:
		return "hub"
	case KindCodeHash:
		return "code_hash"
	case KindNonce:
		return "nonce:" + k.Name
	default:
		return "unknown:" + strconv.FormatUint(uint64(k.Kind), 10)
	}
}

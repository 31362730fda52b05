// Package commitment builds the 32-byte guess commitments players post
// before a proof-attested reveal.
//
// A commitment is blake3(domain || len(guess) || guess codes || salt), with
// integers big-endian. Players keep the guess and salt secret until the
// prover needs them.
package commitment

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/binary"
	"fmt"

	"lukechampine.com/blake3"
)

// Size is the commitment length in bytes.
const Size = 32

// SaltSize is the length of salts produced by NewSalt.
const SaltSize = 32

const domain = "alpha-duel/guess/v1"

// Commit returns the commitment to guess under salt.
func Commit(guess []uint32, salt []byte) [Size]byte {
	h := blake3.New(Size, nil)
	_, _ = h.Write([]byte(domain))
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(len(guess)))
	_, _ = h.Write(buf[:])
	for _, c := range guess {
		binary.BigEndian.PutUint32(buf[:], c)
		_, _ = h.Write(buf[:])
	}
	_, _ = h.Write(salt)

	var out [Size]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Verify reports whether c commits to guess under salt.
func Verify(c [Size]byte, guess []uint32, salt []byte) bool {
	want := Commit(guess, salt)
	return subtle.ConstantTimeCompare(c[:], want[:]) == 1
}

// NewSalt returns SaltSize random bytes.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("read salt: %w", err)
	}
	return salt, nil
}

// Package proof holds proof verifiers for attested winner resolution.
package proof

import (
	"context"
)

// PresenceVerifier accepts any non-empty proof with at least one public input.
// It stands in for a real circuit verifier and does not check the proof.
type PresenceVerifier struct {
	// MaxProofSize caps accepted proofs; zero means no limit.
	MaxProofSize int
}

// Verify reports whether proof and publicInputs are present and within size.
func (v PresenceVerifier) Verify(ctx context.Context, proof []byte, publicInputs []uint32) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if len(proof) == 0 || len(publicInputs) == 0 {
		return false, nil
	}
	if v.MaxProofSize > 0 && len(proof) > v.MaxProofSize {
		return false, nil
	}
	return true, nil
}

// Func adapts a function to a verifier.
type Func func(ctx context.Context, proof []byte, publicInputs []uint32) (bool, error)

// Verify calls f.
func (f Func) Verify(ctx context.Context, proof []byte, publicInputs []uint32) (bool, error) {
	return f(ctx, proof, publicInputs)
}

// Package contract implements the alpha duel game: two players stake points
// through an escrow hub, commit to secret guesses, and a winner is resolved
// either by loose letter matching or by an attested proof.
package contract

import (
	"context"

	apperrors "alpha-duel/internal/errors"
	"alpha-duel/internal/hub"
	"alpha-duel/sdk"
)

// Escrow locks stakes when a session starts and releases them when it ends.
type Escrow interface {
	StartGame(ctx context.Context, hubAddr sdk.Address, req hub.StartGameRequest) error
	EndGame(ctx context.Context, hubAddr sdk.Address, req hub.EndGameRequest) error
}

// ProofVerifier attests that proof supports publicInputs.
type ProofVerifier interface {
	Verify(ctx context.Context, proof []byte, publicInputs []uint32) (bool, error)
}

// Contract holds the collaborators shared by all entry points. Per-invocation
// state arrives through *sdk.Env.
type Contract struct {
	escrow   Escrow
	verifier ProofVerifier
}

// New returns a contract backed by escrow and verifier.
func New(escrow Escrow, verifier ProofVerifier) *Contract {
	return &Contract{escrow: escrow, verifier: verifier}
}

// requireAuth checks that addr authorized the running invocation for args.
func requireAuth(ctx context.Context, env *sdk.Env, addr sdk.Address, args ...string) error {
	if env.Auth == nil {
		return apperrors.New(apperrors.CodeUnauthorized, "no authorizer configured")
	}
	if err := env.Auth.RequireAuth(ctx, addr, args...); err != nil {
		if apperrors.CodeOf(err) != apperrors.CodeUnknown {
			return err
		}
		return apperrors.Wrap(apperrors.CodeUnauthorized, "authorization missing for "+addr.String(), err)
	}
	return nil
}

// loadAddress reads an instance config entry; a missing entry is NOT_INITIALIZED.
func loadAddress(ctx context.Context, env *sdk.Env, key sdk.Key) (sdk.Address, error) {
	v, ok, err := env.Storage.Get(ctx, key)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, "load "+key.String(), err)
	}
	if !ok {
		return "", apperrors.New(apperrors.CodeNotInitialized, key.String()+" not set")
	}
	return sdk.Address(v), nil
}

func storeAddress(ctx context.Context, env *sdk.Env, key sdk.Key, addr sdk.Address) error {
	if err := env.Storage.Set(ctx, key, []byte(addr)); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "store "+key.String(), err)
	}
	return nil
}

func loadAdmin(ctx context.Context, env *sdk.Env) (sdk.Address, error) {
	return loadAddress(ctx, env, sdk.AdminKey())
}

func loadHub(ctx context.Context, env *sdk.Env) (sdk.Address, error) {
	return loadAddress(ctx, env, sdk.HubKey())
}

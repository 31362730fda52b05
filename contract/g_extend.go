package contract

import (
	"context"

	apperrors "alpha-duel/internal/errors"
	"alpha-duel/sdk"
)

// ---------- Entry: Extend ----------
//
// Sessions are not renewed by guesses, commitments or resolution, so a long
// dispute can outlive the lease granted at creation. A participant can push
// the lease back out to a full GameLease from the current ledger.

// ExtendSession renews the session lease and returns the new last live ledger.
func (c *Contract) ExtendSession(ctx context.Context, env *sdk.Env, sessionID uint32, caller sdk.Address) (uint32, error) {
	if err := requireAuth(ctx, env, caller, u32String(sessionID)); err != nil {
		return 0, err
	}

	g, err := loadGame(ctx, env, sessionID)
	if err != nil {
		return 0, err
	}
	if !g.isPlayer(caller) {
		return 0, notParticipant(g, caller)
	}

	key := sdk.SessionKey(sessionID)
	if err := env.Storage.ExtendLease(ctx, key, GameLease, GameLease); err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInternal, "extend session lease", err)
	}
	liveUntil, err := env.Storage.LiveUntil(ctx, key)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInternal, "read session lease", err)
	}

	emitSessionExtended(env, sessionID, liveUntil)
	return liveUntil, nil
}

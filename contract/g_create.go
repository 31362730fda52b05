package contract

import (
	"context"

	apperrors "alpha-duel/internal/errors"
	"alpha-duel/internal/hub"
	"alpha-duel/sdk"
)

// ---------- Entry: Create ----------

// CreateSession locks both stakes on the escrow hub and stores a new session.
//
// Both players must authorize (sessionID, own stake). Nothing is written
// unless the hub accepted the stakes.
func (c *Contract) CreateSession(ctx context.Context, env *sdk.Env, sessionID uint32, p1, p2 sdk.Address, stake1, stake2 int64) (*Game, error) {
	if p1 == p2 {
		return nil, apperrors.New(apperrors.CodeInvalidParticipants,
			"player1 and player2 must be different addresses")
	}
	if stake1 < 0 || stake2 < 0 {
		return nil, apperrors.New(apperrors.CodeInvalidStake, "stakes must not be negative")
	}

	if err := requireAuth(ctx, env, p1, u32String(sessionID), i64String(stake1)); err != nil {
		return nil, err
	}
	if err := requireAuth(ctx, env, p2, u32String(sessionID), i64String(stake2)); err != nil {
		return nil, err
	}

	exists, err := env.Storage.Has(ctx, sdk.SessionKey(sessionID))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "check session", err)
	}
	if exists {
		return nil, apperrors.WithMetadata(apperrors.CodeSessionAlreadyExists,
			"session "+u32String(sessionID)+" already exists",
			map[string]string{"session_id": u32String(sessionID)})
	}

	hubAddr, err := loadHub(ctx, env)
	if err != nil {
		return nil, err
	}
	err = c.escrow.StartGame(ctx, hubAddr, hub.StartGameRequest{
		GameID:        env.Contract.String(),
		SessionID:     sessionID,
		Player1:       p1.String(),
		Player2:       p2.String(),
		Player1Points: stake1,
		Player2Points: stake2,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeEscrowFailed, "start game on hub "+hubAddr.String(), err)
	}

	g := &Game{
		SessionID:     sessionID,
		Player1:       p1,
		Player2:       p2,
		Player1Points: stake1,
		Player2Points: stake2,
		HiddenWordID:  sessionID % WordCount,
		CreatedLedger: env.Ledger(),
	}
	if err := saveGame(ctx, env, g); err != nil {
		return nil, err
	}
	if err := env.Storage.ExtendLease(ctx, sdk.SessionKey(sessionID), GameLease, GameLease); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "extend session lease", err)
	}

	emitSessionCreated(env, g)
	return g, nil
}

// ---------- Entry: Get ----------

// GetSession returns the stored session. It never writes.
func (c *Contract) GetSession(ctx context.Context, env *sdk.Env, sessionID uint32) (*Game, error) {
	return loadGame(ctx, env, sessionID)
}

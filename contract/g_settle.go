package contract

import (
	"context"

	apperrors "alpha-duel/internal/errors"
	"alpha-duel/internal/hub"
	"alpha-duel/sdk"
)

// ---------- Entry: Settle ----------

// SettleSession reports the recorded outcome to the escrow hub. Any caller
// holding a grant for the session may settle it, so relayers can finalize.
func (c *Contract) SettleSession(ctx context.Context, env *sdk.Env, sessionID uint32, caller sdk.Address) (bool, error) {
	if err := requireAuth(ctx, env, caller, u32String(sessionID)); err != nil {
		return false, err
	}

	g, err := loadGame(ctx, env, sessionID)
	if err != nil {
		return false, err
	}
	if !g.bothCommitted() {
		return false, apperrors.WithMetadata(apperrors.CodeBothPlayersNotCommitted, "both players must commit first",
			map[string]string{"session_id": u32String(sessionID)})
	}
	if g.Winner == nil {
		return false, apperrors.WithMetadata(apperrors.CodeWinnerNotDetermined, "winner not determined",
			map[string]string{"session_id": u32String(sessionID)})
	}
	if g.Settled {
		return false, apperrors.WithMetadata(apperrors.CodeSessionAlreadySettled, "session already settled",
			map[string]string{"session_id": u32String(sessionID)})
	}

	hubAddr, err := loadHub(ctx, env)
	if err != nil {
		return false, err
	}
	player1Won := *g.Winner == g.Player1
	if err := c.escrow.EndGame(ctx, hubAddr, hub.EndGameRequest{SessionID: sessionID, Player1Won: player1Won}); err != nil {
		return false, apperrors.Wrap(apperrors.CodeEscrowFailed, "end game on hub "+hubAddr.String(), err)
	}

	g.Settled = true
	if err := saveGame(ctx, env, g); err != nil {
		return false, err
	}
	emitSessionSettled(env, sessionID, player1Won, caller)
	return player1Won, nil
}

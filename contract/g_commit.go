package contract

import (
	"context"

	apperrors "alpha-duel/internal/errors"
	"alpha-duel/sdk"
)

// ---------- Entry: Commit ----------

// SubmitCommitment records player's commitment. Commitments do not depend on guesses.
func (c *Contract) SubmitCommitment(ctx context.Context, env *sdk.Env, sessionID uint32, player sdk.Address, commitment Commitment) error {
	if err := requireAuth(ctx, env, player, u32String(sessionID), commitment.String()); err != nil {
		return err
	}

	g, err := loadGame(ctx, env, sessionID)
	if err != nil {
		return err
	}
	if err := requireOpen(g); err != nil {
		return err
	}

	var slot **Commitment
	switch g.seat(player) {
	case 1:
		slot = &g.Player1Commitment
	case 2:
		slot = &g.Player2Commitment
	default:
		return notParticipant(g, player)
	}
	if *slot != nil {
		return apperrors.WithMetadata(apperrors.CodeAlreadyCommitted, "player already committed",
			map[string]string{"session_id": u32String(sessionID), "player": player.String()})
	}

	cm := commitment
	*slot = &cm
	if err := saveGame(ctx, env, g); err != nil {
		return err
	}
	emitCommitmentSubmitted(env, sessionID, player, commitment)
	return nil
}

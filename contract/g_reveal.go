package contract

import (
	"context"
	"math"

	apperrors "alpha-duel/internal/errors"
	"alpha-duel/sdk"
)

// ---------- Entry: Resolve (plain) ----------

// ResolveWinnerPlain scores both plain guesses against the hidden word and
// records the winner. Ties go to player1. Stakes are not moved.
func (c *Contract) ResolveWinnerPlain(ctx context.Context, env *sdk.Env, sessionID uint32) (sdk.Address, error) {
	g, err := loadGame(ctx, env, sessionID)
	if err != nil {
		return "", err
	}
	if !g.bothGuessed() {
		return "", apperrors.WithMetadata(apperrors.CodeBothPlayersNotGuessed, "both players must guess first",
			map[string]string{"session_id": u32String(sessionID)})
	}
	if err := requireOpen(g); err != nil {
		return "", err
	}

	hidden := HiddenLetters(g.HiddenWordID)
	winner := g.Player1
	if looseMatches(hidden, g.Player2Guess) > looseMatches(hidden, g.Player1Guess) {
		winner = g.Player2
	}
	g.Winner = &winner

	if err := saveGame(ctx, env, g); err != nil {
		return "", err
	}
	emitWinnerRevealed(env, g, "plain")
	return winner, nil
}

// ---------- Entry: Resolve (proof) ----------

// ResolveWinnerWithProof records the winner named by the first public output
// (1 = player1, 2 = player2) once the verifier accepts the proof. The winner
// takes both stakes.
func (c *Contract) ResolveWinnerWithProof(ctx context.Context, env *sdk.Env, sessionID uint32, proof []byte, publicOutputs []uint32) (sdk.Address, error) {
	g, err := loadGame(ctx, env, sessionID)
	if err != nil {
		return "", err
	}
	if !g.bothCommitted() {
		return "", apperrors.WithMetadata(apperrors.CodeBothPlayersNotCommitted, "both players must commit first",
			map[string]string{"session_id": u32String(sessionID)})
	}
	if err := requireOpen(g); err != nil {
		return "", err
	}
	if len(proof) == 0 {
		return "", apperrors.New(apperrors.CodeProofMissing, "proof missing")
	}
	if len(publicOutputs) == 0 {
		return "", apperrors.New(apperrors.CodePublicOutputsMissing, "missing public winner output")
	}

	var winner sdk.Address
	switch flag := publicOutputs[0]; flag {
	case FlagPlayer1:
		winner = g.Player1
	case FlagPlayer2:
		winner = g.Player2
	default:
		return "", apperrors.WithMetadata(apperrors.CodeInvalidWinnerFlag, "invalid winner flag "+u32String(flag),
			map[string]string{"flag": u32String(flag)})
	}

	ok, err := c.verifier.Verify(ctx, proof, publicOutputs)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeProofRejected, "verify proof", err)
	}
	if !ok {
		return "", apperrors.New(apperrors.CodeProofRejected, "proof rejected")
	}

	if g.Player1Points > math.MaxInt64-g.Player2Points {
		return "", apperrors.New(apperrors.CodeStakeOverflow, "combined stake overflows")
	}
	pot := g.Player1Points + g.Player2Points
	if winner == g.Player1 {
		g.Player1Points, g.Player2Points = pot, 0
	} else {
		g.Player1Points, g.Player2Points = 0, pot
	}
	g.Winner = &winner

	if err := saveGame(ctx, env, g); err != nil {
		return "", err
	}
	emitWinnerRevealed(env, g, "proof")
	return winner, nil
}

package contract

import (
	"context"
	"strconv"

	apperrors "alpha-duel/internal/errors"
	"alpha-duel/sdk"
)

// ---------- Entry: Guess ----------

// SubmitGuess records a plain guess for player. Each seat guesses once.
func (c *Contract) SubmitGuess(ctx context.Context, env *sdk.Env, sessionID uint32, player sdk.Address, letters []uint32) error {
	if err := requireAuth(ctx, env, player, u32String(sessionID), lettersString(letters)); err != nil {
		return err
	}

	g, err := loadGame(ctx, env, sessionID)
	if err != nil {
		return err
	}
	if err := requireOpen(g); err != nil {
		return err
	}

	var slot *[]uint32
	switch g.seat(player) {
	case 1:
		slot = &g.Player1Guess
	case 2:
		slot = &g.Player2Guess
	default:
		return notParticipant(g, player)
	}
	if *slot != nil {
		return apperrors.WithMetadata(apperrors.CodeAlreadyGuessed, "player already guessed",
			map[string]string{"session_id": u32String(sessionID), "player": player.String()})
	}

	if len(letters) != GuessLength {
		return apperrors.New(apperrors.CodeInvalidGuessLength,
			"guess must have exactly "+strconv.Itoa(GuessLength)+" letters, got "+strconv.Itoa(len(letters)))
	}
	for i, l := range letters {
		if l >= LetterCount {
			return apperrors.New(apperrors.CodeInvalidLetterCode,
				"letter "+strconv.Itoa(i)+" out of range: "+u32String(l))
		}
	}

	*slot = append([]uint32(nil), letters...)
	if err := saveGame(ctx, env, g); err != nil {
		return err
	}
	emitGuessSubmitted(env, sessionID, player)
	return nil
}

// requireOpen fails once a winner has been recorded.
func requireOpen(g *Game) error {
	if g.Winner != nil {
		return apperrors.WithMetadata(apperrors.CodeSessionAlreadyEnded, "session already ended",
			map[string]string{"session_id": u32String(g.SessionID), "winner": g.Winner.String()})
	}
	return nil
}

func notParticipant(g *Game, addr sdk.Address) error {
	return apperrors.WithMetadata(apperrors.CodeNotParticipant, addr.String()+" is not a player",
		map[string]string{"session_id": u32String(g.SessionID), "player": addr.String()})
}

package contract

import (
	"strconv"

	"alpha-duel/sdk"
)

// Every event carries the session id under "id" when it concerns a session.
// Events are queued on the invocation and published only after it commits.

// emitSessionCreated emits an event when both stakes are locked and the session is stored.
func emitSessionCreated(env *sdk.Env, g *Game) {
	env.Emit("sessionCreated", map[string]string{
		"id":           u32String(g.SessionID),
		"player1":      g.Player1.String(),
		"player2":      g.Player2.String(),
		"stake1":       i64String(g.Player1Points),
		"stake2":       i64String(g.Player2Points),
		"hiddenWordId": u32String(g.HiddenWordID),
	})
}

// emitGuessSubmitted emits an event when a player records a plain guess.
func emitGuessSubmitted(env *sdk.Env, id uint32, by sdk.Address) {
	env.Emit("guessSubmitted", map[string]string{
		"id": u32String(id),
		"by": by.String(),
	})
}

// emitCommitmentSubmitted emits an event when a player records a commitment.
func emitCommitmentSubmitted(env *sdk.Env, id uint32, by sdk.Address, c Commitment) {
	env.Emit("commitmentSubmitted", map[string]string{
		"id":         u32String(id),
		"by":         by.String(),
		"commitment": c.String(),
	})
}

// emitWinnerRevealed emits an event when a winner is recorded.
// method is "plain" or "proof".
func emitWinnerRevealed(env *sdk.Env, g *Game, method string) {
	env.Emit("winnerRevealed", map[string]string{
		"id":      u32String(g.SessionID),
		"winner":  g.Winner.String(),
		"method":  method,
		"points1": i64String(g.Player1Points),
		"points2": i64String(g.Player2Points),
	})
}

func emitSessionSettled(env *sdk.Env, id uint32, player1Won bool, by sdk.Address) {
	env.Emit("sessionSettled", map[string]string{
		"id":         u32String(id),
		"player1Won": strconv.FormatBool(player1Won),
		"by":         by.String(),
	})
}

func emitSessionExtended(env *sdk.Env, id uint32, liveUntil uint32) {
	env.Emit("sessionExtended", map[string]string{
		"id":        u32String(id),
		"liveUntil": u32String(liveUntil),
	})
}

func emitAdminChanged(env *sdk.Env, from, to sdk.Address) {
	env.Emit("adminChanged", map[string]string{"from": from.String(), "to": to.String()})
}

func emitHubChanged(env *sdk.Env, from, to sdk.Address) {
	env.Emit("hubChanged", map[string]string{"from": from.String(), "to": to.String()})
}

func emitUpgraded(env *sdk.Env, codeHash string) {
	env.Emit("upgraded", map[string]string{"codeHash": codeHash})
}

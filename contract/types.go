package contract

import (
	"encoding/hex"

	"alpha-duel/sdk"
)

// GameLease is the retention window of a session: 30 days of ledgers.
const GameLease uint32 = 30 * sdk.LedgersPerDay

// WordCount is the size of the hidden word pool; sessions pick session_id % WordCount.
const WordCount = 50

// GuessLength is the number of letter codes a plain guess must carry.
const GuessLength = 3

// Winner flags produced by the proof circuit.
const (
	FlagPlayer1 uint32 = 1
	FlagPlayer2 uint32 = 2
)

// Commitment is the opaque 32-byte value binding a player to a secret guess.
type Commitment [32]byte

func (c Commitment) String() string { return hex.EncodeToString(c[:]) }

// Phase is the position of a session in its lifecycle, derived from its fields.
type Phase uint8

const (
	PhaseOpen      Phase = 0 // waiting for commitments
	PhaseCommitted Phase = 1 // both commitments posted
	PhaseResolved  Phase = 2 // winner recorded
	PhaseSettled   Phase = 3 // outcome reported to the hub
)

func (p Phase) String() string {
	switch p {
	case PhaseOpen:
		return "open"
	case PhaseCommitted:
		return "committed"
	case PhaseResolved:
		return "resolved"
	case PhaseSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// Game is one session between two players.
//
// Guesses and commitments are two independent reveal tracks; each slot is
// written at most once. Winner is written at most once and ends both tracks.
type Game struct {
	SessionID         uint32
	Player1           sdk.Address
	Player2           sdk.Address
	Player1Points     int64
	Player2Points     int64
	Player1Guess      []uint32
	Player2Guess      []uint32
	Player1Commitment *Commitment
	Player2Commitment *Commitment
	Winner            *sdk.Address
	HiddenWordID      uint32
	Settled           bool
	CreatedLedger     uint32
}

// Phase derives the lifecycle phase.
func (g *Game) Phase() Phase {
	switch {
	case g.Settled:
		return PhaseSettled
	case g.Winner != nil:
		return PhaseResolved
	case g.bothCommitted():
		return PhaseCommitted
	default:
		return PhaseOpen
	}
}

func (g *Game) bothGuessed() bool {
	return g.Player1Guess != nil && g.Player2Guess != nil
}

func (g *Game) bothCommitted() bool {
	return g.Player1Commitment != nil && g.Player2Commitment != nil
}

// seat returns 1 or 2 for a participant and 0 for anyone else.
func (g *Game) seat(addr sdk.Address) uint8 {
	switch addr {
	case g.Player1:
		return 1
	case g.Player2:
		return 2
	default:
		return 0
	}
}

func (g *Game) isPlayer(addr sdk.Address) bool { return g.seat(addr) != 0 }

// GameView is the JSON form returned by get_session.
type GameView struct {
	SessionID         uint32   `json:"session_id"`
	Player1           string   `json:"player1"`
	Player2           string   `json:"player2"`
	Player1Points     int64    `json:"player1_points"`
	Player2Points     int64    `json:"player2_points"`
	Player1Guess      []uint32 `json:"player1_guess,omitempty"`
	Player2Guess      []uint32 `json:"player2_guess,omitempty"`
	Player1Commitment string   `json:"player1_guess_commitment,omitempty"`
	Player2Commitment string   `json:"player2_guess_commitment,omitempty"`
	Winner            string   `json:"winner,omitempty"`
	HiddenWordID      uint32   `json:"hidden_word_id"`
	Phase             string   `json:"phase"`
	Settled           bool     `json:"settled"`
	CreatedLedger     uint32   `json:"created_ledger"`
}

// View converts the game to its JSON form.
func (g *Game) View() GameView {
	v := GameView{
		SessionID:     g.SessionID,
		Player1:       g.Player1.String(),
		Player2:       g.Player2.String(),
		Player1Points: g.Player1Points,
		Player2Points: g.Player2Points,
		Player1Guess:  g.Player1Guess,
		Player2Guess:  g.Player2Guess,
		HiddenWordID:  g.HiddenWordID,
		Phase:         g.Phase().String(),
		Settled:       g.Settled,
		CreatedLedger: g.CreatedLedger,
	}
	if g.Player1Commitment != nil {
		v.Player1Commitment = g.Player1Commitment.String()
	}
	if g.Player2Commitment != nil {
		v.Player2Commitment = g.Player2Commitment.String()
	}
	if g.Winner != nil {
		v.Winner = g.Winner.String()
	}
	return v
}

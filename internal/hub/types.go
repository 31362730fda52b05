// Package hub talks to the escrow hub that custodies session stakes: a gRPC
// client used by the contract, an in-memory hub for local play and tests,
// and the gRPC service that exposes the in-memory hub.
package hub

// StartGameRequest locks both stakes for a session.
// GameID is the address of the game contract that opened the session.
type StartGameRequest struct {
	GameID        string `json:"game_id"`
	SessionID     uint32 `json:"session_id"`
	Player1       string `json:"player1"`
	Player2       string `json:"player2"`
	Player1Points int64  `json:"player1_points"`
	Player2Points int64  `json:"player2_points"`
}

// EndGameRequest closes a session and releases its stakes to the winner.
type EndGameRequest struct {
	SessionID  uint32 `json:"session_id"`
	Player1Won bool   `json:"player1_won"`
}

// Ack is the empty hub reply.
type Ack struct{}

package hub

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"alpha-duel/sdk"
)

// Session is the hub's record of one locked session.
type Session struct {
	GameID        string
	SessionID     uint32
	Player1       string
	Player2       string
	Player1Points int64
	Player2Points int64
	Ended         bool
	Player1Won    bool
}

// Memory is an in-process escrow hub. Session ids are unique per hub.
type Memory struct {
	mu       sync.Mutex
	sessions map[uint32]*Session
	log      *zap.Logger
}

// NewMemory returns an empty hub. A nil logger disables logging.
func NewMemory(log *zap.Logger) *Memory {
	if log == nil {
		log = zap.NewNop()
	}
	return &Memory{sessions: map[uint32]*Session{}, log: log}
}

// StartGame locks the stakes of a new session. hubAddr is ignored.
// Repeating the exact request for an open session succeeds without change,
// so a contract whose ledger write failed can retry.
func (m *Memory) StartGame(ctx context.Context, _ sdk.Address, req StartGameRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if req.Player1Points < 0 || req.Player2Points < 0 {
		return status.Error(codes.InvalidArgument, "stakes must not be negative")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[req.SessionID]; ok {
		if !s.Ended && s.sameStart(req) {
			m.log.Info("game start repeated", zap.Uint32("session_id", req.SessionID))
			return nil
		}
		return status.Error(codes.AlreadyExists, fmt.Sprintf("session %d already started", req.SessionID))
	}
	m.sessions[req.SessionID] = &Session{
		GameID:        req.GameID,
		SessionID:     req.SessionID,
		Player1:       req.Player1,
		Player2:       req.Player2,
		Player1Points: req.Player1Points,
		Player2Points: req.Player2Points,
	}
	m.log.Info("game started",
		zap.String("game_id", req.GameID),
		zap.Uint32("session_id", req.SessionID),
		zap.Int64("player1_points", req.Player1Points),
		zap.Int64("player2_points", req.Player2Points),
	)
	return nil
}

// EndGame closes a started session. hubAddr is ignored.
// Ending an ended session again with the same outcome succeeds.
func (m *Memory) EndGame(ctx context.Context, _ sdk.Address, req EndGameRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[req.SessionID]
	if !ok {
		return status.Error(codes.NotFound, fmt.Sprintf("session %d not started", req.SessionID))
	}
	if s.Ended {
		if s.Player1Won == req.Player1Won {
			m.log.Info("game end repeated", zap.Uint32("session_id", req.SessionID))
			return nil
		}
		return status.Error(codes.FailedPrecondition, fmt.Sprintf("session %d already ended", req.SessionID))
	}
	s.Ended = true
	s.Player1Won = req.Player1Won
	m.log.Info("game ended",
		zap.Uint32("session_id", req.SessionID),
		zap.Bool("player1_won", req.Player1Won),
	)
	return nil
}

func (s *Session) sameStart(req StartGameRequest) bool {
	return s.GameID == req.GameID &&
		s.Player1 == req.Player1 &&
		s.Player2 == req.Player2 &&
		s.Player1Points == req.Player1Points &&
		s.Player2Points == req.Player2Points
}

// Session returns a copy of the hub record for id.
func (m *Memory) Session(id uint32) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

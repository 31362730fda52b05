package hub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestMemoryStartAndEnd(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)

	require.NoError(t, m.StartGame(ctx, "", StartGameRequest{
		GameID: "duel", SessionID: 7, Player1: "A", Player2: "B", Player1Points: 100, Player2Points: 50,
	}))
	require.NoError(t, m.EndGame(ctx, "", EndGameRequest{SessionID: 7, Player1Won: false}))

	s, ok := m.Session(7)
	require.True(t, ok)
	assert.Equal(t, "duel", s.GameID)
	assert.True(t, s.Ended)
	assert.False(t, s.Player1Won)
	assert.Equal(t, int64(100), s.Player1Points)
}

func TestMemoryRejectsConflictingStart(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)
	req := StartGameRequest{GameID: "duel", SessionID: 1, Player1: "A", Player2: "B", Player1Points: 10}
	require.NoError(t, m.StartGame(ctx, "", req))

	other := req
	other.Player1Points = 11
	err := m.StartGame(ctx, "", other)
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	other = req
	other.GameID = "elsewhere"
	err = m.StartGame(ctx, "", other)
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
}

func TestMemoryRepeatedStartIsAccepted(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)
	req := StartGameRequest{GameID: "duel", SessionID: 1, Player1: "A", Player2: "B", Player1Points: 10, Player2Points: 5}
	require.NoError(t, m.StartGame(ctx, "", req))
	require.NoError(t, m.StartGame(ctx, "", req))

	s, ok := m.Session(1)
	require.True(t, ok)
	assert.Equal(t, int64(10), s.Player1Points)

	// an ended session cannot be reopened
	require.NoError(t, m.EndGame(ctx, "", EndGameRequest{SessionID: 1, Player1Won: true}))
	err := m.StartGame(ctx, "", req)
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
}

func TestMemoryEndRequiresOpenSession(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)

	err := m.EndGame(ctx, "", EndGameRequest{SessionID: 3})
	assert.Equal(t, codes.NotFound, status.Code(err))

	require.NoError(t, m.StartGame(ctx, "", StartGameRequest{SessionID: 3, Player1: "A", Player2: "B"}))
	require.NoError(t, m.EndGame(ctx, "", EndGameRequest{SessionID: 3, Player1Won: true}))

	err = m.EndGame(ctx, "", EndGameRequest{SessionID: 3})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	require.NoError(t, m.EndGame(ctx, "", EndGameRequest{SessionID: 3, Player1Won: true}))
	s, _ := m.Session(3)
	assert.True(t, s.Player1Won)
}

func TestMemoryRejectsNegativeStake(t *testing.T) {
	err := NewMemory(nil).StartGame(context.Background(), "", StartGameRequest{SessionID: 1, Player1Points: -1})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

package contract

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "alpha-duel/internal/errors"
	"alpha-duel/internal/hub"
	"alpha-duel/internal/proof"
	"alpha-duel/internal/storage/memory"
	"alpha-duel/sdk"
)

var errDiskFull = errors.New("disk full")

// failingStore fails every Commit while broken is set.
type failingStore struct {
	*memory.Store
	mu     sync.Mutex
	broken bool
}

func (s *failingStore) Commit(ctx context.Context, changes []sdk.Change) error {
	s.mu.Lock()
	broken := s.broken
	s.mu.Unlock()
	if broken {
		return errDiskFull
	}
	return s.Store.Commit(ctx, changes)
}

func (s *failingStore) setBroken(b bool) {
	s.mu.Lock()
	s.broken = b
	s.mu.Unlock()
}

// newHubHarness runs the contract against an in-memory hub and a store
// whose commits can be made to fail.
func newHubHarness(t *testing.T) (*harness, *failingStore, *hub.Memory) {
	t.Helper()
	h := newBareHarness(t)
	store := &failingStore{Store: h.store}
	escrow := hub.NewMemory(nil)
	h.contract = New(escrow, proof.PresenceVerifier{})
	h.host = sdk.NewHost(contractAddr, store, func(sdk.Invocation, *sdk.State) sdk.Authorizer {
		return h.auth
	}, sdk.WithClock(h.clock))
	_, err := h.invoke(func(ctx context.Context, env *sdk.Env) error {
		return h.contract.Initialize(ctx, env, adminAddr, hubAddr)
	})
	require.NoError(t, err)
	return h, store, escrow
}

func TestCreateSession_RetryAfterFailedCommit(t *testing.T) {
	h, store, escrow := newHubHarness(t)

	store.setBroken(true)
	_, _, err := h.call("create_session", "7|A|B|100|50")
	require.ErrorIs(t, err, errDiskFull)
	locked, ok := escrow.Session(7)
	require.True(t, ok)
	assert.False(t, locked.Ended)

	store.setBroken(false)
	h.createDefault()
	g := h.game(7)
	assert.Equal(t, int64(100), g.Player1Points)
	assert.Equal(t, int64(50), g.Player2Points)
}

func TestCreateSession_RetryWithOtherStakesStillFails(t *testing.T) {
	h, store, _ := newHubHarness(t)

	store.setBroken(true)
	_, _, err := h.call("create_session", "7|A|B|100|50")
	require.ErrorIs(t, err, errDiskFull)

	store.setBroken(false)
	_, _, err = h.call("create_session", "7|A|B|100|60")
	requireCode(t, err, apperrors.CodeEscrowFailed)
}

func TestSettleSession_RetryAfterFailedCommit(t *testing.T) {
	h, store, escrow := newHubHarness(t)
	h.createDefault()
	h.commitBoth("7")
	h.mustCall("resolve_winner_with_proof", "7|01|2")

	store.setBroken(true)
	_, _, err := h.call("settle_session", "7|A")
	require.ErrorIs(t, err, errDiskFull)
	assert.False(t, h.game(7).Settled)
	ended, _ := escrow.Session(7)
	assert.True(t, ended.Ended)

	store.setBroken(false)
	assert.Equal(t, "false", h.mustCall("settle_session", "7|A"))
	g := h.game(7)
	assert.True(t, g.Settled)
	assert.Equal(t, PhaseSettled, g.Phase())
}

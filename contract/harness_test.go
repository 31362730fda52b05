package contract

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "alpha-duel/internal/errors"
	"alpha-duel/internal/hub"
	"alpha-duel/internal/proof"
	"alpha-duel/internal/storage/memory"
	"alpha-duel/sdk"
)

const (
	contractAddr sdk.Address = "CDUEL"
	adminAddr    sdk.Address = "ADMIN"
	hubAddr      sdk.Address = "HUB"
	playerA      sdk.Address = "A"
	playerB      sdk.Address = "B"
	outsider     sdk.Address = "C"
)

// ---------- Fakes ----------

type testClock struct {
	mu     sync.Mutex
	ledger uint32
}

func (c *testClock) Ledger() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger
}

func (c *testClock) advance(n uint32) {
	c.mu.Lock()
	c.ledger += n
	c.mu.Unlock()
}

type authCall struct {
	addr sdk.Address
	args []string
}

// fakeAuth approves everyone except denied addresses and records every check.
type fakeAuth struct {
	mu     sync.Mutex
	denied map[sdk.Address]bool
	calls  []authCall
}

func (f *fakeAuth) RequireAuth(_ context.Context, addr sdk.Address, args ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, authCall{addr: addr, args: args})
	if f.denied[addr] {
		return errors.New("no grant for " + addr.String())
	}
	return nil
}

func (f *fakeAuth) deny(addr sdk.Address) {
	f.mu.Lock()
	f.denied[addr] = true
	f.mu.Unlock()
}

func (f *fakeAuth) reset() {
	f.mu.Lock()
	f.calls = nil
	f.mu.Unlock()
}

type fakeEscrow struct {
	starts   []hub.StartGameRequest
	ends     []hub.EndGameRequest
	hubs     []sdk.Address
	startErr error
	endErr   error
}

func (f *fakeEscrow) StartGame(_ context.Context, addr sdk.Address, req hub.StartGameRequest) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.hubs = append(f.hubs, addr)
	f.starts = append(f.starts, req)
	return nil
}

func (f *fakeEscrow) EndGame(_ context.Context, addr sdk.Address, req hub.EndGameRequest) error {
	if f.endErr != nil {
		return f.endErr
	}
	f.hubs = append(f.hubs, addr)
	f.ends = append(f.ends, req)
	return nil
}

// ---------- Harness ----------

type harness struct {
	t        *testing.T
	ctx      context.Context
	store    *memory.Store
	clock    *testClock
	auth     *fakeAuth
	escrow   *fakeEscrow
	verifier ProofVerifier
	contract *Contract
	host     *sdk.Host
}

func newBareHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		ctx:    context.Background(),
		store:  memory.New(),
		clock:  &testClock{ledger: 100},
		auth:   &fakeAuth{denied: map[sdk.Address]bool{}},
		escrow: &fakeEscrow{},
	}
	h.verifier = proof.PresenceVerifier{}
	h.contract = New(h.escrow, proof.Func(func(ctx context.Context, p []byte, in []uint32) (bool, error) {
		return h.verifier.Verify(ctx, p, in)
	}))
	h.host = sdk.NewHost(contractAddr, h.store, func(sdk.Invocation, *sdk.State) sdk.Authorizer {
		return h.auth
	}, sdk.WithClock(h.clock))
	return h
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := newBareHarness(t)
	_, err := h.invoke(func(ctx context.Context, env *sdk.Env) error {
		return h.contract.Initialize(ctx, env, adminAddr, hubAddr)
	})
	require.NoError(t, err)
	h.auth.reset()
	return h
}

func (h *harness) invoke(fn func(ctx context.Context, env *sdk.Env) error) ([]sdk.Event, error) {
	return h.host.Invoke(h.ctx, sdk.Invocation{Function: "test"}, fn)
}

// call runs a named function through the dispatch table.
func (h *harness) call(function, payload string) (string, []sdk.Event, error) {
	var out string
	events, err := h.host.Invoke(h.ctx, sdk.Invocation{Function: function, Args: payload}, func(ctx context.Context, env *sdk.Env) error {
		var err error
		out, err = h.contract.Call(ctx, env, function, payload)
		return err
	})
	return out, events, err
}

func (h *harness) mustCall(function, payload string) string {
	h.t.Helper()
	out, _, err := h.call(function, payload)
	require.NoError(h.t, err, "%s(%s)", function, payload)
	return out
}

func (h *harness) game(id uint32) *Game {
	h.t.Helper()
	var g *Game
	_, err := h.invoke(func(ctx context.Context, env *sdk.Env) error {
		var err error
		g, err = h.contract.GetSession(ctx, env, id)
		return err
	})
	require.NoError(h.t, err)
	return g
}

func (h *harness) createDefault() {
	h.t.Helper()
	h.mustCall("create_session", "7|A|B|100|50")
}

func (h *harness) commitBoth(id string) {
	h.t.Helper()
	h.mustCall("submit_commitment", id+"|A|"+hexOf(0x11))
	h.mustCall("submit_commitment", id+"|B|"+hexOf(0x22))
}

func hexOf(b byte) string {
	var c Commitment
	for i := range c {
		c[i] = b
	}
	return c.String()
}

func requireCode(t *testing.T, err error, code apperrors.Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, apperrors.CodeOf(err), "error: %v", err)
}

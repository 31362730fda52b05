package duelctl

import (
	"bytes"
	"context"
	"encoding/hex"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"alpha-duel/contract"
	"alpha-duel/internal/api/grpc/duel"
	"alpha-duel/internal/auth"
	"alpha-duel/internal/commitment"
	"alpha-duel/internal/storage/memory"
	"alpha-duel/sdk"
)

func TestRunRequiresCommand(t *testing.T) {
	assert.Error(t, Run(context.Background(), nil, &bytes.Buffer{}))
	assert.Error(t, Run(context.Background(), []string{"dance"}, &bytes.Buffer{}))
	assert.Error(t, Run(context.Background(), []string{"keygen"}, nil))
}

func TestKeygenWritesUsableKey(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), []string{"keygen"}, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	addr, ok := strings.CutPrefix(lines[0], "export ALPHA_DUEL_ADDRESS=")
	require.True(t, ok)
	encoded, ok := strings.CutPrefix(lines[1], "export ALPHA_DUEL_PRIVATE_KEY=")
	require.True(t, ok)

	key, err := auth.DecodePrivateKey(encoded)
	require.NoError(t, err)
	pub, err := auth.PublicKeyOf(sdk.Address(addr))
	require.NoError(t, err)
	assert.Equal(t, key.Public(), pub)
}

func TestGrantIsAcceptedByAuthorizer(t *testing.T) {
	addr, key, err := auth.GenerateKey()
	require.NoError(t, err)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	env := Env{PrivateKey: auth.EncodePrivateKey(key), Contract: "CDUEL", GrantTTL: time.Minute}

	var out bytes.Buffer
	require.NoError(t, grant([]string{"settle_session", "7"}, env, &out, func() time.Time { return now }))
	token := strings.TrimSpace(out.String())

	factory := auth.NewFactory(auth.Config{Contract: "CDUEL", Now: func() time.Time { return now }})
	state := sdk.NewState(memory.New(), 10)
	authz := factory(sdk.Invocation{Function: "settle_session", Grants: []string{token}}, state)
	require.NoError(t, authz.RequireAuth(context.Background(), addr, "7"))
	assert.Error(t, authz.RequireAuth(context.Background(), addr, "7"), "grant is single use")
}

func TestGrantRequiresKeyAndFunction(t *testing.T) {
	now := time.Now
	assert.Error(t, grant([]string{"settle_session"}, Env{GrantTTL: time.Minute}, &bytes.Buffer{}, now))

	_, key, err := auth.GenerateKey()
	require.NoError(t, err)
	assert.Error(t, grant(nil, Env{PrivateKey: auth.EncodePrivateKey(key)}, &bytes.Buffer{}, now))
}

func TestCommitWithFixedSalt(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), []string{"commit", "-salt", "0a0b", "2,7,4"}, &out))

	want := commitment.Commit([]uint32{2, 7, 4}, []byte{0x0a, 0x0b})
	assert.Equal(t, "commitment="+hex.EncodeToString(want[:])+"\nsalt=0a0b\n", out.String())

	assert.Error(t, Run(context.Background(), []string{"commit", "2,x"}, &bytes.Buffer{}))
	assert.Error(t, Run(context.Background(), []string{"commit"}, &bytes.Buffer{}))
}

func TestCallAndFunctionsAgainstServer(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := grpc.NewServer()
	duel.RegisterContractServer(srv, duel.NewService(nil, nil, nil))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)
	t.Setenv("ALPHA_DUEL_SERVER_ADDR", lis.Addr().String())

	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), []string{"functions"}, &out))
	assert.Equal(t, strings.Join(contract.Functions(), "\n")+"\n", out.String())

	err = Run(context.Background(), []string{"call", "get_admin"}, &bytes.Buffer{})
	assert.Equal(t, codes.Internal, status.Code(err))
}

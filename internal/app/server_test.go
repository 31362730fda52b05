package app

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"alpha-duel/contract"
	"alpha-duel/internal/api/grpc/duel"
	"alpha-duel/internal/auth"
	"alpha-duel/internal/commitment"
	"alpha-duel/internal/eventfeed"
	"alpha-duel/internal/hub"
	"alpha-duel/sdk"
)

const testContract sdk.Address = "CDUEL"

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type player struct {
	addr sdk.Address
	key  ed25519.PrivateKey
	seq  int
}

func newPlayer(t *testing.T) *player {
	t.Helper()
	addr, key, err := auth.GenerateKey()
	require.NoError(t, err)
	return &player{addr: addr, key: key}
}

// grant signs a single-use consent for function with args.
func (p *player) grant(t *testing.T, function string, args ...string) string {
	t.Helper()
	p.seq++
	token, err := auth.Sign(p.key, auth.Grant{
		ID:        function + "-" + strconv.Itoa(p.seq),
		Contract:  testContract,
		Function:  function,
		Args:      args,
		ExpiresAt: testNow.Add(time.Minute),
	})
	require.NoError(t, err)
	return token
}

func startHub(t *testing.T) (*hub.Memory, string) {
	t.Helper()
	mem := hub.NewMemory(nil)
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := grpc.NewServer()
	hub.RegisterGameHubServer(srv, hub.NewService(mem))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)
	return mem, lis.Addr().String()
}

// startServer runs a contract server and returns a connection to it plus a stop function.
func startServer(t *testing.T, cfg Config) (*grpc.ClientConn, func()) {
	t.Helper()
	srv, err := NewWithAddr("127.0.0.1:0", cfg)
	require.NoError(t, err)
	return serve(t, srv)
}

func serve(t *testing.T, srv *Server) (*grpc.ClientConn, func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() { serveDone <- srv.Serve(ctx) }()

	conn, err := grpc.NewClient(srv.Addr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	stopped := false
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		_ = conn.Close()
		cancel()
		select {
		case err := <-serveDone:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for server shutdown")
		}
	}
	t.Cleanup(stop)
	return conn, stop
}

func testConfig(t *testing.T, dbPath string, admin sdk.Address, hubAddr string) Config {
	t.Helper()
	return Config{
		DBPath:        dbPath,
		Contract:      testContract,
		Admin:         admin,
		Hub:           sdk.Address(hubAddr),
		PurgeInterval: 50 * time.Millisecond,
		Now:           func() time.Time { return testNow },
	}
}

func TestServerPlaysSessionEndToEnd(t *testing.T) {
	mem, hubAddr := startHub(t)
	admin := newPlayer(t)
	dbPath := filepath.Join(t.TempDir(), "duel.db")
	conn, stop := startServer(t, testConfig(t, dbPath, admin.addr, hubAddr))
	client := duel.NewClient(conn)
	ctx := context.Background()

	hc, err := grpc_health_v1.NewHealthClient(conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: duel.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, hc.GetStatus())

	p1, p2 := newPlayer(t), newPlayer(t)
	id := "7"

	// create: both players consent to their own stake
	_, err = client.Call(ctx, &duel.CallRequest{
		Function: "create_session",
		Args:     id + "|" + p1.addr.String() + "|" + p2.addr.String() + "|100|50",
		Grants: []string{
			p1.grant(t, "create_session", id, "100"),
			p2.grant(t, "create_session", id, "50"),
		},
	})
	require.NoError(t, err)
	locked, ok := mem.Session(7)
	require.True(t, ok)
	assert.Equal(t, testContract.String(), locked.GameID)
	assert.Equal(t, int64(150), locked.Player1Points+locked.Player2Points)

	// commit
	for i, p := range []*player{p1, p2} {
		salt, err := commitment.NewSalt()
		require.NoError(t, err)
		c := commitment.Commit([]uint32{uint32(i), 4, 17}, salt)
		cHex := hex.EncodeToString(c[:])
		_, err = client.Call(ctx, &duel.CallRequest{
			Function: "submit_commitment",
			Args:     id + "|" + p.addr.String() + "|" + cHex,
			Grants:   []string{p.grant(t, "submit_commitment", id, cHex)},
		})
		require.NoError(t, err)
	}

	// settling before resolution is rejected
	_, err = client.Call(ctx, &duel.CallRequest{
		Function: "settle_session",
		Args:     id + "|" + p2.addr.String(),
		Grants:   []string{p2.grant(t, "settle_session", id)},
	})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	// resolve with an attested proof naming player1
	resp, err := client.Call(ctx, &duel.CallRequest{
		Function: "resolve_winner_with_proof",
		Args:     id + "|" + hex.EncodeToString([]byte("proof")) + "|1,2,7",
	})
	require.NoError(t, err)
	assert.Equal(t, p1.addr.String(), resp.Result)

	// any authorized caller may settle, exactly once
	resp, err = client.Call(ctx, &duel.CallRequest{
		Function: "settle_session",
		Args:     id + "|" + p2.addr.String(),
		Grants:   []string{p2.grant(t, "settle_session", id)},
	})
	require.NoError(t, err)
	assert.Equal(t, "true", resp.Result)

	ended, ok := mem.Session(7)
	require.True(t, ok)
	assert.True(t, ended.Ended)
	assert.True(t, ended.Player1Won)

	_, err = client.Call(ctx, &duel.CallRequest{
		Function: "settle_session",
		Args:     id + "|" + p1.addr.String(),
		Grants:   []string{p1.grant(t, "settle_session", id)},
	})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	// state survives a restart on the same database
	stop()
	other := newPlayer(t)
	conn, _ = startServer(t, testConfig(t, dbPath, other.addr, hubAddr))
	client = duel.NewClient(conn)

	resp, err = client.Call(ctx, &duel.CallRequest{Function: "get_session", Args: id})
	require.NoError(t, err)
	assert.Contains(t, resp.Result, `"settled":true`)
	assert.Contains(t, resp.Result, `"winner":"`+p1.addr.String()+`"`)

	resp, err = client.Call(ctx, &duel.CallRequest{Function: "get_admin"})
	require.NoError(t, err)
	assert.Equal(t, admin.addr.String(), resp.Result)
}

func TestServerRejectsReplayedGrant(t *testing.T) {
	_, hubAddr := startHub(t)
	admin := newPlayer(t)
	conn, _ := startServer(t, testConfig(t, filepath.Join(t.TempDir(), "duel.db"), admin.addr, hubAddr))
	client := duel.NewClient(conn)
	ctx := context.Background()

	p1, p2 := newPlayer(t), newPlayer(t)
	_, err := client.Call(ctx, &duel.CallRequest{
		Function: "create_session",
		Args:     "3|" + p1.addr.String() + "|" + p2.addr.String() + "|0|0",
		Grants:   []string{p1.grant(t, "create_session", "3", "0"), p2.grant(t, "create_session", "3", "0")},
	})
	require.NoError(t, err)

	extend := p1.grant(t, "extend_session", "3")
	req := &duel.CallRequest{Function: "extend_session", Args: "3|" + p1.addr.String(), Grants: []string{extend}}
	resp, err := client.Call(ctx, req)
	require.NoError(t, err)
	liveUntil, err := strconv.ParseUint(resp.Result, 10, 32)
	require.NoError(t, err)
	assert.Greater(t, uint32(liveUntil), sdk.WallClock{Now: func() time.Time { return testNow }}.Ledger()+contract.GameLease-1)

	_, err = client.Call(ctx, req)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestServerWithUnreachableHubFailsCreate(t *testing.T) {
	admin := newPlayer(t)
	cfg := testConfig(t, filepath.Join(t.TempDir(), "duel.db"), admin.addr, "127.0.0.1:1")
	cfg.HubTimeout = time.Second
	conn, _ := startServer(t, cfg)
	client := duel.NewClient(conn)
	ctx := context.Background()

	p1, p2 := newPlayer(t), newPlayer(t)
	_, err := client.Call(ctx, &duel.CallRequest{
		Function: "create_session",
		Args:     "4|" + p1.addr.String() + "|" + p2.addr.String() + "|10|10",
		Grants:   []string{p1.grant(t, "create_session", "4", "10"), p2.grant(t, "create_session", "4", "10")},
	})
	assert.Equal(t, codes.Unavailable, status.Code(err))

	_, err = client.Call(ctx, &duel.CallRequest{Function: "get_session", Args: "4"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestNewRequiresContractAddress(t *testing.T) {
	_, err := NewWithAddr("127.0.0.1:0", Config{DBPath: filepath.Join(t.TempDir(), "x.db")})
	assert.Error(t, err)
}

func TestServerStreamsCommittedEvents(t *testing.T) {
	_, hubAddr := startHub(t)
	admin := newPlayer(t)
	cfg := testConfig(t, filepath.Join(t.TempDir(), "duel.db"), admin.addr, hubAddr)
	cfg.EventsAddr = "127.0.0.1:0"
	srv, err := NewWithAddr("127.0.0.1:0", cfg)
	require.NoError(t, err)
	conn, _ := serve(t, srv)
	client := duel.NewClient(conn)

	ws, resp, err := websocket.DefaultDialer.Dial("ws://"+srv.EventsAddr()+"/events?session=5", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	defer ws.Close()

	p1, p2 := newPlayer(t), newPlayer(t)
	args := "5|" + p1.addr.String() + "|" + p2.addr.String() + "|1|2"
	// a rejected call publishes nothing
	_, err = client.Call(context.Background(), &duel.CallRequest{Function: "create_session", Args: args})
	require.Error(t, err)

	// the subscription is registered asynchronously after the upgrade
	require.Eventually(t, func() bool { return srv.feed.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	_, err = client.Call(context.Background(), &duel.CallRequest{
		Function: "create_session",
		Args:     args,
		Grants:   []string{p1.grant(t, "create_session", "5", "1"), p2.grant(t, "create_session", "5", "2")},
	})
	require.NoError(t, err)

	var msg eventfeed.Message
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, "sessionCreated", msg.Type)
	assert.Equal(t, "5", msg.Attributes["id"])
	assert.Equal(t, p1.addr.String(), msg.Attributes["player1"])
}

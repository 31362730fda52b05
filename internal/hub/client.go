package hub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"alpha-duel/internal/rpc/jsoncodec"
	"alpha-duel/sdk"
)

// DefaultCallTimeout bounds a single hub call.
const DefaultCallTimeout = 10 * time.Second

// Client calls escrow hubs over gRPC. The hub address is a dial target and
// connections are kept per address, since admins may rotate the hub.
type Client struct {
	mu       sync.Mutex
	conns    map[sdk.Address]*grpc.ClientConn
	timeout  time.Duration
	dialOpts []grpc.DialOption
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithCallTimeout overrides DefaultCallTimeout.
func WithCallTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// WithDialOptions appends dial options to the defaults.
func WithDialOptions(opts ...grpc.DialOption) ClientOption {
	return func(c *Client) { c.dialOpts = append(c.dialOpts, opts...) }
}

// NewClient returns a client with insecure transport, tracing and the JSON codec.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		conns:   map[sdk.Address]*grpc.ClientConn{},
		timeout: DefaultCallTimeout,
		dialOpts: []grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
			grpc.WithDefaultCallOptions(jsoncodec.CallOption()),
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// StartGame asks the hub at addr to lock both stakes.
func (c *Client) StartGame(ctx context.Context, addr sdk.Address, req StartGameRequest) error {
	return c.invoke(ctx, addr, startGameMethod, &req)
}

// EndGame asks the hub at addr to close the session.
func (c *Client) EndGame(ctx context.Context, addr sdk.Address, req EndGameRequest) error {
	return c.invoke(ctx, addr, endGameMethod, &req)
}

func (c *Client) invoke(ctx context.Context, addr sdk.Address, method string, req any) error {
	conn, err := c.conn(addr)
	if err != nil {
		return err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if err := conn.Invoke(ctx, method, req, &Ack{}); err != nil {
		return fmt.Errorf("hub %s %s: %w", addr, method, err)
	}
	return nil
}

func (c *Client) conn(addr sdk.Address) (*grpc.ClientConn, error) {
	if addr.IsZero() {
		return nil, fmt.Errorf("hub address is empty")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if conn, ok := c.conns[addr]; ok {
		return conn, nil
	}
	conn, err := grpc.NewClient(addr.String(), c.dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dial hub %s: %w", addr, err)
	}
	c.conns[addr] = conn
	return conn, nil
}

// Close closes every cached connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var first error
	for addr, conn := range c.conns {
		if err := conn.Close(); err != nil && first == nil {
			first = err
		}
		delete(c.conns, addr)
	}
	return first
}

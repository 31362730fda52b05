// Package app wires the contract runtime and its gRPC lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"alpha-duel/contract"
	"alpha-duel/internal/api/grpc/duel"
	"alpha-duel/internal/api/ws"
	"alpha-duel/internal/auth"
	apperrors "alpha-duel/internal/errors"
	"alpha-duel/internal/eventfeed"
	"alpha-duel/internal/hub"
	"alpha-duel/internal/proof"
	"alpha-duel/internal/storage/sqlite"
	"alpha-duel/sdk"
)

// DefaultPurgeInterval is how often expired ledger entries are deleted.
const DefaultPurgeInterval = time.Minute

// Config describes one contract server.
type Config struct {
	DBPath   string
	Contract sdk.Address
	// Admin and Hub initialize a fresh contract. Both are ignored once the
	// contract has been initialized.
	Admin sdk.Address
	Hub   sdk.Address

	// EventsAddr serves the websocket event stream at /events when set.
	EventsAddr string

	GrantMaxTTL   time.Duration
	PurgeInterval time.Duration
	MaxProofSize  int
	HubTimeout    time.Duration

	Logger *zap.Logger
	Clock  sdk.Clock
	Now    func() time.Time
}

// Server hosts the contract gRPC API and its storage lifecycle.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	store      *sqlite.Store
	hub        *hub.Client
	feed       *eventfeed.Feed
	events     *http.Server
	eventsLis  net.Listener
	clock      sdk.Clock
	purgeEvery time.Duration
	log        *zap.Logger
}

// New creates a server listening on port.
func New(port int, cfg Config) (*Server, error) {
	return NewWithAddr(fmt.Sprintf(":%d", port), cfg)
}

// NewWithAddr creates a server for the provided listen address.
func NewWithAddr(addr string, cfg Config) (*Server, error) {
	if cfg.Contract.IsZero() {
		return nil, errors.New("contract address is required")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "alpha-duel.db")
	}
	if cfg.PurgeInterval <= 0 {
		cfg.PurgeInterval = DefaultPurgeInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = sdk.WallClock{Now: cfg.Now}
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	store, err := openStore(cfg.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	hubOpts := []hub.ClientOption{}
	if cfg.HubTimeout > 0 {
		hubOpts = append(hubOpts, hub.WithCallTimeout(cfg.HubTimeout))
	}
	hubClient := hub.NewClient(hubOpts...)
	feed := eventfeed.New(0)

	host := sdk.NewHost(cfg.Contract, store, auth.NewFactory(auth.Config{
		Contract: cfg.Contract,
		MaxTTL:   cfg.GrantMaxTTL,
		Now:      cfg.Now,
	}), sdk.WithClock(cfg.Clock), sdk.WithLogger(cfg.Logger.Named("host")), sdk.WithPublisher(feed))
	game := contract.New(hubClient, proof.PresenceVerifier{MaxProofSize: cfg.MaxProofSize})

	s := &Server{
		listener:   listener,
		store:      store,
		hub:        hubClient,
		feed:       feed,
		clock:      cfg.Clock,
		purgeEvery: cfg.PurgeInterval,
		log:        cfg.Logger,
	}
	if err := initialize(context.Background(), host, game, cfg.Admin, cfg.Hub, cfg.Logger); err != nil {
		s.Close()
		return nil, err
	}
	if strings.TrimSpace(cfg.EventsAddr) != "" {
		eventsLis, err := net.Listen("tcp", cfg.EventsAddr)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("listen on %s: %w", cfg.EventsAddr, err)
		}
		mux := http.NewServeMux()
		mux.Handle("/events", ws.NewHandler(feed, cfg.Logger.Named("ws")))
		s.eventsLis = eventsLis
		s.events = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	}

	s.grpcServer = grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	s.health = health.NewServer()
	duel.RegisterContractServer(s.grpcServer, duel.NewService(host, game, cfg.Logger.Named("api")))
	grpc_health_v1.RegisterHealthServer(s.grpcServer, s.health)
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(duel.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	return s, nil
}

// initialize stores admin and hub on a fresh contract.
func initialize(ctx context.Context, host *sdk.Host, game *contract.Contract, admin, hubAddr sdk.Address, log *zap.Logger) error {
	if admin.IsZero() && hubAddr.IsZero() {
		return nil
	}
	_, err := host.Invoke(ctx, sdk.Invocation{Function: "initialize"}, func(ctx context.Context, env *sdk.Env) error {
		return game.Initialize(ctx, env, admin, hubAddr)
	})
	switch {
	case err == nil:
		log.Info("contract initialized", zap.String("admin", admin.String()), zap.String("hub", hubAddr.String()))
		return nil
	case apperrors.HasCode(err, apperrors.CodeAlreadyInitialized):
		return nil
	default:
		return fmt.Errorf("initialize contract: %w", err)
	}
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// EventsAddr returns the event stream listener address, or "" when disabled.
func (s *Server) EventsAddr() string {
	if s == nil || s.eventsLis == nil {
		return ""
	}
	return s.eventsLis.Addr().String()
}

// Run creates and serves a server until context cancellation.
func Run(ctx context.Context, port int, cfg Config) error {
	server, err := New(port, cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve runs the gRPC server and the lease janitor until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	janitorDone := make(chan struct{})
	go func() {
		defer close(janitorDone)
		s.runJanitor(janitorCtx)
	}()
	defer func() {
		stopJanitor()
		<-janitorDone
	}()

	if s.events != nil {
		go func() {
			if err := s.events.Serve(s.eventsLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Warn("serve event stream", zap.Error(err))
			}
		}()
		s.log.Info("event stream listening", zap.String("addr", s.EventsAddr()))
	}

	s.log.Info("alpha-duel server listening", zap.String("addr", s.Addr()))
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		err := <-serveErr
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}
}

func (s *Server) runJanitor(ctx context.Context) {
	ticker := time.NewTicker(s.purgeEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.purge(ctx)
		}
	}
}

// purge deletes entries whose lease ended before the current ledger.
func (s *Server) purge(ctx context.Context) {
	ledger := s.clock.Ledger()
	n, err := s.store.PurgeExpired(ctx, ledger)
	switch {
	case errors.Is(err, sqlite.ErrBusy):
		s.log.Debug("purge skipped, database busy", zap.Uint32("ledger", ledger))
	case err != nil:
		s.log.Warn("purge expired entries", zap.Uint32("ledger", ledger), zap.Error(err))
	case n > 0:
		s.log.Info("purged expired entries", zap.Uint32("ledger", ledger), zap.Int64("count", n))
	}
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.feed != nil {
		s.feed.Close()
	}
	if s.events != nil {
		_ = s.events.Close()
	}
	if s.eventsLis != nil {
		_ = s.eventsLis.Close()
	}
	if s.hub != nil {
		if err := s.hub.Close(); err != nil {
			s.log.Warn("close hub client", zap.Error(err))
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.log.Warn("close ledger store", zap.Error(err))
		}
	}
}

func openStore(path string) (*sqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ledger store: %w", err)
	}
	return store, nil
}

// Package gamehub parses escrow hub flags and serves an in-memory hub.
package gamehub

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"alpha-duel/internal/config"
	"alpha-duel/internal/hub"
	"alpha-duel/internal/logging"
	"alpha-duel/internal/otel"
)

// ServiceName identifies the hub in telemetry.
const ServiceName = "gamehub"

// Config holds hub command configuration.
type Config struct {
	Addr         string `env:"GAMEHUB_ADDR" envDefault:":8096"`
	LogLevel     string `env:"GAMEHUB_LOG_LEVEL" envDefault:"info"`
	OTelEndpoint string `env:"GAMEHUB_OTEL_ENDPOINT"`
}

// ParseConfig loads environment defaults into Config, then applies flags.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	if fs == nil {
		return Config{}, errors.New("flag parser is required")
	}
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The hub gRPC listen address")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run serves the hub until ctx is done. Locked sessions live in memory only.
func Run(ctx context.Context, cfg Config) error {
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	shutdown, err := otel.Setup(ctx, ServiceName, cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()

	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}
	return Serve(ctx, lis, hub.NewMemory(log.Named("hub")), log)
}

// Serve runs the hub gRPC service on lis until ctx is done.
func Serve(ctx context.Context, lis net.Listener, mem *hub.Memory, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	srv := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	hub.RegisterGameHubServer(srv, hub.NewService(mem))
	grpc_health_v1.RegisterHealthServer(srv, healthServer)
	healthServer.SetServingStatus(hub.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	log.Info("game hub listening", zap.String("addr", lis.Addr().String()))
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(lis) }()

	select {
	case <-ctx.Done():
		healthServer.Shutdown()
		srv.GracefulStop()
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

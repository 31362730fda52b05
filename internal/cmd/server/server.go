// Package server parses contract server flags and launches the service.
package server

import (
	"context"
	"errors"
	"flag"
	"time"

	"go.uber.org/zap"

	"alpha-duel/internal/app"
	"alpha-duel/internal/config"
	"alpha-duel/internal/logging"
	"alpha-duel/internal/otel"
	"alpha-duel/sdk"
)

// ServiceName identifies the contract server in telemetry.
const ServiceName = "alpha-duel"

const otelShutdownTimeout = 5 * time.Second

// Config holds contract server command configuration.
type Config struct {
	Port          int           `env:"ALPHA_DUEL_PORT" envDefault:"8095"`
	DBPath        string        `env:"ALPHA_DUEL_DB_PATH" envDefault:"data/alpha-duel.db"`
	Contract      string        `env:"ALPHA_DUEL_CONTRACT_ADDR" envDefault:"alpha-duel"`
	Admin         string        `env:"ALPHA_DUEL_ADMIN"`
	HubAddr       string        `env:"ALPHA_DUEL_HUB_ADDR"`
	EventsAddr    string        `env:"ALPHA_DUEL_EVENTS_ADDR"`
	GrantMaxTTL   time.Duration `env:"ALPHA_DUEL_GRANT_MAX_TTL" envDefault:"10m"`
	PurgeInterval time.Duration `env:"ALPHA_DUEL_PURGE_INTERVAL" envDefault:"1m"`
	HubTimeout    time.Duration `env:"ALPHA_DUEL_HUB_TIMEOUT" envDefault:"10s"`
	MaxProofSize  int           `env:"ALPHA_DUEL_MAX_PROOF_SIZE" envDefault:"65536"`
	LogLevel      string        `env:"ALPHA_DUEL_LOG_LEVEL" envDefault:"info"`
	OTelEndpoint  string        `env:"ALPHA_DUEL_OTEL_ENDPOINT"`
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
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The contract gRPC server port")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path of the SQLite ledger database")
	fs.StringVar(&cfg.Contract, "contract", cfg.Contract, "Address the contract runs under")
	fs.StringVar(&cfg.Admin, "admin", cfg.Admin, "Admin address for a fresh contract")
	fs.StringVar(&cfg.HubAddr, "hub", cfg.HubAddr, "Escrow hub address for a fresh contract")
	fs.StringVar(&cfg.EventsAddr, "events", cfg.EventsAddr, "Listen address of the websocket event stream (disabled when empty)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the contract gRPC service with telemetry until ctx is done.
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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), otelShutdownTimeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Warn("otel shutdown", zap.Error(err))
		}
	}()

	return app.Run(ctx, cfg.Port, app.Config{
		DBPath:        cfg.DBPath,
		Contract:      sdk.Address(cfg.Contract),
		Admin:         sdk.Address(cfg.Admin),
		Hub:           sdk.Address(cfg.HubAddr),
		EventsAddr:    cfg.EventsAddr,
		GrantMaxTTL:   cfg.GrantMaxTTL,
		PurgeInterval: cfg.PurgeInterval,
		HubTimeout:    cfg.HubTimeout,
		MaxProofSize:  cfg.MaxProofSize,
		Logger:        log,
	})
}

// Package main starts the alpha-duel contract gRPC service.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"alpha-duel/internal/cmd/server"
	"alpha-duel/internal/config"
)

func main() {
	cfg, err := server.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, cfg); err != nil {
		config.Exitf("failed to serve: %v", err)
	}
}

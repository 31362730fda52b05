// Package main starts an in-memory escrow hub for local play.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"alpha-duel/internal/cmd/gamehub"
	"alpha-duel/internal/config"
)

func main() {
	cfg, err := gamehub.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := gamehub.Run(ctx, cfg); err != nil {
		config.Exitf("failed to serve: %v", err)
	}
}

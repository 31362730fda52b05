// Package main is the alpha-duel player and operator CLI.
package main

import (
	"context"
	"os"
	"os/signal"

	"alpha-duel/internal/config"
	"alpha-duel/internal/tools/duelctl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := duelctl.Run(ctx, os.Args[1:], os.Stdout); err != nil {
		config.Exitf("duelctl: %v", err)
	}
}

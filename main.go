package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/km-arc/go-beans/demo"
	"github.com/km-arc/go-beans/framework/app"
	"github.com/km-arc/go-beans/framework/types"
)

func main() {
	reg := types.NewRegistry()
	demo.Register(reg)

	application := app.New(reg) // loads .env automatically

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// GET  /beans, /beans/{id}, /healthz, /metrics
	// POST /beans/{id}/instances
	if err := application.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

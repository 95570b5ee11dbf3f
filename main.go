package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"waveRider/internal/cli"
)

func main() {
	// Cancel in-flight market data fetches on Ctrl-C
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1) // cobra has already printed the error
	}
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/raihan-suryanom/brawl-master-web/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, os.Stdout, os.Args[1:]); err != nil {
		stop()
		os.Exit(1)
	}
}

// Command phx evaluates seawater properties and TS-profile solves locally
// and submits batches to a hydrophys server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/hydrophys/internal/cli"
	"github.com/okian/hydrophys/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

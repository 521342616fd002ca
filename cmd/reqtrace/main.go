// Command reqtrace imports requirement documents, derives stories, UAT
// cases and traceability, validates compliance and exports the results.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/reqtrace/internal/adapters/driving/cli"
	"github.com/custodia-labs/reqtrace/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli.SetVersion(version)
	cli.SetRuntimeFactory(newRuntime)

	err := cli.Execute(ctx)
	stop()
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

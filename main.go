// The main package for the profscraper executable.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/campusmetrics/profscraper/cmd"
)

// main wires interrupt handling and defers execution to the Cobra CLI.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Execute(ctx)
}

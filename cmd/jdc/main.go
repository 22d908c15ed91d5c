// Package main implements the java-dataset-converter CLI (jdc).
// It de-identifies Java sources and pairs them with their originals as
// JSONL training records.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/l3aro/java-dataset-converter/cmd/jdc/commands"
)

var (
	version   = "dev"
	buildTime = ""
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.RootCmd.Version = version
	if buildTime != "" {
		commands.RootCmd.Version = version + " (built " + buildTime + ")"
	}
	commands.RootCmd.SetVersionTemplate(`jdc version {{.Version}}
`)

	if err := commands.RootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

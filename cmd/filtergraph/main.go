// Command filtergraph runs raw PCM audio through a chain of filters.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"gofiltergraph/cmd/filtergraph/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := cmd.Execute(ctx); err != nil {
		slog.Error("filtergraph failed", "error", err)
		os.Exit(1)
	}
}

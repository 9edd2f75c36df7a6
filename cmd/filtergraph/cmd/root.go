// Package cmd implements the CLI commands for filtergraph.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/livekit/protocol/logger"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "filtergraph",
	Short: "Run raw PCM audio through a filter chain",
	Long: `filtergraph reads raw interleaved PCM files, runs them through a chain
of audio filters and writes the result as raw PCM.

A job is described by a YAML file:

  inputs:
    - path: voice.raw
      sample_rate: 48000
      channels: 1
      frame_samples: 960
  output:
    path: out.raw
    sample_rate: 16000
    frame_samples: 320
  chain: volume=-3dB,aresample=16000`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		format, _ := cmd.Flags().GetString("log-format")
		return initLogging(cmd.ErrOrStderr(), level, format)
	}

	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
}

// initLogging sets the default slog logger and the logger used by the
// filter graphs.
func initLogging(w io.Writer, level, format string) error {
	level = strings.ToLower(level)
	if level == "warning" {
		level = "warn"
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	switch strings.ToLower(format) {
	case "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return fmt.Errorf("invalid log format %q", format)
	}
	slog.SetDefault(slog.New(h))

	logger.InitFromConfig(&logger.Config{
		JSON:  format == "json",
		Level: level,
	}, "filtergraph")
	return nil
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	return slog.Default().With("command", cmd.Name())
}

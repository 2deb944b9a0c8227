package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"
)

var (
	logLevelFlag string
	verbose      bool
)

// logLevel backs the handler so commands can still lower the level after
// reading the project config.
var logLevel slog.LevelVar

var rootCmd = &cobra.Command{
	Use:   "mirrorsync",
	Short: "Propagate manifest-listed files from a parent repository into a mirror",
	Long: `mirrorsync watches a parent repository's pull requests and propagates the
files its sync manifest lists into a mirror repository, on a deterministic
branch with a pull request of its own.

The manifest (.mirrorsync/manifest.yaml by default) is read from the parent
repository at the source PR's branch, so manifest edits take effect in the
same PR that ships them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := logLevelFlag
		if level == "" {
			level = os.Getenv("MIRRORSYNC_LOG_LEVEL")
		}
		if verbose {
			level = "debug"
		}
		if level != "" {
			if err := setLogLevel(level); err != nil {
				return err
			}
		}

		logger := clog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &logLevel}))
		cmd.SetContext(clog.WithLogger(cmd.Context(), logger))
		return nil
	},
}

func setLogLevel(s string) error {
	switch strings.ToLower(s) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level %q (want debug, info, warn, or error)", s)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Shorthand for --log-level debug")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// Command journalctl inspects and maintains a clarify journal directly
// through the configured storage backend.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"clarify/internal/app"
	"clarify/internal/config"
)

// openFunc builds the application the commands operate on.
type openFunc func(ctx context.Context) (*app.App, error)

func openFromEnv(verbose bool) openFunc {
	return func(ctx context.Context) (*app.App, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		level := slog.LevelWarn
		if verbose {
			level = cfg.LogLevel
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		return app.New(ctx, cfg, logger)
	}
}

func main() {
	var verbose bool
	root := newRootCmd(func(ctx context.Context) (*app.App, error) {
		return openFromEnv(verbose)(ctx)
	})
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at the configured LOG_LEVEL instead of warnings only")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd assembles the command tree.
func newRootCmd(open openFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "journalctl",
		Short: "Inspect and maintain the clarify journal",
		Long: `Inspect and maintain the clarify journal.

Configuration is read from the environment and .env exactly as the API
server does, so BLOB_BACKEND, DB_PATH, REDIS_ADDR and JOURNAL_NAMESPACE
select the journal to operate on.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newListCmd(open),
		newShowCmd(open),
		newHistoryCmd(open),
		newExportCmd(open),
		newImportCmd(open),
		newReindexCmd(open),
	)
	return root
}

// withApp opens the application for the duration of fn.
func withApp(cmd *cobra.Command, open openFunc, fn func(ctx context.Context, a *app.App, out io.Writer) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()
	return fn(ctx, a, cmd.OutOrStdout())
}

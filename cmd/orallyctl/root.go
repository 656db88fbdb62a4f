package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AnshRaj112/orally-backend/internal/app"
	"github.com/AnshRaj112/orally-backend/internal/config"
)

// cli opens the App lazily so commands that fail flag validation never
// touch a backend.
type cli struct {
	verbose bool
	open    func(ctx context.Context, verbose bool) (*app.App, error)
	app     *app.App
}

func newCLI() *cli {
	return &cli{open: openFromEnv}
}

func openFromEnv(ctx context.Context, verbose bool) (*app.App, error) {
	cfg := config.Load()
	if verbose {
		cfg.LogLevel = slog.LevelDebug
	}
	return app.Open(ctx, cfg)
}

func (c *cli) App(ctx context.Context) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	a, err := c.open(ctx, c.verbose)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func (c *cli) close() {
	if c.app != nil {
		c.app.Close()
		c.app = nil
	}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "orallyctl",
		Short: "Operate the Orally engagement and notes backend",
		Long: `orallyctl runs session activations, manages notes and issues
session tokens against the store configured in the environment.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(c.activateCmd(), c.notesCmd(), c.sessionCmd())
	return root
}

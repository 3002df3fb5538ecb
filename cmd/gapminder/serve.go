package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gapminder/internal/config"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var (
		addr    string
		skipRun bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pipeline once, then serve the canonical table over HTTP",
		Long: `Serve restores the last canonical table from the SQLite store (when the
sqlite format is enabled), runs the pipeline once and serves the result. A
failed startup run is logged and the restored table, if any, stays in
service; POST /api/v1/runs triggers another run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			a, err := flags.newApplication(cmd.ErrOrStderr(), func(c *config.Config) {
				if addr != "" {
					c.Server.Addr = addr
				}
			})
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			if err := a.Restore(ctx); err != nil {
				a.Logger.WarnContext(ctx, "could not restore canonical table", slog.String("error", err.Error()))
			}

			if !skipRun {
				if _, err := a.RunPipeline(ctx); err != nil {
					a.Logger.ErrorContext(ctx, "startup run failed", slog.String("error", err.Error()))
				}
			}

			return a.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&skipRun, "no-run", false, "serve the restored table without running the pipeline first")
	return cmd
}

package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"gapminder/internal/app"
	"gapminder/internal/config"
	"gapminder/internal/infrastructure"
	"gapminder/pkg/contracts"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	baseDir    string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "gapminder",
		Short:         "Reshape and align Gapminder indicator tables",
		Version:       contracts.GetVersionInfo().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to the YAML config file (default: gapminder.yaml if present)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flags.baseDir, "base-dir", "", "directory relative paths resolve against (default: working directory)")

	root.AddCommand(
		newRunCmd(&flags),
		newSummaryCmd(&flags),
		newEncodeCmd(&flags),
		newServeCmd(&flags),
		newSourcesCmd(&flags),
	)

	return root
}

// loadConfig loads and validates the configuration, applying flag overrides.
func (f *globalFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newApplication builds the logger and the wired application. mutate may
// adjust the configuration before wiring, e.g. to disable sinks.
func (f *globalFlags) newApplication(stderr io.Writer, mutate func(*config.Config)) (*app.Application, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}
	if mutate != nil {
		mutate(cfg)
	}

	logger, logCloser, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	slog.SetDefault(logger)

	paths, err := config.GetPaths(cfg, f.baseDir)
	if err != nil {
		_ = logCloser.Close()
		return nil, err
	}
	a, err := app.NewApplication(cfg, paths, logger, app.WithCloser(logCloser))
	if err != nil {
		_ = logCloser.Close()
		return nil, err
	}
	return a, nil
}

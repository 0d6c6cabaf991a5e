// Package cli implements the crosspost command line interface.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crosspost-dev/go-crosspost/internal/config"
	"github.com/crosspost-dev/go-crosspost/internal/logging"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

// app carries what PersistentPreRunE loads for the subcommands.
type app struct {
	configPath string
	getenv     func(string) string
	cfg        config.Config
	logger     *zap.Logger
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCommand(os.Getenv).ExecuteContext(context.Background())
}

// NewRootCommand builds the command tree. getenv supplies CROSSPOST_*
// overrides.
func NewRootCommand(getenv func(string) string) *cobra.Command {
	a := &app{getenv: getenv, logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "crosspost",
		Short: "Resolve one submission into per-destination content",
		Long: `crosspost turns one authored submission into the title, tags and
description each destination receives, honouring per-destination
overrides, length limits, tag conversions and markup dialects.`,
		Version:       Version + " (" + Commit + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath, a.getenv)
			if err != nil {
				return err
			}
			if level, _ := cmd.Flags().GetString("log-level"); level != "" {
				cfg.Log.Level = level
			}
			logger, err := logging.NewWithWriter(cfg.Log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a crosspost.yaml configuration file")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(newResolveCommand(a))
	root.AddCommand(newSchemaCommand(a))
	root.AddCommand(newConvertersCommand(a))
	return root
}

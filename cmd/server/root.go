package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"pulseaid/internal/platform/config"
	"pulseaid/internal/platform/logger"
)

// rootOptions holds state shared by every subcommand.
type rootOptions struct {
	cfg    config.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "pulseaid",
		Short:         "PulseAid proof-gated escrow ledger",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			opts.cfg = cfg
			opts.logger = logger.New(cfg.Log)
			slog.SetDefault(opts.logger)
			return nil
		},
	}

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newSignClaimCommand(opts))
	return cmd
}

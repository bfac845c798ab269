// Package commands provides the command-line interface for the gocryptor tool.
//
// It implements commands for:
//   - encryption
//   - decryption
//
// The package handles command-line parsing, configuration validation,
// and environment variable and config file binding through cobra and viper.
package commands

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/idelchi/gocryptor/internal/config"
	"github.com/idelchi/gocryptor/internal/inputs"
	"github.com/idelchi/gocryptor/internal/logging"
	"github.com/idelchi/gocryptor/internal/logic"
)

// preRun returns a PreRunE handler that merges flags, environment and config file into cfg,
// resolves the files and the password, and validates the configuration.
func preRun(cfg *config.Config, decrypt bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		configFile, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}

		v, err := config.NewViper(configFile)
		if err != nil {
			return err
		}

		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return err
		}

		if err := cfg.Load(v); err != nil {
			return err
		}

		cfg.Decrypt = decrypt

		cfg.Files, err = inputs.Collect(args, cfg.From)
		if err != nil {
			return err
		}

		if cfg.Show {
			return nil
		}

		if err := logic.ResolvePassword(cfg, logic.TerminalPrompter(os.Stdin, cmd.ErrOrStderr())); err != nil {
			return err
		}

		return cfg.Validate()
	}
}

// run returns a RunE handler that shows the configuration or processes the files.
func run(cfg *config.Config) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if cfg.Show {
			return logic.Show(cfg, cmd.OutOrStdout())
		}

		logger, err := logging.New(cfg.Verbose, cfg.Quiet)
		if err != nil {
			return err
		}

		defer logger.Sync() //nolint:errcheck // stderr sync fails on some terminals

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		ctx = logging.WithName(logging.WithLogger(ctx, logger), cmd.Name())

		return logic.Run(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
	}
}

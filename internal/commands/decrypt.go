package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/gocryptor/internal/config"
)

// NewDecryptCommand creates a new cobra command for the decrypt subcommand.
func NewDecryptCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:     "decrypt [flags] files...",
		Aliases: []string{"dec"},
		Short:   "Decrypt files",
		Long: `Decrypt files carrying the extension, writing each result next to its source
with the extension stripped. Files that were not encrypted with the same password,
backend, mode and key length are reported as INVALID.`,
		Args:    cobra.ArbitraryArgs,
		PreRunE: preRun(cfg, true),
		RunE:    run(cfg),
	}
}

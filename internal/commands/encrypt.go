package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/gocryptor/internal/config"
)

// NewEncryptCommand creates a new cobra command for the encrypt subcommand.
func NewEncryptCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:     "encrypt [flags] files...",
		Aliases: []string{"enc"},
		Short:   "Encrypt files",
		Long: `Encrypt files, writing each result next to its source with the extension appended.
Existing files are never overwritten.`,
		Args:    cobra.ArbitraryArgs,
		PreRunE: preRun(cfg, false),
		RunE:    run(cfg),
	}
}

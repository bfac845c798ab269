package commands

import (
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idelchi/gocryptor/internal/config"
	"github.com/idelchi/gocryptor/internal/encryption"
	"github.com/idelchi/gocryptor/internal/engine"
)

// NewRootCommand creates the root command with common configuration.
// Every flag can also be set through a GOCRYPTOR_<FLAG> environment variable
// or the config file given with --config.
func NewRootCommand(cfg *config.Config, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "gocryptor [flags] command [flags] files...",
		Short: "Batch file encryption utility",
		Long: `A batch file encryption utility using AES with a password.
Each file gets its own salt and key, results are reported per file.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	flags := root.PersistentFlags()

	flags.String("config", "", "Path to a config file (yaml, json or toml)")
	flags.BoolP("show", "s", false, "Show the configuration and exit")

	flags.StringP("password", "p", "", "Password, prompted for when not given")
	flags.String("password-file", "", "Path to a file whose first line is the password")

	flags.StringP("ext", "e", engine.DefaultExtension, "Extension appended to encrypted files")
	flags.StringP("backend", "b", encryption.BackendStdlib.String(),
		"Cipher backend, one of: "+strings.Join(encryption.Backends(), ", "))
	flags.StringP("mode", "m", encryption.ModeGCM.String(),
		"AES mode, one of: "+strings.Join(encryption.Modes(), ", "))
	flags.IntP("key-length", "k", 32, "AES key length in bytes (16, 24 or 32)") //nolint:mnd

	flags.IntP("parallel", "j", runtime.NumCPU(), "Number of parallel workers, defaults to number of CPUs")
	flags.BoolP("delete", "d", false, "Delete the original file after successful encryption/decryption")
	flags.Bool("preserve-timestamps", false, "Copy the modification time of each source to its result")
	flags.String("from", "", "Path to a JSONC file with an array of files to process")

	flags.BoolP("quiet", "q", false, "Suppress non-error output")
	flags.CountP("verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	flags.Bool("stats", false, "Print statistics after processing")

	root.AddCommand(NewEncryptCommand(cfg), NewDecryptCommand(cfg))

	return root
}

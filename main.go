// Command gocryptor encrypts and decrypts batches of files with a password.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/idelchi/gocryptor/internal/commands"
	"github.com/idelchi/gocryptor/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "unknown - unofficial & generated by unknown"

func main() {
	cfg := &config.Config{}

	root := commands.NewRootCommand(cfg, version)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

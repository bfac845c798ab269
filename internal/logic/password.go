package logic

import (
	"bufio"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/idelchi/gocryptor/internal/config"
)

// Prompter asks the user for a secret.
type Prompter func(prompt string) ([]byte, error)

// ErrPasswordMismatch is returned when the confirmation differs from the password.
var ErrPasswordMismatch = errors.New("passwords do not match")

// TerminalPrompter reads secrets from the terminal on in without echo, printing prompts to out.
func TerminalPrompter(in *os.File, out io.Writer) Prompter {
	return func(prompt string) ([]byte, error) {
		fd := int(in.Fd()) //nolint:gosec // file descriptors fit in int

		if !term.IsTerminal(fd) {
			return nil, errors.New("no password given and stdin is not a terminal")
		}

		fmt.Fprint(out, prompt)

		secret, err := term.ReadPassword(fd)

		fmt.Fprintln(out)

		if err != nil {
			return nil, fmt.Errorf("reading password: %w", err)
		}

		return secret, nil
	}
}

// ResolvePassword fills cfg.Password when no password was passed by flag, environment or config file.
// A password file wins over the prompt. Prompting for encryption asks twice.
func ResolvePassword(cfg *config.Config, prompt Prompter) error {
	if cfg.Password != "" {
		return nil
	}

	if cfg.PasswordFile != "" {
		password, err := readPasswordFile(cfg.PasswordFile)
		if err != nil {
			return err
		}

		cfg.Password = password

		return nil
	}

	password, err := prompt("Password: ")
	if err != nil {
		return err
	}

	if !cfg.Decrypt {
		confirmation, err := prompt("Confirm password: ")
		if err != nil {
			return err
		}

		if subtle.ConstantTimeCompare(password, confirmation) != 1 {
			return ErrPasswordMismatch
		}
	}

	cfg.Password = string(password)

	return nil
}

// readPasswordFile returns the first line of path.
func readPasswordFile(path string) (string, error) {
	file, err := os.Open(path) //nolint:gosec // path is from user-supplied config
	if err != nil {
		return "", fmt.Errorf("opening password file: %w", err)
	}

	defer file.Close()

	line, err := bufio.NewReader(file).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password file %q: %w", path, err)
	}

	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password file %q is empty", path)
	}

	return password, nil
}

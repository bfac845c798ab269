package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/idelchi/gocryptor/internal/encryption"
)

// MinPasswordLength is the shortest password a job accepts, in bytes.
const MinPasswordLength = 8

// DefaultExtension is appended to encrypted files.
const DefaultExtension = ".pyflk"

var (
	// ErrPasswordTooShort is returned for passwords shorter than MinPasswordLength.
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d bytes", MinPasswordLength)
	// ErrInvalidExtension is returned for extensions that are not a dot followed by word characters.
	ErrInvalidExtension = errors.New("extension must be a dot followed by letters, digits or underscores")
	// ErrNoSuffix is returned when a file to decrypt does not carry the job's extension.
	ErrNoSuffix = errors.New("file does not carry the encrypted extension")
)

var extensionPattern = regexp.MustCompile(`^\.\w+$`)

// ValidExtension reports whether ext can be used as the encrypted file extension.
func ValidExtension(ext string) bool {
	return extensionPattern.MatchString(ext)
}

// Job is the configuration shared by every file of one batch.
// It must not be modified once handed to New.
type Job struct {
	// Password is the secret every per-file key is derived from.
	Password []byte
	// Encrypting selects encryption, otherwise files are decrypted.
	Encrypting bool
	// Extension is appended on encryption and stripped on decryption.
	Extension string
	// Backend, Mode and KeyLength select the cipher.
	Backend   encryption.Backend
	Mode      encryption.Mode
	KeyLength int
	// Parallel bounds the number of files processed at the same time.
	Parallel int
	// Delete removes the source after a successful run.
	Delete bool
	// PreserveTimestamps copies the source modification time to the destination.
	PreserveTimestamps bool
}

// Validate checks the job before any file is touched.
func (j *Job) Validate() error {
	if len(j.Password) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	if !ValidExtension(j.Extension) {
		return fmt.Errorf("%w: %q", ErrInvalidExtension, j.Extension)
	}

	if j.Parallel < 0 {
		return fmt.Errorf("parallel must not be negative, got %d", j.Parallel)
	}

	if err := encryption.Supports(j.Backend, j.Mode, j.KeyLength); err != nil {
		return fmt.Errorf("cipher configuration: %w", err)
	}

	return nil
}

// Destination returns the path the result of processing path is written to.
// Decrypting a path without the extension, or one that is nothing but the extension,
// returns ErrNoSuffix.
func (j *Job) Destination(path string) (string, error) {
	dir, base := filepath.Dir(path), filepath.Base(path)

	if j.Encrypting {
		return filepath.Join(dir, base+j.Extension), nil
	}

	stripped, ok := strings.CutSuffix(base, j.Extension)
	if !ok || stripped == "" {
		return "", fmt.Errorf("%q: %w %q", path, ErrNoSuffix, j.Extension)
	}

	return filepath.Join(dir, stripped), nil
}

func (j *Job) locker() encryption.Locker {
	return encryption.Locker{
		Password:  j.Password,
		Backend:   j.Backend,
		Mode:      j.Mode,
		KeyLength: j.KeyLength,
	}
}

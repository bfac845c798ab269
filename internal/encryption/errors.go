package encryption

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFile is returned when the input is not a file produced by this tool,
	// or is truncated or otherwise corrupt.
	ErrInvalidFile = errors.New("not a valid encrypted file")
	// ErrAuthentication is returned when integrity verification fails,
	// typically because of a wrong password or tampered ciphertext.
	ErrAuthentication = fmt.Errorf("%w: authentication failed", ErrInvalidFile)
	// ErrMismatch is returned when the envelope was written with a different backend,
	// mode or key length than the one requested for decryption.
	ErrMismatch = fmt.Errorf("%w: configuration mismatch", ErrInvalidFile)
	// ErrUnsupported is returned for backend, mode and key length combinations
	// that cannot be served.
	ErrUnsupported = errors.New("unsupported cipher configuration")
	// ErrInvalidBlockSize is returned when CBC ciphertext is not aligned with the AES block size.
	ErrInvalidBlockSize = fmt.Errorf("%w: ciphertext is not a multiple of block size", ErrInvalidFile)
	// ErrInvalidPadding is returned when PKCS#7 padding is malformed.
	ErrInvalidPadding = fmt.Errorf("%w: invalid padding", ErrInvalidFile)
)

// truncated maps premature end-of-input onto ErrInvalidFile and leaves other errors untouched.
func truncated(what string, err error) error {
	if isEOF(err) {
		return fmt.Errorf("%w: %s truncated", ErrInvalidFile, what)
	}

	return fmt.Errorf("reading %s: %w", what, err)
}

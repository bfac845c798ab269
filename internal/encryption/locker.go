package encryption

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// Locker encrypts and decrypts streams with a password-derived key.
// The zero value is not usable; Password, Backend, Mode and KeyLength must be set.
type Locker struct {
	// Password is the secret the per-file key is derived from.
	Password []byte
	// Backend selects the primitive provider.
	Backend Backend
	// Mode selects the AES mode.
	Mode Mode
	// KeyLength is the AES key length in bytes.
	KeyLength int
}

// sealer streams the body of an envelope through one backend and mode.
// The header is bound to the ciphertext as associated data or MAC input.
type sealer interface {
	seal(dst io.Writer, src io.Reader, header []byte) error
	open(dst io.Writer, src io.Reader, header []byte) error
}

// Validate checks that the locker can be used.
func (l Locker) Validate() error {
	if len(l.Password) == 0 {
		return errors.New("empty password")
	}

	return Supports(l.Backend, l.Mode, l.KeyLength)
}

// Lock writes the envelope header followed by the encrypted contents of src to dst.
// The executable flag is recorded so that it can be restored on decryption.
func (l Locker) Lock(dst io.Writer, src io.Reader, executable bool) error {
	if err := l.Validate(); err != nil {
		return err
	}

	salt := make([]byte, envelopeSaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("generating salt: %w", err)
	}

	env := envelope{
		backend:    l.Backend,
		mode:       l.Mode,
		keyLength:  l.KeyLength,
		cost:       kdfCost,
		executable: executable,
		salt:       salt,
	}

	header := env.marshal()
	if _, err := dst.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	s, err := l.sealer(env)
	if err != nil {
		return err
	}

	return s.seal(dst, src, header)
}

// Unlock reads an envelope from src and writes the decrypted contents to dst.
// It reports whether the original file was executable.
// Input that was not produced by Lock with the same configuration yields an error
// matching ErrInvalidFile; a wrong password or tampering yields ErrAuthentication.
// Plaintext may have been written to dst before an authentication error is detected,
// callers must discard dst on error.
func (l Locker) Unlock(dst io.Writer, src io.Reader) (bool, error) {
	if err := l.Validate(); err != nil {
		return false, err
	}

	header, env, err := l.header(src)
	if err != nil {
		return false, err
	}

	s, err := l.sealer(env)
	if err != nil {
		return false, err
	}

	if err := s.open(dst, src, header); err != nil {
		return false, err
	}

	return env.executable, nil
}

// Inspect reads the envelope header from src and checks it against the locker configuration.
// No key is derived, so it is cheap enough to run before any output is created.
func (l Locker) Inspect(src io.Reader) error {
	if err := l.Validate(); err != nil {
		return err
	}

	_, _, err := l.header(src)

	return err
}

func (l Locker) header(src io.Reader) ([]byte, envelope, error) {
	header, env, err := readEnvelope(src)
	if err != nil {
		return nil, envelope{}, err
	}

	if env.backend != l.Backend || env.mode != l.Mode || env.keyLength != l.KeyLength {
		return nil, envelope{}, fmt.Errorf("%w: file uses %s/%s with %d-byte key",
			ErrMismatch, env.backend, env.mode, env.keyLength)
	}

	return header, env, nil
}

func (l Locker) sealer(env envelope) (sealer, error) {
	key, err := deriveKey(l.Password, env.salt, env.cost, env.mode.keySize(env.keyLength))
	if err != nil {
		return nil, err
	}

	switch env.backend {
	case BackendStdlib:
		if env.mode == ModeGCM {
			return newGCMSealer(key)
		}

		return newMACSealer(env.mode, key)
	case BackendTink:
		if env.mode == ModeSIV {
			return newSIVSealer(key)
		}

		return newTinkStreamSealer(env.mode, key)
	default:
		return nil, fmt.Errorf("%w: unknown backend %s", ErrUnsupported, env.backend)
	}
}

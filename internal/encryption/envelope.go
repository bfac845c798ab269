package encryption

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
)

const (
	envelopeMagic    = "PYFLK"
	envelopeVersion  = byte(1)
	envelopeTagSize  = sha256.Size
	envelopeSaltSize = 16

	envelopeFlagExec = 0x01
)

// Header layout: magic | version | backend | mode | key length | kdf cost | flags | salt.
const (
	offsetVersion = len(envelopeMagic) + iota
	offsetBackend
	offsetMode
	offsetKeyLength
	offsetCost
	offsetFlags
	offsetSalt
)

const envelopeHeaderSize = offsetSalt + envelopeSaltSize

// envelope is the self-describing header written in front of every encrypted file.
type envelope struct {
	backend    Backend
	mode       Mode
	keyLength  int
	cost       byte
	executable bool
	salt       []byte
}

func (e envelope) marshal() []byte {
	header := make([]byte, envelopeHeaderSize)
	copy(header, envelopeMagic)

	header[offsetVersion] = envelopeVersion
	header[offsetBackend] = byte(e.backend)
	header[offsetMode] = byte(e.mode)
	header[offsetKeyLength] = byte(e.keyLength)
	header[offsetCost] = e.cost

	var flags byte

	if e.executable {
		flags |= envelopeFlagExec
	}

	header[offsetFlags] = flags
	copy(header[offsetSalt:], e.salt)

	return header
}

func parseEnvelope(header []byte) (envelope, error) {
	if len(header) != envelopeHeaderSize {
		return envelope{}, fmt.Errorf("%w: envelope header too short", ErrInvalidFile)
	}

	if !bytes.Equal(header[:len(envelopeMagic)], []byte(envelopeMagic)) {
		return envelope{}, fmt.Errorf("%w: invalid envelope magic", ErrInvalidFile)
	}

	if version := header[offsetVersion]; version != envelopeVersion {
		return envelope{}, fmt.Errorf("%w: unsupported envelope version %d", ErrInvalidFile, version)
	}

	env := envelope{
		backend:    Backend(header[offsetBackend]),
		mode:       Mode(header[offsetMode]),
		keyLength:  int(header[offsetKeyLength]),
		cost:       header[offsetCost],
		executable: header[offsetFlags]&envelopeFlagExec != 0,
		salt:       bytes.Clone(header[offsetSalt:]),
	}

	if err := Supports(env.backend, env.mode, env.keyLength); err != nil {
		return envelope{}, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	if env.cost < kdfMinCost || env.cost > kdfMaxCost {
		return envelope{}, fmt.Errorf("%w: key derivation cost %d out of range", ErrInvalidFile, env.cost)
	}

	return env, nil
}

// readEnvelope reads and parses the header from r, returning both the raw bytes and the parsed form.
func readEnvelope(r io.Reader) ([]byte, envelope, error) {
	header := make([]byte, envelopeHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, envelope{}, truncated("envelope header", err)
	}

	env, err := parseEnvelope(header)
	if err != nil {
		return nil, envelope{}, err
	}

	return header, env, nil
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

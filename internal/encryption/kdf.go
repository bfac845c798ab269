package encryption

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/scrypt"
)

const (
	// kdfCost is log2 of the scrypt work factor N used for new files.
	kdfCost = 15
	// Files claiming a cost outside this range are rejected before any work is done.
	kdfMinCost = 10
	kdfMaxCost = 20

	scryptR = 8
	scryptP = 1

	macKeySize = 32
)

// deriveKey stretches the password into size bytes of key material.
func deriveKey(password, salt []byte, cost byte, size int) ([]byte, error) {
	key, err := scrypt.Key(password, salt, 1<<cost, scryptR, scryptP, size)
	if err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}

	return key, nil
}

// splitKey expands a derived key into independent encryption and MAC keys.
func splitKey(key []byte) (encKey, macKey []byte, err error) {
	reader := hkdf.New(sha256.New, key, nil, []byte("gocryptor/encrypt-then-mac"))
	derived := make([]byte, len(key)+macKeySize)

	if _, err := io.ReadFull(reader, derived); err != nil {
		return nil, nil, fmt.Errorf("splitting keys: %w", err)
	}

	return derived[:len(key)], derived[len(key):], nil
}

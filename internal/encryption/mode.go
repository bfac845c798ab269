package encryption

import (
	"fmt"
	"slices"
	"strings"
)

// Backend selects the provider of the underlying AES primitives.
type Backend byte

const (
	// BackendStdlib uses crypto/aes and crypto/cipher, with HMAC-SHA256 for non-AEAD modes.
	BackendStdlib Backend = iota + 1
	// BackendTink uses Google Tink streaming and deterministic AEAD primitives.
	BackendTink
)

// Mode represents the AES block cipher mode.
type Mode byte

const (
	// ModeGCM is Galois/Counter Mode.
	ModeGCM Mode = iota + 1
	// ModeSIV is Synthetic Initialization Vector mode.
	ModeSIV
	// ModeCTR is Counter mode.
	ModeCTR
	// ModeCBC is Cipher Block Chaining mode.
	ModeCBC
	// ModeCFB is Cipher Feedback mode.
	ModeCFB
	// ModeOFB is Output Feedback mode.
	ModeOFB
)

// KeyLengths lists the accepted derived key lengths in bytes.
//
//nolint:gochecknoglobals
var KeyLengths = []int{16, 24, 32}

//nolint:gochecknoglobals
var (
	backendNames = map[Backend]string{
		BackendStdlib: "stdlib",
		BackendTink:   "tink",
	}
	modeNames = map[Mode]string{
		ModeGCM: "GCM",
		ModeSIV: "SIV",
		ModeCTR: "CTR",
		ModeCBC: "CBC",
		ModeCFB: "CFB",
		ModeOFB: "OFB",
	}
	// support lists the modes and key lengths each backend can serve.
	support = map[Backend]map[Mode][]int{
		BackendStdlib: {
			ModeGCM: {16, 24, 32},
			ModeCTR: {16, 24, 32},
			ModeCBC: {16, 24, 32},
			ModeCFB: {16, 24, 32},
			ModeOFB: {16, 24, 32},
		},
		BackendTink: {
			ModeGCM: {16, 32},
			ModeCTR: {16, 32},
			ModeSIV: {32},
		},
	}
)

func (b Backend) String() string {
	if name, ok := backendNames[b]; ok {
		return name
	}

	return fmt.Sprintf("Backend(%d)", byte(b))
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}

	return fmt.Sprintf("Mode(%d)", byte(m))
}

// Authenticated reports whether the mode provides integrity on its own.
// Other modes are paired with an HMAC by the stdlib backend.
func (m Mode) Authenticated() bool {
	return m == ModeGCM || m == ModeSIV
}

// keySize is the number of bytes derived from the password for the given key length.
// AES-SIV uses two AES-256 keys.
func (m Mode) keySize(keyLength int) int {
	if m == ModeSIV {
		return 2 * keyLength
	}

	return keyLength
}

// ParseBackend resolves a backend by name, case-insensitively.
func ParseBackend(name string) (Backend, error) {
	for backend, candidate := range backendNames {
		if strings.EqualFold(candidate, name) {
			return backend, nil
		}
	}

	return 0, fmt.Errorf("%w: unknown backend %q", ErrUnsupported, name)
}

// ParseMode resolves a mode by name, case-insensitively. The "MODE_" prefix is optional.
func ParseMode(name string) (Mode, error) {
	trimmed := strings.TrimPrefix(strings.ToUpper(name), "MODE_")

	for mode, candidate := range modeNames {
		if candidate == trimmed {
			return mode, nil
		}
	}

	return 0, fmt.Errorf("%w: unknown mode %q", ErrUnsupported, name)
}

// Backends returns the names of all backends.
func Backends() []string {
	return sortedNames(backendNames)
}

// Modes returns the names of all modes.
func Modes() []string {
	return sortedNames(modeNames)
}

func sortedNames[K comparable](names map[K]string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, name)
	}

	slices.Sort(out)

	return out
}

// Supports checks whether backend can serve mode with the given key length.
func Supports(backend Backend, mode Mode, keyLength int) error {
	modes, ok := support[backend]
	if !ok {
		return fmt.Errorf("%w: unknown backend %s", ErrUnsupported, backend)
	}

	lengths, ok := modes[mode]
	if !ok {
		return fmt.Errorf("%w: backend %s does not provide mode %s", ErrUnsupported, backend, mode)
	}

	if !slices.Contains(lengths, keyLength) {
		return fmt.Errorf("%w: backend %s with mode %s requires a key length of %v bytes, got %d",
			ErrUnsupported, backend, mode, lengths, keyLength)
	}

	return nil
}

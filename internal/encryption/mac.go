package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"hash"
	"io"
)

// macSealer implements encrypt-then-MAC for the modes without built-in authentication.
// The body is IV | ciphertext | HMAC-SHA256(header | IV | ciphertext).
type macSealer struct {
	mode   Mode
	block  cipher.Block
	macKey []byte
}

func newMACSealer(mode Mode, key []byte) (*macSealer, error) {
	encKey, macKey, err := splitKey(key)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	switch mode {
	case ModeCTR, ModeCBC, ModeCFB, ModeOFB:
	default:
		return nil, fmt.Errorf("%w: mode %s is not available with HMAC", ErrUnsupported, mode)
	}

	return &macSealer{mode: mode, block: block, macKey: macKey}, nil
}

func (s *macSealer) newMAC(header, iv []byte) hash.Hash {
	mac := hmac.New(sha256.New, s.macKey)
	mac.Write(header)
	mac.Write(iv)

	return mac
}

func (s *macSealer) stream(iv []byte, decrypt bool) cipher.Stream {
	switch s.mode {
	case ModeCFB:
		if decrypt {
			return cipher.NewCFBDecrypter(s.block, iv)
		}

		return cipher.NewCFBEncrypter(s.block, iv)
	case ModeOFB:
		return cipher.NewOFB(s.block, iv)
	default:
		return cipher.NewCTR(s.block, iv)
	}
}

func (s *macSealer) seal(dst io.Writer, src io.Reader, header []byte) error {
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return fmt.Errorf("generating IV: %w", err)
	}

	if _, err := dst.Write(iv); err != nil {
		return fmt.Errorf("writing IV: %w", err)
	}

	mac := s.newMAC(header, iv)
	out := io.MultiWriter(dst, mac)

	var err error

	if s.mode == ModeCBC {
		err = encryptCBC(out, src, cipher.NewCBCEncrypter(s.block, iv))
	} else {
		err = xorStream(out, src, s.stream(iv, false))
	}

	if err != nil {
		return err
	}

	if _, err := dst.Write(mac.Sum(nil)); err != nil {
		return fmt.Errorf("writing authentication tag: %w", err)
	}

	return nil
}

// open verifies the tag only once the whole ciphertext has been consumed.
// For CBC the final padded block is held back until the tag has been verified.
func (s *macSealer) open(dst io.Writer, src io.Reader, header []byte) error {
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(src, iv); err != nil {
		return truncated("IV", err)
	}

	mac := s.newMAC(header, iv)
	tail := newTailReader(src, envelopeTagSize)
	ciphertext := io.TeeReader(tail, mac)

	var (
		final []byte
		err   error
	)

	if s.mode == ModeCBC {
		final, err = decryptCBC(dst, ciphertext, cipher.NewCBCDecrypter(s.block, iv))
	} else {
		err = xorStream(dst, ciphertext, s.stream(iv, true))
	}

	if err != nil {
		return err
	}

	if len(tail.Tail()) != envelopeTagSize {
		return fmt.Errorf("%w: authentication tag missing", ErrInvalidFile)
	}

	if !hmac.Equal(mac.Sum(nil), tail.Tail()) {
		return ErrAuthentication
	}

	if s.mode != ModeCBC {
		return nil
	}

	unpadded, err := pkcs7Unpad(final)
	if err != nil {
		return err
	}

	if _, err := dst.Write(unpadded); err != nil {
		return fmt.Errorf("writing final block: %w", err)
	}

	return nil
}

// xorStream copies src to dst through the key stream.
func xorStream(dst io.Writer, src io.Reader, stream cipher.Stream) error {
	bufPtr := getBuffer()
	defer putBuffer(bufPtr)

	buf := *bufPtr

	for {
		n, err := src.Read(buf)
		if n > 0 {
			stream.XORKeyStream(buf[:n], buf[:n])

			if _, err := dst.Write(buf[:n]); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
		}

		if err == io.EOF {
			return nil
		}

		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
	}
}

package encryption

import (
	"bufio"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	gcmSegmentSize     = defaultBufferSize
	gcmNoncePrefixSize = 8
)

// gcmSealer splits the plaintext into fixed-size segments, each sealed with AES-GCM.
// Segment nonces are a random prefix followed by a counter, and the final segment
// carries a flag in its associated data so that truncation is detected.
type gcmSealer struct {
	aead cipher.AEAD
}

func newGCMSealer(key []byte) (*gcmSealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	return &gcmSealer{aead: aead}, nil
}

func (s *gcmSealer) seal(dst io.Writer, src io.Reader, header []byte) error {
	prefix := make([]byte, gcmNoncePrefixSize)
	if _, err := io.ReadFull(rand.Reader, prefix); err != nil {
		return fmt.Errorf("generating nonce prefix: %w", err)
	}

	if _, err := dst.Write(prefix); err != nil {
		return fmt.Errorf("writing nonce prefix: %w", err)
	}

	reader := bufio.NewReaderSize(src, gcmSegmentSize)
	plain := make([]byte, gcmSegmentSize)
	sealed := make([]byte, 0, gcmSegmentSize+s.aead.Overhead())

	for counter := uint32(0); ; counter++ {
		n, last, err := readSegment(reader, plain)
		if err != nil {
			return fmt.Errorf("reading plaintext: %w", err)
		}

		sealed = s.aead.Seal(sealed[:0], segmentNonce(prefix, counter), plain[:n], segmentAD(header, last))

		if _, err := dst.Write(sealed); err != nil {
			return fmt.Errorf("writing segment: %w", err)
		}

		if last {
			return nil
		}

		if counter == math.MaxUint32 {
			return errors.New("input too large")
		}
	}
}

func (s *gcmSealer) open(dst io.Writer, src io.Reader, header []byte) error {
	prefix := make([]byte, gcmNoncePrefixSize)
	if _, err := io.ReadFull(src, prefix); err != nil {
		return truncated("nonce prefix", err)
	}

	overhead := s.aead.Overhead()
	reader := bufio.NewReaderSize(src, gcmSegmentSize+overhead)
	sealed := make([]byte, gcmSegmentSize+overhead)
	plain := make([]byte, 0, gcmSegmentSize)

	for counter := uint32(0); ; counter++ {
		n, last, err := readSegment(reader, sealed)
		if err != nil {
			return fmt.Errorf("reading segment: %w", err)
		}

		if n < overhead {
			return fmt.Errorf("%w: segment %d truncated", ErrInvalidFile, counter)
		}

		plain, err = s.aead.Open(plain[:0], segmentNonce(prefix, counter), sealed[:n], segmentAD(header, last))
		if err != nil {
			return fmt.Errorf("%w: segment %d", ErrAuthentication, counter)
		}

		if _, err := dst.Write(plain); err != nil {
			return fmt.Errorf("writing plaintext: %w", err)
		}

		if last {
			return nil
		}

		if counter == math.MaxUint32 {
			return fmt.Errorf("%w: too many segments", ErrInvalidFile)
		}
	}
}

// readSegment fills buf as far as possible and reports whether the input is exhausted.
func readSegment(reader *bufio.Reader, buf []byte) (int, bool, error) {
	n, err := io.ReadFull(reader, buf)

	switch {
	case isEOF(err):
		return n, true, nil
	case err != nil:
		return 0, false, err
	}

	if _, err := reader.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return n, true, nil
		}

		return 0, false, err
	}

	return n, false, nil
}

func segmentNonce(prefix []byte, counter uint32) []byte {
	const counterSize = 4

	nonce := make([]byte, len(prefix)+counterSize)
	copy(nonce, prefix)
	binary.BigEndian.PutUint32(nonce[len(prefix):], counter)

	return nonce
}

func segmentAD(header []byte, last bool) []byte {
	ad := make([]byte, len(header)+1)
	copy(ad, header)

	if last {
		ad[len(header)] = 1
	}

	return ad
}

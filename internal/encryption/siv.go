package encryption

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/tink-crypto/tink-go/v2/daead"
	aes_sivpb "github.com/tink-crypto/tink-go/v2/proto/aes_siv_go_proto"
	"github.com/tink-crypto/tink-go/v2/tink"
)

const (
	sivChunkSize = defaultBufferSize
	sivOverhead  = 16
)

// sivSealer encrypts length-prefixed chunks with Tink's AES-SIV deterministic AEAD.
// Each chunk is bound to the header, its index and a final-chunk flag.
type sivSealer struct {
	daead tink.DeterministicAEAD
}

func newSIVSealer(key []byte) (*sivSealer, error) {
	handle, err := newRawKeysetHandle(tinkTypeURLPrefix+"AesSivKey", &aes_sivpb.AesSivKey{
		Version:  0,
		KeyValue: key,
	})
	if err != nil {
		return nil, err
	}

	primitive, err := daead.New(handle)
	if err != nil {
		return nil, fmt.Errorf("creating DeterministicAEAD: %w", err)
	}

	return &sivSealer{daead: primitive}, nil
}

func (s *sivSealer) seal(dst io.Writer, src io.Reader, header []byte) error {
	writer := newStreamingWriter(dst, s.daead, header)

	bufPtr := getBuffer()
	defer putBuffer(bufPtr)

	if _, err := io.CopyBuffer(writer, src, *bufPtr); err != nil {
		return fmt.Errorf("encrypting chunks: %w", err)
	}

	return writer.Close()
}

func (s *sivSealer) open(dst io.Writer, src io.Reader, header []byte) error {
	reader := bufio.NewReader(src)

	for index := uint64(0); ; index++ {
		var size uint32
		if err := binary.Read(reader, binary.BigEndian, &size); err != nil {
			return truncated(fmt.Sprintf("chunk %d size", index), err)
		}

		if size < sivOverhead || size > sivChunkSize+sivOverhead {
			return fmt.Errorf("%w: chunk %d has invalid size %d", ErrInvalidFile, index, size)
		}

		encrypted := make([]byte, size)
		if _, err := io.ReadFull(reader, encrypted); err != nil {
			return truncated(fmt.Sprintf("chunk %d", index), err)
		}

		last := false
		if _, err := reader.Peek(1); err != nil {
			if !errors.Is(err, io.EOF) {
				return fmt.Errorf("reading chunk %d: %w", index+1, err)
			}

			last = true
		}

		decrypted, err := s.daead.DecryptDeterministically(encrypted, chunkAssociatedData(header, index, last))
		if err != nil {
			return fmt.Errorf("%w: chunk %d", ErrAuthentication, index)
		}

		if _, err := dst.Write(decrypted); err != nil {
			return fmt.Errorf("writing decrypted chunk: %w", err)
		}

		if last {
			return nil
		}
	}
}

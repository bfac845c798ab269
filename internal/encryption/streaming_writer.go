package encryption

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/tink-crypto/tink-go/v2/tink"
)

// streamingWriter wraps an io.Writer with chunked deterministic encryption.
// A chunk is only flushed once more data follows it, so that Close always
// emits the final chunk, even for empty input.
type streamingWriter struct {
	w          io.Writer
	daead      tink.DeterministicAEAD
	buffer     []byte
	header     []byte
	chunkIndex uint64
}

func newStreamingWriter(w io.Writer, daead tink.DeterministicAEAD, header []byte) *streamingWriter {
	hdrCopy := make([]byte, len(header))
	copy(hdrCopy, header)

	return &streamingWriter{
		w:      w,
		daead:  daead,
		buffer: make([]byte, 0, 2*sivChunkSize),
		header: hdrCopy,
	}
}

// Write implements io.Writer, buffering data until a complete chunk can be encrypted.
func (sw *streamingWriter) Write(data []byte) (int, error) {
	sw.buffer = append(sw.buffer, data...)

	for len(sw.buffer) > sivChunkSize {
		if err := sw.flushChunk(sivChunkSize, false); err != nil {
			return 0, err
		}
	}

	return len(data), nil
}

// Close implements io.Closer, encrypting the remaining buffered data as the final chunk.
func (sw *streamingWriter) Close() error {
	return sw.flushChunk(len(sw.buffer), true)
}

func (sw *streamingWriter) flushChunk(size int, last bool) error {
	ad := chunkAssociatedData(sw.header, sw.chunkIndex, last)

	encrypted, err := sw.daead.EncryptDeterministically(sw.buffer[:size], ad)
	if err != nil {
		return fmt.Errorf("encrypting chunk: %w", err)
	}

	//nolint:gosec // chunks are bounded by sivChunkSize
	if err := binary.Write(sw.w, binary.BigEndian, uint32(len(encrypted))); err != nil {
		return fmt.Errorf("writing chunk size: %w", err)
	}

	if _, err := sw.w.Write(encrypted); err != nil {
		return fmt.Errorf("writing encrypted chunk: %w", err)
	}

	sw.buffer = append(sw.buffer[:0], sw.buffer[size:]...)
	sw.chunkIndex++

	return nil
}

func chunkAssociatedData(header []byte, index uint64, last bool) []byte {
	const chunkIndexSize = 8

	ad := make([]byte, len(header)+chunkIndexSize+1)
	copy(ad, header)
	binary.BigEndian.PutUint64(ad[len(header):], index)

	if last {
		ad[len(ad)-1] = 1
	}

	return ad
}

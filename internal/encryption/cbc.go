package encryption

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"io"
)

// encryptCBC encrypts src in CBC mode, applying PKCS#7 padding to the final block.
func encryptCBC(dst io.Writer, src io.Reader, mode cipher.BlockMode) error {
	bufPtr := getBuffer()
	defer putBuffer(bufPtr)

	buf := *bufPtr
	pending := make([]byte, 0, len(buf)+aes.BlockSize)

	for {
		n, err := src.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
		}

		if err == io.EOF {
			break
		}

		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		// Keep at least one byte back so the final block is always padded.
		full := (len(pending) - 1) / aes.BlockSize * aes.BlockSize
		if full <= 0 {
			continue
		}

		mode.CryptBlocks(pending[:full], pending[:full])

		if _, err := dst.Write(pending[:full]); err != nil {
			return fmt.Errorf("writing encrypted blocks: %w", err)
		}

		pending = append(pending[:0], pending[full:]...)
	}

	padded := pkcs7Pad(pending, aes.BlockSize)
	mode.CryptBlocks(padded, padded)

	if _, err := dst.Write(padded); err != nil {
		return fmt.Errorf("writing final encrypted block: %w", err)
	}

	return nil
}

// decryptCBC decrypts src in CBC mode, writing every block but the last to dst.
// The last block is returned still padded so that the caller can verify integrity first.
func decryptCBC(dst io.Writer, src io.Reader, mode cipher.BlockMode) ([]byte, error) {
	bufPtr := getBuffer()
	defer putBuffer(bufPtr)

	buf := *bufPtr
	pending := make([]byte, 0, len(buf)+aes.BlockSize)

	for {
		n, err := src.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
		}

		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}

		// Hold back the last complete block, it may be the padded one.
		full := (len(pending)/aes.BlockSize - 1) * aes.BlockSize
		if full <= 0 {
			continue
		}

		mode.CryptBlocks(pending[:full], pending[:full])

		if _, err := dst.Write(pending[:full]); err != nil {
			return nil, fmt.Errorf("writing decrypted blocks: %w", err)
		}

		pending = append(pending[:0], pending[full:]...)
	}

	if len(pending) == 0 || len(pending)%aes.BlockSize != 0 {
		return nil, ErrInvalidBlockSize
	}

	if len(pending) > aes.BlockSize {
		head := len(pending) - aes.BlockSize
		mode.CryptBlocks(pending[:head], pending[:head])

		if _, err := dst.Write(pending[:head]); err != nil {
			return nil, fmt.Errorf("writing decrypted blocks: %w", err)
		}

		pending = pending[head:]
	}

	mode.CryptBlocks(pending, pending)

	return pending, nil
}

// pkcs7Pad adds PKCS#7 padding to the data to make it a multiple of blockSize.
func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize

	return append(data, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

// pkcs7Unpad removes PKCS#7 padding from a single decrypted block.
func pkcs7Unpad(data []byte) ([]byte, error) {
	length := len(data)
	if length == 0 {
		return nil, ErrInvalidPadding
	}

	padding := int(data[length-1])
	if padding == 0 || padding > length || padding > aes.BlockSize {
		return nil, fmt.Errorf("%w: size %d", ErrInvalidPadding, padding)
	}

	for i := length - padding; i < length; i++ {
		if data[i] != byte(padding) {
			return nil, ErrInvalidPadding
		}
	}

	return data[:length-padding], nil
}

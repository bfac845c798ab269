package encryption

import (
	"bytes"
	"fmt"
	"io"

	"github.com/tink-crypto/tink-go/v2/insecurecleartextkeyset"
	"github.com/tink-crypto/tink-go/v2/keyset"
	ctrhmacpb "github.com/tink-crypto/tink-go/v2/proto/aes_ctr_hmac_streaming_go_proto"
	gcmhkdfpb "github.com/tink-crypto/tink-go/v2/proto/aes_gcm_hkdf_streaming_go_proto"
	commonpb "github.com/tink-crypto/tink-go/v2/proto/common_go_proto"
	hmacpb "github.com/tink-crypto/tink-go/v2/proto/hmac_go_proto"
	tinkpb "github.com/tink-crypto/tink-go/v2/proto/tink_go_proto"
	"github.com/tink-crypto/tink-go/v2/streamingaead"
	"github.com/tink-crypto/tink-go/v2/tink"

	"google.golang.org/protobuf/proto"
)

const (
	tinkTypeURLPrefix = "type.googleapis.com/google.crypto.tink."

	tinkSegmentSize = 1 << 20
	tinkHMACTagSize = 32
)

// tinkStreamSealer wraps a Tink streaming AEAD primitive.
// GCM maps onto AES-GCM-HKDF streaming, CTR onto AES-CTR-HMAC streaming.
type tinkStreamSealer struct {
	primitive tink.StreamingAEAD
}

func newTinkStreamSealer(mode Mode, key []byte) (*tinkStreamSealer, error) {
	var (
		typeURL string
		message proto.Message
	)

	//nolint:gosec // key lengths are bounded by Supports
	switch mode {
	case ModeGCM:
		typeURL = tinkTypeURLPrefix + "AesGcmHkdfStreamingKey"
		message = &gcmhkdfpb.AesGcmHkdfStreamingKey{
			Version:  0,
			KeyValue: key,
			Params: &gcmhkdfpb.AesGcmHkdfStreamingParams{
				CiphertextSegmentSize: tinkSegmentSize,
				DerivedKeySize:        uint32(len(key)),
				HkdfHashType:          commonpb.HashType_SHA256,
			},
		}
	case ModeCTR:
		typeURL = tinkTypeURLPrefix + "AesCtrHmacStreamingKey"
		message = &ctrhmacpb.AesCtrHmacStreamingKey{
			Version:  0,
			KeyValue: key,
			Params: &ctrhmacpb.AesCtrHmacStreamingParams{
				CiphertextSegmentSize: tinkSegmentSize,
				DerivedKeySize:        uint32(len(key)),
				HkdfHashType:          commonpb.HashType_SHA256,
				HmacParams: &hmacpb.HmacParams{
					Hash:    commonpb.HashType_SHA256,
					TagSize: tinkHMACTagSize,
				},
			},
		}
	default:
		return nil, fmt.Errorf("%w: tink does not stream mode %s", ErrUnsupported, mode)
	}

	handle, err := newRawKeysetHandle(typeURL, message)
	if err != nil {
		return nil, err
	}

	primitive, err := streamingaead.New(handle)
	if err != nil {
		return nil, fmt.Errorf("creating StreamingAEAD: %w", err)
	}

	return &tinkStreamSealer{primitive: primitive}, nil
}

func (s *tinkStreamSealer) seal(dst io.Writer, src io.Reader, header []byte) error {
	writer, err := s.primitive.NewEncryptingWriter(dst, header)
	if err != nil {
		return fmt.Errorf("creating encrypting writer: %w", err)
	}

	bufPtr := getBuffer()
	defer putBuffer(bufPtr)

	if _, err := io.CopyBuffer(writer, src, *bufPtr); err != nil {
		writer.Close() //nolint:errcheck,gosec // the copy error takes precedence

		return fmt.Errorf("encrypting stream: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("finishing stream: %w", err)
	}

	return nil
}

func (s *tinkStreamSealer) open(dst io.Writer, src io.Reader, header []byte) error {
	source := &sourceReader{r: src}

	reader, err := s.primitive.NewDecryptingReader(source, header)
	if err != nil {
		return source.classify(err)
	}

	bufPtr := getBuffer()
	defer putBuffer(bufPtr)

	buf := *bufPtr

	for {
		n, err := reader.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return fmt.Errorf("writing plaintext: %w", err)
			}
		}

		if err == io.EOF {
			return nil
		}

		if err != nil {
			return source.classify(err)
		}
	}
}

// sourceReader remembers I/O errors of the underlying reader,
// so that they can be told apart from Tink's verification failures.
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		s.err = err
	}

	return n, err //nolint:wrapcheck // must pass io.EOF through unchanged
}

func (s *sourceReader) classify(err error) error {
	if s.err != nil {
		return fmt.Errorf("reading ciphertext: %w", s.err)
	}

	return fmt.Errorf("%w: %w", ErrAuthentication, err)
}

// newRawKeysetHandle wraps raw key material into a single-key Tink keyset handle.
func newRawKeysetHandle(typeURL string, key proto.Message) (*keyset.Handle, error) {
	serializedKey, err := proto.Marshal(key)
	if err != nil {
		return nil, fmt.Errorf("serializing key: %w", err)
	}

	keySet := &tinkpb.Keyset{
		PrimaryKeyId: 1,
		Key: []*tinkpb.Keyset_Key{
			{
				KeyData: &tinkpb.KeyData{
					TypeUrl:         typeURL,
					Value:           serializedKey,
					KeyMaterialType: tinkpb.KeyData_SYMMETRIC,
				},
				Status:           tinkpb.KeyStatusType_ENABLED,
				KeyId:            1,
				OutputPrefixType: tinkpb.OutputPrefixType_RAW,
			},
		},
	}

	serializedKeyset, err := proto.Marshal(keySet)
	if err != nil {
		return nil, fmt.Errorf("serializing keyset: %w", err)
	}

	handle, err := insecurecleartextkeyset.Read(keyset.NewBinaryReader(bytes.NewReader(serializedKeyset)))
	if err != nil {
		return nil, fmt.Errorf("creating keyset handle: %w", err)
	}

	return handle, nil
}

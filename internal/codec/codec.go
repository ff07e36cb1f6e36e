// Package codec bridges binary resource payloads and the text-only values the
// key-value store holds. It does not compress or encrypt.
package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ChunkSize is the number of payload bytes fed to the encoder per write.
const ChunkSize = 8192

var (
	// ErrInvalidEncoding is returned when text is not valid Encode output.
	ErrInvalidEncoding = errors.New("invalid payload encoding")
	// ErrSizeMismatch is returned when the decoded length differs from the expected size.
	ErrSizeMismatch = errors.New("decoded payload size mismatch")
)

// Encode returns the padded standard base64 form of b. The payload is streamed
// through the encoder in ChunkSize slices; the encoder buffers partial groups
// across writes, so the result equals a single-shot encoding.
func Encode(b []byte) string {
	var sb strings.Builder
	sb.Grow(base64.StdEncoding.EncodedLen(len(b)))

	enc := base64.NewEncoder(base64.StdEncoding, &sb)
	for off := 0; off < len(b); off += ChunkSize {
		end := min(off+ChunkSize, len(b))
		// strings.Builder writes never fail.
		_, _ = enc.Write(b[off:end])
	}
	_ = enc.Close()
	return sb.String()
}

// Decode reverses Encode. When size is non-negative the decoded length must
// equal it exactly.
func Decode(text string, size int64) ([]byte, error) {
	out, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	if size >= 0 && int64(len(out)) != size {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrSizeMismatch, len(out), size)
	}
	return out, nil
}

package logfile

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Decompress returns the zlib decompressed data.
func Decompress(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decompressing body: %w", err)
	}

	defer r.Close()

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompressing body: %w", err)
	}

	return body, nil
}

// Compress returns the zlib compressed data.
func Compress(data []byte) []byte {
	buf := bytes.Buffer{}

	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()

	return buf.Bytes()
}

// DecodeBody returns the plain body. Bodies of headers with a content key
// are encrypted and fail with ErrEncryptionNotImplemented.
func DecodeBody(h *Header, body []byte) ([]byte, error) {
	if len(h.Key) != 0 {
		return nil, fmt.Errorf("public key %q: %w", h.PublicKeyID, ErrEncryptionNotImplemented)
	}

	return Decompress(body)
}

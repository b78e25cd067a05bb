package codec

import (
	"errors"
	"unicode/utf8"
)

var ErrInvalidUTF8 = errors.New("invalid utf-8")

var (
	_ Codec[[]byte] = Bytes{}
	_ Codec[string] = String{}
)

// Bytes is an identity codec for []byte values. Decode always succeeds and
// returns the body unchanged.
type Bytes struct{}

func (Bytes) Encode(b []byte) ([]byte, error) { return b, nil }
func (Bytes) Decode(b []byte) ([]byte, error) { return b, nil }

// String decodes UTF-8 text. Bodies that are not valid UTF-8 fail with
// ErrInvalidUTF8.
type String struct{}

func (String) Encode(s string) ([]byte, error) { return []byte(s), nil }
func (String) Decode(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", wrap("string", ErrInvalidUTF8)
	}
	return string(b), nil
}

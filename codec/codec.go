// Package codec provides the decoders a condcache.Handle uses to turn an
// object body into a typed value.
//
// A Decoder must be pure: no I/O, no retained reference to shared state, and
// no panics on bad input. Built-in decoders report failures as *Error.
// Most of them also implement Encoder, which is handy for writing fixtures.
package codec

import "fmt"

// Decoder decodes a complete object body into V.
type Decoder[V any] interface {
	Decode([]byte) (V, error)
}

// Encoder encodes V for storage.
type Encoder[V any] interface {
	Encode(V) ([]byte, error)
}

// Codec encodes/decodes values V to []byte.
type Codec[V any] interface {
	Encoder[V]
	Decoder[V]
}

// Func adapts a plain function to Decoder.
type Func[V any] func([]byte) (V, error)

func (f Func[V]) Decode(b []byte) (V, error) { return f(b) }

// Error reports a payload that could not be decoded by the named codec.
type Error struct {
	Codec string
	Err   error
}

func (e *Error) Error() string { return fmt.Sprintf("codec %s: %v", e.Codec, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

func wrap(name string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Codec: name, Err: err}
}

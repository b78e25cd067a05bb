package codec

import "github.com/vmihailenco/msgpack/v5"

var _ Codec[struct{}] = Msgpack[struct{}]{}

// Msgpack is a Codec that serializes values using vmihailenco/msgpack/v5.
// The zero value is ready to use.
//
// Use `msgpack:"fieldName"` tags if you need explicit control over field names.
type Msgpack[V any] struct{}

func (Msgpack[V]) Encode(v V) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (Msgpack[V]) Decode(b []byte) (V, error) {
	var v V
	if err := msgpack.Unmarshal(b, &v); err != nil {
		var zero V
		return zero, wrap("msgpack", err)
	}
	return v, nil
}

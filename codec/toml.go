package codec

import (
	"bytes"

	"github.com/BurntSushi/toml"
)

var _ Codec[map[string]any] = TOML[map[string]any]{}

// TOML decodes TOML documents with BurntSushi/toml. V must be a struct or a
// map, since a TOML document is always a table.
type TOML[V any] struct{}

func (TOML[V]) Encode(v V) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (TOML[V]) Decode(b []byte) (V, error) {
	var v V
	if err := toml.Unmarshal(b, &v); err != nil {
		var zero V
		return zero, wrap("toml", err)
	}
	return v, nil
}

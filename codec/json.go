package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

var _ Codec[struct{}] = JSON[struct{}]{}

var errTrailing = errors.New("trailing data after top-level value")

// JSON decodes with encoding/json. The zero value is ready to use.
// Strict rejects fields that V does not declare.
type JSON[V any] struct {
	Strict bool
}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }

func (c JSON[V]) Decode(b []byte) (V, error) {
	var v, zero V
	if !c.Strict {
		if err := json.Unmarshal(b, &v); err != nil {
			return zero, wrap("json", err)
		}
		return v, nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return zero, wrap("json", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return zero, wrap("json", errTrailing)
	}
	return v, nil
}

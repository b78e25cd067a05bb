package codec

import "sigs.k8s.io/yaml"

var _ Codec[struct{}] = YAML[struct{}]{}

// YAML decodes YAML (or JSON) documents. The body is converted to JSON first,
// so V is described with `json` tags.
type YAML[V any] struct {
	Strict bool
}

func (YAML[V]) Encode(v V) ([]byte, error) { return yaml.Marshal(v) }

func (c YAML[V]) Decode(b []byte) (V, error) {
	var v V
	var err error
	if c.Strict {
		err = yaml.UnmarshalStrict(b, &v)
	} else {
		err = yaml.Unmarshal(b, &v)
	}
	if err != nil {
		var zero V
		return zero, wrap("yaml", err)
	}
	return v, nil
}

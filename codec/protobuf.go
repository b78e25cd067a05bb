package codec

import (
	"errors"

	"google.golang.org/protobuf/proto"
)

var errNoCtor = errors.New("protobuf codec has no message constructor; use NewProtobuf")

// Protobuf decodes binary protobuf messages.
type Protobuf[T proto.Message] struct {
	new func() T // constructor for a concrete message (e.g., func() *mypb.Config { return &mypb.Config{} })
}

func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{new: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return proto.Marshal(v)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	var zero T
	if c.new == nil {
		return zero, wrap("protobuf", errNoCtor)
	}
	m := c.new()
	if err := proto.Unmarshal(b, m); err != nil {
		return zero, wrap("protobuf", err)
	}
	return m, nil
}

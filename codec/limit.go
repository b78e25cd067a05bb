package codec

import (
	"errors"
	"fmt"
)

var (
	ErrTooLarge = errors.New("payload too large")
	errNoInner  = errors.New("no inner decoder")
)

// Limit wraps another decoder to enforce a maximum allowed payload size.
// If MaxDecode <= 0, size limiting is disabled.
//
// Typical use: protect against oversized objects in a bucket shared with
// other writers.
type Limit[V any] struct {
	// Inner is the underlying decoder being wrapped. It must be set.
	Inner Decoder[V]
	// MaxDecode is the maximum permitted length (in bytes) of the incoming
	// payload. Longer payloads fail without invoking Inner.
	MaxDecode int
}

func (c Limit[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, wrap("limit", fmt.Errorf("%w: %d > %d", ErrTooLarge, len(b), c.MaxDecode))
	}
	if c.Inner == nil {
		var zero V
		return zero, wrap("limit", errNoInner)
	}
	return c.Inner.Decode(b)
}

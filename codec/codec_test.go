package codec

import (
	"bytes"
	"errors"
	"testing"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type record struct {
	Key string `json:"key" cbor:"key" msgpack:"key" toml:"key"`
}

func TestBytesIsIdentity(t *testing.T) {
	in := []byte{0xff, 0x00, 'a'}
	got, err := Bytes{}.Decode(in)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got, in) {
		t.Fatalf("got %x want %x", got, in)
	}
}

func TestStringRejectsInvalidUTF8(t *testing.T) {
	if s, err := (String{}).Decode([]byte("hello")); err != nil || s != "hello" {
		t.Fatalf("valid text: s=%q err=%v", s, err)
	}

	_, err := String{}.Decode([]byte{0xff, 0xfe})
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("expected ErrInvalidUTF8, got %v", err)
	}
	var ce *Error
	if !errors.As(err, &ce) || ce.Codec != "string" {
		t.Fatalf("expected *Error{Codec: string}, got %#v", err)
	}
}

func TestStructuredDecoders(t *testing.T) {
	want := record{Key: "value"}

	cases := []struct {
		name string
		c    Codec[record]
	}{
		{"json", JSON[record]{}},
		{"json-strict", JSON[record]{Strict: true}},
		{"cbor-zero", CBOR[record]{}},
		{"cbor-det", MustCBOR[record](true)},
		{"msgpack", Msgpack[record]{}},
		{"yaml", YAML[record]{}},
		{"toml", TOML[record]{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := tc.c.Encode(want)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := tc.c.Decode(b)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got != want {
				t.Fatalf("got %+v want %+v", got, want)
			}

			_, err = tc.c.Decode([]byte("bad data"))
			var ce *Error
			if !errors.As(err, &ce) {
				t.Fatalf("bad data: expected *Error, got %v", err)
			}
		})
	}
}

func TestJSONDecodesLiteralObject(t *testing.T) {
	got, err := JSON[record]{}.Decode([]byte(`{"key": "value"}`))
	if err != nil || got.Key != "value" {
		t.Fatalf("got=%+v err=%v", got, err)
	}
}

func TestJSONStrictRejectsUnknownAndTrailing(t *testing.T) {
	c := JSON[record]{Strict: true}
	if _, err := c.Decode([]byte(`{"key":"v","other":1}`)); err == nil {
		t.Fatalf("expected unknown field error")
	}
	if _, err := c.Decode([]byte(`{"key":"v"} {}`)); err == nil {
		t.Fatalf("expected trailing data error")
	}
	// lenient mode ignores unknown fields
	if _, err := (JSON[record]{}).Decode([]byte(`{"key":"v","other":1}`)); err != nil {
		t.Fatalf("lenient decode: %v", err)
	}
}

func TestCBORRejectsDuplicateKeys(t *testing.T) {
	// map(2) {"key": "a", "key": "b"}
	dup := []byte{0xa2, 0x63, 'k', 'e', 'y', 0x61, 'a', 0x63, 'k', 'e', 'y', 0x61, 'b'}
	c, err := NewCBOR[map[string]string](false)
	if err != nil {
		t.Fatalf("NewCBOR: %v", err)
	}
	if _, err := c.Decode(dup); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}

func TestProtobuf(t *testing.T) {
	c := NewProtobuf(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} })
	b, err := c.Encode(wrapperspb.String("hello"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := c.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !proto.Equal(got, wrapperspb.String("hello")) {
		t.Fatalf("got %v", got)
	}

	// field 1, wire type 2, declared length beyond the buffer
	if _, err := c.Decode([]byte{0x0a, 0x10, 'x'}); err == nil {
		t.Fatalf("expected truncated message error")
	}

	var zero Protobuf[*wrapperspb.StringValue]
	if _, err := zero.Decode(b); err == nil {
		t.Fatalf("zero Protobuf should fail without a constructor")
	}
}

func TestLimit(t *testing.T) {
	c := Limit[string]{Inner: String{}, MaxDecode: 3}
	if s, err := c.Decode([]byte("abc")); err != nil || s != "abc" {
		t.Fatalf("within limit: s=%q err=%v", s, err)
	}
	if _, err := c.Decode([]byte("abcd")); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if _, err := (Limit[string]{Inner: String{}}).Decode([]byte("abcd")); err != nil {
		t.Fatalf("MaxDecode=0 disables limit: %v", err)
	}
	var ce *Error
	if _, err := (Limit[string]{MaxDecode: 8}).Decode([]byte("abc")); !errors.As(err, &ce) || ce.Codec != "limit" {
		t.Fatalf("missing Inner: expected limit *Error, got %v", err)
	}
}

func TestFunc(t *testing.T) {
	boom := errors.New("boom")
	d := Func[int](func(b []byte) (int, error) {
		if len(b) == 0 {
			return 0, boom
		}
		return len(b), nil
	})
	if n, err := d.Decode([]byte("xyz")); err != nil || n != 3 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if _, err := d.Decode(nil); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

// Package wire frames mirror entries: a validation token and the object body
// it belongs to, stored together so they can never be read independently.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	version   byte = 1
	kindEntry byte = 1

	hdrLen = 4 + 1 + 1 + 2
)

var (
	ErrCorrupt = errors.New("condcache: corrupt mirror entry")
	magic4     = [...]byte{'C', 'N', 'D', 'C'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// EncodeEntry:
//
//	magic(4) | ver(1) | kind(1) | tlen(u16 be) | token(tlen) | blen(u32 be) | body(blen)
//
// The token must be non-empty and at most 0xFFFF bytes.
func EncodeEntry(token string, body []byte) ([]byte, error) {
	if l := len(token); l == 0 || l > 0xFFFF {
		return nil, fmt.Errorf("condcache: invalid token length %d", l)
	}
	if uint64(len(body)) > 0xFFFFFFFF {
		return nil, fmt.Errorf("condcache: body too large for mirror entry: %d", len(body))
	}

	var buf bytes.Buffer
	buf.Grow(hdrLen + len(token) + 4 + len(body))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindEntry)

	var u4 [4]byte
	var u2 [2]byte

	binary.BigEndian.PutUint16(u2[:], uint16(len(token)))
	buf.Write(u2[:])
	buf.WriteString(token)

	binary.BigEndian.PutUint32(u4[:], uint32(len(body)))
	buf.Write(u4[:])
	buf.Write(body)

	return buf.Bytes(), nil
}

// DecodeEntry validates the frame and returns the token and a body slice
// aliasing b. Trailing bytes are rejected.
func DecodeEntry(b []byte) (token string, body []byte, err error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version || b[5] != kindEntry {
		return "", nil, ErrCorrupt
	}

	off := 6

	tlen := int(binary.BigEndian.Uint16(b[off : off+2]))
	off += 2
	if tlen == 0 || tlen > len(b)-off {
		return "", nil, ErrCorrupt
	}
	token = string(b[off : off+tlen])
	off += tlen

	if off+4 > len(b) {
		return "", nil, ErrCorrupt
	}
	blen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if blen < 0 || blen != len(b)-off { // exact: no trailing bytes
		return "", nil, ErrCorrupt
	}

	return token, b[off : off+blen], nil
}

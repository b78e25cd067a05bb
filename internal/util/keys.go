package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// MirrorKey returns the storage key for the mirrored copy of bucket/key.
// The identity is hashed so arbitrary object keys fit provider key limits;
// the NUL separator keeps ("a/b", "c") and ("a", "b/c") apart.
func MirrorKey(prefix, bucket, key string) string {
	h := sha256.New()
	h.Write([]byte(bucket))
	h.Write([]byte{0})
	h.Write([]byte(key))
	return prefix + ":" + hex.EncodeToString(h.Sum(nil))
}

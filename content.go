package condcache

import "strconv"

// Token is an opaque validation token assigned by the store (an ETag).
// The zero Token is absent: it is never sent as a precondition.
type Token struct {
	v string
}

// NewToken wraps a store-assigned token. An empty string yields an absent
// Token, so a store that omits the ETag causes unconditional refreshes
// instead of suppressed change detection.
func NewToken(s string) Token { return Token{v: s} }

// Valid reports whether the token is present.
func (t Token) Valid() bool { return t.v != "" }

// String returns the raw token, or "" when absent.
func (t Token) String() string { return t.v }

// GoString renders the token quoted so absent and empty tokens are visible in logs.
func (t Token) GoString() string {
	if !t.Valid() {
		return "<none>"
	}
	return strconv.Quote(t.v)
}

// Content is a decoded object body and the token it was returned with.
// The two are set together and never change afterwards.
type Content[V any] struct {
	etag Token
	body V
}

// ETag returns the token of this version. Useful for diagnostics only:
// the handle never compares tokens itself.
func (c *Content[V]) ETag() Token { return c.etag }

// Body returns the decoded value.
func (c *Content[V]) Body() V { return c.body }

// IntoBody returns the body for a caller that stops revalidating and drops
// the token. It reads the same value as Body; the separate name marks the
// point where the handle leaves the refresh loop.
func (c *Content[V]) IntoBody() V { return c.body }

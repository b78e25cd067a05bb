package condcache

import (
	"context"
	"fmt"

	"github.com/unkn0wn-root/condcache/codec"
)

// Handle references one remote object. It is either unfetched (identity only)
// or fetched (identity plus Content). Handles are never modified after
// construction: Refresh returns a successor and leaves the receiver as it was.
type Handle[V any] struct {
	id      Identity
	dec     codec.Decoder[V]
	content *Content[V] // nil => unfetched

	log   Logger
	hooks Hooks
}

// New returns an unfetched handle. It never fails; a nil decoder surfaces
// as a decode error on the first body.
func New[V any](bucket, key string, dec codec.Decoder[V], opts ...Option) *Handle[V] {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &Handle[V]{
		id:    Identity{Bucket: bucket, Key: key},
		dec:   dec,
		log:   coalesce[Logger](o.log, NopLogger{}),
		hooks: coalesce[Hooks](o.hooks, NopHooks{}),
	}
}

// Load performs an unconditional read and returns a fetched handle. No handle
// is returned unless a body was received and decoded. A "not modified" answer
// is impossible without a token and is reported as KindUnexpectedNotModified.
func Load[V any](ctx context.Context, bucket, key string, dec codec.Decoder[V], t Transport, opts ...Option) (*Handle[V], error) {
	h := New(bucket, key, dec, opts...)
	resp, err := h.fetch(ctx, t, Token{})
	if err != nil {
		return nil, err
	}
	if resp.Status == StatusNotModified {
		h.violation("not modified on initial load")
		return nil, h.fail(KindUnexpectedNotModified, nil)
	}
	return h.replace(resp)
}

// Refresh asks the store for a newer version than the one held.
//
//   - (nil, nil): not modified; keep using h.
//   - (next, nil): next is fetched with the new token and body, same identity.
//   - (nil, *FetchError): h is still the last good value.
//
// The held token is sent as a precondition when present; the store decides
// whether it still matches. An unfetched handle, or one whose body came
// without a token, performs an unconditional read.
func (h *Handle[V]) Refresh(ctx context.Context, t Transport) (*Handle[V], error) {
	var tag Token
	if h.content != nil {
		tag = h.content.etag
	}
	resp, err := h.fetch(ctx, t, tag)
	if err != nil {
		return nil, err
	}
	if resp.Status == StatusNotModified {
		if !tag.Valid() {
			h.violation("not modified without precondition")
			return nil, nil
		}
		h.log.Debug("object not modified", Fields{"bucket": h.id.Bucket, "key": h.id.Key, "etag": tag.String()})
		h.hooks.NotModified(h.id.Bucket, h.id.Key)
		return nil, nil
	}
	return h.replace(resp)
}

// Identity returns the bucket and key. Valid in both states.
func (h *Handle[V]) Identity() Identity { return h.id }

func (h *Handle[V]) Bucket() string { return h.id.Bucket }
func (h *Handle[V]) Key() string    { return h.id.Key }

// Content returns the decoded body and its token, or (nil, false) when unfetched.
func (h *Handle[V]) Content() (*Content[V], bool) {
	return h.content, h.content != nil
}

// Fetched reports whether the handle holds content.
func (h *Handle[V]) Fetched() bool { return h.content != nil }

func (h *Handle[V]) String() string {
	if h.content == nil {
		return fmt.Sprintf("Handle{%s unfetched}", h.id)
	}
	return fmt.Sprintf("Handle{%s etag=%#v}", h.id, h.content.etag)
}

func (h *Handle[V]) fetch(ctx context.Context, t Transport, tag Token) (Response, error) {
	if t == nil {
		return Response{}, h.fail(KindTransport, errNilTransport)
	}
	resp, err := t.Fetch(ctx, Request{Bucket: h.id.Bucket, Key: h.id.Key, IfNoneMatch: tag})
	if err != nil {
		h.log.Warn("object fetch failed", Fields{"bucket": h.id.Bucket, "key": h.id.Key, "err": err})
		h.hooks.TransportFailed(h.id.Bucket, h.id.Key, err)
		return Response{}, h.fail(KindTransport, err)
	}
	switch resp.Status {
	case StatusBody, StatusNotModified:
		return resp, nil
	}
	err = fmt.Errorf("%w: %s", ErrMalformedResponse, resp.Status)
	h.log.Warn("object fetch returned malformed response", Fields{"bucket": h.id.Bucket, "key": h.id.Key, "status": resp.Status.String()})
	h.hooks.TransportFailed(h.id.Bucket, h.id.Key, err)
	return Response{}, h.fail(KindTransport, err)
}

// replace decodes a body response into a successor handle.
func (h *Handle[V]) replace(resp Response) (*Handle[V], error) {
	if h.dec == nil {
		return nil, h.fail(KindDecode, errNilDecoder)
	}
	body, err := h.dec.Decode(resp.Body)
	if err != nil {
		h.log.Warn("object decode failed; keeping previous version", Fields{
			"bucket": h.id.Bucket, "key": h.id.Key, "etag": resp.ETag.String(), "size": len(resp.Body), "err": err,
		})
		h.hooks.DecodeFailed(h.id.Bucket, h.id.Key, len(resp.Body), err)
		return nil, h.fail(KindDecode, err)
	}

	var old string
	if h.content != nil {
		old = h.content.etag.String()
	}
	next := *h
	next.content = &Content[V]{etag: resp.ETag, body: body}

	h.log.Debug("object replaced", Fields{"bucket": h.id.Bucket, "key": h.id.Key, "old": old, "new": resp.ETag.String(), "size": len(resp.Body)})
	h.hooks.Replaced(h.id.Bucket, h.id.Key, old, resp.ETag.String(), len(resp.Body))
	return &next, nil
}

func (h *Handle[V]) violation(reason string) {
	h.log.Warn("transport protocol violation", Fields{"bucket": h.id.Bucket, "key": h.id.Key, "reason": reason})
	h.hooks.ProtocolViolation(h.id.Bucket, h.id.Key, reason)
}

func (h *Handle[V]) fail(k Kind, err error) *FetchError {
	return &FetchError{Kind: k, Bucket: h.id.Bucket, Key: h.id.Key, Err: err}
}

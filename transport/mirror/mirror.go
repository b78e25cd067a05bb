// Package mirror wraps a condcache.Transport and keeps the last body seen for
// each object in a provider.Provider (ristretto, bigcache, redis).
//
// The mirror never answers on its own. When a request carries no token (a
// fresh handle, a restarted process) and a mirrored copy exists, the mirror
// asks upstream with the mirrored token instead; a not modified answer lets it
// return the stored body without transferring it again. Requests that already
// carry a token are forwarded unchanged. Every body that comes back from
// upstream with a token is stored.
//
// Store failures are logged and otherwise ignored: the upstream answer is
// always authoritative.
package mirror

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/unkn0wn-root/condcache"
	"github.com/unkn0wn-root/condcache/internal/util"
	"github.com/unkn0wn-root/condcache/internal/wire"
	pr "github.com/unkn0wn-root/condcache/provider"
)

const defaultTTL = time.Hour

var (
	ErrNilUpstream = errors.New("mirror: upstream transport is required")
	ErrNilStore    = errors.New("mirror: store is required")
	ErrNoNamespace = errors.New("mirror: namespace is required")
)

// CostFunc returns the provider cost of a stored entry.
type CostFunc func(storageKey string, raw []byte) int64

type Config struct {
	// Required
	Namespace string // isolates mirrors sharing a store, e.g. "app:prod"
	Upstream  condcache.Transport
	Store     pr.Provider

	TTL    time.Duration    // 0 => 1h; BigCache ignores it
	Cost   CostFunc         // nil => len(raw)
	Logger condcache.Logger // nil => NopLogger
	Hooks  condcache.Hooks  // nil => NopHooks
}

type Transport struct {
	ns       string
	upstream condcache.Transport
	store    pr.Provider
	ttl      time.Duration
	cost     CostFunc
	log      condcache.Logger
	hooks    condcache.Hooks
}

var _ condcache.Transport = (*Transport)(nil)

func New(cfg Config) (*Transport, error) {
	if cfg.Upstream == nil {
		return nil, ErrNilUpstream
	}
	if cfg.Store == nil {
		return nil, ErrNilStore
	}
	if cfg.Namespace == "" {
		return nil, ErrNoNamespace
	}

	m := &Transport{
		ns:       cfg.Namespace,
		upstream: cfg.Upstream,
		store:    cfg.Store,
		ttl:      cfg.TTL,
		cost:     cfg.Cost,
		log:      condcache.LoggerOrNop(cfg.Logger),
		hooks:    condcache.HooksOrNop(cfg.Hooks),
	}
	if m.ttl <= 0 {
		m.ttl = defaultTTL
	}
	if m.cost == nil {
		m.cost = func(_ string, raw []byte) int64 { return int64(len(raw)) }
	}
	return m, nil
}

// StorageKey returns the provider key used for bucket/key.
func (m *Transport) StorageKey(bucket, key string) string {
	return util.MirrorKey("mirror:"+m.ns, bucket, key)
}

func (m *Transport) Fetch(ctx context.Context, req condcache.Request) (condcache.Response, error) {
	sk := m.StorageKey(req.Bucket, req.Key)

	if req.IfNoneMatch.Valid() {
		return m.forward(ctx, sk, req)
	}

	tag, body, ok := m.recall(ctx, sk)
	if !ok {
		return m.forward(ctx, sk, req)
	}

	resp, err := m.upstream.Fetch(ctx, condcache.Request{Bucket: req.Bucket, Key: req.Key, IfNoneMatch: tag})
	if err != nil {
		return resp, err
	}
	switch resp.Status {
	case condcache.StatusNotModified:
		m.log.Debug("mirror served revalidated copy", condcache.Fields{"bucket": req.Bucket, "key": req.Key, "etag": tag.String()})
		m.hooks.MirrorServed(sk)
		return condcache.Response{Status: condcache.StatusBody, Body: body, ETag: tag}, nil
	case condcache.StatusBody:
		m.remember(ctx, sk, resp)
	}
	return resp, nil
}

// Forget drops the mirrored copy of bucket/key.
func (m *Transport) Forget(ctx context.Context, bucket, key string) error {
	return m.store.Del(ctx, m.StorageKey(bucket, key))
}

// Close closes the store. The upstream transport is owned by the caller.
func (m *Transport) Close(ctx context.Context) error {
	return m.store.Close(ctx)
}

func (m *Transport) forward(ctx context.Context, sk string, req condcache.Request) (condcache.Response, error) {
	resp, err := m.upstream.Fetch(ctx, req)
	if err == nil && resp.Status == condcache.StatusBody {
		m.remember(ctx, sk, resp)
	}
	return resp, err
}

// recall returns a private copy of the mirrored body so callers may keep or
// mutate it without touching the store's bytes.
func (m *Transport) recall(ctx context.Context, sk string) (condcache.Token, []byte, bool) {
	raw, ok, err := m.store.Get(ctx, sk)
	if err != nil {
		m.log.Warn("mirror store get failed", condcache.Fields{"key": sk, "err": err})
		return condcache.Token{}, nil, false
	}
	if !ok {
		return condcache.Token{}, nil, false
	}
	tok, body, err := wire.DecodeEntry(raw)
	if err != nil {
		_ = m.store.Del(ctx, sk) // self-heal corrupt
		m.log.Warn("mirror entry corrupt; deleted", condcache.Fields{"key": sk})
		m.hooks.MirrorCorrupt(sk)
		return condcache.Token{}, nil, false
	}
	return condcache.NewToken(tok), bytes.Clone(body), true
}

func (m *Transport) remember(ctx context.Context, sk string, resp condcache.Response) {
	if !resp.ETag.Valid() {
		// nothing to revalidate against later
		_ = m.store.Del(ctx, sk)
		return
	}
	raw, err := wire.EncodeEntry(resp.ETag.String(), resp.Body)
	if err != nil {
		m.log.Warn("mirror entry not encodable", condcache.Fields{"key": sk, "err": err})
		return
	}
	ok, err := m.store.Set(ctx, sk, raw, m.cost(sk, raw), m.ttl)
	if err != nil {
		m.log.Warn("mirror store set failed", condcache.Fields{"key": sk, "err": err})
		return
	}
	if !ok {
		m.log.Debug("mirror set rejected by provider (pressure)", condcache.Fields{"key": sk})
		m.hooks.MirrorSetRejected(sk)
	}
}

package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/condcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	NotModifiedEvery  uint64
	MirrorServedEvery uint64
	// Optional object key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	notModifiedCtr  atomic.Uint64
	mirrorServedCtr atomic.Uint64
}

var _ condcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) NotModified(bucket, key string) {
	if h.l == nil || !sample(h.opts.NotModifiedEvery, &h.notModifiedCtr) {
		return
	}
	h.l.Debug("condcache.not_modified",
		"bucket", bucket,
		"key", h.redact(key))
}

func (h *Hooks) Replaced(bucket, key, oldETag, newETag string, size int) {
	if h.l == nil {
		return
	}
	h.l.Info("condcache.replaced",
		"bucket", bucket,
		"key", h.redact(key),
		"old_etag", oldETag,
		"new_etag", newETag,
		"size", size)
}

func (h *Hooks) DecodeFailed(bucket, key string, size int, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("condcache.decode_failed",
		"bucket", bucket,
		"key", h.redact(key),
		"size", size,
		"err", err)
}

func (h *Hooks) TransportFailed(bucket, key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("condcache.transport_failed",
		"bucket", bucket,
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) ProtocolViolation(bucket, key, reason string) {
	if h.l == nil {
		return
	}
	h.l.Error("condcache.protocol_violation",
		"bucket", bucket,
		"key", h.redact(key),
		"reason", reason)
}

func (h *Hooks) MirrorServed(storageKey string) {
	if h.l == nil || !sample(h.opts.MirrorServedEvery, &h.mirrorServedCtr) {
		return
	}
	h.l.Debug("condcache.mirror_served", "key", storageKey)
}

func (h *Hooks) MirrorCorrupt(storageKey string) {
	if h.l == nil {
		return
	}
	h.l.Warn("condcache.mirror_corrupt", "key", storageKey)
}

func (h *Hooks) MirrorSetRejected(storageKey string) {
	if h.l == nil {
		return
	}
	h.l.Warn("condcache.mirror_set_rejected", "key", storageKey)
}

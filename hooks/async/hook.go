// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    NotModifiedEvery: 100, // sample logs: ~every 100th not-modified
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	h := condcache.New("bucket", "config.json", codec.JSON[Config]{}, condcache.WithHooks(hooks))
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/condcache"
)

// Hooks forwards events to inner on worker goroutines. Events are dropped
// when the queue is full, so a slow sink never blocks Refresh.
type Hooks struct {
	inner condcache.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
	mu    sync.RWMutex
	done  bool
}

var _ condcache.Hooks = (*Hooks)(nil)

func New(inner condcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events raised after
// Close are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.done = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.done {
		return
	}
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) NotModified(b, k string) { h.try(func() { h.inner.NotModified(b, k) }) }
func (h *Hooks) Replaced(b, k, o, n string, size int) {
	h.try(func() { h.inner.Replaced(b, k, o, n, size) })
}
func (h *Hooks) DecodeFailed(b, k string, size int, err error) {
	h.try(func() { h.inner.DecodeFailed(b, k, size, err) })
}
func (h *Hooks) TransportFailed(b, k string, err error) {
	h.try(func() { h.inner.TransportFailed(b, k, err) })
}
func (h *Hooks) ProtocolViolation(b, k, r string) {
	h.try(func() { h.inner.ProtocolViolation(b, k, r) })
}
func (h *Hooks) MirrorServed(sk string)      { h.try(func() { h.inner.MirrorServed(sk) }) }
func (h *Hooks) MirrorCorrupt(sk string)     { h.try(func() { h.inner.MirrorCorrupt(sk) }) }
func (h *Hooks) MirrorSetRejected(sk string) { h.try(func() { h.inner.MirrorSetRejected(sk) }) }

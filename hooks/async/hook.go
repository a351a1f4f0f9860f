// Package asynchook moves pagecache.Hooks calls off the hot path.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{PageStoredEvery: 100})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	reg := pagecache.NewRegistry[subtask.Subtask](pagecache.RegistryOptions{Hooks: hooks})
//
// Events are dropped, never blocked on, when the queue is full; Dropped
// reports how many.
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/pagecache"
)

type Hooks struct {
	inner   pagecache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex // guards closed against sends on a closed queue
	closed  bool
	dropped atomic.Uint64
}

var _ pagecache.Hooks = (*Hooks)(nil)

func New(inner pagecache.Hooks, workers, qlen int) *Hooks {
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

// Close drains queued events and stops the workers. Later events are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) PageStored(idx string, page, kept, dropped int) {
	h.try(func() { h.inner.PageStored(idx, page, kept, dropped) })
}
func (h *Hooks) WatermarkAdvanced(idx string, from, to any) {
	h.try(func() { h.inner.WatermarkAdvanced(idx, from, to) })
}
func (h *Hooks) OrderingViolation(idx string, err error) {
	h.try(func() { h.inner.OrderingViolation(idx, err) })
}
func (h *Hooks) CollectionCreated(k string)   { h.try(func() { h.inner.CollectionCreated(k) }) }
func (h *Hooks) RegistryCleared(n int)        { h.try(func() { h.inner.RegistryCleared(n) }) }
func (h *Hooks) SelfHeal(k, reason string)    { h.try(func() { h.inner.SelfHeal(k, reason) }) }
func (h *Hooks) ProviderSetRejected(k string) { h.try(func() { h.inner.ProviderSetRejected(k) }) }

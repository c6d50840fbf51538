// Package asynchook runs assetcache hooks on worker goroutines so slow sinks
// never hold up the host loop. Events are dropped when the queue is full.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{SweepEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	rt, _ := assetcache.New(assetcache.Options{
//	    Source: src,
//	    Hooks:  hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/assetcache"
)

// Hooks moves hook calls off the host loop onto worker goroutines.
// Events are dropped when the queue is full.
type Hooks struct {
	inner   assetcache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Uint64
}

var _ assetcache.Hooks = (*Hooks)(nil)

func New(inner assetcache.Hooks, workers, qlen int) *Hooks {
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

// Close drains queued events and stops the workers. Hook calls after
// Close must not happen.
func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped returns how many events were discarded because the queue was full.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) EntryEvicted(k assetcache.Kind, key string) {
	h.try(func() { h.inner.EntryEvicted(k, key) })
}
func (h *Hooks) SweepCompleted(k assetcache.Kind, scanned, evicted int) {
	h.try(func() { h.inner.SweepCompleted(k, scanned, evicted) })
}
func (h *Hooks) RetryScheduled(url string, attempt int, d time.Duration) {
	h.try(func() { h.inner.RetryScheduled(url, attempt, d) })
}
func (h *Hooks) LoaderStalled(url string, n int) { h.try(func() { h.inner.LoaderStalled(url, n) }) }
func (h *Hooks) StallsResumed(n int)             { h.try(func() { h.inner.StallsResumed(n) }) }
func (h *Hooks) RequestCompleted(k assetcache.Kind, key string, ok bool) {
	h.try(func() { h.inner.RequestCompleted(k, key, ok) })
}

package sloghooks

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/assetcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	EvictEvery uint64
	SweepEvery uint64
	// LogEmptySweeps also logs sweeps that evicted nothing.
	LogEmptySweeps bool
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	evictCtr atomic.Uint64
	sweepCtr atomic.Uint64
}

var _ assetcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) EntryEvicted(kind assetcache.Kind, key string) {
	if h.l == nil || !sample(h.opts.EvictEvery, &h.evictCtr) {
		return
	}
	h.l.Debug("assetcache.entry_evicted",
		"kind", kind.String(),
		"key", key)
}

func (h *Hooks) SweepCompleted(kind assetcache.Kind, scanned, evicted int) {
	if h.l == nil || (evicted == 0 && !h.opts.LogEmptySweeps) || !sample(h.opts.SweepEvery, &h.sweepCtr) {
		return
	}
	h.l.Debug("assetcache.sweep_completed",
		"kind", kind.String(),
		"scanned", scanned,
		"evicted", evicted)
}

func (h *Hooks) RetryScheduled(url string, attempt int, delay time.Duration) {
	if h.l == nil {
		return
	}
	h.l.Info("assetcache.retry_scheduled",
		"url", url,
		"attempt", attempt,
		"delay", delay)
}

func (h *Hooks) LoaderStalled(url string, outstanding int) {
	if h.l == nil {
		return
	}
	h.l.Error("assetcache.loader_stalled",
		"url", url,
		"outstanding", outstanding)
}

func (h *Hooks) StallsResumed(count int) {
	if h.l == nil {
		return
	}
	h.l.Info("assetcache.stalls_resumed",
		"count", count)
}

func (h *Hooks) RequestCompleted(kind assetcache.Kind, key string, ok bool) {
	if h.l == nil || ok {
		return
	}
	h.l.Warn("assetcache.request_failed",
		"kind", kind.String(),
		"key", key)
}

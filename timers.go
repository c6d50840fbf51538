package assetcache

import (
	"container/heap"
	"time"
)

// Scheduler runs fn once d has elapsed on the host loop's clock.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func())
}

type timer struct {
	at  time.Duration
	seq uint64
	fn  func()
}

type timerHeap []timer

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)   { *h = append(*h, x.(timer)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = timer{}
	*h = old[:n-1]
	return t
}

// Timers is a Scheduler driven by Advance. Callbacks run on the goroutine
// that calls Advance, in deadline order (scheduling order on ties).
type Timers struct {
	now  time.Duration
	seq  uint64
	heap timerHeap
}

var _ Scheduler = (*Timers)(nil)

func NewTimers() *Timers { return &Timers{} }

func (t *Timers) AfterFunc(d time.Duration, fn func()) {
	if d < 0 {
		d = 0
	}
	t.seq++
	heap.Push(&t.heap, timer{at: t.now + d, seq: t.seq, fn: fn})
}

// Advance moves the clock forward and fires everything now due, including
// callbacks scheduled by other callbacks that fall due within the window.
// While a callback runs, Now reports its deadline.
func (t *Timers) Advance(d time.Duration) {
	target := t.now
	if d > 0 {
		target += d
	}
	for len(t.heap) > 0 && t.heap[0].at <= target {
		tm := heap.Pop(&t.heap).(timer)
		if tm.at > t.now {
			t.now = tm.at
		}
		tm.fn()
	}
	t.now = target
}

func (t *Timers) Now() time.Duration { return t.now }

// Len returns the number of pending callbacks.
func (t *Timers) Len() int { return len(t.heap) }

// Reset drops every pending callback.
func (t *Timers) Reset() {
	clear(t.heap)
	t.heap = t.heap[:0]
}

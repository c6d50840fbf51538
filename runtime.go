package assetcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/assetcache/source"
)

// Presenter shows and hides the fatal load error on screen.
type Presenter interface {
	ShowError(url string, err error)
	ClearError()
}

type nopPresenter struct{}

func (nopPresenter) ShowError(string, error) {}
func (nopPresenter) ClearError()             {}

// Options configure a Runtime. Only Source is required.
type Options struct {
	Source    source.Source
	Decoders  map[Kind]Decoder // missing kinds use BlobDecoder
	Presenter Presenter        // if nil, errors are only logged
	Logger    Logger           // if nil, NopLogger is used
	Hooks     Hooks            // if nil, NopHooks is used

	SweepInterval  time.Duration   // 0 => 100s
	EntryTTL       time.Duration   // idle time limit for new entries; 0 => none
	EntryTTLTicks  uint64          // idle tick limit for new entries; 0 => none
	RetryIntervals []time.Duration // nil => DefaultRetryIntervals
	EventBuffer    int             // completion mailbox size; 0 => 256
}

// Runtime is the host loop: it owns one Store and one Queue per Kind, the
// retry timers and the stall registry. Apart from Post, every method must
// be called from the goroutine that calls Tick (or from funcs passed to Post
// while Run is driving the loop).
type Runtime struct {
	src       source.Source
	decoders  [numKinds]Decoder
	stores    [numKinds]*Store
	queues    [numKinds]*Queue
	requests  [numKinds]map[string]*request
	timers    *Timers
	retrier   *Retrier
	presenter Presenter
	log       Logger
	hooks     Hooks

	paused bool
	ticks  uint64

	events    chan func()
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closed    atomic.Bool
	closeOnce sync.Once
}

var _ Host = (*Runtime)(nil)

func New(opts Options) (*Runtime, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("assetcache: source is required")
	}
	for k := range opts.Decoders {
		if !k.Valid() {
			return nil, fmt.Errorf("assetcache: decoder for %w %d", ErrUnknownKind, uint8(k))
		}
	}

	rt := &Runtime{
		src:       opts.Source,
		timers:    NewTimers(),
		presenter: coalesce[Presenter](opts.Presenter, nopPresenter{}),
		log:       coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:     coalesce[Hooks](opts.Hooks, NopHooks{}),
		events:    make(chan func(), coalesce(opts.EventBuffer, defaultEventBuffer)),
	}
	rt.ctx, rt.cancel = context.WithCancel(context.Background())
	rt.retrier = NewRetrier(rt.timers, rt, RetrierOptions{
		Intervals: opts.RetryIntervals,
		Logger:    rt.log,
		Hooks:     rt.hooks,
	})

	for _, k := range Kinds() {
		rt.stores[k] = NewStore(k, StoreOptions{
			SweepInterval: opts.SweepInterval,
			TTL:           opts.EntryTTL,
			TTLTicks:      opts.EntryTTLTicks,
			Logger:        rt.log,
			Hooks:         rt.hooks,
		})
		rt.queues[k] = NewQueue(k, rt.log)
		rt.requests[k] = make(map[string]*request)
		rt.decoders[k] = BlobDecoder{}
		if d, ok := opts.Decoders[k]; ok && d != nil {
			rt.decoders[k] = d
		}
	}
	return rt, nil
}

// Store returns the cache for kind, or nil for an invalid kind.
func (rt *Runtime) Store(kind Kind) *Store {
	if !kind.Valid() {
		return nil
	}
	return rt.stores[kind]
}

// Queue returns the load queue for kind, or nil for an invalid kind.
func (rt *Runtime) Queue(kind Kind) *Queue {
	if !kind.Valid() {
		return nil
	}
	return rt.queues[kind]
}

// Retrier exposes the stall registry.
func (rt *Runtime) Retrier() *Retrier { return rt.retrier }

// Timers exposes the retry clock.
func (rt *Runtime) Timers() *Timers { return rt.timers }

// Request returns the cached resource for key. On a miss it enqueues a load
// of url (once per key) and reports false; poll again on a later tick.
func (rt *Runtime) Request(kind Kind, key, url string) (Resource, bool) {
	if !kind.Valid() {
		rt.log.Warn("request for unknown kind", Fields{"kind": uint8(kind), "key": key})
		return nil, false
	}
	if r, ok := rt.stores[kind].Get(key); ok {
		return r, true
	}
	rt.Load(kind, key, url)
	return nil, false
}

// Load enqueues url under key unless it is cached or already pending.
// It reports whether a new load was enqueued.
func (rt *Runtime) Load(kind Kind, key, url string) bool {
	if !kind.Valid() || rt.closed.Load() {
		return false
	}
	if _, ok := rt.stores[kind].Get(key); ok {
		return false
	}
	if _, ok := rt.requests[kind][key]; ok {
		return false
	}
	q := newRequest(rt, kind, key, url)
	rt.requests[kind][key] = q
	rt.queues[kind].Enqueue(key, q)
	return true
}

// Prioritize moves a pending load of key to the head of its queue.
func (rt *Runtime) Prioritize(kind Kind, key string) bool {
	if !kind.Valid() {
		return false
	}
	return rt.queues[kind].RaisePriority(key)
}

// Tick runs one frame: delivers fetch completions, fires due retry timers
// and, unless paused, advances every store clock and every queue.
func (rt *Runtime) Tick(ticks int, elapsed time.Duration) {
	rt.drain()
	rt.timers.Advance(elapsed)
	if rt.paused {
		return
	}
	if ticks > 0 {
		rt.ticks += uint64(ticks)
	}
	for _, k := range Kinds() {
		rt.stores[k].AdvanceTime(ticks, elapsed)
		rt.queues[k].Advance()
	}
}

// Run drives Tick at the given frame interval until ctx is done or the
// runtime is closed. Other goroutines must go through Post while it runs.
func (rt *Runtime) Run(ctx context.Context, frame time.Duration) error {
	frame = coalesce(frame, defaultFrame)
	t := time.NewTicker(frame)
	defer t.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-rt.ctx.Done():
			return ErrClosed
		case now := <-t.C:
			rt.Tick(1, now.Sub(last))
			last = now
		}
	}
}

// Post queues fn to run on the host loop at the start of the next Tick.
// Safe for concurrent use. Blocks while the mailbox is full.
func (rt *Runtime) Post(fn func()) error {
	return rt.post(rt.ctx, fn)
}

func (rt *Runtime) post(ctx context.Context, fn func()) error {
	if rt.closed.Load() {
		return ErrClosed
	}
	select {
	case rt.events <- fn:
		return nil
	case <-ctx.Done():
		return ErrClosed
	}
}

func (rt *Runtime) drain() {
	for {
		select {
		case fn := <-rt.events:
			fn()
		default:
			return
		}
	}
}

// Stalled reports whether any load is waiting for operator Retry.
func (rt *Runtime) Stalled() bool { return rt.retrier.Exists() }

// Retry resumes every stalled load.
func (rt *Runtime) Retry() { rt.retrier.Retry() }

func (rt *Runtime) Paused() bool { return rt.paused }

// Ticks returns the number of ticks run while not paused.
func (rt *Runtime) Ticks() uint64 { return rt.ticks }

func (rt *Runtime) ShowError(url string, err error) {
	rt.log.Error("fatal load error", Fields{"url": url, "err": err})
	rt.presenter.ShowError(url, err)
}

func (rt *Runtime) ClearError() { rt.presenter.ClearError() }

func (rt *Runtime) Pause() {
	if !rt.paused {
		rt.paused = true
		rt.log.Warn("host loop paused", nil)
	}
}

func (rt *Runtime) Resume() {
	if rt.paused {
		rt.paused = false
		rt.log.Info("host loop resumed", nil)
	}
}

// Reset drops every pending load (scene teardown). Cached entries stay.
func (rt *Runtime) Reset() {
	for _, k := range Kinds() {
		rt.queues[k].Clear()
		for key, q := range rt.requests[k] {
			q.abandon()
			delete(rt.requests[k], key)
		}
	}
}

// KindStats is a per-kind snapshot.
type KindStats struct {
	Cached int `json:"cached"`
	Queued int `json:"queued"`
}

// Stats is a point-in-time view of the runtime.
type Stats struct {
	Paused  bool                 `json:"paused"`
	Ticks   uint64               `json:"ticks"`
	Stalled []string             `json:"stalled"`
	Kinds   map[string]KindStats `json:"kinds"`
}

func (rt *Runtime) Stats() Stats {
	st := Stats{
		Paused:  rt.paused,
		Ticks:   rt.ticks,
		Stalled: rt.retrier.URLs(),
		Kinds:   make(map[string]KindStats, numKinds),
	}
	for _, k := range Kinds() {
		st.Kinds[k.String()] = KindStats{Cached: rt.stores[k].Len(), Queued: rt.queues[k].Len()}
	}
	return st
}

// Close stops fetches, frees every cached entry immediately and closes the
// source. Further Post calls fail with ErrClosed.
func (rt *Runtime) Close(ctx context.Context) error {
	var err error
	rt.closeOnce.Do(func() {
		rt.closed.Store(true)
		rt.cancel()

		done := make(chan struct{})
		go func() {
			rt.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = ctx.Err()
		}

		rt.Reset()
		rt.timers.Reset()
		for _, k := range Kinds() {
			rt.stores[k].Clear()
		}
		err = errors.Join(err, rt.src.Close(ctx))
	})
	return err
}

package assetcache

import "time"

// Host is the display/loop collaborator a Retrier drives when loads stall.
type Host interface {
	// ShowError surfaces a fatal load error for url. Called for the first
	// outstanding stall only.
	ShowError(url string, err error)
	// ClearError removes the indicator shown by ShowError.
	ClearError()
	// Pause freezes the host loop.
	Pause()
	// Resume unfreezes the host loop.
	Resume()
}

type nopHost struct{}

func (nopHost) ShowError(string, error) {}
func (nopHost) ClearError()             {}
func (nopHost) Pause()                  {}
func (nopHost) Resume()                 {}

// RetrierOptions tune a Retrier. Zero values pick defaults.
type RetrierOptions struct {
	Intervals []time.Duration // nil => DefaultRetryIntervals
	Logger    Logger
	Hooks     Hooks
}

type reloader struct {
	url string
	run func()
}

// Retrier owns the stall registry shared by every Loader it creates.
// Not safe for concurrent use: it belongs to the host loop.
type Retrier struct {
	sched     Scheduler
	host      Host
	intervals []time.Duration
	log       Logger
	hooks     Hooks

	pending []reloader
}

func NewRetrier(sched Scheduler, host Host, opts RetrierOptions) *Retrier {
	intervals := opts.Intervals
	if intervals == nil {
		intervals = DefaultRetryIntervals
	}
	return &Retrier{
		sched:     sched,
		host:      coalesce[Host](host, nopHost{}),
		intervals: append([]time.Duration(nil), intervals...),
		log:       coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:     coalesce[Hooks](opts.Hooks, NopHooks{}),
	}
}

// Exists reports whether at least one loader is stalled awaiting Retry.
func (r *Retrier) Exists() bool { return len(r.pending) > 0 }

// Outstanding returns the number of stalled loaders.
func (r *Retrier) Outstanding() int { return len(r.pending) }

// URLs lists the stalled loaders' urls in stall order.
func (r *Retrier) URLs() []string {
	out := make([]string, len(r.pending))
	for i, p := range r.pending {
		out[i] = p.url
	}
	return out
}

// Retry re-arms every stalled loader at once. It clears the error
// indicator and resumes the host before restarting them. No-op if
// nothing is stalled.
func (r *Retrier) Retry() {
	if len(r.pending) == 0 {
		return
	}
	// A reloader that fails synchronously registers into a fresh registry.
	pending := r.pending
	r.pending = nil

	r.host.ClearError()
	r.host.Resume()
	r.hooks.StallsResumed(len(pending))
	r.log.Info("resuming stalled loaders", Fields{"count": len(pending)})
	for _, p := range pending {
		p.run()
	}
}

func (r *Retrier) stall(l *Loader, err error) {
	if len(r.pending) == 0 {
		r.host.ShowError(l.url, &LoadError{URL: l.url, Attempts: l.attempts + 1, Err: err})
		r.host.Pause()
	}
	r.pending = append(r.pending, reloader{url: l.url, run: l.reload})
	r.hooks.LoaderStalled(l.url, len(r.pending))
	r.log.Error("load stalled; waiting for retry", Fields{
		"url": l.url, "attempts": l.attempts + 1, "outstanding": len(r.pending), "err": err,
	})
}

// LoaderOption customizes a Loader.
type LoaderOption func(*Loader)

// WithGiveUp sets a cleanup func run each time the loader exhausts its retries.
func WithGiveUp(fn func()) LoaderOption {
	return func(l *Loader) { l.onGiveUp = fn }
}

// WithIntervals overrides the retry schedule. No intervals means the first
// failure stalls.
func WithIntervals(d ...time.Duration) LoaderOption {
	return func(l *Loader) { l.intervals = append([]time.Duration{}, d...) }
}

// Loader is the retry state of one loadable.
type Loader struct {
	r         *Retrier
	url       string
	attempt   func()
	onGiveUp  func()
	intervals []time.Duration
	attempts  int
}

// NewLoader wraps attempt with the retry schedule. The caller runs the first
// attempt itself and calls Fail after every failed one. url may be empty, in
// which case exhaustion only runs the give-up func and never stalls the host.
func (r *Retrier) NewLoader(url string, attempt func(), opts ...LoaderOption) *Loader {
	l := &Loader{r: r, url: url, attempt: attempt, intervals: r.intervals}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// URL returns the url the loader reports stalls under.
func (l *Loader) URL() string { return l.url }

// Attempts returns how many retries have been scheduled since the last reset.
func (l *Loader) Attempts() int { return l.attempts }

// Fail records a failed attempt. While retries remain, attempt runs again
// after the next interval; once exhausted, the give-up func runs and the
// loader stalls.
func (l *Loader) Fail(err error) {
	if l.attempts < len(l.intervals) {
		delay := l.intervals[l.attempts]
		l.attempts++
		l.r.sched.AfterFunc(delay, l.attempt)
		l.r.hooks.RetryScheduled(l.url, l.attempts, delay)
		l.r.log.Debug("load failed; retry scheduled", Fields{
			"url": l.url, "attempt": l.attempts, "delay": delay.String(), "err": err,
		})
		return
	}
	if l.onGiveUp != nil {
		l.onGiveUp()
	}
	if l.url == "" {
		l.r.log.Warn("anonymous load gave up", Fields{"attempts": l.attempts + 1, "err": err})
		return
	}
	l.r.stall(l, err)
}

func (l *Loader) reload() {
	l.attempts = 0
	l.attempt()
}

package assetcache

import "time"

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// They are called from the host loop on every tick that produces an event.
type Hooks interface {
	// An entry was freed by a TTL sweep.
	EntryEvicted(kind Kind, key string)

	// A sweep finished. scanned is the store size before the sweep.
	SweepCompleted(kind Kind, scanned, evicted int)

	// A failed attempt was rescheduled. attempt is 1-based.
	RetryScheduled(url string, attempt int, delay time.Duration)

	// A loader exhausted its retries. outstanding counts stalls including this one.
	LoaderStalled(url string, outstanding int)

	// The operator resumed count stalled loaders.
	StallsResumed(count int)

	// A request finished loading (ok=true) or its attempt failed (ok=false).
	RequestCompleted(kind Kind, key string, ok bool)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) EntryEvicted(Kind, string)                 {}
func (NopHooks) SweepCompleted(Kind, int, int)             {}
func (NopHooks) RetryScheduled(string, int, time.Duration) {}
func (NopHooks) LoaderStalled(string, int)                 {}
func (NopHooks) StallsResumed(int)                         {}
func (NopHooks) RequestCompleted(Kind, string, bool)       {}

// MultiHooks fans every event out to each non-nil hook in order.
func MultiHooks(hooks ...Hooks) Hooks {
	out := make(multiHooks, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

type multiHooks []Hooks

func (m multiHooks) EntryEvicted(k Kind, key string) {
	for _, h := range m {
		h.EntryEvicted(k, key)
	}
}

func (m multiHooks) SweepCompleted(k Kind, scanned, evicted int) {
	for _, h := range m {
		h.SweepCompleted(k, scanned, evicted)
	}
}

func (m multiHooks) RetryScheduled(url string, attempt int, d time.Duration) {
	for _, h := range m {
		h.RetryScheduled(url, attempt, d)
	}
}

func (m multiHooks) LoaderStalled(url string, outstanding int) {
	for _, h := range m {
		h.LoaderStalled(url, outstanding)
	}
}

func (m multiHooks) StallsResumed(count int) {
	for _, h := range m {
		h.StallsResumed(count)
	}
}

func (m multiHooks) RequestCompleted(k Kind, key string, ok bool) {
	for _, h := range m {
		h.RequestCompleted(k, key, ok)
	}
}

package assetcache

import (
	"errors"
	"slices"
	"testing"
	"time"
)

type fakeHost struct {
	shown   []string
	errs    []error
	cleared int
	paused  int
	resumed int
}

func (h *fakeHost) ShowError(url string, err error) {
	h.shown = append(h.shown, url)
	h.errs = append(h.errs, err)
}
func (h *fakeHost) ClearError() { h.cleared++ }
func (h *fakeHost) Pause()      { h.paused++ }
func (h *fakeHost) Resume()     { h.resumed++ }

var errBoom = errors.New("boom")

func newTestRetrier(t *testing.T) (*Retrier, *Timers, *fakeHost, *recHooks) {
	t.Helper()
	tm := NewTimers()
	host := &fakeHost{}
	hooks := &recHooks{}
	return NewRetrier(tm, host, RetrierOptions{Hooks: hooks}), tm, host, hooks
}

// expectFireAfter checks the next attempt runs exactly d from now.
func expectFireAfter(t *testing.T, tm *Timers, d time.Duration, calls *int) {
	t.Helper()
	before := *calls
	tm.Advance(d - time.Millisecond)
	if *calls != before {
		t.Fatalf("attempt ran before %v elapsed", d)
	}
	tm.Advance(time.Millisecond)
	if *calls != before+1 {
		t.Fatalf("attempt did not run after %v", d)
	}
}

func TestLoaderEscalatesThenStalls(t *testing.T) {
	r, tm, host, hooks := newTestRetrier(t)

	calls, gaveUp := 0, 0
	l := r.NewLoader("https://cdn/a.png", func() { calls++ }, WithGiveUp(func() { gaveUp++ }))

	for _, d := range DefaultRetryIntervals {
		l.Fail(errBoom)
		if r.Exists() {
			t.Fatalf("stalled while retries remain")
		}
		expectFireAfter(t, tm, d, &calls)
	}
	if !slices.Equal(hooks.retries, DefaultRetryIntervals) {
		t.Fatalf("scheduled delays = %v", hooks.retries)
	}

	l.Fail(errBoom)
	if gaveUp != 1 {
		t.Fatalf("gaveUp = %d want 1", gaveUp)
	}
	if !r.Exists() || r.Outstanding() != 1 {
		t.Fatalf("Exists=%v Outstanding=%d after exhaustion", r.Exists(), r.Outstanding())
	}
	if tm.Len() != 0 {
		t.Fatalf("exhausted loader scheduled another attempt")
	}
	if len(host.shown) != 1 || host.paused != 1 {
		t.Fatalf("shown=%v paused=%d; want one error and one pause", host.shown, host.paused)
	}
	var le *LoadError
	if !errors.As(host.errs[0], &le) || le.URL != "https://cdn/a.png" || le.Attempts != 4 {
		t.Fatalf("ShowError err = %#v", host.errs[0])
	}
	if !errors.Is(host.errs[0], errBoom) {
		t.Fatalf("LoadError does not unwrap to the attempt error")
	}
	if !slices.Equal(hooks.stalled, []string{"https://cdn/a.png"}) {
		t.Fatalf("stalled hooks = %v", hooks.stalled)
	}
}

func TestRetryResumesAndRearms(t *testing.T) {
	r, tm, host, hooks := newTestRetrier(t)

	calls := 0
	l := r.NewLoader("u", func() { calls++ }, WithIntervals(time.Second))
	l.Fail(errBoom)
	tm.Advance(time.Second)
	l.Fail(errBoom)
	if !r.Exists() {
		t.Fatalf("expected a stall")
	}
	before := calls

	r.Retry()
	if r.Exists() {
		t.Fatalf("registry not emptied by Retry")
	}
	if host.cleared != 1 || host.resumed != 1 {
		t.Fatalf("cleared=%d resumed=%d", host.cleared, host.resumed)
	}
	if calls != before+1 {
		t.Fatalf("reloader did not run the attempt")
	}
	if l.Attempts() != 0 {
		t.Fatalf("Attempts = %d want 0 after reload", l.Attempts())
	}
	if !slices.Equal(hooks.resumed, []int{1}) {
		t.Fatalf("resumed hooks = %v", hooks.resumed)
	}

	// a fresh failure gets the full schedule again
	l.Fail(errBoom)
	if r.Exists() || tm.Len() != 1 {
		t.Fatalf("re-armed loader stalled immediately (pending timers %d)", tm.Len())
	}
}

func TestRetryOnEmptyRegistryIsNoop(t *testing.T) {
	r, _, host, _ := newTestRetrier(t)
	r.Retry()
	if host.cleared != 0 || host.resumed != 0 {
		t.Fatalf("Retry with nothing stalled touched the host")
	}
}

func TestOnlyFirstStallShowsError(t *testing.T) {
	r, _, host, _ := newTestRetrier(t)

	var ran []string
	a := r.NewLoader("a", func() { ran = append(ran, "a") }, WithIntervals())
	b := r.NewLoader("b", func() { ran = append(ran, "b") }, WithIntervals())
	a.Fail(errBoom)
	b.Fail(errBoom)

	if len(host.shown) != 1 || host.shown[0] != "a" || host.paused != 1 {
		t.Fatalf("shown=%v paused=%d", host.shown, host.paused)
	}
	if !slices.Equal(r.URLs(), []string{"a", "b"}) {
		t.Fatalf("URLs = %v", r.URLs())
	}
	r.Retry()
	if !slices.Equal(ran, []string{"a", "b"}) {
		t.Fatalf("reloaders ran %v", ran)
	}
}

func TestReloaderFailingDuringRetryStallsAgain(t *testing.T) {
	r, _, host, _ := newTestRetrier(t)

	var l *Loader
	l = r.NewLoader("a", func() { l.Fail(errBoom) }, WithIntervals())
	l.Fail(errBoom)

	r.Retry()
	if !r.Exists() || r.Outstanding() != 1 {
		t.Fatalf("synchronous failure inside Retry lost: outstanding=%d", r.Outstanding())
	}
	if len(host.shown) != 2 || host.paused != 2 {
		t.Fatalf("second stall should re-show the error: shown=%v paused=%d", host.shown, host.paused)
	}
}

func TestAnonymousLoaderNeverStalls(t *testing.T) {
	r, _, host, _ := newTestRetrier(t)

	gaveUp := 0
	l := r.NewLoader("", func() {}, WithIntervals(), WithGiveUp(func() { gaveUp++ }))
	l.Fail(errBoom)

	if gaveUp != 1 {
		t.Fatalf("gaveUp = %d want 1", gaveUp)
	}
	if r.Exists() || len(host.shown) != 0 || host.paused != 0 {
		t.Fatalf("anonymous loader stalled the host")
	}
}

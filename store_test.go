package assetcache

import (
	"testing"
	"time"
)

type fakeRes struct {
	name      string
	retained  bool
	releases  int
	immediate []bool
}

func (r *fakeRes) Retained() bool { return r.retained }
func (r *fakeRes) Release(immediate bool) {
	r.releases++
	r.immediate = append(r.immediate, immediate)
}

type recHooks struct {
	NopHooks
	sweeps  int
	evicted []string
	retries []time.Duration
	stalled []string
	resumed []int
}

func (h *recHooks) SweepCompleted(Kind, int, int)   { h.sweeps++ }
func (h *recHooks) EntryEvicted(_ Kind, key string) { h.evicted = append(h.evicted, key) }
func (h *recHooks) LoaderStalled(url string, _ int) { h.stalled = append(h.stalled, url) }
func (h *recHooks) StallsResumed(n int)             { h.resumed = append(h.resumed, n) }
func (h *recHooks) RetryScheduled(_ string, _ int, d time.Duration) {
	h.retries = append(h.retries, d)
}

func newTestStore(t *testing.T, opts StoreOptions) (*Store, *recHooks) {
	t.Helper()
	h := &recHooks{}
	opts.Hooks = h
	return NewStore(KindImage, opts), h
}

func TestSetThenGet(t *testing.T) {
	s, _ := newTestStore(t, StoreOptions{})

	for _, k := range []string{"img/a.png", "img/b.png", "img/c.png"} {
		r := &fakeRes{name: k}
		e := s.Set(k, r)
		if e.Key() != k {
			t.Fatalf("entry key = %q want %q", e.Key(), k)
		}
		got, ok := s.Get(k)
		if !ok || got != r {
			t.Fatalf("Get(%q) ok=%v got=%v want %v", k, ok, got, r)
		}
	}
	if _, ok := s.Get("missing"); ok {
		t.Fatalf("Get on absent key should miss")
	}
	if s.Len() != 3 {
		t.Fatalf("Len = %d want 3", s.Len())
	}
}

func TestClearFreesEveryEntryOnceImmediately(t *testing.T) {
	s, _ := newTestStore(t, StoreOptions{})

	res := map[string]*fakeRes{}
	for _, k := range []string{"a", "b", "c"} {
		res[k] = &fakeRes{name: k, retained: true}
		s.Set(k, res[k])
	}
	s.Clear()
	s.Clear()

	if s.Len() != 0 {
		t.Fatalf("Len after Clear = %d", s.Len())
	}
	for k, r := range res {
		if _, ok := s.Get(k); ok {
			t.Fatalf("Get(%q) hit after Clear", k)
		}
		if r.releases != 1 || !r.immediate[0] {
			t.Fatalf("%q: releases=%d immediate=%v; want one immediate release", k, r.releases, r.immediate)
		}
	}
}

func TestSweepNeverFreesLiveEntries(t *testing.T) {
	s, h := newTestStore(t, StoreOptions{})

	live := &fakeRes{retained: true}
	idle := &fakeRes{}
	s.Set("live", live)
	s.Set("idle", idle)

	s.AdvanceTime(1, 101*time.Second)

	if h.sweeps != 1 {
		t.Fatalf("sweeps = %d want 1", h.sweeps)
	}
	if _, ok := s.Get("live"); !ok || live.releases != 0 {
		t.Fatalf("retained entry was evicted (releases=%d)", live.releases)
	}
	if _, ok := s.Get("idle"); ok {
		t.Fatalf("idle entry survived the sweep")
	}
	if idle.releases != 1 || idle.immediate[0] {
		t.Fatalf("idle: releases=%d immediate=%v; want one deferred release", idle.releases, idle.immediate)
	}
	if len(h.evicted) != 1 || h.evicted[0] != "idle" {
		t.Fatalf("evicted hooks = %v", h.evicted)
	}

	// stops being retained -> collected by the next sweep
	live.retained = false
	s.AdvanceTime(1, 101*time.Second)
	if _, ok := s.Get("live"); ok || live.releases != 1 {
		t.Fatalf("released entry still cached (releases=%d)", live.releases)
	}
}

func TestSweepIsAmortized(t *testing.T) {
	s, h := newTestStore(t, StoreOptions{})
	s.Set("a", &fakeRes{})

	s.AdvanceTime(1, 60*time.Second)
	if h.sweeps != 0 {
		t.Fatalf("swept before the interval elapsed")
	}
	s.AdvanceTime(1, 50*time.Second) // 110s since anchor 0
	if h.sweeps != 1 {
		t.Fatalf("sweeps = %d want 1", h.sweeps)
	}
	s.AdvanceTime(1, 50*time.Second) // 50s since anchor 110s
	if h.sweeps != 1 {
		t.Fatalf("second call below the interval re-scanned (sweeps=%d)", h.sweeps)
	}
	s.AdvanceTime(1, 51*time.Second) // 101s since anchor
	if h.sweeps != 2 {
		t.Fatalf("sweeps = %d want 2", h.sweeps)
	}
}

func TestCustomSweepInterval(t *testing.T) {
	s, h := newTestStore(t, StoreOptions{SweepInterval: time.Second})
	for i := 0; i < 90; i++ {
		s.AdvanceTime(1, time.Second/60)
	}
	if h.sweeps != 1 {
		t.Fatalf("sweeps = %d want 1 after 1.5s with a 1s interval", h.sweeps)
	}
}

func TestEntryTTLSeconds(t *testing.T) {
	s, _ := newTestStore(t, StoreOptions{TTL: 30 * time.Second})

	touched := &fakeRes{}
	stale := &fakeRes{}
	e := s.Set("touched", touched)
	s.Set("stale", stale)

	s.AdvanceTime(1, 90*time.Second)
	e.Touch()
	s.AdvanceTime(1, 20*time.Second) // sweep at 110s

	if _, ok := s.Get("touched"); !ok {
		t.Fatalf("entry touched 20s ago should be alive with a 30s ttl")
	}
	if _, ok := s.Get("stale"); ok {
		t.Fatalf("entry idle for 110s should be evicted")
	}
	if _, at := e.TouchedAt(); at != 90*time.Second {
		t.Fatalf("TouchedAt = %v want 90s", at)
	}
}

func TestEntryTTLTicks(t *testing.T) {
	s, _ := newTestStore(t, StoreOptions{TTLTicks: 5})
	e := s.Set("a", &fakeRes{})

	s.AdvanceTime(3, 0)
	if !e.Alive() {
		t.Fatalf("entry idle 3 ticks should be alive with a 5 tick ttl")
	}
	s.AdvanceTime(3, 0)
	if e.Alive() {
		t.Fatalf("entry idle 6 ticks should not be alive")
	}
	if n := s.Sweep(); n != 1 {
		t.Fatalf("Sweep evicted %d want 1", n)
	}

	// per-entry override
	e2 := s.Set("b", &fakeRes{}).SetTTL(0, time.Minute)
	s.AdvanceTime(100, 30*time.Second)
	if !e2.Alive() {
		t.Fatalf("SetTTL override ignored")
	}
}

func TestOverwriteFreesPreviousEntry(t *testing.T) {
	s, _ := newTestStore(t, StoreOptions{})

	r1, r2 := &fakeRes{name: "1"}, &fakeRes{name: "2"}
	e1 := s.Set("k", r1)
	e2 := s.Set("k", r2)

	if !e1.Freed() || r1.releases != 1 || r1.immediate[0] {
		t.Fatalf("old entry: freed=%v releases=%d immediate=%v", e1.Freed(), r1.releases, r1.immediate)
	}
	if got, ok := s.Get("k"); !ok || got != r2 {
		t.Fatalf("Get after overwrite = %v,%v want r2", got, ok)
	}

	// freeing the orphan must not unregister its replacement
	e1.Free(true)
	if cur, ok := s.Entry("k"); !ok || cur != e2 {
		t.Fatalf("freeing orphaned entry removed the live one")
	}

	// same resource again: no release
	e3 := s.Set("k", r2)
	if r2.releases != 0 {
		t.Fatalf("re-setting the same resource released it")
	}
	if !e2.Freed() || e3.Freed() || s.Len() != 1 {
		t.Fatalf("e2.Freed=%v e3.Freed=%v Len=%d", e2.Freed(), e3.Freed(), s.Len())
	}
}

func TestFreeIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t, StoreOptions{})
	r := &fakeRes{}
	e := s.Set("k", r)

	e.Free(false)
	e.Free(true)

	if r.releases != 1 {
		t.Fatalf("releases = %d want 1", r.releases)
	}
	if _, ok := e.Item(); ok {
		t.Fatalf("Item on freed entry should report false")
	}
	e.Allocate()
	if _, ok := s.Get("k"); ok {
		t.Fatalf("freed entry was re-registered by Allocate")
	}
	e.Touch() // no-op, must not panic
}

func TestKeysSorted(t *testing.T) {
	s, _ := newTestStore(t, StoreOptions{})
	for _, k := range []string{"c", "a", "b"} {
		s.Set(k, &fakeRes{})
	}
	got := s.Keys()
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Keys = %v want %v", got, want)
		}
	}
}

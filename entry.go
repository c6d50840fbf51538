package assetcache

import "time"

// Entry wraps one cached Resource. Timestamps are in the owning store's
// simulated clock (accumulated ticks and accumulated elapsed time), not wall time.
type Entry struct {
	store *Store
	key   string
	item  Resource

	createdTicks uint64
	touchedTicks uint64
	createdAt    time.Duration
	touchedAt    time.Duration

	// zero disables that limit
	ttlTicks uint64
	ttl      time.Duration

	freed bool
}

func newEntry(s *Store, key string, item Resource) *Entry {
	return &Entry{
		store:        s,
		key:          key,
		item:         item,
		createdTicks: s.ticks,
		touchedTicks: s.ticks,
		createdAt:    s.elapsed,
		touchedAt:    s.elapsed,
		ttlTicks:     s.ttlTicks,
		ttl:          s.ttl,
	}
}

// Allocate registers the entry in its store under its key and returns it.
// A freed entry is never re-registered.
func (e *Entry) Allocate() *Entry {
	if !e.freed {
		e.store.entries[e.key] = e
	}
	return e
}

func (e *Entry) Key() string { return e.key }

// Item returns the wrapped resource; ok is false once the entry is freed.
func (e *Entry) Item() (Resource, bool) {
	if e.freed {
		return nil, false
	}
	return e.item, true
}

func (e *Entry) Freed() bool { return e.freed }

// CreatedAt returns the store clock reading (ticks, elapsed) at creation.
func (e *Entry) CreatedAt() (uint64, time.Duration) { return e.createdTicks, e.createdAt }

// TouchedAt returns the store clock reading at the last Touch.
func (e *Entry) TouchedAt() (uint64, time.Duration) { return e.touchedTicks, e.touchedAt }

// SetTTL overrides the idle limits taken from the store options.
// Either limit may be zero to disable it.
func (e *Entry) SetTTL(ticks uint64, d time.Duration) *Entry {
	e.ttlTicks = ticks
	e.ttl = d
	return e
}

// Touch restarts the idle clock. No-op on a freed entry.
func (e *Entry) Touch() {
	if e.freed {
		return
	}
	e.touchedTicks = e.store.ticks
	e.touchedAt = e.store.elapsed
}

// Alive is the liveness predicate used by sweeps: the resource is still
// retained by a consumer, or the entry has been idle for less than one of
// its TTL limits.
func (e *Entry) Alive() bool {
	if e.freed {
		return false
	}
	if e.item != nil && e.item.Retained() {
		return true
	}
	s := e.store
	if e.ttlTicks > 0 && s.ticks-e.touchedTicks < e.ttlTicks {
		return true
	}
	if e.ttl > 0 && s.elapsed-e.touchedAt < e.ttl {
		return true
	}
	return false
}

// Free releases the resource and unregisters the entry. Safe to call more
// than once; only the first call has an effect.
func (e *Entry) Free(immediate bool) {
	if e.freed {
		return
	}
	item := e.detach()
	if item != nil {
		item.Release(immediate)
	}
}

// detach marks the entry freed and unregisters it without releasing the
// resource. The store slot is only cleared if it still points at e.
func (e *Entry) detach() Resource {
	e.freed = true
	if cur, ok := e.store.entries[e.key]; ok && cur == e {
		delete(e.store.entries, e.key)
	}
	item := e.item
	e.item = nil
	return item
}

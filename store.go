package assetcache

import (
	"reflect"
	"sort"
	"time"
)

// StoreOptions tune a Store. Zero values pick defaults.
type StoreOptions struct {
	SweepInterval time.Duration // 0 => 100s
	// Idle limits copied into every new entry. Both zero means entries
	// are kept only while their resource is retained.
	TTLTicks uint64
	TTL      time.Duration

	Logger Logger // if nil, NopLogger is used
	Hooks  Hooks  // if nil, NopHooks is used
}

// Store maps resource keys to entries for one Kind.
// Not safe for concurrent use: it belongs to the host loop.
type Store struct {
	kind    Kind
	entries map[string]*Entry

	ticks     uint64
	elapsed   time.Duration
	lastSweep time.Duration
	interval  time.Duration

	ttlTicks uint64
	ttl      time.Duration

	log   Logger
	hooks Hooks

	// reused between sweeps
	pending []*Entry
}

func NewStore(kind Kind, opts StoreOptions) *Store {
	return &Store{
		kind:     kind,
		entries:  make(map[string]*Entry),
		interval: coalesce[time.Duration](opts.SweepInterval, defaultSweepInterval),
		ttlTicks: opts.TTLTicks,
		ttl:      opts.TTL,
		log:      coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:    coalesce[Hooks](opts.Hooks, NopHooks{}),
	}
}

func (s *Store) Kind() Kind { return s.kind }

func (s *Store) Len() int { return len(s.entries) }

// Get returns the resource registered under key. It does not touch the entry.
func (s *Store) Get(key string) (Resource, bool) {
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	return e.Item()
}

// Entry returns the registered entry for key.
func (s *Store) Entry(key string) (*Entry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

// Set registers item under key and returns the new entry. An entry already
// registered under key is freed through the deferred path first, unless it
// wraps the very same resource, in which case it is only unregistered.
func (s *Store) Set(key string, item Resource) *Entry {
	if prev, ok := s.entries[key]; ok {
		if sameResource(prev.item, item) {
			prev.detach()
		} else {
			prev.Free(false)
		}
		s.log.Debug("replaced cache entry", Fields{"kind": s.kind.String(), "key": key})
	}
	return newEntry(s, key, item).Allocate()
}

// Clear frees every entry immediately.
func (s *Store) Clear() {
	all := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		all = append(all, e)
	}
	for _, e := range all {
		e.Free(true)
	}
	s.entries = make(map[string]*Entry)
	if len(all) > 0 {
		s.log.Debug("store cleared", Fields{"kind": s.kind.String(), "freed": len(all)})
	}
}

// AdvanceTime moves the store clock. Once more than the sweep interval has
// accumulated since the last sweep, non-live entries are evicted.
func (s *Store) AdvanceTime(ticks int, elapsed time.Duration) {
	if ticks > 0 {
		s.ticks += uint64(ticks)
	}
	if elapsed > 0 {
		s.elapsed += elapsed
	}
	if s.elapsed-s.lastSweep > s.interval {
		s.Sweep()
		s.lastSweep = s.elapsed
	}
}

// Sweep evicts every non-live entry now and returns how many were freed.
// Entries are collected first and freed after the scan.
func (s *Store) Sweep() int {
	scanned := len(s.entries)
	for _, e := range s.entries {
		if !e.Alive() {
			s.pending = append(s.pending, e)
		}
	}
	evicted := len(s.pending)
	for i, e := range s.pending {
		e.Free(false)
		s.hooks.EntryEvicted(s.kind, e.key)
		s.pending[i] = nil
	}
	s.pending = s.pending[:0]

	s.hooks.SweepCompleted(s.kind, scanned, evicted)
	if evicted > 0 {
		s.log.Debug("sweep evicted entries", Fields{
			"kind": s.kind.String(), "scanned": scanned, "evicted": evicted,
		})
	}
	return evicted
}

// Keys returns the registered keys in sorted order.
func (s *Store) Keys() []string {
	out := make([]string, 0, len(s.entries))
	for k := range s.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Clock returns the accumulated ticks and elapsed time.
func (s *Store) Clock() (uint64, time.Duration) { return s.ticks, s.elapsed }

func sameResource(a, b Resource) bool {
	if a == nil || b == nil {
		return false
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.Comparable() {
		return false
	}
	return va.Equal(vb)
}

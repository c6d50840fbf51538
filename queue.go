package assetcache

// Loadable is one pending load as seen by a Queue.
type Loadable interface {
	// Ready reports whether the load has finished.
	Ready() bool
	// Start begins or continues the load. The queue calls it on every
	// Advance while the loadable is at the head and not ready, so it must
	// be cheap and idempotent while a load is in flight.
	Start()
}

type queued struct {
	key string
	l   Loadable
}

// Queue admits one load at a time: only the head is ever started.
// Not safe for concurrent use: it belongs to the host loop.
type Queue struct {
	kind  Kind
	items []queued
	log   Logger
}

func NewQueue(kind Kind, log Logger) *Queue {
	return &Queue{kind: kind, log: coalesce[Logger](log, NopLogger{})}
}

func (q *Queue) Kind() Kind { return q.kind }

func (q *Queue) Len() int { return len(q.items) }

// Enqueue appends to the tail. It does not start loading.
func (q *Queue) Enqueue(key string, l Loadable) {
	q.items = append(q.items, queued{key: key, l: l})
}

// Advance progresses the head. A ready head is dequeued and the next one is
// started; otherwise the head is started (again).
func (q *Queue) Advance() {
	if len(q.items) == 0 {
		return
	}
	head := q.items[0]
	if !head.l.Ready() {
		head.l.Start()
		return
	}
	q.items[0] = queued{}
	q.items = q.items[1:]
	if len(q.items) > 0 {
		q.items[0].l.Start()
	}
}

// RaisePriority moves the first element queued under key to the head,
// keeping the relative order of the rest. It reports whether key was found.
func (q *Queue) RaisePriority(key string) bool {
	for i, it := range q.items {
		if it.key != key {
			continue
		}
		if i > 0 {
			copy(q.items[1:i+1], q.items[:i])
			q.items[0] = it
			q.log.Debug("raised load priority", Fields{"kind": q.kind.String(), "key": key, "from": i})
		}
		return true
	}
	return false
}

// Contains reports whether key is queued.
func (q *Queue) Contains(key string) bool {
	for _, it := range q.items {
		if it.key == key {
			return true
		}
	}
	return false
}

// Keys returns the queued keys, head first.
func (q *Queue) Keys() []string {
	out := make([]string, len(q.items))
	for i, it := range q.items {
		out[i] = it.key
	}
	return out
}

// Clear drops every queued load without signaling them.
func (q *Queue) Clear() {
	clear(q.items)
	q.items = q.items[:0]
}

package assetcache

import "context"

type reqState uint8

const (
	reqIdle      reqState = iota // queued, never started
	reqFetching                  // fetch goroutine running
	reqWaiting                   // failed, retry scheduled on the timers
	reqStalled                   // retries exhausted, waiting for Retrier.Retry
	reqDone                      // resource registered in the store
	reqFailed                    // anonymous load gave up; dequeued without a resource
	reqAbandoned                 // dropped by Runtime.Reset or Close
)

// request is the Loadable the Runtime enqueues on a cache miss.
type request struct {
	rt   *Runtime
	kind Kind
	key  string
	url  string

	state  reqState
	loader *Loader
	cancel context.CancelFunc
}

var _ Loadable = (*request)(nil)

func newRequest(rt *Runtime, kind Kind, key, url string) *request {
	q := &request{rt: rt, kind: kind, key: key, url: url}
	q.loader = rt.retrier.NewLoader(url, q.begin, WithGiveUp(q.giveUp))
	return q
}

// Ready also reports true for a failed anonymous load so the queue moves on.
func (q *request) Ready() bool { return q.state == reqDone || q.state == reqFailed }

// giveUp runs when the loader is out of retries. A load with a url stalls
// until Retry; one without a url can never be resumed, so it is dropped.
func (q *request) giveUp() {
	if q.url != "" {
		q.state = reqStalled
		return
	}
	q.state = reqFailed
	q.forget()
	q.rt.log.Warn("anonymous load dropped", Fields{"kind": q.kind.String(), "key": q.key})
}

// forget unregisters q so a later Load of the same key starts afresh.
func (q *request) forget() {
	if cur, ok := q.rt.requests[q.kind][q.key]; ok && cur == q {
		delete(q.rt.requests[q.kind], q.key)
	}
}

// Start only acts on a request that was never started. Later attempts are
// driven by the loader's schedule, not by the queue.
func (q *request) Start() {
	if q.state == reqIdle {
		q.begin()
	}
}

func (q *request) begin() {
	switch q.state {
	case reqFetching, reqDone, reqFailed, reqAbandoned:
		return
	}
	q.state = reqFetching

	ctx, cancel := context.WithCancel(q.rt.ctx)
	q.cancel = cancel
	q.rt.wg.Add(1)
	go func() {
		defer q.rt.wg.Done()
		b, err := q.rt.src.Fetch(ctx, q.url)
		_ = q.rt.post(ctx, func() { q.complete(b, err) })
	}()
}

// complete runs on the host loop once the fetch goroutine reports back.
func (q *request) complete(b []byte, err error) {
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
	if q.state != reqFetching {
		return
	}

	var res Resource
	if err == nil {
		res, err = q.rt.decoders[q.kind].Decode(q.key, b)
	}
	if err != nil {
		q.state = reqWaiting
		q.rt.hooks.RequestCompleted(q.kind, q.key, false)
		q.loader.Fail(err)
		return
	}

	q.rt.stores[q.kind].Set(q.key, res)
	q.state = reqDone
	q.forget()
	q.rt.hooks.RequestCompleted(q.kind, q.key, true)
	q.rt.log.Debug("asset loaded", Fields{"kind": q.kind.String(), "key": q.key, "bytes": len(b)})
}

func (q *request) abandon() {
	q.state = reqAbandoned
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
}

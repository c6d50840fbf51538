// Package promhooks exports runtime events as Prometheus metrics.
package promhooks

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/assetcache"
)

// Hooks implements assetcache.Hooks with Prometheus collectors.
type Hooks struct {
	evictions *prometheus.CounterVec
	sweeps    *prometheus.CounterVec
	requests  *prometheus.CounterVec
	retries   prometheus.Counter
	delay     prometheus.Histogram
	stalls    prometheus.Counter
	resumes   prometheus.Counter
	stalled   prometheus.Gauge
}

var _ assetcache.Hooks = (*Hooks)(nil)

// New creates the collectors under namespace and registers them with reg.
func New(reg prometheus.Registerer, namespace string) (*Hooks, error) {
	h := &Hooks{
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_evicted_total",
			Help:      "Cache entries freed by TTL sweeps.",
		}, []string{"kind"}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeps_total",
			Help:      "TTL sweeps run per store.",
		}, []string{"kind"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Load attempts by kind and result.",
		}, []string{"kind", "result"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_scheduled_total",
			Help:      "Failed attempts rescheduled by the retry controller.",
		}),
		delay: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retry_delay_seconds",
			Help:      "Delay before each scheduled retry.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 3, 5, 10},
		}),
		stalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stalls_total",
			Help:      "Loaders that exhausted their retries.",
		}),
		resumes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resumes_total",
			Help:      "Operator retries that re-armed stalled loaders.",
		}),
		stalled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stalled_loaders",
			Help:      "Loaders currently waiting for an operator retry.",
		}),
	}
	for _, c := range []prometheus.Collector{
		h.evictions, h.sweeps, h.requests, h.retries, h.delay, h.stalls, h.resumes, h.stalled,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Hooks) EntryEvicted(kind assetcache.Kind, _ string) {
	h.evictions.WithLabelValues(kind.String()).Inc()
}

func (h *Hooks) SweepCompleted(kind assetcache.Kind, _, _ int) {
	h.sweeps.WithLabelValues(kind.String()).Inc()
}

func (h *Hooks) RetryScheduled(_ string, _ int, delay time.Duration) {
	h.retries.Inc()
	h.delay.Observe(delay.Seconds())
}

func (h *Hooks) LoaderStalled(_ string, outstanding int) {
	h.stalls.Inc()
	h.stalled.Set(float64(outstanding))
}

func (h *Hooks) StallsResumed(int) {
	h.resumes.Inc()
	h.stalled.Set(0)
}

func (h *Hooks) RequestCompleted(kind assetcache.Kind, _ string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	h.requests.WithLabelValues(kind.String(), result).Inc()
}

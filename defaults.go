package assetcache

import "time"

const (
	defaultSweepInterval = 100 * time.Second
	defaultEventBuffer   = 256
	defaultFrame         = time.Second / 60
)

// DefaultRetryIntervals is the escalation schedule used when none is configured.
var DefaultRetryIntervals = []time.Duration{
	500 * time.Millisecond,
	1000 * time.Millisecond,
	3000 * time.Millisecond,
}

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

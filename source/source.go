// Package source fetches raw asset bytes for a Runtime.
//
// Implementations MUST be safe for concurrent use: the runtime fetches from
// background goroutines and only the completion is handed back to the host loop.
package source

import (
	"context"
	"errors"
	"fmt"
)

// ErrTooLarge is returned when a response exceeds the configured size limit.
var ErrTooLarge = errors.New("source: payload too large")

// Source fetches the bytes behind url.
type Source interface {
	// Fetch returns the complete payload or an error. Errors are treated as
	// transient by the runtime and retried on its schedule.
	Fetch(ctx context.Context, url string) ([]byte, error)
	// Close releases resources.
	Close(ctx context.Context) error
}

// Func adapts a plain function to Source.
type Func func(ctx context.Context, url string) ([]byte, error)

func (f Func) Fetch(ctx context.Context, url string) ([]byte, error) { return f(ctx, url) }
func (Func) Close(context.Context) error                            { return nil }

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %q: unexpected status %d", e.URL, e.Code)
}

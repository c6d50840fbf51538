package assetcache

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownKind = errors.New("assetcache: unknown resource kind")
	ErrClosed      = errors.New("assetcache: runtime closed")
)

// LoadError is handed to Host.ShowError when a loader runs out of retries.
type LoadError struct {
	URL      string
	Attempts int
	Err      error // last attempt failure; may be nil
}

func (e *LoadError) Error() string {
	switch {
	case e.Err != nil && e.URL != "":
		return fmt.Sprintf("load %q failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("load failed after %d attempts: %v", e.Attempts, e.Err)
	case e.URL != "":
		return fmt.Sprintf("load %q failed after %d attempts", e.URL, e.Attempts)
	default:
		return fmt.Sprintf("load failed after %d attempts", e.Attempts)
	}
}

func (e *LoadError) Unwrap() error { return e.Err }

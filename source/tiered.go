package source

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/assetcache/internal/util"
	"github.com/unkn0wn-root/assetcache/internal/wire"
	pr "github.com/unkn0wn-root/assetcache/provider"
)

// TieredOptions tune a Tiered source.
type TieredOptions struct {
	Namespace string        // key prefix inside the provider; "" => "asset"
	TTL       time.Duration // provider TTL per blob; 0 => provider default / no expiry
	// FetchTimeout bounds a shared upstream fetch; 0 => 30s. The fetch does
	// not inherit cancellation from any one caller.
	FetchTimeout time.Duration
	// OnCorrupt is called when a stored blob fails validation and is dropped.
	OnCorrupt func(url string)
}

// Tiered keeps fetched bytes in a Provider (ristretto, bigcache, redis) so
// that re-loading an evicted asset skips the network. Concurrent misses for
// the same url share one upstream fetch.
type Tiered struct {
	next      Source
	p         pr.Provider
	ns        string
	ttl       time.Duration
	timeout   time.Duration
	onCorrupt func(string)
	now       func() time.Time

	sf singleflight.Group
}

var _ Source = (*Tiered)(nil)

func NewTiered(next Source, p pr.Provider, opts TieredOptions) (*Tiered, error) {
	if next == nil {
		return nil, errors.New("source: tiered: upstream source is required")
	}
	if p == nil {
		return nil, errors.New("source: tiered: provider is required")
	}
	ns := opts.Namespace
	if ns == "" {
		ns = "asset"
	}
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Tiered{
		next:      next,
		p:         p,
		ns:        ns,
		ttl:       opts.TTL,
		timeout:   timeout,
		onCorrupt: opts.OnCorrupt,
		now:       time.Now,
	}, nil
}

func (t *Tiered) key(url string) string { return util.BlobKey(t.ns, url) }

func (t *Tiered) Fetch(ctx context.Context, url string) ([]byte, error) {
	k := t.key(url)
	// provider errors fall through to the upstream fetch
	if raw, ok, err := t.p.Get(ctx, k); err == nil && ok {
		if _, payload, err := wire.DecodeBlob(raw); err == nil {
			return payload, nil
		}
		_ = t.p.Del(ctx, k) // self-heal corrupt
		if t.onCorrupt != nil {
			t.onCorrupt(url)
		}
	}

	// Waiters share the flight; each one only gives up on its own ctx.
	ch := t.sf.DoChan(k, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.timeout)
		defer cancel()
		b, err := t.next.Fetch(fctx, url)
		if err != nil {
			return nil, err
		}
		blob := wire.EncodeBlob(t.now(), b)
		_, _ = t.p.Set(fctx, k, blob, int64(len(blob)), t.ttl) // best effort
		return b, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops the stored bytes for url.
func (t *Tiered) Invalidate(ctx context.Context, url string) error {
	return t.p.Del(ctx, t.key(url))
}

// Close closes the provider, then the upstream source.
func (t *Tiered) Close(ctx context.Context) error {
	return errors.Join(t.p.Close(ctx), t.next.Close(ctx))
}

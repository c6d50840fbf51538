// Package assetcache implements the asset cache and retry-loading pipeline of a
// tick-driven game runtime. Everything in the core runs on the host goroutine;
// the only way in from other goroutines is Runtime.Post.
//
// Components:
//   - Store: key -> Entry map with amortized TTL sweeps (one per resource Kind).
//   - Entry: wraps one Resource; tracks liveness and releases it at most once.
//   - Queue: single-flight load queue. Only the head is progressed per tick.
//   - Retrier/Loader: bounded escalating retry. Exhausted loaders stall the
//     whole host until an operator calls Retry.
//   - Timers: deferred callbacks fired by the host loop (retry delays).
//   - Runtime: the host loop that owns all of the above.
//
// Host loop:
//
//	rt, _ := assetcache.New(assetcache.Options{Source: src})
//	defer rt.Close(ctx)
//	for range frames {
//	    rt.Tick(1, frameDelta)
//	    if img, ok := rt.Request(assetcache.KindImage, "img/title.png", url); ok {
//	        draw(img)
//	    }
//	}
package assetcache

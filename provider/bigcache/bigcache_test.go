package bigcache

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := New(context.Background(), Config{
		LifeWindow:         time.Minute,
		Shards:             16,
		MaxEntriesInWindow: 1024,
		MaxEntrySize:       1 << 10,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p
}

func TestBigcacheGetSetDel(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	if _, ok, err := p.Get(ctx, "k"); ok || err != nil {
		t.Fatalf("miss: ok=%v err=%v", ok, err)
	}
	blob := []byte("ASST\x01\x01payload")
	if ok, err := p.Set(ctx, "k", blob, int64(len(blob)), time.Hour); !ok || err != nil {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	got, ok, err := p.Get(ctx, "k")
	if !ok || err != nil || !bytes.Equal(got, blob) {
		t.Fatalf("Get = %q,%v,%v", got, ok, err)
	}
	if p.Len() != 1 {
		t.Fatalf("Len = %d want 1", p.Len())
	}
	if err := p.Del(ctx, "k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if err := p.Del(ctx, "k"); err != nil {
		t.Fatalf("Del on missing key: %v", err)
	}
	if _, ok, _ := p.Get(ctx, "k"); ok {
		t.Fatalf("Get after Del hit")
	}
}

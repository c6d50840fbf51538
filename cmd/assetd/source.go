package main

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/assetcache"
	"github.com/unkn0wn-root/assetcache/codec"
	"github.com/unkn0wn-root/assetcache/internal/config"
	pr "github.com/unkn0wn-root/assetcache/provider"
	bcprovider "github.com/unkn0wn-root/assetcache/provider/bigcache"
	redisprovider "github.com/unkn0wn-root/assetcache/provider/redis"
	rcprovider "github.com/unkn0wn-root/assetcache/provider/ristretto"
	"github.com/unkn0wn-root/assetcache/source"
)

const maxDocument = 16 << 20

func buildSource(ctx context.Context, cfg *config.Config) (source.Source, error) {
	origin, err := source.NewHTTP(source.HTTPOptions{BaseURL: cfg.BaseURL})
	if err != nil {
		return nil, err
	}
	p, err := buildProvider(ctx, cfg.Tier)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return origin, nil
	}
	return source.NewTiered(origin, p, source.TieredOptions{
		Namespace: cfg.Tier.Namespace,
		TTL:       cfg.Tier.TTL,
	})
}

func buildProvider(ctx context.Context, t config.TierConfig) (pr.Provider, error) {
	switch t.Backend {
	case config.BackendNone:
		return nil, nil
	case config.BackendRistretto:
		return rcprovider.New(rcprovider.Config{
			NumCounters: t.Ristretto.NumCounters,
			MaxCost:     t.Ristretto.MaxCostMB << 20,
		})
	case config.BackendBigcache:
		return bcprovider.New(ctx, bcprovider.Config{
			LifeWindow:         t.Bigcache.LifeWindow,
			HardMaxCacheSizeMB: t.Bigcache.HardMaxMB,
			MaxEntrySize:       t.Bigcache.MaxEntrySize,
		})
	case config.BackendRedis:
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     t.Redis.Addr,
			Password: t.Redis.Password,
			DB:       t.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis tier: %w", err)
		}
		return redisprovider.New(redisprovider.Config{Client: rdb, CloseClient: true, DefaultTTL: t.TTL})
	default:
		return nil, fmt.Errorf("unknown tier backend %q", t.Backend)
	}
}

func dataDecoder(format string) (assetcache.Decoder, error) {
	var c codec.Codec[map[string]any]
	switch format {
	case "json":
		c = codec.JSON[map[string]any]{}
	case "msgpack":
		c = codec.Msgpack[map[string]any]{}
	case "cbor":
		cb, err := codec.NewCBOR[map[string]any](false)
		if err != nil {
			return nil, err
		}
		c = cb
	default:
		return nil, fmt.Errorf("unknown data format %q", format)
	}
	return assetcache.CodecDecoder[map[string]any]{
		Codec: codec.Limit[map[string]any]{Inner: c, MaxDecode: maxDocument},
	}, nil
}

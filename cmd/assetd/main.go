// Command assetd preloads an asset manifest through the assetcache runtime and
// exposes operator retry, status and metrics over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/assetcache"
	asynchook "github.com/unkn0wn-root/assetcache/hooks/async"
	promhooks "github.com/unkn0wn-root/assetcache/hooks/prom"
	"github.com/unkn0wn-root/assetcache/internal/config"
	zaplog "github.com/unkn0wn-root/assetcache/log/zap"
	"github.com/unkn0wn-root/assetcache/sloghooks"
)

func main() {
	cfgPath := flag.String("config", "assetd.yaml", "path to the YAML config")
	listen := flag.String("listen", "", "override the HTTP listen address")
	flag.Parse()

	if err := run(*cfgPath, *listen); err != nil {
		fmt.Fprintln(os.Stderr, "assetd:", err)
		os.Exit(1)
	}
}

func run(cfgPath, listen string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.Listen = listen
	}

	zl, err := newZap(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()
	log := zaplog.ZapLogger{L: zl}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := promhooks.New(reg, "assetcache")
	if err != nil {
		return err
	}
	events := sloghooks.New(slog.New(slog.NewJSONHandler(os.Stderr, nil)), sloghooks.Options{EvictEvery: 10})
	hooks := asynchook.New(assetcache.MultiHooks(metrics, events), 1, 4096)
	defer hooks.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := buildSource(ctx, cfg)
	if err != nil {
		return err
	}
	dec, err := dataDecoder(cfg.DataFormat)
	if err != nil {
		return err
	}

	rt, err := assetcache.New(assetcache.Options{
		Source:         src,
		Decoders:       map[assetcache.Kind]assetcache.Decoder{assetcache.KindData: dec},
		Presenter:      presenter{log: zl},
		Logger:         log,
		Hooks:          hooks,
		SweepInterval:  cfg.Cache.SweepInterval,
		EntryTTL:       cfg.Cache.EntryTTL,
		EntryTTLTicks:  cfg.Cache.EntryTTLTicks,
		RetryIntervals: cfg.Retry.Intervals,
	})
	if err != nil {
		_ = src.Close(ctx)
		return err
	}

	preload(rt, cfg.Assets)
	log.Info("manifest enqueued", assetcache.Fields{"assets": len(cfg.Assets), "tier": cfg.Tier.Backend})

	loopDone := make(chan struct{})
	var srv *server
	if cfg.Listen != "" {
		srv = newServer(cfg.Listen, rt, loopDone, reg, log)
		srv.start()
	}

	err = rt.Run(ctx, cfg.Frame())
	close(loopDone)
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if srv != nil {
		err = errors.Join(err, srv.shutdown(shutdownCtx))
	}
	return errors.Join(err, rt.Close(shutdownCtx))
}

// preload enqueues every asset, then raises priority ones so that the first
// listed priority asset ends up at the head of its queue.
func preload(rt *assetcache.Runtime, assets []config.Asset) {
	for _, a := range assets {
		rt.Load(a.Kind, a.Key, a.URL)
	}
	for i := len(assets) - 1; i >= 0; i-- {
		if assets[i].Priority {
			rt.Prioritize(assets[i].Kind, assets[i].Key)
		}
	}
}

func newZap(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

// presenter stands in for the on-screen error banner.
type presenter struct{ log *zap.Logger }

func (p presenter) ShowError(url string, err error) {
	p.log.Error("asset unavailable; POST /retry to resume", zap.String("url", url), zap.Error(err))
}

func (p presenter) ClearError() {
	p.log.Info("error cleared")
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unkn0wn-root/assetcache"
)

// server is the operator surface. Handlers never touch the runtime directly;
// they hop onto the host loop through Runtime.Post.
type server struct {
	http *http.Server
	rt   *assetcache.Runtime
	log  assetcache.Logger

	// closed once the host loop stops draining the mailbox
	stopped <-chan struct{}
}

func newServer(addr string, rt *assetcache.Runtime, stopped <-chan struct{}, reg *prometheus.Registry, log assetcache.Logger) *server {
	s := &server{rt: rt, log: log, stopped: stopped}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/status", s.status)
	mux.HandleFunc("/retry", s.retry)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *server) start() {
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server stopped", assetcache.Fields{"err": err})
		}
	}()
	s.log.Info("http listening", assetcache.Fields{"addr": s.http.Addr})
}

func (s *server) shutdown(ctx context.Context) error { return s.http.Shutdown(ctx) }

// onLoop runs fn on the host loop and waits for it. On false an error
// response has been written, or the client went away.
func (s *server) onLoop(w http.ResponseWriter, r *http.Request, fn func()) bool {
	select {
	case <-s.stopped:
		http.Error(w, "host loop stopped", http.StatusServiceUnavailable)
		return false
	default:
	}
	done := make(chan struct{})
	if err := s.rt.Post(func() { fn(); close(done) }); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return false
	}
	select {
	case <-done:
		return true
	case <-s.stopped:
		http.Error(w, "host loop stopped", http.StatusServiceUnavailable)
	case <-r.Context().Done():
	}
	return false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *server) status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var st assetcache.Stats
	if s.onLoop(w, r, func() { st = s.rt.Stats() }) {
		writeJSON(w, st)
	}
}

func (s *server) retry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var n int
	ok := s.onLoop(w, r, func() {
		n = s.rt.Retrier().Outstanding()
		s.rt.Retry()
	})
	if ok {
		writeJSON(w, map[string]int{"resumed": n})
	}
}

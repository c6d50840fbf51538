package sloghooks

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/unkn0wn-root/assetcache"
)

func newBufLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestSweepSamplingAndEmptySweeps(t *testing.T) {
	l, buf := newBufLogger()
	h := New(l, Options{SweepEvery: 2})

	h.SweepCompleted(assetcache.KindImage, 5, 0) // empty, skipped
	h.SweepCompleted(assetcache.KindImage, 5, 1) // sampled out
	h.SweepCompleted(assetcache.KindImage, 5, 1) // logged

	if n := strings.Count(buf.String(), "assetcache.sweep_completed"); n != 1 {
		t.Fatalf("logged %d sweeps want 1:\n%s", n, buf.String())
	}
}

func TestStallAndFailureEvents(t *testing.T) {
	l, buf := newBufLogger()
	h := New(l, Options{})

	h.RequestCompleted(assetcache.KindAudio, "ok", true)
	h.RequestCompleted(assetcache.KindAudio, "bad", false)
	h.RetryScheduled("sfx/a.ogg", 1, 500*time.Millisecond)
	h.LoaderStalled("sfx/a.ogg", 1)
	h.StallsResumed(1)

	out := buf.String()
	for _, want := range []string{
		"assetcache.request_failed", "key=bad",
		"assetcache.retry_scheduled", "attempt=1",
		"level=ERROR msg=assetcache.loader_stalled",
		"assetcache.stalls_resumed count=1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "key=ok") {
		t.Fatalf("successful request was logged")
	}
}

func TestNilLoggerIsNoop(t *testing.T) {
	h := New(nil, Options{})
	h.EntryEvicted(assetcache.KindFont, "a")
	h.LoaderStalled("u", 1)
}

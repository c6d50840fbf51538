package slog

import (
	"bytes"
	stdslog "log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/assetcache"
)

func TestAttrsSortedByKey(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{L: stdslog.New(stdslog.NewTextHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelDebug}))}

	l.Info("asset loaded", assetcache.Fields{"kind": "data", "bytes": 12, "key": "level1"})

	out := buf.String()
	if !strings.Contains(out, `msg="asset loaded" bytes=12 key=level1 kind=data`) {
		t.Fatalf("unexpected output: %s", out)
	}
}

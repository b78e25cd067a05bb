//go:build go1.21

package slog

import (
	"bytes"
	stdslog "log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/condcache"
)

func TestSlogLoggerSortedAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := stdslog.NewTextHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelDebug})
	l := Logger{L: stdslog.New(h)}

	l.Debug("object not modified", condcache.Fields{"key": "k", "bucket": "b"})

	out := buf.String()
	if !strings.Contains(out, "level=DEBUG") || !strings.Contains(out, `msg="object not modified"`) {
		t.Fatalf("unexpected output %q", out)
	}
	if strings.Index(out, "bucket=b") > strings.Index(out, "key=k") {
		t.Fatalf("attrs not sorted: %q", out)
	}
}

package sloghooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newBuf() (*bytes.Buffer, *slog.Logger) {
	var buf bytes.Buffer
	return &buf, slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestKeysAreRedacted(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{})
	h.DecodeFailed("b", "secret/path.json", 3, errors.New("bad"))

	out := buf.String()
	if strings.Contains(out, "secret/path.json") {
		t.Fatalf("key leaked: %q", out)
	}
	if !strings.Contains(out, "condcache.decode_failed") || !strings.Contains(out, "bucket=b") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCustomRedactor(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{Redact: func(s string) string { return "<" + s + ">" }})
	h.TransportFailed("b", "k", errors.New("down"))
	if !strings.Contains(buf.String(), "key=<k>") {
		t.Fatalf("custom redactor not used: %q", buf.String())
	}
}

func TestNotModifiedSampling(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{NotModifiedEvery: 3})
	for i := 0; i < 9; i++ {
		h.NotModified("b", "k")
	}
	if n := strings.Count(buf.String(), "condcache.not_modified"); n != 3 {
		t.Fatalf("expected 3 sampled lines, got %d", n)
	}
}

func TestNilLoggerIsNoop(t *testing.T) {
	h := New(nil, Options{})
	h.Replaced("b", "k", "", "1", 1)
	h.ProtocolViolation("b", "k", "x")
	h.MirrorCorrupt("mirror:x")
}

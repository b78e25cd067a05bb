package zerolog

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/condcache"
)

func TestZerologLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{L: zerolog.New(&buf)}

	l.Error("transport protocol violation", condcache.Fields{"bucket": "b", "reason": "x"})

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output not JSON: %v (%q)", err, buf.String())
	}
	if got["level"] != "error" || got["message"] != "transport protocol violation" || got["bucket"] != "b" {
		t.Fatalf("unexpected entry %v", got)
	}
}

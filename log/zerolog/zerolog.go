package zerolog

import (
	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/condcache"
)

var _ condcache.Logger = Logger{}

// Logger adapts a zerolog.Logger. Build one with a ConsoleWriter for
// human-readable output or use zerolog.New(os.Stderr) for JSON lines.
type Logger struct{ L zerolog.Logger }

func (z Logger) Debug(msg string, f condcache.Fields) { z.L.Debug().Fields(map[string]any(f)).Msg(msg) }
func (z Logger) Info(msg string, f condcache.Fields)  { z.L.Info().Fields(map[string]any(f)).Msg(msg) }
func (z Logger) Warn(msg string, f condcache.Fields)  { z.L.Warn().Fields(map[string]any(f)).Msg(msg) }
func (z Logger) Error(msg string, f condcache.Fields) { z.L.Error().Fields(map[string]any(f)).Msg(msg) }

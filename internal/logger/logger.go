// Package logger holds the process-wide structured logger used by the arena
// packages. It discards everything by default; setting ARENA_LOG_ALLOC in the
// environment turns on debug-level text logs on stderr.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// EnvVar is the environment variable that enables allocation logging.
const EnvVar = "ARENA_LOG_ALLOC"

// L is the global logger instance.
var L = fromEnv()

// Options configures Init.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	Output  io.Writer  // Destination. Default: os.Stderr
	Level   slog.Level // Minimum log level. Default: LevelInfo when enabled
	JSON    bool       // Emit JSON instead of logfmt-style text
}

// Init replaces L according to opts. Call from main() before any log calls.
func Init(opts Options) {
	L = New(opts)
}

// New builds a logger without touching L.
func New(opts Options) *slog.Logger {
	if !opts.Enabled {
		return Discard()
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	level := opts.Level
	if level == 0 {
		level = slog.LevelInfo
	}
	ho := &slog.HandlerOptions{Level: level}
	if opts.JSON {
		return slog.New(slog.NewJSONHandler(out, ho))
	}
	return slog.New(slog.NewTextHandler(out, ho))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fromEnv() *slog.Logger {
	return New(Options{
		Enabled: os.Getenv(EnvVar) != "",
		Level:   slog.LevelDebug,
	})
}

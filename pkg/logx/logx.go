// Package logx wraps zerolog behind a small init-once surface shared by the
// client packages. Console output is meant for interactive use; the default
// is JSON.
package logx

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the process logger.
type Options struct {
	// Level is one of trace, debug, info, warn, error. Empty means info.
	Level string
	// Console switches to the human-readable colored writer.
	Console bool
}

var (
	mu     sync.RWMutex
	logger = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
)

// Init configures the shared logger. Safe to call more than once; the last
// call wins.
func Init(opts Options) {
	level, err := zerolog.ParseLevel(strings.TrimSpace(strings.ToLower(opts.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	l := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if opts.Console {
		l = l.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}

	mu.Lock()
	logger = l.Level(level)
	mu.Unlock()
}

// Logger returns the shared logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Component returns a child logger tagged with a component field.
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}

package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Level string
	JSON  bool
	Out   io.Writer
}

var (
	mu     sync.RWMutex
	global = zerolog.Nop()
)

// Setup installs the process logger. Unknown levels fall back to info.
func Setup(cfg Config) zerolog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	w := out
	if !cfg.JSON {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	l := zerolog.New(w).Level(level).With().Timestamp().Logger()

	mu.Lock()
	global = l
	mu.Unlock()

	l.Debug().Str("level", level.String()).Msg("logger.initialized")
	return l
}

// L returns the process logger; a no-op logger before Setup.
func L() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := global
	return &l
}

package util

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger. Debug mode lowers the level and adds
// a human-readable console writer on stderr; logFile, when set, receives the
// raw JSON stream.
func NewLogger(debug bool, logFile string) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	var writers []io.Writer
	if debug || logFile == "" {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			return zerolog.Nop(), err
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), err
		}
		writers = append(writers, f)
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().Logger(), nil
}

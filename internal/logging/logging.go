// Package logging configures the process-wide zerolog logger. The TUI
// owns stderr, so logs go to a file under the XDG state directory.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultLogPath resolves the log file location: $PREPT_LOG if set, else
// $XDG_STATE_HOME/prept/prept.log, else ~/.local/state/prept/prept.log.
func DefaultLogPath() (string, error) {
	if p := os.Getenv("PREPT_LOG"); p != "" {
		return p, nil
	}
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "prept", "prept.log"), nil
}

// New opens the log file and returns a logger writing to it. The caller
// closes the returned writer on shutdown. Level comes from PREPT_LOG_LEVEL
// (default info); an unopenable file degrades to a disabled logger rather
// than failing startup.
func New() (zerolog.Logger, io.Closer, error) {
	path, err := DefaultLogPath()
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("create log dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}

	logger := zerolog.New(f).Level(levelFromEnv()).With().Timestamp().Logger()
	return logger, f, nil
}

func levelFromEnv() zerolog.Level {
	switch strings.ToLower(os.Getenv("PREPT_LOG_LEVEL")) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

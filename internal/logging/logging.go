// Package logging sets up the slog logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
)

// LevelTrace sits below debug and carries per-tick classifier reasons.
const LevelTrace = slog.LevelDebug - 4

// MaxVerbosity is the highest accepted verbosity.
const MaxVerbosity = 4

// Config holds the logging configuration.
type Config struct {
	// Verbosity 0..4: errors, warnings, info, debug, trace.
	Verbosity int

	// FilePath receives the log. Empty means stderr.
	FilePath string

	// Session is attached to every record. Empty generates a new one.
	Session string
}

// LevelForVerbosity maps a 0..4 verbosity to a slog level. Values outside
// the range are clamped.
func LevelForVerbosity(v int) slog.Level {
	switch {
	case v <= 0:
		return slog.LevelError
	case v == 1:
		return slog.LevelWarn
	case v == 2:
		return slog.LevelInfo
	case v == 3:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

// NewSessionID returns a random id that ties the records of one run together.
func NewSessionID() string {
	return uuid.NewString()
}

// New builds a text logger. The returned closer releases the log file and
// is safe to call when logging to stderr.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	}

	session := cfg.Session
	if session == "" {
		session = NewSessionID()
	}
	return NewWithWriter(w, cfg.Verbosity).With("session", session), closer, nil
}

// NewWithWriter builds a text logger writing to w.
func NewWithWriter(w io.Writer, verbosity int) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: LevelForVerbosity(verbosity),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	})
	return slog.New(h)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// DefaultLogPath returns the platform log location.
func DefaultLogPath() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Logs", "awake", "awake.log")
	case "windows":
		appData := os.Getenv("LOCALAPPDATA")
		if appData == "" {
			appData = os.Getenv("APPDATA")
		}
		return filepath.Join(appData, "awake", "logs", "awake.log")
	default:
		stateHome := os.Getenv("XDG_STATE_HOME")
		if stateHome == "" {
			home, _ := os.UserHomeDir()
			stateHome = filepath.Join(home, ".local", "state")
		}
		return filepath.Join(stateHome, "awake", "awake.log")
	}
}

// ParseVerbosity accepts a number 0..4 or a level name.
func ParseVerbosity(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "error":
		return 0, nil
	case "1", "warn", "warning":
		return 1, nil
	case "2", "info":
		return 2, nil
	case "3", "debug":
		return 3, nil
	case "4", "trace":
		return 4, nil
	default:
		return 0, fmt.Errorf("unknown verbosity %q (want 0-4 or error, warn, info, debug, trace)", s)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

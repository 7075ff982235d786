// Package logger implements a logging adapter using log/slog.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
	"go.trai.ch/blitz/internal/core/domain"
	"go.trai.ch/blitz/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	_ ports.Logger  = (*Logger)(nil)
	_ ports.LogSink = (*Logger)(nil)
)

// Logger implements ports.Logger using log/slog.
//
// It always writes human-readable text to its terminal writer. Configure can fan
// records out to a JSON log file and the systemd journal as well.
type Logger struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	level    *slog.LevelVar
	terminal io.Writer
	file     *os.File
}

// New creates a Logger writing to stderr.
func New() *Logger {
	return NewWithWriter(os.Stderr)
}

// NewWithWriter creates a Logger writing text records to w.
func NewWithWriter(w io.Writer) *Logger {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	return &Logger{
		logger:   slog.New(newTextHandler(w, level)),
		level:    level,
		terminal: w,
	}
}

// SetOutput updates the terminal destination, dropping any configured fan-out.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.terminal = w
	l.logger = slog.New(newTextHandler(w, l.level))
}

// Configure applies the level and opens the extra destinations named by cfg.
// A journal that cannot be reached is reported as a warning, not an error.
func (l *Logger) Configure(cfg domain.LogConfig) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.level.Set(slog.Level(cfg.Level))

	terminal := newTextHandler(l.terminal, l.level)
	handlers := []slog.Handler{terminal}

	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o750); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to create log directory"), "path", cfg.File)
		}
		//nolint:gosec // path comes from trusted config
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to open log file"), "path", cfg.File)
		}
		l.file = f
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: l.level}))
	}

	if cfg.Journal {
		journal, err := slogjournal.NewHandler(&slogjournal.Options{
			Level: l.level,
			ReplaceGroup: func(key string) string {
				return toJournalKey(key)
			},
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				a.Key = toJournalKey(a.Key)
				return a
			},
		})
		if err != nil {
			slog.New(terminal).Warn("systemd journal unavailable", "error", err)
		} else {
			handlers = append(handlers, journal)
		}
	}

	l.logger = slog.New(slogmulti.Fanout(handlers...))
	return nil
}

// Close releases the log file opened by Configure, if any, and falls back to
// terminal output only.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	l.logger = slog.New(newTextHandler(l.terminal, l.level))
	err := l.file.Close()
	l.file = nil
	return err
}

// Debug logs a diagnostic message.
func (l *Logger) Debug(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Debug(msg)
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Warn(msg)
}

// Error logs an error message.
func (l *Logger) Error(err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Error("operation failed", "error", err)
}

func newTextHandler(w io.Writer, level slog.Leveler) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
}

// toJournalKey maps an attribute key to the upper-case form journald accepts.
func toJournalKey(str string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, strings.ToUpper(str))
}

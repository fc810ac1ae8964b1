// Package logging provides the leveled console logger used across
// streamline, backed by zerolog.
//
// Console lines keep the "2006-01-02 15:04:05 [LEVEL] text" shape; ERROR
// goes to stderr and everything else to stdout. When a log file is
// configured, every event is also written there as JSON carrying the run id.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/backmassage/streamline/internal/config"
	"github.com/backmassage/streamline/internal/term"
)

const consoleTimeFormat = "2006-01-02 15:04:05"

// Logger provides leveled, optionally colored logging with an optional
// JSON file sink.
type Logger struct {
	mu      sync.Mutex
	console zerolog.Logger
	file    *zerolog.Logger
	closer  io.Closer
	runID   string
}

// NewLogger configures colors from cfg and opens the log file, if any.
// Call Close when done.
func NewLogger(cfg *config.Config) (*Logger, error) {
	term.Configure(cfg.Logging.Color)
	return New(cfg.Logging, os.Stdout, os.Stderr)
}

// New builds a Logger writing console lines to stdout and stderr. Colors
// follow the current term configuration.
func New(lc config.Logging, stdout, stderr io.Writer) (*Logger, error) {
	l := &Logger{runID: uuid.NewString()}
	l.console = zerolog.New(splitWriter{
		out: newConsoleWriter(stdout),
		err: newConsoleWriter(stderr),
	}).Level(zerolog.DebugLevel).With().Timestamp().Logger()

	if lc.File != "" {
		if err := os.MkdirAll(filepath.Dir(lc.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(lc.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		fl := zerolog.New(f).Level(fileLevel(lc.Level)).With().
			Timestamp().
			Str("run", l.runID).
			Logger()
		l.file = &fl
		l.closer = f
	}
	return l, nil
}

func newConsoleWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:           w,
		NoColor:       true, // Level colors are applied to the message by line().
		TimeFormat:    consoleTimeFormat,
		PartsOrder:    []string{zerolog.TimestampFieldName, zerolog.MessageFieldName},
		FieldsExclude: []string{"tag", "run"},
	}
}

// splitWriter routes error-and-above events to err and the rest to out.
type splitWriter struct {
	out, err io.Writer
}

func (s splitWriter) Write(p []byte) (int, error) { return s.out.Write(p) }

func (s splitWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level >= zerolog.ErrorLevel {
		return s.err.Write(p)
	}
	return s.out.Write(p)
}

func fileLevel(lv config.LogLevel) zerolog.Level {
	switch lv {
	case config.LogDebug:
		return zerolog.DebugLevel
	case config.LogWarn:
		return zerolog.WarnLevel
	case config.LogError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// RunID identifies this process's run in the log file and webhook payload.
func (l *Logger) RunID() string { return l.runID }

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closer != nil {
		err := l.closer.Close()
		l.closer = nil
		l.file = nil
		return err
	}
	return nil
}

func (l *Logger) line(level zerolog.Level, tag, color, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.console.WithLevel(level).Msg(color + "[" + tag + "]" + term.NC + " " + text)
	if l.file != nil {
		l.file.WithLevel(level).Str("tag", tag).Msg(text)
	}
}

// Info logs at INFO level (blue).
func (l *Logger) Info(format string, args ...any) {
	l.line(zerolog.InfoLevel, "INFO", term.Blue, fmt.Sprintf(format, args...))
}

// Success logs at SUCCESS level (green).
func (l *Logger) Success(format string, args ...any) {
	l.line(zerolog.InfoLevel, "SUCCESS", term.Green, fmt.Sprintf(format, args...))
}

// Warn logs at WARN level (yellow).
func (l *Logger) Warn(format string, args ...any) {
	l.line(zerolog.WarnLevel, "WARN", term.Yellow, fmt.Sprintf(format, args...))
}

// Error logs at ERROR level (red), to stderr.
func (l *Logger) Error(format string, args ...any) {
	l.line(zerolog.ErrorLevel, "ERROR", term.Red, fmt.Sprintf(format, args...))
}

// Dry logs a dry-run action (magenta).
func (l *Logger) Dry(format string, args ...any) {
	l.line(zerolog.InfoLevel, "DRY", term.Magenta, fmt.Sprintf(format, args...))
}

// Debug logs at DEBUG level (cyan) only when verbose; no-op otherwise.
func (l *Logger) Debug(verbose bool, format string, args ...any) {
	if !verbose {
		return
	}
	l.line(zerolog.DebugLevel, "DEBUG", term.Cyan, fmt.Sprintf(format, args...))
}

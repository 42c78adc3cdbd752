// Package log builds the structured loggers used by the command line tools.
// Records always go to a console writer and can also be copied to a log
// file, each destination with its own handler.
package log

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

var ErrInvalidConfig = errors.New("invalid log configuration")

// Log file formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config configures a logger
type Config struct {
	// Minimum level: debug, info, warn or error
	Level string
	// Path of the log file. Empty disables file logging
	File string
	// Format of the log file: text or json
	Format string
	// Console writer (default: os.Stderr)
	Console io.Writer
}

// Logger is a slog logger that may own a log file
type Logger struct {
	*slog.Logger

	file *os.File
}

// Close closes the log file, if any
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}

	err := l.file.Close()
	l.file = nil
	return err
}

// ParseLevel parses a level name (case insensitive)
func ParseLevel(level string) (slog.Level, error) {
	var result slog.Level

	if strings.TrimSpace(level) == "" {
		return slog.LevelInfo, nil
	}

	if err := result.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return result, nil
}

func newHandler(w io.Writer, format string, opts *slog.HandlerOptions) (slog.Handler, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return slog.NewTextHandler(w, opts), nil
	case FormatJSON:
		return slog.NewJSONHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("%w: unknown log format '%v'", ErrInvalidConfig, format)
	}
}

// New creates a logger from the given config. The caller must Close() it.
func New(config Config) (*Logger, error) {
	level, err := ParseLevel(config.Level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}

	console := config.Console
	if console == nil {
		console = os.Stderr
	}

	handlers := []slog.Handler{slog.NewTextHandler(console, opts)}
	logger := &Logger{}

	if config.File != "" {
		file, err := os.OpenFile(config.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}

		fileHandler, err := newHandler(file, config.Format, opts)
		if err != nil {
			file.Close()
			return nil, err
		}

		handlers = append(handlers, fileHandler)
		logger.file = file
	} else if _, err := newHandler(io.Discard, config.Format, opts); err != nil {
		return nil, err
	}

	logger.Logger = slog.New(slogmulti.Fanout(handlers...))
	return logger, nil
}

// Discard returns a logger that drops every record
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/lmittmann/tint"
)

// LogOptions configures the process-wide logger.
type LogOptions struct {
	// Writer defaults to os.Stdout.
	Writer io.Writer
	Level  string
	JSON   bool

	FluentEnabled bool
	FluentHost    string
	FluentPort    int
	FluentTag     string
}

// InitLogger installs the default slog logger used by Info, Warn, Error and friends.
// The returned func flushes and closes the Fluent Bit client when one was opened.
func InitLogger(opts LogOptions) (func(), error) {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	level := ParseLevel(opts.Level)

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(opts.Writer, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(opts.Writer, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
		})
	}

	closeFn := func() {}
	if opts.FluentEnabled {
		client, err := fluent.New(fluent.Config{
			FluentHost: opts.FluentHost,
			FluentPort: opts.FluentPort,
			TagPrefix:  opts.FluentTag,
		})
		if err != nil {
			return closeFn, fmt.Errorf("could not create fluent client: %w", err)
		}
		handler = NewFanoutHandler(handler, NewFluentHandler(client, level))
		closeFn = func() { _ = client.Close() }
	}

	slog.SetDefault(slog.New(handler))
	return closeFn, nil
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Debug(format string, a ...interface{}) {
	slog.Debug(fmt.Sprintf(format, a...))
}

func Info(format string, a ...interface{}) {
	slog.Info(fmt.Sprintf(format, a...))
}

// Success is an info record tagged status=ok so finished steps stand out in the stream.
func Success(format string, a ...interface{}) {
	slog.Info(fmt.Sprintf(format, a...), "status", "ok")
}

func Warn(format string, a ...interface{}) {
	slog.Warn(fmt.Sprintf(format, a...))
}

func Error(format string, a ...interface{}) {
	slog.Error(fmt.Sprintf(format, a...))
}

func Section(title string) {
	slog.Info("══════════ " + title + " ══════════")
}

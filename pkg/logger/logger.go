package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Leveled logger shared by the API process.
// Init(level, json) picks the level and output format; the printf-style
// helpers and the structured Info/Warn/Error helpers all write through slog.

var (
	mu     sync.RWMutex
	level  = new(slog.LevelVar)
	base   = newLogger(os.Stdout, false)
	asJSON bool
)

func newLogger(w io.Writer, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if json {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(NewTraceHandler(h))
}

// Init sets the global log level (case-insensitive: debug, info, warn, error)
// and switches to JSON output when json is true. Default level is Info.
func Init(l string, json bool) {
	level.Set(parseLevel(l))
	mu.Lock()
	defer mu.Unlock()
	asJSON = json
	base = newLogger(os.Stdout, json)
	slog.SetDefault(base)
}

// SetOutput redirects log output, keeping level and format.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base = newLogger(w, asJSON)
}

func parseLevel(l string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(l)) {
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

// L returns the underlying structured logger.
func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func Debugf(format string, v ...interface{}) { L().Debug(fmt.Sprintf(format, v...)) }
func Infof(format string, v ...interface{})  { L().Info(fmt.Sprintf(format, v...)) }
func Warnf(format string, v ...interface{})  { L().Warn(fmt.Sprintf(format, v...)) }
func Errorf(format string, v ...interface{}) { L().Error(fmt.Sprintf(format, v...)) }

func Fatalf(format string, v ...interface{}) {
	L().Error(fmt.Sprintf(format, v...), "fatal", true)
	os.Exit(1)
}

func Info(msg string, args ...any)  { L().Info(msg, args...) }
func Warn(msg string, args ...any)  { L().Warn(msg, args...) }
func Error(msg string, args ...any) { L().Error(msg, args...) }

// InfoContext logs with ctx so trace ids are attached.
func InfoContext(ctx context.Context, msg string, args ...any) { L().InfoContext(ctx, msg, args...) }

func ErrorContext(ctx context.Context, msg string, args ...any) {
	L().ErrorContext(ctx, msg, args...)
}

// LevelString returns the current level as text.
func LevelString() string {
	switch level.Level() {
	case slog.LevelDebug:
		return "debug"
	case slog.LevelWarn:
		return "warn"
	case slog.LevelError:
		return "error"
	}
	return "info"
}

package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Leveled logger used across the service, writing JSON lines via zerolog.
// Provides Debug/Info/Warn/Error/Fatal variants and Init(level).

var (
	mu     sync.RWMutex
	logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	level  = zerolog.InfoLevel
)

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Call early during startup. Default level is Info.
func Init(l string) {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn", "warning":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	case "fatal":
		level = zerolog.FatalLevel
	default:
		level = zerolog.InfoLevel
	}
}

// event returns nil when lvl is filtered out; zerolog events are nil-safe.
func event(lvl zerolog.Level) *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	if lvl < level {
		return nil
	}
	return logger.WithLevel(lvl)
}

func Debugf(format string, v ...interface{}) { event(zerolog.DebugLevel).Msgf(format, v...) }
func Infof(format string, v ...interface{})  { event(zerolog.InfoLevel).Msgf(format, v...) }
func Warnf(format string, v ...interface{})  { event(zerolog.WarnLevel).Msgf(format, v...) }
func Errorf(format string, v ...interface{}) { event(zerolog.ErrorLevel).Msgf(format, v...) }

func Fatalf(format string, v ...interface{}) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	l.WithLevel(zerolog.FatalLevel).Msgf(format, v...)
	os.Exit(1)
}

// Request logs one structured line per HTTP request.
func Request(method, path string, status int, latencyMs float64, clientIP string) {
	lvl := zerolog.InfoLevel
	if status >= 500 {
		lvl = zerolog.ErrorLevel
	}
	event(lvl).
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Float64("latency_ms", latencyMs).
		Str("client_ip", clientIP).
		Msg("request")
}

// LevelString returns the current level as text.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	if level == zerolog.FatalLevel {
		return "fatal"
	}
	return level.String()
}

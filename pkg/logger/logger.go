package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Leveled logger used by the panel services.
// - package-level Debugf/Infof/Warnf/Errorf/Fatalf helpers backed by zap
// - L() returns the structured *zap.Logger for field-based logging

var (
	mu     sync.RWMutex
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	logger = build(zapcore.Lock(os.Stdout), false)
)

func build(w zapcore.WriteSyncer, production bool) *zap.Logger {
	var enc zapcore.Encoder
	if production {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(cfg)
	}
	return zap.New(zapcore.NewCore(enc, w, level), zap.AddCaller(), zap.AddCallerSkip(1))
}

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Call early during startup. Default level is Info.
func Init(l string) {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		level.SetLevel(zapcore.DebugLevel)
	case "warn", "warning":
		level.SetLevel(zapcore.WarnLevel)
	case "error":
		level.SetLevel(zapcore.ErrorLevel)
	case "fatal":
		level.SetLevel(zapcore.FatalLevel)
	default:
		level.SetLevel(zapcore.InfoLevel)
	}
}

// Configure switches the encoder: JSON for production, console otherwise.
func Configure(environment string) {
	l := build(zapcore.Lock(os.Stdout), environment == "production")
	mu.Lock()
	logger = l
	mu.Unlock()
}

// Use replaces the underlying logger and returns a func restoring the previous one.
// Level filtering still applies to the package-level helpers.
func Use(l *zap.Logger) (restore func()) {
	mu.Lock()
	prev := logger
	logger = l
	mu.Unlock()
	return func() {
		mu.Lock()
		logger = prev
		mu.Unlock()
	}
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// L returns the structured logger.
func L() *zap.Logger {
	return current().WithOptions(zap.AddCallerSkip(-1))
}

func sugar() *zap.SugaredLogger {
	return current().Sugar()
}

func Debugf(format string, v ...interface{}) {
	if !level.Enabled(zapcore.DebugLevel) {
		return
	}
	sugar().Debugf(format, v...)
}

func Infof(format string, v ...interface{}) {
	if !level.Enabled(zapcore.InfoLevel) {
		return
	}
	sugar().Infof(format, v...)
}

func Warnf(format string, v ...interface{}) {
	if !level.Enabled(zapcore.WarnLevel) {
		return
	}
	sugar().Warnf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	if !level.Enabled(zapcore.ErrorLevel) {
		return
	}
	sugar().Errorf(format, v...)
}

func Fatalf(format string, v ...interface{}) {
	sugar().Errorf(format, v...)
	_ = L().Sync()
	os.Exit(1)
}

func Debug(v string) { Debugf("%s", v) }
func Info(v string)  { Infof("%s", v) }
func Warn(v string)  { Warnf("%s", v) }
func Error(v string) { Errorf("%s", v) }

// Sync flushes buffered entries.
func Sync() {
	_ = L().Sync()
}

// LevelString returns the current level as text.
func LevelString() string {
	switch level.Level() {
	case zapcore.DebugLevel:
		return "debug"
	case zapcore.InfoLevel:
		return "info"
	case zapcore.WarnLevel:
		return "warn"
	case zapcore.ErrorLevel:
		return "error"
	case zapcore.FatalLevel:
		return "fatal"
	}
	return "info"
}

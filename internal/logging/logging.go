// Package logging provides the runtime's process-wide structured logger.
//
// It keeps the convenience-function shape of a file-scoped bot logger
// (global instance, package-level Debug/Info/Warn/Error wrappers) but backs
// it with zap instead of the stdlib log package, so every subsystem gets
// leveled, structured fields instead of printf-formatted lines.
package logging

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	global   *zap.SugaredLogger
	globalMu sync.RWMutex
)

// Options configures the global logger.
type Options struct {
	// FilePath is the log file to write to. Empty disables file output.
	FilePath string
	// Level is the minimum level that reaches any sink.
	Level zapcore.Level
	// Console, when true, also writes to stderr.
	Console bool
}

// DefaultOptions mirrors debug.go's Debug.log-on-startup convention:
// truncated file in the working directory, DEBUG and above, no console.
func DefaultOptions() Options {
	return Options{
		FilePath: "bot.log",
		Level:    zapcore.DebugLevel,
		Console:  false,
	}
}

// Init builds and installs the global logger. Safe to call once at startup;
// a second call replaces the previous logger (used by tests).
func Init(opts Options) error {
	var cores []zapcore.Core

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encCfg)

	if opts.FilePath != "" {
		f, err := os.OpenFile(opts.FilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o666)
		if err != nil {
			return fmt.Errorf("logging: open %s: %w", opts.FilePath, err)
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(f), opts.Level))
	}
	if opts.Console || len(cores) == 0 {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.AddSync(os.Stderr),
			opts.Level,
		))
	}

	core := zapcore.NewTee(cores...)
	logger := zap.New(core).Sugar()

	globalMu.Lock()
	global = logger
	globalMu.Unlock()

	Info("logger initialized", "file", opts.FilePath, "level", opts.Level.String())
	return nil
}

// Sync flushes any buffered log entries. Call on shutdown.
func Sync() {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if global != nil {
		_ = global.Sync()
	}
}

func get() *zap.SugaredLogger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if global == nil {
		return zap.NewNop().Sugar()
	}
	return global
}

// Debug logs a debug-level message with structured key/value pairs.
func Debug(msg string, kv ...interface{}) { get().Debugw(msg, kv...) }

// Info logs an info-level message with structured key/value pairs.
func Info(msg string, kv ...interface{}) { get().Infow(msg, kv...) }

// Warn logs a warn-level message with structured key/value pairs.
func Warn(msg string, kv ...interface{}) { get().Warnw(msg, kv...) }

// Error logs an error-level message with structured key/value pairs.
func Error(msg string, kv ...interface{}) { get().Errorw(msg, kv...) }

// Package logger wraps zap for structured logging.
package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log     *zap.Logger
	once    sync.Once
	mu      sync.Mutex
	logFile = "" // No log file unless configured
	level   = zap.NewAtomicLevelAt(zap.WarnLevel)
)

// InitLogger initializes the Zap logger with structured logging.
// Console output goes to stderr so stdout stays free for reports.
func InitLogger() {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()

		// Configure console logging
		consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		consoleCore := zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), level)

		core := consoleCore
		if logFile != "" {
			// Configure file logging
			fileEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
			if file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666); err == nil {
				fileCore := zapcore.NewCore(fileEncoder, zapcore.AddSync(file), level)
				core = zapcore.NewTee(consoleCore, fileCore)
			}
		}

		log = zap.New(core, zap.AddCaller())
	})
}

// GetLogger provides access to the initialized logger.
func GetLogger() *zap.Logger {
	InitLogger()
	return log
}

// SetLogPath sets the JSON log file. It takes effect on the next initialization.
func SetLogPath(path string) {
	mu.Lock()
	defer mu.Unlock()
	logFile = path
}

// SetLevel changes the minimum enabled level, e.g. "debug", "info", "warn".
func SetLevel(name string) error {
	lvl, err := zapcore.ParseLevel(name)
	if err != nil {
		return err
	}
	level.SetLevel(lvl)
	return nil
}

// ResetLogger discards the current logger so the next call re-initializes it.
func ResetLogger() {
	Sync()
	mu.Lock()
	defer mu.Unlock()
	log = nil
	once = sync.Once{}
}

// Sync ensures buffered logs are written before the application exits.
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}

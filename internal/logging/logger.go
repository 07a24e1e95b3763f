package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevelEnvVar selects a level when none is passed to Initialize.
// Unset means silent.
const LogLevelEnvVar = "V4LCTL_LOG_LEVEL"

var logger *zap.Logger

// Initialize installs the process-wide logger. An empty level falls back to
// V4LCTL_LOG_LEVEL, and if that is empty too every call becomes a no-op.
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}
	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeCaller = zapcore.ShortCallerEncoder

	built, err := zap.Config{
		Level:            zap.NewAtomicLevelAt(ParseLevel(level)),
		Encoding:         "console",
		EncoderConfig:    enc,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = built
	return nil
}

// ParseLevel accepts zap level names case-insensitively. Anything it does not
// recognise means info: a level was asked for, so something should be logged.
func ParseLevel(level string) zapcore.Level {
	l, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || l > zapcore.ErrorLevel {
		return zapcore.InfoLevel
	}
	return l
}

// GetLogger returns the process-wide logger, a no-op one before Initialize.
func GetLogger() *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

// Named returns a child logger for components that take a *zap.Logger.
func Named(name string) *zap.Logger {
	return GetLogger().Named(name)
}

func Debug(msg string, fields ...zap.Field) { GetLogger().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { GetLogger().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { GetLogger().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { GetLogger().Error(msg, fields...) }

// LogRequest records an inbound HTTP request.
func LogRequest(requestID, remoteAddr, method, path string) {
	Info("API request received",
		zap.String("request_id", requestID),
		zap.String("remote_addr", remoteAddr),
		zap.String("method", method),
		zap.String("path", path))
}

func LogResponse(requestID string, statusCode int) {
	Debug("API response sent", zap.String("request_id", requestID), zap.Int("status_code", statusCode))
}

// LogConnection records a watcher attaching to or leaving the change feed.
func LogConnection(remoteAddr, event string) {
	Info("Watcher "+event, zap.String("remote_addr", remoteAddr))
}

// Sync flushes buffered entries. Call it before exit.
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}

// Package logging provides structured logging for the v4lctl bridge.
//
// This package wraps a zap logger with convenience functions for the logging
// patterns used by the daemon and the operator utility. Components that own
// a logger (the command executor, the engine) receive a *zap.Logger derived
// from this package via Named; transport code logs through the package-level
// helpers.
//
// # Log Levels
//
//   - Debug: parsed tool output, API responses, websocket frames
//   - Info: every v4lctl invocation, API requests, startup and shutdown
//   - Warn: failed reads and writes, persistence problems
//   - Error: listener and transport failures
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// When no level is given and V4LCTL_LOG_LEVEL is unset the logger is a no-op,
// which keeps the CLI output clean.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use.
package logging

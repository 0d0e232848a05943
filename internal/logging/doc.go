// Package logging provides structured logging for the dp publisher.
//
// This package wraps a zap logger with package-level convenience functions so
// that every component (SSDP publisher, address monitor, description server,
// supervisor) logs through the same configured core.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Wire dumps of SSDP datagrams
//   - Info: Lifecycle events (listening, published, address changed, withdrawn)
//     and the rendered description document on each change
//   - Warn: Transient failures (send errors, resolution errors)
//   - Error: Startup failures and unexpected conditions
//
// # Structured Logging
//
// All log functions use structured fields:
//
//	logging.Info("IP address changed",
//	    zap.String("from", "10.0.0.5"),
//	    zap.String("to", "10.0.0.9"),
//	)
//
// # Specialized Logging
//
//	logging.LogSSDPMessage("sent", "239.255.255.250:1900", datagram)
//	logging.LogHTTPRequest(remoteAddr, method, path, status)
//	logging.LogRawBytes("description document", body)
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.Initialize("info"); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// When no level is given, DP_LOG_LEVEL is consulted. An uninitialized logger
// is a no-op, which keeps tests and one-shot commands quiet.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use.
package logging

// Package logging provides structured logging for lync2mqtt.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the bridge.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text, auto
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("controller connected", "address", cfg.Lync.Address())
//	logger.Error("write failed", "zone", 3, "error", err)
//
// Never log broker passwords; use config.Config.Redacted when dumping configuration.
package logging

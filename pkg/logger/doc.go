// Package logger provides a structured logging interface for walldl.
//
// It wraps zerolog with a small interface:
//   - levels Debug, Info, Warn and Error
//   - child loggers carrying fields (WithField, WithFields, WithError)
//   - console output, coloured only on a terminal
//   - optional JSON file output next to the console
//   - a global logger configured once from the CLI and released by Shutdown
//
// Basic Usage:
//
//	err := logger.Initialize(&config.LoggingConfig{Level: "info", File: "walldl.log"})
//	defer logger.Shutdown()
//
//	log := logger.GetLogger()
//	log.Info("walldl starting")
//	log.WithField("category", "Nature").Info("enqueued 12 download jobs")
//
// Components receive a Logger explicitly and derive per-job loggers:
//
//	log := base.WithFields(map[string]interface{}{
//	    "category": "Nature",
//	    "asset":    "Forest Path",
//	})
//	log.Debug("already downloaded")
//
// Tests use NewNopLogger or NewTestLogger, which records messages for
// assertions.
package logger

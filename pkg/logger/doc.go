// Package logger provides structured logging for pixgallery on top of zerolog.
//
// A process-wide logger is configured once with Initialize and fetched with
// GetLogger. Components derive sub-loggers with WithField/WithFields, e.g.
//
//	log := logger.GetLogger().WithField("component", "pixabay")
//	log.InfoWithFields("search completed", map[string]interface{}{
//	    "query": "yellow flowers",
//	    "page":  2,
//	})
//
// While the terminal UI owns the screen, console output must not be written.
// Set LoggingConfig.Quiet and (optionally) LoggingConfig.File so records only
// reach the log file.
//
// Tests use NewTestLogger to capture records or NewNopLogger to drop them.
package logger

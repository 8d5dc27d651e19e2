package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs a finished HTTP round trip at a level matching its status.
func LogRequest(l Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	switch {
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("HTTP request client error", fields)
	default:
		l.DebugWithFields("HTTP request completed", fields)
	}
}

// LogDownload logs the outcome of saving one image.
func LogDownload(l Logger, imageID int, path string, skipped bool, err error) {
	entry := l.WithFields(map[string]interface{}{
		"image_id": imageID,
		"path":     path,
	})

	switch {
	case err != nil:
		entry.WithError(err).Error("Download failed")
	case skipped:
		entry.Debug("Download skipped, already on disk")
	default:
		entry.Info("Download completed")
	}
}

// LogRateLimit logs that a caller is about to block on the limiter.
func LogRateLimit(l Logger, remaining int, window time.Duration) {
	l.WithFields(map[string]interface{}{
		"remaining": remaining,
		"window":    window,
		"action":    "rate_limited",
	}).Warn("Rate limit reached, waiting for the window to slide")
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, settings map[string]interface{}) {
	l.WithField("component", component).InfoWithFields("Component started", settings)
}

// LogComponentStop logs when a component stops
func LogComponentStop(l Logger, component string, reason string) {
	l.WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a logger that drops everything
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(string)                                  {}
func (n *nopLogger) Info(string)                                   {}
func (n *nopLogger) Warn(string)                                   {}
func (n *nopLogger) Error(string)                                  {}
func (n *nopLogger) Fatal(string)                                  {}
func (n *nopLogger) WithField(string, interface{}) Logger          { return n }
func (n *nopLogger) WithFields(map[string]interface{}) Logger      { return n }
func (n *nopLogger) WithError(error) Logger                        { return n }
func (n *nopLogger) WithContext(context.Context) Logger            { return n }
func (n *nopLogger) DebugWithFields(string, map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(string, map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(string, map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(string, map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(string, map[string]interface{}) {}

func (n *nopLogger) GetZerolog() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

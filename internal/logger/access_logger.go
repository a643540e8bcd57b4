package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AccessLogger records one line per inbound HTTP request.
type AccessLogger struct {
	logrus.FieldLogger
}

// NewAccessLogger creates a new access logger.
func NewAccessLogger(base logrus.FieldLogger) *AccessLogger {
	return &AccessLogger{
		FieldLogger: base.WithField("component", "http"),
	}
}

// AccessEntry describes a served request.
type AccessEntry struct {
	RequestID string
	Method    string
	Path      string
	Status    int
	Bytes     int
	Latency   time.Duration
	Remote    string
	UserAgent string
}

// LogRequest logs a served request. Server errors log at error level.
func (al *AccessLogger) LogRequest(e AccessEntry) {
	entry := al.WithFields(logrus.Fields{
		"request_id": e.RequestID,
		"method":     e.Method,
		"path":       e.Path,
		"status":     e.Status,
		"bytes":      e.Bytes,
		"latency_ms": float64(e.Latency.Microseconds()) / 1000,
		"remote":     e.Remote,
		"user_agent": e.UserAgent,
	})

	switch {
	case e.Status >= 500:
		entry.Error("Request failed")
	case e.Status >= 400:
		entry.Warn("Request rejected")
	default:
		entry.Info("Request served")
	}
}

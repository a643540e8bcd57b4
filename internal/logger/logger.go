// Package logger provides a wrapper around logrus for structured logging.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a new configured logger instance
func NewLogger(logLevel, environment string) *logrus.Logger {
	return newLogger(os.Stdout, logLevel, environment)
}

func newLogger(out io.Writer, logLevel, environment string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	// Use JSON formatter for structured logging in production
	if environment == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	// Parse and set log level
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logger.Warnf("Invalid log level '%s', defaulting to info", logLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

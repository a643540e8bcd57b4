package logger

import (
	"github.com/sirupsen/logrus"
)

// PredictionLogger provides dedicated logging for prediction rounds.
type PredictionLogger struct {
	logrus.FieldLogger
}

// NewPredictionLogger creates a new prediction logger.
func NewPredictionLogger(base logrus.FieldLogger) *PredictionLogger {
	return &PredictionLogger{
		FieldLogger: base.WithField("component", "prediction"),
	}
}

// LogPredictionIssued logs a completed prediction.
func (pl *PredictionLogger) LogPredictionIssued(session, nextSession int64, prediction, confidence string, historyLength int) {
	pl.WithFields(logrus.Fields{
		"session":        session,
		"next_session":   nextSession,
		"prediction":     prediction,
		"confidence":     confidence,
		"history_length": historyLength,
	}).Info("Prediction issued")
}

// LogUnrecognizedOutcome logs a latest session whose result label is unknown.
func (pl *PredictionLogger) LogUnrecognizedOutcome(session int64, raw string) {
	pl.WithFields(logrus.Fields{
		"session": session,
		"result":  raw,
	}).Warn("Latest session has no recognizable outcome, history unchanged")
}

// LogPersistenceFailure logs a history write that did not reach the backend.
func (pl *PredictionLogger) LogPersistenceFailure(session int64, backend string, err error) {
	pl.WithFields(logrus.Fields{
		"session": session,
		"backend": backend,
	}).WithError(err).Error("Failed to persist history, continuing with in-memory state")
}

// LogSourceFailure logs a failed upstream fetch.
func (pl *PredictionLogger) LogSourceFailure(source, kind string, err error) {
	pl.WithFields(logrus.Fields{
		"source": source,
		"kind":   kind,
	}).WithError(err).Error("Prediction failed")
}

// Package scheduler polls the upstream source in the background so history
// keeps growing without inbound traffic.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/taixiu-ai/internal/models"
)

// MinIntervalSeconds is the shortest accepted polling interval.
const MinIntervalSeconds = 5

// Predictor runs one prediction round.
type Predictor interface {
	Predict(ctx context.Context) (*models.PredictionReport, error)
}

// Scheduler manages the polling job
type Scheduler struct {
	cron            *cron.Cron
	predictor       Predictor
	logger          logrus.FieldLogger
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	jobTimeout      time.Duration
	gracefulTimeout time.Duration
}

// NewScheduler creates a new scheduler
func NewScheduler(predictor Predictor, logger logrus.FieldLogger) *Scheduler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger = logger.WithField("component", "scheduler")

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})),
		),
		predictor:       predictor,
		logger:          logger,
		jobIDs:          make([]cron.EntryID, 0),
		gracefulTimeout: 30 * time.Second,
	}
}

// SchedulePolling runs Predict every intervalSeconds, clamped to MinIntervalSeconds.
func (s *Scheduler) SchedulePolling(intervalSeconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	if intervalSeconds < MinIntervalSeconds {
		intervalSeconds = MinIntervalSeconds
	}
	s.jobTimeout = time.Duration(intervalSeconds-1) * time.Second

	entryID, err := s.cron.AddFunc(fmt.Sprintf("@every %ds", intervalSeconds), func() {
		_ = s.RunOnce(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("interval_seconds", intervalSeconds).Info("Scheduled upstream polling")

	return nil
}

// RunOnce performs a single polling round within the job timeout.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.mu.RLock()
	timeout := s.jobTimeout
	s.mu.RUnlock()
	if timeout <= 0 {
		timeout = time.Duration(MinIntervalSeconds-1) * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	report, err := s.predictor.Predict(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Scheduled prediction failed")
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"session":      report.Session,
		"next_session": report.NextSession,
		"prediction":   report.Prediction,
	}).Debug("Scheduled prediction completed")
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop waits for a running job to finish, up to the graceful timeout.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-time.After(s.gracefulTimeout):
		return fmt.Errorf("scheduler did not stop within %s", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			if nextRun.IsZero() || entry.Next.Before(nextRun) {
				nextRun = entry.Next
			}
		}
	}

	return nextRun
}

// cronLogger adapts logrus to cron.Logger
type cronLogger struct {
	logger logrus.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(toFields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(toFields(keysAndValues)).WithError(err).Error(msg)
}

func toFields(keysAndValues []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if k, ok := keysAndValues[i].(string); ok {
			f[k] = keysAndValues[i+1]
		}
	}
	return f
}

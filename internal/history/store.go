// Package history owns the bounded rolling window of past outcomes and its
// durable persistence.
package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/taixiu-ai/internal/metrics"
	"github.com/yourusername/taixiu-ai/internal/models"
)

// DefaultCapacity is the number of outcomes kept.
const DefaultCapacity = 20

// Backend stores the encoded history document.
type Backend interface {
	// Name identifies the backend in logs and metrics.
	Name() string
	// Load returns the stored document or ErrStateNotFound.
	Load(ctx context.Context) ([]byte, error)
	// Save replaces the stored document.
	Save(ctx context.Context, data []byte) error
}

// Pinger is implemented by backends that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store is the single writer of the rolling history. Append and Reset hold
// the lock across the in-memory update and the durable write so concurrent
// callers never lose an update or truncate against a stale snapshot.
type Store struct {
	mu          sync.Mutex
	backend     Backend
	capacity    int
	history     []models.Outcome
	lastUpdated int64
	logger      logrus.FieldLogger
	now         func() time.Time
}

// NewStore creates an empty store. Call Load to restore persisted state.
func NewStore(backend Backend, capacity int, logger logrus.FieldLogger) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Store{
		backend:  backend,
		capacity: capacity,
		history:  []models.Outcome{},
		logger:   logger.WithField("component", "history"),
		now:      time.Now,
	}
}

// AppendBounded returns history with o appended, keeping only the last
// capacity entries. Unknown outcomes leave history unchanged. The input slice
// is never modified.
func AppendBounded(history []models.Outcome, o models.Outcome, capacity int) []models.Outcome {
	out := make([]models.Outcome, 0, len(history)+1)
	out = append(out, history...)
	if !o.Valid() {
		return out
	}
	out = append(out, o)
	if capacity > 0 && len(out) > capacity {
		out = out[len(out)-capacity:]
	}
	return out
}

// Capacity returns the maximum history length.
func (s *Store) Capacity() int {
	return s.capacity
}

// BackendName returns the configured backend's name.
func (s *Store) BackendName() string {
	return s.backend.Name()
}

// Load restores persisted state. Missing or corrupt state is not fatal: the
// store falls back to an empty history and the problem is logged.
func (s *Store) Load(ctx context.Context) models.HistorySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.logger.WithField("backend", s.backend.Name())

	data, err := s.backend.Load(ctx)
	switch {
	case errors.Is(err, ErrStateNotFound):
		log.Info("No persisted history, starting empty")
		s.setLocked(nil, 0)
		return s.snapshotLocked()
	case err != nil:
		log.WithError(err).Warn("Failed to read persisted history, starting empty")
		metrics.RecordHistoryReadFailure(s.backend.Name())
		s.setLocked(nil, 0)
		return s.snapshotLocked()
	}

	snap, err := decodeState(data, s.capacity)
	if err != nil {
		log.WithError(err).Warn("Persisted history is malformed, starting empty")
		metrics.RecordHistoryReadFailure(s.backend.Name())
		s.setLocked(nil, 0)
		return s.snapshotLocked()
	}

	s.setLocked(snap.History, snap.LastUpdated)
	log.WithField("length", len(s.history)).Info("History restored")
	return s.snapshotLocked()
}

// Append pushes o and persists the result. Unknown outcomes are a no-op. A
// failed durable write returns ErrPersistenceWrite together with the updated
// in-memory snapshot.
func (s *Store) Append(ctx context.Context, o models.Outcome) (models.HistorySnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !o.Valid() {
		return s.snapshotLocked(), nil
	}

	s.setLocked(AppendBounded(s.history, o, s.capacity), s.now().UnixMilli())
	snap := s.snapshotLocked()
	return snap, s.persistLocked(ctx, snap)
}

// Reset clears the history and persists the empty state.
func (s *Store) Reset(ctx context.Context) (models.HistorySnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setLocked(nil, s.now().UnixMilli())
	snap := s.snapshotLocked()
	return snap, s.persistLocked(ctx, snap)
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() models.HistorySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Ping checks the backend when it supports it.
func (s *Store) Ping(ctx context.Context) error {
	if p, ok := s.backend.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *Store) setLocked(history []models.Outcome, lastUpdated int64) {
	if history == nil {
		history = []models.Outcome{}
	}
	s.history = history
	s.lastUpdated = lastUpdated
	metrics.UpdateHistoryLength(len(history))
}

func (s *Store) snapshotLocked() models.HistorySnapshot {
	cp := make([]models.Outcome, len(s.history))
	copy(cp, s.history)
	return models.HistorySnapshot{History: cp, LastUpdated: s.lastUpdated}
}

func (s *Store) persistLocked(ctx context.Context, snap models.HistorySnapshot) error {
	data, err := encodeState(snap)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrPersistenceWrite, err)
	}
	if err := s.backend.Save(ctx, data); err != nil {
		metrics.RecordHistoryWriteFailure(s.backend.Name())
		return fmt.Errorf("%w: %s: %v", ErrPersistenceWrite, s.backend.Name(), err)
	}
	return nil
}

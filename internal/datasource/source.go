package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/taixiu-ai/internal/metrics"
	"github.com/yourusername/taixiu-ai/internal/models"
)

const maxPayloadBytes = 4 << 20

// SessionSource returns the upstream session records, newest or not, in upstream order.
type SessionSource interface {
	FetchSessions(ctx context.Context) ([]models.Session, error)
	Name() string
}

// HTTPSource fetches the session list from a JSON endpoint.
type HTTPSource struct {
	client  *RateLimitedHTTPClient
	name    string
	url     string
	timeout time.Duration
	logger  logrus.FieldLogger
}

// NewHTTPSource creates a session source. A zero timeout uses the client default.
func NewHTTPSource(client *RateLimitedHTTPClient, name, url string, timeout time.Duration, logger logrus.FieldLogger) *HTTPSource {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if timeout <= 0 {
		timeout = DefaultHTTPClientConfig().Timeout
	}
	return &HTTPSource{
		client:  client,
		name:    name,
		url:     url,
		timeout: timeout,
		logger:  logger.WithField("source", name),
	}
}

// Name returns the name of the data source
func (s *HTTPSource) Name() string {
	return s.name
}

// FetchSessions performs one bounded GET and decodes {"list": [...]}.
func (s *HTTPSource) FetchSessions(ctx context.Context) ([]models.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	sessions, err := s.fetch(ctx)
	elapsed := time.Since(start).Seconds()

	status := "ok"
	var dsErr *DataSourceError
	if errors.As(err, &dsErr) {
		status = dsErr.Code
	}
	metrics.RecordSourceFetch(status, elapsed)

	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"url":     s.url,
			"status":  status,
			"elapsed": elapsed,
		}).WithError(err).Warn("Session fetch failed")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"sessions": len(sessions),
		"elapsed":  elapsed,
	}).Debug("Fetched sessions")
	return sessions, nil
}

func (s *HTTPSource) fetch(ctx context.Context) ([]models.Session, error) {
	resp, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, s.classify(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, NewDataSourceError(s.name, ErrCodeServerError,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), ErrSourceUnavailable, nil)
	}

	var payload models.SessionList
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPayloadBytes)).Decode(&payload); err != nil {
		if ctx.Err() != nil {
			return nil, s.classify(ctx, err)
		}
		return nil, NewDataSourceError(s.name, ErrCodeInvalidData, "failed to decode session list", ErrMalformedPayload, err)
	}

	if len(payload.List) == 0 {
		return nil, NewDataSourceError(s.name, ErrCodeInvalidData, "session list is missing or empty", ErrMalformedPayload, nil)
	}

	return payload.List, nil
}

func (s *HTTPSource) classify(ctx context.Context, err error) error {
	if errors.Is(err, errCircuitOpen) {
		return NewDataSourceError(s.name, ErrCodeCircuitOpen, "too many consecutive failures", ErrSourceUnavailable, err)
	}

	var netErr net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return NewDataSourceError(s.name, ErrCodeTimeout, fmt.Sprintf("no response within %s", s.timeout), ErrSourceTimeout, err)
	}

	return NewDataSourceError(s.name, ErrCodeNetworkError, "request failed", ErrSourceUnavailable, err)
}

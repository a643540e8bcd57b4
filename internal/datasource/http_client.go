package datasource

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourusername/taixiu-ai/internal/metrics"
)

// HTTPClientConfig holds configuration for HTTP clients
type HTTPClientConfig struct {
	Timeout           time.Duration
	MaxRetries        int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
	RateLimit         float64 // requests per second
	CircuitBreakerMax int     // max consecutive failures before circuit break
	CircuitCooldown   time.Duration
}

// DefaultHTTPClientConfig returns recommended defaults
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:           12 * time.Second,
		MaxRetries:        2,
		RetryWaitMin:      200 * time.Millisecond,
		RetryWaitMax:      2 * time.Second,
		RateLimit:         5.0,
		CircuitBreakerMax: 5,
		CircuitCooldown:   30 * time.Second,
	}
}

// RateLimitedHTTPClient wraps retryablehttp.Client with rate limiting and circuit breaker
type RateLimitedHTTPClient struct {
	client            *retryablehttp.Client
	limiter           *rate.Limiter
	circuitBreakerMax int
	cooldown          time.Duration

	mu                sync.Mutex
	consecutiveErrors int
	openedAt          time.Time
	trialInFlight     bool
	lastError         error

	logger logrus.FieldLogger
	now    func() time.Time
}

// NewRateLimitedHTTPClient creates a new rate-limited HTTP client
func NewRateLimitedHTTPClient(cfg HTTPClientConfig, logger logrus.FieldLogger) *RateLimitedHTTPClient {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	retryClient := retryablehttp.NewClient()
	// the per-request context carries the deadline
	retryClient.HTTPClient.Timeout = 0
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.CheckRetry = customRetryPolicy()
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = leveledLogger{logger.WithField("component", "http_client")}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &RateLimitedHTTPClient{
		client:            retryClient,
		limiter:           rate.NewLimiter(limit, 1),
		circuitBreakerMax: cfg.CircuitBreakerMax,
		cooldown:          cfg.CircuitCooldown,
		logger:            logger,
		now:               time.Now,
	}
}

// Do executes an HTTP request with rate limiting and circuit breaker
func (c *RateLimitedHTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.checkCircuit(); err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		c.releaseTrial()
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	retryReq, err := retryablehttp.FromRequest(req.WithContext(ctx))
	if err != nil {
		c.releaseTrial()
		return nil, err
	}

	resp, err := c.client.Do(retryReq)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		c.recordFailure(err)
		return nil, err
	}

	if resp.StatusCode < 500 {
		c.recordSuccess()
	} else {
		c.recordFailure(fmt.Errorf("status %d", resp.StatusCode))
	}

	return resp, nil
}

// Get executes a GET request
func (c *RateLimitedHTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return c.Do(ctx, req)
}

// IsOpen reports whether the circuit breaker is currently rejecting requests
func (c *RateLimitedHTTPClient) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isOpenLocked()
}

// Close closes any resources held by the client
func (c *RateLimitedHTTPClient) Close() error {
	c.client.HTTPClient.CloseIdleConnections()
	return nil
}

// checkCircuit admits a request. Once the cooldown has elapsed a single
// half-open trial request is let through; everyone else is rejected until it reports.
func (c *RateLimitedHTTPClient) checkCircuit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openedAt.IsZero() {
		return nil
	}
	if !c.trialInFlight && c.cooldownElapsedLocked() {
		c.trialInFlight = true
		return nil
	}
	return fmt.Errorf("%w: %v", errCircuitOpen, c.lastError)
}

// isOpenLocked reports whether a request issued now would be rejected.
func (c *RateLimitedHTTPClient) isOpenLocked() bool {
	if c.openedAt.IsZero() {
		return false
	}
	return c.trialInFlight || !c.cooldownElapsedLocked()
}

func (c *RateLimitedHTTPClient) cooldownElapsedLocked() bool {
	return c.cooldown > 0 && c.now().Sub(c.openedAt) >= c.cooldown
}

// releaseTrial frees the half-open slot when the trial never reached the network.
func (c *RateLimitedHTTPClient) releaseTrial() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trialInFlight = false
}

func (c *RateLimitedHTTPClient) recordFailure(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveErrors++
	c.lastError = err
	if c.trialInFlight {
		c.trialInFlight = false
		c.openedAt = c.now()
		metrics.RecordCircuitBreakerTrip()
		c.logger.WithError(err).Warn("Circuit breaker trial request failed, reopening")
		return
	}
	if c.circuitBreakerMax > 0 && c.consecutiveErrors >= c.circuitBreakerMax && c.openedAt.IsZero() {
		c.openedAt = c.now()
		metrics.RecordCircuitBreakerTrip()
		c.logger.WithFields(logrus.Fields{
			"consecutive_errors": c.consecutiveErrors,
			"cooldown":           c.cooldown,
		}).WithError(err).Warn("Circuit breaker opened")
	}
}

func (c *RateLimitedHTTPClient) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecutiveErrors = 0
	c.openedAt = time.Time{}
	c.trialInFlight = false
	c.lastError = nil
}

// customRetryPolicy defines which HTTP responses should trigger a retry
func customRetryPolicy() retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}

		if err != nil {
			// Retry on network errors
			return true, nil
		}

		// Retry on rate limit (429) and server errors
		switch resp.StatusCode {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true, nil
		}

		return false, nil
	}
}

// leveledLogger adapts logrus to retryablehttp.LeveledLogger
type leveledLogger struct {
	logger logrus.FieldLogger
}

func (l leveledLogger) fields(keysAndValues []interface{}) logrus.FieldLogger {
	f := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if k, ok := keysAndValues[i].(string); ok {
			f[k] = keysAndValues[i+1]
		}
	}
	return l.logger.WithFields(f)
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Error(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Debug(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Debug(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Warn(msg)
}

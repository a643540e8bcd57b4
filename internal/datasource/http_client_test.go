package datasource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:           time.Second,
		MaxRetries:        0,
		RetryWaitMin:      time.Millisecond,
		RetryWaitMax:      2 * time.Millisecond,
		RateLimit:         0,
		CircuitBreakerMax: 2,
		CircuitCooldown:   time.Hour,
	}
}

func TestRateLimitedHTTPClientRetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testClientConfig()
	cfg.MaxRetries = 2
	logger, _ := test.NewNullLogger()
	client := NewRateLimitedHTTPClient(cfg, logger)

	resp, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.False(t, client.IsOpen())
}

func TestRateLimitedHTTPClientPassesThroughFinalStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	logger, _ := test.NewNullLogger()
	client := NewRateLimitedHTTPClient(testClientConfig(), logger)

	resp, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestRateLimitedHTTPClientCircuitBreaker(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	logger, _ := test.NewNullLogger()
	client := NewRateLimitedHTTPClient(testClientConfig(), logger)

	for i := 0; i < 2; i++ {
		resp, err := client.Get(context.Background(), srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.True(t, client.IsOpen())

	_, err := client.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, errCircuitOpen)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestRateLimitedHTTPClientCircuitCooldown(t *testing.T) {
	var healthy atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if healthy.Load() {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	logger, _ := test.NewNullLogger()
	client := NewRateLimitedHTTPClient(testClientConfig(), logger)
	now := time.Unix(1700000000, 0)
	client.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		resp, err := client.Get(context.Background(), srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}
	require.True(t, client.IsOpen())

	now = now.Add(2 * time.Hour)
	healthy.Store(true)

	resp, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.False(t, client.IsOpen())
}

func TestRateLimitedHTTPClientHalfOpenAdmitsSingleRequest(t *testing.T) {
	var hits int32
	var blocking atomic.Bool
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if blocking.Load() {
			arrived <- struct{}{}
			<-release
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	logger, _ := test.NewNullLogger()
	client := NewRateLimitedHTTPClient(testClientConfig(), logger)
	now := time.Unix(1700000000, 0)
	client.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		resp, err := client.Get(context.Background(), srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}
	require.True(t, client.IsOpen())

	now = now.Add(2 * time.Hour)
	blocking.Store(true)

	done := make(chan error, 1)
	go func() {
		resp, err := client.Get(context.Background(), srv.URL)
		if resp != nil {
			resp.Body.Close()
		}
		done <- err
	}()
	<-arrived

	// the trial request is in flight, so the breaker stays shut for everyone else
	assert.True(t, client.IsOpen())
	_, err := client.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, errCircuitOpen)

	close(release)
	require.NoError(t, <-done)

	assert.True(t, client.IsOpen())
	_, err = client.Get(context.Background(), srv.URL)
	assert.ErrorIs(t, err, errCircuitOpen)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestRateLimitedHTTPClientCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	logger, _ := test.NewNullLogger()
	client := NewRateLimitedHTTPClient(testClientConfig(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Get(ctx, srv.URL)
	assert.Error(t, err)
}

package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/taixiu-ai/internal/models"
)

func newTestSource(t *testing.T, handler http.HandlerFunc, timeout time.Duration) (*HTTPSource, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger, _ := test.NewNullLogger()
	client := NewRateLimitedHTTPClient(testClientConfig(), logger)
	return NewHTTPSource(client, "test", srv.URL, timeout, logger), srv
}

func jsonBody(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestHTTPSourceFetchSessions(t *testing.T) {
	src, _ := newTestSource(t, jsonBody(`{"list":[
		{"id": 101, "resultTruyenThong": "TAI", "dices": [4, 5, 6], "point": 15},
		{"id": 100, "resultTruyenThong": "xiu", "dices": [1, 2, 3], "point": 6},
		{"id": 99, "resultTruyenThong": null}
	]}`), time.Second)

	sessions, err := src.FetchSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 3)

	assert.Equal(t, int64(101), sessions[0].ID)
	assert.Equal(t, []int{4, 5, 6}, sessions[0].Dices)
	require.NotNil(t, sessions[0].Point)
	assert.Equal(t, 15, *sessions[0].Point)
	assert.Equal(t, models.OutcomeXiu, sessions[1].Outcome())
	assert.Nil(t, sessions[2].Point)
	assert.Equal(t, models.OutcomeUnknown, sessions[2].Outcome())
	assert.Equal(t, "test", src.Name())
}

func TestHTTPSourceMalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty list", `{"list":[]}`},
		{"missing list", `{"data":[]}`},
		{"null list", `{"list":null}`},
		{"not json", `<html>oops</html>`},
		{"wrong shape", `{"list":"nope"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, _ := newTestSource(t, jsonBody(tt.body), time.Second)

			sessions, err := src.FetchSessions(context.Background())
			require.Error(t, err)
			assert.Nil(t, sessions)
			assert.ErrorIs(t, err, ErrMalformedPayload)
			assert.NotErrorIs(t, err, ErrSourceUnavailable)

			var dsErr *DataSourceError
			require.True(t, errors.As(err, &dsErr))
			assert.Equal(t, ErrCodeInvalidData, dsErr.Code)
			assert.Equal(t, "test", dsErr.Source)
		})
	}
}

func TestHTTPSourceServerError(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, time.Second)

	_, err := src.FetchSessions(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.NotErrorIs(t, err, ErrSourceTimeout)

	var dsErr *DataSourceError
	require.True(t, errors.As(err, &dsErr))
	assert.Equal(t, ErrCodeServerError, dsErr.Code)
}

func TestHTTPSourceTimeout(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, 50*time.Millisecond)

	_, err := src.FetchSessions(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceTimeout)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.NotErrorIs(t, err, ErrMalformedPayload)

	var dsErr *DataSourceError
	require.True(t, errors.As(err, &dsErr))
	assert.Equal(t, ErrCodeTimeout, dsErr.Code)
}

func TestHTTPSourceNetworkError(t *testing.T) {
	src, srv := newTestSource(t, jsonBody(`{"list":[]}`), time.Second)
	srv.Close()

	_, err := src.FetchSessions(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.NotErrorIs(t, err, ErrSourceTimeout)

	var dsErr *DataSourceError
	require.True(t, errors.As(err, &dsErr))
	assert.Equal(t, ErrCodeNetworkError, dsErr.Code)
}

func TestHTTPSourceCircuitOpen(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, time.Second)

	for i := 0; i < 2; i++ {
		_, err := src.FetchSessions(context.Background())
		require.Error(t, err)
	}

	_, err := src.FetchSessions(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)

	var dsErr *DataSourceError
	require.True(t, errors.As(err, &dsErr))
	assert.Equal(t, ErrCodeCircuitOpen, dsErr.Code)
}

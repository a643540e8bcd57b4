package stream

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/taixiu-ai/internal/models"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	hub := NewHub(logger)
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ClientCount() == n }, 2*time.Second, 5*time.Millisecond)
}

func TestHubBroadcastsReports(t *testing.T) {
	hub, srv := newTestHub(t)
	a := dial(t, srv)
	b := dial(t, srv)
	waitForClients(t, hub, 2)

	hub.Publish(&models.PredictionReport{
		Session:     10,
		NextSession: 11,
		Prediction:  "Tài",
		Pattern:     []models.Outcome{models.OutcomeTai},
		Dice:        []int{},
	})

	for _, conn := range []*websocket.Conn{a, b} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		kind, data, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, websocket.TextMessage, kind)

		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, float64(11), got["next_session"])
		assert.Equal(t, "Tài", got["du_doan"])
	}
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)

	hub.Publish(&models.PredictionReport{NextSession: 1})
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	hub.Close()
	assert.Equal(t, 0, hub.ClientCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestHubPublishNil(t *testing.T) {
	hub, _ := newTestHub(t)
	assert.NotPanics(t, func() { hub.Publish(nil) })
}

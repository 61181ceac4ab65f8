package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/freightpulse/freightpulse/internal/config"
	"github.com/freightpulse/freightpulse/internal/metrics"
	"github.com/freightpulse/freightpulse/internal/stream"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			AllowedOrigins: []string{"*"},
		},
		Stream: config.StreamConfig{
			TickInterval:   20 * time.Millisecond,
			QueueDepth:     16,
			WriteTimeout:   time.Second,
			PingInterval:   30 * time.Second,
			PongTimeout:    60 * time.Second,
			MaxMessageSize: 512,
		},
		Simulator: config.SimulatorConfig{Fields: metrics.DefaultFieldParams()},
	}
}

func newTestServer(t *testing.T) (*Server, *metrics.Simulator, *stream.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	sim, err := metrics.NewSimulator(nil, 1)
	require.NoError(t, err)
	hub := stream.NewHub(16, zap.NewNop())
	return NewServer(zap.NewNop(), sim, hub, testConfig()), sim, hub
}

func TestHandleSnapshot_ReturnsCurrentVector(t *testing.T) {
	server, sim, _ := newTestServer(t)
	sim.Advance()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil)
	server.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	for _, key := range []string{
		"on_time_delivery_rate", "avg_delivery_time", "perfect_order_rate",
		"orders_per_hour", "order_accuracy", "stockout_rate",
		"pick_pack_cycle_time", "truck_utilization", "avg_dwell_time",
		"cost_per_order", "operating_ratio", "hours_driven",
		"incident_rate", "timestamp",
	} {
		assert.Contains(t, got, key)
	}

	current := sim.Current()
	assert.Equal(t, current.OnTimeDeliveryRate, got["on_time_delivery_rate"])
	assert.Equal(t, current.OrdersPerHour, got["orders_per_hour"])
}

func TestHandleHealth(t *testing.T) {
	server, _, _ := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	server.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "ok", got["status"])
}

func TestHandleStream_InitialSnapshotThenTicks(t *testing.T) {
	server, sim, hub := newTestServer(t)
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	u := "ws" + ts.URL[len("http"):] + "/ws/metrics"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer conn.Close()

	// The current snapshot arrives before any tick.
	var initial metrics.Snapshot
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&initial))
	assert.Equal(t, sim.Current().OnTimeDeliveryRate, initial.OnTimeDeliveryRate)

	// Wait for registration before broadcasting.
	require.Eventually(t, func() bool { return hub.Len() == 1 },
		2*time.Second, 10*time.Millisecond)

	next := sim.Advance()
	require.NoError(t, hub.Broadcast(next))

	var streamed metrics.Snapshot
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&streamed))
	assert.Equal(t, next.OnTimeDeliveryRate, streamed.OnTimeDeliveryRate)
	assert.True(t, streamed.Timestamp.After(initial.Timestamp))
}

func TestHandleStream_ClientCloseUnregisters(t *testing.T) {
	server, _, hub := newTestServer(t)
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	u := "ws" + ts.URL[len("http"):] + "/ws/metrics"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return hub.Len() == 1 },
		2*time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool { return hub.Len() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestStreamEndToEnd_CoordinatorDrivesViewers(t *testing.T) {
	server, sim, hub := newTestServer(t)
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	coord := stream.NewCoordinator(sim, hub, 20*time.Millisecond, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = coord.Run(ctx) }()

	u := "ws" + ts.URL[len("http"):] + "/ws/metrics"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer conn.Close()

	var prev metrics.Snapshot
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	require.NoError(t, conn.ReadJSON(&prev))

	for i := 0; i < 3; i++ {
		var snap metrics.Snapshot
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		require.NoError(t, conn.ReadJSON(&snap))
		assert.True(t, snap.Timestamp.After(prev.Timestamp), "tick %d out of order", i)
		prev = snap
	}
}

package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/co-pilot/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	require.NoError(t, err)
	return log
}

func TestClientFetchSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"sim_on_ground": true,
			"altitude_msl": 83.2,
			"ground_velocity": 4.5,
			"parking_brake": true,
			"light_beacon": true,
			"eng1_n1": 19.5,
			"transponder_state": 1,
			"fuel_total_kg": 6500,
			"altimeter_hpa": 1013
		}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, 2*time.Second, testLogger(t))
	snapshot, err := c.FetchSnapshot(context.Background())
	require.NoError(t, err)

	assert.True(t, snapshot.SimOnGround)
	assert.Equal(t, 83.2, snapshot.AltitudeMSL)
	assert.True(t, snapshot.ParkingBrake)
	assert.True(t, snapshot.LightBeacon)
	assert.True(t, snapshot.EngineRunning(1))
	assert.Equal(t, 1, snapshot.TransponderState)
	assert.Equal(t, 6500.0, snapshot.FuelTotalKg)
}

func TestClientFetchSnapshotBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient(server.URL, 2*time.Second, testLogger(t))
	_, err := c.FetchSnapshot(context.Background())
	assert.ErrorContains(t, err, "unexpected status code")
}

func TestClientFetchSnapshotBadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	c := NewClient(server.URL, 2*time.Second, testLogger(t))
	_, err := c.FetchSnapshot(context.Background())
	assert.ErrorContains(t, err, "failed to parse")
}

func TestClientFetchSnapshotUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1/telemetry", time.Second, testLogger(t))
	_, err := c.FetchSnapshot(context.Background())
	assert.Error(t, err)
}

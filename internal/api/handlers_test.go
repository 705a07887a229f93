package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/co-pilot/internal/checklist"
	"github.com/yegors/co-pilot/internal/config"
	"github.com/yegors/co-pilot/internal/flightplan"
	"github.com/yegors/co-pilot/internal/storage/sqlite"
	"github.com/yegors/co-pilot/internal/telemetry"
	"github.com/yegors/co-pilot/internal/websocket"
	"github.com/yegors/co-pilot/pkg/logger"
)

const testDefinitions = `{
  "phases": {
    "departure": [
      {
        "id": "cockpit_preparation",
        "title": "COCKPIT PREPARATION",
        "items": [
          {
            "id": "parking_brake",
            "challenge": "PARKING BRAKE",
            "response": "ON",
            "verify": {"var": "BRAKE_PARKING_POSITION", "condition": "eq", "value": true}
          }
        ]
      },
      {
        "id": "before_start",
        "title": "BEFORE START",
        "items": [{"id": "beacon", "challenge": "BEACON", "response": "ON"}]
      }
    ]
  }
}`

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	require.NoError(t, err)

	dir := t.TempDir()
	defPath := filepath.Join(dir, "checklist.json")
	require.NoError(t, os.WriteFile(defPath, []byte(testDefinitions), 0o644))

	cfg := config.DefaultConfig()
	cfg.Checklists.NormalFile = defPath
	cfg.Checklists.TrainingFile = defPath
	cfg.Server.StaticFilesDir = dir
	cfg.Storage.DBPath = filepath.Join(dir, "test.db")

	db, err := sqlite.Open(cfg.Storage.DBPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	settingsStorage, err := sqlite.NewSettingsStorage(db, log)
	require.NoError(t, err)
	phaseLogStorage, err := sqlite.NewPhaseLogStorage(db, log)
	require.NoError(t, err)

	checklistService, err := checklist.NewService(&cfg.Checklists, false, true, log)
	require.NoError(t, err)

	telemetryService := telemetry.NewService(&cfg.Telemetry, log)
	checklistService.SetSnapshotProvider(telemetryService.Snapshot)

	flightplanClient := flightplan.NewClient(cfg.FlightPlan.APIBaseURL, time.Second, log)
	wsServer := websocket.NewServer(log)

	router := NewRouter(checklistService, telemetryService, flightplanClient,
		nil, settingsStorage, phaseLogStorage, wsServer, cfg, log)
	return router.Routes()
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGetState(t *testing.T) {
	handler := newTestRouter(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/state", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var state struct {
		Connected bool            `json:"connected"`
		Phase     string          `json:"phase"`
		Mode      string          `json:"phase_mode"`
		Checklist json.RawMessage `json:"checklist"`
		History   []string        `json:"phase_history"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.False(t, state.Connected)
	assert.Equal(t, "cockpit_preparation", state.Phase)
	assert.Equal(t, "auto", state.Mode)
	assert.NotEmpty(t, state.Checklist)
	assert.Empty(t, state.History)
}

func TestCheckAndUncheckItem(t *testing.T) {
	handler := newTestRouter(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/checklists/check",
		`{"phase": "cockpit_preparation", "item_id": "parking_brake"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/checklists/current", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cl struct {
		Items []struct {
			ID      string `json:"id"`
			Checked bool   `json:"checked"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cl))
	require.Len(t, cl.Items, 1)
	assert.True(t, cl.Items[0].Checked)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/checklists/uncheck",
		`{"phase": "cockpit_preparation", "item_id": "parking_brake"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckItemNotFound(t *testing.T) {
	handler := newTestRouter(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/checklists/check",
		`{"phase": "cockpit_preparation", "item_id": "no_such"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetPhase(t *testing.T) {
	handler := newTestRouter(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/phase", `{"phase": "before_start"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/state", "")
	var state struct {
		Phase string `json:"phase"`
		Mode  string `json:"phase_mode"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "before_start", state.Phase)
	// No telemetry: the pilot override cannot be confirmed
	assert.Equal(t, "manual", state.Mode)
}

func TestSetPhaseRejectsInvalid(t *testing.T) {
	handler := newTestRouter(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/phase", `{"phase": "cruise"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPhaseNavigation(t *testing.T) {
	handler := newTestRouter(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/phase/next", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/phase/prev", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Already at the first checklist phase
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/phase/prev", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetModeAndReset(t *testing.T) {
	handler := newTestRouter(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/mode", `{"mode": "manual"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/mode", `{"mode": "warp"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/reset", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/state", "")
	var state struct {
		Mode string `json:"phase_mode"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "auto", state.Mode)
}

func TestSettingsRoundTrip(t *testing.T) {
	handler := newTestRouter(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/settings",
		`{"simbrief_username": "testpilot", "dark_mode": true, "training_mode": false}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var settings sqlite.Settings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settings))
	assert.Equal(t, "testpilot", settings.SimBriefUsername)
	assert.True(t, settings.DarkMode)
}

func TestFlightPlanEmpty(t *testing.T) {
	handler := newTestRouter(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/flightplan", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
}

func TestFetchFlightPlanWithoutUsername(t *testing.T) {
	handler := newTestRouter(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/flightplan/fetch", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVoiceReadbackDisabled(t *testing.T) {
	handler := newTestRouter(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/voice/readback?phase=before_start&item=beacon", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthAndConfig(t *testing.T) {
	handler := newTestRouter(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health struct {
		Status       string `json:"status"`
		SimConnected bool   `json:"sim_connected"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.False(t, health.SimConnected)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cfg struct {
		AutoPhaseTransitions bool     `json:"auto_phase_transitions"`
		VoiceEnabled         bool     `json:"voice_enabled"`
		VerifiableVariables  []string `json:"verifiable_variables"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.True(t, cfg.AutoPhaseTransitions)
	assert.False(t, cfg.VoiceEnabled)
	assert.Equal(t, []string{"BRAKE_PARKING_POSITION"}, cfg.VerifiableVariables)
}

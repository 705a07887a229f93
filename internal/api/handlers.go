package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yegors/co-pilot/internal/checklist"
	"github.com/yegors/co-pilot/internal/config"
	"github.com/yegors/co-pilot/internal/flightplan"
	"github.com/yegors/co-pilot/internal/storage/sqlite"
	"github.com/yegors/co-pilot/internal/telemetry"
	"github.com/yegors/co-pilot/internal/voice"
	"github.com/yegors/co-pilot/internal/websocket"
	"github.com/yegors/co-pilot/pkg/logger"
)

// Handler handles API requests
type Handler struct {
	checklistService *checklist.Service
	telemetryService *telemetry.Service
	flightplanClient *flightplan.Client
	voiceService     *voice.Service
	settingsStorage  *sqlite.SettingsStorage
	phaseLogStorage  *sqlite.PhaseLogStorage
	wsServer         *websocket.Server
	config           *config.Config
	logger           *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(
	checklistService *checklist.Service,
	telemetryService *telemetry.Service,
	flightplanClient *flightplan.Client,
	voiceService *voice.Service,
	settingsStorage *sqlite.SettingsStorage,
	phaseLogStorage *sqlite.PhaseLogStorage,
	wsServer *websocket.Server,
	config *config.Config,
	logger *logger.Logger,
) *Handler {
	return &Handler{
		checklistService: checklistService,
		telemetryService: telemetryService,
		flightplanClient: flightplanClient,
		voiceService:     voiceService,
		settingsStorage:  settingsStorage,
		phaseLogStorage:  phaseLogStorage,
		wsServer:         wsServer,
		config:           config,
		logger:           logger.Named("api-handler"),
	}
}

// statePayload is the combined read model relayed to clients
type statePayload struct {
	Connected      bool                   `json:"connected"`
	FlightState    *telemetry.Snapshot    `json:"flight_state"`
	AutoTransition bool                   `json:"auto_transition"`
	FlightPlan     *flightplan.FlightPlan `json:"flight_plan"`
	*checklist.StateSnapshot
}

// stateUpdate is the websocket envelope for state payloads
type stateUpdate struct {
	Type string       `json:"type"`
	Data statePayload `json:"data"`
}

// buildState assembles the current combined state
func (h *Handler) buildState() statePayload {
	connected := h.telemetryService.Connected()
	var flightState *telemetry.Snapshot
	if connected {
		flightState = h.telemetryService.Snapshot()
	}
	return statePayload{
		Connected:      connected,
		FlightState:    flightState,
		AutoTransition: h.config.Telemetry.AutoPhaseTransitions,
		FlightPlan:     h.flightplanClient.FlightPlan(),
		StateSnapshot:  h.checklistService.State(),
	}
}

// StateUpdate builds the websocket state_update envelope. Used both for
// initial state on connect and for broadcasts.
func (h *Handler) StateUpdate() interface{} {
	return stateUpdate{Type: "state_update", Data: h.buildState()}
}

// BroadcastState pushes the current state to all websocket clients
func (h *Handler) BroadcastState() {
	h.wsServer.Broadcast(h.StateUpdate())
}

// itemRequest identifies one checklist item
type itemRequest struct {
	Phase  string `json:"phase"`
	ItemID string `json:"item_id"`
}

// phaseRequest carries an explicit phase selection
type phaseRequest struct {
	Phase string `json:"phase"`
}

// modeRequest carries an explicit mode selection
type modeRequest struct {
	Mode string `json:"mode"`
}

// settingsRequest carries a settings update
type settingsRequest struct {
	SimBriefUsername string `json:"simbrief_username"`
	DarkMode         bool   `json:"dark_mode"`
	TrainingMode     bool   `json:"training_mode"`
}

// GetState returns the combined flight and checklist state
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.buildState())
}

// GetAllChecklists returns the full checklist structure
func (h *Handler) GetAllChecklists(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.checklistService.AllChecklists())
}

// GetCurrentChecklist returns the checklist for the active phase
func (h *Handler) GetCurrentChecklist(w http.ResponseWriter, r *http.Request) {
	state := h.checklistService.State()
	if state.Checklist == nil {
		h.respondError(w, http.StatusNotFound, "no checklist for current phase")
		return
	}
	h.respondJSON(w, http.StatusOK, state.Checklist)
}

// CheckItem marks an item as checked
func (h *Handler) CheckItem(w http.ResponseWriter, r *http.Request) {
	h.mutateItem(w, r, h.checklistService.CheckItem)
}

// UncheckItem marks an item as unchecked
func (h *Handler) UncheckItem(w http.ResponseWriter, r *http.Request) {
	h.mutateItem(w, r, h.checklistService.UncheckItem)
}

// ToggleItem toggles an item's checked state
func (h *Handler) ToggleItem(w http.ResponseWriter, r *http.Request) {
	h.mutateItem(w, r, h.checklistService.ToggleItem)
}

func (h *Handler) mutateItem(w http.ResponseWriter, r *http.Request, mutate func(string, string) bool) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !mutate(req.Phase, req.ItemID) {
		h.respondError(w, http.StatusNotFound, "item not found")
		return
	}
	h.BroadcastState()
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// SetPhase pins the active phase to the requested one
func (h *Handler) SetPhase(w http.ResponseWriter, r *http.Request) {
	var req phaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.checklistService.SetPhase(req.Phase); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.BroadcastState()
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "phase": req.Phase})
}

// NextPhase moves to the next checklist phase
func (h *Handler) NextPhase(w http.ResponseWriter, r *http.Request) {
	phase, ok := h.checklistService.NextPhase()
	if !ok {
		h.respondError(w, http.StatusBadRequest, "no next phase available")
		return
	}
	h.BroadcastState()
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "phase": phase.String()})
}

// PrevPhase moves to the previous checklist phase
func (h *Handler) PrevPhase(w http.ResponseWriter, r *http.Request) {
	phase, ok := h.checklistService.PrevPhase()
	if !ok {
		h.respondError(w, http.StatusBadRequest, "no previous phase available")
		return
	}
	h.BroadcastState()
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "phase": phase.String()})
}

// GetPhaseLog returns recent phase transition events
func (h *Handler) GetPhaseLog(w http.ResponseWriter, r *http.Request) {
	events, err := h.phaseLogStorage.GetRecentEvents(100)
	if err != nil {
		h.logger.Error("Failed to query phase log", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to query phase log")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

// SetMode sets the phase mode explicitly
func (h *Handler) SetMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.checklistService.SetMode(req.Mode); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.BroadcastState()
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "mode": req.Mode})
}

// Reset reinitializes all checklist and phase state
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.checklistService.Reset()
	h.BroadcastState()
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// GetSettings returns the persisted settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsStorage.Load()
	if err != nil {
		h.logger.Error("Failed to load settings", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	h.respondJSON(w, http.StatusOK, settings)
}

// SaveSettings persists settings and applies a training-mode change
func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	settings := &sqlite.Settings{
		SimBriefUsername: req.SimBriefUsername,
		DarkMode:         req.DarkMode,
		TrainingMode:     req.TrainingMode,
	}
	if err := h.settingsStorage.Save(settings); err != nil {
		h.logger.Error("Failed to save settings", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}

	if err := h.checklistService.SetTrainingMode(req.TrainingMode); err != nil {
		h.logger.Error("Failed to switch rule-set", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.BroadcastState()
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "settings": settings})
}

// GetFlightPlan returns the cached flight plan
func (h *Handler) GetFlightPlan(w http.ResponseWriter, r *http.Request) {
	plan := h.flightplanClient.FlightPlan()
	if plan == nil {
		h.respondJSON(w, http.StatusOK, map[string]interface{}{
			"success":     false,
			"flight_plan": nil,
			"message":     "no flight plan loaded",
		})
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "flight_plan": plan})
}

// FetchFlightPlan fetches the latest flight plan and injects its values into
// the checklists
func (h *Handler) FetchFlightPlan(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsStorage.Load()
	if err != nil || settings.SimBriefUsername == "" {
		h.respondError(w, http.StatusBadRequest, "simbrief username not configured")
		return
	}

	plan, err := h.flightplanClient.Fetch(r.Context(), settings.SimBriefUsername)
	if err != nil {
		switch {
		case errors.Is(err, flightplan.ErrUserNotFound):
			h.respondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, flightplan.ErrNetwork):
			h.respondError(w, http.StatusServiceUnavailable, err.Error())
		default:
			h.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	h.checklistService.ApplyPlanInjections(flightplan.Injections(plan))
	h.BroadcastState()
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "flight_plan": plan})
}

// ClearFlightPlan discards the cached flight plan and restores templates
func (h *Handler) ClearFlightPlan(w http.ResponseWriter, r *http.Request) {
	h.flightplanClient.Clear()
	h.checklistService.ClearPlanInjections()
	h.BroadcastState()
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// VoiceReadback transcribes an uploaded readback and checks the item on a
// match
func (h *Handler) VoiceReadback(w http.ResponseWriter, r *http.Request) {
	if h.voiceService == nil || !h.voiceService.Enabled() {
		h.respondError(w, http.StatusServiceUnavailable, "voice readback not enabled")
		return
	}

	phaseID := r.URL.Query().Get("phase")
	itemID := r.URL.Query().Get("item")

	expected, ok := h.checklistService.ExpectedResponse(phaseID, itemID)
	if !ok {
		h.respondError(w, http.StatusNotFound, "item not found")
		return
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "missing audio upload")
		return
	}
	defer file.Close()

	result, err := h.voiceService.ProcessReadback(r.Context(), file, expected)
	if err != nil {
		if errors.Is(err, voice.ErrBadAudio) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Readback processing failed", logger.Error(err))
		h.respondError(w, http.StatusBadGateway, "transcription failed")
		return
	}

	if result.Matched {
		h.checklistService.CheckItem(phaseID, itemID)
		h.BroadcastState()
	}

	h.respondJSON(w, http.StatusOK, result)
}

// HandleWebSocket upgrades the connection and hands it to the hub
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.wsServer.HandleConnection(w, r)
}

// GetHealth returns the service health
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"sim_connected":   h.telemetryService.Connected(),
		"ws_client_count": h.wsServer.ClientCount(),
	})
}

// GetConfig returns the client-relevant configuration
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"auto_phase_transitions": h.config.Telemetry.AutoPhaseTransitions,
		"voice_enabled":          h.voiceService != nil && h.voiceService.Enabled(),
		"verifiable_variables":   h.checklistService.VerifiableVariableNames(),
	})
}

// respondJSON writes a JSON response
func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

// respondError writes a JSON error response
func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

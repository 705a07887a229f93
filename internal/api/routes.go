package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yegors/co-pilot/internal/checklist"
	"github.com/yegors/co-pilot/internal/config"
	"github.com/yegors/co-pilot/internal/flightplan"
	"github.com/yegors/co-pilot/internal/storage/sqlite"
	"github.com/yegors/co-pilot/internal/telemetry"
	"github.com/yegors/co-pilot/internal/voice"
	"github.com/yegors/co-pilot/internal/websocket"
	"github.com/yegors/co-pilot/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(
	checklistService *checklist.Service,
	telemetryService *telemetry.Service,
	flightplanClient *flightplan.Client,
	voiceService *voice.Service,
	settingsStorage *sqlite.SettingsStorage,
	phaseLogStorage *sqlite.PhaseLogStorage,
	wsServer *websocket.Server,
	config *config.Config,
	logger *logger.Logger,
) *Router {
	return &Router{
		handler: NewHandler(checklistService, telemetryService, flightplanClient, voiceService,
			settingsStorage, phaseLogStorage, wsServer, config, logger),
		middleware: NewMiddleware(logger),
		config:     config,
		logger:     logger.Named("api-router"),
	}
}

// Handler returns the underlying request handler for wiring callbacks
func (r *Router) Handler() *Handler {
	return r.handler
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.Server.CORSAllowedOrigins))

	// API routes
	router.Route("/api/v1", func(router chi.Router) {
		// State
		router.Get("/state", r.handler.GetState)

		// Checklist routes
		router.Get("/checklists", r.handler.GetAllChecklists)
		router.Get("/checklists/current", r.handler.GetCurrentChecklist)
		router.Post("/checklists/check", r.handler.CheckItem)
		router.Post("/checklists/uncheck", r.handler.UncheckItem)
		router.Post("/checklists/toggle", r.handler.ToggleItem)

		// Phase routes
		router.Post("/phase", r.handler.SetPhase)
		router.Post("/phase/next", r.handler.NextPhase)
		router.Post("/phase/prev", r.handler.PrevPhase)
		router.Get("/phase/log", r.handler.GetPhaseLog)

		// Mode & reset
		router.Post("/mode", r.handler.SetMode)
		router.Post("/reset", r.handler.Reset)

		// Settings
		router.Get("/settings", r.handler.GetSettings)
		router.Post("/settings", r.handler.SaveSettings)

		// Flight plan routes
		router.Get("/flightplan", r.handler.GetFlightPlan)
		router.Post("/flightplan/fetch", r.handler.FetchFlightPlan)
		router.Post("/flightplan/clear", r.handler.ClearFlightPlan)

		// Voice readback
		router.Post("/voice/readback", r.handler.VoiceReadback)

		// WebSocket route
		router.Get("/ws", r.handler.HandleWebSocket)

		// Health check
		router.Get("/health", r.handler.GetHealth)

		// Configuration
		router.Get("/config", r.handler.GetConfig)
	})

	// Serve static files from the configured directory
	staticHandler := NewStaticFileHandler(r.config.Server.StaticFilesDir, r.logger)
	router.Handle("/*", staticHandler)

	return router
}

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yegors/co-pilot/internal/api"
	"github.com/yegors/co-pilot/internal/checklist"
	"github.com/yegors/co-pilot/internal/config"
	"github.com/yegors/co-pilot/internal/flightplan"
	"github.com/yegors/co-pilot/internal/storage/sqlite"
	"github.com/yegors/co-pilot/internal/telemetry"
	"github.com/yegors/co-pilot/internal/voice"
	"github.com/yegors/co-pilot/internal/websocket"
	"github.com/yegors/co-pilot/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "co-pilot: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Close()

	log.Info("Starting co-pilot checklist companion")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Storage
	db, err := sqlite.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	settingsStorage, err := sqlite.NewSettingsStorage(db, log)
	if err != nil {
		return err
	}
	phaseLogStorage, err := sqlite.NewPhaseLogStorage(db, log)
	if err != nil {
		return err
	}

	settings, err := settingsStorage.Load()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// Core services
	checklistService, err := checklist.NewService(&cfg.Checklists, settings.TrainingMode,
		cfg.Telemetry.AutoPhaseTransitions, log)
	if err != nil {
		return err
	}

	telemetryService := telemetry.NewService(&cfg.Telemetry, log)
	checklistService.SetSnapshotProvider(telemetryService.Snapshot)

	flightplanClient := flightplan.NewClient(cfg.FlightPlan.APIBaseURL,
		time.Duration(cfg.FlightPlan.RequestTimeoutSecs)*time.Second, log)

	var voiceService *voice.Service
	if cfg.Voice.Enabled {
		voiceService = voice.NewService(&cfg.Voice, log)
	}

	// Transport
	wsServer := websocket.NewServer(log)
	router := api.NewRouter(checklistService, telemetryService, flightplanClient,
		voiceService, settingsStorage, phaseLogStorage, wsServer, cfg, log)
	handler := router.Handler()

	wsServer.SetMessageHandler(handler)
	wsServer.SetStateFunc(handler.StateUpdate)

	// Wire telemetry samples into verification and detection, then fan the
	// resulting state out to connected clients
	telemetryService.SetUpdateCallback(func(snapshot *telemetry.Snapshot) {
		checklistService.ApplyTelemetry(snapshot)
		handler.BroadcastState()
	})

	checklistService.SetPhaseChangeCallback(func(change checklist.PhaseChange) {
		if _, err := phaseLogStorage.StoreEvent(&sqlite.PhaseEvent{
			FromPhase: change.From.String(),
			ToPhase:   change.To.String(),
			Mode:      string(change.Mode),
			Automatic: change.Automatic,
			Timestamp: change.Time,
		}); err != nil {
			log.Error("Failed to record phase transition", logger.Error(err))
		}
	})

	go wsServer.Run(ctx)
	go telemetryService.Start(ctx)

	if cfg.Checklists.WatchFiles {
		watcher := checklist.NewWatcher(checklistService, &cfg.Checklists, log)
		go func() {
			if err := watcher.Start(ctx); err != nil {
				log.Error("Definition watcher stopped", logger.Error(err))
			}
		}()
	}

	// Clients still see connection-state changes while the simulator is down
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !telemetryService.Connected() && wsServer.ClientCount() > 0 {
					handler.BroadcastState()
				}
			}
		}
	}()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}

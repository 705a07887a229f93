package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/yegors/co-pilot/internal/config"
	"github.com/yegors/co-pilot/pkg/logger"
)

// UpdateFunc is called once per successfully fetched snapshot. It runs on the
// polling goroutine, so implementations must not block on I/O.
type UpdateFunc func(*Snapshot)

// Service polls the simulator gateway at a fixed rate and is the sole writer
// of telemetry snapshots into the rest of the application.
type Service struct {
	client       *Client
	config       *config.TelemetryConfig
	logger       *logger.Logger
	onUpdate     UpdateFunc
	mu           sync.RWMutex
	lastSnapshot *Snapshot
	connected    bool
}

// NewService creates a new telemetry service
func NewService(cfg *config.TelemetryConfig, logger *logger.Logger) *Service {
	timeout := time.Duration(cfg.RequestTimeoutSecs) * time.Second
	return &Service{
		client: NewClient(cfg.SourceURL, timeout, logger),
		config: cfg,
		logger: logger.Named("telemetry-svc"),
	}
}

// SetUpdateCallback sets the callback invoked on every fetched snapshot. Must
// be called before Start.
func (s *Service) SetUpdateCallback(fn UpdateFunc) {
	s.onUpdate = fn
}

// Connected reports whether the last poll succeeded
func (s *Service) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Snapshot returns the most recent snapshot, or nil before the first
// successful poll
func (s *Service) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSnapshot
}

// Start runs the polling loop until the context is cancelled. It blocks, so
// callers normally run it in its own goroutine.
func (s *Service) Start(ctx context.Context) {
	if !s.config.Enabled {
		s.logger.Info("Telemetry polling disabled in config")
		return
	}

	pollInterval := time.Second / time.Duration(s.config.PollRateHz)
	retryInterval := time.Duration(s.config.RetryIntervalSecs) * time.Second

	s.logger.Info("Starting telemetry polling",
		logger.String("source_url", s.config.SourceURL),
		logger.Int("poll_rate_hz", s.config.PollRateHz),
	)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Telemetry polling stopped")
			return
		case <-ticker.C:
			snapshot, err := s.client.FetchSnapshot(ctx)
			if err != nil {
				s.handleFetchError(ctx, err, retryInterval)
				continue
			}

			s.mu.Lock()
			wasDisconnected := !s.connected
			s.connected = true
			s.lastSnapshot = snapshot
			s.mu.Unlock()

			if wasDisconnected {
				s.logger.Info("Simulator gateway connected")
			}

			if s.onUpdate != nil {
				s.onUpdate(snapshot)
			}
		}
	}
}

// handleFetchError marks the service disconnected and backs off before the
// next attempt
func (s *Service) handleFetchError(ctx context.Context, err error, retryInterval time.Duration) {
	s.mu.Lock()
	wasConnected := s.connected
	s.connected = false
	s.mu.Unlock()

	if wasConnected {
		s.logger.Warn("Lost connection to simulator gateway", logger.Error(err))
	} else {
		s.logger.Debug("Simulator gateway unavailable", logger.Error(err))
	}

	select {
	case <-ctx.Done():
	case <-time.After(retryInterval):
	}
}

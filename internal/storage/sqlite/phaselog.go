package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/yegors/co-pilot/pkg/logger"
)

// PhaseEvent is one recorded movement of the active checklist phase
type PhaseEvent struct {
	ID        int64     `json:"id"`
	FromPhase string    `json:"from_phase"`
	ToPhase   string    `json:"to_phase"`
	Mode      string    `json:"mode"`
	Automatic bool      `json:"automatic"`
	Timestamp time.Time `json:"timestamp"`
}

// PhaseLogStorage handles storage of phase transition events
type PhaseLogStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewPhaseLogStorage creates a new SQLite phase event storage
func NewPhaseLogStorage(db *sql.DB, log *logger.Logger) (*PhaseLogStorage, error) {
	storage := &PhaseLogStorage{
		db:     db,
		logger: log.Named("sqlite-phaselog"),
	}

	if err := storage.initDB(); err != nil {
		return nil, err
	}

	return storage, nil
}

// initDB initializes the phase event table
func (s *PhaseLogStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS phase_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			from_phase TEXT NOT NULL,
			to_phase TEXT NOT NULL,
			mode TEXT NOT NULL,
			automatic INTEGER NOT NULL,
			timestamp TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create phase_events table: %w", err)
	}

	_, err = s.db.Exec(
		`CREATE INDEX IF NOT EXISTS idx_phase_events_timestamp ON phase_events(timestamp)`,
	)
	if err != nil {
		return fmt.Errorf("failed to create phase_events index: %w", err)
	}

	return nil
}

// StoreEvent appends a phase transition event
func (s *PhaseLogStorage) StoreEvent(event *PhaseEvent) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO phase_events (from_phase, to_phase, mode, automatic, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		event.FromPhase,
		event.ToPhase,
		event.Mode,
		event.Automatic,
		event.Timestamp.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert phase event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	return id, nil
}

// GetRecentEvents returns the most recent phase transition events
func (s *PhaseLogStorage) GetRecentEvents(limit int) ([]*PhaseEvent, error) {
	rows, err := s.db.Query(
		`SELECT id, from_phase, to_phase, mode, automatic, timestamp
		FROM phase_events
		ORDER BY timestamp DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query phase events: %w", err)
	}
	defer rows.Close()

	var events []*PhaseEvent
	for rows.Next() {
		var event PhaseEvent
		var timestamp string

		if err := rows.Scan(
			&event.ID,
			&event.FromPhase,
			&event.ToPhase,
			&event.Mode,
			&event.Automatic,
			&timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan phase event: %w", err)
		}

		event.Timestamp, err = time.Parse(time.RFC3339, timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp: %w", err)
		}

		events = append(events, &event)
	}

	return events, rows.Err()
}

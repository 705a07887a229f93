package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/yegors/co-pilot/pkg/logger"
)

// Settings represents the persisted application settings
type Settings struct {
	SimBriefUsername string `json:"simbrief_username"`
	DarkMode         bool   `json:"dark_mode"`
	TrainingMode     bool   `json:"training_mode"`
}

// SettingsStorage handles persistence of application settings
type SettingsStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewSettingsStorage creates a new SQLite settings storage
func NewSettingsStorage(db *sql.DB, log *logger.Logger) (*SettingsStorage, error) {
	storage := &SettingsStorage{
		db:     db,
		logger: log.Named("sqlite-settings"),
	}

	if err := storage.initDB(); err != nil {
		return nil, err
	}

	return storage, nil
}

// initDB initializes the settings table
func (s *SettingsStorage) initDB() error {
	// Single-row table: id is fixed to 1
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			simbrief_username TEXT NOT NULL DEFAULT '',
			dark_mode INTEGER NOT NULL DEFAULT 0,
			training_mode INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create settings table: %w", err)
	}
	return nil
}

// Load returns the persisted settings, or defaults when none have been saved
func (s *SettingsStorage) Load() (*Settings, error) {
	row := s.db.QueryRow(
		`SELECT simbrief_username, dark_mode, training_mode FROM settings WHERE id = 1`,
	)

	var settings Settings
	err := row.Scan(&settings.SimBriefUsername, &settings.DarkMode, &settings.TrainingMode)
	if err == sql.ErrNoRows {
		return &Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	return &settings, nil
}

// Save persists the given settings
func (s *SettingsStorage) Save(settings *Settings) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (id, simbrief_username, dark_mode, training_mode)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			simbrief_username = excluded.simbrief_username,
			dark_mode = excluded.dark_mode,
			training_mode = excluded.training_mode`,
		settings.SimBriefUsername,
		settings.DarkMode,
		settings.TrainingMode,
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	s.logger.Debug("Settings saved",
		logger.Bool("training_mode", settings.TrainingMode),
	)
	return nil
}

package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Logging    LoggingConfig    `toml:"logging"`
	Telemetry  TelemetryConfig  `toml:"telemetry"`
	Checklists ChecklistsConfig `toml:"checklists"`
	FlightPlan FlightPlanConfig `toml:"flightplan"`
	Voice      VoiceConfig      `toml:"voice"`
	Storage    StorageConfig    `toml:"storage"`
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	Host               string   `toml:"host"`
	Port               int      `toml:"port"`
	StaticFilesDir     string   `toml:"static_files_dir"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
	ReadTimeoutSecs    int      `toml:"read_timeout_secs"`
	WriteTimeoutSecs   int      `toml:"write_timeout_secs"`
}

// LoggingConfig represents the logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// TelemetryConfig represents the simulator telemetry source configuration
type TelemetryConfig struct {
	Enabled              bool   `toml:"enabled"`
	SourceURL            string `toml:"source_url"`
	PollRateHz           int    `toml:"poll_rate_hz"`
	RetryIntervalSecs    int    `toml:"retry_interval_secs"`
	RequestTimeoutSecs   int    `toml:"request_timeout_secs"`
	AutoPhaseTransitions bool   `toml:"auto_phase_transitions"`
}

// ChecklistsConfig represents the checklist definition sources
type ChecklistsConfig struct {
	NormalFile   string `toml:"normal_file"`
	TrainingFile string `toml:"training_file"`
	WatchFiles   bool   `toml:"watch_files"`
}

// FlightPlanConfig represents the flight plan provider configuration
type FlightPlanConfig struct {
	APIBaseURL         string `toml:"api_base_url"`
	RequestTimeoutSecs int    `toml:"request_timeout_secs"`
}

// VoiceConfig represents the voice readback configuration
type VoiceConfig struct {
	Enabled       bool    `toml:"enabled"`
	OpenAIAPIKey  string  `toml:"openai_api_key"`
	Model         string  `toml:"model"`
	Language      string  `toml:"language"`
	MinConfidence float64 `toml:"min_confidence"`
}

// StorageConfig represents the local storage configuration
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			StaticFilesDir:   "frontend",
			ReadTimeoutSecs:  30,
			WriteTimeoutSecs: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Telemetry: TelemetryConfig{
			Enabled:              true,
			SourceURL:            "http://localhost:8765/telemetry",
			PollRateHz:           10,
			RetryIntervalSecs:    5,
			RequestTimeoutSecs:   2,
			AutoPhaseTransitions: true,
		},
		Checklists: ChecklistsConfig{
			NormalFile:   "data/a320_normal_checklist.json",
			TrainingFile: "data/a320_training_checklist.json",
			WatchFiles:   false,
		},
		FlightPlan: FlightPlanConfig{
			APIBaseURL:         "https://www.simbrief.com/api/xml.fetcher.php",
			RequestTimeoutSecs: 30,
		},
		Voice: VoiceConfig{
			Enabled:       false,
			Model:         "whisper-1",
			Language:      "en",
			MinConfidence: 0.7,
		},
		Storage: StorageConfig{
			DBPath: "data/co-pilot.db",
		},
	}
}

// Load loads the configuration from the given TOML file, applying defaults
// for anything the file does not set.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Telemetry.PollRateHz <= 0 {
		return fmt.Errorf("telemetry poll rate must be positive, got %d", c.Telemetry.PollRateHz)
	}
	if c.Checklists.NormalFile == "" {
		return fmt.Errorf("checklists.normal_file is required")
	}
	if c.Voice.Enabled && c.Voice.OpenAIAPIKey == "" {
		return fmt.Errorf("voice.openai_api_key is required when voice is enabled")
	}
	return nil
}

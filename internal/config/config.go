// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"feisboard/internal/model"
)

// Config holds the application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Storage  StorageConfig  `toml:"storage"`
	Timeline TimelineConfig `toml:"timeline"`
	Instant  InstantConfig  `toml:"instant"`
}

// ServerConfig holds HTTP server and client settings.
type ServerConfig struct {
	Addr    string `toml:"addr"`     // listen address for `feisboard serve`
	BaseURL string `toml:"base_url"` // API endpoint used by board/web/schedule commands
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// TimelineConfig holds the default day window and grid settings for the board.
type TimelineConfig struct {
	DayStartHour int `toml:"day_start_hour"` // e.g. 8 for 08:00
	DayEndHour   int `toml:"day_end_hour"`   // e.g. 20 for 20:00
	Zoom         int `toml:"zoom"`           // pixels per minute
	SnapMinutes  int `toml:"snap_minutes"`   // drag snap quantum
}

// InstantConfig holds the defaults fed to the instant scheduler.
type InstantConfig struct {
	MinCompSize      int    `toml:"min_comp_size"`
	MaxCompSize      int    `toml:"max_comp_size"`
	LunchWindowStart string `toml:"lunch_window_start"` // e.g. "12:00"
	LunchWindowEnd   string `toml:"lunch_window_end"`   // e.g. "13:30"
	LunchMinutes     int    `toml:"lunch_minutes"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:    ":8543",
			BaseURL: "http://localhost:8543",
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		Timeline: TimelineConfig{
			DayStartHour: 8,
			DayEndHour:   20,
			Zoom:         2,
			SnapMinutes:  5,
		},
		Instant: InstantConfig{
			MinCompSize:      5,
			MaxCompSize:      20,
			LunchWindowStart: "12:00",
			LunchWindowEnd:   "13:30",
			LunchMinutes:     45,
		},
	}
}

// TimelineConfig maps the [timeline] section onto the board's grid settings.
func (c *Config) TimelineConfig() model.TimelineConfig {
	return model.TimelineConfig{
		StartHour:          c.Timeline.DayStartHour,
		EndHour:            c.Timeline.DayEndHour,
		PixelsPerMinute:    c.Timeline.Zoom,
		SnapQuantumMinutes: c.Timeline.SnapMinutes,
	}
}

// InstantScheduleConfig maps the [instant] section onto the scheduler knobs,
// keeping the model defaults for anything the file does not configure.
func (c *Config) InstantScheduleConfig() model.InstantScheduleConfig {
	out := model.DefaultInstantScheduleConfig()
	out.MinCompSize = c.Instant.MinCompSize
	out.MaxCompSize = c.Instant.MaxCompSize
	out.LunchWindowStart = c.Instant.LunchWindowStart
	out.LunchWindowEnd = c.Instant.LunchWindowEnd
	out.LunchDurationMinutes = c.Instant.LunchMinutes
	return out
}

// defaultDBPath returns the default database path.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "feisboard.db"
	}
	return filepath.Join(home, ".local", "share", "feisboard", "feisboard.db")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "feisboard", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, then applies env overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over file config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FEISBOARD_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("FEISBOARD_SERVER"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv("FEISBOARD_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("FEISBOARD_LUNCH_START"); v != "" {
		cfg.Instant.LunchWindowStart = v
	}
	if v := os.Getenv("FEISBOARD_LUNCH_END"); v != "" {
		cfg.Instant.LunchWindowEnd = v
	}
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeline.DayStartHour < 0 || c.Timeline.DayStartHour > 23 {
		return fmt.Errorf("day_start_hour must be between 0 and 23, got %d", c.Timeline.DayStartHour)
	}
	if c.Timeline.DayEndHour < 1 || c.Timeline.DayEndHour > 24 {
		return fmt.Errorf("day_end_hour must be between 1 and 24, got %d", c.Timeline.DayEndHour)
	}
	if c.Timeline.DayStartHour >= c.Timeline.DayEndHour {
		return errors.New("day_start_hour must be before day_end_hour")
	}
	if c.Timeline.Zoom < 1 {
		return fmt.Errorf("zoom must be at least 1, got %d", c.Timeline.Zoom)
	}
	if c.Timeline.SnapMinutes < 1 {
		return fmt.Errorf("snap_minutes must be at least 1, got %d", c.Timeline.SnapMinutes)
	}

	if err := validateTime(c.Instant.LunchWindowStart, "lunch_window_start"); err != nil {
		return err
	}
	if err := validateTime(c.Instant.LunchWindowEnd, "lunch_window_end"); err != nil {
		return err
	}
	if c.Instant.LunchWindowStart >= c.Instant.LunchWindowEnd {
		return errors.New("lunch_window_start must be before lunch_window_end")
	}
	if c.Instant.MinCompSize < 1 {
		return errors.New("min_comp_size must be at least 1")
	}
	if c.Instant.MaxCompSize < c.Instant.MinCompSize {
		return errors.New("max_comp_size must be at least min_comp_size")
	}

	if c.Server.Addr == "" {
		return errors.New("server addr must be set")
	}
	if c.Storage.DBPath == "" {
		return errors.New("db_path must be set")
	}
	return nil
}

// validateTime checks if a time string is in HH:MM format.
func validateTime(t, field string) error {
	if len(t) != 5 || t[2] != ':' {
		return fmt.Errorf("%s must be in HH:MM format, got %q", field, t)
	}
	hour := t[0:2]
	min := t[3:5]
	if !isDigits(hour) || !isDigits(min) {
		return fmt.Errorf("%s must be in HH:MM format, got %q", field, t)
	}
	return nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

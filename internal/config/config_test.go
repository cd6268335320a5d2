package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Timeline.DayStartHour != 8 {
		t.Errorf("expected day_start_hour 8, got %d", cfg.Timeline.DayStartHour)
	}
	if cfg.Timeline.DayEndHour != 20 {
		t.Errorf("expected day_end_hour 20, got %d", cfg.Timeline.DayEndHour)
	}
	if cfg.Timeline.Zoom != 2 {
		t.Errorf("expected zoom 2, got %d", cfg.Timeline.Zoom)
	}
	if cfg.Server.Addr != ":8543" {
		t.Errorf("expected addr :8543, got %s", cfg.Server.Addr)
	}
	if cfg.Instant.LunchWindowStart != "12:00" {
		t.Errorf("expected lunch_window_start 12:00, got %s", cfg.Instant.LunchWindowStart)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

func TestLoadFrom_FileNotExists(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Should return defaults
	if cfg.Timeline.DayStartHour != 8 {
		t.Errorf("expected default day_start_hour, got %d", cfg.Timeline.DayStartHour)
	}
}

func TestLoadFrom_ValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `
[server]
addr = ":9000"
base_url = "http://feis.local:9000"

[timeline]
day_start_hour = 7
day_end_hour = 22
zoom = 4
snap_minutes = 10

[storage]
db_path = "/tmp/test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Addr != ":9000" {
		t.Errorf("expected addr :9000, got %s", cfg.Server.Addr)
	}
	if cfg.Server.BaseURL != "http://feis.local:9000" {
		t.Errorf("expected base_url http://feis.local:9000, got %s", cfg.Server.BaseURL)
	}
	if cfg.Timeline.DayStartHour != 7 {
		t.Errorf("expected day_start_hour 7, got %d", cfg.Timeline.DayStartHour)
	}
	if cfg.Timeline.DayEndHour != 22 {
		t.Errorf("expected day_end_hour 22, got %d", cfg.Timeline.DayEndHour)
	}
	if cfg.Timeline.Zoom != 4 {
		t.Errorf("expected zoom 4, got %d", cfg.Timeline.Zoom)
	}
	if cfg.Timeline.SnapMinutes != 10 {
		t.Errorf("expected snap_minutes 10, got %d", cfg.Timeline.SnapMinutes)
	}
	if cfg.Storage.DBPath != "/tmp/test.db" {
		t.Errorf("expected db_path /tmp/test.db, got %s", cfg.Storage.DBPath)
	}
	// Sections absent from the file keep their defaults.
	if cfg.Instant.MaxCompSize != 20 {
		t.Errorf("expected default max_comp_size 20, got %d", cfg.Instant.MaxCompSize)
	}
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `
[server]
addr = ":9000"

[storage]
db_path = "/tmp/test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("FEISBOARD_ADDR", ":7777")
	t.Setenv("FEISBOARD_SERVER", "http://remote:7777")
	t.Setenv("FEISBOARD_LUNCH_START", "11:30")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Env should override file
	if cfg.Server.Addr != ":7777" {
		t.Errorf("expected addr :7777 from env, got %s", cfg.Server.Addr)
	}
	// Env should override default
	if cfg.Server.BaseURL != "http://remote:7777" {
		t.Errorf("expected base_url http://remote:7777 from env, got %s", cfg.Server.BaseURL)
	}
	if cfg.Instant.LunchWindowStart != "11:30" {
		t.Errorf("expected lunch_window_start 11:30 from env, got %s", cfg.Instant.LunchWindowStart)
	}
	// File value should be kept when no env override
	if cfg.Storage.DBPath != "/tmp/test.db" {
		t.Errorf("expected db_path /tmp/test.db from file, got %s", cfg.Storage.DBPath)
	}
}

func TestValidate_DayWindowInverted(t *testing.T) {
	cfg := Default()
	cfg.Timeline.DayStartHour = 18
	cfg.Timeline.DayEndHour = 9

	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error when day_start_hour >= day_end_hour")
	}
}

func TestValidate_ZoomTooSmall(t *testing.T) {
	cfg := Default()
	cfg.Timeline.Zoom = 0

	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for zoom 0")
	}
}

func TestValidate_InvalidLunchFormat(t *testing.T) {
	cfg := Default()
	cfg.Instant.LunchWindowStart = "9:00" // Missing leading zero

	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for invalid lunch_window_start")
	}
}

func TestValidate_LunchWindowInverted(t *testing.T) {
	cfg := Default()
	cfg.Instant.LunchWindowStart = "14:00"
	cfg.Instant.LunchWindowEnd = "12:00"

	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error when lunch window is inverted")
	}
}

func TestValidate_CompSizeBounds(t *testing.T) {
	cfg := Default()
	cfg.Instant.MinCompSize = 10
	cfg.Instant.MaxCompSize = 5

	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error when max_comp_size < min_comp_size")
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input string
		want  string
	}{
		{"~/test.db", filepath.Join(home, "test.db")},
		{"/absolute/path.db", "/absolute/path.db"},
		{"relative/path.db", "relative/path.db"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got := expandPath(tc.input)
			if got != tc.want {
				t.Errorf("expandPath(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	cfg := Default()
	cfg.Timeline.DayStartHour = 7
	cfg.Timeline.SnapMinutes = 15
	cfg.Instant.MaxCompSize = 25

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if loaded.Timeline.DayStartHour != 7 {
		t.Errorf("expected day_start_hour 7, got %d", loaded.Timeline.DayStartHour)
	}
	if loaded.Timeline.SnapMinutes != 15 {
		t.Errorf("expected snap_minutes 15, got %d", loaded.Timeline.SnapMinutes)
	}
	if loaded.Instant.MaxCompSize != 25 {
		t.Errorf("expected max_comp_size 25, got %d", loaded.Instant.MaxCompSize)
	}
}

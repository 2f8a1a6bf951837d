package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Create a temporary config file
	content := `
installation:
  id: "test-install"
  role: "controller"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  host: "0.0.0.0"
  port: 8080
visual:
  transition_seconds: 7
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Installation.ID != "test-install" {
		t.Errorf("Installation.ID = %q, want %q", cfg.Installation.ID, "test-install")
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
installation:
  id: ""
database:
  path: "/tmp/test.db"
api:
  port: 8080
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty installation.id, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Installation: InstallationConfig{ID: "swirl-001", Role: "controller"},
			Database:     DatabaseConfig{Path: "/data/swirl.db"},
			MQTT:         MQTTConfig{QoS: 1},
			API:          APIConfig{Port: 8080},
			Visual:       VisualConfig{TransitionSeconds: 7},
			Strip:        StripConfig{LEDs: 60},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "valid follower",
			mutate:  func(c *Config) { c.Installation.Role = "follower" },
			wantErr: false,
		},
		{
			name:    "missing installation ID",
			mutate:  func(c *Config) { c.Installation.ID = "" },
			wantErr: true,
		},
		{
			name:    "unknown role",
			mutate:  func(c *Config) { c.Installation.Role = "spectator" },
			wantErr: true,
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "invalid port low",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port high",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "zero transition length",
			mutate:  func(c *Config) { c.Visual.TransitionSeconds = 0 },
			wantErr: true,
		},
		{
			name: "lighting enabled without device",
			mutate: func(c *Config) {
				c.Lighting.Enabled = true
				c.Lighting.Device = ""
			},
			wantErr: true,
		},
		{
			name: "fade with too few steps",
			mutate: func(c *Config) {
				c.Lighting.Fade.Enabled = true
				c.Lighting.Fade.Steps = 1
			},
			wantErr: true,
		},
		{
			name:    "zero LEDs",
			mutate:  func(c *Config) { c.Strip.LEDs = 0 },
			wantErr: true,
		},
		{
			name:    "negative idle timeout",
			mutate:  func(c *Config) { c.Coordinator.IdleTimeoutSeconds = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestConfig_DurationHelpers(t *testing.T) {
	cfg := &Config{
		Visual:      VisualConfig{TransitionSeconds: 3.5},
		Lighting:    LightingConfig{Fade: FadeConfig{DurationMs: 3500}},
		Strip:       StripConfig{WipeStepMs: 18},
		Coordinator: CoordinatorConfig{IdleTimeoutSeconds: 300},
	}

	if got := cfg.TransitionDuration().Seconds(); got != 3.5 {
		t.Errorf("TransitionDuration() = %v, want 3.5s", got)
	}

	if got := cfg.FadeDuration().Milliseconds(); got != 3500 {
		t.Errorf("FadeDuration() = %vms, want 3500", got)
	}

	if got := cfg.WipeStepDelay().Milliseconds(); got != 18 {
		t.Errorf("WipeStepDelay() = %vms, want 18", got)
	}

	if got := cfg.WatchdogTimeout().Seconds(); got != 300 {
		t.Errorf("WatchdogTimeout() = %v, want 300s", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	// Set environment variables
	t.Setenv("SWIRL_INSTALLATION_ROLE", "follower")
	t.Setenv("SWIRL_DATABASE_PATH", "/custom/path.db")
	t.Setenv("SWIRL_MQTT_HOST", "mqtt.example.com")
	t.Setenv("SWIRL_MQTT_USERNAME", "testuser")
	t.Setenv("SWIRL_MQTT_PASSWORD", "testpass")
	t.Setenv("SWIRL_API_HOST", "192.168.1.1")
	t.Setenv("SWIRL_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("SWIRL_LIGHTING_DEVICE", "/dev/ttyACM3")

	applyEnvOverrides(cfg)

	if cfg.Installation.Role != "follower" {
		t.Errorf("Installation.Role = %q, want %q", cfg.Installation.Role, "follower")
	}

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}

	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}

	if cfg.Lighting.Device != "/dev/ttyACM3" {
		t.Errorf("Lighting.Device = %q, want %q", cfg.Lighting.Device, "/dev/ttyACM3")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Installation.ID == "" {
		t.Error("defaultConfig should have non-empty Installation.ID")
	}

	if cfg.Installation.Role != "controller" {
		t.Errorf("defaultConfig Installation.Role = %q, want controller", cfg.Installation.Role)
	}

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if cfg.API.Port != 8080 {
		t.Errorf("defaultConfig API.Port = %d, want 8080", cfg.API.Port)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig should validate, got %v", err)
	}
}

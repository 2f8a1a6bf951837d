package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Swirl.
// All configuration is loaded from YAML and can be overridden by
// environment variables.
type Config struct {
	Installation InstallationConfig `yaml:"installation"`
	Database     DatabaseConfig     `yaml:"database"`
	MQTT         MQTTConfig         `yaml:"mqtt"`
	API          APIConfig          `yaml:"api"`
	WebSocket    WebSocketConfig    `yaml:"websocket"`
	InfluxDB     InfluxDBConfig     `yaml:"influxdb"`
	Logging      LoggingConfig      `yaml:"logging"`
	Visual       VisualConfig       `yaml:"visual"`
	Lighting     LightingConfig     `yaml:"lighting"`
	Strip        StripConfig        `yaml:"strip"`
	Coordinator  CoordinatorConfig  `yaml:"coordinator"`
}

// InstallationConfig identifies this deployment and fixes its role.
type InstallationConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`

	// Role is "controller" or "follower". Exactly one controller exists
	// per installation; it is the only instance that originates state
	// changes, persists them, and broadcasts them over MQTT.
	Role string `yaml:"role"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings for state mirroring.
type MQTTConfig struct {
	// Enabled turns mirroring on. A single-surface installation runs
	// happily without a broker.
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings, in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains optional state-telemetry settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// VisualConfig tunes the background animation engine.
type VisualConfig struct {
	// TransitionSeconds is the length of a parameter transition.
	// Installed units have shipped with values between 3.5 and 11.
	TransitionSeconds float64 `yaml:"transition_seconds"`
}

// LightingConfig tunes the host side of the LED strip link.
type LightingConfig struct {
	Enabled bool       `yaml:"enabled"`
	Device  string     `yaml:"device"`
	Fade    FadeConfig `yaml:"fade"`
}

// FadeConfig tunes software fades on the strip link.
type FadeConfig struct {
	Enabled    bool `yaml:"enabled"`
	DurationMs int  `yaml:"duration_ms"`
	Steps      int  `yaml:"steps"`
}

// StripConfig tunes the device-side controller, used by the simulator.
type StripConfig struct {
	LEDs           int  `yaml:"leds"`
	WipeStepMs     int  `yaml:"wipe_step_ms"`
	PulseEnabled   bool `yaml:"pulse_enabled"`
	ResnapOnRepeat bool `yaml:"resnap_on_repeat"`
}

// CoordinatorConfig tunes the coordinator.
type CoordinatorConfig struct {
	// IdleTimeoutSeconds is the inactivity window before the watchdog
	// forces standby. Controller role only; zero disables the watchdog.
	IdleTimeoutSeconds int `yaml:"idle_timeout_seconds"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// The loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern SWIRL_SECTION_KEY, e.g.
// SWIRL_DATABASE_PATH, SWIRL_MQTT_HOST, SWIRL_INSTALLATION_ROLE.
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If the file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults: a standalone
// controller with no broker, no telemetry, and no strip attached.
func defaultConfig() *Config {
	return &Config{
		Installation: InstallationConfig{
			ID:   "swirl-001",
			Name: "Swirl",
			Role: "controller",
		},
		Database: DatabaseConfig{
			Path:        "./data/swirl.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "swirl-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Visual: VisualConfig{
			TransitionSeconds: 7,
		},
		Lighting: LightingConfig{
			Device: "/dev/ttyUSB0",
			Fade: FadeConfig{
				Enabled:    true,
				DurationMs: 3500,
				Steps:      100,
			},
		},
		Strip: StripConfig{
			LEDs:         60,
			WipeStepMs:   18,
			PulseEnabled: true,
		},
		Coordinator: CoordinatorConfig{
			IdleTimeoutSeconds: 300,
		},
	}
}

// applyEnvOverrides applies SWIRL_* environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SWIRL_INSTALLATION_ROLE"); v != "" {
		cfg.Installation.Role = v
	}
	if v := os.Getenv("SWIRL_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("SWIRL_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("SWIRL_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("SWIRL_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("SWIRL_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("SWIRL_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := os.Getenv("SWIRL_LIGHTING_DEVICE"); v != "" {
		cfg.Lighting.Device = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of all validation failures, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Installation.ID == "" {
		errs = append(errs, "installation.id is required")
	}
	switch c.Installation.Role {
	case "controller", "follower":
	default:
		errs = append(errs, "installation.role must be \"controller\" or \"follower\"")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.Visual.TransitionSeconds <= 0 {
		errs = append(errs, "visual.transition_seconds must be positive")
	}

	if c.Lighting.Enabled && c.Lighting.Device == "" {
		errs = append(errs, "lighting.device is required when lighting is enabled")
	}
	if c.Lighting.Fade.Enabled && c.Lighting.Fade.Steps < 2 {
		errs = append(errs, "lighting.fade.steps must be at least 2")
	}

	if c.Strip.LEDs < 1 {
		errs = append(errs, "strip.leds must be at least 1")
	}

	if c.Coordinator.IdleTimeoutSeconds < 0 {
		errs = append(errs, "coordinator.idle_timeout_seconds must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// TransitionDuration returns the visual transition length as a Duration.
func (c *Config) TransitionDuration() time.Duration {
	return time.Duration(c.Visual.TransitionSeconds * float64(time.Second))
}

// FadeDuration returns the lighting fade length as a Duration.
func (c *Config) FadeDuration() time.Duration {
	return time.Duration(c.Lighting.Fade.DurationMs) * time.Millisecond
}

// WipeStepDelay returns the strip wipe per-step delay as a Duration.
func (c *Config) WipeStepDelay() time.Duration {
	return time.Duration(c.Strip.WipeStepMs) * time.Millisecond
}

// WatchdogTimeout returns the coordinator idle window as a Duration.
func (c *Config) WatchdogTimeout() time.Duration {
	return time.Duration(c.Coordinator.IdleTimeoutSeconds) * time.Second
}

// Swirl - exhibition installation state engine
//
// This is the main entry point for the Swirl daemon. It owns the
// authoritative installation state and everything attached to it:
//   - The visual parameter engine driving the rendered flow pattern
//   - The RGBW strip link over serial
//   - MQTT mirroring across controller/follower instances
//   - The REST + WebSocket API surface
//   - SQLite persistence of state and change history
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/corneliawysoudil/sensoryexperience-swirlpattern/migrations"

	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/api"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/coordinator"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/infrastructure/config"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/infrastructure/database"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/infrastructure/influxdb"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/infrastructure/logging"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/infrastructure/mqtt"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/lighting"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/state"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/visual"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error { //nolint:gocognit // Staged bring-up is linear and clearer in one function
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Swirl",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	store := coordinator.NewSQLiteStore(db.DB)

	// Connect to MQTT broker (optional: single-surface installations run
	// without mirroring)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT mirroring disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Visual parameter engine
	visualEngine := visual.NewEngine(visual.SystemClock{}, cfg.TransitionDuration(), state.StateStandby)
	log.Info("visual engine initialised", "transition", cfg.TransitionDuration())

	// Lighting sender (optional: installations without a strip skip it)
	var lightingSender *lighting.Sender
	if cfg.Lighting.Enabled {
		transport := lighting.NewSerialTransport(cfg.Lighting.Device)
		lightingSender = lighting.NewSender(transport, lighting.Config{
			FadeEnabled:  cfg.Lighting.Fade.Enabled,
			FadeDuration: cfg.FadeDuration(),
			FadeSteps:    cfg.Lighting.Fade.Steps,
		}, log)
		lightingSender.SetOnDisconnect(func(err error) {
			log.Warn("lighting link lost", "error", err)
		})

		if connErr := lightingSender.Connect(); connErr != nil {
			// The strip can be plugged in later and connected over the API.
			log.Warn("lighting device not connected at startup",
				"device", cfg.Lighting.Device,
				"error", connErr,
			)
		} else {
			log.Info("lighting device connected", "device", cfg.Lighting.Device)
			defer func() {
				log.Info("disconnecting lighting device")
				if closeErr := lightingSender.Disconnect(); closeErr != nil {
					log.Error("error disconnecting lighting", "error", closeErr)
				}
			}()
		}
	} else {
		log.Info("lighting disabled")
	}

	// WebSocket hub, shared between the coordinator (broadcast source) and
	// the API server (connection owner)
	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)

	// State coordinator
	role := coordinator.Role(cfg.Installation.Role)
	coordDeps := coordinator.Deps{
		Role:   role,
		Visual: visualEngine,
		Store:  store,
		Hub:    hub,
		Logger: log,
	}
	if lightingSender != nil {
		coordDeps.Lighting = lightingSender
	}
	if mqttClient != nil {
		coordDeps.Mirror = mqttClient
	}
	if influxClient != nil {
		coordDeps.Telemetry = influxClient
	}
	coord := coordinator.New(coordDeps)

	if startErr := coord.Start(ctx); startErr != nil {
		return fmt.Errorf("starting coordinator: %w", startErr)
	}
	log.Info("coordinator started", "role", role, "state", coord.Current())

	// Inactivity watchdog (armed only on the controller)
	watchdog := coordinator.NewWatchdog(coord, cfg.WatchdogTimeout(), nil, log)
	go watchdog.Run(ctx)
	if role == coordinator.RoleController {
		log.Info("inactivity watchdog armed", "timeout", cfg.WatchdogTimeout())
	}

	// API server
	apiDeps := api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Logger:      log,
		Coordinator: coord,
		Visual:      visualEngine,
		History:     store,
		Activity:    watchdog,
		ExternalHub: hub,
		Version:     version,
	}
	if lightingSender != nil {
		apiDeps.Lighting = lightingSender
	}
	apiServer, err := api.New(apiDeps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient, apiServer); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. Lighting link (if connected)
	// 3. InfluxDB (if enabled)
	// 4. MQTT (if enabled)
	// 5. Database

	log.Info("Swirl stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses SWIRL_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SWIRL_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//   - apiServer: API server to check
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client, apiServer *api.Server) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	if err := apiServer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	// The lighting link is deliberately excluded: a strip that is not yet
	// plugged in must not block startup.

	return nil
}

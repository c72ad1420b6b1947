// Busboard - Singapore bus arrivals for TRMNL e-ink displays.
//
// Busboard bridges the TRMNL plugin webhooks to the LTA DataMall bus
// arrival API: it handles the install/uninstall lifecycle, stores each
// user's bus stop selection in SQLite, and renders the arrival board
// markup the hub polls for.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	_ "github.com/wychoong/busboard/migrations"

	"github.com/wychoong/busboard/internal/api"
	"github.com/wychoong/busboard/internal/device"
	"github.com/wychoong/busboard/internal/infrastructure/config"
	"github.com/wychoong/busboard/internal/infrastructure/database"
	"github.com/wychoong/busboard/internal/infrastructure/influxdb"
	"github.com/wychoong/busboard/internal/infrastructure/logging"
	"github.com/wychoong/busboard/internal/transit"
	"github.com/wychoong/busboard/internal/trmnl"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Pick up a local .env before reading config env overrides.
	// Missing files are fine; deployments use real environment variables.
	_ = godotenv.Load()

	log := logging.Default()
	log.Info("starting busboard",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	db, err := database.Open(ctx, database.Config{
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

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	store := device.NewSQLiteStore(db.DB)

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			if errors.Is(err, influxdb.ErrConnectionFailed) {
				log.Warn("InfluxDB unreachable, telemetry disabled", "error", err)
			} else {
				return fmt.Errorf("connecting to InfluxDB: %w", err)
			}
		} else {
			defer func() {
				log.Info("closing InfluxDB connection")
				if closeErr := influxClient.Close(); closeErr != nil {
					log.Error("error closing InfluxDB", "error", closeErr)
				}
			}()
			influxClient.SetOnError(func(err error) {
				log.Error("InfluxDB write error", "error", err)
			})
			log.Info("InfluxDB connected",
				"url", cfg.InfluxDB.URL,
				"org", cfg.InfluxDB.Org,
				"bucket", cfg.InfluxDB.Bucket,
			)
		}
	} else {
		log.Info("InfluxDB disabled")
	}

	server, err := api.New(api.Deps{
		Config:    cfg.Server,
		Logger:    log,
		Store:     store,
		Arrivals:  transit.NewClient(cfg.LTA),
		OAuth:     trmnl.NewOAuthClient(cfg.TRMNL),
		Telemetry: influxClient,
		Health:    db,
		Defaults: device.DefaultStops{
			A: cfg.Stops.DefaultA,
			B: cfg.Stops.DefaultB,
			C: cfg.Stops.DefaultC,
		},
		MaxServices: cfg.Display.MaxServices,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error shutting down API server", "error", closeErr)
		}
	}()
	log.Info("API server listening",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Block until shutdown signal
	<-ctx.Done()
	log.Info("shutdown signal received")

	return nil
}

// getConfigPath returns the configuration file path.
// Uses BUSBOARD_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("BUSBOARD_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

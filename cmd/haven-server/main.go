// Package main provides the Haven server daemon.
//
// The daemon embeds the HA manager: on start it joins (or creates) the
// node registry in the shared database, then follows the manager's
// status notifications, performing exclusive server work only while it
// holds the active role.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"haven.io/server/cmd/haven-server/cmd"
	"haven.io/server/internal/api"
	"haven.io/server/internal/config"
	"haven.io/server/internal/ha"
	"haven.io/server/internal/logging"
	"haven.io/server/internal/metrics"
	"haven.io/server/internal/registry"
)

// getEnv retrieves an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseFlags registers the per-field command-line flags and returns
// the configuration file path.
func parseFlags() string {
	configPath := flag.String("config", getEnv("HAVEN_CONFIG", ""),
		"Path to YAML configuration file")
	flag.String("listen", "", "Address for the observability API to listen on")
	flag.String("node-name", "", "HA cluster node name (empty for standalone mode)")
	flag.String("node-address", "", "External node address published in the registry")
	flag.String("runtime-dir", "", "Directory holding the HA manager socket")
	flag.String("db-driver", "", "Registry database driver (sqlite or postgres)")
	flag.String("db-dsn", "", "Registry database DSN")
	flag.String("log-level", "", "Log level (debug, info, warn, error)")
	flag.String("log-format", "", "Log format (json, console)")

	flag.Parse()

	return *configPath
}

// applyFlags overrides configuration fields from flags the operator
// set explicitly, the highest precedence source. Visit only reports
// flags that were actually passed, so -node-name="" still selects
// standalone mode over a name from the file or environment.
func applyFlags(cfg *config.Config) {
	targets := map[string]*string{
		"listen":       &cfg.Server.ListenAddr,
		"node-name":    &cfg.HA.NodeName,
		"node-address": &cfg.HA.NodeAddress,
		"runtime-dir":  &cfg.HA.RuntimeDir,
		"db-driver":    &cfg.Database.Driver,
		"db-dsn":       &cfg.Database.DSN,
		"log-level":    &cfg.Log.Level,
		"log-format":   &cfg.Log.Format,
	}

	flag.Visit(func(f *flag.Flag) {
		if target, ok := targets[f.Name]; ok {
			*target = f.Value.String()
		}
	})
}

// openDatabase opens the shared registry database and prepares the schema.
func openDatabase(cfg config.DatabaseConfig, logger *logging.Logger) (*sql.DB, registry.Dialect, error) {
	dialect, err := registry.ForDriver(cfg.Driver)
	if err != nil {
		return nil, registry.Dialect{}, err
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, registry.Dialect{}, fmt.Errorf("failed to open database: %w", err)
	}

	// The HA manager owns the handle alone; one connection keeps the
	// registry transaction and its row locks on a single session.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, registry.Dialect{}, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := registry.EnsureSchema(db, dialect); err != nil {
		db.Close()
		return nil, registry.Dialect{}, err
	}

	logger.Info("database connection established", zap.String("driver", cfg.Driver))
	return db, dialect, nil
}

func main() {
	// Utility subcommands talk to a running daemon and exit.
	if len(os.Args) > 1 && os.Args[1] == "util" {
		if err := cmd.ExecuteUtil(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	configPath := parseFlags()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	applyFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	if cfg.Log.Format == "json" {
		logCfg.Environment = logging.EnvironmentProduction
	}
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	metrics.MustInit()

	logger.Info("starting haven-server",
		zap.String("node_name", cfg.HA.NodeName),
		zap.String("node_address", cfg.HA.NodeAddress),
		zap.String("listen_addr", cfg.Server.ListenAddr),
	)

	db, dialect, err := openDatabase(cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}

	store := registry.Open(db, dialect, logger.Logger)

	client := ha.NewClient(ha.ClientConfig{
		NodeName:    cfg.HA.NodeName,
		NodeAddress: cfg.HA.NodeAddress,
		SocketPath:  cfg.SocketPath(),
	}, store, logger)

	if err := client.Start(context.Background(), registry.StatusUnknown); err != nil {
		logger.Fatal("failed to start HA manager", zap.Error(err))
	}
	if err := client.RequestStatus(); err != nil {
		logger.Fatal("failed to request HA status", zap.Error(err))
	}

	router := api.SetupRouter(&api.RouterConfig{
		Logger:   logger.Logger,
		HAClient: client,
	})
	httpServer := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: router,
	}
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	status := registry.StatusUnknown
	running := true

	for running {
		select {
		case sig := <-signals:
			logger.Info("shutting down", zap.String("signal", sig.String()))
			running = false

		default:
			next, err := client.ReceiveStatus(ha.DefaultTickPeriod)
			if err != nil {
				logger.Error("HA manager reported fatal condition", zap.Error(err))
				running = false
				break
			}

			if next == status {
				break
			}

			logger.Info("HA status changed",
				zap.String("from", status.String()),
				zap.String(logging.FieldHAStatus, next.String()),
			)

			switch next {
			case registry.StatusActive:
				logger.Info("node is active, starting exclusive server work")
			case registry.StatusStandby:
				if status == registry.StatusActive {
					logger.Warn("node demoted, tearing down exclusive server work")
				}
			}

			status = next
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", zap.Error(err))
	}

	if err := client.Pause(); err != nil {
		logger.Warn("failed to pause HA manager", zap.Error(err))
		client.Kill()
		return
	}
	if err := client.Stop(); err != nil {
		logger.Warn("failed to stop HA manager", zap.Error(err))
	}

	logger.Info("haven-server stopped")
}

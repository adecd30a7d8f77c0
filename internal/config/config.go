// Package config loads the Haven server configuration. Values come
// from built-in defaults, a YAML file and HAVEN_* environment
// variables, in that order of increasing precedence; the daemon
// entrypoint registers per-field command-line flags that apply on top
// of the loaded configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"haven.io/server/internal/util"
)

// Config holds the full server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	HA       HAConfig       `yaml:"ha"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig configures the observability HTTP API.
type ServerConfig struct {
	// ListenAddr is the HTTP listen address, e.g. ":8080".
	ListenAddr string `yaml:"listen_addr"`
}

// HAConfig configures this node's cluster membership.
type HAConfig struct {
	// NodeName is the operator-chosen cluster node name. Empty means
	// standalone mode.
	NodeName string `yaml:"node_name"`

	// NodeAddress is the externally reachable endpoint published in
	// the registry, as "host[:port]" with a default port of 10051.
	NodeAddress string `yaml:"node_address"`

	// RuntimeDir holds the manager's unix-domain socket.
	RuntimeDir string `yaml:"runtime_dir"`
}

// DatabaseConfig configures the shared registry database.
type DatabaseConfig struct {
	// Driver selects the registry backend: "sqlite" or "postgres".
	Driver string `yaml:"driver"`

	// DSN is the driver-specific data source name.
	DSN string `yaml:"dsn"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level"`

	// Format is the log format (json, console).
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			ListenAddr: ":8080",
		},
		HA: HAConfig{
			NodeAddress: "localhost",
			RuntimeDir:  "/tmp",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "file:./haven.db?_pragma=busy_timeout%285000%29&_pragma=journal_mode%28WAL%29",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the configuration file when path is non-empty, then
// applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("cannot read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("cannot parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides file values from HAVEN_* environment variables.
func (c *Config) applyEnv() {
	setFromEnv(&c.Server.ListenAddr, "HAVEN_LISTEN_ADDR")
	setFromEnv(&c.HA.NodeName, "HAVEN_HA_NODE_NAME")
	setFromEnv(&c.HA.NodeAddress, "HAVEN_NODE_ADDRESS")
	setFromEnv(&c.HA.RuntimeDir, "HAVEN_RUNTIME_DIR")
	setFromEnv(&c.Database.Driver, "HAVEN_DB_DRIVER")
	setFromEnv(&c.Database.DSN, "HAVEN_DB_DSN")
	setFromEnv(&c.Log.Level, "HAVEN_LOG_LEVEL")
	setFromEnv(&c.Log.Format, "HAVEN_LOG_FORMAT")
}

func setFromEnv(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if err := util.ValidateNodeName(c.HA.NodeName); err != nil {
		return fmt.Errorf("invalid ha.node_name: %w", err)
	}
	if _, _, err := util.ParseNodeAddress(c.HA.NodeAddress); err != nil {
		return fmt.Errorf("invalid ha.node_address: %w", err)
	}
	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("invalid database.driver %q: must be sqlite or postgres", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	return nil
}

// SocketPath returns the manager's message service socket path.
func (c *Config) SocketPath() string {
	return filepath.Join(c.HA.RuntimeDir, "haven-ha.sock")
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, "", cfg.HA.NodeName)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, filepath.Join("/tmp", "haven-ha.sock"), cfg.SocketPath())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "haven.yaml")
	content := `
server:
  listen_addr: ":9090"
ha:
  node_name: "node-1"
  node_address: "10.0.0.5:10052"
  runtime_dir: "/run/haven"
database:
  driver: "postgres"
  dsn: "host=db user=haven dbname=haven sslmode=disable"
log:
  level: "debug"
  format: "json"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.ListenAddr)
	assert.Equal(t, "node-1", cfg.HA.NodeName)
	assert.Equal(t, "10.0.0.5:10052", cfg.HA.NodeAddress)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, filepath.Join("/run/haven", "haven-ha.sock"), cfg.SocketPath())
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "haven.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ha:\n  node_name: from-file\n"), 0o600))

	t.Setenv("HAVEN_HA_NODE_NAME", "from-env")
	t.Setenv("HAVEN_DB_DRIVER", "sqlite")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.HA.NodeName)
}

func TestValidation(t *testing.T) {
	cfg := Default()
	cfg.Database.Driver = "oracle"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Database.DSN = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.HA.NodeAddress = ""
	assert.Error(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

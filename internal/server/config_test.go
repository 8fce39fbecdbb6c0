package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	assert.Equal(t, "localhost:8080", cfg.ListenAddress())
	assert.Equal(t, 1000, cfg.Rooms.TargetScore)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coinched.hcl")
	content := `
server {
  address   = "0.0.0.0"
  port      = 9090
  log_level = "debug"
}

rooms {
  target_score    = 2000
  turn_timeout_ms = 30000
  visibility      = "private"
}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddress())
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 2000, cfg.Rooms.TargetScore)
	assert.Equal(t, 30*time.Second, cfg.TurnTimeout())
	assert.Equal(t, "private", cfg.Rooms.Visibility)
}

func TestLoadConfigPartialFileGetsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coinched.hcl")
	content := `
server {
  port = 9999
}

rooms {}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9999", cfg.ListenAddress())
	assert.Equal(t, 1000, cfg.Rooms.TargetScore)
	assert.Equal(t, "public", cfg.Rooms.Visibility)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Rooms.TargetScore = 50
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Rooms.Visibility = "hidden"
	assert.Error(t, cfg.Validate())
}

func TestLoadConfigRejectsMalformedHCL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.hcl")
	require.NoError(t, os.WriteFile(path, []byte("server {"), 0o644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

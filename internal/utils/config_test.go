package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loopin/signage-agent/pkg/file"
)

const sampleConfig = `
backend:
  url: "https://api.example.com"
  api_key: "secret"
  request_timeout: 10
identity:
  device_file: "data/device.json"
storage:
  cache_directory: "data/cache"
  snapshot_file: "data/playlist.json"
  fetch_timeout: 120
display:
  mode: "console"
  ready_timeout: 20
services:
  pairing:
    poll_interval: 10
  sync:
    interval: 60
  playback:
    empty_retry_interval: 3
    watchdog_timeout: 45
  heartbeat:
    enabled: true
    interval: 30
`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0600))

	config, err := LoadConfig(path, file.NewFileService())
	assert.NoError(t, err)

	assert.Equal(t, "https://api.example.com", config.Backend.URL)
	assert.Equal(t, "secret", config.Backend.APIKey)
	assert.EqualValues(t, 10, config.Backend.RequestTimeout)
	assert.Equal(t, "console", config.Display.Mode)
	assert.EqualValues(t, 10, config.Services.Pairing.PollInterval)
	assert.EqualValues(t, 60, config.Services.Sync.Interval)
	assert.EqualValues(t, 45, config.Services.Playback.WatchdogTimeout)
	assert.True(t, config.Services.Heartbeat.Enabled)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), file.NewFileService())
	assert.Error(t, err)
}

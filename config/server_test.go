package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInventory(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "servers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadServers(t *testing.T) {
	path := writeInventory(t, `
servers:
  - id: ams-1
    name: Amsterdam 1
    country: NL
    api_url: https://ams1.zkynet.example
    api_token: tok-1
    probe_endpoint: ams1.zkynet.example:443
    retry_attempts: 3
    retry_delay_ms: 2000
    timeout_ms: 15000
    enabled: true
  - id: nyc-1
    name: New York 1
    country: US
    api_url: https://nyc1.zkynet.example
    enabled: false
`)

	servers, err := LoadServers(path)
	require.NoError(t, err)
	require.Len(t, servers, 2)

	ams := servers[0]
	assert.Equal(t, "ams-1", ams.Id)
	assert.Equal(t, "Amsterdam 1", ams.Name)
	assert.Equal(t, "ams1.zkynet.example:443", ams.ProbeEndpoint)
	assert.Equal(t, 2*time.Second, ams.RetryDelay())
	assert.Equal(t, 15*time.Second, ams.Timeout())
	assert.True(t, ams.Enabled)

	assert.False(t, servers[1].Enabled, "disabled entries are kept for listing")
}

func TestLoadServersMissingApiUrl(t *testing.T) {
	path := writeInventory(t, `
servers:
  - id: bad-1
    name: Broken
    enabled: true
`)
	_, err := LoadServers(path)
	assert.ErrorContains(t, err, "api_url")
}

func TestLoadServersMissingFile(t *testing.T) {
	_, err := LoadServers(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestServerTimingDefaults(t *testing.T) {
	s := &Server{}
	assert.Equal(t, 2*time.Second, s.RetryDelay())
	assert.Equal(t, 15*time.Second, s.Timeout())

	s.RetryDelayMs = 500
	s.TimeoutMs = 3000
	assert.Equal(t, 500*time.Millisecond, s.RetryDelay())
	assert.Equal(t, 3*time.Second, s.Timeout())
}

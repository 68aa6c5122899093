package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 9091, cfg.Server.MetricsPort)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)

	require.Contains(t, cfg.Providers, "fal")
	require.Contains(t, cfg.Providers, "runway")
	assert.Equal(t, "https://queue.fal.run", cfg.Providers["fal"].BaseURL)
	assert.Equal(t, "v1/tasks/%s", cfg.Providers["runway"].StatusPath)

	assert.Equal(t, 2*time.Second, cfg.Polling.Interval)
	assert.Equal(t, 30*time.Minute, cfg.Upload.CacheTTL)

	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)

	assert.Empty(t, cfg.Catalog.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 2*time.Second, cfg.Polling.Interval)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
server:
  http_port: 8888
  read_timeout: 60s

providers:
  fal:
    base_url: "https://fal.example.com"
    api_key: "secret"
    requests_per_second: 3

polling:
  interval: 500ms

catalog:
  path: "/etc/genflow/models.yaml"

log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o600))

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.HTTPPort)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "https://fal.example.com", cfg.Providers["fal"].BaseURL)
	assert.Equal(t, "secret", cfg.Providers["fal"].APIKey)
	assert.Equal(t, 3.0, cfg.Providers["fal"].RequestsPerSecond)
	assert.Equal(t, 500*time.Millisecond, cfg.Polling.Interval)
	assert.Equal(t, "/etc/genflow/models.yaml", cfg.Catalog.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)

	// sections the file omits keep their defaults
	assert.Equal(t, 9091, cfg.Server.MetricsPort)
	assert.Equal(t, "https://v3.fal.media", cfg.Upload.BaseURL)
}

func TestLoader_MissingFileKeepsDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/nonexistent/config.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
}

func TestLoader_MalformedYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server: [not a mapping"), 0o600))

	_, err := NewLoader().WithConfigPath(configPath).Load()
	require.Error(t, err)
}

func TestLoader_EnvOverrides(t *testing.T) {
	t.Setenv("GENFLOW_SERVER_HTTP_PORT", "7070")
	t.Setenv("GENFLOW_POLLING_INTERVAL", "250ms")
	t.Setenv("GENFLOW_REDIS_ENABLED", "true")
	t.Setenv("GENFLOW_LOG_OUTPUT_PATHS", "stdout, /var/log/genflow.log")
	t.Setenv("GENFLOW_TELEMETRY_SAMPLE_RATE", "0.5")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.HTTPPort)
	assert.Equal(t, 250*time.Millisecond, cfg.Polling.Interval)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"stdout", "/var/log/genflow.log"}, cfg.Log.OutputPaths)
	assert.Equal(t, 0.5, cfg.Telemetry.SampleRate)
}

func TestLoader_EnvOverridesBeatFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  http_port: 8888\n"), 0o600))
	t.Setenv("GENFLOW_SERVER_HTTP_PORT", "7070")

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.HTTPPort)
}

func TestLoader_CustomEnvPrefix(t *testing.T) {
	t.Setenv("MYAPP_SERVER_HTTP_PORT", "6060")

	cfg, err := NewLoader().WithEnvPrefix("MYAPP").Load()
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Server.HTTPPort)
}

func TestLoader_ValidatorFailureStopsLoad(t *testing.T) {
	_, err := NewLoader().WithValidator(func(c *Config) error {
		return assert.AnError
	}).Load()
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Server.HTTPPort = 0
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Telemetry.SampleRate = 1.5
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Providers["broken"] = ProviderConfig{}
	require.Error(t, cfg.Validate())
}

func TestMustLoadPanicsOnBadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server: [unclosed"), 0o600))

	assert.Panics(t, func() {
		MustLoad(configPath)
	})
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brizzai/httpdeco/pkg/reqconfig"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  mode: stdio
  port: 7070
logging:
  level: debug
endpoint:
  base_url: https://api.example.com
  auth_type: bearer
  auth_config:
    token: secret
catalog_file: ./catalog.yaml
defaults:
  baseURL: https://api.example.com
  headers:
    Accept: application/json
  timeout: 1500
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func parseFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	InitFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", sampleConfig)

	tests := []struct {
		name  string
		args  []string
		env   map[string]string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "file values",
			args: []string{"--config", path},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ServerModeSTDIO, cfg.Server.Mode)
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "https://api.example.com", cfg.Endpoint.BaseURL)
				assert.Equal(t, AuthTypeBearer, cfg.Endpoint.AuthType)
				assert.Equal(t, "secret", cfg.Endpoint.AuthConfig["token"])
				assert.Equal(t, "./catalog.yaml", cfg.CatalogFile)
				assert.Equal(t, path, cfg.File)
			},
		},
		{
			name: "built-in defaults fill the gaps",
			args: []string{"--config", path},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "localhost", cfg.Server.Host)
				assert.Equal(t, "/metrics", cfg.Server.MetricsPath)
				assert.Equal(t, "30s", cfg.Endpoint.Timeout)
				assert.Equal(t, 250, cfg.Reload.DebounceMS)
			},
		},
		{
			name: "defaults section keeps key case",
			args: []string{"--config", path},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "https://api.example.com", cfg.Defaults["baseURL"])
				assert.Equal(t, map[string]any{"Accept": "application/json"}, cfg.Defaults["headers"])
				assert.Equal(t, 1500, cfg.Defaults["timeout"])
			},
		},
		{
			name: "flags override file",
			args: []string{"--config", path, "--mode", "http", "--swagger-file", "api.json"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ServerModeHTTP, cfg.Server.Mode)
				assert.Equal(t, "api.json", cfg.SwaggerFile)
			},
		},
		{
			name: "environment overrides file",
			args: []string{"--config", path},
			env: map[string]string{
				"HTTPDECO_SERVER_PORT":  "9090",
				"HTTPDECO_CATALOG_FILE": "/srv/catalog.yaml",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, "/srv/catalog.yaml", cfg.CatalogFile)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load(parseFlags(t, tt.args...))
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", sampleConfig)
	_, err := Load(parseFlags(t, "--config", path, "--mode", "sse"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported server mode")
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, (&Config{}).Validate(), ErrNoEndpointSource)
	assert.NoError(t, (&Config{CatalogFile: "c.yaml"}).Validate())
	assert.NoError(t, (&Config{SwaggerFile: "s.json"}).Validate())
}

func TestReadDefaults(t *testing.T) {
	dir := t.TempDir()

	defaults, err := ReadDefaults(writeFile(t, dir, "none.yaml", "server:\n  port: 1\n"))
	require.NoError(t, err)
	assert.Nil(t, defaults)

	_, err = ReadDefaults(writeFile(t, dir, "bad.yaml", "defaults: [unclosed"))
	assert.Error(t, err)

	_, err = ReadDefaults(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestWatchDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "defaults.yaml", "defaults:\n  baseURL: http://one\n")

	registry := reqconfig.NewRegistry(reqconfig.RequestConfig{"headers": map[string]any{"X": "kept"}})
	closer, err := WatchDefaults(path, registry, 10*time.Millisecond, nil)
	require.NoError(t, err)
	defer closer.Close()

	writeFile(t, dir, "defaults.yaml", "defaults:\n  baseURL: http://two\n  headers:\n    Y: added\n")

	assert.Eventually(t, func() bool {
		return registry.View().BaseURL() == "http://two"
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, map[string]any{"X": "kept", "Y": "added"}, registry.View().Headers())

	// unrelated files in the directory are ignored
	writeFile(t, dir, "other.yaml", "defaults:\n  baseURL: http://other\n")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, "http://two", registry.View().BaseURL())
}

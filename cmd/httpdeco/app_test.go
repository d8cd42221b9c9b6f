package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brizzai/httpdeco/internal/config"
	"github.com/brizzai/httpdeco/internal/parser"
	"github.com/brizzai/httpdeco/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

const testCatalog = `
defaults:
  baseURL: https://catalog.example.com
  headers:
    Accept: application/json
endpoints:
  - name: listItems
    annotations: ['@Get /items', '@Params 0']
  - name: health
    annotations: ['@Get /health']
`

const testSwagger = `{
  "openapi": "3.0.0",
  "info": {"title": "Items", "version": "1.0.0"},
  "servers": [{"url": "https://swagger.example.com"}],
  "paths": {
    "/items": {
      "get": {"summary": "List items", "responses": {"200": {"description": "ok"}}}
    }
  }
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]any
		wantErr bool
	}{
		{name: "none", pairs: nil, want: map[string]any{}},
		{name: "typed scalars", pairs: []string{"limit=10", "deep=true", "q=shoes"}, want: map[string]any{"limit": 10, "deep": true, "q": "shoes"}},
		{name: "empty value", pairs: []string{"q="}, want: map[string]any{"q": ""}},
		{name: "value with equals", pairs: []string{"expr=a=b"}, want: map[string]any{"expr": "a=b"}},
		{name: "missing equals", pairs: []string{"limit"}, wantErr: true},
		{name: "empty key", pairs: []string{"=1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParams(tt.pairs)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseHeaders(t *testing.T) {
	got, err := parseHeaders([]string{"X-Api-Version=2", "Authorization=Bearer a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"X-Api-Version": "2", "Authorization": "Bearer a=b"}, got)

	_, err = parseHeaders([]string{"broken"})
	assert.Error(t, err)
}

func TestNewCatalogService(t *testing.T) {
	t.Run("configured defaults win over the catalog's", func(t *testing.T) {
		cfg := &config.Config{
			CatalogFile: writeFile(t, "catalog.yaml", testCatalog),
			Defaults:    map[string]any{"baseURL": "https://override.example.com"},
		}
		svc, err := newCatalogService(cfg)
		require.NoError(t, err)
		require.Len(t, svc.Endpoints(), 2)

		resolved, err := svc.Resolve("listItems", map[string]any{"limit": 5}, nil)
		require.NoError(t, err)
		assert.Equal(t, "https://override.example.com", resolved.BaseURL())
		assert.Equal(t, "application/json", resolved.Headers()["Accept"])
		assert.Equal(t, map[string]any{"limit": 5}, resolved.Params())
	})

	t.Run("swagger file", func(t *testing.T) {
		cfg := &config.Config{SwaggerFile: writeFile(t, "openapi.json", testSwagger)}
		svc, err := newCatalogService(cfg)
		require.NoError(t, err)

		ep, ok := svc.Lookup("get_items")
		require.True(t, ok)
		assert.Equal(t, "GET", ep.Verb)

		resolved, err := svc.Resolve("get_items", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "https://swagger.example.com", resolved.BaseURL())
	})

	t.Run("missing catalog", func(t *testing.T) {
		cfg := &config.Config{CatalogFile: filepath.Join(t.TempDir(), "missing.yaml")}
		_, err := newCatalogService(cfg)
		assert.Error(t, err)
	})
}

func TestLoadCatalogPrefersCatalogFile(t *testing.T) {
	cfg := &config.Config{
		CatalogFile: writeFile(t, "catalog.yaml", testCatalog),
		SwaggerFile: filepath.Join(t.TempDir(), "never-read.json"),
	}
	cat, err := loadCatalog(cfg, parser.NewSwaggerParser(nil))
	require.NoError(t, err)
	assert.Len(t, cat.Endpoints, 2)
}

func TestServeAppGraph(t *testing.T) {
	cfg := &config.Config{
		CatalogFile: writeFile(t, "catalog.yaml", testCatalog),
		Server:      config.ServerConfig{Mode: config.ServerModeHTTP, Host: "127.0.0.1", Port: 0},
	}
	require.NoError(t, fx.ValidateApp(
		appOptions(cfg),
		server.Module,
		fx.Invoke(watchDefaults, registerServer),
	))
}

func TestRunServerStopsOnShutdown(t *testing.T) {
	cfg := &config.Config{
		CatalogFile: writeFile(t, "catalog.yaml", testCatalog),
		Server: config.ServerConfig{
			Mode:        config.ServerModeHTTP,
			Host:        "127.0.0.1",
			Port:        0,
			Name:        "httpdeco-test",
			MetricsPath: "/metrics",
		},
	}

	var shutdowner fx.Shutdowner
	app := newServeApp(cfg, fx.Populate(&shutdowner))
	require.NoError(t, app.Err())

	errCh := make(chan error, 1)
	go func() {
		errCh <- runServer(context.Background(), app)
	}()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, shutdowner.Shutdown())

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(stopTimeout):
		t.Fatal("server did not stop")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "prf.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "GRIDCODE", cfg.Data.GridIDProperty)
	assert.Equal(t, "STATEFP", cfg.Data.StateCodeProperty)
	assert.True(t, cfg.Data.Index)
	assert.InDelta(t, 39.8333, cfg.Map.CenterLat, 1e-9)
	assert.InDelta(t, -94.5833, cfg.Map.CenterLng, 1e-9)
	assert.Equal(t, 4, cfg.Map.InitialZoom)
	assert.Equal(t, 10, cfg.Map.FocusZoom)
	assert.Equal(t, 10, cfg.Map.GridLabelZoom)
	assert.Equal(t, 8, cfg.Map.CountyLabelZoom)
	assert.Equal(t, 19, cfg.Map.MaxZoom)
	assert.Equal(t, []string{"us"}, cfg.Geocode.CountryCodes)
	assert.InDelta(t, 1.0, cfg.Geocode.RatePerSecond, 1e-9)
	assert.True(t, cfg.Tiles.Enabled)
	assert.Equal(t, 5, cfg.Geocode.Breaker.Failures)
	assert.Equal(t, 30, cfg.Tiles.Breaker.CooldownSecs)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/prf
  pool:
    max_conns: 4
log:
  level: debug
  format: console
server:
  port: 9090
map:
  grid_label_zoom: 12
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, int32(4), cfg.Store.Pool.MaxConns)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 12, cfg.Map.GridLabelZoom)
	// Defaults still apply for unset values
	assert.Equal(t, 8, cfg.Map.CountyLabelZoom)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("PRF_STORE_DRIVER", "postgres")
	t.Setenv("PRF_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PRF_SERVER_PORT", "3000")
	t.Setenv("PRF_GEOCODE_USER_AGENT", "acme-quotes/2.0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "acme-quotes/2.0", cfg.Geocode.UserAgent)
}

func TestLoadBadYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [\n"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

func validDefaults(t *testing.T) *Config {
	t.Helper()
	chdirTemp(t)
	cfg, err := Load()
	require.NoError(t, err)
	return cfg
}

func TestValidateServe_Defaults(t *testing.T) {
	cfg := validDefaults(t)
	assert.NoError(t, cfg.Validate("serve"))
	assert.NoError(t, cfg.Validate("resolve"))
	assert.NoError(t, cfg.Validate("export"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults(t)
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateServe_CollectsAllErrors(t *testing.T) {
	cfg := validDefaults(t)
	cfg.Map.InitialZoom = 25
	cfg.Geocode.RatePerSecond = 0
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "map.initial_zoom")
	assert.Contains(t, err.Error(), "geocode.rate_per_second")
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
}

func TestValidateResolve_MissingPaths(t *testing.T) {
	cfg := validDefaults(t)
	cfg.Data.GridsPath = ""
	cfg.Data.CountiesPath = ""

	err := cfg.Validate("resolve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data.grids_path is required")
	assert.Contains(t, err.Error(), "data.counties_path is required")
}

func TestValidateExport_MissingDSN(t *testing.T) {
	cfg := validDefaults(t)
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("export")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults(t)
	err := cfg.Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

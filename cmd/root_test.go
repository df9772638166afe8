package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/chid93/next-gen-prf/internal/model"
	"github.com/chid93/next-gen-prf/internal/store"
)

const testGrids = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"GRIDCODE":501},
  "geometry":{"type":"Polygon","coordinates":[[[-95,39],[-94,39],[-94,40],[-95,40],[-95,39]]]}}]}`

const testCounties = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"NAME":"Jackson","STATEFP":"29"},
  "geometry":{"type":"Polygon","coordinates":[[[-95,39],[-93,39],[-93,40],[-95,40],[-95,39]]]}}]}`

// setupWorkdir switches into a temp dir holding the test layers and a
// config.yaml pointing at them.
func setupWorkdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck

	require.NoError(t, os.WriteFile(filepath.Join(dir, "grids.geojson"), []byte(testGrids), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "counties.geojson"), []byte(testCounties), 0o644))
	conf := `
log:
  level: error
store:
  driver: sqlite
  database_url: ` + filepath.Join(dir, "prf.db") + `
data:
  grids_path: grids.geojson
  counties_path: counties.geojson
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(conf), 0o644))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"serve", "resolve", "validate", "data", "markers"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "prf", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestDataCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range dataCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["fetch"])
	assert.True(t, names["inspect"])
}

func TestValidateCommand(t *testing.T) {
	setupWorkdir(t)

	tests := []struct {
		field, value, want string
	}{
		{"acres", "200001", "Acres: Max 200,000\n"},
		{"acres", "150", "Acres: ok\n"},
		{"interest", "101", "Insurable Interest: Max 100%\n"},
		{"interest", "5.5", "Insurable Interest: No Decimals\n"},
		{"interest", "", "Insurable Interest: Required\n"},
	}
	for _, tt := range tests {
		t.Run(tt.field+"="+tt.value, func(t *testing.T) {
			out, err := execute(t, "validate", "--field", tt.field, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}

	_, err := execute(t, "validate", "--field", "premium", "1")
	assert.Error(t, err)
}

func TestResolveCommand(t *testing.T) {
	setupWorkdir(t)

	out, err := execute(t, "resolve", "--lat", "39.5", "--lng", "-94.5")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "501", got["grid_id"])
	assert.Equal(t, "Jackson", got["county"])
	assert.Equal(t, "Missouri", got["state"])
	assert.Equal(t, "Marker at 39.500, -94.500<br>Grid ID: 501<br>State: Missouri<br>County: Jackson", got["popup"])

	out, err = execute(t, "resolve", "--lat", "39.5", "--lng", "-93.5")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Nil(t, got["grid_id"])
	assert.Equal(t, "Jackson", got["county"])

	_, err = execute(t, "resolve", "--lat", "120", "--lng", "0")
	assert.Error(t, err)
}

func TestDataInspectCommand(t *testing.T) {
	setupWorkdir(t)

	out, err := execute(t, "data", "inspect")
	require.NoError(t, err)
	assert.Contains(t, out, "LAYER")
	assert.Contains(t, out, "grids")
	assert.Contains(t, out, "counties")
	assert.Contains(t, out, "-95.0000,39.0000,-93.0000,40.0000")
	assert.Contains(t, out, "states: 56")
}

func TestDataFetchCommand(t *testing.T) {
	dir := setupWorkdir(t)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("counties.geojson")
	require.NoError(t, err)
	_, err = w.Write([]byte(testCounties))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(buf.Bytes()) //nolint:errcheck
	}))
	defer srv.Close()

	dest := filepath.Join(dir, "downloads")
	out, err := execute(t, "data", "fetch", "--url", srv.URL+"/counties.zip", "--dest", dest)
	require.NoError(t, err)
	want := filepath.Join(dest, "counties", "counties.geojson")
	assert.Equal(t, want+"\n", out)
	assert.FileExists(t, want)
	assert.NoFileExists(t, filepath.Join(dest, "counties.zip"))
}

func TestMarkersCommands(t *testing.T) {
	dir := setupWorkdir(t)

	ctx := context.Background()
	st, err := store.Open(ctx, store.DriverSQLite, filepath.Join(dir, "prf.db"), nil)
	require.NoError(t, err)
	grid := "501"
	placed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, st.SaveMarker(ctx, "s1", model.Marker{
		Handle: "m1", Lat: 39.5, Lng: -94.5, GridID: &grid,
		Popup: "Marker at 39.500, -94.500", Source: model.SourceClick, CreatedAt: placed,
	}))
	require.NoError(t, st.SaveMarker(ctx, "s1", model.Marker{
		Handle: "m2", Lat: 10, Lng: 10,
		Popup: "Marker at 10.000, 10.000", Source: model.SourceGeocode, CreatedAt: placed.Add(time.Minute),
	}))
	require.NoError(t, st.Close())

	out, err := execute(t, "markers", "list", "--session", "s1")
	require.NoError(t, err)
	assert.Contains(t, out, "39.500")
	assert.Contains(t, out, "501")
	assert.Contains(t, out, "geocode")

	path := filepath.Join(dir, "out.xlsx")
	out, err = execute(t, "markers", "export", "--session", "s1", "--out", path)
	require.NoError(t, err)
	assert.Equal(t, "wrote 2 markers to "+path+"\n", out)

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	assert.Len(t, f.Sheets[0].Rows, 3)

	_, err = execute(t, "markers", "list", "--session", "")
	assert.Error(t, err)
}

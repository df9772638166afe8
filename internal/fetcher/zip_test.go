package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractZIP(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "counties.zip")
	require.NoError(t, os.WriteFile(zipPath, createTestZIP(t, map[string]string{
		"counties.shp":     "shp",
		"counties.dbf":     "dbf",
		"nested/notes.txt": "hi",
	}), 0o644))

	files, err := ExtractZIP(zipPath, filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Len(t, files, 3)

	shp, ok := FindByExt(files, ".SHP")
	require.True(t, ok)
	data, err := os.ReadFile(shp)
	require.NoError(t, err)
	assert.Equal(t, "shp", string(data))

	_, ok = FindByExt(files, ".geojson")
	assert.False(t, ok)
}

func TestExtractZIP_RejectsSlip(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "evil.zip")
	require.NoError(t, os.WriteFile(zipPath, createTestZIP(t, map[string]string{"../escape.txt": "x"}), 0o644))

	_, err := ExtractZIP(zipPath, filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "illegal path")
}

func TestExtractZIP_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.zip")
	require.NoError(t, os.WriteFile(path, []byte("nope"), 0o644))
	_, err := ExtractZIP(path, t.TempDir())
	assert.Error(t, err)
}

func TestFetchDataset_Zip(t *testing.T) {
	archive := createTestZIP(t, map[string]string{
		"tl_2024_us_county.shp": "shp",
		"tl_2024_us_county.dbf": "dbf",
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive) //nolint:errcheck
	}))
	defer srv.Close()

	dest := t.TempDir()
	path, err := FetchDataset(context.Background(), newTestFetcher(), srv.URL+"/tl_2024_us_county.zip", dest)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "tl_2024_us_county", "tl_2024_us_county.shp"), path)

	_, err = os.Stat(filepath.Join(dest, "tl_2024_us_county.zip"))
	assert.True(t, os.IsNotExist(err), "archive removed after extraction")
}

func TestFetchDataset_PlainFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"FeatureCollection","features":[]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	dest := t.TempDir()
	path, err := FetchDataset(context.Background(), newTestFetcher(), srv.URL+"/grids.geojson", dest)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "grids.geojson"), path)
}

func TestFetchDataset_ZipWithoutLayer(t *testing.T) {
	archive := createTestZIP(t, map[string]string{"readme.txt": "x"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := FetchDataset(context.Background(), newTestFetcher(), srv.URL+"/empty.zip", t.TempDir())
	assert.Error(t, err)

	_, err = FetchDataset(context.Background(), newTestFetcher(), srv.URL, t.TempDir())
	assert.Error(t, err, "no file name")
}

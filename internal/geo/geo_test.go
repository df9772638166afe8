package geo

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestLayers(t *testing.T) (*Layer, *Layer) {
	t.Helper()
	grids, err := LoadGeoJSON(filepath.Join("testdata", "grids.geojson"), LayerGrids, DefaultGridIDProperty)
	require.NoError(t, err)
	counties, err := LoadGeoJSON(filepath.Join("testdata", "counties.geojson"), LayerCounties, DefaultCountyNameProperty)
	require.NoError(t, err)
	return grids, counties
}

func newTestResolver(t *testing.T, indexed bool) *Resolver {
	t.Helper()
	grids, counties := loadTestLayers(t)
	if indexed {
		require.NoError(t, grids.BuildIndex())
		require.NoError(t, counties.BuildIndex())
	}
	states, err := DefaultStates()
	require.NoError(t, err)
	return NewResolver(grids, counties, states)
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}

func TestParseGeoJSON_SkipsNonPolygons(t *testing.T) {
	grids, _ := loadTestLayers(t)
	require.Equal(t, 3, grids.Len())
	for i, f := range grids.Features {
		assert.Equal(t, i, f.Index)
	}
	id, ok := grids.Label(grids.Features[0])
	require.True(t, ok)
	assert.Equal(t, "1001", id)
}

func TestParseGeoJSON_Invalid(t *testing.T) {
	_, err := ParseGeoJSON([]byte(`{"type":`), LayerGrids, DefaultGridIDProperty)
	assert.Error(t, err)
}

func TestLoadGeoJSON_MissingFile(t *testing.T) {
	_, err := LoadGeoJSON(filepath.Join(t.TempDir(), "nope.geojson"), LayerGrids, DefaultGridIDProperty)
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		c      Coordinate
		grid   string
		county string
		state  string
	}{
		{"inside both", Coordinate{Lat: 1, Lng: 1}, "1001", "Jackson", "Missouri"},
		{"overlap keeps first grid", Coordinate{Lat: 7, Lng: 7}, "1001", "Jackson", "Missouri"},
		{"second grid only", Coordinate{Lat: 12, Lng: 12}, "1002", "<nil>", "<nil>"},
		{"county hole", Coordinate{Lat: 3, Lng: 3}, "1001", "<nil>", "<nil>"},
		{"outer boundary is inside", Coordinate{Lat: 0, Lng: 5}, "1001", "Jackson", "Missouri"},
		{"vertex is inside", Coordinate{Lat: 10, Lng: 10}, "1001", "Jackson", "Missouri"},
		{"unknown state code", Coordinate{Lat: 25, Lng: 25}, "<nil>", "Nowhere", "<nil>"},
		{"multipolygon second part", Coordinate{Lat: 50.5, Lng: 50.5}, "<nil>", "Split", "California"},
		{"missing state attribute", Coordinate{Lat: 80.5, Lng: 80.5}, "<nil>", "NoState", "<nil>"},
		{"grid without label", Coordinate{Lat: 70.5, Lng: 70.5}, "<nil>", "<nil>", "<nil>"},
		{"nowhere", Coordinate{Lat: -50, Lng: -50}, "<nil>", "<nil>", "<nil>"},
	}

	for _, indexed := range []bool{false, true} {
		r := newTestResolver(t, indexed)
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				res := r.Resolve(tt.c)
				assert.Equal(t, tt.grid, deref(res.GridID), "indexed=%v", indexed)
				assert.Equal(t, tt.county, deref(res.County), "indexed=%v", indexed)
				assert.Equal(t, tt.state, deref(res.State), "indexed=%v", indexed)
			})
		}
	}
}

func TestResolve_NilLayers(t *testing.T) {
	r := NewResolver(nil, nil, nil)
	res := r.Resolve(Coordinate{Lat: 1, Lng: 1})
	assert.Nil(t, res.GridID)
	assert.Nil(t, res.County)
	assert.Nil(t, res.State)
}

func TestResolve_CustomStateProperty(t *testing.T) {
	layer, err := ParseGeoJSON([]byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"NAME":"Kent","ST":"10"},
		 "geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}}]}`),
		LayerCounties, DefaultCountyNameProperty)
	require.NoError(t, err)
	states, err := DefaultStates()
	require.NoError(t, err)

	r := NewResolver(nil, layer, states, WithStateCodeProperty("ST"))
	res := r.Resolve(Coordinate{Lat: 0.5, Lng: 0.5})
	assert.Equal(t, "Delaware", deref(res.State))
}

func TestIndex_CandidatesOrdered(t *testing.T) {
	grids, _ := loadTestLayers(t)
	idx, err := NewIndex(grids.Features)
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Size())

	got := idx.Candidates(Coordinate{Lat: 7, Lng: 7})
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Index)
	assert.Equal(t, 1, got[1].Index)

	assert.Empty(t, idx.Candidates(Coordinate{Lat: -5, Lng: -5}))
}

func TestLayer_Bound(t *testing.T) {
	grids, _ := loadTestLayers(t)
	b := grids.Bound()
	assert.Equal(t, BBox{MinLng: 0, MinLat: 0, MaxLng: 71, MaxLat: 71}, b)

	var empty *Layer
	assert.Equal(t, 0, empty.Len())
	_, ok := empty.Locate(Coordinate{})
	assert.False(t, ok)
}

func TestBBox(t *testing.T) {
	a := BBox{MinLng: 0, MinLat: 0, MaxLng: 10, MaxLat: 10}
	assert.True(t, a.Intersects(BBox{MinLng: 10, MinLat: 10, MaxLng: 20, MaxLat: 20}))
	assert.False(t, a.Intersects(BBox{MinLng: 11, MinLat: 11, MaxLng: 20, MaxLat: 20}))
	assert.True(t, a.Contains(Coordinate{Lat: 10, Lng: 0}))
	assert.Equal(t, Coordinate{Lat: 5, Lng: 5}, a.Center())
	assert.True(t, BBox{}.Empty())
	assert.False(t, a.Empty())
}

func TestCoordinate_Validate(t *testing.T) {
	assert.NoError(t, Coordinate{Lat: 39.8333, Lng: -94.5833}.Validate())
	assert.Error(t, Coordinate{Lat: 91, Lng: 0}.Validate())
	assert.Error(t, Coordinate{Lat: 0, Lng: -181}.Validate())
}

func TestPropertyString(t *testing.T) {
	s, ok := propertyString(float64(1234))
	assert.True(t, ok)
	assert.Equal(t, "1234", s)

	s, ok = propertyString(12.5)
	assert.True(t, ok)
	assert.Equal(t, "12.5", s)

	_, ok = propertyString(nil)
	assert.False(t, ok)

	_, ok = propertyString([]any{1})
	assert.False(t, ok)
}

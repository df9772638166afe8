package mapview

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chid93/next-gen-prf/internal/geo"
	"github.com/chid93/next-gen-prf/internal/model"
)

const testGrids = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"GRIDCODE":501},
  "geometry":{"type":"Polygon","coordinates":[[[-95,39],[-94,39],[-94,40],[-95,40],[-95,39]]]}},
 {"type":"Feature","properties":{"GRIDCODE":502},
  "geometry":{"type":"Polygon","coordinates":[[[-94,39],[-93,39],[-93,40],[-94,40],[-94,39]]]}}]}`

const testCounties = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"NAME":"Jackson","STATEFP":"29"},
  "geometry":{"type":"Polygon","coordinates":[[[-95,39],[-93,39],[-93,40],[-95,40],[-95,39]]]}}]}`

func newTestResolver(t *testing.T) *geo.Resolver {
	t.Helper()
	grids, err := geo.ParseGeoJSON([]byte(testGrids), geo.LayerGrids, geo.DefaultGridIDProperty)
	require.NoError(t, err)
	counties, err := geo.ParseGeoJSON([]byte(testCounties), geo.LayerCounties, geo.DefaultCountyNameProperty)
	require.NoError(t, err)
	states, err := geo.DefaultStates()
	require.NoError(t, err)
	return geo.NewResolver(grids, counties, states)
}

func newTestSession(t *testing.T) (*Session, *CommandQueue) {
	t.Helper()
	q := NewCommandQueue()
	m := NewManager(newTestResolver(t), DefaultOptions())
	s := m.Open(q)
	return s, q
}

func kinds(cmds []Command) []CommandKind {
	out := make([]CommandKind, len(cmds))
	for i, c := range cmds {
		out[i] = c.Kind
	}
	return out
}

func TestOpen_SetsInitialView(t *testing.T) {
	s, q := newTestSession(t)
	cmds := q.Drain()
	require.Len(t, cmds, 1, "no labels visible at zoom 4")
	assert.Equal(t, CmdSetView, cmds[0].Kind)
	assert.Equal(t, 4, cmds[0].Zoom)
	assert.Equal(t, geo.Coordinate{Lat: 39.8333, Lng: -94.5833}, *cmds[0].Center)
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, 19, s.Tiles().MaxZoom)
}

func TestHandleClick_ResolvesAndOpensPopup(t *testing.T) {
	s, q := newTestSession(t)
	q.Drain()

	m, err := s.HandleClick(geo.Coordinate{Lat: 39.5, Lng: -94.5})
	require.NoError(t, err)
	require.NotNil(t, m.GridID)
	assert.Equal(t, "501", *m.GridID)
	require.NotNil(t, m.State)
	assert.Equal(t, "Missouri", *m.State)
	assert.Equal(t, "Marker at 39.500, -94.500<br>Grid ID: 501<br>State: Missouri<br>County: Jackson", m.Popup)

	cmds := q.Drain()
	require.Len(t, cmds, 1)
	assert.Equal(t, CmdAddMarker, cmds[0].Kind)
	assert.True(t, cmds[0].PopupOpen)
	assert.Equal(t, m.Handle, cmds[0].Marker.Handle)
	assert.Len(t, s.Markers(), 1)
}

func TestHandleClick_Outside(t *testing.T) {
	s, _ := newTestSession(t)
	m, err := s.HandleClick(geo.Coordinate{Lat: 10, Lng: 10})
	require.NoError(t, err)
	assert.Nil(t, m.GridID)
	assert.Nil(t, m.County)
	assert.Nil(t, m.State)
	assert.Equal(t, "Marker at 10.000, 10.000", m.Popup)
}

func TestHandleGeocode_FitsBounds(t *testing.T) {
	s, q := newTestSession(t)
	q.Drain()

	bbox := geo.BBox{MinLng: -94.2, MinLat: 39.1, MaxLng: -93.8, MaxLat: 39.3}
	m, err := s.HandleGeocode(GeocodeHit{Name: "Somewhere", Center: geo.Coordinate{Lat: 39.2, Lng: -93.5}, BBox: &bbox})
	require.NoError(t, err)
	assert.Equal(t, "502", *m.GridID)
	assert.Equal(t, "geocode", m.Source)

	cmds := q.Drain()
	assert.Equal(t, []CommandKind{CmdAddMarker, CmdFitBounds}, kinds(cmds))
	assert.Equal(t, bbox, *cmds[1].Bounds)

	_, err = s.HandleGeocode(GeocodeHit{Center: geo.Coordinate{Lat: 1, Lng: 1}})
	require.NoError(t, err)
	assert.Equal(t, []CommandKind{CmdAddMarker}, kinds(q.Drain()))
}

// closingView closes its session from another goroutine as soon as a
// marker is added.
type closingView struct {
	*CommandQueue
	s    *Session
	done chan struct{}
}

func (v *closingView) AddMarker(m model.Marker, popupOpen bool) {
	v.CommandQueue.AddMarker(m, popupOpen)
	if v.s != nil {
		go func() {
			v.s.close()
			close(v.done)
		}()
	}
}

func TestHandleGeocode_AppliedAtomically(t *testing.T) {
	view := &closingView{CommandQueue: NewCommandQueue(), done: make(chan struct{})}
	s := NewManager(newTestResolver(t), DefaultOptions()).Open(view)
	view.Drain()
	view.s = s

	bbox := geo.BBox{MinLng: -94.2, MinLat: 39.1, MaxLng: -93.8, MaxLat: 39.3}
	_, err := s.HandleGeocode(GeocodeHit{Center: geo.Coordinate{Lat: 39.2, Lng: -93.5}, BBox: &bbox})
	require.NoError(t, err)
	<-view.done

	assert.Equal(t, []CommandKind{CmdAddMarker, CmdFitBounds, CmdRemoveMarker}, kinds(view.Drain()))
}

func TestSetViewCommand_KeepsZoomZero(t *testing.T) {
	q := NewCommandQueue()
	q.SetView(geo.Coordinate{}, 0)
	data, err := json.Marshal(q.Drain()[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"zoom":0`)
}

func TestAddThenDeleteRestoresList(t *testing.T) {
	s, q := newTestSession(t)
	first, err := s.HandleClick(geo.Coordinate{Lat: 39.5, Lng: -94.5})
	require.NoError(t, err)
	before := s.Markers()
	q.Drain()

	m, err := s.AddMarker(geo.Coordinate{Lat: 39.5, Lng: -93.5}, geo.Resolution{})
	require.NoError(t, err)
	assert.Equal(t, model.SourceManual, m.Source)
	assert.Len(t, s.Markers(), 2)

	assert.True(t, s.DeleteMarker(m.Handle))
	assert.Equal(t, before, s.Markers())
	assert.Equal(t, first.Handle, s.Markers()[0].Handle)

	cmds := q.Drain()
	assert.Equal(t, []CommandKind{CmdAddMarker, CmdRemoveMarker}, kinds(cmds))
	assert.Equal(t, m.Handle, cmds[1].Handle)
}

func TestDeleteUnknownHandle(t *testing.T) {
	s, q := newTestSession(t)
	_, err := s.HandleClick(geo.Coordinate{Lat: 39.5, Lng: -94.5})
	require.NoError(t, err)
	q.Drain()

	assert.False(t, s.DeleteMarker("missing"))
	assert.Len(t, s.Markers(), 1)
	assert.Equal(t, 0, q.Len())
}

func TestDeleteKeepsOrder(t *testing.T) {
	s, _ := newTestSession(t)
	var handles []string
	for i := 0; i < 3; i++ {
		m, err := s.HandleClick(geo.Coordinate{Lat: 39.5, Lng: -94.5 + float64(i)*0.1})
		require.NoError(t, err)
		handles = append(handles, m.Handle)
	}

	require.True(t, s.DeleteMarker(handles[1]))
	got := s.Markers()
	require.Len(t, got, 2)
	assert.Equal(t, handles[0], got[0].Handle)
	assert.Equal(t, handles[2], got[1].Handle)
}

func TestFocus(t *testing.T) {
	s, q := newTestSession(t)
	m, err := s.HandleClick(geo.Coordinate{Lat: 39.5, Lng: -94.5})
	require.NoError(t, err)
	q.Drain()

	ok, err := s.Focus(m.Handle)
	require.NoError(t, err)
	assert.True(t, ok)

	cmds := q.Drain()
	require.Len(t, cmds, 1)
	assert.Equal(t, CmdSetView, cmds[0].Kind)
	assert.Equal(t, 10, cmds[0].Zoom)
	assert.Equal(t, geo.Coordinate{Lat: 39.5, Lng: -94.5}, *cmds[0].Center)
	assert.Len(t, s.Markers(), 1)

	ok, err = s.Focus("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHandleViewport_LabelTransitions(t *testing.T) {
	s, q := newTestSession(t)
	q.Drain()
	view := geo.BBox{MinLng: -94.9, MinLat: 39.1, MaxLng: -94.1, MaxLat: 39.9}

	require.NoError(t, s.HandleViewport(Viewport{Zoom: 8, Bounds: view}))
	assert.Empty(t, q.Drain(), "county threshold is exclusive")

	require.NoError(t, s.HandleViewport(Viewport{Zoom: 9, Bounds: view}))
	cmds := q.Drain()
	require.Equal(t, []CommandKind{CmdShowLabel}, kinds(cmds))
	assert.Equal(t, "Jackson", cmds[0].Label.Text)
	assert.Equal(t, geo.Coordinate{Lat: 39.5, Lng: -94}, cmds[0].Label.Anchor)

	require.NoError(t, s.HandleViewport(Viewport{Zoom: 11, Bounds: view}))
	cmds = q.Drain()
	require.Equal(t, []CommandKind{CmdShowLabel}, kinds(cmds), "only grid 501 intersects")
	assert.Equal(t, "501", cmds[0].Label.Text)
	assert.Equal(t, "grids/0", cmds[0].LabelID)
	assert.ElementsMatch(t, []string{"grids/0", "counties/0"}, s.VisibleLabels())

	require.NoError(t, s.HandleViewport(Viewport{Zoom: 11, Bounds: view}))
	assert.Empty(t, q.Drain(), "no transition, no command")

	require.NoError(t, s.HandleViewport(Viewport{Zoom: 7, Bounds: view}))
	assert.Equal(t, []CommandKind{CmdHideLabel, CmdHideLabel}, kinds(q.Drain()))
	assert.Equal(t, 7, s.Viewport().Zoom)
}

func TestLabelPolicy_Visible(t *testing.T) {
	r := newTestResolver(t)
	p := LabelPolicy{Layer: r.Grids(), MinZoom: 10}
	f := r.Grids().Features[0]
	inside := geo.BBox{MinLng: -94.6, MinLat: 39.4, MaxLng: -94.4, MaxLat: 39.6}
	away := geo.BBox{MinLng: 0, MinLat: 0, MaxLng: 1, MaxLat: 1}

	assert.False(t, p.Visible(f, Viewport{Zoom: 10, Bounds: inside}))
	assert.True(t, p.Visible(f, Viewport{Zoom: 11, Bounds: inside}))
	assert.False(t, p.Visible(f, Viewport{Zoom: 11, Bounds: away}))
	assert.False(t, p.Visible(f, Viewport{Zoom: 18}))
}

func TestPopupText(t *testing.T) {
	grid := "7"
	assert.Equal(t, "Marker at 1.235, -2.000<br>Grid ID: 7",
		PopupText(geo.Coordinate{Lat: 1.2349, Lng: -2}, geo.Resolution{GridID: &grid}))
}

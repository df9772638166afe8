// Package mapview models a map session: the marker list, the label
// policy and the commands sent to a View.
package mapview

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/chid93/next-gen-prf/internal/geo"
	"github.com/chid93/next-gen-prf/internal/model"
)

// ErrSessionClosed is returned by operations on a closed session.
var ErrSessionClosed = eris.New("mapview: session closed")

// TileLayer is the basemap the client renders.
type TileLayer struct {
	URLTemplate string `json:"url_template"`
	MaxZoom     int    `json:"max_zoom"`
	Attribution string `json:"attribution"`
}

// Options configures new sessions.
type Options struct {
	Center      geo.Coordinate
	InitialZoom int
	FocusZoom   int
	Tiles       TileLayer
	// GridLabelZoom and CountyLabelZoom are exclusive thresholds.
	GridLabelZoom   int
	CountyLabelZoom int
}

// DefaultOptions returns the continental US view.
func DefaultOptions() Options {
	return Options{
		Center:      geo.Coordinate{Lat: 39.8333, Lng: -94.5833},
		InitialZoom: 4,
		FocusZoom:   10,
		Tiles: TileLayer{
			URLTemplate: "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
			MaxZoom:     19,
			Attribution: "&copy; OpenStreetMap contributors",
		},
		GridLabelZoom:   10,
		CountyLabelZoom: 8,
	}
}

// GeocodeHit is a place picked from geocoder results.
type GeocodeHit struct {
	Name   string
	Center geo.Coordinate
	BBox   *geo.BBox
}

// Session owns one map: its tile layer, both polygon layers with their
// labels, and the marker list. Every method applies one event atomically.
type Session struct {
	mu       sync.Mutex
	id       string
	resolver *geo.Resolver
	view     View
	opts     Options
	policies []LabelPolicy
	markers  []model.Marker
	labels   map[string]bool
	viewport Viewport
	opened   time.Time
	closed   bool
	now      func() time.Time
}

func newSession(id string, resolver *geo.Resolver, view View, opts Options) *Session {
	s := &Session{
		id:       id,
		resolver: resolver,
		view:     view,
		opts:     opts,
		labels:   make(map[string]bool),
		viewport: Viewport{Zoom: opts.InitialZoom},
		now:      time.Now,
	}
	if g := resolver.Grids(); g != nil {
		s.policies = append(s.policies, LabelPolicy{Layer: g, MinZoom: opts.GridLabelZoom})
	}
	if c := resolver.Counties(); c != nil {
		s.policies = append(s.policies, LabelPolicy{Layer: c, MinZoom: opts.CountyLabelZoom})
	}
	return s
}

// open centres the view and runs the first label pass.
func (s *Session) open() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = s.now().UTC()
	s.view.SetView(s.opts.Center, s.opts.InitialZoom)
	s.updateLabels()
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// View returns the command sink.
func (s *Session) View() View { return s.view }

// Tiles returns the basemap layer settings.
func (s *Session) Tiles() TileLayer { return s.opts.Tiles }

// OpenedAt returns when the session was opened.
func (s *Session) OpenedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened
}

// HandleClick resolves c and places a marker there.
func (s *Session) HandleClick(c geo.Coordinate) (model.Marker, error) {
	res := s.resolver.Resolve(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addMarkerLocked(c, res, model.SourceClick)
}

// HandleGeocode places a marker at the hit's centre and fits the view to
// its bounding box when one is known.
func (s *Session) HandleGeocode(hit GeocodeHit) (model.Marker, error) {
	res := s.resolver.Resolve(hit.Center)
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.addMarkerLocked(hit.Center, res, model.SourceGeocode)
	if err != nil {
		return m, err
	}
	if hit.BBox != nil {
		s.view.FitBounds(*hit.BBox)
	}
	return m, nil
}

// AddMarker places a marker with an already computed resolution. The
// popup opens immediately.
func (s *Session) AddMarker(c geo.Coordinate, res geo.Resolution) (model.Marker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addMarkerLocked(c, res, model.SourceManual)
}

// addMarkerLocked adds the marker to the view and the list. Caller holds s.mu.
func (s *Session) addMarkerLocked(c geo.Coordinate, res geo.Resolution, source string) (model.Marker, error) {
	if s.closed {
		return model.Marker{}, ErrSessionClosed
	}

	m := model.Marker{
		Handle:    uuid.NewString(),
		Lat:       c.Lat,
		Lng:       c.Lng,
		GridID:    res.GridID,
		State:     res.State,
		County:    res.County,
		Popup:     PopupText(c, res),
		Source:    source,
		CreatedAt: s.now().UTC(),
	}
	s.view.AddMarker(m, true)
	s.markers = append(s.markers, m)
	return m, nil
}

// DeleteMarker removes the marker with handle from the view and the list.
// An unknown handle changes nothing and returns false.
func (s *Session) DeleteMarker(handle string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	for i, m := range s.markers {
		if m.Handle != handle {
			continue
		}
		s.view.RemoveMarker(handle)
		s.markers = append(s.markers[:i:i], s.markers[i+1:]...)
		return true
	}
	return false
}

// FocusOnMarker recentres the view on c at the focus zoom.
func (s *Session) FocusOnMarker(c geo.Coordinate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.view.SetView(c, s.opts.FocusZoom)
	return nil
}

// Focus recentres on the marker with handle.
func (s *Session) Focus(handle string) (bool, error) {
	m, ok := s.Marker(handle)
	if !ok {
		return false, nil
	}
	return true, s.FocusOnMarker(geo.Coordinate{Lat: m.Lat, Lng: m.Lng})
}

// HandleViewport records a zoom-end or move-end and updates labels.
func (s *Session) HandleViewport(vp Viewport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.viewport = vp
	s.updateLabels()
	return nil
}

// Viewport returns the last reported viewport.
func (s *Session) Viewport() Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport
}

// Markers returns a copy of the marker list in insertion order.
func (s *Session) Markers() []model.Marker {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Marker, len(s.markers))
	copy(out, s.markers)
	return out
}

// Marker returns the marker with handle.
func (s *Session) Marker(handle string) (model.Marker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.markers {
		if m.Handle == handle {
			return m, true
		}
	}
	return model.Marker{}, false
}

// VisibleLabels returns the ids of labels currently shown.
func (s *Session) VisibleLabels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.labels))
	for id, on := range s.labels {
		if on {
			out = append(out, id)
		}
	}
	return out
}

// restore re-adds markers loaded from storage without new handles.
func (s *Session) restore(markers []model.Marker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range markers {
		s.view.AddMarker(m, false)
		s.markers = append(s.markers, m)
	}
}

// close removes every marker and label from the view.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, m := range s.markers {
		s.view.RemoveMarker(m.Handle)
	}
	for id, on := range s.labels {
		if on {
			s.view.HideLabel(id)
		}
	}
	s.markers = nil
	s.labels = map[string]bool{}
	s.closed = true
}

// updateLabels re-evaluates every feature label against the current
// viewport and sends only transitions. Caller holds s.mu.
func (s *Session) updateLabels() {
	for _, p := range s.policies {
		for _, f := range p.Layer.Features {
			l, ok := p.label(f)
			if !ok {
				continue
			}
			want := p.Visible(f, s.viewport)
			if s.labels[l.ID] == want {
				continue
			}
			s.labels[l.ID] = want
			if want {
				s.view.ShowLabel(l)
			} else {
				s.view.HideLabel(l.ID)
			}
		}
	}
}

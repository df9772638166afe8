package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/chid93/next-gen-prf/internal/export"
	"github.com/chid93/next-gen-prf/internal/geo"
	"github.com/chid93/next-gen-prf/internal/mapview"
	"github.com/chid93/next-gen-prf/internal/model"
)

type openSessionRequest struct {
	// ID reopens a previous session and replays its stored markers.
	ID string `json:"id" validate:"omitempty,uuid"`
}

type sessionResponse struct {
	ID       string            `json:"id"`
	Tiles    mapview.TileLayer `json:"tiles"`
	Markers  []model.Marker    `json:"markers"`
	Commands []mapview.Command `json:"commands"`
}

type markerResponse struct {
	Marker   model.Marker      `json:"marker"`
	Commands []mapview.Command `json:"commands"`
}

type geocodeResponse struct {
	Marker   model.Marker       `json:"marker"`
	Picked   int                `json:"picked"`
	Results  []geocodeCandidate `json:"results"`
	Commands []mapview.Command  `json:"commands"`
}

type geocodeCandidate struct {
	Name   string         `json:"name"`
	Center geo.Coordinate `json:"center"`
	BBox   *geo.BBox      `json:"bbox,omitempty"`
}

type commandsResponse struct {
	Commands []mapview.Command `json:"commands"`
}

type coordinateRequest struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
}

type geocodeRequest struct {
	Query string `json:"query" validate:"required,max=500"`
	Pick  int    `json:"pick" validate:"gte=0"`
}

type boundsRequest struct {
	MinLng float64 `json:"min_lng" validate:"gte=-180,lte=180"`
	MinLat float64 `json:"min_lat" validate:"gte=-90,lte=90"`
	MaxLng float64 `json:"max_lng" validate:"gte=-180,lte=180,gtefield=MinLng"`
	MaxLat float64 `json:"max_lat" validate:"gte=-90,lte=90,gtefield=MinLat"`
}

type viewportRequest struct {
	Zoom   *int          `json:"zoom" validate:"required,gte=0,lte=19"`
	Bounds boundsRequest `json:"bounds"`
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if r.ContentLength != 0 {
		if !s.decode(w, r, &req) {
			return
		}
	}

	view := mapview.NewCommandQueue()
	var sess *mapview.Session
	if req.ID == "" {
		sess = s.deps.Sessions.Open(view)
	} else {
		markers, err := s.storedMarkers(r.Context(), req.ID)
		if err != nil {
			zap.L().Error("server: load session markers", zap.String("session_id", req.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "could not load session")
			return
		}
		sess = s.deps.Sessions.OpenWithID(req.ID, view, markers)
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		ID:       sess.ID(),
		Tiles:    sess.Tiles(),
		Markers:  sess.Markers(),
		Commands: drain(sess),
	})
}

func (s *Server) storedMarkers(ctx context.Context, id string) ([]model.Marker, error) {
	if s.deps.Store == nil {
		return nil, nil
	}
	return s.deps.Store.ListMarkers(ctx, id)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		ID:       sess.ID(),
		Tiles:    sess.Tiles(),
		Markers:  sess.Markers(),
		Commands: drain(sess),
	})
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if !s.deps.Sessions.Close(chi.URLParam(r, "session")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req coordinateRequest
	if !s.decode(w, r, &req) {
		return
	}

	m, err := sess.HandleClick(geo.Coordinate{Lat: *req.Lat, Lng: *req.Lng})
	if err != nil {
		writeSessionError(w, err)
		return
	}
	s.saveMarker(r.Context(), sess.ID(), m)
	writeJSON(w, http.StatusCreated, markerResponse{Marker: m, Commands: drain(sess)})
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if s.deps.Geocoder == nil {
		writeError(w, http.StatusNotImplemented, "geocoding is not configured")
		return
	}
	var req geocodeRequest
	if !s.decode(w, r, &req) {
		return
	}

	results, err := s.deps.Geocoder.Search(r.Context(), req.Query)
	if err != nil {
		zap.L().Warn("server: geocode failed", zap.String("query", req.Query), zap.Error(err))
		writeError(w, http.StatusBadGateway, "geocoder unavailable")
		return
	}
	if len(results) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "no results for query")
		return
	}
	if req.Pick >= len(results) {
		writeError(w, http.StatusUnprocessableEntity, "pick is out of range")
		return
	}

	candidates := make([]geocodeCandidate, len(results))
	for i, res := range results {
		candidates[i] = geocodeCandidate{
			Name:   res.DisplayName,
			Center: geo.Coordinate{Lat: res.Latitude, Lng: res.Longitude},
		}
		if bb := res.BoundingBox; bb != nil {
			candidates[i].BBox = &geo.BBox{MinLng: bb.MinLng, MinLat: bb.MinLat, MaxLng: bb.MaxLng, MaxLat: bb.MaxLat}
		}
	}

	picked := candidates[req.Pick]
	m, err := sess.HandleGeocode(mapview.GeocodeHit{Name: picked.Name, Center: picked.Center, BBox: picked.BBox})
	if err != nil {
		writeSessionError(w, err)
		return
	}
	s.saveMarker(r.Context(), sess.ID(), m)
	writeJSON(w, http.StatusCreated, geocodeResponse{
		Marker:   m,
		Picked:   req.Pick,
		Results:  candidates,
		Commands: drain(sess),
	})
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req viewportRequest
	if !s.decode(w, r, &req) {
		return
	}

	vp := mapview.Viewport{
		Zoom: *req.Zoom,
		Bounds: geo.BBox{
			MinLng: req.Bounds.MinLng,
			MinLat: req.Bounds.MinLat,
			MaxLng: req.Bounds.MaxLng,
			MaxLat: req.Bounds.MaxLat,
		},
	}
	if err := sess.HandleViewport(vp); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, commandsResponse{Commands: drain(sess)})
}

func (s *Server) handleListMarkers(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.Marker{"markers": sess.Markers()})
}

func (s *Server) handleDeleteMarker(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	handle := chi.URLParam(r, "handle")
	// An unknown handle is a no-op: 200 with no commands.
	if !sess.DeleteMarker(handle) {
		writeJSON(w, http.StatusOK, commandsResponse{Commands: drain(sess)})
		return
	}
	if s.deps.Store != nil {
		if err := s.deps.Store.DeleteMarker(r.Context(), sess.ID(), handle); err != nil {
			zap.L().Warn("server: delete stored marker",
				zap.String("session_id", sess.ID()),
				zap.String("handle", handle),
				zap.Error(err),
			)
		}
	}
	writeJSON(w, http.StatusOK, commandsResponse{Commands: drain(sess)})
}

func (s *Server) handleFocusMarker(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	found, err := sess.Focus(chi.URLParam(r, "handle"))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "marker not found")
		return
	}
	writeJSON(w, http.StatusOK, commandsResponse{Commands: drain(sess)})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	f, err := export.BuildMarkersXLSX(sess.Markers())
	if err != nil {
		zap.L().Error("server: build export", zap.String("session_id", sess.ID()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="markers-`+sess.ID()+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if err := f.Write(w); err != nil {
		zap.L().Warn("server: write export", zap.Error(err))
	}
}

// session looks up the {session} path parameter, writing 404 when absent.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*mapview.Session, bool) {
	sess, ok := s.deps.Sessions.Get(chi.URLParam(r, "session"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

// saveMarker persists m. The marker stays on the map when this fails.
func (s *Server) saveMarker(ctx context.Context, sessionID string, m model.Marker) {
	if s.deps.Store == nil {
		return
	}
	if err := s.deps.Store.SaveMarker(ctx, sessionID, m); err != nil {
		zap.L().Warn("server: save marker",
			zap.String("session_id", sessionID),
			zap.String("handle", m.Handle),
			zap.Error(err),
		)
	}
}

func writeSessionError(w http.ResponseWriter, err error) {
	if eris.Is(err, mapview.ErrSessionClosed) {
		writeError(w, http.StatusGone, "session closed")
		return
	}
	zap.L().Error("server: session operation", zap.Error(err))
	writeError(w, http.StatusInternalServerError, eris.Cause(err).Error())
}

// drain returns the commands buffered for the session's client.
func drain(sess *mapview.Session) []mapview.Command {
	if d, ok := sess.View().(mapview.Drainer); ok {
		return d.Drain()
	}
	return []mapview.Command{}
}

package server

import (
	"net/http"
	"strconv"

	"github.com/chid93/next-gen-prf/internal/geo"
	"github.com/chid93/next-gen-prf/internal/model"
	"github.com/chid93/next-gen-prf/internal/quote"
)

type resolveResponse struct {
	geo.Coordinate
	geo.Resolution
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, err2 := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "lat and lng must be numbers")
		return
	}
	c := geo.Coordinate{Lat: lat, Lng: lng}
	if err := c.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resolveResponse{Coordinate: c, Resolution: s.deps.Resolver.Resolve(c)})
}

type validateRequest struct {
	Field string `json:"field" validate:"required,oneof=interest acres"`
	Value string `json:"value"`
}

type validateResponse struct {
	Field string `json:"field"`
	Value string `json:"value"`
	model.FieldError
}

// handleValidate checks a value without touching any tab.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !s.decode(w, r, &req) {
		return
	}
	spec, _ := quote.SpecFor(quote.FieldName(req.Field))
	writeJSON(w, http.StatusOK, validateResponse{
		Field:      req.Field,
		Value:      req.Value,
		FieldError: spec.Validate(req.Value),
	})
}

package model

import "time"

// Marker is a point placed on the map by a click or a geocode result.
// Region fields are nil when the point falls outside every feature of
// the corresponding layer.
type Marker struct {
	Handle    string    `json:"handle"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	GridID    *string   `json:"grid_id"`
	State     *string   `json:"state"`
	County    *string   `json:"county"`
	Popup     string    `json:"popup"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Marker sources.
const (
	SourceClick   = "click"
	SourceGeocode = "geocode"
	SourceManual  = "manual"
)

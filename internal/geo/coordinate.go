// Package geo resolves WGS84 coordinates against static polygon layers
// (grids, counties) and maps state codes to display names.
package geo

import (
	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
)

// Coordinate is a WGS84 latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point returns the coordinate as an orb point (x = lng, y = lat).
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lng, c.Lat}
}

// Validate rejects coordinates outside the WGS84 range.
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return eris.Errorf("geo: latitude %v out of range", c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return eris.Errorf("geo: longitude %v out of range", c.Lng)
	}
	return nil
}

// BBox represents a geographic bounding box.
type BBox struct {
	MinLng float64 `json:"min_lng"`
	MinLat float64 `json:"min_lat"`
	MaxLng float64 `json:"max_lng"`
	MaxLat float64 `json:"max_lat"`
}

// BBoxFromBound converts an orb bound.
func BBoxFromBound(b orb.Bound) BBox {
	return BBox{MinLng: b.Min[0], MinLat: b.Min[1], MaxLng: b.Max[0], MaxLat: b.Max[1]}
}

// Bound converts the box to an orb bound.
func (b BBox) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.MinLng, b.MinLat}, Max: orb.Point{b.MaxLng, b.MaxLat}}
}

// Intersects reports whether the boxes overlap. Touching edges count.
func (b BBox) Intersects(o BBox) bool {
	return b.Bound().Intersects(o.Bound())
}

// Contains reports whether c lies inside or on the edge of the box.
func (b BBox) Contains(c Coordinate) bool {
	return b.Bound().Contains(c.Point())
}

// Center returns the midpoint of the box.
func (b BBox) Center() Coordinate {
	p := b.Bound().Center()
	return Coordinate{Lat: p[1], Lng: p[0]}
}

// Empty reports whether the box is unset.
func (b BBox) Empty() bool {
	return b == BBox{}
}

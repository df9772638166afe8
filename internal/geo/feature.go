package geo

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Feature is one polygonal region of a layer with its string attributes.
type Feature struct {
	// Index is the position of the feature in its source file. Lookups
	// that match several features return the lowest index.
	Index      int
	Geometry   orb.Geometry
	Properties map[string]string
	Bound      BBox
}

// NewFeature wraps a Polygon or MultiPolygon geometry. Any other geometry
// yields nil.
func NewFeature(index int, g orb.Geometry, props map[string]string) *Feature {
	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon:
	default:
		return nil
	}
	if props == nil {
		props = map[string]string{}
	}
	return &Feature{
		Index:      index,
		Geometry:   g,
		Properties: props,
		Bound:      BBoxFromBound(g.Bound()),
	}
}

// Property returns the named attribute. A missing attribute returns
// ok=false; an attribute present with an empty value returns ok=true.
func (f *Feature) Property(key string) (string, bool) {
	v, ok := f.Properties[key]
	return v, ok
}

// Contains reports whether c lies within the feature. Points on an outer
// ring boundary are inside; points inside a hole are outside.
func (f *Feature) Contains(c Coordinate) bool {
	if !f.Bound.Contains(c) {
		return false
	}
	pt := c.Point()
	switch g := f.Geometry.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, pt)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, pt)
	}
	return false
}

// propertyString renders a decoded attribute value as label text. Whole
// numbers drop their fractional part so GRIDCODE 1234 reads "1234".
func propertyString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

func trimAttribute(s string) string {
	return strings.TrimSpace(strings.Trim(s, "\x00"))
}

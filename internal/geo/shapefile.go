package geo

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// LoadShapefile reads a polygon shapefile (TIGER county boundaries and
// similar) into a layer. Every DBF attribute becomes a feature property.
func LoadShapefile(path, name, labelProperty string) (*Layer, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = trimAttribute(f.String())
	}
	if idx := fieldIndex(names, labelProperty); idx >= 0 {
		labelProperty = names[idx]
	} else if labelProperty != "" {
		zap.L().Warn("geo: label field not found in shapefile",
			zap.String("path", path),
			zap.String("field", labelProperty),
		)
	}

	var features []*Feature
	var skipped int
	for reader.Next() {
		n, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok || poly == nil {
			skipped++
			continue
		}
		mp := polygonToMultiPolygon(poly)
		if len(mp) == 0 {
			skipped++
			continue
		}

		props := make(map[string]string, len(names))
		for i, fieldName := range names {
			props[fieldName] = trimAttribute(reader.Attribute(i))
		}

		var g orb.Geometry = mp
		if len(mp) == 1 {
			g = mp[0]
		}
		if f := NewFeature(n, g, props); f != nil {
			features = append(features, f)
		}
	}

	if skipped > 0 {
		zap.L().Debug("geo: skipped non-polygon shapes",
			zap.String("layer", name),
			zap.Int("skipped", skipped),
		)
	}
	return NewLayer(name, labelProperty, features), nil
}

// polygonToMultiPolygon splits shapefile parts into polygons. Shapefile
// outer rings wind clockwise; a counter-clockwise ring is a hole of the
// most recent outer ring.
func polygonToMultiPolygon(p *shp.Polygon) orb.MultiPolygon {
	var mp orb.MultiPolygon
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := p.NumPoints
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if end-start < 3 {
			continue
		}

		ring := make(orb.Ring, 0, end-start+1)
		for _, pt := range p.Points[start:end] {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}
		if !ring.Closed() {
			ring = append(ring, ring[0])
		}

		if ring.Orientation() == orb.CCW && len(mp) > 0 {
			last := len(mp) - 1
			mp[last] = append(mp[last], ring)
			continue
		}
		mp = append(mp, orb.Polygon{ring})
	}
	return mp
}

// fieldIndex returns the index of the named DBF field, or -1.
func fieldIndex(fields []string, name string) int {
	for i, f := range fields {
		if strings.EqualFold(f, name) {
			return i
		}
	}
	return -1
}

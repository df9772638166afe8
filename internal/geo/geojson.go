package geo

import (
	"os"

	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// LoadGeoJSON reads a FeatureCollection file into a layer.
func LoadGeoJSON(path, name, labelProperty string) (*Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: read %s", path)
	}
	layer, err := ParseGeoJSON(data, name, labelProperty)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: load %s", path)
	}
	return layer, nil
}

// ParseGeoJSON decodes a FeatureCollection into a layer. Features without
// polygonal geometry are skipped; the remaining features keep file order.
func ParseGeoJSON(data []byte, name, labelProperty string) (*Layer, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, eris.Wrap(err, "geo: decode feature collection")
	}

	features := make([]*Feature, 0, len(fc.Features))
	var skipped int
	for i, gf := range fc.Features {
		props := make(map[string]string, len(gf.Properties))
		for k, v := range gf.Properties {
			if s, ok := propertyString(v); ok {
				props[k] = s
			}
		}
		f := NewFeature(i, gf.Geometry, props)
		if f == nil {
			skipped++
			continue
		}
		features = append(features, f)
	}

	if skipped > 0 {
		zap.L().Debug("geo: skipped non-polygon features",
			zap.String("layer", name),
			zap.Int("skipped", skipped),
		)
	}
	return NewLayer(name, labelProperty, features), nil
}

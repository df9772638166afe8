package store

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/chid93/next-gen-prf/internal/model"
)

const srid = 4326

// encodePoint returns EWKB for a WGS84 point.
func encodePoint(lat, lng float64) ([]byte, error) {
	p := geom.NewPointFlat(geom.XY, []float64{lng, lat}).SetSRID(srid)
	data, err := ewkb.Marshal(p, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "store: encode point")
	}
	return data, nil
}

// decodePoint parses EWKB written by encodePoint.
func decodePoint(data []byte) (lat, lng float64, err error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return 0, 0, eris.Wrap(err, "store: decode point")
	}
	p, ok := g.(*geom.Point)
	if !ok {
		return 0, 0, eris.Errorf("store: expected point, got %T", g)
	}
	return p.Y(), p.X(), nil
}

func encodeFieldError(fe model.FieldError) (string, error) {
	data, err := json.Marshal(fe)
	if err != nil {
		return "", eris.Wrap(err, "store: marshal field error")
	}
	return string(data), nil
}

func decodeFieldError(s string) (model.FieldError, error) {
	var fe model.FieldError
	if s == "" {
		return fe, nil
	}
	if err := json.Unmarshal([]byte(s), &fe); err != nil {
		return fe, eris.Wrap(err, "store: unmarshal field error")
	}
	return fe, nil
}

package mapview

import (
	"strconv"

	"github.com/chid93/next-gen-prf/internal/geo"
)

// Label is a text marker anchored at a feature's bounding-box centre.
type Label struct {
	ID     string         `json:"id"`
	Layer  string         `json:"layer"`
	Text   string         `json:"text"`
	Anchor geo.Coordinate `json:"anchor"`
}

// Viewport is the visible map area after a zoom-end or move-end.
type Viewport struct {
	Zoom   int      `json:"zoom"`
	Bounds geo.BBox `json:"bounds"`
}

// LabelPolicy shows a layer's labels above a zoom threshold.
type LabelPolicy struct {
	Layer *geo.Layer
	// MinZoom is exclusive: labels show when zoom > MinZoom.
	MinZoom int
}

// Visible reports whether f's label belongs on screen for vp. An empty
// viewport intersects nothing.
func (p LabelPolicy) Visible(f *geo.Feature, vp Viewport) bool {
	if vp.Zoom <= p.MinZoom || vp.Bounds.Empty() {
		return false
	}
	return vp.Bounds.Intersects(f.Bound)
}

// label builds the label for f, or false when f has no label text.
func (p LabelPolicy) label(f *geo.Feature) (Label, bool) {
	text, ok := p.Layer.Label(f)
	if !ok || text == "" {
		return Label{}, false
	}
	return Label{
		ID:     labelID(p.Layer.Name, f.Index),
		Layer:  p.Layer.Name,
		Text:   text,
		Anchor: f.Bound.Center(),
	}, true
}

func labelID(layer string, index int) string {
	return layer + "/" + strconv.Itoa(index)
}

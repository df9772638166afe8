package geo

import (
	"github.com/rotisserie/eris"
)

// Layer names.
const (
	LayerGrids    = "grids"
	LayerCounties = "counties"
)

// Layer is an ordered collection of features loaded from one dataset.
type Layer struct {
	Name string
	// LabelProperty names the attribute shown as the feature label.
	LabelProperty string
	Features      []*Feature

	index *Index
}

// NewLayer builds a layer over features, renumbering them in slice order.
func NewLayer(name, labelProperty string, features []*Feature) *Layer {
	for i, f := range features {
		f.Index = i
	}
	return &Layer{Name: name, LabelProperty: labelProperty, Features: features}
}

// BuildIndex adds an R-tree over the feature bounds. Lookups return the
// same results with or without it.
func (l *Layer) BuildIndex() error {
	idx, err := NewIndex(l.Features)
	if err != nil {
		return eris.Wrapf(err, "geo: index layer %s", l.Name)
	}
	l.index = idx
	return nil
}

// Indexed reports whether BuildIndex has been called.
func (l *Layer) Indexed() bool {
	return l != nil && l.index != nil
}

// Len returns the number of features.
func (l *Layer) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Features)
}

// Locate returns the first feature in scan order that contains c.
func (l *Layer) Locate(c Coordinate) (*Feature, bool) {
	if l == nil {
		return nil, false
	}
	candidates := l.Features
	if l.index != nil {
		candidates = l.index.Candidates(c)
	}
	for _, f := range candidates {
		if f.Contains(c) {
			return f, true
		}
	}
	return nil, false
}

// Label returns the label text of f for this layer.
func (l *Layer) Label(f *Feature) (string, bool) {
	return f.Property(l.LabelProperty)
}

// Bound returns the union of every feature bound.
func (l *Layer) Bound() BBox {
	if l.Len() == 0 {
		return BBox{}
	}
	b := l.Features[0].Bound.Bound()
	for _, f := range l.Features[1:] {
		b = b.Union(f.Bound.Bound())
	}
	return BBoxFromBound(b)
}

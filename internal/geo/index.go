package geo

import (
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/rotisserie/eris"
)

const (
	rtreeMinChildren = 25
	rtreeMaxChildren = 50
	// pointTolerance widens a query point so features whose bound merely
	// touches it are still returned.
	pointTolerance = 1e-9
)

type indexEntry struct {
	feature *Feature
	rect    rtreego.Rect
}

func (e *indexEntry) Bounds() rtreego.Rect {
	return e.rect
}

// Index is an R-tree over feature bounding boxes.
type Index struct {
	tree *rtreego.Rtree
}

// NewIndex indexes the bounds of features.
func NewIndex(features []*Feature) (*Index, error) {
	tree := rtreego.NewTree(2, rtreeMinChildren, rtreeMaxChildren)
	for _, f := range features {
		b := f.Bound
		rect, err := rtreego.NewRectFromPoints(
			rtreego.Point{b.MinLng - pointTolerance, b.MinLat - pointTolerance},
			rtreego.Point{b.MaxLng + pointTolerance, b.MaxLat + pointTolerance},
		)
		if err != nil {
			return nil, eris.Wrapf(err, "geo: rect for feature %d", f.Index)
		}
		tree.Insert(&indexEntry{feature: f, rect: rect})
	}
	return &Index{tree: tree}, nil
}

// Candidates returns the features whose bound may contain c, ordered by
// feature index.
func (x *Index) Candidates(c Coordinate) []*Feature {
	q := rtreego.Point{c.Lng, c.Lat}.ToRect(pointTolerance)
	hits := x.tree.SearchIntersect(q)
	out := make([]*Feature, 0, len(hits))
	for _, h := range hits {
		if e, ok := h.(*indexEntry); ok {
			out = append(out, e.feature)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Size returns the number of indexed features.
func (x *Index) Size() int {
	return x.tree.Size()
}

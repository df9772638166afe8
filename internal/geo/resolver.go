package geo

import (
	"go.uber.org/zap"
)

// Default attribute names of the bundled datasets.
const (
	DefaultGridIDProperty     = "GRIDCODE"
	DefaultCountyNameProperty = "NAME"
	DefaultStateCodeProperty  = "STATEFP"
)

// Resolution is the region lookup result for one coordinate. Each field
// is nil when nothing matched.
type Resolution struct {
	GridID *string `json:"grid_id"`
	County *string `json:"county"`
	State  *string `json:"state"`
}

// Resolver maps coordinates to grid id, county name and state name.
// It is read-only after construction and safe for concurrent use.
type Resolver struct {
	grids     *Layer
	counties  *Layer
	states    StateLookup
	stateProp string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithStateCodeProperty sets the county attribute holding the state code.
func WithStateCodeProperty(name string) ResolverOption {
	return func(r *Resolver) {
		r.stateProp = name
	}
}

// NewResolver creates a resolver. Either layer may be nil.
func NewResolver(grids, counties *Layer, states StateLookup, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		grids:     grids,
		counties:  counties,
		states:    states,
		stateProp: DefaultStateCodeProperty,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Grids returns the grid layer.
func (r *Resolver) Grids() *Layer { return r.grids }

// Counties returns the county layer.
func (r *Resolver) Counties() *Layer { return r.counties }

// Resolve finds the grid and county containing c. The state is derived
// from the matched county's state code.
func (r *Resolver) Resolve(c Coordinate) Resolution {
	var res Resolution

	if f, ok := r.grids.Locate(c); ok {
		if id, ok := r.grids.Label(f); ok {
			res.GridID = &id
		}
	}

	if f, ok := r.counties.Locate(c); ok {
		if name, ok := r.counties.Label(f); ok {
			res.County = &name
		}
		code, _ := f.Property(r.stateProp)
		if name, ok := r.states.Name(code); ok {
			res.State = &name
		} else {
			zap.L().Debug("geo: county has no known state",
				zap.Int("feature", f.Index),
				zap.String("state_code", code),
			)
		}
	}

	return res
}

package geo

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Sources names the dataset files a resolver is built from. A path ending
// in .shp is read as a shapefile; anything else as GeoJSON.
type Sources struct {
	GridsPath          string
	CountiesPath       string
	StatesPath         string
	GridIDProperty     string
	CountyNameProperty string
	StateCodeProperty  string
	// Index builds an R-tree over each layer.
	Index bool
}

// Dataset is the loaded form of Sources.
type Dataset struct {
	Grids    *Layer
	Counties *Layer
	States   StateLookup

	stateProp string
}

// Load reads both layers and the state table concurrently.
func Load(ctx context.Context, src Sources) (*Dataset, error) {
	if src.GridIDProperty == "" {
		src.GridIDProperty = DefaultGridIDProperty
	}
	if src.CountyNameProperty == "" {
		src.CountyNameProperty = DefaultCountyNameProperty
	}

	ds := &Dataset{stateProp: src.StateCodeProperty}
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		l, err := loadLayer(src.GridsPath, LayerGrids, src.GridIDProperty, src.Index)
		ds.Grids = l
		return err
	})
	g.Go(func() error {
		l, err := loadLayer(src.CountiesPath, LayerCounties, src.CountyNameProperty, src.Index)
		ds.Counties = l
		return err
	})
	g.Go(func() error {
		var err error
		if src.StatesPath == "" {
			ds.States, err = DefaultStates()
		} else {
			ds.States, err = LoadStates(src.StatesPath)
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.L().Info("geo: datasets loaded",
		zap.Int("grids", ds.Grids.Len()),
		zap.Int("counties", ds.Counties.Len()),
		zap.Int("states", len(ds.States)),
		zap.Bool("indexed", src.Index),
	)
	return ds, nil
}

// Resolver builds a resolver over the dataset.
func (d *Dataset) Resolver(opts ...ResolverOption) *Resolver {
	if d.stateProp != "" {
		opts = append([]ResolverOption{WithStateCodeProperty(d.stateProp)}, opts...)
	}
	return NewResolver(d.Grids, d.Counties, d.States, opts...)
}

func loadLayer(path, name, labelProperty string, index bool) (*Layer, error) {
	if path == "" {
		return nil, eris.Errorf("geo: no path configured for %s", name)
	}

	var (
		layer *Layer
		err   error
	)
	if strings.EqualFold(filepath.Ext(path), ".shp") {
		layer, err = LoadShapefile(path, name, labelProperty)
	} else {
		layer, err = LoadGeoJSON(path, name, labelProperty)
	}
	if err != nil {
		return nil, err
	}

	if index {
		if err := layer.BuildIndex(); err != nil {
			return nil, err
		}
	}
	return layer, nil
}

package main

import (
	"context"
	"time"

	"github.com/chid93/next-gen-prf/internal/config"
	"github.com/chid93/next-gen-prf/internal/geo"
	"github.com/chid93/next-gen-prf/internal/mapview"
	"github.com/chid93/next-gen-prf/internal/resilience"
	"github.com/chid93/next-gen-prf/internal/store"
	"github.com/chid93/next-gen-prf/internal/tiles"
	"github.com/chid93/next-gen-prf/pkg/geocode"
)

// loadResolver reads the configured layers and builds a resolver.
func loadResolver(ctx context.Context, c *config.Config) (*geo.Resolver, error) {
	ds, err := geo.Load(ctx, dataSources(c))
	if err != nil {
		return nil, err
	}
	return ds.Resolver(), nil
}

func dataSources(c *config.Config) geo.Sources {
	return geo.Sources{
		GridsPath:          c.Data.GridsPath,
		CountiesPath:       c.Data.CountiesPath,
		StatesPath:         c.Data.StatesPath,
		GridIDProperty:     c.Data.GridIDProperty,
		CountyNameProperty: c.Data.CountyNameProperty,
		StateCodeProperty:  c.Data.StateCodeProperty,
		Index:              c.Data.Index,
	}
}

func openStore(ctx context.Context, c *config.Config) (store.Store, error) {
	return store.Open(ctx, c.Store.Driver, c.Store.DatabaseURL, &c.Store.Pool)
}

func mapOptions(c *config.Config) mapview.Options {
	return mapview.Options{
		Center:      geo.Coordinate{Lat: c.Map.CenterLat, Lng: c.Map.CenterLng},
		InitialZoom: c.Map.InitialZoom,
		FocusZoom:   c.Map.FocusZoom,
		Tiles: mapview.TileLayer{
			URLTemplate: c.Map.TileURL,
			MaxZoom:     c.Map.MaxZoom,
			Attribution: c.Map.Attribution,
		},
		GridLabelZoom:   c.Map.GridLabelZoom,
		CountyLabelZoom: c.Map.CountyLabelZoom,
	}
}

// proxiedTiles points the session tile layer at the local proxy.
func proxiedTiles(opts mapview.Options) mapview.Options {
	opts.Tiles.URLTemplate = "/tiles/{z}/{x}/{y}.png"
	return opts
}

func newGeocoder(c *config.Config) geocode.Client {
	return geocode.NewClient(
		geocode.WithBaseURL(c.Geocode.BaseURL),
		geocode.WithCountryCodes(c.Geocode.CountryCodes...),
		geocode.WithLimit(c.Geocode.Limit),
		geocode.WithRateLimit(c.Geocode.RatePerSecond),
		geocode.WithUserAgent(c.Geocode.UserAgent),
		geocode.WithCache(c.Geocode.CacheSize, time.Duration(c.Geocode.CacheTTLMins)*time.Minute),
		geocode.WithBreaker(newBreaker("nominatim", c.Geocode.Breaker)),
	)
}

func newTileProxy(c *config.Config) *tiles.Proxy {
	cache := tiles.NewCache(c.Tiles.CacheSize, time.Duration(c.Tiles.CacheTTLMins)*time.Minute)
	return tiles.NewProxy(tiles.Options{
		URLTemplate:   c.Map.TileURL,
		MaxZoom:       c.Map.MaxZoom,
		UserAgent:     c.Geocode.UserAgent,
		Timeout:       time.Duration(c.Tiles.TimeoutSecs) * time.Second,
		RatePerSecond: c.Tiles.RatePerSecond,
		Breaker:       newBreaker("tile server", c.Tiles.Breaker),
	}, cache)
}

func newBreaker(name string, bc config.BreakerConfig) *resilience.Breaker {
	return resilience.NewBreaker(name, bc.Failures, time.Duration(bc.CooldownSecs)*time.Second)
}

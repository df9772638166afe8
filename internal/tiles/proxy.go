// Package tiles proxies basemap raster tiles for the map session's tile
// layer and caches them in memory.
package tiles

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/chid93/next-gen-prf/internal/resilience"
)

// ErrZoomOutOfRange is returned for tiles above the layer's max zoom.
var ErrZoomOutOfRange = eris.New("tiles: zoom out of range")

// Coord addresses one slippy-map tile.
type Coord struct {
	Z, X, Y int
}

// Valid reports whether x and y lie inside the zoom level's grid.
func (c Coord) Valid() bool {
	if c.Z < 0 || c.Z > 30 {
		return false
	}
	n := 1 << c.Z
	return c.X >= 0 && c.Y >= 0 && c.X < n && c.Y < n
}

// Options configures a Proxy.
type Options struct {
	// URLTemplate contains {z}, {x} and {y} placeholders.
	URLTemplate string
	MaxZoom     int
	UserAgent   string
	Timeout     time.Duration
	// RatePerSecond caps upstream requests; zero disables the limit.
	RatePerSecond float64
	// Breaker is optional.
	Breaker *resilience.Breaker
}

// Proxy fetches tiles from an upstream server, consulting the cache first.
type Proxy struct {
	opts    Options
	client  *http.Client
	cache   *Cache
	limiter *rate.Limiter
}

// NewProxy creates a tile proxy. cache may be nil.
func NewProxy(opts Options, cache *Cache) *Proxy {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "prf/1.0"
	}
	p := &Proxy{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		cache:  cache,
	}
	if opts.RatePerSecond > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), int(opts.RatePerSecond)+1)
	}
	return p
}

// URL expands the template for c.
func (p *Proxy) URL(c Coord) string {
	return strings.NewReplacer(
		"{z}", strconv.Itoa(c.Z),
		"{x}", strconv.Itoa(c.X),
		"{y}", strconv.Itoa(c.Y),
	).Replace(p.opts.URLTemplate)
}

// Fetch returns the tile body and its content type.
func (p *Proxy) Fetch(ctx context.Context, c Coord) ([]byte, string, error) {
	if c.Z > p.opts.MaxZoom || !c.Valid() {
		return nil, "", ErrZoomOutOfRange
	}
	ct := contentType(p.opts.URLTemplate)

	if p.cache != nil {
		if cached := p.cache.Get(c); cached != nil {
			return cached, ct, nil
		}
	}

	data, upstreamCT, err := p.fetchUpstream(ctx, c)
	if err != nil {
		return nil, "", err
	}
	if upstreamCT != "" {
		ct = upstreamCT
	}

	if p.cache != nil {
		p.cache.Put(c, data)
	}

	return data, ct, nil
}

// fetchUpstream downloads one tile through the limiter and breaker.
func (p *Proxy) fetchUpstream(ctx context.Context, c Coord) ([]byte, string, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, "", eris.Wrap(err, "tiles: rate limiter wait")
		}
	}

	url := p.URL(c)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", eris.Wrap(err, "tiles: create request")
	}
	req.Header.Set("User-Agent", p.opts.UserAgent)

	var resp *http.Response
	err = p.opts.Breaker.Do(ctx, func(context.Context) error {
		r, err := p.client.Do(req)
		if err != nil {
			return eris.Wrap(err, "tiles: fetch tile")
		}
		if r.StatusCode != http.StatusOK {
			_ = r.Body.Close()
			return eris.Wrap(&resilience.StatusError{Upstream: "tile server", Code: r.StatusCode}, "tiles: "+url)
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", eris.Wrap(err, "tiles: read tile body")
	}
	zap.L().Debug("tiles: fetched tile", zap.String("url", url), zap.Int("bytes", len(data)))
	return data, resp.Header.Get("Content-Type"), nil
}

// ServeHTTP serves /{z}/{x}/{y}.{ext} relative to the mount point.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var c Coord
	var ext string
	if _, err := fmt.Sscanf(r.URL.Path, "/%d/%d/%d.%s", &c.Z, &c.X, &c.Y, &ext); err != nil {
		http.Error(w, "invalid tile path", http.StatusBadRequest)
		return
	}

	data, ct, err := p.Fetch(r.Context(), c)
	if eris.Is(err, ErrZoomOutOfRange) {
		http.Error(w, "tile out of range", http.StatusNotFound)
		return
	}
	if eris.Is(err, resilience.ErrOpen) {
		http.Error(w, "tile server unavailable", http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		zap.L().Error("tiles: fetch failed", zap.Error(err))
		http.Error(w, "upstream fetch failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(data)
}

// Stats returns cache statistics, or zero values without a cache.
func (p *Proxy) Stats() Stats {
	if p.cache == nil {
		return Stats{}
	}
	return p.cache.Stats()
}

func contentType(template string) string {
	switch strings.ToLower(path.Ext(template)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".pbf", ".mvt":
		return "application/x-protobuf"
	default:
		return "application/octet-stream"
	}
}

// Package geocode provides place search via a Nominatim-compatible API.
package geocode

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/chid93/next-gen-prf/internal/resilience"
)

// DefaultBaseURL is the public OpenStreetMap Nominatim endpoint.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// Client searches for places by free-text query.
type Client interface {
	// Search returns candidate places, best match first. No match is an
	// empty slice, not an error.
	Search(ctx context.Context, query string) ([]Result, error)
}

// BoundingBox is the extent of a result in WGS84 degrees.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLng float64 `json:"max_lng"`
}

// Result is one search hit.
type Result struct {
	Latitude    float64      `json:"lat"`
	Longitude   float64      `json:"lng"`
	DisplayName string       `json:"display_name"`
	Category    string       `json:"category,omitempty"`
	Type        string       `json:"type,omitempty"`
	Importance  float64      `json:"importance,omitempty"`
	BoundingBox *BoundingBox `json:"bounding_box,omitempty"`
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithBaseURL points the client at another Nominatim instance.
func WithBaseURL(u string) Option {
	return func(g *geocoder) {
		g.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second limit. The public Nominatim
// usage policy allows one request per second.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithUserAgent sets the User-Agent header Nominatim requires.
func WithUserAgent(ua string) Option {
	return func(g *geocoder) {
		g.userAgent = ua
	}
}

// WithCountryCodes restricts results to ISO 3166-1 alpha-2 codes.
func WithCountryCodes(codes ...string) Option {
	return func(g *geocoder) {
		g.countryCodes = codes
	}
}

// WithLimit caps the number of results per query.
func WithLimit(n int) Option {
	return func(g *geocoder) {
		g.limit = n
	}
}

// WithCache keeps up to size query results for ttl.
func WithCache(size int, ttl time.Duration) Option {
	return func(g *geocoder) {
		if size > 0 && ttl > 0 {
			g.cache = newResultCache(size, ttl)
		}
	}
}

// WithBreaker guards Nominatim calls with b.
func WithBreaker(b *resilience.Breaker) Option {
	return func(g *geocoder) {
		g.breaker = b
	}
}

type geocoder struct {
	baseURL      string
	httpClient   *http.Client
	limiter      *rate.Limiter
	userAgent    string
	countryCodes []string
	limit        int
	cache        *resultCache
	breaker      *resilience.Breaker
}

// NewClient creates a new geocoding Client with the given options.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		baseURL:      DefaultBaseURL,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		limiter:      rate.NewLimiter(1, 1),
		userAgent:    "prf/1.0",
		countryCodes: []string{"us"},
		limit:        5,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

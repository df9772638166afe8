package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/chid93/next-gen-prf/internal/resilience"
)

// nominatimPlace is one element of a format=jsonv2 search response.
// Coordinates arrive as strings; boundingbox is [minlat, maxlat, minlon, maxlon].
type nominatimPlace struct {
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	DisplayName string   `json:"display_name"`
	Category    string   `json:"category"`
	Type        string   `json:"type"`
	Importance  float64  `json:"importance"`
	BoundingBox []string `json:"boundingbox"`
}

// Search queries Nominatim for query.
func (g *geocoder) Search(ctx context.Context, query string) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, eris.New("geocode: empty query")
	}

	key := cacheKey(query)
	if g.cache != nil {
		if cached, ok := g.cache.get(key); ok {
			return cached, nil
		}
	}

	places, err := resilience.Call(ctx, g.breaker, func(ctx context.Context) ([]nominatimPlace, error) {
		return g.search(ctx, query)
	})
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(places))
	for _, p := range places {
		r, err := p.toResult()
		if err != nil {
			zap.L().Debug("geocode: skipping malformed place",
				zap.String("display_name", p.DisplayName),
				zap.Error(err),
			)
			continue
		}
		results = append(results, r)
	}

	if g.cache != nil {
		g.cache.put(key, results)
	}
	return results, nil
}

func (p nominatimPlace) toResult() (Result, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return Result{}, eris.Wrap(err, "geocode: parse lat")
	}
	lng, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return Result{}, eris.Wrap(err, "geocode: parse lon")
	}

	r := Result{
		Latitude:    lat,
		Longitude:   lng,
		DisplayName: p.DisplayName,
		Category:    p.Category,
		Type:        p.Type,
		Importance:  p.Importance,
	}
	if bb, ok := parseBoundingBox(p.BoundingBox); ok {
		r.BoundingBox = &bb
	}
	return r, nil
}

func parseBoundingBox(raw []string) (BoundingBox, bool) {
	if len(raw) != 4 {
		return BoundingBox{}, false
	}
	var v [4]float64
	for i, s := range raw {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return BoundingBox{}, false
		}
		v[i] = f
	}
	return BoundingBox{MinLat: v[0], MaxLat: v[1], MinLng: v[2], MaxLng: v[3]}, true
}

// search performs one rate-limited request.
func (g *geocoder) search(ctx context.Context, query string) ([]nominatimPlace, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limiter wait")
	}

	params := url.Values{
		"q":      {query},
		"format": {"jsonv2"},
	}
	if len(g.countryCodes) > 0 {
		params.Set("countrycodes", strings.Join(g.countryCodes, ","))
	}
	if g.limit > 0 {
		params.Set("limit", strconv.Itoa(g.limit))
	}

	reqURL := strings.TrimRight(g.baseURL, "/") + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: create nominatim request")
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Wrap(&resilience.StatusError{Upstream: "nominatim", Code: resp.StatusCode}, "geocode: search")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read nominatim response")
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, eris.Wrap(err, "geocode: parse nominatim response")
	}
	return places, nil

}

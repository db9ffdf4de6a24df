package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/codingsince1985/geo-golang"
	"github.com/codingsince1985/geo-golang/openstreetmap"
)

const NominatimURL = "https://nominatim.openstreetmap.org/"

// NewNominatimProvider geocodes against an OpenStreetMap Nominatim instance.
// The public one requires a user agent identifying the app and is strict
// about rate limits, so it goes last in the chain.
func NewNominatimProvider(h *http.Client, baseURL, userAgent string) *gp {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return newGeoGolangProvider("nominatim", openstreetmap.GeocoderWithURL(baseURL), h, userAgent)
}

// gp runs geo-golang's endpoint builder and response parser over our own
// http client. The library's own transport hides the status code and
// always uses http.DefaultClient.
type gp struct {
	name      string
	endpoint  geo.EndpointBuilder
	parser    geo.ResponseParserFactory
	h         *http.Client
	userAgent string
}

var _ Provider = (*gp)(nil)

func newGeoGolangProvider(name string, g geo.Geocoder, h *http.Client, userAgent string) *gp {
	// Every geo-golang REST geocoder is an HTTPGeocoder value.
	hg := g.(geo.HTTPGeocoder)

	return &gp{
		name:      name,
		endpoint:  hg.EndpointBuilder,
		parser:    hg.ResponseParserFactory,
		h:         h,
		userAgent: userAgent,
	}
}

func (p *gp) Name() string {
	return p.name
}

func (p *gp) Geocode(ctx context.Context, query string) (*Coordinate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint.GeocodeURL(url.QueryEscape(query)), nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", p.name, err)
	}

	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	res, err := p.h.Do(req)
	if err != nil {
		return nil, &TransportError{Provider: p.name, Err: err}
	}

	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500:
		return nil, &TransportError{Provider: p.name, Err: fmt.Errorf("unexpected status %d", res.StatusCode)}
	case res.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("%s returned status %d: %s", p.name, res.StatusCode, string(body))
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &TransportError{Provider: p.name, Err: err}
	}

	// Nominatim answers with a JSON array; geo-golang's parsers expect the
	// first element on its own, and an empty array means no match.
	body := strings.Trim(string(data), " \n[]")
	if body == "" {
		return nil, ErrNotFound
	}

	parser := p.parser()
	if err := json.Unmarshal([]byte(body), parser); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", p.name, err)
	}

	l, err := parser.Location()
	if err != nil {
		return nil, fmt.Errorf("%s geocode: %w", p.name, err)
	}

	if l == nil {
		return nil, ErrNotFound
	}

	return &Coordinate{Latitude: l.Lat, Longitude: l.Lng}, nil
}

package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const PhotonURL = "https://photon.komoot.io"

// NewPhotonClient talks to a Photon instance. Photon needs no key and is
// fairly lenient with rate limits.
func NewPhotonClient(h *http.Client, baseURL, userAgent string) *pc {
	return &pc{h: h, baseURL: strings.TrimSuffix(baseURL, "/"), userAgent: userAgent}
}

type pc struct {
	h         *http.Client
	baseURL   string
	userAgent string
}

var _ Provider = (*pc)(nil)

func (c *pc) Name() string {
	return "photon"
}

func (c *pc) Geocode(ctx context.Context, query string) (*Coordinate, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build photon request: %w", err)
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	res, err := c.h.Do(req)
	if err != nil {
		return nil, &TransportError{Provider: c.Name(), Err: err}
	}

	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500:
		return nil, &TransportError{Provider: c.Name(), Err: fmt.Errorf("unexpected status %d", res.StatusCode)}
	case res.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("photon returned status %d: %s", res.StatusCode, string(body))
	}

	var d PhotonResponse
	if err := json.NewDecoder(res.Body).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode photon response: %w", err)
	}

	if len(d.Features) == 0 || len(d.Features[0].Geometry.Coordinates) < 2 {
		return nil, ErrNotFound
	}

	// GeoJSON orders positions as [lon, lat].
	coords := d.Features[0].Geometry.Coordinates
	return &Coordinate{Latitude: coords[1], Longitude: coords[0]}, nil
}

type PhotonResponse struct {
	Type     string          `json:"type"`
	Features []PhotonFeature `json:"features"`
}

type PhotonFeature struct {
	Type     string `json:"type"`
	Geometry struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
	Properties struct {
		Name        string `json:"name,omitempty"`
		Country     string `json:"country,omitempty"`
		CountryCode string `json:"countrycode,omitempty"`
		State       string `json:"state,omitempty"`
		City        string `json:"city,omitempty"`
		Type        string `json:"type,omitempty"`
	} `json:"properties"`
}

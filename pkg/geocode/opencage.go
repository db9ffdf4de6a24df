package geocode

import (
	"net/http"
	"net/url"

	"github.com/codingsince1985/geo-golang/opencage"
)

const OpenCageURL = "https://api.opencagedata.com/geocode/v1/json"

// NewOpenCageProvider is the paid provider; it needs an API key. OpenCage
// reports quota and outage problems through the HTTP status as well as the
// body, so 429 and 503 are retried like any other transport failure.
func NewOpenCageProvider(h *http.Client, baseURL, apiKey, userAgent string) *gp {
	endpoint := baseURL + "?key=" + url.QueryEscape(apiKey) + "&q="
	return newGeoGolangProvider("opencage", opencage.Geocoder(apiKey, endpoint), h, userAgent)
}

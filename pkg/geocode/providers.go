package geocode

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

type ProviderConfig struct {
	Name       string
	Credential string
	UserAgent  string
	BaseURL    string
	Timeout    time.Duration
	MinDelay   time.Duration
	MaxRetries int
	ErrorWait  time.Duration
}

// NewProvider builds the adapter for cfg.Name wrapped in its rate limiter.
// Every adapter shares h's transport; its timeout is overridden by
// cfg.Timeout.
func NewProvider(cfg ProviderConfig, h *http.Client) (*RateLimited, error) {
	client := http.Client{}
	if h != nil {
		client = *h
	}
	client.Timeout = cfg.Timeout

	var p Provider

	switch cfg.Name {
	case "opencage":
		if cfg.Credential == "" {
			return nil, fmt.Errorf("opencage requires an API key")
		}

		p = NewOpenCageProvider(&client, orDefault(cfg.BaseURL, OpenCageURL), cfg.Credential, cfg.UserAgent)
	case "photon":
		p = NewPhotonClient(&client, orDefault(cfg.BaseURL, PhotonURL), cfg.UserAgent)
	case "nominatim":
		p = NewNominatimProvider(&client, orDefault(cfg.BaseURL, NominatimURL), cfg.UserAgent)
	default:
		return nil, fmt.Errorf("unknown geocoding provider %q", cfg.Name)
	}

	return NewRateLimited(p, cfg.MinDelay, cfg.MaxRetries, cfg.ErrorWait), nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}

	return s
}

// NewResolverFromConfig keeps the configured order. Providers whose
// credential is missing are skipped rather than failing startup.
func NewResolverFromConfig(cfgs []ProviderConfig, h *http.Client) (*Resolver, error) {
	var providers []Provider
	for _, cfg := range cfgs {
		if cfg.Name == "opencage" && cfg.Credential == "" {
			slog.Info("skipping geocoding provider without credentials", "provider", cfg.Name)
			continue
		}

		p, err := NewProvider(cfg, h)
		if err != nil {
			return nil, fmt.Errorf("create provider %s: %w", cfg.Name, err)
		}

		providers = append(providers, p)
	}

	return NewResolver(providers...)
}

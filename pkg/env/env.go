// Package env loads the configuration shared by the survey server and the
// admin CLI. Values come from an optional app.env file and are overridden by
// environment variables.
package env

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/manzanit0/kantomap/pkg/geocode"
)

const DefaultUserAgent = "kantomap-survey (+https://github.com/manzanit0/kantomap)"

type Config struct {
	Port             string
	DataDir          string
	DatabaseURL      string
	AdminPassword    string
	CountryQualifier string
	Providers        []geocode.ProviderConfig
}

// Load reads <dir>/app.env if it exists. A missing file is not an error.
func Load(dir string) (*Config, error) {
	v := viper.New()

	v.SetDefault("PORT", "8080")
	v.SetDefault("DATA_DIR", "/tmp")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("COUNTRY_QUALIFIER", "Japan")
	v.SetDefault("GEOCODE_PROVIDERS", "opencage,photon,nominatim")
	v.SetDefault("OPENCAGE_API_KEY", "")
	v.SetDefault("OPENCAGE_URL", geocode.OpenCageURL)
	v.SetDefault("PHOTON_URL", geocode.PhotonURL)
	v.SetDefault("NOMINATIM_URL", geocode.NominatimURL)
	v.SetDefault("GEOCODE_USER_AGENT", DefaultUserAgent)
	v.SetDefault("GEOCODE_TIMEOUT", 10*time.Second)
	v.SetDefault("GEOCODE_MIN_DELAY", time.Second)
	v.SetDefault("GEOCODE_MAX_RETRIES", 2)
	v.SetDefault("GEOCODE_ERROR_WAIT", 2*time.Second)

	if dir != "" {
		v.AddConfigPath(dir)
		v.SetConfigName("app")
		v.SetConfigType("env")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	v.AutomaticEnv()

	cfg := &Config{
		Port:             v.GetString("PORT"),
		DataDir:          v.GetString("DATA_DIR"),
		DatabaseURL:      v.GetString("DATABASE_URL"),
		AdminPassword:    v.GetString("ADMIN_PASSWORD"),
		CountryQualifier: v.GetString("COUNTRY_QUALIFIER"),
	}

	maxRetries := v.GetInt("GEOCODE_MAX_RETRIES")
	if maxRetries < 0 {
		return nil, fmt.Errorf("GEOCODE_MAX_RETRIES must not be negative, got %d", maxRetries)
	}

	timeout := v.GetDuration("GEOCODE_TIMEOUT")
	if timeout <= 0 {
		return nil, fmt.Errorf("GEOCODE_TIMEOUT must be positive")
	}

	for _, name := range strings.Split(v.GetString("GEOCODE_PROVIDERS"), ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}

		p := geocode.ProviderConfig{
			Name:       name,
			UserAgent:  v.GetString("GEOCODE_USER_AGENT"),
			Timeout:    timeout,
			MinDelay:   v.GetDuration("GEOCODE_MIN_DELAY"),
			MaxRetries: maxRetries,
			ErrorWait:  v.GetDuration("GEOCODE_ERROR_WAIT"),
		}

		switch name {
		case "opencage":
			p.Credential = v.GetString("OPENCAGE_API_KEY")
			p.BaseURL = v.GetString("OPENCAGE_URL")
		case "photon":
			p.BaseURL = v.GetString("PHOTON_URL")
		case "nominatim":
			p.BaseURL = v.GetString("NOMINATIM_URL")
		}

		cfg.Providers = append(cfg.Providers, p)
	}

	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("missing GEOCODE_PROVIDERS environment variable. Please check your environment.")
	}

	return cfg, nil
}

// Package location persists the places people submitted.
package location

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

type Record struct {
	Place     string  `json:"place"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Store is the shared dataset behind the map. Append, ReadAll and Reset are
// atomic with respect to each other.
type Store interface {
	Append(ctx context.Context, r Record) error
	ReadAll(ctx context.Context) ([]Record, error)
	Reset(ctx context.Context) error
	Close() error
}

// Open returns a Postgres store when databaseURL is set and a CSV file store
// under dataDir otherwise.
func Open(ctx context.Context, databaseURL, dataDir string) (Store, error) {
	if databaseURL != "" {
		s, err := OpenPgStore(databaseURL)
		if err != nil {
			return nil, err
		}

		if err := s.CreateSchema(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}

		return s, nil
	}

	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	return NewCSVStore(filepath.Join(dataDir, "locations.csv"))
}

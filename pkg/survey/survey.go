// Package survey ties the geocoder and the location store together: it turns a
// submitted place name into a record on the map.
package survey

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/manzanit0/kantomap/pkg/geocode"
	"github.com/manzanit0/kantomap/pkg/location"
)

var (
	ErrEmptyPlace = errors.New("place is empty")
	ErrNoMatch    = errors.New("no provider could find the place")
	ErrForbidden  = errors.New("wrong admin password")
)

type Resolver interface {
	Resolve(ctx context.Context, query string) (*geocode.Coordinate, error)
}

type Service struct {
	resolver      Resolver
	store         location.Store
	qualifier     string
	adminPassword string
}

func NewService(r Resolver, s location.Store, countryQualifier, adminPassword string) *Service {
	return &Service{resolver: r, store: s, qualifier: countryQualifier, adminPassword: adminPassword}
}

// Submit resolves the place and appends it to the store. It returns
// ErrNoMatch when every provider answered but none knew the place.
func (s *Service) Submit(ctx context.Context, place string) (*location.Record, error) {
	place = NormalizePlace(place)
	if place == "" {
		return nil, ErrEmptyPlace
	}

	coord, err := s.resolver.Resolve(ctx, s.Query(place))
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", place, err)
	}

	if coord == nil {
		return nil, ErrNoMatch
	}

	rec := location.Record{Place: place, Latitude: coord.Latitude, Longitude: coord.Longitude}
	if err := s.store.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("append location: %w", err)
	}

	slog.InfoContext(ctx, "location added", "place", rec.Place, "lat", rec.Latitude, "lon", rec.Longitude)
	return &rec, nil
}

func (s *Service) Locations(ctx context.Context) ([]location.Record, error) {
	records, err := s.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read locations: %w", err)
	}

	return records, nil
}

// Reset wipes the whole store. An empty configured password disables it.
func (s *Service) Reset(ctx context.Context, password string) error {
	if s.adminPassword == "" || subtle.ConstantTimeCompare([]byte(password), []byte(s.adminPassword)) != 1 {
		slog.WarnContext(ctx, "rejected admin reset")
		return ErrForbidden
	}

	if err := s.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset locations: %w", err)
	}

	slog.InfoContext(ctx, "locations reset")
	return nil
}

// Query is what gets sent to the providers, e.g. "渋谷駅, Japan".
func (s *Service) Query(place string) string {
	if s.qualifier == "" {
		return place
	}

	return place + ", " + s.qualifier
}

// NormalizePlace folds full-width characters (ＪＲ新宿駅 -> JR新宿駅) and
// collapses whitespace so the same place is stored and queried the same way.
func NormalizePlace(place string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(place)), " ")
}

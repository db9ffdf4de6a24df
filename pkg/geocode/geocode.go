// Package geocode resolves free-text place names into coordinates through one
// or more external providers.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/codingsince1985/geo-golang"
)

// Provider is a single geocoding backend. Implementations return ErrNotFound
// when the backend answered but had no match for the query.
type Provider interface {
	Name() string
	Geocode(ctx context.Context, query string) (*Coordinate, error)
}

type Coordinate struct {
	Latitude  float64
	Longitude float64
}

var ErrNotFound = errors.New("no results for query")

// TransportError marks a failure to talk to the provider at all: the service
// was unavailable, timed out or refused the connection.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s unreachable: %s", e.Provider, e.Err.Error())
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ExhaustedError is returned by the Resolver when no provider produced a
// coordinate and at least one of them failed. It carries the last failure.
type ExhaustedError struct {
	Provider string
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all providers failed, last one %s: %s", e.Provider, e.Err.Error())
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

type Kind int

const (
	KindNone Kind = iota
	KindNotFound
	KindTransport
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNotFound:
		return "not_found"
	case KindTransport:
		return "transport"
	default:
		return "unexpected"
	}
}

// Classify tells apart the outcomes of a provider call.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case IsTransport(err):
		return KindTransport
	default:
		return KindUnexpected
	}
}

func IsTransport(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}

	if errors.Is(err, geo.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

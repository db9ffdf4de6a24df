package geocode

import (
	"context"
	"errors"
	"log/slog"
)

// Resolver asks its providers in order and returns the first coordinate found.
type Resolver struct {
	providers []Provider
}

func NewResolver(providers ...Provider) (*Resolver, error) {
	if len(providers) == 0 {
		return nil, errors.New("resolver needs at least one provider")
	}

	return &Resolver{providers: providers}, nil
}

// Resolve returns (nil, nil) when every provider answered that there's no
// match. If nothing matched and some provider failed, the last failure is
// returned wrapped in an *ExhaustedError.
func (r *Resolver) Resolve(ctx context.Context, query string) (*Coordinate, error) {
	var last *ExhaustedError

	for _, p := range r.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		coord, err := p.Geocode(ctx, query)

		switch kind := Classify(err); kind {
		case KindNone:
			if coord == nil {
				slog.InfoContext(ctx, "provider returned an empty result", "provider", p.Name())
				continue
			}

			slog.InfoContext(ctx, "query resolved", "provider", p.Name(), "query", query)
			return coord, nil

		case KindNotFound:
			slog.InfoContext(ctx, "provider found no match", "provider", p.Name(), "query", query)

		default:
			// Unexpected errors fall through to the next provider just like
			// transport ones do.
			slog.WarnContext(ctx, "provider failed, falling back",
				"provider", p.Name(),
				"kind", kind.String(),
				"error", err.Error())
			last = &ExhaustedError{Provider: p.Name(), Err: err}
		}
	}

	if last != nil {
		return nil, last
	}

	return nil, nil
}

func (r *Resolver) Providers() []string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}

	return names
}

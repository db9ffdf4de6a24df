package geocode

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RateLimited wraps a Provider so that calls going through the same instance
// are at least minDelay apart, and transport failures are retried up to
// maxRetries times with errorWait in between.
//
// The gate is shared by every caller of the instance: concurrent requests
// are handed consecutive slots.
type RateLimited struct {
	provider   Provider
	minDelay   time.Duration
	maxRetries int
	errorWait  time.Duration

	mu       sync.Mutex
	lastCall time.Time
}

var _ Provider = (*RateLimited)(nil)

func NewRateLimited(p Provider, minDelay time.Duration, maxRetries int, errorWait time.Duration) *RateLimited {
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &RateLimited{provider: p, minDelay: minDelay, maxRetries: maxRetries, errorWait: errorWait}
}

func (r *RateLimited) Name() string {
	return r.provider.Name()
}

func (r *RateLimited) Geocode(ctx context.Context, query string) (*Coordinate, error) {
	var coord *Coordinate

	operation := func() error {
		if err := r.wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		c, err := r.provider.Geocode(ctx, query)
		if err == nil && c == nil {
			err = ErrNotFound
		}

		switch Classify(err) {
		case KindNone:
			coord = c
			return nil
		case KindTransport:
			return err
		default:
			// Not found is an answer, and anything unexpected won't get
			// better by asking again.
			return backoff.Permanent(err)
		}
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(r.errorWait), uint64(r.maxRetries)),
		ctx,
	)

	notify := func(err error, wait time.Duration) {
		slog.WarnContext(ctx, "retrying geocoding provider",
			"provider", r.provider.Name(),
			"error", err.Error(),
			"wait_ms", wait.Milliseconds())
	}

	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		return nil, err
	}

	return coord, nil
}

// wait reserves the next free slot, at least minDelay after the previous
// one, and sleeps until it comes. The lock only covers the reservation so a
// caller whose context ends stops waiting straight away.
func (r *RateLimited) wait(ctx context.Context) error {
	r.mu.Lock()
	slot := time.Now()
	if !r.lastCall.IsZero() {
		if next := r.lastCall.Add(r.minDelay); next.After(slot) {
			slot = next
		}
	}
	r.lastCall = slot
	r.mu.Unlock()

	d := time.Until(slot)
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

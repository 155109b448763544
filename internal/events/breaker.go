package events

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/ademuri/vibe-gigs/internal/logging"
)

// BreakerSettings tunes a Breaker. Zero fields take the defaults.
type BreakerSettings struct {
	// Consecutive failures that open the circuit. Default 5.
	MaxFailures uint32

	// How long the circuit stays open before a trial request. Default 2m.
	Timeout time.Duration
}

// Breaker wraps a Searcher in a circuit breaker so that a site that is down
// fails fast instead of costing a timeout per artist. While open, searches
// return gobreaker.ErrOpenState, which callers settle like any other failure.
type Breaker struct {
	inner Searcher
	cb    *gobreaker.CircuitBreaker[[]Event]
}

func NewBreaker(inner Searcher, settings BreakerSettings) *Breaker {
	if settings.MaxFailures == 0 {
		settings.MaxFailures = 5
	}
	if settings.Timeout == 0 {
		settings.Timeout = 2 * time.Minute
	}
	maxFailures := settings.MaxFailures

	cb := gobreaker.NewCircuitBreaker[[]Event](gobreaker.Settings{
		Name:        string(inner.Name()),
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("source", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})
	return &Breaker{inner: inner, cb: cb}
}

func (b *Breaker) Name() Source {
	return b.inner.Name()
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func (b *Breaker) SearchArtist(ctx context.Context, artist string, q Query) ([]Event, error) {
	return b.cb.Execute(func() ([]Event, error) {
		return b.inner.SearchArtist(ctx, artist, q)
	})
}

func (b *Breaker) SearchGenre(ctx context.Context, keyword string, q Query) ([]Event, error) {
	return b.cb.Execute(func() ([]Event, error) {
		return b.inner.SearchGenre(ctx, keyword, q)
	})
}

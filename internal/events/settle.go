package events

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ademuri/vibe-gigs/internal/logging"
)

// MaxConcurrentSources bounds how many sources are queried at once.
const MaxConcurrentSources = 5

// Settle runs fn and turns a failure into an empty result, logging it.
func Settle(source Source, subject string, fn func() ([]Event, error)) []Event {
	evs, err := fn()
	if err != nil {
		logging.Warn().
			Str("source", string(source)).
			Str("query", subject).
			Err(err).
			Msg("event source failed, treating as no results")
		return nil
	}
	return evs
}

// SearchArtists looks up every artist on every searcher. Searchers run
// concurrently, at most MaxConcurrentSources at a time; each searcher goes
// through the artists one by one, waiting pace between requests. A failing
// searcher or artist only loses its own results. Event ids are renumbered
// per source as "<source>-<n>".
func SearchArtists(ctx context.Context, searchers []Searcher, artists []string, q Query, pace time.Duration) map[Source][]Event {
	results := make([][]Event, len(searchers))

	var g errgroup.Group
	g.SetLimit(MaxConcurrentSources)
	for i, s := range searchers {
		g.Go(func() error {
			limiter := rate.NewLimiter(rate.Every(pace), 1)
			var found []Event
			for _, artist := range artists {
				if pace > 0 {
					if err := limiter.Wait(ctx); err != nil {
						logging.Warn().Str("source", string(s.Name())).Err(err).Msg("search cancelled")
						break
					}
				}
				evs := Settle(s.Name(), artist, func() ([]Event, error) {
					return s.SearchArtist(ctx, artist, q)
				})
				for _, e := range evs {
					e.ID = fmt.Sprintf("%s-%d", s.Name(), len(found))
					found = append(found, e)
				}
			}
			results[i] = found
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[Source][]Event, len(searchers))
	for i, s := range searchers {
		out[s.Name()] = results[i]
	}
	return out
}

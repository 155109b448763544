package events

import (
	"context"
	"fmt"
)

// Query carries the location options of a search. Scrapers only use City;
// geo-capable sources use the coordinates, radius and size as well.
type Query struct {
	City     string
	Lat      float64
	Lon      float64
	HasGeo   bool
	RadiusKm int
	Size     int
	GenreIDs []string
}

// Searcher is an event provider that can look up an artist by name or a
// genre by keyword.
type Searcher interface {
	Name() Source
	SearchArtist(ctx context.Context, artist string, q Query) ([]Event, error)
	SearchGenre(ctx context.Context, keyword string, q Query) ([]Event, error)
}

// Registry holds the configured searchers in registration order.
type Registry struct {
	searchers []Searcher
	byName    map[Source]Searcher
}

func NewRegistry(searchers ...Searcher) *Registry {
	r := &Registry{byName: make(map[Source]Searcher)}
	for _, s := range searchers {
		r.Register(s)
	}
	return r
}

// Register adds s, replacing any searcher already registered under the same
// name.
func (r *Registry) Register(s Searcher) {
	if _, ok := r.byName[s.Name()]; ok {
		for i, existing := range r.searchers {
			if existing.Name() == s.Name() {
				r.searchers[i] = s
			}
		}
	} else {
		r.searchers = append(r.searchers, s)
	}
	r.byName[s.Name()] = s
}

func (r *Registry) Get(name Source) (Searcher, error) {
	s, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown event source %q", name)
	}
	return s, nil
}

func (r *Registry) Searchers() []Searcher {
	return append([]Searcher(nil), r.searchers...)
}

// Names lists the registered sources.
func (r *Registry) Names() []Source {
	names := make([]Source, len(r.searchers))
	for i, s := range r.searchers {
		names[i] = s.Name()
	}
	return names
}

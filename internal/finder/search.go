package finder

import (
	"context"

	"github.com/google/uuid"

	"github.com/ademuri/vibe-gigs/internal/aggregate"
	"github.com/ademuri/vibe-gigs/internal/analysis"
	"github.com/ademuri/vibe-gigs/internal/events"
	"github.com/ademuri/vibe-gigs/internal/extract"
	"github.com/ademuri/vibe-gigs/internal/logging"
	"github.com/ademuri/vibe-gigs/internal/match"
	"github.com/ademuri/vibe-gigs/internal/vibe"
)

// MaxSearchArtists bounds how many artists one search looks up.
const MaxSearchArtists = 20

type SearchRequest struct {
	Artists []string `json:"artists" validate:"required,min=1,dive,required"`
	City    string   `json:"city"`

	// Rank scores the events against the listening history when the finder
	// has a listening source. PlaylistIDs selects the history as for Match.
	Rank        bool     `json:"rank"`
	PlaylistIDs []string `json:"playlistIds"`

	// Limit caps Recommended. Defaults to match.DefaultLimit.
	Limit int `json:"limit" validate:"omitempty,gte=1,lte=100"`
}

type SearchStats struct {
	TotalArtists         int `json:"totalArtists"`
	ArtistsWithEvents    int `json:"artistsWithEvents"`
	ArtistsWithoutEvents int `json:"artistsWithoutEvents"`
}

type SearchResponse struct {
	RunID string `json:"runId"`
	aggregate.Result
	Total int `json:"total"`

	// SearchLinks lets the user look for artists that had no events.
	SearchLinks map[string]events.Links `json:"searchLinks"`
	Stats       SearchStats             `json:"stats"`

	// Recommended is set for ranked searches: the events scored by how often
	// the listener plays the artist or, failing that, by style.
	Recommended []events.Event `json:"recommended,omitempty"`
}

// SearchArtists finds upcoming events for the first MaxSearchArtists artists
// on every ticket site.
func (f *Finder) SearchArtists(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if err := f.check(req); err != nil {
		return nil, err
	}
	city := req.City
	if city == "" {
		city = events.DefaultCity
	}
	artists := req.Artists[:min(MaxSearchArtists, len(req.Artists))]

	runID := uuid.NewString()
	logging.Info().
		Str("run", runID).
		Str("city", city).
		Int("artists", len(artists)).
		Msg("searching ticket sites")

	bySource := events.SearchArtists(ctx, f.sites, artists, events.Query{City: city}, f.pace)
	res := aggregate.Aggregate(bySource, artists, f.now())
	if _, ok := res.Sources[events.Bandsintown]; !ok {
		res.Sources[events.Bandsintown] = 0
	}

	links := make(map[string]events.Links, len(res.ArtistsWithoutEvents))
	for _, a := range res.ArtistsWithoutEvents {
		links[a] = events.SearchLinks(a)
	}

	logging.Info().
		Str("run", runID).
		Int("events", len(res.Events)).
		Int("artists_with_events", len(res.ArtistsWithEvents)).
		Msg("ticket site search done")

	resp := &SearchResponse{
		RunID:       runID,
		Result:      res,
		Total:       len(res.Events),
		SearchLinks: links,
		Stats: SearchStats{
			TotalArtists:         len(artists),
			ArtistsWithEvents:    len(res.ArtistsWithEvents),
			ArtistsWithoutEvents: len(res.ArtistsWithoutEvents),
		},
	}
	if req.Rank {
		resp.Recommended = f.rank(ctx, runID, res.Events, req)
	}
	return resp, nil
}

// rank scores evs against the listening history. Without any top vibes there
// is nothing to style match on, so every event is ranked by artist frequency
// alone.
func (f *Finder) rank(ctx context.Context, runID string, evs []events.Event, req SearchRequest) []events.Event {
	if f.listening == nil || len(evs) == 0 {
		return nil
	}
	playlists := f.playlists(ctx, req.PlaylistIDs)
	if len(req.PlaylistIDs) > 0 && len(playlists) == 0 {
		return nil
	}
	records, err := f.listening.Records(ctx, playlists)
	if err != nil {
		logging.Warn().Str("run", runID).Err(err).Msg("listening history unavailable, not ranking")
		return nil
	}
	if len(records) == 0 {
		return nil
	}

	extracted := extract.Artists(records)
	profile := analysis.BuildProfile(extracted.Names(), append(extract.Titles(records), f.hints(ctx)...))
	styles := vibeNames(profile.TopVibes)

	var ranked []events.Event
	if len(styles) == 0 {
		ranked = match.TopMatches(evs, extracted.Frequencies, req.Limit)
	} else {
		ranked = match.SmartMatches(evs, extracted.Frequencies, styles, req.Limit)
	}
	logging.Info().
		Str("run", runID).
		Int("records", len(records)).
		Strs("styles", styles).
		Int("ranked", len(ranked)).
		Msg("ranked search results")
	return ranked
}

// vibeNames returns the display names of the vibe keys, which is how event
// genres are spelled.
func vibeNames(keys []string) []string {
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		if c, ok := vibe.Lookup(key); ok {
			names = append(names, c.Name)
		}
	}
	return names
}

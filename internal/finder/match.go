package finder

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ademuri/vibe-gigs/internal/aggregate"
	"github.com/ademuri/vibe-gigs/internal/analysis"
	"github.com/ademuri/vibe-gigs/internal/events"
	"github.com/ademuri/vibe-gigs/internal/extract"
	"github.com/ademuri/vibe-gigs/internal/logging"
	"github.com/ademuri/vibe-gigs/internal/match"
	"github.com/ademuri/vibe-gigs/internal/vibe"
	"github.com/ademuri/vibe-gigs/internal/youtube"
)

const (
	genreSearchSize  = 30
	artistSearchSize = 3

	// Top artists looked up by name.
	maxArtistSearches = 5

	// Top matches whose artists get social links.
	maxSocialArtists = 3

	upcomingGigs = 3
)

// MatchRequest asks for the events nearest a location that fit the taste
// shown by a set of playlists.
type MatchRequest struct {
	PlaylistIDs []string `json:"playlistIds"`

	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`

	// RadiusKm defaults to events.DefaultRadiusKm.
	RadiusKm int `json:"radius" validate:"omitempty,gt=0,lte=20000"`

	// Size of the genre search. Defaults to 30.
	Size int `json:"size" validate:"omitempty,gte=1,lte=200"`
}

// Match is a ranked event with the vibes read from it and its artist's links.
type Match struct {
	events.Event
	DetectedVibes []string `json:"detectedVibes"`
	YouTubeURL    string   `json:"youtubeUrl,omitempty"`
	InstagramURL  string   `json:"instagramUrl,omitempty"`
}

type ProfileSummary struct {
	TopVibes    []string       `json:"topVibes"`
	VibeWeights map[string]int `json:"vibeWeights"`
	GenreIDs    []string       `json:"genreIds"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Stats struct {
	TotalPlaylists     int      `json:"totalPlaylists"`
	PlaylistsAnalyzed  int      `json:"playlistsAnalyzed"`
	TotalVideos        int      `json:"totalVideos"`
	UniqueArtists      int      `json:"uniqueArtists"`
	EventsFound        int      `json:"eventsFound"`
	ExactArtistMatches int      `json:"exactArtistMatches"`
	StyleMatches       int      `json:"styleMatches"`
	SocialLinksFound   int      `json:"socialLinksFound"`
	UserLocation       Location `json:"userLocation"`
}

type MatchResponse struct {
	RunID             string          `json:"runId"`
	TopMatch          *Match          `json:"topMatch"`
	UpcomingGigs      []Match         `json:"upcomingGigs"`
	AllMatches        []Match         `json:"allMatches"`
	ArtistFrequencies map[string]int  `json:"artistFrequencies"`
	TasteProfile      *ProfileSummary `json:"tasteProfile"`
	Stats             Stats           `json:"stats"`
	Message           string          `json:"message,omitempty"`

	// Artists and Profile are kept for callers that render them
	// differently.
	Artists []extract.Artist     `json:"-"`
	Profile analysis.TasteProfile `json:"-"`
}

// Match runs the nearest-matches flow. Only an invalid request is an error;
// failing sources just contribute nothing.
func (f *Finder) Match(ctx context.Context, req MatchRequest) (*MatchResponse, error) {
	if err := f.check(req); err != nil {
		return nil, err
	}
	if req.RadiusKm == 0 {
		req.RadiusKm = events.DefaultRadiusKm
	}
	if req.Size == 0 {
		req.Size = genreSearchSize
	}

	runID := uuid.NewString()
	log := logging.With().Str("run", runID).Logger()
	loc := Location{Latitude: *req.Latitude, Longitude: *req.Longitude}

	resp := &MatchResponse{
		RunID:             runID,
		UpcomingGigs:      []Match{},
		AllMatches:        []Match{},
		ArtistFrequencies: map[string]int{},
		Stats:             Stats{UserLocation: loc},
	}

	playlists := f.playlists(ctx, req.PlaylistIDs)
	resp.Stats.TotalPlaylists = len(playlists)
	resp.Stats.PlaylistsAnalyzed = len(playlists)
	if len(req.PlaylistIDs) > 0 && len(playlists) == 0 {
		resp.Message = "No playlists found"
		return resp, nil
	}

	records, err := f.listening.Records(ctx, playlists)
	if err != nil {
		log.Warn().Err(err).Msg("listening history unavailable, treating as empty")
		records = nil
	}
	if len(records) == 0 {
		resp.Message = "No listening history found"
		return resp, nil
	}

	extracted := extract.Artists(records)
	names := extracted.Names()
	titles := append(extract.Titles(records), f.hints(ctx)...)

	profile := analysis.BuildProfile(names, titles)
	formatted := analysis.Format(profile)
	profile = analysis.WithPopFallback(profile)
	log.Info().
		Int("records", len(records)).
		Int("artists", len(names)).
		Strs("vibes", formatted).
		Msg("built taste profile")

	resp.Artists = extracted.Artists
	resp.Profile = profile
	resp.ArtistFrequencies = extracted.Frequencies
	resp.TasteProfile = &ProfileSummary{
		TopVibes:    formatted,
		VibeWeights: profile.VibeWeights,
		GenreIDs:    profile.GenreIDs,
	}
	resp.Stats.TotalVideos = len(records)
	resp.Stats.UniqueArtists = len(names)

	q := events.Query{
		Lat:      loc.Latitude,
		Lon:      loc.Longitude,
		HasGeo:   true,
		RadiusKm: req.RadiusKm,
	}
	found := f.searchNearby(ctx, q, req.Size, profile.GenreIDs, names)
	ranked := score(found, names, extracted.Frequencies, profile)

	socials := f.resolveSocials(ctx, ranked)
	matches := make([]Match, len(ranked))
	for i, e := range ranked {
		m := Match{Event: e, DetectedVibes: eventVibes(e)}
		if s, ok := socials[e.ArtistName]; ok {
			m.YouTubeURL = s.YouTube
			m.InstagramURL = s.Instagram
		}
		matches[i] = m

		if e.IsExactMatch {
			resp.Stats.ExactArtistMatches++
		} else if e.IsStyleMatch {
			resp.Stats.StyleMatches++
		}
	}

	resp.AllMatches = matches
	if len(matches) > 0 {
		resp.TopMatch = &matches[0]
		resp.UpcomingGigs = matches[1:min(1+upcomingGigs, len(matches))]
	}
	resp.Stats.EventsFound = len(matches)
	resp.Stats.SocialLinksFound = len(socials)

	log.Info().
		Int("events", len(matches)).
		Int("exact", resp.Stats.ExactArtistMatches).
		Int("style", resp.Stats.StyleMatches).
		Msg("ranked matches")
	return resp, nil
}

func (f *Finder) playlists(ctx context.Context, ids []string) []string {
	if len(ids) > 0 {
		return f.owned(ctx, ids)
	}
	sel, ok := f.listening.(DefaultSelector)
	if !ok {
		return nil
	}
	ids, err := sel.DefaultPlaylists(ctx, defaultPlaylistCount)
	if err != nil {
		logging.Warn().Err(err).Msg("listing playlists failed")
		return nil
	}
	return ids
}

// owned keeps the ids that name one of the listener's playlists, in request
// order. If the source cannot list playlists the ids are kept as they are.
func (f *Finder) owned(ctx context.Context, ids []string) []string {
	pl, ok := f.listening.(PlaylistLister)
	if !ok {
		return ids
	}
	mine, err := pl.Playlists(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("listing playlists failed, using requested ids")
		return ids
	}
	known := make(map[string]bool, len(mine))
	for _, p := range mine {
		known[p.ID] = true
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if known[id] {
			out = append(out, id)
		}
	}
	if len(out) < len(ids) {
		logging.Warn().
			Int("requested", len(ids)).
			Int("owned", len(out)).
			Msg("ignoring playlists that are not the listener's")
	}
	return out
}

func (f *Finder) hints(ctx context.Context) []string {
	hs, ok := f.listening.(HintSource)
	if !ok {
		return nil
	}
	hints, err := hs.ProfileHints(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("profile hints unavailable")
		return nil
	}
	return hints
}

// searchNearby runs the genre search and then the paced per-artist searches.
// Results are unique by id; a later duplicate replaces the earlier one.
func (f *Finder) searchNearby(ctx context.Context, q events.Query, size int, genreIDs, artists []string) []events.Event {
	if f.geo == nil {
		return nil
	}
	var all []events.Event

	if len(genreIDs) > 0 {
		gq := q
		gq.Size = size
		gq.GenreIDs = genreIDs
		evs := events.Settle(f.geo.Name(), "genres", func() ([]events.Event, error) {
			return f.geo.SearchGenre(ctx, "", gq)
		})
		for _, e := range evs {
			e.IsStyleMatch = true
			all = append(all, e)
		}
	}

	aq := q
	aq.Size = artistSearchSize
	limiter := rate.NewLimiter(rate.Every(f.pace), 1)
	for _, artist := range artists[:min(maxArtistSearches, len(artists))] {
		if f.pace > 0 {
			if err := limiter.Wait(ctx); err != nil {
				logging.Warn().Err(err).Msg("artist search cancelled")
				break
			}
		}
		evs := events.Settle(f.geo.Name(), artist, func() ([]events.Event, error) {
			return f.geo.SearchArtist(ctx, artist, aq)
		})
		for _, e := range evs {
			e.IsStyleMatch = false
			e.IsExactMatch = true
			all = append(all, e)
		}
	}

	return dedupByID(all)
}

func dedupByID(evs []events.Event) []events.Event {
	index := make(map[string]int, len(evs))
	var out []events.Event
	for _, e := range evs {
		if i, ok := index[e.ID]; ok {
			out[i] = e
			continue
		}
		index[e.ID] = len(out)
		out = append(out, e)
	}
	return out
}

// score sets VibeMatch on every event and returns the ranked list.
func score(evs []events.Event, artists []string, freq map[string]int, p analysis.TasteProfile) []events.Event {
	for i := range evs {
		e := &evs[i]
		if e.IsExactMatch {
			e.VibeMatch = match.ExactArtist(e.ArtistName, artists, freq)
		} else {
			e.VibeMatch = match.VibeMatch(eventVibes(*e), p)
		}
		aggregate.ApplyStyleFloor(e)
	}
	return aggregate.Rank(evs)
}

func eventVibes(e events.Event) []string {
	vibes := vibe.Detect(e.ArtistName + " " + strings.Join(e.Genres, " "))
	if vibes == nil {
		vibes = []string{}
	}
	return vibes
}

func (f *Finder) resolveSocials(ctx context.Context, ranked []events.Event) map[string]youtube.Socials {
	if f.socials == nil || len(ranked) == 0 {
		return map[string]youtube.Socials{}
	}
	var artists []string
	seen := make(map[string]bool)
	for _, e := range ranked[:min(maxSocialArtists, len(ranked))] {
		if !seen[e.ArtistName] {
			seen[e.ArtistName] = true
			artists = append(artists, e.ArtistName)
		}
	}
	return f.socials.Socials(ctx, artists)
}

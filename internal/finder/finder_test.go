package finder

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/ademuri/vibe-gigs/internal/events"
	"github.com/ademuri/vibe-gigs/internal/extract"
	"github.com/ademuri/vibe-gigs/internal/match"
	"github.com/ademuri/vibe-gigs/internal/vibe"
	"github.com/ademuri/vibe-gigs/internal/youtube"
)

type fakeListening struct {
	records  []extract.Record
	err      error
	defaults []string
	hints    []string

	mu  sync.Mutex
	ids [][]string
}

func (f *fakeListening) Records(ctx context.Context, ids []string) ([]extract.Record, error) {
	f.mu.Lock()
	f.ids = append(f.ids, ids)
	f.mu.Unlock()
	return f.records, f.err
}

func (f *fakeListening) DefaultPlaylists(ctx context.Context, n int) ([]string, error) {
	return f.defaults[:min(n, len(f.defaults))], nil
}

func (f *fakeListening) ProfileHints(ctx context.Context) ([]string, error) {
	return f.hints, nil
}

type fakeGeo struct {
	genre    []events.Event
	genreErr error
	byArtist map[string][]events.Event
	failing  map[string]bool

	mu          sync.Mutex
	genreQuery  events.Query
	artistQuery events.Query
	artists     []string
}

func (f *fakeGeo) Name() events.Source { return events.Ticketmaster }

func (f *fakeGeo) SearchGenre(ctx context.Context, keyword string, q events.Query) ([]events.Event, error) {
	f.mu.Lock()
	f.genreQuery = q
	f.mu.Unlock()
	return f.genre, f.genreErr
}

func (f *fakeGeo) SearchArtist(ctx context.Context, artist string, q events.Query) ([]events.Event, error) {
	f.mu.Lock()
	f.artistQuery = q
	f.artists = append(f.artists, artist)
	f.mu.Unlock()
	if f.failing[artist] {
		return nil, errors.New("upstream 500")
	}
	return f.byArtist[artist], nil
}

type fakeSocials struct {
	asked []string
}

func (f *fakeSocials) Socials(ctx context.Context, artists []string) map[string]youtube.Socials {
	f.asked = artists
	out := make(map[string]youtube.Socials)
	for _, a := range artists {
		if a == "Black Coffee" {
			out[a] = youtube.Socials{YouTube: "https://www.youtube.com/channel/UCbc", Instagram: "https://www.instagram.com/realblackcoffee"}
		}
	}
	return out
}

func ptr(f float64) *float64 { return &f }

func listening() *fakeListening {
	return &fakeListening{
		records: []extract.Record{
			{Title: "Black Coffee - Afro house set", ChannelText: "Black Coffee"},
			{Title: "Black Coffee - Afro house set", ChannelText: "Black Coffee"},
			{Title: "Black Coffee - Afro house set", ChannelText: "Black Coffee"},
			{Title: "Amelie Lens - techno live", ChannelText: "Amelie Lens"},
		},
		defaults: []string{"PL1", "PL2", "PL3", "PL4", "PL5", "PL6"},
	}
}

func geo() *fakeGeo {
	return &fakeGeo{
		genre: []events.Event{
			{ID: "ticketmaster-g1", ArtistName: "Some DJ", Genres: []string{"Dance/Electronic"}, Distance: events.Km(5)},
			{ID: "ticketmaster-g2", ArtistName: "Jazz Night", Genres: []string{"Jazz"}, Distance: events.Km(3)},
			{ID: "ticketmaster-bc1", ArtistName: "Black Coffee", Genres: []string{"Dance/Electronic"}},
			{ID: "ticketmaster-g4", ArtistName: "Afro Sunset", Genres: []string{"Afro House"}},
		},
		byArtist: map[string][]events.Event{
			"Black Coffee": {{ID: "ticketmaster-bc1", ArtistName: "Black Coffee", Distance: events.Km(50)}},
			"Amelie Lens":  {{ID: "ticketmaster-al", ArtistName: "Amelia Lensing"}},
		},
	}
}

func TestMatch(t *testing.T) {
	g := geo()
	s := &fakeSocials{}
	f := New(Config{Listening: listening(), Geo: g, Socials: s, Pace: -1})

	resp, err := f.Match(context.Background(), MatchRequest{
		PlaylistIDs: []string{"PL9"},
		Latitude:    ptr(50.45),
		Longitude:   ptr(30.52),
	})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}

	var ids []string
	for _, m := range resp.AllMatches {
		ids = append(ids, m.ID)
	}
	wantIDs := []string{"ticketmaster-bc1", "ticketmaster-g4", "ticketmaster-g2", "ticketmaster-g1"}
	if !reflect.DeepEqual(ids, wantIDs) {
		t.Fatalf("matches = %v, want %v", ids, wantIDs)
	}

	scores := map[string]int{}
	for _, m := range resp.AllMatches {
		scores[m.ID] = m.VibeMatch
	}
	wantScores := map[string]int{
		"ticketmaster-bc1": 96,
		"ticketmaster-g4":  98,
		"ticketmaster-g2":  82,
		"ticketmaster-g1":  80,
	}
	if !reflect.DeepEqual(scores, wantScores) {
		t.Errorf("scores = %v, want %v", scores, wantScores)
	}

	top := resp.TopMatch
	if top == nil || !top.IsExactMatch || top.IsStyleMatch {
		t.Fatalf("TopMatch = %+v", top)
	}
	if top.Distance == nil || *top.Distance != 50 {
		t.Errorf("artist search result did not replace genre result: %+v", top)
	}
	if top.InstagramURL != "https://www.instagram.com/realblackcoffee" {
		t.Errorf("InstagramURL = %q", top.InstagramURL)
	}
	if len(resp.UpcomingGigs) != 3 || resp.UpcomingGigs[0].ID != "ticketmaster-g4" {
		t.Errorf("UpcomingGigs = %+v", resp.UpcomingGigs)
	}
	if want := []string{vibe.Afrohouse, vibe.House}; !reflect.DeepEqual(resp.AllMatches[1].DetectedVibes, want) {
		t.Errorf("DetectedVibes = %v, want %v", resp.AllMatches[1].DetectedVibes, want)
	}

	if want := []string{"Black Coffee", "Afro Sunset", "Jazz Night"}; !reflect.DeepEqual(s.asked, want) {
		t.Errorf("socials asked for %v, want %v", s.asked, want)
	}

	wantProfile := &ProfileSummary{
		TopVibes:    []string{"Afrohouse (44%)", "House (41%)", "Techno (14%)"},
		VibeWeights: map[string]int{vibe.Afrohouse: 44, vibe.House: 41, vibe.Techno: 14},
		GenreIDs:    []string{"KnvZfZ7vAe1"},
	}
	if !reflect.DeepEqual(resp.TasteProfile, wantProfile) {
		t.Errorf("TasteProfile = %+v, want %+v", resp.TasteProfile, wantProfile)
	}
	if want := map[string]int{"Black Coffee": 3, "Amelie Lens": 1}; !reflect.DeepEqual(resp.ArtistFrequencies, want) {
		t.Errorf("ArtistFrequencies = %v", resp.ArtistFrequencies)
	}

	wantStats := Stats{
		TotalPlaylists:     1,
		PlaylistsAnalyzed:  1,
		TotalVideos:        4,
		UniqueArtists:      2,
		EventsFound:        4,
		ExactArtistMatches: 1,
		StyleMatches:       3,
		SocialLinksFound:   1,
		UserLocation:       Location{Latitude: 50.45, Longitude: 30.52},
	}
	if resp.Stats != wantStats {
		t.Errorf("Stats = %+v, want %+v", resp.Stats, wantStats)
	}

	if g.genreQuery.Size != 30 || g.genreQuery.RadiusKm != 1000 || !g.genreQuery.HasGeo {
		t.Errorf("genre query = %+v", g.genreQuery)
	}
	if !reflect.DeepEqual(g.genreQuery.GenreIDs, []string{"KnvZfZ7vAe1"}) {
		t.Errorf("genre ids = %v", g.genreQuery.GenreIDs)
	}
	if g.artistQuery.Size != 3 || g.artistQuery.GenreIDs != nil {
		t.Errorf("artist query = %+v", g.artistQuery)
	}
	if resp.RunID == "" {
		t.Error("RunID not set")
	}
}

func TestMatchDefaultsPlaylistsAndHints(t *testing.T) {
	l := &fakeListening{
		records:  []extract.Record{{Title: "Track one", ChannelText: "Someone"}},
		defaults: []string{"PL1", "PL2", "PL3", "PL4", "PL5", "PL6"},
		hints:    []string{"drum and bass", "jungle"},
	}
	f := New(Config{Listening: l, Geo: &fakeGeo{}, Pace: -1})

	resp, err := f.Match(context.Background(), MatchRequest{Latitude: ptr(0), Longitude: ptr(0)})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"PL1", "PL2", "PL3", "PL4", "PL5"}; !reflect.DeepEqual(l.ids[0], want) {
		t.Errorf("playlists = %v, want %v", l.ids[0], want)
	}
	if resp.Stats.TotalPlaylists != 5 {
		t.Errorf("TotalPlaylists = %d", resp.Stats.TotalPlaylists)
	}
	if want := []string{vibe.DrumAndBass}; !reflect.DeepEqual(resp.Profile.TopVibes, want) {
		t.Errorf("TopVibes = %v, want %v", resp.Profile.TopVibes, want)
	}
}

func TestMatchPopFallback(t *testing.T) {
	l := &fakeListening{records: []extract.Record{{Title: "Untitled", ChannelText: "Someone"}}}
	g := &fakeGeo{}
	f := New(Config{Listening: l, Geo: g, Pace: -1})

	resp, err := f.Match(context.Background(), MatchRequest{PlaylistIDs: []string{"x"}, Latitude: ptr(1), Longitude: ptr(2)})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(g.genreQuery.GenreIDs, []string{vibe.PopGenreID}) {
		t.Errorf("genre ids = %v, want pop", g.genreQuery.GenreIDs)
	}
	if len(resp.TasteProfile.TopVibes) != 0 {
		t.Errorf("formatted vibes = %v, want none", resp.TasteProfile.TopVibes)
	}
	if !reflect.DeepEqual(resp.Profile.TopVibes, []string{vibe.Pop}) {
		t.Errorf("TopVibes = %v", resp.Profile.TopVibes)
	}
}

func TestMatchSourcesFail(t *testing.T) {
	g := &fakeGeo{
		genreErr: errors.New("connection refused"),
		failing:  map[string]bool{"Black Coffee": true, "Amelie Lens": true},
	}
	f := New(Config{Listening: listening(), Geo: g, Pace: -1})

	resp, err := f.Match(context.Background(), MatchRequest{PlaylistIDs: []string{"x"}, Latitude: ptr(1), Longitude: ptr(2)})
	if err != nil {
		t.Fatalf("Match failed on source errors: %v", err)
	}
	if resp.TopMatch != nil || len(resp.AllMatches) != 0 || resp.AllMatches == nil {
		t.Errorf("matches = %+v", resp.AllMatches)
	}
	if len(g.artists) != 2 {
		t.Errorf("searched %v", g.artists)
	}
}

func TestMatchNoHistory(t *testing.T) {
	l := &fakeListening{err: errors.New("quota exceeded")}
	f := New(Config{Listening: l, Geo: &fakeGeo{}, Pace: -1})

	resp, err := f.Match(context.Background(), MatchRequest{PlaylistIDs: []string{"x"}, Latitude: ptr(1), Longitude: ptr(2)})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Message == "" || resp.TasteProfile != nil {
		t.Errorf("resp = %+v", resp)
	}
}

func TestMatchValidation(t *testing.T) {
	f := New(Config{Listening: listening(), Geo: geo(), Pace: -1})
	tests := []struct {
		name string
		req  MatchRequest
	}{
		{"no location", MatchRequest{}},
		{"no longitude", MatchRequest{Latitude: ptr(1)}},
		{"latitude out of range", MatchRequest{Latitude: ptr(91), Longitude: ptr(0)}},
		{"longitude out of range", MatchRequest{Latitude: ptr(0), Longitude: ptr(-181)}},
		{"radius too big", MatchRequest{Latitude: ptr(0), Longitude: ptr(0), RadiusKm: 20001}},
		{"negative size", MatchRequest{Latitude: ptr(0), Longitude: ptr(0), Size: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Match(context.Background(), tt.req)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("err = %v, want ErrInvalidRequest", err)
			}
			if HTTPStatus(err) != 400 {
				t.Errorf("HTTPStatus = %d", HTTPStatus(err))
			}
		})
	}
}

type fakeSite struct {
	name     events.Source
	byArtist map[string][]events.Event
	err      error
}

func (f *fakeSite) Name() events.Source { return f.name }

func (f *fakeSite) SearchArtist(ctx context.Context, artist string, q events.Query) ([]events.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []events.Event
	for _, e := range f.byArtist[artist] {
		e.City = q.City
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeSite) SearchGenre(ctx context.Context, keyword string, q events.Query) ([]events.Event, error) {
	return nil, nil
}

func TestSearchArtists(t *testing.T) {
	concert := &fakeSite{name: events.ConcertUA, byArtist: map[string][]events.Event{
		"Bicep": {
			{ArtistName: "Bicep", Venue: "Atlas", Date: "2030-01-05", Source: events.ConcertUA},
			{ArtistName: "Bicep", Venue: "Atlas", Date: "2020-01-05", Source: events.ConcertUA},
		},
	}}
	kontramarka := &fakeSite{name: events.Kontramarka, byArtist: map[string][]events.Event{
		"Bicep": {{ArtistName: "Bicep", Venue: "ATLAS", Date: "2030-01-05", TicketURL: "https://kontramarka.ua/buy/1", Source: events.Kontramarka}},
	}}
	karabas := &fakeSite{name: events.Karabas, err: errors.New("timeout")}

	now := func() time.Time { return time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC) }
	f := New(Config{Sites: []events.Searcher{concert, kontramarka, karabas}, Pace: -1, Now: now})

	resp, err := f.SearchArtists(context.Background(), SearchRequest{Artists: []string{"Bicep", "Solomun"}, City: "Lviv"})
	if err != nil {
		t.Fatalf("SearchArtists: %v", err)
	}
	if resp.Total != 1 || len(resp.Events) != 1 {
		t.Fatalf("events = %+v", resp.Events)
	}
	e := resp.Events[0]
	if e.TicketURL != "https://kontramarka.ua/buy/1" || e.City != "Lviv" {
		t.Errorf("event = %+v", e)
	}

	wantSources := map[events.Source]int{
		events.ConcertUA:   2,
		events.Kontramarka: 1,
		events.Karabas:     0,
		events.Bandsintown: 0,
	}
	if !reflect.DeepEqual(resp.Sources, wantSources) {
		t.Errorf("Sources = %v, want %v", resp.Sources, wantSources)
	}
	if !reflect.DeepEqual(resp.ArtistsWithEvents, []string{"Bicep"}) || !reflect.DeepEqual(resp.ArtistsWithoutEvents, []string{"Solomun"}) {
		t.Errorf("coverage = %v / %v", resp.ArtistsWithEvents, resp.ArtistsWithoutEvents)
	}
	if _, ok := resp.SearchLinks["Solomun"]; !ok || len(resp.SearchLinks) != 1 {
		t.Errorf("SearchLinks = %v", resp.SearchLinks)
	}
	if resp.Stats != (SearchStats{TotalArtists: 2, ArtistsWithEvents: 1, ArtistsWithoutEvents: 1}) {
		t.Errorf("Stats = %+v", resp.Stats)
	}
}

func TestSearchArtistsDefaultsAndLimits(t *testing.T) {
	site := &fakeSite{name: events.ConcertUA, byArtist: map[string][]events.Event{
		"a0": {{ArtistName: "a0", Venue: "v", Date: "2099-01-01"}},
	}}
	f := New(Config{Sites: []events.Searcher{site}, Pace: -1})

	var artists []string
	for i := 0; i < 25; i++ {
		artists = append(artists, "a"+string(rune('0'+i%10))+string(rune('a'+i)))
	}
	artists[0] = "a0"

	resp, err := f.SearchArtists(context.Background(), SearchRequest{Artists: artists})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Stats.TotalArtists != MaxSearchArtists {
		t.Errorf("TotalArtists = %d", resp.Stats.TotalArtists)
	}
	if resp.Events[0].City != events.DefaultCity {
		t.Errorf("City = %q, want default", resp.Events[0].City)
	}

	if _, err := f.SearchArtists(context.Background(), SearchRequest{}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("empty artists: err = %v", err)
	}
	if _, err := f.SearchArtists(context.Background(), SearchRequest{Artists: []string{""}}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("blank artist: err = %v", err)
	}
}

func TestExtractFromPlaylists(t *testing.T) {
	f := New(Config{Listening: listening()})
	resp, err := f.ExtractFromPlaylists(context.Background(), ExtractRequest{PlaylistIDs: []string{"PL1", "PL2"}})
	if err != nil {
		t.Fatal(err)
	}
	want := []extract.Artist{{Name: "Black Coffee", Count: 3}, {Name: "Amelie Lens", Count: 1}}
	if !reflect.DeepEqual(resp.Artists, want) || resp.TotalTracks != 4 || resp.PlaylistCount != 2 {
		t.Errorf("resp = %+v", resp)
	}

	if _, err := f.ExtractFromPlaylists(context.Background(), ExtractRequest{}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("err = %v", err)
	}
}

type ownedListening struct {
	*fakeListening
	owned []string
	err   error
}

func (o *ownedListening) Playlists(ctx context.Context) ([]youtube.Playlist, error) {
	if o.err != nil {
		return nil, o.err
	}
	out := make([]youtube.Playlist, len(o.owned))
	for i, id := range o.owned {
		out[i] = youtube.Playlist{ID: id, Title: "mine " + id}
	}
	return out, nil
}

func TestMatchKeepsOwnedPlaylists(t *testing.T) {
	tests := []struct {
		name        string
		requested   []string
		listErr     error
		wantIDs     []string
		wantMessage string
	}{
		{"some owned", []string{"PL1", "theirs", "PL3"}, nil, []string{"PL1", "PL3"}, ""},
		{"none owned", []string{"theirs"}, nil, nil, "No playlists found"},
		{"listing fails", []string{"theirs"}, errors.New("quota exceeded"), []string{"theirs"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &ownedListening{fakeListening: listening(), owned: []string{"PL1", "PL2", "PL3"}, err: tt.listErr}
			f := New(Config{Listening: l, Geo: &fakeGeo{}, Pace: -1})

			resp, err := f.Match(context.Background(), MatchRequest{PlaylistIDs: tt.requested, Latitude: ptr(1), Longitude: ptr(2)})
			if err != nil {
				t.Fatal(err)
			}
			if resp.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", resp.Message, tt.wantMessage)
			}
			if tt.wantIDs == nil {
				if len(l.ids) != 0 || resp.TasteProfile != nil {
					t.Errorf("read %v with profile %+v, want nothing", l.ids, resp.TasteProfile)
				}
				return
			}
			if len(l.ids) != 1 || !reflect.DeepEqual(l.ids[0], tt.wantIDs) {
				t.Fatalf("records read for %v, want %v", l.ids, tt.wantIDs)
			}
			if resp.Stats.TotalPlaylists != len(tt.wantIDs) || resp.TasteProfile == nil {
				t.Errorf("TotalPlaylists = %d, profile %+v", resp.Stats.TotalPlaylists, resp.TasteProfile)
			}
		})
	}
}

func TestExtractFromPlaylistsKeepsOwned(t *testing.T) {
	l := &ownedListening{fakeListening: listening(), owned: []string{"PL1"}}
	f := New(Config{Listening: l})

	resp, err := f.ExtractFromPlaylists(context.Background(), ExtractRequest{PlaylistIDs: []string{"PL1", "theirs"}})
	if err != nil {
		t.Fatal(err)
	}
	if resp.PlaylistCount != 1 || !reflect.DeepEqual(l.ids, [][]string{{"PL1"}}) {
		t.Errorf("PlaylistCount = %d, read %v", resp.PlaylistCount, l.ids)
	}

	resp, err = f.ExtractFromPlaylists(context.Background(), ExtractRequest{PlaylistIDs: []string{"theirs"}})
	if err != nil {
		t.Fatal(err)
	}
	if resp.PlaylistCount != 0 || len(resp.Artists) != 0 || resp.Artists == nil || len(l.ids) != 1 {
		t.Errorf("resp = %+v, read %v", resp, l.ids)
	}
}

func TestSearchArtistsRanked(t *testing.T) {
	site := &fakeSite{name: events.ConcertUA, byArtist: map[string][]events.Event{
		"Black Coffee": {{ArtistName: "Black Coffee", Venue: "Atlas", Date: "2030-02-01"}},
		"Amelie Lens":  {{ArtistName: "Amelie Lens", Venue: "K41", Date: "2030-01-01"}},
		"Stranger":     {{ArtistName: "Stranger", Venue: "Closer", Date: "2030-01-01", Genres: []string{"Techno"}}},
		"Nobody":       {{ArtistName: "Nobody", Venue: "Bar", Date: "2030-01-01", Genres: []string{"Polka"}}},
	}}
	now := func() time.Time { return time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC) }
	artists := []string{"Black Coffee", "Amelie Lens", "Stranger", "Nobody"}

	tests := []struct {
		name      string
		listening ListeningSource
		rank      bool
		want      []string
		wantTypes []string
	}{
		{"not asked", listening(), false, nil, nil},
		{"no history source", nil, true, nil, nil},
		{
			"library then style", listening(), true,
			[]string{"Black Coffee", "Amelie Lens", "Stranger"},
			[]string{match.TypeExact, match.TypeExact, match.TypeStyle},
		},
		{
			"no vibes ranks by frequency",
			&fakeListening{records: []extract.Record{{Title: "Nobody - Qwv", ChannelText: "Nobody"}}},
			true,
			[]string{"Nobody", "Amelie Lens", "Stranger", "Black Coffee"},
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(Config{Listening: tt.listening, Sites: []events.Searcher{site}, Pace: -1, Now: now})
			resp, err := f.SearchArtists(context.Background(), SearchRequest{Artists: artists, Rank: tt.rank, PlaylistIDs: []string{"PL1"}})
			if err != nil {
				t.Fatalf("SearchArtists: %v", err)
			}
			var got []string
			for _, e := range resp.Recommended {
				got = append(got, e.ArtistName)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Recommended = %v, want %v", got, tt.want)
			}
			for i, typ := range tt.wantTypes {
				if resp.Recommended[i].MatchType != typ {
					t.Errorf("%s MatchType = %q, want %q", got[i], resp.Recommended[i].MatchType, typ)
				}
			}
			if resp.Total != len(artists) {
				t.Errorf("Total = %d, ranking changed the events", resp.Total)
			}
		})
	}
}

package events

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/ademuri/vibe-gigs/internal/logging"
	"github.com/ademuri/vibe-gigs/internal/vibe"
)

const (
	ticketmasterBase = "https://app.ticketmaster.com/discovery/v2"

	DefaultRadiusKm = 1000
	DefaultSize     = 15
	DefaultSort     = "distance,asc"
)

// TicketmasterOptions are the Discovery API search parameters used here.
type TicketmasterOptions struct {
	Lat, Lon float64
	HasGeo   bool
	RadiusKm int
	GenreIDs []string
	Keyword  string
	Size     int
	Sort     string
}

// TicketmasterClient searches the Ticketmaster Discovery API.
type TicketmasterClient struct {
	apiKey  string
	client  *http.Client
	baseURL string
}

func NewTicketmaster(apiKey string, client *http.Client) (*TicketmasterClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ticketmaster API key is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &TicketmasterClient{apiKey: apiKey, client: client, baseURL: ticketmasterBase}, nil
}

// SetBaseURL points the client at another host, e.g. a test server.
func (c *TicketmasterClient) SetBaseURL(u string) {
	c.baseURL = strings.TrimSuffix(u, "/")
}

func (c *TicketmasterClient) Name() Source {
	return Ticketmaster
}

// SearchArtist finds events by keyword near the query location.
func (c *TicketmasterClient) SearchArtist(ctx context.Context, artist string, q Query) ([]Event, error) {
	opts := optionsFor(q)
	opts.Keyword = artist
	return c.Nearest(ctx, opts)
}

// SearchGenre finds music events in the query's genre ids. keyword is
// optional and narrows the search further.
func (c *TicketmasterClient) SearchGenre(ctx context.Context, keyword string, q Query) ([]Event, error) {
	opts := optionsFor(q)
	opts.Keyword = keyword
	return c.Nearest(ctx, opts)
}

// SearchByVibes maps vibe keys to genre ids and searches those.
func (c *TicketmasterClient) SearchByVibes(ctx context.Context, vibes []string, opts TicketmasterOptions) ([]Event, error) {
	opts.GenreIDs = GenreIDsFor(vibes)
	return c.Nearest(ctx, opts)
}

// GenreIDsFor returns the distinct genre ids of the given vibes, skipping
// unknown keys.
func GenreIDsFor(vibes []string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, key := range vibes {
		c, ok := vibe.Lookup(key)
		if !ok || seen[c.GenreID] {
			continue
		}
		seen[c.GenreID] = true
		ids = append(ids, c.GenreID)
	}
	return ids
}

func optionsFor(q Query) TicketmasterOptions {
	return TicketmasterOptions{
		Lat:      q.Lat,
		Lon:      q.Lon,
		HasGeo:   q.HasGeo,
		RadiusKm: q.RadiusKm,
		GenreIDs: q.GenreIDs,
		Size:     q.Size,
	}
}

// Nearest runs an events.json search. Results are sorted by distance unless
// opts.Sort says otherwise.
func (c *TicketmasterClient) Nearest(ctx context.Context, opts TicketmasterOptions) ([]Event, error) {
	if opts.RadiusKm == 0 {
		opts.RadiusKm = DefaultRadiusKm
	}
	if opts.Size == 0 {
		opts.Size = DefaultSize
	}
	if opts.Sort == "" {
		opts.Sort = DefaultSort
	}

	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("size", strconv.Itoa(opts.Size))
	params.Set("sort", opts.Sort)
	if opts.HasGeo {
		params.Set("geoPoint", fmt.Sprintf("%s,%s", formatCoord(opts.Lat), formatCoord(opts.Lon)))
		params.Set("radius", strconv.Itoa(opts.RadiusKm))
		params.Set("unit", "km")
	}
	if len(opts.GenreIDs) > 0 {
		params.Set("genreId", strings.Join(opts.GenreIDs, ","))
	}
	if opts.Keyword != "" {
		params.Set("keyword", opts.Keyword)
	}
	params.Set("classificationName", "music")

	body, err := fetch(ctx, c.client, c.baseURL+"/events.json?"+params.Encode(), map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("ticketmaster: %w", redact(err, c.apiKey))
	}

	var resp tmResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ticketmaster: decoding response: %w", err)
	}
	if resp.Embedded == nil || len(resp.Embedded.Events) == 0 {
		logging.Debug().Str("keyword", opts.Keyword).Msg("ticketmaster returned no events")
		return nil, nil
	}

	evs := make([]Event, 0, len(resp.Embedded.Events))
	for _, e := range resp.Embedded.Events {
		evs = append(evs, e.toEvent())
	}
	return evs, nil
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// redact keeps the API key out of logged URLs.
func redact(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), key, "API_KEY"))
}

type tmResponse struct {
	Embedded *struct {
		Events []tmEvent `json:"events"`
	} `json:"_embedded"`
}

type tmName struct {
	Name string `json:"name"`
}

type tmClassification struct {
	Genre    *tmName `json:"genre"`
	SubGenre *tmName `json:"subGenre"`
}

type tmEvent struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	URL   string `json:"url"`
	Dates struct {
		Start struct {
			LocalDate string `json:"localDate"`
			LocalTime string `json:"localTime"`
		} `json:"start"`
	} `json:"dates"`
	Embedded *struct {
		Venues []struct {
			Name    string `json:"name"`
			City    tmName `json:"city"`
			Country tmName `json:"country"`
		} `json:"venues"`
		Attractions []struct {
			Name            string             `json:"name"`
			Classifications []tmClassification `json:"classifications"`
		} `json:"attractions"`
	} `json:"_embedded"`
	Classifications []tmClassification `json:"classifications"`
	Images          []struct {
		URL   string `json:"url"`
		Width int    `json:"width"`
	} `json:"images"`
	Distance *float64 `json:"distance"`
}

func (e tmEvent) toEvent() Event {
	out := Event{
		ID:        "ticketmaster-" + e.ID,
		Date:      e.Dates.Start.LocalDate,
		Time:      e.Dates.Start.LocalTime,
		TicketURL: e.URL,
		Source:    Ticketmaster,
		Distance:  e.Distance,
		Venue:     "Venue TBA",
		City:      "TBA",
	}

	var genres []string
	seen := make(map[string]bool)
	addGenres := func(cs []tmClassification) {
		for _, c := range cs {
			for _, n := range []*tmName{c.Genre, c.SubGenre} {
				if n != nil && n.Name != "" && !seen[n.Name] {
					seen[n.Name] = true
					genres = append(genres, n.Name)
				}
			}
		}
	}
	addGenres(e.Classifications)

	if e.Embedded != nil {
		if len(e.Embedded.Venues) > 0 {
			v := e.Embedded.Venues[0]
			if v.Name != "" {
				out.Venue = v.Name
			}
			if v.City.Name != "" {
				out.City = v.City.Name
			}
			out.Country = v.Country.Name
		}
		if len(e.Embedded.Attractions) > 0 {
			a := e.Embedded.Attractions[0]
			out.ArtistName = a.Name
			addGenres(a.Classifications)
		}
	}
	if out.ArtistName == "" {
		name, _, _ := strings.Cut(e.Name, " - ")
		if name == "" {
			name = e.Name
		}
		out.ArtistName = name
	}
	out.Genres = genres

	out.Location = out.City
	if out.Country != "" {
		out.Location = out.City + ", " + out.Country
	}

	if len(e.Images) > 0 {
		imgs := append(e.Images[:0:0], e.Images...)
		sort.SliceStable(imgs, func(i, j int) bool { return imgs[i].Width > imgs[j].Width })
		out.ImageURL = imgs[0].URL
	}
	return out
}

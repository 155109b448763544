package events

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/andybalholm/cascadia"
	xhtml "golang.org/x/net/html"
)

const (
	scraperUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	// DefaultCity is where scraped events are assumed to be when the card
	// does not say.
	DefaultCity = "Kyiv"

	// Genre search results carry a title, not an artist; long titles are
	// shortened to this many characters.
	maxGenreArtistLen = 50
)

// site describes where a ticket site's search page lives and how its event
// cards are laid out.
type site struct {
	source Source
	base   string
	path   func(q string) string

	cards    cascadia.Selector
	title    cascadia.Selector
	venue    cascadia.Selector
	date     cascadia.Selector
	time     cascadia.Selector
	ticket   cascadia.Selector
	location cascadia.Selector
	image    cascadia.Selector
}

var (
	concertUASite = site{
		source:   ConcertUA,
		base:     concertUABase,
		path:     concertUAPath,
		cards:    cascadia.MustCompile(".event-card, .concert-item, .event-item, article"),
		title:    cascadia.MustCompile("h2, h3, .title, .event-title"),
		venue:    cascadia.MustCompile(".venue, .location, .place"),
		date:     cascadia.MustCompile(".date, time, .event-date"),
		ticket:   cascadia.MustCompile("a.ticket, a.buy, .buy-button"),
		location: cascadia.MustCompile(".city, .address"),
	}

	kontramarkaSite = site{
		source:   Kontramarka,
		base:     kontramarkaBase,
		path:     kontramarkaPath,
		cards:    cascadia.MustCompile(".event-item, .event-card, .concert-card"),
		title:    cascadia.MustCompile("h2, h3, .event-title, .title"),
		venue:    cascadia.MustCompile(".venue-name, .location, .place-name"),
		date:     cascadia.MustCompile(".date, .event-date, time"),
		time:     cascadia.MustCompile(".time, .event-time"),
		ticket:   cascadia.MustCompile(`a[href*="ticket"], a[href*="buy"]`),
		location: cascadia.MustCompile(".city, .location-city"),
	}

	karabasSite = site{
		source:   Karabas,
		base:     karabasBase,
		path:     karabasPath,
		cards:    cascadia.MustCompile(".event, .event-card, .show-card"),
		title:    cascadia.MustCompile("h2, h3, .event-name, .show-title"),
		venue:    cascadia.MustCompile(".venue, .place, .location-name"),
		date:     cascadia.MustCompile(".date, .show-date, time"),
		time:     cascadia.MustCompile(".time, .show-time"),
		ticket:   cascadia.MustCompile("a.buy-ticket, a.ticket-link"),
		location: cascadia.MustCompile(".city, .location-city"),
		image:    cascadia.MustCompile("img"),
	}
)

// Scraper searches one ticket site's HTML search page.
type Scraper struct {
	site    site
	client  *http.Client
	city    string
	baseURL string
}

// ScraperOption configures a Scraper.
type ScraperOption func(*Scraper)

// WithBaseURL points the scraper at another host, e.g. a test server.
func WithBaseURL(u string) ScraperOption {
	return func(s *Scraper) { s.baseURL = strings.TrimSuffix(u, "/") }
}

// WithCity sets the city used when neither the query nor the card names one.
func WithCity(city string) ScraperOption {
	return func(s *Scraper) { s.city = city }
}

func newScraper(st site, client *http.Client, opts ...ScraperOption) *Scraper {
	if client == nil {
		client = http.DefaultClient
	}
	s := &Scraper{site: st, client: client, city: DefaultCity, baseURL: st.base}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func NewConcertUA(client *http.Client, opts ...ScraperOption) *Scraper {
	return newScraper(concertUASite, client, opts...)
}

func NewKontramarka(client *http.Client, opts ...ScraperOption) *Scraper {
	return newScraper(kontramarkaSite, client, opts...)
}

func NewKarabas(client *http.Client, opts ...ScraperOption) *Scraper {
	return newScraper(karabasSite, client, opts...)
}

func (s *Scraper) Name() Source {
	return s.site.source
}

// SearchArtist returns the events on the site's search page for artist. Every
// card is attributed to artist.
func (s *Scraper) SearchArtist(ctx context.Context, artist string, q Query) ([]Event, error) {
	doc, err := s.search(ctx, artist)
	if err != nil {
		return nil, err
	}
	return s.parse(doc, s.cityFor(q), func(string) string { return artist }), nil
}

// SearchGenre returns the events found for a genre keyword. The artist is
// read from the card title, up to the first "-".
func (s *Scraper) SearchGenre(ctx context.Context, keyword string, q Query) ([]Event, error) {
	doc, err := s.search(ctx, keyword)
	if err != nil {
		return nil, err
	}
	evs := s.parse(doc, s.cityFor(q), artistFromTitle)
	for i := range evs {
		evs[i].IsStyleMatch = true
	}
	return evs, nil
}

func (s *Scraper) cityFor(q Query) string {
	if q.City != "" {
		return q.City
	}
	return s.city
}

func (s *Scraper) search(ctx context.Context, q string) (*xhtml.Node, error) {
	body, err := fetch(ctx, s.client, s.baseURL+s.site.path(q), map[string]string{
		"User-Agent": scraperUserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("%s search %q: %w", s.site.source, q, err)
	}
	doc, err := xhtml.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: parsing search page: %w", s.site.source, err)
	}
	return doc, nil
}

func (s *Scraper) parse(doc *xhtml.Node, city string, artistOf func(title string) string) []Event {
	st := s.site
	var evs []Event
	for _, card := range findAll(doc, st.cards) {
		title := firstText(card, st.title)
		dateText := firstText(card, st.date)
		if title == "" || dateText == "" {
			continue
		}

		e := Event{
			ID:         fmt.Sprintf("%s-%d", st.source, len(evs)),
			ArtistName: artistOf(title),
			Venue:      firstText(card, st.venue),
			Date:       ParseDate(dateText),
			Location:   firstText(card, st.location),
			City:       city,
			Source:     st.source,
		}
		if e.Venue == "" {
			e.Venue = "TBA"
		}
		if e.Location == "" {
			e.Location = city
		}
		if st.time != nil {
			e.Time = firstText(card, st.time)
		}
		if href := firstAttr(card, st.ticket, "href"); href != "" {
			e.TicketURL = s.absolute(href)
		}
		if st.image != nil {
			if src := firstAttr(card, st.image, "src"); src != "" {
				e.ImageURL = s.absolute(src)
			}
		}
		evs = append(evs, e)
	}
	return evs
}

func (s *Scraper) absolute(ref string) string {
	if strings.HasPrefix(ref, "http") {
		return ref
	}
	return s.site.base + ref
}

func artistFromTitle(title string) string {
	name, _, _ := strings.Cut(title, "-")
	name = strings.TrimSpace(name)
	if r := []rune(name); len(r) > maxGenreArtistLen {
		name = string([]rune(title)[:maxGenreArtistLen-3]) + "..."
	}
	return name
}

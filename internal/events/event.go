// Package events holds the event model and the adapters that find events:
// ticket-site scrapers, the Ticketmaster Discovery client and the source
// registry that fans queries out to them.
package events

// Source names an event provider.
type Source string

const (
	ConcertUA    Source = "concert-ua"
	Kontramarka  Source = "kontramarka"
	Karabas      Source = "karabas"
	Bandsintown  Source = "bandsintown"
	Ticketmaster Source = "ticketmaster"
)

// Event is one live event. Adapters fill the descriptive fields; the match
// flow fills IsStyleMatch, IsExactMatch and VibeMatch.
type Event struct {
	ID         string   `json:"id"`
	ArtistName string   `json:"artistName"`
	Venue      string   `json:"venue"`
	Date       string   `json:"date"`
	Time       string   `json:"time,omitempty"`
	Location   string   `json:"location"`
	City       string   `json:"city"`
	Country    string   `json:"country,omitempty"`
	TicketURL  string   `json:"ticketUrl,omitempty"`
	Source     Source   `json:"source"`
	ImageURL   string   `json:"imageUrl,omitempty"`
	Genres     []string `json:"genres,omitempty"`

	IsStyleMatch bool     `json:"isStyleMatch,omitempty"`
	IsExactMatch bool     `json:"isExactMatch,omitempty"`
	Distance     *float64 `json:"distance,omitempty"`
	VibeMatch    int      `json:"vibeMatch,omitempty"`

	// Set by the frequency based rankers.
	MatchPercentage int    `json:"matchPercentage,omitempty"`
	MatchType       string `json:"matchType,omitempty"`
}

// Km is a convenience for setting Event.Distance.
func Km(d float64) *float64 {
	return &d
}

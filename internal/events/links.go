package events

import (
	"net/url"
	"strings"
)

const (
	concertUABase   = "https://concert.ua"
	kontramarkaBase = "https://kontramarka.ua"
	karabasBase     = "https://karabas.com"
)

// Links are manual search pages on the ticket sites, offered for artists
// the scrapers found nothing for.
type Links struct {
	ConcertUA   string `json:"concertUa"`
	Kontramarka string `json:"kontramarka"`
	Karabas     string `json:"karabas"`
}

func SearchLinks(artist string) Links {
	return Links{
		ConcertUA:   concertUABase + concertUAPath(artist),
		Kontramarka: kontramarkaBase + kontramarkaPath(artist),
		Karabas:     karabasBase + karabasPath(artist),
	}
}

func concertUAPath(q string) string {
	return "/uk/search?q=" + escape(q)
}

func kontramarkaPath(q string) string {
	return "/uk/search/" + escape(q)
}

func karabasPath(q string) string {
	return "/search?query=" + escape(q)
}

// escape percent-encodes s for use as either a query value or a path
// segment. Spaces become %20.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

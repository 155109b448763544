// Package aggregate merges event lists from several sources into one ranked
// list.
package aggregate

import (
	"sort"
	"strings"
	"time"

	"github.com/ademuri/vibe-gigs/internal/events"
)

// Flattening walks sources in this order; unknown sources follow, by name.
var sourceOrder = []events.Source{
	events.ConcertUA,
	events.Kontramarka,
	events.Karabas,
	events.Bandsintown,
	events.Ticketmaster,
}

type Result struct {
	Events               []events.Event        `json:"events"`
	Sources              map[events.Source]int `json:"sources"`
	ArtistsWithEvents    []string              `json:"artistsWithEvents"`
	ArtistsWithoutEvents []string              `json:"artistsWithoutEvents"`
}

// Aggregate flattens the per-source lists, removes duplicates and past
// events, sorts by date and works out which of the queried artists turned
// up. now sets the day before which events count as past.
func Aggregate(bySource map[events.Source][]events.Event, queried []string, now time.Time) Result {
	sources := make(map[events.Source]int, len(bySource))
	var all []events.Event
	for _, src := range orderedSources(bySource) {
		sources[src] = len(bySource[src])
		all = append(all, bySource[src]...)
	}

	evs := Dedup(all)
	evs = Upcoming(evs, now)
	SortByDate(evs, now.Location())

	with := make([]string, 0)
	seen := make(map[string]bool)
	for _, e := range evs {
		if !seen[e.ArtistName] {
			seen[e.ArtistName] = true
			with = append(with, e.ArtistName)
		}
	}
	without := make([]string, 0)
	for _, a := range queried {
		if !seen[a] {
			without = append(without, a)
		}
	}

	if evs == nil {
		evs = []events.Event{}
	}
	return Result{
		Events:               evs,
		Sources:              sources,
		ArtistsWithEvents:    with,
		ArtistsWithoutEvents: without,
	}
}

func orderedSources(bySource map[events.Source][]events.Event) []events.Source {
	var out []events.Source
	known := make(map[events.Source]bool, len(sourceOrder))
	for _, s := range sourceOrder {
		known[s] = true
		if _, ok := bySource[s]; ok {
			out = append(out, s)
		}
	}
	var rest []events.Source
	for s := range bySource {
		if !known[s] {
			rest = append(rest, s)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(out, rest...)
}

// Key identifies the same show listed on more than one site.
func Key(e events.Event) string {
	return strings.ToLower(e.ArtistName) + "|" + strings.ToLower(e.Venue) + "|" + e.Date
}

// Dedup keeps one event per Key. A later duplicate replaces an earlier one
// only if it has a ticket link and the earlier one does not. Output order is
// the order in which each key was first seen.
func Dedup(evs []events.Event) []events.Event {
	index := make(map[string]int, len(evs))
	var out []events.Event
	for _, e := range evs {
		k := Key(e)
		i, ok := index[k]
		if !ok {
			index[k] = len(out)
			out = append(out, e)
			continue
		}
		if e.TicketURL != "" && out[i].TicketURL == "" {
			out[i] = e
		}
	}
	return out
}

// Upcoming drops events dated before the day of now. Events whose date
// cannot be parsed are kept.
func Upcoming(evs []events.Event, now time.Time) []events.Event {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var out []events.Event
	for _, e := range evs {
		day, ok := events.Day(e.Date, now.Location())
		if ok && day.Before(today) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// SortByDate orders events earliest first. Unparseable dates sort last, in
// their original order.
func SortByDate(evs []events.Event, loc *time.Location) {
	sort.SliceStable(evs, func(i, j int) bool {
		return events.DayBefore(evs[i].Date, evs[j].Date, loc)
	})
}

package match

import (
	"sort"
	"time"

	"github.com/ademuri/vibe-gigs/internal/events"
)

const (
	DefaultLimit = 10

	TypeExact = "exact"
	TypeStyle = "style"
)

// TopMatches scores every event with Percentage and returns the best limit
// of them, earliest first among equal scores. Nothing is dropped before the
// cut, so unknown artists can fill the tail with a score of 0.
func TopMatches(evs []events.Event, freq map[string]int, limit int) []events.Event {
	out := make([]events.Event, len(evs))
	for i, e := range evs {
		e.MatchPercentage = Percentage(e.ArtistName, freq)
		out[i] = e
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MatchPercentage != out[j].MatchPercentage {
			return out[i].MatchPercentage > out[j].MatchPercentage
		}
		return earlier(out[i].Date, out[j].Date)
	})
	return capAt(out, limit)
}

// SmartMatches scores library artists with Percentage and everything else
// with StyleMatch against the event's genres. Unmatched events are dropped.
// Library artists come first, then by score and date.
func SmartMatches(evs []events.Event, freq map[string]int, userTopGenres []string, limit int) []events.Event {
	var out []events.Event
	for _, e := range evs {
		e.MatchPercentage = SmartPercentage(e.ArtistName, freq, e.Genres, userTopGenres)
		if freq[e.ArtistName] > 0 {
			e.MatchType = TypeExact
			e.IsStyleMatch = false
		} else {
			e.MatchType = TypeStyle
			e.IsStyleMatch = e.MatchPercentage > 0
		}
		if e.MatchPercentage > 0 {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsStyleMatch != out[j].IsStyleMatch {
			return !out[i].IsStyleMatch
		}
		if out[i].MatchPercentage != out[j].MatchPercentage {
			return out[i].MatchPercentage > out[j].MatchPercentage
		}
		return earlier(out[i].Date, out[j].Date)
	})
	return capAt(out, limit)
}

func earlier(a, b string) bool {
	return events.DayBefore(a, b, time.Local)
}

func capAt(evs []events.Event, limit int) []events.Event {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(evs) > limit {
		return evs[:limit]
	}
	return evs
}

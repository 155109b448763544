package aggregate

import (
	"sort"

	"github.com/ademuri/vibe-gigs/internal/events"
)

const (
	// MinVibeMatch is the lowest score shown in nearest matches.
	MinVibeMatch = 75

	// MaxMatches caps the nearest-matches list.
	MaxMatches = 15

	// StyleFloor is given to genre search hits that no vibe matched.
	StyleFloor = 82
)

// ApplyStyleFloor raises a style-only match that scored 0 to StyleFloor.
// Exact artist matches are left alone.
func ApplyStyleFloor(e *events.Event) {
	if e.VibeMatch == 0 && e.IsStyleMatch && !e.IsExactMatch {
		e.VibeMatch = StyleFloor
	}
}

// Rank filters scored events below MinVibeMatch, orders the rest with exact
// artist matches first, then by score, then by distance, and returns at most
// MaxMatches of them.
func Rank(evs []events.Event) []events.Event {
	out := make([]events.Event, 0, len(evs))
	for _, e := range evs {
		if e.VibeMatch >= MinVibeMatch {
			out = append(out, e)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsExactMatch != b.IsExactMatch {
			return a.IsExactMatch
		}
		if a.VibeMatch != b.VibeMatch {
			return a.VibeMatch > b.VibeMatch
		}
		if a.Distance != nil && b.Distance != nil {
			return *a.Distance < *b.Distance
		}
		return false
	})

	if len(out) > MaxMatches {
		out = out[:MaxMatches]
	}
	return out
}

// Package match scores events against a listening history.
//
// There are two families of scores. ExactArtist and VibeMatch feed the
// nearest-matches flow and produce 95-100 and 80-98 respectively.
// Percentage, StyleMatch and the rankers in rank.go are the older
// frequency based scores (70-99 for library artists, at most 85 for style
// matches) used by ranked artist searches.
package match

import (
	"math"
	"strings"

	"github.com/ademuri/vibe-gigs/internal/analysis"
	"github.com/ademuri/vibe-gigs/internal/vibe"
)

// ExactArtist returns 0 when artist is not one of userArtists (ignoring case
// and surrounding space), otherwise 95 to 100 depending on how often the
// user played them.
func ExactArtist(artist string, userArtists []string, freq map[string]int) int {
	want := strings.ToLower(strings.TrimSpace(artist))

	matched := ""
	found := false
	for _, ua := range userArtists {
		if strings.ToLower(strings.TrimSpace(ua)) == want {
			matched = ua
			found = true
			break
		}
	}
	if !found {
		return 0
	}

	n, ok := freq[matched]
	if !ok || n == 0 {
		n = 1
	}
	switch {
	case n >= 10:
		return 100
	case n >= 5:
		return 98
	case n >= 3:
		return 96
	default:
		return 95
	}
}

// VibeMatch scores the vibes detected on an event against a profile. A vibe
// in the profile's top list scores by its rank and weight; failing that, a
// vibe sharing a genre id with the profile scores 80. The result is 0 or in
// [80, 98].
func VibeMatch(eventVibes []string, p analysis.TasteProfile) int {
	if len(eventVibes) == 0 || len(p.TopVibes) == 0 {
		return 0
	}

	var total float64
	count := 0
	for _, ev := range eventVibes {
		i := indexOf(p.TopVibes, ev)
		if i < 0 {
			continue
		}
		position := float64(98 - 3*i)
		bonus := math.Min(5, float64(p.VibeWeights[ev])/10)
		total += math.Min(98, position+bonus)
		count++
	}

	if count == 0 {
		genres := make(map[string]bool, len(p.GenreIDs))
		for _, id := range p.GenreIDs {
			genres[id] = true
		}
		for _, ev := range eventVibes {
			c, ok := vibe.Lookup(ev)
			if ok && c.GenreID != "" && genres[c.GenreID] {
				total += 80
				count++
			}
		}
	}

	if count == 0 {
		return 0
	}
	avg := int(math.Round(total / float64(count)))
	return clamp(avg, 80, 98)
}

// Percentage scores a library artist 70 to 99 relative to the most played
// artist. Artists missing from freq score 0. The lookup is by exact name.
func Percentage(artist string, freq map[string]int) int {
	n := freq[artist]
	if n == 0 {
		return 0
	}
	top := 0
	for _, v := range freq {
		if v > top {
			top = v
		}
	}
	p := 70 + int(math.Floor(float64(n)/float64(top)*29))
	return clamp(p, 70, 99)
}

// StyleMatch scores the best positioned event genre found in userTopGenres:
// 60 for the first, 50 for the second and so on, capped to [0, 85].
func StyleMatch(eventGenres []string, userTopGenres []string) int {
	best := 0
	for _, g := range eventGenres {
		if i := indexOf(userTopGenres, g); i >= 0 {
			if s := 60 - i*10; s > best {
				best = s
			}
		}
	}
	return clamp(best, 0, 85)
}

// SmartPercentage is Percentage when the artist is in the library, and
// StyleMatch otherwise.
func SmartPercentage(artist string, freq map[string]int, eventGenres []string, userTopGenres []string) int {
	if p := Percentage(artist, freq); p > 0 {
		return p
	}
	return StyleMatch(eventGenres, userTopGenres)
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

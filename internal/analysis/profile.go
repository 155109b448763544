package analysis

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/ademuri/vibe-gigs/internal/logging"
	"github.com/ademuri/vibe-gigs/internal/vibe"
)

const (
	// MaxTopVibes caps the number of vibes kept in a profile.
	MaxTopVibes = 5

	artistHitScore = 1.0
	titleHitScore  = 0.5
)

// Used only when no keyword matched anything.
var fallbackRules = []struct {
	pattern *regexp.Regexp
	key     string
	score   float64
}{
	{regexp.MustCompile(`\b(dj|mix|remix|beat|club|rave|festival|edm|dance)\b`), vibe.Electronic, 0.5},
	{regexp.MustCompile(`\b(ft\.|feat\.|featuring|cypher|freestyle|bars)\b`), vibe.HipHop, 0.5},
	{regexp.MustCompile(`\b(live|concert|tour|band|guitar|session)\b`), vibe.Rock, 0.3},
}

type tally struct {
	scores map[string]float64
	order  []string
}

func (t *tally) add(key string, score float64) {
	if _, ok := t.scores[key]; !ok {
		t.order = append(t.order, key)
	}
	t.scores[key] += score
}

// BuildProfile detects vibes in artist names (full weight) and titles (half
// weight), ranks them by frequency times category weight and keeps the top
// five.
func BuildProfile(artists []string, titles []string) TasteProfile {
	t := &tally{scores: make(map[string]float64)}

	for _, a := range artists {
		for _, key := range vibe.Detect(a) {
			t.add(key, artistHitScore)
		}
	}
	for _, title := range titles {
		for _, key := range vibe.Detect(title) {
			t.add(key, titleHitScore)
		}
	}

	if len(t.order) == 0 {
		all := strings.ToLower(strings.Join(append(append([]string{}, artists...), titles...), " "))
		for _, rule := range fallbackRules {
			if rule.pattern.MatchString(all) {
				t.add(rule.key, rule.score)
			}
		}
		logging.Debug().Strs("vibes", t.order).Msg("no vibe keywords found, used heuristic fallback")
	}

	type scored struct {
		key   string
		score float64
	}
	ranked := make([]scored, 0, len(t.order))
	vibeScores := make(map[string]float64, len(t.order))
	for _, key := range t.order {
		c, ok := vibe.Lookup(key)
		if !ok {
			continue
		}
		vibeScores[key] = t.scores[key]
		ranked = append(ranked, scored{key, t.scores[key] * float64(c.Weight)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) > MaxTopVibes {
		ranked = ranked[:MaxTopVibes]
	}

	var total float64
	for _, r := range ranked {
		total += r.score
	}

	profile := TasteProfile{
		TopVibes:    make([]string, 0, len(ranked)),
		VibeWeights: make(map[string]int, len(ranked)),
		VibeScores:  vibeScores,
	}
	if total > 0 {
		shares := make([]float64, len(ranked))
		for i, r := range ranked {
			shares[i] = 100 * r.score / total
		}
		for i, w := range roundShares(shares) {
			profile.VibeWeights[ranked[i].key] = w
		}
	}

	seenGenre := make(map[string]bool)
	seenTerm := make(map[string]bool)
	for _, r := range ranked {
		profile.TopVibes = append(profile.TopVibes, r.key)

		c, _ := vibe.Lookup(r.key)
		if !seenGenre[c.GenreID] {
			seenGenre[c.GenreID] = true
			profile.GenreIDs = append(profile.GenreIDs, c.GenreID)
		}
		for _, term := range c.SearchTerms {
			if !seenTerm[term] {
				seenTerm[term] = true
				profile.SearchTerms = append(profile.SearchTerms, term)
			}
		}
	}

	return profile
}

// roundShares rounds each percentage to the nearest integer. When rounding up
// pushes the total past 100, the shares that were rounded up by the most are
// taken back down one point each until the total is 100 again, lowest ranked
// first on ties.
func roundShares(shares []float64) []int {
	out := make([]int, len(shares))
	sum := 0
	for i, s := range shares {
		out[i] = int(math.Round(s))
		sum += out[i]
	}
	if sum <= 100 {
		return out
	}

	idx := make([]int, len(shares))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		da := float64(out[idx[a]]) - shares[idx[a]]
		db := float64(out[idx[b]]) - shares[idx[b]]
		if da != db {
			return da > db
		}
		return idx[a] > idx[b]
	})
	for _, i := range idx {
		if sum <= 100 {
			break
		}
		if float64(out[i]) > shares[i] {
			out[i]--
			sum--
		}
	}
	return out
}

// WithPopFallback returns a copy of p that searches Pop when the profile has
// no genre ids at all.
func WithPopFallback(p TasteProfile) TasteProfile {
	if len(p.GenreIDs) > 0 {
		return p
	}
	p.GenreIDs = append([]string{}, vibe.PopGenreID)
	p.TopVibes = append(append([]string{}, p.TopVibes...), vibe.Pop)
	return p
}

// Package vibe holds the fixed table of genre-like "vibes" and detects them
// in free text by keyword.
package vibe

import "strings"

// Category describes one vibe. Weight is a specificity constant: niche
// genres score higher than broad ones.
type Category struct {
	Key         string
	Name        string
	Keywords    []string
	SearchTerms []string
	GenreID     string
	Weight      int
}

// Keys of every known vibe.
const (
	Afrohouse    = "AFROHOUSE"
	Techno       = "TECHNO"
	House        = "HOUSE"
	Electronic   = "ELECTRONIC"
	DrumAndBass  = "DRUM_AND_BASS"
	Trance       = "TRANCE"
	HipHop       = "HIP_HOP"
	Trap         = "TRAP"
	Rock         = "ROCK"
	Indie        = "INDIE"
	Metal        = "METAL"
	Pop          = "POP"
	RnB          = "RNB"
	Jazz         = "JAZZ"
	Reggaeton    = "REGGAETON"
	Latin        = "LATIN"
	Country      = "COUNTRY"
	UkrainianPop = "UKRAINIAN_POP"
)

// Ticketmaster classification ids.
const (
	genreDance       = "KnvZfZ7vAe1"
	genrePop         = "KnvZfZ7vAev"
	genreRock        = "KnvZfZ7vAeA"
	genreAlternative = "KnvZfZ7vAed"
	genreMetal       = "KnvZfZ7vAvv"
	genreRnB         = "KnvZfZ7vAee"
	genreJazz        = "KnvZfZ7vAvE"
	genreLatin       = "KnvZfZ7vAJ6"
	genreCountry     = "KnvZfZ7vAv6"
)

// PopGenreID is the genre id searched when a profile yields none.
const PopGenreID = genrePop

var categories = []Category{
	{
		Key:         Afrohouse,
		Name:        "Afrohouse",
		Keywords:    []string{"afrohouse", "afro house", "afro-house", "afrobeat", "organic house", "amapiano"},
		SearchTerms: []string{"afrohouse", "afro house", "organic house"},
		GenreID:     genreDance,
		Weight:      95,
	},
	{
		Key:         Techno,
		Name:        "Techno",
		Keywords:    []string{"techno", "minimal techno", "detroit techno", "hard techno", "industrial techno"},
		SearchTerms: []string{"techno", "techno party", "rave"},
		GenreID:     genreDance,
		Weight:      92,
	},
	{
		Key:         House,
		Name:        "House",
		Keywords:    []string{"house", "deep house", "tech house", "progressive house", "bass house"},
		SearchTerms: []string{"house music", "deep house", "tech house"},
		GenreID:     genreDance,
		Weight:      88,
	},
	{
		Key:  Electronic,
		Name: "Electronic",
		Keywords: []string{
			"electronic", "edm", "electronica", "electronic music", "dance music",
			"dj", "mix", "remix", "club", "rave", "festival", "beat", "synth",
			"melodic", "progressive", "dubstep", "trap music", "bass music",
		},
		SearchTerms: []string{"electronic", "edm", "dance"},
		GenreID:     genreDance,
		Weight:      75,
	},
	{
		Key:         DrumAndBass,
		Name:        "Drum & Bass",
		Keywords:    []string{"drum and bass", "dnb", "d&b", "jungle", "liquid"},
		SearchTerms: []string{"drum and bass", "dnb"},
		GenreID:     genreDance,
		Weight:      90,
	},
	{
		Key:         Trance,
		Name:        "Trance",
		Keywords:    []string{"trance", "psytrance", "progressive trance", "uplifting trance"},
		SearchTerms: []string{"trance", "psytrance"},
		GenreID:     genreDance,
		Weight:      90,
	},
	{
		Key:  HipHop,
		Name: "Hip-Hop",
		Keywords: []string{
			"hip hop", "hip-hop", "hiphop", "rap", "rapper", "mc", "ft.", "feat.",
			"featuring", "cypher", "freestyle", "bars", "drill", "grime",
			"boom bap", "conscious rap",
		},
		SearchTerms: []string{"hip hop", "rap"},
		GenreID:     genrePop,
		Weight:      85,
	},
	{
		Key:         Trap,
		Name:        "Trap",
		Keywords:    []string{"trap", "trap music", "trap beats"},
		SearchTerms: []string{"trap"},
		GenreID:     genrePop,
		Weight:      85,
	},
	{
		Key:         Rock,
		Name:        "Rock",
		Keywords:    []string{"rock", "rock music", "classic rock"},
		SearchTerms: []string{"rock", "rock concert"},
		GenreID:     genreRock,
		Weight:      80,
	},
	{
		Key:         Indie,
		Name:        "Indie",
		Keywords:    []string{"indie", "indie rock", "indie pop", "alternative", "alt rock"},
		SearchTerms: []string{"indie", "alternative"},
		GenreID:     genreAlternative,
		Weight:      85,
	},
	{
		Key:         Metal,
		Name:        "Metal",
		Keywords:    []string{"metal", "heavy metal", "metalcore", "death metal", "black metal"},
		SearchTerms: []string{"metal", "heavy metal"},
		GenreID:     genreMetal,
		Weight:      90,
	},
	{
		Key:  Pop,
		Name: "Pop",
		Keywords: []string{
			"pop", "pop music", "mainstream", "top 40", "chart", "viral", "hit",
			"single", "album", "official video", "music video", "lyric video",
		},
		SearchTerms: []string{"pop", "pop concert"},
		GenreID:     genrePop,
		Weight:      70,
	},
	{
		Key:         RnB,
		Name:        "R&B",
		Keywords:    []string{"r&b", "rnb", "rhythm and blues", "soul", "neo soul"},
		SearchTerms: []string{"rnb", "soul"},
		GenreID:     genreRnB,
		Weight:      85,
	},
	{
		Key:         Jazz,
		Name:        "Jazz",
		Keywords:    []string{"jazz", "jazz music", "bebop", "smooth jazz", "fusion"},
		SearchTerms: []string{"jazz", "jazz club"},
		GenreID:     genreJazz,
		Weight:      90,
	},
	{
		Key:         Reggaeton,
		Name:        "Reggaeton",
		Keywords:    []string{"reggaeton", "reggaetón", "latin trap", "dembow"},
		SearchTerms: []string{"reggaeton", "latin"},
		GenreID:     genreLatin,
		Weight:      90,
	},
	{
		Key:         Latin,
		Name:        "Latin",
		Keywords:    []string{"latin", "salsa", "bachata", "merengue", "cumbia"},
		SearchTerms: []string{"latin", "salsa"},
		GenreID:     genreLatin,
		Weight:      85,
	},
	{
		Key:         Country,
		Name:        "Country",
		Keywords:    []string{"country", "country music", "folk", "americana"},
		SearchTerms: []string{"country", "folk"},
		GenreID:     genreCountry,
		Weight:      85,
	},
	{
		Key:         UkrainianPop,
		Name:        "Ukrainian Pop",
		Keywords:    []string{"ukrainian", "ukrainian pop", "ukrainian music", "україна", "українська"},
		SearchTerms: []string{"ukrainian", "ukraine"},
		GenreID:     genrePop,
		Weight:      95,
	},
}

var byKey = func() map[string]*Category {
	m := make(map[string]*Category, len(categories))
	for i := range categories {
		m[categories[i].Key] = &categories[i]
	}
	return m
}()

// All returns every category in table order. The slice is a copy; the
// keyword slices inside are shared and must not be modified.
func All() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Lookup returns the category for key.
func Lookup(key string) (Category, bool) {
	c, ok := byKey[key]
	if !ok {
		return Category{}, false
	}
	return *c, true
}

// Detect returns the keys of every vibe with a keyword contained in text,
// compared case-insensitively. Keys come back in table order, each at most
// once.
func Detect(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, c := range categories {
		for _, kw := range c.Keywords {
			if strings.Contains(lower, kw) {
				found = append(found, c.Key)
				break
			}
		}
	}
	return found
}

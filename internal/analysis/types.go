package analysis

import "github.com/ademuri/vibe-gigs/internal/extract"

// TasteProfile is the ranked summary of the vibes found in a listening
// history. Only TopVibes carry a weight; other keys in VibeScores are
// present for debugging and are never weighted.
type TasteProfile struct {
	TopVibes    []string           `yaml:"top_vibes" json:"topVibes"`
	VibeWeights map[string]int     `yaml:"vibe_weights" json:"vibeWeights"`
	VibeScores  map[string]float64 `yaml:"vibe_scores" json:"vibeScores"`
	GenreIDs    []string           `yaml:"genre_ids" json:"genreIds"`
	SearchTerms []string           `yaml:"search_terms" json:"searchTerms"`
}

// Report is what the profile command prints.
type Report struct {
	Metadata ProfileMetadata  `yaml:"profile_metadata"`
	Vibes    []string         `yaml:"vibes"`
	Profile  TasteProfile     `yaml:"taste_profile"`
	Artists  []extract.Artist `yaml:"top_artists"`
}

type ProfileMetadata struct {
	GeneratedDate string `yaml:"generated_date"`
	Source        string `yaml:"source"`
	TotalTracks   int    `yaml:"total_tracks"`
	TotalArtists  int    `yaml:"total_artists"`
}

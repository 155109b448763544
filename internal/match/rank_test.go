package match

import (
	"testing"

	"github.com/ademuri/vibe-gigs/internal/events"
)

func ids(evs []events.Event) []string {
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTopMatches(t *testing.T) {
	freq := map[string]int{"Bicep": 10, "Solomun": 5}
	evs := []events.Event{
		{ID: "a", ArtistName: "Unknown", Date: "2030-01-01"},
		{ID: "b", ArtistName: "Solomun", Date: "2030-03-01"},
		{ID: "c", ArtistName: "Bicep", Date: "2030-05-01"},
		{ID: "d", ArtistName: "Bicep", Date: "2030-02-01"},
	}

	got := TopMatches(evs, freq, 3)
	if want := []string{"d", "c", "b"}; !equal(ids(got), want) {
		t.Fatalf("TopMatches = %v, want %v", ids(got), want)
	}
	if got[0].MatchPercentage != 99 || got[2].MatchPercentage != 84 {
		t.Errorf("percentages = %d, %d", got[0].MatchPercentage, got[2].MatchPercentage)
	}
	if evs[0].MatchPercentage != 0 || evs[2].MatchPercentage != 0 {
		t.Errorf("TopMatches modified its input")
	}
}

func TestTopMatchesDefaultLimit(t *testing.T) {
	var evs []events.Event
	for i := 0; i < 15; i++ {
		evs = append(evs, events.Event{ID: string(rune('a' + i)), ArtistName: "x", Date: "2030-01-01"})
	}
	if got := TopMatches(evs, map[string]int{}, 0); len(got) != DefaultLimit {
		t.Errorf("len = %d, want %d", len(got), DefaultLimit)
	}
}

func TestSmartMatches(t *testing.T) {
	freq := map[string]int{"Bicep": 2, "Solomun": 1}
	top := []string{"Techno", "House"}
	evs := []events.Event{
		{ID: "style-top", ArtistName: "Stranger", Genres: []string{"Techno"}, Date: "2030-01-01"},
		{ID: "none", ArtistName: "Nobody", Genres: []string{"Polka"}, Date: "2030-01-01"},
		{ID: "solomun", ArtistName: "Solomun", Date: "2030-06-01"},
		{ID: "style-second", ArtistName: "Other", Genres: []string{"House"}, Date: "2030-01-01"},
		{ID: "bicep", ArtistName: "Bicep", Date: "2030-07-01"},
	}

	got := SmartMatches(evs, freq, top, 10)
	want := []string{"bicep", "solomun", "style-top", "style-second"}
	if !equal(ids(got), want) {
		t.Fatalf("SmartMatches = %v, want %v", ids(got), want)
	}
	if got[0].MatchType != TypeExact || got[0].IsStyleMatch {
		t.Errorf("bicep = %+v", got[0])
	}
	if got[2].MatchType != TypeStyle || !got[2].IsStyleMatch || got[2].MatchPercentage != 60 {
		t.Errorf("style-top = %+v", got[2])
	}
}

func TestRankersSortUnparseableDatesLast(t *testing.T) {
	freq := map[string]int{"Bicep": 1}
	evs := []events.Event{
		{ID: "march", ArtistName: "Bicep", Date: "2030-03-01"},
		{ID: "tba", ArtistName: "Bicep", Date: "TBA"},
		{ID: "january", ArtistName: "Bicep", Date: "2030-01-01"},
	}
	want := []string{"january", "march", "tba"}

	tests := []struct {
		name string
		rank func() []events.Event
	}{
		{"TopMatches", func() []events.Event { return TopMatches(evs, freq, 10) }},
		{"SmartMatches", func() []events.Event { return SmartMatches(evs, freq, nil, 10) }},
	}
	for _, tt := range tests {
		if got := tt.rank(); !equal(ids(got), want) {
			t.Errorf("%s = %v, want %v", tt.name, ids(got), want)
		}
	}
}

/*
Copyright 2020 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/ademuri/vibe-gigs/internal/extract"
	"github.com/ademuri/vibe-gigs/internal/finder"
	"github.com/ademuri/vibe-gigs/internal/match"
)

// Analysis is a table of results plus a one-line summary. The first row of
// results is the header.
type Analysis struct {
	results [][]string
	summary string
}

func (a Analysis) String() string {
	out := new(bytes.Buffer)
	if len(a.results) > 1 {
		table := tablewriter.NewWriter(out)
		table.Header(a.results[0])
		for _, row := range a.results[1:] {
			if err := table.Append(row); err != nil {
				return fmt.Sprintf("Error rendering table: %v", err)
			}
		}
		if err := table.Render(); err != nil {
			return fmt.Sprintf("Error rendering table: %v", err)
		}
	}
	fmt.Fprintf(out, "%s\n", a.summary)
	return out.String()
}

// Empty reports whether there are no rows besides the header.
func (a Analysis) Empty() bool {
	return len(a.results) <= 1
}

func artistsAnalysis(artists []extract.Artist, tracks, limit int) Analysis {
	results := [][]string{{"Artist", "Tracks"}}
	shown := artists
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, a := range shown {
		results = append(results, []string{a.Name, strconv.Itoa(a.Count)})
	}
	return Analysis{
		results: results,
		summary: fmt.Sprintf("%d artists in %d tracks", len(artists), tracks),
	}
}

func matchesAnalysis(resp *finder.MatchResponse) Analysis {
	results := [][]string{{"Match", "Artist", "Date", "Venue", "Location", "Distance", "Why"}}
	for _, m := range resp.AllMatches {
		distance := ""
		if m.Distance != nil {
			distance = fmt.Sprintf("%.0f km", *m.Distance)
		}
		results = append(results, []string{
			fmt.Sprintf("%d%%", m.VibeMatch),
			m.ArtistName,
			strings.TrimSpace(m.Date + " " + m.Time),
			m.Venue,
			m.Location,
			distance,
			matchReason(m),
		})
	}

	summary := resp.Message
	if summary == "" {
		vibes := "no clear vibes"
		if resp.TasteProfile != nil && len(resp.TasteProfile.TopVibes) > 0 {
			vibes = strings.Join(resp.TasteProfile.TopVibes, ", ")
		}
		summary = fmt.Sprintf("%d matches for %d artists (%s)", len(resp.AllMatches), resp.Stats.UniqueArtists, vibes)
	}
	return Analysis{results: results, summary: summary}
}

func matchReason(m finder.Match) string {
	if m.IsExactMatch {
		return "you listen to them"
	}
	if len(m.DetectedVibes) > 0 {
		return strings.Join(m.DetectedVibes, ", ")
	}
	return "style"
}

func searchAnalysis(resp *finder.SearchResponse) Analysis {
	results := [][]string{{"Artist", "Date", "Venue", "City", "Source", "Tickets"}}
	for _, e := range resp.Events {
		results = append(results, []string{
			e.ArtistName,
			strings.TrimSpace(e.Date + " " + e.Time),
			e.Venue,
			e.City,
			string(e.Source),
			e.TicketURL,
		})
	}
	summary := fmt.Sprintf("%d events; %d of %d artists have upcoming events",
		resp.Total, resp.Stats.ArtistsWithEvents, resp.Stats.TotalArtists)
	return Analysis{results: results, summary: summary}
}

func recommendedAnalysis(resp *finder.SearchResponse) Analysis {
	results := [][]string{{"Match", "Artist", "Date", "Venue", "Why"}}
	for _, e := range resp.Recommended {
		why := "you listen to them"
		if e.MatchType != match.TypeExact {
			why = "style"
		}
		results = append(results, []string{
			fmt.Sprintf("%d%%", e.MatchPercentage),
			e.ArtistName,
			strings.TrimSpace(e.Date + " " + e.Time),
			e.Venue,
			why,
		})
	}
	summary := "No events match your listening history"
	if n := len(resp.Recommended); n > 0 {
		summary = fmt.Sprintf("%d recommended events", n)
	}
	return Analysis{results: results, summary: summary}
}

// Package extract turns noisy playlist titles into normalized artist names.
package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Record is one played item: the video title and the channel that uploaded it.
type Record struct {
	Title       string `json:"title"`
	ChannelText string `json:"channelTitle"`
}

// Artist is a normalized artist name and how many records resolved to it.
type Artist struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

// Result holds the artists ordered by count, most frequent first, and the
// same counts keyed by name.
type Result struct {
	Artists     []Artist
	Frequencies map[string]int
}

// Names returns the artist names in ranked order.
func (r Result) Names() []string {
	names := make([]string, len(r.Artists))
	for i, a := range r.Artists {
		names[i] = a.Name
	}
	return names
}

const topicSuffix = " - Topic"

var (
	noiseSuffixes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\(Official Video\)`),
		regexp.MustCompile(`(?i)\(Official Music Video\)`),
		regexp.MustCompile(`(?i)\(Official Audio\)`),
		regexp.MustCompile(`(?i)\(Lyric Video\)`),
		regexp.MustCompile(`(?i)\(Lyrics\)`),
		regexp.MustCompile(`(?i)\[Official Video\]`),
		regexp.MustCompile(`(?i)\[Official Music Video\]`),
		regexp.MustCompile(`(?i)\[Official Audio\]`),
	}

	dashPattern = regexp.MustCompile(`^([^-:]+)[-:](.+)$`)
	byPattern   = regexp.MustCompile(`(?i)\s+by\s+([^(\[]+)`)

	spaceRun   = regexp.MustCompile(`[\s\p{Zs}]+`)
	ampersand  = regexp.MustCompile(`[\s\p{Zs}]*&[\s\p{Zs}]*`)
	commaSpace = regexp.MustCompile(`[\s\p{Zs}]*,[\s\p{Zs}]*`)
)

// FromTitle tries to read an artist out of a video title. It returns "" when
// neither the "Artist - Track" nor the "... by Artist" shape matches.
func FromTitle(title string) string {
	cleaned := title
	for _, re := range noiseSuffixes {
		cleaned = re.ReplaceAllString(cleaned, "")
	}
	cleaned = strings.TrimSpace(cleaned)

	if m := dashPattern.FindStringSubmatch(cleaned); m != nil {
		artist := strings.TrimSpace(m[1])
		n := utf8.RuneCountInString(artist)
		if !strings.HasPrefix(strings.ToLower(artist), "official") && n > 0 && n < 100 {
			return artist
		}
	}

	if m := byPattern.FindStringSubmatch(cleaned); m != nil {
		return strings.TrimSpace(m[1])
	}

	return ""
}

// Resolve picks the artist for a single record, or "" when the record should
// not be counted.
func Resolve(r Record) string {
	artist := FromTitle(r.Title)
	if artist == "" || strings.EqualFold(artist, "Various Artists") {
		artist = r.ChannelText
	}

	if strings.HasSuffix(artist, topicSuffix) {
		artist = strings.TrimSpace(strings.Replace(artist, topicSuffix, "", 1))
	}

	trimmed := strings.TrimSpace(artist)
	if trimmed == "" || isGeneric(trimmed) {
		return ""
	}
	return Normalize(trimmed)
}

func isGeneric(name string) bool {
	return strings.EqualFold(name, "various artists") || strings.EqualFold(name, "unknown artist")
}

// Normalize trims the name, collapses whitespace and fixes the spacing around
// "&" and ",".
func Normalize(name string) string {
	n := strings.TrimSpace(name)
	n = spaceRun.ReplaceAllString(n, " ")
	n = ampersand.ReplaceAllString(n, " & ")
	n = commaSpace.ReplaceAllString(n, ", ")
	return n
}

// Artists resolves every record and counts the results. Ties in count keep
// the order in which the artist was first seen.
func Artists(records []Record) Result {
	freq := make(map[string]int)
	var order []string

	for _, r := range records {
		name := Resolve(r)
		if name == "" {
			continue
		}
		if _, ok := freq[name]; !ok {
			order = append(order, name)
		}
		freq[name]++
	}

	artists := make([]Artist, len(order))
	for i, name := range order {
		artists[i] = Artist{Name: name, Count: freq[name]}
	}
	sort.SliceStable(artists, func(i, j int) bool {
		return artists[i].Count > artists[j].Count
	})

	return Result{Artists: artists, Frequencies: freq}
}

// Titles returns the raw titles of the records, in order.
func Titles(records []Record) []string {
	titles := make([]string, len(records))
	for i, r := range records {
		titles[i] = r.Title
	}
	return titles
}

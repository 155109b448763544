package events

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Genitive month names first, then the three letter abbreviations, so that
// "липня" is not read as "лип" followed by garbage.
var ukrainianMonths = []struct {
	name  string
	month string
}{
	{"січня", "01"}, {"лютого", "02"}, {"березня", "03"}, {"квітня", "04"},
	{"травня", "05"}, {"червня", "06"}, {"липня", "07"}, {"серпня", "08"},
	{"вересня", "09"}, {"жовтня", "10"}, {"листопада", "11"}, {"грудня", "12"},
	{"січ", "01"}, {"лют", "02"}, {"бер", "03"}, {"кві", "04"},
	{"тра", "05"}, {"чер", "06"}, {"лип", "07"}, {"сер", "08"},
	{"вер", "09"}, {"жов", "10"}, {"лис", "11"}, {"гру", "12"},
}

var dottedDate = regexp.MustCompile(`\d{1,2}\.\d{1,2}\.\d{4}`)

// ParseDate converts the date strings found on Ukrainian ticket sites to
// YYYY-MM-DD. It understands "12 грудня 2024", "5 гру", "12.12.2024" and ISO
// dates. Anything else is returned unchanged.
func ParseDate(text string) string {
	return parseDate(text, time.Now())
}

func parseDate(text string, now time.Time) string {
	lower := strings.ToLower(text)
	for _, m := range ukrainianMonths {
		if !strings.Contains(lower, m.name) {
			continue
		}
		parts := strings.Fields(text)
		day := ""
		if len(parts) > 0 {
			day = strings.Map(func(r rune) rune {
				if unicode.IsDigit(r) {
					return r
				}
				return -1
			}, parts[0])
		}
		day = padLeft(day, 2)

		year := strconv.Itoa(now.Year())
		for _, p := range parts {
			if len([]rune(p)) == 4 {
				year = p
				break
			}
		}
		return fmt.Sprintf("%s-%s-%s", year, m.month, day)
	}

	if dottedDate.MatchString(text) {
		parts := strings.Split(text, ".")
		if len(parts) >= 3 {
			return fmt.Sprintf("%s-%s-%s", parts[2], padLeft(parts[1], 2), padLeft(parts[0], 2))
		}
	}

	return text
}

func padLeft(s string, n int) string {
	for len(s) < n {
		s = "0" + s
	}
	return s
}

var dayLayouts = []string{"2006-01-02", "2006-1-2"}

// Day parses the calendar day of an event date, ignoring any time of day.
// The result is midnight in loc. ok is false when date is not an ISO date.
func Day(date string, loc *time.Location) (t time.Time, ok bool) {
	s := strings.TrimSpace(date)
	if i := strings.IndexAny(s, "T "); i > 0 {
		s = s[:i]
	}
	for _, layout := range dayLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DayBefore reports whether date a falls on an earlier day than date b.
// Unparseable dates sort after every parseable one and tie with each other.
func DayBefore(a, b string, loc *time.Location) bool {
	da, okA := Day(a, loc)
	db, okB := Day(b, loc)
	switch {
	case okA && okB:
		return da.Before(db)
	case okA:
		return true
	default:
		return false
	}
}

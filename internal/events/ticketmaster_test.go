package events

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/ademuri/vibe-gigs/internal/vibe"
)

const tmPayload = `{
  "_embedded": {
    "events": [
      {
        "id": "G5v",
        "name": "Black Coffee - Summer Tour",
        "url": "https://www.ticketmaster.com/e/G5v",
        "dates": {"start": {"localDate": "2030-07-04", "localTime": "21:00:00"}},
        "classifications": [{"genre": {"id": "KnvZfZ7vAvF", "name": "Dance/Electronic"}, "subGenre": {"name": "House"}}],
        "images": [{"url": "small.jpg", "width": 100}, {"url": "large.jpg", "width": 1024}, {"url": "mid.jpg", "width": 640}],
        "distance": 12.5,
        "_embedded": {
          "venues": [{"name": "Printworks", "city": {"name": "London"}, "country": {"name": "Great Britain"}}],
          "attractions": [{"name": "Black Coffee", "classifications": [{"genre": {"name": "Dance/Electronic"}, "subGenre": {"name": "Afro House"}}]}]
        }
      },
      {
        "id": "X1",
        "name": "Bicep - Chroma AV",
        "dates": {"start": {"localDate": "2030-08-01"}}
      }
    ]
  },
  "page": {"size": 2, "totalElements": 2, "totalPages": 1, "number": 0}
}`

func TestTicketmasterNearest(t *testing.T) {
	var query map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events.json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		query = r.URL.Query()
		w.Write([]byte(tmPayload))
	}))
	defer srv.Close()

	c, err := NewTicketmaster("secret", srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	c.SetBaseURL(srv.URL)

	evs, err := c.SearchArtist(context.Background(), "Black Coffee", Query{
		Lat: 51.5, Lon: -0.12, HasGeo: true, Size: 3, GenreIDs: []string{"a", "b"},
	})
	if err != nil {
		t.Fatalf("SearchArtist: %v", err)
	}

	wantQuery := map[string]string{
		"apikey":             "secret",
		"size":               "3",
		"sort":               "distance,asc",
		"geoPoint":           "51.5,-0.12",
		"radius":             "1000",
		"unit":               "km",
		"genreId":            "a,b",
		"keyword":            "Black Coffee",
		"classificationName": "music",
	}
	for k, v := range wantQuery {
		if got := query[k]; len(got) != 1 || got[0] != v {
			t.Errorf("query %s = %v, want %s", k, got, v)
		}
	}

	if len(evs) != 2 {
		t.Fatalf("got %d events", len(evs))
	}
	e := evs[0]
	if e.ID != "ticketmaster-G5v" || e.ArtistName != "Black Coffee" || e.Venue != "Printworks" {
		t.Errorf("event = %+v", e)
	}
	if e.Location != "London, Great Britain" || e.City != "London" || e.Country != "Great Britain" {
		t.Errorf("location = %q / %q / %q", e.Location, e.City, e.Country)
	}
	if e.ImageURL != "large.jpg" {
		t.Errorf("ImageURL = %s", e.ImageURL)
	}
	if want := []string{"Dance/Electronic", "House", "Afro House"}; !reflect.DeepEqual(e.Genres, want) {
		t.Errorf("Genres = %v, want %v", e.Genres, want)
	}
	if e.Distance == nil || *e.Distance != 12.5 {
		t.Errorf("Distance = %v", e.Distance)
	}
	if e.Date != "2030-07-04" || e.Time != "21:00:00" {
		t.Errorf("date/time = %s %s", e.Date, e.Time)
	}

	bare := evs[1]
	if bare.ArtistName != "Bicep" || bare.Venue != "Venue TBA" || bare.City != "TBA" || bare.Location != "TBA" {
		t.Errorf("bare event = %+v", bare)
	}
	if bare.Genres != nil || bare.Distance != nil {
		t.Errorf("bare event has genres or distance: %+v", bare)
	}
}

func TestTicketmasterErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, _ := NewTicketmaster("topsecret", srv.Client())
	c.SetBaseURL(srv.URL)
	_, err := c.Nearest(context.Background(), TicketmasterOptions{})
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), "topsecret") {
		t.Errorf("error leaks API key: %v", err)
	}
}

func TestTicketmasterEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"page": {"size": 0}}`))
	}))
	defer srv.Close()

	c, _ := NewTicketmaster("k", srv.Client())
	c.SetBaseURL(srv.URL)
	evs, err := c.SearchGenre(context.Background(), "", Query{})
	if err != nil || len(evs) != 0 {
		t.Errorf("SearchGenre = %v, %v", evs, err)
	}
}

func TestNewTicketmasterRequiresKey(t *testing.T) {
	if _, err := NewTicketmaster("", nil); err == nil {
		t.Error("expected error without key")
	}
}

func TestGenreIDsFor(t *testing.T) {
	got := GenreIDsFor([]string{vibe.Techno, vibe.House, vibe.Jazz, "NOPE", vibe.Latin})
	want := []string{"KnvZfZ7vAe1", "KnvZfZ7vAvE", "KnvZfZ7vAJ6"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GenreIDsFor = %v, want %v", got, want)
	}
}

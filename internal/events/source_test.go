package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"
)

type fakeSearcher struct {
	name  Source
	byArt map[string][]Event
	err   error
	calls atomic.Int32
}

func (f *fakeSearcher) Name() Source { return f.name }

func (f *fakeSearcher) SearchArtist(ctx context.Context, artist string, q Query) ([]Event, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.byArt[artist], nil
}

func (f *fakeSearcher) SearchGenre(ctx context.Context, keyword string, q Query) ([]Event, error) {
	return f.SearchArtist(ctx, keyword, q)
}

func TestRegistry(t *testing.T) {
	a := &fakeSearcher{name: ConcertUA}
	b := &fakeSearcher{name: Karabas}
	r := NewRegistry(a, b)

	if got := r.Names(); len(got) != 2 || got[0] != ConcertUA || got[1] != Karabas {
		t.Errorf("Names = %v", got)
	}

	replacement := &fakeSearcher{name: ConcertUA}
	r.Register(replacement)
	if got, _ := r.Get(ConcertUA); got != replacement {
		t.Errorf("Register did not replace existing searcher")
	}
	if len(r.Searchers()) != 2 {
		t.Errorf("Searchers = %d", len(r.Searchers()))
	}
	if _, err := r.Get(Ticketmaster); err == nil {
		t.Error("Get(unknown) returned no error")
	}
}

func TestSearchArtistsSettles(t *testing.T) {
	ok := &fakeSearcher{name: ConcertUA, byArt: map[string][]Event{
		"Bicep":   {{ID: "x", ArtistName: "Bicep"}, {ID: "y", ArtistName: "Bicep"}},
		"Solomun": {{ID: "z", ArtistName: "Solomun"}},
	}}
	broken := &fakeSearcher{name: Karabas, err: errors.New("connection reset")}

	got := SearchArtists(context.Background(), []Searcher{ok, broken}, []string{"Bicep", "Solomun"}, Query{}, 0)

	if len(got[ConcertUA]) != 3 {
		t.Fatalf("concert-ua events = %+v", got[ConcertUA])
	}
	for i, want := range []string{"concert-ua-0", "concert-ua-1", "concert-ua-2"} {
		if got[ConcertUA][i].ID != want {
			t.Errorf("id %d = %s, want %s", i, got[ConcertUA][i].ID, want)
		}
	}
	evs, present := got[Karabas]
	if !present || len(evs) != 0 {
		t.Errorf("karabas = %v, %v; want present and empty", evs, present)
	}
	if broken.calls.Load() != 2 {
		t.Errorf("broken searcher called %d times, want 2", broken.calls.Load())
	}
}

func TestBreakerOpens(t *testing.T) {
	inner := &fakeSearcher{name: Kontramarka, err: errors.New("down")}
	b := NewBreaker(inner, BreakerSettings{MaxFailures: 2})

	for i := 0; i < 2; i++ {
		if _, err := b.SearchArtist(context.Background(), "x", Query{}); err == nil {
			t.Fatal("expected error")
		}
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("state = %s, want open", b.State())
	}

	_, err := b.SearchGenre(context.Background(), "techno", Query{})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("err = %v, want ErrOpenState", err)
	}
	if inner.calls.Load() != 2 {
		t.Errorf("inner called %d times while open", inner.calls.Load())
	}
	if b.Name() != Kontramarka {
		t.Errorf("Name = %s", b.Name())
	}
}

func TestSettle(t *testing.T) {
	evs := Settle(Karabas, "Bicep", func() ([]Event, error) {
		return []Event{{ID: "a"}}, errors.New("partial")
	})
	if evs != nil {
		t.Errorf("Settle kept results from a failed call: %v", evs)
	}
}

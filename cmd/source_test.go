package cmd

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ademuri/vibe-gigs/internal/cache"
	"github.com/ademuri/vibe-gigs/internal/extract"
	"github.com/ademuri/vibe-gigs/internal/finder"
	"github.com/ademuri/vibe-gigs/internal/store"
)

func createTestStore(t *testing.T) (*store.Store, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "lastfm.db")
	db, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("store.New(%s) error: %v", dbPath, err)
	}
	t.Cleanup(func() { db.Close() })
	return db, dbPath
}

func TestStoreSource(t *testing.T) {
	db, _ := createTestStore(t)
	user := "testuser"
	db.CreateUser(user)

	err := db.AddRecentTracks(user, []store.TrackImport{
		{Artist: "Black Coffee", Album: "Subconsciously", TrackName: "Drive", DateUTS: "1600000002"},
		{Artist: "Bicep", Album: "Isles", TrackName: "Atlas", DateUTS: "1600000001"},
	})
	if err != nil {
		t.Fatalf("AddRecentTracks: %v", err)
	}
	if err := db.SaveArtistTags("Black Coffee", []string{"afro house", "deep house", "seen live"}, []int{100, 60, 5}); err != nil {
		t.Fatalf("SaveArtistTags: %v", err)
	}
	if err := db.SaveArtistTags("Bicep", []string{"electronic"}, []int{80}); err != nil {
		t.Fatalf("SaveArtistTags: %v", err)
	}

	src := &storeSource{db: db, user: user, limit: 10, minTagCount: 10}

	records, err := src.Records(context.Background(), []string{"ignored"})
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	wantRecords := []extract.Record{
		{Title: "Black Coffee - Drive", ChannelText: "Black Coffee"},
		{Title: "Bicep - Atlas", ChannelText: "Bicep"},
	}
	if !reflect.DeepEqual(records, wantRecords) {
		t.Errorf("Records = %v, want %v", records, wantRecords)
	}

	hints, err := src.ProfileHints(context.Background())
	if err != nil {
		t.Fatalf("ProfileHints: %v", err)
	}
	wantHints := []string{"Bicep electronic", "Black Coffee afro house deep house"}
	if !reflect.DeepEqual(hints, wantHints) {
		t.Errorf("ProfileHints = %q, want %q", hints, wantHints)
	}

	var _ finder.HintSource = src
}

func TestOpenListening(t *testing.T) {
	_, dbPath := createTestStore(t)

	tests := []struct {
		name    string
		config  SourceConfig
		wantErr string
	}{
		{"unknown source", SourceConfig{Source: "spotify"}, "unknown source"},
		{"youtube without credentials", SourceConfig{Source: sourceYouTube}, "youtube_token"},
		{"lastfm-db without user", SourceConfig{Source: sourceLastfmDB, DbPath: dbPath}, "--user"},
		{"lastfm-db", SourceConfig{Source: sourceLastfmDB, DbPath: dbPath, User: "u"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := openListening(context.Background(), tt.config, cache.NewMemory(0))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("openListening error = %v, want one containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("openListening: %v", err)
			}
			defer l.Close()
			if _, ok := l.Source.(*storeSource); !ok {
				t.Errorf("Source = %T, want *storeSource", l.Source)
			}
			if l.YouTube != nil {
				t.Errorf("YouTube client set without credentials")
			}
		})
	}
}

func TestSiteSearchers(t *testing.T) {
	searchers := siteSearchers(nil, "Lviv")
	var names []string
	for _, s := range searchers {
		names = append(names, string(s.Name()))
	}
	want := []string{"concert-ua", "kontramarka", "karabas"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("siteSearchers names = %v, want %v", names, want)
	}
}

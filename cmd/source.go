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
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/vibe-gigs/internal/cache"
	"github.com/ademuri/vibe-gigs/internal/events"
	"github.com/ademuri/vibe-gigs/internal/extract"
	"github.com/ademuri/vibe-gigs/internal/finder"
	"github.com/ademuri/vibe-gigs/internal/store"
	"github.com/ademuri/vibe-gigs/internal/youtube"
)

const (
	sourceYouTube  = "youtube"
	sourceLastfmDB = "lastfm-db"

	httpTimeout = 15 * time.Second
)

// SourceConfig says where listening history comes from.
type SourceConfig struct {
	Source    string
	Playlists []string

	DbPath      string
	User        string
	Limit       int
	MinTagCount int

	YouTubeToken  string
	YouTubeAPIKey string
}

// FinderConfig is everything needed to build a finder.Finder.
type FinderConfig struct {
	Source          SourceConfig
	TicketmasterKey string
	City            string
}

// addSourceFlags registers the listening-source flags on a command. Flags
// are bound under the command's name so that commands don't share values.
func addSourceFlags(cmd *cobra.Command) {
	name := cmd.Name()

	var source string
	cmd.Flags().StringVar(&source, "source", sourceYouTube, "Listening history source: youtube or lastfm-db")
	viper.BindPFlag(name+".source", cmd.Flags().Lookup("source"))

	var playlists []string
	cmd.Flags().StringSliceVarP(&playlists, "playlist", "p", nil, "YouTube playlist ID (repeatable). Default: your first five playlists")
	viper.BindPFlag(name+".playlist", cmd.Flags().Lookup("playlist"))

	var limit int
	cmd.Flags().IntVar(&limit, "limit", 1000, "Most recent listens to read with --source lastfm-db")
	viper.BindPFlag(name+".limit", cmd.Flags().Lookup("limit"))

	var minTagCount int
	cmd.Flags().IntVar(&minTagCount, "min_tag_count", 10, "Ignore last.fm tags weaker than this with --source lastfm-db")
	viper.BindPFlag(name+".min_tag_count", cmd.Flags().Lookup("min_tag_count"))
}

func sourceConfig(cmd *cobra.Command) SourceConfig {
	name := cmd.Name()
	return SourceConfig{
		Source:        viper.GetString(name + ".source"),
		Playlists:     viper.GetStringSlice(name + ".playlist"),
		DbPath:        viper.GetString("database"),
		User:          strings.ToLower(viper.GetString("user")),
		Limit:         viper.GetInt(name + ".limit"),
		MinTagCount:   viper.GetInt(name + ".min_tag_count"),
		YouTubeToken:  viper.GetString("youtube_token"),
		YouTubeAPIKey: viper.GetString("youtube_api_key"),
	}
}

func finderConfig(cmd *cobra.Command) FinderConfig {
	return FinderConfig{
		Source:          sourceConfig(cmd),
		TicketmasterKey: viper.GetString("ticketmaster_api_key"),
		City:            viper.GetString("city"),
	}
}

// listening is an opened listening-history source. YouTube is set whenever
// YouTube credentials are configured, whichever source is selected, so that
// it can also resolve artist links.
type listening struct {
	Source  finder.ListeningSource
	YouTube *youtube.Client
	db      *store.Store
}

func (l *listening) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

func openListening(ctx context.Context, config SourceConfig, c cache.Cache) (*listening, error) {
	l := &listening{}
	if config.YouTubeToken != "" || config.YouTubeAPIKey != "" {
		yt, err := youtube.New(ctx, youtube.Config{
			Token:  config.YouTubeToken,
			APIKey: config.YouTubeAPIKey,
		}, c)
		if err != nil {
			return nil, fmt.Errorf("creating YouTube client: %w", err)
		}
		l.YouTube = yt
	}

	switch config.Source {
	case sourceYouTube, "":
		if l.YouTube == nil {
			return nil, fmt.Errorf("--source youtube needs youtube_token or youtube_api_key")
		}
		l.Source = l.YouTube
	case sourceLastfmDB:
		if config.User == "" {
			return nil, fmt.Errorf("--source lastfm-db needs --user")
		}
		db, err := store.New(config.DbPath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		l.db = db
		l.Source = &storeSource{
			db:          db,
			user:        config.User,
			limit:       config.Limit,
			minTagCount: config.MinTagCount,
		}
	default:
		return nil, fmt.Errorf("unknown source %q, want %s or %s", config.Source, sourceYouTube, sourceLastfmDB)
	}
	return l, nil
}

// newFinder wires the listening source, Ticketmaster and the ticket-site
// scrapers, each event source behind its own circuit breaker.
func newFinder(ctx context.Context, config FinderConfig) (*finder.Finder, *listening, error) {
	l, err := openListening(ctx, config.Source, cache.NewMemory(0))
	if err != nil {
		return nil, nil, err
	}

	client := &http.Client{Timeout: httpTimeout}
	cfg := finder.Config{
		Listening: l.Source,
		Sites:     siteSearchers(client, config.City),
	}
	if config.TicketmasterKey != "" {
		tm, err := events.NewTicketmaster(config.TicketmasterKey, client)
		if err != nil {
			l.Close()
			return nil, nil, err
		}
		cfg.Geo = events.NewBreaker(tm, events.BreakerSettings{})
	}
	if l.YouTube != nil {
		cfg.Socials = l.YouTube
	}
	return finder.New(cfg), l, nil
}

func siteSearchers(client *http.Client, city string) []events.Searcher {
	var opts []events.ScraperOption
	if city != "" {
		opts = append(opts, events.WithCity(city))
	}
	registry := events.NewRegistry(
		events.NewBreaker(events.NewConcertUA(client, opts...), events.BreakerSettings{}),
		events.NewBreaker(events.NewKontramarka(client, opts...), events.BreakerSettings{}),
		events.NewBreaker(events.NewKarabas(client, opts...), events.BreakerSettings{}),
	)
	return registry.Searchers()
}

// playlistsFor returns the requested playlists, or the source's defaults.
func playlistsFor(ctx context.Context, src finder.ListeningSource, ids []string) ([]string, error) {
	if len(ids) > 0 {
		return ids, nil
	}
	sel, ok := src.(finder.DefaultSelector)
	if !ok {
		return nil, nil
	}
	return sel.DefaultPlaylists(ctx, 5)
}

// storeSource reads listening history from the local last.fm mirror. It
// ignores playlist ids: the whole scrobble history is one playlist.
type storeSource struct {
	db          *store.Store
	user        string
	limit       int
	minTagCount int
}

func (s *storeSource) Records(ctx context.Context, playlistIDs []string) ([]extract.Record, error) {
	return s.db.ListeningRecords(s.user, s.limit)
}

// ProfileHints returns one line per tagged artist: the artist's name
// followed by its last.fm tags.
func (s *storeSource) ProfileHints(ctx context.Context) ([]string, error) {
	tags, err := s.db.ArtistTags(s.user, s.minTagCount)
	if err != nil {
		return nil, err
	}
	artists := make([]string, 0, len(tags))
	for a := range tags {
		artists = append(artists, a)
	}
	sort.Strings(artists)

	hints := make([]string, 0, len(artists))
	for _, a := range artists {
		hints = append(hints, a+" "+strings.Join(tags[a], " "))
	}
	return hints, nil
}

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
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/ademuri/lastfm-go/lastfm"
	"github.com/ademuri/vibe-gigs/internal/logging"
	"github.com/ademuri/vibe-gigs/internal/store"
)

const userAgent = "vibe-gigs/1.0"

type UpdateConfig struct {
	DbPath            string
	User              string
	APIKey            string
	Secret            string
	After             string
	Force             bool
	TagUpdateInterval time.Duration
}

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Fetches listening data from last.fm",
	Long: `Mirrors your last.fm scrobbles and artist tags into a local SQLite
database, for use with --source lastfm-db.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		intervalStr := viper.GetString("tag-update-interval")
		interval, err := time.ParseDuration(intervalStr)
		if err != nil {
			fmt.Printf("Invalid tag-update-interval: %v. Using default 1 year.\n", err)
			interval = 24 * 365 * time.Hour
		}

		config := UpdateConfig{
			DbPath:            viper.GetString("database"),
			User:              viper.GetString("user"),
			APIKey:            viper.GetString("api_key"),
			Secret:            viper.GetString("secret"),
			After:             viper.GetString("after"),
			Force:             viper.GetBool("force"),
			TagUpdateInterval: interval,
		}

		err = updateDatabase(cmd.Context(), config)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)

	var afterString string
	updateCmd.Flags().StringVar(&afterString, "after", "", "Only get listening data after this date, in yyyy-mm-dd format")
	viper.BindPFlag("after", updateCmd.Flags().Lookup("after"))

	var force bool
	updateCmd.Flags().BoolVarP(&force, "force", "f", false, "Get all listening data, regardless of what's already present (idempotent)")
	viper.BindPFlag("force", updateCmd.Flags().Lookup("force"))

	var tagUpdateInterval string
	updateCmd.Flags().StringVar(&tagUpdateInterval, "tag-update-interval", "8760h", "Time duration after which to re-fetch tags (e.g., 24h)")
	viper.BindPFlag("tag-update-interval", updateCmd.Flags().Lookup("tag-update-interval"))
}

func newLastfmClient(config UpdateConfig) (*lastfm.Api, error) {
	if config.APIKey == "" || config.Secret == "" {
		return nil, fmt.Errorf("api_key and secret must be set to talk to last.fm")
	}
	client := lastfm.New(config.APIKey, config.Secret)
	client.SetUserAgent(userAgent)
	return client, nil
}

// lastfmRetryable is true for last.fm server errors.
func lastfmRetryable(err error) bool {
	var lerr *lastfm.LastfmError
	if errors.As(err, &lerr) && lerr.Code/100 == 5 {
		logging.Warn().Err(err).Str("source", "lastfm").Msg("last.fm errored, retrying")
		return true
	}
	return false
}

func updateDatabase(ctx context.Context, config UpdateConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var after time.Time
	var err error
	if len(config.After) > 0 {
		after, err = time.Parse("2006-01-02", config.After)
		if err != nil {
			return fmt.Errorf("--after: %w", err)
		}
	}

	user := strings.ToLower(config.User)
	if user == "" {
		return fmt.Errorf("--user is required")
	}
	lastfmClient, err := newLastfmClient(config)
	if err != nil {
		return err
	}

	db, err := store.New(config.DbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	err = db.CreateUser(user)
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	lastUpdated, err := db.GetLastUpdated(user)
	if err != nil {
		return err
	}
	now := time.Now()
	if !lastUpdated.IsZero() && now.Sub(lastUpdated).Hours() < 24 && !config.Force {
		fmt.Printf("User data was already updated in the past 24 hours\n")
		return nil
	}
	fmt.Printf("User data was last updated: %s\n", lastUpdated.Format("2006-01-02"))

	sessionKey, err := db.GetSessionKey(user)
	if err != nil {
		return err
	}
	if sessionKey != "" {
		lastfmClient.SetSession(sessionKey)
		fmt.Printf("Using session key for user %q\n", user)
	}

	latestListen, err := db.GetLatestListen(user)
	if err != nil {
		return fmt.Errorf("getting latest listen: %w", err)
	}
	fmt.Printf("Latest local listening data is from: %s\n", latestListen.Format("2006-01-02"))

	fmt.Printf("Updating database for %q\n", user)
	limiter := rate.NewLimiter(rate.Every(1*time.Second), 1)
	page := 1 // First page is 1
	pages := 0
	for {
		var recentTracks lastfm.UserGetRecentTracks
		err := retry.Do(
			func() error {
				var err error
				recentTracks, err = lastfmClient.User.GetRecentTracks(lastfm.P{
					"limit": 200,
					"page":  page,
					"user":  user,
				})
				return err
			},
			retry.RetryIf(lastfmRetryable),
			retry.Context(ctx),
		)
		if err != nil {
			return fmt.Errorf("fetching recent tracks: %w", err)
		}

		if pages == 0 {
			pages = recentTracks.TotalPages
		}
		if len(recentTracks.Tracks) == 0 {
			break
		}

		var tracksToImport []store.TrackImport
		for _, t := range recentTracks.Tracks {
			// The track playing right now has no date yet.
			if t.Date.Uts == "" {
				continue
			}
			tracksToImport = append(tracksToImport, store.TrackImport{
				Artist:    t.Artist.Name,
				Album:     t.Album.Name,
				TrackName: t.Name,
				DateUTS:   t.Date.Uts,
			})
		}
		if len(tracksToImport) == 0 {
			break
		}

		err = db.AddRecentTracks(user, tracksToImport)
		if err != nil {
			return fmt.Errorf("inserting recent tracks (page %d): %w", page, err)
		}

		oldestDateUts, err := strconv.ParseInt(tracksToImport[len(tracksToImport)-1].DateUTS, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing date: %w", err)
		}
		oldestDate := time.Unix(oldestDateUts, 0)

		fmt.Printf("Downloaded page %v of %v (oldest: %s)\n", page, pages, oldestDate.Format("2006-01-02"))
		page += 1

		if !after.IsZero() && oldestDate.Before(after) {
			break
		}
		if page > pages {
			break
		}
		if !config.Force && !latestListen.IsZero() && oldestDate.Before(latestListen.AddDate(0, 0, -7)) {
			fmt.Println("Refreshed back to existing data")
			break
		}

		if err := limiter.Wait(ctx); err != nil {
			return err
		}
	}

	fmt.Println("Updating tags...")
	err = updateArtistTags(ctx, db, lastfmClient, limiter, config.TagUpdateInterval)
	if err != nil {
		return fmt.Errorf("updateArtistTags: %w", err)
	}

	return db.SetLastUpdated(user, now)
}

// updateArtistTags refreshes the last.fm tags of frequently played
// artists. Tags feed the taste profile when reading from the mirror.
func updateArtistTags(ctx context.Context, db *store.Store, client *lastfm.Api, limiter *rate.Limiter, interval time.Duration) error {
	artists, err := db.GetArtistsNeedingTagUpdate(interval)
	if err != nil {
		return err
	}

	fmt.Printf("Found %d artists needing tag updates\n", len(artists))

	for i, artist := range artists {
		fmt.Printf("[%d/%d] Fetching tags for artist: %s\n", i+1, len(artists), artist)
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		var topTags lastfm.ArtistGetTopTags
		err := retry.Do(
			func() error {
				var err error
				topTags, err = client.Artist.GetTopTags(lastfm.P{
					"artist":      artist,
					"autocorrect": 1,
				})
				return err
			},
			retry.RetryIf(lastfmRetryable),
			retry.Context(ctx),
		)
		if err != nil {
			logging.Warn().Err(err).Str("source", "lastfm").Str("artist", artist).Msg("fetching artist tags failed")
			continue
		}

		var tags []string
		var counts []int
		for _, t := range topTags.Tags {
			tags = append(tags, t.Name)
			c, _ := strconv.Atoi(t.Count)
			counts = append(counts, c)
		}

		if err := db.SaveArtistTags(artist, tags, counts); err != nil {
			return fmt.Errorf("saving tags for artist %s: %w", artist, err)
		}
	}

	return nil
}

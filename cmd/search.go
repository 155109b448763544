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
	"io"
	"net/http"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/vibe-gigs/internal/cache"
	"github.com/ademuri/vibe-gigs/internal/finder"
)

type SearchConfig struct {
	City    string
	Artists []string
	Links   bool

	// Rank scores the events against the listening history in Source.
	Rank   bool
	Source SourceConfig
}

var searchCmd = &cobra.Command{
	Use:   "search <artist...>",
	Short: "Finds upcoming events for artists on ticket sites",
	Long: `Searches concert.ua, kontramarka and karabas for each artist and lists the upcoming events.
With --rank, also scores the events against your listening history.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := SearchConfig{
			City:    viper.GetString("city"),
			Artists: args,
			Links:   viper.GetBool("search.links"),
			Rank:    viper.GetBool("search.rank"),
			Source:  sourceConfig(cmd),
		}
		err := searchEvents(cmd.Context(), config, os.Stdout)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	var links bool
	searchCmd.Flags().BoolVar(&links, "links", true, "Print search links for artists without events")
	viper.BindPFlag("search.links", searchCmd.Flags().Lookup("links"))

	var rank bool
	searchCmd.Flags().BoolVar(&rank, "rank", false, "Rank the events against your listening history")
	viper.BindPFlag("search.rank", searchCmd.Flags().Lookup("rank"))

	addSourceFlags(searchCmd)
}

func searchEvents(ctx context.Context, config SearchConfig, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	client := &http.Client{Timeout: httpTimeout}
	cfg := finder.Config{Sites: siteSearchers(client, config.City)}
	if config.Rank {
		l, err := openListening(ctx, config.Source, cache.NewMemory(0))
		if err != nil {
			return err
		}
		defer l.Close()
		cfg.Listening = l.Source
	}
	f := finder.New(cfg)

	resp, err := f.SearchArtists(ctx, finder.SearchRequest{
		Artists:     config.Artists,
		City:        config.City,
		Rank:        config.Rank,
		PlaylistIDs: config.Source.Playlists,
	})
	if err != nil {
		return fmt.Errorf("searching events: %w", err)
	}

	fmt.Fprint(out, searchAnalysis(resp))
	if config.Rank {
		fmt.Fprint(out, recommendedAnalysis(resp))
	}
	if config.Links {
		printSearchLinks(out, resp)
	}
	return nil
}

func printSearchLinks(out io.Writer, resp *finder.SearchResponse) {
	artists := make([]string, 0, len(resp.SearchLinks))
	for a := range resp.SearchLinks {
		artists = append(artists, a)
	}
	sort.Strings(artists)
	for _, a := range artists {
		l := resp.SearchLinks[a]
		fmt.Fprintf(out, "\nNo events for %s. Search manually:\n  %s\n  %s\n  %s\n", a, l.ConcertUA, l.Kontramarka, l.Karabas)
	}
}

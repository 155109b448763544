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
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/vibe-gigs/internal/cache"
	"github.com/ademuri/vibe-gigs/internal/extract"
)

type ArtistsConfig struct {
	Source SourceConfig
	Number int
}

var artistsCmd = &cobra.Command{
	Use:   "artists",
	Short: "Lists the artists in your listening history",
	Long:  `Extracts artist names from playlist video titles or scrobbles and counts their tracks.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		config := ArtistsConfig{
			Source: sourceConfig(cmd),
			Number: viper.GetInt("artists.number"),
		}
		err := printArtists(cmd.Context(), config)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(artistsCmd)
	addSourceFlags(artistsCmd)

	var number int
	artistsCmd.Flags().IntVarP(&number, "number", "n", 50, "Number of artists to show, 0 for all")
	viper.BindPFlag("artists.number", artistsCmd.Flags().Lookup("number"))
}

func printArtists(ctx context.Context, config ArtistsConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	l, err := openListening(ctx, config.Source, cache.NewMemory(0))
	if err != nil {
		return err
	}
	defer l.Close()

	playlists, err := playlistsFor(ctx, l.Source, config.Source.Playlists)
	if err != nil {
		return fmt.Errorf("listing playlists: %w", err)
	}
	records, err := l.Source.Records(ctx, playlists)
	if err != nil {
		return fmt.Errorf("reading listening history: %w", err)
	}

	res := extract.Artists(records)
	fmt.Print(artistsAnalysis(res.Artists, len(records), config.Number))
	return nil
}

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
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ademuri/vibe-gigs/internal/analysis"
	"github.com/ademuri/vibe-gigs/internal/cache"
	"github.com/ademuri/vibe-gigs/internal/extract"
	"github.com/ademuri/vibe-gigs/internal/finder"
	"github.com/ademuri/vibe-gigs/internal/logging"
)

// Artists listed in the profile report.
const reportArtists = 25

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Prints your taste profile",
	Long:  `Analyzes your listening history and prints the vibes you listen to as YAML.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		err := printProfile(cmd.Context(), sourceConfig(cmd), os.Stdout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating profile: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	addSourceFlags(profileCmd)

	var fallback bool
	profileCmd.Flags().BoolVar(&fallback, "pop_fallback", true, "Use the Pop genre when no vibe maps to a genre")
	viper.BindPFlag("profile.pop_fallback", profileCmd.Flags().Lookup("pop_fallback"))
}

func printProfile(ctx context.Context, config SourceConfig, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	l, err := openListening(ctx, config, cache.NewMemory(0))
	if err != nil {
		return err
	}
	defer l.Close()

	playlists, err := playlistsFor(ctx, l.Source, config.Playlists)
	if err != nil {
		return fmt.Errorf("listing playlists: %w", err)
	}
	records, err := l.Source.Records(ctx, playlists)
	if err != nil {
		return fmt.Errorf("reading listening history: %w", err)
	}

	var hints []string
	if hs, ok := l.Source.(finder.HintSource); ok {
		hints, err = hs.ProfileHints(ctx)
		if err != nil {
			logging.Warn().Err(err).Msg("profile hints unavailable")
		}
	}

	source := config.Source
	if source == "" {
		source = sourceYouTube
	}
	report := buildReport(records, hints, source, viper.GetBool("profile.pop_fallback"), time.Now())

	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	return encoder.Close()
}

func buildReport(records []extract.Record, hints []string, source string, popFallback bool, now time.Time) analysis.Report {
	res := extract.Artists(records)
	names := res.Names()
	titles := append(extract.Titles(records), hints...)

	profile := analysis.BuildProfile(names, titles)
	vibes := analysis.Format(profile)
	if popFallback {
		profile = analysis.WithPopFallback(profile)
	}

	top := res.Artists
	if len(top) > reportArtists {
		top = top[:reportArtists]
	}
	return analysis.Report{
		Metadata: analysis.ProfileMetadata{
			GeneratedDate: now.Format("2006-01-02"),
			Source:        source,
			TotalTracks:   len(records),
			TotalArtists:  len(names),
		},
		Vibes:   vibes,
		Profile: profile,
		Artists: top,
	}
}

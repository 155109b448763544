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

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/vibe-gigs/internal/finder"
)

type MatchConfig struct {
	Finder  FinderConfig
	Request finder.MatchRequest
	JSON    bool
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Finds concerts near you that match your taste",
	Long: `Builds your taste profile, searches Ticketmaster near the given location
for your vibes and your most played artists, and ranks what it finds.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		config := MatchConfig{
			Finder:  finderConfig(cmd),
			Request: matchRequest(cmd),
			JSON:    viper.GetBool("match.json"),
		}
		err := printMatches(cmd.Context(), config, os.Stdout)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)
	addSourceFlags(matchCmd)
	addLocationFlags(matchCmd)

	var asJSON bool
	matchCmd.Flags().BoolVar(&asJSON, "json", false, "Print the full response as JSON")
	viper.BindPFlag("match.json", matchCmd.Flags().Lookup("json"))
}

// addLocationFlags registers the search location flags, bound under the
// command's name.
func addLocationFlags(cmd *cobra.Command) {
	name := cmd.Name()

	var lat, lon float64
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude to search near (required)")
	viper.BindPFlag(name+".lat", cmd.Flags().Lookup("lat"))
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude to search near (required)")
	viper.BindPFlag(name+".lon", cmd.Flags().Lookup("lon"))

	var radius, size int
	cmd.Flags().IntVar(&radius, "radius", 0, "Search radius in km (default 1000)")
	viper.BindPFlag(name+".radius", cmd.Flags().Lookup("radius"))
	cmd.Flags().IntVar(&size, "size", 0, "Events to request from the genre search (default 30)")
	viper.BindPFlag(name+".size", cmd.Flags().Lookup("size"))
}

func matchRequest(cmd *cobra.Command) finder.MatchRequest {
	name := cmd.Name()
	return finder.MatchRequest{
		PlaylistIDs: viper.GetStringSlice(name + ".playlist"),
		Latitude:    optionalFloat(cmd, "lat", name+".lat"),
		Longitude:   optionalFloat(cmd, "lon", name+".lon"),
		RadiusKm:    viper.GetInt(name + ".radius"),
		Size:        viper.GetInt(name + ".size"),
	}
}

// optionalFloat returns nil unless the flag was given or the config file
// sets the key, so that 0 is still a valid coordinate.
func optionalFloat(cmd *cobra.Command, flag, key string) *float64 {
	if !cmd.Flags().Changed(flag) && !viper.InConfig(key) {
		return nil
	}
	v := viper.GetFloat64(key)
	return &v
}

func printMatches(ctx context.Context, config MatchConfig, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f, l, err := newFinder(ctx, config.Finder)
	if err != nil {
		return err
	}
	defer l.Close()

	resp, err := f.Match(ctx, config.Request)
	if err != nil {
		return fmt.Errorf("matching events: %w", err)
	}

	if config.JSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(resp)
	}
	fmt.Fprint(out, matchesAnalysis(resp))
	return nil
}

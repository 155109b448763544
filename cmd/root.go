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
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/ademuri/vibe-gigs/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vibe-gigs",
	Short: "Finds live music that matches your listening taste",
	Long: `Reads your listening history from YouTube playlists or a local last.fm
mirror, works out which vibes you listen to, and finds concerts near you
or for the artists you name.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default is $HOME/.vibe-gigs.yaml)")

	persistentString("api_key", "", "", "last.fm API key")
	persistentString("secret", "", "", "last.fm secret")
	persistentString("user", "u", "", "last.fm username to act on")
	persistentString("database", "d", "./lastfm.db", "Path to the SQLite database")

	persistentString("youtube_token", "", "", "OAuth access token for the YouTube Data API")
	persistentString("youtube_api_key", "", "", "YouTube Data API key, used when no token is set")
	persistentString("ticketmaster_api_key", "", "", "Ticketmaster Discovery API key")

	persistentString("sendgrid_api_key", "", "", "SendGrid API key")
	persistentString("from", "", "", "From email address")

	persistentString("city", "", "Kyiv", "City for ticket-site searches")
	persistentString("log_level", "", "info", "Log level (debug, info, warn, error)")
	persistentString("log_format", "", "console", "Log format (console or json)")
}

func persistentString(name, shorthand, value, usage string) {
	var v string
	rootCmd.PersistentFlags().StringVarP(&v, name, shorthand, value, usage)
	viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".vibe-gigs" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".vibe-gigs")
	}

	viper.SetEnvPrefix("VIBE_GIGS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	// See https://github.com/spf13/viper/pull/852
	rootCmd.Flags().VisitAll(func(f *pflag.Flag) {
		if viper.IsSet(f.Name) && viper.GetString(f.Name) != "" {
			rootCmd.Flags().Set(f.Name, viper.GetString(f.Name))
		}
	})

	logging.Init(logging.Config{
		Level:  viper.GetString("log_level"),
		Format: viper.GetString("log_format"),
		Output: os.Stderr,
	})
}

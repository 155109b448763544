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
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/vibe-gigs/internal/store"
)

var authenticateCmd = &cobra.Command{
	Use:   "authenticate <email> --user=foo",
	Short: "Gets a last.fm session key for the given user.",
	Long:  `This is needed if the user has marked their data as private.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := UpdateConfig{
			DbPath: viper.GetString("database"),
			User:   viper.GetString("user"),
			APIKey: viper.GetString("api_key"),
			Secret: viper.GetString("secret"),
		}
		err := getSessionKey(config, viper.GetString("from"), args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(authenticateCmd)
}

func getSessionKey(config UpdateConfig, fromAddress string, toAddress string) error {
	user := strings.ToLower(config.User)
	if user == "" {
		return fmt.Errorf("--user is required")
	}
	if fromAddress == "" {
		return fmt.Errorf("required flag(s) \"from\" not set")
	}

	db, err := store.New(config.DbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	existing, err := db.GetSessionKey(user)
	if err != nil {
		return fmt.Errorf("getting existing session key: %w", err)
	}
	if existing != "" {
		return fmt.Errorf("user %s already has session key", user)
	}
	if err := db.CreateUser(user); err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	lastfmClient, err := newLastfmClient(config)
	if err != nil {
		return err
	}

	authToken, err := lastfmClient.GetToken()
	if err != nil {
		return fmt.Errorf("getting token: %w", err)
	}
	authURL := lastfmClient.GetAuthTokenUrl(authToken)

	bodyText := "Click here to authenticate: " + authURL
	message := mail.NewSingleEmail(
		mail.NewEmail("vibe-gigs", fromAddress),
		"Authenticate vibe-gigs",
		mail.NewEmail(toAddress, toAddress),
		bodyText, bodyText)
	if err := sendMail(viper.GetString("sendgrid_api_key"), message); err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Sent authentication email, press the anykey to continue")
	reader.ReadString('\n')

	if err := lastfmClient.LoginWithToken(authToken); err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	if err := db.SetSessionKey(user, lastfmClient.GetSessionKey()); err != nil {
		return fmt.Errorf("updating db with session key: %w", err)
	}

	fmt.Printf("Successfully authenticated %q\n", user)
	return nil
}

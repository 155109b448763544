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
	"html"
	"os"
	"strings"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/vibe-gigs/internal/finder"
)

type SendEmailConfig struct {
	Match          MatchConfig
	From           string
	To             string
	DryRun         bool
	SendgridAPIKey string
	Date           time.Time
}

var emailCmd = &cobra.Command{
	Use:   "email <address>",
	Short: "Emails a digest of concerts that match your taste",
	Long: `Runs the same search as match and emails the ranked results.
With --dry_run the email is printed instead of sent.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetString("from") == "" {
			return fmt.Errorf("required flag(s) \"from\" not set")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		config := SendEmailConfig{
			Match: MatchConfig{
				Finder:  finderConfig(cmd),
				Request: matchRequest(cmd),
			},
			From:           viper.GetString("from"),
			To:             args[0],
			DryRun:         viper.GetBool("dryRun"),
			SendgridAPIKey: viper.GetString("sendgrid_api_key"),
			Date:           time.Now(),
		}
		err := sendEmail(cmd.Context(), config)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(emailCmd)
	addSourceFlags(emailCmd)
	addLocationFlags(emailCmd)

	var dryRun bool
	emailCmd.Flags().BoolVarP(&dryRun, "dry_run", "n", false, "When true, just print instead of emailing")
	viper.BindPFlag("dryRun", emailCmd.Flags().Lookup("dry_run"))
}

func sendEmail(ctx context.Context, config SendEmailConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f, l, err := newFinder(ctx, config.Match.Finder)
	if err != nil {
		return err
	}
	defer l.Close()

	resp, err := f.Match(ctx, config.Match.Request)
	if err != nil {
		return fmt.Errorf("matching events: %w", err)
	}

	subject, out := generateEmailContent(config.Date, resp)

	if config.DryRun {
		fmt.Printf("Would have sent email: \nsubject: %s\n%s\n", subject, out)
		return nil
	}

	message := mail.NewSingleEmail(
		mail.NewEmail("vibe-gigs", config.From),
		subject,
		mail.NewEmail(config.To, config.To),
		matchesAnalysis(resp).String(),
		out)
	return sendMail(config.SendgridAPIKey, message)
}

func sendMail(apiKey string, message *mail.SGMailV3) error {
	if apiKey == "" {
		return fmt.Errorf("sendgrid_api_key must be set in order to send emails")
	}
	response, err := sendgrid.NewSendClient(apiKey).Send(message)
	if err != nil {
		return fmt.Errorf("sendEmail: %w", err)
	}
	if response.StatusCode/100 != 2 {
		return fmt.Errorf("sendEmail: status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

func generateEmailContent(date time.Time, resp *finder.MatchResponse) (subject string, body string) {
	var out strings.Builder
	out.WriteString(`
<html>
  <head>
<style>
td {
  padding: 0.1em 0.2em;
}
table, th, td {
  border: 1px solid black;
  border-collapse: collapse;
}
</style>
  </head>
  <body>
`)

	if resp.TasteProfile != nil && len(resp.TasteProfile.TopVibes) > 0 {
		fmt.Fprintf(&out, "<h2>Your vibes: %s</h2>\n", html.EscapeString(strings.Join(resp.TasteProfile.TopVibes, ", ")))
	}

	if resp.TopMatch != nil {
		m := resp.TopMatch
		fmt.Fprintf(&out, "<h3>Top match: %s, %s at %s (%d%%)</h3>\n",
			html.EscapeString(m.ArtistName), html.EscapeString(m.Date), html.EscapeString(m.Venue), m.VibeMatch)
		if m.TicketURL != "" {
			fmt.Fprintf(&out, "<div><a href=\"%s\">Tickets</a></div>\n", html.EscapeString(m.TicketURL))
		}
	}

	analysis := matchesAnalysis(resp)
	if analysis.Empty() {
		out.WriteString("<div>No matching events found.</div>\n")
	} else {
		writeHTMLTable(&out, analysis.results)
	}
	fmt.Fprintf(&out, "<div>%s</div>\n  </body>\n</html>\n", html.EscapeString(analysis.summary))

	subject = fmt.Sprintf("Concerts for you, %s", date.Format("2006-01-02"))
	if resp.TopMatch != nil {
		subject += ": " + resp.TopMatch.ArtistName
	}
	return subject, out.String()
}

func writeHTMLTable(out *strings.Builder, results [][]string) {
	out.WriteString("<table>\n<thead>\n<tr>")
	for _, header := range results[0] {
		fmt.Fprintf(out, "<th>%s</th>", html.EscapeString(header))
	}
	out.WriteString("</tr>\n</thead>\n<tbody>\n")
	for _, row := range results[1:] {
		out.WriteString("<tr>\n")
		for _, column := range row {
			fmt.Fprintf(out, "<td>%s</td>\n", html.EscapeString(column))
		}
		out.WriteString("</tr>\n")
	}
	out.WriteString("</tbody>\n</table>\n")
}

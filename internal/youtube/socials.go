package youtube

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ademuri/vibe-gigs/internal/cache"
	"github.com/ademuri/vibe-gigs/internal/logging"
)

const (
	// Only this many artists are looked up per call, to save quota.
	maxSocialLookups = 5

	socialsTTL = 7 * 24 * time.Hour
)

var (
	instagramPattern = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?instagram\.com/([a-zA-Z0-9._]+)`)
	whitespace       = regexp.MustCompile(`\s+`)
)

// Socials are an artist's profile links. Empty means unknown.
type Socials struct {
	YouTube   string `json:"youtube,omitempty"`
	Instagram string `json:"instagram,omitempty"`
}

// ChannelID finds the artist's channel. It returns "" when there is none.
func (c *Client) ChannelID(ctx context.Context, artist string) (string, error) {
	resp, err := c.svc.Search.List([]string{"snippet"}).
		Q(artist).
		Type("channel").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("searching channel for %q: %w", artist, err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Id == nil {
		return "", nil
	}
	return resp.Items[0].Id.ChannelId, nil
}

// ArtistSocials looks up the channel and Instagram profile of an artist. The
// Instagram handle is read from the channel description, falling back to the
// artist's name without spaces.
func (c *Client) ArtistSocials(ctx context.Context, artist string) (Socials, error) {
	key := "artist-socials:" + strings.ToLower(artist)
	var s Socials
	if cache.GetJSON(c.cache, key, &s) {
		return s, nil
	}

	channelID, err := c.ChannelID(ctx, artist)
	if err != nil {
		return Socials{}, err
	}
	if channelID == "" {
		cache.SetJSON(c.cache, key, s, socialsTTL)
		return s, nil
	}
	s.YouTube = "https://www.youtube.com/channel/" + channelID

	resp, err := c.svc.Channels.List([]string{"snippet"}).Id(channelID).Context(ctx).Do()
	if err != nil {
		return s, fmt.Errorf("fetching channel %s: %w", channelID, err)
	}
	if len(resp.Items) > 0 && resp.Items[0].Snippet != nil {
		s.Instagram = instagramFrom(resp.Items[0].Snippet.Description, artist)
	}

	cache.SetJSON(c.cache, key, s, socialsTTL)
	return s, nil
}

func instagramFrom(description, artist string) string {
	if m := instagramPattern.FindStringSubmatch(description); m != nil {
		return "https://www.instagram.com/" + m[1]
	}
	return "https://www.instagram.com/" + whitespace.ReplaceAllString(strings.ToLower(artist), "")
}

// Socials resolves links for the first few artists concurrently. Artists
// whose lookup fails are left out.
func (c *Client) Socials(ctx context.Context, artists []string) map[string]Socials {
	if len(artists) > maxSocialLookups {
		artists = artists[:maxSocialLookups]
	}

	var mu sync.Mutex
	out := make(map[string]Socials, len(artists))
	var g errgroup.Group
	for _, artist := range artists {
		g.Go(func() error {
			s, err := c.ArtistSocials(ctx, artist)
			if err != nil {
				logging.Warn().Str("artist", artist).Err(err).Msg("social link lookup failed")
				return nil
			}
			mu.Lock()
			out[artist] = s
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

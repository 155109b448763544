// Package youtube reads listening history from YouTube playlists and looks
// up artists' channels and Instagram profiles.
package youtube

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/ademuri/vibe-gigs/internal/cache"
	"github.com/ademuri/vibe-gigs/internal/extract"
	"github.com/ademuri/vibe-gigs/internal/logging"
)

const (
	pageSize = 50

	// Playlists are fetched this many at a time.
	batchSize = 5

	playlistsTTL     = 24 * time.Hour
	playlistItemsTTL = 12 * time.Hour
)

// Config says how to reach the API. Token is an OAuth access token and is
// needed for the user's own playlists; APIKey is enough for public data.
type Config struct {
	Token  string
	APIKey string

	// User keys the playlist cache. Defaults to a prefix of Token.
	User string

	// HTTPClient and Endpoint override the transport, e.g. for tests.
	HTTPClient *http.Client
	Endpoint   string
}

type Client struct {
	svc   *yt.Service
	cache cache.Cache
	user  string
}

// Playlist is one of the user's playlists.
type Playlist struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnailUrl"`
	ItemCount    int64  `json:"itemCount"`
}

// Item is a video in a playlist.
type Item struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	VideoID      string `json:"videoId"`
	ChannelTitle string `json:"channelTitle"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// Record is the item as listening history.
func (i Item) Record() extract.Record {
	return extract.Record{Title: i.Title, ChannelText: i.ChannelTitle}
}

// New creates a client. c may be nil to disable caching.
func New(ctx context.Context, cfg Config, c cache.Cache) (*Client, error) {
	var opts []option.ClientOption
	switch {
	case cfg.HTTPClient != nil:
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	case cfg.Token != "":
		opts = append(opts, option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})))
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	default:
		return nil, fmt.Errorf("youtube: an access token or API key is required")
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating YouTube service: %w", err)
	}

	user := cfg.User
	if user == "" {
		user = cfg.Token
		if len(user) > 10 {
			user = user[:10]
		}
	}
	return &Client{svc: svc, cache: c, user: user}, nil
}

// Playlists returns all of the authenticated user's playlists.
func (c *Client) Playlists(ctx context.Context) ([]Playlist, error) {
	key := "playlists:" + c.user
	var playlists []Playlist
	if cache.GetJSON(c.cache, key, &playlists) {
		logging.Debug().Int("count", len(playlists)).Msg("using cached playlists")
		return playlists, nil
	}

	playlists = []Playlist{}
	pageToken := ""
	for {
		req := c.svc.Playlists.List([]string{"snippet", "contentDetails"}).
			Mine(true).
			MaxResults(pageSize)
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}
		resp, err := req.Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("listing playlists: %w", err)
		}

		for _, p := range resp.Items {
			pl := Playlist{ID: p.Id}
			if p.Snippet != nil {
				pl.Title = p.Snippet.Title
				pl.Description = p.Snippet.Description
				pl.ThumbnailURL = thumbnail(p.Snippet.Thumbnails)
			}
			if p.ContentDetails != nil {
				pl.ItemCount = p.ContentDetails.ItemCount
			}
			playlists = append(playlists, pl)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	cache.SetJSON(c.cache, key, playlists, playlistsTTL)
	return playlists, nil
}

// DefaultPlaylists returns the ids of the user's first n playlists.
func (c *Client) DefaultPlaylists(ctx context.Context, n int) ([]string, error) {
	playlists, err := c.Playlists(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, n)
	for _, p := range playlists[:min(n, len(playlists))] {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// PlaylistItems returns every video in a playlist.
func (c *Client) PlaylistItems(ctx context.Context, playlistID string) ([]Item, error) {
	key := "playlist-items:" + playlistID
	var items []Item
	if cache.GetJSON(c.cache, key, &items) {
		logging.Debug().Str("playlist", playlistID).Int("count", len(items)).Msg("using cached playlist items")
		return items, nil
	}

	items = []Item{}
	pageToken := ""
	for {
		req := c.svc.PlaylistItems.List([]string{"snippet"}).
			PlaylistId(playlistID).
			MaxResults(pageSize)
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}
		resp, err := req.Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("listing items of playlist %s: %w", playlistID, err)
		}

		for _, it := range resp.Items {
			item := Item{ID: it.Id}
			if s := it.Snippet; s != nil {
				item.Title = s.Title
				item.ChannelTitle = s.VideoOwnerChannelTitle
				if item.ChannelTitle == "" {
					item.ChannelTitle = s.ChannelTitle
				}
				item.ThumbnailURL = thumbnail(s.Thumbnails)
				if s.ResourceId != nil {
					item.VideoID = s.ResourceId.VideoId
				}
			}
			items = append(items, item)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	cache.SetJSON(c.cache, key, items, playlistItemsTTL)
	return items, nil
}

// MultiplePlaylistItems fetches several playlists, a batch at a time. Any
// failure fails the whole call.
func (c *Client) MultiplePlaylistItems(ctx context.Context, playlistIDs []string) (map[string][]Item, error) {
	out := make(map[string][]Item, len(playlistIDs))
	for start := 0; start < len(playlistIDs); start += batchSize {
		batch := playlistIDs[start:min(start+batchSize, len(playlistIDs))]
		results := make([][]Item, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		for i, id := range batch {
			g.Go(func() error {
				items, err := c.PlaylistItems(gctx, id)
				if err != nil {
					return err
				}
				results[i] = items
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		for i, id := range batch {
			out[id] = results[i]
		}
	}
	return out, nil
}

// Records returns the listening history of the given playlists, in the order
// the playlists were named.
func (c *Client) Records(ctx context.Context, playlistIDs []string) ([]extract.Record, error) {
	byID, err := c.MultiplePlaylistItems(ctx, playlistIDs)
	if err != nil {
		return nil, err
	}
	var records []extract.Record
	for _, id := range playlistIDs {
		for _, it := range byID[id] {
			records = append(records, it.Record())
		}
	}
	return records, nil
}

func thumbnail(t *yt.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	if t.Medium != nil && t.Medium.Url != "" {
		return t.Medium.Url
	}
	if t.Default != nil {
		return t.Default.Url
	}
	return ""
}

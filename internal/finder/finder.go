// Package finder ties listening history, the taste engine and the event
// sources together into the two user-facing flows: nearest matches for a
// location, and upcoming events for a list of artists.
package finder

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ademuri/vibe-gigs/internal/events"
	"github.com/ademuri/vibe-gigs/internal/extract"
	"github.com/ademuri/vibe-gigs/internal/youtube"
)

const (
	// DefaultPace separates consecutive per-artist queries to one source.
	DefaultPace = 200 * time.Millisecond

	// Playlists analysed when the request names none.
	defaultPlaylistCount = 5
)

// ErrInvalidRequest wraps every validation failure.
var ErrInvalidRequest = errors.New("invalid request")

// ListeningSource supplies listening history for a set of playlists.
type ListeningSource interface {
	Records(ctx context.Context, playlistIDs []string) ([]extract.Record, error)
}

// DefaultSelector is implemented by listening sources that can choose
// playlists when the caller names none.
type DefaultSelector interface {
	DefaultPlaylists(ctx context.Context, n int) ([]string, error)
}

// PlaylistLister is implemented by listening sources that know which
// playlists belong to the listener. Requested ids outside that list are
// ignored.
type PlaylistLister interface {
	Playlists(ctx context.Context) ([]youtube.Playlist, error)
}

// HintSource is implemented by listening sources that know more about the
// listener's genres than titles show, e.g. community tags. Hints count like
// titles when building the profile.
type HintSource interface {
	ProfileHints(ctx context.Context) ([]string, error)
}

// SocialResolver finds profile links for artists.
type SocialResolver interface {
	Socials(ctx context.Context, artists []string) map[string]youtube.Socials
}

type Config struct {
	Listening ListeningSource

	// Geo is searched by location for the nearest-matches flow.
	Geo events.Searcher

	// Sites are searched by artist for the events-search flow.
	Sites []events.Searcher

	// Socials is optional.
	Socials SocialResolver

	// Pace defaults to DefaultPace. Negative disables pacing.
	Pace time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

type Finder struct {
	listening ListeningSource
	geo       events.Searcher
	sites     []events.Searcher
	socials   SocialResolver
	pace      time.Duration
	now       func() time.Time
	validate  *validator.Validate
}

func New(cfg Config) *Finder {
	f := &Finder{
		listening: cfg.Listening,
		geo:       cfg.Geo,
		sites:     cfg.Sites,
		socials:   cfg.Socials,
		pace:      cfg.Pace,
		now:       cfg.Now,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
	if f.pace == 0 {
		f.pace = DefaultPace
	}
	if f.pace < 0 {
		f.pace = 0
	}
	if f.now == nil {
		f.now = time.Now
	}
	return f
}

// ExtractResponse is the result of ExtractFromPlaylists.
type ExtractResponse struct {
	Artists       []extract.Artist `json:"artists"`
	TotalTracks   int              `json:"totalTracks"`
	PlaylistCount int              `json:"playlistCount"`
}

type ExtractRequest struct {
	PlaylistIDs []string `json:"playlistIds" validate:"required,min=1,dive,required"`
}

// ExtractFromPlaylists returns the artists in the given playlists, most
// frequent first.
func (f *Finder) ExtractFromPlaylists(ctx context.Context, req ExtractRequest) (*ExtractResponse, error) {
	if err := f.check(req); err != nil {
		return nil, err
	}
	ids := f.owned(ctx, req.PlaylistIDs)
	if len(ids) == 0 {
		return &ExtractResponse{Artists: []extract.Artist{}}, nil
	}
	records, err := f.listening.Records(ctx, ids)
	if err != nil {
		return nil, err
	}
	res := extract.Artists(records)
	artists := res.Artists
	if artists == nil {
		artists = []extract.Artist{}
	}
	return &ExtractResponse{
		Artists:       artists,
		TotalTracks:   len(records),
		PlaylistCount: len(ids),
	}, nil
}

func (f *Finder) check(req any) error {
	if err := f.validate.Struct(req); err != nil {
		return errors.Join(ErrInvalidRequest, err)
	}
	return nil
}

// HTTPStatus maps an error from this package to a response code.
func HTTPStatus(err error) int {
	if errors.Is(err, ErrInvalidRequest) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

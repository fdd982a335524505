// Package catalog adapts a Deezer-style track catalog API: track search,
// canonical track records, 30-second preview URLs, and per-track tempo data.
// No authentication is required for any of these endpoints.
package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/echosift/echosift/internal/adapters/providers/httpx"
	"github.com/echosift/echosift/internal/domain/model"
	"github.com/echosift/echosift/pkg/logger"
)

// popularityDivisor maps the catalog's 0..1M rank onto a 0-100 popularity.
const popularityDivisor = 10_000

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTP swaps the underlying provider client, mainly for tests.
func WithHTTP(h *httpx.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client is the catalog provider adapter.
type Client struct {
	baseURL string
	http    *httpx.Client
	logger  logger.Logger
}

// New creates a catalog Client against the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    httpx.New("catalog"),
		logger:  logger.Named("catalog"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Wire types.

type wireArtist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type wireAlbum struct {
	Title       string `json:"title"`
	CoverMedium string `json:"cover_medium"`
}

type wireTrack struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Preview     string     `json:"preview"`
	BPM         float64    `json:"bpm"`
	Duration    int        `json:"duration"`
	Rank        int        `json:"rank"`
	ReleaseDate string     `json:"release_date"`
	Artist      wireArtist `json:"artist"`
	Album       wireAlbum  `json:"album"`
}

type searchResponse struct {
	Data []wireTrack `json:"data"`
}

type wireGenre struct {
	Name string `json:"name"`
}

type artistResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Genres struct {
		Data []wireGenre `json:"data"`
	} `json:"genres"`
}

// SearchTracks runs a free-text catalog search. Queries support the
// "artist:" and "genre:" prefixes the catalog exposes.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]model.TrackSummary, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))

	var resp searchResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/search?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	out := make([]model.TrackSummary, 0, len(resp.Data))
	for _, t := range resp.Data {
		out = append(out, mapTrack(t))
	}
	return out, nil
}

// GetTrack fetches the canonical record for a track ID.
func (c *Client) GetTrack(ctx context.Context, id string) (*model.TrackSummary, error) {
	var t wireTrack
	if err := c.http.GetJSON(ctx, c.baseURL+"/track/"+url.PathEscape(id), &t); err != nil {
		return nil, err
	}
	if t.ID == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}
	summary := mapTrack(t)
	return &summary, nil
}

// GetArtistGenres fetches the genre labels attached to an artist.
func (c *Client) GetArtistGenres(ctx context.Context, artistID string) ([]string, error) {
	var resp artistResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/artist/"+url.PathEscape(artistID), &resp); err != nil {
		return nil, err
	}
	if resp.ID == 0 {
		return nil, fmt.Errorf("%w: %s", ErrArtistNotFound, artistID)
	}

	genres := make([]string, 0, len(resp.Genres.Data))
	for _, g := range resp.Genres.Data {
		genres = append(genres, g.Name)
	}
	return genres, nil
}

// GetPreviewURL finds a playable 30-second preview for a track by search.
// Used as a fallback when the canonical record carries no preview.
func (c *Client) GetPreviewURL(ctx context.Context, trackName, artistName string) (string, error) {
	found, err := c.SearchTracks(ctx, artistName+" "+trackName, 1)
	if err != nil {
		return "", err
	}
	if len(found) == 0 || found[0].PreviewURL == "" {
		return "", fmt.Errorf("%w: no preview for %q", ErrTrackNotFound, trackName)
	}
	return found[0].PreviewURL, nil
}

// TrackTempo resolves a track by search and returns its BPM and duration in
// milliseconds. A zero BPM means the catalog has no tempo for the track.
func (c *Client) TrackTempo(ctx context.Context, trackName, artistName string) (bpm, durationMS float64, err error) {
	found, err := c.searchRaw(ctx, trackName+" "+artistName, 1)
	if err != nil {
		return 0, 0, err
	}
	if len(found) == 0 {
		return 0, 0, fmt.Errorf("%w: %q by %q", ErrTrackNotFound, trackName, artistName)
	}

	// The search record often omits BPM; the track endpoint carries it.
	var t wireTrack
	if err := c.http.GetJSON(ctx, c.baseURL+"/track/"+strconv.FormatInt(found[0].ID, 10), &t); err != nil {
		return 0, 0, err
	}
	return t.BPM, float64(t.Duration) * 1000, nil
}

func (c *Client) searchRaw(ctx context.Context, query string, limit int) ([]wireTrack, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))

	var resp searchResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/search?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func mapTrack(t wireTrack) model.TrackSummary {
	popularity := t.Rank / popularityDivisor
	if popularity > 100 {
		popularity = 100
	}
	return model.TrackSummary{
		ID:          strconv.FormatInt(t.ID, 10),
		Name:        t.Title,
		Artist:      t.Artist.Name,
		Album:       t.Album.Title,
		ImageURL:    t.Album.CoverMedium,
		PreviewURL:  t.Preview,
		Popularity:  popularity,
		ReleaseDate: t.ReleaseDate,
		ArtistIDs:   []string{strconv.FormatInt(t.Artist.ID, 10)},
	}
}

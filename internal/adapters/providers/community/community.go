// Package community adapts a Last.fm-style listening-data API: similar
// tracks by collective listening behavior and crowd-sourced tags.
package community

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/echosift/echosift/internal/adapters/providers/httpx"
	"github.com/echosift/echosift/internal/domain/model"
	"github.com/echosift/echosift/pkg/logger"
)

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

// Client is the community listening-data adapter.
type Client struct {
	baseURL string
	apiKey  string
	http    *httpx.Client
	logger  logger.Logger
}

// New creates a community Client against the given base URL.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    httpx.New("community"),
		logger:  logger.Named("community"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Wire types.

type wireSimilarArtist struct {
	Name string `json:"name"`
}

type wireSimilarTrack struct {
	Name   string            `json:"name"`
	Match  float64           `json:"match"`
	Artist wireSimilarArtist `json:"artist"`
}

type similarResponse struct {
	SimilarTracks struct {
		Track []wireSimilarTrack `json:"track"`
	} `json:"similartracks"`
}

type wireTag struct {
	Name string `json:"name"`
}

type topTagsResponse struct {
	TopTags struct {
		Tag []wireTag `json:"tag"`
	} `json:"toptags"`
}

// GetSimilarTracks returns tracks the community plays alongside the given
// one, with match scores in [0,1].
func (c *Client) GetSimilarTracks(ctx context.Context, artist, track string, limit int) ([]model.SimilarMatch, error) {
	var resp similarResponse
	if err := c.http.GetJSON(ctx, c.endpoint("track.getsimilar", artist, track, limit), &resp); err != nil {
		return nil, err
	}

	out := make([]model.SimilarMatch, 0, len(resp.SimilarTracks.Track))
	for _, t := range resp.SimilarTracks.Track {
		if t.Name == "" || t.Artist.Name == "" {
			continue
		}
		out = append(out, model.SimilarMatch{
			Artist: t.Artist.Name,
			Track:  t.Name,
			Score:  t.Match,
		})
	}
	return out, nil
}

// GetTrackTags returns the community's top tags for a track, lower-cased.
func (c *Client) GetTrackTags(ctx context.Context, artist, track string, limit int) ([]string, error) {
	var resp topTagsResponse
	if err := c.http.GetJSON(ctx, c.endpoint("track.gettoptags", artist, track, 0), &resp); err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(resp.TopTags.Tag))
	for _, t := range resp.TopTags.Tag {
		if t.Name == "" {
			continue
		}
		tags = append(tags, strings.ToLower(t.Name))
		if limit > 0 && len(tags) == limit {
			break
		}
	}
	return tags, nil
}

func (c *Client) endpoint(method, artist, track string, limit int) string {
	q := url.Values{}
	q.Set("method", method)
	q.Set("artist", artist)
	q.Set("track", track)
	q.Set("api_key", c.apiKey)
	q.Set("format", "json")
	q.Set("autocorrect", "1")
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.baseURL + "/?" + q.Encode()
}

// Package tags adapts a Discogs-style release-metadata API. Its detailed
// genre and style taxonomy feeds tag-overlap scoring on top of the
// community's free-form tags.
package tags

import (
	"context"
	"net/url"
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

// Client is the release-metadata adapter.
type Client struct {
	baseURL string
	token   string
	http    *httpx.Client
	logger  logger.Logger
}

// New creates a tags Client. An empty token disables the provider; lookups
// then return empty tags without a network call.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		token:   token,
		http:    httpx.New("metadata"),
		logger:  logger.Named("tags"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type releaseSearchResponse struct {
	Results []struct {
		Genre []string `json:"genre"`
		Style []string `json:"style"`
	} `json:"results"`
}

// GetEnhancedTags fetches the release taxonomy for a track. Missing releases
// and disabled clients both yield empty tags, never an error the caller has
// to branch on.
func (c *Client) GetEnhancedTags(ctx context.Context, artist, track string) (model.EnhancedTags, error) {
	if c.token == "" {
		return model.EnhancedTags{}, nil
	}

	q := url.Values{}
	q.Set("q", artist+" "+track)
	q.Set("type", "release")
	q.Set("per_page", "1")
	q.Set("token", c.token)

	var resp releaseSearchResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/database/search?"+q.Encode(), &resp); err != nil {
		return model.EnhancedTags{}, err
	}
	if len(resp.Results) == 0 {
		return model.EnhancedTags{}, nil
	}

	release := resp.Results[0]
	return model.EnhancedTags{
		Genres: lowerAll(release.Genre),
		Styles: lowerAll(release.Style),
	}, nil
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(s))
	}
	return out
}

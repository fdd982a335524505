// Package httpx is the shared outbound plumbing for provider adapters: JSON
// GET with context, a circuit breaker per provider, and an outbound rate
// limit so free-tier upstream APIs are not hammered.
package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/echosift/echosift/pkg/logger"
	"github.com/echosift/echosift/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultTimeout        = 10 * time.Second
	defaultRateRPS        = 10
	defaultRateBurst      = 20
	breakerMaxRequests    = 3
	breakerInterval       = 60 * time.Second
	breakerOpenTimeout    = 30 * time.Second
	breakerTripFailures   = 5
	maxResponseBodyLength = 4 << 20
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit bounds outbound requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithHTTPClient swaps the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.base = hc
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

// Client wraps one upstream provider endpoint. All provider adapters go
// through it so breaker state and rate budget are shared per provider.
type Client struct {
	name    string
	base    *http.Client
	timeout time.Duration
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  logger.Logger
}

// New creates a Client for the named provider.
func New(name string, opts ...Option) *Client {
	c := &Client{
		name:    name,
		base:    &http.Client{},
		timeout: defaultTimeout,
		limiter: rate.NewLimiter(rate.Limit(defaultRateRPS), defaultRateBurst),
		logger:  logger.Named("httpx").Named(name),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: breakerMaxRequests,
		Interval:    breakerInterval,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripFailures
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			c.logger.Warn(context.Background(), "provider breaker state change",
				logger.String("provider", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})
	return c
}

// GetJSON fetches url and decodes the JSON body into out. The breaker
// rejecting fast maps to ErrProviderUnavailable so callers can degrade
// without waiting out a dead upstream.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.get(ctx, url)
	})
	metrics.RecordProviderLatency(c.name, float64(time.Since(start).Milliseconds()))

	if err != nil {
		metrics.RecordProviderRequest(c.name, "error")
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %s circuit open", ErrProviderUnavailable, c.name)
		}
		return err
	}
	metrics.RecordProviderRequest(c.name, "ok")

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", ErrBadStatus, c.name, strconv.Itoa(resp.StatusCode))
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyLength))
}

// Name returns the provider name the client was built for.
func (c *Client) Name() string {
	return c.name
}

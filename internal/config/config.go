// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CatalogBaseURL configures the track catalog provider. The catalog
	// API is unauthenticated, so there is no key to go with it.
	CatalogBaseURL string `koanf:"catalog_base_url"`

	// CommunityBaseURL and CommunityAPIKey configure the community
	// listening-data provider (similar tracks, tags).
	CommunityBaseURL string `koanf:"community_base_url"`
	CommunityAPIKey  string `koanf:"community_api_key"`

	// AnalysisBaseURL configures the precomputed audio-analysis provider.
	AnalysisBaseURL string `koanf:"analysis_base_url"`

	// MusicBrainzBaseURL configures recording-ID lookups for the analysis
	// provider.
	MusicBrainzBaseURL string `koanf:"musicbrainz_base_url"`

	// MetadataBaseURL and MetadataToken configure the release-metadata
	// provider used for enhanced tags. An empty token disables it.
	MetadataBaseURL string `koanf:"metadata_base_url"`
	MetadataToken   string `koanf:"metadata_token"`

	// ProviderTimeoutMS bounds a single upstream provider request.
	ProviderTimeoutMS int `koanf:"provider_timeout_ms"`

	// FusionTimeoutMS bounds one feature provider call inside fusion.
	FusionTimeoutMS int `koanf:"fusion_timeout_ms"`

	// ResolveWorkers bounds concurrent catalog resolutions during collection.
	ResolveWorkers int `koanf:"resolve_workers"`

	// EnrichBatchSize, EnrichConcurrency, and EnrichTimeoutMS shape the
	// background enrichment pass.
	EnrichBatchSize   int `koanf:"enrich_batch_size"`
	EnrichConcurrency int `koanf:"enrich_concurrency"`
	EnrichTimeoutMS   int `koanf:"enrich_timeout_ms"`

	// MaxSameArtist caps seed-artist tracks admitted per pool.
	MaxSameArtist int `koanf:"max_same_artist"`

	// MaxPerArtist caps tracks per non-seed artist admitted per pool.
	MaxPerArtist int `koanf:"max_per_artist"`

	// DefaultLimit and MaxLimit bound the requested recommendation count.
	DefaultLimit int `koanf:"default_limit"`
	MaxLimit     int `koanf:"max_limit"`

	// RateLimitRPS and RateLimitBurst throttle outbound provider requests.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use and is
// currently unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:           "info",
		Addr:               ":8080",
		CatalogBaseURL:     "https://api.deezer.com",
		CommunityBaseURL:   "https://ws.audioscrobbler.com/2.0",
		AnalysisBaseURL:    "https://acousticbrainz.org/api/v1",
		MusicBrainzBaseURL: "https://musicbrainz.org/ws/2",
		MetadataBaseURL:    "https://api.discogs.com",
		ProviderTimeoutMS:  10_000,
		FusionTimeoutMS:    8_000,
		ResolveWorkers:     8,
		EnrichBatchSize:    10,
		EnrichConcurrency:  5,
		EnrichTimeoutMS:    15_000,
		MaxSameArtist:      8,
		MaxPerArtist:       3,
		DefaultLimit:       10,
		MaxLimit:           20,
		RateLimitRPS:       10,
		RateLimitBurst:     20,
	}
	return c
}

package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if ECHOSIFT_CONFIG is set
//  3. env (prefix ECHOSIFT_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("ECHOSIFT_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: ECHOSIFT_ADDR, ECHOSIFT_ENRICH_BATCH_SIZE, ...
	// Map env keys like ECHOSIFT_ENRICH_BATCH_SIZE -> enrich_batch_size
	// (flat keys). Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("ECHOSIFT_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "echosift_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Basic validation
	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		return nil, fmt.Errorf("%w: max_limit below default_limit", ErrInvalidConfig)
	}
	if cfg.EnrichBatchSize <= 0 || cfg.EnrichConcurrency <= 0 {
		return nil, fmt.Errorf("%w: enrichment bounds must be positive", ErrInvalidConfig)
	}
	return &cfg, nil
}

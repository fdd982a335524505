// Package enrich upgrades fast-scored candidates to full scores once true
// fused audio features are available. Enrichment is strictly best-effort:
// it runs after the caller already has its response and must never block or
// fail anything.
package enrich

import (
	"context"
	"sync"
	"time"

	"github.com/echosift/echosift/internal/domain/model"
	"github.com/echosift/echosift/internal/domain/scoring"
	"github.com/echosift/echosift/pkg/fanout"
	"github.com/echosift/echosift/pkg/logger"
	"github.com/echosift/echosift/pkg/metrics"
)

// Default enrichment bounds. The batch stays small because only the first
// screenful of results needs full scores before the user reaches them, and
// concurrency stays low to avoid hammering feature providers.
const (
	defaultBatchSize   = 10
	defaultConcurrency = 5
	defaultTimeout     = 15 * time.Second
)

// FeatureSource produces fused features for a track. Fusion never fails;
// a record with SourceCount zero means no provider answered.
type FeatureSource interface {
	Fuse(ctx context.Context, trackName, artistName string) *model.FusedFeatures
}

// Option applies a configuration option to the Enricher.
type Option func(*Enricher)

// WithBatchSize bounds how many candidates one batch enriches.
func WithBatchSize(n int) Option {
	return func(e *Enricher) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithConcurrency bounds parallel feature fetches within a batch.
func WithConcurrency(n int) Option {
	return func(e *Enricher) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithTimeout sets the per-candidate enrichment timeout. A candidate whose
// fetch exceeds it keeps its fast score.
func WithTimeout(d time.Duration) Option {
	return func(e *Enricher) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLogger sets a custom logger for the enricher.
func WithLogger(l logger.Logger) Option {
	return func(e *Enricher) {
		if l != nil {
			e.logger = l
		}
	}
}

// Enricher re-fetches true features for a bounded batch of candidates and
// rewrites their scores in place.
type Enricher struct {
	features    FeatureSource
	weights     scoring.FullWeights
	batchSize   int
	concurrency int
	timeout     time.Duration
	logger      logger.Logger
}

// New creates an Enricher backed by the given feature source.
func New(features FeatureSource, opts ...Option) *Enricher {
	e := &Enricher{
		features:    features,
		weights:     scoring.DefaultFullWeights,
		batchSize:   defaultBatchSize,
		concurrency: defaultConcurrency,
		timeout:     defaultTimeout,
		logger:      logger.Named("enrich"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EnrichBatch upgrades up to batchSize candidates still flagged for
// enrichment. Each candidate is mutated at most once: features attached,
// score rewritten with the full formula, flag cleared. A candidate whose
// fetch times out or whose providers all fail keeps its fast score. Safe to
// call from a goroutine after the response has been sent.
//
// mu guards every candidate and seed mutation; anything reading the same
// batch concurrently must hold it. A nil locker gets a private one, which is
// fine only when the batch is not shared.
func (e *Enricher) EnrichBatch(ctx context.Context, batch []*model.ScoredCandidate, seed *model.SeedContext, mu sync.Locker) {
	if mu == nil {
		mu = new(sync.Mutex)
	}

	mu.Lock()
	pending := make([]*model.ScoredCandidate, 0, e.batchSize)
	for _, sc := range batch {
		if sc != nil && sc.NeedsEnrichment {
			pending = append(pending, sc)
			if len(pending) == e.batchSize {
				break
			}
		}
	}
	seedFeatures := seed.Features
	mu.Unlock()
	if len(pending) == 0 {
		return
	}

	// The full formula needs the seed's fused features; fetch them lazily
	// when the fast path skipped them. The fetch runs unlocked, only the
	// cache write is guarded.
	if seedFeatures == nil {
		fused := e.features.Fuse(ctx, seed.Track.Name, seed.Track.Artist)
		if fused.SourceCount > 0 {
			seedFeatures = fused
			mu.Lock()
			seed.Features = fused
			mu.Unlock()
		}
	}

	tasks := make([]fanout.Task[struct{}], len(pending))
	for i, sc := range pending {
		sc := sc
		tasks[i] = fanout.Task[struct{}]{
			Name: sc.Track.ID,
			Run: func(ctx context.Context) (struct{}, error) {
				e.enrichOne(ctx, sc, seed, seedFeatures, mu)
				return struct{}{}, ctx.Err()
			},
		}
	}

	results := fanout.Run(ctx, tasks,
		fanout.WithWorkers(e.concurrency),
		fanout.WithTimeout(e.timeout),
	)

	enriched := 0
	for _, r := range results {
		if r.OK() {
			enriched++
		} else {
			metrics.RecordEnrichmentTimeout()
		}
	}
	e.logger.Info(ctx, "enrichment batch finished",
		logger.Int("batch", len(pending)),
		logger.Int("enriched", enriched),
	)
}

func (e *Enricher) enrichOne(ctx context.Context, sc *model.ScoredCandidate, seed *model.SeedContext, seedFeatures *model.FusedFeatures, mu sync.Locker) {
	fused := e.features.Fuse(ctx, sc.Track.Name, sc.Track.Artist)
	if ctx.Err() != nil || fused.SourceCount == 0 {
		// Abandoned: the candidate keeps its fast score.
		metrics.RecordEnrichment(false)
		mu.Lock()
		sc.NeedsEnrichment = false
		mu.Unlock()
		return
	}

	// Candidate identity fields are frozen once the batch is built, so the
	// score can be computed before taking the lock.
	var score float64
	if seedFeatures != nil {
		score = scoring.Full(&sc.Candidate, seed, fused.Features, seedFeatures.Features, e.weights)
	}

	mu.Lock()
	sc.Features = fused
	if seedFeatures != nil {
		sc.SimilarityScore = score
	}
	sc.NeedsEnrichment = false
	mu.Unlock()
	metrics.RecordEnrichment(true)
}

// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/echosift/echosift/internal/adapters/history"
	"github.com/echosift/echosift/internal/adapters/providers/catalog"
	"github.com/echosift/echosift/internal/adapters/providers/community"
	"github.com/echosift/echosift/internal/adapters/providers/features"
	"github.com/echosift/echosift/internal/adapters/providers/httpx"
	"github.com/echosift/echosift/internal/adapters/providers/tags"
	"github.com/echosift/echosift/internal/config"
	"github.com/echosift/echosift/internal/domain/collect"
	"github.com/echosift/echosift/internal/domain/dedupe"
	"github.com/echosift/echosift/internal/domain/enrich"
	"github.com/echosift/echosift/internal/domain/feature"
	"github.com/echosift/echosift/internal/domain/model"
	"github.com/echosift/echosift/internal/domain/rank"
	"github.com/echosift/echosift/internal/domain/scoring"
	"github.com/echosift/echosift/pkg/fanout"
	"github.com/echosift/echosift/pkg/logger"
	"github.com/echosift/echosift/pkg/metrics"
)

// Service-level constants.
const (
	seedTagLimit       = 10
	candidateTagLimit  = 5
	maxStoredBatches   = 100
	enrichBudgetFactor = 2 // background enrichment gets timeout * batch/concurrency * this
)

// TagSource is the slice of the enhanced-tag provider the service needs.
type TagSource interface {
	GetEnhancedTags(ctx context.Context, artist, track string) (model.EnhancedTags, error)
}

// CatalogSource extends the collector's catalog view with the seed and
// preview lookups the service itself performs.
type CatalogSource interface {
	collect.Catalog
	GetPreviewURL(ctx context.Context, trackName, artistName string) (string, error)
}

// Recommendation is one stored recommendation batch. Tracks are pointers so
// background enrichment is visible to later reads of the same batch; mu
// guards those rewrites, and callers only ever receive snapshots.
type Recommendation struct {
	ID          string                   `json:"id"`
	Seed        model.TrackSummary       `json:"seed"`
	Tracks      []*model.ScoredCandidate `json:"tracks"`
	Escalated   bool                     `json:"escalated"`
	GeneratedAt time.Time                `json:"generated_at"`

	seedCtx *model.SeedContext
	mu      sync.RWMutex
}

// snapshot copies the batch so callers can read and encode it while the
// enricher rewrites the stored tracks. Fused feature records are never
// mutated after fusion, so their pointers may be shared.
func (r *Recommendation) snapshot() *Recommendation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := &Recommendation{
		ID:          r.ID,
		Seed:        r.Seed,
		Tracks:      make([]*model.ScoredCandidate, len(r.Tracks)),
		Escalated:   r.Escalated,
		GeneratedAt: r.GeneratedAt,
	}
	for i, sc := range r.Tracks {
		cp := *sc
		out.Tracks[i] = &cp
	}
	return out
}

// Service implements the API dependencies for the recommendation system.
type Service struct {
	mu sync.RWMutex

	// Core components
	catalog   CatalogSource
	community collect.Community
	tagSource TagSource
	fuser     *feature.Fuser
	collector *collect.Collector
	enricher  *enrich.Enricher
	history   history.Store

	// Configuration
	cfg *config.Config

	// Stored batches for later enrichment, newest last.
	batches    map[string]*Recommendation
	batchOrder []string

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the service configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithCatalog injects a catalog provider, mainly for tests.
func WithCatalog(c CatalogSource) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithCommunity injects a community provider, mainly for tests.
func WithCommunity(c collect.Community) Option {
	return func(s *Service) {
		if c != nil {
			s.community = c
		}
	}
}

// WithTagSource injects an enhanced-tag provider, mainly for tests.
func WithTagSource(t TagSource) Option {
	return func(s *Service) {
		if t != nil {
			s.tagSource = t
		}
	}
}

// WithFuser injects a feature fuser, mainly for tests.
func WithFuser(f *feature.Fuser) Option {
	return func(s *Service) {
		if f != nil {
			s.fuser = f
		}
	}
}

// WithHistory injects a swipe-history store.
func WithHistory(h history.Store) Option {
	return func(s *Service) {
		if h != nil {
			s.history = h
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cfg:     config.New(context.Background()),
		batches: make(map[string]*Recommendation),
		logger:  nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components. Providers not
// injected through options are built from the configuration.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting recommendation service...")

	providerTimeout := time.Duration(s.cfg.ProviderTimeoutMS) * time.Millisecond
	httpOpts := []httpx.Option{
		httpx.WithTimeout(providerTimeout),
		httpx.WithRateLimit(s.cfg.RateLimitRPS, s.cfg.RateLimitBurst),
	}

	if s.catalog == nil {
		s.catalog = catalog.New(s.cfg.CatalogBaseURL,
			catalog.WithHTTP(httpx.New("catalog", httpOpts...)),
		)
	}
	if s.community == nil {
		s.community = community.New(s.cfg.CommunityBaseURL, s.cfg.CommunityAPIKey,
			community.WithHTTP(httpx.New("community", httpOpts...)),
		)
	}
	if s.tagSource == nil {
		s.tagSource = tags.New(s.cfg.MetadataBaseURL, s.cfg.MetadataToken,
			tags.WithHTTP(httpx.New("metadata", httpOpts...)),
		)
	}
	if s.fuser == nil {
		tempoSource, ok := s.catalog.(features.TempoSource)
		providers := []feature.Provider{
			features.NewAnalysisProvider(s.cfg.AnalysisBaseURL, s.cfg.MusicBrainzBaseURL),
		}
		if ok {
			providers = append(providers, features.NewTempoEstimator(tempoSource))
		}
		s.fuser = feature.NewFuser(providers,
			feature.WithProviderTimeout(time.Duration(s.cfg.FusionTimeoutMS)*time.Millisecond),
		)
	}
	if s.history == nil {
		s.history = history.NewMemoryStore()
	}

	s.collector = collect.New(s.catalog, s.community,
		collect.WithResolveWorkers(s.cfg.ResolveWorkers),
	)
	s.enricher = enrich.New(s.fuser,
		enrich.WithBatchSize(s.cfg.EnrichBatchSize),
		enrich.WithConcurrency(s.cfg.EnrichConcurrency),
		enrich.WithTimeout(time.Duration(s.cfg.EnrichTimeoutMS)*time.Millisecond),
	)

	s.started = true
	s.logger.Info(ctx, "recommendation service started",
		logger.String("catalog", s.cfg.CatalogBaseURL),
		logger.String("community", s.cfg.CommunityBaseURL),
		logger.Int("enrichBatch", s.cfg.EnrichBatchSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "recommendation service stopped")
}

// GetFastRecommendations runs the fast recommendation pipeline for a seed
// track: collect, filter, score with provisional data, rank, and respond.
// Full feature-based rescoring happens in the background afterwards.
func (s *Service) GetFastRecommendations(ctx context.Context, seedID, userID string, limit int) (*Recommendation, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	start := time.Now()
	limit = s.clampLimit(limit)

	seed, err := s.buildSeedContext(ctx, seedID)
	if err != nil {
		return nil, err
	}

	excl := s.history.ExclusionsFor(ctx, userID)

	pool := s.collector.Collect(ctx, seed)
	candidates, tracker := dedupe.Filter(pool, seed.Track, excl,
		dedupe.WithMaxSameArtist(s.cfg.MaxSameArtist),
		dedupe.WithMaxPerArtist(s.cfg.MaxPerArtist),
	)

	escalated := false
	if len(candidates) == 0 {
		s.logger.Warn(ctx, "pool starved after filtering, escalating",
			logger.String("seed", seedID),
			logger.Int("raw", len(pool)),
		)
		candidates = s.collector.Escalate(ctx, seed, excl, tracker)
		escalated = true
	}

	s.annotate(ctx, candidates)

	scored := make([]model.ScoredCandidate, len(candidates))
	for i := range candidates {
		scored[i] = model.ScoredCandidate{
			Candidate:       candidates[i],
			SimilarityScore: scoring.Fast(&candidates[i], seed, scoring.DefaultFastWeights),
			NeedsEnrichment: true,
		}
	}

	scored = dedupe.ApplyScoreFloor(scored)
	ranked := rank.Arrange(scored, seed.Track.Artist, limit)

	rec := &Recommendation{
		ID:          uuid.NewString(),
		Seed:        seed.Track,
		Tracks:      make([]*model.ScoredCandidate, len(ranked)),
		Escalated:   escalated,
		GeneratedAt: time.Now(),
		seedCtx:     seed,
	}
	for i := range ranked {
		sc := ranked[i]
		rec.Tracks[i] = &sc
	}

	s.fillPreviews(ctx, rec.Tracks)
	s.storeBatch(rec)

	// First screenful gets true features without the caller asking. The
	// caller gets a snapshot so encoding it never races the rewrite.
	go s.enrichBackground(rec, seed)

	metrics.RecordRecommendationsServed(len(rec.Tracks))
	metrics.RecordRecommendationLatency(float64(time.Since(start).Milliseconds()))
	s.logger.Info(ctx, "fast recommendations served",
		logger.String("seed", seedID),
		logger.Int("count", len(rec.Tracks)),
		logger.Any("escalated", escalated),
	)
	return rec.snapshot(), nil
}

// EnrichRecommendation re-runs enrichment for a stored batch and returns it.
// Used by clients that want full scores for tracks beyond the first batch.
func (s *Service) EnrichRecommendation(ctx context.Context, id string) (*Recommendation, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}

	s.mu.RLock()
	rec, ok := s.batches[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRecommendationNotFound, id)
	}

	s.enricher.EnrichBatch(ctx, rec.Tracks, rec.seedCtx, &rec.mu)
	return rec.snapshot(), nil
}

// GetRecommendation returns a stored batch by id.
func (s *Service) GetRecommendation(_ context.Context, id string) (*Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.batches[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRecommendationNotFound, id)
	}
	return rec.snapshot(), nil
}

// Search proxies a catalog search, typically to pick a seed track.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]model.TrackSummary, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	return s.catalog.SearchTracks(ctx, query, s.clampLimit(limit))
}

// RecordSwipe stores a like or reject for a user.
func (s *Service) RecordSwipe(ctx context.Context, userID, direction string, track model.TrackSummary) error {
	if !s.isStarted() {
		return ErrNotStarted
	}
	return s.history.RecordSwipe(ctx, userID, direction, track)
}

// ResetHistory clears a user's swipe history.
func (s *Service) ResetHistory(ctx context.Context, userID string) {
	s.history.Reset(ctx, userID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"storedBatches": len(s.batches),
	}
	if s.started {
		hs := s.history.Stats(context.Background())
		stats["users"] = hs.Users
		stats["likes"] = hs.Likes
		stats["rejects"] = hs.Rejects
	}
	return stats
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		return s.cfg.MaxLimit
	}
	return limit
}

// buildSeedContext resolves the seed track and gathers its genres and tags
// in parallel. The seed lookup itself is the only hard failure in the
// pipeline; metadata fetches degrade to empty.
func (s *Service) buildSeedContext(ctx context.Context, seedID string) (*model.SeedContext, error) {
	track, err := s.catalog.GetTrack(ctx, seedID)
	if err != nil {
		if errors.Is(err, catalog.ErrTrackNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSeedNotFound, seedID)
		}
		return nil, err
	}

	seed := &model.SeedContext{
		Track: *track,
		Year:  model.YearFromDate(track.ReleaseDate),
	}

	tasks := []fanout.Task[[]string]{
		{
			Name: "genres",
			Run: func(ctx context.Context) ([]string, error) {
				if len(track.ArtistIDs) == 0 {
					return nil, nil
				}
				return s.catalog.GetArtistGenres(ctx, track.ArtistIDs[0])
			},
		},
		{
			Name: "community-tags",
			Run: func(ctx context.Context) ([]string, error) {
				return s.community.GetTrackTags(ctx, track.Artist, track.Name, seedTagLimit)
			},
		},
		{
			Name: "enhanced-tags",
			Run: func(ctx context.Context) ([]string, error) {
				enhanced, err := s.tagSource.GetEnhancedTags(ctx, track.Artist, track.Name)
				if err != nil {
					return nil, err
				}
				return enhanced.All(), nil
			},
		},
	}

	for _, r := range fanout.Run(ctx, tasks) {
		if !r.OK() {
			s.logger.Debug(ctx, "seed metadata fetch failed",
				logger.String("part", r.Name),
				logger.Error(r.Err),
			)
			continue
		}
		switch r.Name {
		case "genres":
			seed.Genres = r.Value
		default:
			seed.Tags = append(seed.Tags, r.Value...)
		}
	}
	return seed, nil
}

// annotate attaches community tags to candidates so tag-overlap scoring has
// something to work with on the fast path. Failures leave a candidate
// untagged rather than failing the request.
func (s *Service) annotate(ctx context.Context, candidates []model.Candidate) {
	tasks := make([]fanout.Task[[]string], len(candidates))
	for i := range candidates {
		c := &candidates[i]
		tasks[i] = fanout.Task[[]string]{
			Name: c.Track.ID,
			Run: func(ctx context.Context) ([]string, error) {
				return s.community.GetTrackTags(ctx, c.Track.Artist, c.Track.Name, candidateTagLimit)
			},
		}
	}

	results := fanout.Run(ctx, tasks, fanout.WithWorkers(s.cfg.ResolveWorkers))
	for i, r := range results {
		if r.OK() {
			candidates[i].CommunityTags = r.Value
		}
	}
}

// fillPreviews backfills missing preview URLs by search. Previews are what
// the client plays, so a missing one is worth an extra lookup.
func (s *Service) fillPreviews(ctx context.Context, tracks []*model.ScoredCandidate) {
	var missing []*model.ScoredCandidate
	for _, sc := range tracks {
		if sc.Track.PreviewURL == "" {
			missing = append(missing, sc)
		}
	}
	if len(missing) == 0 {
		return
	}

	tasks := make([]fanout.Task[string], len(missing))
	for i, sc := range missing {
		sc := sc
		tasks[i] = fanout.Task[string]{
			Name: sc.Track.ID,
			Run: func(ctx context.Context) (string, error) {
				return s.catalog.GetPreviewURL(ctx, sc.Track.Name, sc.Track.Artist)
			},
		}
	}

	results := fanout.Run(ctx, tasks, fanout.WithWorkers(s.cfg.ResolveWorkers))
	for i, r := range results {
		if r.OK() && r.Value != "" {
			missing[i].Track.PreviewURL = r.Value
		}
	}
}

func (s *Service) storeBatch(rec *Recommendation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batches[rec.ID] = rec
	s.batchOrder = append(s.batchOrder, rec.ID)
	for len(s.batchOrder) > maxStoredBatches {
		oldest := s.batchOrder[0]
		s.batchOrder = s.batchOrder[1:]
		delete(s.batches, oldest)
	}
}

// enrichBackground upgrades the first batch of a fresh recommendation after
// the response has been sent. It runs on its own context: the request's is
// already done.
func (s *Service) enrichBackground(rec *Recommendation, seed *model.SeedContext) {
	budget := time.Duration(s.cfg.EnrichTimeoutMS) * time.Millisecond * enrichBudgetFactor
	ctx, cancel := context.WithTimeout(context.Background(), budget)
	defer cancel()

	s.enricher.EnrichBatch(ctx, rec.Tracks, seed, &rec.mu)
}

// Package collect assembles the raw candidate pool for a seed track from
// multiple discovery strategies: community-similar tracks, same-artist
// search, and genre search, with escalating fallback rounds when exclusion
// filtering starves the pool.
package collect

import (
	"context"
	"fmt"

	"github.com/echosift/echosift/internal/domain/model"
	"github.com/echosift/echosift/pkg/fanout"
	"github.com/echosift/echosift/pkg/logger"
	"github.com/echosift/echosift/pkg/metrics"
)

// Collection strategy constants.
const (
	similarFetchLimit     = 50
	minCommunityScore     = 0.3 // provisional-score threshold for community matches
	highConfidenceMin     = 20  // apply the threshold only when this many matches clear it
	maxSimilarResolved    = 40
	sameArtistSearchLimit = 50
	sameArtistBaseScore   = 0.6
	sameArtistScoreDecay  = 0.005 // later search results are progressively less relevant
	genreSupplementBelow  = 20    // add genre candidates when the pool is smaller than this
	genreSearchLimit      = 30
	genreQueryCount       = 3
	genreProvisionalScore = 0.3

	defaultResolveWorkers = 8
)

// Catalog is the slice of the catalog provider the collector needs.
type Catalog interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]model.TrackSummary, error)
	GetTrack(ctx context.Context, id string) (*model.TrackSummary, error)
	GetArtistGenres(ctx context.Context, artistID string) ([]string, error)
}

// Community is the slice of the community-similarity provider the collector
// needs.
type Community interface {
	GetSimilarTracks(ctx context.Context, artist, track string, limit int) ([]model.SimilarMatch, error)
	GetTrackTags(ctx context.Context, artist, track string, limit int) ([]string, error)
}

// Option applies a configuration option to the Collector.
type Option func(*Collector)

// WithResolveWorkers bounds concurrent catalog resolutions within one round.
func WithResolveWorkers(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.resolveWorkers = n
		}
	}
}

// WithLogger sets a custom logger for the collector.
func WithLogger(l logger.Logger) Option {
	return func(c *Collector) {
		if l != nil {
			c.logger = l
		}
	}
}

// Collector builds raw candidate pools. It guarantees no ordering; callers
// re-sort after scoring.
type Collector struct {
	catalog        Catalog
	community      Community
	resolveWorkers int
	logger         logger.Logger
}

// New creates a Collector over the given providers.
func New(catalog Catalog, community Community, opts ...Option) *Collector {
	c := &Collector{
		catalog:        catalog,
		community:      community,
		resolveWorkers: defaultResolveWorkers,
		logger:         logger.Named("collect"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// strategy is one discovery source tried in order. skip lets a strategy
// bow out based on what earlier strategies already produced.
type strategy struct {
	name string
	skip func(pool []model.Candidate) bool
	run  func(ctx context.Context, seed *model.SeedContext) []model.Candidate
}

// Collect runs the ordered discovery strategies and returns the raw,
// unscored, pre-dedup pool. Provider failures shrink the pool instead of
// failing the call.
func (c *Collector) Collect(ctx context.Context, seed *model.SeedContext) []model.Candidate {
	strategies := []strategy{
		{name: "community-similar", run: c.communitySimilar},
		{name: "same-artist", run: c.sameArtist},
		{
			name: "genre",
			skip: func(pool []model.Candidate) bool { return len(pool) >= genreSupplementBelow },
			run:  c.byGenre,
		},
	}

	var pool []model.Candidate
	for _, s := range strategies {
		if s.skip != nil && s.skip(pool) {
			continue
		}
		found := s.run(ctx, seed)
		pool = append(pool, found...)
		c.logger.Debug(ctx, "strategy finished",
			logger.String("strategy", s.name),
			logger.Int("found", len(found)),
			logger.Int("pool", len(pool)),
		)
	}
	metrics.RecordCandidatePoolSize(len(pool))
	return pool
}

// communitySimilar fetches the community provider's top matches and resolves
// each back to a canonical catalog record. Low-confidence matches are
// dropped only when enough high-confidence ones exist to fill the pool.
func (c *Collector) communitySimilar(ctx context.Context, seed *model.SeedContext) []model.Candidate {
	matches, err := c.community.GetSimilarTracks(ctx, seed.Track.Artist, seed.Track.Name, similarFetchLimit)
	if err != nil {
		c.logger.Warn(ctx, "community similarity lookup failed", logger.Error(err))
		return nil
	}

	highConfidence := make([]model.SimilarMatch, 0, len(matches))
	for _, m := range matches {
		if m.Score >= minCommunityScore {
			highConfidence = append(highConfidence, m)
		}
	}
	toResolve := matches
	if len(highConfidence) >= highConfidenceMin {
		toResolve = highConfidence
	}
	if len(toResolve) > maxSimilarResolved {
		toResolve = toResolve[:maxSimilarResolved]
	}

	tasks := make([]fanout.Task[*model.Candidate], len(toResolve))
	for i, match := range toResolve {
		match := match
		tasks[i] = fanout.Task[*model.Candidate]{
			Name: match.Track,
			Run: func(ctx context.Context) (*model.Candidate, error) {
				return c.resolve(ctx, match)
			},
		}
	}

	results := fanout.Run(ctx, tasks, fanout.WithWorkers(c.resolveWorkers))
	out := make([]model.Candidate, 0, len(results))
	for _, r := range results {
		// A failed resolution silently drops that candidate.
		if r.OK() && r.Value != nil {
			out = append(out, *r.Value)
		}
	}
	return out
}

// resolve maps a community match onto a catalog record via name+artist
// search.
func (c *Collector) resolve(ctx context.Context, match model.SimilarMatch) (*model.Candidate, error) {
	query := fmt.Sprintf("%s %s", match.Track, match.Artist)
	found, err := c.catalog.SearchTracks(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &model.Candidate{
		Track:          found[0],
		CommunityScore: match.Score,
		ReleaseYear:    model.YearFromDate(found[0].ReleaseDate),
	}, nil
}

// sameArtist adds catalog tracks by the seed's artist with a linearly
// decaying provisional score.
func (c *Collector) sameArtist(ctx context.Context, seed *model.SeedContext) []model.Candidate {
	found, err := c.catalog.SearchTracks(ctx, "artist:"+seed.Track.Artist, sameArtistSearchLimit)
	if err != nil {
		c.logger.Warn(ctx, "same-artist search failed", logger.Error(err))
		return nil
	}

	out := make([]model.Candidate, 0, len(found))
	for _, t := range found {
		if t.ID == seed.Track.ID {
			continue
		}
		out = append(out, model.Candidate{
			Track:          t,
			CommunityScore: sameArtistBaseScore - float64(len(out))*sameArtistScoreDecay,
			ReleaseYear:    model.YearFromDate(t.ReleaseDate),
			IsSameArtist:   true,
		})
	}
	return out
}

// byGenre supplements a thin pool with genre-search candidates at a low
// fixed provisional score.
func (c *Collector) byGenre(ctx context.Context, seed *model.SeedContext) []model.Candidate {
	genres := seed.Genres
	if len(genres) > genreQueryCount {
		genres = genres[:genreQueryCount]
	}

	var out []model.Candidate
	for _, genre := range genres {
		found, err := c.catalog.SearchTracks(ctx, "genre:"+genre, genreSearchLimit)
		if err != nil {
			c.logger.Debug(ctx, "genre search failed", logger.String("genre", genre), logger.Error(err))
			continue
		}
		for _, t := range found {
			if t.ID == seed.Track.ID {
				continue
			}
			out = append(out, model.Candidate{
				Track:          t,
				CommunityScore: genreProvisionalScore,
				ReleaseYear:    model.YearFromDate(t.ReleaseDate),
			})
		}
	}
	return out
}

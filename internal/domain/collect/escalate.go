package collect

import (
	"context"

	"github.com/echosift/echosift/internal/domain/dedupe"
	"github.com/echosift/echosift/internal/domain/model"
	"github.com/echosift/echosift/pkg/logger"
	"github.com/echosift/echosift/pkg/metrics"
)

// Escalation constants. A seed with a very active swipe history can starve
// the pool to zero; escalation guarantees forward progress while catalog
// data exists instead of silently returning nothing.
const (
	escalationMaxRounds   = 5
	escalationTarget      = 10 // stop escalating once this many candidates exist
	escalationSearchLimit = 100
	fallbackBelow         = 5 // run the last-resort round below this

	escalationSameArtistScore    = 0.5
	escalationRejectedScore      = 0.4
	escalationGenreScore         = 0.3
	escalationGenreRejectedScore = 0.25
	escalationGenreCount         = 2
)

// escalationRound is one expanding search attempt with its own exclusion
// relaxation tier.
type escalationRound struct {
	name string
	tier dedupe.Tier
	run  func(ctx context.Context, seed *model.SeedContext, excl model.Exclusions, tracker *dedupe.Tracker, tier dedupe.Tier) []model.Candidate
}

// Escalate runs expanding search rounds against the shared dedup tracker
// until the pool holds enough candidates or the rounds are exhausted. It is
// called only when strict filtering emptied the pool. Rounds run
// sequentially: each depends on what its predecessors admitted.
func (c *Collector) Escalate(ctx context.Context, seed *model.SeedContext, excl model.Exclusions, tracker *dedupe.Tracker) []model.Candidate {
	rounds := []escalationRound{
		{name: "same-artist-strict", tier: dedupe.TierStrict, run: c.escalateSameArtist},
		{name: "same-artist-allow-rejected", tier: dedupe.TierAllowRejectedSameArtist, run: c.escalateSameArtist},
		{name: "genre-allow-rejected", tier: dedupe.TierAllowRejectedAll, run: c.escalateGenres},
		{name: "genre-allow-rejected", tier: dedupe.TierAllowRejectedAll, run: c.escalateGenres},
		{name: "genre-allow-rejected", tier: dedupe.TierAllowRejectedAll, run: c.escalateGenres},
	}
	if len(rounds) > escalationMaxRounds {
		rounds = rounds[:escalationMaxRounds]
	}

	var admitted []model.Candidate
	for i, round := range rounds {
		if tracker.Size() >= escalationTarget {
			break
		}
		metrics.RecordEscalationRound()
		found := round.run(ctx, seed, excl, tracker, round.tier)
		admitted = append(admitted, found...)
		c.logger.Info(ctx, "escalation round finished",
			logger.Int("round", i+1),
			logger.String("strategy", round.name),
			logger.Int("admitted", len(found)),
			logger.Int("pool", tracker.Size()),
		)
	}

	// Last resort: previously-rejected same-artist tracks. Liked tracks stay
	// excluded no matter what.
	if tracker.Size() < fallbackBelow {
		c.logger.Warn(ctx, "escalation under-produced, allowing rejected same-artist tracks",
			logger.Int("pool", tracker.Size()),
		)
		found := c.escalateSameArtist(ctx, seed, excl, tracker, dedupe.TierAllowRejectedSameArtist)
		admitted = append(admitted, found...)
	}

	return admitted
}

func (c *Collector) escalateSameArtist(ctx context.Context, seed *model.SeedContext, excl model.Exclusions, tracker *dedupe.Tracker, tier dedupe.Tier) []model.Candidate {
	found, err := c.catalog.SearchTracks(ctx, "artist:"+seed.Track.Artist, escalationSearchLimit)
	if err != nil {
		c.logger.Warn(ctx, "escalation same-artist search failed", logger.Error(err))
		return nil
	}

	score := escalationSameArtistScore
	if tier != dedupe.TierStrict {
		score = escalationRejectedScore
	}

	var out []model.Candidate
	for _, t := range found {
		cand := model.Candidate{
			Track:          t,
			CommunityScore: score,
			ReleaseYear:    model.YearFromDate(t.ReleaseDate),
			IsSameArtist:   true,
		}
		if tracker.AdmitRelaxed(&cand, excl, tier) {
			out = append(out, cand)
			if tracker.Size() >= escalationTarget {
				break
			}
		}
	}
	return out
}

func (c *Collector) escalateGenres(ctx context.Context, seed *model.SeedContext, excl model.Exclusions, tracker *dedupe.Tracker, tier dedupe.Tier) []model.Candidate {
	genres := seed.Genres
	if len(genres) > escalationGenreCount {
		genres = genres[:escalationGenreCount]
	}

	var out []model.Candidate
	for _, genre := range genres {
		found, err := c.catalog.SearchTracks(ctx, "genre:"+genre, genreSearchLimit)
		if err != nil {
			c.logger.Debug(ctx, "escalation genre search failed", logger.String("genre", genre), logger.Error(err))
			continue
		}
		for _, t := range found {
			score := escalationGenreScore
			if excl.Rejected(t.ID) {
				score = escalationGenreRejectedScore
			}
			cand := model.Candidate{
				Track:          t,
				CommunityScore: score,
				ReleaseYear:    model.YearFromDate(t.ReleaseDate),
			}
			if tracker.AdmitRelaxed(&cand, excl, tier) {
				out = append(out, cand)
				if tracker.Size() >= escalationTarget {
					return out
				}
			}
		}
	}
	return out
}

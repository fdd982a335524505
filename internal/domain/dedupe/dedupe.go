// Package dedupe collapses a raw candidate pool to unique tracks, applies
// the user's swipe-history exclusions, and enforces per-artist diversity
// caps. All state is request-local; nothing here outlives one request.
package dedupe

import (
	"strings"

	"github.com/echosift/echosift/internal/domain/model"
)

// Default diversity caps. The seed artist gets a higher allowance because
// their tracks genuinely are the most similar.
const (
	defaultMaxSameArtist = 8
	defaultMaxPerArtist  = 3
)

// Tier controls how much of the user's rejection history is honored.
// Escalation rounds relax it step by step; liked tracks stay excluded at
// every tier.
type Tier int

const (
	// TierStrict excludes both rejected and liked tracks.
	TierStrict Tier = iota

	// TierAllowRejectedSameArtist re-admits rejected tracks by the seed's
	// artist only.
	TierAllowRejectedSameArtist

	// TierAllowRejectedAll re-admits rejected tracks regardless of artist.
	TierAllowRejectedAll
)

// Tracker carries the seen-sets and artist counts for one request. The
// escalation rounds share it with the initial filter pass so a track is
// never admitted twice.
type Tracker struct {
	seenIDs      map[string]struct{}
	seenKeys     map[string]struct{}
	artistCounts map[string]int

	seedID     string
	seedKey    string
	seedArtist string

	maxSameArtist int
	maxPerArtist  int
}

// Option applies a configuration option to a Tracker.
type Option func(*Tracker)

// WithMaxSameArtist caps how many tracks the seed's own artist contributes.
func WithMaxSameArtist(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.maxSameArtist = n
		}
	}
}

// WithMaxPerArtist caps how many tracks any other single artist contributes.
func WithMaxPerArtist(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.maxPerArtist = n
		}
	}
}

// NewTracker creates a Tracker for one request around the given seed.
func NewTracker(seed model.TrackSummary, opts ...Option) *Tracker {
	t := &Tracker{
		seenIDs:       make(map[string]struct{}),
		seenKeys:      make(map[string]struct{}),
		artistCounts:  make(map[string]int),
		seedID:        seed.ID,
		seedKey:       model.SongKey(seed.Name, seed.Artist),
		seedArtist:    strings.ToLower(seed.Artist),
		maxSameArtist: defaultMaxSameArtist,
		maxPerArtist:  defaultMaxPerArtist,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Admit atomically checks a candidate against the dedup, exclusion, and
// diversity rules and records it if it passes. Returns false when the
// candidate must be dropped. Dropped-over-cap candidates are gone, not
// demoted.
func (t *Tracker) Admit(c *model.Candidate, excl model.Exclusions, tier Tier) bool {
	if !t.passes(c, excl, tier) {
		return false
	}

	artist := strings.ToLower(c.Track.Artist)
	limit := t.maxPerArtist
	if artist == t.seedArtist {
		limit = t.maxSameArtist
	}
	if t.artistCounts[artist] >= limit {
		return false
	}

	t.record(c, artist)
	return true
}

// AdmitRelaxed is Admit without the per-artist caps. Escalation rounds use
// it: once the strict pool has starved, diversity caps would only starve it
// further.
func (t *Tracker) AdmitRelaxed(c *model.Candidate, excl model.Exclusions, tier Tier) bool {
	if !t.passes(c, excl, tier) {
		return false
	}
	t.record(c, strings.ToLower(c.Track.Artist))
	return true
}

func (t *Tracker) passes(c *model.Candidate, excl model.Exclusions, tier Tier) bool {
	id := c.Track.ID
	if id == t.seedID {
		return false
	}
	if _, ok := t.seenIDs[id]; ok {
		return false
	}
	// Liked tracks are excluded at every tier, by id and by song key.
	if excl.Liked(id) {
		return false
	}
	key := c.Key()
	if excl.LikedKey(key) {
		return false
	}
	if excl.Rejected(id) && !rejectionAllowed(c, tier, t.seedArtist) {
		return false
	}
	if key == t.seedKey {
		return false
	}
	if _, ok := t.seenKeys[key]; ok {
		return false
	}
	return true
}

func (t *Tracker) record(c *model.Candidate, artist string) {
	t.seenIDs[c.Track.ID] = struct{}{}
	t.seenKeys[c.Key()] = struct{}{}
	t.artistCounts[artist]++
}

// Size returns how many candidates have been admitted.
func (t *Tracker) Size() int {
	return len(t.seenIDs)
}

// ArtistCount returns how many distinct artists have been admitted.
func (t *Tracker) ArtistCount() int {
	return len(t.artistCounts)
}

func rejectionAllowed(c *model.Candidate, tier Tier, seedArtist string) bool {
	switch tier {
	case TierAllowRejectedAll:
		return true
	case TierAllowRejectedSameArtist:
		return strings.ToLower(c.Track.Artist) == seedArtist
	default:
		return false
	}
}

// Filter applies the full dedup and diversity pipeline to a raw pool.
// Deterministic given identical inputs: candidates are considered in input
// order.
func Filter(raw []model.Candidate, seed model.TrackSummary, excl model.Exclusions, opts ...Option) ([]model.Candidate, *Tracker) {
	tracker := NewTracker(seed, opts...)
	kept := make([]model.Candidate, 0, len(raw))
	for i := range raw {
		if tracker.Admit(&raw[i], excl, TierStrict) {
			kept = append(kept, raw[i])
		}
	}
	return kept, tracker
}

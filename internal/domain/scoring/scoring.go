package scoring

import (
	"github.com/echosift/echosift/internal/domain/feature"
	"github.com/echosift/echosift/internal/domain/model"
)

// Per-dimension importance weights applied after normalization. Energy and
// valence drive perceived similarity the most; key and duration barely
// matter. Multiplicative scalars, deliberately not renormalized.
var featureImportance = map[string]float64{
	model.FeatureEnergy:           1.5,
	model.FeatureValence:          1.5,
	model.FeatureDanceability:     1.3,
	model.FeatureTempo:            1.2,
	model.FeatureAcousticness:     1.0,
	model.FeatureInstrumentalness: 0.9,
	model.FeatureSpeechiness:      0.8,
	model.FeatureLiveness:         0.7,
	model.FeatureLoudness:         1.0,
	model.FeatureKey:              0.6,
	model.FeatureDurationMS:       0.5,
}

// Blend of the three vector similarities inside the feature sub-score.
const (
	cosineWeight    = 0.27
	euclideanWeight = 0.11
	manhattanWeight = 0.07
)

// FullWeights is the scoring policy used once fused audio features are
// available. The five weights sum to exactly 1.0 and are a fixed design
// contract, not tunables.
type FullWeights struct {
	Feature    float64
	Tag        float64
	Community  float64
	Temporal   float64
	Popularity float64
}

// Sum returns the total weight, exposed so tests can pin the contract.
func (w FullWeights) Sum() float64 {
	return w.Feature + w.Tag + w.Community + w.Temporal + w.Popularity
}

// DefaultFullWeights is the production full-path policy.
var DefaultFullWeights = FullWeights{
	Feature:    0.45,
	Tag:        0.20,
	Community:  0.30,
	Temporal:   0.025,
	Popularity: 0.025,
}

// FastWeights is the scoring policy used before audio features exist. It has
// no feature term; the community and tag signals absorb the freed weight.
// Kept as a distinct named policy from FullWeights on purpose: the two
// distributions differ (community 0.40 vs 0.30) and must not be unified.
type FastWeights struct {
	Community   float64
	Tag         float64
	ArtistMatch float64
	Temporal    float64
	Popularity  float64
	ArtistBoost float64 // extra bonus when artist affinity exceeds 0.5
}

// Sum returns the total weight, exposed so tests can pin the contract.
func (w FastWeights) Sum() float64 {
	return w.Community + w.Tag + w.ArtistMatch + w.Temporal + w.Popularity + w.ArtistBoost
}

// DefaultFastWeights is the production fast-path policy.
var DefaultFastWeights = FastWeights{
	Community:   0.40,
	Tag:         0.25,
	ArtistMatch: 0.12,
	Temporal:    0.08,
	Popularity:  0.08,
	ArtistBoost: 0.07,
}

// artistBoostThreshold gates the fast path's flat same-artist bonus.
const artistBoostThreshold = 0.5

// Weighted normalizes a raw record and applies the importance weights,
// returning the vector the three similarity measures operate on.
func Weighted(features model.AudioFeatures) []float64 {
	vec := feature.NormalizeAudio(features)
	out := make([]float64, model.NumFeatures)
	for i, name := range model.FeatureNames {
		out[i] = vec[i] * featureImportance[name]
	}
	return out
}

// FeatureSimilarity blends cosine, inverse-Euclidean, and inverse-Manhattan
// similarity of the weighted vectors into the 0.45-weight feature sub-score.
func FeatureSimilarity(candidate, seed model.AudioFeatures) float64 {
	a := Weighted(candidate)
	b := Weighted(seed)
	return cosineWeight*Cosine(a, b) +
		euclideanWeight*EuclideanSim(a, b) +
		manhattanWeight*ManhattanSim(a, b)
}

// Full computes the full-path similarity score in [0,1]. Missing inputs
// degrade to neutral sub-scores; the function never fails.
func Full(candidate *model.Candidate, seed *model.SeedContext, candidateFeatures, seedFeatures model.AudioFeatures, w FullWeights) float64 {
	featureScore := FeatureSimilarity(candidateFeatures, seedFeatures)
	tagScore := Jaccard(candidate.Tags(), seed.AllTags())
	temporal := TemporalSim(seed.Year, candidate.ReleaseYear)
	popularity := PopularityAdjustment(candidate.Track.Popularity)

	return w.Feature*featureScore +
		w.Tag*tagScore +
		w.Community*candidate.CommunityScore +
		w.Temporal*temporal +
		w.Popularity*popularity
}

// Fast computes the fast-path score without touching audio features. This is
// the latency-hiding half of the engine: everything here comes from metadata
// already in hand.
func Fast(candidate *model.Candidate, seed *model.SeedContext, w FastWeights) float64 {
	tagScore := Jaccard(candidate.Tags(), seed.AllTags())
	affinity := ArtistAffinity(candidate.Track.Artist, seed.Track.Artist, candidate.Genres, seed.Genres)
	temporal := TemporalSim(seed.Year, candidate.ReleaseYear)
	popularity := PopularityAdjustment(candidate.Track.Popularity)

	score := w.Community*candidate.CommunityScore +
		w.Tag*tagScore +
		w.ArtistMatch*affinity +
		w.Temporal*temporal +
		w.Popularity*popularity
	if affinity > artistBoostThreshold {
		score += w.ArtistBoost
	}
	return score
}

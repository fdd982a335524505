// Package scoring computes similarity between a seed track and a candidate
// from vector, tag-set, and community-trust signals. It exposes two scoring
// policies: the full formula used once fused audio features exist, and the
// fast formula used before they do.
package scoring

import (
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Cosine returns the cosine similarity of two vectors, clamped to [0,1].
// A zero-length vector yields 0.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0
	}
	return clamp01(floats.Dot(a, b) / (normA * normB))
}

// EuclideanSim converts L2 distance to a similarity in (0,1].
func EuclideanSim(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	return 1 / (1 + floats.Distance(a, b, 2))
}

// ManhattanSim converts L1 distance to a similarity in (0,1].
func ManhattanSim(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	return 1 / (1 + floats.Distance(a, b, 1))
}

// Jaccard returns the case-insensitive Jaccard similarity of two tag lists.
// Either side being empty yields 0; identical non-empty sets yield 1.
func Jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := lowerSet(a)
	setB := lowerSet(b)

	intersection := 0
	for tag := range setA {
		if _, ok := setB[tag]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Temporal-similarity horizon: tracks 50+ years apart score 0.
const temporalHorizonYears = 50.0

// TemporalSim scores how close two release years are.
func TemporalSim(yearA, yearB int) float64 {
	diff := yearA - yearB
	if diff < 0 {
		diff = -diff
	}
	sim := 1 - float64(diff)/temporalHorizonYears
	if sim < 0 {
		return 0
	}
	return sim
}

// Popularity sweet-spot curve: moderately popular tracks make the best
// recommendations, chart-toppers are too obvious, unknowns too risky.
const (
	popularitySweetLow  = 40
	popularitySweetHigh = 70
	popularityObvious   = 90
	popularityObscure   = 10
)

// PopularityAdjustment maps 0-100 popularity onto a fixed non-linear bonus.
func PopularityAdjustment(popularity int) float64 {
	switch {
	case popularity >= popularitySweetLow && popularity <= popularitySweetHigh:
		return 1.0
	case popularity > popularityObvious:
		return 0.7
	case popularity < popularityObscure:
		return 0.8
	default:
		return 0.9
	}
}

// Artist-affinity levels for the fast path.
const (
	artistExactMatch   = 1.0
	artistPartialMatch = 0.6
	artistGenreMatch   = 0.2
	topGenreCount      = 3
)

// ArtistAffinity scores how related a candidate's artist is to the seed's:
// exact name match, substring containment either direction, or sharing one
// of the seed's top genres.
func ArtistAffinity(candidateArtist, seedArtist string, candidateGenres, seedGenres []string) float64 {
	cand := strings.ToLower(candidateArtist)
	seed := strings.ToLower(seedArtist)

	switch {
	case cand == seed:
		return artistExactMatch
	case strings.Contains(cand, seed) || strings.Contains(seed, cand):
		return artistPartialMatch
	}

	top := seedGenres
	if len(top) > topGenreCount {
		top = top[:topGenreCount]
	}
	candSet := lowerSet(candidateGenres)
	for _, genre := range top {
		if _, ok := candSet[strings.ToLower(genre)]; ok {
			return artistGenreMatch
		}
	}
	return 0
}

func lowerSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		set[strings.ToLower(tag)] = struct{}{}
	}
	return set
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Package rank produces the final caller-facing order: same-artist and
// discovery tracks interleaved under hard diversity constraints. When score
// ranking and the diversity floor conflict, diversity wins.
package rank

import (
	"sort"
	"strings"

	"github.com/echosift/echosift/internal/domain/model"
)

// Diversity constants.
const (
	noInterleaveBelow  = 5 // too few tracks to meaningfully diversify
	discoveryRunLength = 3 // up to this many discovery tracks per same-artist track
	maxConsecutiveSame = 2 // hard rule, never violated while discovery tracks exist
	repairMaxPasses    = 5
	minOtherFloor      = 3 // absolute minimum other-artist tracks in the balance pass
)

// Arrange reorders the scored pool for presentation. The returned slice is
// newly allocated; the input is not modified.
func Arrange(scored []model.ScoredCandidate, seedArtist string, limit int) []model.ScoredCandidate {
	if limit <= 0 || len(scored) == 0 {
		return nil
	}

	pool := make([]model.ScoredCandidate, len(scored))
	copy(pool, scored)
	sortByScore(pool)

	// Too few to diversify: plain score order.
	if len(pool) <= noInterleaveBelow {
		return truncate(pool, limit)
	}

	same, other := partition(pool, seedArtist)
	result := interleave(same, other, limit)
	result = repairRuns(result, other, seedArtist)
	result = balance(result, same, other, seedArtist, limit)
	result = truncate(result, limit)

	// No empty result while candidates exist.
	if len(result) == 0 {
		return truncate(pool, limit)
	}
	return result
}

// isSameArtist matches the way the scorer treats artist identity: the seed
// artist appearing anywhere in the candidate's artist field counts.
func isSameArtist(artist, seedArtist string) bool {
	return strings.Contains(strings.ToLower(artist), strings.ToLower(seedArtist))
}

func partition(pool []model.ScoredCandidate, seedArtist string) (same, other []model.ScoredCandidate) {
	for _, sc := range pool {
		if isSameArtist(sc.Track.Artist, seedArtist) {
			same = append(same, sc)
		} else {
			other = append(other, sc)
		}
	}
	return same, other
}

// interleave lays out "1 same-artist, up to 3 discovery" while enforcing the
// consecutive-same-artist cap. A same-artist track that would violate the
// cap is deferred, not discarded.
func interleave(same, other []model.ScoredCandidate, limit int) []model.ScoredCandidate {
	out := make([]model.ScoredCandidate, 0, len(same)+len(other))
	sameIdx, otherIdx, consecutive := 0, 0, 0

	for (sameIdx < len(same) || otherIdx < len(other)) && len(out) < limit*2 {
		if consecutive >= maxConsecutiveSame {
			if otherIdx >= len(other) {
				// Only same-artist tracks remain; stop rather than violate
				// the hard rule. The balance pass may still use the rest.
				break
			}
			out = append(out, other[otherIdx])
			otherIdx++
			consecutive = 0
			continue
		}

		if sameIdx < len(same) {
			out = append(out, same[sameIdx])
			sameIdx++
			consecutive++
		}

		for i := 0; i < discoveryRunLength && otherIdx < len(other); i++ {
			out = append(out, other[otherIdx])
			otherIdx++
			consecutive = 0
		}

		if sameIdx >= len(same) && otherIdx >= len(other) {
			break
		}
	}
	return out
}

// repairRuns scans for windows of three consecutive same-artist tracks and
// inserts an unused discovery track to break each run up.
func repairRuns(result, other []model.ScoredCandidate, seedArtist string) []model.ScoredCandidate {
	for pass := 0; pass < repairMaxPasses; pass++ {
		i := findRun(result, seedArtist)
		if i < 0 {
			return result
		}
		spare, ok := firstUnused(other, result)
		if !ok {
			return result
		}
		result = append(result, model.ScoredCandidate{})
		copy(result[i+maxConsecutiveSame+1:], result[i+maxConsecutiveSame:])
		result[i+maxConsecutiveSame] = spare
	}
	return result
}

// findRun returns the start index of the first window of 3 consecutive
// same-artist entries, or -1.
func findRun(result []model.ScoredCandidate, seedArtist string) int {
	run := 0
	for i := range result {
		if isSameArtist(result[i].Track.Artist, seedArtist) {
			run++
			if run > maxConsecutiveSame {
				return i - maxConsecutiveSame
			}
		} else {
			run = 0
		}
	}
	return -1
}

// balance guarantees the diversity floor: at least max(3, half the result)
// discovery tracks. Short of the floor, the lowest-scoring same-artist
// entries are swapped out for unused discovery tracks and the result is
// re-sorted by score.
func balance(result, same, other []model.ScoredCandidate, seedArtist string, limit int) []model.ScoredCandidate {
	if len(result) == 0 || len(other) == 0 {
		return result
	}

	otherCount := 0
	for _, sc := range result {
		if !isSameArtist(sc.Track.Artist, seedArtist) {
			otherCount++
		}
	}

	minOther := len(result) / 2
	if minOther < minOtherFloor {
		minOther = minOtherFloor
	}
	if otherCount >= minOther {
		return result
	}

	spare := unused(other, result)
	sameInResult := len(result) - otherCount
	replace := minOther - otherCount
	if replace > len(spare) {
		replace = len(spare)
	}
	if replace > sameInResult {
		replace = sameInResult
	}
	if replace == 0 {
		return result
	}

	// Same-artist entries in result are already ordered by descending
	// score, so trimming from the tail drops the weakest ones.
	kept := make([]model.ScoredCandidate, 0, len(result)+replace)
	toDrop := replace
	for i := len(result) - 1; i >= 0; i-- {
		if toDrop > 0 && isSameArtist(result[i].Track.Artist, seedArtist) {
			toDrop--
			continue
		}
		kept = append(kept, result[i])
	}
	reverse(kept)
	kept = append(kept, spare[:replace]...)

	sortByScore(kept)
	kept = truncate(kept, limit)
	// Re-sorting can reintroduce same-artist runs; fix them by swapping,
	// which preserves membership and therefore the floor.
	return swapRuns(kept, seedArtist)
}

// swapRuns breaks residual same-artist runs by swapping the third entry of a
// run with the next discovery entry further down the list.
func swapRuns(result []model.ScoredCandidate, seedArtist string) []model.ScoredCandidate {
	for pass := 0; pass < repairMaxPasses; pass++ {
		i := findRun(result, seedArtist)
		if i < 0 {
			return result
		}
		swapped := false
		for j := i + maxConsecutiveSame + 1; j < len(result); j++ {
			if !isSameArtist(result[j].Track.Artist, seedArtist) {
				result[i+maxConsecutiveSame], result[j] = result[j], result[i+maxConsecutiveSame]
				swapped = true
				break
			}
		}
		if !swapped {
			return result
		}
	}
	return result
}

func firstUnused(pool, result []model.ScoredCandidate) (model.ScoredCandidate, bool) {
	spare := unused(pool, result)
	if len(spare) == 0 {
		return model.ScoredCandidate{}, false
	}
	return spare[0], true
}

func unused(pool, result []model.ScoredCandidate) []model.ScoredCandidate {
	used := make(map[string]struct{}, len(result))
	for _, sc := range result {
		used[sc.Track.ID] = struct{}{}
	}
	var out []model.ScoredCandidate
	for _, sc := range pool {
		if _, ok := used[sc.Track.ID]; !ok {
			out = append(out, sc)
		}
	}
	return out
}

func sortByScore(pool []model.ScoredCandidate) {
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].SimilarityScore > pool[j].SimilarityScore
	})
}

func truncate(pool []model.ScoredCandidate, limit int) []model.ScoredCandidate {
	if len(pool) > limit {
		return pool[:limit]
	}
	return pool
}

func reverse(pool []model.ScoredCandidate) {
	for i, j := 0, len(pool)-1; i < j; i, j = i+1, j-1 {
		pool[i], pool[j] = pool[j], pool[i]
	}
}

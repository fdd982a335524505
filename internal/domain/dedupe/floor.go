package dedupe

import "github.com/echosift/echosift/internal/domain/model"

// Fast-path score floor and its relaxation ladder. The floor keeps junk
// matches out of the initial response; when it would starve the result it
// is progressively lowered so the user still sees something.
const (
	scoreFloor        = 0.35
	scoreFloorRelaxed = 0.30
	scoreFloorMinimum = 0.25

	floorTargetCount  = 5 // relax once below this
	floorMinimumCount = 3 // relax again below this
)

// ApplyScoreFloor drops fast-scored candidates below the minimum-score
// floor, relaxing the floor to 0.30 and then 0.25 when too few survive.
func ApplyScoreFloor(scored []model.ScoredCandidate) []model.ScoredCandidate {
	kept := atOrAbove(scored, scoreFloor)
	if len(kept) >= floorTargetCount || len(scored) == 0 {
		return kept
	}

	kept = atOrAbove(scored, scoreFloorRelaxed)
	if len(kept) >= floorMinimumCount {
		return kept
	}

	return atOrAbove(scored, scoreFloorMinimum)
}

func atOrAbove(scored []model.ScoredCandidate, floor float64) []model.ScoredCandidate {
	kept := make([]model.ScoredCandidate, 0, len(scored))
	for _, sc := range scored {
		if sc.SimilarityScore >= floor {
			kept = append(kept, sc)
		}
	}
	return kept
}

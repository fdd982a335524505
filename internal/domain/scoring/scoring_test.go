package scoring

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/echosift/echosift/internal/domain/feature"
	"github.com/echosift/echosift/internal/domain/model"
)

func TestWeightContracts(t *testing.T) {
	Convey("Given the two scoring policies", t, func() {
		Convey("Then the full weights should sum to exactly 1", func() {
			So(DefaultFullWeights.Sum(), ShouldAlmostEqual, 1.0, tolerance)
		})

		Convey("Then the fast weights should sum to exactly 1", func() {
			So(DefaultFastWeights.Sum(), ShouldAlmostEqual, 1.0, tolerance)
		})
	})
}

func TestFeatureSimilarity(t *testing.T) {
	Convey("Given candidate and seed feature records", t, func() {
		Convey("When the records are identical", func() {
			f := feature.Defaults()
			score := FeatureSimilarity(f, f)

			Convey("Then the score should be the blend of three perfect similarities", func() {
				So(score, ShouldAlmostEqual, 0.27+0.11+0.07, tolerance)
			})
		})

		Convey("When the records diverge", func() {
			seed := feature.Defaults()
			near := feature.Defaults()
			near[model.FeatureEnergy] = 0.55
			far := feature.Defaults()
			far[model.FeatureEnergy] = 0.05
			far[model.FeatureValence] = 0.95
			far[model.FeatureTempo] = 200.0

			Convey("Then closer records should score higher", func() {
				So(FeatureSimilarity(near, seed), ShouldBeGreaterThan, FeatureSimilarity(far, seed))
			})
		})
	})
}

func TestFast(t *testing.T) {
	Convey("Given a seed context", t, func() {
		seed := &model.SeedContext{
			Track:  model.TrackSummary{ID: "s1", Name: "Karma Police", Artist: "Radiohead"},
			Genres: []string{"alt rock"},
			Tags:   []string{"90s", "melancholic"},
			Year:   1997,
		}

		Convey("When a candidate shares tags and community trust", func() {
			strong := &model.Candidate{
				Track:          model.TrackSummary{ID: "c1", Name: "No Surprises", Artist: "Radiohead", Popularity: 55},
				CommunityScore: 0.9,
				CommunityTags:  []string{"90s", "melancholic", "alt rock"},
				ReleaseYear:    1997,
			}
			weak := &model.Candidate{
				Track:          model.TrackSummary{ID: "c2", Name: "Party Anthem", Artist: "DJ Nobody", Popularity: 95},
				CommunityScore: 0.1,
				CommunityTags:  []string{"edm"},
				ReleaseYear:    2024,
			}

			Convey("Then it should outscore an unrelated candidate", func() {
				So(Fast(strong, seed, DefaultFastWeights), ShouldBeGreaterThan, Fast(weak, seed, DefaultFastWeights))
			})

			Convey("Then the score should stay within [0,1]", func() {
				So(Fast(strong, seed, DefaultFastWeights), ShouldBeBetweenOrEqual, 0.0, 1.0)
				So(Fast(weak, seed, DefaultFastWeights), ShouldBeBetweenOrEqual, 0.0, 1.0)
			})
		})

		Convey("When a candidate crosses the artist-affinity threshold", func() {
			base := &model.Candidate{
				Track:          model.TrackSummary{ID: "c3", Name: "Creep", Artist: "Other Band", Popularity: 50},
				CommunityScore: 0.5,
				ReleaseYear:    1997,
			}
			sameArtist := &model.Candidate{
				Track:          model.TrackSummary{ID: "c4", Name: "Creep", Artist: "Radiohead", Popularity: 50},
				CommunityScore: 0.5,
				ReleaseYear:    1997,
			}

			Convey("Then the boost should widen the gap beyond the match weight alone", func() {
				gap := Fast(sameArtist, seed, DefaultFastWeights) - Fast(base, seed, DefaultFastWeights)
				So(gap, ShouldAlmostEqual, DefaultFastWeights.ArtistMatch*1.0+DefaultFastWeights.ArtistBoost, tolerance)
			})
		})
	})
}

func TestFull(t *testing.T) {
	Convey("Given a seed context with fused features", t, func() {
		seed := &model.SeedContext{
			Track:  model.TrackSummary{ID: "s1", Name: "Karma Police", Artist: "Radiohead"},
			Genres: []string{"alt rock"},
			Tags:   []string{"90s"},
			Year:   1997,
		}
		seedFeatures := feature.Defaults()

		Convey("When candidates differ only in feature distance", func() {
			near := &model.Candidate{
				Track:          model.TrackSummary{ID: "c1", Popularity: 50},
				CommunityScore: 0.5,
				CommunityTags:  []string{"90s"},
				ReleaseYear:    1997,
			}
			far := &model.Candidate{
				Track:          model.TrackSummary{ID: "c2", Popularity: 50},
				CommunityScore: 0.5,
				CommunityTags:  []string{"90s"},
				ReleaseYear:    1997,
			}
			nearFeatures := feature.Defaults()
			farFeatures := feature.Defaults()
			farFeatures[model.FeatureEnergy] = 0.0
			farFeatures[model.FeatureValence] = 1.0
			farFeatures[model.FeatureTempo] = 190.0

			Convey("Then the closer candidate should win", func() {
				nearScore := Full(near, seed, nearFeatures, seedFeatures, DefaultFullWeights)
				farScore := Full(far, seed, farFeatures, seedFeatures, DefaultFullWeights)
				So(nearScore, ShouldBeGreaterThan, farScore)
			})
		})

		Convey("When all sub-scores are at their ceiling", func() {
			c := &model.Candidate{
				Track:          model.TrackSummary{ID: "c3", Popularity: 55},
				CommunityScore: 1.0,
				CommunityTags:  []string{"alt rock", "90s"},
				ReleaseYear:    1997,
			}

			score := Full(c, seed, feature.Defaults(), seedFeatures, DefaultFullWeights)

			Convey("Then the score should stay in [0,1]", func() {
				So(score, ShouldBeBetweenOrEqual, 0.0, 1.0)
			})
		})
	})
}

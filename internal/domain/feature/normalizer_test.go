package feature

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/echosift/echosift/internal/domain/model"
)

const tolerance = 1e-9

func featureIndex(name string) int {
	for i, n := range model.FeatureNames {
		if n == name {
			return i
		}
	}
	return -1
}

func TestNormalize(t *testing.T) {
	Convey("Given raw provider feature records", t, func() {
		Convey("When bounded fields are out of range", func() {
			vec := Normalize(map[string]any{
				model.FeatureEnergy:  1.7,
				model.FeatureValence: -0.3,
			})

			Convey("Then they should be clamped to [0,1]", func() {
				So(vec[featureIndex(model.FeatureEnergy)], ShouldEqual, 1.0)
				So(vec[featureIndex(model.FeatureValence)], ShouldEqual, 0.0)
			})
		})

		Convey("When dimension-specific fields are present", func() {
			vec := Normalize(map[string]any{
				model.FeatureLoudness:   -10.0,
				model.FeatureTempo:      120.0,
				model.FeatureKey:        11.0,
				model.FeatureDurationMS: 315_000.0,
			})

			Convey("Then each should be remapped onto its raw range", func() {
				So(vec[featureIndex(model.FeatureLoudness)], ShouldAlmostEqual, 50.0/60.0, tolerance)
				So(vec[featureIndex(model.FeatureTempo)], ShouldAlmostEqual, 0.5, tolerance)
				So(vec[featureIndex(model.FeatureKey)], ShouldEqual, 1.0)
				So(vec[featureIndex(model.FeatureDurationMS)], ShouldAlmostEqual, 0.5, tolerance)
			})
		})

		Convey("When numeric fields arrive as strings", func() {
			vec := Normalize(map[string]any{
				model.FeatureEnergy: "0.8",
				model.FeatureTempo:  "200",
			})

			Convey("Then they should be parsed like numbers", func() {
				So(vec[featureIndex(model.FeatureEnergy)], ShouldAlmostEqual, 0.8, tolerance)
				So(vec[featureIndex(model.FeatureTempo)], ShouldAlmostEqual, 1.0, tolerance)
			})
		})

		Convey("When the record is empty or malformed", func() {
			vec := Normalize(map[string]any{
				model.FeatureEnergy:   "not a number",
				model.FeatureLoudness: []string{"garbage"},
			})

			Convey("Then per-field defaults should apply", func() {
				So(vec[featureIndex(model.FeatureEnergy)], ShouldEqual, 0.5)
				So(vec[featureIndex(model.FeatureLoudness)], ShouldAlmostEqual, 0.5, tolerance)
				So(vec[featureIndex(model.FeatureTempo)], ShouldAlmostEqual, 0.5, tolerance)
				So(vec[featureIndex(model.FeatureKey)], ShouldEqual, 0.0)
			})
		})

		Convey("When any record is normalized", func() {
			vec := Normalize(map[string]any{
				model.FeatureTempo:      9999.0,
				model.FeatureLoudness:   40.0,
				model.FeatureDurationMS: -1.0,
			})

			Convey("Then every dimension should land in [0,1]", func() {
				for _, v := range vec {
					So(v, ShouldBeBetweenOrEqual, 0.0, 1.0)
				}
			})
		})
	})
}

func TestNormalizeAudio(t *testing.T) {
	Convey("Given an already-numeric fused record", t, func() {
		vec := NormalizeAudio(model.AudioFeatures{
			model.FeatureEnergy: 0.9,
			model.FeatureTempo:  80.0,
		})

		Convey("Then it should normalize like a raw record", func() {
			So(vec[featureIndex(model.FeatureEnergy)], ShouldAlmostEqual, 0.9, tolerance)
			So(vec[featureIndex(model.FeatureTempo)], ShouldAlmostEqual, 0.25, tolerance)
		})
	})
}

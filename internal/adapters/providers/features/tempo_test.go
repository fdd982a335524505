package features

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/echosift/echosift/internal/domain/model"
)

type fakeTempoSource struct {
	bpm        float64
	durationMS float64
	err        error
}

func (f *fakeTempoSource) TrackTempo(context.Context, string, string) (float64, float64, error) {
	return f.bpm, f.durationMS, f.err
}

func TestTempoEstimator(t *testing.T) {
	Convey("Given a tempo estimator over a fake catalog", t, func() {
		ctx := context.Background()

		Convey("Then it should identify itself with its fixed trust", func() {
			e := NewTempoEstimator(&fakeTempoSource{})
			So(e.Name(), ShouldEqual, "tempo-estimate")
			So(e.Trust(), ShouldEqual, 0.6)
		})

		Convey("When the catalog knows the tempo", func() {
			e := NewTempoEstimator(&fakeTempoSource{bpm: 130, durationMS: 224_000})
			features, err := e.Features(ctx, "Around the World", "Daft Punk")

			Convey("Then energy should derive from BPM", func() {
				So(err, ShouldBeNil)
				So(features[model.FeatureTempo], ShouldEqual, 130.0)
				So(features[model.FeatureEnergy], ShouldEqual, 0.5)
			})

			Convey("Then danceability should scale from energy", func() {
				So(features[model.FeatureDanceability], ShouldEqual, 0.6)
			})

			Convey("Then the known duration should be included", func() {
				So(features[model.FeatureDurationMS], ShouldEqual, 224_000.0)
			})

			Convey("Then the unknowable fields should get neutral values", func() {
				So(features[model.FeatureLoudness], ShouldEqual, -8.0)
				So(features[model.FeatureValence], ShouldEqual, 0.5)
				So(features[model.FeatureInstrumentalness], ShouldEqual, 0.3)
			})
		})

		Convey("When the BPM is extreme", func() {
			slow := NewTempoEstimator(&fakeTempoSource{bpm: 50})
			fast := NewTempoEstimator(&fakeTempoSource{bpm: 210})

			slowFeatures, err := slow.Features(ctx, "x", "y")
			So(err, ShouldBeNil)
			fastFeatures, err := fast.Features(ctx, "x", "y")
			So(err, ShouldBeNil)

			Convey("Then derived values should clamp to [0,1]", func() {
				So(slowFeatures[model.FeatureEnergy], ShouldEqual, 0.0)
				So(fastFeatures[model.FeatureEnergy], ShouldEqual, 1.0)
				So(fastFeatures[model.FeatureDanceability], ShouldEqual, 1.0)
			})
		})

		Convey("When the duration is unknown", func() {
			e := NewTempoEstimator(&fakeTempoSource{bpm: 120})
			features, err := e.Features(ctx, "x", "y")
			So(err, ShouldBeNil)

			Convey("Then the duration field should be omitted for fusion to fill", func() {
				_, ok := features[model.FeatureDurationMS]
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the catalog has no tempo", func() {
			e := NewTempoEstimator(&fakeTempoSource{bpm: 0})
			_, err := e.Features(ctx, "x", "y")

			Convey("Then the provider should bow out with an error", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When the catalog lookup fails", func() {
			e := NewTempoEstimator(&fakeTempoSource{err: errors.New("down")})
			_, err := e.Features(ctx, "x", "y")

			So(err, ShouldNotBeNil)
		})
	})
}

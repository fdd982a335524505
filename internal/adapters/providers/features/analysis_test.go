package features

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/echosift/echosift/internal/domain/model"
	"github.com/echosift/echosift/pkg/logger"
)

func init() {
	logger.Init()
}

func TestAnalysisProvider(t *testing.T) {
	Convey("Given a recording lookup and an analysis database", t, func() {
		ctx := context.Background()

		var lookupPath, lookupFmt, lookupQuery string
		lookup := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lookupPath = r.URL.Path
			lookupFmt = r.URL.Query().Get("fmt")
			lookupQuery = r.URL.Query().Get("query")
			_, _ = w.Write([]byte(`{"recordings": [{"id": "rec-abc"}]}`))
		}))
		defer lookup.Close()

		Convey("When the analysis record is complete", func() {
			var analysisPath string
			analysis := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				analysisPath = r.URL.Path
				_, _ = w.Write([]byte(`{
					"rhythm": {"bpm": 148.5, "danceability": 1.3, "beats_loudness": {"mean": 0.42}},
					"tonal": {"key_key": "F#"},
					"lowlevel": {"average_loudness": 0.81}
				}`))
			}))
			defer analysis.Close()

			provider := NewAnalysisProvider(analysis.URL, lookup.URL)
			features, err := provider.Features(ctx, "Karma Police", "Radiohead")

			Convey("Then the lookup and analysis endpoints should be addressed correctly", func() {
				So(lookupPath, ShouldEqual, "/recording")
				So(lookupFmt, ShouldEqual, "json")
				So(lookupQuery, ShouldContainSubstring, `recording:"Karma Police"`)
				So(analysisPath, ShouldEqual, "/rec-abc/low-level")
			})

			Convey("Then the measured fields should map onto canonical names", func() {
				So(err, ShouldBeNil)
				So(features[model.FeatureTempo], ShouldEqual, 148.5)
				So(features[model.FeatureLoudness], ShouldEqual, 0.81)
				So(features[model.FeatureEnergy], ShouldEqual, 0.42)
			})

			Convey("Then the key name should map onto the pitch-class scale", func() {
				So(features[model.FeatureKey], ShouldEqual, 6.0)
			})

			Convey("Then danceability should cap at 1", func() {
				So(features[model.FeatureDanceability], ShouldEqual, 1.0)
			})
		})

		Convey("When the analysis record is sparse", func() {
			analysis := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"rhythm": {"bpm": 120}}`))
			}))
			defer analysis.Close()

			provider := NewAnalysisProvider(analysis.URL, lookup.URL)
			features, err := provider.Features(ctx, "Karma Police", "Radiohead")

			Convey("Then unmeasured fields should be left for fusion to fill", func() {
				So(err, ShouldBeNil)
				So(features[model.FeatureTempo], ShouldEqual, 120.0)
				_, hasKey := features[model.FeatureKey]
				So(hasKey, ShouldBeFalse)
				_, hasDance := features[model.FeatureDanceability]
				So(hasDance, ShouldBeFalse)
			})
		})

		Convey("When no recording matches", func() {
			emptyLookup := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"recordings": []}`))
			}))
			defer emptyLookup.Close()

			provider := NewAnalysisProvider("http://unused.invalid", emptyLookup.URL)
			_, err := provider.Features(ctx, "Unknown", "Nobody")

			Convey("Then the provider should bow out with an error", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("Then the provider should identify itself with its fixed trust", func() {
			provider := NewAnalysisProvider("http://a.invalid", "http://l.invalid")
			So(provider.Name(), ShouldEqual, "audio-analysis")
			So(provider.Trust(), ShouldEqual, 0.8)
		})
	})
}

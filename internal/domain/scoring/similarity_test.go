package scoring

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const tolerance = 1e-9

func TestCosine(t *testing.T) {
	Convey("Given pairs of vectors", t, func() {
		Convey("Then identical vectors should score 1", func() {
			v := []float64{0.5, 0.3, 0.9}
			So(Cosine(v, v), ShouldAlmostEqual, 1.0, tolerance)
		})

		Convey("Then orthogonal vectors should score 0", func() {
			So(Cosine([]float64{1, 0}, []float64{0, 1}), ShouldEqual, 0.0)
		})

		Convey("Then zero or mismatched vectors should score 0", func() {
			So(Cosine(nil, nil), ShouldEqual, 0.0)
			So(Cosine([]float64{1}, []float64{1, 2}), ShouldEqual, 0.0)
			So(Cosine([]float64{0, 0}, []float64{1, 1}), ShouldEqual, 0.0)
		})
	})
}

func TestDistanceSimilarities(t *testing.T) {
	Convey("Given pairs of vectors", t, func() {
		Convey("Then identical vectors should score 1 on both measures", func() {
			v := []float64{0.2, 0.8}
			So(EuclideanSim(v, v), ShouldEqual, 1.0)
			So(ManhattanSim(v, v), ShouldEqual, 1.0)
		})

		Convey("Then distance should decay the similarity", func() {
			a := []float64{0, 0}
			b := []float64{3, 4}
			So(EuclideanSim(a, b), ShouldAlmostEqual, 1.0/6.0, tolerance)
			So(ManhattanSim(a, b), ShouldAlmostEqual, 1.0/8.0, tolerance)
		})
	})
}

func TestJaccard(t *testing.T) {
	Convey("Given pairs of tag lists", t, func() {
		Convey("Then identical sets should score 1 regardless of case", func() {
			So(Jaccard([]string{"Rock", "indie"}, []string{"rock", "Indie"}), ShouldEqual, 1.0)
		})

		Convey("Then partial overlap should score the intersection over union", func() {
			So(Jaccard([]string{"rock", "indie"}, []string{"rock", "pop"}), ShouldAlmostEqual, 1.0/3.0, tolerance)
		})

		Convey("Then an empty side should score 0", func() {
			So(Jaccard(nil, []string{"rock"}), ShouldEqual, 0.0)
			So(Jaccard([]string{"rock"}, nil), ShouldEqual, 0.0)
		})
	})
}

func TestTemporalSim(t *testing.T) {
	Convey("Given release year pairs", t, func() {
		Convey("Then the same year should score 1", func() {
			So(TemporalSim(1997, 1997), ShouldEqual, 1.0)
		})

		Convey("Then similarity should fade linearly over fifty years", func() {
			So(TemporalSim(2020, 2010), ShouldAlmostEqual, 0.8, tolerance)
			So(TemporalSim(2010, 2020), ShouldAlmostEqual, 0.8, tolerance)
			So(TemporalSim(2020, 1995), ShouldAlmostEqual, 0.5, tolerance)
		})

		Convey("Then gaps past the horizon should floor at 0", func() {
			So(TemporalSim(2020, 1950), ShouldEqual, 0.0)
		})
	})
}

func TestPopularityAdjustment(t *testing.T) {
	Convey("Given the popularity sweet-spot curve", t, func() {
		Convey("Then the sweet spot should score 1", func() {
			So(PopularityAdjustment(40), ShouldEqual, 1.0)
			So(PopularityAdjustment(55), ShouldEqual, 1.0)
			So(PopularityAdjustment(70), ShouldEqual, 1.0)
		})

		Convey("Then chart-toppers should be penalized most", func() {
			So(PopularityAdjustment(95), ShouldEqual, 0.7)
		})

		Convey("Then obscure tracks should take a smaller penalty", func() {
			So(PopularityAdjustment(5), ShouldEqual, 0.8)
		})

		Convey("Then everything else should score 0.9", func() {
			So(PopularityAdjustment(25), ShouldEqual, 0.9)
			So(PopularityAdjustment(80), ShouldEqual, 0.9)
		})
	})
}

func TestArtistAffinity(t *testing.T) {
	Convey("Given candidate and seed artists", t, func() {
		Convey("Then exact name matches should score 1", func() {
			So(ArtistAffinity("Radiohead", "radiohead", nil, nil), ShouldEqual, 1.0)
		})

		Convey("Then substring containment should score 0.6", func() {
			So(ArtistAffinity("Thom Yorke & Friends", "Thom Yorke", nil, nil), ShouldEqual, 0.6)
			So(ArtistAffinity("Yorke", "Thom Yorke", nil, nil), ShouldEqual, 0.6)
		})

		Convey("Then sharing a top-3 seed genre should score 0.2", func() {
			So(ArtistAffinity("Muse", "Radiohead",
				[]string{"alt rock"},
				[]string{"art rock", "alt rock", "electronic", "jazz"},
			), ShouldEqual, 0.2)
		})

		Convey("Then a genre outside the seed's top 3 should not count", func() {
			So(ArtistAffinity("Muse", "Radiohead",
				[]string{"jazz"},
				[]string{"art rock", "alt rock", "electronic", "jazz"},
			), ShouldEqual, 0.0)
		})

		Convey("Then unrelated artists should score 0", func() {
			So(ArtistAffinity("Muse", "Radiohead", nil, nil), ShouldEqual, 0.0)
		})
	})
}

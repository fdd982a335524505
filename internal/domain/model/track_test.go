package model

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestYearFromDate(t *testing.T) {
	Convey("Given release dates in various shapes", t, func() {
		Convey("Then full dates should parse", func() {
			So(YearFromDate("2011-03-29"), ShouldEqual, 2011)
		})

		Convey("Then bare years should parse", func() {
			So(YearFromDate("1994"), ShouldEqual, 1994)
		})

		Convey("Then garbage should fall back to the default year", func() {
			So(YearFromDate(""), ShouldEqual, 2020)
			So(YearFromDate("unknown"), ShouldEqual, 2020)
			So(YearFromDate("-5"), ShouldEqual, 2020)
		})
	})
}

func TestSongKey(t *testing.T) {
	Convey("Given track name and artist pairs", t, func() {
		Convey("Then keys should be case- and whitespace-insensitive", func() {
			So(SongKey("Karma Police", "Radiohead"), ShouldEqual, "karma police|radiohead")
			So(SongKey("  Karma Police ", " RADIOHEAD "), ShouldEqual, "karma police|radiohead")
		})

		Convey("Then different songs should get different keys", func() {
			So(SongKey("Creep", "Radiohead"), ShouldNotEqual, SongKey("Karma Police", "Radiohead"))
		})
	})
}

func TestCandidateTags(t *testing.T) {
	Convey("Given a candidate with tags from several sources", t, func() {
		c := Candidate{
			Genres:        []string{"rock"},
			CommunityTags: []string{"alternative", "90s"},
			EnhancedTags:  []string{"melancholic"},
		}

		Convey("Then Tags should union all sources", func() {
			So(c.Tags(), ShouldResemble, []string{"rock", "alternative", "90s", "melancholic"})
		})
	})
}

func TestEnhancedTagsAll(t *testing.T) {
	Convey("Given grouped enhanced tags", t, func() {
		e := EnhancedTags{
			Moods:  []string{"Melancholic"},
			Styles: []string{"Shoegaze"},
			Genres: []string{"Rock"},
		}

		Convey("Then All should flatten and lower-case them", func() {
			So(e.All(), ShouldResemble, []string{"melancholic", "shoegaze", "rock"})
		})
	})
}

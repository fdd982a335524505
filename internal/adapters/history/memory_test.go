package history

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/echosift/echosift/internal/domain/model"
)

func track(id, name, artist string) model.TrackSummary {
	return model.TrackSummary{ID: id, Name: name, Artist: artist}
}

func TestMemoryStore(t *testing.T) {
	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		store := NewMemoryStore()

		Convey("When a user likes and rejects tracks", func() {
			So(store.RecordSwipe(ctx, "u1", DirectionLike, track("t1", "Creep", "Radiohead")), ShouldBeNil)
			So(store.RecordSwipe(ctx, "u1", DirectionReject, track("t2", "Song 2", "Blur")), ShouldBeNil)

			excl := store.ExclusionsFor(ctx, "u1")

			Convey("Then exclusions should reflect both swipes", func() {
				So(excl.Liked("t1"), ShouldBeTrue)
				So(excl.LikedKey(model.SongKey("Creep", "Radiohead")), ShouldBeTrue)
				So(excl.Rejected("t2"), ShouldBeTrue)
				So(excl.Liked("t2"), ShouldBeFalse)
			})

			Convey("Then other users should stay unaffected", func() {
				other := store.ExclusionsFor(ctx, "u2")
				So(other.Liked("t1"), ShouldBeFalse)
				So(other.Rejected("t2"), ShouldBeFalse)
			})
		})

		Convey("When a user changes their mind about a track", func() {
			So(store.RecordSwipe(ctx, "u1", DirectionLike, track("t1", "Creep", "Radiohead")), ShouldBeNil)
			So(store.RecordSwipe(ctx, "u1", DirectionReject, track("t1", "Creep", "Radiohead")), ShouldBeNil)

			excl := store.ExclusionsFor(ctx, "u1")

			Convey("Then the track should move from liked to rejected", func() {
				So(excl.Liked("t1"), ShouldBeFalse)
				So(excl.LikedKey(model.SongKey("Creep", "Radiohead")), ShouldBeFalse)
				So(excl.Rejected("t1"), ShouldBeTrue)
			})
		})

		Convey("When the direction is unknown", func() {
			err := store.RecordSwipe(ctx, "u1", "sideways", track("t1", "Creep", "Radiohead"))

			Convey("Then the swipe should be refused", func() {
				So(err, ShouldEqual, ErrUnknownDirection)
				So(store.Stats(ctx).Users, ShouldEqual, 0)
			})
		})

		Convey("When exclusions are snapshotted", func() {
			So(store.RecordSwipe(ctx, "u1", DirectionLike, track("t1", "Creep", "Radiohead")), ShouldBeNil)
			excl := store.ExclusionsFor(ctx, "u1")

			So(store.RecordSwipe(ctx, "u1", DirectionLike, track("t2", "Lucky", "Radiohead")), ShouldBeNil)

			Convey("Then later swipes should not leak into the snapshot", func() {
				So(excl.Liked("t2"), ShouldBeFalse)
			})
		})

		Convey("When a user's history is reset", func() {
			So(store.RecordSwipe(ctx, "u1", DirectionLike, track("t1", "Creep", "Radiohead")), ShouldBeNil)
			store.Reset(ctx, "u1")

			Convey("Then their exclusions should be empty again", func() {
				excl := store.ExclusionsFor(ctx, "u1")
				So(excl.Liked("t1"), ShouldBeFalse)
				So(store.Stats(ctx).Users, ShouldEqual, 0)
			})
		})

		Convey("When several users swipe", func() {
			So(store.RecordSwipe(ctx, "u1", DirectionLike, track("t1", "A", "X")), ShouldBeNil)
			So(store.RecordSwipe(ctx, "u1", DirectionReject, track("t2", "B", "X")), ShouldBeNil)
			So(store.RecordSwipe(ctx, "u2", DirectionLike, track("t3", "C", "Y")), ShouldBeNil)

			st := store.Stats(ctx)

			Convey("Then stats should aggregate across users", func() {
				So(st.Users, ShouldEqual, 2)
				So(st.Likes, ShouldEqual, 2)
				So(st.Rejects, ShouldEqual, 1)
			})
		})
	})
}

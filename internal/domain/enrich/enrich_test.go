package enrich

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/echosift/echosift/internal/domain/feature"
	"github.com/echosift/echosift/internal/domain/model"
	"github.com/echosift/echosift/pkg/logger"
)

func init() {
	logger.Init()
}

type fakeFeatureSource struct {
	mu      sync.Mutex
	fused   map[string]*model.FusedFeatures
	fetched []string
}

func (f *fakeFeatureSource) Fuse(_ context.Context, trackName, _ string) *model.FusedFeatures {
	f.mu.Lock()
	f.fetched = append(f.fetched, trackName)
	f.mu.Unlock()
	if fused, ok := f.fused[trackName]; ok {
		return fused
	}
	return &model.FusedFeatures{Features: feature.Defaults(), SourceCount: 0}
}

func (f *fakeFeatureSource) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetched)
}

func answered(overrides model.AudioFeatures) *model.FusedFeatures {
	features := feature.Defaults()
	for k, v := range overrides {
		features[k] = v
	}
	return &model.FusedFeatures{Features: features, Sources: []string{"analysis"}, SourceCount: 1}
}

func pendingCandidate(id, name string, score float64) *model.ScoredCandidate {
	return &model.ScoredCandidate{
		Candidate: model.Candidate{
			Track:       model.TrackSummary{ID: id, Name: name, Artist: "Someone", Popularity: 50},
			ReleaseYear: 2010,
		},
		SimilarityScore: score,
		NeedsEnrichment: true,
	}
}

func TestEnrichBatch(t *testing.T) {
	Convey("Given an enricher over a fake feature source", t, func() {
		ctx := context.Background()
		seed := &model.SeedContext{
			Track: model.TrackSummary{ID: "seed", Name: "Seed Song", Artist: "Radiohead"},
			Year:  2010,
		}

		Convey("When features are available for a candidate", func() {
			src := &fakeFeatureSource{fused: map[string]*model.FusedFeatures{
				"Seed Song": answered(nil),
				"Cand Song": answered(model.AudioFeatures{model.FeatureEnergy: 0.9}),
			}}
			e := New(src)
			sc := pendingCandidate("c1", "Cand Song", 0.5)

			e.EnrichBatch(ctx, []*model.ScoredCandidate{sc}, seed, nil)

			Convey("Then the candidate should carry fused features and a full score", func() {
				So(sc.Features, ShouldNotBeNil)
				So(sc.Features.SourceCount, ShouldEqual, 1)
				So(sc.SimilarityScore, ShouldNotEqual, 0.5)
				So(sc.NeedsEnrichment, ShouldBeFalse)
			})

			Convey("Then the seed's features should be fetched lazily and cached", func() {
				So(seed.Features, ShouldNotBeNil)
				So(seed.Features.SourceCount, ShouldEqual, 1)
			})
		})

		Convey("When no provider answers for a candidate", func() {
			src := &fakeFeatureSource{fused: map[string]*model.FusedFeatures{
				"Seed Song": answered(nil),
			}}
			e := New(src)
			sc := pendingCandidate("c1", "Unknown Song", 0.42)

			e.EnrichBatch(ctx, []*model.ScoredCandidate{sc}, seed, nil)

			Convey("Then the fast score should survive and the flag should clear", func() {
				So(sc.SimilarityScore, ShouldEqual, 0.42)
				So(sc.Features, ShouldBeNil)
				So(sc.NeedsEnrichment, ShouldBeFalse)
			})
		})

		Convey("When the batch holds more candidates than the batch size", func() {
			src := &fakeFeatureSource{fused: map[string]*model.FusedFeatures{
				"Seed Song": answered(nil),
			}}
			e := New(src, WithBatchSize(2))

			batch := []*model.ScoredCandidate{
				pendingCandidate("c1", "One", 0.5),
				pendingCandidate("c2", "Two", 0.5),
				pendingCandidate("c3", "Three", 0.5),
			}

			e.EnrichBatch(ctx, batch, seed, nil)

			Convey("Then only the first batch-size candidates should be touched", func() {
				So(batch[0].NeedsEnrichment, ShouldBeFalse)
				So(batch[1].NeedsEnrichment, ShouldBeFalse)
				So(batch[2].NeedsEnrichment, ShouldBeTrue)
			})
		})

		Convey("When candidates are already enriched", func() {
			src := &fakeFeatureSource{}
			e := New(src)

			done := pendingCandidate("c1", "Done", 0.8)
			done.NeedsEnrichment = false

			e.EnrichBatch(ctx, []*model.ScoredCandidate{done, nil}, seed, nil)

			Convey("Then nothing should be fetched", func() {
				So(src.fetchCount(), ShouldEqual, 0)
				So(done.SimilarityScore, ShouldEqual, 0.8)
			})
		})

		Convey("When the seed already has fused features", func() {
			seed.Features = answered(nil)
			src := &fakeFeatureSource{fused: map[string]*model.FusedFeatures{
				"Cand Song": answered(nil),
			}}
			e := New(src)
			sc := pendingCandidate("c1", "Cand Song", 0.5)

			e.EnrichBatch(ctx, []*model.ScoredCandidate{sc}, seed, nil)

			Convey("Then only the candidate should be fetched", func() {
				So(src.fetchCount(), ShouldEqual, 1)
				So(src.fetched[0], ShouldEqual, "Cand Song")
			})
		})
	})
}

type slowFeatureSource struct {
	delay time.Duration
}

func (s *slowFeatureSource) Fuse(context.Context, string, string) *model.FusedFeatures {
	time.Sleep(s.delay)
	return answered(nil)
}

func TestEnrichBatchLocking(t *testing.T) {
	Convey("Given a batch read concurrently while enrichment rewrites it", t, func() {
		ctx := context.Background()
		seed := &model.SeedContext{
			Track:    model.TrackSummary{ID: "seed", Name: "Seed Song", Artist: "Radiohead"},
			Year:     2010,
			Features: answered(nil),
		}
		e := New(&slowFeatureSource{delay: 10 * time.Millisecond})
		sc := pendingCandidate("c1", "Cand Song", 0.5)

		var mu sync.RWMutex
		done := make(chan struct{})
		go func() {
			defer close(done)
			var sink float64
			for i := 0; i < 30; i++ {
				mu.RLock()
				sink += sc.SimilarityScore
				if sc.Features != nil {
					sink += float64(sc.Features.SourceCount)
				}
				mu.RUnlock()
				time.Sleep(time.Millisecond)
			}
			_ = sink
		}()

		e.EnrichBatch(ctx, []*model.ScoredCandidate{sc}, seed, &mu)
		<-done

		Convey("Then the rewrite should land with readers active", func() {
			So(sc.NeedsEnrichment, ShouldBeFalse)
			So(sc.Features, ShouldNotBeNil)
		})
	})
}

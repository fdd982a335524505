package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			metricPrefixOpt := WithMetricPrefix("test-prefix")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			metricsEnabledOpt := WithMetricsEnabled(true)
			refreshIntervalOpt := WithRefreshInterval(5 * time.Second)
			customLabelsOpt := WithCustomLabels(map[string]string{"env": "test"})

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(metricPrefixOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(metricsEnabledOpt, ShouldNotBeNil)
				So(refreshIntervalOpt, ShouldNotBeNil)
				So(customLabelsOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithMetricPrefix("test-prefix"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithCustomLabels(map[string]string{"env": "test", "version": "1.0"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given metrics recording", t, func() {
		Convey("When recording recommendation metrics", func() {
			Convey("Then it should record served recommendations", func() {
				So(func() {
					RecordRecommendationsServed(10)
				}, ShouldNotPanic)
			})

			Convey("Then it should record recommendation latency", func() {
				So(func() {
					RecordRecommendationLatency(42.5)
				}, ShouldNotPanic)
			})

			Convey("Then it should record pool sizes", func() {
				So(func() {
					RecordCandidatePoolSize(35)
				}, ShouldNotPanic)
			})

			Convey("Then it should record escalation rounds", func() {
				So(func() {
					RecordEscalationRound()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording fusion metrics", func() {
			Convey("Then it should record source counts", func() {
				So(func() {
					RecordFusionSources(2)
					RecordFusionSources(0)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording enrichment metrics", func() {
			Convey("Then it should record both outcomes", func() {
				So(func() {
					RecordEnrichment(true)
					RecordEnrichment(false)
					RecordEnrichmentTimeout()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording provider metrics", func() {
			Convey("Then it should record requests and latency", func() {
				So(func() {
					RecordProviderRequest("catalog", "ok")
					RecordProviderRequest("community", "error")
					RecordProviderLatency("catalog", 120.0)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording swipe metrics", func() {
			Convey("Then it should record swipes and users", func() {
				So(func() {
					RecordSwipe("like")
					RecordSwipe("reject")
					UpdateTrackedUsers(3)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording HTTP metrics", func() {
			Convey("Then it should record requests", func() {
				So(func() {
					RecordHTTPRequest("/api/recommendations/fast", "POST", "200")
					RecordHTTPRequestDuration("/api/recommendations/fast", "POST", "200", 85.0)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording error metrics", func() {
			Convey("Then it should record detailed errors", func() {
				So(func() {
					RecordErrorByComponent("collect", "provider_unavailable")
					RecordErrorByType("timeout", "warning")
					RecordErrorByEndpoint("/api/search", "GET", "bad_request")
					RecordErrorLatency("enrich", "timeout", 15000.0)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording system metrics", func() {
			Convey("Then it should record system state", func() {
				So(func() {
					UpdateSystemMemoryUsage(1024 * 1024)
					UpdateSystemGoroutineCount(42)
					RecordSystemGCPauseTime(1.5)
				}, ShouldNotPanic)
			})
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the global registry", t, func() {
		Convey("When fetching it", func() {
			registry := GetRegistry()

			Convey("Then it should gather the registered metrics", func() {
				So(registry, ShouldNotBeNil)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(families, ShouldNotBeEmpty)
			})
		})
	})
}

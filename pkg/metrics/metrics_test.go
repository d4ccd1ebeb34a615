package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then its collectors should be registered there", func() {
				So(manager, ShouldNotBeNil)
				manager.profilesComputed.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "brawl_stats_profiles_computed_total")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.queueSize.Set(3)

			Convey("Then names and constant labels should follow them", func() {
				expected := `
# HELP test_unit_queue_size Current refresh queue backlog
# TYPE test_unit_queue_size gauge
test_unit_queue_size{env="test"} 3
`
				So(testutil.GatherAndCompare(registry, strings.NewReader(expected), "test_unit_queue_size"), ShouldBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When a profile with one degenerate axis is recorded", func() {
			before := testutil.ToFloat64(globalManager.profilesComputed)
			degenerateBefore := testutil.ToFloat64(globalManager.degenerateMetrics.WithLabelValues("Stability"))
			RecordProfileComputed(1.5, []string{"Stability"})

			Convey("Then both counters should move", func() {
				So(testutil.ToFloat64(globalManager.profilesComputed), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.degenerateMetrics.WithLabelValues("Stability")), ShouldEqual, degenerateBefore+1)
			})
		})

		Convey("When queue gauges are updated", func() {
			UpdateQueueSize(7)
			UpdateQueueCapacity(64)

			Convey("Then they should hold the last value", func() {
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 64)
			})
		})

		Convey("When cache and upstream events are recorded", func() {
			hits := testutil.ToFloat64(globalManager.cacheHits.WithLabelValues("memory"))
			retries := testutil.ToFloat64(globalManager.upstreamRetries)
			RecordCacheHit("memory")
			RecordUpstreamRetry()
			RecordUpstreamRequest("GET", "200", 12)

			Convey("Then the counters should increase", func() {
				So(testutil.ToFloat64(globalManager.cacheHits.WithLabelValues("memory")), ShouldEqual, hits+1)
				So(testutil.ToFloat64(globalManager.upstreamRetries), ShouldEqual, retries+1)
			})
		})

		Convey("When the remaining helpers are called", func() {
			So(func() {
				RecordGameSubmitted()
				RecordGameDuplicate()
				RecordHTTPRequest("/leaderboard", "GET", "200")
				RecordHTTPRequestDuration("/leaderboard", "GET", "200", 3)
				RecordCacheMiss("redis")
				RecordRefreshProcessed("schedule", 40)
				RecordRefreshFailed("api")
				RecordRefreshDuplicate()
				RecordQueueEnqueue()
				RecordQueueEnqueueError()
				UpdateWorkerCount(4)
				AddWorkerActive(1)
				AddWorkerActive(-1)
				UpdateStorePlayers("global", 12)
				UpdateStoreScopes(2)
				RecordErrorByComponent("worker", "upstream")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(42)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("When metrics are disabled", func() {
			saved := globalManager
			globalManager = NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithMetricsEnabled(false))
			defer func() { globalManager = saved }()
			RecordProfileComputed(1, nil)

			Convey("Then nothing should be recorded", func() {
				So(testutil.ToFloat64(globalManager.profilesComputed), ShouldEqual, 0)
			})
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the custom registry", t, func() {
		Convey("Then it should expose the service collectors", func() {
			So(GetRegistry(), ShouldNotBeNil)
			count, err := testutil.GatherAndCount(GetRegistry(), "brawl_stats_worker_count")
			So(err, ShouldBeNil)
			So(count, ShouldEqual, 1)
		})
	})
}

package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with default options", func() {
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then collectors are registered under the hydrophys namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.solves.WithLabelValues("depth", "ok").Inc()

				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "hydrophys_solves_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When creating a manager with custom options", func() {
			manager := NewManager(
				WithNamespace("ocean"),
				WithSubsystem("test"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then names and labels follow the options", func() {
				manager.profilesStored.Set(3)
				expected := `
# HELP ocean_test_profiles_stored Profiles currently stored
# TYPE ocean_test_profiles_stored gauge
ocean_test_profiles_stored{env="test"} 3
`
				err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "ocean_test_profiles_stored")
				So(err, ShouldBeNil)
			})
		})

		Convey("When registering the same names twice on one registry", func() {
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then promauto panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestGlobalRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording solves", func() {
			before := testutil.ToFloat64(globalManager.solves.WithLabelValues("path", "tof_out_of_profile"))
			RecordSolve("path", "tof_out_of_profile")
			RecordSolve("path", "tof_out_of_profile")

			Convey("Then the labelled counter grows", func() {
				after := testutil.ToFloat64(globalManager.solves.WithLabelValues("path", "tof_out_of_profile"))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When updating gauges", func() {
			UpdateProfilesStored(7)
			UpdateJobsTracked(11)
			UpdateQueueSize(5)
			UpdateQueueCapacity(10)
			UpdateQueueUtilization(0.5)
			UpdateWorkerActiveCount(4)

			Convey("Then they hold the last value", func() {
				So(testutil.ToFloat64(globalManager.profilesStored), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.jobsTracked), ShouldEqual, 11)
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 5)
				So(testutil.ToFloat64(globalManager.queueUtilization), ShouldEqual, 0.5)
				So(testutil.ToFloat64(globalManager.workerActiveCount), ShouldEqual, 4)
			})
		})

		Convey("When recording the remaining collectors", func() {
			Convey("Then nothing panics", func() {
				So(func() {
					RecordSolveLatency("depth", 1.5)
					RecordIntegrationSteps("depth", 1000)
					RecordPropertyEvaluation()
					RecordBatchAccepted()
					RecordBatchJob("done")
					RecordJobDuplicate()
					RecordRepositoryUpdateLatency(0.2)
					RecordRepositoryQueryLatency(0.1)
					RecordHTTPRequest("/depth", "POST", "200")
					RecordHTTPRequestDuration("/depth", "POST", "200", 3)
					RecordQueueEnqueue()
					RecordQueueDequeue()
					RecordQueueEnqueueError()
					RecordQueueDequeueError()
					UpdateWorkerMessagesPerSecond(12)
					RecordWorkerProcessingLatency(2)
					RecordWorkerError()
					RecordErrorByComponent("queue", "queue_full")
					RecordErrorByEndpoint("/depth", "POST", "bad_request")
				}, ShouldNotPanic)
			})
		})

		Convey("When collecting runtime metrics", func() {
			CollectSystemMetrics()

			Convey("Then memory and goroutine gauges are populated", func() {
				So(testutil.ToFloat64(globalManager.systemMemoryUsage), ShouldBeGreaterThan, 0)
				So(testutil.ToFloat64(globalManager.systemGoroutineCount), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When asking for the registry", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
		})
	})
}

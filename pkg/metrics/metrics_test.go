package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func gatheredNames(reg *prometheus.Registry) map[string]bool {
	families, err := reg.Gather()
	So(err, ShouldBeNil)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		registry := prometheus.NewRegistry()
		manager := NewManager(
			WithNamespace("test"),
			WithSubsystem("game"),
			WithHistogramBuckets([]float64{1, 10, 100}),
			WithPrometheusRegistry(registry),
		)
		So(manager, ShouldNotBeNil)

		Convey("When a counter is incremented", func() {
			manager.sessionsStarted.Inc()
			manager.guesses.WithLabelValues("hit").Inc()

			Convey("Then it is exported with the configured namespace", func() {
				names := gatheredNames(registry)
				So(names["test_game_sessions_started_total"], ShouldBeTrue)
				So(names["test_game_guesses_total"], ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Then recording game metrics does not panic", func() {
			So(func() {
				RecordSessionStarted()
				RecordGuess("hit")
				RecordGuess("miss")
				RecordRound("won")
				RecordSessionFinished(220)
				RecordSessionDiscarded()
			}, ShouldNotPanic)
		})

		Convey("And recording submission metrics does not panic", func() {
			So(func() {
				RecordSubmission("accepted")
				UpdateQueueSize(3)
				UpdateQueueCapacity(100)
				UpdateWorkerCount(4)
				RecordStoreLatency("insert", 1.5)
				UpdateStoreRecords(10)
			}, ShouldNotPanic)
		})

		Convey("And recording HTTP and collaborator metrics does not panic", func() {
			So(func() {
				RecordHTTPRequest("leaderboard", "GET", "200")
				RecordHTTPRequestDuration("leaderboard", "GET", "200", 2)
				RecordChatRequest("send", "ok")
				UpdatePresence(5)
				RecordErrorByComponent("queue", "full")
			}, ShouldNotPanic)
		})

		Convey("And the registry exposes the recorded families", func() {
			RecordSessionStarted()
			names := gatheredNames(GetRegistry())
			So(names["hangman_quiz_sessions_started_total"], ShouldBeTrue)
		})

		Convey("And runtime collectors register once", func() {
			So(func() {
				RegisterRuntimeCollectors()
				RegisterRuntimeCollectors()
			}, ShouldNotPanic)
			names := gatheredNames(GetRegistry())
			So(names["go_goroutines"], ShouldBeTrue)
		})
	})
}

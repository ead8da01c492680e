package observ

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	compilations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tachyon",
			Subsystem: "compile",
			Name:      "generations_total",
			Help:      "Compile generations produced, by trigger.",
		},
		[]string{"trigger"},
	)
	compileDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tachyon",
			Subsystem: "compile",
			Name:      "pass_duration_seconds",
			Help:      "Duration of individual compiler passes.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
		[]string{"pass"},
	)
	deopts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tachyon",
			Subsystem: "speculation",
			Name:      "deoptimizations_total",
			Help:      "Speculation failures, by the type widened to.",
		},
		[]string{"widened_to"},
	)
	restarts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tachyon",
			Subsystem: "speculation",
			Name:      "restarts_total",
			Help:      "Invocation attempts discarded and re-run after a deoptimization.",
		},
	)
	linkEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tachyon",
			Subsystem: "linker",
			Name:      "events_total",
			Help:      "Call-site cache events: hit, miss, relink, megamorphic.",
		},
		[]string{"op", "event"},
	)
	linkFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tachyon",
			Subsystem: "linker",
			Name:      "resolution_failures_total",
			Help:      "Operations no linking strategy could handle.",
		},
		[]string{"op"},
	)
)

// RegisterMetrics adds the engine collectors to the default registry once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(compilations, compileDuration, deopts, restarts, linkEvents, linkFailures)
	})
}

// Collectors exposes the engine collectors for custom registries.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{compilations, compileDuration, deopts, restarts, linkEvents, linkFailures}
}

// RecordCompile counts one generation; trigger is "first-call" or "deopt".
func RecordCompile(trigger string, phases []Phase) {
	compilations.WithLabelValues(trigger).Inc()
	for _, p := range phases {
		compileDuration.WithLabelValues(p.Name).Observe(p.Dur.Seconds())
	}
}

func RecordDeopt(widenedTo string) {
	deopts.WithLabelValues(widenedTo).Inc()
}

func RecordRestart() {
	restarts.Inc()
}

// RecordLink counts a call-site event.
func RecordLink(op, event string) {
	linkEvents.WithLabelValues(op, event).Inc()
}

func RecordLinkFailure(op string) {
	linkFailures.WithLabelValues(op).Inc()
}

// Package metrics declares the Prometheus instrumentation the
// Simulator pushes run and verification counters to, built from
// github.com/prometheus/client_golang's own promauto constructor
// idiom.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry groups every counter/histogram this module emits. Callers
// that want a private registry (e.g. per-test isolation) use
// NewRegistry; production code can use Default, backed by
// prometheus.DefaultRegisterer.
type Registry struct {
	RunsStarted       prometheus.Counter
	RunsCompleted     prometheus.Counter
	RunsAborted       *prometheus.CounterVec // labeled by reason
	WitnessesPerRun   prometheus.Histogram
	VerificationsOK   prometheus.Counter
	VerificationsFail *prometheus.CounterVec // labeled by invariant
}

// NewRegistry constructs a Registry registered against reg. Pass
// prometheus.NewRegistry() in tests to avoid colliding with other
// instances registered against the global default.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		RunsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "witnessrep",
			Subsystem: "simulator",
			Name:      "runs_started_total",
			Help:      "Transaction runs the simulator has started.",
		}),
		RunsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "witnessrep",
			Subsystem: "simulator",
			Name:      "runs_completed_total",
			Help:      "Transaction runs that completed and verified successfully.",
		}),
		RunsAborted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "witnessrep",
			Subsystem: "simulator",
			Name:      "runs_aborted_total",
			Help:      "Transaction runs aborted, labeled by reason.",
		}, []string{"reason"}),
		WitnessesPerRun: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "witnessrep",
			Subsystem: "simulator",
			Name:      "witnesses_per_run",
			Help:      "Number of witnesses selected for each run.",
			Buckets:   prometheus.LinearBuckets(0, 2, 10),
		}),
		VerificationsOK: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "witnessrep",
			Subsystem: "verifier",
			Name:      "verifications_ok_total",
			Help:      "Channels that verified successfully.",
		}),
		VerificationsFail: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "witnessrep",
			Subsystem: "verifier",
			Name:      "verifications_failed_total",
			Help:      "Channels that failed verification, labeled by the invariant that failed.",
		}, []string{"invariant"}),
	}
}

// Default is the process-wide Registry backed by the global
// Prometheus registerer, for use by cmd/witnessrepsim.
var Default = NewRegistry(prometheus.DefaultRegisterer)

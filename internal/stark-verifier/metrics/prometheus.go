package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespaceVerifier = "stark_verifier"
	subsystemBoundary = "boundary"
	subsystemMachine  = "machine"

	labelVariant = "variant"
	labelOutcome = "outcome"
	labelKind    = "kind"
)

// PrometheusCollector records verifier metrics in a prometheus registry.
type PrometheusCollector struct {
	verifications       *prometheus.CounterVec
	verifyDuration      *prometheus.HistogramVec
	inputBytes          *prometheus.HistogramVec
	machineConstruction *prometheus.HistogramVec
}

var _ Collector = (*PrometheusCollector)(nil)

// NewPrometheusCollector registers the verifier metrics with reg.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	factory := promauto.With(reg)

	return &PrometheusCollector{
		verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "verifications_total",
			Namespace: namespaceVerifier,
			Subsystem: subsystemBoundary,
			Help:      "the number of verification calls by variant and outcome",
		}, []string{labelVariant, labelOutcome}),

		verifyDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:      "verification_duration_seconds",
			Namespace: namespaceVerifier,
			Subsystem: subsystemBoundary,
			Help:      "the time spent in a verification call",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{labelVariant}),

		inputBytes: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:      "input_bytes",
			Namespace: namespaceVerifier,
			Subsystem: subsystemBoundary,
			Help:      "the size of decoded proof and verifying key inputs",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 10),
		}, []string{labelVariant, labelKind}),

		machineConstruction: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:      "construction_duration_seconds",
			Namespace: namespaceVerifier,
			Subsystem: subsystemMachine,
			Help:      "the time spent obtaining a verification machine",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{labelVariant}),
	}
}

// Verification counts a call by variant and outcome and observes its duration.
func (pc *PrometheusCollector) Verification(variant, outcome string, duration time.Duration) {
	pc.verifications.WithLabelValues(variant, outcome).Inc()
	pc.verifyDuration.WithLabelValues(variant).Observe(duration.Seconds())
}

// InputSize observes the size of a proof or key input.
func (pc *PrometheusCollector) InputSize(variant, kind string, bytes int) {
	pc.inputBytes.WithLabelValues(variant, kind).Observe(float64(bytes))
}

// MachineConstruction observes the time spent obtaining a machine.
func (pc *PrometheusCollector) MachineConstruction(variant string, duration time.Duration) {
	pc.machineConstruction.WithLabelValues(variant).Observe(duration.Seconds())
}

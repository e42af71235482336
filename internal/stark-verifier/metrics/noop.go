package metrics

import "time"

// NoopCollector discards every observation.
type NoopCollector struct{}

// NewNoopCollector returns a collector that records nothing.
func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

// Verification discards the observation.
func (nc *NoopCollector) Verification(variant, outcome string, duration time.Duration) {}

// InputSize discards the observation.
func (nc *NoopCollector) InputSize(variant, kind string, bytes int) {}

// MachineConstruction discards the observation.
func (nc *NoopCollector) MachineConstruction(variant string, duration time.Duration) {}

var _ Collector = (*NoopCollector)(nil)

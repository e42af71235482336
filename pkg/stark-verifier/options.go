package starkverifier

import (
	"github.com/rs/zerolog"

	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/metrics"
)

// Option configures a Verifier
type Option func(*Verifier)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(v *Verifier) {
		v.log = log
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector metrics.Collector) Option {
	return func(v *Verifier) {
		v.metrics = collector
	}
}

// WithDecoder replaces the wire codec.
func WithDecoder(decoder Decoder) Option {
	return func(v *Verifier) {
		v.decoder = decoder
	}
}

// WithMachineFactory replaces the machine factory. The machine cache, when
// enabled, wraps the given factory.
func WithMachineFactory(factory MachineFactory) Option {
	return func(v *Verifier) {
		v.factory = factory
	}
}

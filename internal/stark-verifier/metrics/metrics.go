// Package metrics records verification outcomes and timings.
package metrics

import "time"

// Outcome labels.
const (
	OutcomeValid              = "valid"
	OutcomeInvalid            = "invalid"
	OutcomeUnsupportedVariant = "unsupported_variant"
	OutcomeDecodeError        = "decode_error"
	OutcomeAssemblyError      = "assembly_error"
	OutcomeVerificationError  = "verification_error"
)

// Collector receives verification events. Implementations must be safe for
// concurrent use.
type Collector interface {
	// Verification records one finished Verify call.
	Verification(variant, outcome string, duration time.Duration)

	// InputSize records the size of a decoded input ("proof" or "vk").
	InputSize(variant, kind string, bytes int)

	// MachineConstruction records the time spent obtaining a machine.
	MachineConstruction(variant string, duration time.Duration)
}

// Package machine defines the verification machine contract and ships a
// structural reference combine machine for every supported variant.
//
// The reference machine checks everything around the opening proofs but not
// the opening proofs themselves, so it is not a cryptographic verifier.
// Production deployments supply their own Factory.
package machine

import (
	"errors"

	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/bundle"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/proof"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/variant"
)

var (
	// ErrInvalidProof is wrapped by every error that means "the proof does
	// not verify". Any other error returned by Verify is a machine fault.
	ErrInvalidProof = errors.New("machine: invalid proof")

	// ErrMalformedBundle reports a bundle whose shape the machine cannot
	// check at all.
	ErrMalformedBundle = errors.New("machine: malformed bundle")
)

// DefaultMaxLogDegree bounds the chip trace heights accepted by default.
const DefaultMaxLogDegree = 22

// Machine verifies an assembled proof bundle against the program's verifying
// key. Implementations must be safe for concurrent use.
type Machine interface {
	Verify(mp *bundle.MetaProof, riscvVK *proof.VerifyingKey) error
}

// Options are the machine parameters supplied by the configuration layer.
type Options struct {
	// VKVerification binds each segment to the digest of its own key
	VKVerification bool

	// MaxLogDegree is the largest accepted chip log degree
	MaxLogDegree int
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		VKVerification: false,
		MaxLogDegree:   DefaultMaxLogDegree,
	}
}

// Factory builds the machine for a variant.
type Factory interface {
	New(v variant.Variant) (Machine, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(v variant.Variant) (Machine, error)

// New calls f(v).
func (f FactoryFunc) New(v variant.Variant) (Machine, error) {
	return f(v)
}

// NewCombineFactory returns a factory building a fresh reference combine
// machine for the variant's field and family on every call. The machines do
// not verify opening proofs.
func NewCombineFactory(opts Options) Factory {
	return FactoryFunc(func(v variant.Variant) (Machine, error) {
		if !v.Valid() {
			return nil, variant.ErrUnsupportedVariant
		}
		return NewCombineMachine(v.Field(), CombineChips(v.Family()), proof.NumPublicValues, opts)
	})
}

package starkverifier

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/bundle"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/codec"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/machine"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/metrics"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/variant"
)

// Verifier is the verification boundary. It holds no per-call state and is
// safe for concurrent use.
type Verifier struct {
	config  *Config
	log     zerolog.Logger
	metrics metrics.Collector
	decoder Decoder
	factory MachineFactory
	cache   *machine.CachingFactory
}

// New creates a verifier with the given configuration. A nil config uses
// DefaultConfig.
func New(config *Config, opts ...Option) (*Verifier, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, &VerifierError{
			Code:    ErrInvalidConfig,
			Message: "invalid configuration",
			Cause:   err,
		}
	}

	v := &Verifier{
		config:  config.Clone(),
		log:     zerolog.Nop(),
		metrics: metrics.NewNoopCollector(),
	}
	for _, opt := range opts {
		opt(v)
	}

	if v.decoder == nil {
		v.decoder = codec.New(v.config.MaxProofBytes, v.log)
	}
	if v.factory == nil {
		v.factory = machine.NewCombineFactory(MachineOptions(v.config))
	}
	if v.config.MachineCacheSize > 0 {
		cache, err := machine.NewCachingFactory(v.factory, v.config.MachineCacheSize)
		if err != nil {
			return nil, &VerifierError{
				Code:    ErrInvalidConfig,
				Message: "failed to create machine cache",
				Cause:   err,
			}
		}
		v.factory = cache
		v.cache = cache
	}
	v.log = v.log.With().Str("component", "verifier").Logger()

	return v, nil
}

// Config returns a copy of the verifier configuration
func (v *Verifier) Config() *Config {
	return v.config.Clone()
}

// PurgeMachines drops every cached machine. It is a no-op when the cache is
// disabled.
func (v *Verifier) PurgeMachines() {
	if v.cache != nil {
		v.cache.Purge()
	}
}

// Decoded is a proof bundle and verifying key ready for verification.
type Decoded struct {
	Variant      Variant
	Bundle       *MetaProof
	VerifyingKey *VerifyingKey
}

// Decode resolves the variant tag, decodes both inputs and assembles the
// bundle without verifying it.
func (v *Verifier) Decode(tag string, proofBytes, vkBytes []byte) (*Decoded, error) {
	// Step 1: resolve the variant before touching the inputs
	vr, err := variant.Parse(tag)
	if err != nil {
		return nil, &VerifierError{
			Code:    ErrUnsupportedVariant,
			Message: fmt.Sprintf("unsupported variant %q, expected one of %v", tag, variant.Tags()),
			Cause:   err,
		}
	}
	cfg := vr.Field()
	v.metrics.InputSize(vr.String(), "proof", len(proofBytes))
	v.metrics.InputSize(vr.String(), "vk", len(vkBytes))

	// Step 2: decode the bundle
	rec, err := v.decoder.DecodeMetaProof(cfg, proofBytes)
	if err != nil {
		return nil, &VerifierError{
			Code:    ErrDecode,
			Message: "failed to decode proof bundle",
			Cause:   err,
		}
	}

	// Step 3: decode the verifying key under the same variant
	vk, err := v.decoder.DecodeVerifyingKey(cfg, vkBytes)
	if err != nil {
		return nil, &VerifierError{
			Code:    ErrDecode,
			Message: "failed to decode verifying key",
			Cause:   err,
		}
	}

	// Step 4: assemble
	mp, err := bundle.Assemble(rec)
	if err != nil {
		return nil, &VerifierError{
			Code:    ErrAssembly,
			Message: "failed to assemble proof bundle",
			Cause:   err,
		}
	}

	return &Decoded{Variant: vr, Bundle: mp, VerifyingKey: vk}, nil
}

// Verify checks a serialized proof bundle against a serialized verifying key
// for the variant named by tag.
//
// It returns (true, nil) for a valid proof and (false, nil) for a proof the
// machine checked and rejected. Every other outcome is a *VerifierError:
// UnsupportedVariant, DecodeFailure, AssemblyFailure or VerificationFailure.
func (v *Verifier) Verify(tag string, proofBytes, vkBytes []byte) (bool, error) {
	start := time.Now()
	log := v.log.With().
		Str("variant", tag).
		Int("proof_bytes", len(proofBytes)).
		Int("vk_bytes", len(vkBytes)).
		Logger()
	log.Debug().Msg("verification started")

	d, err := v.Decode(tag, proofBytes, vkBytes)
	if err != nil {
		label := "unknown"
		if vr, perr := variant.Parse(tag); perr == nil {
			label = vr.String()
		}
		v.finish(log, label, outcomeFor(err), start, err)
		return false, err
	}
	label := d.Variant.String()
	log = log.With().Int("segments", d.Bundle.Len()).Logger()

	// Step 5: obtain the machine for the variant
	built := time.Now()
	m, err := v.factory.New(d.Variant)
	v.metrics.MachineConstruction(label, time.Since(built))
	if err != nil {
		err = &VerifierError{
			Code:    ErrVerificationFailure,
			Message: "failed to construct verification machine",
			Cause:   err,
		}
		v.finish(log, label, metrics.OutcomeVerificationError, start, err)
		return false, err
	}

	// Step 6: verify
	err = m.Verify(d.Bundle, d.VerifyingKey)

	// Step 7: map the machine result
	switch {
	case err == nil:
		v.finish(log, label, metrics.OutcomeValid, start, nil)
		return true, nil
	case errors.Is(err, machine.ErrInvalidProof):
		log.Info().Err(err).Msg("proof rejected")
		v.finish(log, label, metrics.OutcomeInvalid, start, nil)
		return false, nil
	default:
		err = &VerifierError{
			Code:    ErrVerificationFailure,
			Message: "verification machine failed",
			Cause:   err,
		}
		v.finish(log, label, metrics.OutcomeVerificationError, start, err)
		return false, err
	}
}

func (v *Verifier) finish(log zerolog.Logger, label, outcome string, start time.Time, err error) {
	duration := time.Since(start)
	v.metrics.Verification(label, outcome, duration)

	ev := log.Info()
	if err != nil {
		ev = log.Warn().Err(err)
	}
	ev.Str("outcome", outcome).
		Bool("valid", outcome == metrics.OutcomeValid).
		Dur("duration", duration).
		Msg("verification finished")
}

func outcomeFor(err error) string {
	var ve *VerifierError
	if !errors.As(err, &ve) {
		return metrics.OutcomeVerificationError
	}
	switch ve.Code {
	case ErrUnsupportedVariant:
		return metrics.OutcomeUnsupportedVariant
	case ErrDecode:
		return metrics.OutcomeDecodeError
	case ErrAssembly:
		return metrics.OutcomeAssemblyError
	default:
		return metrics.OutcomeVerificationError
	}
}

// VerifyBabyBear verifies a BabyBear Pico proof bundle
func (v *Verifier) VerifyBabyBear(proofBytes, vkBytes []byte) (bool, error) {
	return v.Verify(TagBabyBear, proofBytes, vkBytes)
}

// VerifyKoalaBear verifies a KoalaBear Pico proof bundle
func (v *Verifier) VerifyKoalaBear(proofBytes, vkBytes []byte) (bool, error) {
	return v.Verify(TagKoalaBear, proofBytes, vkBytes)
}

// VerifyPico verifies a Pico proof bundle, KoalaBear being the Pico default field
func (v *Verifier) VerifyPico(proofBytes, vkBytes []byte) (bool, error) {
	return v.Verify(TagPico, proofBytes, vkBytes)
}

// VerifyPicoPrism verifies a PicoPrism proof bundle
func (v *Verifier) VerifyPicoPrism(proofBytes, vkBytes []byte) (bool, error) {
	return v.Verify(TagPicoPrism, proofBytes, vkBytes)
}

var defaultVerifier = sync.OnceValues(func() (*Verifier, error) {
	config := DefaultConfig()
	if err := config.LoadEnv(os.LookupEnv); err != nil {
		return nil, &VerifierError{Code: ErrInvalidConfig, Message: "invalid environment", Cause: err}
	}
	return New(config)
})

// Verify verifies with a process-wide verifier built from DefaultConfig and
// the VK_VERIFICATION environment variable.
func Verify(tag string, proofBytes, vkBytes []byte) (bool, error) {
	v, err := defaultVerifier()
	if err != nil {
		return false, err
	}
	return v.Verify(tag, proofBytes, vkBytes)
}

// VerifyBabyBear verifies a BabyBear Pico proof bundle with the default verifier
func VerifyBabyBear(proofBytes, vkBytes []byte) (bool, error) {
	return Verify(TagBabyBear, proofBytes, vkBytes)
}

// VerifyKoalaBear verifies a KoalaBear Pico proof bundle with the default verifier
func VerifyKoalaBear(proofBytes, vkBytes []byte) (bool, error) {
	return Verify(TagKoalaBear, proofBytes, vkBytes)
}

// VerifyPico verifies a Pico proof bundle with the default verifier
func VerifyPico(proofBytes, vkBytes []byte) (bool, error) {
	return Verify(TagPico, proofBytes, vkBytes)
}

// VerifyPicoPrism verifies a PicoPrism proof bundle with the default verifier
func VerifyPicoPrism(proofBytes, vkBytes []byte) (bool, error) {
	return Verify(TagPicoPrism, proofBytes, vkBytes)
}

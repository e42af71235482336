package starkverifier

import (
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/bundle"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/codec"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/machine"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/proof"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/utils"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/variant"
)

// Variant tags accepted by Verify.
const (
	TagBabyBear  = "BabyBear"
	TagKoalaBear = "KoalaBear"
	TagPico      = "Pico"
	TagPicoPrism = "PicoPrism"
)

// Variant is a supported (field, machine family) pair
type Variant = variant.Variant

// Config represents the verifier configuration
type Config = utils.Config

// MetaProof is an assembled proof bundle
type MetaProof = bundle.MetaProof

// Segment is the proof of one proving stage
type Segment = proof.Segment

// VerifyingKey is a decoded verifying key
type VerifyingKey = proof.VerifyingKey

// Decoder decodes proof bundles and verifying keys
type Decoder = codec.Decoder

// Machine verifies assembled bundles
type Machine = machine.Machine

// MachineFactory builds the machine of a variant
type MachineFactory = machine.Factory

// DefaultConfig returns the default verifier configuration
func DefaultConfig() *Config {
	return utils.DefaultConfig()
}

// Tags returns the accepted variant tags in sorted order
func Tags() []string {
	return variant.Tags()
}

// MachineOptions derives the machine parameters from a configuration.
func MachineOptions(config *Config) machine.Options {
	return machine.Options{
		VKVerification: config.VKVerification,
		MaxLogDegree:   config.MaxLogDegree,
	}
}

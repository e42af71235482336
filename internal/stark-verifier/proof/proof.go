// Package proof defines the in-memory shape of the per-segment proofs and
// verifying keys carried by a proof bundle.
//
// The structures model the shape of recursion segment proofs: every
// segment commits to its traces with three digests, opens each chip at an
// out-of-domain point, carries an opaque polynomial-commitment opening proof
// and exposes a fixed-size vector of recursion public values.
package proof

import (
	"fmt"
	"slices"
)

// Felt is the canonical representative of a 31-bit prime field element.
// Which field it belongs to is decided by the variant the bundle was
// decoded under.
type Felt = uint32

// DigestLen is the number of field elements in a commitment digest.
const DigestLen = 8

// Digest is a commitment digest.
type Digest [DigestLen]Felt

// IsZero reports whether every element of the digest is zero.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// String returns a compact hexadecimal rendering of the digest.
func (d Digest) String() string {
	s := make([]byte, 0, DigestLen*9)
	for i, e := range d {
		if i > 0 {
			s = append(s, ':')
		}
		s = fmt.Appendf(s, "%08x", e)
	}
	return string(s)
}

// Commitments are the trace commitments of a single segment.
type Commitments struct {
	Main        Digest
	Permutation Digest
	Quotient    Digest
}

// ChipOpenedValues holds the out-of-domain openings of one chip.
type ChipOpenedValues struct {
	// Name of the chip, must be part of the machine's chip set
	Name string

	// LogDegree is the log2 of the chip's trace height
	LogDegree uint64

	// Local and Next are the trace row openings at zeta and g*zeta
	Local []Felt
	Next  []Felt

	// Quotient holds the flattened quotient chunk openings
	Quotient []Felt
}

// Segment is the proof of one proving stage (one shard of the execution).
type Segment struct {
	Commitments Commitments

	// Chips are ordered as in the machine's chip set
	Chips []ChipOpenedValues

	// OpeningProof is the serialized polynomial-commitment opening proof.
	// It is bound into the transcript but never interpreted here.
	OpeningProof []byte

	// PublicValues are the recursion public values, see RecursionPublicValues
	PublicValues []Felt

	// TranscriptDigest is the final Fiat-Shamir state claimed by the prover
	TranscriptDigest Digest
}

// ChipInfo describes a preprocessed chip of a verifying key.
type ChipInfo struct {
	Name      string
	LogDegree uint64
}

// VerifyingKey is the public commitment to the preprocessed traces of a
// machine, produced during proving.
type VerifyingKey struct {
	Commit            Digest
	PcStart           Felt
	PreprocessedChips []ChipInfo
}

// NumChips returns the number of opened chips of the segment.
func (s *Segment) NumChips() int {
	return len(s.Chips)
}

// ChipNames returns the chip names in segment order.
func (s *Segment) ChipNames() []string {
	names := make([]string, len(s.Chips))
	for i, c := range s.Chips {
		names[i] = c.Name
	}
	return names
}

// String returns a human-readable summary of the segment
func (s *Segment) String() string {
	return fmt.Sprintf("Segment{Chips: %d, PublicValues: %d, OpeningProof: %d bytes}",
		len(s.Chips), len(s.PublicValues), len(s.OpeningProof))
}

// String returns a human-readable summary of the key
func (vk *VerifyingKey) String() string {
	return fmt.Sprintf("VerifyingKey{Commit: %s, PcStart: %d, Chips: %d}",
		vk.Commit, vk.PcStart, len(vk.PreprocessedChips))
}

// Clone returns a deep copy of the opened values.
func (c ChipOpenedValues) Clone() ChipOpenedValues {
	c.Local = slices.Clone(c.Local)
	c.Next = slices.Clone(c.Next)
	c.Quotient = slices.Clone(c.Quotient)
	return c
}

// Clone returns a deep copy of the segment.
func (s *Segment) Clone() Segment {
	out := *s
	if s.Chips != nil {
		out.Chips = make([]ChipOpenedValues, len(s.Chips))
		for i, c := range s.Chips {
			out.Chips[i] = c.Clone()
		}
	}
	out.OpeningProof = slices.Clone(s.OpeningProof)
	out.PublicValues = slices.Clone(s.PublicValues)
	return out
}

// Clone returns a deep copy of the key.
func (vk *VerifyingKey) Clone() VerifyingKey {
	out := *vk
	out.PreprocessedChips = slices.Clone(vk.PreprocessedChips)
	return out
}

package machine

import (
	"errors"
	"fmt"

	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/bundle"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/field"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/proof"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/utils"
)

// CombineMachine checks a bundle of recursion segments at the combine level:
// segment shape, public-value digests, transcript binding, key binding,
// public-value chaining and the public-value stream commitment. Opening
// proofs are bound through the transcript but not interpreted, so
// acceptance is structural, not cryptographic.
//
// A CombineMachine is immutable after construction and safe for concurrent
// use.
type CombineMachine struct {
	cfg             field.Config
	chips           ChipSet
	numPublicValues int
	opts            Options
}

var _ Machine = (*CombineMachine)(nil)

// NewCombineMachine builds a combine machine for a field configuration, chip
// set and public-value count.
func NewCombineMachine(cfg field.Config, chips ChipSet, numPublicValues int, opts Options) (*CombineMachine, error) {
	if cfg == nil {
		return nil, errors.New("machine: nil field configuration")
	}
	if chips.Len() == 0 {
		return nil, errors.New("machine: empty chip set")
	}
	if numPublicValues != proof.NumPublicValues {
		return nil, fmt.Errorf("machine: unsupported public value count %d, want %d",
			numPublicValues, proof.NumPublicValues)
	}
	if opts.MaxLogDegree <= 0 {
		opts.MaxLogDegree = DefaultMaxLogDegree
	}
	if opts.MaxLogDegree > 32 {
		return nil, fmt.Errorf("machine: max log degree %d exceeds 32", opts.MaxLogDegree)
	}

	return &CombineMachine{
		cfg:             cfg,
		chips:           chips,
		numPublicValues: numPublicValues,
		opts:            opts,
	}, nil
}

// Field returns the machine's field configuration.
func (m *CombineMachine) Field() field.Config {
	return m.cfg
}

// Chips returns the machine's chip set.
func (m *CombineMachine) Chips() ChipSet {
	return m.chips
}

// Options returns the options the machine was built with.
func (m *CombineMachine) Options() Options {
	return m.opts
}

// Verify checks mp against the program's verifying key. Errors wrapping
// ErrInvalidProof mean the proof was checked and rejected; every other error
// means it could not be checked.
func (m *CombineMachine) Verify(mp *bundle.MetaProof, riscvVK *proof.VerifyingKey) error {
	if mp == nil || riscvVK == nil {
		return fmt.Errorf("%w: nil bundle or verifying key", ErrMalformedBundle)
	}
	if mp.Len() == 0 {
		return fmt.Errorf("%w: no segments", ErrMalformedBundle)
	}
	if mp.Len() != mp.NumVerifyingKeys() {
		return fmt.Errorf("%w: %d segments but %d verifying keys",
			ErrMalformedBundle, mp.Len(), mp.NumVerifyingKeys())
	}

	pvs := make([]*proof.RecursionPublicValues, mp.Len())
	for i := range pvs {
		pv, err := m.checkShape(mp.Segment(i), mp.VerifyingKey(i))
		if err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}
		pvs[i] = pv
	}

	for i, pv := range pvs {
		if PublicValuesDigest(m.cfg, pv) != pv.Digest {
			return fmt.Errorf("%w: segment %d: public values digest mismatch", ErrInvalidProof, i)
		}
	}

	for i := range pvs {
		seg, vk := mp.Segment(i), mp.VerifyingKey(i)
		if SegmentTranscriptDigest(m.cfg, vk, seg) != seg.TranscriptDigest {
			return fmt.Errorf("%w: segment %d: transcript digest mismatch", ErrInvalidProof, i)
		}
	}

	if m.opts.VKVerification {
		for i, pv := range pvs {
			if VerifyingKeyDigest(m.cfg, mp.VerifyingKey(i)) != pv.VkDigest {
				return fmt.Errorf("%w: segment %d: verifying key digest mismatch", ErrInvalidProof, i)
			}
		}
	}

	riscvDigest := VerifyingKeyDigest(m.cfg, riscvVK)
	for i, pv := range pvs {
		if pv.RiscvVkDigest != riscvDigest {
			return fmt.Errorf("%w: segment %d: not proven for the supplied program key", ErrInvalidProof, i)
		}
	}

	for i := 1; i < len(pvs); i++ {
		prev, cur := pvs[i-1], pvs[i]
		switch {
		case prev.NextPc != cur.StartPc:
			return fmt.Errorf("%w: segment %d: pc does not continue from segment %d", ErrInvalidProof, i, i-1)
		case prev.NextChunk != cur.StartChunk:
			return fmt.Errorf("%w: segment %d: chunk does not continue from segment %d", ErrInvalidProof, i, i-1)
		case prev.CommittedValueDigest != cur.CommittedValueDigest:
			return fmt.Errorf("%w: segment %d: committed value digest differs from segment %d", ErrInvalidProof, i, i-1)
		}
	}

	last := pvs[len(pvs)-1]
	if last.ExitCode != 0 {
		return fmt.Errorf("%w: program exited with code %d", ErrInvalidProof, last.ExitCode)
	}

	if stream, ok := mp.PublicValuesStream(); ok {
		committed, ok := last.CommittedValueBytes()
		if !ok || CommittedValueDigest(stream) != committed {
			return fmt.Errorf("%w: public value stream does not match committed digest", ErrInvalidProof)
		}
	}
	return nil
}

func (m *CombineMachine) checkShape(seg *proof.Segment, vk *proof.VerifyingKey) (*proof.RecursionPublicValues, error) {
	if len(seg.Chips) == 0 {
		return nil, fmt.Errorf("%w: no chip openings", ErrMalformedBundle)
	}

	prev := -1
	for _, c := range seg.Chips {
		idx, ok := m.chips.Index(c.Name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown chip %q", ErrMalformedBundle, c.Name)
		}
		if idx <= prev {
			return nil, fmt.Errorf("%w: chip %q out of order", ErrMalformedBundle, c.Name)
		}
		prev = idx

		if c.LogDegree > uint64(m.opts.MaxLogDegree) {
			return nil, fmt.Errorf("%w: chip %q log degree %d exceeds %d",
				ErrMalformedBundle, c.Name, c.LogDegree, m.opts.MaxLogDegree)
		}
		if len(c.Local) != len(c.Next) {
			return nil, fmt.Errorf("%w: chip %q opens %d local and %d next values",
				ErrMalformedBundle, c.Name, len(c.Local), len(c.Next))
		}
		if !utils.IsPowerOfTwo(len(c.Quotient)) {
			return nil, fmt.Errorf("%w: chip %q has %d quotient openings",
				ErrMalformedBundle, c.Name, len(c.Quotient))
		}
	}

	if len(seg.PublicValues) != m.numPublicValues {
		return nil, fmt.Errorf("%w: %d public values, want %d",
			ErrMalformedBundle, len(seg.PublicValues), m.numPublicValues)
	}
	pv, err := proof.ParsePublicValues(seg.PublicValues)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBundle, err)
	}
	if pv.IsComplete > 1 {
		return nil, fmt.Errorf("%w: is_complete flag %d", ErrMalformedBundle, pv.IsComplete)
	}

	if err := m.checkKeyShape(vk); err != nil {
		return nil, err
	}
	return pv, nil
}

func (m *CombineMachine) checkKeyShape(vk *proof.VerifyingKey) error {
	for _, c := range vk.PreprocessedChips {
		if !m.chips.Contains(c.Name) {
			return fmt.Errorf("%w: verifying key names unknown chip %q", ErrMalformedBundle, c.Name)
		}
	}
	return nil
}

// Package bundle assembles decoded records into the proof bundle handed to a
// verification machine.
package bundle

import (
	"errors"
	"fmt"

	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/codec"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/proof"
)

// ErrCountMismatch is matched by every *AssemblyError.
var ErrCountMismatch = errors.New("bundle: segment and verifying key counts differ")

// AssemblyError reports a record whose segment and key counts differ.
type AssemblyError struct {
	Segments int
	Keys     int
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("bundle: %d segments but %d verifying keys", e.Segments, e.Keys)
}

func (e *AssemblyError) Is(target error) bool {
	return target == ErrCountMismatch
}

// MetaProof is an assembled proof bundle: ordered segments, the verifying key
// of each segment and the optional public-value stream. It owns deep copies of
// everything it holds and hands out copies, so it cannot change after
// assembly.
type MetaProof struct {
	segments []proof.Segment
	vks      []proof.VerifyingKey
	pvStream []byte
	hasPv    bool
}

// Assemble builds a MetaProof from rec, keeping the order of both sequences.
// Later changes to rec do not reach the bundle.
func Assemble(rec *codec.MetaProofRecord) (*MetaProof, error) {
	if rec == nil {
		return nil, errors.New("bundle: nil record")
	}
	if len(rec.Proofs) != len(rec.Vks) {
		return nil, &AssemblyError{Segments: len(rec.Proofs), Keys: len(rec.Vks)}
	}

	mp := &MetaProof{
		segments: cloneSegments(rec.Proofs),
		vks:      cloneKeys(rec.Vks),
		hasPv:    rec.HasPvStream,
	}
	if rec.HasPvStream {
		mp.pvStream = append([]byte{}, rec.PvStream...)
	}
	return mp, nil
}

func cloneSegments(in []proof.Segment) []proof.Segment {
	out := make([]proof.Segment, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func cloneKeys(in []proof.VerifyingKey) []proof.VerifyingKey {
	out := make([]proof.VerifyingKey, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

// Len returns the number of segments.
func (m *MetaProof) Len() int {
	return len(m.segments)
}

// NumVerifyingKeys returns the number of verifying keys. It equals Len for
// every assembled bundle.
func (m *MetaProof) NumVerifyingKeys() int {
	return len(m.vks)
}

// Segment returns a copy of the i-th segment.
func (m *MetaProof) Segment(i int) *proof.Segment {
	seg := m.segments[i].Clone()
	return &seg
}

// VerifyingKey returns a copy of the key of the i-th segment.
func (m *MetaProof) VerifyingKey(i int) *proof.VerifyingKey {
	vk := m.vks[i].Clone()
	return &vk
}

// Segments returns a deep copy of the segment list.
func (m *MetaProof) Segments() []proof.Segment {
	return cloneSegments(m.segments)
}

// VerifyingKeys returns a deep copy of the key list.
func (m *MetaProof) VerifyingKeys() []proof.VerifyingKey {
	return cloneKeys(m.vks)
}

// PublicValuesStream returns the public-value stream and whether one was
// supplied.
func (m *MetaProof) PublicValuesStream() ([]byte, bool) {
	if !m.hasPv {
		return nil, false
	}
	return append([]byte{}, m.pvStream...), true
}

// String returns a summary of the bundle.
func (m *MetaProof) String() string {
	return fmt.Sprintf("MetaProof{Segments: %d, PvStream: %t}", len(m.segments), m.hasPv)
}

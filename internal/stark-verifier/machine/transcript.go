package machine

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"

	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/field"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/proof"
)

// Transcript is a sha3 Fiat-Shamir transcript. The prover side and the
// machine feed it the same sequence of messages; the final squeezed digest is
// what a segment's TranscriptDigest must match.
type Transcript struct {
	state []byte
	cfg   field.Config
}

// NewTranscript starts a transcript separated by label.
func NewTranscript(cfg field.Config, label string) *Transcript {
	h := sha3.Sum256([]byte(label))
	return &Transcript{state: h[:], cfg: cfg}
}

// Absorb appends data to the transcript state.
func (t *Transcript) Absorb(data []byte) {
	h := sha3.Sum256(append(t.state, data...))
	t.state = h[:]
}

// AbsorbU64 absorbs a little-endian integer.
func (t *Transcript) AbsorbU64(v uint64) {
	t.Absorb(binary.LittleEndian.AppendUint64(nil, v))
}

// AbsorbString absorbs a length-prefixed string.
func (t *Transcript) AbsorbString(s string) {
	buf := binary.LittleEndian.AppendUint64(nil, uint64(len(s)))
	t.Absorb(append(buf, s...))
}

// AbsorbFelts absorbs a length-prefixed sequence of field elements.
func (t *Transcript) AbsorbFelts(vs []proof.Felt) {
	buf := make([]byte, 0, 8+4*len(vs))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(vs)))
	for _, v := range vs {
		buf = binary.LittleEndian.AppendUint32(buf, v)
	}
	t.Absorb(buf)
}

// AbsorbDigest absorbs a commitment digest.
func (t *Transcript) AbsorbDigest(d proof.Digest) {
	buf := make([]byte, 0, 4*proof.DigestLen)
	for _, v := range d {
		buf = binary.LittleEndian.AppendUint32(buf, v)
	}
	t.Absorb(buf)
}

// Challenge squeezes one field element and advances the state.
func (t *Transcript) Challenge() proof.Felt {
	v := t.cfg.Reduce(binary.LittleEndian.Uint64(t.state[:8]))
	h := sha3.Sum256(t.state)
	t.state = h[:]
	return v
}

// Digest squeezes a full digest and advances the state.
func (t *Transcript) Digest() proof.Digest {
	var d proof.Digest
	for i := range d {
		d[i] = t.cfg.Reduce(uint64(binary.LittleEndian.Uint32(t.state[4*i:])))
	}
	h := sha3.Sum256(t.state)
	t.state = h[:]
	return d
}

// State returns a copy of the current state.
func (t *Transcript) State() []byte {
	return append([]byte(nil), t.state...)
}

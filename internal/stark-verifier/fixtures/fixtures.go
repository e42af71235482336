// Package fixtures builds self-consistent proof bundles and verifying keys for
// every variant. The bundles carry correct digests, transcripts and
// public-value chaining, so the combine machine accepts them; they do not
// prove any execution.
package fixtures

import (
	"errors"
	"fmt"

	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/codec"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/field"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/machine"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/proof"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/utils"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/variant"
)

// DefaultPublicValueStream is the stream committed to by default.
var DefaultPublicValueStream = []byte("fibonacci(20) = 6765")

const programPcStart = 0x0020_0800

// Bundle is a generated proof bundle with its program key and encodings.
type Bundle struct {
	Variant    variant.Variant
	Record     *codec.MetaProofRecord
	ProgramKey *proof.VerifyingKey

	ProofBytes []byte
	VKBytes    []byte
}

type options struct {
	segments     int
	stream       []byte
	hasStream    bool
	seed         uint64
	publicValues func(i int, pv *proof.RecursionPublicValues)
	mutate       func(rec *codec.MetaProofRecord, programKey *proof.VerifyingKey)
}

// Option configures Build.
type Option func(*options)

// WithSegments sets the number of segments, at least one.
func WithSegments(n int) Option {
	return func(o *options) { o.segments = n }
}

// WithPublicValueStream sets the public-value stream the segments commit to.
func WithPublicValueStream(stream []byte) Option {
	return func(o *options) {
		o.stream = stream
		o.hasStream = true
	}
}

// WithoutPublicValueStream omits the stream from the bundle. The segments
// still commit to the default stream.
func WithoutPublicValueStream() Option {
	return func(o *options) { o.hasStream = false }
}

// WithSeed changes the generated commitments and openings.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = seed }
}

// WithPublicValues edits each segment's public values before its digests and
// transcript are computed, producing a consistently sealed bundle.
func WithPublicValues(fn func(i int, pv *proof.RecursionPublicValues)) Option {
	return func(o *options) { o.publicValues = fn }
}

// WithMutation edits the sealed record and program key before encoding.
func WithMutation(fn func(rec *codec.MetaProofRecord, programKey *proof.VerifyingKey)) Option {
	return func(o *options) { o.mutate = fn }
}

// Build generates a bundle for v.
func Build(v variant.Variant, opts ...Option) (*Bundle, error) {
	if !v.Valid() {
		return nil, variant.ErrUnsupportedVariant
	}
	o := options{
		segments:  1,
		stream:    DefaultPublicValueStream,
		hasStream: true,
		seed:      1,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.segments < 1 {
		return nil, errors.New("fixtures: at least one segment required")
	}

	g := &generator{cfg: v.Field(), state: o.seed}
	chips := machine.CombineChips(v.Family()).Names()

	programKey := g.programKey()
	riscvDigest := machine.VerifyingKeyDigest(g.cfg, programKey)
	committed := machine.CommittedValueDigest(o.stream)

	rec := &codec.MetaProofRecord{
		Proofs: make([]proof.Segment, o.segments),
		Vks:    make([]proof.VerifyingKey, o.segments),
	}
	if o.hasStream {
		rec.PvStream = append([]byte{}, o.stream...)
		rec.HasPvStream = true
	}

	pc := proof.Felt(programPcStart)
	for i := 0; i < o.segments; i++ {
		vk := g.segmentKey(chips)
		seg := g.segment(chips, i)

		next := pc + proof.Felt(4*(64+i))
		pv := &proof.RecursionPublicValues{
			RiscvVkDigest: riscvDigest,
			VkDigest:      machine.VerifyingKeyDigest(g.cfg, &vk),
			StartPc:       pc,
			NextPc:        next,
			StartChunk:    proof.Felt(i + 1),
			NextChunk:     proof.Felt(i + 2),
		}
		if i == o.segments-1 {
			pv.IsComplete = 1
		}
		pv.SetCommittedValueBytes(committed)
		if o.publicValues != nil {
			o.publicValues(i, pv)
		}
		pv.Digest = machine.PublicValuesDigest(g.cfg, pv)

		seg.PublicValues = pv.Felts()
		seg.TranscriptDigest = machine.SegmentTranscriptDigest(g.cfg, &vk, &seg)

		rec.Proofs[i] = seg
		rec.Vks[i] = vk
		pc = next
	}

	if o.mutate != nil {
		o.mutate(rec, programKey)
	}

	proofBytes, err := codec.EncodeMetaProof(rec)
	if err != nil {
		return nil, fmt.Errorf("fixtures: encoding bundle: %w", err)
	}
	vkBytes, err := codec.EncodeVerifyingKey(programKey)
	if err != nil {
		return nil, fmt.Errorf("fixtures: encoding verifying key: %w", err)
	}

	return &Bundle{
		Variant:    v,
		Record:     rec,
		ProgramKey: programKey,
		ProofBytes: proofBytes,
		VKBytes:    vkBytes,
	}, nil
}

// MustBuild is Build for tests and examples.
func MustBuild(v variant.Variant, opts ...Option) *Bundle {
	b, err := Build(v, opts...)
	if err != nil {
		panic(err)
	}
	return b
}

// FlipByte returns a copy of data with the byte at i inverted.
func FlipByte(data []byte, i int) []byte {
	out := append([]byte(nil), data...)
	out[i] ^= 0xff
	return out
}

// generator derives deterministic field elements from a splitmix64 state.
type generator struct {
	cfg   field.Config
	state uint64
}

func (g *generator) next() uint64 {
	g.state += 0x9e3779b97f4a7c15
	z := g.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func (g *generator) felt() proof.Felt {
	return g.cfg.Reduce(g.next())
}

func (g *generator) felts(n int) []proof.Felt {
	out := make([]proof.Felt, n)
	for i := range out {
		out[i] = g.felt()
	}
	return out
}

func (g *generator) digest() proof.Digest {
	var d proof.Digest
	for i := range d {
		d[i] = g.felt()
	}
	return d
}

func (g *generator) programKey() *proof.VerifyingKey {
	return &proof.VerifyingKey{
		Commit:  g.digest(),
		PcStart: programPcStart,
		PreprocessedChips: []proof.ChipInfo{
			{Name: "Program", LogDegree: 12},
			{Name: "MemoryInitialize", LogDegree: 10},
		},
	}
}

func (g *generator) segmentKey(chips []string) proof.VerifyingKey {
	return proof.VerifyingKey{
		Commit:  g.digest(),
		PcStart: g.felt(),
		PreprocessedChips: []proof.ChipInfo{
			{Name: chips[0], LogDegree: 6},
			{Name: chips[len(chips)-1], LogDegree: 3},
		},
	}
}

// segment opens every other chip of the set, keeping the set's order.
func (g *generator) segment(chips []string, index int) proof.Segment {
	seg := proof.Segment{
		Commitments: proof.Commitments{
			Main:        g.digest(),
			Permutation: g.digest(),
			Quotient:    g.digest(),
		},
	}

	quotientChunks := utils.NextPowerOfTwo(3)
	for j := index % 2; j < len(chips); j += 2 {
		width := 2 + j%4
		height := 1 << (4 + j%6)
		seg.Chips = append(seg.Chips, proof.ChipOpenedValues{
			Name:      chips[j],
			LogDegree: uint64(utils.Log2(height)),
			Local:     g.felts(width),
			Next:      g.felts(width),
			Quotient:  g.felts(quotientChunks),
		})
	}

	seg.OpeningProof = make([]byte, 96)
	for i := 0; i < len(seg.OpeningProof); i += 8 {
		v := g.next()
		for k := 0; k < 8; k++ {
			seg.OpeningProof[i+k] = byte(v >> (8 * k))
		}
	}
	return seg
}

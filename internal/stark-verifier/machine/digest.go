package machine

import (
	"golang.org/x/crypto/sha3"

	gl "github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"

	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/field"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/proof"
)

// combineTranscriptLabel separates combine transcripts from any other use of
// the same hash.
const combineTranscriptLabel = "stark-verifier/combine/v1"

// hashFelts hashes a felt sequence with Tip5 and maps the result back into
// the proof field. Every 64-bit output element yields two 32-bit halves, each
// reduced into the field; the first DigestLen halves form the digest.
func hashFelts(cfg field.Config, vs []proof.Felt) proof.Digest {
	elems := make([]gl.Element, len(vs))
	for i, v := range vs {
		elems[i] = gl.New(uint64(v))
	}
	out := hash.HashVarlen(elems)

	var d proof.Digest
	n := 0
	for _, e := range out {
		val := e.Value()
		for _, half := range [2]uint32{uint32(val), uint32(val >> 32)} {
			if n == proof.DigestLen {
				return d
			}
			d[n] = cfg.Reduce(uint64(half))
			n++
		}
	}
	return d
}

// VerifyingKeyDigest returns the digest committed to in VkDigest and
// RiscvVkDigest public values.
func VerifyingKeyDigest(cfg field.Config, vk *proof.VerifyingKey) proof.Digest {
	vs := make([]proof.Felt, 0, proof.DigestLen+2+len(vk.PreprocessedChips)*16)
	vs = append(vs, vk.Commit[:]...)
	vs = append(vs, vk.PcStart, cfg.Reduce(uint64(len(vk.PreprocessedChips))))
	for _, c := range vk.PreprocessedChips {
		vs = append(vs, cfg.Reduce(uint64(len(c.Name))))
		for i := 0; i < len(c.Name); i++ {
			vs = append(vs, proof.Felt(c.Name[i]))
		}
		vs = append(vs, cfg.Reduce(c.LogDegree&0xffffffff), cfg.Reduce(c.LogDegree>>32))
	}
	return hashFelts(cfg, vs)
}

// PublicValuesDigest returns the digest over every recursion public value
// preceding the Digest slot.
func PublicValuesDigest(cfg field.Config, pv *proof.RecursionPublicValues) proof.Digest {
	return hashFelts(cfg, pv.Prefix())
}

// CommittedValueDigest returns the sha3-256 digest of a public-value stream.
func CommittedValueDigest(stream []byte) [proof.CommittedValueDigestLen]byte {
	return sha3.Sum256(stream)
}

// SegmentTranscriptDigest replays the Fiat-Shamir transcript of one segment
// proven under vk and returns its final digest.
func SegmentTranscriptDigest(cfg field.Config, vk *proof.VerifyingKey, seg *proof.Segment) proof.Digest {
	t := NewTranscript(cfg, combineTranscriptLabel)

	t.AbsorbDigest(vk.Commit)
	t.AbsorbFelts([]proof.Felt{vk.PcStart})
	t.AbsorbU64(uint64(len(vk.PreprocessedChips)))
	for _, c := range vk.PreprocessedChips {
		t.AbsorbString(c.Name)
		t.AbsorbU64(c.LogDegree)
	}

	t.AbsorbDigest(seg.Commitments.Main)
	t.AbsorbU64(uint64(len(seg.Chips)))
	for _, c := range seg.Chips {
		t.AbsorbString(c.Name)
		t.AbsorbU64(c.LogDegree)
	}
	t.AbsorbFelts(seg.PublicValues)

	// permutation challenges
	t.Challenge()
	t.Challenge()
	t.AbsorbDigest(seg.Commitments.Permutation)

	// quotient challenge
	t.Challenge()
	t.AbsorbDigest(seg.Commitments.Quotient)

	// out-of-domain point
	t.Challenge()
	for _, c := range seg.Chips {
		t.AbsorbFelts(c.Local)
		t.AbsorbFelts(c.Next)
		t.AbsorbFelts(c.Quotient)
	}

	t.Absorb(seg.OpeningProof)
	return t.Digest()
}

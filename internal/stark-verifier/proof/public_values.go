package proof

import (
	"errors"
	"fmt"
)

// Layout of the recursion public values.
const (
	riscvVkDigestOffset        = 0
	vkDigestOffset             = riscvVkDigestOffset + DigestLen
	startPcOffset              = vkDigestOffset + DigestLen
	nextPcOffset               = startPcOffset + 1
	startChunkOffset           = nextPcOffset + 1
	nextChunkOffset            = startChunkOffset + 1
	exitCodeOffset             = nextChunkOffset + 1
	isCompleteOffset           = exitCodeOffset + 1
	committedValueDigestOffset = isCompleteOffset + 1
	digestOffset               = committedValueDigestOffset + CommittedValueDigestLen

	// CommittedValueDigestLen is the number of byte-valued felts holding
	// the sha3-256 digest of the public-value stream.
	CommittedValueDigestLen = 32

	// NumPublicValues is the number of recursion public values per segment.
	NumPublicValues = digestOffset + DigestLen
)

// ErrPublicValuesLength is returned when a public-value vector does not have
// NumPublicValues elements.
var ErrPublicValuesLength = errors.New("proof: wrong number of public values")

// RecursionPublicValues is the typed view of a segment's public values.
type RecursionPublicValues struct {
	// RiscvVkDigest binds the segment to the program's verifying key
	RiscvVkDigest Digest

	// VkDigest binds the segment to the key it was proven under
	VkDigest Digest

	StartPc    Felt
	NextPc     Felt
	StartChunk Felt
	NextChunk  Felt
	ExitCode   Felt
	IsComplete Felt

	// CommittedValueDigest holds one byte per element
	CommittedValueDigest [CommittedValueDigestLen]Felt

	// Digest commits to every other public value
	Digest Digest
}

// ParsePublicValues interprets pv as recursion public values.
func ParsePublicValues(pv []Felt) (*RecursionPublicValues, error) {
	if len(pv) != NumPublicValues {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrPublicValuesLength, len(pv), NumPublicValues)
	}

	r := &RecursionPublicValues{
		StartPc:    pv[startPcOffset],
		NextPc:     pv[nextPcOffset],
		StartChunk: pv[startChunkOffset],
		NextChunk:  pv[nextChunkOffset],
		ExitCode:   pv[exitCodeOffset],
		IsComplete: pv[isCompleteOffset],
	}
	copy(r.RiscvVkDigest[:], pv[riscvVkDigestOffset:vkDigestOffset])
	copy(r.VkDigest[:], pv[vkDigestOffset:startPcOffset])
	copy(r.CommittedValueDigest[:], pv[committedValueDigestOffset:digestOffset])
	copy(r.Digest[:], pv[digestOffset:NumPublicValues])
	return r, nil
}

// Felts flattens the view back into its wire order.
func (r *RecursionPublicValues) Felts() []Felt {
	pv := r.Prefix()
	return append(pv, r.Digest[:]...)
}

// Prefix returns every public value preceding Digest, the input the digest
// is computed over.
func (r *RecursionPublicValues) Prefix() []Felt {
	pv := make([]Felt, 0, NumPublicValues)
	pv = append(pv, r.RiscvVkDigest[:]...)
	pv = append(pv, r.VkDigest[:]...)
	pv = append(pv, r.StartPc, r.NextPc, r.StartChunk, r.NextChunk, r.ExitCode, r.IsComplete)
	pv = append(pv, r.CommittedValueDigest[:]...)
	return pv
}

// CommittedValueBytes returns the committed value digest as bytes. ok is false
// when an element does not fit a byte.
func (r *RecursionPublicValues) CommittedValueBytes() (b [CommittedValueDigestLen]byte, ok bool) {
	for i, e := range r.CommittedValueDigest {
		if e > 0xff {
			return b, false
		}
		b[i] = byte(e)
	}
	return b, true
}

// SetCommittedValueBytes stores b as byte-valued felts.
func (r *RecursionPublicValues) SetCommittedValueBytes(b [CommittedValueDigestLen]byte) {
	for i, v := range b {
		r.CommittedValueDigest[i] = Felt(v)
	}
}

package bundle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/codec"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/proof"
)

func record(segments, keys int) *codec.MetaProofRecord {
	rec := &codec.MetaProofRecord{}
	for i := 0; i < segments; i++ {
		rec.Proofs = append(rec.Proofs, proof.Segment{OpeningProof: []byte{byte(i)}})
	}
	for i := 0; i < keys; i++ {
		rec.Vks = append(rec.Vks, proof.VerifyingKey{PcStart: proof.Felt(i)})
	}
	return rec
}

func TestAssemble(t *testing.T) {
	rec := record(3, 3)
	rec.PvStream = []byte{1, 2, 3}
	rec.HasPvStream = true

	mp, err := Assemble(rec)
	require.NoError(t, err)

	require.Equal(t, 3, mp.Len())
	for i := 0; i < mp.Len(); i++ {
		assert.Equal(t, []byte{byte(i)}, mp.Segment(i).OpeningProof)
		assert.Equal(t, proof.Felt(i), mp.VerifyingKey(i).PcStart)
	}

	stream, ok := mp.PublicValuesStream()
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, stream)
}

func TestAssembleCountMismatch(t *testing.T) {
	tests := []struct {
		name     string
		segments int
		keys     int
	}{
		{"MoreSegments", 2, 1},
		{"MoreKeys", 1, 3},
		{"NoKeys", 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Assemble(record(tt.segments, tt.keys))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCountMismatch))

			var ae *AssemblyError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, tt.segments, ae.Segments)
			assert.Equal(t, tt.keys, ae.Keys)
		})
	}
}

func TestAssembleEmpty(t *testing.T) {
	mp, err := Assemble(record(0, 0))
	require.NoError(t, err)
	assert.Equal(t, 0, mp.Len())

	_, ok := mp.PublicValuesStream()
	assert.False(t, ok)
}

func TestAssembleNil(t *testing.T) {
	_, err := Assemble(nil)
	assert.Error(t, err)
}

func TestAccessorsReturnCopies(t *testing.T) {
	rec := record(2, 2)
	rec.PvStream = []byte{9}
	rec.HasPvStream = true
	mp, err := Assemble(rec)
	require.NoError(t, err)

	segs := mp.Segments()
	segs[0] = proof.Segment{}
	vks := mp.VerifyingKeys()
	vks[1] = proof.VerifyingKey{PcStart: 99}
	stream, _ := mp.PublicValuesStream()
	stream[0] = 0

	assert.Equal(t, []byte{0}, mp.Segment(0).OpeningProof)
	assert.Equal(t, proof.Felt(1), mp.VerifyingKey(1).PcStart)
	again, _ := mp.PublicValuesStream()
	assert.Equal(t, []byte{9}, again)
}

func TestRecordMutationAfterAssemble(t *testing.T) {
	rec := record(2, 2)
	rec.Proofs[0].PublicValues = []proof.Felt{7, 8}
	rec.Proofs[0].Chips = []proof.ChipOpenedValues{{Name: "BaseAlu", Local: []proof.Felt{1}}}
	rec.Vks[0].PreprocessedChips = []proof.ChipInfo{{Name: "Program", LogDegree: 4}}
	rec.PvStream = []byte{5}
	rec.HasPvStream = true

	mp, err := Assemble(rec)
	require.NoError(t, err)

	rec.Vks[0].PcStart = 99
	rec.Vks[0].PreprocessedChips[0].LogDegree = 30
	rec.Proofs[0].OpeningProof[0] = 0xAA
	rec.Proofs[0].PublicValues[0] = 0
	rec.Proofs[0].Chips[0].Local[0] = 42
	rec.Proofs[1] = proof.Segment{}
	rec.PvStream[0] = 0

	assert.Equal(t, proof.Felt(0), mp.VerifyingKey(0).PcStart)
	assert.Equal(t, uint64(4), mp.VerifyingKey(0).PreprocessedChips[0].LogDegree)
	assert.Equal(t, []byte{0}, mp.Segment(0).OpeningProof)
	assert.Equal(t, []proof.Felt{7, 8}, mp.Segment(0).PublicValues)
	assert.Equal(t, []proof.Felt{1}, mp.Segment(0).Chips[0].Local)
	assert.Equal(t, []byte{1}, mp.Segment(1).OpeningProof)
	stream, ok := mp.PublicValuesStream()
	require.True(t, ok)
	assert.Equal(t, []byte{5}, stream)
}

func TestAccessorsReturnDeepCopies(t *testing.T) {
	rec := record(1, 1)
	rec.Proofs[0].PublicValues = []proof.Felt{3}
	rec.Proofs[0].Chips = []proof.ChipOpenedValues{{Name: "BaseAlu", Quotient: []proof.Felt{1, 2}}}
	rec.Vks[0].PreprocessedChips = []proof.ChipInfo{{Name: "Program"}}
	mp, err := Assemble(rec)
	require.NoError(t, err)

	mp.Segments()[0].OpeningProof[0] = 0xAA
	mp.Segments()[0].Chips[0].Quotient[0] = 9
	mp.Segment(0).PublicValues[0] = 0
	mp.VerifyingKey(0).PcStart = 99
	mp.VerifyingKeys()[0].PreprocessedChips[0].Name = "Other"

	assert.Equal(t, []byte{0}, mp.Segment(0).OpeningProof)
	assert.Equal(t, []proof.Felt{1, 2}, mp.Segment(0).Chips[0].Quotient)
	assert.Equal(t, []proof.Felt{3}, mp.Segment(0).PublicValues)
	assert.Equal(t, proof.Felt(0), mp.VerifyingKey(0).PcStart)
	assert.Equal(t, "Program", mp.VerifyingKey(0).PreprocessedChips[0].Name)
}

func TestStreamIgnoredWithoutFlag(t *testing.T) {
	rec := record(1, 1)
	rec.PvStream = []byte{1}

	mp, err := Assemble(rec)
	require.NoError(t, err)
	_, ok := mp.PublicValuesStream()
	assert.False(t, ok)
}

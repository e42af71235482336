package machine

import (
	"fmt"
	"sync"

	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/variant"
)

// Combine chip names.
const (
	ChipMemoryConst       = "MemoryConst"
	ChipMemoryVar         = "MemoryVar"
	ChipBaseAlu           = "BaseAlu"
	ChipExtAlu            = "ExtAlu"
	ChipPoseidon2         = "Poseidon2"
	ChipPoseidon2Skinny   = "Poseidon2Skinny"
	ChipBatchFRI          = "BatchFRI"
	ChipExpReverseBitsLen = "ExpReverseBitsLen"
	ChipSelect            = "Select"
	ChipGlobalLookup      = "GlobalLookup"
	ChipPublicValues      = "PublicValues"
)

// ChipSet is an ordered set of chip names. Segments must open their chips in
// this order.
type ChipSet struct {
	names []string
	index map[string]int
}

// NewChipSet builds a chip set from distinct names.
func NewChipSet(names ...string) (ChipSet, error) {
	cs := ChipSet{
		names: append([]string(nil), names...),
		index: make(map[string]int, len(names)),
	}
	for i, n := range names {
		if n == "" {
			return ChipSet{}, fmt.Errorf("chip %d has an empty name", i)
		}
		if _, dup := cs.index[n]; dup {
			return ChipSet{}, fmt.Errorf("duplicate chip %q", n)
		}
		cs.index[n] = i
	}
	return cs, nil
}

func mustChipSet(names ...string) ChipSet {
	cs, err := NewChipSet(names...)
	if err != nil {
		panic(err)
	}
	return cs
}

// Len returns the number of chips.
func (cs ChipSet) Len() int {
	return len(cs.names)
}

// Names returns the chip names in order.
func (cs ChipSet) Names() []string {
	return append([]string(nil), cs.names...)
}

// Index returns the position of name.
func (cs ChipSet) Index(name string) (int, bool) {
	i, ok := cs.index[name]
	return i, ok
}

// Contains reports whether name is part of the set.
func (cs ChipSet) Contains(name string) bool {
	_, ok := cs.index[name]
	return ok
}

var (
	picoChips = sync.OnceValue(func() ChipSet {
		return mustChipSet(
			ChipMemoryConst,
			ChipMemoryVar,
			ChipBaseAlu,
			ChipExtAlu,
			ChipPoseidon2,
			ChipBatchFRI,
			ChipExpReverseBitsLen,
			ChipSelect,
			ChipPublicValues,
		)
	})

	picoPrismChips = sync.OnceValue(func() ChipSet {
		return mustChipSet(
			ChipMemoryConst,
			ChipMemoryVar,
			ChipBaseAlu,
			ChipExtAlu,
			ChipPoseidon2Skinny,
			ChipBatchFRI,
			ChipExpReverseBitsLen,
			ChipSelect,
			ChipGlobalLookup,
			ChipPublicValues,
		)
	})
)

// CombineChips returns the combine chip set of a machine family. The sets
// are built once per process. Unknown families yield an empty set.
func CombineChips(f variant.Family) ChipSet {
	switch f {
	case variant.Pico:
		return picoChips()
	case variant.PicoPrism:
		return picoPrismChips()
	default:
		return ChipSet{}
	}
}

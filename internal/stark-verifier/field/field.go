// Package field describes the prime-field configurations a proof bundle can be
// produced under. Arithmetic is delegated to gnark-crypto's small-field
// packages; this package only exposes what the wire codec and the combine
// machine need: canonical checks and modular reduction.
package field

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/field/babybear"
	"github.com/consensys/gnark-crypto/field/koalabear"
)

// ID identifies a field configuration.
type ID uint8

const (
	// BabyBear is the field of order 2^31 - 2^27 + 1.
	BabyBear ID = iota + 1

	// KoalaBear is the field of order 2^31 - 2^24 + 1.
	KoalaBear
)

// ErrUnknownField is returned for field IDs outside the supported set.
var ErrUnknownField = errors.New("field: unknown field configuration")

// String returns the field name used in variant tags and diagnostics.
func (id ID) String() string {
	switch id {
	case BabyBear:
		return "BabyBear"
	case KoalaBear:
		return "KoalaBear"
	default:
		return fmt.Sprintf("Field(%d)", uint8(id))
	}
}

// Config is a 31-bit prime field configuration.
type Config interface {
	// ID returns the field identifier.
	ID() ID

	// Name returns the human-readable field name.
	Name() string

	// Modulus returns the field order.
	Modulus() uint32

	// IsCanonical reports whether v is the canonical representative of an
	// element, i.e. v < Modulus().
	IsCanonical(v uint32) bool

	// Reduce maps an arbitrary 64-bit value into the field.
	Reduce(v uint64) uint32
}

// ForID returns the configuration for id.
func ForID(id ID) (Config, error) {
	switch id {
	case BabyBear:
		return babyBearConfig{}, nil
	case KoalaBear:
		return koalaBearConfig{}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownField, uint8(id))
	}
}

var (
	babyBearModulus  = uint32(babybear.Modulus().Uint64())
	koalaBearModulus = uint32(koalabear.Modulus().Uint64())
)

type babyBearConfig struct{}

func (babyBearConfig) ID() ID                    { return BabyBear }
func (babyBearConfig) Name() string              { return BabyBear.String() }
func (babyBearConfig) Modulus() uint32           { return babyBearModulus }
func (babyBearConfig) IsCanonical(v uint32) bool { return v < babyBearModulus }
func (babyBearConfig) Reduce(v uint64) uint32 {
	e := babybear.NewElement(v)
	return uint32(e.Uint64())
}

type koalaBearConfig struct{}

func (koalaBearConfig) ID() ID                    { return KoalaBear }
func (koalaBearConfig) Name() string              { return KoalaBear.String() }
func (koalaBearConfig) Modulus() uint32           { return koalaBearModulus }
func (koalaBearConfig) IsCanonical(v uint32) bool { return v < koalaBearModulus }
func (koalaBearConfig) Reduce(v uint64) uint32 {
	e := koalabear.NewElement(v)
	return uint32(e.Uint64())
}

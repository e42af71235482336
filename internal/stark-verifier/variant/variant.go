// Package variant maps the textual variant tags accepted at the boundary to
// the closed set of (field, machine family) pairs the verifier supports.
package variant

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/field"
)

// ErrUnsupportedVariant is returned by Parse for unknown tags.
var ErrUnsupportedVariant = errors.New("unsupported variant")

// Family selects the chip set of the combine machine.
type Family uint8

const (
	// Pico is the single-device VM family.
	Pico Family = iota + 1

	// PicoPrism is the multi-device proving family.
	PicoPrism
)

func (f Family) String() string {
	switch f {
	case Pico:
		return "Pico"
	case PicoPrism:
		return "PicoPrism"
	default:
		return fmt.Sprintf("Family(%d)", uint8(f))
	}
}

// Variant is one supported (field, family) pair.
type Variant uint8

const (
	BabyBearPico Variant = iota + 1
	KoalaBearPico
	KoalaBearPicoPrism
)

// All returns every supported variant.
func All() []Variant {
	return []Variant{BabyBearPico, KoalaBearPico, KoalaBearPicoPrism}
}

var tags = map[string]Variant{
	"BabyBear":  BabyBearPico,
	"KoalaBear": KoalaBearPico,
	"Pico":      KoalaBearPico,
	"PicoPrism": KoalaBearPicoPrism,
}

// Parse resolves a case-sensitive variant tag.
func Parse(tag string) (Variant, error) {
	v, ok := tags[tag]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedVariant, tag)
	}
	return v, nil
}

// Tags returns the accepted tags in sorted order.
func Tags() []string {
	out := make([]string, 0, len(tags))
	for t := range tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// FieldID returns the field the variant's proofs are expressed over.
func (v Variant) FieldID() field.ID {
	switch v {
	case BabyBearPico:
		return field.BabyBear
	case KoalaBearPico, KoalaBearPicoPrism:
		return field.KoalaBear
	default:
		return 0
	}
}

// Field returns the variant's field configuration. It panics for values
// outside the closed set, which Parse never produces.
func (v Variant) Field() field.Config {
	cfg, err := field.ForID(v.FieldID())
	if err != nil {
		panic(fmt.Sprintf("variant: %v has no field: %v", v, err))
	}
	return cfg
}

// Family returns the machine family.
func (v Variant) Family() Family {
	switch v {
	case BabyBearPico, KoalaBearPico:
		return Pico
	case KoalaBearPicoPrism:
		return PicoPrism
	default:
		return 0
	}
}

// Valid reports whether v is part of the closed set.
func (v Variant) Valid() bool {
	return v >= BabyBearPico && v <= KoalaBearPicoPrism
}

func (v Variant) String() string {
	switch v {
	case BabyBearPico:
		return "BabyBearPico"
	case KoalaBearPico:
		return "KoalaBearPico"
	case KoalaBearPicoPrism:
		return "KoalaBearPicoPrism"
	default:
		return fmt.Sprintf("Variant(%d)", uint8(v))
	}
}

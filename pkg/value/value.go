// Package value implements the atomic item model for GoXP.
//
// Atomic values are the leaves the expression engine computes with:
// strings, booleans, the four numeric kinds (integer, decimal, float,
// double), dates, the two duration subtypes, untyped atomics and anyURI.
// The package also provides the numeric promotion lattice and the
// date/duration arithmetic the operator dispatch tables resolve to.
package value

import (
	"strings"

	"github.com/sandrolain/goxp/pkg/types"
)

// Atomic is an atomic item: a value with a primitive kind and a lexical
// string form.
type Atomic interface {
	types.Item
	PrimitiveKind() types.Primitive
	StringValue() string
}

// String is an xs:string value.
type String string

func (s String) ItemType() types.ItemType       { return types.StringType }
func (s String) PrimitiveKind() types.Primitive { return types.PrimString }
func (s String) StringValue() string            { return string(s) }

// Untyped is an xs:untypedAtomic value: a lexical form whose real type is
// determined by the context that consumes it.
type Untyped string

func (u Untyped) ItemType() types.ItemType       { return types.UntypedAtomicType }
func (u Untyped) PrimitiveKind() types.Primitive { return types.PrimUntyped }
func (u Untyped) StringValue() string            { return string(u) }

// AnyURI is an xs:anyURI value. It widens implicitly to xs:string.
type AnyURI string

func (u AnyURI) ItemType() types.ItemType       { return types.AnyURIType }
func (u AnyURI) PrimitiveKind() types.Primitive { return types.PrimAnyURI }
func (u AnyURI) StringValue() string            { return string(u) }

// Boolean is an xs:boolean value.
type Boolean bool

func (b Boolean) ItemType() types.ItemType       { return types.BooleanType }
func (b Boolean) PrimitiveKind() types.Primitive { return types.PrimBoolean }
func (b Boolean) StringValue() string {
	if b {
		return "true"
	}
	return "false"
}

// Compare compares two atomic values, returning -1, 0 or +1.
// Numeric operands are promoted pairwise; strings and anyURIs compare by
// codepoint; booleans order false < true. Unordered pairs (including any
// comparison involving NaN) return an XPTY0004 dynamic error.
func Compare(a, b Atomic) (int, error) {
	an, aNum := a.(Numeric)
	bn, bNum := b.(Numeric)
	if aNum && bNum {
		if IsNaN(an) || IsNaN(bn) {
			return 0, types.NewError(types.ErrDynamicType, "NaN is unordered", -1)
		}
		return compareNumeric(an, bn), nil
	}

	switch av := a.(type) {
	case String:
		if bs, ok := stringLike(b); ok {
			return strings.Compare(string(av), bs), nil
		}
	case AnyURI:
		if bs, ok := stringLike(b); ok {
			return strings.Compare(string(av), bs), nil
		}
	case Boolean:
		if bv, ok := b.(Boolean); ok {
			return cmpBool(bool(av), bool(bv)), nil
		}
	case Date:
		if bv, ok := b.(Date); ok {
			return av.Compare(bv), nil
		}
	case DayTimeDuration:
		if bv, ok := b.(DayTimeDuration); ok {
			return cmpOrdered(av.D, bv.D), nil
		}
	case YearMonthDuration:
		if bv, ok := b.(YearMonthDuration); ok {
			return cmpOrdered(av.Months, bv.Months), nil
		}
	}
	return 0, types.NewTypeError(
		"values of types " + a.ItemType().String() + " and " + b.ItemType().String() + " are not comparable")
}

// Equal reports whether two atomic values compare equal. Unlike Compare it
// treats NaN as unequal to everything (including itself) rather than as an
// error, matching the value-comparison semantics of "eq".
func Equal(a, b Atomic) (bool, error) {
	an, aNum := a.(Numeric)
	bn, bNum := b.(Numeric)
	if aNum && bNum {
		if IsNaN(an) || IsNaN(bn) {
			return false, nil
		}
		return compareNumeric(an, bn) == 0, nil
	}
	c, err := Compare(a, b)
	if err != nil {
		return false, err
	}
	return c == 0, nil
}

func stringLike(a Atomic) (string, bool) {
	switch v := a.(type) {
	case String:
		return string(v), true
	case AnyURI:
		return string(v), true
	default:
		return "", false
	}
}

func cmpBool(a, b bool) int {
	switch {
	case a && !b:
		return 1
	case b && !a:
		return -1
	default:
		return 0
	}
}

func cmpOrdered[T ~int32 | ~int64 | ~float64](a, b T) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

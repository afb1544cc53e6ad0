package value

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/sandrolain/goxp/pkg/types"
)

// Numeric is an atomic value in the numeric promotion lattice
// integer → decimal → float → double. Binary operations promote both
// operands to the wider kind before computing; the checked integer and
// decimal kinds surface arithmetic faults as typed errors, while float and
// double follow IEEE 754.
type Numeric interface {
	Atomic
	// Float64 returns the value widened to a double.
	Float64() float64
	// rank orders the kinds for promotion.
	rank() int
}

// Integer is an xs:integer value.
type Integer int64

// Decimal is an xs:decimal value with exact arithmetic.
type Decimal struct{ d decimal.Decimal }

// Float is an xs:float value.
type Float float32

// Double is an xs:double value.
type Double float64

// NewDecimal builds a Decimal from a shopspring decimal.
func NewDecimal(d decimal.Decimal) Decimal { return Decimal{d: d} }

// DecimalFromInt builds a Decimal from an integer.
func DecimalFromInt(i int64) Decimal { return Decimal{d: decimal.NewFromInt(i)} }

// DecimalFromString parses a decimal lexical form.
func DecimalFromString(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Decimal{}, types.NewError(types.ErrInvalidCast, "invalid decimal literal "+strconv.Quote(s), -1)
	}
	return Decimal{d: d}, nil
}

func (i Integer) ItemType() types.ItemType       { return types.IntegerType }
func (i Integer) PrimitiveKind() types.Primitive { return types.PrimInteger }
func (i Integer) StringValue() string            { return strconv.FormatInt(int64(i), 10) }
func (i Integer) Float64() float64               { return float64(i) }
func (i Integer) rank() int                      { return 0 }

func (d Decimal) ItemType() types.ItemType       { return types.DecimalType }
func (d Decimal) PrimitiveKind() types.Primitive { return types.PrimDecimal }
func (d Decimal) StringValue() string            { return d.d.String() }
func (d Decimal) Float64() float64               { f, _ := d.d.Float64(); return f }
func (d Decimal) rank() int                      { return 1 }

// Value returns the underlying shopspring decimal.
func (d Decimal) Value() decimal.Decimal { return d.d }

func (f Float) ItemType() types.ItemType       { return types.FloatType }
func (f Float) PrimitiveKind() types.Primitive { return types.PrimFloat }
func (f Float) StringValue() string            { return strconv.FormatFloat(float64(f), 'g', -1, 32) }
func (f Float) Float64() float64               { return float64(f) }
func (f Float) rank() int                      { return 2 }

func (d Double) ItemType() types.ItemType       { return types.DoubleType }
func (d Double) PrimitiveKind() types.Primitive { return types.PrimDouble }
func (d Double) StringValue() string            { return strconv.FormatFloat(float64(d), 'g', -1, 64) }
func (d Double) Float64() float64               { return float64(d) }
func (d Double) rank() int                      { return 3 }

// IsNaN reports whether n is a float or double NaN.
func IsNaN(n Numeric) bool {
	switch v := n.(type) {
	case Float:
		return math.IsNaN(float64(v))
	case Double:
		return math.IsNaN(float64(v))
	default:
		return false
	}
}

// Promote widens n to at least the given primitive kind.
func Promote(n Numeric, to types.Primitive) Numeric {
	switch to {
	case types.PrimDouble:
		return Double(n.Float64())
	case types.PrimFloat:
		if n.rank() < 2 {
			return Float(n.Float64())
		}
	case types.PrimDecimal:
		if i, ok := n.(Integer); ok {
			return DecimalFromInt(int64(i))
		}
	}
	return n
}

// promotePair widens both operands to the wider of the two kinds.
func promotePair(a, b Numeric) (Numeric, Numeric) {
	if a.rank() == b.rank() {
		return a, b
	}
	wider := a
	if b.rank() > a.rank() {
		wider = b
	}
	switch wider.rank() {
	case 1:
		return Promote(a, types.PrimDecimal), Promote(b, types.PrimDecimal)
	case 2:
		return Promote(a, types.PrimFloat), Promote(b, types.PrimFloat)
	default:
		return Promote(a, types.PrimDouble), Promote(b, types.PrimDouble)
	}
}

func compareNumeric(a, b Numeric) int {
	a, b = promotePair(a, b)
	switch av := a.(type) {
	case Integer:
		return cmpOrdered(int64(av), int64(b.(Integer)))
	case Decimal:
		return av.d.Cmp(b.(Decimal).d)
	case Float:
		return cmpOrdered(float64(av), float64(b.(Float)))
	default:
		return cmpOrdered(float64(a.(Double)), float64(b.(Double)))
	}
}

// ArithOp identifies a numeric arithmetic operation.
type ArithOp uint8

const (
	OpAdd ArithOp = iota
	OpSubtract
	OpMultiply
	OpDivide
	OpIntegerDivide
	OpMod
)

func (op ArithOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSubtract:
		return "-"
	case OpMultiply:
		return "*"
	case OpDivide:
		return "div"
	case OpIntegerDivide:
		return "idiv"
	default:
		return "mod"
	}
}

// Arithmetic applies op to two numeric operands after pairwise promotion.
// Per the XPath rules, integer div integer yields a decimal; idiv always
// yields an integer. Integer and decimal faults become FOAR0001/FOAR0002;
// float and double arithmetic follows IEEE 754 except for idiv, which
// rejects NaN and infinite operands.
func Arithmetic(a, b Numeric, op ArithOp) (Numeric, error) {
	// div never stays in the integer domain
	if op == OpDivide {
		if _, ok := a.(Integer); ok {
			a = Promote(a, types.PrimDecimal)
		}
		if _, ok := b.(Integer); ok {
			b = Promote(b, types.PrimDecimal)
		}
	}
	a, b = promotePair(a, b)
	switch av := a.(type) {
	case Integer:
		return integerArithmetic(int64(av), int64(b.(Integer)), op)
	case Decimal:
		return decimalArithmetic(av.d, b.(Decimal).d, op)
	case Float:
		r, err := doubleArithmetic(float64(av), float64(b.(Float)), op)
		if err != nil {
			return nil, err
		}
		if _, ok := r.(Integer); ok {
			return r, nil
		}
		return Float(r.Float64()), nil
	default:
		return doubleArithmetic(float64(a.(Double)), float64(b.(Double)), op)
	}
}

// Negate returns the arithmetic negation of n.
func Negate(n Numeric) (Numeric, error) {
	switch v := n.(type) {
	case Integer:
		if v == math.MinInt64 {
			return nil, types.NewError(types.ErrNumericOverflow, "integer overflow in unary minus", -1)
		}
		return -v, nil
	case Decimal:
		return Decimal{d: v.d.Neg()}, nil
	case Float:
		return -v, nil
	default:
		return -(n.(Double)), nil
	}
}

func integerArithmetic(a, b int64, op ArithOp) (Numeric, error) {
	switch op {
	case OpAdd:
		r := a + b
		if (r > a) != (b > 0) {
			return nil, overflowErr()
		}
		return Integer(r), nil
	case OpSubtract:
		r := a - b
		if (r < a) != (b > 0) {
			return nil, overflowErr()
		}
		return Integer(r), nil
	case OpMultiply:
		if a == 0 || b == 0 {
			return Integer(0), nil
		}
		r := a * b
		if r/b != a || (a == math.MinInt64 && b == -1) {
			return nil, overflowErr()
		}
		return Integer(r), nil
	case OpIntegerDivide:
		if b == 0 {
			return nil, divZeroErr()
		}
		if a == math.MinInt64 && b == -1 {
			return nil, overflowErr()
		}
		return Integer(a / b), nil
	case OpMod:
		if b == 0 {
			return nil, divZeroErr()
		}
		return Integer(a % b), nil
	default:
		// unreachable: div is promoted to decimal before dispatch
		return nil, types.NewError(types.ErrInvalidArgument, "integer div not promoted", -1)
	}
}

// decimalDivisionScale bounds the precision of non-terminating decimal
// divisions (e.g. 1 div 3).
const decimalDivisionScale = 18

func decimalArithmetic(a, b decimal.Decimal, op ArithOp) (Numeric, error) {
	switch op {
	case OpAdd:
		return Decimal{d: a.Add(b)}, nil
	case OpSubtract:
		return Decimal{d: a.Sub(b)}, nil
	case OpMultiply:
		return Decimal{d: a.Mul(b)}, nil
	case OpDivide:
		if b.IsZero() {
			return nil, divZeroErr()
		}
		return Decimal{d: a.DivRound(b, decimalDivisionScale)}, nil
	case OpIntegerDivide:
		if b.IsZero() {
			return nil, divZeroErr()
		}
		q := a.Div(b).Truncate(0)
		if !q.BigInt().IsInt64() {
			return nil, overflowErr()
		}
		return Integer(q.IntPart()), nil
	default: // OpMod
		if b.IsZero() {
			return nil, divZeroErr()
		}
		return Decimal{d: a.Mod(b)}, nil
	}
}

func doubleArithmetic(a, b float64, op ArithOp) (Numeric, error) {
	switch op {
	case OpAdd:
		return Double(a + b), nil
	case OpSubtract:
		return Double(a - b), nil
	case OpMultiply:
		return Double(a * b), nil
	case OpDivide:
		// IEEE semantics: x div 0 is ±Inf, 0 div 0 is NaN
		return Double(a / b), nil
	case OpIntegerDivide:
		if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) {
			return nil, overflowErr()
		}
		if b == 0 {
			return nil, divZeroErr()
		}
		q := math.Trunc(a / b)
		if q < math.MinInt64 || q >= math.MaxInt64 {
			return nil, overflowErr()
		}
		return Integer(int64(q)), nil
	default: // OpMod
		return Double(math.Mod(a, b)), nil
	}
}

func nan() float64         { return math.NaN() }
func inf(sign int) float64 { return math.Inf(sign) }

func divZeroErr() *types.Error {
	return types.NewError(types.ErrDivisionByZero, "division by zero", -1)
}

func overflowErr() *types.Error {
	return types.NewError(types.ErrNumericOverflow, "numeric operation overflow", -1)
}

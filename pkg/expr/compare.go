package expr

import (
	"github.com/sandrolain/goxp/pkg/types"
	"github.com/sandrolain/goxp/pkg/value"
)

// CompareOp is one of the six ordering operators shared by value and
// general comparisons.
type CompareOp uint8

const (
	CmpEq CompareOp = iota
	CmpNe
	CmpLt
	CmpLe
	CmpGt
	CmpGe
)

var compareOpNames = map[CompareOp]string{
	CmpEq: "eq", CmpNe: "ne", CmpLt: "lt", CmpLe: "le", CmpGt: "gt", CmpGe: "ge",
}

func (op CompareOp) String() string { return compareOpNames[op] }

// Inverse returns the operator with the operand order swapped.
func (op CompareOp) Inverse() CompareOp {
	switch op {
	case CmpLt:
		return CmpGt
	case CmpLe:
		return CmpGe
	case CmpGt:
		return CmpLt
	case CmpGe:
		return CmpLe
	default:
		return op
	}
}

// holds reports whether a three-way comparison outcome satisfies the
// operator.
func (op CompareOp) holds(c int) bool {
	switch op {
	case CmpEq:
		return c == 0
	case CmpNe:
		return c != 0
	case CmpLt:
		return c < 0
	case CmpLe:
		return c <= 0
	case CmpGt:
		return c > 0
	default:
		return c >= 0
	}
}

// ValueComparison compares two single atomic values. An empty operand
// yields the empty sequence.
type ValueComparison struct {
	binaryExpr
	op CompareOp
}

// NewValueComparison builds a value comparison node.
func NewValueComparison(op CompareOp, lhs, rhs Expression) *ValueComparison {
	return &ValueComparison{binaryExpr: binaryExpr{lhs: lhs, rhs: rhs}, op: op}
}

func (v *ValueComparison) Op() CompareOp { return v.op }

func (v *ValueComparison) ItemType() types.ItemType { return types.BooleanType }

func (v *ValueComparison) Cardinality() types.Cardinality {
	card := types.ExactlyOne
	if v.lhs.Cardinality()&types.AllowsZero != 0 || v.rhs.Cardinality()&types.AllowsZero != 0 {
		card |= types.AllowsZero
	}
	return card
}

func (v *ValueComparison) Evaluate(ctx *Context) (types.Item, error) {
	lv, err := comparisonOperand(v.lhs, ctx, v)
	if err != nil || lv == nil {
		return nil, err
	}
	rv, err := comparisonOperand(v.rhs, ctx, v)
	if err != nil || rv == nil {
		return nil, err
	}
	lv, rv, err = coerceUntypedPair(lv, rv)
	if err != nil {
		return nil, locate(err, v)
	}
	res, err := compareAtomics(v.op, lv, rv)
	if err != nil {
		return nil, locate(err, v)
	}
	return value.Boolean(res), nil
}

func (v *ValueComparison) Iterate(ctx *Context) (SequenceIterator, error) {
	return iterateSingleton(v, ctx)
}

// comparisonOperand evaluates an operand to at most one atomic value,
// atomizing a node result.
func comparisonOperand(e Expression, ctx *Context, at Expression) (value.Atomic, error) {
	item, err := e.Evaluate(ctx)
	if err != nil || item == nil {
		return nil, err
	}
	return atomizeItem(item, ctx, at)
}

func atomizeItem(item types.Item, ctx *Context, at Expression) (value.Atomic, error) {
	if n, ok := item.(types.Node); ok {
		item = n.Atomize()
	}
	av, ok := item.(value.Atomic)
	if !ok {
		err := types.NewTypeError("comparison operand is not an atomic value")
		return nil, locate(err, at)
	}
	if d, ok := av.(value.Date); ok && !d.HasTZ {
		av = d.InZone(ctx.ImplicitTimezone())
	}
	return av, nil
}

// coerceUntypedPair applies the value-comparison untyped rules: one
// untyped operand converts to the other's primitive type, two untyped
// operands compare as strings.
func coerceUntypedPair(lv, rv value.Atomic) (value.Atomic, value.Atomic, error) {
	lu := lv.PrimitiveKind() == types.PrimUntyped
	ru := rv.PrimitiveKind() == types.PrimUntyped
	switch {
	case lu && ru:
		return value.String(lv.StringValue()), value.String(rv.StringValue()), nil
	case lu:
		conv, err := value.FromUntyped(lv.StringValue(), untypedTarget(rv))
		if err != nil {
			return nil, nil, err
		}
		return conv, rv, nil
	case ru:
		conv, err := value.FromUntyped(rv.StringValue(), untypedTarget(lv))
		if err != nil {
			return nil, nil, err
		}
		return lv, conv, nil
	}
	return lv, rv, nil
}

// untypedTarget picks the conversion target for an untyped operand paired
// with a typed one: numerics convert to double, everything else to the
// counterpart's own primitive.
func untypedTarget(other value.Atomic) types.Primitive {
	p := other.PrimitiveKind()
	if p.IsNumeric() {
		return types.PrimDouble
	}
	return p
}

func compareAtomics(op CompareOp, lv, rv value.Atomic) (bool, error) {
	if op == CmpEq || op == CmpNe {
		eq, err := value.Equal(lv, rv)
		if err != nil {
			return false, err
		}
		if op == CmpNe {
			return !eq, nil
		}
		return eq, nil
	}
	c, err := value.Compare(lv, rv)
	if err != nil {
		return false, err
	}
	return op.holds(c), nil
}

// NewComparison builds the comparison node best suited to the operands'
// static cardinalities: a value comparison when both sides are exactly
// one (the existential and value semantics coincide there), a singleton
// comparison streaming the many-valued side when the other is at most
// one, and the fully existential form otherwise.
func NewComparison(op CompareOp, lhs, rhs Expression) Expression {
	lc, rc := lhs.Cardinality(), rhs.Cardinality()
	switch {
	case lc == types.ExactlyOne && rc == types.ExactlyOne:
		return NewValueComparison(op, lhs, rhs)
	case rc&types.AllowsMany == 0:
		return NewSingletonComparison(op, lhs, rhs)
	case lc&types.AllowsMany == 0:
		return NewSingletonComparison(op.Inverse(), rhs, lhs)
	}
	return NewGeneralComparison(op, lhs, rhs)
}

// SingletonComparison is a general comparison whose right operand is
// statically known to be a single value: the left sequence is streamed
// and each item compared against the one right value.
type SingletonComparison struct {
	binaryExpr
	op CompareOp
}

// NewSingletonComparison builds a singleton general comparison; rhs must
// have cardinality at most one.
func NewSingletonComparison(op CompareOp, lhs, rhs Expression) *SingletonComparison {
	return &SingletonComparison{binaryExpr: binaryExpr{lhs: lhs, rhs: rhs}, op: op}
}

func (s *SingletonComparison) ItemType() types.ItemType       { return types.BooleanType }
func (s *SingletonComparison) Cardinality() types.Cardinality { return types.ExactlyOne }

func (s *SingletonComparison) Evaluate(ctx *Context) (types.Item, error) {
	rv, err := comparisonOperand(s.rhs, ctx, s)
	if err != nil {
		return nil, err
	}
	if rv == nil {
		return value.Boolean(false), nil
	}
	it, err := s.lhs.Iterate(ctx)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	for {
		item, err := it.Next()
		if err != nil {
			return nil, err
		}
		if item == nil {
			return value.Boolean(false), nil
		}
		lv, err := atomizeItem(item, ctx, s)
		if err != nil {
			return nil, err
		}
		ok, err := generalPairHolds(s.op, lv, rv)
		if err != nil {
			return nil, locate(err, s)
		}
		if ok {
			return value.Boolean(true), nil
		}
	}
}

func (s *SingletonComparison) Iterate(ctx *Context) (SequenceIterator, error) {
	return iterateSingleton(s, ctx)
}

// GeneralComparison is the existential form: true when any pairing of one
// item from each operand satisfies the operator. The right operand is
// materialized once, the left is streamed.
type GeneralComparison struct {
	binaryExpr
	op CompareOp
}

// NewGeneralComparison builds an existential comparison node.
func NewGeneralComparison(op CompareOp, lhs, rhs Expression) *GeneralComparison {
	return &GeneralComparison{binaryExpr: binaryExpr{lhs: lhs, rhs: rhs}, op: op}
}

func (g *GeneralComparison) Op() CompareOp { return g.op }

func (g *GeneralComparison) ItemType() types.ItemType       { return types.BooleanType }
func (g *GeneralComparison) Cardinality() types.Cardinality { return types.ExactlyOne }

func (g *GeneralComparison) Evaluate(ctx *Context) (types.Item, error) {
	rit, err := g.rhs.Iterate(ctx)
	if err != nil {
		return nil, err
	}
	rightItems, err := Materialize(rit)
	if err != nil {
		return nil, err
	}
	if len(rightItems) == 0 {
		return value.Boolean(false), nil
	}
	right := make([]value.Atomic, len(rightItems))
	for i, item := range rightItems {
		if right[i], err = atomizeItem(item, ctx, g); err != nil {
			return nil, err
		}
	}

	lit, err := g.lhs.Iterate(ctx)
	if err != nil {
		return nil, err
	}
	defer lit.Close()
	for {
		item, err := lit.Next()
		if err != nil {
			return nil, err
		}
		if item == nil {
			return value.Boolean(false), nil
		}
		lv, err := atomizeItem(item, ctx, g)
		if err != nil {
			return nil, err
		}
		for _, rv := range right {
			ok, err := generalPairHolds(g.op, lv, rv)
			if err != nil {
				return nil, locate(err, g)
			}
			if ok {
				return value.Boolean(true), nil
			}
		}
	}
}

func (g *GeneralComparison) Iterate(ctx *Context) (SequenceIterator, error) {
	return iterateSingleton(g, ctx)
}

// generalPairHolds compares one pair under general-comparison untyped
// rules: an untyped operand paired with a numeric converts to double,
// with another untyped or a string compares as string, otherwise it
// converts to the counterpart's primitive.
func generalPairHolds(op CompareOp, lv, rv value.Atomic) (bool, error) {
	lv2, rv2, err := coerceUntypedPair(lv, rv)
	if err != nil {
		return false, err
	}
	return compareAtomics(op, lv2, rv2)
}

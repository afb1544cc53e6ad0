package expr

import (
	"math"

	"github.com/sandrolain/goxp/pkg/types"
	"github.com/sandrolain/goxp/pkg/value"
)

// ArithmeticExpr is a binary arithmetic operator. The operator's action
// is resolved from the operand types during type checking where possible;
// otherwise dispatch happens at run time against the evaluated operands.
type ArithmeticExpr struct {
	binaryExpr
	op     value.ArithOp
	action Action
	result types.Primitive
	compat bool
}

// NewArithmetic builds an arithmetic node over unchecked operands. The
// action starts as ActionUnknown until Resolve refines it.
func NewArithmetic(op value.ArithOp, lhs, rhs Expression) *ArithmeticExpr {
	return &ArithmeticExpr{
		binaryExpr: binaryExpr{lhs: lhs, rhs: rhs},
		op:         op,
		action:     ActionUnknown,
		result:     types.PrimAnyAtomic,
	}
}

// Op returns the operator.
func (a *ArithmeticExpr) Op() value.ArithOp { return a.op }

// Action returns the resolved dispatch action.
func (a *ArithmeticExpr) Action() Action { return a.action }

// SetCompatibilityMode switches the node to 1.0 result semantics: an
// empty operand yields NaN rather than the empty sequence, and untyped
// operands convert via the 1.0 number() fallback.
func (a *ArithmeticExpr) SetCompatibilityMode(on bool) { a.compat = on }

// Resolve consults the dispatch tables with the checked operand types and
// records the chosen action. A pairing no signature admits is a static
// type error.
func (a *ArithmeticExpr) Resolve() error {
	lp := a.lhs.ItemType().Primitive()
	rp := a.rhs.ItemType().Primitive()
	action, result := GetAction(a.op, lp, rp)
	if action == ActionIllegal {
		err := types.NewTypeError("operator " + a.op.String() + " is not defined for " +
			a.lhs.ItemType().String() + " and " + a.rhs.ItemType().String())
		return locate(err, a)
	}
	a.action = action
	a.result = result
	return nil
}

func (a *ArithmeticExpr) ItemType() types.ItemType {
	lp := a.lhs.ItemType().Primitive()
	rp := a.rhs.ItemType().Primitive()
	if a.result == types.PrimNumeric && lp.IsNumeric() && rp.IsNumeric() {
		switch a.op {
		case value.OpDivide:
			// integer div integer yields decimal
			if lp == types.PrimInteger && rp == types.PrimInteger {
				return types.DecimalType
			}
		case value.OpIntegerDivide:
			return types.IntegerType
		}
	}
	if a.action == ActionDurationPlusDuration && lp.IsDuration() && lp == rp {
		return primToItemType(lp)
	}
	if a.action == ActionDurationTimesNumber {
		if lp.IsDuration() {
			return primToItemType(lp)
		}
		return primToItemType(rp)
	}
	return resultItemType(a.result, lp, rp)
}

func (a *ArithmeticExpr) Cardinality() types.Cardinality {
	if a.compat {
		return types.ExactlyOne
	}
	card := types.ExactlyOne
	if a.lhs.Cardinality()&types.AllowsZero != 0 || a.rhs.Cardinality()&types.AllowsZero != 0 {
		card |= types.AllowsZero
	}
	return card
}

func (a *ArithmeticExpr) Evaluate(ctx *Context) (types.Item, error) {
	lv, err := a.operandValue(a.lhs, ctx)
	if err != nil {
		return nil, err
	}
	rv, err := a.operandValue(a.rhs, ctx)
	if err != nil {
		return nil, err
	}
	if lv == nil || rv == nil {
		if a.compat {
			return value.Double(math.NaN()), nil
		}
		return nil, nil
	}
	res, err := a.apply(ctx, lv, rv)
	if err != nil {
		return nil, locate(err, a)
	}
	return res, nil
}

func (a *ArithmeticExpr) Iterate(ctx *Context) (SequenceIterator, error) {
	return iterateSingleton(a, ctx)
}

// operandValue evaluates one operand to at most one atomic value,
// applying the untyped conversion appropriate for the mode.
func (a *ArithmeticExpr) operandValue(e Expression, ctx *Context) (value.Atomic, error) {
	item, err := e.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	av, ok := item.(value.Atomic)
	if !ok {
		if n, isNode := item.(types.Node); isNode {
			item = n.Atomize()
			av, ok = item.(value.Atomic)
		}
		if !ok {
			err := types.NewTypeError("operand of " + a.op.String() + " is not an atomic value")
			return nil, locate(err, a)
		}
	}
	switch v := av.(type) {
	case value.Untyped:
		if a.compat {
			return value.ToDouble(v), nil
		}
		conv, err := value.FromUntyped(string(v), types.PrimDouble)
		if err != nil {
			return nil, locate(err, a)
		}
		return conv, nil
	case value.String:
		if a.compat {
			return value.ToDouble(v), nil
		}
	case value.Boolean:
		if a.compat {
			return value.ToDouble(v), nil
		}
	}
	return av, nil
}

// apply performs the operation on two present atomic operands, choosing
// the action at run time when static resolution left it unknown.
func (a *ArithmeticExpr) apply(ctx *Context, lv, rv value.Atomic) (types.Item, error) {
	action := a.action
	if action == ActionUnknown || action == ActionIllegal {
		var ok bool
		action, ok = runtimeAction(a.op, lv, rv)
		if !ok {
			return nil, types.NewTypeError("operator " + a.op.String() + " is not defined for " +
				lv.ItemType().String() + " and " + rv.ItemType().String())
		}
	}

	switch action {
	case ActionNumeric:
		ln, err := asNumeric(lv, a.op)
		if err != nil {
			return nil, err
		}
		rn, err := asNumeric(rv, a.op)
		if err != nil {
			return nil, err
		}
		return value.Arithmetic(ln, rn, a.op)

	case ActionDatePlusDuration:
		return a.datePlusDuration(lv, rv)

	case ActionDateMinusDate:
		ld := lv.(value.Date)
		rd := rv.(value.Date)
		return ld.MinusDate(rd, ctx.ImplicitTimezone()), nil

	case ActionDurationPlusDuration:
		return a.durationPlusDuration(lv, rv)

	case ActionDurationTimesNumber:
		return a.durationTimesNumber(lv, rv)

	case ActionDurationDivDuration:
		return durationRatio(lv, rv)
	}
	return nil, types.NewTypeError("operator " + a.op.String() + " is not defined for " +
		lv.ItemType().String() + " and " + rv.ItemType().String())
}

func (a *ArithmeticExpr) datePlusDuration(lv, rv value.Atomic) (types.Item, error) {
	d, dur := lv, rv
	if _, ok := lv.(value.Date); !ok {
		if a.op == value.OpSubtract {
			return nil, types.NewTypeError("cannot subtract a date from a duration")
		}
		d, dur = rv, lv
	}
	date := d.(value.Date)
	negate := a.op == value.OpSubtract
	switch du := dur.(type) {
	case value.DayTimeDuration:
		if negate {
			du = du.Negate()
		}
		return date.PlusDayTime(du), nil
	case value.YearMonthDuration:
		if negate {
			du = du.Negate()
		}
		return date.PlusYearMonth(du), nil
	}
	return nil, types.NewTypeError("cannot add a " + dur.ItemType().String() + " to a date")
}

func (a *ArithmeticExpr) durationPlusDuration(lv, rv value.Atomic) (types.Item, error) {
	negate := a.op == value.OpSubtract
	switch l := lv.(type) {
	case value.DayTimeDuration:
		r, ok := rv.(value.DayTimeDuration)
		if !ok {
			break
		}
		if negate {
			r = r.Negate()
		}
		return l.Plus(r), nil
	case value.YearMonthDuration:
		r, ok := rv.(value.YearMonthDuration)
		if !ok {
			break
		}
		if negate {
			r = r.Negate()
		}
		return l.Plus(r), nil
	}
	return nil, types.NewTypeError("cannot combine " + lv.ItemType().String() +
		" and " + rv.ItemType().String() + " with " + a.op.String())
}

func (a *ArithmeticExpr) durationTimesNumber(lv, rv value.Atomic) (types.Item, error) {
	dur, num := lv, rv
	if _, ok := lv.(value.Numeric); ok {
		if a.op == value.OpDivide {
			return nil, types.NewTypeError("cannot divide a number by a duration")
		}
		dur, num = rv, lv
	}
	n, err := asNumeric(num, a.op)
	if err != nil {
		return nil, err
	}
	factor := n.Float64()
	if a.op == value.OpDivide {
		if factor == 0 {
			return nil, types.NewError(types.ErrDivisionByZero, "division of a duration by zero", -1)
		}
		factor = 1 / factor
	}
	switch d := dur.(type) {
	case value.DayTimeDuration:
		return d.Times(factor)
	case value.YearMonthDuration:
		return d.Times(factor)
	}
	return nil, types.NewTypeError("cannot scale a " + dur.ItemType().String())
}

func durationRatio(lv, rv value.Atomic) (types.Item, error) {
	switch l := lv.(type) {
	case value.DayTimeDuration:
		if r, ok := rv.(value.DayTimeDuration); ok {
			return l.Ratio(r)
		}
	case value.YearMonthDuration:
		if r, ok := rv.(value.YearMonthDuration); ok {
			return l.Ratio(r)
		}
	}
	return nil, types.NewTypeError("duration division requires durations of the same kind")
}

// runtimeAction classifies evaluated operands when the static types were
// too loose to resolve the action at compile time.
func runtimeAction(op value.ArithOp, lv, rv value.Atomic) (Action, bool) {
	action, _ := GetAction(op, lv.PrimitiveKind(), rv.PrimitiveKind())
	if action == ActionUnknown || action == ActionIllegal {
		return ActionIllegal, false
	}
	return action, true
}

func asNumeric(av value.Atomic, op value.ArithOp) (value.Numeric, error) {
	if n, ok := av.(value.Numeric); ok {
		return n, nil
	}
	return nil, types.NewTypeError("operand of " + op.String() + " is not numeric: " +
		av.ItemType().String())
}

// NegateExpr is the unary minus operator. Unary plus is eliminated during
// parsing and never reaches the tree.
type NegateExpr struct {
	unaryExpr
	compat bool
}

// NewNegate builds a unary minus over the operand.
func NewNegate(operand Expression) *NegateExpr {
	return &NegateExpr{unaryExpr: unaryExpr{operand: operand}}
}

// SetCompatibilityMode switches an empty operand's result from the empty
// sequence to NaN.
func (n *NegateExpr) SetCompatibilityMode(on bool) { n.compat = on }

func (n *NegateExpr) ItemType() types.ItemType {
	t := n.operand.ItemType()
	if t.Primitive().IsNumeric() {
		return t
	}
	return types.NumericType
}

func (n *NegateExpr) Cardinality() types.Cardinality {
	if n.compat {
		return types.ExactlyOne
	}
	return n.operand.Cardinality() & (types.AllowsZero | types.AllowsOne)
}

func (n *NegateExpr) Evaluate(ctx *Context) (types.Item, error) {
	item, err := n.operand.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	if item == nil {
		if n.compat {
			return value.Double(math.NaN()), nil
		}
		return nil, nil
	}
	av, ok := item.(value.Atomic)
	if ok {
		if u, isUntyped := av.(value.Untyped); isUntyped {
			if n.compat {
				av = value.ToDouble(u)
			} else {
				if av, err = value.FromUntyped(string(u), types.PrimDouble); err != nil {
					return nil, locate(err, n)
				}
			}
		}
	}
	num, isNum := av.(value.Numeric)
	if !ok || !isNum {
		err := types.NewTypeError("operand of unary minus is not numeric")
		return nil, locate(err, n)
	}
	res, err := value.Negate(num)
	if err != nil {
		return nil, locate(err, n)
	}
	return res, nil
}

func (n *NegateExpr) Iterate(ctx *Context) (SequenceIterator, error) {
	return iterateSingleton(n, ctx)
}

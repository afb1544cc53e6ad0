package expr

import (
	"github.com/sandrolain/goxp/pkg/types"
	"github.com/sandrolain/goxp/pkg/value"
)

// Action names the implementation family an arithmetic operator resolves
// to once the primitive types of both operands are known.
type Action uint8

const (
	// ActionUnknown defers the choice to run time.
	ActionUnknown Action = iota
	// ActionIllegal marks an operand pairing no operator signature admits.
	ActionIllegal
	// ActionNumeric is numeric arithmetic with pairwise promotion.
	ActionNumeric
	// ActionDatePlusDuration covers date+duration and date-duration.
	ActionDatePlusDuration
	// ActionDateMinusDate is date subtraction yielding a dayTimeDuration.
	ActionDateMinusDate
	// ActionDurationPlusDuration covers same-kind duration add/subtract.
	ActionDurationPlusDuration
	// ActionDurationTimesNumber covers duration scaling by a number.
	ActionDurationTimesNumber
	// ActionDurationDivDuration is the duration ratio, a double.
	ActionDurationDivDuration
)

var actionNames = map[Action]string{
	ActionUnknown:              "unknown",
	ActionIllegal:              "illegal",
	ActionNumeric:              "numeric",
	ActionDatePlusDuration:     "date-plus-duration",
	ActionDateMinusDate:        "date-minus-date",
	ActionDurationPlusDuration: "duration-plus-duration",
	ActionDurationTimesNumber:  "duration-times-number",
	ActionDurationDivDuration:  "duration-div-duration",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "action?"
}

// signature is one admissible operand pairing for an operator.
type signature struct {
	left, right types.Primitive
	action      Action
	// result is the statically known result primitive, or PrimAnyAtomic
	// when the result depends on the runtime operands.
	result types.Primitive
}

// Operand primitives are normalized before table lookup: every numeric
// primitive collapses to PrimNumeric and every duration subtype to
// PrimDuration, so the tables stay small. Untyped operands normalize to
// PrimNumeric because untyped atomics are converted to double before
// arithmetic.
func normalizeArith(p types.Primitive) types.Primitive {
	switch {
	case p.IsNumeric() || p == types.PrimUntyped:
		return types.PrimNumeric
	case p.IsDuration():
		return types.PrimDuration
	default:
		return p
	}
}

var addSignatures = []signature{
	{types.PrimNumeric, types.PrimNumeric, ActionNumeric, types.PrimNumeric},
	{types.PrimDate, types.PrimDuration, ActionDatePlusDuration, types.PrimDate},
	{types.PrimDuration, types.PrimDate, ActionDatePlusDuration, types.PrimDate},
	{types.PrimDuration, types.PrimDuration, ActionDurationPlusDuration, types.PrimDuration},
}

var subtractSignatures = []signature{
	{types.PrimNumeric, types.PrimNumeric, ActionNumeric, types.PrimNumeric},
	{types.PrimDate, types.PrimDuration, ActionDatePlusDuration, types.PrimDate},
	{types.PrimDate, types.PrimDate, ActionDateMinusDate, types.PrimDayTimeDuration},
	{types.PrimDuration, types.PrimDuration, ActionDurationPlusDuration, types.PrimDuration},
}

var multiplySignatures = []signature{
	{types.PrimNumeric, types.PrimNumeric, ActionNumeric, types.PrimNumeric},
	{types.PrimDuration, types.PrimNumeric, ActionDurationTimesNumber, types.PrimDuration},
	{types.PrimNumeric, types.PrimDuration, ActionDurationTimesNumber, types.PrimDuration},
}

var divideSignatures = []signature{
	{types.PrimNumeric, types.PrimNumeric, ActionNumeric, types.PrimNumeric},
	{types.PrimDuration, types.PrimNumeric, ActionDurationTimesNumber, types.PrimDuration},
	{types.PrimDuration, types.PrimDuration, ActionDurationDivDuration, types.PrimDouble},
}

var integerOnlySignatures = []signature{
	{types.PrimNumeric, types.PrimNumeric, ActionNumeric, types.PrimNumeric},
}

var opSignatures = map[value.ArithOp][]signature{
	value.OpAdd:           addSignatures,
	value.OpSubtract:      subtractSignatures,
	value.OpMultiply:      multiplySignatures,
	value.OpDivide:        divideSignatures,
	value.OpIntegerDivide: integerOnlySignatures,
	value.OpMod:           integerOnlySignatures,
}

// GetAction resolves an operator against the normalized primitives of its
// operands. PrimAnyAtomic on either side stands for a statically unknown
// operand and yields ActionUnknown whenever any signature could match its
// counterpart.
func GetAction(op value.ArithOp, left, right types.Primitive) (Action, types.Primitive) {
	l := normalizeArith(left)
	r := normalizeArith(right)
	sigs := opSignatures[op]

	if l == types.PrimAnyAtomic || r == types.PrimAnyAtomic {
		for _, sig := range sigs {
			if l == types.PrimAnyAtomic && r == types.PrimAnyAtomic {
				return ActionUnknown, types.PrimAnyAtomic
			}
			if l == sig.left || r == sig.right {
				return ActionUnknown, types.PrimAnyAtomic
			}
		}
		return ActionIllegal, types.PrimAnyAtomic
	}

	for _, sig := range sigs {
		if l == sig.left && r == sig.right {
			return sig.action, sig.result
		}
	}
	return ActionIllegal, types.PrimAnyAtomic
}

// resultItemType maps a statically resolved result primitive back to an
// item type, refining PrimNumeric to the promoted type of the operands
// when both are known.
func resultItemType(result, left, right types.Primitive) types.ItemType {
	if result == types.PrimNumeric {
		if left.IsNumeric() && right.IsNumeric() {
			return primToItemType(promotedPrimitive(left, right))
		}
		return types.NumericType
	}
	return primToItemType(result)
}

// promotedPrimitive follows the numeric promotion lattice, with the
// integer division exception handled by the caller.
func promotedPrimitive(a, b types.Primitive) types.Primitive {
	rank := func(p types.Primitive) int {
		switch p {
		case types.PrimInteger:
			return 0
		case types.PrimDecimal:
			return 1
		case types.PrimFloat:
			return 2
		default:
			return 3
		}
	}
	if rank(a) >= rank(b) {
		return a
	}
	return b
}

func primToItemType(p types.Primitive) types.ItemType {
	switch p {
	case types.PrimString:
		return types.StringType
	case types.PrimBoolean:
		return types.BooleanType
	case types.PrimInteger:
		return types.IntegerType
	case types.PrimDecimal:
		return types.DecimalType
	case types.PrimFloat:
		return types.FloatType
	case types.PrimDouble:
		return types.DoubleType
	case types.PrimNumeric:
		return types.NumericType
	case types.PrimDate:
		return types.DateType
	case types.PrimDuration:
		return types.DurationType
	case types.PrimDayTimeDuration:
		return types.DayTimeDurationType
	case types.PrimYearMonthDuration:
		return types.YearMonthDurationType
	case types.PrimAnyURI:
		return types.AnyURIType
	case types.PrimUntyped:
		return types.UntypedAtomicType
	default:
		return types.AnyAtomicType
	}
}

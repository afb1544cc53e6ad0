package expr

import (
	"github.com/sandrolain/goxp/pkg/types"
)

// Checker performs static type checking of an expression against a
// required sequence type. Checking is also a rewriting pass: where the
// supplied type is not statically acceptable the checker wraps the
// expression in conversion or run-time checking nodes, so evaluation
// never re-derives what the checker already proved.
type Checker struct {
	// Compat enables the 1.0 function conversion rules: sequences are
	// truncated to their first item and operands convert via string()
	// and number() where the required type asks for them.
	Compat bool
	// Warn receives diagnostics for checks that cannot fail statically
	// but are statically suspicious. May be nil.
	Warn func(msg string)
}

// Check verifies expr against required and returns the possibly rewritten
// expression. A supplied type that can never satisfy the required type is
// reported immediately; an overlap defers to a run-time check.
func (c *Checker) Check(e Expression, required types.SequenceType, role *types.Role) (Expression, error) {
	if required.Item == types.AnyItem && required.Card == types.ZeroOrMore {
		return e, nil
	}

	if c.Compat {
		var err error
		if e, err = c.compatConversions(e, required, role); err != nil {
			return nil, err
		}
	}

	supplied := e.ItemType()
	relation := types.Relationship(supplied, required.Item)
	itemOK := relation == types.Same || relation == types.SubsumedBy
	cardOK := required.Card.Subsumes(e.Cardinality())
	if itemOK && cardOK {
		return e, nil
	}

	if !itemOK && required.Item.Atomic() {
		e = c.atomicConversions(e, required.Item, role)
		supplied = e.ItemType()
		relation = types.Relationship(supplied, required.Item)
		itemOK = relation == types.Same || relation == types.SubsumedBy
	}

	if !itemOK {
		if relation == types.Disjoint {
			bothEmpty := required.Card&types.AllowsZero != 0 &&
				e.Cardinality()&types.AllowsZero != 0
			if !bothEmpty {
				err := types.NewTypeError(role.Message() + " is required to be " +
					required.String() + "; supplied type " + supplied.String() +
					" is incompatible")
				return nil, locate(err, e)
			}
			// both types admit the empty sequence, so the check can
			// still succeed at run time
			if c.Warn != nil {
				c.Warn(role.Message() + " can only match " + required.String() +
					" if it is empty")
			}
		}
		e = NewItemChecker(e, required.Item, role)
	}

	if !required.Card.Subsumes(e.Cardinality()) {
		if required.Card&e.Cardinality() == 0 {
			err := types.NewTypeError(role.Message() + " must be " +
				required.Card.String() + "; supplied cardinality is " +
				e.Cardinality().String())
			return nil, locate(err, e)
		}
		e = NewCardinalityChecker(e, required.Card, role)
	}

	return c.foldLiteral(e)
}

// compatConversions applies the 1.0 rules before the 2.0 algorithm runs:
// truncate to the first item where a single value is required, then
// convert via string() or number() where the required type names one.
func (c *Checker) compatConversions(e Expression, required types.SequenceType, role *types.Role) (Expression, error) {
	if required.Card&types.AllowsMany != 0 {
		return e, nil
	}
	if e.Cardinality()&types.AllowsMany != 0 {
		e = NewFirstItemFilter(e)
	}
	switch required.Item.Primitive() {
	case types.PrimString:
		if e.ItemType().Primitive() != types.PrimString {
			e = NewStringConverter(e, role)
		}
	case types.PrimDouble, types.PrimNumeric:
		if !e.ItemType().Primitive().IsNumeric() {
			e = NewNumberConverter(e, role)
		}
	}
	return e, nil
}

// atomicConversions inserts the function conversion wrappers that can
// bring the supplied type closer to an atomic required type: atomization,
// untyped conversion and numeric promotion, in that order.
func (c *Checker) atomicConversions(e Expression, required types.ItemType, role *types.Role) Expression {
	supplied := e.ItemType()
	if !supplied.Atomic() {
		e = NewAtomizer(e, role)
		supplied = e.ItemType()
	}
	reqPrim := required.Primitive()
	if reqPrim != types.PrimAnyAtomic && reqPrim != types.PrimUntyped {
		sp := supplied.Primitive()
		if sp == types.PrimUntyped || sp == types.PrimAnyAtomic ||
			(sp == types.PrimAnyURI && reqPrim == types.PrimString) {
			e = NewUntypedConverter(e, required, role)
			supplied = e.ItemType()
		}
	}
	if reqPrim == types.PrimDouble || reqPrim == types.PrimFloat {
		sp := supplied.Primitive()
		if sp != reqPrim && (sp.IsNumeric() || sp == types.PrimAnyAtomic) {
			e = NewNumericPromoter(e, reqPrim, role)
		}
	}
	return e
}

// foldLiteral evaluates conversion wrappers over a literal operand at
// compile time, re-literalizing the result so the run-time tree carries
// the converted constant. A conversion failure over a constant is a
// static error.
func (c *Checker) foldLiteral(e Expression) (Expression, error) {
	if !literalBased(e) {
		return e, nil
	}
	it, err := e.Iterate(NewContext(0))
	if err != nil {
		return nil, err
	}
	items, err := Materialize(it)
	if err != nil {
		return nil, err
	}
	lit := NewLiteral(items...)
	lit.SetLocation(e.Location())
	return lit, nil
}

func literalBased(e Expression) bool {
	for {
		switch v := e.(type) {
		case *Literal:
			return true
		case *Atomizer:
			e = v.operand
		case *UntypedConverter:
			e = v.operand
		case *NumericPromoter:
			e = v.operand
		case *ItemChecker:
			e = v.operand
		case *CardinalityChecker:
			e = v.operand
		case *FirstItemFilter:
			e = v.operand
		case *StringConverter:
			e = v.operand
		case *NumberConverter:
			e = v.operand
		default:
			return false
		}
	}
}

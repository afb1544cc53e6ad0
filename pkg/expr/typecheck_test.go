package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/goxp/pkg/types"
	"github.com/sandrolain/goxp/pkg/value"
)

func TestCheckAnySequencePassesThrough(t *testing.T) {
	c := &Checker{}
	e := NewLiteral(value.String("a"))
	checked, err := c.Check(e, types.AnySequence, types.VariableRole("x"))
	require.NoError(t, err)
	assert.Same(t, Expression(e), checked)
}

func TestCheckExactMatchUnchanged(t *testing.T) {
	c := &Checker{}
	e := NewLiteral(value.Integer(1))
	checked, err := c.Check(e, types.Required(types.IntegerType, types.ExactlyOne), nil)
	require.NoError(t, err)
	assert.Same(t, Expression(e), checked)

	// a subtype also conforms as-is
	checked, err = c.Check(e, types.Required(types.DecimalType, types.ExactlyOne), nil)
	require.NoError(t, err)
	assert.Same(t, Expression(e), checked)
}

func TestCheckFoldsUntypedLiteral(t *testing.T) {
	c := &Checker{}
	e := NewLiteral(value.Untyped("3"))
	checked, err := c.Check(e, types.SingleDouble, types.FunctionArgRole("round", 0))
	require.NoError(t, err)

	lit, ok := checked.(*Literal)
	require.True(t, ok, "conversions over a constant fold back to a literal")
	assert.Equal(t, []types.Item{value.Double(3)}, lit.Items())
}

func TestCheckPromotesNumericLiteral(t *testing.T) {
	c := &Checker{}
	e := NewLiteral(value.Integer(2))
	checked, err := c.Check(e, types.SingleDouble, nil)
	require.NoError(t, err)

	lit, ok := checked.(*Literal)
	require.True(t, ok)
	assert.Equal(t, []types.Item{value.Double(2)}, lit.Items())
}

func TestCheckWidensAnyURIToString(t *testing.T) {
	c := &Checker{}
	e := NewLiteral(value.AnyURI("http://example.org/"))
	checked, err := c.Check(e, types.SingleString, types.FunctionArgRole("concat", 0))
	require.NoError(t, err)

	lit, ok := checked.(*Literal)
	require.True(t, ok)
	assert.Equal(t, []types.Item{value.String("http://example.org/")}, lit.Items())

	// string is not widened to anyURI in the other direction
	_, err = c.Check(NewLiteral(value.String("x")),
		types.Required(types.AnyURIType, types.ExactlyOne), nil)
	require.Error(t, err)
}

func TestCheckInvalidConstantIsStatic(t *testing.T) {
	c := &Checker{}
	e := NewLiteral(value.Untyped("not a number"))
	_, err := c.Check(e, types.SingleDouble, nil)
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidCast, types.AsError(err, "").Code)
}

func TestCheckDisjointTypesFailStatically(t *testing.T) {
	c := &Checker{}
	e := NewLiteral(value.String("x"))
	_, err := c.Check(e, types.SingleBoolean, types.OperandRole("and", 0))
	require.Error(t, err)
	xe := types.AsError(err, "")
	assert.True(t, xe.IsTypeError)
	assert.Contains(t, xe.Message, `first operand of "and"`)
}

func TestCheckDisjointButPossiblyEmpty(t *testing.T) {
	var warned string
	c := &Checker{Warn: func(msg string) { warned = msg }}

	// integer* against boolean? cannot be proven wrong statically: the
	// empty sequence satisfies both sides
	e := &countingExpr{}
	checked, err := c.Check(e, types.Required(types.BooleanType, types.ZeroOrOne), nil)
	require.NoError(t, err)
	assert.Contains(t, warned, "if it is empty")

	item, err := checked.Evaluate(NewContext(0))
	require.NoError(t, err)
	assert.Nil(t, item)

	e.items = ints(1)
	_, err = checked.Evaluate(NewContext(0))
	require.Error(t, err, "a non-empty result must fail the run-time check")
}

func TestCheckCardinalityStaticFailure(t *testing.T) {
	c := &Checker{}
	e := NewLiteral(ints(1, 2)...)
	_, err := c.Check(e, types.Required(types.IntegerType, types.ExactlyOne), nil)
	require.Error(t, err)
	assert.Contains(t, types.AsError(err, "").Message, "exactly one")
}

func TestCheckCardinalityRuntimeCheck(t *testing.T) {
	c := &Checker{}
	e := &countingExpr{items: ints(5)}
	checked, err := c.Check(e, types.Required(types.IntegerType, types.ExactlyOne), nil)
	require.NoError(t, err)
	_, ok := checked.(*CardinalityChecker)
	require.True(t, ok)

	item, err := checked.Evaluate(NewContext(0))
	require.NoError(t, err)
	assert.Equal(t, value.Integer(5), item)

	e.items = nil
	_, err = checked.Evaluate(NewContext(0))
	require.Error(t, err, "empty violates exactly-one at run time")

	e.items = ints(1, 2)
	_, err = checked.Evaluate(NewContext(0))
	require.Error(t, err, "surplus items violate exactly-one at run time")
}

func TestCheckCompatStringConversion(t *testing.T) {
	c := &Checker{Compat: true}
	e := NewLiteral(ints(1, 2)...)
	checked, err := c.Check(e, types.SingleString, nil)
	require.NoError(t, err)

	item, err := checked.Evaluate(NewContext(0))
	require.NoError(t, err)
	assert.Equal(t, value.String("1"), item, "1.0 rules truncate to the first item and stringify")
}

func TestCheckCompatManyValuedSkipsLegacyRules(t *testing.T) {
	c := &Checker{Compat: true}
	e := NewLiteral(ints(1, 2)...)
	_, err := c.Check(e, types.Required(types.StringType, types.ZeroOrMore),
		types.FunctionArgRole("string-join", 0))
	require.Error(t, err, "integers do not convert to string* under the 1.0 rules")

	// the legacy rules only fire when the required type is a singleton
	checked, err := c.Check(NewLiteral(value.String("a"), value.String("b")),
		types.Required(types.StringType, types.ZeroOrMore), nil)
	require.NoError(t, err)
	it, err := checked.Iterate(NewContext(0))
	require.NoError(t, err)
	defer it.Close()
	assert.Len(t, drain(t, it), 2, "a many-valued operand survives intact")
}

func TestCheckCompatNumberConversion(t *testing.T) {
	c := &Checker{Compat: true}
	e := NewLiteral(value.String("4"))
	checked, err := c.Check(e, types.SingleDouble, nil)
	require.NoError(t, err)

	item, err := checked.Evaluate(NewContext(0))
	require.NoError(t, err)
	assert.Equal(t, value.Double(4), item)
}

func TestCheckAtomizesNodes(t *testing.T) {
	c := &Checker{}
	node := orderedNode{key: 1, val: value.Double(2.5)}
	e := NewLiteral(node)
	checked, err := c.Check(e, types.SingleDouble, nil)
	require.NoError(t, err)

	item, err := checked.Evaluate(NewContext(0))
	require.NoError(t, err)
	assert.Equal(t, value.Double(2.5), item)
}

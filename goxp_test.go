package goxp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/goxp/pkg/cache"
	"github.com/sandrolain/goxp/pkg/expr"
	"github.com/sandrolain/goxp/pkg/types"
	"github.com/sandrolain/goxp/pkg/value"
)

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, Version())
}

func TestEngineCheckAndEvaluate(t *testing.T) {
	eng := New()

	tree := expr.NewArithmetic(value.OpAdd,
		expr.NewLiteral(value.Integer(2)), expr.NewLiteral(value.Integer(3)))
	root, err := eng.Check(tree, types.AnySequence, nil)
	require.NoError(t, err)

	items, err := eng.Evaluate(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []types.Item{value.Integer(5)}, items)
}

func TestEngineCheckRejectsBadTree(t *testing.T) {
	eng := New()
	tree := expr.NewLiteral(value.String("x"))
	_, err := eng.Check(tree, types.SingleBoolean, types.VariableRole("flag"))
	require.Error(t, err)
	assert.True(t, types.AsError(err, "").IsTypeError)
}

func TestEngineCompatibilityMode(t *testing.T) {
	eng := New(WithCompatibilityMode(true))

	// 1.0 rules truncate the sequence and convert via number()
	tree := expr.NewLiteral(value.String("4"), value.String("9"))
	root, err := eng.Check(tree, types.SingleDouble, nil)
	require.NoError(t, err)

	items, err := eng.Evaluate(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []types.Item{value.Double(4)}, items)
}

func TestEngineWarningHandler(t *testing.T) {
	var warnings []string
	eng := New(WithWarningHandler(func(msg string) { warnings = append(warnings, msg) }))

	// $xs is declared integer*, checked against boolean?: only the empty
	// sequence can satisfy both, so the check degrades to a warning plus a
	// run-time test
	binding := expr.NewLocalBinding("xs", 0, types.Required(types.IntegerType, types.ZeroOrMore))
	tree := expr.NewVariableReference(binding)
	_, err := eng.Check(tree, types.Required(types.BooleanType, types.ZeroOrOne), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, warnings)
}

func TestEngineIterate(t *testing.T) {
	eng := New()
	root := expr.NewLiteral(value.Integer(1), value.Integer(2), value.Integer(3))

	it, err := eng.Iterate(context.Background(), root)
	require.NoError(t, err)
	defer it.Close()

	item, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, value.Integer(1), item)
	assert.Equal(t, 1, it.Position())
	assert.Equal(t, value.Integer(1), it.Current())

	rest, err := expr.Materialize(it)
	require.NoError(t, err)
	assert.Len(t, rest, 2)
}

func TestEngineCancellation(t *testing.T) {
	eng := New()
	root := expr.NewLiteral(value.Integer(1), value.Integer(2))

	ctx, cancel := context.WithCancel(context.Background())
	it, err := eng.Iterate(ctx, root)
	require.NoError(t, err)
	defer it.Close()

	_, err = it.Next()
	require.NoError(t, err)

	cancel()
	_, err = it.Next()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngineEvaluateWith(t *testing.T) {
	eng := New()
	binding := expr.NewLocalBinding("x", 0, types.AtomicSequence)
	root := expr.NewVariableReference(binding)

	dyn := expr.NewContext(1)
	dyn.Frame().SetSlot(0, expr.MaterializedValue([]types.Item{value.Integer(7)}))

	items, err := eng.EvaluateWith(context.Background(), root, dyn)
	require.NoError(t, err)
	assert.Equal(t, []types.Item{value.Integer(7)}, items)
}

func TestEngineCaching(t *testing.T) {
	eng := New(WithCaching(true), WithCacheSize(8))
	require.NotNil(t, eng.Cache())

	builds := 0
	build := func() (expr.Expression, error) {
		builds++
		return expr.NewLiteral(value.Integer(1)), nil
	}

	first, err := eng.CheckCached("1", build, types.AnySequence)
	require.NoError(t, err)
	second, err := eng.CheckCached("1", build, types.AnySequence)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, builds)
}

func TestEngineCachingDisabled(t *testing.T) {
	eng := New()
	assert.Nil(t, eng.Cache())

	builds := 0
	build := func() (expr.Expression, error) {
		builds++
		return expr.NewLiteral(value.Integer(1)), nil
	}

	_, err := eng.CheckCached("1", build, types.AnySequence)
	require.NoError(t, err)
	_, err = eng.CheckCached("1", build, types.AnySequence)
	require.NoError(t, err)
	assert.Equal(t, 2, builds, "without a cache every call rebuilds")
}

func TestEngineExternalCache(t *testing.T) {
	shared := cache.New(4)
	eng := New(WithCache(shared))
	assert.Same(t, shared, eng.Cache())
}

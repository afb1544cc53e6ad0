package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/goxp/pkg/types"
	"github.com/sandrolain/goxp/pkg/value"
)

func evalVenn(t *testing.T, op VennOp, lhs, rhs []types.Item) []types.Item {
	t.Helper()
	v := NewVenn(op, NewLiteral(lhs...), NewLiteral(rhs...))
	it, err := v.Iterate(NewContext(0))
	require.NoError(t, err)
	defer it.Close()
	return drain(t, it)
}

func TestVennUnion(t *testing.T) {
	tests := []struct {
		name     string
		lhs, rhs []types.Item
		want     []types.Item
	}{
		{"interleaved", ints(1, 3, 5), ints(2, 4, 6), ints(1, 2, 3, 4, 5, 6)},
		{"overlapping", ints(1, 2, 3), ints(2, 3, 4), ints(1, 2, 3, 4)},
		{"left empty", nil, ints(1, 2), ints(1, 2)},
		{"right empty", ints(1, 2), nil, ints(1, 2)},
		{"both empty", nil, nil, nil},
		{"identical", ints(1, 2), ints(1, 2), ints(1, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, evalVenn(t, VennUnion, tt.lhs, tt.rhs))
		})
	}
}

func TestVennIntersect(t *testing.T) {
	tests := []struct {
		name     string
		lhs, rhs []types.Item
		want     []types.Item
	}{
		{"overlap", ints(1, 2, 3), ints(2, 3, 4), ints(2, 3)},
		{"disjoint", ints(1, 3), ints(2, 4), nil},
		{"left empty", nil, ints(1), nil},
		{"identical", ints(5, 6), ints(5, 6), ints(5, 6)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, evalVenn(t, VennIntersect, tt.lhs, tt.rhs))
		})
	}
}

func TestVennExcept(t *testing.T) {
	tests := []struct {
		name     string
		lhs, rhs []types.Item
		want     []types.Item
	}{
		{"removes overlap", ints(1, 2, 3), ints(2, 3, 4), ints(1)},
		{"right empty", ints(1, 2), nil, ints(1, 2)},
		{"removes all", ints(1, 2), ints(1, 2), nil},
		{"disjoint", ints(1, 3), ints(2, 4), ints(1, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, evalVenn(t, VennExcept, tt.lhs, tt.rhs))
		})
	}
}

func TestVennNormalizesUnorderedOperands(t *testing.T) {
	assert.Equal(t, ints(1, 2, 3, 4),
		evalVenn(t, VennUnion, ints(3, 1, 2), ints(4, 2)))
	assert.Equal(t, ints(1, 3),
		evalVenn(t, VennExcept, ints(3, 1, 1, 2), ints(2)))
	assert.Equal(t, ints(2, 3),
		evalVenn(t, VennIntersect, ints(3, 2), ints(2, 4, 3)))

	// a nested set operation is already ordered and is not re-wrapped
	inner := NewVenn(VennUnion, NewLiteral(ints(2, 1)...), NewLiteral(ints(3)...))
	outer := NewVenn(VennIntersect, inner, NewLiteral(ints(5, 1)...))
	it, err := outer.Iterate(NewContext(0))
	require.NoError(t, err)
	defer it.Close()
	assert.Equal(t, ints(1), drain(t, it))
}

func TestVennIteratorProtocol(t *testing.T) {
	v := NewVenn(VennUnion, NewLiteral(ints(1, 3)...), NewLiteral(ints(2)...))
	it, err := v.Iterate(NewContext(0))
	require.NoError(t, err)
	defer it.Close()

	assert.Equal(t, 0, it.Position())
	item, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, value.Integer(1), item)
	assert.Equal(t, 1, it.Position())
	assert.Equal(t, value.Integer(1), it.Current())

	clone := it.Clone()
	assert.Equal(t, ints(1, 2, 3), drain(t, clone), "a clone restarts from the beginning")

	assert.Equal(t, ints(2, 3), drain(t, it))
	assert.Equal(t, -1, it.Position())
}

func TestVennMixedOperandsFail(t *testing.T) {
	v := NewVenn(VennUnion,
		NewLiteral(value.Integer(1)),
		NewLiteral(orderedNode{key: 1}))
	it, err := v.Iterate(NewContext(0))
	require.NoError(t, err)
	defer it.Close()
	_, err = it.Next()
	require.Error(t, err)
	assert.True(t, types.AsError(err, "").IsTypeError)
}

// orderedNode is a minimal node carrying only an order key.
type orderedNode struct {
	key int64
	val value.Atomic
}

func (n orderedNode) ItemType() types.ItemType { return types.AnyNode }
func (n orderedNode) OrderKey() int64          { return n.key }
func (n orderedNode) Atomize() types.Item {
	if n.val == nil {
		return value.Untyped("")
	}
	return n.val
}

func TestVennNodesByDocumentOrder(t *testing.T) {
	a := orderedNode{key: 1}
	b := orderedNode{key: 2}
	c := orderedNode{key: 3}

	got := evalVenn(t, VennUnion, []types.Item{a, c}, []types.Item{b, c})
	assert.Equal(t, []types.Item{a, b, c}, got)

	got = evalVenn(t, VennExcept, []types.Item{a, b, c}, []types.Item{b})
	assert.Equal(t, []types.Item{a, c}, got)
}

func TestVennStaticTypes(t *testing.T) {
	u := NewVenn(VennUnion, NewLiteral(ints(1, 2)...), NewLiteral(ints(3)...))
	assert.Equal(t, types.IntegerType, u.ItemType())
	assert.NotZero(t, u.Cardinality()&types.AllowsMany)

	mixed := NewVenn(VennUnion, NewLiteral(value.Integer(1)), NewLiteral(value.String("a")))
	assert.Equal(t, types.AnyItem, mixed.ItemType())

	except := NewVenn(VennExcept, NewLiteral(ints(1, 2)...), NewLiteral(value.String("a")))
	assert.Equal(t, types.IntegerType, except.ItemType())
	assert.NotZero(t, except.Cardinality()&types.AllowsZero)
}

func TestSortedDistinct(t *testing.T) {
	sd := NewSortedDistinct(NewLiteral(ints(3, 1, 2, 3, 1)...))
	it, err := sd.Iterate(NewContext(0))
	require.NoError(t, err)
	defer it.Close()
	assert.Equal(t, ints(1, 2, 3), drain(t, it))
}

func TestSortedDistinctSkipsVennOperands(t *testing.T) {
	v := NewVenn(VennUnion, NewLiteral(ints(1)...), NewLiteral(ints(2)...))
	assert.Same(t, Expression(v), NewSortedDistinct(v), "set operation results are already normalized")

	lit := NewLiteral(ints(1)...)
	_, isSorter := NewSortedDistinct(lit).(*SortedDistinct)
	assert.True(t, isSorter)
}

package expr

import (
	"sort"

	"github.com/sandrolain/goxp/pkg/types"
	"github.com/sandrolain/goxp/pkg/value"
)

// VennOp selects a set operation over two ordered sequences.
type VennOp uint8

const (
	VennUnion VennOp = iota
	VennIntersect
	VennExcept
)

var vennNames = map[VennOp]string{
	VennUnion: "union", VennIntersect: "intersect", VennExcept: "except",
}

func (op VennOp) String() string { return vennNames[op] }

// Comparator orders two items for a set operation.
type Comparator func(a, b types.Item) (int, error)

// DocumentOrder compares nodes by their order key and atomic values by
// their natural ordering.
func DocumentOrder(a, b types.Item) (int, error) {
	an, aok := a.(types.Node)
	bn, bok := b.(types.Node)
	if aok && bok {
		switch {
		case an.OrderKey() < bn.OrderKey():
			return -1, nil
		case an.OrderKey() > bn.OrderKey():
			return 1, nil
		default:
			return 0, nil
		}
	}
	av, aok := a.(value.Atomic)
	bv, bok := b.(value.Atomic)
	if aok && bok {
		return value.Compare(av, bv)
	}
	return 0, types.NewTypeError("set operands mix nodes and atomic values")
}

// VennExpr merges two ordered duplicate-free operand sequences in a
// single pass. Construction wraps each operand in a sorting normalizer
// unless it is a set operation itself, whose output is already ordered.
type VennExpr struct {
	binaryExpr
	op  VennOp
	cmp Comparator
}

// NewVenn builds a set operation node using document order.
func NewVenn(op VennOp, lhs, rhs Expression) *VennExpr {
	return &VennExpr{
		binaryExpr: binaryExpr{lhs: NewSortedDistinct(lhs), rhs: NewSortedDistinct(rhs)},
		op:         op,
		cmp:        DocumentOrder,
	}
}

// SetComparator overrides the merge ordering, on the normalizers too.
func (v *VennExpr) SetComparator(cmp Comparator) {
	v.cmp = cmp
	if s, ok := v.lhs.(*SortedDistinct); ok {
		s.cmp = cmp
	}
	if s, ok := v.rhs.(*SortedDistinct); ok {
		s.cmp = cmp
	}
}

func (v *VennExpr) Op() VennOp { return v.op }

func (v *VennExpr) ItemType() types.ItemType {
	lt := v.lhs.ItemType()
	rt := v.rhs.ItemType()
	if v.op != VennUnion {
		return lt
	}
	if types.Relationship(lt, rt) == types.Same {
		return lt
	}
	return types.AnyItem
}

func (v *VennExpr) Cardinality() types.Cardinality {
	switch v.op {
	case VennUnion:
		card := v.lhs.Cardinality().Union(v.rhs.Cardinality())
		if card&types.AllowsOne != 0 {
			card |= types.AllowsMany
		}
		return card
	default:
		return v.lhs.Cardinality() | types.AllowsZero
	}
}

func (v *VennExpr) Evaluate(ctx *Context) (types.Item, error) {
	it, err := v.Iterate(ctx)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	return First(it)
}

func (v *VennExpr) Iterate(ctx *Context) (SequenceIterator, error) {
	lit, err := v.lhs.Iterate(ctx)
	if err != nil {
		return nil, err
	}
	rit, err := v.rhs.Iterate(ctx)
	if err != nil {
		lit.Close()
		return nil, err
	}
	return &mergeIterator{op: v.op, cmp: v.cmp, left: lit, right: rit}, nil
}

// mergeIterator walks two ordered iterators in lockstep. Both inputs must
// be ordered under cmp and free of duplicates; the output then is too.
type mergeIterator struct {
	op    VennOp
	cmp   Comparator
	left  SequenceIterator
	right SequenceIterator

	lv, rv   types.Item
	started  bool
	current  types.Item
	position int
}

func (m *mergeIterator) Next() (types.Item, error) {
	if m.position < 0 {
		return nil, nil
	}
	if !m.started {
		m.started = true
		var err error
		if m.lv, err = m.left.Next(); err != nil {
			return nil, err
		}
		if m.rv, err = m.right.Next(); err != nil {
			return nil, err
		}
	}
	item, err := m.step()
	if err != nil {
		return nil, err
	}
	if item == nil {
		m.current = nil
		m.position = -1
		return nil, nil
	}
	m.current = item
	m.position++
	return item, nil
}

func (m *mergeIterator) step() (types.Item, error) {
	for {
		switch {
		case m.lv == nil && m.rv == nil:
			return nil, nil
		case m.lv == nil:
			if m.op != VennUnion {
				return nil, nil
			}
			item := m.rv
			var err error
			if m.rv, err = m.right.Next(); err != nil {
				return nil, err
			}
			return item, nil
		case m.rv == nil:
			if m.op == VennIntersect {
				return nil, nil
			}
			item := m.lv
			var err error
			if m.lv, err = m.left.Next(); err != nil {
				return nil, err
			}
			return item, nil
		}

		c, err := m.cmp(m.lv, m.rv)
		if err != nil {
			return nil, err
		}
		switch {
		case c < 0:
			item := m.lv
			if m.lv, err = m.left.Next(); err != nil {
				return nil, err
			}
			if m.op != VennIntersect {
				return item, nil
			}
		case c > 0:
			item := m.rv
			if m.rv, err = m.right.Next(); err != nil {
				return nil, err
			}
			if m.op == VennUnion {
				return item, nil
			}
		default:
			item := m.lv
			if m.lv, err = m.left.Next(); err != nil {
				return nil, err
			}
			if m.rv, err = m.right.Next(); err != nil {
				return nil, err
			}
			if m.op != VennExcept {
				return item, nil
			}
		}
	}
}

func (m *mergeIterator) Current() types.Item { return m.current }
func (m *mergeIterator) Position() int       { return m.position }

func (m *mergeIterator) Clone() SequenceIterator {
	return &mergeIterator{op: m.op, cmp: m.cmp, left: m.left.Clone(), right: m.right.Clone()}
}

func (m *mergeIterator) Close() {
	m.left.Close()
	m.right.Close()
}

// SortedDistinct normalizes its operand into document order with
// duplicates removed, as required on the inputs of a set operation.
// Operands that are themselves set operations are already normalized and
// skip the wrapper.
type SortedDistinct struct {
	unaryExpr
	cmp Comparator
}

// NewSortedDistinct wraps an operand in a sorting normalizer.
func NewSortedDistinct(operand Expression) Expression {
	if _, ok := operand.(*VennExpr); ok {
		return operand
	}
	return &SortedDistinct{unaryExpr: unaryExpr{operand: operand}, cmp: DocumentOrder}
}

func (s *SortedDistinct) ItemType() types.ItemType { return s.operand.ItemType() }

func (s *SortedDistinct) Cardinality() types.Cardinality {
	return s.operand.Cardinality()
}

func (s *SortedDistinct) Evaluate(ctx *Context) (types.Item, error) {
	it, err := s.Iterate(ctx)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	return First(it)
}

func (s *SortedDistinct) Iterate(ctx *Context) (SequenceIterator, error) {
	it, err := s.operand.Iterate(ctx)
	if err != nil {
		return nil, err
	}
	items, err := Materialize(it)
	if err != nil {
		return nil, err
	}
	var sortErr error
	sort.SliceStable(items, func(i, j int) bool {
		c, err := s.cmp(items[i], items[j])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return c < 0
	})
	if sortErr != nil {
		return nil, locate(sortErr, s)
	}
	out := items[:0]
	for i, item := range items {
		if i > 0 {
			c, err := s.cmp(items[i-1], item)
			if err != nil {
				return nil, locate(err, s)
			}
			if c == 0 {
				continue
			}
		}
		out = append(out, item)
	}
	return SliceIterator(out), nil
}

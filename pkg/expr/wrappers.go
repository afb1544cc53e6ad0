package expr

import (
	"math"

	"github.com/sandrolain/goxp/pkg/types"
	"github.com/sandrolain/goxp/pkg/value"
)

// mappingIterator applies a per-item transform to a base iterator. The
// transform may not change the sequence length.
type mappingIterator struct {
	base     SequenceIterator
	mapFn    func(types.Item) (types.Item, error)
	current  types.Item
	position int
}

func (m *mappingIterator) Next() (types.Item, error) {
	if m.position < 0 {
		return nil, nil
	}
	item, err := m.base.Next()
	if err != nil {
		return nil, err
	}
	if item == nil {
		m.current = nil
		m.position = -1
		return nil, nil
	}
	mapped, err := m.mapFn(item)
	if err != nil {
		return nil, err
	}
	m.current = mapped
	m.position++
	return mapped, nil
}

func (m *mappingIterator) Current() types.Item { return m.current }
func (m *mappingIterator) Position() int       { return m.position }

func (m *mappingIterator) Clone() SequenceIterator {
	return &mappingIterator{base: m.base.Clone(), mapFn: m.mapFn}
}

func (m *mappingIterator) Close() { m.base.Close() }

// mappingExpr is the shared shape of the conversion wrappers inserted by
// type checking: a unary node that transforms each item of its operand.
type mappingExpr struct {
	unaryExpr
	role *types.Role
}

func (w *mappingExpr) Cardinality() types.Cardinality { return w.operand.Cardinality() }

func iterateMapped(e Expression, ctx *Context, mapFn func(types.Item) (types.Item, error)) (SequenceIterator, error) {
	it, err := e.Iterate(ctx)
	if err != nil {
		return nil, err
	}
	return &mappingIterator{base: it, mapFn: mapFn}, nil
}

func evaluateMapped(e Expression, ctx *Context, mapFn func(types.Item) (types.Item, error)) (types.Item, error) {
	item, err := e.Evaluate(ctx)
	if err != nil || item == nil {
		return nil, err
	}
	return mapFn(item)
}

// Atomizer replaces each node in its operand with its typed value.
type Atomizer struct {
	mappingExpr
}

// NewAtomizer wraps an operand in atomization.
func NewAtomizer(operand Expression, role *types.Role) *Atomizer {
	return &Atomizer{mappingExpr{unaryExpr{operand: operand}, role}}
}

func (a *Atomizer) ItemType() types.ItemType {
	t := a.operand.ItemType()
	if t.Atomic() {
		return t
	}
	return types.AnyAtomicType
}

func (a *Atomizer) mapItem(item types.Item) (types.Item, error) {
	if n, ok := item.(types.Node); ok {
		return n.Atomize(), nil
	}
	if _, ok := item.(value.Atomic); ok {
		return item, nil
	}
	err := types.NewTypeError(a.role.Message() + " cannot be atomized")
	return nil, locate(err, a)
}

func (a *Atomizer) Evaluate(ctx *Context) (types.Item, error) {
	return evaluateMapped(a.operand, ctx, a.mapItem)
}

func (a *Atomizer) Iterate(ctx *Context) (SequenceIterator, error) {
	return iterateMapped(a.operand, ctx, a.mapItem)
}

// UntypedConverter casts untyped atomic items to the required atomic
// type. It also folds anyURI values into strings when the required type
// is string, per the function conversion rules.
type UntypedConverter struct {
	mappingExpr
	target types.ItemType
}

// NewUntypedConverter wraps an operand in untyped-atomic conversion
// toward the target type.
func NewUntypedConverter(operand Expression, target types.ItemType, role *types.Role) *UntypedConverter {
	return &UntypedConverter{mappingExpr{unaryExpr{operand: operand}, role}, target}
}

func (u *UntypedConverter) ItemType() types.ItemType { return u.target }

func (u *UntypedConverter) mapItem(item types.Item) (types.Item, error) {
	av, ok := item.(value.Atomic)
	if !ok {
		return item, nil
	}
	switch av.PrimitiveKind() {
	case types.PrimUntyped:
		conv, err := value.FromUntyped(av.StringValue(), u.target.Primitive())
		if err != nil {
			cast := types.AsError(err, types.ErrInvalidCast)
			cast.Message = u.role.Message() + ": " + cast.Message
			return nil, locate(cast, u)
		}
		return conv, nil
	case types.PrimAnyURI:
		if u.target.Primitive() == types.PrimString {
			return value.String(av.StringValue()), nil
		}
	}
	return item, nil
}

func (u *UntypedConverter) Evaluate(ctx *Context) (types.Item, error) {
	return evaluateMapped(u.operand, ctx, u.mapItem)
}

func (u *UntypedConverter) Iterate(ctx *Context) (SequenceIterator, error) {
	return iterateMapped(u.operand, ctx, u.mapItem)
}

// NumericPromoter promotes numeric items up the lattice to the required
// float or double type.
type NumericPromoter struct {
	mappingExpr
	target types.Primitive
}

// NewNumericPromoter wraps an operand in numeric promotion; target must
// be float or double.
func NewNumericPromoter(operand Expression, target types.Primitive, role *types.Role) *NumericPromoter {
	return &NumericPromoter{mappingExpr{unaryExpr{operand: operand}, role}, target}
}

func (p *NumericPromoter) ItemType() types.ItemType { return primToItemType(p.target) }

func (p *NumericPromoter) mapItem(item types.Item) (types.Item, error) {
	n, ok := item.(value.Numeric)
	if !ok {
		return item, nil
	}
	return value.Promote(n, p.target), nil
}

func (p *NumericPromoter) Evaluate(ctx *Context) (types.Item, error) {
	return evaluateMapped(p.operand, ctx, p.mapItem)
}

func (p *NumericPromoter) Iterate(ctx *Context) (SequenceIterator, error) {
	return iterateMapped(p.operand, ctx, p.mapItem)
}

// ItemChecker verifies at run time that every item matches the required
// item type.
type ItemChecker struct {
	mappingExpr
	required types.ItemType
}

// NewItemChecker wraps an operand in a per-item type check.
func NewItemChecker(operand Expression, required types.ItemType, role *types.Role) *ItemChecker {
	return &ItemChecker{mappingExpr{unaryExpr{operand: operand}, role}, required}
}

func (c *ItemChecker) ItemType() types.ItemType { return c.required }

func (c *ItemChecker) mapItem(item types.Item) (types.Item, error) {
	if c.required.Matches(item) {
		return item, nil
	}
	err := types.NewTypeError(c.role.Message() + " is required to be " +
		c.required.String() + "; supplied value is " + item.ItemType().String())
	return nil, locate(err, c)
}

func (c *ItemChecker) Evaluate(ctx *Context) (types.Item, error) {
	return evaluateMapped(c.operand, ctx, c.mapItem)
}

func (c *ItemChecker) Iterate(ctx *Context) (SequenceIterator, error) {
	return iterateMapped(c.operand, ctx, c.mapItem)
}

// CardinalityChecker verifies at run time that the operand's length fits
// the required cardinality. It counts lazily: a ZeroOrMore check costs
// nothing, an ExactlyOne check stops after two items.
type CardinalityChecker struct {
	unaryExpr
	required types.Cardinality
	role     *types.Role
}

// NewCardinalityChecker wraps an operand in a cardinality check.
func NewCardinalityChecker(operand Expression, required types.Cardinality, role *types.Role) *CardinalityChecker {
	return &CardinalityChecker{unaryExpr{operand: operand}, required, role}
}

func (c *CardinalityChecker) ItemType() types.ItemType       { return c.operand.ItemType() }
func (c *CardinalityChecker) Cardinality() types.Cardinality { return c.required }

func (c *CardinalityChecker) failure(count int) error {
	var supplied string
	if count == 0 {
		supplied = "an empty sequence"
	} else {
		supplied = "a sequence of more than one item"
	}
	err := types.NewTypeError(c.role.Message() + " must be " + c.required.String() +
		"; supplied value is " + supplied)
	return locate(err, c)
}

func (c *CardinalityChecker) Evaluate(ctx *Context) (types.Item, error) {
	it, err := c.Iterate(ctx)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	item, err := it.Next()
	if err != nil {
		return nil, err
	}
	// pull one item further so a surplus item is not missed
	if item != nil && c.required&types.AllowsMany == 0 {
		if _, err := it.Next(); err != nil {
			return nil, err
		}
	}
	return item, nil
}

func (c *CardinalityChecker) Iterate(ctx *Context) (SequenceIterator, error) {
	it, err := c.operand.Iterate(ctx)
	if err != nil {
		return nil, err
	}
	return &cardinalityIterator{base: it, required: c.required, check: c}, nil
}

type cardinalityIterator struct {
	base     SequenceIterator
	required types.Cardinality
	check    *CardinalityChecker
	current  types.Item
	position int
}

func (c *cardinalityIterator) Next() (types.Item, error) {
	if c.position < 0 {
		return nil, nil
	}
	item, err := c.base.Next()
	if err != nil {
		return nil, err
	}
	if item == nil {
		if c.position == 0 && c.required&types.AllowsZero == 0 {
			return nil, c.check.failure(0)
		}
		c.current = nil
		c.position = -1
		return nil, nil
	}
	if c.position >= 1 && c.required&types.AllowsMany == 0 {
		return nil, c.check.failure(2)
	}
	c.current = item
	c.position++
	return item, nil
}

func (c *cardinalityIterator) Current() types.Item { return c.current }
func (c *cardinalityIterator) Position() int       { return c.position }

func (c *cardinalityIterator) Clone() SequenceIterator {
	return &cardinalityIterator{base: c.base.Clone(), required: c.required, check: c.check}
}

func (c *cardinalityIterator) Close() { c.base.Close() }

// FirstItemFilter keeps only the first item of its operand, implementing
// the 1.0 rule that a sequence supplied where a single value is required
// is truncated rather than rejected.
type FirstItemFilter struct {
	unaryExpr
}

// NewFirstItemFilter wraps an operand so only its first item survives.
func NewFirstItemFilter(operand Expression) *FirstItemFilter {
	return &FirstItemFilter{unaryExpr{operand: operand}}
}

func (f *FirstItemFilter) ItemType() types.ItemType { return f.operand.ItemType() }

func (f *FirstItemFilter) Cardinality() types.Cardinality {
	return f.operand.Cardinality() & (types.AllowsZero | types.AllowsOne)
}

func (f *FirstItemFilter) Evaluate(ctx *Context) (types.Item, error) {
	return f.operand.Evaluate(ctx)
}

func (f *FirstItemFilter) Iterate(ctx *Context) (SequenceIterator, error) {
	item, err := f.operand.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return EmptyIterator(), nil
	}
	return SingletonIterator(item), nil
}

// StringConverter applies the 1.0 string() conversion to each item.
type StringConverter struct {
	mappingExpr
}

// NewStringConverter wraps an operand in 1.0 string conversion.
func NewStringConverter(operand Expression, role *types.Role) *StringConverter {
	return &StringConverter{mappingExpr{unaryExpr{operand: operand}, role}}
}

func (s *StringConverter) ItemType() types.ItemType       { return types.StringType }
func (s *StringConverter) Cardinality() types.Cardinality { return types.ExactlyOne }

func (s *StringConverter) mapItem(item types.Item) (types.Item, error) {
	if n, ok := item.(types.Node); ok {
		item = n.Atomize()
	}
	av, ok := item.(value.Atomic)
	if !ok {
		err := types.NewTypeError(s.role.Message() + " cannot be converted to a string")
		return nil, locate(err, s)
	}
	return value.String(av.StringValue()), nil
}

func (s *StringConverter) Evaluate(ctx *Context) (types.Item, error) {
	item, err := evaluateMapped(s.operand, ctx, s.mapItem)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return value.String(""), nil
	}
	return item, nil
}

func (s *StringConverter) Iterate(ctx *Context) (SequenceIterator, error) {
	return iterateSingleton(s, ctx)
}

// NumberConverter applies the 1.0 number() conversion to each item.
type NumberConverter struct {
	mappingExpr
}

// NewNumberConverter wraps an operand in 1.0 number conversion.
func NewNumberConverter(operand Expression, role *types.Role) *NumberConverter {
	return &NumberConverter{mappingExpr{unaryExpr{operand: operand}, role}}
}

func (n *NumberConverter) ItemType() types.ItemType       { return types.DoubleType }
func (n *NumberConverter) Cardinality() types.Cardinality { return types.ExactlyOne }

func (n *NumberConverter) mapItem(item types.Item) (types.Item, error) {
	if node, ok := item.(types.Node); ok {
		item = node.Atomize()
	}
	av, ok := item.(value.Atomic)
	if !ok {
		err := types.NewTypeError(n.role.Message() + " cannot be converted to a number")
		return nil, locate(err, n)
	}
	return value.ToDouble(av), nil
}

func (n *NumberConverter) Evaluate(ctx *Context) (types.Item, error) {
	item, err := evaluateMapped(n.operand, ctx, n.mapItem)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return value.Double(math.NaN()), nil
	}
	return item, nil
}

func (n *NumberConverter) Iterate(ctx *Context) (SequenceIterator, error) {
	return iterateSingleton(n, ctx)
}

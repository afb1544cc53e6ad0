// Package expr implements the XPath expression tree and its evaluation
// engine.
//
// The package receives expression trees built by a parser through the
// constructor functions (NewArithmetic, NewGeneralComparison, NewVenn,
// NewFunctionCall, ...). Trees go through two phases:
//   - compile time: the type checker proves conformance where it can,
//     inserts converter and checker wrappers where it cannot, and rewrites
//     generic operator nodes into specialized ones once operand types are
//     statically known;
//   - run time: evaluation walks the tree pulling lazily-produced
//     sequence iterators, threading a dynamic context of focus, variable
//     frames and tail-call state.
package expr

import (
	"github.com/sandrolain/goxp/pkg/types"
)

// Expression is a node of the compiled expression tree.
//
// The static item type and cardinality are derivable from the operand
// types; they are computed on demand and never change after the tree has
// been type-checked. Evaluate returns the single item of a sequence known
// to have at most one item (nil for empty); Iterate is the general entry
// point and must be natively supported by any node whose cardinality
// allows more than one item.
type Expression interface {
	types.Locatable
	ItemType() types.ItemType
	Cardinality() types.Cardinality
	Evaluate(ctx *Context) (types.Item, error)
	Iterate(ctx *Context) (SequenceIterator, error)
	Operands() []Expression
	SetLocation(types.Location)
}

// baseExpr carries the source location every node shares.
type baseExpr struct {
	loc types.Location
}

func (b *baseExpr) Location() types.Location       { return b.loc }
func (b *baseExpr) SetLocation(loc types.Location) { b.loc = loc }

// binaryExpr is the shared shape of two-operand nodes.
type binaryExpr struct {
	baseExpr
	lhs, rhs Expression
}

func (b *binaryExpr) Operands() []Expression { return []Expression{b.lhs, b.rhs} }

// unaryExpr is the shared shape of single-operand nodes, including the
// wrappers the type checker inserts.
type unaryExpr struct {
	baseExpr
	operand Expression
}

func (u *unaryExpr) Operands() []Expression { return []Expression{u.operand} }

// iterateSingleton adapts a node that implements Evaluate into Iterate.
func iterateSingleton(e Expression, ctx *Context) (SequenceIterator, error) {
	item, err := e.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	return SingletonIterator(item), nil
}

// evaluateFirst adapts a node that implements Iterate into Evaluate.
func evaluateFirst(e Expression, ctx *Context) (types.Item, error) {
	it, err := e.Iterate(ctx)
	if err != nil {
		return nil, err
	}
	return First(it)
}

// locate attaches the node's location to err when it has none.
func locate(err error, e Expression) error {
	if err == nil {
		return nil
	}
	return types.AsError(err, types.ErrDynamicType).MaybeLocate(e.Location())
}

// Literal is a compile-time constant sequence.
type Literal struct {
	baseExpr
	items []types.Item
}

// NewLiteral builds a constant expression from the given items.
func NewLiteral(items ...types.Item) *Literal {
	return &Literal{items: items}
}

// EmptyLiteral is the constant empty sequence.
func EmptyLiteral() *Literal { return &Literal{} }

// Items exposes the constant value (used by the type checker for eager
// coercion of constants).
func (l *Literal) Items() []types.Item { return l.items }

func (l *Literal) ItemType() types.ItemType {
	if len(l.items) == 0 {
		return types.AnyItem
	}
	t := l.items[0].ItemType()
	for _, item := range l.items[1:] {
		if item.ItemType() != t {
			return types.AnyItem
		}
	}
	return t
}

func (l *Literal) Cardinality() types.Cardinality {
	switch len(l.items) {
	case 0:
		return types.Empty
	case 1:
		return types.ExactlyOne
	default:
		return types.AllowsMany
	}
}

func (l *Literal) Evaluate(*Context) (types.Item, error) {
	if len(l.items) == 0 {
		return nil, nil
	}
	return l.items[0], nil
}

func (l *Literal) Iterate(*Context) (SequenceIterator, error) {
	return SliceIterator(l.items), nil
}

func (l *Literal) Operands() []Expression { return nil }

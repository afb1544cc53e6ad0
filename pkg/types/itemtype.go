// Package types defines the core type system for GoXP.
//
// This package contains type definitions for:
//   - Item: the indivisible unit of a sequence (atomic value or node)
//   - ItemType and the built-in atomic type hierarchy
//   - Cardinality: the static sequence-length lattice
//   - SequenceType: item type plus cardinality
//   - Role: diagnostic context for type-error messages
//   - Error types: structured errors with XPath error codes
package types

// Item is the indivisible unit of a sequence: an atomic value or a node.
// Items are opaque to the engine except where arithmetic, comparison or
// date/duration logic needs their primitive kind.
type Item interface {
	// ItemType returns the most specific static type of the item.
	ItemType() ItemType
}

// Node is the boundary interface to the (out-of-core) XML data model.
// The engine never inspects node content: it only needs a document-order
// surrogate for merge-style set operations and an atomization hook.
type Node interface {
	Item
	// OrderKey is a total-order surrogate for document order.
	OrderKey() int64
	// Atomize returns the node's typed atomic value.
	Atomize() Item
}

// Primitive identifies the primitive kind underlying an atomic type.
type Primitive uint8

const (
	PrimAnyAtomic Primitive = iota
	PrimUntyped
	PrimString
	PrimBoolean
	PrimInteger
	PrimDecimal
	PrimFloat
	PrimDouble
	PrimNumeric // generic numeric, used only for dispatch-table normalization
	PrimDate
	PrimDuration // generic duration, used only for dispatch-table normalization
	PrimDayTimeDuration
	PrimYearMonthDuration
	PrimAnyURI
)

// IsNumeric reports whether p is one of the concrete numeric kinds or the
// generic numeric category.
func (p Primitive) IsNumeric() bool {
	switch p {
	case PrimInteger, PrimDecimal, PrimFloat, PrimDouble, PrimNumeric:
		return true
	default:
		return false
	}
}

// IsDuration reports whether p is a duration kind, generic or subtype.
func (p Primitive) IsDuration() bool {
	switch p {
	case PrimDuration, PrimDayTimeDuration, PrimYearMonthDuration:
		return true
	default:
		return false
	}
}

// ItemType describes a static item type.
type ItemType interface {
	// Matches reports whether the item conforms to this type.
	Matches(Item) bool
	// Primitive returns the primitive kind for atomic types.
	// For non-atomic types it returns PrimAnyAtomic.
	Primitive() Primitive
	// Atomic reports whether this is an atomic type.
	Atomic() bool
	String() string
}

// anyItemType matches every item.
type anyItemType struct{}

func (anyItemType) Matches(Item) bool    { return true }
func (anyItemType) Primitive() Primitive { return PrimAnyAtomic }
func (anyItemType) Atomic() bool         { return false }
func (anyItemType) String() string       { return "item()" }

// anyNodeType matches every node.
type anyNodeType struct{}

func (anyNodeType) Matches(it Item) bool {
	_, ok := it.(Node)
	return ok
}
func (anyNodeType) Primitive() Primitive { return PrimAnyAtomic }
func (anyNodeType) Atomic() bool         { return false }
func (anyNodeType) String() string       { return "node()" }

// AtomicType is a built-in atomic type with a parent chain.
type AtomicType struct {
	name   string
	prim   Primitive
	parent *AtomicType
}

// Matches reports whether the item is an atomic value whose type is this
// type or one of its descendants.
func (t *AtomicType) Matches(it Item) bool {
	at, ok := it.ItemType().(*AtomicType)
	if !ok {
		return false
	}
	return isSubType(at, t)
}

// Primitive returns the primitive kind of the type.
func (t *AtomicType) Primitive() Primitive { return t.prim }

// Atomic reports true.
func (t *AtomicType) Atomic() bool { return true }

func (t *AtomicType) String() string { return t.name }

// The built-in atomic types used by the engine. xs:integer derives from
// xs:decimal, following the schema hierarchy; NumericType is the pseudo
// union of the four numeric types used where a signature accepts any of
// them.
var (
	AnyItem ItemType = anyItemType{}
	AnyNode ItemType = anyNodeType{}

	AnyAtomicType         = &AtomicType{name: "xs:anyAtomicType", prim: PrimAnyAtomic}
	UntypedAtomicType     = &AtomicType{name: "xs:untypedAtomic", prim: PrimUntyped, parent: AnyAtomicType}
	StringType            = &AtomicType{name: "xs:string", prim: PrimString, parent: AnyAtomicType}
	AnyURIType            = &AtomicType{name: "xs:anyURI", prim: PrimAnyURI, parent: AnyAtomicType}
	BooleanType           = &AtomicType{name: "xs:boolean", prim: PrimBoolean, parent: AnyAtomicType}
	NumericType           = &AtomicType{name: "numeric", prim: PrimNumeric, parent: AnyAtomicType}
	DecimalType           = &AtomicType{name: "xs:decimal", prim: PrimDecimal, parent: NumericType}
	IntegerType           = &AtomicType{name: "xs:integer", prim: PrimInteger, parent: DecimalType}
	FloatType             = &AtomicType{name: "xs:float", prim: PrimFloat, parent: NumericType}
	DoubleType            = &AtomicType{name: "xs:double", prim: PrimDouble, parent: NumericType}
	DateType              = &AtomicType{name: "xs:date", prim: PrimDate, parent: AnyAtomicType}
	DurationType          = &AtomicType{name: "xs:duration", prim: PrimDuration, parent: AnyAtomicType}
	DayTimeDurationType   = &AtomicType{name: "xs:dayTimeDuration", prim: PrimDayTimeDuration, parent: DurationType}
	YearMonthDurationType = &AtomicType{name: "xs:yearMonthDuration", prim: PrimYearMonthDuration, parent: DurationType}
)

// Relation describes how two item types relate in the hierarchy.
type Relation uint8

const (
	Same Relation = iota
	Subsumes
	SubsumedBy
	Overlaps
	Disjoint
)

func (r Relation) String() string {
	switch r {
	case Same:
		return "same"
	case Subsumes:
		return "subsumes"
	case SubsumedBy:
		return "subsumed-by"
	case Overlaps:
		return "overlaps"
	default:
		return "disjoint"
	}
}

// Relationship computes the hierarchy relation between two item types.
// This is the type-hierarchy collaborator consumed by the type checker
// and the comparison dispatch.
func Relationship(a, b ItemType) Relation {
	if a == b {
		return Same
	}
	if _, ok := a.(anyItemType); ok {
		return Subsumes
	}
	if _, ok := b.(anyItemType); ok {
		return SubsumedBy
	}
	_, aIsNode := a.(anyNodeType)
	_, bIsNode := b.(anyNodeType)
	if aIsNode || bIsNode {
		if aIsNode && bIsNode {
			return Same
		}
		return Disjoint
	}
	at, aOK := a.(*AtomicType)
	bt, bOK := b.(*AtomicType)
	if !aOK || !bOK {
		return Disjoint
	}
	if at == bt {
		return Same
	}
	if isSubType(bt, at) {
		return Subsumes
	}
	if isSubType(at, bt) {
		return SubsumedBy
	}
	return Disjoint
}

// isSubType reports whether t is b or derives from b, directly or through
// the parent chain.
func isSubType(t, b *AtomicType) bool {
	for cur := t; cur != nil; cur = cur.parent {
		if cur == b {
			return true
		}
	}
	return false
}

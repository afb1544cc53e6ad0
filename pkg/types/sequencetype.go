package types

// SequenceType pairs an item type with a cardinality. It is the unit the
// type checker works with: a required SequenceType against a supplied
// expression's static type.
type SequenceType struct {
	Item ItemType
	Card Cardinality
}

// Common sequence types used throughout the engine.
var (
	SingleItem      = SequenceType{Item: AnyItem, Card: ExactlyOne}
	OptionalItem    = SequenceType{Item: AnyItem, Card: ZeroOrOne}
	AnySequence     = SequenceType{Item: AnyItem, Card: ZeroOrMore}
	EmptySequence   = SequenceType{Item: AnyItem, Card: Empty}
	SingleAtomic    = SequenceType{Item: AnyAtomicType, Card: ExactlyOne}
	OptionalAtomic  = SequenceType{Item: AnyAtomicType, Card: ZeroOrOne}
	AtomicSequence  = SequenceType{Item: AnyAtomicType, Card: ZeroOrMore}
	SingleString    = SequenceType{Item: StringType, Card: ExactlyOne}
	SingleBoolean   = SequenceType{Item: BooleanType, Card: ExactlyOne}
	SingleDouble    = SequenceType{Item: DoubleType, Card: ExactlyOne}
	OptionalNumeric = SequenceType{Item: NumericType, Card: ZeroOrOne}
	NodeSequence    = SequenceType{Item: AnyNode, Card: ZeroOrMore}
)

// Required builds a SequenceType from an item type and cardinality.
func Required(item ItemType, card Cardinality) SequenceType {
	return SequenceType{Item: item, Card: card}
}

func (s SequenceType) String() string {
	if s.Card == Empty {
		return "empty-sequence()"
	}
	switch s.Card {
	case ExactlyOne:
		return s.Item.String()
	case ZeroOrOne:
		return s.Item.String() + "?"
	case OneOrMore:
		return s.Item.String() + "+"
	default:
		return s.Item.String() + "*"
	}
}

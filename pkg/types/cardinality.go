package types

// Cardinality is the static bound on the length of a sequence, encoded as
// a small bit lattice. Subsumption between cardinalities is plain bit
// subset, which makes the type checker's cardinality test a single mask.
type Cardinality uint8

const (
	// AllowsZero is set when the sequence may be empty.
	AllowsZero Cardinality = 1 << iota
	// AllowsOne is set when the sequence may contain exactly one item.
	AllowsOne
	// AllowsMany is set when the sequence may contain more than one item.
	AllowsMany
)

// The named cardinalities of the XPath sequence-type syntax.
const (
	Empty      = AllowsZero
	ExactlyOne = AllowsOne
	ZeroOrOne  = AllowsZero | AllowsOne
	OneOrMore  = AllowsOne | AllowsMany
	ZeroOrMore = AllowsZero | AllowsOne | AllowsMany
)

// Subsumes reports whether every sequence length allowed by other is also
// allowed by c.
func (c Cardinality) Subsumes(other Cardinality) bool {
	return other&^c == 0
}

// Union returns the cardinality allowing anything either side allows.
func (c Cardinality) Union(other Cardinality) Cardinality {
	return c | other
}

// Intersect returns the cardinality allowing only what both sides allow.
func (c Cardinality) Intersect(other Cardinality) Cardinality {
	return c & other
}

// String returns the occurrence-indicator spelling of the cardinality.
func (c Cardinality) String() string {
	switch c {
	case Empty:
		return "empty-sequence()"
	case ExactlyOne:
		return "exactly one"
	case ZeroOrOne:
		return "zero or one"
	case OneOrMore:
		return "one or more"
	case ZeroOrMore:
		return "zero or more"
	default:
		return "unbounded"
	}
}

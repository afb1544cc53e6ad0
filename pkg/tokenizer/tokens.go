package tokenizer

// Kind represents the type of a lexical token.
type Kind uint8

const (
	// KindUnknown is the state before the first token; it behaves like an
	// operator for the operand-position disambiguation rules.
	KindUnknown Kind = iota
	KindEOF

	// Literals and names
	KindName   // foo, ns:foo
	KindNumber // 12, 3.14, 1e-10
	KindString // "abc", 'abc'

	// Composite name-derived tokens
	KindFunction       // name followed by (, the ( is swallowed
	KindNodeKind       // node-kind test keyword followed by (
	KindIf             // if followed by (
	KindAxis           // name::, the :: is swallowed
	KindPrefixWildcard // name:*, the :* is swallowed
	KindKeywordCurly   // name {, also "element qname {"
	KindFor            // for followed by $
	KindSome           // some followed by $
	KindEvery          // every followed by $
	KindLet            // let followed by $

	// Grouping and punctuation
	KindLPar       // (
	KindRPar       // )
	KindLSqb       // [
	KindRSqb       // ]
	KindLCurly     // {
	KindRCurly     // }
	KindComma      // ,
	KindSemicolon  // ;
	KindDollar     // $
	KindAt         // @
	KindDot        // .
	KindDotDot     // ..
	KindQMark      // ?
	KindAssign     // :=
	KindColonColon // :: (merged into KindAxis after a name)
	KindColonStar  // :* (merged into KindPrefixWildcard after a name)
	KindPragma     // (# ... #)
	KindTag        // < in operand position (markup start)

	// Path operators
	KindSlash      // /
	KindSlashSlash // //

	// Arithmetic operators
	KindPlus  // +
	KindMinus // -
	KindStar  // * as wildcard
	KindMult  // * as multiplication
	KindDiv   // div
	KindIDiv  // idiv
	KindMod   // mod

	// General comparison operators
	KindEquals // =
	KindNE     // !=
	KindLT     // <
	KindLE     // <=
	KindGT     // >
	KindGE     // >=

	// Value comparison operators
	KindValueEq // eq
	KindValueNe // ne
	KindValueLt // lt
	KindValueLe // le
	KindValueGt // gt
	KindValueGe // ge

	// Node comparison operators
	KindIs       // is
	KindPrecedes // <<
	KindFollows  // >>

	// Set operators
	KindUnion     // | or union
	KindIntersect // intersect
	KindExcept    // except

	// Logical and range operators
	KindAnd // and
	KindOr  // or
	KindTo  // to

	// Clause keywords (operators for disambiguation purposes)
	KindIn        // in
	KindReturn    // return
	KindSatisfies // satisfies
	KindThen      // then
	KindElse      // else

	// Two-word composite keywords
	KindInstanceOf // instance of
	KindCastAs     // cast as
	KindCastableAs // castable as
	KindTreatAs    // treat as
)

// String returns a readable representation of the token kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "(unknown)"
}

var kindNames = map[Kind]string{
	KindEOF:            "(eof)",
	KindName:           "(name)",
	KindNumber:         "(number)",
	KindString:         "(string)",
	KindFunction:       "(function)",
	KindNodeKind:       "(node-kind)",
	KindIf:             "if",
	KindAxis:           "(axis)",
	KindPrefixWildcard: "(prefix-wildcard)",
	KindKeywordCurly:   "(keyword-curly)",
	KindFor:            "for",
	KindSome:           "some",
	KindEvery:          "every",
	KindLet:            "let",
	KindLPar:           "(",
	KindRPar:           ")",
	KindLSqb:           "[",
	KindRSqb:           "]",
	KindLCurly:         "{",
	KindRCurly:         "}",
	KindComma:          ",",
	KindSemicolon:      ";",
	KindDollar:         "$",
	KindAt:             "@",
	KindDot:            ".",
	KindDotDot:         "..",
	KindQMark:          "?",
	KindAssign:         ":=",
	KindColonColon:     "::",
	KindColonStar:      ":*",
	KindPragma:         "(pragma)",
	KindTag:            "<tag",
	KindSlash:          "/",
	KindSlashSlash:     "//",
	KindPlus:           "+",
	KindMinus:          "-",
	KindStar:           "*",
	KindMult:           "*",
	KindDiv:            "div",
	KindIDiv:           "idiv",
	KindMod:            "mod",
	KindEquals:         "=",
	KindNE:             "!=",
	KindLT:             "<",
	KindLE:             "<=",
	KindGT:             ">",
	KindGE:             ">=",
	KindValueEq:        "eq",
	KindValueNe:        "ne",
	KindValueLt:        "lt",
	KindValueLe:        "le",
	KindValueGt:        "gt",
	KindValueGe:        "ge",
	KindIs:             "is",
	KindPrecedes:       "<<",
	KindFollows:        ">>",
	KindUnion:          "|",
	KindIntersect:      "intersect",
	KindExcept:         "except",
	KindAnd:            "and",
	KindOr:             "or",
	KindTo:             "to",
	KindIn:             "in",
	KindReturn:         "return",
	KindSatisfies:      "satisfies",
	KindThen:           "then",
	KindElse:           "else",
	KindInstanceOf:     "instance of",
	KindCastAs:         "cast as",
	KindCastableAs:     "castable as",
	KindTreatAs:        "treat as",
}

// operatorKeywords maps bare names that can serve as binary operators.
var operatorKeywords = map[string]Kind{
	"and":       KindAnd,
	"or":        KindOr,
	"div":       KindDiv,
	"idiv":      KindIDiv,
	"mod":       KindMod,
	"eq":        KindValueEq,
	"ne":        KindValueNe,
	"lt":        KindValueLt,
	"le":        KindValueLe,
	"gt":        KindValueGt,
	"ge":        KindValueGe,
	"is":        KindIs,
	"union":     KindUnion,
	"intersect": KindIntersect,
	"except":    KindExcept,
	"to":        KindTo,
	"in":        KindIn,
	"return":    KindReturn,
	"satisfies": KindSatisfies,
	"then":      KindThen,
	"else":      KindElse,
}

// doubleKeywords maps two-word composite keywords.
var doubleKeywords = map[[2]string]Kind{
	{"instance", "of"}: KindInstanceOf,
	{"cast", "as"}:     KindCastAs,
	{"castable", "as"}: KindCastableAs,
	{"treat", "as"}:    KindTreatAs,
}

// nodeKindKeywords are the names that form node-kind or sequence-type
// tests when followed by a left parenthesis.
var nodeKindKeywords = map[string]bool{
	"node":                   true,
	"text":                   true,
	"comment":                true,
	"item":                   true,
	"element":                true,
	"attribute":              true,
	"document-node":          true,
	"processing-instruction": true,
	"schema-element":         true,
	"schema-attribute":       true,
	"empty-sequence":         true,
}

// clauseKeywords maps names that become keywords when followed by $.
var clauseKeywords = map[string]Kind{
	"for":   KindFor,
	"some":  KindSome,
	"every": KindEvery,
	"let":   KindLet,
}

// constructorKeywords are the names that can start a computed constructor
// of the form "keyword QName {". Recognizing them needs a second token of
// lookahead, with rollback when the { is absent.
var constructorKeywords = map[string]bool{
	"element":                true,
	"attribute":              true,
	"processing-instruction": true,
}

// expectsOperand reports whether the token kind leaves the tokenizer in
// operand position, i.e. the next name-like token cannot be a binary
// operator keyword, * is a wildcard and < starts markup.
func expectsOperand(k Kind) bool {
	switch k {
	case KindName, KindNumber, KindString, KindRPar, KindRSqb, KindRCurly,
		KindDot, KindDotDot, KindStar, KindPrefixWildcard:
		return false
	default:
		return true
	}
}

// Package tokenizer implements the lexical analyzer for XPath expressions.
//
// The tokenizer maintains one token of lookahead and a small amount of
// caller-settable state. Several tokens are context-sensitive: "*" is a
// wildcard or a multiplication sign, "<" is a comparison or the start of
// embedded markup, and bare names double as binary operator keywords.
// The disambiguation rules combine the kind of the immediately preceding
// token with the lexer state the parser sets at specific grammar points.
package tokenizer

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sandrolain/goxp/pkg/types"
)

// State is the lexer state set by the parser to steer disambiguation.
type State uint8

const (
	// DefaultState applies the standard disambiguation rules.
	DefaultState State = iota
	// BareNameState suppresses all name reclassification: the next name
	// is just a name (used after "$" and in similar grammar points).
	BareNameState
	// SequenceTypeState disables keyword-curly recognition and the
	// multiplication reading of "*" (it is an occurrence indicator there).
	SequenceTypeState
	// OperatorState marks that an operand has just been parsed, so a
	// name matching an operator keyword is always that operator.
	OperatorState
)

const eof = -1

// Tokenizer turns an XPath expression string into a token stream.
//
// Tokenize primes the first token; Next advances. The current token is
// exposed through Kind, Value and Start; the lookahead through Peek.
type Tokenizer struct {
	input string
	end   int

	// State is the caller-settable lexer state.
	State State

	// Current token.
	Kind  Kind
	Value string
	Start int

	// Lookahead token.
	nextKind  Kind
	nextValue string
	nextStart int

	pos            int // scan position (just past the lookahead token)
	lineNumber     int // line of the current token
	nextLineNumber int // line at the scan position
	startLine      int
	newlineOffsets []int // append-only offsets of newline characters

	precedingKind Kind // kind of the token before the current one
}

// New creates a tokenizer. It holds no input until Tokenize is called.
func New() *Tokenizer {
	return &Tokenizer{}
}

// Tokenize resets all state, installs the input slice [start, end) and
// primes the current and lookahead tokens. end < 0 means the end of the
// input string; startLine numbers the first line for diagnostics (1 when
// zero is supplied).
func (t *Tokenizer) Tokenize(input string, start, end, startLine int) error {
	if end < 0 {
		end = len(input)
	}
	if startLine <= 0 {
		startLine = 1
	}
	*t = Tokenizer{
		input:          input,
		end:            end,
		pos:            start,
		startLine:      startLine,
		lineNumber:     startLine,
		nextLineNumber: startLine,
		Kind:           KindUnknown,
		nextKind:       KindUnknown,
	}
	if err := t.LookAhead(); err != nil {
		return err
	}
	return t.Next()
}

// Next advances to the next token: the previous lookahead becomes the
// current token, a new lookahead is scanned, and the context-sensitive
// reclassification rules are applied to the new current token.
func (t *Tokenizer) Next() error {
	t.precedingKind = t.Kind
	t.Kind, t.Value, t.Start = t.nextKind, t.nextValue, t.nextStart
	t.lineNumber = t.nextLineNumber
	if t.Kind == KindEOF {
		return nil
	}
	if err := t.LookAhead(); err != nil {
		return err
	}
	return t.classify()
}

// Peek returns the kind of the lookahead token.
func (t *Tokenizer) Peek() Kind { return t.nextKind }

// PeekValue returns the value of the lookahead token.
func (t *Tokenizer) PeekValue() string { return t.nextValue }

// classify applies the disambiguation rules to the current token using
// the preceding token, the fresh lookahead and the lexer state.
func (t *Tokenizer) classify() error {
	switch t.Kind {
	case KindName:
		return t.classifyName()
	case KindStar:
		if t.State != SequenceTypeState && !expectsOperand(t.precedingKind) {
			t.Kind = KindMult
		}
	case KindLT:
		if expectsOperand(t.precedingKind) {
			t.Kind = KindTag
		}
	}
	return nil
}

func (t *Tokenizer) classifyName() error {
	if t.State == BareNameState {
		return nil
	}

	switch t.nextKind {
	case KindLPar:
		if t.Value == "if" {
			t.Kind = KindIf
			return nil
		}
		if nodeKindKeywords[t.Value] {
			t.Kind = KindNodeKind
			return nil
		}
		if op, ok := operatorKeywords[t.Value]; ok && (t.State == OperatorState || !expectsOperand(t.precedingKind)) {
			t.Kind = op
			return nil
		}
		// a generic function name: swallow the ( so the parser sees the
		// argument list directly
		t.Kind = KindFunction
		return t.LookAhead()

	case KindLCurly:
		if t.State != SequenceTypeState {
			t.Kind = KindKeywordCurly
			return nil
		}

	case KindColonColon:
		t.Kind = KindAxis
		return t.LookAhead()

	case KindColonStar:
		t.Kind = KindPrefixWildcard
		return t.LookAhead()

	case KindDollar:
		if k, ok := clauseKeywords[t.Value]; ok {
			t.Kind = k
			return nil
		}

	case KindName:
		if k, ok := doubleKeywords[[2]string{t.Value, t.nextValue}]; ok {
			t.Kind = k
			return t.LookAhead()
		}
		if constructorKeywords[t.Value] && t.State != SequenceTypeState {
			return t.classifyConstructor()
		}
	}

	if op, ok := operatorKeywords[t.Value]; ok && (t.State == OperatorState || !expectsOperand(t.precedingKind)) {
		t.Kind = op
	}
	return nil
}

// classifyConstructor handles "element QName {", the only place needing
// two tokens of lookahead. The current token is element/attribute/
// processing-instruction and the lookahead is a name. If the token after
// that is "{", the two names merge into one keyword-curly token; if not,
// the scan position and pending token are restored exactly.
func (t *Tokenizer) classifyConstructor() error {
	saved := struct {
		pos      int
		kind     Kind
		value    string
		start    int
		line     int
		newlines int
	}{t.pos, t.nextKind, t.nextValue, t.nextStart, t.nextLineNumber, len(t.newlineOffsets)}

	if err := t.LookAhead(); err != nil {
		// a lexical error two tokens ahead must not surface here; restore
		// and let the parser reach it in sequence
		t.pos = saved.pos
		t.nextKind, t.nextValue, t.nextStart = saved.kind, saved.value, saved.start
		t.nextLineNumber = saved.line
		t.newlineOffsets = t.newlineOffsets[:saved.newlines]
		return nil
	}
	if t.nextKind == KindLCurly {
		// merge: "element foo" becomes one keyword-curly token, with the
		// "{" left as the lookahead
		t.Kind = KindKeywordCurly
		t.Value = t.Value + " " + saved.value
		return nil
	}
	t.pos = saved.pos
	t.nextKind, t.nextValue, t.nextStart = saved.kind, saved.value, saved.start
	t.nextLineNumber = saved.line
	t.newlineOffsets = t.newlineOffsets[:saved.newlines]
	return nil
}

// LookAhead performs the raw lexical scan of one token, storing it as the
// lookahead. It is exported for callers that consume embedded markup
// out-of-band and need to resume scanning.
func (t *Tokenizer) LookAhead() error {
	if err := t.skipIgnorable(); err != nil {
		return err
	}
	t.nextStart = t.pos
	c := t.nextRune()
	if c == eof {
		t.setNext(KindEOF, "")
		return nil
	}

	switch c {
	case '(':
		// comments were consumed by skipIgnorable; a pragma becomes a token
		if t.peekRune() == '#' {
			t.nextRune()
			return t.scanPragma(t.nextStart)
		}
		t.setNext(KindLPar, "(")
	case ')':
		t.setNext(KindRPar, ")")
	case '[':
		t.setNext(KindLSqb, "[")
	case ']':
		t.setNext(KindRSqb, "]")
	case '{':
		t.setNext(KindLCurly, "{")
	case '}':
		t.setNext(KindRCurly, "}")
	case ',':
		t.setNext(KindComma, ",")
	case ';':
		t.setNext(KindSemicolon, ";")
	case '$':
		t.setNext(KindDollar, "$")
	case '@':
		t.setNext(KindAt, "@")
	case '?':
		t.setNext(KindQMark, "?")
	case '|':
		t.setNext(KindUnion, "|")
	case '+':
		t.setNext(KindPlus, "+")
	case '-':
		t.setNext(KindMinus, "-")
	case '*':
		t.setNext(KindStar, "*")
	case '=':
		t.setNext(KindEquals, "=")
	case '.':
		if t.peekRune() == '.' {
			t.nextRune()
			t.setNext(KindDotDot, "..")
		} else if isDigit(t.peekRune()) {
			t.scanNumber()
		} else {
			t.setNext(KindDot, ".")
		}
	case '/':
		if t.peekRune() == '/' {
			t.nextRune()
			t.setNext(KindSlashSlash, "//")
		} else {
			t.setNext(KindSlash, "/")
		}
	case '!':
		if t.peekRune() == '=' {
			t.nextRune()
			t.setNext(KindNE, "!=")
		} else {
			return t.lexError("unexpected character '!'")
		}
	case '<':
		switch t.peekRune() {
		case '=':
			t.nextRune()
			t.setNext(KindLE, "<=")
		case '<':
			t.nextRune()
			t.setNext(KindPrecedes, "<<")
		default:
			t.setNext(KindLT, "<")
		}
	case '>':
		switch t.peekRune() {
		case '=':
			t.nextRune()
			t.setNext(KindGE, ">=")
		case '>':
			t.nextRune()
			t.setNext(KindFollows, ">>")
		default:
			t.setNext(KindGT, ">")
		}
	case ':':
		switch t.peekRune() {
		case '=':
			t.nextRune()
			t.setNext(KindAssign, ":=")
		case ':':
			t.nextRune()
			t.setNext(KindColonColon, "::")
		case '*':
			t.nextRune()
			t.setNext(KindColonStar, ":*")
		default:
			return t.lexError("unexpected colon")
		}
	case '\'', '"':
		return t.scanString(byte(c))
	default:
		if isDigit(c) {
			t.scanNumber()
			return nil
		}
		if isNameStart(c) {
			t.scanName()
			return nil
		}
		return t.lexError("invalid character " + string(c))
	}
	return nil
}

// skipIgnorable consumes whitespace, nested comments "(: ... :)" and, when
// it meets one, scans a pragma "(# ... #)" into the lookahead token.
func (t *Tokenizer) skipIgnorable() error {
	for {
		c := t.peekRune()
		switch {
		case c == ' ' || c == '\t' || c == '\r':
			t.nextRune()
		case c == '\n':
			t.nextRune()
			t.recordNewline(t.pos - 1)
		case c == '(' && t.peekRuneAt(1) == ':':
			if err := t.skipComment(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// skipComment consumes a comment, honoring arbitrary nesting and keeping
// the line bookkeeping across embedded newlines.
func (t *Tokenizer) skipComment() error {
	start := t.pos
	t.nextRune() // (
	t.nextRune() // :
	depth := 1
	for depth > 0 {
		c := t.nextRune()
		switch {
		case c == eof:
			return t.lexErrorAt("unclosed comment", start)
		case c == '\n':
			t.recordNewline(t.pos - 1)
		case c == '(' && t.peekRune() == ':':
			t.nextRune()
			depth++
		case c == ':' && t.peekRune() == ')':
			t.nextRune()
			depth--
		}
	}
	return nil
}

// scanPragma extracts the content of a pragma "(# ... #)", honoring
// nesting. The opening "(#" has been consumed.
func (t *Tokenizer) scanPragma(start int) error {
	depth := 1
	contentStart := t.pos
	for depth > 0 {
		c := t.nextRune()
		switch {
		case c == eof:
			return t.lexErrorAt("unclosed pragma", start)
		case c == '\n':
			t.recordNewline(t.pos - 1)
		case c == '(' && t.peekRune() == '#':
			t.nextRune()
			depth++
		case c == '#' && t.peekRune() == ')':
			t.nextRune()
			depth--
		}
	}
	t.nextStart = start
	t.setNext(KindPragma, t.input[contentStart:t.pos-2])
	return nil
}

// scanString consumes a string literal. The opening quote has been
// consumed. A doubled delimiter is an escaped quote; embedded newlines
// update the line tracking.
func (t *Tokenizer) scanString(quote byte) error {
	var sb strings.Builder
	for {
		c := t.nextRune()
		switch c {
		case eof:
			return t.lexErrorAt("unmatched quote in expression", t.nextStart)
		case '\n':
			t.recordNewline(t.pos - 1)
			sb.WriteByte('\n')
		case rune(quote):
			if t.peekRune() == rune(quote) {
				t.nextRune()
				sb.WriteByte(quote)
				continue
			}
			t.setNext(KindString, sb.String())
			return nil
		default:
			sb.WriteRune(c)
		}
	}
}

// scanNumber consumes a numeric literal: digits, at most one decimal
// point, at most one exponent marker with an optional sign. The scan stops
// at the first character that does not fit; malformed tails such as
// "1.0e+" are accepted here and rejected by numeric value construction.
func (t *Tokenizer) scanNumber() {
	// a leading ".5" form arrives here with the dot already consumed
	seenDot := strings.Contains(t.input[t.nextStart:t.pos], ".")
	seenExp := false
	for {
		c := t.peekRune()
		switch {
		case isDigit(c):
			t.nextRune()
		case c == '.' && !seenDot && !seenExp:
			seenDot = true
			t.nextRune()
		case (c == 'e' || c == 'E') && !seenExp:
			seenExp = true
			t.nextRune()
			if s := t.peekRune(); s == '+' || s == '-' {
				t.nextRune()
			}
		default:
			t.setNext(KindNumber, t.input[t.nextStart:t.pos])
			return
		}
	}
}

// scanName consumes an NCName, or a QName with a single embedded colon
// when the colon is directly followed by a name start character.
func (t *Tokenizer) scanName() {
	seenColon := false
	for {
		c := t.peekRune()
		switch {
		case isNamePart(c):
			t.nextRune()
		case c == ':' && !seenColon && isNameStart(t.peekRuneAt(1)):
			seenColon = true
			t.nextRune()
		default:
			t.setNext(KindName, t.input[t.nextStart:t.pos])
			return
		}
	}
}

// RecentText returns up to the last 32 characters of input already
// scanned, for diagnostics. It never changes tokenizer state.
func (t *Tokenizer) RecentText() string {
	end := t.pos
	if end > t.end {
		end = t.end
	}
	start := end - 32
	if start < 0 {
		start = 0
	}
	return t.input[start:end]
}

// LineNumber translates an absolute offset into a 1-based line number
// using the newline-offset list.
func (t *Tokenizer) LineNumber(offset int) int {
	n := sort.SearchInts(t.newlineOffsets, offset)
	return t.startLine + n
}

// ColumnNumber translates an absolute offset into a 1-based column.
func (t *Tokenizer) ColumnNumber(offset int) int {
	n := sort.SearchInts(t.newlineOffsets, offset)
	if n == 0 {
		return offset + 1
	}
	return offset - t.newlineOffsets[n-1]
}

// CurrentLine returns the line number of the current token.
func (t *Tokenizer) CurrentLine() int { return t.lineNumber }

// Location returns the source location of the current token.
func (t *Tokenizer) Location() types.Location {
	return types.Location{Line: t.lineNumber, Offset: t.Start}
}

// Helper methods

func (t *Tokenizer) setNext(k Kind, v string) {
	t.nextKind = k
	t.nextValue = v
}

func (t *Tokenizer) nextRune() rune {
	if t.pos >= t.end {
		return eof
	}
	r, w := utf8.DecodeRuneInString(t.input[t.pos:t.end])
	t.pos += w
	return r
}

func (t *Tokenizer) peekRune() rune {
	if t.pos >= t.end {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(t.input[t.pos:t.end])
	return r
}

func (t *Tokenizer) peekRuneAt(n int) rune {
	pos := t.pos
	for i := 0; i < n; i++ {
		if pos >= t.end {
			return eof
		}
		_, w := utf8.DecodeRuneInString(t.input[pos:t.end])
		pos += w
	}
	if pos >= t.end {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(t.input[pos:t.end])
	return r
}

// recordNewline appends a newline offset, tolerating rescans of the same
// region after a constructor-lookahead rollback.
func (t *Tokenizer) recordNewline(offset int) {
	t.nextLineNumber++
	if n := len(t.newlineOffsets); n > 0 && t.newlineOffsets[n-1] >= offset {
		return
	}
	t.newlineOffsets = append(t.newlineOffsets, offset)
}

func (t *Tokenizer) lexError(message string) error {
	return t.lexErrorAt(message, t.nextStart)
}

func (t *Tokenizer) lexErrorAt(message string, offset int) error {
	return types.NewError(types.ErrSyntax, message, offset).WithToken(t.RecentText())
}

// Character classification

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNamePart(r rune) bool {
	return r == '_' || r == '-' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

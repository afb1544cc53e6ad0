package tokenizer

import (
	"testing"
)

type tok struct {
	kind  Kind
	value string
	start int
}

type tokenizeTestCase struct {
	name      string
	input     string
	expected  []tok
	expectErr bool
}

func runTokenizeTests(t *testing.T, tests []tokenizeTestCase) {
	t.Helper()
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tk := New()
			err := tk.Tokenize(test.input, 0, -1, 1)
			tokens := []tok{}
			for err == nil && tk.Kind != KindEOF {
				tokens = append(tokens, tok{tk.Kind, tk.Value, tk.Start})
				err = tk.Next()
			}
			if err != nil {
				if !test.expectErr {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if test.expectErr {
				t.Fatal("expected error but got none")
			}
			if len(tokens) != len(test.expected) {
				t.Fatalf("got %d tokens, want %d\nGot: %v\nWant: %v",
					len(tokens), len(test.expected), tokens, test.expected)
			}
			for i, got := range tokens {
				exp := test.expected[i]
				if got.kind != exp.kind {
					t.Errorf("token %d: kind = %v, want %v", i, got.kind, exp.kind)
				}
				if got.value != exp.value {
					t.Errorf("token %d: value = %q, want %q", i, got.value, exp.value)
				}
				if exp.start >= 0 && got.start != exp.start {
					t.Errorf("token %d: start = %d, want %d", i, got.start, exp.start)
				}
			}
		})
	}
}

func TestTokenizeBasics(t *testing.T) {
	tests := []tokenizeTestCase{
		{
			name:  "single name",
			input: "abc",
			expected: []tok{
				{KindName, "abc", 0},
			},
		},
		{
			name:  "leading whitespace",
			input: "   abc",
			expected: []tok{
				{KindName, "abc", 3},
			},
		},
		{
			name:  "qname",
			input: "ns:local",
			expected: []tok{
				{KindName, "ns:local", 0},
			},
		},
		{
			name:  "name with dot and dash",
			input: "foo-bar.baz",
			expected: []tok{
				{KindName, "foo-bar.baz", 0},
			},
		},
		{
			name:  "arithmetic with precedence tokens",
			input: "a + b * c",
			expected: []tok{
				{KindName, "a", 0},
				{KindPlus, "+", 2},
				{KindName, "b", 4},
				{KindMult, "*", 6},
				{KindName, "c", 8},
			},
		},
		{
			name:  "leading star is a wildcard",
			input: "* + 1",
			expected: []tok{
				{KindStar, "*", 0},
				{KindPlus, "+", 2},
				{KindNumber, "1", 4},
			},
		},
		{
			name:  "path steps",
			input: "a/b//c",
			expected: []tok{
				{KindName, "a", 0},
				{KindSlash, "/", 1},
				{KindName, "b", 2},
				{KindSlashSlash, "//", 3},
				{KindName, "c", 5},
			},
		},
		{
			name:  "dot and dotdot",
			input: ". .. .",
			expected: []tok{
				{KindDot, ".", 0},
				{KindDotDot, "..", 2},
				{KindDot, ".", 5},
			},
		},
		{
			name:  "variable reference",
			input: "$price",
			expected: []tok{
				{KindDollar, "$", 0},
				{KindName, "price", 1},
			},
		},
		{
			name:  "attribute shorthand",
			input: "@code",
			expected: []tok{
				{KindAt, "@", 0},
				{KindName, "code", 1},
			},
		},
		{
			name:      "stray exclamation mark",
			input:     "a ! b",
			expectErr: true,
		},
		{
			name:      "stray colon",
			input:     "a : b",
			expectErr: true,
		},
	}

	runTokenizeTests(t, tests)
}

func TestTokenizeNumbers(t *testing.T) {
	tests := []tokenizeTestCase{
		{
			name:     "integer",
			input:    "42",
			expected: []tok{{KindNumber, "42", 0}},
		},
		{
			name:     "decimal",
			input:    "3.14",
			expected: []tok{{KindNumber, "3.14", 0}},
		},
		{
			name:     "leading dot",
			input:    ".5",
			expected: []tok{{KindNumber, ".5", 0}},
		},
		{
			name:     "exponent",
			input:    "1.5e3",
			expected: []tok{{KindNumber, "1.5e3", 0}},
		},
		{
			name:     "exponent with sign",
			input:    "2E-10",
			expected: []tok{{KindNumber, "2E-10", 0}},
		},
		{
			name:  "leading dot does not restart a fraction",
			input: ".5.6",
			expected: []tok{
				{KindNumber, ".5", 0},
				{KindNumber, ".6", 2},
			},
		},
		{
			name:  "number then name",
			input: "10cm",
			expected: []tok{
				{KindNumber, "10", 0},
				{KindName, "cm", 2},
			},
		},
	}

	runTokenizeTests(t, tests)
}

func TestTokenizeStrings(t *testing.T) {
	tests := []tokenizeTestCase{
		{
			name:     "double quoted",
			input:    `"hello"`,
			expected: []tok{{KindString, "hello", 0}},
		},
		{
			name:     "single quoted",
			input:    `'world'`,
			expected: []tok{{KindString, "world", 0}},
		},
		{
			name:     "empty string",
			input:    `""`,
			expected: []tok{{KindString, "", 0}},
		},
		{
			name:     "doubled delimiter escape",
			input:    `"he said ""hi"""`,
			expected: []tok{{KindString, `he said "hi"`, 0}},
		},
		{
			name:     "single quotes inside double quotes",
			input:    `"don't"`,
			expected: []tok{{KindString, "don't", 0}},
		},
		{
			name:      "unterminated string",
			input:     `"hello`,
			expectErr: true,
		},
	}

	runTokenizeTests(t, tests)
}

func TestTokenizeOperatorKeywords(t *testing.T) {
	tests := []tokenizeTestCase{
		{
			name:  "div after operand",
			input: "a div b",
			expected: []tok{
				{KindName, "a", 0},
				{KindDiv, "div", 2},
				{KindName, "b", 6},
			},
		},
		{
			name:  "idiv and mod",
			input: "8 idiv 3 mod 2",
			expected: []tok{
				{KindNumber, "8", 0},
				{KindIDiv, "idiv", 2},
				{KindNumber, "3", 7},
				{KindMod, "mod", 9},
				{KindNumber, "2", 13},
			},
		},
		{
			name:  "value comparison",
			input: "a eq b",
			expected: []tok{
				{KindName, "a", 0},
				{KindValueEq, "eq", 2},
				{KindName, "b", 5},
			},
		},
		{
			name:  "operator keyword in operand position stays a name",
			input: "div + 1",
			expected: []tok{
				{KindName, "div", 0},
				{KindPlus, "+", 4},
				{KindNumber, "1", 6},
			},
		},
		{
			name:  "and or chain",
			input: "a and b or c",
			expected: []tok{
				{KindName, "a", 0},
				{KindAnd, "and", 2},
				{KindName, "b", 6},
				{KindOr, "or", 8},
				{KindName, "c", 11},
			},
		},
		{
			name:  "range keyword",
			input: "1 to 5",
			expected: []tok{
				{KindNumber, "1", 0},
				{KindTo, "to", 2},
				{KindNumber, "5", 5},
			},
		},
		{
			name:  "set operator keywords",
			input: "a union b intersect c except d",
			expected: []tok{
				{KindName, "a", 0},
				{KindUnion, "union", 2},
				{KindName, "b", 8},
				{KindIntersect, "intersect", 10},
				{KindName, "c", 20},
				{KindExcept, "except", 22},
				{KindName, "d", 29},
			},
		},
		{
			name:  "node comparison keyword and symbols",
			input: "a is b << c >> d",
			expected: []tok{
				{KindName, "a", 0},
				{KindIs, "is", 2},
				{KindName, "b", 5},
				{KindPrecedes, "<<", 7},
				{KindName, "c", 10},
				{KindFollows, ">>", 12},
				{KindName, "d", 15},
			},
		},
	}

	runTokenizeTests(t, tests)
}

func TestTokenizeCompositeKeywords(t *testing.T) {
	tests := []tokenizeTestCase{
		{
			name:  "instance of",
			input: "1 instance of item",
			expected: []tok{
				{KindNumber, "1", 0},
				{KindInstanceOf, "instance", 2},
				{KindName, "item", 14},
			},
		},
		{
			name:  "cast as",
			input: "$x cast as y",
			expected: []tok{
				{KindDollar, "$", 0},
				{KindName, "x", 1},
				{KindCastAs, "cast", 3},
				{KindName, "y", 11},
			},
		},
		{
			name:  "castable as",
			input: "5 castable as y",
			expected: []tok{
				{KindNumber, "5", 0},
				{KindCastableAs, "castable", 2},
				{KindName, "y", 14},
			},
		},
		{
			name:  "treat as",
			input: "$v treat as y",
			expected: []tok{
				{KindDollar, "$", 0},
				{KindName, "v", 1},
				{KindTreatAs, "treat", 3},
				{KindName, "y", 12},
			},
		},
		{
			name:  "clause keyword before dollar",
			input: "for $x in $s return $x",
			expected: []tok{
				{KindFor, "for", 0},
				{KindDollar, "$", 4},
				{KindName, "x", 5},
				{KindIn, "in", 7},
				{KindDollar, "$", 10},
				{KindName, "s", 11},
				{KindReturn, "return", 13},
				{KindDollar, "$", 20},
				{KindName, "x", 21},
			},
		},
		{
			name:  "some satisfies",
			input: "some $x in $s satisfies $x",
			expected: []tok{
				{KindSome, "some", 0},
				{KindDollar, "$", 5},
				{KindName, "x", 6},
				{KindIn, "in", 8},
				{KindDollar, "$", 11},
				{KindName, "s", 12},
				{KindSatisfies, "satisfies", 14},
				{KindDollar, "$", 24},
				{KindName, "x", 25},
			},
		},
		{
			name:  "for without dollar stays a name",
			input: "for + 1",
			expected: []tok{
				{KindName, "for", 0},
				{KindPlus, "+", 4},
				{KindNumber, "1", 6},
			},
		},
	}

	runTokenizeTests(t, tests)
}

func TestTokenizeFunctionsAndAxes(t *testing.T) {
	tests := []tokenizeTestCase{
		{
			name:  "function call swallows the paren",
			input: "count(x)",
			expected: []tok{
				{KindFunction, "count", 0},
				{KindName, "x", 6},
				{KindRPar, ")", 7},
			},
		},
		{
			name:  "if keeps its paren",
			input: "if (a) then b else c",
			expected: []tok{
				{KindIf, "if", 0},
				{KindLPar, "(", 3},
				{KindName, "a", 4},
				{KindRPar, ")", 5},
				{KindThen, "then", 7},
				{KindName, "b", 12},
				{KindElse, "else", 14},
				{KindName, "c", 19},
			},
		},
		{
			name:  "node kind test keeps its paren",
			input: "node()",
			expected: []tok{
				{KindNodeKind, "node", 0},
				{KindLPar, "(", 4},
				{KindRPar, ")", 5},
			},
		},
		{
			name:  "axis swallows the double colon",
			input: "child::item",
			expected: []tok{
				{KindAxis, "child", 0},
				{KindName, "item", 7},
			},
		},
		{
			name:  "prefix wildcard swallows colon star",
			input: "ns:*",
			expected: []tok{
				{KindPrefixWildcard, "ns", 0},
			},
		},
		{
			name:  "assignment",
			input: "$x := 1",
			expected: []tok{
				{KindDollar, "$", 0},
				{KindName, "x", 1},
				{KindAssign, ":=", 3},
				{KindNumber, "1", 6},
			},
		},
	}

	runTokenizeTests(t, tests)
}

func TestTokenizeConstructorBacktrack(t *testing.T) {
	tests := []tokenizeTestCase{
		{
			name:  "element name curly merges",
			input: "element foo {1}",
			expected: []tok{
				{KindKeywordCurly, "element foo", 0},
				{KindLCurly, "{", 12},
				{KindNumber, "1", 13},
				{KindRCurly, "}", 14},
			},
		},
		{
			name:  "attribute name curly merges",
			input: "attribute a {2}",
			expected: []tok{
				{KindKeywordCurly, "attribute a", 0},
				{KindLCurly, "{", 12},
				{KindNumber, "2", 13},
				{KindRCurly, "}", 14},
			},
		},
		{
			name:  "no curly restores exactly",
			input: "element div 3",
			expected: []tok{
				{KindName, "element", 0},
				{KindDiv, "div", 8},
				{KindNumber, "3", 12},
			},
		},
		{
			name:  "keyword directly before curly",
			input: "element {x}",
			expected: []tok{
				{KindKeywordCurly, "element", 0},
				{KindLCurly, "{", 8},
				{KindName, "x", 9},
				{KindRCurly, "}", 10},
			},
		},
	}

	runTokenizeTests(t, tests)
}

func TestTokenizeCommentsAndPragmas(t *testing.T) {
	tests := []tokenizeTestCase{
		{
			name:  "simple comment",
			input: "1 (: ignore me :) + 2",
			expected: []tok{
				{KindNumber, "1", 0},
				{KindPlus, "+", 18},
				{KindNumber, "2", 20},
			},
		},
		{
			name:  "nested comment",
			input: "a (: outer (: inner :) still outer :) b",
			expected: []tok{
				{KindName, "a", 0},
				{KindName, "b", 38},
			},
		},
		{
			name:      "unclosed comment",
			input:     "1 (: never ends",
			expectErr: true,
		},
		{
			name:  "pragma becomes a token",
			input: "(# ext #) 1",
			expected: []tok{
				{KindPragma, " ext ", 0},
				{KindNumber, "1", 10},
			},
		},
		{
			name:      "unclosed pragma",
			input:     "(# ext",
			expectErr: true,
		},
	}

	runTokenizeTests(t, tests)
}

func TestTokenizeMarkupStart(t *testing.T) {
	tests := []tokenizeTestCase{
		{
			name:  "less-than after operand is a comparison",
			input: "a < b",
			expected: []tok{
				{KindName, "a", 0},
				{KindLT, "<", 2},
				{KindName, "b", 4},
			},
		},
		{
			name:  "less-than in operand position starts markup",
			input: "< a",
			expected: []tok{
				{KindTag, "<", 0},
				{KindName, "a", 2},
			},
		},
		{
			name:  "general comparisons",
			input: "a <= b >= c != d = e",
			expected: []tok{
				{KindName, "a", 0},
				{KindLE, "<=", 2},
				{KindName, "b", 5},
				{KindGE, ">=", 7},
				{KindName, "c", 10},
				{KindNE, "!=", 12},
				{KindName, "d", 15},
				{KindEquals, "=", 17},
				{KindName, "e", 19},
			},
		},
	}

	runTokenizeTests(t, tests)
}

func TestTokenizerStates(t *testing.T) {
	t.Run("sequence type state keeps star raw", func(t *testing.T) {
		tk := New()
		if err := tk.Tokenize("a * b", 0, -1, 1); err != nil {
			t.Fatal(err)
		}
		tk.State = SequenceTypeState
		if err := tk.Next(); err != nil {
			t.Fatal(err)
		}
		if tk.Kind != KindStar {
			t.Errorf("kind = %v, want %v", tk.Kind, KindStar)
		}
	})

	t.Run("bare name state suppresses reclassification", func(t *testing.T) {
		tk := New()
		if err := tk.Tokenize("$ count(x)", 0, -1, 1); err != nil {
			t.Fatal(err)
		}
		tk.State = BareNameState
		if err := tk.Next(); err != nil {
			t.Fatal(err)
		}
		if tk.Kind != KindName || tk.Value != "count" {
			t.Errorf("got %v %q, want bare name \"count\"", tk.Kind, tk.Value)
		}
		tk.State = DefaultState
		if err := tk.Next(); err != nil {
			t.Fatal(err)
		}
		if tk.Kind != KindLPar {
			t.Errorf("kind = %v, want %v", tk.Kind, KindLPar)
		}
	})

	t.Run("operator state forces the operator reading", func(t *testing.T) {
		tk := New()
		if err := tk.Tokenize("( and", 0, -1, 1); err != nil {
			t.Fatal(err)
		}
		tk.State = OperatorState
		if err := tk.Next(); err != nil {
			t.Fatal(err)
		}
		if tk.Kind != KindAnd {
			t.Errorf("kind = %v, want %v", tk.Kind, KindAnd)
		}
	})
}

func TestTokenizerLookahead(t *testing.T) {
	tk := New()
	if err := tk.Tokenize("a + b", 0, -1, 1); err != nil {
		t.Fatal(err)
	}
	if tk.Kind != KindName || tk.Value != "a" {
		t.Fatalf("current = %v %q, want name a", tk.Kind, tk.Value)
	}
	if tk.Peek() != KindPlus {
		t.Errorf("peek = %v, want %v", tk.Peek(), KindPlus)
	}
	if tk.PeekValue() != "+" {
		t.Errorf("peek value = %q, want +", tk.PeekValue())
	}
	if err := tk.Next(); err != nil {
		t.Fatal(err)
	}
	if tk.Kind != KindPlus {
		t.Errorf("current = %v, want %v", tk.Kind, KindPlus)
	}
	if tk.Peek() != KindName || tk.PeekValue() != "b" {
		t.Errorf("peek = %v %q, want name b", tk.Peek(), tk.PeekValue())
	}
}

func TestTokenizerLineNumbers(t *testing.T) {
	tk := New()
	input := "a +\nb *\n  c"
	if err := tk.Tokenize(input, 0, -1, 1); err != nil {
		t.Fatal(err)
	}
	wantLines := map[string]int{"a": 1, "+": 1, "b": 2, "*": 2, "c": 3}
	for tk.Kind != KindEOF {
		if want, ok := wantLines[tk.Value]; ok {
			if got := tk.CurrentLine(); got != want {
				t.Errorf("token %q: line = %d, want %d", tk.Value, got, want)
			}
			if got := tk.Location().Line; got != want {
				t.Errorf("token %q: location line = %d, want %d", tk.Value, got, want)
			}
		}
		if err := tk.Next(); err != nil {
			t.Fatal(err)
		}
	}
	if got := tk.ColumnNumber(8); got != 1 {
		t.Errorf("column of offset 8 = %d, want 1", got)
	}
}

func TestTokenizerLineNumbersInStrings(t *testing.T) {
	tk := New()
	if err := tk.Tokenize("\"line\none\" + x", 0, -1, 1); err != nil {
		t.Fatal(err)
	}
	if tk.Kind != KindString || tk.Value != "line\none" {
		t.Fatalf("got %v %q", tk.Kind, tk.Value)
	}
	if err := tk.Next(); err != nil {
		t.Fatal(err)
	}
	if tk.Kind != KindPlus || tk.CurrentLine() != 2 {
		t.Errorf("got %v on line %d, want + on line 2", tk.Kind, tk.CurrentLine())
	}
}

func TestRecentTextIsPure(t *testing.T) {
	tk := New()
	if err := tk.Tokenize("alpha beta gamma", 0, -1, 1); err != nil {
		t.Fatal(err)
	}
	if err := tk.Next(); err != nil {
		t.Fatal(err)
	}
	first := tk.RecentText()
	second := tk.RecentText()
	if first != second {
		t.Errorf("RecentText changed state: %q then %q", first, second)
	}
	if tk.Kind != KindName || tk.Value != "beta" {
		t.Errorf("RecentText advanced the token stream: %v %q", tk.Kind, tk.Value)
	}
}

func TestTokenizeSubrange(t *testing.T) {
	input := "xx a + b yy"
	tk := New()
	if err := tk.Tokenize(input, 3, 8, 1); err != nil {
		t.Fatal(err)
	}
	var got []string
	for tk.Kind != KindEOF {
		got = append(got, tk.Value)
		if err := tk.Next(); err != nil {
			t.Fatal(err)
		}
	}
	want := []string{"a", "+", "b"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}

package value

import (
	"strconv"
	"strings"

	"github.com/sandrolain/goxp/pkg/types"
)

// FromUntyped converts the lexical form of an untyped atomic value to the
// given primitive kind. Conversion failures are FORG0001 dynamic errors.
func FromUntyped(lexical string, target types.Primitive) (Atomic, error) {
	s := strings.TrimSpace(lexical)
	switch target {
	case types.PrimString:
		return String(lexical), nil
	case types.PrimUntyped, types.PrimAnyAtomic:
		return Untyped(lexical), nil
	case types.PrimAnyURI:
		return AnyURI(s), nil
	case types.PrimBoolean:
		switch s {
		case "true", "1":
			return Boolean(true), nil
		case "false", "0":
			return Boolean(false), nil
		}
		return nil, castErr(lexical, "xs:boolean")
	case types.PrimInteger:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, castErr(lexical, "xs:integer")
		}
		return Integer(i), nil
	case types.PrimDecimal:
		if strings.ContainsAny(s, "eE") {
			return nil, castErr(lexical, "xs:decimal")
		}
		d, err := DecimalFromString(s)
		if err != nil {
			return nil, castErr(lexical, "xs:decimal")
		}
		return d, nil
	case types.PrimFloat:
		f, err := parseXSFloat(s, 32)
		if err != nil {
			return nil, castErr(lexical, "xs:float")
		}
		return Float(f), nil
	case types.PrimDouble, types.PrimNumeric:
		f, err := parseXSFloat(s, 64)
		if err != nil {
			return nil, castErr(lexical, "xs:double")
		}
		return Double(f), nil
	case types.PrimDate:
		return ParseDate(s)
	case types.PrimDayTimeDuration:
		return ParseDayTimeDuration(s)
	case types.PrimYearMonthDuration:
		return ParseYearMonthDuration(s)
	default:
		return nil, castErr(lexical, "unsupported target type")
	}
}

// ToDouble converts an atomic value to a double using the XPath 1.0
// fallback rules: numbers widen, strings and untyped atomics parse (NaN on
// failure), booleans map to 0/1.
func ToDouble(a Atomic) Double {
	switch v := a.(type) {
	case Numeric:
		return Double(v.Float64())
	case Boolean:
		if v {
			return 1
		}
		return 0
	default:
		f, err := parseXSFloat(strings.TrimSpace(a.StringValue()), 64)
		if err != nil {
			return Double(nan())
		}
		return Double(f)
	}
}

// ParseNumber constructs the numeric value of a NUMBER token. Lexical
// forms with an exponent become doubles, forms with a decimal point become
// decimals, everything else becomes an integer (widening to decimal when
// it exceeds the int64 range). Malformed tails the tokenizer deliberately
// accepts, such as "1.0e+", are rejected here.
func ParseNumber(lexical string) (Numeric, error) {
	if strings.ContainsAny(lexical, "eE") {
		f, err := strconv.ParseFloat(lexical, 64)
		if err != nil {
			return nil, types.NewError(types.ErrInvalidCast,
				"invalid numeric literal "+strconv.Quote(lexical), -1)
		}
		return Double(f), nil
	}
	if strings.Contains(lexical, ".") {
		return DecimalFromString(lexical)
	}
	i, err := strconv.ParseInt(lexical, 10, 64)
	if err != nil {
		return DecimalFromString(lexical)
	}
	return Integer(i), nil
}

// parseXSFloat parses the XSD float/double lexical space, which spells the
// special values INF, -INF and NaN (Go's ParseFloat accepts "Inf").
func parseXSFloat(s string, bits int) (float64, error) {
	switch s {
	case "INF", "+INF":
		return inf(1), nil
	case "-INF":
		return inf(-1), nil
	case "NaN":
		return nan(), nil
	}
	// ParseFloat is laxer than XSD: it admits hex floats and the
	// Inf/Infinity spellings, which are not in the lexical space.
	lower := strings.ToLower(s)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") || strings.Contains(lower, "x") {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(s, bits)
}

func castErr(lexical, target string) *types.Error {
	return types.NewError(types.ErrInvalidCast,
		"cannot convert "+strconv.Quote(lexical)+" to "+target, -1)
}

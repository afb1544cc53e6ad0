package types

import "fmt"

// ErrorCode represents an XPath error code.
type ErrorCode string

// Error codes from the XPath 2.0 specification.
const (
	// XPSTxxxx: static errors
	ErrSyntax          ErrorCode = "XPST0003"
	ErrUndefinedName   ErrorCode = "XPST0008"
	ErrUnknownFunction ErrorCode = "XPST0017"
	ErrStaticType      ErrorCode = "XPTY0004"

	// XPDYxxxx: dynamic errors
	ErrAbsentContext ErrorCode = "XPDY0002"
	ErrDynamicType   ErrorCode = "XPTY0004"

	// FOxxxxxx: function/operator errors
	ErrDivisionByZero   ErrorCode = "FOAR0001"
	ErrNumericOverflow  ErrorCode = "FOAR0002"
	ErrInvalidCast      ErrorCode = "FORG0001"
	ErrNotSingleton     ErrorCode = "FORG0003"
	ErrInvalidArgument  ErrorCode = "FORG0006"
	ErrDateOverflow     ErrorCode = "FODT0001"
	ErrDurationOverflow ErrorCode = "FODT0002"
)

// Location identifies a point in the expression source.
// Offset is the absolute character offset; Line is 1-based and derived
// from the tokenizer's newline table.
type Location struct {
	Line   int
	Offset int
}

// Unknown reports whether the location carries no real position.
func (l Location) Unknown() bool {
	return l.Line == 0 && l.Offset == 0
}

// Locatable is implemented by anything that knows its source location.
type Locatable interface {
	Location() Location
}

// Error represents a structured XPath error.
type Error struct {
	Code        ErrorCode
	Message     string
	Loc         Location
	Token       string
	IsTypeError bool // static type error, as opposed to other static errors
	Err         error
}

// NewError creates a new XPath error at the given offset.
func NewError(code ErrorCode, message string, offset int) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Loc:     Location{Offset: offset},
	}
}

// NewTypeError creates a static type error. Type errors are never
// downgraded to warnings or deferred to evaluation time.
func NewTypeError(message string) *Error {
	return &Error{
		Code:        ErrStaticType,
		Message:     message,
		IsTypeError: true,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Loc.Offset > 0 || e.Loc.Line > 0 {
		return fmt.Sprintf("%s at offset %d: %s", e.Code, e.Loc.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithToken adds the offending token text to the error.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// MaybeLocate attaches loc if the error does not already carry a location.
// An existing location is never overwritten: the innermost node wins.
func (e *Error) MaybeLocate(loc Location) *Error {
	if e.Loc.Unknown() && !loc.Unknown() {
		e.Loc = loc
	}
	return e
}

// AsError converts an arbitrary error into an *Error, wrapping foreign
// errors (e.g. native arithmetic faults) under the given code so callers
// see one error surface regardless of cause.
func AsError(err error, code ErrorCode) *Error {
	if xe, ok := err.(*Error); ok {
		return xe
	}
	return &Error{
		Code:    code,
		Message: err.Error(),
		Err:     err,
	}
}

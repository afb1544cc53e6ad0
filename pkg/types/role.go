package types

import "fmt"

// RoleKind identifies the construct an operand belongs to, for diagnostics.
type RoleKind uint8

const (
	RoleFunctionArgument RoleKind = iota
	RoleBinaryOperand
	RoleUnaryOperand
	RoleVariable
	RoleTypeOperation
)

// Role carries the diagnostic context for a type check: which operator or
// function the operand belongs to and at which position. Roles have no
// behavioral significance beyond error reporting.
type Role struct {
	Kind     RoleKind
	Operator string // operator or function name
	Position int    // 0-based argument position, or 0/1 for operand side
}

// FunctionArgRole describes the n-th argument of the named function.
func FunctionArgRole(name string, pos int) *Role {
	return &Role{Kind: RoleFunctionArgument, Operator: name, Position: pos}
}

// OperandRole describes one side of the named binary operator.
func OperandRole(op string, side int) *Role {
	return &Role{Kind: RoleBinaryOperand, Operator: op, Position: side}
}

// VariableRole describes the value bound to the named variable.
func VariableRole(name string) *Role {
	return &Role{Kind: RoleVariable, Operator: name}
}

// Message returns the diagnostic fragment naming the operand.
func (r *Role) Message() string {
	if r == nil {
		return "value"
	}
	switch r.Kind {
	case RoleFunctionArgument:
		return fmt.Sprintf("argument %d of %s()", r.Position+1, r.Operator)
	case RoleBinaryOperand:
		side := "first"
		if r.Position == 1 {
			side = "second"
		}
		return fmt.Sprintf("%s operand of %q", side, r.Operator)
	case RoleUnaryOperand:
		return fmt.Sprintf("operand of %q", r.Operator)
	case RoleVariable:
		return fmt.Sprintf("value of variable $%s", r.Operator)
	case RoleTypeOperation:
		return fmt.Sprintf("value in %q expression", r.Operator)
	default:
		return "value"
	}
}

package expr

import (
	"github.com/sandrolain/goxp/pkg/types"
)

// SystemFunction is the implementation of a built-in function: it gets
// the dynamic context and fully materialized arguments.
type SystemFunction func(ctx *Context, args [][]types.Item) ([]types.Item, error)

// FunctionSignature describes a callable's arguments and result.
type FunctionSignature struct {
	Name   string
	Args   []types.SequenceType
	Result types.SequenceType
}

// FunctionCall invokes a built-in function. Argument type checking has
// already wrapped each argument in the conversions its declared type
// requires.
type FunctionCall struct {
	baseExpr
	sig  FunctionSignature
	fn   SystemFunction
	args []Expression
}

// NewFunctionCall builds a call to the given built-in.
func NewFunctionCall(sig FunctionSignature, fn SystemFunction, args []Expression) (*FunctionCall, error) {
	if len(args) != len(sig.Args) {
		return nil, types.NewError(types.ErrUnknownFunction,
			"wrong number of arguments to "+sig.Name, -1)
	}
	return &FunctionCall{sig: sig, fn: fn, args: args}, nil
}

func (f *FunctionCall) Name() string { return f.sig.Name }

func (f *FunctionCall) ItemType() types.ItemType       { return f.sig.Result.Item }
func (f *FunctionCall) Cardinality() types.Cardinality { return f.sig.Result.Card }

func (f *FunctionCall) Operands() []Expression { return f.args }

// Argument returns the i-th argument expression.
func (f *FunctionCall) Argument(i int) Expression { return f.args[i] }

// SetArgument replaces the i-th argument, as done when type checking
// inserts conversion wrappers.
func (f *FunctionCall) SetArgument(i int, e Expression) { f.args[i] = e }

func (f *FunctionCall) Evaluate(ctx *Context) (types.Item, error) {
	it, err := f.Iterate(ctx)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	return First(it)
}

func (f *FunctionCall) Iterate(ctx *Context) (SequenceIterator, error) {
	args := make([][]types.Item, len(f.args))
	for i, arg := range f.args {
		it, err := arg.Iterate(ctx)
		if err != nil {
			return nil, err
		}
		if args[i], err = Materialize(it); err != nil {
			return nil, err
		}
	}
	items, err := f.fn(ctx, args)
	if err != nil {
		return nil, locate(err, f)
	}
	return SliceIterator(items), nil
}

// UserFunction is a declared function: a body, parameter bindings and a
// declared result type. Calls in tail position within the body do not
// grow the Go stack; the trampoline in Call replays them iteratively.
type UserFunction struct {
	Sig       FunctionSignature
	Params    []*LocalBinding
	Body      Expression
	FrameSize int
}

// Call evaluates the function with the given argument values. When the
// body ends in a tail call the callee's body is evaluated in a loop on
// this same invocation rather than recursively.
func (u *UserFunction) Call(ctx *Context, args []*Value) ([]types.Item, error) {
	fn := u
	frame := NewStackFrame(fn.FrameSize)
	invocation := &Context{parent: ctx, frame: frame, owner: fn, major: true}

	for {
		bindArgs(frame, fn.Params, args)
		it, err := fn.Body.Iterate(invocation)
		if err != nil {
			return nil, err
		}
		items, err := Materialize(it)
		if err != nil {
			return nil, err
		}
		tc := invocation.takeTailCall()
		if tc == nil {
			return items, nil
		}
		// replay the pending tail call on this frame
		fn = tc.fn
		args = tc.args
		if fn.FrameSize > len(frame.slots) {
			frame.slots = make([]*Value, fn.FrameSize)
		} else {
			for i := range frame.slots {
				frame.slots[i] = nil
			}
		}
		invocation.owner = fn
	}
}

func bindArgs(frame *StackFrame, params []*LocalBinding, args []*Value) {
	for i, p := range params {
		frame.SetSlot(p.Slot(), args[i])
	}
}

// ParamPolicy selects the evaluation strategy for one argument from the
// parameter's static reference count within the body.
type ParamPolicy uint8

const (
	// PolicySkip drops the argument entirely; the parameter is never read.
	PolicySkip ParamPolicy = iota
	// PolicyEager materializes the argument before the call.
	PolicyEager
	// PolicyDeferred re-evaluates the argument on each read.
	PolicyDeferred
	// PolicyMemoized evaluates on first read and caches.
	PolicyMemoized
)

// ChoosePolicy derives the strategy from the reference count of the
// parameter and whether the argument itself contains a user function
// call, which must be forced eagerly so its own tail calls are not
// replayed on the wrong frame.
func ChoosePolicy(refCount int, arg Expression) ParamPolicy {
	if refCount == 0 {
		return PolicySkip
	}
	if containsUserCall(arg) {
		return PolicyEager
	}
	if refCount == 1 {
		return PolicyDeferred
	}
	return PolicyMemoized
}

func containsUserCall(e Expression) bool {
	if _, ok := e.(*UserFunctionCall); ok {
		return true
	}
	for _, op := range e.Operands() {
		if op != nil && containsUserCall(op) {
			return true
		}
	}
	return false
}

// UserFunctionCall invokes a declared function. A call marked tail
// recursive does not invoke the callee directly; it parks the evaluated
// arguments on the enclosing frame's tail-call slot and returns empty.
type UserFunctionCall struct {
	baseExpr
	target   *UserFunction
	args     []Expression
	policies []ParamPolicy
	tail     bool
}

// NewUserFunctionCall builds a call to the given declared function with
// per-argument evaluation policies.
func NewUserFunctionCall(target *UserFunction, args []Expression, policies []ParamPolicy) (*UserFunctionCall, error) {
	if len(args) != len(target.Params) {
		return nil, types.NewError(types.ErrUnknownFunction,
			"wrong number of arguments to "+target.Sig.Name, -1)
	}
	if policies == nil {
		policies = make([]ParamPolicy, len(args))
		for i := range policies {
			policies[i] = PolicyEager
		}
	}
	return &UserFunctionCall{target: target, args: args, policies: policies}, nil
}

// SetTailRecursive marks this call as being in tail position within some
// function body.
func (c *UserFunctionCall) SetTailRecursive() { c.tail = true }

// IsTailRecursive reports whether the call is in tail position.
func (c *UserFunctionCall) IsTailRecursive() bool { return c.tail }

func (c *UserFunctionCall) Target() *UserFunction { return c.target }

func (c *UserFunctionCall) ItemType() types.ItemType       { return c.target.Sig.Result.Item }
func (c *UserFunctionCall) Cardinality() types.Cardinality { return c.target.Sig.Result.Card }

func (c *UserFunctionCall) Operands() []Expression { return c.args }

func (c *UserFunctionCall) Evaluate(ctx *Context) (types.Item, error) {
	it, err := c.Iterate(ctx)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	return First(it)
}

func (c *UserFunctionCall) Iterate(ctx *Context) (SequenceIterator, error) {
	args, err := c.evalArgs(ctx)
	if err != nil {
		return nil, err
	}
	if c.tail && ctx.enclosingFunction() != nil {
		// tail position: park the call for the trampoline instead of
		// growing the stack; lazy arguments still reference the frame
		// the trampoline is about to reset, so force them now
		for i, v := range args {
			if v.Kind() != Materialized {
				items, err := v.Force()
				if err != nil {
					return nil, locate(err, c)
				}
				args[i] = MaterializedValue(items)
			}
		}
		ctx.requestTailCall(c.target, args)
		return EmptyIterator(), nil
	}
	items, err := c.target.Call(ctx, args)
	if err != nil {
		return nil, locate(err, c)
	}
	return SliceIterator(items), nil
}

func (c *UserFunctionCall) evalArgs(ctx *Context) ([]*Value, error) {
	args := make([]*Value, len(c.args))
	for i, arg := range c.args {
		switch c.policies[i] {
		case PolicySkip:
			args[i] = MaterializedValue(nil)
		case PolicyEager:
			it, err := arg.Iterate(ctx)
			if err != nil {
				return nil, err
			}
			items, err := Materialize(it)
			if err != nil {
				return nil, err
			}
			args[i] = MaterializedValue(items)
		case PolicyDeferred:
			args[i] = DeferredValue(arg, ctx)
		default:
			args[i] = MemoizedValue(arg, ctx)
		}
	}
	return args, nil
}

package expr

import (
	"time"

	"github.com/sandrolain/goxp/pkg/types"
)

// Context is the dynamic evaluation context: the focus (current item,
// position and size), the stack frame of local variable slots, the output
// receiver and the pending tail-call slot.
//
// Contexts form a delegation chain: a minor context overrides only the
// focus, a major context owns a fresh stack frame, receiver and tail-call
// slot. Reading any field not locally set transparently delegates to the
// parent, terminating at the root context owned by the top-level caller.
type Context struct {
	parent     *Context
	focus      SequenceIterator
	frame      *StackFrame
	receiver   ItemReceiver
	implicitTZ *time.Location

	// major contexts only
	owner    *UserFunction
	tailCall *tailCallRequest
	major    bool
}

// StackFrame holds the local variable slots of one call frame. A frame is
// owned exclusively by the call it belongs to; child contexts read or
// extend it but never mutate it in place, except for the trampoline's
// slot reset, which is safe because tail position leaves no pending
// reference to the old values.
type StackFrame struct {
	slots []*Value
}

// NewStackFrame allocates a frame with the given number of slots.
func NewStackFrame(size int) *StackFrame {
	return &StackFrame{slots: make([]*Value, size)}
}

// Slot returns the value in the given slot.
func (f *StackFrame) Slot(i int) *Value { return f.slots[i] }

// SetSlot stores a value in the given slot.
func (f *StackFrame) SetSlot(i int, v *Value) { f.slots[i] = v }

// ItemReceiver accepts items in push mode.
type ItemReceiver interface {
	Append(types.Item) error
}

// SequenceCollector is an ItemReceiver that materializes what it is given.
type SequenceCollector struct {
	Items []types.Item
}

func (c *SequenceCollector) Append(item types.Item) error {
	c.Items = append(c.Items, item)
	return nil
}

// NewContext creates a root context with a frame of the given size. The
// implicit timezone defaults to UTC.
func NewContext(frameSize int) *Context {
	return &Context{
		frame:      NewStackFrame(frameSize),
		implicitTZ: time.UTC,
		major:      true,
	}
}

// NewMinor returns a child context sharing everything with its parent
// except the focus.
func (c *Context) NewMinor(focus SequenceIterator) *Context {
	return &Context{parent: c, focus: focus}
}

// NewMajor returns a child context with a fresh stack frame and its own
// tail-call slot, as created for a function invocation.
func (c *Context) NewMajor(frameSize int) *Context {
	return &Context{
		parent: c,
		frame:  NewStackFrame(frameSize),
		major:  true,
	}
}

// SetReceiver installs an output receiver on this context.
func (c *Context) SetReceiver(r ItemReceiver) { c.receiver = r }

// SetImplicitTimezone sets the implicit timezone on this context.
func (c *Context) SetImplicitTimezone(tz *time.Location) { c.implicitTZ = tz }

// Focus returns the nearest focus iterator in the delegation chain, or
// nil when no focus has been established.
func (c *Context) Focus() SequenceIterator {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.focus != nil {
			return cur.focus
		}
	}
	return nil
}

// CurrentItem returns the context item, or an XPDY0002 error when the
// focus is absent.
func (c *Context) CurrentItem() (types.Item, error) {
	f := c.Focus()
	if f == nil || f.Current() == nil {
		return nil, types.NewError(types.ErrAbsentContext, "the context item is absent", -1)
	}
	return f.Current(), nil
}

// Frame returns the nearest stack frame in the delegation chain.
func (c *Context) Frame() *StackFrame {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.frame != nil {
			return cur.frame
		}
	}
	return nil
}

// Receiver returns the nearest output receiver in the delegation chain.
func (c *Context) Receiver() ItemReceiver {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.receiver != nil {
			return cur.receiver
		}
	}
	return nil
}

// ImplicitTimezone returns the nearest implicit timezone.
func (c *Context) ImplicitTimezone() *time.Location {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.implicitTZ != nil {
			return cur.implicitTZ
		}
	}
	return time.UTC
}

// nearestMajor returns the closest context owning a frame and tail-call
// slot.
func (c *Context) nearestMajor() *Context {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.major {
			return cur
		}
	}
	return nil
}

// requestTailCall records a pending tail call on the enclosing call
// frame. The trampoline reads and clears the slot after the function body
// completes.
func (c *Context) requestTailCall(fn *UserFunction, args []*Value) {
	if m := c.nearestMajor(); m != nil {
		m.tailCall = &tailCallRequest{fn: fn, args: args}
	}
}

// takeTailCall removes and returns the pending tail-call request, if any.
func (c *Context) takeTailCall() *tailCallRequest {
	m := c.nearestMajor()
	if m == nil || m.tailCall == nil {
		return nil
	}
	tc := m.tailCall
	m.tailCall = nil
	return tc
}

// enclosingFunction returns the user function whose body is being
// evaluated, if any.
func (c *Context) enclosingFunction() *UserFunction {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.owner != nil {
			return cur.owner
		}
		if cur.major {
			// a major context without an owner is a fresh frame not
			// belonging to any user function body
			return nil
		}
	}
	return nil
}

// tailCallRequest is a pending same-frame invocation recorded by a call
// in tail position.
type tailCallRequest struct {
	fn   *UserFunction
	args []*Value
}

// Binding identifies a variable's declaration site: its required type and
// the way to fetch its current value from the dynamic context. Bindings
// are fixed at compile time; many VariableReference nodes may share one.
type Binding interface {
	Name() string
	RequiredType() types.SequenceType
	Evaluate(ctx *Context) ([]types.Item, error)
}

// LocalBinding is a binding to a stack-frame slot.
type LocalBinding struct {
	name     string
	slot     int
	required types.SequenceType
}

// NewLocalBinding declares a local variable bound to the given slot.
func NewLocalBinding(name string, slot int, required types.SequenceType) *LocalBinding {
	return &LocalBinding{name: name, slot: slot, required: required}
}

func (b *LocalBinding) Name() string                     { return b.name }
func (b *LocalBinding) RequiredType() types.SequenceType { return b.required }
func (b *LocalBinding) Slot() int                        { return b.slot }

// Evaluate fetches and forces the slot value.
func (b *LocalBinding) Evaluate(ctx *Context) ([]types.Item, error) {
	frame := ctx.Frame()
	if frame == nil || b.slot >= len(frame.slots) || frame.slots[b.slot] == nil {
		return nil, types.NewError(types.ErrUndefinedName, "variable $"+b.name+" has no value", -1)
	}
	return frame.slots[b.slot].Force()
}

// VariableReference reads a variable through its binding.
type VariableReference struct {
	baseExpr
	binding Binding
}

// NewVariableReference builds a reference to the given binding.
func NewVariableReference(binding Binding) *VariableReference {
	return &VariableReference{binding: binding}
}

func (v *VariableReference) Binding() Binding { return v.binding }

func (v *VariableReference) ItemType() types.ItemType {
	return v.binding.RequiredType().Item
}

func (v *VariableReference) Cardinality() types.Cardinality {
	return v.binding.RequiredType().Card
}

func (v *VariableReference) Evaluate(ctx *Context) (types.Item, error) {
	items, err := v.binding.Evaluate(ctx)
	if err != nil {
		return nil, locate(err, v)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

func (v *VariableReference) Iterate(ctx *Context) (SequenceIterator, error) {
	items, err := v.binding.Evaluate(ctx)
	if err != nil {
		return nil, locate(err, v)
	}
	return SliceIterator(items), nil
}

func (v *VariableReference) Operands() []Expression { return nil }

// ValueKind tags the evaluation strategy of a Value.
type ValueKind uint8

const (
	// Materialized values hold their items directly.
	Materialized ValueKind = iota
	// Deferred values evaluate their expression on each force; used for
	// arguments referenced exactly once.
	Deferred
	// Memoized values evaluate on first force and cache; used for
	// arguments referenced more than once.
	Memoized
)

// Value is a possibly-lazy variable value: materialized, deferred or
// memoized. The laziness policy is chosen per function argument from the
// parameter's static reference count.
type Value struct {
	kind   ValueKind
	items  []types.Item
	expr   Expression
	ctx    *Context
	forced bool
}

// MaterializedValue wraps an already-computed sequence.
func MaterializedValue(items []types.Item) *Value {
	return &Value{kind: Materialized, items: items}
}

// DeferredValue wraps an unevaluated expression closed over its context.
func DeferredValue(e Expression, ctx *Context) *Value {
	return &Value{kind: Deferred, expr: e, ctx: ctx}
}

// MemoizedValue is a deferred value that caches its first result.
func MemoizedValue(e Expression, ctx *Context) *Value {
	return &Value{kind: Memoized, expr: e, ctx: ctx}
}

// Kind returns the value's evaluation strategy.
func (v *Value) Kind() ValueKind { return v.kind }

// Force produces the value's items according to its strategy.
func (v *Value) Force() ([]types.Item, error) {
	switch v.kind {
	case Materialized:
		return v.items, nil
	case Deferred:
		it, err := v.expr.Iterate(v.ctx)
		if err != nil {
			return nil, err
		}
		return Materialize(it)
	default: // Memoized
		if v.forced {
			return v.items, nil
		}
		it, err := v.expr.Iterate(v.ctx)
		if err != nil {
			return nil, err
		}
		items, err := Materialize(it)
		if err != nil {
			return nil, err
		}
		v.items = items
		v.forced = true
		return items, nil
	}
}

package object

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/wippyai/gobject-runtime/gtype"
	"github.com/wippyai/gobject-runtime/param"
	"github.com/wippyai/gobject-runtime/signal"
	"github.com/wippyai/gobject-runtime/value"
	"go.uber.org/zap"
)

var serialSeq atomic.Uint64

// Instance is the runtime record of one object. Callers hold it through
// Object handles; the raw pointer is only exposed as a borrowed identity.
type Instance struct {
	class        *Class
	impls        map[gtype.Type]any
	props        map[*param.Spec]value.Value
	data         map[string]any
	weakNotify   []func()
	pending      []*param.Spec
	handlers     signal.Handlers
	serial       uint64
	typ          gtype.Type
	refs         atomic.Int64
	mu           sync.Mutex
	freeze       int
	floating     atomic.Bool
	constructing atomic.Bool
	finalized    atomic.Bool
}

// Object is an owning handle to an Instance. Each Object value obtained from
// New, Ref, TakeOwned, Borrow or WeakRef.Upgrade accounts for exactly one
// reference and must be released with Unref. Copying the struct does not
// take a reference.
//
// Two handles are equal (==) iff they refer to the same instance.
type Object struct {
	p *Instance
}

// TakeOwned wraps a pointer whose reference the caller transfers. It panics on
// nil or on an instance whose count already reached zero.
func TakeOwned(p *Instance) Object {
	if p == nil {
		panic("object: TakeOwned of nil instance")
	}
	if p.refs.Load() <= 0 {
		panic(fmt.Sprintf("object: TakeOwned of %s with zero reference count", p.typ))
	}
	return Object{p: p}
}

// Borrow takes a new reference on an instance the caller does not own.
// A floating instance is sunk instead: the floating reference becomes the
// returned handle's reference.
func Borrow(p *Instance) Object {
	if p == nil {
		panic("object: Borrow of nil instance")
	}
	o := Object{p: p}
	return o.RefSink()
}

// Ptr returns the raw instance pointer. It is borrowed and must not outlive o.
func (o Object) Ptr() *Instance {
	return o.p
}

// IsNil reports whether o holds no instance.
func (o Object) IsNil() bool {
	return o.p == nil
}

// AsObject returns o itself. Typed views inherit it to expose their handle.
func (o Object) AsObject() Object {
	return o
}

// Type returns the runtime type of the instance.
func (o Object) Type() gtype.Type {
	if o.p == nil {
		return gtype.Invalid
	}
	return o.p.typ
}

// IsA reports whether the instance's type is, derives from or implements t.
func (o Object) IsA(t gtype.Type) bool {
	return o.Type().IsA(t)
}

// Serial returns a process-unique number assigned at construction. It orders
// and hashes handles by identity.
func (o Object) Serial() uint64 {
	if o.p == nil {
		return 0
	}
	return o.p.serial
}

// Equal reports whether both handles refer to the same instance.
func (o Object) Equal(other Object) bool {
	return o.p == other.p
}

// Compare orders handles by instance serial.
func (o Object) Compare(other Object) int {
	a, b := o.Serial(), other.Serial()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (o Object) String() string {
	if o.p == nil {
		return "<nil object>"
	}
	return fmt.Sprintf("%s@%d", o.p.typ, o.p.serial)
}

// Class returns the class of the instance.
func (o Object) Class() *Class {
	return o.p.class
}

// Ref takes another reference and returns it as a new handle. It panics,
// leaving the count untouched, when the instance is already finalized.
func (o Object) Ref() Object {
	for {
		n := o.p.refs.Load()
		if n <= 0 {
			panic(fmt.Sprintf("object: Ref of finalized %s", o))
		}
		if o.p.refs.CompareAndSwap(n, n+1) {
			return o
		}
	}
}

// RefSink converts a floating reference into a normal one, or takes a new
// reference when the instance is not floating.
func (o Object) RefSink() Object {
	if o.p.floating.CompareAndSwap(true, false) {
		return o
	}
	return o.Ref()
}

// IsFloating reports whether the instance still carries its floating reference.
func (o Object) IsFloating() bool {
	return o.p.floating.Load()
}

// RefCount returns the current count. For diagnostics only.
func (o Object) RefCount() int64 {
	return o.p.refs.Load()
}

// Unref releases the reference held by o. Releasing the last reference
// disposes and finalizes the instance.
func (o Object) Unref() {
	for {
		n := o.p.refs.Load()
		if n <= 0 {
			panic(fmt.Sprintf("object: Unref of finalized %s", o))
		}
		if !o.p.refs.CompareAndSwap(n, n-1) {
			continue
		}
		if n == 1 {
			o.p.finalize(o)
		}
		return
	}
}

func (p *Instance) finalize(o Object) {
	if !p.finalized.CompareAndSwap(false, true) {
		panic(fmt.Sprintf("object: %s finalized twice", o))
	}

	levels := p.typ.Ancestors()
	for _, t := range levels {
		if d, ok := p.impls[t].(Disposer); ok {
			d.Dispose(o)
		}
	}

	p.mu.Lock()
	notify := p.weakNotify
	p.weakNotify = nil
	props := p.props
	p.props = nil
	p.data = nil
	p.mu.Unlock()

	for _, fn := range notify {
		fn()
	}
	disconnected := p.handlers.DisconnectAll()

	for _, v := range props {
		if held, ok := handleOf(v.Instance()); ok {
			held.Unref()
		}
	}

	for _, t := range levels {
		if f, ok := p.impls[t].(Finalizer); ok {
			f.Finalize(o)
		}
	}

	Logger().Debug("finalized instance",
		zap.String("type", p.typ.Name()),
		zap.Uint64("serial", p.serial),
		zap.Int("handlers", disconnected))
}

// SetData attaches an arbitrary value to the instance under key.
func (o Object) SetData(key string, v any) {
	o.p.mu.Lock()
	defer o.p.mu.Unlock()
	if o.p.data == nil {
		o.p.data = make(map[string]any)
	}
	if v == nil {
		delete(o.p.data, key)
		return
	}
	o.p.data[key] = v
}

// Data returns the value attached under key.
func (o Object) Data(key string) (any, bool) {
	o.p.mu.Lock()
	defer o.p.mu.Unlock()
	v, ok := o.p.data[key]
	return v, ok
}

// WeakRef observes an instance without keeping it alive.
type WeakRef struct {
	p *Instance
}

// Downgrade returns a weak reference to the instance.
func (o Object) Downgrade() WeakRef {
	return WeakRef{p: o.p}
}

// Upgrade returns a new owning handle while the instance is alive. Once the
// last owning handle has been released it always fails.
func (w WeakRef) Upgrade() (Object, bool) {
	if w.p == nil {
		return Object{}, false
	}
	for {
		n := w.p.refs.Load()
		if n <= 0 {
			return Object{}, false
		}
		if w.p.refs.CompareAndSwap(n, n+1) {
			return Object{p: w.p}, true
		}
	}
}

// AddWeakNotify registers fn to run when the instance is finalized.
func (o Object) AddWeakNotify(fn func()) {
	o.p.mu.Lock()
	defer o.p.mu.Unlock()
	o.p.weakNotify = append(o.p.weakNotify, fn)
}

// Impl returns the implementation object created for level t of the
// instance's hierarchy, or nil if that level has none.
func (o Object) Impl(t gtype.Type) any {
	return o.p.impls[t]
}

// ImplOf returns the implementation of level t as T.
func ImplOf[T any](o Object, t gtype.Type) (T, bool) {
	impl, ok := o.p.impls[t].(T)
	return impl, ok
}

func handleOf(inst value.Instance) (Object, bool) {
	h, ok := inst.(interface{ AsObject() Object })
	if !ok {
		return Object{}, false
	}
	o := h.AsObject()
	return o, o.p != nil
}

// FromValue returns the object held by v as an owning handle. The caller
// must Unref it.
func FromValue(v value.Value) (Object, bool) {
	o, ok := handleOf(v.Instance())
	if !ok {
		return Object{}, false
	}
	return o.Ref(), true
}

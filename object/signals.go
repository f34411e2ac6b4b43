package object

import (
	"context"

	"github.com/wippyai/gobject-runtime/mainloop"
	"github.com/wippyai/gobject-runtime/param"
	"github.com/wippyai/gobject-runtime/signal"
	"github.com/wippyai/gobject-runtime/value"
)

// TryConnect connects fn to "signal" or "signal::detail".
func (o Object) TryConnect(detailedSignal string, after bool, fn signal.Handler) (signal.HandlerID, error) {
	id, detail, err := signal.ParseName(detailedSignal, o.Type())
	if err != nil {
		return 0, err
	}
	return o.p.handlers.Connect(id, detail, after, fn)
}

// Connect is TryConnect that panics on an unknown signal.
func (o Object) Connect(detailedSignal string, after bool, fn signal.Handler) signal.HandlerID {
	id, err := o.TryConnect(detailedSignal, after, fn)
	if err != nil {
		panic(err)
	}
	return id
}

// ConnectLocal connects a handler that may only run while owner is being
// dispatched on the emitting goroutine.
func (o Object) ConnectLocal(owner *mainloop.Context, detailedSignal string, after bool, fn signal.Handler) (signal.HandlerID, error) {
	id, detail, err := signal.ParseName(detailedSignal, o.Type())
	if err != nil {
		return 0, err
	}
	return o.p.handlers.ConnectLocal(id, detail, after, owner, fn)
}

// ConnectID connects by signal ID.
func (o Object) ConnectID(id signal.ID, detail string, after bool, fn signal.Handler) (signal.HandlerID, error) {
	return o.p.handlers.Connect(id, detail, after, fn)
}

// ConnectNotify calls fn after the property name changes, or after any
// property changes when name is empty.
func (o Object) ConnectNotify(name string, fn func(o Object, spec *param.Spec)) signal.HandlerID {
	detailed := "notify"
	if name != "" {
		detailed += "::" + param.Canonicalize(name)
	}
	return o.Connect(detailed, false, func(e *signal.Emission) value.Value {
		spec, _ := value.Get[*param.Spec](e.Arg(0))
		fn(o, spec)
		return value.Value{}
	})
}

// Disconnect removes a handler.
func (o Object) Disconnect(id signal.HandlerID) bool {
	return o.p.handlers.Disconnect(id)
}

// BlockHandler suspends a handler.
func (o Object) BlockHandler(id signal.HandlerID) bool {
	return o.p.handlers.Block(id)
}

// UnblockHandler resumes a handler.
func (o Object) UnblockHandler(id signal.HandlerID) bool {
	return o.p.handlers.Unblock(id)
}

// HandlerIsConnected reports whether id is connected to this instance.
func (o Object) HandlerIsConnected(id signal.HandlerID) bool {
	return o.p.handlers.IsConnected(id)
}

// HandlerCount returns the number of handlers connected to a signal.
func (o Object) HandlerCount(id signal.ID) int {
	return o.p.handlers.Count(id)
}

func toValues(args []any) ([]value.Value, error) {
	out := make([]value.Value, len(args))
	for i, a := range args {
		v, err := value.TryFrom(a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// EmitContext emits "signal" or "signal::detail" with args converted by
// value.From. ctx identifies the emitting goroutine for thread-confined
// handlers.
func (o Object) EmitContext(ctx context.Context, detailedSignal string, args ...any) (value.Value, error) {
	id, detail, err := signal.ParseName(detailedSignal, o.Type())
	if err != nil {
		return value.Value{}, err
	}
	vals, err := toValues(args)
	if err != nil {
		return value.Value{}, err
	}
	return o.p.handlers.Emit(ctx, o, id, detail, vals)
}

// TryEmit is EmitContext with a background context.
func (o Object) TryEmit(detailedSignal string, args ...any) (value.Value, error) {
	return o.EmitContext(context.Background(), detailedSignal, args...)
}

// Emit is TryEmit that panics on error.
func (o Object) Emit(detailedSignal string, args ...any) value.Value {
	ret, err := o.TryEmit(detailedSignal, args...)
	if err != nil {
		panic(err)
	}
	return ret
}

// EmitByID emits a resolved signal with already built values.
func (o Object) EmitByID(ctx context.Context, id signal.ID, detail string, args ...value.Value) (value.Value, error) {
	return o.p.handlers.Emit(ctx, o, id, detail, args)
}

package signal

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/wippyai/gobject-runtime/errors"
	"github.com/wippyai/gobject-runtime/gtype"
	"github.com/wippyai/gobject-runtime/mainloop"
	"github.com/wippyai/gobject-runtime/value"
	"go.uber.org/zap"
)

// HandlerID identifies a connection. IDs are unique for the process.
type HandlerID uint64

var handlerSeq atomic.Uint64

// Stage tells a handler which part of the emission is running.
type Stage int

const (
	StageRunFirst Stage = iota
	StageBefore
	StageRunLast
	StageAfter
	StageCleanup
)

// Emission is the state of one signal emission as seen by handlers.
type Emission struct {
	ctx      context.Context
	instance value.Instance
	query    *Query
	detail   string
	args     []value.Value
	stage    Stage
	stopped  bool
}

// Context returns the context the emission was started with.
func (e *Emission) Context() context.Context { return e.ctx }

// Instance returns the emitting instance.
func (e *Emission) Instance() value.Instance { return e.instance }

// Args returns the validated arguments, excluding the instance.
func (e *Emission) Args() []value.Value { return e.args }

// Arg returns argument i.
func (e *Emission) Arg(i int) value.Value { return e.args[i] }

// Detail returns the emission detail, empty when none.
func (e *Emission) Detail() string { return e.detail }

// Signal returns the description of the emitted signal.
func (e *Emission) Signal() *Query { return e.query }

// Stage returns the running stage.
func (e *Emission) Stage() Stage { return e.stage }

// Stop ends the emission after the running handler. The cleanup class
// handler still runs.
func (e *Emission) Stop() { e.stopped = true }

type handler struct {
	fn      Handler
	owner   *mainloop.Context
	detail  string
	id      HandlerID
	signal  ID
	blocked int
	after   bool
	removed bool
}

type emitKey struct {
	detail string
	signal ID
}

type emitState struct {
	restart bool
}

// Handlers is the per-instance table of connected handlers. The zero value is
// ready to use and safe for concurrent use.
type Handlers struct {
	emitting map[emitKey]*emitState
	list     []*handler
	mu       sync.Mutex
}

// Connect attaches fn to signal id. Handlers connected with a detail only run
// for emissions with that detail.
func (h *Handlers) Connect(id ID, detail string, after bool, fn Handler) (HandlerID, error) {
	return h.connect(id, detail, after, nil, fn)
}

// ConnectLocal attaches a handler confined to owner: emitting from a
// goroutine that is not dispatching owner fails with KindWrongThread.
func (h *Handlers) ConnectLocal(id ID, detail string, after bool, owner *mainloop.Context, fn Handler) (HandlerID, error) {
	if owner == nil {
		return 0, errors.InvalidArgument(errors.PhaseSignal, "thread-confined handler needs an owning context")
	}
	return h.connect(id, detail, after, owner, fn)
}

func (h *Handlers) connect(id ID, detail string, after bool, owner *mainloop.Context, fn Handler) (HandlerID, error) {
	q, ok := QueryID(id)
	if !ok {
		return 0, errors.NotFound(errors.PhaseSignal, "signal", fmt.Sprint(id))
	}
	if fn == nil {
		return 0, errors.InvalidArgument(errors.PhaseSignal, "nil handler")
	}
	if detail != "" && !q.Flags.Has(FlagDetailed) {
		return 0, errors.InvalidArgument(errors.PhaseSignal,
			fmt.Sprintf("signal '%s' of type '%s' does not support details", q.Name, q.Owner))
	}

	hd := &handler{
		id:     HandlerID(handlerSeq.Add(1)),
		signal: id,
		detail: detail,
		after:  after,
		owner:  owner,
		fn:     fn,
	}
	h.mu.Lock()
	h.list = append(h.list, hd)
	h.mu.Unlock()
	return hd.id, nil
}

func (h *Handlers) find(id HandlerID) *handler {
	for _, hd := range h.list {
		if hd.id == id {
			return hd
		}
	}
	return nil
}

// Disconnect removes a handler. It reports whether the handler was connected.
func (h *Handlers) Disconnect(id HandlerID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, hd := range h.list {
		if hd.id == id {
			hd.removed = true
			h.list = append(h.list[:i:i], h.list[i+1:]...)
			return true
		}
	}
	return false
}

// Block suspends a handler until a matching Unblock. Blocks nest.
func (h *Handlers) Block(id HandlerID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	hd := h.find(id)
	if hd == nil {
		return false
	}
	hd.blocked++
	return true
}

// Unblock undoes one Block.
func (h *Handlers) Unblock(id HandlerID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	hd := h.find(id)
	if hd == nil || hd.blocked == 0 {
		return false
	}
	hd.blocked--
	return true
}

// IsConnected reports whether id is still connected.
func (h *Handlers) IsConnected(id HandlerID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.find(id) != nil
}

// Count returns the number of handlers connected to signal id.
func (h *Handlers) Count(id ID) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for _, hd := range h.list {
		if hd.signal == id {
			n++
		}
	}
	return n
}

// HasHandlers reports whether an emission of id with detail would run any
// unblocked handler.
func (h *Handlers) HasHandlers(id ID, detail string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, hd := range h.list {
		if hd.signal == id && hd.blocked == 0 && (hd.detail == "" || hd.detail == detail) {
			return true
		}
	}
	return false
}

// DisconnectAll removes every handler and returns how many were connected.
func (h *Handlers) DisconnectAll() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.list)
	for _, hd := range h.list {
		hd.removed = true
	}
	h.list = nil
	return n
}

func (h *Handlers) snapshot(id ID, detail string) []*handler {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []*handler
	for _, hd := range h.list {
		if hd.signal == id && (hd.detail == "" || hd.detail == detail) {
			out = append(out, hd)
		}
	}
	return out
}

func (h *Handlers) skip(hd *handler) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return hd.removed || hd.blocked > 0
}

// Emit validates args against the signal's schema and runs the class handler
// and connected handlers in stage order. The result is the accumulated return
// value, or the zero Value for signals without a return type.
func (h *Handlers) Emit(ctx context.Context, inst value.Instance, id ID, detail string, args []value.Value) (value.Value, error) {
	q, ok := QueryID(id)
	if !ok {
		return value.Value{}, errors.NotFound(errors.PhaseSignal, "signal", fmt.Sprint(id))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if !inst.Type().IsA(q.Owner) {
		return value.Value{}, errors.New(errors.PhaseSignal, errors.KindInvalidArgument).
			Path(q.Name).
			GType(inst.Type().Name()).
			Detail("signal '%s' of type '%s' can not be emitted on %s", q.Name, q.Owner, inst.Type()).
			Build()
	}
	if detail != "" && !q.Flags.Has(FlagDetailed) {
		return value.Value{}, errors.InvalidArgument(errors.PhaseSignal,
			fmt.Sprintf("signal '%s' of type '%s' does not support details", q.Name, q.Owner))
	}

	checked, err := ValidateArgs(q, args)
	if err != nil {
		return value.Value{}, err
	}

	var state *emitState
	if q.Flags.Has(FlagNoRecurse) {
		key := emitKey{signal: id, detail: detail}
		h.mu.Lock()
		if st, busy := h.emitting[key]; busy {
			st.restart = true
			h.mu.Unlock()
			return value.Value{}, nil
		}
		state = &emitState{}
		if h.emitting == nil {
			h.emitting = make(map[emitKey]*emitState)
		}
		h.emitting[key] = state
		h.mu.Unlock()
		defer func() {
			h.mu.Lock()
			delete(h.emitting, key)
			h.mu.Unlock()
		}()
	}

	for {
		ret, err := h.run(ctx, inst, q, detail, checked)
		if err != nil || state == nil {
			return ret, err
		}
		h.mu.Lock()
		again := state.restart
		state.restart = false
		h.mu.Unlock()
		if !again {
			return ret, nil
		}
	}
}

func (h *Handlers) run(ctx context.Context, inst value.Instance, q *Query, detail string, args []value.Value) (value.Value, error) {
	handlers := h.snapshot(q.ID, detail)
	for _, hd := range handlers {
		if hd.owner != nil && !h.skip(hd) && !hd.owner.IsOwner(ctx) {
			Logger().Warn("rejected emission to thread-confined handler",
				zap.String("signal", q.Name),
				zap.Uint64("handler", uint64(hd.id)),
				zap.String("context", hd.owner.Name()))
			return value.Value{}, errors.New(errors.PhaseSignal, errors.KindWrongThread).
				Path(q.Name).
				Detail("handler %d is confined to main context %q", hd.id, hd.owner.Name()).
				Build()
		}
	}

	e := &Emission{ctx: ctx, instance: inst, query: q, detail: detail, args: args}
	var acc value.Value
	if q.HasReturn() {
		acc = value.New(q.Return)
	}

	call := func(fn Handler) error {
		ret := fn(e)
		checked, err := ValidateReturn(q, ret)
		if err != nil {
			return err
		}
		if !q.HasReturn() {
			return nil
		}
		if q.accumulator != nil {
			if !q.accumulator(e, &acc, checked) {
				e.stopped = true
			}
			return nil
		}
		acc = checked
		return nil
	}

	runClass := func(stage Stage, flag Flags) error {
		if q.classHandler == nil || !q.Flags.Has(flag) {
			return nil
		}
		e.stage = stage
		return call(q.classHandler)
	}

	runHandlers := func(stage Stage, after bool) error {
		e.stage = stage
		for _, hd := range handlers {
			if e.stopped {
				return nil
			}
			if hd.after != after || h.skip(hd) {
				continue
			}
			if err := call(hd.fn); err != nil {
				return err
			}
		}
		return nil
	}

	steps := []func() error{
		func() error { return runClass(StageRunFirst, FlagRunFirst) },
		func() error { return runHandlers(StageBefore, false) },
		func() error { return runClass(StageRunLast, FlagRunLast) },
		func() error { return runHandlers(StageAfter, true) },
	}
	for _, step := range steps {
		if e.stopped {
			break
		}
		if err := step(); err != nil {
			return value.Value{}, err
		}
	}

	e.stopped = false
	if err := runClass(StageCleanup, FlagRunCleanup); err != nil {
		return value.Value{}, err
	}
	return acc, nil
}

// ValidateArgs checks arity and per-argument types, widening object values
// to the declared parameter types.
func ValidateArgs(q *Query, args []value.Value) ([]value.Value, error) {
	if len(args) != len(q.Params) {
		return nil, errors.New(errors.PhaseSignal, errors.KindInvalidArgument).
			Path(q.Name).
			Detail("Incompatible number of arguments for signal '%s' of type '%s' (expected %d, got %d)",
				q.Name, q.Owner, len(q.Params), len(args)).
			Build()
	}
	out := make([]value.Value, len(args))
	for i, arg := range args {
		c, ok := value.Coerce(arg, q.Params[i])
		if !ok {
			return nil, errors.New(errors.PhaseSignal, errors.KindTypeMismatch).
				Path(q.Name, fmt.Sprintf("arg%d", i)).
				GType(q.Params[i].Name()).
				Value(arg.Interface()).
				Detail("Incompatible argument type in argument %d for signal '%s' of type '%s' (expected %s, got %s)",
					i, q.Name, q.Owner, q.Params[i], argType(arg)).
				Build()
		}
		out[i] = c
	}
	return out, nil
}

// ValidateReturn checks a handler result against the declared return type.
func ValidateReturn(q *Query, ret value.Value) (value.Value, error) {
	if !q.HasReturn() {
		if ret.IsValid() {
			return value.Value{}, errors.New(errors.PhaseSignal, errors.KindTypeMismatch).
				Path(q.Name).
				GType(ret.Type().Name()).
				Detail("Signal '%s' of type '%s' required no return value but got value of type %s",
					q.Name, q.Owner, ret.Type()).
				Build()
		}
		return ret, nil
	}
	if !ret.IsValid() {
		return value.Value{}, errors.New(errors.PhaseSignal, errors.KindTypeMismatch).
			Path(q.Name).
			GType(q.Return.Name()).
			Detail("Signal '%s' of type '%s' required return value of type %s but got None",
				q.Name, q.Owner, q.Return).
			Build()
	}
	c, ok := value.Coerce(ret, q.Return)
	if !ok {
		return value.Value{}, errors.New(errors.PhaseSignal, errors.KindTypeMismatch).
			Path(q.Name).
			GType(q.Return.Name()).
			Detail("Signal '%s' of type '%s' required return value of type %s but got %s",
				q.Name, q.Owner, q.Return, argType(ret)).
			Build()
	}
	return c, nil
}

func argType(v value.Value) gtype.Type {
	if inst := v.Instance(); inst != nil {
		return inst.Type()
	}
	return v.Type()
}

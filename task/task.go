package task

import (
	"context"
	"fmt"
	"sync"

	"github.com/wippyai/gobject-runtime/errors"
	"github.com/wippyai/gobject-runtime/mainloop"
	"github.com/wippyai/gobject-runtime/object"
	"go.uber.org/zap"
)

// Callback receives a completed operation on the main context that was the
// thread default when the operation started. res is passed to the matching
// finish function.
type Callback func(ctx context.Context, source object.Object, res AsyncResult)

// AsyncResult is the token handed to a Callback.
type AsyncResult interface {
	// SourceObject returns the object the operation was started on, or a
	// nil handle. The handle is borrowed.
	SourceObject() object.Object
	// Context returns the context the operation was started with.
	Context() context.Context
	// SourceTag returns the tag set by the starting function.
	SourceTag() any
}

// Task carries one asynchronous operation producing a T. Exactly one of
// ReturnValue or ReturnError must be called; the callback is then posted
// once to the owning main context.
type Task[T any] struct {
	ctx        context.Context
	main       *mainloop.Context
	cb         Callback
	tag        any
	err        error
	source     object.Object
	result     T
	mu         sync.Mutex
	done       bool
	propagated bool
}

// New starts a task for source. source may be a nil handle; otherwise the
// task holds a reference to it until the callback has returned.
func New[T any](ctx context.Context, source object.Object, cb Callback) *Task[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	t := &Task[T]{
		ctx:  ctx,
		main: mainloop.ThreadDefault(ctx),
		cb:   cb,
	}
	if !source.IsNil() {
		t.source = source.Ref()
	}
	return t
}

// SetSourceTag records which starting function created the task, so the
// finish function can check it was given a matching result. tag must be
// comparable.
func (t *Task[T]) SetSourceTag(tag any) {
	t.tag = tag
}

// SourceTag returns the tag set with SetSourceTag.
func (t *Task[T]) SourceTag() any {
	return t.tag
}

// SourceObject returns the borrowed source handle. It stays valid until the
// callback returns.
func (t *Task[T]) SourceObject() object.Object {
	return t.source
}

// Context returns the context the task was created with.
func (t *Task[T]) Context() context.Context {
	return t.ctx
}

// MainContext returns the main context the callback is posted to.
func (t *Task[T]) MainContext() *mainloop.Context {
	return t.main
}

// IsCompleted reports whether a result has been returned.
func (t *Task[T]) IsCompleted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// HadError reports whether the task completed with an error.
func (t *Task[T]) HadError() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done && t.err != nil
}

// ReturnValue completes the task with v.
func (t *Task[T]) ReturnValue(v T) {
	t.complete(v, nil)
}

// ReturnError completes the task with err.
func (t *Task[T]) ReturnError(err error) {
	if err == nil {
		panic("task: ReturnError with nil error")
	}
	var zero T
	t.complete(zero, err)
}

// Run executes fn on a new goroutine and completes the task with its result.
// fn should honor ctx cancellation.
func (t *Task[T]) Run(fn func(ctx context.Context) (T, error)) {
	go func() {
		v, err := fn(t.ctx)
		if err != nil {
			t.ReturnError(err)
			return
		}
		t.ReturnValue(v)
	}()
}

func (t *Task[T]) complete(v T, err error) {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		panic("task: result returned twice")
	}
	t.done = true
	t.result = v
	t.err = err
	t.mu.Unlock()

	Logger().Debug("task completed",
		zap.String("source", t.source.String()),
		zap.String("context", t.main.Name()),
		zap.Bool("error", err != nil))

	if t.cb == nil {
		t.release()
		return
	}
	if t.main.Post(func(ctx context.Context) {
		defer t.release()
		t.cb(ctx, t.source, t)
	}) == 0 {
		Logger().Warn("task callback dropped, main context closed",
			zap.String("context", t.main.Name()))
		t.release()
	}
}

func (t *Task[T]) release() {
	if !t.source.IsNil() {
		t.source.Unref()
	}
}

// Propagate finishes the operation behind res. It panics when res is not a
// *Task[T], when the task has not completed or when called twice. A task
// whose context was cancelled yields a cancelled error even when the
// operation produced a value.
func Propagate[T any](res AsyncResult) (T, error) {
	var zero T
	t, ok := res.(*Task[T])
	if !ok {
		panic(fmt.Sprintf("task: result %T is not a *Task[%T]", res, zero))
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case !t.done:
		panic("task: Propagate before completion")
	case t.propagated:
		panic("task: result propagated twice")
	}
	t.propagated = true

	if err := t.ctx.Err(); err != nil {
		return zero, errors.Cancelled(errors.PhaseAsync, err)
	}
	if t.err != nil {
		return zero, t.err
	}
	return t.result, nil
}

// IsValid reports whether res is a *Task[T] started on source with tag.
func IsValid[T any](res AsyncResult, source object.Object, tag any) bool {
	t, ok := res.(*Task[T])
	if !ok {
		return false
	}
	return t.source.Equal(source) && t.tag == tag
}

// ReportError completes a new task with err right away, for starting
// functions that fail before any work begins.
func ReportError[T any](ctx context.Context, source object.Object, cb Callback, tag any, err error) *Task[T] {
	t := New[T](ctx, source, cb)
	t.SetSourceTag(tag)
	t.ReturnError(err)
	return t
}

// Await runs an asynchronous start/finish pair to completion, iterating the
// thread default main context of ctx until the callback arrives. The main
// context must not be iterated by another goroutine meanwhile. Await gives up
// with a closed error when the main context is closed before the callback is
// delivered, and with a cancelled error when ctx ends first.
func Await[T any](ctx context.Context, start func(ctx context.Context, cb Callback), finish func(res AsyncResult) (T, error)) (T, error) {
	var zero T
	if ctx == nil {
		ctx = context.Background()
	}
	mc := mainloop.ThreadDefault(ctx)
	got := make(chan AsyncResult, 1)
	start(ctx, func(_ context.Context, _ object.Object, res AsyncResult) {
		got <- res
	})

	for {
		select {
		case res := <-got:
			return finish(res)
		default:
		}
		if mc.Closed() {
			return zero, errors.New(errors.PhaseAsync, errors.KindClosed).
				Detail("main context %q closed before the result arrived", mc.Name()).
				Build()
		}
		if ctx.Err() != nil {
			// Give an operation that observed the cancellation one last
			// chance to report.
			mc.Iteration(context.WithoutCancel(ctx), false)
			select {
			case res := <-got:
				return finish(res)
			default:
			}
			return zero, errors.Cancelled(errors.PhaseAsync, ctx.Err())
		}
		mc.Iteration(ctx, true)
	}
}

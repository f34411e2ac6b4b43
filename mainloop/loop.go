package mainloop

import (
	"context"
	"sync"
	"sync/atomic"
)

// Loop runs a Context until Quit is called.
type Loop struct {
	ctx     *Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	running atomic.Bool
}

// NewLoop creates a loop over c, or over Default when c is nil.
func NewLoop(c *Context) *Loop {
	if c == nil {
		c = Default()
	}
	return &Loop{ctx: c}
}

// Context returns the context the loop iterates.
func (l *Loop) Context() *Context {
	return l.ctx
}

// Run iterates the context until Quit is called, the context is closed or
// ctx is done. It returns ctx's error in the last case.
func (l *Loop) Run(ctx context.Context) error {
	l.running.Store(true)
	defer l.running.Store(false)

	rctx, cancel := context.WithCancel(ctx)
	defer cancel()
	l.mu.Lock()
	l.cancel = cancel
	l.mu.Unlock()

	for l.running.Load() && rctx.Err() == nil && !l.ctx.Closed() {
		l.ctx.Iteration(rctx, true)
	}
	return ctx.Err()
}

// Quit stops a running loop. Safe from any goroutine, including callbacks
// dispatched by the loop.
func (l *Loop) Quit() {
	l.running.Store(false)
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.mu.Unlock()
}

// IsRunning reports whether Run is active.
func (l *Loop) IsRunning() bool {
	return l.running.Load()
}

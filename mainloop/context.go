package mainloop

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ControlFlow is returned by repeating sources to stay scheduled or be removed.
type ControlFlow bool

const (
	Continue ControlFlow = true
	Break    ControlFlow = false
)

// SourceID identifies a scheduled source. Zero is never a valid ID.
type SourceID uint64

// Source priorities. Lower values are dispatched first; only the sources of
// the most urgent ready priority run in one iteration.
const (
	PriorityHigh    = -100
	PriorityDefault = 0
	PriorityIdle    = 200
)

// SourceFunc is called on the goroutine iterating the context. ctx marks that
// goroutine as the owner of the dispatching Context.
type SourceFunc func(ctx context.Context) ControlFlow

type source struct {
	fn       SourceFunc
	readyAt  time.Time
	interval time.Duration
	id       SourceID
	priority int
	running  bool
}

// Context is a cooperative scheduler. Work is posted from any goroutine and
// runs on whichever goroutine iterates the context, one callback at a time.
type Context struct {
	sources  map[SourceID]*source
	wake     chan struct{}
	name     string
	nextID   SourceID
	dispatch sync.Mutex
	mu       sync.Mutex
	closed   bool
}

// NewContext creates an empty context.
func NewContext(name string) *Context {
	return &Context{
		name:    name,
		sources: make(map[SourceID]*source),
		wake:    make(chan struct{}, 1),
	}
}

var (
	defaultContext *Context
	defaultOnce    sync.Once
)

// Default returns the process-wide default context.
func Default() *Context {
	defaultOnce.Do(func() {
		defaultContext = NewContext("default")
	})
	return defaultContext
}

type ownerKey struct{}

type threadDefaultKey struct{}

type ownerChain struct {
	c      *Context
	parent *ownerChain
}

// IsOwner reports whether ctx was handed out by an iteration of c, that is
// whether the caller runs on the goroutine currently dispatching c.
func (c *Context) IsOwner(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	chain, _ := ctx.Value(ownerKey{}).(*ownerChain)
	for ; chain != nil; chain = chain.parent {
		if chain.c == c {
			return true
		}
	}
	return false
}

// WithThreadDefault returns ctx with c as the context ThreadDefault reports.
func WithThreadDefault(ctx context.Context, c *Context) context.Context {
	return context.WithValue(ctx, threadDefaultKey{}, c)
}

// ThreadDefault returns the context pushed with WithThreadDefault, or Default.
func ThreadDefault(ctx context.Context) *Context {
	if ctx != nil {
		if c, ok := ctx.Value(threadDefaultKey{}).(*Context); ok && c != nil {
			return c
		}
	}
	return Default()
}

// Name returns the diagnostic name of the context.
func (c *Context) Name() string {
	return c.name
}

func (c *Context) add(s *source) SourceID {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		Logger().Warn("source added to closed context", zap.String("context", c.name))
		return 0
	}
	c.nextID++
	s.id = c.nextID
	c.sources[s.id] = s
	c.mu.Unlock()

	c.wakeup()
	return s.id
}

func (c *Context) wakeup() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Invoke runs fn right away when ctx already owns c; otherwise fn is queued
// at default priority and runs on the next iteration.
func (c *Context) Invoke(ctx context.Context, fn func(ctx context.Context)) {
	if c.IsOwner(ctx) {
		fn(ctx)
		return
	}
	c.Post(fn)
}

// Post queues fn to run once at default priority.
func (c *Context) Post(fn func(ctx context.Context)) SourceID {
	return c.add(&source{
		priority: PriorityDefault,
		fn: func(ctx context.Context) ControlFlow {
			fn(ctx)
			return Break
		},
	})
}

// IdleAdd schedules fn at idle priority until it returns Break.
func (c *Context) IdleAdd(fn SourceFunc) SourceID {
	return c.add(&source{priority: PriorityIdle, fn: fn})
}

// TimeoutAdd schedules fn every interval until it returns Break.
func (c *Context) TimeoutAdd(interval time.Duration, fn SourceFunc) SourceID {
	return c.add(&source{
		priority: PriorityDefault,
		fn:       fn,
		interval: interval,
		readyAt:  time.Now().Add(interval),
	})
}

// Remove unschedules a source. It reports whether the source was present.
func (c *Context) Remove(id SourceID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.sources[id]
	delete(c.sources, id)
	return ok
}

// Closed reports whether Close has been called.
func (c *Context) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Pending reports whether any source is ready to run.
func (c *Context) Pending() bool {
	ready, _ := c.collect(time.Now())
	return len(ready) > 0
}

// collect returns the ready sources of the most urgent priority in FIFO
// order, and how long until the next timeout is due (-1 when none).
func (c *Context) collect(now time.Time) ([]*source, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ready []*source
	wait := time.Duration(-1)
	for _, s := range c.sources {
		if s.running {
			continue
		}
		if s.readyAt.After(now) {
			d := s.readyAt.Sub(now)
			if wait < 0 || d < wait {
				wait = d
			}
			continue
		}
		ready = append(ready, s)
	}
	if len(ready) == 0 {
		return nil, wait
	}

	sort.Slice(ready, func(i, j int) bool {
		if ready[i].priority != ready[j].priority {
			return ready[i].priority < ready[j].priority
		}
		return ready[i].id < ready[j].id
	})
	top := ready[0].priority
	n := 0
	for n < len(ready) && ready[n].priority == top {
		n++
	}
	return ready[:n], wait
}

// Iteration runs one round of ready sources. With mayBlock it first waits
// until a source becomes ready or ctx is done. It reports whether anything
// was dispatched. A closed context never blocks. Iterating from inside a callback of the same context is
// allowed; concurrent iteration from another goroutine waits its turn.
func (c *Context) Iteration(ctx context.Context, mayBlock bool) bool {
	dctx, release := c.acquire(ctx)
	defer release()

	for {
		ready, wait := c.collect(time.Now())
		if len(ready) > 0 {
			c.run(dctx, ready)
			return true
		}
		if !mayBlock || c.Closed() {
			return false
		}

		var timer *time.Timer
		var timeout <-chan time.Time
		if wait >= 0 {
			timer = time.NewTimer(wait)
			timeout = timer.C
		}
		select {
		case <-c.wake:
		case <-timeout:
		case <-dctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return false
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

func (c *Context) acquire(ctx context.Context) (context.Context, func()) {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.IsOwner(ctx) {
		return ctx, func() {}
	}
	c.dispatch.Lock()
	parent, _ := ctx.Value(ownerKey{}).(*ownerChain)
	return context.WithValue(ctx, ownerKey{}, &ownerChain{c: c, parent: parent}), c.dispatch.Unlock
}

func (c *Context) run(ctx context.Context, ready []*source) {
	for _, s := range ready {
		c.mu.Lock()
		_, alive := c.sources[s.id]
		if alive && !s.running {
			s.running = true
		} else {
			alive = false
		}
		c.mu.Unlock()
		if !alive {
			continue
		}

		keep := s.fn(ctx)

		c.mu.Lock()
		s.running = false
		if keep == Break {
			delete(c.sources, s.id)
		} else if s.interval > 0 {
			s.readyAt = time.Now().Add(s.interval)
		}
		c.mu.Unlock()
	}
}

// Close drops all sources and rejects new ones.
func (c *Context) Close() {
	c.mu.Lock()
	dropped := len(c.sources)
	c.closed = true
	c.sources = make(map[SourceID]*source)
	c.mu.Unlock()

	if dropped > 0 {
		Logger().Debug("context closed with pending sources",
			zap.String("context", c.name),
			zap.Int("dropped", dropped))
	}
	c.wakeup()
}

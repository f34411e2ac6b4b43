// Package mainloop provides the cooperative scheduler used for async
// completion and thread-confined signal handlers.
//
// A Context collects sources posted from any goroutine; whichever goroutine
// iterates it runs them one at a time. Callbacks receive a context.Context
// that marks the goroutine as the Context's owner, so code can ask
// IsOwner(ctx) instead of comparing OS threads:
//
//	c := mainloop.NewContext("worker")
//	c.Post(func(ctx context.Context) {
//		_ = c.IsOwner(ctx) // true
//	})
//	loop := mainloop.NewLoop(c)
//	go loop.Run(ctx)
//
// Repeating sources return Continue to stay scheduled or Break to be removed.
package mainloop

// Package task adapts goroutine based work to the start/callback/finish
// shape of asynchronous object methods.
//
// A starting function creates a Task, hands its work to Run (or completes it
// directly), and the finish function calls Propagate on the result the
// callback received:
//
//	func DoAsync(ctx context.Context, o object.Object, cb task.Callback) {
//		t := task.New[int](ctx, o, cb)
//		t.Run(func(ctx context.Context) (int, error) { return compute(ctx) })
//	}
//
//	func DoFinish(res task.AsyncResult) (int, error) {
//		return task.Propagate[int](res)
//	}
//
// Callbacks always run on the main context that was the thread default of
// ctx when the task was created (see mainloop.WithThreadDefault), never on
// the goroutine that completed the work.
package task

// Package signal implements runtime-typed signals: a process-wide registry of
// signal descriptions and a per-instance handler table that validates and
// dispatches emissions.
//
// Signals are registered once per owner type:
//
//	changed := signal.MustRegister(myType, signal.NewBuilder("changed").
//		Params(gtype.String).
//		Returns(gtype.Bool).
//		Accumulator(signal.AccumulatorTrueHandled))
//
// Emission order is fixed: RunFirst class handler, handlers connected before
// (in connection order), RunLast class handler, handlers connected after,
// RunCleanup class handler. Emission.Stop skips the remaining stages except
// cleanup. Arguments and return values are checked against the registered
// types with the object widening rule of value.Coerce.
//
// Handlers connected with ConnectLocal belong to a mainloop.Context. An
// emission from a context.Context that is not dispatching that main context is
// rejected with KindWrongThread before any handler runs.
package signal

// Package errors provides structured error types for the gobject runtime.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: field path, Go/runtime type names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseProperty, errors.KindTypeMismatch).
//		Path("MyFile", "path").
//		GoType("int").
//		GType("gchararray").
//		Detail("can't be set from the given type").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotSupported(errors.PhaseDispatch, "")
//	err := errors.IO(errors.KindWouldRecurse, "Cannot handle recursive copy of source directory")
//
// Callers branch on the kind rather than on the message:
//
//	if errors.IsKind(err, errors.KindNotSupported) {
//		// retry with a generic fallback
//	}
//
// All errors implement the standard error interface and support errors.Is/As.
// Kind.Code maps every kind to the i32 used at the foreign ABI boundary.
package errors

package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseRegister Phase = "register" // type, property and signal registration
	PhaseCast     Phase = "cast"     // upcast/downcast
	PhaseProperty Phase = "property" // property get/set
	PhaseSignal   Phase = "signal"   // connect/emit
	PhaseDispatch Phase = "dispatch" // virtual slot invocation
	PhaseAsync    Phase = "async"    // asynchronous completion
	PhaseIO       Phase = "io"       // file operations
	PhaseABI      Phase = "abi"      // foreign calling convention
)

// Kind categorizes the error
type Kind string

const (
	KindFailed           Kind = "failed"
	KindNotFound         Kind = "not_found"
	KindExists           Kind = "exists"
	KindIsDirectory      Kind = "is_directory"
	KindNotDirectory     Kind = "not_directory"
	KindNotEmpty         Kind = "not_empty"
	KindInvalidFilename  Kind = "invalid_filename"
	KindPermissionDenied Kind = "permission_denied"
	KindNotSupported     Kind = "not_supported"
	KindInvalidArgument  Kind = "invalid_argument"
	KindCancelled        Kind = "cancelled"
	KindWouldRecurse     Kind = "would_recurse"
	KindWouldMerge       Kind = "would_merge"
	KindClosed           Kind = "closed"
	KindTypeMismatch     Kind = "type_mismatch"
	KindNotWritable      Kind = "not_writable"
	KindNotReadable      Kind = "not_readable"
	KindOutOfRange       Kind = "out_of_range"
	KindWrongThread      Kind = "wrong_thread"
	KindRegistration     Kind = "registration"
)

var kindCodes = map[Kind]int32{
	KindFailed:           1,
	KindNotFound:         2,
	KindExists:           3,
	KindIsDirectory:      4,
	KindNotDirectory:     5,
	KindNotEmpty:         6,
	KindInvalidFilename:  7,
	KindPermissionDenied: 8,
	KindNotSupported:     9,
	KindInvalidArgument:  10,
	KindCancelled:        11,
	KindWouldRecurse:     12,
	KindWouldMerge:       13,
	KindClosed:           14,
	KindTypeMismatch:     15,
	KindNotWritable:      16,
	KindNotReadable:      17,
	KindOutOfRange:       18,
	KindWrongThread:      19,
	KindRegistration:     20,
}

// Code returns the stable numeric code used at the foreign ABI boundary.
// Unknown kinds map to the code of KindFailed. Zero is reserved for success.
func (k Kind) Code() int32 {
	if c, ok := kindCodes[k]; ok {
		return c
	}
	return kindCodes[KindFailed]
}

// KindFromCode is the inverse of Kind.Code.
func KindFromCode(code int32) (Kind, bool) {
	for k, c := range kindCodes {
		if c == code {
			return k, true
		}
	}
	return "", false
}

// Error is the structured error type used throughout the runtime
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	GoType string
	GType  string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.GType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.GType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", type ")
			b.WriteString(e.GType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("type ")
			b.WriteString(e.GType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.GType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target with an empty Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		if t.Phase == "" {
			return e.Kind == t.Kind
		}
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Message returns the human readable part of the error without the phase/kind prefix.
func (e *Error) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return string(e.Kind)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	return stderrors.Is(err, &Error{Kind: kind})
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// GType sets the runtime type name
func (b *Builder) GType(t string) *Builder {
	b.err.GType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// NotSupported creates the "operation not supported" error returned by unset soft slots.
func NotSupported(phase Phase, detail string) *Error {
	if detail == "" {
		detail = "Operation not supported"
	}
	return &Error{
		Phase:  phase,
		Kind:   KindNotSupported,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidArgument creates an invalid argument error
func InvalidArgument(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidArgument,
		Detail: detail,
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, expected, got string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		GType:  expected,
		Detail: fmt.Sprintf("expected %s, got %s", expected, got),
	}
}

// Registration creates a registration error
func Registration(what, name string, cause error) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %s %q", what, name),
		Cause:  cause,
	}
}

// Cancelled creates the error reported by operations whose context was cancelled.
func Cancelled(phase Phase, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindCancelled,
		Detail: "Operation was cancelled",
		Cause:  cause,
	}
}

// IO creates a file operation error of the given kind.
func IO(kind Kind, detail string) *Error {
	return &Error{
		Phase:  PhaseIO,
		Kind:   kind,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// As is errors.As from the standard library, re-exported so callers need a
// single errors import.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Is is errors.Is from the standard library.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

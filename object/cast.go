package object

import (
	"fmt"

	"github.com/wippyai/gobject-runtime/gtype"
)

// View is a typed handle: a struct embedding only Object, whose StaticType
// names the runtime type it stands for.
//
//	type File struct{ object.Object }
//	func (File) StaticType() gtype.Type { return Type() }
type View interface {
	~struct{ Object }
	StaticType() gtype.Type
}

// Handle is anything that exposes its Object: Object itself and every View.
type Handle interface {
	AsObject() Object
}

func staticType[T View]() gtype.Type {
	var zero T
	return zero.StaticType()
}

// Is reports whether h's instance is-a T.
func Is[T View](h Handle) bool {
	return h.AsObject().IsA(staticType[T]())
}

// Downcast returns h as T when its instance is-a T. On failure h is left
// untouched and the zero T is returned. The result shares h's reference.
func Downcast[T View](h Handle) (T, bool) {
	o := h.AsObject()
	if o.p == nil || !o.IsA(staticType[T]()) {
		var zero T
		return zero, false
	}
	return T{o}, true
}

// DynamicCast is Downcast for edges the Go types do not relate, such as an
// interface view to an implementing class view.
func DynamicCast[T View](h Handle) (T, bool) {
	return Downcast[T](h)
}

// Upcast reinterprets h as T without a runtime check. Use it only where T is
// known to be an ancestor or interface of h's type.
func Upcast[T View](h Handle) T {
	o := h.AsObject()
	if debugChecks {
		assertIsA(o, staticType[T]())
	}
	return T{o}
}

// UnsafeCast reinterprets h as T after the caller has checked IsA. The check
// is repeated only in builds with the gobject_debug tag.
func UnsafeCast[T View](h Handle) T {
	o := h.AsObject()
	if debugChecks {
		assertIsA(o, staticType[T]())
	}
	return T{o}
}

func assertIsA(o Object, t gtype.Type) {
	if !o.IsA(t) {
		panic(fmt.Sprintf("object: %s is not a %s", o, t))
	}
}

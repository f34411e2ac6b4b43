package value

import (
	"fmt"
	"math"
	"reflect"
	"slices"

	"github.com/wippyai/gobject-runtime/errors"
	"github.com/wippyai/gobject-runtime/gtype"
)

// Instance is implemented by object handles and their typed views.
// A Value holding an Instance does not own a reference to it.
type Instance interface {
	Type() gtype.Type
	Serial() uint64
}

// Value is a dynamically typed value tagged with its declared runtime type.
// The zero Value is invalid.
type Value struct {
	data any
	typ  gtype.Type
}

// New returns the zero value of t.
func New(t gtype.Type) Value {
	return Value{typ: t, data: zeroData(t)}
}

func zeroData(t gtype.Type) any {
	switch t.Fundamental() {
	case gtype.Bool:
		return false
	case gtype.Int:
		return int32(0)
	case gtype.Uint:
		return uint32(0)
	case gtype.Int64:
		return int64(0)
	case gtype.Uint64:
		return uint64(0)
	case gtype.Double:
		return float64(0)
	case gtype.String:
		return ""
	default:
		return nil
	}
}

// From infers the runtime type from a Go value. Go int values that fit in 32
// bits become gint, others gint64. Instances keep their own runtime type.
// From panics on Go types with no runtime equivalent; TryFrom returns an error.
func From(x any) Value {
	v, err := TryFrom(x)
	if err != nil {
		panic(err)
	}
	return v
}

// TryFrom is From reporting unsupported Go types as KindTypeMismatch.
func TryFrom(x any) (Value, error) {
	switch x := x.(type) {
	case Value:
		return x, nil
	case bool:
		return Value{typ: gtype.Bool, data: x}, nil
	case int:
		if x >= math.MinInt32 && x <= math.MaxInt32 {
			return Value{typ: gtype.Int, data: int32(x)}, nil
		}
		return Value{typ: gtype.Int64, data: int64(x)}, nil
	case int32:
		return Value{typ: gtype.Int, data: x}, nil
	case uint32:
		return Value{typ: gtype.Uint, data: x}, nil
	case int64:
		return Value{typ: gtype.Int64, data: x}, nil
	case uint64:
		return Value{typ: gtype.Uint64, data: x}, nil
	case float32:
		return Value{typ: gtype.Double, data: float64(x)}, nil
	case float64:
		return Value{typ: gtype.Double, data: x}, nil
	case string:
		return Value{typ: gtype.String, data: x}, nil
	case []string:
		return Value{typ: gtype.Strv, data: slices.Clone(x)}, nil
	case Instance:
		return Value{typ: x.Type(), data: x}, nil
	}
	return Value{}, errors.New(errors.PhaseSignal, errors.KindTypeMismatch).
		GoType(fmt.Sprintf("%T", x)).
		Value(x).
		Detail("no runtime type for Go type %T", x).
		Build()
}

// For converts a Go value into a Value declared as t. Integer kinds are
// accepted for any integer type they fit in, instances must satisfy t and nil
// is accepted for object and interface types.
func For(t gtype.Type, x any) (Value, error) {
	if v, ok := x.(Value); ok {
		if c, ok := Coerce(v, t); ok {
			return c, nil
		}
		return Value{}, errors.TypeMismatch(errors.PhaseProperty, nil, t.Name(), v.typ.Name())
	}

	mismatch := func() (Value, error) {
		return Value{}, errors.New(errors.PhaseProperty, errors.KindTypeMismatch).
			GoType(fmt.Sprintf("%T", x)).
			GType(t.Name()).
			Value(x).
			Detail("can't hold %T as %s", x, t.Name()).
			Build()
	}
	outOfRange := func() (Value, error) {
		return Value{}, errors.New(errors.PhaseProperty, errors.KindOutOfRange).
			GoType(fmt.Sprintf("%T", x)).
			GType(t.Name()).
			Value(x).
			Detail("%v does not fit in %s", x, t.Name()).
			Build()
	}

	if IsObjectType(t) {
		if x == nil {
			return Value{typ: t}, nil
		}
		inst, ok := x.(Instance)
		if !ok || !inst.Type().IsA(t) {
			return mismatch()
		}
		return Value{typ: t, data: inst}, nil
	}

	switch t.Fundamental() {
	case gtype.Bool:
		if b, ok := x.(bool); ok {
			return Value{typ: t, data: b}, nil
		}
	case gtype.Int, gtype.Uint, gtype.Int64, gtype.Uint64:
		rv := reflect.ValueOf(x)
		switch {
		case rv.CanInt():
			n := rv.Int()
			if !intFits(t.Fundamental(), n) {
				return outOfRange()
			}
			return Value{typ: t, data: intData(t.Fundamental(), n)}, nil
		case rv.CanUint():
			n := rv.Uint()
			if !uintFits(t.Fundamental(), n) {
				return outOfRange()
			}
			return Value{typ: t, data: uintData(t.Fundamental(), n)}, nil
		}
	case gtype.Double:
		rv := reflect.ValueOf(x)
		switch {
		case rv.CanFloat():
			return Value{typ: t, data: rv.Float()}, nil
		case rv.CanInt():
			return Value{typ: t, data: float64(rv.Int())}, nil
		case rv.CanUint():
			return Value{typ: t, data: float64(rv.Uint())}, nil
		}
	case gtype.String:
		if s, ok := x.(string); ok {
			return Value{typ: t, data: s}, nil
		}
	case gtype.Strv:
		if s, ok := x.([]string); ok {
			return Value{typ: t, data: slices.Clone(s)}, nil
		}
		if x == nil {
			return Value{typ: t}, nil
		}
	case gtype.Pointer, gtype.Boxed, gtype.Param:
		return Value{typ: t, data: x}, nil
	}
	return mismatch()
}

func intFits(f gtype.Type, n int64) bool {
	switch f {
	case gtype.Int:
		return n >= math.MinInt32 && n <= math.MaxInt32
	case gtype.Uint:
		return n >= 0 && n <= math.MaxUint32
	case gtype.Uint64:
		return n >= 0
	}
	return true
}

func uintFits(f gtype.Type, n uint64) bool {
	switch f {
	case gtype.Int:
		return n <= math.MaxInt32
	case gtype.Uint:
		return n <= math.MaxUint32
	case gtype.Int64:
		return n <= math.MaxInt64
	}
	return true
}

func intData(f gtype.Type, n int64) any {
	switch f {
	case gtype.Int:
		return int32(n)
	case gtype.Uint:
		return uint32(n)
	case gtype.Uint64:
		return uint64(n)
	}
	return n
}

func uintData(f gtype.Type, n uint64) any {
	switch f {
	case gtype.Int:
		return int32(n)
	case gtype.Uint:
		return uint32(n)
	case gtype.Int64:
		return int64(n)
	}
	return n
}

// MustFor is For that panics on error.
func MustFor(t gtype.Type, x any) Value {
	v, err := For(t, x)
	if err != nil {
		panic(err)
	}
	return v
}

// IsObjectType reports whether values of t hold instances.
func IsObjectType(t gtype.Type) bool {
	return t.IsA(gtype.Object) || (t.IsInterface() && t != gtype.Interface)
}

// Type returns the declared type of the value.
func (v Value) Type() gtype.Type {
	return v.typ
}

// IsValid reports whether v has a declared type.
func (v Value) IsValid() bool {
	return v.typ != gtype.Invalid
}

// Holds reports whether the declared type of v is, or derives from, t.
func (v Value) Holds(t gtype.Type) bool {
	return v.typ.IsA(t)
}

// Interface returns the stored Go value.
func (v Value) Interface() any {
	return v.data
}

// Get returns the stored Go value as T.
func Get[T any](v Value) (T, bool) {
	x, ok := v.data.(T)
	return x, ok
}

// Bool returns the stored gboolean; false for other types.
func (v Value) Bool() bool {
	b, _ := v.data.(bool)
	return b
}

// Int returns the stored gint.
func (v Value) Int() int32 {
	n, _ := v.data.(int32)
	return n
}

// Uint returns the stored guint.
func (v Value) Uint() uint32 {
	n, _ := v.data.(uint32)
	return n
}

// Int64 returns the stored gint64.
func (v Value) Int64() int64 {
	n, _ := v.data.(int64)
	return n
}

// Uint64 returns the stored guint64.
func (v Value) Uint64() uint64 {
	n, _ := v.data.(uint64)
	return n
}

// Double returns the stored gdouble.
func (v Value) Double() float64 {
	f, _ := v.data.(float64)
	return f
}

// Str returns the stored string.
func (v Value) Str() string {
	s, _ := v.data.(string)
	return s
}

// Strv returns a copy of the stored string list.
func (v Value) Strv() []string {
	s, _ := v.data.([]string)
	return slices.Clone(s)
}

// Instance returns the stored instance, nil for NULL or non-object values.
func (v Value) Instance() Instance {
	inst, _ := v.data.(Instance)
	return inst
}

// Equal compares declared types and contents. Instances compare by identity.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	a, aok := v.data.(Instance)
	b, bok := o.data.(Instance)
	if aok || bok {
		return aok && bok && a.Serial() == b.Serial()
	}
	return reflect.DeepEqual(v.data, o.data)
}

// String implements fmt.Stringer for diagnostics.
func (v Value) String() string {
	if !v.IsValid() {
		return "<invalid>"
	}
	if inst, ok := v.data.(Instance); ok {
		return fmt.Sprintf("%s(%s@%d)", v.typ, inst.Type(), inst.Serial())
	}
	if v.data == nil {
		return v.typ.Name() + "(NULL)"
	}
	return fmt.Sprintf("%s(%v)", v.typ, v.data)
}

// Coerce returns v re-declared as target when v may be stored in a slot of
// type target. Values already declared as a subtype are accepted. Object
// values are checked against the runtime type of the held instance, not the
// declared type, and take target as their declared type.
func Coerce(v Value, target gtype.Type) (Value, bool) {
	if !v.IsValid() || !target.IsValid() {
		return v, false
	}
	if v.typ == target {
		return v, true
	}

	if IsObjectType(v.typ) && IsObjectType(target) {
		inst, _ := v.data.(Instance)
		if inst != nil && !inst.Type().IsA(target) {
			return v, false
		}
		return Value{typ: target, data: v.data}, true
	}

	if v.typ.IsA(target) {
		return v, true
	}
	return v, false
}

// Types returns the declared types of values, for error messages.
func Types(values []Value) []gtype.Type {
	out := make([]gtype.Type, len(values))
	for i, v := range values {
		out[i] = v.typ
	}
	return out
}

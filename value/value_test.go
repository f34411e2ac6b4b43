package value

import (
	"fmt"
	"math"
	"sync/atomic"
	"testing"

	"github.com/wippyai/gobject-runtime/errors"
	"github.com/wippyai/gobject-runtime/gtype"
)

var seq atomic.Uint64

type fakeInstance struct {
	typ    gtype.Type
	serial uint64
}

func (f fakeInstance) Type() gtype.Type { return f.typ }
func (f fakeInstance) Serial() uint64   { return f.serial }

func newFake(t gtype.Type) fakeInstance {
	return fakeInstance{typ: t, serial: seq.Add(1)}
}

func register(t *testing.T, prefix string, parent gtype.Type) gtype.Type {
	t.Helper()
	typ, err := gtype.Register(fmt.Sprintf("%s%d", prefix, seq.Add(1)), parent, 0)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return typ
}

func TestFrom(t *testing.T) {
	tests := []struct {
		in   any
		typ  gtype.Type
		data any
	}{
		{true, gtype.Bool, true},
		{42, gtype.Int, int32(42)},
		{math.MaxInt32 + 1, gtype.Int64, int64(math.MaxInt32 + 1)},
		{int32(-7), gtype.Int, int32(-7)},
		{uint32(7), gtype.Uint, uint32(7)},
		{int64(1) << 40, gtype.Int64, int64(1) << 40},
		{uint64(9), gtype.Uint64, uint64(9)},
		{float32(1.5), gtype.Double, 1.5},
		{2.25, gtype.Double, 2.25},
		{"hello", gtype.String, "hello"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%T", tt.in), func(t *testing.T) {
			v := From(tt.in)
			if v.Type() != tt.typ {
				t.Errorf("Type() = %v, want %v", v.Type(), tt.typ)
			}
			if v.Interface() != tt.data {
				t.Errorf("Interface() = %#v, want %#v", v.Interface(), tt.data)
			}
		})
	}

	strv := From([]string{"a", "b"})
	if strv.Type() != gtype.Strv || len(strv.Strv()) != 2 {
		t.Errorf("Strv value = %v", strv)
	}

	defer func() {
		if recover() == nil {
			t.Error("From should panic on unsupported Go types")
		}
	}()
	From(struct{}{})
}

func TestFor(t *testing.T) {
	tests := []struct {
		name string
		typ  gtype.Type
		in   any
		want any
		kind errors.Kind
	}{
		{"int to gint", gtype.Int, 5, int32(5), ""},
		{"uint8 to gint64", gtype.Int64, uint8(5), int64(5), ""},
		{"int to guint64", gtype.Uint64, 12, uint64(12), ""},
		{"negative to guint", gtype.Uint, -1, nil, errors.KindOutOfRange},
		{"overflow gint", gtype.Int, int64(math.MaxInt32) + 1, nil, errors.KindOutOfRange},
		{"int to gdouble", gtype.Double, 3, 3.0, ""},
		{"string", gtype.String, "x", "x", ""},
		{"string to gint", gtype.Int, "x", nil, errors.KindTypeMismatch},
		{"bool to gchararray", gtype.String, true, nil, errors.KindTypeMismatch},
		{"boxed any", gtype.Boxed, []byte("raw"), nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := For(tt.typ, tt.in)
			if tt.kind != "" {
				if !errors.IsKind(err, tt.kind) {
					t.Fatalf("err = %v, want kind %s", err, tt.kind)
				}
				return
			}
			if err != nil {
				t.Fatalf("For failed: %v", err)
			}
			if v.Type() != tt.typ {
				t.Errorf("Type() = %v, want %v", v.Type(), tt.typ)
			}
			if tt.want != nil && v.Interface() != tt.want {
				t.Errorf("Interface() = %#v, want %#v", v.Interface(), tt.want)
			}
		})
	}
}

func TestFor_Objects(t *testing.T) {
	base := register(t, "ValBase", gtype.Object)
	derived := register(t, "ValDerived", base)
	other := register(t, "ValOther", gtype.Object)

	v, err := For(base, newFake(derived))
	if err != nil {
		t.Fatalf("For failed: %v", err)
	}
	if v.Type() != base {
		t.Errorf("Type() = %v, want declared %v", v.Type(), base)
	}
	if v.Instance().Type() != derived {
		t.Errorf("instance type = %v, want %v", v.Instance().Type(), derived)
	}

	if _, err := For(base, newFake(other)); !errors.IsKind(err, errors.KindTypeMismatch) {
		t.Errorf("err = %v, want type mismatch", err)
	}

	null, err := For(base, nil)
	if err != nil {
		t.Fatalf("For(nil) failed: %v", err)
	}
	if null.Instance() != nil || null.Type() != base {
		t.Errorf("NULL value = %v", null)
	}
}

func TestCoerce(t *testing.T) {
	base := register(t, "CoBase", gtype.Object)
	derived := register(t, "CoDerived", base)
	other := register(t, "CoOther", gtype.Object)
	iface := gtype.MustRegisterInterface(fmt.Sprintf("CoIface%d", seq.Add(1)), gtype.Object)
	if err := gtype.AddInterface(derived, iface, struct{}{}); err != nil {
		t.Fatalf("AddInterface failed: %v", err)
	}

	// declared as GObject, holding a derived instance
	generic := Value{typ: gtype.Object, data: newFake(derived)}

	tests := []struct {
		name   string
		in     Value
		target gtype.Type
		ok     bool
		want   gtype.Type
	}{
		{"exact", From(int32(1)), gtype.Int, true, gtype.Int},
		{"fundamental mismatch", From(int32(1)), gtype.Int64, false, 0},
		{"widen runtime type", generic, base, true, base},
		{"widen to interface", generic, iface, true, iface},
		{"unrelated runtime type", generic, other, false, 0},
		{"null object", Value{typ: gtype.Object}, base, true, base},
		{"object to scalar", generic, gtype.String, false, 0},
		{"invalid", Value{}, gtype.Int, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Coerce(tt.in, tt.target)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got.Type() != tt.want {
				t.Errorf("Type() = %v, want %v", got.Type(), tt.want)
			}
		})
	}
}

func TestHoldsAndNew(t *testing.T) {
	base := register(t, "HoldBase", gtype.Object)
	derived := register(t, "HoldDerived", base)

	v := From(newFake(derived))
	if !v.Holds(base) || !v.Holds(gtype.Object) || !v.Holds(derived) {
		t.Error("object value should hold its ancestors")
	}
	if v.Holds(gtype.String) {
		t.Error("object value should not hold a string")
	}

	zero := New(gtype.Int64)
	if zero.Int64() != 0 || zero.Type() != gtype.Int64 {
		t.Errorf("New(gint64) = %v", zero)
	}
	if New(gtype.String).Str() != "" {
		t.Error("New(gchararray) should be empty")
	}
	if New(base).Instance() != nil {
		t.Error("New(object) should be NULL")
	}
}

func TestEqual(t *testing.T) {
	typ := register(t, "EqType", gtype.Object)
	a := newFake(typ)
	b := newFake(typ)

	tests := []struct {
		name string
		x, y Value
		want bool
	}{
		{"same int", From(1), From(1), true},
		{"different int", From(1), From(2), false},
		{"int vs int64", From(int32(1)), From(int64(1)), false},
		{"strv", From([]string{"a"}), From([]string{"a"}), true},
		{"same instance", From(a), From(a), true},
		{"different instances", From(a), From(b), false},
		{"instance vs null", From(a), Value{typ: typ}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.x.Equal(tt.y); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGet(t *testing.T) {
	v := From("text")
	if s, ok := Get[string](v); !ok || s != "text" {
		t.Errorf("Get[string] = %q, %v", s, ok)
	}
	if _, ok := Get[int32](v); ok {
		t.Error("Get[int32] on a string should fail")
	}
}

package param

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/wippyai/gobject-runtime/gtype"
	"github.com/wippyai/gobject-runtime/value"
)

// Flags control how a property may be accessed.
type Flags uint32

const (
	FlagReadable Flags = 1 << iota
	FlagWritable
	FlagConstruct
	FlagConstructOnly
	FlagLaxValidation
	FlagExplicitNotify
	FlagDeprecated

	FlagReadWrite = FlagReadable | FlagWritable
)

// Has reports whether all bits of f2 are set.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

func (f Flags) String() string {
	names := []struct {
		f    Flags
		name string
	}{
		{FlagReadable, "readable"},
		{FlagWritable, "writable"},
		{FlagConstruct, "construct"},
		{FlagConstructOnly, "construct-only"},
		{FlagLaxValidation, "lax-validation"},
		{FlagExplicitNotify, "explicit-notify"},
		{FlagDeprecated, "deprecated"},
	}
	var parts []string
	for _, n := range names {
		if f.Has(n.f) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Spec describes one property: its canonical name, value type, access flags,
// default value and, for numeric types, the accepted range.
// Specs are immutable once installed on a class.
type Spec struct {
	def       value.Value
	min       value.Value
	max       value.Value
	name      string
	nick      string
	blurb     string
	valueType gtype.Type
	owner     atomic.Uint32
	flags     Flags
}

func newSpec(name, nick, blurb string, valueType gtype.Type, flags Flags) *Spec {
	canon := Canonicalize(name)
	if !ValidName(canon) {
		panic(fmt.Sprintf("param: invalid property name %q", name))
	}
	if flags.Has(FlagConstructOnly) && !flags.Has(FlagWritable) {
		panic(fmt.Sprintf("param: construct-only property %q must be writable", name))
	}
	return &Spec{
		name:      canon,
		nick:      nick,
		blurb:     blurb,
		valueType: valueType,
		flags:     flags,
	}
}

// NewBool creates a gboolean property.
func NewBool(name, nick, blurb string, def bool, flags Flags) *Spec {
	s := newSpec(name, nick, blurb, gtype.Bool, flags)
	s.def = value.From(def)
	return s
}

// NewInt creates a gint property accepting [min, max].
func NewInt(name, nick, blurb string, min, max, def int32, flags Flags) *Spec {
	s := newSpec(name, nick, blurb, gtype.Int, flags)
	s.setRange(value.From(min), value.From(max), value.From(def))
	return s
}

// NewUint creates a guint property accepting [min, max].
func NewUint(name, nick, blurb string, min, max, def uint32, flags Flags) *Spec {
	s := newSpec(name, nick, blurb, gtype.Uint, flags)
	s.setRange(value.From(min), value.From(max), value.From(def))
	return s
}

// NewInt64 creates a gint64 property accepting [min, max].
func NewInt64(name, nick, blurb string, min, max, def int64, flags Flags) *Spec {
	s := newSpec(name, nick, blurb, gtype.Int64, flags)
	s.setRange(value.From(min), value.From(max), value.From(def))
	return s
}

// NewUint64 creates a guint64 property accepting [min, max].
func NewUint64(name, nick, blurb string, min, max, def uint64, flags Flags) *Spec {
	s := newSpec(name, nick, blurb, gtype.Uint64, flags)
	s.setRange(value.From(min), value.From(max), value.From(def))
	return s
}

// NewDouble creates a gdouble property accepting [min, max].
func NewDouble(name, nick, blurb string, min, max, def float64, flags Flags) *Spec {
	s := newSpec(name, nick, blurb, gtype.Double, flags)
	s.setRange(value.From(min), value.From(max), value.From(def))
	return s
}

// NewString creates a string property.
func NewString(name, nick, blurb, def string, flags Flags) *Spec {
	s := newSpec(name, nick, blurb, gtype.String, flags)
	s.def = value.From(def)
	return s
}

// NewStrv creates a string list property defaulting to NULL.
func NewStrv(name, nick, blurb string, flags Flags) *Spec {
	s := newSpec(name, nick, blurb, gtype.Strv, flags)
	s.def = value.New(gtype.Strv)
	return s
}

// NewObject creates a property holding instances of objectType, which may be
// a class or an interface. The default is NULL.
func NewObject(name, nick, blurb string, objectType gtype.Type, flags Flags) *Spec {
	if !value.IsObjectType(objectType) {
		panic(fmt.Sprintf("param: %s is not an object type", objectType))
	}
	s := newSpec(name, nick, blurb, objectType, flags)
	s.def = value.New(objectType)
	return s
}

// NewBoxed creates a property holding opaque values of a boxed type.
func NewBoxed(name, nick, blurb string, boxedType gtype.Type, flags Flags) *Spec {
	if !boxedType.IsA(gtype.Boxed) && !boxedType.IsA(gtype.Pointer) {
		panic(fmt.Sprintf("param: %s is not a boxed type", boxedType))
	}
	s := newSpec(name, nick, blurb, boxedType, flags)
	s.def = value.New(boxedType)
	return s
}

func (s *Spec) setRange(min, max, def value.Value) {
	if compare(min, max) > 0 || compare(def, min) < 0 || compare(def, max) > 0 {
		panic(fmt.Sprintf("param: property %q default %v outside [%v, %v]", s.name, def.Interface(), min.Interface(), max.Interface()))
	}
	s.min, s.max, s.def = min, max, def
}

// Name returns the canonical property name.
func (s *Spec) Name() string { return s.name }

// Nick returns the short human readable name, or the name if unset.
func (s *Spec) Nick() string {
	if s.nick == "" {
		return s.name
	}
	return s.nick
}

// Blurb returns the description.
func (s *Spec) Blurb() string { return s.blurb }

// ValueType returns the declared value type.
func (s *Spec) ValueType() gtype.Type { return s.valueType }

// Flags returns the access flags.
func (s *Spec) Flags() Flags { return s.flags }

// Default returns the default value.
func (s *Spec) Default() value.Value { return s.def }

// Range returns the accepted bounds of a numeric property. Both are invalid
// Values for non-numeric properties.
func (s *Spec) Range() (min, max value.Value) { return s.min, s.max }

// OwnerType returns the class or interface that installed the property.
func (s *Spec) OwnerType() gtype.Type { return gtype.Type(s.owner.Load()) }

// SetOwner records the installing type. A spec can be installed only once.
func (s *Spec) SetOwner(t gtype.Type) error {
	if !s.owner.CompareAndSwap(uint32(gtype.Invalid), uint32(t)) {
		return fmt.Errorf("property %q already installed on %s", s.name, s.OwnerType())
	}
	return nil
}

func (s *Spec) IsReadable() bool      { return s.flags.Has(FlagReadable) }
func (s *Spec) IsWritable() bool      { return s.flags.Has(FlagWritable) }
func (s *Spec) IsConstructOnly() bool { return s.flags.Has(FlagConstructOnly) }
func (s *Spec) IsConstruct() bool     { return s.flags.Has(FlagConstruct) || s.flags.Has(FlagConstructOnly) }

// Validate makes v conform to the spec in place and reports whether it had to
// be changed. Numbers are clamped into range; object values whose instance is
// not of the value type are reset to NULL.
func (s *Spec) Validate(v *value.Value) bool {
	if s.min.IsValid() {
		if compare(*v, s.min) < 0 {
			*v = s.withData(s.min)
			return true
		}
		if compare(*v, s.max) > 0 {
			*v = s.withData(s.max)
			return true
		}
		return false
	}
	if value.IsObjectType(s.valueType) {
		if inst := v.Instance(); inst != nil && !inst.Type().IsA(s.valueType) {
			*v = value.New(v.Type())
			return true
		}
	}
	return false
}

// withData keeps the declared type of the spec while taking the bound's data.
func (s *Spec) withData(bound value.Value) value.Value {
	return value.MustFor(s.valueType, bound.Interface())
}

// Compare orders two values of this spec's type, like strcmp.
func (s *Spec) Compare(a, b value.Value) int {
	if s.min.IsValid() {
		return compare(a, b)
	}
	if a.Equal(b) {
		return 0
	}
	if a.String() < b.String() {
		return -1
	}
	return 1
}

func compare(a, b value.Value) int {
	switch x := a.Interface().(type) {
	case int32:
		return cmp3(int64(x), int64(b.Int()))
	case int64:
		return cmp3(x, b.Int64())
	case uint32:
		return cmp3(uint64(x), uint64(b.Uint()))
	case uint64:
		return cmp3(x, b.Uint64())
	case float64:
		return cmp3(x, b.Double())
	}
	return 0
}

func cmp3[T int64 | uint64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (s *Spec) String() string {
	return fmt.Sprintf("%s: %s [%s]", s.name, s.valueType, s.flags)
}

package object

import (
	"context"
	"fmt"
	"sync"

	"github.com/wippyai/gobject-runtime/errors"
	"github.com/wippyai/gobject-runtime/gtype"
	"github.com/wippyai/gobject-runtime/param"
	"github.com/wippyai/gobject-runtime/value"
	"go.uber.org/zap"
)

func propertyNotFound(t gtype.Type, name string) error {
	return errors.New(errors.PhaseProperty, errors.KindNotFound).
		Path(t.Name(), name).
		Detail("property '%s' of type '%s' not found", name, t).
		Build()
}

// FindProperty looks up a property of the instance's class.
func (o Object) FindProperty(name string) (*param.Spec, bool) {
	return o.p.class.FindProperty(name)
}

// ListProperties returns all properties of the instance's class.
func (o Object) ListProperties() []*param.Spec {
	return o.p.class.ListProperties()
}

// TryProperty reads a readable property. The result always holds the
// property's declared type.
func (o Object) TryProperty(name string) (value.Value, error) {
	spec, ok := o.FindProperty(name)
	if !ok {
		return value.Value{}, propertyNotFound(o.Type(), name)
	}
	if !spec.IsReadable() {
		return value.Value{}, errors.New(errors.PhaseProperty, errors.KindNotReadable).
			Path(o.Type().Name(), spec.Name()).
			Detail("property '%s' of type '%s' is not readable", spec.Name(), o.Type()).
			Build()
	}
	return o.load(spec)
}

// Property is TryProperty that panics on error.
func (o Object) Property(name string) value.Value {
	v, err := o.TryProperty(name)
	if err != nil {
		panic(err)
	}
	return v
}

// TrySetProperty writes a property. v is a value.Value or a Go value
// convertible to the declared type; objects of a subtype are accepted.
// Numbers outside the declared range are clamped when the property allows
// lax validation and rejected otherwise.
func (o Object) TrySetProperty(name string, v any) error {
	spec, ok := o.FindProperty(name)
	if !ok {
		return propertyNotFound(o.Type(), name)
	}
	return o.setProperty(spec, v)
}

// SetProperty is TrySetProperty that panics on error.
func (o Object) SetProperty(name string, v any) {
	if err := o.TrySetProperty(name, v); err != nil {
		panic(err)
	}
}

// SetProperties sets several properties with notifications frozen, stopping
// at the first error.
func (o Object) SetProperties(props ...Prop) error {
	guard := o.FreezeNotify()
	defer guard.Thaw()
	for _, pr := range props {
		if err := o.TrySetProperty(pr.Name, pr.Value); err != nil {
			return err
		}
	}
	return nil
}

func gotTypeName(x any) string {
	switch x := x.(type) {
	case value.Value:
		if inst := x.Instance(); inst != nil {
			return inst.Type().Name()
		}
		return x.Type().Name()
	case value.Instance:
		return x.Type().Name()
	}
	return fmt.Sprintf("%T", x)
}

func (o Object) setProperty(spec *param.Spec, x any) error {
	path := []string{o.Type().Name(), spec.Name()}
	if !spec.IsWritable() {
		return errors.New(errors.PhaseProperty, errors.KindNotWritable).
			Path(path...).
			Detail("property '%s' of type '%s' is not writable", spec.Name(), o.Type()).
			Build()
	}
	constructing := o.p.constructing.Load()
	if spec.IsConstructOnly() && !constructing {
		return errors.New(errors.PhaseProperty, errors.KindNotWritable).
			Path(path...).
			Detail("construct-only property '%s' of type '%s' can't be set after construction", spec.Name(), o.Type()).
			Build()
	}

	v, err := value.For(spec.ValueType(), x)
	if err != nil {
		if errors.IsKind(err, errors.KindOutOfRange) {
			return errors.New(errors.PhaseProperty, errors.KindOutOfRange).
				Path(path...).
				GType(spec.ValueType().Name()).
				Value(x).
				Cause(err).
				Detail("property '%s' of type '%s' can't be set from given value, it is invalid or out of range", spec.Name(), o.Type()).
				Build()
		}
		return errors.New(errors.PhaseProperty, errors.KindTypeMismatch).
			Path(path...).
			GoType(fmt.Sprintf("%T", x)).
			GType(spec.ValueType().Name()).
			Value(x).
			Detail("property '%s' of type '%s' can't be set from the given type (expected: '%s', got: '%s')",
				spec.Name(), o.Type(), spec.ValueType(), gotTypeName(x)).
			Build()
	}

	if spec.Validate(&v) && !spec.Flags().Has(param.FlagLaxValidation) {
		return errors.New(errors.PhaseProperty, errors.KindOutOfRange).
			Path(path...).
			GType(spec.ValueType().Name()).
			Value(x).
			Detail("property '%s' of type '%s' can't be set from given value, it is invalid or out of range", spec.Name(), o.Type()).
			Build()
	}

	o.store(spec, v)
	if !constructing && !spec.Flags().Has(param.FlagExplicitNotify) {
		o.NotifyBySpec(spec)
	}
	return nil
}

func (o Object) store(spec *param.Spec, v value.Value) {
	if s, ok := o.p.impls[spec.OwnerType()].(PropertySetter); ok {
		s.SetProperty(o, spec, v)
		return
	}

	if held, ok := handleOf(v.Instance()); ok {
		held.Ref()
	}
	o.p.mu.Lock()
	if o.p.props == nil {
		o.p.props = make(map[*param.Spec]value.Value)
	}
	old := o.p.props[spec]
	o.p.props[spec] = v
	o.p.mu.Unlock()

	if prev, ok := handleOf(old.Instance()); ok {
		prev.Unref()
	}
}

func (o Object) load(spec *param.Spec) (value.Value, error) {
	var v value.Value
	if g, ok := o.p.impls[spec.OwnerType()].(PropertyGetter); ok {
		v = g.Property(o, spec)
	} else {
		o.p.mu.Lock()
		v = o.p.props[spec]
		o.p.mu.Unlock()
	}
	if !v.IsValid() {
		return spec.Default(), nil
	}

	c, ok := value.Coerce(v, spec.ValueType())
	if !ok {
		return value.Value{}, errors.New(errors.PhaseProperty, errors.KindTypeMismatch).
			Path(o.Type().Name(), spec.Name()).
			GType(spec.ValueType().Name()).
			Detail("property '%s' of type '%s' returned %s", spec.Name(), o.Type(), v.Type()).
			Build()
	}
	return c, nil
}

// Notify emits "notify::name", or queues it while notifications are frozen.
func (o Object) Notify(name string) {
	spec, ok := o.FindProperty(name)
	if !ok {
		Logger().Warn("notify for unknown property",
			zap.String("type", o.Type().Name()),
			zap.String("property", name))
		return
	}
	o.NotifyBySpec(spec)
}

// NotifyBySpec is Notify for an already resolved property.
func (o Object) NotifyBySpec(spec *param.Spec) {
	o.p.mu.Lock()
	if o.p.freeze > 0 {
		for _, queued := range o.p.pending {
			if queued == spec {
				o.p.mu.Unlock()
				return
			}
		}
		o.p.pending = append(o.p.pending, spec)
		o.p.mu.Unlock()
		return
	}
	o.p.mu.Unlock()
	o.emitNotify(spec)
}

func (o Object) emitNotify(spec *param.Spec) {
	arg := value.MustFor(gtype.Param, spec)
	if _, err := o.p.handlers.Emit(context.Background(), o, notifySignal, spec.Name(), []value.Value{arg}); err != nil {
		Logger().Warn("notify emission failed",
			zap.String("type", o.Type().Name()),
			zap.String("property", spec.Name()),
			zap.Error(err))
	}
}

// NotifyGuard holds notifications of one instance until Thaw. Guards nest;
// queued notifications are emitted once, in order, when the last guard thaws.
type NotifyGuard struct {
	o    Object
	once sync.Once
}

// FreezeNotify suspends notify emissions. Use with defer:
//
//	guard := o.FreezeNotify()
//	defer guard.Thaw()
func (o Object) FreezeNotify() *NotifyGuard {
	o.p.mu.Lock()
	o.p.freeze++
	o.p.mu.Unlock()
	return &NotifyGuard{o: o}
}

// Thaw releases the guard. Calling it more than once has no effect.
func (g *NotifyGuard) Thaw() {
	g.once.Do(func() {
		p := g.o.p
		p.mu.Lock()
		p.freeze--
		if p.freeze > 0 {
			p.mu.Unlock()
			return
		}
		pending := p.pending
		p.pending = nil
		p.mu.Unlock()

		for _, spec := range pending {
			g.o.emitNotify(spec)
		}
	})
}

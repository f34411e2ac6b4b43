package object

import (
	"fmt"

	"github.com/wippyai/gobject-runtime/errors"
	"github.com/wippyai/gobject-runtime/gtype"
	"github.com/wippyai/gobject-runtime/param"
)

// Prop is a property assignment passed to New.
type Prop struct {
	Value any
	Name  string
}

// P builds a Prop.
func P(name string, v any) Prop {
	return Prop{Name: name, Value: v}
}

// New creates an instance of t. Construct properties are set first (the
// given value or the default), then Constructed hooks run root level first,
// then the remaining given properties are set with notifications frozen.
// No notifications are emitted for construct properties.
func New(t gtype.Type, props ...Prop) (Object, error) {
	ensureBase()
	c := classOf(t)
	if c == nil {
		return Object{}, errors.New(errors.PhaseRegister, errors.KindInvalidArgument).
			GType(t.Name()).
			Detail("%s is not an object class", t).
			Build()
	}
	if t.IsAbstract() {
		return Object{}, errors.New(errors.PhaseRegister, errors.KindInvalidArgument).
			GType(t.Name()).
			Detail("cannot instantiate abstract type %s", t).
			Build()
	}

	provided := make(map[*param.Spec]any, len(props))
	var later []*param.Spec
	for _, pr := range props {
		spec, ok := c.FindProperty(pr.Name)
		if !ok {
			return Object{}, propertyNotFound(t, pr.Name)
		}
		if _, dup := provided[spec]; !dup && !spec.IsConstruct() {
			later = append(later, spec)
		}
		provided[spec] = pr.Value
	}

	p := &Instance{
		class:  c,
		typ:    t,
		serial: serialSeq.Add(1),
		impls:  make(map[gtype.Type]any),
	}
	p.refs.Store(1)
	if t.IsA(unownedType) {
		p.floating.Store(true)
	}

	var chain []*Class
	for cur := c; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].newImpl != nil {
			p.impls[chain[i].typ] = chain[i].newImpl()
		}
	}

	o := Object{p: p}
	fail := func(err error) (Object, error) {
		p.constructing.Store(false)
		p.floating.Store(false)
		o.Unref()
		return Object{}, err
	}

	p.constructing.Store(true)
	for _, spec := range c.ListProperties() {
		if !spec.IsConstruct() {
			continue
		}
		v, ok := provided[spec]
		if !ok {
			v = spec.Default()
		}
		if err := o.setProperty(spec, v); err != nil {
			return fail(err)
		}
	}
	for i := len(chain) - 1; i >= 0; i-- {
		if h, ok := p.impls[chain[i].typ].(Constructed); ok {
			h.Constructed(o)
		}
	}
	p.constructing.Store(false)

	if len(later) > 0 {
		guard := o.FreezeNotify()
		for _, spec := range later {
			if err := o.setProperty(spec, provided[spec]); err != nil {
				guard.Thaw()
				return fail(err)
			}
		}
		guard.Thaw()
	}
	return o, nil
}

// MustNew is New that panics on error.
func MustNew(t gtype.Type, props ...Prop) Object {
	o, err := New(t, props...)
	if err != nil {
		panic(fmt.Sprintf("object: New(%s): %v", t, err))
	}
	return o
}

// IsConstructing reports whether the instance is still running its
// construction phase.
func (o Object) IsConstructing() bool {
	return o.p.constructing.Load()
}

package gtype

import (
	"fmt"
	"reflect"

	"github.com/wippyai/gobject-runtime/errors"
	"go.uber.org/zap"
)

// AddInterface records that class type t implements iface with the given
// vtable. A subclass may re-add an interface its parent already implements to
// override the parent's vtable; adding the same interface twice to one type
// is an error.
func AddInterface(t, iface Type, vtable any) error {
	r := registryInstance()
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.node(t)
	in := r.node(iface)
	if n == nil || in == nil {
		return errors.Registration("interface implementation", fmt.Sprintf("%d:%d", t, iface), fmt.Errorf("type is not registered"))
	}
	if n.flags.Has(FlagInterface) || !n.flags.Has(FlagInstantiatable) {
		return errors.Registration("interface implementation", n.name, fmt.Errorf("%s is not an instantiatable class", n.name))
	}
	if !in.flags.Has(FlagInterface) || iface == Interface {
		return errors.Registration("interface implementation", n.name, fmt.Errorf("%s is not an interface", in.name))
	}
	if _, dup := n.vtables[iface]; dup {
		return errors.Registration("interface implementation", n.name, fmt.Errorf("%s already implemented", in.name))
	}
	for _, p := range in.prereqs {
		pn := r.node(p)
		if pn.flags.Has(FlagInterface) {
			// interface prerequisites may be added later in the same class init
			continue
		}
		if !r.isA(t, p) {
			return errors.Registration("interface implementation", n.name,
				fmt.Errorf("%s requires %s", in.name, pn.name))
		}
	}

	if n.vtables == nil {
		n.vtables = make(map[Type]any)
	}
	n.vtables[iface] = vtable
	if !containsType(n.ifaces, iface) {
		n.ifaces = append(n.ifaces, iface)
	}

	Logger().Debug("interface implemented",
		zap.String("type", n.name),
		zap.String("interface", in.name),
		zap.Int("slots", len(ImplementedSlots(vtable))))
	return nil
}

// InterfaceVTable returns the vtable for iface registered on t or, failing
// that, on the nearest ancestor of t.
func InterfaceVTable(t, iface Type) (any, bool) {
	r := registryInstance()
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.vtableFrom(t, iface)
}

// ParentInterfaceVTable returns the vtable for iface as seen by t's parent.
// Subclass fallbacks use it to reach the implementation they are overriding.
func ParentInterfaceVTable(t, iface Type) (any, bool) {
	r := registryInstance()
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.node(t)
	if n == nil {
		return nil, false
	}
	return r.vtableFrom(n.parent, iface)
}

// InterfaceOwner returns the ancestor of t (t included) whose vtable for
// iface InterfaceVTable would return.
func InterfaceOwner(t, iface Type) Type {
	r := registryInstance()
	r.mu.RLock()
	defer r.mu.RUnlock()

	for cur := t; cur != Invalid; {
		n := r.node(cur)
		if n == nil {
			return Invalid
		}
		if _, ok := n.vtables[iface]; ok {
			return cur
		}
		cur = n.parent
	}
	return Invalid
}

func (r *registry) vtableFrom(t, iface Type) (any, bool) {
	for cur := t; cur != Invalid; {
		n := r.node(cur)
		if n == nil {
			return nil, false
		}
		if vt, ok := n.vtables[iface]; ok {
			return vt, true
		}
		cur = n.parent
	}
	return nil, false
}

func containsType(list []Type, t Type) bool {
	for _, x := range list {
		if x == t {
			return true
		}
	}
	return false
}

// Slots returns the names of the function-typed fields of a vtable struct
// (or pointer to struct), in declaration order.
func Slots(vtable any) []string {
	return slotNames(vtable, false)
}

// ImplementedSlots returns the names of the non-nil function fields of a vtable.
func ImplementedSlots(vtable any) []string {
	return slotNames(vtable, true)
}

func slotNames(vtable any, setOnly bool) []string {
	v := reflect.ValueOf(vtable)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	rt := v.Type()
	var out []string
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() || f.Type.Kind() != reflect.Func {
			continue
		}
		if setOnly && v.Field(i).IsNil() {
			continue
		}
		out = append(out, f.Name)
	}
	return out
}

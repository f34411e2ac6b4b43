package gtype

import (
	"fmt"
	"sync"

	"github.com/wippyai/gobject-runtime/errors"
	"go.uber.org/zap"
)

type node struct {
	name     string
	parent   Type
	depth    int
	flags    Flags
	prereqs  []Type
	ifaces   []Type
	vtables  map[Type]any
	class    any
	children []Type
}

// registry is the process-wide type table. It is created once and lives for
// the rest of the process. A type is only removed by Withdraw, and its ID is
// never reused.
type registry struct {
	byName map[string]Type
	nodes  []*node
	mu     sync.RWMutex
}

var (
	reg     *registry
	regOnce sync.Once
)

func registryInstance() *registry {
	regOnce.Do(func() {
		reg = &registry{
			byName: make(map[string]Type),
			nodes:  make([]*node, 1, 64),
		}
		reg.registerFundamentals()
	})
	return reg
}

func (r *registry) registerFundamentals() {
	fundamentals := []struct {
		name  string
		t     Type
		flags Flags
	}{
		{"void", None, 0},
		{"GInterface", Interface, FlagDerivable | FlagInterface},
		{"gboolean", Bool, 0},
		{"gint", Int, 0},
		{"guint", Uint, 0},
		{"gint64", Int64, 0},
		{"guint64", Uint64, 0},
		{"gdouble", Double, 0},
		{"gchararray", String, 0},
		{"GStrv", Strv, 0},
		{"gpointer", Pointer, 0},
		{"GBoxed", Boxed, FlagAbstract | FlagDerivable},
		{"GParam", Param, FlagAbstract | FlagDerivable | FlagInstantiatable},
		{"GObject", Object, FlagDerivable | FlagInstantiatable},
	}
	for _, f := range fundamentals {
		if Type(len(r.nodes)) != f.t {
			panic(fmt.Sprintf("gtype: fundamental %s registered out of order", f.name))
		}
		r.nodes = append(r.nodes, &node{
			name:  f.name,
			depth: 1,
			flags: f.flags | FlagFundamental,
		})
		r.byName[f.name] = f.t
	}
}

func (r *registry) node(t Type) *node {
	if t == Invalid || int(t) >= len(r.nodes) {
		return nil
	}
	return r.nodes[t]
}

func (r *registry) lookup(t Type) *node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.node(t)
}

func (r *registry) isA(t, u Type) bool {
	nt, nu := r.node(t), r.node(u)
	if nt == nil || nu == nil {
		return false
	}
	if t == u {
		return true
	}

	if nu.flags.Has(FlagInterface) && u != Interface {
		if nt.flags.Has(FlagInterface) {
			return r.ifaceIsA(t, u)
		}
		for cur := t; cur != Invalid; {
			n := r.node(cur)
			if n == nil {
				return false
			}
			for _, i := range n.ifaces {
				if r.ifaceIsA(i, u) {
					return true
				}
			}
			cur = n.parent
		}
		return false
	}

	// An interface is-a class type when one of its prerequisites is.
	if nt.flags.Has(FlagInterface) {
		if u == Interface {
			return true
		}
		for _, p := range nt.prereqs {
			if r.isA(p, u) {
				return true
			}
		}
		return false
	}

	for cur := nt.parent; cur != Invalid; {
		if cur == u {
			return true
		}
		n := r.node(cur)
		if n == nil {
			return false
		}
		cur = n.parent
	}
	return false
}

func (r *registry) ifaceIsA(i, u Type) bool {
	if i == u {
		return true
	}
	n := r.node(i)
	if n == nil {
		return false
	}
	for _, p := range n.prereqs {
		if pn := r.node(p); pn != nil && pn.flags.Has(FlagInterface) && r.ifaceIsA(p, u) {
			return true
		}
	}
	return false
}

func (r *registry) add(n *node) Type {
	t := Type(len(r.nodes))
	r.nodes = append(r.nodes, n)
	r.byName[n.name] = t
	if n.parent != Invalid {
		p := r.nodes[n.parent]
		p.children = append(p.children, t)
	}
	return t
}

// Register adds a class type derived from parent.
// The parent must already be registered, derivable and not final, which keeps
// the parent graph acyclic.
func Register(name string, parent Type, flags Flags) (Type, error) {
	if !ValidTypeName(name) {
		return Invalid, errors.Registration("type", name, fmt.Errorf("invalid type name"))
	}
	flags &^= FlagInterface | FlagFundamental

	r := registryInstance()
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.byName[name]; dup {
		return Invalid, errors.Registration("type", name, fmt.Errorf("type name already registered"))
	}
	pn := r.node(parent)
	if pn == nil {
		return Invalid, errors.Registration("type", name, fmt.Errorf("parent type %d is not registered", parent))
	}
	if pn.flags.Has(FlagInterface) {
		return Invalid, errors.Registration("type", name, fmt.Errorf("parent %s is an interface", pn.name))
	}
	if pn.flags.Has(FlagFinal) || !pn.flags.Has(FlagDerivable) {
		return Invalid, errors.Registration("type", name, fmt.Errorf("parent %s is not derivable", pn.name))
	}

	inherit := pn.flags & FlagInstantiatable
	n := &node{
		name:   name,
		parent: parent,
		depth:  pn.depth + 1,
		flags:  flags | inherit | FlagDerivable,
	}
	if flags.Has(FlagFinal) {
		n.flags &^= FlagDerivable
	}
	t := r.add(n)

	Logger().Debug("registered type",
		zap.String("name", name),
		zap.String("parent", pn.name),
		zap.Uint32("id", uint32(t)))
	return t, nil
}

// RegisterInterface adds an interface type. Every type implementing it must
// already satisfy each prerequisite.
func RegisterInterface(name string, prereqs ...Type) (Type, error) {
	if !ValidTypeName(name) {
		return Invalid, errors.Registration("interface", name, fmt.Errorf("invalid type name"))
	}

	r := registryInstance()
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.byName[name]; dup {
		return Invalid, errors.Registration("interface", name, fmt.Errorf("type name already registered"))
	}
	classPrereqs := 0
	for _, p := range prereqs {
		pn := r.node(p)
		if pn == nil {
			return Invalid, errors.Registration("interface", name, fmt.Errorf("prerequisite %d is not registered", p))
		}
		if !pn.flags.Has(FlagInterface) {
			if !pn.flags.Has(FlagInstantiatable) {
				return Invalid, errors.Registration("interface", name, fmt.Errorf("prerequisite %s is not instantiatable", pn.name))
			}
			classPrereqs++
		}
	}
	if classPrereqs > 1 {
		return Invalid, errors.Registration("interface", name, fmt.Errorf("at most one class prerequisite is allowed"))
	}

	t := r.add(&node{
		name:    name,
		parent:  Interface,
		depth:   2,
		flags:   FlagInterface,
		prereqs: append([]Type(nil), prereqs...),
	})

	Logger().Debug("registered interface",
		zap.String("name", name),
		zap.Int("prerequisites", len(prereqs)),
		zap.Uint32("id", uint32(t)))
	return t, nil
}

// MustRegister is Register that panics on error. Intended for package-level
// type initialization.
func MustRegister(name string, parent Type, flags Flags) Type {
	t, err := Register(name, parent, flags)
	if err != nil {
		panic(err)
	}
	return t
}

// MustRegisterInterface is RegisterInterface that panics on error.
func MustRegisterInterface(name string, prereqs ...Type) Type {
	t, err := RegisterInterface(name, prereqs...)
	if err != nil {
		panic(err)
	}
	return t
}

// FromName returns the type registered under name, or Invalid.
func FromName(name string) Type {
	r := registryInstance()
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// All returns every registered type in registration order.
func All() []Type {
	r := registryInstance()
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Type, 0, len(r.nodes)-1)
	for i := 1; i < len(r.nodes); i++ {
		if r.nodes[i] == nil {
			continue
		}
		out = append(out, Type(i))
	}
	return out
}

// Withdraw removes a class type whose initialization failed, freeing its name.
// Fundamentals, interfaces and types with children can not be withdrawn.
func Withdraw(t Type) error {
	r := registryInstance()
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.node(t)
	if n == nil {
		return errors.Registration("type", t.String(), fmt.Errorf("type is not registered"))
	}
	if n.flags.Has(FlagFundamental) || n.flags.Has(FlagInterface) || len(n.children) > 0 {
		return errors.Registration("type", n.name, fmt.Errorf("type can not be withdrawn"))
	}

	if pn := r.node(n.parent); pn != nil {
		kept := pn.children[:0]
		for _, c := range pn.children {
			if c != t {
				kept = append(kept, c)
			}
		}
		pn.children = kept
	}
	delete(r.byName, n.name)
	r.nodes[t] = nil

	Logger().Debug("withdrew type",
		zap.String("name", n.name),
		zap.Uint32("id", uint32(t)))
	return nil
}

// SetClass stores the class record of t. It may be set only once.
func SetClass(t Type, class any) error {
	r := registryInstance()
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.node(t)
	if n == nil {
		return errors.Registration("class", t.String(), fmt.Errorf("type is not registered"))
	}
	if n.class != nil {
		return errors.Registration("class", n.name, fmt.Errorf("class already initialized"))
	}
	n.class = class
	return nil
}

// ValidTypeName reports whether name is usable as a type name: it starts with
// a letter or underscore, is at least three characters long and contains only
// letters, digits, '_', '-' and '+'.
func ValidTypeName(name string) bool {
	if len(name) < 3 {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case i > 0 && (c >= '0' && c <= '9' || c == '-' || c == '+'):
		default:
			return false
		}
	}
	return true
}

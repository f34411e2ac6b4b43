package gtype

import (
	"strconv"
)

// Type is the runtime identity of a registered type.
// Type 0 is reserved and always invalid.
type Type uint32

// Fundamental types, registered when the registry is first used.
const (
	Invalid Type = iota
	None
	Interface
	Bool
	Int
	Uint
	Int64
	Uint64
	Double
	String
	Strv
	Pointer
	Boxed
	Param
	Object

	lastFundamental = Object
)

// Flags describe how a type may be used.
type Flags uint32

const (
	FlagAbstract Flags = 1 << iota
	FlagFinal
	FlagDerivable
	FlagInstantiatable
	FlagInterface
	FlagFundamental
)

// Has reports whether all bits of f2 are set.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// Name returns the registered type name, or a placeholder for unknown types.
func (t Type) Name() string {
	n := registryInstance().lookup(t)
	if n == nil {
		if t == Invalid {
			return "<invalid>"
		}
		return "<unknown " + strconv.FormatUint(uint64(t), 10) + ">"
	}
	return n.name
}

// String implements fmt.Stringer.
func (t Type) String() string {
	return t.Name()
}

// IsValid reports whether t names a registered type.
func (t Type) IsValid() bool {
	return registryInstance().lookup(t) != nil
}

// Parent returns the parent type, or Invalid for fundamentals and unknown types.
func (t Type) Parent() Type {
	n := registryInstance().lookup(t)
	if n == nil {
		return Invalid
	}
	return n.parent
}

// Depth is the number of types on the parent chain including t itself.
func (t Type) Depth() int {
	n := registryInstance().lookup(t)
	if n == nil {
		return 0
	}
	return n.depth
}

// Flags returns the registration flags of t.
func (t Type) Flags() Flags {
	n := registryInstance().lookup(t)
	if n == nil {
		return 0
	}
	return n.flags
}

// IsInterface reports whether t is an interface type.
func (t Type) IsInterface() bool {
	return t.Flags().Has(FlagInterface)
}

// IsAbstract reports whether t can not be instantiated directly.
func (t Type) IsAbstract() bool {
	return t.Flags().Has(FlagAbstract)
}

// IsFinal reports whether t can not be derived from.
func (t Type) IsFinal() bool {
	return t.Flags().Has(FlagFinal)
}

// IsFundamental reports whether t is one of the built-in root types.
func (t Type) IsFundamental() bool {
	return t != Invalid && t <= lastFundamental
}

// Fundamental returns the root of t's parent chain.
func (t Type) Fundamental() Type {
	r := registryInstance()
	r.mu.RLock()
	defer r.mu.RUnlock()

	cur := t
	for {
		n := r.node(cur)
		if n == nil {
			return Invalid
		}
		if n.parent == Invalid {
			return cur
		}
		cur = n.parent
	}
}

// IsA reports whether t is u, derives from u, or implements the interface u.
// The relation is computed on every call by walking the registry.
func (t Type) IsA(u Type) bool {
	r := registryInstance()
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isA(t, u)
}

// Ancestors returns t followed by its parent chain up to the fundamental type.
func (t Type) Ancestors() []Type {
	r := registryInstance()
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Type
	for cur := t; cur != Invalid; {
		n := r.node(cur)
		if n == nil {
			break
		}
		out = append(out, cur)
		cur = n.parent
	}
	return out
}

// Interfaces returns every interface t conforms to, including inherited ones
// and interface prerequisites, in discovery order.
func (t Type) Interfaces() []Type {
	r := registryInstance()
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[Type]bool)
	var out []Type
	var visit func(Type)
	visit = func(i Type) {
		if seen[i] {
			return
		}
		seen[i] = true
		out = append(out, i)
		if n := r.node(i); n != nil {
			for _, p := range n.prereqs {
				if pn := r.node(p); pn != nil && pn.flags.Has(FlagInterface) {
					visit(p)
				}
			}
		}
	}

	for cur := t; cur != Invalid; {
		n := r.node(cur)
		if n == nil {
			break
		}
		for _, i := range n.ifaces {
			visit(i)
		}
		cur = n.parent
	}
	return out
}

// DirectInterfaces returns the interfaces added to t itself, in registration order.
func (t Type) DirectInterfaces() []Type {
	r := registryInstance()
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.node(t)
	if n == nil {
		return nil
	}
	return append([]Type(nil), n.ifaces...)
}

// Prerequisites returns the prerequisites of an interface type.
func (t Type) Prerequisites() []Type {
	r := registryInstance()
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.node(t)
	if n == nil {
		return nil
	}
	return append([]Type(nil), n.prereqs...)
}

// Children returns the types registered with t as parent.
func (t Type) Children() []Type {
	r := registryInstance()
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.node(t)
	if n == nil {
		return nil
	}
	return append([]Type(nil), n.children...)
}

// Class returns the class record stored for t by SetClass.
func (t Type) Class() any {
	r := registryInstance()
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.node(t)
	if n == nil {
		return nil
	}
	return n.class
}

// ParentClass returns the class record of the nearest ancestor that has one.
func (t Type) ParentClass() any {
	r := registryInstance()
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.node(t)
	if n == nil {
		return nil
	}
	for cur := n.parent; cur != Invalid; {
		pn := r.node(cur)
		if pn == nil {
			return nil
		}
		if pn.class != nil {
			return pn.class
		}
		cur = pn.parent
	}
	return nil
}

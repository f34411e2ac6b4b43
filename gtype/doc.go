// Package gtype is the process-wide runtime type registry.
//
// Every type, class or interface, is identified by a Type value. Types are
// registered once and live for the rest of the process:
//
//	base := gtype.MustRegister("MyBase", gtype.Object, 0)
//	iface := gtype.MustRegisterInterface("MyIface", gtype.Object)
//	leaf := gtype.MustRegister("MyLeaf", base, gtype.FlagFinal)
//
// Classes have single inheritance. Interfaces are attached to classes with
// AddInterface together with a vtable, a struct whose function fields are the
// interface's slots. Lookups walk the parent chain, so a subclass sees the
// vtable of its nearest implementing ancestor:
//
//	gtype.AddInterface(base, iface, &MyIfaceVTable{...})
//	vt, _ := gtype.InterfaceVTable(leaf, iface)        // base's vtable
//	pvt, _ := gtype.ParentInterfaceVTable(leaf, iface) // also base's vtable
//
// IsA is computed on demand by walking parents, implemented interfaces and
// interface prerequisites; it is reflexive and transitive.
package gtype

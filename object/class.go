package object

import (
	"fmt"
	"sync"

	"github.com/wippyai/gobject-runtime/errors"
	"github.com/wippyai/gobject-runtime/gtype"
	"github.com/wippyai/gobject-runtime/param"
	"github.com/wippyai/gobject-runtime/signal"
	"github.com/wippyai/gobject-runtime/value"
	"go.uber.org/zap"
)

// Hooks an implementation object may provide. Each runs once per hierarchy
// level that has an implementation.
type (
	// Constructed runs after construct properties are set, root level first.
	Constructed interface {
		Constructed(o Object)
	}

	// Disposer runs when the last reference is released, leaf level first.
	Disposer interface {
		Dispose(o Object)
	}

	// Finalizer runs after disposal, weak notification and handler removal.
	Finalizer interface {
		Finalize(o Object)
	}

	// PropertySetter stores the properties installed by its level.
	PropertySetter interface {
		SetProperty(o Object, spec *param.Spec, v value.Value)
	}

	// PropertyGetter returns the properties installed by its level.
	PropertyGetter interface {
		Property(o Object, spec *param.Spec) value.Value
	}
)

// InterfaceImpl attaches an interface to a type being registered. Init
// builds the vtable installed for t; parent vtables are already reachable
// through the registry when it runs.
type InterfaceImpl struct {
	Init func(t gtype.Type) (any, error)
	Type gtype.Type
}

// TypeInfo describes a class to register.
type TypeInfo struct {
	// NewImpl creates the per-instance implementation object for this level.
	NewImpl    func() any
	Name       string
	Properties []*param.Spec
	Signals    []*signal.Builder
	Interfaces []InterfaceImpl
	Parent     gtype.Type
	Flags      gtype.Flags
}

// InterfaceInfo describes an interface to register.
type InterfaceInfo struct {
	Name          string
	Prerequisites []gtype.Type
	Signals       []*signal.Builder
}

// Class holds the property schema and instance factory of a registered type.
type Class struct {
	parent  *Class
	newImpl func() any
	props   map[string]*param.Spec
	order   []*param.Spec
	typ     gtype.Type
}

var (
	baseOnce     sync.Once
	unownedType  gtype.Type
	notifySignal signal.ID
)

func ensureBase() {
	baseOnce.Do(func() {
		if err := gtype.SetClass(gtype.Object, &Class{typ: gtype.Object, props: map[string]*param.Spec{}}); err != nil {
			panic(err)
		}
		notifySignal = signal.MustRegister(gtype.Object, signal.NewBuilder("notify").
			Params(gtype.Param).
			RunFirst().NoRecurse().Detailed().Action())

		unownedType = gtype.MustRegister("GInitiallyUnowned", gtype.Object, gtype.FlagAbstract)
		if err := gtype.SetClass(unownedType, &Class{typ: unownedType, parent: classOf(gtype.Object), props: map[string]*param.Spec{}}); err != nil {
			panic(err)
		}
	})
}

// Type returns the root object type.
func Type() gtype.Type {
	ensureBase()
	return gtype.Object
}

// InitiallyUnownedType returns the abstract type whose instances start with a
// floating reference.
func InitiallyUnownedType() gtype.Type {
	ensureBase()
	return unownedType
}

// NotifySignal returns the ID of the "notify" signal.
func NotifySignal() signal.ID {
	ensureBase()
	return notifySignal
}

func classOf(t gtype.Type) *Class {
	c, _ := t.Class().(*Class)
	return c
}

// ClassOf returns the class registered for t, or nil.
func ClassOf(t gtype.Type) *Class {
	ensureBase()
	return classOf(t)
}

// RegisterType registers a class derived from info.Parent (GObject when
// unset): the runtime type, its class, properties, signals and interface
// vtables. On error nothing stays registered and the name may be reused.
func RegisterType(info TypeInfo) (gtype.Type, error) {
	ensureBase()

	parent := info.Parent
	if parent == gtype.Invalid {
		parent = gtype.Object
	}
	pc := classOf(parent)
	if pc == nil || !parent.IsA(gtype.Object) {
		return gtype.Invalid, errors.Registration("type", info.Name, fmt.Errorf("parent %s is not an object class", parent))
	}
	if err := checkTypeInfo(info, parent, pc); err != nil {
		return gtype.Invalid, err
	}

	t, err := gtype.Register(info.Name, parent, info.Flags)
	if err != nil {
		return gtype.Invalid, err
	}
	if err := initClass(t, info, pc); err != nil {
		if werr := gtype.Withdraw(t); werr != nil {
			Logger().Warn("failed to withdraw type",
				zap.String("name", info.Name),
				zap.Error(werr))
		}
		return gtype.Invalid, err
	}

	Logger().Debug("registered class",
		zap.String("name", info.Name),
		zap.String("parent", parent.Name()),
		zap.Int("properties", len(info.Properties)),
		zap.Int("signals", len(info.Signals)),
		zap.Int("interfaces", len(info.Interfaces)))
	return t, nil
}

// checkTypeInfo rejects everything that can be decided before the type exists.
func checkTypeInfo(info TypeInfo, parent gtype.Type, pc *Class) error {
	seen := make(map[string]bool)
	for _, spec := range info.Properties {
		if seen[spec.Name()] {
			return errors.Registration("property", spec.Name(), fmt.Errorf("declared twice on %s", info.Name))
		}
		seen[spec.Name()] = true
		if _, shadow := pc.FindProperty(spec.Name()); shadow {
			return errors.Registration("property", spec.Name(), fmt.Errorf("already defined by an ancestor of %s", info.Name))
		}
		if spec.OwnerType() != gtype.Invalid {
			return errors.Registration("property", spec.Name(), fmt.Errorf("already installed on %s", spec.OwnerType()))
		}
	}

	signals := make(map[string]bool)
	for _, b := range info.Signals {
		if b == nil {
			return errors.Registration("signal", info.Name, fmt.Errorf("nil signal definition"))
		}
		if err := signal.Validate(parent, b); err != nil {
			return err
		}
		name := param.Canonicalize(b.Name())
		if signals[name] {
			return errors.Registration("signal", name, fmt.Errorf("declared twice on %s", info.Name))
		}
		signals[name] = true
	}

	ifaces := make(map[gtype.Type]bool)
	for _, impl := range info.Interfaces {
		if !impl.Type.IsInterface() || impl.Type == gtype.Interface {
			return errors.Registration("interface implementation", impl.Type.Name(), fmt.Errorf("not an interface"))
		}
		if impl.Init == nil {
			return errors.Registration("interface implementation", impl.Type.Name(), fmt.Errorf("missing Init"))
		}
		if ifaces[impl.Type] {
			return errors.Registration("interface implementation", impl.Type.Name(), fmt.Errorf("listed twice on %s", info.Name))
		}
		ifaces[impl.Type] = true
	}
	for _, impl := range info.Interfaces {
		for _, pre := range impl.Type.Prerequisites() {
			if parent.IsA(pre) || (pre.IsInterface() && providedBy(pre, ifaces)) {
				continue
			}
			return errors.Registration("type", info.Name, fmt.Errorf("%s requires %s", impl.Type, pre))
		}
	}
	return nil
}

// providedBy reports whether one of the interfaces being added conforms to pre.
func providedBy(pre gtype.Type, ifaces map[gtype.Type]bool) bool {
	for i := range ifaces {
		if i.IsA(pre) {
			return true
		}
	}
	return false
}

func initClass(t gtype.Type, info TypeInfo, pc *Class) error {
	c := &Class{
		typ:     t,
		parent:  pc,
		newImpl: info.NewImpl,
		props:   make(map[string]*param.Spec, len(info.Properties)),
	}
	for _, spec := range info.Properties {
		c.props[spec.Name()] = spec
		c.order = append(c.order, spec)
	}
	if err := gtype.SetClass(t, c); err != nil {
		return err
	}

	for _, impl := range info.Interfaces {
		if err := addInterface(t, impl); err != nil {
			return err
		}
	}
	for _, iface := range t.DirectInterfaces() {
		for _, pre := range iface.Prerequisites() {
			if !t.IsA(pre) {
				return errors.Registration("type", info.Name,
					fmt.Errorf("%s requires %s", iface, pre))
			}
		}
	}

	for _, b := range info.Signals {
		if _, err := signal.Register(t, b); err != nil {
			return err
		}
	}

	// Properties are claimed last; a spec can not be released once owned.
	for _, spec := range info.Properties {
		if err := spec.SetOwner(t); err != nil {
			return errors.Registration("property", spec.Name(), err)
		}
	}
	return nil
}

func addInterface(t gtype.Type, impl InterfaceImpl) error {
	if impl.Init == nil {
		return errors.Registration("interface implementation", impl.Type.Name(), fmt.Errorf("missing Init"))
	}
	vtable, err := impl.Init(t)
	if err != nil {
		return errors.Registration("interface implementation", impl.Type.Name(), err)
	}
	return gtype.AddInterface(t, impl.Type, vtable)
}

// MustRegisterType is RegisterType that panics on error.
func MustRegisterType(info TypeInfo) gtype.Type {
	t, err := RegisterType(info)
	if err != nil {
		panic(err)
	}
	return t
}

// RegisterInterface registers an interface type and its signals. Without
// prerequisites the interface requires GObject.
func RegisterInterface(info InterfaceInfo) (gtype.Type, error) {
	ensureBase()
	prereqs := info.Prerequisites
	if len(prereqs) == 0 {
		prereqs = []gtype.Type{gtype.Object}
	}
	t, err := gtype.RegisterInterface(info.Name, prereqs...)
	if err != nil {
		return gtype.Invalid, err
	}
	for _, b := range info.Signals {
		if _, err := signal.Register(t, b); err != nil {
			return t, err
		}
	}
	return t, nil
}

// MustRegisterInterface is RegisterInterface that panics on error.
func MustRegisterInterface(info InterfaceInfo) gtype.Type {
	t, err := RegisterInterface(info)
	if err != nil {
		panic(err)
	}
	return t
}

// Type returns the class's runtime type.
func (c *Class) Type() gtype.Type {
	return c.typ
}

// Parent returns the parent class, nil for GObject.
func (c *Class) Parent() *Class {
	return c.parent
}

// FindProperty looks up a property by name on the class and its ancestors.
func (c *Class) FindProperty(name string) (*param.Spec, bool) {
	name = param.Canonicalize(name)
	for cur := c; cur != nil; cur = cur.parent {
		if spec, ok := cur.props[name]; ok {
			return spec, true
		}
	}
	return nil, false
}

// ListProperties returns every property of the class, ancestors' first.
func (c *Class) ListProperties() []*param.Spec {
	var chain []*Class
	for cur := c; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	var out []*param.Spec
	for i := len(chain) - 1; i >= 0; i-- {
		out = append(out, chain[i].order...)
	}
	return out
}

// OwnProperties returns the properties installed by this class only.
func (c *Class) OwnProperties() []*param.Spec {
	return append([]*param.Spec(nil), c.order...)
}

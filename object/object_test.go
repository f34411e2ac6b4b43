package object

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/wippyai/gobject-runtime/errors"
	"github.com/wippyai/gobject-runtime/gtype"
	"github.com/wippyai/gobject-runtime/mainloop"
	"github.com/wippyai/gobject-runtime/param"
	"github.com/wippyai/gobject-runtime/signal"
	"github.com/wippyai/gobject-runtime/value"
)

var seq atomic.Uint64

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, seq.Add(1))
}

type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	j.entries = append(j.entries, s)
	j.mu.Unlock()
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type lifecycleImpl struct {
	j     *journal
	level string
}

func (i *lifecycleImpl) Constructed(Object) { i.j.add(i.level + ":constructed") }
func (i *lifecycleImpl) Dispose(Object)     { i.j.add(i.level + ":dispose") }
func (i *lifecycleImpl) Finalize(Object)    { i.j.add(i.level + ":finalize") }

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func lifecycleTypes(t *testing.T, j *journal) (base, leaf gtype.Type) {
	t.Helper()
	base = MustRegisterType(TypeInfo{
		Name:    uniqueName("LifeBase"),
		NewImpl: func() any { return &lifecycleImpl{j: j, level: "base"} },
	})
	leaf = MustRegisterType(TypeInfo{
		Name:    uniqueName("LifeLeaf"),
		Parent:  base,
		NewImpl: func() any { return &lifecycleImpl{j: j, level: "leaf"} },
	})
	return base, leaf
}

func TestLifecycleOrder(t *testing.T) {
	j := &journal{}
	_, leaf := lifecycleTypes(t, j)

	o, err := New(leaf)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got := o.RefCount(); got != 1 {
		t.Fatalf("RefCount = %d, want 1", got)
	}
	o.Unref()

	want := []string{
		"base:constructed", "leaf:constructed",
		"leaf:dispose", "base:dispose",
		"leaf:finalize", "base:finalize",
	}
	if got := j.list(); !equalStrings(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestRefCountSymmetry(t *testing.T) {
	j := &journal{}
	base, _ := lifecycleTypes(t, j)
	o := MustNew(base)

	refs := make([]Object, 10)
	for i := range refs {
		refs[i] = o.Ref()
	}
	if got := o.RefCount(); got != 11 {
		t.Fatalf("RefCount = %d, want 11", got)
	}

	var wg sync.WaitGroup
	for _, r := range refs {
		wg.Add(1)
		go func(r Object) {
			defer wg.Done()
			r.Unref()
		}(r)
	}
	wg.Wait()

	if got := o.RefCount(); got != 1 {
		t.Fatalf("RefCount = %d, want 1", got)
	}
	if len(j.list()) != 1 {
		t.Fatalf("instance finalized early: %v", j.list())
	}
	o.Unref()
	if got := j.list(); len(got) != 3 {
		t.Errorf("journal = %v, want constructed, dispose and finalize", got)
	}
}

func TestWeakRef(t *testing.T) {
	o := MustNew(Type())
	w := o.Downgrade()

	notified := 0
	o.AddWeakNotify(func() { notified++ })

	strong, ok := w.Upgrade()
	if !ok {
		t.Fatal("Upgrade of live instance failed")
	}
	if got := o.RefCount(); got != 2 {
		t.Errorf("RefCount after Upgrade = %d, want 2", got)
	}
	strong.Unref()
	o.Unref()

	if notified != 1 {
		t.Errorf("weak notify ran %d times, want 1", notified)
	}
	if _, ok := w.Upgrade(); ok {
		t.Error("Upgrade after last Unref should fail")
	}
	if _, ok := (WeakRef{}).Upgrade(); ok {
		t.Error("Upgrade of empty WeakRef should fail")
	}
}

func TestUnrefFinalizedPanics(t *testing.T) {
	o := MustNew(Type())
	o.Unref()
	defer func() {
		if recover() == nil {
			t.Error("second Unref should panic")
		}
		if n := o.RefCount(); n != 0 {
			t.Errorf("RefCount() = %d after rejected Unref, want 0", n)
		}
	}()
	o.Unref()
}

func TestRefFinalizedPanics(t *testing.T) {
	o := MustNew(Type())
	w := o.Downgrade()
	o.Unref()

	func() {
		defer func() {
			if recover() == nil {
				t.Error("Ref of a finalized object should panic")
			}
		}()
		o.Ref()
	}()
	if n := o.RefCount(); n != 0 {
		t.Errorf("RefCount() = %d after rejected Ref, want 0", n)
	}
	if _, ok := w.Upgrade(); ok {
		t.Error("Upgrade succeeded after rejected Ref")
	}
}

func TestFloatingReference(t *testing.T) {
	unowned := MustRegisterType(TypeInfo{
		Name:   uniqueName("Floating"),
		Parent: InitiallyUnownedType(),
	})

	o := MustNew(unowned)
	if !o.IsFloating() {
		t.Fatal("instance of an initially unowned type should start floating")
	}
	owned := Borrow(o.Ptr())
	if owned.IsFloating() {
		t.Error("Borrow should sink the floating reference")
	}
	if got := owned.RefCount(); got != 1 {
		t.Errorf("RefCount after sink = %d, want 1", got)
	}
	again := owned.RefSink()
	if got := again.RefCount(); got != 2 {
		t.Errorf("RefSink on a sunk instance should add a reference, count = %d", got)
	}
	again.Unref()
	owned.Unref()

	plain := MustNew(Type())
	defer plain.Unref()
	if plain.IsFloating() {
		t.Error("GObject instances should not float")
	}
}

func TestNewErrors(t *testing.T) {
	abstract := MustRegisterType(TypeInfo{
		Name:  uniqueName("Abstract"),
		Flags: gtype.FlagAbstract,
	})
	iface := MustRegisterInterface(InterfaceInfo{Name: uniqueName("Iface")})

	tests := []struct {
		name  string
		typ   gtype.Type
		props []Prop
		kind  errors.Kind
	}{
		{"abstract", abstract, nil, errors.KindInvalidArgument},
		{"interface", iface, nil, errors.KindInvalidArgument},
		{"fundamental", gtype.Int, nil, errors.KindInvalidArgument},
		{"unknown property", Type(), []Prop{P("missing", 1)}, errors.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.typ, tt.props...)
			if !errors.IsKind(err, tt.kind) {
				t.Errorf("New() error = %v, want kind %s", err, tt.kind)
			}
		})
	}
}

type shape struct{ Object }

func (shape) StaticType() gtype.Type { return shapeType }

type circle struct{ Object }

func (circle) StaticType() gtype.Type { return circleType }

type drawable struct{ Object }

func (drawable) StaticType() gtype.Type { return drawableType }

type drawableVTable struct {
	Draw func(d drawable) string
}

var (
	drawableType = MustRegisterInterface(InterfaceInfo{Name: "TestDrawable"})
	shapeType    = MustRegisterType(TypeInfo{
		Name: "TestShape",
		Properties: []*param.Spec{
			param.NewInt("sides", "Sides", "Number of sides", 0, 16, 0, param.FlagReadWrite|param.FlagConstruct),
		},
	})
	circleType = MustRegisterType(TypeInfo{
		Name:   "TestCircle",
		Parent: shapeType,
		Properties: []*param.Spec{
			param.NewDouble("radius", "", "", 0, 1000, 1, param.FlagReadWrite|param.FlagLaxValidation),
			param.NewObject("peer", "", "", shapeType, param.FlagReadWrite),
			param.NewString("id", "", "", "", param.FlagReadable|param.FlagWritable|param.FlagConstructOnly),
			param.NewString("secret", "", "", "", param.FlagWritable),
			param.NewBool("visible", "", "", true, param.FlagReadable),
		},
		Interfaces: []InterfaceImpl{{
			Type: drawableType,
			Init: func(gtype.Type) (any, error) {
				return &drawableVTable{Draw: func(d drawable) string { return "circle " + d.String() }}, nil
			},
		}},
	})
)

func TestCasts(t *testing.T) {
	o := MustNew(circleType)
	defer o.Unref()

	s, ok := Downcast[shape](o)
	if !ok {
		t.Fatal("circle should downcast to shape")
	}
	c, ok := Downcast[circle](s)
	if !ok || !c.Equal(o) {
		t.Fatal("shape view of a circle should downcast to circle")
	}
	d, ok := DynamicCast[drawable](c)
	if !ok {
		t.Fatal("circle implements drawable")
	}
	vt, ok := gtype.InterfaceVTable(d.Type(), drawableType)
	if !ok {
		t.Fatal("drawable vtable missing")
	}
	if got := vt.(*drawableVTable).Draw(d); got != "circle "+o.String() {
		t.Errorf("Draw = %q", got)
	}
	if got := o.RefCount(); got != 1 {
		t.Errorf("casts changed the reference count to %d", got)
	}
	plain := MustNew(shapeType)
	defer plain.Unref()
	if !Is[shape](d) || Is[circle](plain) {
		t.Error("Is reported the wrong relation")
	}
	if _, ok := Downcast[circle](plain); ok {
		t.Error("plain shape must not downcast to circle")
	}
	if _, ok := Downcast[drawable](plain); ok {
		t.Error("plain shape does not implement drawable")
	}
	if got := Upcast[shape](c); !got.Equal(o) {
		t.Error("Upcast should keep the handle")
	}
	if _, ok := Downcast[circle](Object{}); ok {
		t.Error("nil handle must not cast")
	}
}

func TestProperties(t *testing.T) {
	o := MustNew(circleType, P("sides", 0), P("id", "c1"), P("radius", 2.5))
	defer o.Unref()

	if got := o.Property("radius").Double(); got != 2.5 {
		t.Errorf("radius = %v, want 2.5", got)
	}
	if got := o.Property("id").Str(); got != "c1" {
		t.Errorf("id = %q, want c1", got)
	}
	if got := o.Property("visible").Bool(); !got {
		t.Error("visible should default to true")
	}
	if got := o.Property("sides"); !got.Holds(gtype.Int) {
		t.Errorf("sides holds %s", got.Type())
	}

	props := o.ListProperties()
	if len(props) != 6 || props[0].Name() != "sides" {
		t.Errorf("ListProperties = %v, want ancestors first", props)
	}
	if _, ok := o.FindProperty("radius"); !ok {
		t.Error("FindProperty(radius) failed")
	}
}

func TestSetPropertyErrors(t *testing.T) {
	o := MustNew(circleType, P("id", "fixed"))
	defer o.Unref()
	stranger := MustNew(Type())
	defer stranger.Unref()

	tests := []struct {
		name string
		prop string
		val  any
		kind errors.Kind
		msg  string
	}{
		{"unknown", "nope", 1, errors.KindNotFound, ""},
		{"not writable", "visible", false, errors.KindNotWritable, "property 'visible' of type 'TestCircle' is not writable"},
		{"construct only", "id", "other", errors.KindNotWritable, ""},
		{"wrong type", "sides", "three", errors.KindTypeMismatch,
			"property 'sides' of type 'TestCircle' can't be set from the given type (expected: 'gint', got: 'string')"},
		{"out of range", "sides", 17, errors.KindOutOfRange, ""},
		{"overflow", "sides", int64(1) << 40, errors.KindOutOfRange, ""},
		{"wrong object", "peer", stranger, errors.KindTypeMismatch, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := o.TrySetProperty(tt.prop, tt.val)
			if !errors.IsKind(err, tt.kind) {
				t.Fatalf("TrySetProperty(%s) error = %v, want kind %s", tt.prop, err, tt.kind)
			}
			if tt.msg != "" {
				var e *errors.Error
				if !errors.As(err, &e) || e.Message() != tt.msg {
					t.Errorf("message = %q, want %q", e.Message(), tt.msg)
				}
			}
		})
	}

	if _, err := o.TryProperty("secret"); !errors.IsKind(err, errors.KindNotReadable) {
		t.Errorf("reading write-only property: %v", err)
	}
	if got := o.Property("sides").Int(); got != 0 {
		t.Errorf("failed sets changed sides to %d", got)
	}
}

func TestLaxValidationClamps(t *testing.T) {
	o := MustNew(circleType)
	defer o.Unref()

	if err := o.TrySetProperty("radius", 5000.0); err != nil {
		t.Fatalf("lax property rejected out of range value: %v", err)
	}
	if got := o.Property("radius").Double(); got != 1000 {
		t.Errorf("radius = %v, want clamped 1000", got)
	}
	if err := o.TrySetProperty("radius", -1); err != nil {
		t.Fatalf("lax property rejected int: %v", err)
	}
	if got := o.Property("radius").Double(); got != 0 {
		t.Errorf("radius = %v, want clamped 0", got)
	}
}

func TestObjectPropertyHoldsReference(t *testing.T) {
	o := MustNew(circleType)
	peer := MustNew(circleType)

	if err := o.TrySetProperty("peer", peer); err != nil {
		t.Fatalf("set peer: %v", err)
	}
	if got := peer.RefCount(); got != 2 {
		t.Errorf("peer RefCount = %d, want 2 while stored", got)
	}

	got := o.Property("peer")
	if !got.Holds(shapeType) {
		t.Errorf("peer declared as %s, want TestShape", got.Type())
	}
	held, ok := FromValue(got)
	if !ok || !held.Equal(peer) {
		t.Fatal("FromValue should return the stored peer")
	}
	held.Unref()

	if err := o.TrySetProperty("peer", nil); err != nil {
		t.Fatalf("clear peer: %v", err)
	}
	if got := peer.RefCount(); got != 1 {
		t.Errorf("peer RefCount = %d after clearing, want 1", got)
	}

	o.SetProperty("peer", peer)
	o.Unref()
	if got := peer.RefCount(); got != 1 {
		t.Errorf("peer RefCount = %d after owner finalized, want 1", got)
	}
	peer.Unref()
}

func TestNotify(t *testing.T) {
	o := MustNew(circleType)
	defer o.Unref()

	var all, radius []string
	o.ConnectNotify("", func(_ Object, spec *param.Spec) { all = append(all, spec.Name()) })
	o.ConnectNotify("radius", func(_ Object, spec *param.Spec) { radius = append(radius, spec.Name()) })

	o.SetProperty("sides", 3)
	o.SetProperty("radius", 2.0)
	if !equalStrings(all, []string{"sides", "radius"}) {
		t.Errorf("notify = %v", all)
	}
	if !equalStrings(radius, []string{"radius"}) {
		t.Errorf("notify::radius = %v", radius)
	}

	all = nil
	outer := o.FreezeNotify()
	inner := o.FreezeNotify()
	o.SetProperty("radius", 3.0)
	o.SetProperty("sides", 4)
	o.SetProperty("radius", 4.0)
	inner.Thaw()
	inner.Thaw()
	if len(all) != 0 {
		t.Fatalf("notifications leaked while frozen: %v", all)
	}
	outer.Thaw()
	if !equalStrings(all, []string{"radius", "sides"}) {
		t.Errorf("thawed notify = %v, want deduplicated in order", all)
	}
}

func TestNoNotifyDuringConstruction(t *testing.T) {
	var notified []string
	typ := MustRegisterType(TypeInfo{
		Name: uniqueName("Quiet"),
		Properties: []*param.Spec{
			param.NewInt("level", "", "", 0, 10, 5, param.FlagReadWrite|param.FlagConstruct),
		},
		NewImpl: func() any {
			return &constructProbe{seen: &notified}
		},
	})
	o := MustNew(typ, P("level", 7))
	defer o.Unref()
	if len(notified) != 1 || notified[0] != "constructed:7" {
		t.Errorf("Constructed saw %v, want the construct property applied", notified)
	}
}

type constructProbe struct {
	seen *[]string
}

func (p *constructProbe) Constructed(o Object) {
	o.ConnectNotify("", func(_ Object, spec *param.Spec) {
		*p.seen = append(*p.seen, "notify:"+spec.Name())
	})
	*p.seen = append(*p.seen, fmt.Sprintf("constructed:%d", o.Property("level").Int()))
}

type storedImpl struct {
	label string
	sets  int
}

func (s *storedImpl) SetProperty(_ Object, _ *param.Spec, v value.Value) {
	s.label = v.Str()
	s.sets++
}

func (s *storedImpl) Property(Object, *param.Spec) value.Value {
	return value.From(s.label)
}

func TestCustomPropertyStorage(t *testing.T) {
	typ := MustRegisterType(TypeInfo{
		Name:       uniqueName("Stored"),
		Properties: []*param.Spec{param.NewString("label", "", "", "none", param.FlagReadWrite|param.FlagConstruct)},
		NewImpl:    func() any { return &storedImpl{} },
	})
	o := MustNew(typ)
	defer o.Unref()

	impl, ok := ImplOf[*storedImpl](o, typ)
	if !ok {
		t.Fatal("ImplOf failed")
	}
	if impl.label != "none" || impl.sets != 1 {
		t.Errorf("construct default not routed to setter: %+v", impl)
	}
	o.SetProperty("label", "hi")
	if got := o.Property("label").Str(); got != "hi" {
		t.Errorf("label = %q", got)
	}
}

func TestRegisterTypeErrors(t *testing.T) {
	shared := param.NewInt("x", "", "", 0, 1, 0, param.FlagReadWrite)
	MustRegisterType(TypeInfo{Name: uniqueName("Owner"), Properties: []*param.Spec{shared}})

	tests := []struct {
		name string
		info TypeInfo
	}{
		{"spec reused", TypeInfo{Name: uniqueName("Reuse"), Properties: []*param.Spec{shared}}},
		{"duplicate", TypeInfo{Name: uniqueName("Dup"), Properties: []*param.Spec{
			param.NewBool("a", "", "", false, param.FlagReadWrite),
			param.NewBool("a", "", "", false, param.FlagReadWrite),
		}}},
		{"shadow", TypeInfo{Name: uniqueName("Shadow"), Parent: shapeType, Properties: []*param.Spec{
			param.NewBool("sides", "", "", false, param.FlagReadWrite),
		}}},
		{"parent not object", TypeInfo{Name: uniqueName("Bad"), Parent: gtype.Int}},
		{"missing interface init", TypeInfo{Name: uniqueName("NoInit"), Interfaces: []InterfaceImpl{{Type: drawableType}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := RegisterType(tt.info); !errors.IsKind(err, errors.KindRegistration) {
				t.Errorf("RegisterType() error = %v, want registration error", err)
			}
		})
	}
}

func TestFailedRegistrationCanBeRetried(t *testing.T) {
	name := uniqueName("Retry")
	spec := param.NewBool("ready", "", "", false, param.FlagReadWrite)

	tests := []struct {
		name string
		info TypeInfo
	}{
		{"invalid signal", TypeInfo{Name: name, Properties: []*param.Spec{spec}, Signals: []*signal.Builder{
			signal.NewBuilder("changed"),
			signal.NewBuilder("bad name!"),
		}}},
		{"signal declared twice", TypeInfo{Name: name, Properties: []*param.Spec{spec}, Signals: []*signal.Builder{
			signal.NewBuilder("changed"),
			signal.NewBuilder("changed"),
		}}},
		{"class as interface", TypeInfo{Name: name, Properties: []*param.Spec{spec}, Interfaces: []InterfaceImpl{{
			Type: Type(),
			Init: func(gtype.Type) (any, error) { return nil, nil },
		}}}},
		{"interface init fails", TypeInfo{Name: name, Properties: []*param.Spec{spec}, Signals: []*signal.Builder{
			signal.NewBuilder("changed"),
		}, Interfaces: []InterfaceImpl{{
			Type: drawableType,
			Init: func(gtype.Type) (any, error) { return nil, fmt.Errorf("no vtable") },
		}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := RegisterType(tt.info); !errors.IsKind(err, errors.KindRegistration) {
				t.Fatalf("RegisterType() error = %v, want registration error", err)
			}
			if gtype.FromName(name) != gtype.Invalid {
				t.Fatal("failed registration left the type name taken")
			}
			if spec.OwnerType() != gtype.Invalid {
				t.Fatal("failed registration claimed the property")
			}
		})
	}

	typ, err := RegisterType(TypeInfo{
		Name:       name,
		Properties: []*param.Spec{spec},
		Signals:    []*signal.Builder{signal.NewBuilder("changed")},
	})
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if spec.OwnerType() != typ {
		t.Errorf("OwnerType() = %v, want %v", spec.OwnerType(), typ)
	}
	if _, ok := signal.Lookup("changed", typ); !ok {
		t.Error("signal missing after retry")
	}
}

func TestSignals(t *testing.T) {
	typ := MustRegisterType(TypeInfo{
		Name: uniqueName("Emitter"),
		Signals: []*signal.Builder{
			signal.NewBuilder("changed").Params(gtype.Int).Returns(gtype.Bool).
				Accumulator(signal.AccumulatorTrueHandled),
		},
	})
	o := MustNew(typ)
	defer o.Unref()

	var got []int32
	first := o.Connect("changed", false, func(e *signal.Emission) value.Value {
		got = append(got, e.Arg(0).Int())
		return value.From(false)
	})
	o.Connect("changed", true, func(e *signal.Emission) value.Value {
		return value.From(true)
	})

	ret := o.Emit("changed", 7)
	if !ret.Bool() || len(got) != 1 || got[0] != 7 {
		t.Errorf("Emit = %v, got %v", ret, got)
	}

	o.BlockHandler(first)
	o.Emit("changed", 8)
	o.UnblockHandler(first)
	if len(got) != 1 {
		t.Error("blocked handler ran")
	}
	if !o.Disconnect(first) || o.HandlerIsConnected(first) {
		t.Error("Disconnect failed")
	}

	if _, err := o.TryEmit("changed"); err == nil {
		t.Error("missing argument should fail")
	}
	if _, err := o.TryEmit("changed", "x"); !errors.IsKind(err, errors.KindTypeMismatch) {
		t.Errorf("wrong argument type: %v", err)
	}
	if _, err := o.TryConnect("missing", false, nil); !errors.IsKind(err, errors.KindNotFound) {
		t.Errorf("TryConnect(missing) = %v", err)
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Error("Connect to unknown signal should panic")
			}
		}()
		o.Connect("missing", false, func(*signal.Emission) value.Value { return value.Value{} })
	}()
}

func TestHandlersDroppedOnFinalize(t *testing.T) {
	o := MustNew(Type())
	id := o.ConnectNotify("", func(Object, *param.Spec) {})
	keep := o.Ref()
	o.Unref()
	if !keep.HandlerIsConnected(id) {
		t.Fatal("handler dropped while instance alive")
	}
	keep.Unref()
}

func TestConnectLocal(t *testing.T) {
	typ := MustRegisterType(TypeInfo{
		Name:    uniqueName("Local"),
		Signals: []*signal.Builder{signal.NewBuilder("ping")},
	})
	o := MustNew(typ)
	defer o.Unref()

	mc := mainloop.NewContext("local")
	defer mc.Close()

	ran := 0
	if _, err := o.ConnectLocal(mc, "ping", false, func(*signal.Emission) value.Value {
		ran++
		return value.Value{}
	}); err != nil {
		t.Fatalf("ConnectLocal: %v", err)
	}

	if _, err := o.EmitContext(context.Background(), "ping"); !errors.IsKind(err, errors.KindWrongThread) {
		t.Errorf("emission outside the owner = %v, want wrong thread", err)
	}

	var emitErr error
	mc.Post(func(ctx context.Context) {
		_, emitErr = o.EmitContext(ctx, "ping")
	})
	mc.Iteration(context.Background(), false)
	if emitErr != nil || ran != 1 {
		t.Errorf("emission on owner: err=%v ran=%d", emitErr, ran)
	}
}

func TestDataAndSerial(t *testing.T) {
	a := MustNew(Type())
	b := MustNew(Type())
	defer a.Unref()
	defer b.Unref()

	if a.Equal(b) || a.Compare(b) >= 0 || b.Compare(a) <= 0 || a.Compare(a) != 0 {
		t.Error("serial ordering broken")
	}
	a.SetData("k", 42)
	if v, ok := a.Data("k"); !ok || v.(int) != 42 {
		t.Errorf("Data = %v, %v", v, ok)
	}
	a.SetData("k", nil)
	if _, ok := a.Data("k"); ok {
		t.Error("SetData(nil) should remove the key")
	}
}

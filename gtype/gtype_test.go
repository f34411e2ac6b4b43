package gtype

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/wippyai/gobject-runtime/errors"
)

var nameSeq atomic.Uint64

// uniqueName keeps tests independent of the process-wide registry when run
// with -count > 1.
func uniqueName(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, nameSeq.Add(1))
}

type testVTable struct {
	Hash  func(uint32) uint32
	Equal func(a, b uint32) bool
	label string
}

func TestFundamentals(t *testing.T) {
	tests := []struct {
		t    Type
		name string
	}{
		{None, "void"},
		{Interface, "GInterface"},
		{Bool, "gboolean"},
		{Int, "gint"},
		{Uint, "guint"},
		{Int64, "gint64"},
		{Uint64, "guint64"},
		{Double, "gdouble"},
		{String, "gchararray"},
		{Strv, "GStrv"},
		{Pointer, "gpointer"},
		{Boxed, "GBoxed"},
		{Param, "GParam"},
		{Object, "GObject"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.t.Name(); got != tt.name {
				t.Errorf("Name() = %q, want %q", got, tt.name)
			}
			if FromName(tt.name) != tt.t {
				t.Errorf("FromName(%q) = %v, want %v", tt.name, FromName(tt.name), tt.t)
			}
			if !tt.t.IsFundamental() {
				t.Error("IsFundamental() = false")
			}
			if tt.t.Fundamental() != tt.t {
				t.Errorf("Fundamental() = %v", tt.t.Fundamental())
			}
		})
	}

	if Invalid.IsValid() {
		t.Error("Invalid must not be valid")
	}
	if Invalid.IsA(Invalid) {
		t.Error("Invalid must not be-a anything")
	}
}

func TestRegister(t *testing.T) {
	baseName := uniqueName("TestBase")
	base, err := Register(baseName, Object, 0)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	leaf, err := Register(uniqueName("TestLeaf"), base, FlagFinal)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if base.Parent() != Object {
		t.Errorf("Parent() = %v, want GObject", base.Parent())
	}
	if base.Depth() != 2 || leaf.Depth() != 3 {
		t.Errorf("Depth() = %d/%d, want 2/3", base.Depth(), leaf.Depth())
	}
	if leaf.Fundamental() != Object {
		t.Errorf("Fundamental() = %v, want GObject", leaf.Fundamental())
	}
	if FromName(baseName) != base {
		t.Errorf("FromName(%q) = %v", baseName, FromName(baseName))
	}
	if children := base.Children(); len(children) != 1 || children[0] != leaf {
		t.Errorf("Children() = %v, want [%v]", children, leaf)
	}
	if anc := leaf.Ancestors(); len(anc) != 3 || anc[0] != leaf || anc[1] != base || anc[2] != Object {
		t.Errorf("Ancestors() = %v", anc)
	}
	if !leaf.IsFinal() || base.IsFinal() {
		t.Error("final flag not recorded")
	}
}

func TestWithdraw(t *testing.T) {
	baseName := uniqueName("TestWithdrawBase")
	base := MustRegister(baseName, Object, 0)
	leafName := uniqueName("TestWithdrawLeaf")
	leaf := MustRegister(leafName, base, 0)

	if err := Withdraw(base); err == nil {
		t.Error("Withdraw of a type with children should fail")
	}
	if err := Withdraw(Object); err == nil {
		t.Error("Withdraw of a fundamental should fail")
	}

	if err := Withdraw(leaf); err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if leaf.IsValid() || FromName(leafName) != Invalid {
		t.Error("withdrawn type still registered")
	}
	if len(base.Children()) != 0 {
		t.Errorf("Children() = %v after withdraw", base.Children())
	}
	for _, typ := range All() {
		if typ == leaf {
			t.Error("All() lists a withdrawn type")
		}
	}

	again, err := Register(leafName, base, 0)
	if err != nil {
		t.Fatalf("re-Register after withdraw failed: %v", err)
	}
	if again == leaf {
		t.Error("withdrawn type ID was reused")
	}
	if err := Withdraw(leaf); err == nil {
		t.Error("second Withdraw should fail")
	}
}

func TestRegister_Errors(t *testing.T) {
	final := MustRegister(uniqueName("TestFinal"), Object, FlagFinal)
	iface := MustRegisterInterface(uniqueName("TestIfaceParent"))
	dup := uniqueName("TestDup")
	MustRegister(dup, Object, 0)

	tests := []struct {
		name   string
		tname  string
		parent Type
	}{
		{"invalid name", "1bad", Object},
		{"short name", "ab", Object},
		{"duplicate", dup, Object},
		{"unknown parent", uniqueName("TestOrphan"), Type(1 << 30)},
		{"final parent", uniqueName("TestFinalChild"), final},
		{"interface parent", uniqueName("TestIfaceChild"), iface},
		{"non derivable fundamental", uniqueName("TestIntChild"), Int},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Register(tt.tname, tt.parent, 0)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.IsKind(err, errors.KindRegistration) {
				t.Errorf("kind = %v, want registration", err)
			}
		})
	}
}

func TestIsA(t *testing.T) {
	a := MustRegister(uniqueName("TestA"), Object, 0)
	b := MustRegister(uniqueName("TestB"), a, 0)
	c := MustRegister(uniqueName("TestC"), b, 0)
	i1 := MustRegisterInterface(uniqueName("TestI1"), Object)
	i2 := MustRegisterInterface(uniqueName("TestI2"), i1)
	unrelated := MustRegister(uniqueName("TestU"), Object, 0)

	if err := AddInterface(b, i1, &testVTable{}); err != nil {
		t.Fatalf("AddInterface failed: %v", err)
	}
	if err := AddInterface(c, i2, &testVTable{}); err != nil {
		t.Fatalf("AddInterface failed: %v", err)
	}

	tests := []struct {
		t, u Type
		want bool
	}{
		{a, a, true},
		{b, a, true},
		{c, a, true},
		{c, Object, true},
		{a, b, false},
		{b, i1, true},
		{c, i1, true},
		{c, i2, true},
		{b, i2, false},
		{a, i1, false},
		{i2, i1, true},
		{i2, Object, true},
		{i1, Interface, true},
		{i1, i2, false},
		{unrelated, a, false},
		{unrelated, i1, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%s", tt.t, tt.u), func(t *testing.T) {
			if got := tt.t.IsA(tt.u); got != tt.want {
				t.Errorf("IsA = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsA_ReflexiveTransitive(t *testing.T) {
	base := MustRegister(uniqueName("TestTBase"), Object, 0)
	mid := MustRegister(uniqueName("TestTMid"), base, 0)
	leaf := MustRegister(uniqueName("TestTLeaf"), mid, 0)
	iface := MustRegisterInterface(uniqueName("TestTIface"))
	sub := MustRegisterInterface(uniqueName("TestTSub"), iface)
	if err := AddInterface(mid, sub, &testVTable{}); err != nil {
		t.Fatalf("AddInterface failed: %v", err)
	}

	all := []Type{Object, base, mid, leaf, iface, sub}
	for _, x := range all {
		if !x.IsA(x) {
			t.Errorf("%s is not a %s", x, x)
		}
	}
	for _, x := range all {
		for _, y := range all {
			for _, z := range all {
				if x.IsA(y) && y.IsA(z) && !x.IsA(z) {
					t.Errorf("transitivity broken: %s -> %s -> %s", x, y, z)
				}
			}
		}
	}
}

func TestInterfaces(t *testing.T) {
	parent := MustRegister(uniqueName("TestIParent"), Object, 0)
	child := MustRegister(uniqueName("TestIChild"), parent, 0)
	base := MustRegisterInterface(uniqueName("TestIBase"))
	derived := MustRegisterInterface(uniqueName("TestIDerived"), base)
	other := MustRegisterInterface(uniqueName("TestIOther"))

	if err := AddInterface(parent, derived, &testVTable{}); err != nil {
		t.Fatalf("AddInterface failed: %v", err)
	}
	if err := AddInterface(child, other, &testVTable{}); err != nil {
		t.Fatalf("AddInterface failed: %v", err)
	}

	got := child.Interfaces()
	want := []Type{other, derived, base}
	if len(got) != len(want) {
		t.Fatalf("Interfaces() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Interfaces()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if direct := child.DirectInterfaces(); len(direct) != 1 || direct[0] != other {
		t.Errorf("DirectInterfaces() = %v", direct)
	}
	if pre := derived.Prerequisites(); len(pre) != 1 || pre[0] != base {
		t.Errorf("Prerequisites() = %v", pre)
	}
}

func TestInterfaceVTable(t *testing.T) {
	iface := MustRegisterInterface(uniqueName("TestVIface"), Object)
	base := MustRegister(uniqueName("TestVBase"), Object, 0)
	mid := MustRegister(uniqueName("TestVMid"), base, 0)
	leaf := MustRegister(uniqueName("TestVLeaf"), mid, 0)

	baseVT := &testVTable{label: "base"}
	leafVT := &testVTable{label: "leaf"}
	if err := AddInterface(base, iface, baseVT); err != nil {
		t.Fatalf("AddInterface failed: %v", err)
	}
	if err := AddInterface(leaf, iface, leafVT); err != nil {
		t.Fatalf("override AddInterface failed: %v", err)
	}
	if err := AddInterface(leaf, iface, leafVT); err == nil {
		t.Error("adding the same interface twice should fail")
	}

	tests := []struct {
		name   string
		lookup func() (any, bool)
		want   *testVTable
	}{
		{"leaf own", func() (any, bool) { return InterfaceVTable(leaf, iface) }, leafVT},
		{"mid inherits", func() (any, bool) { return InterfaceVTable(mid, iface) }, baseVT},
		{"leaf parent", func() (any, bool) { return ParentInterfaceVTable(leaf, iface) }, baseVT},
		{"mid parent", func() (any, bool) { return ParentInterfaceVTable(mid, iface) }, baseVT},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vt, ok := tt.lookup()
			if !ok {
				t.Fatal("vtable not found")
			}
			if vt.(*testVTable) != tt.want {
				t.Errorf("got %s vtable, want %s", vt.(*testVTable).label, tt.want.label)
			}
		})
	}

	if _, ok := ParentInterfaceVTable(base, iface); ok {
		t.Error("base has no implementing ancestor")
	}
	if owner := InterfaceOwner(mid, iface); owner != base {
		t.Errorf("InterfaceOwner(mid) = %v, want %v", owner, base)
	}
}

func TestAddInterface_Prerequisites(t *testing.T) {
	required := MustRegister(uniqueName("TestReq"), Object, 0)
	iface := MustRegisterInterface(uniqueName("TestReqIface"), required)
	ok := MustRegister(uniqueName("TestReqOK"), required, 0)
	bad := MustRegister(uniqueName("TestReqBad"), Object, 0)

	if err := AddInterface(ok, iface, &testVTable{}); err != nil {
		t.Errorf("AddInterface failed: %v", err)
	}
	if err := AddInterface(bad, iface, &testVTable{}); err == nil {
		t.Error("expected prerequisite failure")
	}
	if err := AddInterface(ok, Object, &testVTable{}); err == nil {
		t.Error("expected failure adding a class as interface")
	}
}

func TestSlots(t *testing.T) {
	vt := &testVTable{Hash: func(x uint32) uint32 { return x }}

	slots := Slots(vt)
	if len(slots) != 2 || slots[0] != "Hash" || slots[1] != "Equal" {
		t.Errorf("Slots() = %v, want [Hash Equal]", slots)
	}
	impl := ImplementedSlots(vt)
	if len(impl) != 1 || impl[0] != "Hash" {
		t.Errorf("ImplementedSlots() = %v, want [Hash]", impl)
	}
	if Slots(42) != nil {
		t.Error("Slots of a non-struct should be nil")
	}
	if Slots((*testVTable)(nil)) != nil {
		t.Error("Slots of a nil pointer should be nil")
	}
}

func TestClass(t *testing.T) {
	base := MustRegister(uniqueName("TestClassBase"), Object, 0)
	mid := MustRegister(uniqueName("TestClassMid"), base, 0)
	leaf := MustRegister(uniqueName("TestClassLeaf"), mid, 0)

	if err := SetClass(base, "base-class"); err != nil {
		t.Fatalf("SetClass failed: %v", err)
	}
	if err := SetClass(base, "again"); err == nil {
		t.Error("SetClass twice should fail")
	}
	if base.Class() != "base-class" {
		t.Errorf("Class() = %v", base.Class())
	}
	if leaf.ParentClass() != "base-class" {
		t.Errorf("ParentClass() = %v, want nearest ancestor class", leaf.ParentClass())
	}
}

func TestValidTypeName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"MyFile", true},
		{"_Private", true},
		{"Gtk+Thing", true},
		{"my-type_2", true},
		{"ab", false},
		{"9Lives", false},
		{"-dash", false},
		{"has space", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidTypeName(tt.name); got != tt.want {
			t.Errorf("ValidTypeName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestConcurrentRegistration(t *testing.T) {
	base := MustRegister(uniqueName("TestConcBase"), Object, 0)

	var wg sync.WaitGroup
	types := make([]Type, 32)
	for i := range types {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			types[i] = MustRegister(uniqueName("TestConc"), base, 0)
			_ = types[i].IsA(base)
		}(i)
	}
	wg.Wait()

	seen := make(map[Type]bool)
	for _, typ := range types {
		if seen[typ] {
			t.Fatalf("type %v registered twice", typ)
		}
		seen[typ] = true
		if !typ.IsA(base) {
			t.Errorf("%v is not a %v", typ, base)
		}
	}
	if got := len(base.Children()); got != len(types) {
		t.Errorf("Children() = %d, want %d", got, len(types))
	}
}

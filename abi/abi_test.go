package abi

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/wippyai/gobject-runtime/errors"
	"github.com/wippyai/gobject-runtime/file"
	"github.com/wippyai/gobject-runtime/gtype"
	"github.com/wippyai/gobject-runtime/object"
	"github.com/wippyai/gobject-runtime/resource"
)

// guestModule imports every host function from moduleName and exports a
// same-named wrapper that forwards its parameters, so each call reaches the
// host with the guest as caller. withMemory adds one page of memory.
func guestModule(moduleName string, funcs []Func, withMemory bool) []byte {
	n := uint32(len(funcs))
	types := uleb(nil, n)
	imports := uleb(nil, n)
	decls := uleb(nil, n)
	code := uleb(nil, n)
	exportCount := n
	if withMemory {
		exportCount++
	}
	exports := uleb(nil, exportCount)

	for i, f := range funcs {
		types = append(types, 0x60)
		types = uleb(types, uint32(len(f.Params)))
		types = append(types, f.Params...)
		types = uleb(types, uint32(len(f.Results)))
		types = append(types, f.Results...)

		imports = wasmName(imports, moduleName)
		imports = wasmName(imports, f.Name)
		imports = append(imports, 0x00)
		imports = uleb(imports, uint32(i))

		decls = uleb(decls, uint32(i))

		exports = wasmName(exports, f.Name)
		exports = append(exports, 0x00)
		exports = uleb(exports, n+uint32(i))

		body := []byte{0x00}
		for p := range f.Params {
			body = append(body, 0x20)
			body = uleb(body, uint32(p))
		}
		body = append(body, 0x10)
		body = uleb(body, uint32(i))
		body = append(body, 0x0b)
		code = uleb(code, uint32(len(body)))
		code = append(code, body...)
	}

	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	out = section(out, 1, types)
	out = section(out, 2, imports)
	out = section(out, 3, decls)
	if withMemory {
		out = section(out, 5, []byte{0x01, 0x00, 0x01})
		exports = wasmName(exports, "memory")
		exports = append(exports, 0x02, 0x00)
	}
	out = section(out, 7, exports)
	out = section(out, 10, code)
	return out
}

func uleb(b []byte, v uint32) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(b, c)
		}
		b = append(b, c|0x80)
	}
}

func wasmName(b []byte, s string) []byte {
	b = uleb(b, uint32(len(s)))
	return append(b, s...)
}

func section(out []byte, id byte, body []byte) []byte {
	out = append(out, id)
	out = uleb(out, uint32(len(body)))
	return append(out, body...)
}

type env struct {
	ctx   context.Context
	rt    wazero.Runtime
	table *resource.Table
	host  *Host
	mod   api.Module
	guest api.Module
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { rt.Close(ctx) })

	table := resource.NewTable()
	t.Cleanup(func() { _ = table.Close() })

	mod, err := NewHostModule(ctx, rt, table, DefaultOptions())
	if err != nil {
		t.Fatalf("NewHostModule failed: %v", err)
	}
	host := NewHost(table)
	guest, err := rt.Instantiate(ctx, guestModule(DefaultModuleName, host.Funcs(), true))
	if err != nil {
		t.Fatalf("Instantiate guest failed: %v", err)
	}
	return &env{ctx: ctx, rt: rt, table: table, host: host, mod: mod, guest: guest}
}

func (e *env) call(t *testing.T, name string, params ...uint64) []uint64 {
	t.Helper()
	return callOn(t, e.ctx, e.guest, name, params...)
}

func callOn(t *testing.T, ctx context.Context, mod api.Module, name string, params ...uint64) []uint64 {
	t.Helper()
	fn := mod.ExportedFunction(name)
	if fn == nil {
		t.Fatalf("%s not exported", name)
	}
	res, err := fn.Call(ctx, params...)
	if err != nil {
		t.Fatalf("%s failed: %v", name, err)
	}
	return res
}

// putString writes s at offset 0 of the guest memory.
func (e *env) putString(t *testing.T, s string) (ptr, length uint64) {
	t.Helper()
	if !e.guest.Memory().Write(0, []byte(s)) {
		t.Fatal("guest memory write failed")
	}
	return 0, uint64(len(s))
}

func (e *env) newForPath(t *testing.T, path string) uint64 {
	t.Helper()
	res := e.call(t, "file-new-for-path", mustPair(e.putString(t, path))...)
	if res[1] != 0 {
		t.Fatalf("file-new-for-path(%q) = code %d", path, res[1])
	}
	return res[0]
}

func mustPair(a, b uint64) []uint64 {
	return []uint64{a, b}
}

func code(k errors.Kind) uint64 {
	return api.EncodeI32(k.Code())
}

func TestNewHostModule(t *testing.T) {
	e := newEnv(t)

	if e.mod.Name() != DefaultModuleName {
		t.Errorf("Name() = %q, want %q", e.mod.Name(), DefaultModuleName)
	}
	defs := e.mod.ExportedFunctionDefinitions()
	for _, f := range e.host.Funcs() {
		def, ok := defs[f.Name]
		if !ok {
			t.Errorf("%s not exported", f.Name)
			continue
		}
		if len(def.ParamTypes()) != len(f.Params) || len(def.ResultTypes()) != len(f.Results) {
			t.Errorf("%s signature mismatch", f.Name)
		}
		if len(f.Params) == 0 || f.Params[0] != api.ValueTypeI32 {
			t.Errorf("%s must take an i32 first", f.Name)
		}
	}
}

func TestNewHostModule_CustomName(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	mod, err := NewHostModule(ctx, rt, resource.NewTable(), Options{ModuleName: "objects"})
	if err != nil {
		t.Fatalf("NewHostModule failed: %v", err)
	}
	if mod.Name() != "objects" {
		t.Errorf("Name() = %q", mod.Name())
	}
	if _, err := NewHostModule(ctx, rt, resource.NewTable(), Options{ModuleName: "objects"}); err == nil {
		t.Error("expected error instantiating the same module name twice")
	}
}

func TestObjectFuncs(t *testing.T) {
	e := newEnv(t)
	obj := object.MustNew(object.Type())
	defer obj.Unref()
	h := uint64(e.table.Insert(obj))

	if got := e.call(t, "object-type", h); gtype.Type(got[0]) != object.Type() {
		t.Errorf("object-type = %d, want %d", got[0], object.Type())
	}
	if got := e.call(t, "object-is-a", h, uint64(object.Type())); got[0] != 1 {
		t.Error("object-is-a(Object) = false")
	}
	if got := e.call(t, "object-is-a", h, uint64(file.Type())); got[0] != 0 {
		t.Error("object-is-a(GFile) = true for a plain object")
	}

	res := e.call(t, "object-ref", h)
	if res[1] != 0 || res[0] == 0 || res[0] == h {
		t.Fatalf("object-ref = %v", res)
	}
	if obj.RefCount() != 3 {
		t.Errorf("RefCount = %d after object-ref, want 3", obj.RefCount())
	}
	for _, hd := range []uint64{h, res[0]} {
		if got := e.call(t, "object-unref", hd); got[0] != 0 {
			t.Errorf("object-unref(%d) = code %d", hd, got[0])
		}
	}
	if obj.RefCount() != 1 {
		t.Errorf("RefCount = %d after object-unref, want 1", obj.RefCount())
	}

	if got := e.call(t, "object-unref", h); got[0] != code(errors.KindInvalidArgument) {
		t.Errorf("object-unref of a dropped handle = code %d", got[0])
	}
	if got := e.call(t, "object-type", h); got[0] != 0 {
		t.Errorf("object-type of a dropped handle = %d", got[0])
	}
}

func TestTypeFromName(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name string
		want gtype.Type
	}{
		{"GObject", object.Type()},
		{"GFile", file.Type()},
		{"NoSuchType", gtype.Invalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.call(t, "type-from-name", mustPair(e.putString(t, tt.name))...)
			if gtype.Type(got[0]) != tt.want {
				t.Errorf("type-from-name(%q) = %d, want %d", tt.name, got[0], tt.want)
			}
		})
	}

	if got := e.call(t, "type-from-name", api.EncodeU32(1<<20), 4); got[0] != 0 {
		t.Error("type-from-name out of bounds should return 0")
	}
}

func TestCallerWithoutMemory(t *testing.T) {
	e := newEnv(t)
	guest, err := e.rt.InstantiateWithConfig(e.ctx, guestModule(DefaultModuleName, e.host.Funcs(), false),
		wazero.NewModuleConfig().WithName("no-memory"))
	if err != nil {
		t.Fatalf("Instantiate guest failed: %v", err)
	}

	if got := callOn(t, e.ctx, guest, "type-from-name", 0, 7); got[0] != 0 {
		t.Errorf("type-from-name without memory = %d, want 0", got[0])
	}
	got := callOn(t, e.ctx, guest, "file-new-for-path", 0, 4)
	if got[0] != 0 || got[1] != code(errors.KindInvalidArgument) {
		t.Errorf("file-new-for-path without memory = %v", got)
	}
	if e.table.Len() != 0 {
		t.Error("failed call must not insert a handle")
	}
}

func TestFileFuncs(t *testing.T) {
	e := newEnv(t)
	dir := filepath.Join(t.TempDir(), "d")
	h := e.newForPath(t, dir)

	if got := e.call(t, "file-is-native", h); got[0] != 1 {
		t.Error("file-is-native = false for a local file")
	}
	if got := e.call(t, "file-query-exists", h); got[0] != 0 {
		t.Error("file-query-exists = true before creation")
	}
	if got := e.call(t, "file-make-directory", h); got[0] != 0 {
		t.Fatalf("file-make-directory = code %d", got[0])
	}
	if got := e.call(t, "file-make-directory", h); got[0] != code(errors.KindExists) {
		t.Errorf("second file-make-directory = code %d", got[0])
	}
	if got := e.call(t, "file-query-exists", h); got[0] != 1 {
		t.Error("file-query-exists = false after creation")
	}

	usage := e.call(t, "file-measure-disk-usage", h, uint64(file.MeasureApparentSize))
	if usage[3] != 0 || usage[1] != 1 || usage[2] != 0 {
		t.Errorf("file-measure-disk-usage = %v", usage)
	}

	dup := e.call(t, "file-dup", h)
	if dup[1] != 0 || dup[0] == h {
		t.Fatalf("file-dup = %v", dup)
	}
	if got := e.call(t, "file-equal", h, dup[0]); got[0] != 1 {
		t.Error("file-equal(f, dup) = false")
	}
	a, b := e.call(t, "file-hash", h), e.call(t, "file-hash", dup[0])
	if a[1] != 0 || a[0] != b[0] {
		t.Errorf("file-hash mismatch: %v vs %v", a, b)
	}
	other := e.newForPath(t, dir+"x")
	if got := e.call(t, "file-equal", h, other); got[0] != 0 {
		t.Error("file-equal of different paths = true")
	}

	if got := e.call(t, "file-delete", h); got[0] != 0 {
		t.Fatalf("file-delete = code %d", got[0])
	}
	if got := e.call(t, "file-delete", dup[0]); got[0] != code(errors.KindNotFound) {
		t.Errorf("second file-delete = code %d", got[0])
	}
	usage = e.call(t, "file-measure-disk-usage", h, 0)
	if usage[3] != code(errors.KindNotFound) {
		t.Errorf("file-measure-disk-usage of a missing file = code %d", usage[3])
	}
}

func TestFileFuncs_NotAFile(t *testing.T) {
	e := newEnv(t)
	obj := object.MustNew(object.Type())
	defer obj.Unref()
	h := uint64(e.table.Insert(obj))

	tests := []struct {
		name string
		want uint64
		idx  int
	}{
		{"file-hash", code(errors.KindTypeMismatch), 1},
		{"file-dup", code(errors.KindTypeMismatch), 1},
		{"file-delete", code(errors.KindTypeMismatch), 0},
		{"file-make-directory", code(errors.KindTypeMismatch), 0},
		{"file-is-native", 0, 0},
		{"file-query-exists", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.call(t, tt.name, h); got[tt.idx] != tt.want {
				t.Errorf("%s = %v, want %d at %d", tt.name, got, tt.want, tt.idx)
			}
		})
	}

	if got := e.call(t, "file-hash", 9999); got[1] != code(errors.KindInvalidArgument) {
		t.Errorf("file-hash of an unknown handle = code %d", got[1])
	}
}

func TestBorrowedHandleCannotBeUnrefed(t *testing.T) {
	e := newEnv(t)
	obj := object.MustNew(object.Type())
	defer obj.Unref()
	h := e.table.Insert(obj)

	if _, ok := e.table.Borrow(h); !ok {
		t.Fatal("Borrow failed")
	}
	if got := e.call(t, "object-unref", uint64(h)); got[0] != code(errors.KindFailed) {
		t.Errorf("object-unref of a borrowed handle = code %d", got[0])
	}
	e.table.ReturnBorrow(h)
	if got := e.call(t, "object-unref", uint64(h)); got[0] != 0 {
		t.Errorf("object-unref = code %d", got[0])
	}
}

func TestClosedTable(t *testing.T) {
	e := newEnv(t)
	obj := object.MustNew(object.Type())
	defer obj.Unref()
	h := e.table.Insert(obj)

	if _, ok := e.table.Borrow(h); !ok {
		t.Fatal("Borrow failed")
	}
	res := e.call(t, "object-ref", uint64(h))
	e.table.ReturnBorrow(h)
	if res[1] != 0 {
		t.Fatalf("object-ref = code %d", res[1])
	}

	if err := e.table.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if obj.RefCount() != 1 {
		t.Errorf("RefCount = %d after Close, want 1", obj.RefCount())
	}
	if got := e.call(t, "object-ref", uint64(h)); got[1] != code(errors.KindInvalidArgument) {
		t.Errorf("object-ref after Close = code %d", got[1])
	}
}

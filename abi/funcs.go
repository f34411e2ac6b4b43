package abi

import (
	"context"

	"github.com/tetratelabs/wazero/api"
	"github.com/wippyai/gobject-runtime/file"
	"github.com/wippyai/gobject-runtime/gtype"
	"github.com/wippyai/gobject-runtime/object"
	"github.com/wippyai/gobject-runtime/resource"
)

// Funcs returns every exported function in export order.
func (h *Host) Funcs() []Func {
	return []Func{
		{Name: "object-ref", Handler: h.objectRef, Params: []api.ValueType{i32}, Results: []api.ValueType{i32, i32}},
		{Name: "object-unref", Handler: h.objectUnref, Params: []api.ValueType{i32}, Results: []api.ValueType{i32}},
		{Name: "object-type", Handler: h.objectType, Params: []api.ValueType{i32}, Results: []api.ValueType{i32}},
		{Name: "object-is-a", Handler: h.objectIsA, Params: []api.ValueType{i32, i32}, Results: []api.ValueType{i32}},
		{Name: "type-from-name", Handler: h.typeFromName, Params: []api.ValueType{i32, i32}, Results: []api.ValueType{i32}},
		{Name: "file-new-for-path", Handler: h.fileNewForPath, Params: []api.ValueType{i32, i32}, Results: []api.ValueType{i32, i32}},
		{Name: "file-hash", Handler: h.fileHash, Params: []api.ValueType{i32}, Results: []api.ValueType{i32, i32}},
		{Name: "file-equal", Handler: h.fileEqual, Params: []api.ValueType{i32, i32}, Results: []api.ValueType{i32}},
		{Name: "file-is-native", Handler: h.fileIsNative, Params: []api.ValueType{i32}, Results: []api.ValueType{i32}},
		{Name: "file-dup", Handler: h.fileDup, Params: []api.ValueType{i32}, Results: []api.ValueType{i32, i32}},
		{Name: "file-query-exists", Handler: h.fileQueryExists, Params: []api.ValueType{i32}, Results: []api.ValueType{i32}},
		{Name: "file-delete", Handler: h.fileDelete, Params: []api.ValueType{i32}, Results: []api.ValueType{i32}},
		{Name: "file-make-directory", Handler: h.fileMakeDirectory, Params: []api.ValueType{i32}, Results: []api.ValueType{i32}},
		{Name: "file-measure-disk-usage", Handler: h.fileMeasureDiskUsage, Params: []api.ValueType{i32, i32}, Results: []api.ValueType{i64, i64, i64, i32}},
	}
}

// insert stores an owned instance and drops the caller's reference.
func (h *Host) insert(o object.Object) (resource.Handle, error) {
	defer o.Unref()
	hd := h.table.Insert(o)
	if hd == 0 {
		return 0, resource.ErrClosed
	}
	return hd, nil
}

// object-ref(h) -> (h2, err): h2 owns a new reference to h's instance.
func (h *Host) objectRef(_ context.Context, _ api.Module, stack []uint64) {
	var out resource.Handle
	err := h.borrow(handleOf(stack[0]), func(o object.Object) error {
		var err error
		out, err = h.insert(o.Ref())
		return err
	})
	logCall("object-ref", err)
	stack[0], stack[1] = uint64(out), codeOf(err)
}

// object-unref(h) -> err
func (h *Host) objectUnref(_ context.Context, _ api.Module, stack []uint64) {
	err := h.table.Drop(handleOf(stack[0]))
	logCall("object-unref", err)
	stack[0] = codeOf(err)
}

// object-type(h) -> type, 0 for an invalid handle.
func (h *Host) objectType(_ context.Context, _ api.Module, stack []uint64) {
	var t gtype.Type
	err := h.borrow(handleOf(stack[0]), func(o object.Object) error {
		t = o.Type()
		return nil
	})
	logCall("object-type", err)
	stack[0] = uint64(t)
}

// object-is-a(h, type) -> bool
func (h *Host) objectIsA(_ context.Context, _ api.Module, stack []uint64) {
	t := typeOf(stack[1])
	var is bool
	err := h.borrow(handleOf(stack[0]), func(o object.Object) error {
		is = o.IsA(t)
		return nil
	})
	logCall("object-is-a", err)
	stack[0] = boolOf(is)
}

// type-from-name(ptr, len) -> type, 0 when unregistered.
func (h *Host) typeFromName(_ context.Context, mod api.Module, stack []uint64) {
	name, err := readString(mod, api.DecodeU32(stack[0]), api.DecodeU32(stack[1]))
	logCall("type-from-name", err)
	if err != nil {
		stack[0] = 0
		return
	}
	stack[0] = uint64(gtype.FromName(name))
}

// file-new-for-path(ptr, len) -> (h, err)
func (h *Host) fileNewForPath(_ context.Context, mod api.Module, stack []uint64) {
	var out resource.Handle
	path, err := readString(mod, api.DecodeU32(stack[0]), api.DecodeU32(stack[1]))
	if err == nil {
		out, err = h.insert(file.NewForPath(path).Object)
	}
	logCall("file-new-for-path", err)
	stack[0], stack[1] = uint64(out), codeOf(err)
}

// file-hash(h) -> (hash, err)
func (h *Host) fileHash(_ context.Context, _ api.Module, stack []uint64) {
	var hash uint32
	err := h.borrowFile(handleOf(stack[0]), func(f file.File) error {
		hash = f.Hash()
		return nil
	})
	logCall("file-hash", err)
	stack[0], stack[1] = api.EncodeU32(hash), codeOf(err)
}

// file-equal(h1, h2) -> bool; false when either handle is not a file.
func (h *Host) fileEqual(_ context.Context, _ api.Module, stack []uint64) {
	var eq bool
	err := h.borrowFile(handleOf(stack[0]), func(a file.File) error {
		return h.borrowFile(handleOf(stack[1]), func(b file.File) error {
			eq = a.Equal(b)
			return nil
		})
	})
	logCall("file-equal", err)
	stack[0] = boolOf(eq)
}

// file-is-native(h) -> bool
func (h *Host) fileIsNative(_ context.Context, _ api.Module, stack []uint64) {
	var native bool
	err := h.borrowFile(handleOf(stack[0]), func(f file.File) error {
		native = f.IsNative()
		return nil
	})
	logCall("file-is-native", err)
	stack[0] = boolOf(native)
}

// file-dup(h) -> (h2, err): h2 refers to a distinct but equal file.
func (h *Host) fileDup(_ context.Context, _ api.Module, stack []uint64) {
	var out resource.Handle
	err := h.borrowFile(handleOf(stack[0]), func(f file.File) error {
		var err error
		out, err = h.insert(f.Dup().Object)
		return err
	})
	logCall("file-dup", err)
	stack[0], stack[1] = uint64(out), codeOf(err)
}

// file-query-exists(h) -> bool
func (h *Host) fileQueryExists(ctx context.Context, _ api.Module, stack []uint64) {
	var exists bool
	err := h.borrowFile(handleOf(stack[0]), func(f file.File) error {
		exists = f.QueryExists(ctx)
		return nil
	})
	logCall("file-query-exists", err)
	stack[0] = boolOf(exists)
}

// file-delete(h) -> err
func (h *Host) fileDelete(ctx context.Context, _ api.Module, stack []uint64) {
	err := h.borrowFile(handleOf(stack[0]), func(f file.File) error {
		return f.Delete(ctx)
	})
	logCall("file-delete", err)
	stack[0] = codeOf(err)
}

// file-make-directory(h) -> err
func (h *Host) fileMakeDirectory(ctx context.Context, _ api.Module, stack []uint64) {
	err := h.borrowFile(handleOf(stack[0]), func(f file.File) error {
		return f.MakeDirectory(ctx)
	})
	logCall("file-make-directory", err)
	stack[0] = codeOf(err)
}

// file-measure-disk-usage(h, flags) -> (size, dirs, files, err)
func (h *Host) fileMeasureDiskUsage(ctx context.Context, _ api.Module, stack []uint64) {
	flags := file.MeasureFlags(api.DecodeU32(stack[1]))
	var usage file.DiskUsage
	err := h.borrowFile(handleOf(stack[0]), func(f file.File) error {
		var err error
		usage, err = f.MeasureDiskUsage(ctx, flags, nil)
		return err
	})
	logCall("file-measure-disk-usage", err)
	stack[0], stack[1], stack[2], stack[3] = usage.Size, usage.Dirs, usage.Files, codeOf(err)
}

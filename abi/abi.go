package abi

import (
	"context"
	"fmt"
	"reflect"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/wippyai/gobject-runtime/errors"
	"github.com/wippyai/gobject-runtime/file"
	"github.com/wippyai/gobject-runtime/gtype"
	"github.com/wippyai/gobject-runtime/object"
	"github.com/wippyai/gobject-runtime/resource"
	"go.uber.org/zap"
)

// DefaultModuleName is the import module guests link against.
const DefaultModuleName = "gobject"

// Options configures the host module.
type Options struct {
	ModuleName string
}

// DefaultOptions returns the default host module configuration.
func DefaultOptions() Options {
	return Options{ModuleName: DefaultModuleName}
}

// Func is one exported host function.
type Func struct {
	Name    string
	Handler api.GoModuleFunc
	Params  []api.ValueType
	Results []api.ValueType
}

// Host binds the exported functions to a handle table.
type Host struct {
	table *resource.Table
}

// NewHost creates a Host resolving handles through table.
func NewHost(table *resource.Table) *Host {
	return &Host{table: table}
}

// Table returns the handle table.
func (h *Host) Table() *resource.Table {
	return h.table
}

// NewHostModule instantiates the host module for table into rt.
func NewHostModule(ctx context.Context, rt wazero.Runtime, table *resource.Table, opts Options) (api.Module, error) {
	if opts.ModuleName == "" {
		opts.ModuleName = DefaultModuleName
	}
	builder := rt.NewHostModuleBuilder(opts.ModuleName)
	for _, f := range NewHost(table).Funcs() {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(f.Handler, f.Params, f.Results).
			Export(f.Name)
	}
	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, fmt.Errorf("abi: instantiate %q: %w", opts.ModuleName, err)
	}
	return mod, nil
}

var (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
)

func codeOf(err error) uint64 {
	if err == nil {
		return 0
	}
	kind, _ := errors.KindOf(err)
	return api.EncodeI32(kind.Code())
}

func boolOf(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func invalidHandle(h resource.Handle) error {
	return errors.New(errors.PhaseABI, errors.KindInvalidArgument).
		Detail("invalid handle %d", h).
		Build()
}

func notAFile(o object.Object) error {
	return errors.TypeMismatch(errors.PhaseABI, nil, file.Type().Name(), o.Type().Name())
}

// borrow pins h for the duration of fn.
func (h *Host) borrow(hd resource.Handle, fn func(object.Object) error) error {
	o, ok := h.table.Borrow(hd)
	if !ok {
		return invalidHandle(hd)
	}
	defer h.table.ReturnBorrow(hd)
	return fn(o)
}

func (h *Host) borrowFile(hd resource.Handle, fn func(file.File) error) error {
	return h.borrow(hd, func(o object.Object) error {
		f, ok := object.Downcast[file.File](o)
		if !ok {
			return notAFile(o)
		}
		return fn(f)
	})
}

func logCall(name string, err error) {
	if err != nil {
		Logger().Debug("host call failed", zap.String("func", name), zap.Error(err))
	}
}

// memoryOf returns the caller's memory. A module without one yields a nil
// pointer wrapped in a non-nil api.Memory.
func memoryOf(mod api.Module) (api.Memory, bool) {
	mem := mod.Memory()
	if mem == nil {
		return nil, false
	}
	if v := reflect.ValueOf(mem); v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, false
	}
	return mem, true
}

func readString(mod api.Module, ptr, length uint32) (string, error) {
	mem, ok := memoryOf(mod)
	if !ok {
		return "", errors.InvalidArgument(errors.PhaseABI, "caller has no memory")
	}
	data, ok := mem.Read(ptr, length)
	if !ok {
		return "", errors.New(errors.PhaseABI, errors.KindOutOfRange).
			Detail("string at %d+%d is out of memory bounds", ptr, length).
			Build()
	}
	return string(data), nil
}

func handleOf(v uint64) resource.Handle {
	return resource.Handle(api.DecodeU32(v))
}

func typeOf(v uint64) gtype.Type {
	return gtype.Type(api.DecodeU32(v))
}

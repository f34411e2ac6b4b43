package file

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"sync"

	"github.com/wippyai/gobject-runtime/errors"
	"github.com/wippyai/gobject-runtime/gtype"
	"github.com/wippyai/gobject-runtime/object"
	"github.com/wippyai/gobject-runtime/task"
	"go.uber.org/zap"
)

// File is a view of an object implementing the GFile interface. Methods
// dispatch through the vtable of the instance's type. Returned File values
// are owned by the caller.
type File struct {
	object.Object
}

// StaticType implements object.View.
func (File) StaticType() gtype.Type {
	return Type()
}

var (
	fileType gtype.Type
	fileOnce sync.Once
)

// Type returns the GFile interface type.
func Type() gtype.Type {
	fileOnce.Do(func() {
		fileType = object.MustRegisterInterface(object.InterfaceInfo{Name: "GFile"})
	})
	return fileType
}

// Iface is the GFile vtable. A nil slot means the implementing type leaves
// it to the slot's default policy.
type Iface struct {
	Dup                 func(f File) File
	Hash                func(f File) uint32
	Equal               func(f, other File) bool
	IsNative            func(f File) bool
	HasURIScheme        func(f File, scheme string) bool
	URIScheme           func(f File) (string, bool)
	Basename            func(f File) (string, bool)
	Path                func(f File) (string, bool)
	URI                 func(f File) string
	ParseName           func(f File) string
	Parent              func(f File) (File, bool)
	HasPrefix           func(f, prefix File) bool
	RelativePath        func(f, descendant File) (string, bool)
	ResolveRelativePath func(f File, relative string) File
	ChildForDisplayName func(f File, name string) (File, error)

	EnumerateChildren       func(ctx context.Context, f File, attributes string, flags QueryInfoFlags) (Enumerator, error)
	QueryInfo               func(ctx context.Context, f File, attributes string, flags QueryInfoFlags) (*FileInfo, error)
	QueryFilesystemInfo     func(ctx context.Context, f File, attributes string) (*FileInfo, error)
	FindEnclosingMount      func(ctx context.Context, f File) (Mount, error)
	SetDisplayName          func(ctx context.Context, f File, name string) (File, error)
	QuerySettableAttributes func(ctx context.Context, f File) ([]AttributeInfo, error)
	QueryWritableNamespaces func(ctx context.Context, f File) ([]AttributeInfo, error)
	SetAttribute            func(ctx context.Context, f File, attribute string, value any, flags QueryInfoFlags) error
	SetAttributesFromInfo   func(ctx context.Context, f File, info *FileInfo, flags QueryInfoFlags) error

	Read             func(ctx context.Context, f File) (io.ReadCloser, error)
	AppendTo         func(ctx context.Context, f File, flags CreateFlags) (io.WriteCloser, error)
	Create           func(ctx context.Context, f File, flags CreateFlags) (io.WriteCloser, error)
	Replace          func(ctx context.Context, f File, etag string, makeBackup bool, flags CreateFlags) (io.WriteCloser, error)
	Delete           func(ctx context.Context, f File) error
	Trash            func(ctx context.Context, f File) error
	MakeDirectory    func(ctx context.Context, f File) error
	MakeSymbolicLink func(ctx context.Context, f File, target string) error

	// Copy and Move receive both endpoints; the vtable of either may be
	// the one dispatched.
	Copy func(ctx context.Context, src, dst File, flags CopyFlags, progress ProgressFunc) error
	Move func(ctx context.Context, src, dst File, flags CopyFlags, progress ProgressFunc) error

	MountMountable         func(ctx context.Context, f File, flags MountFlags, cb task.Callback)
	MountMountableFinish   func(f File, res task.AsyncResult) (File, error)
	UnmountMountable       func(ctx context.Context, f File, flags UnmountFlags, cb task.Callback)
	UnmountMountableFinish func(f File, res task.AsyncResult) error

	MeasureDiskUsage func(ctx context.Context, f File, flags MeasureFlags, progress MeasureProgressFunc) (DiskUsage, error)
	QueryExists      func(ctx context.Context, f File) bool
}

func vtableAt(t gtype.Type) *Iface {
	vt, ok := gtype.InterfaceVTable(t, Type())
	if !ok {
		return nil
	}
	iface, _ := vt.(*Iface)
	return iface
}

func parentVTable(t gtype.Type) *Iface {
	vt, ok := gtype.ParentInterfaceVTable(t, Type())
	if !ok {
		return nil
	}
	iface, _ := vt.(*Iface)
	return iface
}

func (f File) vtable() *Iface {
	return vtableAt(f.Type())
}

func unimplemented(slot string, t gtype.Type) string {
	return fmt.Sprintf("file: %s is not implemented by %s or any of its ancestors", slot, t)
}

func notSupported() error {
	return errors.NotSupported(errors.PhaseDispatch, "")
}

// Implementation attaches GFile to a class whose per-instance
// implementation objects have type I. Every slot whose *Impl interface I
// satisfies calls into the implementation; every other slot forwards to the
// nearest ancestor's vtable through the Parent helpers.
//
//	object.TypeInfo{
//		Name:       "MyFile",
//		NewImpl:    func() any { return &myFile{} },
//		Interfaces: []object.InterfaceImpl{file.Implementation[*myFile]()},
//	}
func Implementation[I any]() object.InterfaceImpl {
	return object.InterfaceImpl{
		Type: Type(),
		Init: func(t gtype.Type) (any, error) {
			vt := adapt[I](t)
			Logger().Debug("file interface initialized",
				zap.String("type", t.Name()),
				zap.String("impl", reflect.TypeOf((*I)(nil)).Elem().String()),
				zap.Strings("slots", implementedSlots[I]()))
			return vt, nil
		},
	}
}

// implAt returns the implementation object of level t of f as X.
func implAt[X any](f File, t gtype.Type) X {
	x, ok := object.ImplOf[X](f.Object, t)
	if !ok {
		panic(fmt.Sprintf("file: %s has no %s implementation at level %s", f, reflect.TypeOf((*X)(nil)).Elem(), t))
	}
	return x
}

// endpointAt picks the Copy/Move endpoint whose type owns level t.
func endpointAt(t gtype.Type, src, dst File) File {
	if src.IsA(t) {
		return src
	}
	return dst
}

func implementedSlots[I any]() []string {
	var zero I
	impl := any(zero)
	var out []string
	for _, c := range []struct {
		name string
		ok   bool
	}{
		{"Dup", is[DupImpl](impl)},
		{"Hash", is[HashImpl](impl)},
		{"Equal", is[EqualImpl](impl)},
		{"IsNative", is[IsNativeImpl](impl)},
		{"HasURIScheme", is[HasURISchemeImpl](impl)},
		{"URIScheme", is[URISchemeImpl](impl)},
		{"Basename", is[BasenameImpl](impl)},
		{"Path", is[PathImpl](impl)},
		{"URI", is[URIImpl](impl)},
		{"ParseName", is[ParseNameImpl](impl)},
		{"Parent", is[ParentImpl](impl)},
		{"HasPrefix", is[HasPrefixImpl](impl)},
		{"RelativePath", is[RelativePathImpl](impl)},
		{"ResolveRelativePath", is[ResolveRelativePathImpl](impl)},
		{"ChildForDisplayName", is[ChildForDisplayNameImpl](impl)},
		{"EnumerateChildren", is[EnumerateChildrenImpl](impl)},
		{"QueryInfo", is[QueryInfoImpl](impl)},
		{"QueryFilesystemInfo", is[QueryFilesystemInfoImpl](impl)},
		{"FindEnclosingMount", is[FindEnclosingMountImpl](impl)},
		{"SetDisplayName", is[SetDisplayNameImpl](impl)},
		{"QuerySettableAttributes", is[QuerySettableAttributesImpl](impl)},
		{"QueryWritableNamespaces", is[QueryWritableNamespacesImpl](impl)},
		{"SetAttribute", is[SetAttributeImpl](impl)},
		{"SetAttributesFromInfo", is[SetAttributesFromInfoImpl](impl)},
		{"Read", is[ReadImpl](impl)},
		{"AppendTo", is[AppendToImpl](impl)},
		{"Create", is[CreateImpl](impl)},
		{"Replace", is[ReplaceImpl](impl)},
		{"Delete", is[DeleteImpl](impl)},
		{"Trash", is[TrashImpl](impl)},
		{"MakeDirectory", is[MakeDirectoryImpl](impl)},
		{"MakeSymbolicLink", is[MakeSymbolicLinkImpl](impl)},
		{"Copy", is[CopyImpl](impl)},
		{"Move", is[MoveImpl](impl)},
		{"MountMountable", is[MountMountableImpl](impl)},
		{"UnmountMountable", is[UnmountMountableImpl](impl)},
		{"MeasureDiskUsage", is[MeasureDiskUsageImpl](impl)},
		{"QueryExists", is[QueryExistsImpl](impl)},
	} {
		if c.ok {
			out = append(out, c.name)
		}
	}
	return out
}

func is[X any](impl any) bool {
	_, ok := impl.(X)
	return ok
}

// adapt builds the vtable installed on t for implementation type I.
func adapt[I any](t gtype.Type) *Iface {
	var zero I
	impl := any(zero)
	vt := &Iface{}

	if is[DupImpl](impl) {
		vt.Dup = func(f File) File { return implAt[DupImpl](f, t).Dup(f) }
	} else {
		vt.Dup = func(f File) File { return ParentDup(t, f) }
	}
	if is[HashImpl](impl) {
		vt.Hash = func(f File) uint32 { return implAt[HashImpl](f, t).Hash(f) }
	} else {
		vt.Hash = func(f File) uint32 { return ParentHash(t, f) }
	}
	if is[EqualImpl](impl) {
		vt.Equal = func(f, other File) bool { return implAt[EqualImpl](f, t).Equal(f, other) }
	} else {
		vt.Equal = func(f, other File) bool { return ParentEqual(t, f, other) }
	}
	if is[IsNativeImpl](impl) {
		vt.IsNative = func(f File) bool { return implAt[IsNativeImpl](f, t).IsNative(f) }
	} else {
		vt.IsNative = func(f File) bool { return ParentIsNative(t, f) }
	}
	if is[HasURISchemeImpl](impl) {
		vt.HasURIScheme = func(f File, scheme string) bool {
			return implAt[HasURISchemeImpl](f, t).HasURIScheme(f, scheme)
		}
	} else {
		vt.HasURIScheme = func(f File, scheme string) bool { return ParentHasURIScheme(t, f, scheme) }
	}
	if is[URISchemeImpl](impl) {
		vt.URIScheme = func(f File) (string, bool) { return implAt[URISchemeImpl](f, t).URIScheme(f) }
	} else {
		vt.URIScheme = func(f File) (string, bool) { return ParentURIScheme(t, f) }
	}
	if is[BasenameImpl](impl) {
		vt.Basename = func(f File) (string, bool) { return implAt[BasenameImpl](f, t).Basename(f) }
	} else {
		vt.Basename = func(f File) (string, bool) { return ParentBasename(t, f) }
	}
	if is[PathImpl](impl) {
		vt.Path = func(f File) (string, bool) { return implAt[PathImpl](f, t).Path(f) }
	} else {
		vt.Path = func(f File) (string, bool) { return ParentPath(t, f) }
	}
	if is[URIImpl](impl) {
		vt.URI = func(f File) string { return implAt[URIImpl](f, t).URI(f) }
	} else {
		vt.URI = func(f File) string { return ParentURI(t, f) }
	}
	if is[ParseNameImpl](impl) {
		vt.ParseName = func(f File) string { return implAt[ParseNameImpl](f, t).ParseName(f) }
	} else {
		vt.ParseName = func(f File) string { return ParentParseName(t, f) }
	}
	if is[ParentImpl](impl) {
		vt.Parent = func(f File) (File, bool) { return implAt[ParentImpl](f, t).Parent(f) }
	} else {
		vt.Parent = func(f File) (File, bool) { return ParentParent(t, f) }
	}
	if is[HasPrefixImpl](impl) {
		vt.HasPrefix = func(f, prefix File) bool { return implAt[HasPrefixImpl](f, t).HasPrefix(f, prefix) }
	} else {
		vt.HasPrefix = func(f, prefix File) bool { return ParentHasPrefix(t, f, prefix) }
	}
	if is[RelativePathImpl](impl) {
		vt.RelativePath = func(f, descendant File) (string, bool) {
			return implAt[RelativePathImpl](f, t).RelativePath(f, descendant)
		}
	} else {
		vt.RelativePath = func(f, descendant File) (string, bool) { return ParentRelativePath(t, f, descendant) }
	}
	if is[ResolveRelativePathImpl](impl) {
		vt.ResolveRelativePath = func(f File, relative string) File {
			return implAt[ResolveRelativePathImpl](f, t).ResolveRelativePath(f, relative)
		}
	} else {
		vt.ResolveRelativePath = func(f File, relative string) File { return ParentResolveRelativePath(t, f, relative) }
	}
	if is[ChildForDisplayNameImpl](impl) {
		vt.ChildForDisplayName = func(f File, name string) (File, error) {
			return implAt[ChildForDisplayNameImpl](f, t).ChildForDisplayName(f, name)
		}
	} else {
		vt.ChildForDisplayName = func(f File, name string) (File, error) { return ParentChildForDisplayName(t, f, name) }
	}

	if is[EnumerateChildrenImpl](impl) {
		vt.EnumerateChildren = func(ctx context.Context, f File, attributes string, flags QueryInfoFlags) (Enumerator, error) {
			return implAt[EnumerateChildrenImpl](f, t).EnumerateChildren(ctx, f, attributes, flags)
		}
	} else {
		vt.EnumerateChildren = func(ctx context.Context, f File, attributes string, flags QueryInfoFlags) (Enumerator, error) {
			return ParentEnumerateChildren(ctx, t, f, attributes, flags)
		}
	}
	if is[QueryInfoImpl](impl) {
		vt.QueryInfo = func(ctx context.Context, f File, attributes string, flags QueryInfoFlags) (*FileInfo, error) {
			return implAt[QueryInfoImpl](f, t).QueryInfo(ctx, f, attributes, flags)
		}
	} else {
		vt.QueryInfo = func(ctx context.Context, f File, attributes string, flags QueryInfoFlags) (*FileInfo, error) {
			return ParentQueryInfo(ctx, t, f, attributes, flags)
		}
	}
	if is[QueryFilesystemInfoImpl](impl) {
		vt.QueryFilesystemInfo = func(ctx context.Context, f File, attributes string) (*FileInfo, error) {
			return implAt[QueryFilesystemInfoImpl](f, t).QueryFilesystemInfo(ctx, f, attributes)
		}
	} else {
		vt.QueryFilesystemInfo = func(ctx context.Context, f File, attributes string) (*FileInfo, error) {
			return ParentQueryFilesystemInfo(ctx, t, f, attributes)
		}
	}
	if is[FindEnclosingMountImpl](impl) {
		vt.FindEnclosingMount = func(ctx context.Context, f File) (Mount, error) {
			return implAt[FindEnclosingMountImpl](f, t).FindEnclosingMount(ctx, f)
		}
	} else {
		vt.FindEnclosingMount = func(ctx context.Context, f File) (Mount, error) { return ParentFindEnclosingMount(ctx, t, f) }
	}
	if is[SetDisplayNameImpl](impl) {
		vt.SetDisplayName = func(ctx context.Context, f File, name string) (File, error) {
			return implAt[SetDisplayNameImpl](f, t).SetDisplayName(ctx, f, name)
		}
	} else {
		vt.SetDisplayName = func(ctx context.Context, f File, name string) (File, error) {
			return ParentSetDisplayName(ctx, t, f, name)
		}
	}
	if is[QuerySettableAttributesImpl](impl) {
		vt.QuerySettableAttributes = func(ctx context.Context, f File) ([]AttributeInfo, error) {
			return implAt[QuerySettableAttributesImpl](f, t).QuerySettableAttributes(ctx, f)
		}
	} else {
		vt.QuerySettableAttributes = func(ctx context.Context, f File) ([]AttributeInfo, error) {
			return ParentQuerySettableAttributes(ctx, t, f)
		}
	}
	if is[QueryWritableNamespacesImpl](impl) {
		vt.QueryWritableNamespaces = func(ctx context.Context, f File) ([]AttributeInfo, error) {
			return implAt[QueryWritableNamespacesImpl](f, t).QueryWritableNamespaces(ctx, f)
		}
	} else {
		vt.QueryWritableNamespaces = func(ctx context.Context, f File) ([]AttributeInfo, error) {
			return ParentQueryWritableNamespaces(ctx, t, f)
		}
	}
	if is[SetAttributeImpl](impl) {
		vt.SetAttribute = func(ctx context.Context, f File, attribute string, value any, flags QueryInfoFlags) error {
			return implAt[SetAttributeImpl](f, t).SetAttribute(ctx, f, attribute, value, flags)
		}
	} else {
		vt.SetAttribute = func(ctx context.Context, f File, attribute string, value any, flags QueryInfoFlags) error {
			return ParentSetAttribute(ctx, t, f, attribute, value, flags)
		}
	}
	if is[SetAttributesFromInfoImpl](impl) {
		vt.SetAttributesFromInfo = func(ctx context.Context, f File, info *FileInfo, flags QueryInfoFlags) error {
			return implAt[SetAttributesFromInfoImpl](f, t).SetAttributesFromInfo(ctx, f, info, flags)
		}
	} else {
		vt.SetAttributesFromInfo = func(ctx context.Context, f File, info *FileInfo, flags QueryInfoFlags) error {
			return ParentSetAttributesFromInfo(ctx, t, f, info, flags)
		}
	}

	if is[ReadImpl](impl) {
		vt.Read = func(ctx context.Context, f File) (io.ReadCloser, error) { return implAt[ReadImpl](f, t).Read(ctx, f) }
	} else {
		vt.Read = func(ctx context.Context, f File) (io.ReadCloser, error) { return ParentRead(ctx, t, f) }
	}
	if is[AppendToImpl](impl) {
		vt.AppendTo = func(ctx context.Context, f File, flags CreateFlags) (io.WriteCloser, error) {
			return implAt[AppendToImpl](f, t).AppendTo(ctx, f, flags)
		}
	} else {
		vt.AppendTo = func(ctx context.Context, f File, flags CreateFlags) (io.WriteCloser, error) {
			return ParentAppendTo(ctx, t, f, flags)
		}
	}
	if is[CreateImpl](impl) {
		vt.Create = func(ctx context.Context, f File, flags CreateFlags) (io.WriteCloser, error) {
			return implAt[CreateImpl](f, t).Create(ctx, f, flags)
		}
	} else {
		vt.Create = func(ctx context.Context, f File, flags CreateFlags) (io.WriteCloser, error) {
			return ParentCreate(ctx, t, f, flags)
		}
	}
	if is[ReplaceImpl](impl) {
		vt.Replace = func(ctx context.Context, f File, etag string, makeBackup bool, flags CreateFlags) (io.WriteCloser, error) {
			return implAt[ReplaceImpl](f, t).Replace(ctx, f, etag, makeBackup, flags)
		}
	} else {
		vt.Replace = func(ctx context.Context, f File, etag string, makeBackup bool, flags CreateFlags) (io.WriteCloser, error) {
			return ParentReplace(ctx, t, f, etag, makeBackup, flags)
		}
	}
	if is[DeleteImpl](impl) {
		vt.Delete = func(ctx context.Context, f File) error { return implAt[DeleteImpl](f, t).Delete(ctx, f) }
	} else {
		vt.Delete = func(ctx context.Context, f File) error { return ParentDelete(ctx, t, f) }
	}
	if is[TrashImpl](impl) {
		vt.Trash = func(ctx context.Context, f File) error { return implAt[TrashImpl](f, t).Trash(ctx, f) }
	} else {
		vt.Trash = func(ctx context.Context, f File) error { return ParentTrash(ctx, t, f) }
	}
	if is[MakeDirectoryImpl](impl) {
		vt.MakeDirectory = func(ctx context.Context, f File) error {
			return implAt[MakeDirectoryImpl](f, t).MakeDirectory(ctx, f)
		}
	} else {
		vt.MakeDirectory = func(ctx context.Context, f File) error { return ParentMakeDirectory(ctx, t, f) }
	}
	if is[MakeSymbolicLinkImpl](impl) {
		vt.MakeSymbolicLink = func(ctx context.Context, f File, target string) error {
			return implAt[MakeSymbolicLinkImpl](f, t).MakeSymbolicLink(ctx, f, target)
		}
	} else {
		vt.MakeSymbolicLink = func(ctx context.Context, f File, target string) error {
			return ParentMakeSymbolicLink(ctx, t, f, target)
		}
	}

	if is[CopyImpl](impl) {
		vt.Copy = func(ctx context.Context, src, dst File, flags CopyFlags, progress ProgressFunc) error {
			return implAt[CopyImpl](endpointAt(t, src, dst), t).Copy(ctx, src, dst, flags, progress)
		}
	} else {
		vt.Copy = func(ctx context.Context, src, dst File, flags CopyFlags, progress ProgressFunc) error {
			return ParentCopy(ctx, t, src, dst, flags, progress)
		}
	}
	if is[MoveImpl](impl) {
		vt.Move = func(ctx context.Context, src, dst File, flags CopyFlags, progress ProgressFunc) error {
			return implAt[MoveImpl](endpointAt(t, src, dst), t).Move(ctx, src, dst, flags, progress)
		}
	} else {
		vt.Move = func(ctx context.Context, src, dst File, flags CopyFlags, progress ProgressFunc) error {
			return ParentMove(ctx, t, src, dst, flags, progress)
		}
	}

	if is[MountMountableImpl](impl) {
		vt.MountMountable = func(ctx context.Context, f File, flags MountFlags, cb task.Callback) {
			implAt[MountMountableImpl](f, t).MountMountable(ctx, f, flags, cb)
		}
		vt.MountMountableFinish = func(f File, res task.AsyncResult) (File, error) {
			return implAt[MountMountableImpl](f, t).MountMountableFinish(f, res)
		}
	} else {
		vt.MountMountable = func(ctx context.Context, f File, flags MountFlags, cb task.Callback) {
			ParentMountMountable(ctx, t, f, flags, cb)
		}
		vt.MountMountableFinish = func(f File, res task.AsyncResult) (File, error) {
			return ParentMountMountableFinish(t, f, res)
		}
	}
	if is[UnmountMountableImpl](impl) {
		vt.UnmountMountable = func(ctx context.Context, f File, flags UnmountFlags, cb task.Callback) {
			implAt[UnmountMountableImpl](f, t).UnmountMountable(ctx, f, flags, cb)
		}
		vt.UnmountMountableFinish = func(f File, res task.AsyncResult) error {
			return implAt[UnmountMountableImpl](f, t).UnmountMountableFinish(f, res)
		}
	} else {
		vt.UnmountMountable = func(ctx context.Context, f File, flags UnmountFlags, cb task.Callback) {
			ParentUnmountMountable(ctx, t, f, flags, cb)
		}
		vt.UnmountMountableFinish = func(f File, res task.AsyncResult) error {
			return ParentUnmountMountableFinish(t, f, res)
		}
	}

	if is[MeasureDiskUsageImpl](impl) {
		vt.MeasureDiskUsage = func(ctx context.Context, f File, flags MeasureFlags, progress MeasureProgressFunc) (DiskUsage, error) {
			return implAt[MeasureDiskUsageImpl](f, t).MeasureDiskUsage(ctx, f, flags, progress)
		}
	} else {
		vt.MeasureDiskUsage = func(ctx context.Context, f File, flags MeasureFlags, progress MeasureProgressFunc) (DiskUsage, error) {
			return ParentMeasureDiskUsage(ctx, t, f, flags, progress)
		}
	}
	if is[QueryExistsImpl](impl) {
		vt.QueryExists = func(ctx context.Context, f File) bool { return implAt[QueryExistsImpl](f, t).QueryExists(ctx, f) }
	} else {
		vt.QueryExists = func(ctx context.Context, f File) bool { return ParentQueryExists(ctx, t, f) }
	}
	return vt
}

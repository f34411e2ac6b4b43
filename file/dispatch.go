package file

import (
	"context"
	"io"

	"github.com/wippyai/gobject-runtime/errors"
	"github.com/wippyai/gobject-runtime/gtype"
	"github.com/wippyai/gobject-runtime/task"
	"go.uber.org/multierr"
)

// Each slot has one of three default policies when no class in the chain
// implements it. Hard slots panic, soft slots fail with not_supported, and a
// few slots fall back to a generic implementation built on other slots.
//
// The ParentXxx helpers run the slot of the class above level t and apply
// the same default when no ancestor implements it. Implementations call them
// to chain up.

var noSlots Iface

func (f File) slots() *Iface {
	if vt := f.vtable(); vt != nil {
		return vt
	}
	return &noSlots
}

func parentSlots(t gtype.Type) *Iface {
	if vt := parentVTable(t); vt != nil {
		return vt
	}
	return &noSlots
}

type sourceTag string

const (
	mountTag   sourceTag = "file.MountMountable"
	unmountTag sourceTag = "file.UnmountMountable"
)

// Dup

func ParentDup(t gtype.Type, f File) File {
	if fn := parentSlots(t).Dup; fn != nil {
		return fn(f)
	}
	panic(unimplemented("Dup", t))
}

// Dup returns a new handle to a file equal to f.
func (f File) Dup() File {
	if fn := f.slots().Dup; fn != nil {
		return fn(f)
	}
	panic(unimplemented("Dup", f.Type()))
}

// Hash

func ParentHash(t gtype.Type, f File) uint32 {
	if fn := parentSlots(t).Hash; fn != nil {
		return fn(f)
	}
	panic(unimplemented("Hash", t))
}

// Hash returns a hash consistent with Equal.
func (f File) Hash() uint32 {
	if fn := f.slots().Hash; fn != nil {
		return fn(f)
	}
	panic(unimplemented("Hash", f.Type()))
}

// Equal

func ParentEqual(t gtype.Type, f, other File) bool {
	if fn := parentSlots(t).Equal; fn != nil {
		return fn(f, other)
	}
	panic(unimplemented("Equal", t))
}

// Equal reports whether f and other name the same file. Files of different
// concrete types are never equal.
func (f File) Equal(other File) bool {
	if f.Object.Equal(other.Object) {
		return true
	}
	if other.IsNil() || f.Type() != other.Type() {
		return false
	}
	if fn := f.slots().Equal; fn != nil {
		return fn(f, other)
	}
	panic(unimplemented("Equal", f.Type()))
}

// IsNative

func ParentIsNative(t gtype.Type, f File) bool {
	if fn := parentSlots(t).IsNative; fn != nil {
		return fn(f)
	}
	panic(unimplemented("IsNative", t))
}

// IsNative reports whether f lives on the local filesystem.
func (f File) IsNative() bool {
	if fn := f.slots().IsNative; fn != nil {
		return fn(f)
	}
	panic(unimplemented("IsNative", f.Type()))
}

// HasURIScheme

func ParentHasURIScheme(t gtype.Type, f File, scheme string) bool {
	if fn := parentSlots(t).HasURIScheme; fn != nil {
		return fn(f, scheme)
	}
	panic(unimplemented("HasURIScheme", t))
}

func (f File) HasURIScheme(scheme string) bool {
	if fn := f.slots().HasURIScheme; fn != nil {
		return fn(f, scheme)
	}
	panic(unimplemented("HasURIScheme", f.Type()))
}

// URIScheme

func ParentURIScheme(t gtype.Type, f File) (string, bool) {
	if fn := parentSlots(t).URIScheme; fn != nil {
		return fn(f)
	}
	panic(unimplemented("URIScheme", t))
}

func (f File) URIScheme() (string, bool) {
	if fn := f.slots().URIScheme; fn != nil {
		return fn(f)
	}
	panic(unimplemented("URIScheme", f.Type()))
}

// Basename

func ParentBasename(t gtype.Type, f File) (string, bool) {
	if fn := parentSlots(t).Basename; fn != nil {
		return fn(f)
	}
	panic(unimplemented("Basename", t))
}

func (f File) Basename() (string, bool) {
	if fn := f.slots().Basename; fn != nil {
		return fn(f)
	}
	panic(unimplemented("Basename", f.Type()))
}

// Path

func ParentPath(t gtype.Type, f File) (string, bool) {
	if fn := parentSlots(t).Path; fn != nil {
		return fn(f)
	}
	panic(unimplemented("Path", t))
}

// Path returns the local path of f, if it has one.
func (f File) Path() (string, bool) {
	if fn := f.slots().Path; fn != nil {
		return fn(f)
	}
	panic(unimplemented("Path", f.Type()))
}

// URI

func ParentURI(t gtype.Type, f File) string {
	if fn := parentSlots(t).URI; fn != nil {
		return fn(f)
	}
	panic(unimplemented("URI", t))
}

func (f File) URI() string {
	if fn := f.slots().URI; fn != nil {
		return fn(f)
	}
	panic(unimplemented("URI", f.Type()))
}

// ParseName

func ParentParseName(t gtype.Type, f File) string {
	if fn := parentSlots(t).ParseName; fn != nil {
		return fn(f)
	}
	panic(unimplemented("ParseName", t))
}

// ParseName returns a user-facing name that NewForParseName-style
// constructors accept back.
func (f File) ParseName() string {
	if fn := f.slots().ParseName; fn != nil {
		return fn(f)
	}
	panic(unimplemented("ParseName", f.Type()))
}

// Parent

func ParentParent(t gtype.Type, f File) (File, bool) {
	if fn := parentSlots(t).Parent; fn != nil {
		return fn(f)
	}
	panic(unimplemented("Parent", t))
}

// Parent returns the parent directory, or false at a root.
func (f File) Parent() (File, bool) {
	if fn := f.slots().Parent; fn != nil {
		return fn(f)
	}
	panic(unimplemented("Parent", f.Type()))
}

// HasPrefix

func ParentHasPrefix(t gtype.Type, f, prefix File) bool {
	if fn := parentSlots(t).HasPrefix; fn != nil {
		return fn(f, prefix)
	}
	panic(unimplemented("HasPrefix", t))
}

// HasPrefix reports whether f is strictly below prefix. A prefix of another
// concrete type never matches.
func (f File) HasPrefix(prefix File) bool {
	if prefix.IsNil() || f.Type() != prefix.Type() {
		return false
	}
	if fn := f.slots().HasPrefix; fn != nil {
		return fn(f, prefix)
	}
	panic(unimplemented("HasPrefix", f.Type()))
}

// RelativePath

func ParentRelativePath(t gtype.Type, f, descendant File) (string, bool) {
	if fn := parentSlots(t).RelativePath; fn != nil {
		return fn(f, descendant)
	}
	panic(unimplemented("RelativePath", t))
}

// RelativePath returns the path of descendant relative to f. It is false
// when descendant is not below f or has another concrete type.
func (f File) RelativePath(descendant File) (string, bool) {
	if descendant.IsNil() || f.Type() != descendant.Type() {
		return "", false
	}
	if fn := f.slots().RelativePath; fn != nil {
		return fn(f, descendant)
	}
	panic(unimplemented("RelativePath", f.Type()))
}

// ResolveRelativePath

func ParentResolveRelativePath(t gtype.Type, f File, relative string) File {
	if fn := parentSlots(t).ResolveRelativePath; fn != nil {
		return fn(f, relative)
	}
	panic(unimplemented("ResolveRelativePath", t))
}

func (f File) ResolveRelativePath(relative string) File {
	if fn := f.slots().ResolveRelativePath; fn != nil {
		return fn(f, relative)
	}
	panic(unimplemented("ResolveRelativePath", f.Type()))
}

// ChildForDisplayName

func ParentChildForDisplayName(t gtype.Type, f File, name string) (File, error) {
	if fn := parentSlots(t).ChildForDisplayName; fn != nil {
		return fn(f, name)
	}
	panic(unimplemented("ChildForDisplayName", t))
}

func (f File) ChildForDisplayName(name string) (File, error) {
	if fn := f.slots().ChildForDisplayName; fn != nil {
		return fn(f, name)
	}
	panic(unimplemented("ChildForDisplayName", f.Type()))
}

// Child returns the child named name. It is ResolveRelativePath with a
// single path element.
func (f File) Child(name string) File {
	return f.ResolveRelativePath(name)
}

// EnumerateChildren

func ParentEnumerateChildren(ctx context.Context, t gtype.Type, f File, attributes string, flags QueryInfoFlags) (Enumerator, error) {
	if fn := parentSlots(t).EnumerateChildren; fn != nil {
		return fn(ctx, f, attributes, flags)
	}
	return nil, notSupported()
}

// EnumerateChildren lists the children of a directory with the attributes
// matching attributes.
func (f File) EnumerateChildren(ctx context.Context, attributes string, flags QueryInfoFlags) (Enumerator, error) {
	if fn := f.slots().EnumerateChildren; fn != nil {
		return fn(ctx, f, attributes, flags)
	}
	return nil, notSupported()
}

// QueryInfo

func ParentQueryInfo(ctx context.Context, t gtype.Type, f File, attributes string, flags QueryInfoFlags) (*FileInfo, error) {
	if fn := parentSlots(t).QueryInfo; fn != nil {
		return fn(ctx, f, attributes, flags)
	}
	return nil, notSupported()
}

// QueryInfo returns the attributes of f matching attributes, for example
// "standard::*,time::modified".
func (f File) QueryInfo(ctx context.Context, attributes string, flags QueryInfoFlags) (*FileInfo, error) {
	if fn := f.slots().QueryInfo; fn != nil {
		return fn(ctx, f, attributes, flags)
	}
	return nil, notSupported()
}

// QueryFileType returns the type of f, or TypeUnknown when it cannot be
// queried.
func (f File) QueryFileType(ctx context.Context, flags QueryInfoFlags) FileType {
	info, err := f.QueryInfo(ctx, AttributeStandardType, flags)
	if err != nil {
		return TypeUnknown
	}
	return info.FileType()
}

// QueryFilesystemInfo

func ParentQueryFilesystemInfo(ctx context.Context, t gtype.Type, f File, attributes string) (*FileInfo, error) {
	if fn := parentSlots(t).QueryFilesystemInfo; fn != nil {
		return fn(ctx, f, attributes)
	}
	return nil, notSupported()
}

func (f File) QueryFilesystemInfo(ctx context.Context, attributes string) (*FileInfo, error) {
	if fn := f.slots().QueryFilesystemInfo; fn != nil {
		return fn(ctx, f, attributes)
	}
	return nil, notSupported()
}

// FindEnclosingMount

func ParentFindEnclosingMount(ctx context.Context, t gtype.Type, f File) (Mount, error) {
	if fn := parentSlots(t).FindEnclosingMount; fn != nil {
		return fn(ctx, f)
	}
	return nil, noEnclosingMount()
}

func (f File) FindEnclosingMount(ctx context.Context) (Mount, error) {
	if fn := f.slots().FindEnclosingMount; fn != nil {
		return fn(ctx, f)
	}
	return nil, noEnclosingMount()
}

func noEnclosingMount() error {
	return errors.IO(errors.KindNotFound, "Containing mount does not exist")
}

// SetDisplayName

func ParentSetDisplayName(ctx context.Context, t gtype.Type, f File, name string) (File, error) {
	if fn := parentSlots(t).SetDisplayName; fn != nil {
		return fn(ctx, f, name)
	}
	panic(unimplemented("SetDisplayName", t))
}

// SetDisplayName renames f and returns the renamed file.
func (f File) SetDisplayName(ctx context.Context, name string) (File, error) {
	if fn := f.slots().SetDisplayName; fn != nil {
		return fn(ctx, f, name)
	}
	panic(unimplemented("SetDisplayName", f.Type()))
}

// QuerySettableAttributes

func ParentQuerySettableAttributes(ctx context.Context, t gtype.Type, f File) ([]AttributeInfo, error) {
	if fn := parentSlots(t).QuerySettableAttributes; fn != nil {
		return fn(ctx, f)
	}
	return nil, nil
}

// QuerySettableAttributes lists the attributes SetAttribute accepts. Types
// that do not say return an empty list.
func (f File) QuerySettableAttributes(ctx context.Context) ([]AttributeInfo, error) {
	if fn := f.slots().QuerySettableAttributes; fn != nil {
		return fn(ctx, f)
	}
	return nil, nil
}

// QueryWritableNamespaces

func ParentQueryWritableNamespaces(ctx context.Context, t gtype.Type, f File) ([]AttributeInfo, error) {
	if fn := parentSlots(t).QueryWritableNamespaces; fn != nil {
		return fn(ctx, f)
	}
	return nil, nil
}

func (f File) QueryWritableNamespaces(ctx context.Context) ([]AttributeInfo, error) {
	if fn := f.slots().QueryWritableNamespaces; fn != nil {
		return fn(ctx, f)
	}
	return nil, nil
}

// SetAttribute

func ParentSetAttribute(ctx context.Context, t gtype.Type, f File, attribute string, value any, flags QueryInfoFlags) error {
	if fn := parentSlots(t).SetAttribute; fn != nil {
		return fn(ctx, f, attribute, value, flags)
	}
	return notSupported()
}

func (f File) SetAttribute(ctx context.Context, attribute string, value any, flags QueryInfoFlags) error {
	if fn := f.slots().SetAttribute; fn != nil {
		return fn(ctx, f, attribute, value, flags)
	}
	return notSupported()
}

// SetAttributesFromInfo

func ParentSetAttributesFromInfo(ctx context.Context, t gtype.Type, f File, info *FileInfo, flags QueryInfoFlags) error {
	if fn := parentSlots(t).SetAttributesFromInfo; fn != nil {
		return fn(ctx, f, info, flags)
	}
	return setAttributesOneByOne(ctx, f, info, flags)
}

// SetAttributesFromInfo applies every attribute of info. The errors of all
// attributes that could not be set are combined.
func (f File) SetAttributesFromInfo(ctx context.Context, info *FileInfo, flags QueryInfoFlags) error {
	if fn := f.slots().SetAttributesFromInfo; fn != nil {
		return fn(ctx, f, info, flags)
	}
	return setAttributesOneByOne(ctx, f, info, flags)
}

func setAttributesOneByOne(ctx context.Context, f File, info *FileInfo, flags QueryInfoFlags) error {
	var err error
	for _, key := range info.ListAttributes("") {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return multierr.Append(err, errors.Cancelled(errors.PhaseIO, ctxErr))
		}
		v, _ := info.Attribute(key)
		err = multierr.Append(err, f.SetAttribute(ctx, key, v, flags))
	}
	return err
}

// Read

func ParentRead(ctx context.Context, t gtype.Type, f File) (io.ReadCloser, error) {
	if fn := parentSlots(t).Read; fn != nil {
		return fn(ctx, f)
	}
	return nil, notSupported()
}

// Read opens f for reading.
func (f File) Read(ctx context.Context) (io.ReadCloser, error) {
	if fn := f.slots().Read; fn != nil {
		return fn(ctx, f)
	}
	return nil, notSupported()
}

// AppendTo

func ParentAppendTo(ctx context.Context, t gtype.Type, f File, flags CreateFlags) (io.WriteCloser, error) {
	if fn := parentSlots(t).AppendTo; fn != nil {
		return fn(ctx, f, flags)
	}
	return nil, notSupported()
}

// AppendTo opens f for appending, creating it if needed.
func (f File) AppendTo(ctx context.Context, flags CreateFlags) (io.WriteCloser, error) {
	if fn := f.slots().AppendTo; fn != nil {
		return fn(ctx, f, flags)
	}
	return nil, notSupported()
}

// Create

func ParentCreate(ctx context.Context, t gtype.Type, f File, flags CreateFlags) (io.WriteCloser, error) {
	if fn := parentSlots(t).Create; fn != nil {
		return fn(ctx, f, flags)
	}
	return nil, notSupported()
}

// Create creates f for writing. It fails with exists if f is already there.
func (f File) Create(ctx context.Context, flags CreateFlags) (io.WriteCloser, error) {
	if fn := f.slots().Create; fn != nil {
		return fn(ctx, f, flags)
	}
	return nil, notSupported()
}

// Replace

func ParentReplace(ctx context.Context, t gtype.Type, f File, etag string, makeBackup bool, flags CreateFlags) (io.WriteCloser, error) {
	if fn := parentSlots(t).Replace; fn != nil {
		return fn(ctx, f, etag, makeBackup, flags)
	}
	return nil, notSupported()
}

// Replace opens f for writing, replacing any existing content.
func (f File) Replace(ctx context.Context, etag string, makeBackup bool, flags CreateFlags) (io.WriteCloser, error) {
	if fn := f.slots().Replace; fn != nil {
		return fn(ctx, f, etag, makeBackup, flags)
	}
	return nil, notSupported()
}

// Delete

func ParentDelete(ctx context.Context, t gtype.Type, f File) error {
	if fn := parentSlots(t).Delete; fn != nil {
		return fn(ctx, f)
	}
	return notSupported()
}

func (f File) Delete(ctx context.Context) error {
	if fn := f.slots().Delete; fn != nil {
		return fn(ctx, f)
	}
	return notSupported()
}

// Trash

func ParentTrash(ctx context.Context, t gtype.Type, f File) error {
	if fn := parentSlots(t).Trash; fn != nil {
		return fn(ctx, f)
	}
	return notSupported()
}

func (f File) Trash(ctx context.Context) error {
	if fn := f.slots().Trash; fn != nil {
		return fn(ctx, f)
	}
	return notSupported()
}

// MakeDirectory

func ParentMakeDirectory(ctx context.Context, t gtype.Type, f File) error {
	if fn := parentSlots(t).MakeDirectory; fn != nil {
		return fn(ctx, f)
	}
	return notSupported()
}

func (f File) MakeDirectory(ctx context.Context) error {
	if fn := f.slots().MakeDirectory; fn != nil {
		return fn(ctx, f)
	}
	return notSupported()
}

// MakeSymbolicLink

func ParentMakeSymbolicLink(ctx context.Context, t gtype.Type, f File, target string) error {
	if fn := parentSlots(t).MakeSymbolicLink; fn != nil {
		return fn(ctx, f, target)
	}
	return notSupported()
}

// MakeSymbolicLink creates f as a symbolic link pointing at target.
func (f File) MakeSymbolicLink(ctx context.Context, target string) error {
	if fn := f.slots().MakeSymbolicLink; fn != nil {
		return fn(ctx, f, target)
	}
	return notSupported()
}

// Copy and Move

func ParentCopy(ctx context.Context, t gtype.Type, src, dst File, flags CopyFlags, progress ProgressFunc) error {
	if fn := parentSlots(t).Copy; fn != nil {
		return fn(ctx, src, dst, flags, progress)
	}
	return notSupported()
}

func ParentMove(ctx context.Context, t gtype.Type, src, dst File, flags CopyFlags, progress ProgressFunc) error {
	if fn := parentSlots(t).Move; fn != nil {
		return fn(ctx, src, dst, flags, progress)
	}
	return notSupported()
}

// MountMountable

func ParentMountMountable(ctx context.Context, t gtype.Type, f File, flags MountFlags, cb task.Callback) {
	if fn := parentSlots(t).MountMountable; fn != nil {
		fn(ctx, f, flags, cb)
		return
	}
	task.ReportError[File](ctx, f.Object, cb, mountTag, notSupported())
}

func ParentMountMountableFinish(t gtype.Type, f File, res task.AsyncResult) (File, error) {
	if task.IsValid[File](res, f.Object, mountTag) {
		return task.Propagate[File](res)
	}
	if fn := parentSlots(t).MountMountableFinish; fn != nil {
		return fn(f, res)
	}
	panic(unimplemented("MountMountableFinish", t))
}

// MountMountable mounts a file of type TypeMountable. cb runs on the thread
// default main context of ctx and must call MountMountableFinish.
func (f File) MountMountable(ctx context.Context, flags MountFlags, cb task.Callback) {
	if fn := f.slots().MountMountable; fn != nil {
		fn(ctx, f, flags, cb)
		return
	}
	task.ReportError[File](ctx, f.Object, cb, mountTag, notSupported())
}

// MountMountableFinish returns the root of the mounted volume.
func (f File) MountMountableFinish(res task.AsyncResult) (File, error) {
	if task.IsValid[File](res, f.Object, mountTag) {
		return task.Propagate[File](res)
	}
	if fn := f.slots().MountMountableFinish; fn != nil {
		return fn(f, res)
	}
	panic(unimplemented("MountMountableFinish", f.Type()))
}

// UnmountMountable

func ParentUnmountMountable(ctx context.Context, t gtype.Type, f File, flags UnmountFlags, cb task.Callback) {
	if fn := parentSlots(t).UnmountMountable; fn != nil {
		fn(ctx, f, flags, cb)
		return
	}
	task.ReportError[struct{}](ctx, f.Object, cb, unmountTag, notSupported())
}

func ParentUnmountMountableFinish(t gtype.Type, f File, res task.AsyncResult) error {
	if task.IsValid[struct{}](res, f.Object, unmountTag) {
		_, err := task.Propagate[struct{}](res)
		return err
	}
	if fn := parentSlots(t).UnmountMountableFinish; fn != nil {
		return fn(f, res)
	}
	panic(unimplemented("UnmountMountableFinish", t))
}

func (f File) UnmountMountable(ctx context.Context, flags UnmountFlags, cb task.Callback) {
	if fn := f.slots().UnmountMountable; fn != nil {
		fn(ctx, f, flags, cb)
		return
	}
	task.ReportError[struct{}](ctx, f.Object, cb, unmountTag, notSupported())
}

func (f File) UnmountMountableFinish(res task.AsyncResult) error {
	if task.IsValid[struct{}](res, f.Object, unmountTag) {
		_, err := task.Propagate[struct{}](res)
		return err
	}
	if fn := f.slots().UnmountMountableFinish; fn != nil {
		return fn(f, res)
	}
	panic(unimplemented("UnmountMountableFinish", f.Type()))
}

// MeasureDiskUsage

func ParentMeasureDiskUsage(ctx context.Context, t gtype.Type, f File, flags MeasureFlags, progress MeasureProgressFunc) (DiskUsage, error) {
	if fn := parentSlots(t).MeasureDiskUsage; fn != nil {
		return fn(ctx, f, flags, progress)
	}
	panic(unimplemented("MeasureDiskUsage", t))
}

// MeasureDiskUsage sums the size of f and everything below it. progress,
// when set, is called synchronously while measuring and never after
// MeasureDiskUsage returns.
func (f File) MeasureDiskUsage(ctx context.Context, flags MeasureFlags, progress MeasureProgressFunc) (DiskUsage, error) {
	fn := f.slots().MeasureDiskUsage
	if fn == nil {
		panic(unimplemented("MeasureDiskUsage", f.Type()))
	}
	g := &progressGate{}
	defer g.close()
	return fn(ctx, f, flags, g.measure(progress))
}

// QueryExists

func ParentQueryExists(ctx context.Context, t gtype.Type, f File) bool {
	if fn := parentSlots(t).QueryExists; fn != nil {
		return fn(ctx, f)
	}
	return existsByQuery(ctx, f)
}

// QueryExists reports whether f exists. Types without their own check are
// asked for standard::type.
func (f File) QueryExists(ctx context.Context) bool {
	if fn := f.slots().QueryExists; fn != nil {
		return fn(ctx, f)
	}
	return existsByQuery(ctx, f)
}

func existsByQuery(ctx context.Context, f File) bool {
	_, err := f.QueryInfo(ctx, AttributeStandardType, QueryInfoNone)
	return err == nil
}

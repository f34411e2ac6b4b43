package file

import (
	"context"
	"io"

	"github.com/wippyai/gobject-runtime/task"
)

// Optional methods of an implementation object. Implementation installs an
// adapter for each one the implementation type has; the rest forward to the
// parent class.
type (
	DupImpl interface {
		Dup(f File) File
	}
	HashImpl interface {
		Hash(f File) uint32
	}
	EqualImpl interface {
		Equal(f, other File) bool
	}
	IsNativeImpl interface {
		IsNative(f File) bool
	}
	HasURISchemeImpl interface {
		HasURIScheme(f File, scheme string) bool
	}
	URISchemeImpl interface {
		URIScheme(f File) (string, bool)
	}
	BasenameImpl interface {
		Basename(f File) (string, bool)
	}
	PathImpl interface {
		Path(f File) (string, bool)
	}
	URIImpl interface {
		URI(f File) string
	}
	ParseNameImpl interface {
		ParseName(f File) string
	}
	ParentImpl interface {
		Parent(f File) (File, bool)
	}
	HasPrefixImpl interface {
		HasPrefix(f, prefix File) bool
	}
	RelativePathImpl interface {
		RelativePath(f, descendant File) (string, bool)
	}
	ResolveRelativePathImpl interface {
		ResolveRelativePath(f File, relative string) File
	}
	ChildForDisplayNameImpl interface {
		ChildForDisplayName(f File, name string) (File, error)
	}

	EnumerateChildrenImpl interface {
		EnumerateChildren(ctx context.Context, f File, attributes string, flags QueryInfoFlags) (Enumerator, error)
	}
	QueryInfoImpl interface {
		QueryInfo(ctx context.Context, f File, attributes string, flags QueryInfoFlags) (*FileInfo, error)
	}
	QueryFilesystemInfoImpl interface {
		QueryFilesystemInfo(ctx context.Context, f File, attributes string) (*FileInfo, error)
	}
	FindEnclosingMountImpl interface {
		FindEnclosingMount(ctx context.Context, f File) (Mount, error)
	}
	SetDisplayNameImpl interface {
		SetDisplayName(ctx context.Context, f File, name string) (File, error)
	}
	QuerySettableAttributesImpl interface {
		QuerySettableAttributes(ctx context.Context, f File) ([]AttributeInfo, error)
	}
	QueryWritableNamespacesImpl interface {
		QueryWritableNamespaces(ctx context.Context, f File) ([]AttributeInfo, error)
	}
	SetAttributeImpl interface {
		SetAttribute(ctx context.Context, f File, attribute string, value any, flags QueryInfoFlags) error
	}
	SetAttributesFromInfoImpl interface {
		SetAttributesFromInfo(ctx context.Context, f File, info *FileInfo, flags QueryInfoFlags) error
	}

	ReadImpl interface {
		Read(ctx context.Context, f File) (io.ReadCloser, error)
	}
	AppendToImpl interface {
		AppendTo(ctx context.Context, f File, flags CreateFlags) (io.WriteCloser, error)
	}
	CreateImpl interface {
		Create(ctx context.Context, f File, flags CreateFlags) (io.WriteCloser, error)
	}
	ReplaceImpl interface {
		Replace(ctx context.Context, f File, etag string, makeBackup bool, flags CreateFlags) (io.WriteCloser, error)
	}
	DeleteImpl interface {
		Delete(ctx context.Context, f File) error
	}
	TrashImpl interface {
		Trash(ctx context.Context, f File) error
	}
	MakeDirectoryImpl interface {
		MakeDirectory(ctx context.Context, f File) error
	}
	MakeSymbolicLinkImpl interface {
		MakeSymbolicLink(ctx context.Context, f File, target string) error
	}

	// CopyImpl is called with the endpoint of the implementing class as
	// either src or dst.
	CopyImpl interface {
		Copy(ctx context.Context, src, dst File, flags CopyFlags, progress ProgressFunc) error
	}
	MoveImpl interface {
		Move(ctx context.Context, src, dst File, flags CopyFlags, progress ProgressFunc) error
	}

	MountMountableImpl interface {
		MountMountable(ctx context.Context, f File, flags MountFlags, cb task.Callback)
		MountMountableFinish(f File, res task.AsyncResult) (File, error)
	}
	UnmountMountableImpl interface {
		UnmountMountable(ctx context.Context, f File, flags UnmountFlags, cb task.Callback)
		UnmountMountableFinish(f File, res task.AsyncResult) error
	}

	MeasureDiskUsageImpl interface {
		MeasureDiskUsage(ctx context.Context, f File, flags MeasureFlags, progress MeasureProgressFunc) (DiskUsage, error)
	}
	QueryExistsImpl interface {
		QueryExists(ctx context.Context, f File) bool
	}
)

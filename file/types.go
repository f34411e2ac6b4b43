package file

import "strings"

// FileType classifies what a file is.
type FileType uint32

const (
	TypeUnknown FileType = iota
	TypeRegular
	TypeDirectory
	TypeSymbolicLink
	TypeSpecial
	TypeShortcut
	TypeMountable
)

func (t FileType) String() string {
	switch t {
	case TypeRegular:
		return "regular"
	case TypeDirectory:
		return "directory"
	case TypeSymbolicLink:
		return "symbolic-link"
	case TypeSpecial:
		return "special"
	case TypeShortcut:
		return "shortcut"
	case TypeMountable:
		return "mountable"
	}
	return "unknown"
}

// CopyFlags modify Copy and Move.
type CopyFlags uint32

const (
	CopyNone      CopyFlags = 0
	CopyOverwrite CopyFlags = 1 << (iota - 1)
	CopyBackup
	CopyNoFollowSymlinks
	CopyAllMetadata
	CopyNoFallbackForMove
	CopyTargetDefaultPerms
)

// Has reports whether all bits of f2 are set.
func (f CopyFlags) Has(f2 CopyFlags) bool { return f&f2 == f2 }

// QueryInfoFlags modify attribute queries.
type QueryInfoFlags uint32

const (
	QueryInfoNone             QueryInfoFlags = 0
	QueryInfoNoFollowSymlinks QueryInfoFlags = 1
)

// CreateFlags modify Create, Replace and AppendTo.
type CreateFlags uint32

const (
	CreateNone               CreateFlags = 0
	CreatePrivate            CreateFlags = 1
	CreateReplaceDestination CreateFlags = 2
)

// Has reports whether all bits of f2 are set.
func (f CreateFlags) Has(f2 CreateFlags) bool { return f&f2 == f2 }

// MeasureFlags modify MeasureDiskUsage.
type MeasureFlags uint32

const (
	MeasureNone           MeasureFlags = 0
	MeasureReportAnyError MeasureFlags = 1 << (iota - 1)
	MeasureApparentSize
	MeasureNoXdev
)

// Has reports whether all bits of f2 are set.
func (f MeasureFlags) Has(f2 MeasureFlags) bool { return f&f2 == f2 }

// MountFlags modify MountMountable.
type MountFlags uint32

// UnmountFlags modify UnmountMountable.
type UnmountFlags uint32

const UnmountForce UnmountFlags = 1

// AttributeType is the type of an attribute value.
type AttributeType uint32

const (
	AttributeInvalid AttributeType = iota
	AttributeString
	AttributeByteString
	AttributeBoolean
	AttributeUint32
	AttributeInt32
	AttributeUint64
	AttributeInt64
	AttributeObject
	AttributeStringv
)

func (t AttributeType) String() string {
	names := [...]string{"invalid", "string", "bytestring", "boolean", "uint32", "int32", "uint64", "int64", "object", "stringv"}
	if int(t) < len(names) {
		return names[t]
	}
	return "invalid"
}

// AttributeInfoFlags describe how an attribute is copied.
type AttributeInfoFlags uint32

const (
	AttributeInfoNone          AttributeInfoFlags = 0
	AttributeInfoCopyWithFile  AttributeInfoFlags = 1
	AttributeInfoCopyWhenMoved AttributeInfoFlags = 2
)

// AttributeInfo describes a settable attribute or writable namespace.
type AttributeInfo struct {
	Name  string
	Type  AttributeType
	Flags AttributeInfoFlags
}

// DiskUsage is the result of MeasureDiskUsage.
type DiskUsage struct {
	Size  uint64
	Dirs  uint64
	Files uint64
}

// ProgressFunc reports copy progress in bytes.
type ProgressFunc func(current, total int64)

// MeasureProgressFunc reports disk usage progress. reporting is false for the
// final call.
type MeasureProgressFunc func(reporting bool, size, dirs, files uint64)

// Mount is a mounted volume as returned by FindEnclosingMount.
type Mount interface {
	Name() string
	// Root returns the mount's root. The handle is borrowed.
	Root() File
}

// Well known attribute names.
const (
	AttributeStandardType          = "standard::type"
	AttributeStandardName          = "standard::name"
	AttributeStandardDisplayName   = "standard::display-name"
	AttributeStandardSize          = "standard::size"
	AttributeStandardIsHidden      = "standard::is-hidden"
	AttributeStandardSymlinkTarget = "standard::symlink-target"
	AttributeTimeModified          = "time::modified"
	AttributeUnixMode              = "unix::mode"
	AttributeFilesystemType        = "filesystem::type"
	AttributeFilesystemSize        = "filesystem::size"
	AttributeFilesystemFree        = "filesystem::free"
	AttributeFilesystemReadonly    = "filesystem::readonly"
)

// attributeMatcher matches "ns::name" keys against a comma separated query
// such as "standard::*,time::modified" or "*".
type attributeMatcher struct {
	all        bool
	namespaces map[string]bool
	keys       map[string]bool
}

func newAttributeMatcher(query string) attributeMatcher {
	m := attributeMatcher{namespaces: map[string]bool{}, keys: map[string]bool{}}
	for _, part := range strings.Split(query, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case part == "*":
			m.all = true
		case strings.HasSuffix(part, "::*"):
			m.namespaces[strings.TrimSuffix(part, "::*")] = true
		default:
			m.keys[part] = true
		}
	}
	return m
}

func (m attributeMatcher) matches(key string) bool {
	if m.all || m.keys[key] {
		return true
	}
	ns, _, ok := strings.Cut(key, "::")
	return ok && m.namespaces[ns]
}

package file

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/wippyai/gobject-runtime/errors"
	"github.com/wippyai/gobject-runtime/gtype"
	"github.com/wippyai/gobject-runtime/object"
	"github.com/wippyai/gobject-runtime/param"
	"github.com/wippyai/gobject-runtime/value"
)

// AttributeEtagValue identifies a version of a file's content. Replace
// compares it against the etag it is given.
const AttributeEtagValue = "etag::value"

var (
	localType gtype.Type
	localOnce sync.Once
)

// LocalType returns the final class of files on the local filesystem. Its
// construct-only "path" property holds the absolute path.
func LocalType() gtype.Type {
	localOnce.Do(func() {
		localType = object.MustRegisterType(object.TypeInfo{
			Name:  "GLocalFile",
			Flags: gtype.FlagFinal,
			Properties: []*param.Spec{
				param.NewString("path", "Path", "Absolute local path", "",
					param.FlagReadable|param.FlagWritable|param.FlagConstructOnly),
			},
			NewImpl:    func() any { return &localFile{} },
			Interfaces: []object.InterfaceImpl{Implementation[*localFile]()},
		})
	})
	return localType
}

// NewForPath returns a local file for path. Relative paths are resolved
// against the working directory.
func NewForPath(path string) File {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	} else {
		path = filepath.Clean(path)
	}
	return File{object.MustNew(LocalType(), object.P("path", path))}
}

// NewForURI returns a local file for a file:// URI.
func NewForURI(uri string) (File, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return File{}, errors.Wrap(errors.PhaseIO, errors.KindInvalidArgument, err, "invalid URI "+strconv.Quote(uri))
	}
	if !strings.EqualFold(u.Scheme, "file") {
		return File{}, errors.IO(errors.KindNotSupported, fmt.Sprintf("URI scheme %q is not supported", u.Scheme))
	}
	if u.Host != "" && u.Host != "localhost" {
		return File{}, errors.IO(errors.KindInvalidArgument, fmt.Sprintf("URI %q names a remote host", uri))
	}
	return NewForPath(filepath.FromSlash(u.Path)), nil
}

type localFile struct {
	mu   sync.RWMutex
	path string
}

func (l *localFile) SetProperty(_ object.Object, spec *param.Spec, v value.Value) {
	if spec.Name() == "path" {
		l.mu.Lock()
		l.path = v.Str()
		l.mu.Unlock()
	}
}

func (l *localFile) Property(_ object.Object, spec *param.Spec) value.Value {
	if spec.Name() == "path" {
		return value.From(l.pathOf())
	}
	return value.Value{}
}

func (l *localFile) pathOf() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.path
}

func localPath(f File) string {
	return implAt[*localFile](f, LocalType()).pathOf()
}

// pathOf returns the local path of any file, or false.
func pathOf(f File) (string, bool) {
	if f.IsA(LocalType()) {
		return localPath(f), true
	}
	return f.Path()
}

func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Cancelled(errors.PhaseIO, err)
	}
	return nil
}

// isBelow reports whether p is strictly inside dir.
func isBelow(p, dir string) bool {
	if p == dir {
		return false
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return strings.HasPrefix(p, dir)
}

func (l *localFile) Dup(File) File { return NewForPath(l.pathOf()) }

func (l *localFile) Hash(File) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(l.pathOf()))
	return h.Sum32()
}

func (l *localFile) Equal(_, other File) bool {
	p, ok := pathOf(other)
	return ok && p == l.pathOf()
}

func (l *localFile) IsNative(File) bool { return true }

func (l *localFile) HasURIScheme(_ File, scheme string) bool { return strings.EqualFold(scheme, "file") }

func (l *localFile) URIScheme(File) (string, bool) { return "file", true }

func (l *localFile) Basename(File) (string, bool) { return filepath.Base(l.pathOf()), true }

func (l *localFile) Path(File) (string, bool) { return l.pathOf(), true }

func (l *localFile) URI(File) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(l.pathOf())}
	if !strings.HasPrefix(u.Path, "/") {
		u.Path = "/" + u.Path
	}
	return u.String()
}

func (l *localFile) ParseName(File) string { return l.pathOf() }

func (l *localFile) Parent(File) (File, bool) {
	p := l.pathOf()
	dir := filepath.Dir(p)
	if dir == p {
		return File{}, false
	}
	return NewForPath(dir), true
}

func (l *localFile) HasPrefix(_, prefix File) bool {
	pp, ok := pathOf(prefix)
	return ok && isBelow(l.pathOf(), pp)
}

func (l *localFile) RelativePath(_, descendant File) (string, bool) {
	dp, ok := pathOf(descendant)
	if !ok || !isBelow(dp, l.pathOf()) {
		return "", false
	}
	rel, err := filepath.Rel(l.pathOf(), dp)
	return rel, err == nil
}

func (l *localFile) ResolveRelativePath(_ File, relative string) File {
	if filepath.IsAbs(relative) {
		return NewForPath(relative)
	}
	return NewForPath(filepath.Join(l.pathOf(), relative))
}

func (l *localFile) ChildForDisplayName(f File, name string) (File, error) {
	if name == "" || !utf8.ValidString(name) || strings.ContainsRune(name, filepath.Separator) || strings.ContainsRune(name, '/') {
		return File{}, errors.IO(errors.KindInvalidFilename, fmt.Sprintf("Invalid filename %s", name))
	}
	return f.ResolveRelativePath(name), nil
}

func (l *localFile) EnumerateChildren(ctx context.Context, _ File, attributes string, flags QueryInfoFlags) (Enumerator, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	dir := l.pathOf()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, mapOSError(err)
	}
	m := newAttributeMatcher(attributes)
	infos := make([]*FileInfo, 0, len(entries))
	for _, e := range entries {
		info, err := statInfo(filepath.Join(dir, e.Name()), m, flags)
		if err != nil {
			// Entries removed while listing are skipped.
			if errors.IsKind(err, errors.KindNotFound) {
				continue
			}
			return nil, err
		}
		infos = append(infos, info)
	}
	return NewListEnumerator(infos), nil
}

func (l *localFile) QueryInfo(ctx context.Context, _ File, attributes string, flags QueryInfoFlags) (*FileInfo, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	return statInfo(l.pathOf(), newAttributeMatcher(attributes), flags)
}

func statInfo(path string, m attributeMatcher, flags QueryInfoFlags) (*FileInfo, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return nil, mapOSError(err)
	}
	isLink := fi.Mode()&fs.ModeSymlink != 0
	if isLink && flags&QueryInfoNoFollowSymlinks == 0 {
		// A dangling link is still reported, as the link itself.
		if target, err := os.Stat(path); err == nil {
			fi = target
		}
	}

	info := NewFileInfo()
	name := filepath.Base(path)
	set := func(key string, v any) {
		if m.matches(key) {
			info.SetAttribute(key, v)
		}
	}
	set(AttributeStandardName, name)
	set(AttributeStandardDisplayName, name)
	set(AttributeStandardType, fileTypeOf(fi.Mode()))
	set(AttributeStandardSize, fi.Size())
	set(AttributeStandardIsHidden, strings.HasPrefix(name, "."))
	set(AttributeTimeModified, fi.ModTime())
	set(AttributeUnixMode, uint32(fi.Mode().Perm()))
	set(AttributeEtagValue, etagOf(fi))
	if isLink && m.matches(AttributeStandardSymlinkTarget) {
		if target, err := os.Readlink(path); err == nil {
			info.SetAttribute(AttributeStandardSymlinkTarget, target)
		}
	}
	return info, nil
}

func fileTypeOf(mode fs.FileMode) FileType {
	switch {
	case mode.IsRegular():
		return TypeRegular
	case mode.IsDir():
		return TypeDirectory
	case mode&fs.ModeSymlink != 0:
		return TypeSymbolicLink
	}
	return TypeSpecial
}

func etagOf(fi fs.FileInfo) string {
	return strconv.FormatInt(fi.ModTime().UnixNano(), 10) + ":" + strconv.FormatInt(fi.Size(), 10)
}

func (l *localFile) QueryFilesystemInfo(ctx context.Context, _ File, attributes string) (*FileInfo, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	st, err := statFilesystem(l.pathOf())
	if err != nil {
		return nil, mapOSError(err)
	}
	m := newAttributeMatcher(attributes)
	info := NewFileInfo()
	for key, v := range map[string]any{
		AttributeFilesystemType:     st.fsType,
		AttributeFilesystemSize:     st.size,
		AttributeFilesystemFree:     st.free,
		AttributeFilesystemReadonly: st.readonly,
	} {
		if m.matches(key) {
			info.SetAttribute(key, v)
		}
	}
	return info, nil
}

func (l *localFile) SetDisplayName(ctx context.Context, f File, name string) (File, error) {
	if err := ctxErr(ctx); err != nil {
		return File{}, err
	}
	parent, ok := f.Parent()
	if !ok {
		return File{}, errors.IO(errors.KindInvalidArgument, "Can't rename root directory")
	}
	defer parent.Unref()
	target, err := parent.ChildForDisplayName(name)
	if err != nil {
		return File{}, err
	}
	newPath := localPath(target)
	if _, err := os.Lstat(newPath); err == nil && newPath != l.pathOf() {
		target.Unref()
		return File{}, errors.IO(errors.KindExists, "Can't rename file, filename already exists")
	}
	if err := os.Rename(l.pathOf(), newPath); err != nil {
		target.Unref()
		return File{}, mapOSError(err)
	}
	return target, nil
}

func (l *localFile) QuerySettableAttributes(ctx context.Context, _ File) ([]AttributeInfo, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	return []AttributeInfo{
		{Name: AttributeUnixMode, Type: AttributeUint32, Flags: AttributeInfoCopyWithFile | AttributeInfoCopyWhenMoved},
		{Name: AttributeTimeModified, Type: AttributeUint64, Flags: AttributeInfoCopyWithFile | AttributeInfoCopyWhenMoved},
	}, nil
}

func (l *localFile) QueryWritableNamespaces(ctx context.Context, _ File) ([]AttributeInfo, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	return []AttributeInfo{
		{Name: "unix", Type: AttributeUint32, Flags: AttributeInfoCopyWithFile},
		{Name: "time", Type: AttributeUint64, Flags: AttributeInfoCopyWithFile},
	}, nil
}

func (l *localFile) SetAttribute(ctx context.Context, _ File, attribute string, v any, _ QueryInfoFlags) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	switch attribute {
	case AttributeUnixMode:
		mode, ok := v.(uint32)
		if !ok {
			return errors.IO(errors.KindInvalidArgument, fmt.Sprintf("Invalid attribute type for %s (uint32 expected)", attribute))
		}
		return mapOSError(os.Chmod(l.pathOf(), fs.FileMode(mode).Perm()))
	case AttributeTimeModified:
		mtime, ok := v.(time.Time)
		if !ok {
			return errors.IO(errors.KindInvalidArgument, fmt.Sprintf("Invalid attribute type for %s (time expected)", attribute))
		}
		return mapOSError(os.Chtimes(l.pathOf(), time.Time{}, mtime))
	}
	return errors.IO(errors.KindNotSupported, fmt.Sprintf("Setting attribute %s not supported", attribute))
}

func (l *localFile) Read(ctx context.Context, _ File) (io.ReadCloser, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	fh, err := os.Open(l.pathOf())
	if err != nil {
		return nil, mapOSError(err)
	}
	if fi, err := fh.Stat(); err == nil && fi.IsDir() {
		fh.Close()
		return nil, errors.IO(errors.KindIsDirectory, "Can't open directory")
	}
	return fh, nil
}

func perm(flags CreateFlags) fs.FileMode {
	if flags.Has(CreatePrivate) {
		return 0o600
	}
	return 0o666
}

func (l *localFile) AppendTo(ctx context.Context, _ File, flags CreateFlags) (io.WriteCloser, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	fh, err := os.OpenFile(l.pathOf(), os.O_WRONLY|os.O_APPEND|os.O_CREATE, perm(flags))
	if err != nil {
		return nil, mapOSError(err)
	}
	return fh, nil
}

func (l *localFile) Create(ctx context.Context, _ File, flags CreateFlags) (io.WriteCloser, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	fh, err := os.OpenFile(l.pathOf(), os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm(flags))
	if err != nil {
		return nil, mapOSError(err)
	}
	return fh, nil
}

func (l *localFile) Replace(ctx context.Context, _ File, etag string, makeBackup bool, flags CreateFlags) (io.WriteCloser, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	p := l.pathOf()
	fi, err := os.Lstat(p)
	switch {
	case err == nil && fi.IsDir():
		return nil, errors.IO(errors.KindIsDirectory, "Target file is a directory")
	case err == nil:
		if etag != "" && etag != etagOf(fi) {
			return nil, errors.IO(errors.KindFailed, "The file was externally modified")
		}
		if makeBackup {
			if err := os.Rename(p, p+"~"); err != nil {
				return nil, errors.Wrap(errors.PhaseIO, errors.KindFailed, err, "Backup file creation failed")
			}
		}
	case !os.IsNotExist(err):
		return nil, mapOSError(err)
	}
	fh, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm(flags))
	if err != nil {
		return nil, mapOSError(err)
	}
	return fh, nil
}

func (l *localFile) Delete(ctx context.Context, _ File) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	return mapOSError(os.Remove(l.pathOf()))
}

func (l *localFile) MakeDirectory(ctx context.Context, _ File) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	return mapOSError(os.Mkdir(l.pathOf(), 0o777))
}

func (l *localFile) MakeSymbolicLink(ctx context.Context, _ File, target string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if target == "" {
		return errors.IO(errors.KindInvalidArgument, "Invalid symlink value given")
	}
	return mapOSError(os.Symlink(target, l.pathOf()))
}

// Move renames between two local files. Anything else, including a rename
// across devices, reports not_supported so callers fall back to copying.
func (l *localFile) Move(ctx context.Context, src, dst File, flags CopyFlags, progress ProgressFunc) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if !src.IsA(LocalType()) || !dst.IsA(LocalType()) {
		return notSupported()
	}
	from, to := localPath(src), localPath(dst)
	sfi, err := os.Lstat(from)
	if err != nil {
		return mapOSError(err)
	}
	if dfi, err := os.Lstat(to); err == nil {
		switch {
		case !flags.Has(CopyOverwrite):
			return errors.IO(errors.KindExists, "Target file exists")
		case dfi.IsDir() && sfi.IsDir():
			return errors.IO(errors.KindWouldMerge, "Can't move directory over directory")
		case dfi.IsDir():
			return errors.IO(errors.KindIsDirectory, "Can't move over directory")
		}
		if flags.Has(CopyBackup) {
			if err := os.Rename(to, to+"~"); err != nil {
				return errors.Wrap(errors.PhaseIO, errors.KindFailed, err, "Backup file creation failed")
			}
		}
	}
	if err := os.Rename(from, to); err != nil {
		return mapOSError(err)
	}
	if progress != nil {
		progress(sfi.Size(), sfi.Size())
	}
	return nil
}

func (l *localFile) MeasureDiskUsage(ctx context.Context, _ File, flags MeasureFlags, progress MeasureProgressFunc) (DiskUsage, error) {
	root := l.pathOf()
	rootInfo, err := os.Lstat(root)
	if err != nil {
		return DiskUsage{}, mapOSError(err)
	}
	rootDev, _ := deviceOf(rootInfo)

	var usage DiskUsage
	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if cerr := ctxErr(ctx); cerr != nil {
			return cerr
		}
		if err != nil {
			if p == root || flags.Has(MeasureReportAnyError) {
				return mapOSError(err)
			}
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			if flags.Has(MeasureReportAnyError) {
				return mapOSError(err)
			}
			return nil
		}
		if flags.Has(MeasureNoXdev) && p != root {
			if dev, ok := deviceOf(fi); ok && dev != rootDev {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}
		if flags.Has(MeasureApparentSize) {
			usage.Size += uint64(fi.Size())
		} else {
			usage.Size += allocatedSize(fi)
		}
		if d.IsDir() {
			usage.Dirs++
			if progress != nil {
				progress(true, usage.Size, usage.Dirs, usage.Files)
			}
		} else {
			usage.Files++
		}
		return nil
	})
	if walkErr != nil {
		return DiskUsage{}, walkErr
	}
	if progress != nil {
		progress(false, usage.Size, usage.Dirs, usage.Files)
	}
	return usage, nil
}

func (l *localFile) QueryExists(ctx context.Context, _ File) bool {
	if ctx.Err() != nil {
		return false
	}
	_, err := os.Lstat(l.pathOf())
	return err == nil
}

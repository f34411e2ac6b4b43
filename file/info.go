package file

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wippyai/gobject-runtime/errors"
)

// FileInfo is a set of "namespace::name" attributes about a file.
type FileInfo struct {
	attrs map[string]any
	mu    sync.RWMutex
}

// NewFileInfo returns an empty FileInfo.
func NewFileInfo() *FileInfo {
	return &FileInfo{attrs: make(map[string]any)}
}

// SetAttribute stores v under key. A nil v removes the attribute.
func (i *FileInfo) SetAttribute(key string, v any) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if v == nil {
		delete(i.attrs, key)
		return
	}
	i.attrs[key] = v
}

// Attribute returns the raw value stored under key.
func (i *FileInfo) Attribute(key string) (any, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	v, ok := i.attrs[key]
	return v, ok
}

// HasAttribute reports whether key is set.
func (i *FileInfo) HasAttribute(key string) bool {
	_, ok := i.Attribute(key)
	return ok
}

// AttributeString formats the value under key, or returns "".
func (i *FileInfo) AttributeString(key string) string {
	v, ok := i.Attribute(key)
	if !ok {
		return ""
	}
	switch v := v.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ",")
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}

// ListAttributes returns the sorted keys in namespace, or all keys when
// namespace is empty.
func (i *FileInfo) ListAttributes(namespace string) []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	var keys []string
	for k := range i.attrs {
		if namespace == "" || strings.HasPrefix(k, namespace+"::") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (i *FileInfo) Name() string          { return i.AttributeString(AttributeStandardName) }
func (i *FileInfo) SetName(name string)   { i.SetAttribute(AttributeStandardName, name) }
func (i *FileInfo) DisplayName() string   { return i.AttributeString(AttributeStandardDisplayName) }
func (i *FileInfo) SymlinkTarget() string { return i.AttributeString(AttributeStandardSymlinkTarget) }

// FileType returns standard::type, or TypeUnknown.
func (i *FileInfo) FileType() FileType {
	v, _ := i.Attribute(AttributeStandardType)
	t, _ := v.(FileType)
	return t
}

func (i *FileInfo) SetFileType(t FileType) { i.SetAttribute(AttributeStandardType, t) }

// Size returns standard::size, or 0.
func (i *FileInfo) Size() int64 {
	v, _ := i.Attribute(AttributeStandardSize)
	n, _ := v.(int64)
	return n
}

func (i *FileInfo) SetSize(n int64) { i.SetAttribute(AttributeStandardSize, n) }

// ModificationTime returns time::modified, or the zero time.
func (i *FileInfo) ModificationTime() time.Time {
	v, _ := i.Attribute(AttributeTimeModified)
	t, _ := v.(time.Time)
	return t
}

func (i *FileInfo) SetModificationTime(t time.Time) { i.SetAttribute(AttributeTimeModified, t) }

// IsHidden returns standard::is-hidden.
func (i *FileInfo) IsHidden() bool {
	v, _ := i.Attribute(AttributeStandardIsHidden)
	b, _ := v.(bool)
	return b
}

// Enumerator iterates the children of a directory.
type Enumerator interface {
	// Next returns the next child, or nil at the end.
	Next(ctx context.Context) (*FileInfo, error)
	Close() error
}

type listEnumerator struct {
	infos  []*FileInfo
	mu     sync.Mutex
	pos    int
	closed bool
}

// NewListEnumerator enumerates a fixed list of infos.
func NewListEnumerator(infos []*FileInfo) Enumerator {
	return &listEnumerator{infos: infos}
}

func (e *listEnumerator) Next(ctx context.Context) (*FileInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errors.IO(errors.KindClosed, "Enumerator is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Cancelled(errors.PhaseIO, err)
	}
	if e.pos >= len(e.infos) {
		return nil, nil
	}
	info := e.infos[e.pos]
	e.pos++
	return info, nil
}

func (e *listEnumerator) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	return nil
}

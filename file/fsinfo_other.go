//go:build !linux

package file

import (
	"io/fs"

	"github.com/wippyai/gobject-runtime/errors"
)

type fsStat struct {
	fsType   string
	size     uint64
	free     uint64
	readonly bool
}

func statFilesystem(string) (fsStat, error) {
	return fsStat{}, errors.NotSupported(errors.PhaseIO, "Filesystem info is not supported on this platform")
}

func deviceOf(fs.FileInfo) (uint64, bool) { return 0, false }

func allocatedSize(fi fs.FileInfo) uint64 { return uint64(fi.Size()) }

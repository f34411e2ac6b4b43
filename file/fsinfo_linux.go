package file

import (
	"io/fs"
	"syscall"

	"golang.org/x/sys/unix"
)

type fsStat struct {
	fsType   string
	size     uint64
	free     uint64
	readonly bool
}

var fsMagic = map[int64]string{
	0xEF53:     "ext4",
	0x01021994: "tmpfs",
	0x9123683E: "btrfs",
	0x58465342: "xfs",
	0x6969:     "nfs",
	0x794C7630: "overlayfs",
	0x65735546: "fuse",
	0x2FC12FC1: "zfs",
}

func statFilesystem(path string) (fsStat, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return fsStat{}, &fs.PathError{Op: "statfs", Path: path, Err: err}
	}
	name, ok := fsMagic[int64(st.Type)]
	if !ok {
		name = "unknown"
	}
	bsize := uint64(st.Bsize)
	return fsStat{
		fsType:   name,
		size:     st.Blocks * bsize,
		free:     st.Bavail * bsize,
		readonly: uint64(st.Flags)&unix.ST_RDONLY != 0,
	}, nil
}

func deviceOf(fi fs.FileInfo) (uint64, bool) {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	return uint64(st.Dev), true
}

func allocatedSize(fi fs.FileInfo) uint64 {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return uint64(fi.Size())
	}
	return uint64(st.Blocks) * 512
}

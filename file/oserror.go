package file

import (
	stderrors "errors"
	"os"
	"syscall"

	"github.com/wippyai/gobject-runtime/errors"
)

// mapOSError converts an os error into an io-phase error of the closest
// kind. The original error stays reachable through Unwrap.
func mapOSError(err error) error {
	if err == nil {
		return nil
	}
	var e *errors.Error
	if stderrors.As(err, &e) {
		return err
	}
	kind := errors.KindFailed
	var errno syscall.Errno
	switch {
	case stderrors.As(err, &errno):
		kind = kindOfErrno(errno)
	case os.IsNotExist(err):
		kind = errors.KindNotFound
	case os.IsPermission(err):
		kind = errors.KindPermissionDenied
	case os.IsExist(err):
		kind = errors.KindExists
	}
	return errors.Wrap(errors.PhaseIO, kind, err, detailOf(err))
}

func kindOfErrno(errno syscall.Errno) errors.Kind {
	switch errno {
	case syscall.EACCES, syscall.EPERM, syscall.EROFS:
		return errors.KindPermissionDenied
	case syscall.ENOENT:
		return errors.KindNotFound
	case syscall.EEXIST:
		return errors.KindExists
	case syscall.ENOTDIR:
		return errors.KindNotDirectory
	case syscall.EISDIR:
		return errors.KindIsDirectory
	case syscall.ENOTEMPTY:
		return errors.KindNotEmpty
	case syscall.ENAMETOOLONG:
		return errors.KindInvalidFilename
	case syscall.EINVAL:
		return errors.KindInvalidArgument
	case syscall.EXDEV, syscall.ENOSYS:
		return errors.KindNotSupported
	}
	return errors.KindFailed
}

func detailOf(err error) string {
	var pathErr *os.PathError
	if stderrors.As(err, &pathErr) {
		return pathErr.Op + " " + pathErr.Path + ": " + pathErr.Err.Error()
	}
	return err.Error()
}

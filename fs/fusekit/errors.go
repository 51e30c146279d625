package fusekit

import (
	"errors"
	"fmt"
	"log/slog"
	"syscall"

	"tractor.dev/memfile/fs"
)

func sysErrno(log *slog.Logger, err error) syscall.Errno {
	if err == nil {
		return 0
	}

	var errno syscall.Errno
	switch {
	case errors.As(err, &errno):
		return errno
	case errors.Is(err, fs.ErrNotSupported):
		return syscall.EOPNOTSUPP
	case errors.Is(err, fs.ErrExist):
		return syscall.EEXIST
	case errors.Is(err, fs.ErrNotExist):
		return syscall.ENOENT
	case errors.Is(err, fs.ErrPermission):
		return syscall.EPERM
	case errors.Is(err, fs.ErrClosed):
		return syscall.EBADF
	case errors.Is(err, fs.ErrInvalid):
		return syscall.EINVAL
	}

	log.Debug("unmapped error", "type", fmt.Sprintf("%T", err), "err", err)
	return syscall.EIO
}

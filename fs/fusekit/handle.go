package fusekit

import (
	"context"
	"io"
	"log/slog"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"tractor.dev/memfile/vfs"
)

type handle struct {
	h    *vfs.Handle
	path string
	log  *slog.Logger
}

var _ = (fs.FileReader)((*handle)(nil))

func (h *handle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	n, err := h.h.ReadAt(dest, off)
	if err != nil && err != io.EOF {
		return nil, sysErrno(h.log, err)
	}
	return fuse.ReadResultData(dest[:n]), 0
}

var _ = (fs.FileWriter)((*handle)(nil))

func (h *handle) Write(ctx context.Context, data []byte, off int64) (uint32, syscall.Errno) {
	n, err := h.h.WriteAt(data, off)
	if err != nil {
		return 0, sysErrno(h.log, err)
	}
	return uint32(n), 0
}

var _ = (fs.FileGetattrer)((*handle)(nil))

func (h *handle) Getattr(ctx context.Context, out *fuse.AttrOut) syscall.Errno {
	fi, err := h.h.Stat()
	if err != nil {
		return sysErrno(h.log, err)
	}
	applyStat(&out.Attr, h.path, fi)
	return 0
}

var _ = (fs.FileFlusher)((*handle)(nil))

func (h *handle) Flush(ctx context.Context) syscall.Errno {
	return 0
}

var _ = (fs.FileFsyncer)((*handle)(nil))

func (h *handle) Fsync(ctx context.Context, flags uint32) syscall.Errno {
	return sysErrno(h.log, h.h.Sync())
}

var _ = (fs.FileReleaser)((*handle)(nil))

func (h *handle) Release(ctx context.Context) syscall.Errno {
	return sysErrno(h.log, h.h.Close())
}

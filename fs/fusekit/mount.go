// Package fusekit mounts the files of a vfs.FS as a FUSE filesystem so
// ordinary processes can read and write them by path.
package fusekit

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"tractor.dev/memfile/vfs"
)

type mount struct {
	*fuse.Server
}

func (m *mount) Close() error {
	return m.Server.Unmount()
}

// Mount serves virt at mountpoint until the returned Closer is closed. A
// canonical path "/a/b" appears as mountpoint/a/b. A nil logger discards.
func Mount(virt *vfs.FS, mountpoint string, logger *slog.Logger) (io.Closer, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	// Clear a stale mount left by a previous run.
	exec.Command("umount", mountpoint).Run()

	if err := os.MkdirAll(mountpoint, 0755); err != nil {
		return nil, fmt.Errorf("fusekit: %w", err)
	}

	opts := &fs.Options{
		UID: uint32(os.Getuid()),
		GID: uint32(os.Getgid()),
	}
	opts.FsName = "memfile"
	opts.Name = "memfile"

	root := &node{virt: virt, tree: virt.Tree(), path: ".", log: logger}
	server, err := fs.Mount(mountpoint, root, opts)
	if err != nil {
		return nil, fmt.Errorf("fusekit: mount %s: %w", mountpoint, err)
	}
	logger.Debug("mounted", "path", mountpoint)
	return &mount{Server: server}, nil
}

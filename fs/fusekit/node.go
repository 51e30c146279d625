package fusekit

import (
	"context"
	"log/slog"
	"os"
	"path"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	iofs "tractor.dev/memfile/fs"
	"tractor.dev/memfile/fs/pstat"
	"tractor.dev/memfile/vfs"
)

// node is a file or synthesized directory of a virtual tree. path is the
// name within the tree, "." for the root.
type node struct {
	fs.Inode
	virt *vfs.FS
	tree *vfs.Tree
	path string
	log  *slog.Logger
}

func (n *node) canonical() string {
	return "/" + n.child("")
}

func (n *node) child(name string) string {
	if n.path == "." {
		return name
	}
	return path.Join(n.path, name)
}

func (n *node) stat(name string) (iofs.FileInfo, error) {
	return n.tree.Stat(name)
}

var _ = (fs.NodeGetattrer)((*node)(nil))

func (n *node) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	fi, err := n.stat(n.path)
	if err != nil {
		return sysErrno(n.log, err)
	}
	applyStat(&out.Attr, n.path, fi)
	return 0
}

var _ = (fs.NodeSetattrer)((*node)(nil))

// Setattr applies size changes. Mode, owner, and times of virtual files are
// fixed at registration and other changes are ignored.
func (n *node) Setattr(ctx context.Context, fh fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	if size, ok := in.GetSize(); ok {
		if err := n.virt.Truncate(n.canonical(), int64(size)); err != nil {
			return sysErrno(n.log, err)
		}
	}
	return n.Getattr(ctx, fh, out)
}

var _ = (fs.NodeReaddirer)((*node)(nil))

func (n *node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	entries, err := n.tree.ReadDir(n.path)
	if err != nil {
		return nil, sysErrno(n.log, err)
	}
	fentries := make([]fuse.DirEntry, 0, len(entries))
	for _, entry := range entries {
		p := n.child(entry.Name())
		fentries = append(fentries, fuse.DirEntry{
			Name: entry.Name(),
			Mode: pstat.FileModeToUnixMode(entry.Type()),
			Ino:  fakeIno(p),
		})
	}
	return fs.NewListDirStream(fentries), 0
}

var _ = (fs.NodeLookuper)((*node)(nil))

func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	p := n.child(name)
	fi, err := n.stat(p)
	if err != nil {
		return nil, sysErrno(n.log, err)
	}
	applyStat(&out.Attr, p, fi)
	return n.newChild(ctx, p, fi), 0
}

func (n *node) newChild(ctx context.Context, p string, fi iofs.FileInfo) *fs.Inode {
	mode := uint32(fuse.S_IFREG)
	if fi.IsDir() {
		mode = fuse.S_IFDIR
	}
	return n.NewInode(ctx, &node{
		virt: n.virt,
		tree: n.tree,
		path: p,
		log:  n.log,
	}, fs.StableAttr{Mode: mode, Ino: fakeIno(p)})
}

var _ = (fs.NodeOpener)((*node)(nil))

func (n *node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	f, err := n.virt.OpenFile(n.canonical(), int(flags)&^os.O_CREATE, 0)
	n.log.Debug("open", "path", n.path, "flags", openFlags(flags), "err", err)
	if err != nil {
		return nil, 0, sysErrno(n.log, err)
	}
	// Content can change behind the kernel's back.
	return &handle{h: f.(*vfs.Handle), path: n.path, log: n.log}, fuse.FOPEN_DIRECT_IO, 0
}

var _ = (fs.NodeCreater)((*node)(nil))

func (n *node) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	p := n.child(name)
	f, err := n.virt.OpenFile("/"+p, int(flags)|os.O_CREATE, pstat.UnixModeToFileMode(mode).Perm())
	n.log.Debug("create", "path", p, "flags", openFlags(flags), "err", err)
	if err != nil {
		return nil, nil, 0, sysErrno(n.log, err)
	}
	h := f.(*vfs.Handle)
	fi, _ := h.Stat()
	applyStat(&out.Attr, p, fi)
	return n.newChild(ctx, p, fi), &handle{h: h, path: p, log: n.log}, fuse.FOPEN_DIRECT_IO, 0
}

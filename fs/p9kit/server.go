// Package p9kit exports virtual files over 9P2000.L. The tree seen by a
// client is the vfs.Tree of registered files and their synthesized parent
// directories; reads and writes go through vfs handles, so they are visible
// to every other view of the same files.
package p9kit

import (
	"context"
	"errors"
	"hash/fnv"
	"io"
	"log/slog"
	"net"
	"os"
	"path"

	"github.com/hugelgupf/p9/fsimpl/templatefs"
	"github.com/hugelgupf/p9/linux"
	"github.com/hugelgupf/p9/p9"
	"github.com/u-root/uio/ulog"

	"tractor.dev/memfile/fs"
	"tractor.dev/memfile/vfs"
)

type attacher struct {
	virt *vfs.FS
	tree *vfs.Tree
	log  *slog.Logger
}

var _ p9.Attacher = (*attacher)(nil)

// Attacher returns a p9.Attacher whose root is the tree of virt. A nil
// logger discards debug output.
func Attacher(virt *vfs.FS, logger *slog.Logger) p9.Attacher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &attacher{virt: virt, tree: virt.Tree(), log: logger}
}

// Attach implements p9.Attacher.Attach.
func (a *attacher) Attach() (p9.File, error) {
	return &p9file{a: a, path: "."}, nil
}

// Serve answers 9P connections accepted from l until ctx is done, then
// closes l. When trace is non-nil every message is logged to it.
func Serve(ctx context.Context, l net.Listener, virt *vfs.FS, logger *slog.Logger, trace ulog.Logger) error {
	var opts []p9.ServerOpt
	if trace != nil {
		opts = append(opts, p9.WithServerLogger(trace))
	}
	srv := p9.NewServer(Attacher(virt, logger), opts...)
	stop := context.AfterFunc(ctx, func() { l.Close() })
	defer stop()
	err := srv.Serve(l)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func qidPath(name string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return h.Sum64()
}

// p9file is a walked name in the tree. path is "." for the root. Once
// opened, file is set for a virtual file and dir holds the listing of a
// directory.
type p9file struct {
	templatefs.NotImplementedFile

	a    *attacher
	path string
	file *vfs.Handle
	dir  []fs.DirEntry
}

var _ p9.File = (*p9file)(nil)

func (l *p9file) canonical() string {
	if l.path == "." {
		return "/"
	}
	return "/" + l.path
}

// info constructs a QID for this file.
func (l *p9file) info() (p9.QID, fs.FileInfo, error) {
	fi, err := l.a.tree.Stat(l.path)
	if err != nil {
		return p9.QID{}, nil, errno(err)
	}
	// Version stays 0 so clients never cache content that can change
	// behind their back.
	qid := p9.QID{
		Type: p9.ModeFromOS(fi.Mode()).QIDType(),
		Path: qidPath(l.path),
	}
	return qid, fi, nil
}

// Walk implements p9.File.Walk.
func (l *p9file) Walk(names []string) ([]p9.QID, p9.File, error) {
	last := &p9file{a: l.a, path: l.path}
	if len(names) == 0 {
		return nil, last, nil
	}

	var qids []p9.QID
	for _, name := range names {
		c := &p9file{a: l.a, path: path.Join(last.path, name)}
		qid, _, err := c.info()
		if err != nil {
			return nil, nil, err
		}
		qids = append(qids, qid)
		last = c
	}
	return qids, last, nil
}

// Open implements p9.File.Open.
func (l *p9file) Open(mode p9.OpenFlags) (p9.QID, uint32, error) {
	qid, fi, err := l.info()
	if err != nil {
		return qid, 0, err
	}
	flag := int(mode)
	if fi.IsDir() {
		if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
			return qid, 0, linux.EISDIR
		}
		l.dir, err = l.a.tree.ReadDir(l.path)
		return qid, 0, errno(err)
	}

	f, err := l.a.virt.OpenFile(l.canonical(), flag&^(os.O_CREATE|os.O_EXCL), 0)
	l.a.log.Debug("open", "path", l.path, "flag", flag, "err", err)
	if err != nil {
		return qid, 0, errno(err)
	}
	l.file = f.(*vfs.Handle)
	return qid, 0, nil
}

// Create implements p9.File.Create.
func (l *p9file) Create(name string, mode p9.OpenFlags, permissions p9.FileMode, _ p9.UID, _ p9.GID) (p9.File, p9.QID, uint32, error) {
	newName := path.Join(l.path, name)
	child := &p9file{a: l.a, path: newName}
	f, err := l.a.virt.OpenFile(child.canonical(), int(mode)|os.O_CREATE|os.O_EXCL, fs.FileMode(permissions.Permissions()))
	l.a.log.Debug("create", "path", newName, "err", err)
	if err != nil {
		return nil, p9.QID{}, 0, errno(err)
	}
	child.file = f.(*vfs.Handle)

	qid, _, err := child.info()
	if err != nil {
		child.Close()
		return nil, p9.QID{}, 0, err
	}
	return child, qid, 0, nil
}

// ReadAt implements p9.File.ReadAt. A short read at the end of the file is
// not an error.
func (l *p9file) ReadAt(p []byte, offset int64) (int, error) {
	if l.file == nil {
		return 0, linux.EBADF
	}
	n, err := l.file.ReadAt(p, offset)
	if errors.Is(err, io.EOF) {
		err = nil
	}
	return n, errno(err)
}

// WriteAt implements p9.File.WriteAt.
func (l *p9file) WriteAt(p []byte, offset int64) (int, error) {
	if l.file == nil {
		return 0, linux.EBADF
	}
	n, err := l.file.WriteAt(p, offset)
	return n, errno(err)
}

// FSync implements p9.File.FSync.
func (l *p9file) FSync() error {
	if l.file == nil {
		return nil
	}
	return errno(l.file.Sync())
}

// Close implements p9.File.Close.
func (l *p9file) Close() error {
	if l.file != nil {
		// Clunk is the only caller and drops the last reference.
		return errno(l.file.Close())
	}
	return nil
}

// Readdir implements p9.File.Readdir. Offsets index the listing taken at
// Open.
func (l *p9file) Readdir(offset uint64, count uint32) (p9.Dirents, error) {
	if l.dir == nil {
		if l.file != nil {
			return nil, linux.ENOTDIR
		}
		return nil, linux.EBADF
	}
	var ents p9.Dirents
	for i := offset; i < uint64(len(l.dir)) && len(ents) < int(count); i++ {
		e := l.dir[i]
		c := &p9file{a: l.a, path: path.Join(l.path, e.Name())}
		qid, _, err := c.info()
		if err != nil {
			return ents, err
		}
		ents = append(ents, p9.Dirent{
			QID:    qid,
			Type:   qid.Type,
			Name:   e.Name(),
			Offset: i + 1,
		})
	}
	return ents, nil
}

// Renamed implements p9.File.Renamed.
func (l *p9file) Renamed(parent p9.File, newName string) {
	l.path = path.Join(parent.(*p9file).path, newName)
}

// StatFS implements p9.File.StatFS.
func (l *p9file) StatFS() (p9.FSStat, error) {
	return p9.FSStat{}, nil
}

// Lock implements p9.File.Lock. Locks are granted and never enforced.
func (l *p9file) Lock(pid int, locktype p9.LockType, flags p9.LockFlags, start, length uint64, client string) (p9.LockStatus, error) {
	return p9.LockStatusOK, nil
}

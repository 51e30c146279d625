// Package davfs serves virtual files over WebDAV. Registered files can be
// read, overwritten, and truncated; new files PUT to the server become
// virtual files. Directories are the synthesized parents of registered
// paths and cannot be created, moved, or removed.
package davfs

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"

	"golang.org/x/net/webdav"

	"tractor.dev/memfile/fs"
	"tractor.dev/memfile/vfs"
)

type FS struct {
	virt *vfs.FS
	tree *vfs.Tree
	log  *slog.Logger
}

var _ webdav.FileSystem = (*FS)(nil)

func New(virt *vfs.FS) *FS {
	return &FS{
		virt: virt,
		tree: virt.Tree(),
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (d *FS) SetLogger(logger *slog.Logger) {
	d.log = logger
}

// Handler returns an http.Handler serving virt, logging request errors to
// logger.
func Handler(virt *vfs.FS, logger *slog.Logger) http.Handler {
	fsys := New(virt)
	fsys.SetLogger(logger)
	return &webdav.Handler{
		FileSystem: fsys,
		LockSystem: webdav.NewMemLS(),
		Logger: func(r *http.Request, err error) {
			if err != nil {
				logger.Debug("webdav", "method", r.Method, "path", r.URL.Path, "err", err)
			}
		},
	}
}

func treeName(name string) string {
	return vfs.TreePath(path.Clean("/" + name))
}

func (d *FS) Mkdir(ctx context.Context, name string, perm os.FileMode) error {
	return &fs.PathError{Op: "mkdir", Path: name, Err: fs.ErrNotSupported}
}

func (d *FS) RemoveAll(ctx context.Context, name string) error {
	return &fs.PathError{Op: "removeall", Path: name, Err: fs.ErrNotSupported}
}

func (d *FS) Rename(ctx context.Context, oldName, newName string) error {
	return &fs.PathError{Op: "rename", Path: oldName, Err: fs.ErrNotSupported}
}

func (d *FS) Stat(ctx context.Context, name string) (fi os.FileInfo, err error) {
	defer func() {
		d.log.Debug("stat", "name", name, "err", err)
	}()
	if n, ok := d.virt.Lookup(path.Clean("/" + name)); ok {
		return n.Stat(), nil
	}
	return d.tree.Stat(treeName(name))
}

func (d *FS) OpenFile(ctx context.Context, name string, flag int, perm os.FileMode) (f webdav.File, err error) {
	defer func() {
		d.log.Debug("openfile", "name", name, "flag", flag, "err", err)
	}()
	key := path.Clean("/" + name)
	if !d.virt.IsVirtual(key) {
		fi, err := d.tree.Stat(treeName(name))
		if err == nil && fi.IsDir() {
			if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC) != 0 {
				return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
			}
			return d.openDir(name, fi)
		}
	}
	file, err := d.virt.OpenFile(key, flag, perm)
	if err != nil {
		return nil, err
	}
	return &handleFile{Handle: file.(*vfs.Handle)}, nil
}

func (d *FS) openDir(name string, fi fs.FileInfo) (webdav.File, error) {
	entries, err := d.tree.ReadDir(treeName(name))
	if err != nil {
		return nil, err
	}
	infos := make([]fs.FileInfo, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return &dirFile{FileInfo: fi, name: name, infos: infos}, nil
}

// handleFile is a virtual file handle served over WebDAV.
type handleFile struct {
	*vfs.Handle
}

func (f *handleFile) Readdir(count int) ([]fs.FileInfo, error) {
	return nil, &fs.PathError{Op: "readdir", Path: f.Name(), Err: fs.ErrInvalid}
}

// dirFile is a synthesized directory served over WebDAV.
type dirFile struct {
	fs.FileInfo
	name   string
	infos  []fs.FileInfo
	offset int
}

func (d *dirFile) Stat() (fs.FileInfo, error) { return d.FileInfo, nil }
func (d *dirFile) Close() error               { return nil }

func (d *dirFile) Read(p []byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: fs.ErrInvalid}
}

func (d *dirFile) Write(p []byte) (int, error) {
	return 0, &fs.PathError{Op: "write", Path: d.name, Err: fs.ErrPermission}
}

func (d *dirFile) Seek(offset int64, whence int) (int64, error) {
	if offset == 0 && whence == io.SeekStart {
		d.offset = 0
		return 0, nil
	}
	return 0, &fs.PathError{Op: "seek", Path: d.name, Err: fs.ErrInvalid}
}

// Readdir follows http.File: count <= 0 returns everything left.
func (d *dirFile) Readdir(count int) ([]fs.FileInfo, error) {
	rest := d.infos[d.offset:]
	if count <= 0 {
		d.offset = len(d.infos)
		return rest, nil
	}
	if len(rest) == 0 {
		return nil, io.EOF
	}
	n := min(count, len(rest))
	d.offset += n
	return rest[:n], nil
}

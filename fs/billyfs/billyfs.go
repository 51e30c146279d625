// Package billyfs exposes virtual files through the go-billy Filesystem
// interface. Registered paths are served from memory; every other path and
// every directory, symlink, and temp file operation goes to a base billy
// filesystem.
package billyfs

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/helper/chroot"
	"github.com/go-git/go-billy/v5/osfs"

	"tractor.dev/memfile/vfs"
)

type FS struct {
	virt *vfs.FS
	base billy.Filesystem
	log  *slog.Logger
}

var _ billy.Filesystem = (*FS)(nil)

// New layers virt over base. A nil base is the host filesystem rooted at /.
func New(virt *vfs.FS, base billy.Filesystem) *FS {
	if base == nil {
		base = osfs.New("/")
	}
	return &FS{
		virt: virt,
		base: base,
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (b *FS) SetLogger(logger *slog.Logger) {
	b.log = logger
}

// key returns the registry path for a billy filename.
func (b *FS) key(filename string) string {
	if filepath.IsAbs(filename) {
		return filepath.Clean(filename)
	}
	return filepath.Join(b.base.Root(), filename)
}

func (b *FS) virtual(op, filename string) (string, bool) {
	key := b.key(filename)
	ok := b.virt.IsVirtual(key)
	b.log.Debug(op, "name", filename, "key", key, "virtual", ok)
	return key, ok
}

func (b *FS) Create(filename string) (billy.File, error) {
	return b.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
}

func (b *FS) Open(filename string) (billy.File, error) {
	return b.OpenFile(filename, os.O_RDONLY, 0)
}

func (b *FS) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	key, ok := b.virtual("openfile", filename)
	if !ok {
		return b.base.OpenFile(filename, flag, perm)
	}
	f, err := b.virt.OpenFile(key, flag, perm)
	if err != nil {
		return nil, fmt.Errorf("billyfs: openfile %q: %w", filename, err)
	}
	return &file{Handle: f.(*vfs.Handle), name: filename}, nil
}

func (b *FS) Stat(filename string) (os.FileInfo, error) {
	if key, ok := b.virtual("stat", filename); ok {
		return b.virt.Stat(key)
	}
	return b.base.Stat(filename)
}

func (b *FS) Lstat(filename string) (os.FileInfo, error) {
	if key, ok := b.virtual("lstat", filename); ok {
		return b.virt.Lstat(key)
	}
	return b.base.Lstat(filename)
}

func (b *FS) Rename(oldpath, newpath string) error {
	_, oldVirtual := b.virtual("rename", oldpath)
	_, newVirtual := b.virtual("rename", newpath)
	if oldVirtual || newVirtual {
		return fmt.Errorf("billyfs: rename %q: %w", oldpath, billy.ErrNotSupported)
	}
	return b.base.Rename(oldpath, newpath)
}

func (b *FS) Remove(filename string) error {
	if _, ok := b.virtual("remove", filename); ok {
		return fmt.Errorf("billyfs: remove %q: %w", filename, billy.ErrNotSupported)
	}
	return b.base.Remove(filename)
}

func (b *FS) Join(elem ...string) string {
	return b.base.Join(elem...)
}

func (b *FS) TempFile(dir, prefix string) (billy.File, error) {
	return b.base.TempFile(dir, prefix)
}

// ReadDir lists dirname on the base filesystem with virtual files in that
// directory added, or shadowing base entries of the same name.
func (b *FS) ReadDir(dirname string) ([]os.FileInfo, error) {
	infos, err := b.base.ReadDir(dirname)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	dir := b.key(dirname)
	var virtual []os.FileInfo
	for _, name := range b.virt.Registry().Names() {
		if filepath.Dir(name) != dir {
			continue
		}
		if n, ok := b.virt.Lookup(name); ok {
			virtual = append(virtual, n.Stat())
		}
	}
	if err != nil && len(virtual) == 0 {
		return nil, err
	}
	shadowed := make(map[string]bool, len(virtual))
	for _, fi := range virtual {
		shadowed[fi.Name()] = true
	}
	out := virtual
	for _, fi := range infos {
		if !shadowed[fi.Name()] {
			out = append(out, fi)
		}
	}
	return out, nil
}

func (b *FS) MkdirAll(filename string, perm os.FileMode) error {
	return b.base.MkdirAll(filename, perm)
}

func (b *FS) Symlink(target, link string) error {
	return b.base.Symlink(target, link)
}

func (b *FS) Readlink(link string) (string, error) {
	return b.base.Readlink(link)
}

func (b *FS) Chroot(path string) (billy.Filesystem, error) {
	return chroot.New(b, path), nil
}

func (b *FS) Root() string {
	return b.base.Root()
}

func (b *FS) Capabilities() billy.Capability {
	return billy.Capabilities(b.base) | billy.ReadAndWriteCapability | billy.SeekCapability | billy.TruncateCapability
}

// file adapts a virtual handle to billy.File.
type file struct {
	*vfs.Handle
	name string
}

func (f *file) Name() string { return f.name }

// Lock is accepted and ignored, as for every virtual handle.
func (f *file) Lock() error { return f.Handle.Lock(true) }

// Package interpose routes file operations to in-memory files when a path
// or descriptor is virtual and to a real fs.Provider otherwise.
//
// Unregistered paths reach the provider unchanged and its results, errors
// included, are returned verbatim.
package interpose

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"tractor.dev/memfile/fs"
	"tractor.dev/memfile/fs/localfs"
	"tractor.dev/memfile/vfs"
)

type FS struct {
	virt *vfs.FS
	real fs.Provider

	mu    sync.Mutex
	files map[int64]fs.RWFile
	next  int64

	log *slog.Logger
}

var (
	_ fs.LstatProvider     = (*FS)(nil)
	_ fs.ReadFileProvider  = (*FS)(nil)
	_ fs.WriteFileProvider = (*FS)(nil)
	_ fs.TruncateProvider  = (*FS)(nil)
)

// New returns an FS serving virt first and real otherwise. A nil real uses
// the host filesystem.
func New(virt *vfs.FS, real fs.Provider) *FS {
	if real == nil {
		real = localfs.New()
	}
	return &FS{
		virt:  virt,
		real:  real,
		files: make(map[int64]fs.RWFile),
		next:  1,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (f *FS) SetLogger(logger *slog.Logger) {
	f.log = logger
}

// Virtual returns the in-memory side.
func (f *FS) Virtual() *vfs.FS { return f.virt }

// Real returns the fallthrough provider.
func (f *FS) Real() fs.Provider { return f.real }

func (f *FS) isVirtual(op, name string) bool {
	ok := f.virt.IsVirtual(name)
	f.log.Debug(op, "name", name, "virtual", ok)
	return ok
}

// Register makes name virtual with default metadata.
func (f *FS) Register(name string, content []byte) (*vfs.Node, error) {
	return f.virt.Register(name, content)
}

// Preload copies name from the real provider into memory; afterwards every
// operation on name is served from memory.
func (f *FS) Preload(ctx context.Context, name string) (*vfs.Node, error) {
	return f.virt.Preload(ctx, f.real, name)
}

func (f *FS) Open(name string) (fs.RWFile, error) {
	return f.OpenFile(name, os.O_RDONLY, 0)
}

func (f *FS) OpenFile(name string, flag int, perm fs.FileMode) (fs.RWFile, error) {
	if f.isVirtual("openfile", name) {
		return f.virt.OpenFile(name, flag, perm)
	}
	return f.real.OpenFile(name, flag, perm)
}

func (f *FS) Stat(name string) (fs.FileInfo, error) {
	if f.isVirtual("stat", name) {
		return f.virt.Stat(name)
	}
	return f.real.Stat(name)
}

func (f *FS) Lstat(name string) (fs.FileInfo, error) {
	if f.isVirtual("lstat", name) {
		return f.virt.Lstat(name)
	}
	return fs.Lstat(f.real, name)
}

func (f *FS) Truncate(name string, size int64) error {
	if f.isVirtual("truncate", name) {
		return f.virt.Truncate(name, size)
	}
	return fs.Truncate(f.real, name, size)
}

func (f *FS) ReadFile(name string) ([]byte, error) {
	if f.isVirtual("readfile", name) {
		return f.virt.ReadFile(name)
	}
	return fs.ReadFile(f.real, name)
}

// WriteFile replaces the whole content of name. For a virtual file every
// open handle observes the new content.
func (f *FS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	if f.isVirtual("writefile", name) {
		return f.virt.WriteFile(name, data, perm)
	}
	return fs.WriteFile(f.real, name, data, perm)
}

// WriteFileFrom replaces the whole content of name with the bytes of r.
func (f *FS) WriteFileFrom(name string, r io.Reader, perm fs.FileMode) (int64, error) {
	if f.isVirtual("writefile", name) {
		return f.virt.WriteFileFrom(name, r, perm)
	}
	w, err := f.real.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(w, r)
	if err1 := w.Close(); err == nil {
		err = err1
	}
	return n, err
}

func (f *FS) ReadTextFile(name string) (string, error) {
	b, err := f.ReadFile(name)
	return string(b), err
}

func (f *FS) WriteTextFile(name string, text string, perm fs.FileMode) error {
	return f.WriteFile(name, []byte(text), perm)
}

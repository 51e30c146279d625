// Package vfs keeps files entirely in memory behind host paths.
//
// An FS pairs a Registry of virtual files with a Table of open handles.
// Several FS values can coexist; nothing is process global. FS is itself an
// fs.Provider over its virtual files, and Tree exposes them as an io/fs
// tree for export.
package vfs

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"tractor.dev/memfile/fs"
	"tractor.dev/memfile/fs/membuf"
)

type FS struct {
	reg   *Registry
	table *Table
	log   *slog.Logger
}

var (
	_ fs.LstatProvider     = (*FS)(nil)
	_ fs.ReadFileProvider  = (*FS)(nil)
	_ fs.WriteFileProvider = (*FS)(nil)
	_ fs.TruncateProvider  = (*FS)(nil)
)

func New() *FS {
	return &FS{
		reg:   NewRegistry(),
		table: NewTable(),
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (fsys *FS) SetLogger(logger *slog.Logger) {
	fsys.log = logger
	fsys.reg.SetLogger(logger)
	fsys.table.SetLogger(logger)
}

func (fsys *FS) Registry() *Registry { return fsys.reg }
func (fsys *FS) Table() *Table       { return fsys.table }

// Register makes name a virtual file with default metadata.
func (fsys *FS) Register(name string, content []byte) (*Node, error) {
	return fsys.reg.Register(name, content, DefaultInfo())
}

// RegisterWithInfo makes name a virtual file with the given metadata.
func (fsys *FS) RegisterWithInfo(name string, content []byte, info Info) (*Node, error) {
	return fsys.reg.Register(name, content, info)
}

// Preload copies a file from src into memory. See Registry.Preload.
func (fsys *FS) Preload(ctx context.Context, src fs.Provider, name string) (*Node, error) {
	return fsys.reg.Preload(ctx, src, name)
}

func (fsys *FS) Lookup(name string) (*Node, bool) {
	return fsys.reg.Lookup(name)
}

// IsVirtual reports whether name is registered.
func (fsys *FS) IsVirtual(name string) bool {
	_, ok := fsys.reg.Lookup(name)
	return ok
}

// Get returns the open handle with the given ID.
func (fsys *FS) Get(id ID) (*Handle, bool) {
	return fsys.table.Get(id)
}

// Open opens name for reading and writing with the cursor at zero.
func (fsys *FS) Open(name string) (*Handle, error) {
	n, ok := fsys.reg.Lookup(name)
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return fsys.table.Open(n, false), nil
}

// OpenFile opens name honoring O_CREATE, O_EXCL, O_TRUNC, and O_APPEND.
// Access mode bits are not enforced.
func (fsys *FS) OpenFile(name string, flag int, perm fs.FileMode) (f fs.RWFile, err error) {
	defer func() {
		fsys.log.Debug("openfile", "name", name, "flag", flag, "err", err)
	}()
	var n *Node
	if flag&os.O_CREATE != 0 {
		var loaded bool
		n, loaded, err = fsys.reg.LoadOrRegister(name, nil, Info{Mode: perm, IsFile: true, ModTime: time.Now()})
		if err != nil {
			return nil, err
		}
		if loaded && flag&os.O_EXCL != 0 {
			return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrExist}
		}
		if loaded && flag&os.O_TRUNC != 0 {
			n.Replace(nil)
		}
	} else {
		var ok bool
		if n, ok = fsys.reg.Lookup(name); !ok {
			return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
		}
		if flag&os.O_TRUNC != 0 {
			n.Replace(nil)
		}
	}
	return fsys.table.Open(n, flag&os.O_APPEND != 0), nil
}

func (fsys *FS) Stat(name string) (fs.FileInfo, error) {
	n, ok := fsys.reg.Lookup(name)
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	return n.Stat(), nil
}

// Lstat is Stat; virtual files are never symlinks to anything.
func (fsys *FS) Lstat(name string) (fs.FileInfo, error) {
	return fsys.Stat(name)
}

func (fsys *FS) ReadFile(name string) ([]byte, error) {
	n, ok := fsys.reg.Lookup(name)
	if !ok {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrNotExist}
	}
	return n.Bytes(), nil
}

// WriteFile replaces the content of name, registering it if needed. Open
// handles on an existing file see the new content.
func (fsys *FS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	n, loaded, err := fsys.reg.LoadOrRegister(name, append([]byte(nil), data...), Info{Mode: perm, IsFile: true, ModTime: time.Now()})
	if loaded {
		n.Replace(data)
	}
	return err
}

// WriteFileFrom replaces the content of name with everything read from r.
// On a read error the file is left as it was.
func (fsys *FS) WriteFileFrom(name string, r io.Reader, perm fs.FileMode) (int64, error) {
	if n, ok := fsys.reg.Lookup(name); ok {
		written, err := n.ReplaceFrom(r)
		if err != nil {
			return written, &fs.PathError{Op: "writefile", Path: name, Err: err}
		}
		return written, nil
	}
	buf := membuf.New(nil)
	written, err := buf.ReadFrom(r)
	if err != nil {
		return written, &fs.PathError{Op: "writefile", Path: name, Err: err}
	}
	n, loaded, err := fsys.reg.LoadOrRegister(name, buf.Bytes(), Info{Mode: perm, IsFile: true, ModTime: time.Now()})
	if loaded {
		n.Replace(buf.Bytes())
	}
	return written, err
}

func (fsys *FS) Truncate(name string, size int64) error {
	n, ok := fsys.reg.Lookup(name)
	if !ok {
		return &fs.PathError{Op: "truncate", Path: name, Err: fs.ErrNotExist}
	}
	if size < 0 {
		return &fs.PathError{Op: "truncate", Path: name, Err: fs.ErrInvalid}
	}
	if err := n.resize(size); err != nil {
		return &fs.PathError{Op: "truncate", Path: name, Err: err}
	}
	return nil
}

// Tree returns a read-only io/fs view of the registered files.
func (fsys *FS) Tree() *Tree {
	return &Tree{reg: fsys.reg}
}

// Package localfs provides the host filesystem as an fs.Provider.
package localfs

import (
	"io"
	"log/slog"
	"os"

	"tractor.dev/memfile/fs"
	"tractor.dev/memfile/fs/pstat"
)

// FS addresses host files by their host paths.
type FS struct {
	log *slog.Logger
}

func New() *FS {
	return &FS{
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (fsys *FS) SetLogger(logger *slog.Logger) {
	fsys.log = logger
}

// File is a host file that also supports advisory locking.
type File struct {
	*os.File
}

func (fsys *FS) OpenFile(name string, flag int, perm fs.FileMode) (f fs.RWFile, err error) {
	defer func() {
		fsys.log.Debug("openfile", "name", name, "flag", flag, "err", err)
	}()
	osf, err := os.OpenFile(name, flag, perm)
	if osf == nil {
		// while this looks strange, we need to return a bare nil (of type nil) not
		// a nil value of type *File or nil won't be nil
		return nil, err
	}
	return &File{File: osf}, err
}

func (fsys *FS) Open(name string) (fs.RWFile, error) {
	return fsys.OpenFile(name, os.O_RDONLY, 0)
}

// fileInfo carries the full host stat record as its Sys value.
type fileInfo struct {
	fs.FileInfo
	stat *pstat.Stat
}

func (fi *fileInfo) Sys() any {
	return fi.stat
}

func wrapFileInfo(fi fs.FileInfo, stat *pstat.Stat) fs.FileInfo {
	if stat == nil {
		return fi
	}
	return &fileInfo{FileInfo: fi, stat: stat}
}

func (fsys *FS) Stat(name string) (fi fs.FileInfo, err error) {
	defer func() {
		fsys.log.Debug("stat", "name", name, "err", err)
	}()
	fi, err = os.Stat(name)
	if err != nil {
		return nil, err
	}
	// a failure here only loses the extra fields
	st, _ := pstat.Lookup(name)
	return wrapFileInfo(fi, st), nil
}

func (fsys *FS) Lstat(name string) (fi fs.FileInfo, err error) {
	defer func() {
		fsys.log.Debug("lstat", "name", name, "err", err)
	}()
	fi, err = os.Lstat(name)
	if err != nil {
		return nil, err
	}
	st, _ := pstat.LookupLink(name)
	return wrapFileInfo(fi, st), nil
}

func (fsys *FS) ReadFile(name string) (b []byte, err error) {
	defer func() {
		fsys.log.Debug("readfile", "name", name, "size", len(b), "err", err)
	}()
	return os.ReadFile(name)
}

func (fsys *FS) WriteFile(name string, data []byte, perm fs.FileMode) (err error) {
	defer func() {
		fsys.log.Debug("writefile", "name", name, "size", len(data), "err", err)
	}()
	return os.WriteFile(name, data, perm)
}

func (fsys *FS) Truncate(name string, size int64) (err error) {
	defer func() {
		fsys.log.Debug("truncate", "name", name, "size", size, "err", err)
	}()
	return os.Truncate(name, size)
}

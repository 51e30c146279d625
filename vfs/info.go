package vfs

import (
	"path/filepath"
	"time"

	"tractor.dev/memfile/fs"
	"tractor.dev/memfile/fs/pstat"
)

// Info is the metadata attached to a virtual file. Size is never stored
// here; it is taken from the live content whenever the file is stat'ed.
type Info struct {
	Mode       fs.FileMode
	IsFile     bool
	IsDir      bool
	IsSymlink  bool
	ModTime    time.Time
	AccessTime time.Time
	BirthTime  time.Time

	// Stat holds host level fields (dev, ino, uid, ...) when the file was
	// preloaded from the host. It is nil for purely virtual files.
	Stat *pstat.Stat
}

// DefaultInfo is the metadata of a file registered without any: a regular
// file with every other field unset.
func DefaultInfo() Info {
	return Info{IsFile: true}
}

// InfoFromFileInfo captures the metadata of fi. If fi.Sys() is a
// *pstat.Stat, its access and birth times and host fields are kept too.
func InfoFromFileInfo(fi fs.FileInfo) Info {
	info := Info{
		Mode:      fi.Mode(),
		IsFile:    fi.Mode().IsRegular(),
		IsDir:     fi.IsDir(),
		IsSymlink: fi.Mode()&fs.ModeSymlink != 0,
		ModTime:   fi.ModTime(),
	}
	if st, ok := fi.Sys().(*pstat.Stat); ok && st != nil {
		cp := *st
		info.Stat = &cp
		info.AccessTime = st.Atim.Time()
		info.BirthTime = st.Btim.Time()
	}
	return info
}

func (i Info) mode() fs.FileMode {
	m := i.Mode
	if i.IsDir {
		m |= fs.ModeDir
	}
	if i.IsSymlink {
		m |= fs.ModeSymlink
	}
	return m
}

// FileInfo is the fs.FileInfo of a virtual file at the moment it was taken.
type FileInfo struct {
	name string
	size int64
	info Info
}

var _ fs.FileInfo = (*FileInfo)(nil)

func (fi *FileInfo) Name() string       { return filepath.Base(fi.name) }
func (fi *FileInfo) Size() int64        { return fi.size }
func (fi *FileInfo) Mode() fs.FileMode  { return fi.info.mode() }
func (fi *FileInfo) ModTime() time.Time { return fi.info.ModTime }
func (fi *FileInfo) IsDir() bool        { return fi.info.IsDir }

// Path returns the canonical path of the file.
func (fi *FileInfo) Path() string { return fi.name }

// Info returns the full metadata record.
func (fi *FileInfo) Info() Info { return fi.info }

// Sys returns a *pstat.Stat with the live size, or nil for files that carry
// no host fields.
func (fi *FileInfo) Sys() any {
	if fi.info.Stat == nil {
		return nil
	}
	st := *fi.info.Stat
	st.Size = fi.size
	return &st
}

package vfs

import (
	"io"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"tractor.dev/memfile/fs"
)

// Tree is a read-only io/fs view of a Registry. Canonical paths become
// unrooted slash paths ("/tmp/a.db" is "tmp/a.db") and every parent of a
// registered file is a synthesized directory. Where a registered file is
// also the parent of another, the file wins.
type Tree struct {
	reg *Registry
}

var (
	_ fs.StatFS    = (*Tree)(nil)
	_ fs.ReadDirFS = (*Tree)(nil)
)

// TreePath converts a canonical path into its name within a Tree.
func TreePath(canonical string) string {
	p := strings.TrimPrefix(filepath.ToSlash(canonical), "/")
	if p == "" {
		return "."
	}
	return p
}

type treeIndex struct {
	files map[string]*Node
	dirs  map[string]bool
}

func (t *Tree) index() treeIndex {
	idx := treeIndex{files: make(map[string]*Node), dirs: map[string]bool{".": true}}
	for name, n := range t.reg.snapshot() {
		p := TreePath(name)
		idx.files[p] = n
		for dir := path.Dir(p); dir != "."; dir = path.Dir(dir) {
			idx.dirs[dir] = true
		}
	}
	return idx
}

func (idx treeIndex) entries(dir string) []fs.DirEntry {
	var entries []fs.DirEntry
	add := func(p string, e fs.DirEntry) {
		if p != "." && path.Dir(p) == dir {
			entries = append(entries, e)
		}
	}
	for p := range idx.dirs {
		if _, isFile := idx.files[p]; !isFile {
			add(p, fs.FileInfoToDirEntry(dirInfo(p)))
		}
	}
	for p, n := range idx.files {
		add(p, fs.FileInfoToDirEntry(n.Stat()))
	}
	return removeDuplicatesAndSort(entries)
}

func (t *Tree) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	idx := t.index()
	if n, ok := idx.files[name]; ok {
		return &treeFile{h: &Handle{node: n}}, nil
	}
	if idx.dirs[name] {
		return &dirFile{FileInfo: dirInfo(name), path: name, entries: idx.entries(name)}, nil
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

func (t *Tree) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	idx := t.index()
	if n, ok := idx.files[name]; ok {
		return n.Stat(), nil
	}
	if idx.dirs[name] {
		return dirInfo(name), nil
	}
	return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
}

func (t *Tree) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	idx := t.index()
	if _, ok := idx.files[name]; ok || !idx.dirs[name] {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	return idx.entries(name), nil
}

// treeFile is a read-only cursor over a registered file. It is not entered
// in the descriptor table.
type treeFile struct {
	h *Handle
}

var (
	_ io.ReaderAt = (*treeFile)(nil)
	_ io.Seeker   = (*treeFile)(nil)
)

func (f *treeFile) Stat() (fs.FileInfo, error)                   { return f.h.Stat() }
func (f *treeFile) Read(p []byte) (int, error)                   { return f.h.Read(p) }
func (f *treeFile) ReadAt(p []byte, off int64) (int, error)      { return f.h.ReadAt(p, off) }
func (f *treeFile) Seek(offset int64, whence int) (int64, error) { return f.h.Seek(offset, whence) }
func (f *treeFile) Close() error                                 { return f.h.Close() }

// synthesized directory info
type dirInfo string

func (d dirInfo) Name() string       { return path.Base(string(d)) }
func (d dirInfo) Size() int64        { return 0 }
func (d dirInfo) Mode() fs.FileMode  { return fs.ModeDir | 0555 }
func (d dirInfo) ModTime() time.Time { return time.Time{} }
func (d dirInfo) IsDir() bool        { return true }
func (d dirInfo) Sys() any           { return nil }

// dirFile is a directory fs.File implementing fs.ReadDirFile
type dirFile struct {
	fs.FileInfo
	path    string
	entries []fs.DirEntry
	offset  int
}

func (d *dirFile) Stat() (fs.FileInfo, error) { return d.FileInfo, nil }
func (d *dirFile) Close() error               { return nil }
func (d *dirFile) Read(b []byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.path, Err: fs.ErrInvalid}
}

func (d *dirFile) ReadDir(count int) ([]fs.DirEntry, error) {
	n := len(d.entries) - d.offset
	if n == 0 && count > 0 {
		return nil, io.EOF
	}
	if count > 0 && n > count {
		n = count
	}
	list := make([]fs.DirEntry, n)
	copy(list, d.entries[d.offset:])
	d.offset += n
	return list, nil
}

func removeDuplicatesAndSort(entries []fs.DirEntry) []fs.DirEntry {
	slices.SortStableFunc(entries, func(a, b fs.DirEntry) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return slices.CompactFunc(entries, func(a, b fs.DirEntry) bool {
		return a.Name() == b.Name()
	})
}

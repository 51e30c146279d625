//go:build !unix

package localfs

import (
	"tractor.dev/memfile/fs"
)

func (f *File) Lock(exclusive bool) error {
	return &fs.PathError{Op: "flock", Path: f.Name(), Err: fs.ErrNotSupported}
}

func (f *File) Unlock() error {
	return &fs.PathError{Op: "funlock", Path: f.Name(), Err: fs.ErrNotSupported}
}

package fs

import (
	"io"
)

// RWFile is an open file that can be read, written, and repositioned.
// Both *os.File and in-memory handles satisfy it.
type RWFile interface {
	File
	io.Writer
	io.Seeker
	io.ReaderAt
	io.WriterAt
	Truncate(size int64) error
	Name() string
}

// LockFile is implemented by files that support advisory locks.
type LockFile interface {
	File
	Lock(exclusive bool) error
	Unlock() error
}

// Write writes data to the file.
func Write(f File, data []byte) (int, error) {
	w, ok := f.(io.Writer)
	if !ok {
		return 0, ErrPermission
	}
	return w.Write(data)
}

// Seek seeks to the given offset and whence.
func Seek(f File, offset int64, whence int) (int64, error) {
	s, ok := f.(io.Seeker)
	if !ok {
		return 0, ErrNotSupported
	}
	return s.Seek(offset, whence)
}

// Lock takes an advisory lock on the file if supported.
func Lock(f File, exclusive bool) error {
	l, ok := f.(LockFile)
	if !ok {
		return ErrNotSupported
	}
	return l.Lock(exclusive)
}

// Unlock releases an advisory lock on the file if supported.
func Unlock(f File) error {
	l, ok := f.(LockFile)
	if !ok {
		return ErrNotSupported
	}
	return l.Unlock()
}

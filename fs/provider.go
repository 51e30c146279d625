package fs

import (
	"errors"
	"io"
	"os"
)

// Provider is a source of files addressed by host paths. The real
// filesystem is one Provider; an in-memory overlay is another.
type Provider interface {
	OpenFile(name string, flag int, perm FileMode) (RWFile, error)
	Stat(name string) (FileInfo, error)
}

type LstatProvider interface {
	Provider
	Lstat(name string) (FileInfo, error)
}

// Lstat returns file info without following a final symlink if supported,
// falling back to Stat.
func Lstat(p Provider, name string) (FileInfo, error) {
	if l, ok := p.(LstatProvider); ok {
		return l.Lstat(name)
	}
	return p.Stat(name)
}

// Open opens the named file read-only.
func Open(p Provider, name string) (RWFile, error) {
	return p.OpenFile(name, os.O_RDONLY, 0)
}

type ReadFileProvider interface {
	Provider
	ReadFile(name string) ([]byte, error)
}

// ReadFile reads the whole named file.
func ReadFile(p Provider, name string) ([]byte, error) {
	if r, ok := p.(ReadFileProvider); ok {
		return r.ReadFile(name)
	}
	f, err := Open(p, name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

type WriteFileProvider interface {
	Provider
	WriteFile(name string, data []byte, perm FileMode) error
}

// WriteFile replaces the contents of the named file, creating it if needed.
func WriteFile(p Provider, name string, data []byte, perm FileMode) error {
	if w, ok := p.(WriteFileProvider); ok {
		return w.WriteFile(name, data, perm)
	}
	f, err := p.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	n, err := f.Write(data)
	if err == nil && n < len(data) {
		err = io.ErrShortWrite
	}
	if err1 := f.Close(); err == nil {
		err = err1
	}
	return err
}

type TruncateProvider interface {
	Provider
	Truncate(name string, size int64) error
}

// Truncate changes the size of the named file.
func Truncate(p Provider, name string, size int64) error {
	if t, ok := p.(TruncateProvider); ok {
		return t.Truncate(name, size)
	}
	if size < 0 {
		return &PathError{Op: "truncate", Path: name, Err: ErrInvalid}
	}
	f, err := p.OpenFile(name, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	err = f.Truncate(size)
	if err1 := f.Close(); err == nil {
		err = err1
	}
	return err
}

// Exists reports whether the named file exists.
func Exists(p Provider, name string) (bool, error) {
	_, err := p.Stat(name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotExist) {
		return false, nil
	}
	return false, err
}

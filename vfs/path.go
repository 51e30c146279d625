package vfs

import (
	"net/url"
	"path/filepath"
	"strings"

	"tractor.dev/memfile/fs"
)

// Canonical returns the key a path is registered under: an absolute,
// cleaned host path. A "file:" URL is reduced to its path first; relative
// paths resolve against the working directory.
func Canonical(name string) (string, error) {
	if name == "" {
		return "", &fs.PathError{Op: "canonical", Path: name, Err: fs.ErrInvalid}
	}
	if strings.HasPrefix(name, "file:") {
		u, err := url.Parse(name)
		if err != nil {
			return "", &fs.PathError{Op: "canonical", Path: name, Err: err}
		}
		if u.Host != "" && u.Host != "localhost" {
			return "", &fs.PathError{Op: "canonical", Path: name, Err: fs.ErrInvalid}
		}
		p := u.Path
		if p == "" {
			p = u.Opaque
		}
		if p == "" {
			return "", &fs.PathError{Op: "canonical", Path: name, Err: fs.ErrInvalid}
		}
		name = filepath.FromSlash(p)
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", &fs.PathError{Op: "canonical", Path: name, Err: err}
	}
	return abs, nil
}

//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package pstat

import (
	"os"
)

// Lookup stats the named host file, following symlinks. Only the portable
// fields are populated on this platform.
func Lookup(name string) (*Stat, error) {
	fi, err := os.Stat(name)
	if err != nil {
		return nil, err
	}
	return FileInfoToStat(fi), nil
}

// LookupLink stats the named host file without following a final symlink.
func LookupLink(name string) (*Stat, error) {
	fi, err := os.Lstat(name)
	if err != nil {
		return nil, err
	}
	return FileInfoToStat(fi), nil
}

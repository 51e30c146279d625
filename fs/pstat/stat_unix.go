//go:build linux || darwin || freebsd || netbsd || openbsd

package pstat

import (
	"golang.org/x/sys/unix"
)

// Lookup stats the named host file, following symlinks.
func Lookup(name string) (*Stat, error) {
	var st unix.Stat_t
	if err := unix.Stat(name, &st); err != nil {
		return nil, err
	}
	return FromUnix(&st), nil
}

// LookupLink stats the named host file without following a final symlink.
func LookupLink(name string) (*Stat, error) {
	var st unix.Stat_t
	if err := unix.Lstat(name, &st); err != nil {
		return nil, err
	}
	return FromUnix(&st), nil
}

func FromUnix(st *unix.Stat_t) *Stat {
	return &Stat{
		Dev:     uint64(st.Dev),
		Ino:     uint64(st.Ino),
		Nlink:   uint64(st.Nlink),
		Mode:    uint32(st.Mode),
		Uid:     st.Uid,
		Gid:     st.Gid,
		Rdev:    uint64(st.Rdev),
		Size:    st.Size,
		Blksize: int64(st.Blksize),
		Blocks:  st.Blocks,
		Atim:    NsecToTimespec(unix.TimespecToNsec(st.Atim)),
		Mtim:    NsecToTimespec(unix.TimespecToNsec(st.Mtim)),
		Ctim:    NsecToTimespec(unix.TimespecToNsec(st.Ctim)),
	}
}

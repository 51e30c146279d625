// Package pstat is a portable form of the POSIX stat structure, used to
// carry host file metadata on records that do not live on the host.
package pstat

import (
	"io/fs"
	"time"
)

// NOTE: layout follows amd64 Linux
type Timespec struct {
	Sec  int64
	Nsec int64
}

// Time returns ts as a time.Time. A zero Timespec is the zero Time.
func (ts Timespec) Time() time.Time {
	if ts.Sec == 0 && ts.Nsec == 0 {
		return time.Time{}
	}
	return time.Unix(ts.Sec, ts.Nsec)
}

type Stat struct {
	Dev     uint64
	Ino     uint64
	Nlink   uint64
	Mode    uint32
	Uid     uint32
	Gid     uint32
	Rdev    uint64
	Size    int64
	Blksize int64
	Blocks  int64
	Atim    Timespec
	Mtim    Timespec
	Ctim    Timespec
	Btim    Timespec
}

// NsecToTimespec converts a number of nanoseconds into a Timespec.
func NsecToTimespec(nsec int64) Timespec {
	sec := nsec / 1e9
	nsec = nsec % 1e9
	if nsec < 0 {
		nsec += 1e9
		sec--
	}
	return Timespec{Sec: sec, Nsec: nsec}
}

// TimeToTimespec converts t into a Timespec. The zero Time maps to the zero
// Timespec.
func TimeToTimespec(t time.Time) Timespec {
	if t.IsZero() {
		return Timespec{}
	}
	return NsecToTimespec(t.UnixNano())
}

// FileInfoToStat builds a Stat from the portable parts of fi. If fi carries
// a *Stat from this package it is copied and refreshed from fi.
func FileInfoToStat(fi fs.FileInfo) *Stat {
	var s Stat
	if st, ok := fi.Sys().(*Stat); ok && st != nil {
		s = *st
	}
	s.Size = fi.Size()
	s.Mode = FileModeToUnixMode(fi.Mode())
	s.Mtim = TimeToTimespec(fi.ModTime())
	return &s
}

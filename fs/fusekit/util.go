package fusekit

import (
	"hash/fnv"
	"os"

	"github.com/hanwen/go-fuse/v2/fuse"

	"tractor.dev/memfile/fs"
	"tractor.dev/memfile/fs/pstat"
)

// fakeIno derives a stable inode number from a tree path.
func fakeIno(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// applyStat fills out from fi, taking owner, link count, and the extra
// timestamps from a *pstat.Stat when the file carries one.
func applyStat(out *fuse.Attr, path string, fi fs.FileInfo) {
	out.Ino = fakeIno(path)
	out.Mode = pstat.FileModeToUnixMode(fi.Mode())
	out.Size = uint64(fi.Size())
	out.Nlink = 1
	mtime := fi.ModTime()
	if !mtime.IsZero() {
		out.Mtime = uint64(mtime.Unix())
		out.Mtimensec = uint32(mtime.Nanosecond())
	}
	out.Atime, out.Atimensec = out.Mtime, out.Mtimensec
	out.Ctime, out.Ctimensec = out.Mtime, out.Mtimensec

	st, ok := fi.Sys().(*pstat.Stat)
	if !ok || st == nil {
		return
	}
	out.Uid = st.Uid
	out.Gid = st.Gid
	if st.Nlink > 0 {
		out.Nlink = uint32(st.Nlink)
	}
	if st.Atim != (pstat.Timespec{}) {
		out.Atime, out.Atimensec = uint64(st.Atim.Sec), uint32(st.Atim.Nsec)
	}
	if st.Ctim != (pstat.Timespec{}) {
		out.Ctime, out.Ctimensec = uint64(st.Ctim.Sec), uint32(st.Ctim.Nsec)
	}
	out.Blocks = uint64(fi.Size()+511) / 512
}

func openFlags(flags uint32) []string {
	var names []string
	switch int(flags) & (os.O_RDONLY | os.O_WRONLY | os.O_RDWR) {
	case os.O_RDONLY:
		names = append(names, "O_RDONLY")
	case os.O_WRONLY:
		names = append(names, "O_WRONLY")
	case os.O_RDWR:
		names = append(names, "O_RDWR")
	}
	for _, f := range []struct {
		bit  int
		name string
	}{
		{os.O_APPEND, "O_APPEND"},
		{os.O_CREATE, "O_CREAT"},
		{os.O_EXCL, "O_EXCL"},
		{os.O_SYNC, "O_SYNC"},
		{os.O_TRUNC, "O_TRUNC"},
	} {
		if int(flags)&f.bit != 0 {
			names = append(names, f.name)
		}
	}
	return names
}

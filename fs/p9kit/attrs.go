package p9kit

import (
	"errors"
	"time"

	"github.com/hugelgupf/p9/linux"
	"github.com/hugelgupf/p9/p9"

	"tractor.dev/memfile/fs"
	"tractor.dev/memfile/fs/pstat"
)

var startTime = time.Now()

// GetAttr implements p9.File.GetAttr. Host fields are reported for files
// preloaded from the host; everything else gets defaults.
func (l *p9file) GetAttr(req p9.AttrMask) (p9.QID, p9.AttrMask, p9.Attr, error) {
	qid, fi, err := l.info()
	if err != nil {
		return qid, p9.AttrMask{}, p9.Attr{}, err
	}

	st := pstat.FileInfoToStat(fi)
	attr := p9.Attr{
		Mode:             p9.ModeFromOS(fi.Mode()),
		UID:              p9.UID(st.Uid),
		GID:              p9.GID(st.Gid),
		NLink:            p9.NLink(max(st.Nlink, 1)),
		RDev:             p9.Dev(st.Rdev),
		Size:             uint64(fi.Size()),
		BlockSize:        65536,
		Blocks:           uint64((fi.Size() + 511) / 512),
		MTimeSeconds:     uint64(fi.ModTime().Unix()),
		MTimeNanoSeconds: uint64(fi.ModTime().Nanosecond()),
		ATimeSeconds:     uint64(fi.ModTime().Unix()),
		ATimeNanoSeconds: uint64(fi.ModTime().Nanosecond()),
		CTimeSeconds:     uint64(startTime.Unix()),
		CTimeNanoSeconds: uint64(startTime.Nanosecond()),
	}
	if st.Blksize > 0 {
		attr.BlockSize = uint64(st.Blksize)
	}
	if !st.Atim.Time().IsZero() {
		attr.ATimeSeconds = uint64(st.Atim.Sec)
		attr.ATimeNanoSeconds = uint64(st.Atim.Nsec)
	}
	return qid, req, attr, nil
}

// SetAttr implements p9.File.SetAttr. Only size changes take effect.
// Linux sends times, mode, and owner alongside truncate(2) and chmod(1),
// so those are accepted and ignored.
func (l *p9file) SetAttr(valid p9.SetAttrMask, attr p9.SetAttr) error {
	supported := p9.SetAttrMask{
		Size:               true,
		MTime:              true,
		CTime:              true,
		ATime:              true,
		MTimeNotSystemTime: true,
		ATimeNotSystemTime: true,
		Permissions:        true,
		UID:                true,
		GID:                true,
	}
	if !valid.IsSubsetOf(supported) {
		l.a.log.Debug("unsupported setattr", "path", l.path, "mask", valid)
		return linux.ENOSYS
	}

	if valid.Size {
		if err := l.a.virt.Truncate(l.canonical(), int64(attr.Size)); err != nil {
			l.a.log.Debug("truncate", "path", l.path, "size", attr.Size, "err", err)
			return errno(err)
		}
	}
	return nil
}

// errno maps err onto the Linux error the client sees.
func errno(err error) error {
	var e linux.Errno
	switch {
	case err == nil:
		return nil
	case errors.As(err, &e):
		return e
	case errors.Is(err, fs.ErrNotSupported):
		return linux.ENOSYS
	case errors.Is(err, fs.ErrExist):
		return linux.EEXIST
	case errors.Is(err, fs.ErrNotExist):
		return linux.ENOENT
	case errors.Is(err, fs.ErrPermission):
		return linux.EPERM
	case errors.Is(err, fs.ErrClosed):
		return linux.EBADF
	case errors.Is(err, fs.ErrInvalid):
		return linux.EINVAL
	}
	return linux.EIO
}

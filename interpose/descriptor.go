package interpose

import (
	"tractor.dev/memfile/fs"
	"tractor.dev/memfile/vfs"
)

// OpenFd opens name and returns a descriptor for the descriptor API.
func (f *FS) OpenFd(name string, flag int, perm fs.FileMode) (Fd, error) {
	if f.isVirtual("openfd", name) {
		file, err := f.virt.OpenFile(name, flag, perm)
		if err != nil {
			return Fd{}, err
		}
		return virtualFd(file.(*vfs.Handle).Fd()), nil
	}
	file, err := f.real.OpenFile(name, flag, perm)
	if err != nil {
		return Fd{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	f.files[id] = file
	return realFd(id), nil
}

// File returns the open file behind fd.
func (f *FS) File(fd Fd) (fs.RWFile, error) {
	switch fd.kind {
	case Virtual:
		if h, ok := f.virt.Get(vfs.ID(fd.id)); ok {
			return h, nil
		}
	case Real:
		f.mu.Lock()
		file, ok := f.files[fd.id]
		f.mu.Unlock()
		if ok {
			return file, nil
		}
	}
	return nil, &fs.PathError{Op: "fd", Path: fd.String(), Err: fs.ErrClosed}
}

func (f *FS) Read(fd Fd, p []byte) (int, error) {
	file, err := f.File(fd)
	if err != nil {
		return 0, err
	}
	return file.Read(p)
}

func (f *FS) Write(fd Fd, p []byte) (int, error) {
	file, err := f.File(fd)
	if err != nil {
		return 0, err
	}
	return file.Write(p)
}

func (f *FS) Seek(fd Fd, offset int64, whence int) (int64, error) {
	file, err := f.File(fd)
	if err != nil {
		return 0, err
	}
	return file.Seek(offset, whence)
}

func (f *FS) Fstat(fd Fd) (fs.FileInfo, error) {
	file, err := f.File(fd)
	if err != nil {
		return nil, err
	}
	return file.Stat()
}

func (f *FS) Ftruncate(fd Fd, size int64) error {
	file, err := f.File(fd)
	if err != nil {
		return err
	}
	return file.Truncate(size)
}

// Flock takes an advisory lock. Locks on virtual descriptors are
// acknowledged and ignored.
func (f *FS) Flock(fd Fd, exclusive bool) error {
	file, err := f.File(fd)
	if err != nil {
		return err
	}
	if fd.IsVirtual() {
		f.log.Debug("ignore flock", "fd", fd)
		return nil
	}
	return fs.Lock(file, exclusive)
}

func (f *FS) Funlock(fd Fd) error {
	file, err := f.File(fd)
	if err != nil {
		return err
	}
	if fd.IsVirtual() {
		f.log.Debug("ignore funlock", "fd", fd)
		return nil
	}
	return fs.Unlock(file)
}

func (f *FS) Close(fd Fd) error {
	file, err := f.File(fd)
	if err != nil {
		return err
	}
	if fd.kind == Real {
		f.mu.Lock()
		delete(f.files, fd.id)
		f.mu.Unlock()
	}
	return file.Close()
}

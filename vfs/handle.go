package vfs

import (
	"io"
	"sync"

	"tractor.dev/memfile/fs"
)

// Handle is an open virtual file: a cursor over a Node. Handles on the same
// Node share content but not position.
type Handle struct {
	id        ID
	node      *Node
	table     *Table
	appending bool

	mu     sync.Mutex
	pos    int64
	closed bool
}

var (
	_ fs.RWFile   = (*Handle)(nil)
	_ fs.LockFile = (*Handle)(nil)
)

// Fd returns the handle's descriptor ID.
func (h *Handle) Fd() ID {
	return h.id
}

func (h *Handle) Name() string {
	return h.node.Name()
}

// Node returns the file the handle was opened on.
func (h *Handle) Node() *Node {
	return h.node
}

func (h *Handle) pathErr(op string, err error) error {
	return &fs.PathError{Op: op, Path: h.node.Name(), Err: err}
}

// Read reads from the cursor and advances it. It returns io.EOF once the
// cursor is at or past the end of the content.
func (h *Handle) Read(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, h.pathErr("read", fs.ErrClosed)
	}
	if len(p) == 0 {
		return 0, nil
	}
	n, err := h.node.readAt(p, h.pos)
	h.pos += int64(n)
	if n > 0 && err == io.EOF {
		err = nil
	}
	return n, err
}

func (h *Handle) ReadAt(p []byte, off int64) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, h.pathErr("read", fs.ErrClosed)
	}
	if off < 0 {
		return 0, h.pathErr("readat", fs.ErrInvalid)
	}
	return h.node.readAt(p, off)
}

// Write writes all of p at the cursor, or at the end in append mode,
// zero-filling any gap, and advances the cursor.
func (h *Handle) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, h.pathErr("write", fs.ErrClosed)
	}
	n, off, err := h.node.writeAt(p, h.pos, h.appending)
	if err != nil {
		return 0, h.pathErr("write", err)
	}
	h.pos = off + int64(n)
	return n, nil
}

func (h *Handle) WriteAt(p []byte, off int64) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, h.pathErr("write", fs.ErrClosed)
	}
	if off < 0 {
		return 0, h.pathErr("writeat", fs.ErrInvalid)
	}
	n, _, err := h.node.writeAt(p, off, false)
	if err != nil {
		return 0, h.pathErr("writeat", err)
	}
	return n, nil
}

// Seek sets the cursor. Positions past the end are allowed; negative
// positions are not.
func (h *Handle) Seek(offset int64, whence int) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, h.pathErr("seek", fs.ErrClosed)
	}
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = h.pos + offset
	case io.SeekEnd:
		abs = h.node.Size() + offset
	default:
		return 0, h.pathErr("seek", fs.ErrInvalid)
	}
	if abs < 0 {
		return 0, h.pathErr("seek", fs.ErrOutOfRange)
	}
	h.pos = abs
	return abs, nil
}

// Truncate sets the content length to size, zero-padding when growing.
// The cursor does not move.
func (h *Handle) Truncate(size int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return h.pathErr("truncate", fs.ErrClosed)
	}
	if size < 0 {
		return h.pathErr("truncate", fs.ErrInvalid)
	}
	if err := h.node.resize(size); err != nil {
		return h.pathErr("truncate", err)
	}
	return nil
}

func (h *Handle) Stat() (fs.FileInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, h.pathErr("stat", fs.ErrClosed)
	}
	return h.node.Stat(), nil
}

// Sync is a no-op; content only lives in memory.
func (h *Handle) Sync() error {
	return nil
}

// Lock is accepted and ignored.
func (h *Handle) Lock(exclusive bool) error {
	return nil
}

// Unlock is accepted and ignored.
func (h *Handle) Unlock() error {
	return nil
}

// Close releases the handle. The Node and its content are unaffected.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return h.pathErr("close", fs.ErrClosed)
	}
	h.closed = true
	if h.table != nil {
		h.table.remove(h.id)
	}
	return nil
}

// Package membuf implements a growable byte buffer with file-like
// read, write, seek, and truncate semantics.
//
// A Buffer holds the bytes buf[off:len(buf)]. Sequential reads consume from
// off; writes append at len(buf). The random access methods (ReadAt, WriteAt,
// Resize) address the whole backing slice and are used when the buffer is the
// content of a file rather than a stream.
//
// A Buffer is not safe for concurrent use.
package membuf

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
)

const (
	// MaxSize is the largest number of bytes a Buffer will hold.
	MaxSize = 1<<32 - 2

	// MinRead is the minimum slice size passed to a Read call by ReadFrom.
	MinRead = 32 * 1024
)

var (
	// ErrTooLarge is returned when growing would exceed MaxSize.
	ErrTooLarge = errors.New("membuf: buffer cannot grow beyond the maximum size")

	// ErrNegativeCount is returned for a negative size or count.
	ErrNegativeCount = fmt.Errorf("membuf: negative count: %w", fs.ErrInvalid)

	// ErrInvalidWhence is returned by Seek for an unknown whence.
	ErrInvalidWhence = fmt.Errorf("membuf: invalid whence: %w", fs.ErrInvalid)

	// ErrOutOfRange is returned for an offset outside the buffer.
	ErrOutOfRange = fmt.Errorf("membuf: out of range: %w", fs.ErrInvalid)
)

// Buffer is a growable byte slice with a read position.
type Buffer struct {
	buf []byte
	off int
}

// New returns a Buffer whose unread portion is data. The Buffer takes
// ownership of data.
func New(data []byte) *Buffer {
	return &Buffer{buf: data}
}

// Bytes returns the unread portion of the buffer. The slice aliases the
// buffer content until the next modification.
func (b *Buffer) Bytes() []byte {
	return b.buf[b.off:]
}

// Clone returns a copy of the unread portion of the buffer.
func (b *Buffer) Clone() []byte {
	return append([]byte(nil), b.buf[b.off:]...)
}

// Empty reports whether the unread portion of the buffer is empty.
func (b *Buffer) Empty() bool {
	return len(b.buf) <= b.off
}

// Len returns the number of unread bytes.
func (b *Buffer) Len() int {
	return len(b.buf) - b.off
}

// Cap returns the capacity of the underlying storage.
func (b *Buffer) Cap() int {
	return cap(b.buf)
}

// Offset returns the read position.
func (b *Buffer) Offset() int {
	return b.off
}

// Reset empties the buffer but keeps its storage.
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
	b.off = 0
}

// Truncate discards all but the first n unread bytes, keeping the same
// storage.
func (b *Buffer) Truncate(n int) error {
	if n == 0 {
		b.Reset()
		return nil
	}
	if n < 0 {
		return fmt.Errorf("membuf: truncate %d: %w", n, ErrNegativeCount)
	}
	if n > b.Len() {
		return fmt.Errorf("membuf: truncate %d: %w", n, ErrOutOfRange)
	}
	b.buf = b.buf[:b.off+n]
	return nil
}

func (b *Buffer) tryGrowByReslice(n int) (int, bool) {
	if l := len(b.buf); n <= cap(b.buf)-l {
		b.buf = b.buf[:l+n]
		return l, true
	}
	return 0, false
}

// grow makes room for n more bytes and returns the index where they start.
func (b *Buffer) grow(n int) (int, error) {
	m := b.Len()
	if m == 0 && b.off != 0 {
		b.Reset()
	}
	if i, ok := b.tryGrowByReslice(n); ok {
		return i, nil
	}
	c := cap(b.buf)
	switch {
	case n <= c/2-m:
		// Slide down rather than allocate; capacity stays at least twice
		// the live size so copying doesn't dominate.
		copy(b.buf, b.buf[b.off:])
	case c+n > MaxSize:
		return 0, ErrTooLarge
	default:
		buf := make([]byte, min(2*c+n, MaxSize))
		copy(buf, b.buf[b.off:])
		b.buf = buf
	}
	b.off = 0
	b.buf = b.buf[:min(m+n, MaxSize)]
	return m, nil
}

// Grow guarantees space for another n bytes without reallocation.
func (b *Buffer) Grow(n int) error {
	if n < 0 {
		return ErrNegativeCount
	}
	m, err := b.grow(n)
	if err != nil {
		return err
	}
	b.buf = b.buf[:m]
	return nil
}

// Write appends p to the buffer. It never writes a partial slice.
func (b *Buffer) Write(p []byte) (int, error) {
	m, ok := b.tryGrowByReslice(len(p))
	if !ok {
		var err error
		m, err = b.grow(len(p))
		if err != nil {
			return 0, err
		}
	}
	return copy(b.buf[m:], p), nil
}

// WriteString appends s to the buffer.
func (b *Buffer) WriteString(s string) (int, error) {
	m, ok := b.tryGrowByReslice(len(s))
	if !ok {
		var err error
		m, err = b.grow(len(s))
		if err != nil {
			return 0, err
		}
	}
	return copy(b.buf[m:], s), nil
}

// Read reads the next len(p) bytes or until the buffer is drained. When the
// buffer is empty it is reset and Read returns io.EOF, unless len(p) is zero.
func (b *Buffer) Read(p []byte) (int, error) {
	if b.Empty() {
		b.Reset()
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, b.buf[b.off:])
	b.off += n
	return n, nil
}

// ReadFrom appends from r until io.EOF.
func (b *Buffer) ReadFrom(r io.Reader) (int64, error) {
	var total int64
	for {
		i, err := b.grow(MinRead)
		if err != nil {
			return total, err
		}
		b.buf = b.buf[:i]
		m, err := r.Read(b.buf[i:cap(b.buf)])
		if m < 0 {
			return total, errors.New("membuf: reader returned negative count")
		}
		b.buf = b.buf[:i+m]
		total += int64(m)
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// WriteTo drains the buffer into w.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	m := b.Len()
	if m == 0 {
		b.Reset()
		return 0, nil
	}
	n, err := w.Write(b.buf[b.off:])
	b.off += n
	if err == nil && n != m {
		err = io.ErrShortWrite
	}
	if b.Empty() {
		b.Reset()
	}
	return int64(n), err
}

// Seek moves the read position. The result must lie within [0, len] where
// len is the size of the backing slice; otherwise nothing changes and
// ErrOutOfRange is returned. This is stricter than vfs.Handle.Seek, which
// allows positions past the end.
func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(b.off) + offset
	case io.SeekEnd:
		abs = int64(len(b.buf)) + offset
	default:
		return 0, ErrInvalidWhence
	}
	if abs < 0 || abs > int64(len(b.buf)) {
		return 0, fmt.Errorf("membuf: seek to %d: %w", abs, ErrOutOfRange)
	}
	b.off = int(abs)
	return abs, nil
}

// Size returns the length of the whole backing slice, read or not.
func (b *Buffer) Size() int64 {
	return int64(len(b.buf))
}

// ReadAt reads from the backing slice at off without moving the read
// position.
func (b *Buffer) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("membuf: readat %d: %w", off, ErrOutOfRange)
	}
	if off >= int64(len(b.buf)) {
		return 0, io.EOF
	}
	n := copy(p, b.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt writes p into the backing slice at off, growing it as needed.
// Bytes between the old end and off read as zero.
func (b *Buffer) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("membuf: writeat %d: %w", off, ErrOutOfRange)
	}
	end := off + int64(len(p))
	if end > MaxSize {
		return 0, ErrTooLarge
	}
	if end > int64(len(b.buf)) {
		if err := b.Resize(end); err != nil {
			return 0, err
		}
	}
	return copy(b.buf[off:], p), nil
}

// Resize sets the length of the backing slice to n. Growing extends it with
// zero bytes; shrinking discards the tail. The read position is clamped.
func (b *Buffer) Resize(n int64) error {
	if n < 0 {
		return fmt.Errorf("membuf: resize %d: %w", n, ErrNegativeCount)
	}
	if n > MaxSize {
		return ErrTooLarge
	}
	l := int64(len(b.buf))
	switch {
	case n < l:
		b.buf = b.buf[:n]
		b.off = min(b.off, int(n))
	case n > l:
		// Preserve the read position across a reallocation: grow only
		// tracks the unread region.
		off := b.off
		b.off = 0
		if _, err := b.grow(int(n - l)); err != nil {
			b.off = off
			return err
		}
		clear(b.buf[l:])
		b.off = off
	}
	return nil
}

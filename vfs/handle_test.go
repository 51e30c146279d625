package vfs

import (
	"bytes"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"testing/iotest"

	"tractor.dev/memfile/fs"
)

func openNew(t *testing.T, fsys *FS, name string, content []byte) *Handle {
	t.Helper()
	if _, err := fsys.Register(name, content); err != nil {
		t.Fatal(err)
	}
	h, err := fsys.Open(name)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestHandleSeek(t *testing.T) {
	fsys := New()
	h := openNew(t, fsys, "/db/empty", nil)

	for _, tc := range []struct {
		offset int64
		whence int
		want   int64
	}{
		{0, io.SeekStart, 0},
		{10, io.SeekStart, 10},
		{6, io.SeekStart, 6},
		{-2, io.SeekCurrent, 4},
		{-3, io.SeekCurrent, 1},
		{2, io.SeekCurrent, 3},
		{0, io.SeekEnd, 0},
	} {
		got, err := h.Seek(tc.offset, tc.whence)
		if err != nil {
			t.Fatalf("Seek(%d, %d): %v", tc.offset, tc.whence, err)
		}
		if got != tc.want {
			t.Fatalf("Seek(%d, %d) = %d, want %d", tc.offset, tc.whence, got, tc.want)
		}
	}

	if _, err := h.Write(make([]byte, 3)); err != nil {
		t.Fatal(err)
	}
	if pos, _ := h.Seek(0, io.SeekEnd); pos != 3 {
		t.Fatalf("Seek(0, End) = %d, want 3", pos)
	}
	if pos, _ := h.Seek(-1, io.SeekEnd); pos != 2 {
		t.Fatalf("Seek(-1, End) = %d, want 2", pos)
	}

	_, err := h.Seek(-1, io.SeekStart)
	var perr *fs.PathError
	if !errors.As(err, &perr) || !errors.Is(err, fs.ErrOutOfRange) || !errors.Is(err, fs.ErrInvalid) {
		t.Fatalf("Seek(-1, Start) err = %v, want out of range PathError", err)
	}
	if pos, _ := h.Seek(0, io.SeekCurrent); pos != 2 {
		t.Fatalf("failed seek moved cursor to %d", pos)
	}
	if _, err := h.Seek(0, 42); !errors.Is(err, fs.ErrInvalid) {
		t.Fatalf("bad whence err = %v", err)
	}
}

func TestHandleSeekEnd(t *testing.T) {
	h := openNew(t, New(), "/ten", make([]byte, 10))
	if pos, _ := h.Seek(0, io.SeekEnd); pos != 10 {
		t.Fatalf("Seek(0, End) = %d, want 10", pos)
	}
	if pos, _ := h.Seek(-1, io.SeekEnd); pos != 9 {
		t.Fatalf("Seek(-1, End) = %d, want 9", pos)
	}
}

func TestHandleSparseWrite(t *testing.T) {
	h := openNew(t, New(), "/sparse", nil)
	if _, err := h.Seek(3, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	if n, err := h.Write([]byte{1}); err != nil || n != 1 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	if got, want := h.Node().Bytes(), []byte{0, 0, 0, 1}; !bytes.Equal(got, want) {
		t.Fatalf("content = %v, want %v", got, want)
	}
	fi, err := h.Stat()
	if err != nil {
		t.Fatal(err)
	}
	if fi.Size() != 4 {
		t.Fatalf("Stat size = %d, want 4", fi.Size())
	}
}

func TestHandleTruncate(t *testing.T) {
	h := openNew(t, New(), "/trunc", []byte("hello world"))
	h.Seek(4, io.SeekStart)

	if err := h.Truncate(0); err != nil {
		t.Fatal(err)
	}
	if fi, _ := h.Stat(); fi.Size() != 0 {
		t.Fatalf("size after Truncate(0) = %d", fi.Size())
	}
	if err := h.Truncate(2); err != nil {
		t.Fatal(err)
	}
	if got := h.Node().Bytes(); !bytes.Equal(got, []byte{0, 0}) {
		t.Fatalf("Truncate(2) grew to %v, want zeros", got)
	}
	if pos, _ := h.Seek(0, io.SeekCurrent); pos != 4 {
		t.Fatalf("Truncate moved cursor to %d", pos)
	}
	if err := h.Truncate(-1); !errors.Is(err, fs.ErrInvalid) {
		t.Fatalf("Truncate(-1) err = %v", err)
	}
}

func TestHandleRead(t *testing.T) {
	h := openNew(t, New(), "/read", []byte("abc"))
	if n, err := h.Read(nil); n != 0 || err != nil {
		t.Fatalf("Read(nil) = %d, %v", n, err)
	}
	p := make([]byte, 8)
	n, err := h.Read(p)
	if err != nil || string(p[:n]) != "abc" {
		t.Fatalf("Read = %q, %v", p[:n], err)
	}
	if n, err := h.Read(p); n != 0 || err != io.EOF {
		t.Fatalf("Read at end = %d, %v; want 0, EOF", n, err)
	}
	h.Seek(10, io.SeekStart)
	if n, err := h.Read(p); n != 0 || err != io.EOF {
		t.Fatalf("Read past end = %d, %v; want 0, EOF", n, err)
	}
}

func TestHandleReader(t *testing.T) {
	content := bytes.Repeat([]byte("memfile "), 500)
	h := openNew(t, New(), "/iotest", content)
	if err := iotest.TestReader(h, content); err != nil {
		t.Fatal(err)
	}
}

func TestHandleIndependentCursors(t *testing.T) {
	fsys := New()
	a := openNew(t, fsys, "/shared", nil)
	b, err := fsys.Open("/shared")
	if err != nil {
		t.Fatal(err)
	}
	if a.Fd() == b.Fd() {
		t.Fatal("two opens returned the same descriptor")
	}

	a.Write([]byte("hello world"))
	p := make([]byte, 5)
	if _, err := io.ReadFull(b, p); err != nil {
		t.Fatal(err)
	}
	if string(p) != "hello" {
		t.Fatalf("b read %q", p)
	}
	posA, _ := a.Seek(0, io.SeekCurrent)
	posB, _ := b.Seek(0, io.SeekCurrent)
	if posA != 11 || posB != 5 {
		t.Fatalf("cursors a=%d b=%d, want 11 and 5", posA, posB)
	}
}

func TestHandleClose(t *testing.T) {
	fsys := New()
	h := openNew(t, fsys, "/closed", []byte("data"))
	id := h.Fd()
	if _, ok := fsys.Get(id); !ok {
		t.Fatal("open handle not in table")
	}
	if err := h.Close(); err != nil {
		t.Fatal(err)
	}
	if _, ok := fsys.Get(id); ok {
		t.Fatal("closed handle still in table")
	}
	if _, err := h.Read(make([]byte, 1)); !errors.Is(err, fs.ErrClosed) {
		t.Fatalf("Read after close err = %v", err)
	}
	if _, err := h.Write([]byte{1}); !errors.Is(err, fs.ErrClosed) {
		t.Fatalf("Write after close err = %v", err)
	}
	if err := h.Close(); !errors.Is(err, fs.ErrClosed) {
		t.Fatalf("second Close err = %v", err)
	}
	if got := string(h.Node().Bytes()); got != "data" {
		t.Fatalf("close altered content: %q", got)
	}
}

func TestTableIDs(t *testing.T) {
	fsys := New()
	fsys.Register("/ids", nil)
	first, _ := fsys.Open("/ids")
	second, _ := fsys.Open("/ids")
	if first.Fd() != -100 || second.Fd() != -101 {
		t.Fatalf("ids = %d, %d; want -100, -101", first.Fd(), second.Fd())
	}
	first.Close()
	third, _ := fsys.Open("/ids")
	if third.Fd() != -102 {
		t.Fatalf("id reused: got %d", third.Fd())
	}
	if fsys.Table().Len() != 2 {
		t.Fatalf("table len = %d, want 2", fsys.Table().Len())
	}
}

func TestStaleHandleAfterReregister(t *testing.T) {
	fsys := New()
	old := openNew(t, fsys, "/stale", []byte("old"))
	if _, err := fsys.Register("/stale", []byte("new")); err != nil {
		t.Fatal(err)
	}
	b, err := io.ReadAll(old)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "old" {
		t.Fatalf("old handle read %q, want old content", b)
	}
	fresh, _ := fsys.Open("/stale")
	b, _ = io.ReadAll(fresh)
	if string(b) != "new" {
		t.Fatalf("new handle read %q, want new content", b)
	}
}

func TestWriteFileVisibleToHandles(t *testing.T) {
	fsys := New()
	h := openNew(t, fsys, "/whole", []byte("before"))
	if err := fsys.WriteFile("/whole", []byte("after!"), 0); err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(h)
	if string(b) != "after!" {
		t.Fatalf("handle read %q after whole-file write", b)
	}
}

func TestOpenFileFlags(t *testing.T) {
	fsys := New()
	if _, err := fsys.OpenFile("/flags", os.O_RDWR, 0); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("open missing err = %v", err)
	}
	f, err := fsys.OpenFile("/flags", os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		t.Fatal(err)
	}
	f.Write([]byte("abc"))
	f.Close()

	if _, err := fsys.OpenFile("/flags", os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644); !errors.Is(err, fs.ErrExist) {
		t.Fatalf("O_EXCL on existing err = %v", err)
	}

	f, err = fsys.OpenFile("/flags", os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		t.Fatal(err)
	}
	f.Seek(0, io.SeekStart)
	f.Write([]byte("def"))
	f.Close()
	if b, _ := fsys.ReadFile("/flags"); string(b) != "abcdef" {
		t.Fatalf("append wrote %q", b)
	}

	f, err = fsys.OpenFile("/flags", os.O_RDWR|os.O_TRUNC, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if fi, _ := f.Stat(); fi.Size() != 0 {
		t.Fatalf("O_TRUNC left size %d", fi.Size())
	}
	if fi, _ := fsys.Stat("/flags"); fi.Mode().Perm() != 0644 {
		t.Fatalf("created mode = %v", fi.Mode())
	}
}

func TestConcurrentWriters(t *testing.T) {
	fsys := New()
	fsys.Register("/concurrent", nil)
	const writers, chunk = 8, 1024
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := fsys.Open("/concurrent")
			if err != nil {
				t.Error(err)
				return
			}
			defer h.Close()
			if _, err := h.WriteAt(bytes.Repeat([]byte{byte(i + 1)}, chunk), int64(i*chunk)); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	n, _ := fsys.Lookup("/concurrent")
	b := n.Bytes()
	if len(b) != writers*chunk {
		t.Fatalf("size = %d, want %d", len(b), writers*chunk)
	}
	for i := range writers {
		if b[i*chunk] != byte(i+1) || b[(i+1)*chunk-1] != byte(i+1) {
			t.Fatalf("region %d corrupted", i)
		}
	}
	if fsys.Table().Len() != 0 {
		t.Fatalf("%d handles leaked", fsys.Table().Len())
	}
}

func TestConcurrentCreate(t *testing.T) {
	fsys := New()
	const openers = 16

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for range openers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f, err := fsys.OpenFile("/exclusive", os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
			if errors.Is(err, fs.ErrExist) {
				return
			}
			if err != nil {
				t.Error(err)
				return
			}
			f.Close()
			mu.Lock()
			created++
			mu.Unlock()
		}()
	}
	wg.Wait()
	if created != 1 {
		t.Fatalf("%d exclusive creates succeeded, want 1", created)
	}

	handles := make([]*Handle, openers)
	for i := range openers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f, err := fsys.OpenFile("/shared", os.O_RDWR|os.O_CREATE, 0644)
			if err != nil {
				t.Error(err)
				return
			}
			handles[i] = f.(*Handle)
		}()
	}
	wg.Wait()
	n, ok := fsys.Lookup("/shared")
	if !ok {
		t.Fatal("/shared not registered")
	}
	for i, h := range handles {
		if h == nil {
			t.Fatalf("open %d failed", i)
		}
		if h.Node() != n {
			t.Fatalf("handle %d is bound to an orphaned node", i)
		}
		if _, err := h.WriteAt([]byte{'x'}, int64(i)); err != nil {
			t.Fatal(err)
		}
		h.Close()
	}
	if n.Size() != openers {
		t.Fatalf("size = %d, want %d", n.Size(), openers)
	}
}

package vfs

import (
	"errors"
	"io"
	"testing"
	"testing/fstest"

	"tractor.dev/memfile/fs"
)

func TestTreeFS(t *testing.T) {
	fsys := New()
	fsys.Register("/srv/data/app.db", []byte("database"))
	fsys.Register("/srv/data/app.db-journal", nil)
	fsys.Register("/srv/readme", []byte("hello, world\n"))

	tree := fsys.Tree()
	if err := fstest.TestFS(tree, "srv/data/app.db", "srv/data/app.db-journal", "srv/readme"); err != nil {
		t.Fatal(err)
	}

	entries, err := tree.ReadDir("srv")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Name() != "data" || !entries[0].IsDir() || entries[1].Name() != "readme" {
		t.Fatalf("ReadDir(srv) = %v", entries)
	}

	if _, err := tree.Open("srv/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("open missing err = %v", err)
	}
	if _, err := tree.Stat("../srv"); !errors.Is(err, fs.ErrInvalid) {
		t.Fatalf("stat invalid err = %v", err)
	}
	if _, err := tree.ReadDir("srv/readme"); err == nil {
		t.Fatal("ReadDir on a file succeeded")
	}
}

func TestTreeEmpty(t *testing.T) {
	if err := fstest.TestFS(New().Tree()); err != nil {
		t.Fatal(err)
	}
}

func TestTreePath(t *testing.T) {
	for in, want := range map[string]string{
		"/":         ".",
		"/a":        "a",
		"/a/b/c.db": "a/b/c.db",
	} {
		if got := TreePath(in); got != want {
			t.Errorf("TreePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTreeOpenReadOnly(t *testing.T) {
	fsys := New()
	fsys.Register("/srv/readme", []byte("hello"))

	f, err := fsys.Tree().Open("srv/readme")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, ok := f.(io.Writer); ok {
		t.Fatal("tree file is writable")
	}
	if _, ok := f.(interface{ Truncate(int64) error }); ok {
		t.Fatal("tree file can be truncated")
	}
	b, err := io.ReadAll(f)
	if err != nil || string(b) != "hello" {
		t.Fatalf("ReadAll = %q, %v", b, err)
	}
	if got := fsys.Table().Len(); got != 0 {
		t.Fatalf("tree open allocated %d descriptors", got)
	}
}

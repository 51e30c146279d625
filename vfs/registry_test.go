package vfs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"tractor.dev/memfile/fs"
	"tractor.dev/memfile/fs/localfs"
)

func TestCanonical(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	for _, tc := range []struct {
		in, want string
	}{
		{"/tmp/a.db", "/tmp/a.db"},
		{"/tmp/x/../a.db", "/tmp/a.db"},
		{"a.db", filepath.Join(wd, "a.db")},
		{"./sub/../a.db", filepath.Join(wd, "a.db")},
		{"file:///tmp/a.db", "/tmp/a.db"},
		{"file://localhost/tmp/a%20b.db", "/tmp/a b.db"},
	} {
		got, err := Canonical(tc.in)
		if err != nil {
			t.Fatalf("Canonical(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("Canonical(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	for _, bad := range []string{"", "file://example.com/a.db", "file://"} {
		if _, err := Canonical(bad); !errors.Is(err, fs.ErrInvalid) {
			t.Errorf("Canonical(%q) err = %v, want ErrInvalid", bad, err)
		}
	}
}

func TestRegisterLookup(t *testing.T) {
	fsys := New()
	if _, err := fsys.Register("file:///mem/db.sqlite", []byte("hello")); err != nil {
		t.Fatal(err)
	}
	n, ok := fsys.Lookup("/mem/./db.sqlite")
	if !ok {
		t.Fatal("lookup by equivalent path failed")
	}
	if n.Name() != "/mem/db.sqlite" {
		t.Fatalf("Name = %q", n.Name())
	}
	if _, ok := fsys.Lookup("/mem/other"); ok {
		t.Fatal("lookup of unregistered path succeeded")
	}
	if _, ok := fsys.Lookup(""); ok {
		t.Fatal("lookup of empty path succeeded")
	}
	if !fsys.IsVirtual("/mem/db.sqlite") {
		t.Fatal("IsVirtual = false")
	}
}

func TestDefaultInfo(t *testing.T) {
	fsys := New()
	fsys.Register("/mem/default", []byte("12345"))
	fi, err := fsys.Stat("/mem/default")
	if err != nil {
		t.Fatal(err)
	}
	if fi.Size() != 5 || fi.IsDir() || fi.Mode() != 0 || !fi.ModTime().IsZero() || fi.Sys() != nil {
		t.Fatalf("unexpected default metadata: %s", fs.FormatFileInfo(fi))
	}
	if fi.Name() != "default" {
		t.Fatalf("Name = %q", fi.Name())
	}
	info := fi.(*FileInfo).Info()
	if !info.IsFile || info.IsSymlink || info.Stat != nil {
		t.Fatalf("Info = %+v", info)
	}
}

func TestNames(t *testing.T) {
	fsys := New()
	for _, name := range []string{"/c", "/a", "/b", "/a"} {
		fsys.Register(name, nil)
	}
	if got := fsys.Registry().Names(); !slices.Equal(got, []string{"/a", "/b", "/c"}) {
		t.Fatalf("Names = %v", got)
	}
	if fsys.Registry().Len() != 3 {
		t.Fatalf("Len = %d", fsys.Registry().Len())
	}
}

func TestPreload(t *testing.T) {
	name := filepath.Join(t.TempDir(), "db.sqlite")
	if err := os.WriteFile(name, []byte("SQLite format 3"), 0600); err != nil {
		t.Fatal(err)
	}
	fsys := New()
	n, err := fsys.Preload(context.Background(), localfs.New(), name)
	if err != nil {
		t.Fatal(err)
	}
	if string(n.Bytes()) != "SQLite format 3" {
		t.Fatalf("content = %q", n.Bytes())
	}
	info := n.Info()
	if !info.IsFile || info.Mode.Perm() != 0600 || info.ModTime.IsZero() {
		t.Fatalf("info = %+v", info)
	}
	if info.Stat == nil || info.Stat.Ino == 0 {
		t.Fatal("host stat fields not captured")
	}

	// the virtual copy is independent of the host file
	os.WriteFile(name, []byte("changed"), 0600)
	h, _ := fsys.Open(name)
	h.Write([]byte("XX"))
	b, _ := os.ReadFile(name)
	if string(b) != "changed" {
		t.Fatalf("host file modified through virtual handle: %q", b)
	}
}

func TestPreloadFailureRegistersNothing(t *testing.T) {
	fsys := New()
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing")
	if _, err := fsys.Preload(context.Background(), localfs.New(), missing); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("preload missing err = %v", err)
	}
	if fsys.IsVirtual(missing) {
		t.Fatal("failed preload registered a file")
	}

	name := filepath.Join(dir, "present")
	os.WriteFile(name, []byte("x"), 0644)
	statFails := &failingStat{Provider: localfs.New()}
	if _, err := fsys.Preload(context.Background(), statFails, name); !errors.Is(err, errStat) {
		t.Fatalf("preload with stat failure err = %v", err)
	}
	if fsys.IsVirtual(name) {
		t.Fatal("partial preload registered a file")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := fsys.Preload(ctx, localfs.New(), name); !errors.Is(err, context.Canceled) {
		t.Fatalf("preload with canceled context err = %v", err)
	}
	if fsys.IsVirtual(name) {
		t.Fatal("canceled preload registered a file")
	}
}

var errStat = errors.New("stat unavailable")

type failingStat struct {
	fs.Provider
}

func (p *failingStat) Stat(name string) (fs.FileInfo, error) {
	return nil, errStat
}

func TestLoadOrRegister(t *testing.T) {
	reg := NewRegistry()
	n, loaded, err := reg.LoadOrRegister("/a", []byte("first"), DefaultInfo())
	if err != nil || loaded {
		t.Fatalf("first LoadOrRegister = %v, %v", loaded, err)
	}
	again, loaded, err := reg.LoadOrRegister("/a", []byte("second"), DefaultInfo())
	if err != nil || !loaded {
		t.Fatalf("second LoadOrRegister = %v, %v", loaded, err)
	}
	if again != n || string(n.Bytes()) != "first" {
		t.Fatalf("existing node replaced: %q", again.Bytes())
	}
	if _, _, err := reg.LoadOrRegister("", nil, DefaultInfo()); err == nil {
		t.Fatal("expected error for empty name")
	}
}

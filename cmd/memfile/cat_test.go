package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tractor.dev/memfile/interpose"
	"tractor.dev/memfile/vfs"
)

func TestReadFdPrefersVirtual(t *testing.T) {
	name := filepath.Join(t.TempDir(), "a.txt")
	if err := os.WriteFile(name, []byte("on disk"), 0644); err != nil {
		t.Fatal(err)
	}
	ifs := interpose.New(vfs.New(), nil)

	data, err := readFd(ifs, name)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "on disk" {
		t.Fatalf("fallthrough read = %q", data)
	}

	if _, err := ifs.Preload(context.Background(), name); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(name, []byte("changed"), 0644); err != nil {
		t.Fatal(err)
	}
	data, err = readFd(ifs, name)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "on disk" {
		t.Fatalf("preloaded read = %q, want the in-memory copy", data)
	}
}

func TestPrintDataHex(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := printData(f, []byte("hi"), true); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(b), "00000000  68 69") {
		t.Fatalf("hex dump = %q", b)
	}
}

func TestSplitPatterns(t *testing.T) {
	got := splitPatterns(" err=*, ,name=/tmp/*")
	if len(got) != 2 || got[0] != "err=*" || got[1] != "name=/tmp/*" {
		t.Fatalf("splitPatterns = %q", got)
	}
	if splitPatterns("") != nil {
		t.Fatal("empty input should yield no patterns")
	}
}

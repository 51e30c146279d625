package vfs

import (
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"

	"tractor.dev/memfile/fs"
	"tractor.dev/memfile/fs/pstat"
)

const snapshotVersion = 1

type snapshot struct {
	Version int                     `cbor:"version"`
	Files   map[string]snapshotFile `cbor:"files"`
}

type snapshotFile struct {
	Data      []byte      `cbor:"data"`
	Mode      fs.FileMode `cbor:"mode"`
	IsFile    bool        `cbor:"file"`
	IsDir     bool        `cbor:"dir"`
	IsSymlink bool        `cbor:"symlink"`
	Mtime     int64       `cbor:"mtime,omitempty"`
	Atime     int64       `cbor:"atime,omitempty"`
	Birthtime int64       `cbor:"birthtime,omitempty"`
	Stat      *pstat.Stat `cbor:"stat,omitempty"`
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(ns int64) time.Time {
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Export writes every registered file, content and metadata, to w as CBOR.
func (fsys *FS) Export(w io.Writer) error {
	snap := snapshot{Version: snapshotVersion, Files: make(map[string]snapshotFile)}
	for name, n := range fsys.reg.snapshot() {
		n.mu.Lock()
		info := n.info
		data := n.data.Clone()
		n.mu.Unlock()
		snap.Files[name] = snapshotFile{
			Data:      data,
			Mode:      info.Mode,
			IsFile:    info.IsFile,
			IsDir:     info.IsDir,
			IsSymlink: info.IsSymlink,
			Mtime:     unixNano(info.ModTime),
			Atime:     unixNano(info.AccessTime),
			Birthtime: unixNano(info.BirthTime),
			Stat:      info.Stat,
		}
	}
	if err := cbor.NewEncoder(w).Encode(snap); err != nil {
		return fmt.Errorf("vfs: export: %w", err)
	}
	return nil
}

// Import registers every file in a snapshot written by Export, replacing
// files registered under the same paths. Nothing is registered if the
// snapshot cannot be decoded.
func (fsys *FS) Import(r io.Reader) error {
	var snap snapshot
	if err := cbor.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("vfs: import: %w", err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("vfs: import: unsupported snapshot version %d", snap.Version)
	}
	nodes := make([]*Node, 0, len(snap.Files))
	for name, f := range snap.Files {
		key, err := Canonical(name)
		if err != nil {
			return fmt.Errorf("vfs: import: %w", err)
		}
		nodes = append(nodes, newNode(key, f.Data, Info{
			Mode:       f.Mode,
			IsFile:     f.IsFile,
			IsDir:      f.IsDir,
			IsSymlink:  f.IsSymlink,
			ModTime:    fromUnixNano(f.Mtime),
			AccessTime: fromUnixNano(f.Atime),
			BirthTime:  fromUnixNano(f.Birthtime),
			Stat:       f.Stat,
		}))
	}
	for _, n := range nodes {
		fsys.reg.set(n)
	}
	fsys.log.Debug("import", "files", len(nodes))
	return nil
}

package vfs

import (
	"errors"
	"io"
	"sync"

	"tractor.dev/memfile/fs"
	"tractor.dev/memfile/fs/membuf"
)

// Node is a virtual file: a canonical path, its content, and its metadata.
// Every method is safe for concurrent use and atomic with respect to the
// others.
type Node struct {
	name string
	mu   sync.Mutex
	data *membuf.Buffer
	info Info
}

func newNode(name string, content []byte, info Info) *Node {
	return &Node{name: name, data: membuf.New(content), info: info}
}

// Name returns the canonical path of the node.
func (n *Node) Name() string {
	return n.name
}

func (n *Node) Info() Info {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.info
}

func (n *Node) SetInfo(info Info) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.info = info
}

func (n *Node) Size() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.data.Size()
}

// Stat returns metadata with the current content length as size.
func (n *Node) Stat() *FileInfo {
	n.mu.Lock()
	defer n.mu.Unlock()
	return &FileInfo{name: n.name, size: n.data.Size(), info: n.info}
}

// Bytes returns a copy of the content.
func (n *Node) Bytes() []byte {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.data.Clone()
}

// Replace swaps the content for a copy of data. Handles already open on the
// node observe the new content.
func (n *Node) Replace(data []byte) {
	buf := membuf.New(append([]byte(nil), data...))
	n.mu.Lock()
	defer n.mu.Unlock()
	n.data = buf
}

// ReplaceFrom reads r to the end and swaps the result in as the content.
// On error the content is left unchanged.
func (n *Node) ReplaceFrom(r io.Reader) (int64, error) {
	buf := membuf.New(nil)
	written, err := buf.ReadFrom(r)
	if err != nil {
		return written, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.data = buf
	return written, nil
}

func (n *Node) readAt(p []byte, off int64) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.data.ReadAt(p, off)
}

// writeAt writes p at off, or at the end of the content when appending, and
// returns the offset the write started at.
func (n *Node) writeAt(p []byte, off int64, appending bool) (int, int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if appending {
		off = n.data.Size()
	}
	c, err := n.data.WriteAt(p, off)
	return c, off, bufErr(err)
}

func (n *Node) resize(size int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return bufErr(n.data.Resize(size))
}

// bufErr maps buffer errors onto the fs error set.
func bufErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, membuf.ErrOutOfRange):
		return fs.ErrOutOfRange
	case errors.Is(err, membuf.ErrNegativeCount):
		return fs.ErrInvalid
	}
	return err
}

package vfs

import (
	"io"
	"log/slog"
	"sync"
)

// ID identifies an open virtual handle. IDs count down from -100 and are
// never reused within a Table.
type ID int

const firstID ID = -100

// Table holds the open handles of one virtual filesystem.
type Table struct {
	handles map[ID]*Handle
	next    ID
	mu      sync.Mutex
	log     *slog.Logger
}

func NewTable() *Table {
	return &Table{
		handles: make(map[ID]*Handle),
		next:    firstID,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (t *Table) SetLogger(logger *slog.Logger) {
	t.log = logger
}

// Open binds a new handle with its cursor at zero to n.
func (t *Table) Open(n *Node, appending bool) *Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := &Handle{id: t.next, node: n, table: t, appending: appending}
	t.handles[h.id] = h
	t.next--
	t.log.Debug("open", "name", n.Name(), "fd", h.id)
	return h
}

func (t *Table) Get(id ID) (*Handle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.handles[id]
	return h, ok
}

// Len returns the number of open handles.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.handles)
}

func (t *Table) remove(id ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.handles, id)
	t.log.Debug("close", "fd", id)
}

package vfs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"tractor.dev/memfile/fs"
)

// Registry maps canonical paths to virtual files. At most one Node exists
// per path; registering a path again replaces its Node, and handles opened
// on the old Node keep using it.
type Registry struct {
	nodes map[string]*Node
	mu    sync.Mutex
	log   *slog.Logger
}

func NewRegistry() *Registry {
	return &Registry{
		nodes: make(map[string]*Node),
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (r *Registry) SetLogger(logger *slog.Logger) {
	r.log = logger
}

// Register makes name a virtual file holding content. The Registry takes
// ownership of content.
func (r *Registry) Register(name string, content []byte, info Info) (n *Node, err error) {
	defer func() {
		r.log.Debug("register", "name", name, "size", len(content), "err", err)
	}()
	key, err := Canonical(name)
	if err != nil {
		return nil, err
	}
	n = newNode(key, content, info)
	r.set(n)
	return n, nil
}

// LoadOrRegister returns the Node registered for name if there is one.
// Otherwise it registers content under name as Register does. The check and
// the insert happen under one lock, so concurrent callers agree on a single
// Node. loaded reports whether the Node already existed.
func (r *Registry) LoadOrRegister(name string, content []byte, info Info) (n *Node, loaded bool, err error) {
	defer func() {
		r.log.Debug("loadorregister", "name", name, "loaded", loaded, "err", err)
	}()
	key, err := Canonical(name)
	if err != nil {
		return nil, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.nodes[key]; ok {
		return n, true, nil
	}
	n = newNode(key, content, info)
	r.nodes[key] = n
	return n, false, nil
}

func (r *Registry) set(n *Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[n.name] = n
}

// Lookup returns the Node registered for name. A name that cannot be
// canonicalized is not found.
func (r *Registry) Lookup(name string) (*Node, bool) {
	key, err := Canonical(name)
	if err != nil {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.nodes[key]
	return n, ok
}

// Preload reads the content and metadata of name from src concurrently and
// registers them as a virtual file. Nothing is registered unless both
// succeed.
func (r *Registry) Preload(ctx context.Context, src fs.Provider, name string) (n *Node, err error) {
	defer func() {
		r.log.Debug("preload", "name", name, "err", err)
	}()
	key, err := Canonical(name)
	if err != nil {
		return nil, err
	}

	var (
		data []byte
		fi   fs.FileInfo
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		b, err := fs.ReadFile(src, key)
		data = b
		return err
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		i, err := src.Stat(key)
		fi = i
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("vfs: preload %q: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("vfs: preload %q: %w", name, err)
	}

	n = newNode(key, data, InfoFromFileInfo(fi))
	r.set(n)
	return n, nil
}

// Names returns the registered canonical paths in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.nodes))
	for name := range r.nodes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.nodes)
}

// snapshot returns a copy of the path to Node map.
func (r *Registry) snapshot() map[string]*Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.nodes)
}

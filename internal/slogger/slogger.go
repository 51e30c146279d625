// Package slogger is the slog handler used by the memfile command: compact
// colored lines with the source location, filtered by attribute patterns.
package slogger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

type HandlerOptions struct {
	Level   slog.Level
	Include []string // If non-empty, only records with an attr matching ANY pattern are logged
	Exclude []string // Records with an attr matching ANY pattern are dropped
}

// Handler formats records itself. Patterns use path.Match syntax and are
// matched against both "key=value" and "key".
type Handler struct {
	w     io.Writer
	mu    *sync.Mutex
	opts  HandlerOptions
	attrs []slog.Attr
	group string
}

func NewHandler(w io.Writer, opts HandlerOptions) (*Handler, error) {
	for _, p := range append(append([]string{}, opts.Include...), opts.Exclude...) {
		if _, err := path.Match(p, p); err != nil {
			return nil, fmt.Errorf("slogger: invalid pattern %q: %w", p, err)
		}
	}
	return &Handler{w: w, mu: &sync.Mutex{}, opts: opts}, nil
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.opts.Level
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		h2.attrs = append(h2.attrs[:len(h2.attrs):len(h2.attrs)], a)
	}
	return &h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	if h.group != "" {
		name = h.group + "." + name
	}
	h2.group = name
	return &h2
}

func valueString(v slog.Value) string {
	v = v.Resolve()
	if v.Kind() == slog.KindAny && v.Any() == nil {
		return "<nil>"
	}
	return v.String()
}

func matches(key, value string, patterns []string) bool {
	for _, p := range patterns {
		// "err=*" should not match a nil error.
		if value == "<nil>" && strings.HasSuffix(p, "=*") {
			if ok, _ := path.Match(strings.TrimSuffix(p, "=*"), key); ok {
				continue
			}
		}
		if ok, _ := path.Match(p, key+"="+value); ok {
			return true
		}
		if ok, _ := path.Match(p, key); ok {
			return true
		}
	}
	return false
}

func (h *Handler) collect(r slog.Record) [][2]string {
	var kv [][2]string
	for _, a := range h.attrs {
		kv = append(kv, [2]string{a.Key, valueString(a.Value)})
	}
	r.Attrs(func(a slog.Attr) bool {
		key := a.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		kv = append(kv, [2]string{key, valueString(a.Value)})
		return true
	})
	return kv
}

// keep reports whether a record with the given attrs passes the filters.
func (h *Handler) keep(kv [][2]string) bool {
	included := len(h.opts.Include) == 0
	for _, a := range kv {
		if matches(a[0], a[1], h.opts.Exclude) {
			return false
		}
		if !included && matches(a[0], a[1], h.opts.Include) {
			included = true
		}
	}
	return included
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	kv := h.collect(r)
	if !h.keep(kv) {
		return nil
	}

	attrs := make([]string, 0, len(kv))
	for _, a := range kv {
		attrs = append(attrs, fmt.Sprintf("\033[90m%s=\033[0m%s", a[0], a[1]))
	}

	file, line := "???", 0
	if r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		if frame.File != "" {
			file, line = frame.File, frame.Line
		}
	}
	pkgName := filepath.Base(filepath.Dir(file))

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintf(h.w, "\033[90m%s\033[0m %s: %s %s \033[90m%s:%d\033[0m\n",
		r.Time.Format("15:04:05.000"), pkgName, r.Message, strings.Join(attrs, " "), filepath.Base(file), line)
	return err
}

// New returns a logger writing to w, or an error for a malformed pattern.
func New(w io.Writer, opts HandlerOptions) (*slog.Logger, error) {
	h, err := NewHandler(w, opts)
	if err != nil {
		return nil, err
	}
	return slog.New(h), nil
}

// Package mmio provides the memory window abstraction used to overlay shadow
// registers on a passthrough BAR: a parent span whose reads can be claimed by
// prioritized overlapping subregions.
package mmio

import (
	"fmt"
	"sort"
)

// Handler serves reads for a span. Offsets are relative to the span start.
type Handler interface {
	Read(offset uint64, size int) uint64
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(offset uint64, size int) uint64

// Read implements Handler.
func (f HandlerFunc) Read(offset uint64, size int) uint64 {
	return f(offset, size)
}

// Writer is implemented by handlers that also accept writes. Subregions that
// do not implement it are transparent to writes.
type Writer interface {
	Write(offset uint64, size int, value uint64)
}

// Subregion is a span overlaid on a window. Higher priority wins when spans
// overlap.
type Subregion struct {
	Name     string
	Offset   uint64
	Size     uint64
	Priority int
	Handler  Handler
}

func (s *Subregion) contains(offset uint64, size int) bool {
	return offset >= s.Offset && offset+uint64(size) <= s.Offset+s.Size
}

// Window is a BAR-sized memory span. Reads are dispatched to the highest
// priority subregion covering the access, falling back to the parent handler
// (the raw BAR mapping). Writes only ever reach the parent: subregions
// overlay reads without replacing the underlying mapping.
type Window struct {
	name   string
	size   uint64
	parent Handler
	subs   []*Subregion
}

// NewWindow creates a window of the given size backed by parent.
func NewWindow(name string, size uint64, parent Handler) *Window {
	return &Window{name: name, size: size, parent: parent}
}

// Name returns the window's name.
func (w *Window) Name() string { return w.name }

// Size returns the window's span in bytes.
func (w *Window) Size() uint64 { return w.size }

// AddSubregion overlays a subregion on the window. The subregion must fit
// inside the window.
func (w *Window) AddSubregion(s *Subregion) error {
	if s.Handler == nil {
		return fmt.Errorf("mmio: subregion %s has no handler", s.Name)
	}
	if s.Offset+s.Size > w.size {
		return fmt.Errorf("mmio: subregion %s [%#x, %#x) exceeds window %s size %#x",
			s.Name, s.Offset, s.Offset+s.Size, w.name, w.size)
	}
	w.subs = append(w.subs, s)
	sort.SliceStable(w.subs, func(i, j int) bool {
		return w.subs[i].Priority > w.subs[j].Priority
	})
	return nil
}

// Subregions returns the number of installed subregions.
func (w *Window) Subregions() int {
	return len(w.subs)
}

// Read dispatches a sized read at offset.
func (w *Window) Read(offset uint64, size int) uint64 {
	for _, s := range w.subs {
		if s.contains(offset, size) {
			return s.Handler.Read(offset-s.Offset, size)
		}
	}
	if w.parent != nil {
		return w.parent.Read(offset, size)
	}
	return 0
}

// Write dispatches a sized write at offset. Subregions that implement Writer
// may claim it; otherwise the write passes through to the parent.
func (w *Window) Write(offset uint64, size int, value uint64) {
	for _, s := range w.subs {
		if s.contains(offset, size) {
			if wr, ok := s.Handler.(Writer); ok {
				wr.Write(offset-s.Offset, size, value)
			} else if pw, ok := w.parent.(Writer); ok {
				pw.Write(offset, size, value)
			}
			return
		}
	}
	if pw, ok := w.parent.(Writer); ok {
		pw.Write(offset, size, value)
	}
}

package rdg

import "github.com/gogpu/rdg/core"

// TextureHandle identifies a texture known to a graph, either transient
// (graph-owned) or imported (caller-owned). The zero value is the invalid
// handle and is distinct from every handle a graph hands out.
type TextureHandle struct {
	id core.TextureID
}

// IsValid reports whether h refers to a real resource record.
func (h TextureHandle) IsValid() bool {
	return !h.id.IsZero()
}

// BufferHandle identifies a buffer known to a graph, either transient
// (graph-owned) or imported (caller-owned). The zero value is the invalid
// handle.
type BufferHandle struct {
	id core.BufferID
}

// IsValid reports whether h refers to a real resource record.
func (h BufferHandle) IsValid() bool {
	return !h.id.IsZero()
}

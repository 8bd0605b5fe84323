package rdg

import (
	"fmt"

	"github.com/gogpu/rdg/hal"
	"github.com/gogpu/rdg/types"
)

// PassContext is handed to a pass's recording callback. Encoder is always
// valid, for copy/clear commands outside a rendering scope. Render is
// non-nil only for a graphics pass (one declaring a color or depth-stencil
// attachment), after the executor has opened its dynamic-rendering scope.
// Compute is non-nil only for a compute pass (one declaring a storage
// write with no attachments), after the executor has opened its compute
// pass scope. A transfer-only pass gets neither.
type PassContext struct {
	Encoder hal.CommandEncoder
	Render  hal.RenderPassEncoder
	Compute hal.ComputePassEncoder
}

// PassCallback records GPU commands for a pass that needs no resolved
// handles, just the pass context.
type PassCallback func(ctx PassContext)

// PassAccessorCallback records GPU commands for a pass that needs to
// resolve its declared handles to physical bindings - samplers, raw
// buffer device addresses, and so on - via a [ResourceAccessor] scoped to
// this pass's execution.
type PassAccessorCallback func(ctx PassContext, res *ResourceAccessor)

// ColorAttachment is one entry in a pass's ordered color attachment list.
type ColorAttachment struct {
	Texture TextureHandle
	LoadOp  types.LoadOp
	StoreOp types.StoreOp
	Clear   types.Color
}

// DepthStencilAttachment is a pass's optional depth-stencil attachment.
type DepthStencilAttachment struct {
	Texture TextureHandle

	DepthLoadOp  types.LoadOp
	DepthStoreOp types.StoreOp
	ClearDepth   float32

	StencilLoadOp  types.LoadOp
	StencilStoreOp types.StoreOp
	ClearStencil   uint32
}

// textureAccess is a declared texture read or storage write.
type textureAccess struct {
	handle TextureHandle
	stages PipelineStage
	access AccessFlags
}

// bufferAccess is a declared buffer read or storage write.
type bufferAccess struct {
	handle BufferHandle
	stages PipelineStage
	access AccessFlags
}

// PassRecord is the immutable-after-recording description of one unit of
// GPU work: its declared reads/writes and its recording callback. See §3
// "Pass record".
type PassRecord struct {
	name     string
	callback PassCallback
	accessor PassAccessorCallback

	colorAttachments []ColorAttachment
	depthStencil     *DepthStencilAttachment

	textureReads []textureAccess
	bufferReads  []bufferAccess

	storageTextureWrites []textureAccess
	storageBufferWrites  []bufferAccess
}

// classification identifies whether a pass opens a dynamic-rendering
// scope (graphics), a compute dispatch region, or neither (transfer-only).
type classification uint8

const (
	classTransfer classification = iota
	classGraphics
	classCompute
)

// classify implements §3's classification rule: graphics iff it declares
// at least one color or depth-stencil attachment; else compute iff it has
// any storage write; else transfer/other.
func (p *PassRecord) classify() classification {
	if len(p.colorAttachments) > 0 || p.depthStencil != nil {
		return classGraphics
	}
	if len(p.storageTextureWrites) > 0 || len(p.storageBufferWrites) > 0 {
		return classCompute
	}
	return classTransfer
}

// PassRef is the fluent builder handed back from [Graph.AddPass]. Every
// method validates its handle immediately and panics with a descriptive
// message on misuse - per §7, a reference to an unknown handle or a
// duplicate depth-stencil declaration is a programming error, and the
// graph is expected to become unusable rather than silently continue.
type PassRef struct {
	graph  *Graph
	record *PassRecord
}

func (p PassRef) mustTexture(h TextureHandle, op string) {
	if !h.IsValid() {
		panic(fmt.Sprintf("rdg: pass %q: %s called with the invalid texture handle", p.record.name, op))
	}
	if _, ok := p.graph.resources.texture(h); !ok {
		panic(fmt.Sprintf("rdg: pass %q: %s called with an unknown texture handle", p.record.name, op))
	}
}

func (p PassRef) mustBuffer(h BufferHandle, op string) {
	if !h.IsValid() {
		panic(fmt.Sprintf("rdg: pass %q: %s called with the invalid buffer handle", p.record.name, op))
	}
	if _, ok := p.graph.resources.buffer(h); !ok {
		panic(fmt.Sprintf("rdg: pass %q: %s called with an unknown buffer handle", p.record.name, op))
	}
}

// ReadTexture declares a sampled or input-attachment read.
func (p PassRef) ReadTexture(h TextureHandle, stages PipelineStage, access AccessFlags) PassRef {
	p.mustTexture(h, "ReadTexture")
	p.record.textureReads = append(p.record.textureReads, textureAccess{h, stages, access})
	return p
}

// ReadBuffer declares a uniform or storage-read buffer access.
func (p PassRef) ReadBuffer(h BufferHandle, stages PipelineStage, access AccessFlags) PassRef {
	p.mustBuffer(h, "ReadBuffer")
	p.record.bufferReads = append(p.record.bufferReads, bufferAccess{h, stages, access})
	return p
}

// WriteColorAttachment appends a color attachment. Order is preserved and
// becomes the order dynamic rendering attaches them in.
func (p PassRef) WriteColorAttachment(h TextureHandle, load types.LoadOp, store types.StoreOp, clear types.Color) PassRef {
	p.mustTexture(h, "WriteColorAttachment")
	p.record.colorAttachments = append(p.record.colorAttachments, ColorAttachment{h, load, store, clear})
	return p
}

// WriteDepthStencilAttachment sets the pass's single depth-stencil
// attachment. Calling it twice on the same pass is a programming error.
func (p PassRef) WriteDepthStencilAttachment(h TextureHandle, depthLoad types.LoadOp, depthStore types.StoreOp, clearDepth float32, stencilLoad types.LoadOp, stencilStore types.StoreOp, clearStencil uint32) PassRef {
	p.mustTexture(h, "WriteDepthStencilAttachment")
	if p.record.depthStencil != nil {
		panic(fmt.Sprintf("rdg: pass %q: WriteDepthStencilAttachment called twice", p.record.name))
	}
	p.record.depthStencil = &DepthStencilAttachment{
		Texture:        h,
		DepthLoadOp:    depthLoad,
		DepthStoreOp:   depthStore,
		ClearDepth:     clearDepth,
		StencilLoadOp:  stencilLoad,
		StencilStoreOp: stencilStore,
		ClearStencil:   clearStencil,
	}
	return p
}

// WriteStorageTexture declares a storage-image write.
func (p PassRef) WriteStorageTexture(h TextureHandle, stages PipelineStage, access AccessFlags) PassRef {
	p.mustTexture(h, "WriteStorageTexture")
	p.record.storageTextureWrites = append(p.record.storageTextureWrites, textureAccess{h, stages, access})
	return p
}

// WriteStorageBuffer declares a storage-buffer write.
func (p PassRef) WriteStorageBuffer(h BufferHandle, stages PipelineStage, access AccessFlags) PassRef {
	p.mustBuffer(h, "WriteStorageBuffer")
	p.record.storageBufferWrites = append(p.record.storageBufferWrites, bufferAccess{h, stages, access})
	return p
}

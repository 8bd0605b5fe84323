package rdg

import (
	"fmt"

	"github.com/gogpu/rdg/hal"
	"github.com/gogpu/rdg/types"
)

// DeviceAddressable is implemented by a backend's hal.Buffer when it
// supports VK_KHR_buffer_device_address. No backend in this module
// implements it yet; [ResourceAccessor.BufferDeviceAddress] reports ok=false
// until one does.
type DeviceAddressable interface {
	DeviceAddress() uint64
}

// ResourceAccessor resolves a pass's declared handles to physical bindings
// during that pass's callback. It is only valid for the duration of the
// call it was handed to - the graph reuses nothing about it afterward, but
// holding onto it past the callback's return is a programming error the
// graph makes no attempt to detect.
type ResourceAccessor struct {
	graph *Graph
	pass  *PassRecord
}

func newResourceAccessor(g *Graph, p *PassRecord) *ResourceAccessor {
	return &ResourceAccessor{graph: g, pass: p}
}

func (r *ResourceAccessor) textureRecord(h TextureHandle, op string) *textureResource {
	rec, ok := r.graph.resources.texture(h)
	if !ok {
		panic(fmt.Sprintf("rdg: pass %q: %s called with an unknown texture handle", r.pass.name, op))
	}
	return rec
}

func (r *ResourceAccessor) bufferRecord(h BufferHandle, op string) *bufferResource {
	rec, ok := r.graph.resources.buffer(h)
	if !ok {
		panic(fmt.Sprintf("rdg: pass %q: %s called with an unknown buffer handle", r.pass.name, op))
	}
	return rec
}

// TextureView returns the view bound for h. Valid for any texture the pass
// declared a read, write or attachment access to.
func (r *ResourceAccessor) TextureView(h TextureHandle) hal.TextureView {
	return r.textureRecord(h, "TextureView").view
}

// Texture returns the physical texture bound for h.
func (r *ResourceAccessor) Texture(h TextureHandle) hal.Texture {
	return r.textureRecord(h, "Texture").binding
}

// TextureLayout returns the image layout h is in during this pass, after
// the compiler's synthesized barriers have run.
func (r *ResourceAccessor) TextureLayout(h TextureHandle) ImageLayout {
	return r.textureRecord(h, "TextureLayout").layout
}

// Buffer returns the physical buffer bound for h.
func (r *ResourceAccessor) Buffer(h BufferHandle) hal.Buffer {
	return r.bufferRecord(h, "Buffer").binding
}

// BufferDeviceAddress returns h's GPU-visible address, if the active
// backend's buffer implementation supports it.
func (r *ResourceAccessor) BufferDeviceAddress(h BufferHandle) (addr uint64, ok bool) {
	rec := r.bufferRecord(h, "BufferDeviceAddress")
	addressable, supported := rec.binding.(DeviceAddressable)
	if !supported {
		return 0, false
	}
	return addressable.DeviceAddress(), true
}

// Sampler returns the graph's convenience sampler for kind, creating it
// lazily on first use and caching it for the rest of the graph's lifetime.
func (r *ResourceAccessor) Sampler(kind SamplerKind) hal.Sampler {
	if kind >= samplerKindCount {
		panic(fmt.Sprintf("rdg: pass %q: Sampler called with an unknown sampler kind %d", r.pass.name, kind))
	}
	if s, ok := r.graph.samplers[kind]; ok {
		return s
	}
	desc := kind.descriptorFor(r.graph.maxAnisotropy)
	s, err := r.graph.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        desc.Label,
		AddressModeU: desc.AddressModeU,
		AddressModeV: desc.AddressModeV,
		AddressModeW: desc.AddressModeW,
		MagFilter:    desc.MagFilter,
		MinFilter:    desc.MinFilter,
		MipmapFilter: mipmapToFilterMode(desc.MipmapFilter),
		LodMinClamp:  desc.LodMinClamp,
		LodMaxClamp:  desc.LodMaxClamp,
		Compare:      desc.Compare,
		Anisotropy:   desc.MaxAnisotropy,
	})
	if err != nil {
		panic(fmt.Sprintf("rdg: pass %q: create sampler %s: %v", r.pass.name, kind, err))
	}
	r.graph.samplers[kind] = s
	return s
}

// mipmapToFilterMode adapts types.MipmapFilterMode (the vocabulary
// [SamplerKind.descriptorFor] builds against) to the types.FilterMode the
// hal.SamplerDescriptor.MipmapFilter field expects.
func mipmapToFilterMode(m types.MipmapFilterMode) types.FilterMode {
	if m == types.MipmapFilterModeLinear {
		return types.FilterModeLinear
	}
	return types.FilterModeNearest
}

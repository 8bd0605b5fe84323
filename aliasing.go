package rdg

import (
	"sync"

	"github.com/gogpu/rdg/hal"
	"github.com/gogpu/rdg/types"
)

// AliasingPool is the long-lived store of retired transient backings a
// graph draws from when allocating this frame's transients (§4.2).
// Unlike a Graph, which is single-use per frame, one AliasingPool is
// created once by the caller and handed to every frame's Graph so that
// backings survive from frame to frame.
//
// The matching policy is deliberately simple: a linear scan for a
// bit-exact descriptor match whose most recent user's lifetime does not
// overlap the requesting resource's lifetime. Because entries are
// rebound in place to their newest user, the same scan also implements
// same-frame aliasing (testable property: two transients in one compile
// sharing a backing) - there is no separate intra-frame path.
type AliasingPool struct {
	mu       sync.Mutex
	textures []*pooledTexture
	buffers  []*pooledBuffer
}

type pooledTexture struct {
	desc    TextureDescriptor
	binding hal.Texture
	view    hal.TextureView
	life    lifetime
}

type pooledBuffer struct {
	desc    BufferDescriptor
	binding hal.Buffer
	life    lifetime
}

// NewAliasingPool creates an empty pool.
func NewAliasingPool() *AliasingPool {
	return &AliasingPool{}
}

// TextureCount reports the number of distinct texture backings currently
// held by the pool (for tests and diagnostics).
func (p *AliasingPool) TextureCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.textures)
}

// BufferCount reports the number of distinct buffer backings currently
// held by the pool.
func (p *AliasingPool) BufferCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buffers)
}

// acquireTexture returns a backing and view satisfying desc for the given
// lifetime, reusing a pooled entry on a non-overlapping bit-exact match
// (hit=true) or allocating fresh through device/allocator on a miss.
func (p *AliasingPool) acquireTexture(device hal.Device, allocator Allocator, desc TextureDescriptor, life lifetime) (binding hal.Texture, view hal.TextureView, hit bool, err error) {
	desc = desc.normalized()

	p.mu.Lock()
	for _, e := range p.textures {
		if e.desc.matches(desc) && !e.life.overlaps(life) {
			e.life = life
			binding, view = e.binding, e.view
			p.mu.Unlock()
			return binding, view, true, nil
		}
	}
	p.mu.Unlock()

	binding, err = allocator.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Name,
		Size:          hal.Extent3D(desc.Extent),
		MipLevelCount: desc.MipLevelCount,
		SampleCount:   desc.SampleCount,
		Dimension:     types.TextureDimension2D,
		Format:        desc.Format,
		Usage:         desc.Usage,
	})
	if err != nil {
		return nil, nil, false, err
	}
	view, err = device.CreateTextureView(binding, &hal.TextureViewDescriptor{
		Label:           desc.Name + ".view",
		Format:          desc.Format,
		ArrayLayerCount: desc.ArrayLayers,
		MipLevelCount:   desc.MipLevelCount,
	})
	if err != nil {
		allocator.DestroyTexture(binding)
		return nil, nil, false, err
	}

	p.mu.Lock()
	p.textures = append(p.textures, &pooledTexture{desc: desc, binding: binding, view: view, life: life})
	p.mu.Unlock()
	return binding, view, false, nil
}

// acquireBuffer returns a backing satisfying desc for the given lifetime,
// reusing a pooled entry whose size is large enough and whose lifetime
// does not overlap (hit=true), or allocating fresh on a miss.
func (p *AliasingPool) acquireBuffer(allocator Allocator, desc BufferDescriptor, life lifetime) (binding hal.Buffer, hit bool, err error) {
	p.mu.Lock()
	for _, e := range p.buffers {
		if desc.matches(e.desc) && !e.life.overlaps(life) {
			e.life = life
			binding = e.binding
			p.mu.Unlock()
			return binding, true, nil
		}
	}
	p.mu.Unlock()

	binding, err = allocator.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Name,
		Size:  desc.Size,
		Usage: desc.Usage,
	})
	if err != nil {
		return nil, false, err
	}

	p.mu.Lock()
	p.buffers = append(p.buffers, &pooledBuffer{desc: desc, binding: binding, life: life})
	p.mu.Unlock()
	return binding, false, nil
}

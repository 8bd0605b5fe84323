package rdg

import (
	"fmt"

	"github.com/gogpu/rdg/core/track"
	"github.com/gogpu/rdg/hal"
	"github.com/gogpu/rdg/types"
)

// Graph is a single owning type for one frame's rendering work: recording,
// compiling and executing are all methods on the same value rather than a
// thin public builder forwarding to a private compiler object (§9). Build
// a fresh Graph every frame; it is single-use.
type Graph struct {
	device    hal.Device
	queue     hal.Queue
	allocator Allocator
	cmdPool   CommandPoolManager
	pool      *AliasingPool

	resources *resources
	passes    []*PassRecord
	compiled  []*compiledPass

	// epilogueBarriers transition any touched swapchain image into
	// PresentSrcKHR after the last pass that uses it (§4.2).
	epilogueBarriers []Barrier

	samplers      map[SamplerKind]hal.Sampler
	maxAnisotropy uint16

	executed bool
}

// NewGraph constructs a graph for one frame. device and queue drive
// submission and view/sampler creation; allocator creates transient
// backings; cmdPool supplies the per-thread command encoder; pool is the
// cross-frame [AliasingPool] this frame draws transient backings from and
// retires them back into.
func NewGraph(device hal.Device, queue hal.Queue, allocator Allocator, cmdPool CommandPoolManager, pool *AliasingPool) *Graph {
	return &Graph{
		device:    device,
		queue:     queue,
		allocator: allocator,
		cmdPool:   cmdPool,
		pool:      pool,
		resources: newResources(),
		samplers:  make(map[SamplerKind]hal.Sampler),
	}
}

// SetMaxAnisotropy records the device's anisotropy limit, consulted when
// lazily creating the AnisotropicClamp/AnisotropicRepeat samplers.
func (g *Graph) SetMaxAnisotropy(max uint16) {
	g.maxAnisotropy = max
}

// CreateTransientTexture records a new graph-owned texture with no
// backing; its lifetime starts empty until a pass touches it.
func (g *Graph) CreateTransientTexture(desc TextureDescriptor) TextureHandle {
	if !desc.IsValid() {
		panic(fmt.Sprintf("rdg: CreateTransientTexture: invalid descriptor %+v", desc))
	}
	rec := &textureResource{
		name:   desc.Name,
		origin: OriginTransient,
		desc:   desc.normalized(),
		layout: track.LayoutUndefined,
	}
	return g.resources.addTexture(rec)
}

// CreateTransientBuffer records a new graph-owned buffer with no backing.
func (g *Graph) CreateTransientBuffer(desc BufferDescriptor) BufferHandle {
	if !desc.IsValid() {
		panic(fmt.Sprintf("rdg: CreateTransientBuffer: invalid descriptor %+v", desc))
	}
	rec := &bufferResource{
		name:   desc.Name,
		origin: OriginTransient,
		desc:   desc,
	}
	return g.resources.addBuffer(rec)
}

// ImportExternalTexture records a caller-owned texture. The graph never
// frees it; desc.Name/Format/Extent/Usage describe the backing since the
// hal.Texture handle itself carries no introspectable metadata.
func (g *Graph) ImportExternalTexture(image hal.Texture, view hal.TextureView, desc TextureDescriptor, currentLayout ImageLayout) TextureHandle {
	if image == nil {
		panic("rdg: ImportExternalTexture: nil image")
	}
	if !desc.IsValid() {
		panic(fmt.Sprintf("rdg: ImportExternalTexture: invalid descriptor %+v", desc))
	}
	rec := &textureResource{
		name:    desc.Name,
		origin:  OriginExternal,
		desc:    desc.normalized(),
		binding: image,
		view:    view,
		layout:  currentLayout,
		access:  importAccessRecord(currentLayout),
	}
	return g.resources.addTexture(rec)
}

// ImportExternalBuffer records a caller-owned buffer.
func (g *Graph) ImportExternalBuffer(buffer hal.Buffer, desc BufferDescriptor) BufferHandle {
	if buffer == nil {
		panic("rdg: ImportExternalBuffer: nil buffer")
	}
	if !desc.IsValid() {
		panic(fmt.Sprintf("rdg: ImportExternalBuffer: invalid descriptor %+v", desc))
	}
	rec := &bufferResource{
		name:    desc.Name,
		origin:  OriginExternal,
		desc:    desc,
		binding: buffer,
	}
	return g.resources.addBuffer(rec)
}

// ImportSwapchainImage is a special import: the descriptor is derived from
// the swapchain's current format/extent, and the current layout starts
// Undefined - the image is transitioned into ColorAttachmentOptimal before
// use and into PresentSrcKHR after use by synthesized barriers (§4.2).
func (g *Graph) ImportSwapchainImage(sc Swapchain, imageIndex uint32) TextureHandle {
	if sc == nil {
		panic("rdg: ImportSwapchainImage: nil swapchain")
	}
	image, err := sc.Image(imageIndex)
	if err != nil {
		panic(fmt.Sprintf("rdg: ImportSwapchainImage: %v", err))
	}
	view, err := sc.ImageView(imageIndex)
	if err != nil {
		panic(fmt.Sprintf("rdg: ImportSwapchainImage: %v", err))
	}
	w, h := sc.Extent()
	rec := &textureResource{
		name:   fmt.Sprintf("swapchain[%d]", imageIndex),
		origin: OriginExternal,
		desc: TextureDescriptor{
			Name:          fmt.Sprintf("swapchain[%d]", imageIndex),
			Format:        sc.Format(),
			Extent:        types.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
			Usage:         types.TextureUsageRenderAttachment,
			MipLevelCount: 1,
			ArrayLayers:   1,
			SampleCount:   1,
		},
		binding: image,
		view:    view,
		layout:  track.LayoutUndefined,
		access:  importAccessRecord(track.LayoutUndefined),
		swapchain: &swapchainSlot{
			swapchain:  sc,
			imageIndex: imageIndex,
		},
	}
	return g.resources.addTexture(rec)
}

// AddPass records a new pass in declaration order. Declaration order seeds
// the topological order compile uses; the order reads/writes are declared
// within a pass does not matter (§4.3).
func (g *Graph) AddPass(name string, callback PassCallback) PassRef {
	rec := &PassRecord{name: name, callback: callback}
	g.passes = append(g.passes, rec)
	return PassRef{graph: g, record: rec}
}

// AddPassWithAccessor records a new pass whose callback resolves its
// declared handles via a [ResourceAccessor].
func (g *Graph) AddPassWithAccessor(name string, callback PassAccessorCallback) PassRef {
	rec := &PassRecord{name: name, accessor: callback}
	g.passes = append(g.passes, rec)
	return PassRef{graph: g, record: rec}
}

// Execute compiles the recorded passes, records and submits one command
// buffer, and signals sync's fence (if any) on completion. It is an error
// to call Execute twice on the same graph.
func (g *Graph) Execute(sync *SyncBundle) error {
	if g.executed {
		return fmt.Errorf("rdg: Execute called twice on the same graph")
	}
	g.executed = true

	// Return this frame's transient backings to the pool: their lifetimes
	// are pass indices of this graph only, so a later frame may reuse them.
	defer func() {
		g.pool.mu.Lock()
		defer g.pool.mu.Unlock()
		for _, e := range g.pool.textures {
			e.life = lifetime{}
		}
		for _, e := range g.pool.buffers {
			e.life = lifetime{}
		}
	}()

	if err := g.compile(); err != nil {
		return err
	}
	return g.execute(sync)
}

package rdg

import (
	"github.com/gogpu/rdg/core"
	"github.com/gogpu/rdg/core/track"
	"github.com/gogpu/rdg/hal"
)

// Origin distinguishes resources the graph owns for one frame from
// resources the caller owns across frames.
type Origin uint8

const (
	// OriginTransient means the graph allocates (or aliases) the backing
	// and retires it to the aliasing pool after Execute.
	OriginTransient Origin = iota
	// OriginExternal means the caller owns the backing; the graph only
	// borrows it for the frame and never frees it.
	OriginExternal
)

// String implements fmt.Stringer.
func (o Origin) String() string {
	if o == OriginExternal {
		return "external"
	}
	return "transient"
}

// lifetime tracks the span of pass indices during which a resource is
// touched. A resource with used=false after compile's lifetime phase is
// never allocated, per invariant 4.
type lifetime struct {
	first, last int
	used        bool
}

// touch extends the interval to include passIndex.
func (l *lifetime) touch(passIndex int) {
	if !l.used {
		l.first, l.last, l.used = passIndex, passIndex, true
		return
	}
	if passIndex < l.first {
		l.first = passIndex
	}
	if passIndex > l.last {
		l.last = passIndex
	}
}

// overlaps reports whether two lifetimes share any pass index. Two unused
// lifetimes never overlap.
func (l lifetime) overlaps(other lifetime) bool {
	if !l.used || !other.used {
		return false
	}
	return l.first <= other.last && other.first <= l.last
}

// swapchainSlot identifies a texture record as backing a specific
// swapchain image.
type swapchainSlot struct {
	swapchain  Swapchain
	imageIndex uint32
}

// importAccessRecord seeds an imported texture's accessRecord from its
// declared current layout, so phase 5 (§4.4) initializes externals "to the
// declared import state" rather than the zero value every transient starts
// from. An Undefined layout (no prior content, e.g. a fresh swapchain image)
// carries no prior access to synchronize against.
func importAccessRecord(layout ImageLayout) accessRecord {
	switch layout {
	case LayoutColorAttachmentOptimal:
		return accessRecord{stages: StageColorAttachmentOutput, access: AccessColorAttachmentWrite, wasWrite: true}
	case LayoutDepthStencilAttachmentOptimal:
		return accessRecord{stages: StageEarlyFragmentTests | StageLateFragmentTests, access: AccessDepthStencilAttachmentWrite, wasWrite: true}
	case LayoutShaderReadOnlyOptimal:
		return accessRecord{stages: StageFragmentShader, access: AccessShaderRead}
	case LayoutGeneral:
		return accessRecord{stages: StageComputeShader, access: AccessShaderWrite, wasWrite: true}
	case LayoutTransferSrcOptimal:
		return accessRecord{stages: StageTransfer, access: AccessTransferRead}
	case LayoutTransferDstOptimal:
		return accessRecord{stages: StageTransfer, access: AccessTransferWrite, wasWrite: true}
	default:
		return accessRecord{}
	}
}

// accessRecord is the barrier-synthesis bookkeeping kept per resource
// across phase 5: the stage/access the most recent pass used, and whether
// that use was a write. See §4.4 phase 5 of the design.
type accessRecord struct {
	stages   PipelineStage
	access   AccessFlags
	wasWrite bool
}

// textureResource is the registry entry for a texture handle. Pointers are
// stored in the registry so in-place mutation (lifetime, layout, binding)
// never requires a round trip through GetMut.
type textureResource struct {
	name   string
	origin Origin
	desc   TextureDescriptor

	binding hal.Texture
	view    hal.TextureView
	layout  track.ImageLayout

	swapchain *swapchainSlot

	life   lifetime
	access accessRecord

	// pooled is true once an aliasing-pool backing has been bound; such a
	// backing stays in the pool after the frame instead of being destroyed.
	pooled bool
}

// bufferResource is the registry entry for a buffer handle.
type bufferResource struct {
	name   string
	origin Origin
	desc   BufferDescriptor

	binding       hal.Buffer
	deviceAddress uint64

	life   lifetime
	access accessRecord

	pooled bool
}

// resources is the per-frame registry: the authoritative table mapping
// handles to either transient or external physical resources. It owns no
// cross-frame state itself; the [AliasingPool] passed into the graph does.
type resources struct {
	textures *core.TextureRegistry[*textureResource]
	buffers  *core.BufferRegistry[*bufferResource]
}

func newResources() *resources {
	return &resources{
		textures: core.NewTextureRegistry[*textureResource](),
		buffers:  core.NewBufferRegistry[*bufferResource](),
	}
}

func (r *resources) texture(h TextureHandle) (*textureResource, bool) {
	if !h.IsValid() {
		return nil, false
	}
	rec, err := r.textures.Get(h.id)
	if err != nil {
		return nil, false
	}
	return rec, true
}

func (r *resources) buffer(h BufferHandle) (*bufferResource, bool) {
	if !h.IsValid() {
		return nil, false
	}
	rec, err := r.buffers.Get(h.id)
	if err != nil {
		return nil, false
	}
	return rec, true
}

func (r *resources) addTexture(rec *textureResource) TextureHandle {
	return TextureHandle{id: r.textures.Register(rec)}
}

func (r *resources) addBuffer(rec *bufferResource) BufferHandle {
	return BufferHandle{id: r.buffers.Register(rec)}
}

// forEachTexture visits every texture record currently registered,
// swapchain imports and transients alike.
func (r *resources) forEachTexture(fn func(TextureHandle, *textureResource)) {
	r.textures.ForEach(func(id core.TextureID, rec *textureResource) bool {
		fn(TextureHandle{id: id}, rec)
		return true
	})
}

package track

import (
	"github.com/gogpu/rdg/hal"
	"github.com/gogpu/rdg/types"
)

// TextureUses represents internal texture usage states for tracking.
// Unlike types.TextureUsage (a capability mask declared at creation time),
// TextureUses also carries the Vulkan image layout a given use implies, so
// the tracker can answer both "does this need a barrier" and "what layout
// should the resource be in" from a single value.
type TextureUses uint32

// Texture usage flags for state tracking.
const (
	TextureUsesNone TextureUses = 0
	// TextureUsesCopySrc is used as the source of a copy (TransferSrcOptimal).
	TextureUsesCopySrc TextureUses = 1 << 0
	// TextureUsesCopyDst is used as the destination of a copy (TransferDstOptimal).
	TextureUsesCopyDst TextureUses = 1 << 1
	// TextureUsesSampled is read by a shader (ShaderReadOnlyOptimal).
	TextureUsesSampled TextureUses = 1 << 2
	// TextureUsesStorageRead is read as a storage image (General).
	TextureUsesStorageRead TextureUses = 1 << 3
	// TextureUsesStorageWrite is written as a storage image (General).
	TextureUsesStorageWrite TextureUses = 1 << 4
	// TextureUsesColorAttachmentWrite is written as a color attachment (ColorAttachmentOptimal).
	TextureUsesColorAttachmentWrite TextureUses = 1 << 5
	// TextureUsesColorAttachmentRead is read back by blending a loaded color attachment.
	TextureUsesColorAttachmentRead TextureUses = 1 << 6
	// TextureUsesDepthStencilWrite is written as a depth/stencil attachment (DepthStencilAttachmentOptimal).
	TextureUsesDepthStencilWrite TextureUses = 1 << 7
	// TextureUsesDepthStencilRead is read as a depth/stencil attachment (e.g. depth test with writes disabled).
	TextureUsesDepthStencilRead TextureUses = 1 << 8
	// TextureUsesPresent is the swapchain present source (PresentSrcKHR).
	TextureUsesPresent TextureUses = 1 << 9
)

// IsReadOnly returns true if the usage contains only read-only operations.
func (u TextureUses) IsReadOnly() bool {
	writeUsages := TextureUsesCopyDst | TextureUsesStorageWrite |
		TextureUsesColorAttachmentWrite | TextureUsesDepthStencilWrite
	return u&writeUsages == 0
}

// IsEmpty returns true if no usage flags are set.
func (u TextureUses) IsEmpty() bool {
	return u == TextureUsesNone
}

// IsCompatible returns true if two uses can coexist in the same layout
// without a barrier between them.
func (u TextureUses) IsCompatible(other TextureUses) bool {
	if u.IsEmpty() || other.IsEmpty() {
		return true
	}
	if u.IsReadOnly() && other.IsReadOnly() {
		// Still only compatible if they imply the same layout - a sampled
		// read and a color-attachment read-back don't share one.
		return u.ToLayout() == other.ToLayout()
	}
	return u == other
}

// ToTextureUsage converts internal uses to types.TextureUsage for HAL resource creation.
func (u TextureUses) ToTextureUsage() types.TextureUsage {
	var result types.TextureUsage

	if u&TextureUsesCopySrc != 0 {
		result |= types.TextureUsageCopySrc
	}
	if u&TextureUsesCopyDst != 0 {
		result |= types.TextureUsageCopyDst
	}
	if u&TextureUsesSampled != 0 {
		result |= types.TextureUsageTextureBinding
	}
	if u&(TextureUsesStorageRead|TextureUsesStorageWrite) != 0 {
		result |= types.TextureUsageStorageBinding
	}
	if u&(TextureUsesColorAttachmentWrite|TextureUsesColorAttachmentRead|
		TextureUsesDepthStencilWrite|TextureUsesDepthStencilRead) != 0 {
		result |= types.TextureUsageRenderAttachment
	}

	return result
}

// ImageLayout mirrors the Vulkan image layout an access implies.
type ImageLayout uint8

const (
	// LayoutUndefined is the initial layout of a transient resource, or an
	// import with no prior content guarantees.
	LayoutUndefined ImageLayout = iota
	// LayoutGeneral is used for storage image reads and writes.
	LayoutGeneral
	// LayoutColorAttachmentOptimal is used for color attachment reads/writes.
	LayoutColorAttachmentOptimal
	// LayoutDepthStencilAttachmentOptimal is used for depth/stencil attachment reads/writes.
	LayoutDepthStencilAttachmentOptimal
	// LayoutShaderReadOnlyOptimal is used for sampled and input-attachment reads.
	LayoutShaderReadOnlyOptimal
	// LayoutTransferSrcOptimal is used as the source of a copy.
	LayoutTransferSrcOptimal
	// LayoutTransferDstOptimal is used as the destination of a copy.
	LayoutTransferDstOptimal
	// LayoutPresentSrcKHR is the layout a swapchain image must be in before present.
	LayoutPresentSrcKHR
)

// ToLayout returns the layout a given use implies. When more than one bit
// is set the most specific write layout wins, since a resource can only be
// in one legal layout for the purposes of a single barrier.
func (u TextureUses) ToLayout() ImageLayout {
	switch {
	case u&TextureUsesPresent != 0:
		return LayoutPresentSrcKHR
	case u&TextureUsesDepthStencilWrite != 0 || u&TextureUsesDepthStencilRead != 0:
		return LayoutDepthStencilAttachmentOptimal
	case u&TextureUsesColorAttachmentWrite != 0 || u&TextureUsesColorAttachmentRead != 0:
		return LayoutColorAttachmentOptimal
	case u&(TextureUsesStorageRead|TextureUsesStorageWrite) != 0:
		return LayoutGeneral
	case u&TextureUsesSampled != 0:
		return LayoutShaderReadOnlyOptimal
	case u&TextureUsesCopySrc != 0:
		return LayoutTransferSrcOptimal
	case u&TextureUsesCopyDst != 0:
		return LayoutTransferDstOptimal
	default:
		return LayoutUndefined
	}
}

// TextureState holds the tracked state for a single texture.
type TextureState struct {
	usage TextureUses
}

// Usage returns the current usage.
func (s TextureState) Usage() TextureUses {
	return s.usage
}

// TextureTracker tracks texture usage states for a device or graph.
// Used to validate usage transitions and generate barriers.
type TextureTracker struct {
	states   []TextureState
	metadata ResourceMetadata
}

// NewTextureTracker creates a new texture tracker.
func NewTextureTracker() *TextureTracker {
	return &TextureTracker{
		states:   make([]TextureState, 0, 64),
		metadata: NewResourceMetadata(),
	}
}

// InsertSingle tracks a new texture with initial usage.
func (t *TextureTracker) InsertSingle(index TrackerIndex, usage TextureUses) {
	t.ensureSize(int(index) + 1)
	t.states[index] = TextureState{usage: usage}
	t.metadata.SetOwned(index, true)
}

// Remove stops tracking a texture.
func (t *TextureTracker) Remove(index TrackerIndex) {
	if int(index) < len(t.states) {
		t.states[index] = TextureState{}
		t.metadata.SetOwned(index, false)
	}
}

// GetUsage returns the current usage of a texture.
func (t *TextureTracker) GetUsage(index TrackerIndex) TextureUses {
	if int(index) < len(t.states) && t.metadata.IsOwned(index) {
		return t.states[index].usage
	}
	return TextureUsesNone
}

// IsTracked returns true if the texture is being tracked.
func (t *TextureTracker) IsTracked(index TrackerIndex) bool {
	return int(index) < len(t.states) && t.metadata.IsOwned(index)
}

// Size returns the number of tracked textures.
func (t *TextureTracker) Size() int {
	return t.metadata.Count()
}

func (t *TextureTracker) ensureSize(size int) {
	for len(t.states) < size {
		t.states = append(t.states, TextureState{})
	}
}

// Transition records a new use for the given texture and reports whether a
// barrier is required to move from its previous use to this one. The first
// use of a tracked index never produces a barrier - there is nothing to
// synchronize against yet, only an initial layout to note.
func (t *TextureTracker) Transition(index TrackerIndex, newUsage TextureUses) (PendingTextureTransition, bool) {
	old := t.GetUsage(index)

	if !t.IsTracked(index) {
		t.InsertSingle(index, newUsage)
		return PendingTextureTransition{}, false
	}

	if old.IsCompatible(newUsage) && old.ToLayout() == newUsage.ToLayout() {
		t.states[index].usage = old | newUsage
		return PendingTextureTransition{}, false
	}

	t.states[index].usage = newUsage
	return PendingTextureTransition{
		Index: index,
		Usage: TextureStateTransition{From: old, To: newUsage},
	}, true
}

// TextureStateTransition represents a from->to state change.
type TextureStateTransition struct {
	From TextureUses
	To   TextureUses
}

// NeedsBarrier returns true if this transition requires a barrier.
func (t TextureStateTransition) NeedsBarrier() bool {
	if t.From == t.To {
		return false
	}
	return t.From.ToLayout() != t.To.ToLayout() || !t.From.IsReadOnly() || !t.To.IsReadOnly()
}

// PendingTextureTransition represents a texture state transition that needs a barrier.
type PendingTextureTransition struct {
	Index TrackerIndex
	Usage TextureStateTransition
}

// IntoHAL converts a pending transition into a HAL texture barrier over the
// given subresource range. The Vulkan backend derives both old and new
// image layouts from the usage transition itself.
func (p PendingTextureTransition) IntoHAL(texture hal.Texture, rng hal.TextureRange) hal.TextureBarrier {
	return hal.TextureBarrier{
		Texture: texture,
		Range:   rng,
		Usage: hal.TextureUsageTransition{
			OldUsage: p.Usage.From.ToTextureUsage(),
			NewUsage: p.Usage.To.ToTextureUsage(),
		},
	}
}

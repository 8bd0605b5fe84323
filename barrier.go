package rdg

import (
	"github.com/gogpu/rdg/core/track"
	"github.com/gogpu/rdg/hal"
)

// PipelineStage identifies points in the GPU pipeline that a barrier can
// order against. Several stages may be combined with bitwise-or; the
// executor unions stage masks across barriers coalesced into one call.
type PipelineStage uint32

// Pipeline stages, following the Sync2 stage vocabulary. StageNone is the
// Sync1 TopOfPipe/BottomOfPipe-equivalent empty case.
const (
	StageNone PipelineStage = 0

	StageTopOfPipe PipelineStage = 1 << iota
	StageBottomOfPipe
	StageVertexShader
	StageFragmentShader
	StageComputeShader
	StageEarlyFragmentTests
	StageLateFragmentTests
	StageColorAttachmentOutput
	StageTransfer
	StageAllCommands
)

// AccessFlags identifies the kind of memory access a barrier protects.
type AccessFlags uint32

const (
	AccessNone AccessFlags = 0

	AccessShaderRead AccessFlags = 1 << iota
	AccessShaderWrite
	AccessColorAttachmentRead
	AccessColorAttachmentWrite
	AccessDepthStencilAttachmentRead
	AccessDepthStencilAttachmentWrite
	AccessTransferRead
	AccessTransferWrite
	AccessInputAttachmentRead
)

// ImageLayout is re-exported from the track package so callers of the graph
// never need to import it directly.
type ImageLayout = track.ImageLayout

// Image layout constants, re-exported from track for convenience.
const (
	LayoutUndefined                     = track.LayoutUndefined
	LayoutGeneral                       = track.LayoutGeneral
	LayoutColorAttachmentOptimal        = track.LayoutColorAttachmentOptimal
	LayoutDepthStencilAttachmentOptimal = track.LayoutDepthStencilAttachmentOptimal
	LayoutShaderReadOnlyOptimal         = track.LayoutShaderReadOnlyOptimal
	LayoutTransferSrcOptimal            = track.LayoutTransferSrcOptimal
	LayoutTransferDstOptimal            = track.LayoutTransferDstOptimal
	LayoutPresentSrcKHR                 = track.LayoutPresentSrcKHR
)

// BarrierKind distinguishes image barriers (which carry a layout
// transition) from buffer barriers (which do not).
type BarrierKind uint8

const (
	// BarrierKindTexture is an image memory barrier.
	BarrierKindTexture BarrierKind = iota
	// BarrierKindBuffer is a buffer memory barrier.
	BarrierKindBuffer
)

// Barrier is a synthesized synchronization point coupling a producer's
// source stage/access to a consumer's destination stage/access, with an
// optional image layout transition.
type Barrier struct {
	Kind BarrierKind

	Texture TextureHandle
	Buffer  BufferHandle

	SrcStages PipelineStage
	DstStages PipelineStage
	SrcAccess AccessFlags
	DstAccess AccessFlags

	// OldLayout and NewLayout are only meaningful for BarrierKindTexture.
	OldLayout ImageLayout
	NewLayout ImageLayout

	// Range is the affected subresource range; zero value means "all mips,
	// all layers" with the aspect inferred from the texture's format.
	Range hal.TextureRange
}

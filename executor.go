package rdg

import (
	"fmt"

	"github.com/gogpu/rdg/hal"
	"github.com/gogpu/rdg/types"
)

// execute records one command buffer for every active compiled pass and
// submits it. It never blocks the CPU on completion - the caller waits, if
// it needs to, through sync on a later frame (§4.5, §5).
func (g *Graph) execute(sync *SyncBundle) error {
	enc, err := g.cmdPool.Acquire()
	if err != nil {
		return fmt.Errorf("rdg: acquire command encoder: %w", err)
	}
	if err := enc.BeginEncoding("rdg.Graph"); err != nil {
		return fmt.Errorf("rdg: begin encoding: %w", err)
	}

	for _, cp := range g.compiled {
		if !cp.active {
			continue
		}
		g.emitBarriers(enc, cp.barriers)
		g.runPass(enc, cp)
	}

	if len(g.epilogueBarriers) > 0 {
		g.emitBarriers(enc, g.epilogueBarriers)
	}

	cmd, err := enc.EndEncoding()
	if err != nil {
		return fmt.Errorf("rdg: end encoding: %w", err)
	}

	var fence hal.Fence
	var fenceValue uint64
	if sync != nil {
		fence, fenceValue = sync.fence, sync.value
	}
	if err := g.cmdPool.Submit(g.queue, cmd, fence, fenceValue); err != nil {
		return fmt.Errorf("rdg: submit: %w", err)
	}
	return nil
}

// emitBarriers converts one pass's synthesized barriers into the batched
// hal transition calls. Coalescing happens here, not in the Barrier
// records themselves: every texture barrier for a pass goes into one
// TransitionTextures call, every buffer barrier into one TransitionBuffers
// call, matching a single vkCmdPipelineBarrier per pass.
func (g *Graph) emitBarriers(enc hal.CommandEncoder, barriers []Barrier) {
	var textures []hal.TextureBarrier
	var buffers []hal.BufferBarrier

	for _, b := range barriers {
		switch b.Kind {
		case BarrierKindTexture:
			rec, ok := g.resources.texture(b.Texture)
			if !ok || rec.binding == nil {
				continue
			}
			textures = append(textures, hal.TextureBarrier{
				Texture: rec.binding,
				Range:   b.Range,
				Usage: hal.TextureUsageTransition{
					OldUsage: textureUsageForLayout(b.OldLayout),
					NewUsage: textureUsageForLayout(b.NewLayout),
				},
			})
		case BarrierKindBuffer:
			rec, ok := g.resources.buffer(b.Buffer)
			if !ok || rec.binding == nil {
				continue
			}
			buffers = append(buffers, hal.BufferBarrier{
				Buffer: rec.binding,
				Usage: hal.BufferUsageTransition{
					OldUsage: bufferUsageForAccess(b.SrcAccess),
					NewUsage: bufferUsageForAccess(b.DstAccess),
				},
			})
		}
	}

	if len(buffers) > 0 {
		enc.TransitionBuffers(buffers)
	}
	if len(textures) > 0 {
		enc.TransitionTextures(textures)
	}
}

// runPass invokes one pass's recording callback, opening whatever scope its
// classification requires. A panicking callback is isolated per §7: it is
// caught, logged, and execution moves on to the next pass rather than
// aborting the whole frame's command buffer.
func (g *Graph) runPass(enc hal.CommandEncoder, cp *compiledPass) {
	p := cp.original

	defer func() {
		if r := recover(); r != nil {
			hal.Logger().Error("rdg: pass callback panicked, skipping remaining commands",
				"pass", p.name, "panic", r)
		}
	}()

	ctx := PassContext{Encoder: enc}

	switch p.classify() {
	case classGraphics:
		ctx.Render = enc.BeginRenderPass(g.renderPassDescriptor(p))
		defer ctx.Render.End()
	case classCompute:
		ctx.Compute = enc.BeginComputePass(&hal.ComputePassDescriptor{Label: p.name})
		defer ctx.Compute.End()
	}

	if p.accessor != nil {
		p.accessor(ctx, newResourceAccessor(g, p))
		return
	}
	p.callback(ctx)
}

// renderPassDescriptor builds the dynamic-rendering descriptor for a
// graphics pass from its declared attachments, resolving each texture
// handle to the view the compiler bound during barrier synthesis.
func (g *Graph) renderPassDescriptor(p *PassRecord) *hal.RenderPassDescriptor {
	desc := &hal.RenderPassDescriptor{Label: p.name}

	for _, c := range p.colorAttachments {
		rec, _ := g.resources.texture(c.Texture)
		var view hal.TextureView
		if rec != nil {
			view = rec.view
		}
		desc.ColorAttachments = append(desc.ColorAttachments, hal.RenderPassColorAttachment{
			View:       view,
			LoadOp:     c.LoadOp,
			StoreOp:    c.StoreOp,
			ClearValue: c.Clear,
		})
	}

	if d := p.depthStencil; d != nil {
		rec, _ := g.resources.texture(d.Texture)
		var view hal.TextureView
		if rec != nil {
			view = rec.view
		}
		desc.DepthStencilAttachment = &hal.RenderPassDepthStencilAttachment{
			View:              view,
			DepthLoadOp:       d.DepthLoadOp,
			DepthStoreOp:      d.DepthStoreOp,
			DepthClearValue:   d.ClearDepth,
			StencilLoadOp:     d.StencilLoadOp,
			StencilStoreOp:    d.StencilStoreOp,
			StencilClearValue: d.ClearStencil,
		}
	}

	return desc
}

// textureUsageForLayout maps the layout our own barrier bookkeeping computed
// back into the coarser types.TextureUsage vocabulary hal accepts; a
// concrete hal.Device backend re-derives its own native layout/access/stage
// triple from that usage. A backend cannot distinguish a depth-stencil
// attachment from a color one through this path - both carry
// TextureUsageRenderAttachment - a limitation of the usage-level
// hal.TextureBarrier API, not of the graph compiler.
func textureUsageForLayout(layout ImageLayout) types.TextureUsage {
	switch layout {
	case LayoutColorAttachmentOptimal, LayoutDepthStencilAttachmentOptimal:
		return types.TextureUsageRenderAttachment
	case LayoutShaderReadOnlyOptimal:
		return types.TextureUsageTextureBinding
	case LayoutGeneral:
		return types.TextureUsageStorageBinding
	case LayoutTransferSrcOptimal:
		return types.TextureUsageCopySrc
	case LayoutTransferDstOptimal:
		return types.TextureUsageCopyDst
	default:
		return 0
	}
}

// bufferUsageForAccess maps our AccessFlags back into types.BufferUsage for
// the same reason textureUsageForLayout does.
func bufferUsageForAccess(access AccessFlags) types.BufferUsage {
	var usage types.BufferUsage
	if access&AccessTransferRead != 0 {
		usage |= types.BufferUsageCopySrc
	}
	if access&AccessTransferWrite != 0 {
		usage |= types.BufferUsageCopyDst
	}
	if access&(AccessShaderRead|AccessShaderWrite) != 0 {
		usage |= types.BufferUsageStorage
	}
	return usage
}

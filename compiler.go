package rdg

import (
	"fmt"

	"github.com/gogpu/rdg/core"
	"github.com/gogpu/rdg/hal"
	"github.com/gogpu/rdg/types"
)

// compiledPass wraps one recorded pass with the state compile adds: its
// position in declaration order, whether it survived culling, and the
// barrier list the executor will emit ahead of it (§4.4 phase 1).
type compiledPass struct {
	original *PassRecord
	index    int
	active   bool
	barriers []Barrier
}

// compile runs the five ordered phases described in §4.4, then appends the
// swapchain present barriers. Each phase mutates graph state monotonically;
// compile never re-visits an earlier phase.
func (g *Graph) compile() error {
	g.buildCompiledPasses()
	g.cullUnreachablePasses()
	g.computeLifetimes()
	g.validateResourceStates()
	if err := g.synthesizeBarriers(); err != nil {
		return err
	}
	g.synthesizePresentBarriers()
	return nil
}

// synthesizePresentBarriers transitions every touched swapchain image into
// PresentSrcKHR once the last pass using it has run, per §4.2. These run
// after every pass's own barriers, immediately before submission.
func (g *Graph) synthesizePresentBarriers() {
	g.resources.forEachTexture(func(h TextureHandle, rec *textureResource) {
		if rec.swapchain == nil || !rec.life.used {
			return
		}
		if rec.layout == LayoutPresentSrcKHR {
			return
		}
		g.epilogueBarriers = append(g.epilogueBarriers, Barrier{
			Kind:      BarrierKindTexture,
			Texture:   h,
			SrcStages: firstOr(rec.access.stages, StageTopOfPipe),
			DstStages: StageBottomOfPipe,
			SrcAccess: rec.access.access,
			DstAccess: AccessNone,
			OldLayout: rec.layout,
			NewLayout: LayoutPresentSrcKHR,
			Range:     allSubresources(),
		})
		rec.layout = LayoutPresentSrcKHR
	})
}

// buildCompiledPasses is phase 1: wrap every recorded pass, in declaration
// order, with no explicit edges - reads/writes are resolved on demand.
func (g *Graph) buildCompiledPasses() {
	g.compiled = make([]*compiledPass, len(g.passes))
	for i, p := range g.passes {
		g.compiled[i] = &compiledPass{original: p, index: i, active: true}
	}
}

// textureWrites returns every texture handle p writes to: color and
// depth-stencil attachments, plus storage texture writes.
func (p *PassRecord) textureWrites() []TextureHandle {
	hs := make([]TextureHandle, 0, len(p.colorAttachments)+len(p.storageTextureWrites)+1)
	for _, c := range p.colorAttachments {
		hs = append(hs, c.Texture)
	}
	if p.depthStencil != nil {
		hs = append(hs, p.depthStencil.Texture)
	}
	for _, a := range p.storageTextureWrites {
		hs = append(hs, a.handle)
	}
	return hs
}

// bufferWrites returns every buffer handle p writes to.
func (p *PassRecord) bufferWrites() []BufferHandle {
	hs := make([]BufferHandle, 0, len(p.storageBufferWrites))
	for _, a := range p.storageBufferWrites {
		hs = append(hs, a.handle)
	}
	return hs
}

// textureReadsAll returns every texture handle p reads from, including an
// implicit read on a load-op=Load attachment (its prior content must come
// from somewhere).
func (p *PassRecord) textureReadsAll() []TextureHandle {
	hs := make([]TextureHandle, 0, len(p.textureReads)+2)
	for _, a := range p.textureReads {
		hs = append(hs, a.handle)
	}
	for _, c := range p.colorAttachments {
		if c.LoadOp == types.LoadOpLoad {
			hs = append(hs, c.Texture)
		}
	}
	if d := p.depthStencil; d != nil && (d.DepthLoadOp == types.LoadOpLoad || d.StencilLoadOp == types.LoadOpLoad) {
		hs = append(hs, d.Texture)
	}
	return hs
}

// bufferReadsAll returns every buffer handle p reads from.
func (p *PassRecord) bufferReadsAll() []BufferHandle {
	hs := make([]BufferHandle, 0, len(p.bufferReads))
	for _, a := range p.bufferReads {
		hs = append(hs, a.handle)
	}
	return hs
}

// cullUnreachablePasses is phase 2: standard mark-and-sweep dead-code
// elimination. Root passes write a resource of Origin=External (including
// swapchain images); reachability then propagates backward through reads
// to the passes that produced them.
func (g *Graph) cullUnreachablePasses() {
	textureWriters := map[core.RawID][]int{}
	bufferWriters := map[core.RawID][]int{}
	for _, cp := range g.compiled {
		for _, h := range cp.original.textureWrites() {
			textureWriters[h.id.Raw()] = append(textureWriters[h.id.Raw()], cp.index)
		}
		for _, h := range cp.original.bufferWrites() {
			bufferWriters[h.id.Raw()] = append(bufferWriters[h.id.Raw()], cp.index)
		}
	}

	reachable := make([]bool, len(g.compiled))
	var worklist []int

	isRoot := func(cp *compiledPass) bool {
		for _, h := range cp.original.textureWrites() {
			if rec, ok := g.resources.texture(h); ok && rec.origin == OriginExternal {
				return true
			}
		}
		for _, h := range cp.original.bufferWrites() {
			if rec, ok := g.resources.buffer(h); ok && rec.origin == OriginExternal {
				return true
			}
		}
		return false
	}

	for _, cp := range g.compiled {
		if isRoot(cp) {
			reachable[cp.index] = true
			worklist = append(worklist, cp.index)
		}
	}

	for len(worklist) > 0 {
		i := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		cp := g.compiled[i]

		for _, h := range cp.original.textureReadsAll() {
			for _, j := range textureWriters[h.id.Raw()] {
				if j < i && !reachable[j] {
					reachable[j] = true
					worklist = append(worklist, j)
				}
			}
		}
		for _, h := range cp.original.bufferReadsAll() {
			for _, j := range bufferWriters[h.id.Raw()] {
				if j < i && !reachable[j] {
					reachable[j] = true
					worklist = append(worklist, j)
				}
			}
		}
	}

	for _, cp := range g.compiled {
		cp.active = reachable[cp.index]
	}
}

// computeLifetimes is phase 3: every active pass extends the lifetime of
// every resource it reads or writes. A resource never touched by an
// active pass is never allocated (invariant 4).
func (g *Graph) computeLifetimes() {
	for _, cp := range g.compiled {
		if !cp.active {
			continue
		}
		p := cp.original
		for _, h := range p.textureReadsAll() {
			g.touchTexture(h, cp.index)
		}
		for _, h := range p.textureWrites() {
			g.touchTexture(h, cp.index)
		}
		for _, h := range p.bufferReadsAll() {
			g.touchBuffer(h, cp.index)
		}
		for _, h := range p.bufferWrites() {
			g.touchBuffer(h, cp.index)
		}
	}
}

func (g *Graph) touchTexture(h TextureHandle, index int) {
	if rec, ok := g.resources.texture(h); ok {
		rec.life.touch(index)
	}
}

func (g *Graph) touchBuffer(h BufferHandle, index int) {
	if rec, ok := g.resources.buffer(h); ok {
		rec.life.touch(index)
	}
}

// validateResourceStates is phase 4: reading a transient that was never
// written is a warning, not a fatal error - there are legitimate patterns
// (e.g. load-from-previous-frame) this check does not yet understand.
// External resources are exempt.
func (g *Graph) validateResourceStates() {
	writtenTextures := map[core.RawID]bool{}
	writtenBuffers := map[core.RawID]bool{}

	for _, cp := range g.compiled {
		if !cp.active {
			continue
		}
		p := cp.original

		for _, h := range p.textureReadsAll() {
			rec, ok := g.resources.texture(h)
			if !ok || rec.origin == OriginExternal {
				continue
			}
			if !writtenTextures[h.id.Raw()] {
				hal.Logger().Warn("rdg: pass reads a transient texture never written",
					"pass", p.name, "texture", rec.name)
			}
		}
		for _, h := range p.textureWrites() {
			writtenTextures[h.id.Raw()] = true
		}

		for _, h := range p.bufferReadsAll() {
			rec, ok := g.resources.buffer(h)
			if !ok || rec.origin == OriginExternal {
				continue
			}
			if !writtenBuffers[h.id.Raw()] {
				hal.Logger().Warn("rdg: pass reads a transient buffer never written",
					"pass", p.name, "buffer", rec.name)
			}
		}
		for _, h := range p.bufferWrites() {
			writtenBuffers[h.id.Raw()] = true
		}
	}
}

// synthesizeBarriers is phase 5: for every active pass, in declaration
// order, compute the barriers needed to move every resource it touches
// from its previous access into this pass's required access, allocating
// transient backings from the aliasing pool on first touch.
func (g *Graph) synthesizeBarriers() error {
	for _, cp := range g.compiled {
		if !cp.active {
			continue
		}
		p := cp.original

		for _, a := range p.textureReads {
			if err := g.ensureTextureAllocated(a.handle); err != nil {
				return err
			}
			g.barrierForTextureRead(cp, a)
		}
		for _, c := range p.colorAttachments {
			if err := g.ensureTextureAllocated(c.Texture); err != nil {
				return err
			}
			g.barrierForColorAttachment(cp, c)
		}
		if d := p.depthStencil; d != nil {
			if err := g.ensureTextureAllocated(d.Texture); err != nil {
				return err
			}
			g.barrierForDepthStencilAttachment(cp, *d)
		}
		for _, a := range p.storageTextureWrites {
			if err := g.ensureTextureAllocated(a.handle); err != nil {
				return err
			}
			g.barrierForStorageTexture(cp, a)
		}
		for _, a := range p.bufferReads {
			if err := g.ensureBufferAllocated(a.handle); err != nil {
				return err
			}
			g.barrierForBuffer(cp, a, false)
		}
		for _, a := range p.storageBufferWrites {
			if err := g.ensureBufferAllocated(a.handle); err != nil {
				return err
			}
			g.barrierForBuffer(cp, a, true)
		}
	}
	return nil
}

// ensureTextureAllocated allocates (or aliases) the backing for a
// transient texture the first time any pass touches it. Externals and
// swapchain imports already carry a binding from import time.
func (g *Graph) ensureTextureAllocated(h TextureHandle) error {
	rec, ok := g.resources.texture(h)
	if !ok || rec.binding != nil {
		return nil
	}
	binding, view, _, err := g.pool.acquireTexture(g.device, g.allocator, rec.desc, rec.life)
	if err != nil {
		return &AllocationError{Resource: "texture", Name: rec.name, Cause: err}
	}
	rec.binding, rec.view, rec.pooled = binding, view, true
	return nil
}

// ensureBufferAllocated allocates (or aliases) the backing for a
// transient buffer the first time any pass touches it.
func (g *Graph) ensureBufferAllocated(h BufferHandle) error {
	rec, ok := g.resources.buffer(h)
	if !ok || rec.binding != nil {
		return nil
	}
	binding, _, err := g.pool.acquireBuffer(g.allocator, rec.desc, rec.life)
	if err != nil {
		return &AllocationError{Resource: "buffer", Name: rec.name, Cause: err}
	}
	rec.binding, rec.pooled = binding, true
	return nil
}

func layoutForTextureAccess(access AccessFlags) ImageLayout {
	if access&(AccessShaderRead|AccessInputAttachmentRead) != 0 {
		return LayoutShaderReadOnlyOptimal
	}
	return LayoutGeneral
}

func (g *Graph) barrierForTextureRead(cp *compiledPass, a textureAccess) {
	rec, ok := g.resources.texture(a.handle)
	if !ok {
		return
	}
	newLayout := layoutForTextureAccess(a.access)
	oldLayout := rec.layout

	if rec.access.wasWrite || oldLayout != newLayout {
		cp.barriers = append(cp.barriers, Barrier{
			Kind:      BarrierKindTexture,
			Texture:   a.handle,
			SrcStages: firstOr(rec.access.stages, StageTopOfPipe),
			DstStages: a.stages,
			SrcAccess: rec.access.access,
			DstAccess: a.access,
			OldLayout: oldLayout,
			NewLayout: newLayout,
			Range:     allSubresources(),
		})
		rec.layout = newLayout
	}
	rec.access = accessRecord{stages: a.stages, access: a.access, wasWrite: false}
}

func (g *Graph) barrierForColorAttachment(cp *compiledPass, c ColorAttachment) {
	rec, ok := g.resources.texture(c.Texture)
	if !ok {
		return
	}
	const newLayout = LayoutColorAttachmentOptimal
	oldLayout := rec.layout

	dstAccess := AccessColorAttachmentWrite
	if c.LoadOp == types.LoadOpLoad {
		dstAccess |= AccessColorAttachmentRead
	}

	previousNonEmpty := rec.access.stages != StageNone || rec.access.access != AccessNone
	if previousNonEmpty || oldLayout != newLayout {
		cp.barriers = append(cp.barriers, Barrier{
			Kind:      BarrierKindTexture,
			Texture:   c.Texture,
			SrcStages: firstOr(rec.access.stages, StageTopOfPipe),
			DstStages: StageColorAttachmentOutput,
			SrcAccess: rec.access.access,
			DstAccess: dstAccess,
			OldLayout: oldLayout,
			NewLayout: newLayout,
			Range:     allSubresources(),
		})
	}
	rec.access = accessRecord{stages: StageColorAttachmentOutput, access: dstAccess, wasWrite: true}
	rec.layout = newLayout
}

func (g *Graph) barrierForDepthStencilAttachment(cp *compiledPass, d DepthStencilAttachment) {
	rec, ok := g.resources.texture(d.Texture)
	if !ok {
		return
	}
	const newLayout = LayoutDepthStencilAttachmentOptimal
	oldLayout := rec.layout

	dstStages := StageEarlyFragmentTests | StageLateFragmentTests
	dstAccess := AccessDepthStencilAttachmentWrite
	if d.DepthLoadOp == types.LoadOpLoad || d.StencilLoadOp == types.LoadOpLoad {
		dstAccess |= AccessDepthStencilAttachmentRead
	}

	previousNonEmpty := rec.access.stages != StageNone || rec.access.access != AccessNone
	if previousNonEmpty || oldLayout != newLayout {
		cp.barriers = append(cp.barriers, Barrier{
			Kind:      BarrierKindTexture,
			Texture:   d.Texture,
			SrcStages: firstOr(rec.access.stages, StageTopOfPipe),
			DstStages: dstStages,
			SrcAccess: rec.access.access,
			DstAccess: dstAccess,
			OldLayout: oldLayout,
			NewLayout: newLayout,
			Range:     allSubresources(),
		})
	}
	rec.access = accessRecord{stages: dstStages, access: dstAccess, wasWrite: true}
	rec.layout = newLayout
}

func (g *Graph) barrierForStorageTexture(cp *compiledPass, a textureAccess) {
	rec, ok := g.resources.texture(a.handle)
	if !ok {
		return
	}
	const newLayout = LayoutGeneral
	oldLayout := rec.layout

	cp.barriers = append(cp.barriers, Barrier{
		Kind:      BarrierKindTexture,
		Texture:   a.handle,
		SrcStages: firstOr(rec.access.stages, StageTopOfPipe),
		DstStages: a.stages,
		SrcAccess: rec.access.access,
		DstAccess: a.access,
		OldLayout: oldLayout,
		NewLayout: newLayout,
		Range:     allSubresources(),
	})
	rec.access = accessRecord{stages: a.stages, access: a.access, wasWrite: true}
	rec.layout = newLayout
}

func (g *Graph) barrierForBuffer(cp *compiledPass, a bufferAccess, isWrite bool) {
	rec, ok := g.resources.buffer(a.handle)
	if !ok {
		return
	}
	if rec.access.wasWrite {
		cp.barriers = append(cp.barriers, Barrier{
			Kind:      BarrierKindBuffer,
			Buffer:    a.handle,
			SrcStages: firstOr(rec.access.stages, StageTopOfPipe),
			DstStages: a.stages,
			SrcAccess: rec.access.access,
			DstAccess: a.access,
		})
	}
	rec.access = accessRecord{stages: a.stages, access: a.access, wasWrite: isWrite}
}

func firstOr(stages PipelineStage, fallback PipelineStage) PipelineStage {
	if stages == StageNone {
		return fallback
	}
	return stages
}

// allSubresources returns "all mips, all layers". A concrete hal.Device
// backend's own format/aspect conversion resolves TextureAspectAll against
// the texture's actual format, so a barrier never needs to special-case
// depth/stencil formats itself.
func allSubresources() hal.TextureRange {
	return hal.TextureRange{Aspect: types.TextureAspectAll}
}

// AllocationError is returned when compile cannot create the physical
// backing for a transient resource.
type AllocationError struct {
	Resource string
	Name     string
	Cause    error
}

func (e *AllocationError) Error() string {
	name := e.Name
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("rdg: allocate %s %q: %v", e.Resource, name, e.Cause)
}

func (e *AllocationError) Unwrap() error { return e.Cause }

package rdg

import (
	"fmt"
	"time"

	"github.com/gogpu/rdg/hal"
	"github.com/gogpu/rdg/types"
)

// fakeResource satisfies every hal resource-kind interface (Texture, Buffer,
// TextureView, Sampler, Fence, CommandBuffer all reduce to {Destroy()}).
type fakeResource struct {
	kind string
	n    int
}

func (r *fakeResource) Destroy() {}

func (r *fakeResource) String() string {
	return fmt.Sprintf("%s#%d", r.kind, r.n)
}

// fakeDevice implements hal.Device with just enough behavior for the graph's
// tests: it hands out distinct fakeResource values and never fails.
type fakeDevice struct {
	next       int
	fenceCount int

	createSamplerErr error
	createTextureErr error
}

func (d *fakeDevice) newResource(kind string) *fakeResource {
	d.next++
	return &fakeResource{kind: kind, n: d.next}
}

func (d *fakeDevice) CreateBuffer(*hal.BufferDescriptor) (hal.Buffer, error) {
	return d.newResource("buffer"), nil
}
func (d *fakeDevice) DestroyBuffer(hal.Buffer) {}

func (d *fakeDevice) CreateTexture(*hal.TextureDescriptor) (hal.Texture, error) {
	if d.createTextureErr != nil {
		return nil, d.createTextureErr
	}
	return d.newResource("texture"), nil
}
func (d *fakeDevice) DestroyTexture(hal.Texture) {}

func (d *fakeDevice) CreateTextureView(hal.Texture, *hal.TextureViewDescriptor) (hal.TextureView, error) {
	return d.newResource("view"), nil
}
func (d *fakeDevice) DestroyTextureView(hal.TextureView) {}

func (d *fakeDevice) CreateSampler(*hal.SamplerDescriptor) (hal.Sampler, error) {
	if d.createSamplerErr != nil {
		return nil, d.createSamplerErr
	}
	return d.newResource("sampler"), nil
}
func (d *fakeDevice) DestroySampler(hal.Sampler) {}

func (d *fakeDevice) CreateBindGroupLayout(*hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error) {
	return d.newResource("bindgrouplayout"), nil
}
func (d *fakeDevice) DestroyBindGroupLayout(hal.BindGroupLayout) {}

func (d *fakeDevice) CreateBindGroup(*hal.BindGroupDescriptor) (hal.BindGroup, error) {
	return d.newResource("bindgroup"), nil
}
func (d *fakeDevice) DestroyBindGroup(hal.BindGroup) {}

func (d *fakeDevice) CreatePipelineLayout(*hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error) {
	return d.newResource("pipelinelayout"), nil
}
func (d *fakeDevice) DestroyPipelineLayout(hal.PipelineLayout) {}

func (d *fakeDevice) CreateShaderModule(*hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	return d.newResource("shadermodule"), nil
}
func (d *fakeDevice) DestroyShaderModule(hal.ShaderModule) {}

func (d *fakeDevice) CreateRenderPipeline(*hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	return d.newResource("renderpipeline"), nil
}
func (d *fakeDevice) DestroyRenderPipeline(hal.RenderPipeline) {}

func (d *fakeDevice) CreateComputePipeline(*hal.ComputePipelineDescriptor) (hal.ComputePipeline, error) {
	return d.newResource("computepipeline"), nil
}
func (d *fakeDevice) DestroyComputePipeline(hal.ComputePipeline) {}

func (d *fakeDevice) CreateCommandEncoder(*hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	return &fakeEncoder{device: d}, nil
}

func (d *fakeDevice) CreateFence() (hal.Fence, error) {
	d.fenceCount++
	return d.newResource("fence"), nil
}
func (d *fakeDevice) DestroyFence(hal.Fence) {}

func (d *fakeDevice) Wait(hal.Fence, uint64, time.Duration) (bool, error) {
	return true, nil
}

func (d *fakeDevice) Destroy() {}

// fakeQueue implements hal.Queue, recording every Submit call it receives.
type fakeQueue struct {
	submits []fakeSubmit
}

type fakeSubmit struct {
	cmds       []hal.CommandBuffer
	fence      hal.Fence
	fenceValue uint64
}

func (q *fakeQueue) Submit(cmds []hal.CommandBuffer, fence hal.Fence, fenceValue uint64) error {
	q.submits = append(q.submits, fakeSubmit{cmds: cmds, fence: fence, fenceValue: fenceValue})
	return nil
}
func (q *fakeQueue) WriteBuffer(hal.Buffer, uint64, []byte)                           {}
func (q *fakeQueue) WriteTexture(*hal.ImageCopyTexture, []byte, *hal.ImageDataLayout, *hal.Extent3D) {}
func (q *fakeQueue) Present(hal.Surface, hal.SurfaceTexture) error                    { return nil }
func (q *fakeQueue) GetTimestampPeriod() float32                                      { return 1 }

// fakeEncoder implements hal.CommandEncoder, recording transitions and
// render/compute pass openings for assertions.
type fakeEncoder struct {
	device *fakeDevice

	textureBarriers [][]hal.TextureBarrier
	bufferBarriers  [][]hal.BufferBarrier
	renderPasses    []*hal.RenderPassDescriptor
	computePasses   []*hal.ComputePassDescriptor

	ended bool
}

func (e *fakeEncoder) BeginEncoding(string) error { return nil }

func (e *fakeEncoder) EndEncoding() (hal.CommandBuffer, error) {
	e.ended = true
	return e.device.newResource("cmdbuf"), nil
}

func (e *fakeEncoder) DiscardEncoding()                          {}
func (e *fakeEncoder) ResetAll([]hal.CommandBuffer)              {}
func (e *fakeEncoder) TransitionBuffers(b []hal.BufferBarrier)   { e.bufferBarriers = append(e.bufferBarriers, b) }
func (e *fakeEncoder) TransitionTextures(b []hal.TextureBarrier) { e.textureBarriers = append(e.textureBarriers, b) }
func (e *fakeEncoder) ClearBuffer(hal.Buffer, uint64, uint64)    {}
func (e *fakeEncoder) CopyBufferToBuffer(hal.Buffer, hal.Buffer, []hal.BufferCopy)            {}
func (e *fakeEncoder) CopyBufferToTexture(hal.Buffer, hal.Texture, []hal.BufferTextureCopy)   {}
func (e *fakeEncoder) CopyTextureToBuffer(hal.Texture, hal.Buffer, []hal.BufferTextureCopy)   {}
func (e *fakeEncoder) CopyTextureToTexture(hal.Texture, hal.Texture, []hal.TextureCopy)       {}

func (e *fakeEncoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	e.renderPasses = append(e.renderPasses, desc)
	return &fakeRenderPass{}
}

func (e *fakeEncoder) BeginComputePass(desc *hal.ComputePassDescriptor) hal.ComputePassEncoder {
	e.computePasses = append(e.computePasses, desc)
	return &fakeComputePass{}
}

type fakeRenderPass struct{ ended bool }

func (p *fakeRenderPass) End()                                              { p.ended = true }
func (p *fakeRenderPass) SetPipeline(hal.RenderPipeline)                    {}
func (p *fakeRenderPass) SetBindGroup(uint32, hal.BindGroup, []uint32)      {}
func (p *fakeRenderPass) SetVertexBuffer(uint32, hal.Buffer, uint64)        {}
func (p *fakeRenderPass) SetIndexBuffer(hal.Buffer, types.IndexFormat, uint64) {}
func (p *fakeRenderPass) SetViewport(float32, float32, float32, float32, float32, float32) {}
func (p *fakeRenderPass) SetScissorRect(uint32, uint32, uint32, uint32)     {}
func (p *fakeRenderPass) SetBlendConstant(*types.Color)                    {}
func (p *fakeRenderPass) SetStencilReference(uint32)                       {}
func (p *fakeRenderPass) Draw(uint32, uint32, uint32, uint32)              {}
func (p *fakeRenderPass) DrawIndexed(uint32, uint32, uint32, int32, uint32) {}
func (p *fakeRenderPass) DrawIndirect(hal.Buffer, uint64)                  {}
func (p *fakeRenderPass) DrawIndexedIndirect(hal.Buffer, uint64)           {}
func (p *fakeRenderPass) ExecuteBundle(hal.RenderBundle)                   {}

type fakeComputePass struct{ ended bool }

func (p *fakeComputePass) End()                                         { p.ended = true }
func (p *fakeComputePass) SetPipeline(hal.ComputePipeline)               {}
func (p *fakeComputePass) SetBindGroup(uint32, hal.BindGroup, []uint32) {}
func (p *fakeComputePass) Dispatch(uint32, uint32, uint32)              {}
func (p *fakeComputePass) DispatchIndirect(hal.Buffer, uint64)          {}

// fakeAllocator implements Allocator by delegating texture/buffer creation
// to a fakeDevice.
type fakeAllocator struct {
	device *fakeDevice
}

func (a *fakeAllocator) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	return a.device.CreateTexture(desc)
}
func (a *fakeAllocator) DestroyTexture(t hal.Texture) { a.device.DestroyTexture(t) }

func (a *fakeAllocator) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	return a.device.CreateBuffer(desc)
}
func (a *fakeAllocator) DestroyBuffer(b hal.Buffer) { a.device.DestroyBuffer(b) }

// fakeCmdPool implements CommandPoolManager, handing out fresh fakeEncoders
// and recording every Submit call.
type fakeCmdPool struct {
	device  *fakeDevice
	submits []fakeSubmit
}

func (p *fakeCmdPool) Acquire() (hal.CommandEncoder, error) {
	return &fakeEncoder{device: p.device}, nil
}

func (p *fakeCmdPool) Submit(queue hal.Queue, cmd hal.CommandBuffer, fence hal.Fence, fenceValue uint64) error {
	p.submits = append(p.submits, fakeSubmit{cmds: []hal.CommandBuffer{cmd}, fence: fence, fenceValue: fenceValue})
	return queue.Submit([]hal.CommandBuffer{cmd}, fence, fenceValue)
}

// fakeSwapchain implements Swapchain with a single fixed image.
type fakeSwapchain struct {
	texture hal.Texture
	view    hal.TextureView
	format  types.TextureFormat
	w, h    uint32
}

func (s *fakeSwapchain) Image(uint32) (hal.Texture, error)        { return s.texture, nil }
func (s *fakeSwapchain) ImageView(uint32) (hal.TextureView, error) { return s.view, nil }
func (s *fakeSwapchain) Format() types.TextureFormat               { return s.format }
func (s *fakeSwapchain) Extent() (uint32, uint32)                  { return s.w, s.h }

// newTestGraph builds a Graph wired to fresh fakes, for tests that don't
// need to inspect the fakes directly.
func newTestGraph() (*Graph, *fakeDevice, *fakeQueue) {
	dev := &fakeDevice{}
	queue := &fakeQueue{}
	pool := &fakeCmdPool{device: dev}
	alloc := &fakeAllocator{device: dev}
	g := NewGraph(dev, queue, alloc, pool, NewAliasingPool())
	return g, dev, queue
}

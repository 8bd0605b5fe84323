package rdg

import (
	"testing"

	"github.com/gogpu/rdg/hal"
	"github.com/gogpu/rdg/types"
)

func TestExecuteEmptyGraphSubmitsEmptyCommandBuffer(t *testing.T) {
	g, _, queue := newTestGraph()
	if err := g.Execute(nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(queue.submits) != 1 {
		t.Fatalf("expected exactly 1 submission, got %d", len(queue.submits))
	}
}

func TestExecuteTwiceReturnsError(t *testing.T) {
	g, _, _ := newTestGraph()
	if err := g.Execute(nil); err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if err := g.Execute(nil); err == nil {
		t.Fatal("calling Execute twice on the same graph must return an error")
	}
}

func TestExecuteSinglePassDrawsBetweenBeginAndEndRenderPass(t *testing.T) {
	g, dev, queue := newTestGraph()
	sc := &fakeSwapchain{
		texture: dev.newResource("sc-img"),
		view:    dev.newResource("sc-view"),
		format:  types.TextureFormatBGRA8Unorm,
		w:       640, h: 480,
	}
	target := g.ImportSwapchainImage(sc, 0)

	drew := false
	g.AddPass("Draw", func(ctx PassContext) {
		if ctx.Render == nil {
			t.Fatal("graphics pass must receive a non-nil Render encoder")
		}
		ctx.Render.Draw(3, 1, 0, 0)
		drew = true
	}).WriteColorAttachment(target, types.LoadOpClear, types.StoreOpStore, types.ColorBlack)

	if err := g.Execute(nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !drew {
		t.Fatal("pass callback was never invoked")
	}
	if len(queue.submits) != 1 {
		t.Fatalf("expected exactly 1 submission, got %d", len(queue.submits))
	}
}

func TestExecuteSubmitsSyncBundleFenceAndValue(t *testing.T) {
	g, dev, queue := newTestGraph()
	fence, err := dev.CreateFence()
	if err != nil {
		t.Fatal(err)
	}
	sync := &SyncBundle{fence: fence, value: 7}

	if err := g.Execute(sync); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(queue.submits) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(queue.submits))
	}
	if queue.submits[0].fence != fence || queue.submits[0].fenceValue != 7 {
		t.Fatalf("submission did not carry the supplied fence/value: %+v", queue.submits[0])
	}
}

func TestExecuteCallbackPanicAmongReachablePasses(t *testing.T) {
	g, dev, queue := newTestGraph()
	sc := &fakeSwapchain{
		texture: dev.newResource("sc-img"),
		view:    dev.newResource("sc-view"),
		format:  types.TextureFormatBGRA8Unorm,
		w:       320, h: 240,
	}
	target := g.ImportSwapchainImage(sc, 0)
	transient := g.CreateTransientTexture(colorDesc("scratch", 64, 64))

	var producerRan, consumerRan bool
	g.AddPass("producer", func(PassContext) {
		producerRan = true
		panic("producer exploded")
	}).WriteColorAttachment(transient, types.LoadOpClear, types.StoreOpStore, types.ColorBlack)

	g.AddPass("consumer", func(ctx PassContext) {
		consumerRan = true
	}).ReadTexture(transient, StageFragmentShader, AccessShaderRead).
		WriteColorAttachment(target, types.LoadOpClear, types.StoreOpStore, types.ColorBlack)

	if err := g.Execute(nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !producerRan {
		t.Fatal("producer callback should have been invoked (and then panicked)")
	}
	if !consumerRan {
		t.Fatal("a later pass must still execute after an earlier pass's callback panics")
	}
	if len(queue.submits) != 1 {
		t.Fatalf("expected exactly 1 submission despite the panic, got %d", len(queue.submits))
	}
}

func TestExecuteAccessorCallbackResolvesDeclaredHandles(t *testing.T) {
	g, dev, _ := newTestGraph()
	sc := &fakeSwapchain{
		texture: dev.newResource("sc-img"),
		view:    dev.newResource("sc-view"),
		format:  types.TextureFormatBGRA8Unorm,
		w:       320, h: 240,
	}
	target := g.ImportSwapchainImage(sc, 0)

	var resolvedView hal.TextureView
	g.AddPassWithAccessor("Draw", func(ctx PassContext, res *ResourceAccessor) {
		resolvedView = res.TextureView(target)
	}).WriteColorAttachment(target, types.LoadOpClear, types.StoreOpStore, types.ColorBlack)

	if err := g.Execute(nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resolvedView == nil {
		t.Fatal("accessor callback must resolve the swapchain texture's view")
	}
}

package rdg

import (
	"github.com/gogpu/rdg/hal"
	"github.com/gogpu/rdg/types"
)

// Swapchain is the subset of the swapchain collaborator the graph consumes:
// enough to resolve an acquired image index into a physical texture and
// view for import. Presentation, acquisition and the per-frame semaphore
// pair are the caller's responsibility (§6).
type Swapchain interface {
	// Image returns the backing texture for the given acquired image index.
	Image(index uint32) (hal.Texture, error)
	// ImageView returns a view over the given acquired image index.
	ImageView(index uint32) (hal.TextureView, error)
	// Format returns the current swapchain surface format.
	Format() types.TextureFormat
	// Extent returns the current swapchain extent.
	Extent() (width, height uint32)
}

// Allocator is the memory-allocator collaborator: it creates and destroys
// the physical backings for transient resources. A [hal.Device] satisfies
// this interface directly, since CreateTexture/CreateBuffer already accept
// a usage hint through the descriptor; a pooling sub-allocator may wrap a
// Device to serve the same interface with its own arena.
type Allocator interface {
	CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error)
	DestroyTexture(texture hal.Texture)
	CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error)
	DestroyBuffer(buffer hal.Buffer)
}

// CommandPoolManager is the per-thread command pool collaborator: it hands
// out a primary command encoder for the recording thread and submits the
// finished command buffer. Implementations must guarantee the encoder they
// return is allocated from, and only ever used on, the calling thread.
type CommandPoolManager interface {
	// Acquire returns a command encoder ready for BeginEncoding, pooled and
	// reference-counted per the command-pool-manager collaborator contract.
	Acquire() (hal.CommandEncoder, error)

	// Submit submits cmd to queue, signaling fence at fenceValue if fence
	// is non-nil. The wait/signal binary-semaphore pair a swapchain
	// present needs is threaded through by the backend's Queue
	// implementation (§4.7); this interface only carries the CPU-visible
	// fence handshake the frame sync manager blocks on.
	Submit(queue hal.Queue, cmd hal.CommandBuffer, fence hal.Fence, fenceValue uint64) error
}

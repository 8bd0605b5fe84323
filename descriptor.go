package rdg

import "github.com/gogpu/rdg/types"

// TextureDescriptor describes a texture the graph should create or that a
// pool match must line up against exactly.
type TextureDescriptor struct {
	Name          string
	Format        types.TextureFormat
	Extent        types.Extent3D
	Usage         types.TextureUsage
	MipLevelCount uint32
	ArrayLayers   uint32
	SampleCount   uint32
}

// IsValid reports whether the descriptor is well formed: a known format and
// a positive extent.
func (d TextureDescriptor) IsValid() bool {
	if d.Format == types.TextureFormatUndefined {
		return false
	}
	if d.Extent.Width == 0 || d.Extent.Height == 0 {
		return false
	}
	if d.Extent.DepthOrArrayLayers == 0 {
		return false
	}
	return true
}

// normalized fills in the implicit defaults (1 mip level, 1 array layer, 1
// sample) a zero-valued descriptor field implies.
func (d TextureDescriptor) normalized() TextureDescriptor {
	if d.MipLevelCount == 0 {
		d.MipLevelCount = 1
	}
	if d.ArrayLayers == 0 {
		d.ArrayLayers = 1
	}
	if d.SampleCount == 0 {
		d.SampleCount = 1
	}
	return d
}

// matches reports whether d is bit-exact equal to other for the purposes of
// the aliasing pool: same format, extent, usage, mip count, array layers and
// sample count.
func (d TextureDescriptor) matches(other TextureDescriptor) bool {
	return d.Format == other.Format &&
		d.Extent == other.Extent &&
		d.Usage == other.Usage &&
		d.MipLevelCount == other.MipLevelCount &&
		d.ArrayLayers == other.ArrayLayers &&
		d.SampleCount == other.SampleCount
}

// BufferDescriptor describes a buffer the graph should create or that a pool
// match must be compatible with.
type BufferDescriptor struct {
	Name  string
	Size  uint64
	Usage types.BufferUsage
}

// IsValid reports whether the descriptor is well formed: a non-zero size.
func (d BufferDescriptor) IsValid() bool {
	return d.Size > 0
}

// matches reports whether a pooled buffer backing pooled can satisfy a request
// for d: same usage, and large enough.
func (d BufferDescriptor) matches(pooled BufferDescriptor) bool {
	return d.Usage == pooled.Usage && pooled.Size >= d.Size
}

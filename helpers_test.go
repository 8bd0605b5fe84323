package rdg

import "github.com/gogpu/rdg/types"

// Shared descriptor builders used across the test files in this package.

func colorDesc(name string, w, h uint32) TextureDescriptor {
	return TextureDescriptor{
		Name:   name,
		Format: types.TextureFormatRGBA8Unorm,
		Extent: types.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		Usage:  types.TextureUsageRenderAttachment | types.TextureUsageTextureBinding,
	}
}

func depthDesc(name string, w, h uint32) TextureDescriptor {
	return TextureDescriptor{
		Name:   name,
		Format: types.TextureFormatDepth32Float,
		Extent: types.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		Usage:  types.TextureUsageRenderAttachment,
	}
}

func bufDesc(name string, size uint64) BufferDescriptor {
	return BufferDescriptor{Name: name, Size: size, Usage: types.BufferUsageStorage}
}

func noopCallback(PassContext) {}

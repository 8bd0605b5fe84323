package rdg

import "github.com/gogpu/rdg/types"

// SamplerKind is one of the graph's small, enumerated set of convenience
// samplers for transient textures. Externally imported textures should
// carry their own samplers instead (§4.6).
type SamplerKind uint8

const (
	SamplerNearestClamp SamplerKind = iota
	SamplerNearestRepeat
	SamplerLinearClamp
	SamplerLinearRepeat
	SamplerAnisotropicClamp
	SamplerAnisotropicRepeat
	SamplerShadowPCF

	samplerKindCount
)

// String implements fmt.Stringer for diagnostics.
func (k SamplerKind) String() string {
	switch k {
	case SamplerNearestClamp:
		return "NearestClamp"
	case SamplerNearestRepeat:
		return "NearestRepeat"
	case SamplerLinearClamp:
		return "LinearClamp"
	case SamplerLinearRepeat:
		return "LinearRepeat"
	case SamplerAnisotropicClamp:
		return "AnisotropicClamp"
	case SamplerAnisotropicRepeat:
		return "AnisotropicRepeat"
	case SamplerShadowPCF:
		return "ShadowPCF"
	default:
		return "Unknown"
	}
}

// descriptorFor builds the fixed descriptor for a sampler kind. maxAniso
// is the device's reported anisotropy limit, used only by the two
// anisotropic kinds.
func (k SamplerKind) descriptorFor(maxAniso uint16) types.SamplerDescriptor {
	d := types.DefaultSamplerDescriptor()
	d.Label = "rdg." + k.String()

	clamp := types.AddressModeClampToEdge
	repeat := types.AddressModeRepeat

	switch k {
	case SamplerNearestClamp, SamplerNearestRepeat:
		d.MagFilter, d.MinFilter, d.MipmapFilter = types.FilterModeNearest, types.FilterModeNearest, types.MipmapFilterModeNearest
	case SamplerLinearClamp, SamplerLinearRepeat, SamplerAnisotropicClamp, SamplerAnisotropicRepeat:
		d.MagFilter, d.MinFilter, d.MipmapFilter = types.FilterModeLinear, types.FilterModeLinear, types.MipmapFilterModeLinear
	case SamplerShadowPCF:
		d.MagFilter, d.MinFilter, d.MipmapFilter = types.FilterModeLinear, types.FilterModeLinear, types.MipmapFilterModeNearest
		d.Compare = types.CompareFunctionLessEqual
	}

	switch k {
	case SamplerNearestRepeat, SamplerLinearRepeat, SamplerAnisotropicRepeat:
		d.AddressModeU, d.AddressModeV, d.AddressModeW = repeat, repeat, repeat
	default:
		d.AddressModeU, d.AddressModeV, d.AddressModeW = clamp, clamp, clamp
	}

	if k == SamplerAnisotropicClamp || k == SamplerAnisotropicRepeat {
		if maxAniso < 1 {
			maxAniso = 1
		}
		d.MaxAnisotropy = maxAniso
	}

	return d
}

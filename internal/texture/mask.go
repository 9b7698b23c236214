package texture

import (
	"image"

	"github.com/kiesman99/maskmap/pkg/raster"
	"github.com/pkg/errors"
)

// MaskSources are the four grayscale maps packed into a mask map. A nil
// entry is treated as an all-zero map.
type MaskSources struct {
	Emissive  *raster.Image // R
	Roughness *raster.Image // G
	Metallic  *raster.Image // B
	Specular  *raster.Image // A
}

// Channels returns the sources in mask channel order.
func (s MaskSources) Channels() [4]*raster.Image {
	return [4]*raster.Image{s.Emissive, s.Roughness, s.Metallic, s.Specular}
}

// CompositeMask interleaves the sources into an RGBA image of size target
// with R=emissive, G=roughness, B=metallic, A=specular. Sources of a
// different size are resampled to target; color sources are reduced to
// luminance.
func CompositeMask(src MaskSources, target image.Point) (*raster.Image, error) {
	if target.X <= 0 || target.Y <= 0 {
		return nil, errors.Errorf("invalid mask size %dx%d", target.X, target.Y)
	}

	out := raster.New(target.X, target.Y, raster.RGBA)
	for c, m := range src.Channels() {
		if m == nil {
			continue
		}
		if m.Empty() {
			return nil, errors.Wrapf(ErrEmptyImage, "mask channel %d", c)
		}
		plane := FitGray(m, target)
		for i, v := range plane.Buf {
			out.Buf[i*raster.RGBA+c] = v
		}
	}
	return out, nil
}

// FitGray returns a single-channel image of exactly size, converting and
// resampling m as needed. m itself is never modified.
func FitGray(m *raster.Image, size image.Point) *raster.Image {
	if m.Channels != raster.Gray {
		m = m.Luminance()
		if m.Size() == size {
			return m
		}
	}
	return m.Resize(size.X, size.Y)
}

package texture

import (
	"math"

	"github.com/kiesman99/maskmap/pkg/raster"
)

// Gains applied by the derived maps.
const (
	RoughnessGain = 1.5
	SpecularGain  = 2.0
)

// midGray is the pivot of the contrast stretch.
const midGray = 128

// ContrastStretch remaps v around mid-gray by gain and clamps to [0, 255].
// Results are rounded half away from zero.
func ContrastStretch(v byte, gain float64) byte {
	out := midGray + (float64(v)-midGray)*gain
	return byte(max(0, min(255, math.Round(out))))
}

// stretchTable precomputes ContrastStretch for every sample value, with the
// input optionally inverted first.
func stretchTable(gain float64, invert bool) *[256]byte {
	var lut [256]byte
	for i := range lut {
		v := byte(i)
		if invert {
			v = 255 - v
		}
		lut[i] = ContrastStretch(v, gain)
	}
	return &lut
}

// DeriveRoughness inverts luminance and stretches it by RoughnessGain.
func DeriveRoughness(src *raster.Image) (*raster.Image, error) {
	return applyTable(src, stretchTable(RoughnessGain, true))
}

// DeriveSpecular stretches luminance by SpecularGain.
func DeriveSpecular(src *raster.Image) (*raster.Image, error) {
	return applyTable(src, stretchTable(SpecularGain, false))
}

func applyTable(src *raster.Image, lut *[256]byte) (*raster.Image, error) {
	if src.Empty() {
		return nil, ErrEmptyImage
	}
	lum := src
	if src.Channels != raster.Gray {
		lum = src.Luminance()
	}
	out := raster.New(lum.Width, lum.Height, raster.Gray)
	for i, v := range lum.Buf {
		out.Buf[i] = lut[v]
	}
	return out, nil
}

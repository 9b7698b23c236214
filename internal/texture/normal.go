// Package texture derives auxiliary material maps from a luminance raster
// and packs grayscale maps into a four-channel mask map.
package texture

import (
	"math"

	"github.com/kiesman99/maskmap/pkg/raster"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// NeutralNormal is the encoded value of a zero gradient.
const NeutralNormal = 128

// Sobel kernels, indexed [row][col] over the 3x3 neighborhood.
var (
	sobelX = [3][3]float64{
		{1, 0, -1},
		{2, 0, -2},
		{1, 0, -1},
	}
	sobelY = [3][3]float64{
		{1, 2, 1},
		{0, 0, 0},
		{-1, -2, -1},
	}
)

// ErrEmptyImage is returned for inputs without pixels.
var ErrEmptyImage = errors.New("empty image")

// SynthesizeNormal builds a tangent-space normal map from luminance using
// Sobel gradients: R carries the horizontal gradient, G the vertical one and
// B is fixed at 255. Color input is reduced to luminance first.
//
// Each gradient plane is scaled by its own maximum absolute value into
// [-127.5, 127.5] and encoded around NeutralNormal. Border pixels have no
// full 3x3 neighborhood and stay neutral, as does every pixel of a plane
// whose gradient is zero everywhere.
func SynthesizeNormal(src *raster.Image) (*raster.Image, error) {
	if src.Empty() {
		return nil, ErrEmptyImage
	}
	lum := src
	if src.Channels != raster.Gray {
		lum = src.Luminance()
	}

	gx := convolve3x3(lum, &sobelX)
	gy := convolve3x3(lum, &sobelY)

	out := raster.New(lum.Width, lum.Height, raster.RGB)
	r := encodeGradient(gx)
	g := encodeGradient(gy)
	for i := range r {
		o := i * raster.RGB
		out.Buf[o] = r[i]
		out.Buf[o+1] = g[i]
		out.Buf[o+2] = 255
	}
	return out, nil
}

// convolve3x3 correlates k with every interior pixel of a single-channel
// image. Border entries are left at zero.
func convolve3x3(m *raster.Image, k *[3][3]float64) []float64 {
	w, h := m.Width, m.Height
	plane := make([]float64, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			var sum float64
			for ky := 0; ky < 3; ky++ {
				row := (y - 1 + ky) * w
				for kx := 0; kx < 3; kx++ {
					sum += k[ky][kx] * float64(m.Buf[row+x-1+kx])
				}
			}
			plane[y*w+x] = sum
		}
	}
	return plane
}

// encodeGradient maps a gradient plane onto bytes centered at NeutralNormal.
// The plane is modified in place.
func encodeGradient(plane []float64) []byte {
	out := make([]byte, len(plane))
	maxAbs := floats.Norm(plane, math.Inf(1))
	if maxAbs == 0 {
		for i := range out {
			out[i] = NeutralNormal
		}
		return out
	}

	floats.Scale(127.5/maxAbs, plane)
	floats.AddConst(NeutralNormal, plane)
	for i, v := range plane {
		out[i] = byte(max(0, min(255, math.Floor(v))))
	}
	return out
}

// Package raster holds 8-bit interleaved raster buffers and the codecs and
// resampling used to move them between files and texture operations.
package raster

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Channel counts understood by Image.
const (
	Gray = 1
	RGB  = 3
	RGBA = 4
)

// Image is a row-major buffer of unsigned 8-bit samples, one sample per
// channel per pixel. len(Buf) is always Width*Height*Channels.
type Image struct {
	Buf      []byte
	Width    int
	Height   int
	Channels int // 1=grayscale, 3=RGB, 4=RGBA
}

// New allocates a zeroed image.
func New(width, height, channels int) *Image {
	if width < 0 || height < 0 {
		panic(fmt.Sprintf("raster: negative size %dx%d", width, height))
	}
	switch channels {
	case Gray, RGB, RGBA:
	default:
		panic(fmt.Sprintf("raster: unsupported channel count %d", channels))
	}
	return &Image{
		Buf:      make([]byte, width*height*channels),
		Width:    width,
		Height:   height,
		Channels: channels,
	}
}

// NewUniform allocates an image with every sample set to v.
func NewUniform(width, height, channels int, v byte) *Image {
	m := New(width, height, channels)
	for i := range m.Buf {
		m.Buf[i] = v
	}
	return m
}

// Size returns the image dimensions as a point.
func (m *Image) Size() image.Point {
	return image.Pt(m.Width, m.Height)
}

// Empty reports whether the image has no pixels.
func (m *Image) Empty() bool {
	return m == nil || m.Width == 0 || m.Height == 0
}

// Offset returns the index of channel 0 of pixel (x, y).
func (m *Image) Offset(x, y int) int {
	return (y*m.Width + x) * m.Channels
}

// At returns sample c of pixel (x, y).
func (m *Image) At(x, y, c int) byte {
	return m.Buf[m.Offset(x, y)+c]
}

// Set stores sample c of pixel (x, y).
func (m *Image) Set(x, y, c int, v byte) {
	m.Buf[m.Offset(x, y)+c] = v
}

// Clone returns a deep copy.
func (m *Image) Clone() *Image {
	buf := make([]byte, len(m.Buf))
	copy(buf, m.Buf)
	return &Image{Buf: buf, Width: m.Width, Height: m.Height, Channels: m.Channels}
}

// FromImage flattens a decoded image. Grayscale sources keep one channel,
// opaque images (JPEG, CMYK, PNG without alpha) become RGB and everything
// else is stored as non-premultiplied RGBA.
func FromImage(img image.Image) *Image {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	switch src := img.(type) {
	case *image.Gray:
		m := New(width, height, Gray)
		for y := 0; y < height; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(m.Buf[y*width:(y+1)*width], src.Pix[off:off+width])
		}
		return m
	case *image.Gray16:
		m := New(width, height, Gray)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				m.Buf[y*width+x] = byte(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y >> 8)
			}
		}
		return m
	case *image.YCbCr, *image.CMYK:
		return flattenRGB(img)
	}
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return flattenRGB(img)
	}

	m := New(width, height, RGBA)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			idx := m.Offset(x, y)
			m.Buf[idx] = c.R
			m.Buf[idx+1] = c.G
			m.Buf[idx+2] = c.B
			m.Buf[idx+3] = c.A
		}
	}
	return m
}

func flattenRGB(img image.Image) *Image {
	b := img.Bounds()
	m := New(b.Dx(), b.Dy(), RGB)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			idx := m.Offset(x, y)
			m.Buf[idx] = byte(r >> 8)
			m.Buf[idx+1] = byte(g >> 8)
			m.Buf[idx+2] = byte(bl >> 8)
		}
	}
	return m
}

// ToImage wraps the buffer in the matching image type. Grayscale becomes
// *image.Gray, RGB an opaque *image.RGBA and RGBA a *image.NRGBA so that
// the alpha channel stays independent of the color channels.
func (m *Image) ToImage() image.Image {
	rect := image.Rect(0, 0, m.Width, m.Height)
	switch m.Channels {
	case Gray:
		img := image.NewGray(rect)
		copy(img.Pix, m.Buf)
		return img
	case RGB:
		img := image.NewRGBA(rect)
		for i, j := 0, 0; i < len(m.Buf); i, j = i+3, j+4 {
			img.Pix[j] = m.Buf[i]
			img.Pix[j+1] = m.Buf[i+1]
			img.Pix[j+2] = m.Buf[i+2]
			img.Pix[j+3] = 255
		}
		return img
	default:
		img := image.NewNRGBA(rect)
		copy(img.Pix, m.Buf)
		return img
	}
}

// Luminance returns a single-channel copy using the ITU-R 601-2 luma
// weights. Alpha is ignored. A grayscale image is cloned.
func (m *Image) Luminance() *Image {
	if m.Channels == Gray {
		return m.Clone()
	}
	out := New(m.Width, m.Height, Gray)
	for i, j := 0, 0; j < len(out.Buf); i, j = i+m.Channels, j+1 {
		c := color.NRGBA{R: m.Buf[i], G: m.Buf[i+1], B: m.Buf[i+2], A: 255}
		out.Buf[j] = color.GrayModel.Convert(c).(color.Gray).Y
	}
	return out
}

// Resize resamples the image to width x height with a Lanczos kernel.
// The whole source is always mapped onto the whole destination; the image is
// never cropped or padded. Equal sizes return a copy.
func (m *Image) Resize(width, height int) *Image {
	if width == m.Width && height == m.Height {
		return m.Clone()
	}
	out := New(width, height, m.Channels)
	if out.Empty() || m.Empty() {
		return out
	}

	dst := imaging.Resize(m.ToImage(), width, height, imaging.Lanczos)
	for y := 0; y < height; y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+width*4]
		for x := 0; x < width; x++ {
			px := row[x*4 : x*4+4]
			idx := out.Offset(x, y)
			switch m.Channels {
			case Gray:
				out.Buf[idx] = px[0]
			case RGB:
				copy(out.Buf[idx:idx+3], px[:3])
			default:
				copy(out.Buf[idx:idx+4], px)
			}
		}
	}
	return out
}

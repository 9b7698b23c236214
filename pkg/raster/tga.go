package raster

import (
	"bytes"
	"encoding/binary"

	"github.com/ftrvxmtrx/tga"
	"github.com/pkg/errors"
)

const (
	tgaHeaderSize = 18
	tgaRLE        = 8
	// maxRLERun is the most pixels a single RLE packet can produce.
	maxRLERun = 128
)

type tgaHeader struct {
	IDLength      uint8
	ColorMapType  uint8
	ImageType     uint8
	ColorMapFirst uint16
	ColorMapLen   uint16
	ColorMapDepth uint8
	XOrigin       uint16
	YOrigin       uint16
	Width         uint16
	Height        uint16
	PixelDepth    uint8
	Descriptor    uint8
}

// DecodeTGA decodes a Truevision TGA image. Before the pixel buffer is
// allocated the header is checked against MaxPixels and against the number
// of bytes that follow it, so a short file cannot declare a huge image.
func DecodeTGA(data []byte) (*Image, error) {
	var h tgaHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &h); err != nil {
		return nil, errors.Wrap(err, "tga header")
	}
	if err := checkPixels(int(h.Width), int(h.Height)); err != nil {
		return nil, err
	}

	payload := len(data) - tgaHeaderSize - int(h.IDLength)
	if h.ColorMapType != 0 {
		payload -= int(h.ColorMapLen) * ((int(h.ColorMapDepth) + 7) / 8)
	}
	pixelBytes := (int(h.PixelDepth) + 7) / 8
	if payload <= 0 || pixelBytes == 0 {
		return nil, errors.New("tga: truncated file")
	}

	pixels := int(h.Width) * int(h.Height)
	if h.ImageType&tgaRLE != 0 {
		if pixels > payload/(1+pixelBytes)*maxRLERun+maxRLERun {
			return nil, errors.Errorf("tga: %d bytes cannot hold %d pixels", payload, pixels)
		}
	} else if pixels*pixelBytes > payload {
		return nil, errors.Errorf("tga: truncated file, need %d pixel bytes, have %d", pixels*pixelBytes, payload)
	}

	img, err := tga.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "tga")
	}
	return FromImage(img), nil
}

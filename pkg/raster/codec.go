package raster

import (
	"bufio"
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// MaxPixels caps the pixel count a header may declare before any pixel
// buffer is allocated.
const MaxPixels = 1 << 26

var (
	// ErrUnknownFormat is returned when no decoder recognizes the input.
	ErrUnknownFormat = errors.New("unrecognized image format")
	// ErrTooLarge is returned for headers declaring more than MaxPixels.
	ErrTooLarge = errors.New("image dimensions too large")
)

type format struct {
	name   string
	magic  string // '?' matches any byte
	decode func(io.Reader) (image.Image, error)
	config func(io.Reader) (image.Config, error)
}

// Formats are matched on their signature here rather than through
// image.Decode: the TGA package registers itself with an empty signature,
// which would claim every input.
var formats = []format{
	{"png", "\x89PNG\r\n\x1a\n", png.Decode, png.DecodeConfig},
	{"jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig},
	{"bmp", "BM????\x00\x00\x00\x00", bmp.Decode, bmp.DecodeConfig},
	{"tiff", "II*\x00", tiff.Decode, tiff.DecodeConfig},
	{"tiff", "MM\x00*", tiff.Decode, tiff.DecodeConfig},
	{"webp", "RIFF????WEBPVP8", webp.Decode, webp.DecodeConfig},
}

func sniff(data []byte) (format, bool) {
	for _, f := range formats {
		if len(data) < len(f.magic) {
			continue
		}
		ok := true
		for i := 0; i < len(f.magic); i++ {
			if f.magic[i] != '?' && f.magic[i] != data[i] {
				ok = false
				break
			}
		}
		if ok {
			return f, true
		}
	}
	return format{}, false
}

func checkPixels(width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.Errorf("invalid dimensions %dx%d", width, height)
	}
	if int64(width)*int64(height) > MaxPixels {
		return errors.Wrapf(ErrTooLarge, "%dx%d", width, height)
	}
	return nil
}

// Decode reads an image from r. TGA has no signature, so it is chosen by the
// extension of name; every other format is sniffed from its header. The
// declared dimensions are checked against MaxPixels before decoding.
func Decode(r io.Reader, name string) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(name), ".tga") {
		return DecodeTGA(data)
	}

	f, ok := sniff(data)
	if !ok {
		return nil, ErrUnknownFormat
	}
	cfg, err := f.config(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "%s header", f.name)
	}
	if err := checkPixels(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}
	img, err := f.decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return FromImage(img), nil
}

// Load opens and decodes the file at path.
func Load(fs afero.Fs, path string) (*Image, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := Decode(f, path)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return m, nil
}

// Encode writes m to w as PNG.
func Encode(w io.Writer, m *Image) error {
	return png.Encode(w, m.ToImage())
}

// Save writes m to path as PNG, truncating any existing file. The write is
// not atomic; a failure part way leaves a truncated file behind.
//
// A 4-channel image whose alpha is 255 everywhere is stored as an RGB PNG:
// the encoder drops an alpha channel it does not need. Load reads such a
// file back with 3 channels and readers that expect alpha see 255.
func Save(fs afero.Fs, path string, m *Image) error {
	f, err := fs.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if err := Encode(w, m); err != nil {
		f.Close()
		return errors.Wrapf(err, "encode %s", path)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	return f.Close()
}

package texture

import (
	"testing"

	"github.com/kiesman99/maskmap/pkg/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContrastStretch(t *testing.T) {
	tests := []struct {
		in   byte
		gain float64
		want byte
	}{
		{128, 1.5, 128},
		{128, 2.0, 128},
		{0, 1.5, 0},
		{255, 1.5, 255},
		{0, 2.0, 0},
		{255, 2.0, 255},
		{100, 2.0, 72},
		{155, 1.5, 169},
		{127, 1.5, 127},
		{200, 1.0, 200},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ContrastStretch(tt.in, tt.gain), "stretch(%d, %v)", tt.in, tt.gain)
	}
}

func allSamples() *raster.Image {
	m := raster.New(256, 1, raster.Gray)
	for i := range m.Buf {
		m.Buf[i] = byte(i)
	}
	return m
}

func TestDeriveRoughness(t *testing.T) {
	out, err := DeriveRoughness(allSamples())
	require.NoError(t, err)
	require.Equal(t, raster.Gray, out.Channels)

	assert.Equal(t, byte(255), out.Buf[0])
	assert.Equal(t, byte(0), out.Buf[255])
	assert.Equal(t, byte(169), out.Buf[100])
	for i := 1; i < 256; i++ {
		assert.LessOrEqual(t, out.Buf[i], out.Buf[i-1], "roughness must not increase at %d", i)
	}
}

func TestDeriveSpecular(t *testing.T) {
	out, err := DeriveSpecular(allSamples())
	require.NoError(t, err)

	assert.Equal(t, byte(0), out.Buf[0])
	assert.Equal(t, byte(255), out.Buf[255])
	assert.Equal(t, byte(72), out.Buf[100])
	assert.Equal(t, byte(128), out.Buf[128])
	for i := 1; i < 256; i++ {
		assert.GreaterOrEqual(t, out.Buf[i], out.Buf[i-1], "specular must not decrease at %d", i)
	}
}

func TestDerivedMapsKeepSize(t *testing.T) {
	src := raster.NewUniform(9, 4, raster.RGB, 100)
	for name, derive := range map[string]func(*raster.Image) (*raster.Image, error){
		"roughness": DeriveRoughness,
		"specular":  DeriveSpecular,
	} {
		out, err := derive(src)
		require.NoError(t, err, name)
		assert.Equal(t, 9, out.Width, name)
		assert.Equal(t, 4, out.Height, name)
		assert.Equal(t, raster.Gray, out.Channels, name)
	}
}

func TestDerivedMapsRejectEmpty(t *testing.T) {
	_, err := DeriveRoughness(raster.New(0, 0, raster.Gray))
	assert.ErrorIs(t, err, ErrEmptyImage)
	_, err = DeriveSpecular(nil)
	assert.ErrorIs(t, err, ErrEmptyImage)
}

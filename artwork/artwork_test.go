package artwork

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xff})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeEmpty(t *testing.T) {
	img, err := Decode(nil, Cell{W: 8, H: 16})
	require.NoError(t, err)
	assert.True(t, img.Empty())
}

func TestDecodeCropsAndSizes(t *testing.T) {
	img, err := Decode(pngBytes(t, 64, 32), Cell{W: 8, H: 16})
	require.NoError(t, err)
	assert.False(t, img.Empty())
	// cropped to 32x32
	assert.Equal(t, 4, img.Cols)
	assert.Equal(t, 2, img.Rows)
	assert.Contains(t, img.Data, "\x1b_G")
}

func TestDecodeFallsBackToDefaultCell(t *testing.T) {
	img, err := Decode(pngBytes(t, 16, 16), Cell{})
	require.NoError(t, err)
	assert.Equal(t, 2, img.Cols)
	assert.Equal(t, 1, img.Rows)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode([]byte("not an image"), Cell{W: 8, H: 16})
	assert.Error(t, err)
}

func TestCropToSquare(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 30))
	sq := cropToSquare(img)
	assert.Equal(t, image.Rect(0, 10, 10, 20), sq.Bounds())
}

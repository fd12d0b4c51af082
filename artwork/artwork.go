// Package artwork turns embedded cover art into something a terminal running
// the kitty graphics protocol can draw.
package artwork

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/dolmen-go/kittyimg"
)

// Image is cover art already encoded as a kitty graphics escape sequence.
// Cols and Rows are its footprint in terminal cells.
type Image struct {
	Cols int
	Rows int
	Data string
}

func (i Image) Empty() bool { return i.Data == "" }

// Cell is the size of a terminal cell in pixels.
type Cell struct {
	W int
	H int
}

// Fallback cell size for when the terminal won't report one.
var defaultCell = Cell{W: 8, H: 16}

func cropToSquare(img image.Image) image.Image {
	b := img.Bounds()
	size := min(b.Dx(), b.Dy())
	x0 := b.Min.X + (b.Dx()-size)/2
	y0 := b.Min.Y + (b.Dy()-size)/2
	rect := image.Rect(x0, y0, x0+size, y0+size)
	if sub, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(rect)
	}
	return img
}

// Decode reads picture bytes (jpeg or png) and encodes a square crop of them.
// No data means no artwork, which is not an error.
func Decode(data []byte, cell Cell) (Image, error) {
	if len(data) == 0 {
		return Image{}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("failed to decode artwork: %w", err)
	}
	square := cropToSquare(img)

	var w bytes.Buffer
	if err := kittyimg.Fprint(&w, square); err != nil {
		return Image{}, fmt.Errorf("failed to encode artwork: %w", err)
	}

	if cell.W <= 0 || cell.H <= 0 {
		cell = defaultCell
	}
	px := square.Bounds().Dx()
	return Image{
		Cols: max(px/cell.W, 1),
		Rows: max(px/cell.H, 1),
		Data: w.String(),
	}, nil
}

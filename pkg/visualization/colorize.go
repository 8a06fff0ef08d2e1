package visualization

import (
	"image"
	"image/color"

	"gonum.org/v1/gonum/floats"

	"nrrdpreview/internal/models"
)

// Colorize paints each pixel of s with the color lut assigns its label.
// Labels missing from lut, background included, stay fully transparent.
func Colorize(s *models.Slice, lut map[int64]color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, s.Cols, s.Rows))
	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Cols; c++ {
			if col, ok := lut[s.At(r, c)]; ok {
				img.SetNRGBA(c, r, col)
			}
		}
	}
	return img
}

// Grayscale maps the slice linearly from its minimum (black) to its maximum
// (white). A constant slice renders black.
func Grayscale(s *models.Slice) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, s.Cols, s.Rows))
	if len(s.Data) == 0 {
		return img
	}

	values := make([]float64, len(s.Data))
	for i, l := range s.Data {
		values[i] = float64(l)
	}
	lo, hi := floats.Min(values), floats.Max(values)
	if hi == lo {
		return img
	}

	scale := 255 / (hi - lo)
	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Cols; c++ {
			y := (values[r*s.Cols+c] - lo) * scale
			img.SetGray(c, r, color.Gray{Y: uint8(y + 0.5)})
		}
	}
	return img
}

// flipVertical returns a copy of img with its rows reversed, so that row 0
// of the slice is drawn at the bottom
func flipVertical(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(b)
	h := b.Dy()
	for y := 0; y < h; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		dst := out.Pix[(h-1-y)*out.Stride : (h-1-y)*out.Stride+b.Dx()*4]
		copy(dst, src)
	}
	return out
}

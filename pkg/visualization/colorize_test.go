package visualization

import (
	"image"
	"image/color"
	"testing"

	"nrrdpreview/internal/models"
	"nrrdpreview/pkg/palette"
)

// TestColorizeBackgroundTransparent verifies background pixels stay transparent
func TestColorizeBackgroundTransparent(t *testing.T) {
	s := models.NewSlice(3, 4)
	img := Colorize(s, map[int64]color.NRGBA{1: {255, 0, 0, 255}})

	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Fatalf("Expected 4x3 image, got %dx%d", b.Dx(), b.Dy())
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			if a := img.NRGBAAt(x, y).A; a != 0 {
				t.Errorf("Expected transparent background at (%d,%d), got alpha %d", x, y, a)
			}
		}
	}
}

// TestColorizeDistinctColors verifies k labels produce k opaque colors plus
// the transparent background
func TestColorizeDistinctColors(t *testing.T) {
	s := models.NewSlice(2, 3)
	labels := []int64{4, 9, 12}
	s.Set(0, 0, 4)
	s.Set(0, 2, 9)
	s.Set(1, 1, 12)
	s.Set(1, 2, 4)

	a := palette.Assign(labels)
	img := Colorize(s, a.Map())

	seen := make(map[color.NRGBA]bool)
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			seen[img.NRGBAAt(x, y)] = true
		}
	}
	if len(seen) != len(labels)+1 {
		t.Errorf("Expected %d distinct colors, got %d", len(labels)+1, len(seen))
	}

	want, _ := a.Color(12)
	if got := img.NRGBAAt(1, 1); got != want {
		t.Errorf("Expected label 12 color %v, got %v", want, got)
	}
}

// TestGrayscale verifies the min-to-max grayscale mapping
func TestGrayscale(t *testing.T) {
	s := models.NewSlice(1, 3)
	s.Set(0, 0, 2)
	s.Set(0, 1, 4)
	s.Set(0, 2, 6)

	img := Grayscale(s)
	if got := img.GrayAt(0, 0).Y; got != 0 {
		t.Errorf("Expected minimum to be black, got %d", got)
	}
	if got := img.GrayAt(1, 0).Y; got != 128 {
		t.Errorf("Expected midpoint 128, got %d", got)
	}
	if got := img.GrayAt(2, 0).Y; got != 255 {
		t.Errorf("Expected maximum to be white, got %d", got)
	}

	constant := Grayscale(models.NewSlice(2, 2))
	for _, p := range constant.Pix {
		if p != 0 {
			t.Fatalf("Expected constant slice to render black, got %d", p)
		}
	}
}

// TestFlipVertical verifies row 0 ends up at the bottom
func TestFlipVertical(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 3))
	red := color.NRGBA{255, 0, 0, 255}
	img.SetNRGBA(1, 0, red)

	flipped := flipVertical(img)
	if got := flipped.NRGBAAt(1, 2); got != red {
		t.Errorf("Expected top row to move to the bottom, got %v", got)
	}
	if got := flipped.NRGBAAt(1, 0); got.A != 0 {
		t.Errorf("Expected top row of flipped image to be empty, got %v", got)
	}
}

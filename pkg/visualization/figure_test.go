package visualization

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

// TestNewFigure verifies the canvas size in pixels and its white fill
func TestNewFigure(t *testing.T) {
	fig, err := NewFigure(2, 1, 50, FontSizes{Title: 12, Suptitle: 10, Legend: 8})
	if err != nil {
		t.Fatalf("Failed to create figure: %v", err)
	}
	defer fig.Close()

	if b := fig.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("Expected 100x50 canvas, got %dx%d", b.Dx(), b.Dy())
	}
	if got := fig.Image().RGBAAt(10, 10); got != colorWhite {
		t.Errorf("Expected white canvas, got %v", got)
	}

	if _, err := NewFigure(0, 1, 100, FontSizes{}); err == nil {
		t.Error("Expected error for zero width figure")
	}
}

// TestGrid verifies grid cells start below the title band
func TestGrid(t *testing.T) {
	fig, err := NewFigure(3, 2, 100, FontSizes{Title: 12})
	if err != nil {
		t.Fatal(err)
	}
	defer fig.Close()

	cells := fig.Grid(20, 2, 3)
	if len(cells) != 2 || len(cells[0]) != 3 {
		t.Fatalf("Expected 2x3 grid, got %dx%d", len(cells), len(cells[0]))
	}
	if cells[0][0].Min.Y != 20 {
		t.Errorf("Expected grid to start below the band, got %d", cells[0][0].Min.Y)
	}
	if want := image.Rect(200, 110, 300, 200); cells[1][2] != want {
		t.Errorf("Expected last cell %v, got %v", want, cells[1][2])
	}
}

// TestFit verifies aspect-preserving placement of a panel image
func TestFit(t *testing.T) {
	got := fit(image.Rect(0, 0, 10, 5), image.Rect(0, 0, 100, 100))
	if want := image.Rect(0, 25, 100, 75); got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if !fit(image.Rect(0, 0, 0, 5), image.Rect(0, 0, 10, 10)).Empty() {
		t.Error("Expected empty rectangle for empty source")
	}
}

// TestPanelAndLegendDraw verifies panels are scaled into their cell
func TestPanelAndLegendDraw(t *testing.T) {
	fig, err := NewFigure(4, 2, 100, FontSizes{Title: 12, Suptitle: 10, Legend: 8})
	if err != nil {
		t.Fatal(err)
	}
	defer fig.Close()

	top, err := fig.Suptitle("Shape: 2×2×2")
	if err != nil {
		t.Fatalf("Failed to draw suptitle: %v", err)
	}
	if top <= 0 {
		t.Errorf("Expected a positive title band, got %d", top)
	}

	cells := fig.Grid(top, 1, 2)
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	red := color.NRGBA{255, 0, 0, 255}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.SetNRGBA(x, y, red)
		}
	}
	if err := fig.Panel(cells[0][0], "Axial z=1/2", src); err != nil {
		t.Fatalf("Failed to draw panel: %v", err)
	}

	c := cells[0][0]
	center := fig.Image().RGBAAt((c.Min.X+c.Max.X)/2, (c.Min.Y+c.Max.Y)/2+10)
	if center.R != 255 || center.G != 0 || center.B != 0 {
		t.Errorf("Expected red panel pixel, got %v", center)
	}

	entries := []LegendEntry{{"Label 1", red}, {"Label 2", color.NRGBA{0, 0, 255, 255}}}
	if err := fig.Legend(cells[0][1], "2 labels", entries); err != nil {
		t.Fatalf("Failed to draw legend: %v", err)
	}
}

// TestContentBounds verifies detection of the non-white region
func TestContentBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	if got := contentBounds(img); got != img.Bounds() {
		t.Errorf("Expected full bounds for blank canvas, got %v", got)
	}

	img.SetRGBA(5, 3, color.RGBA{0, 0, 0, 255})
	img.SetRGBA(12, 7, color.RGBA{10, 10, 10, 255})
	if want, got := image.Rect(5, 3, 13, 8), contentBounds(img); got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

// TestTight verifies the crop keeps the padding around the content
func TestTight(t *testing.T) {
	fig, err := NewFigure(1, 1, 100, FontSizes{})
	if err != nil {
		t.Fatal(err)
	}
	defer fig.Close()

	fig.Image().SetRGBA(50, 50, color.RGBA{0, 0, 0, 255})
	b := fig.Tight(0.1).Bounds()
	if want := image.Rect(40, 40, 61, 61); b != want {
		t.Errorf("Expected crop %v, got %v", want, b)
	}
}

// TestClosedFigure verifies drawing on a closed figure fails
func TestClosedFigure(t *testing.T) {
	fig, err := NewFigure(1, 1, 100, FontSizes{Title: 12, Suptitle: 12})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fig.Suptitle("x"); err != nil {
		t.Fatal(err)
	}
	if err := fig.Close(); err != nil {
		t.Errorf("Expected clean close, got %v", err)
	}

	if err := fig.Panel(image.Rect(0, 0, 10, 10), "x", image.NewGray(image.Rect(0, 0, 1, 1))); !errors.Is(err, ErrFigureClosed) {
		t.Errorf("Expected ErrFigureClosed from Panel, got %v", err)
	}
	if err := fig.SaveJPEG("unused.jpg", 85, 0.1); !errors.Is(err, ErrFigureClosed) {
		t.Errorf("Expected ErrFigureClosed from SaveJPEG, got %v", err)
	}
	if !fig.Bounds().Empty() {
		t.Error("Expected empty bounds after close")
	}
}

package visualization

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// ErrFigureClosed is returned by drawing calls on a closed Figure.
var ErrFigureClosed = errors.New("figure is closed")

var (
	colorWhite  = color.RGBA{255, 255, 255, 255}
	colorText   = color.RGBA{0, 0, 0, 255}
	colorBorder = color.RGBA{204, 204, 204, 255} // legend frame
)

// FontSizes holds text sizes in points
type FontSizes struct {
	Title    float64
	Suptitle float64
	Legend   float64
}

// LegendEntry is one colored patch of the legend panel
type LegendEntry struct {
	Label string
	Color color.NRGBA
}

// Figure is a white raster canvas sized in inches at a given DPI. Text is
// set in Go Regular with point sizes converted at the figure DPI.
type Figure struct {
	img   *image.RGBA
	dpi   float64
	sizes FontSizes
	font  *opentype.Font
	faces map[float64]font.Face
}

// NewFigure allocates a figure of widthIn x heightIn inches
func NewFigure(widthIn, heightIn, dpi float64, sizes FontSizes) (*Figure, error) {
	w := int(math.Round(widthIn * dpi))
	h := int(math.Round(heightIn * dpi))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("figure of %gx%g in at %g dpi has no pixels", widthIn, heightIn, dpi)
	}

	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(colorWhite), image.Point{}, draw.Src)

	return &Figure{
		img:   img,
		dpi:   dpi,
		sizes: sizes,
		font:  fnt,
		faces: make(map[float64]font.Face),
	}, nil
}

// Image returns the canvas, or nil once the figure is closed
func (f *Figure) Image() *image.RGBA {
	return f.img
}

// Bounds returns the canvas bounds
func (f *Figure) Bounds() image.Rectangle {
	if f.img == nil {
		return image.Rectangle{}
	}
	return f.img.Bounds()
}

func (f *Figure) face(size float64) (font.Face, error) {
	if face, ok := f.faces[size]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(f.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     f.dpi,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("creating %gpt face: %w", size, err)
	}
	f.faces[size] = face
	return face, nil
}

// pad is the spacing kept between text and panel edges
func (f *Figure) pad() int {
	return max(1, int(math.Round(0.05*f.dpi)))
}

// drawText draws s with its baseline at y, centered on x when center is set
// and starting at x otherwise
func (f *Figure) drawText(face font.Face, s string, x, y int, center bool) {
	if center {
		x -= font.MeasureString(face, s).Ceil() / 2
	}
	d := &font.Drawer{
		Dst:  f.img,
		Src:  image.NewUniform(colorText),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func (f *Figure) fillRect(r image.Rectangle, c color.Color) {
	draw.Draw(f.img, r, image.NewUniform(c), image.Point{}, draw.Over)
}

func (f *Figure) strokeRect(r image.Rectangle, c color.Color) {
	f.fillRect(image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), c)
	f.fillRect(image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), c)
	f.fillRect(image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), c)
	f.fillRect(image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), c)
}

// Suptitle draws a figure-wide title and returns the height of the band it
// occupies at the top of the canvas
func (f *Figure) Suptitle(title string) (int, error) {
	if f.img == nil {
		return 0, ErrFigureClosed
	}
	face, err := f.face(f.sizes.Suptitle)
	if err != nil {
		return 0, err
	}
	m := face.Metrics()
	pad := f.pad()
	f.drawText(face, title, f.img.Bounds().Dx()/2, pad+m.Ascent.Ceil(), true)
	return 2*pad + (m.Ascent + m.Descent).Ceil(), nil
}

// Grid splits the canvas below top into rows x cols equal cells
func (f *Figure) Grid(top, rows, cols int) [][]image.Rectangle {
	b := f.Bounds()
	cellW := b.Dx() / cols
	cellH := (b.Dy() - top) / rows

	cells := make([][]image.Rectangle, rows)
	for r := range cells {
		cells[r] = make([]image.Rectangle, cols)
		for c := range cells[r] {
			x0 := b.Min.X + c*cellW
			y0 := b.Min.Y + top + r*cellH
			cells[r][c] = image.Rect(x0, y0, x0+cellW, y0+cellH)
		}
	}
	return cells
}

// titled draws a centered title at the top of cell and returns the area
// left below it
func (f *Figure) titled(cell image.Rectangle, title string) (image.Rectangle, error) {
	face, err := f.face(f.sizes.Title)
	if err != nil {
		return image.Rectangle{}, err
	}
	m := face.Metrics()
	pad := f.pad()
	cx := (cell.Min.X + cell.Max.X) / 2
	f.drawText(face, title, cx, cell.Min.Y+pad+m.Ascent.Ceil(), true)

	top := cell.Min.Y + 2*pad + (m.Ascent + m.Descent).Ceil()
	area := image.Rect(cell.Min.X+pad, top, cell.Max.X-pad, cell.Max.Y-pad)
	if area.Empty() {
		return image.Rectangle{}, nil
	}
	return area, nil
}

// fit returns the largest rectangle with src's aspect ratio centered in area
func fit(src, area image.Rectangle) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	if sw == 0 || sh == 0 || area.Empty() {
		return image.Rectangle{}
	}
	scale := math.Min(float64(area.Dx())/float64(sw), float64(area.Dy())/float64(sh))
	w := max(1, int(float64(sw)*scale))
	h := max(1, int(float64(sh)*scale))
	x0 := area.Min.X + (area.Dx()-w)/2
	y0 := area.Min.Y + (area.Dy()-h)/2
	return image.Rect(x0, y0, x0+w, y0+h)
}

// Panel draws a titled image into cell, scaled with nearest-neighbor
// sampling and composited over the white canvas
func (f *Figure) Panel(cell image.Rectangle, title string, img image.Image) error {
	if f.img == nil {
		return ErrFigureClosed
	}
	area, err := f.titled(cell, title)
	if err != nil {
		return err
	}
	dst := fit(img.Bounds(), area)
	if dst.Empty() {
		return nil
	}
	draw.NearestNeighbor.Scale(f.img, dst, img, img.Bounds(), draw.Over, nil)
	return nil
}

// Legend draws a framed legend box centered in cell, one patch per entry
func (f *Figure) Legend(cell image.Rectangle, title string, entries []LegendEntry) error {
	if f.img == nil {
		return ErrFigureClosed
	}
	area, err := f.titled(cell, title)
	if err != nil {
		return err
	}
	if len(entries) == 0 || area.Empty() {
		return nil
	}

	face, err := f.face(f.sizes.Legend)
	if err != nil {
		return err
	}
	m := face.Metrics()
	ascent, descent := m.Ascent.Ceil(), m.Descent.Ceil()
	fontPx := max(1, ascent+descent)
	rowH := fontPx * 3 / 2
	patchW, patchH := 2*fontPx, max(1, fontPx*7/10)
	pad := max(1, fontPx/2)

	textW := 0
	for _, e := range entries {
		textW = max(textW, font.MeasureString(face, e.Label).Ceil())
	}
	boxW := 3*pad + patchW + textW
	boxH := 2*pad + rowH*len(entries)

	cx := (area.Min.X + area.Max.X) / 2
	cy := (area.Min.Y + area.Max.Y) / 2
	box := image.Rect(cx-boxW/2, cy-boxH/2, cx-boxW/2+boxW, cy-boxH/2+boxH)
	f.fillRect(box, colorWhite)
	f.strokeRect(box, colorBorder)

	for i, e := range entries {
		y0 := box.Min.Y + pad + i*rowH
		px := box.Min.X + pad
		py := y0 + (rowH-patchH)/2
		f.fillRect(image.Rect(px, py, px+patchW, py+patchH), e.Color)
		baseline := y0 + (rowH+ascent-descent)/2
		f.drawText(face, e.Label, px+patchW+pad, baseline, false)
	}
	return nil
}

// contentBounds returns the smallest rectangle holding every non-white
// pixel, or the full bounds when the canvas is blank
func contentBounds(img *image.RGBA) image.Rectangle {
	b := img.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := img.PixOffset(x, y)
			if img.Pix[i] == 255 && img.Pix[i+1] == 255 && img.Pix[i+2] == 255 {
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if maxX < minX {
		return b
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// Tight returns the canvas cropped to its content plus padIn inches
func (f *Figure) Tight(padIn float64) image.Image {
	pad := int(math.Round(padIn * f.dpi))
	r := contentBounds(f.img).Inset(-pad).Intersect(f.img.Bounds())
	return f.img.SubImage(r)
}

// SaveJPEG writes the tightly cropped figure as a JPEG
func (f *Figure) SaveJPEG(path string, quality int, padIn float64) error {
	if f.img == nil {
		return ErrFigureClosed
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(file, f.Tight(padIn), &jpeg.Options{Quality: quality}); err != nil {
		file.Close()
		return fmt.Errorf("encoding jpeg: %w", err)
	}
	return file.Close()
}

// Close releases the font faces and the canvas. The figure cannot be drawn
// on afterwards.
func (f *Figure) Close() error {
	var first error
	for size, face := range f.faces {
		if err := face.Close(); err != nil && first == nil {
			first = err
		}
		delete(f.faces, size)
	}
	f.img = nil
	return first
}

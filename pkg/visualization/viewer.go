package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/image/draw"

	"nrrdpreview/internal/models"
)

// Viewer cuts 2D slices out of a label volume
type Viewer struct {
	// volume holds the label mask being viewed
	volume *models.Volume
}

// NewViewer creates a new slice viewer over v
func NewViewer(v *models.Volume) *Viewer {
	return &Viewer{volume: v}
}

// ExtractSlice extracts a 2D slice across the given axis.
//
// Axial slices have rows along the second volume axis and columns along the
// third; coronal slices rows along the first and columns along the third;
// sagittal slices rows along the first and columns along the second.
func (v *Viewer) ExtractSlice(axis models.Axis, position int) (*models.Slice, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	vol := v.volume
	s0, s1, s2 := vol.Shape[0], vol.Shape[1], vol.Shape[2]

	var s *models.Slice
	switch axis {
	case models.Axial:
		if position >= s0 {
			return nil, fmt.Errorf("position %d exceeds %s length %d", position, axis.Name(), s0)
		}
		s = models.NewSlice(s1, s2)
		for r := 0; r < s1; r++ {
			for c := 0; c < s2; c++ {
				s.Set(r, c, vol.At(position, r, c))
			}
		}

	case models.Coronal:
		if position >= s1 {
			return nil, fmt.Errorf("position %d exceeds %s length %d", position, axis.Name(), s1)
		}
		s = models.NewSlice(s0, s2)
		for r := 0; r < s0; r++ {
			for c := 0; c < s2; c++ {
				s.Set(r, c, vol.At(r, position, c))
			}
		}

	case models.Sagittal:
		if position >= s2 {
			return nil, fmt.Errorf("position %d exceeds %s length %d", position, axis.Name(), s2)
		}
		s = models.NewSlice(s0, s1)
		for r := 0; r < s0; r++ {
			for c := 0; c < s1; c++ {
				s.Set(r, c, vol.At(r, c, position))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %d", int(axis))
	}

	s.Axis = axis
	s.Index = position
	return s, nil
}

// SaveSlice saves a rendered slice as a JPEG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveSliceSequence writes every slice along axis to outputDir. Slices are
// colorized with lut over black, or rendered in grayscale when lut is empty.
// The positions are divided among numCores goroutines.
func (v *Viewer) SaveSliceSequence(axis models.Axis, outputDir string, lut map[int64]color.NRGBA, numCores int) error {
	if !axis.Valid() {
		return fmt.Errorf("invalid axis: %d", int(axis))
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}
	if numCores < 1 {
		numCores = 1
	}

	maxPos := v.volume.AxisLength(axis)
	slicesPerCore := (maxPos + numCores - 1) / numCores

	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error
	for c := 0; c < numCores; c++ {
		start := c * slicesPerCore
		end := min(start+slicesPerCore, maxPos)
		if start >= end {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for pos := start; pos < end; pos++ {
				if err := v.saveSlice(axis, pos, outputDir, lut); err != nil {
					once.Do(func() { firstErr = err })
					return
				}
			}
		}(start, end)
	}
	wg.Wait()

	return firstErr
}

func (v *Viewer) saveSlice(axis models.Axis, pos int, outputDir string, lut map[int64]color.NRGBA) error {
	s, err := v.ExtractSlice(axis, pos)
	if err != nil {
		return err
	}

	var img image.Image
	if len(lut) == 0 {
		img = Grayscale(s)
	} else {
		img = onBackground(Colorize(s, lut), color.Black)
	}

	filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.jpg", axis.Letter(), pos))
	return v.SaveSlice(img, filename)
}

// onBackground composites img over an opaque background color
func onBackground(img image.Image, bg color.Color) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Over)
	return out
}

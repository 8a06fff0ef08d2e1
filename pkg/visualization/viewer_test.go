package visualization

import (
	"fmt"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"nrrdpreview/internal/models"
)

// newPatternVolume fills a volume with label = 100*i + 10*j + k so every
// voxel can be identified from its value
func newPatternVolume(s0, s1, s2 int) *models.Volume {
	v := models.NewVolume([3]int{s0, s1, s2}, "int64")
	for k := 0; k < s2; k++ {
		for j := 0; j < s1; j++ {
			for i := 0; i < s0; i++ {
				v.Set(i, j, k, int64(100*i+10*j+k))
			}
		}
	}
	return v
}

// TestNewViewer verifies that a new viewer holds the given volume
func TestNewViewer(t *testing.T) {
	v := newPatternVolume(4, 3, 2)
	viewer := NewViewer(v)

	if viewer.volume != v {
		t.Error("Expected viewer to hold the given volume")
	}
}

// TestExtractSlice verifies the row and column axes of each plane
func TestExtractSlice(t *testing.T) {
	v := newPatternVolume(4, 3, 2)
	viewer := NewViewer(v)

	tests := []struct {
		axis       models.Axis
		position   int
		rows, cols int
		at         func(r, c int) int64
	}{
		{models.Axial, 2, 3, 2, func(r, c int) int64 { return int64(200 + 10*r + c) }},
		{models.Coronal, 1, 4, 2, func(r, c int) int64 { return int64(100*r + 10 + c) }},
		{models.Sagittal, 1, 4, 3, func(r, c int) int64 { return int64(100*r + 10*c + 1) }},
	}

	for _, tt := range tests {
		s, err := viewer.ExtractSlice(tt.axis, tt.position)
		if err != nil {
			t.Fatalf("Failed to extract %s slice: %v", tt.axis.Name(), err)
		}
		if s.Rows != tt.rows || s.Cols != tt.cols {
			t.Errorf("%s: expected %dx%d slice, got %dx%d", tt.axis.Name(), tt.rows, tt.cols, s.Rows, s.Cols)
			continue
		}
		if s.Axis != tt.axis || s.Index != tt.position {
			t.Errorf("%s: expected slice metadata (%v, %d), got (%v, %d)", tt.axis.Name(), tt.axis, tt.position, s.Axis, s.Index)
		}
		for r := 0; r < s.Rows; r++ {
			for c := 0; c < s.Cols; c++ {
				if got, want := s.At(r, c), tt.at(r, c); got != want {
					t.Errorf("%s[%d,%d]: expected %d, got %d", tt.axis.Name(), r, c, want, got)
				}
			}
		}
	}
}

// TestExtractSliceErrors verifies out-of-range positions and unknown axes are rejected
func TestExtractSliceErrors(t *testing.T) {
	viewer := NewViewer(newPatternVolume(4, 3, 2))

	cases := []struct {
		axis     models.Axis
		position int
	}{
		{models.Axial, -1},
		{models.Axial, 4},
		{models.Coronal, 3},
		{models.Sagittal, 2},
		{models.Axis(7), 0},
	}
	for _, c := range cases {
		if _, err := viewer.ExtractSlice(c.axis, c.position); err == nil {
			t.Errorf("Expected error for %s at %d", c.axis.Name(), c.position)
		}
	}
}

// TestSaveSliceSequence verifies one colorized JPEG is written per coronal slice
func TestSaveSliceSequence(t *testing.T) {
	v := models.NewVolume([3]int{3, 4, 5}, "uint8")
	v.Set(1, 2, 3, 7)
	viewer := NewViewer(v)

	dir := t.TempDir()
	lut := map[int64]color.NRGBA{7: {255, 0, 0, 255}}
	if err := viewer.SaveSliceSequence(models.Coronal, dir, lut, 3); err != nil {
		t.Fatalf("Failed to save slice sequence: %v", err)
	}

	for pos := 0; pos < 4; pos++ {
		path := filepath.Join(dir, fmt.Sprintf("slice_y_%03d.jpg", pos))
		file, err := os.Open(path)
		if err != nil {
			t.Errorf("Expected slice file %s: %v", path, err)
			continue
		}
		img, err := jpeg.Decode(file)
		file.Close()
		if err != nil {
			t.Errorf("Failed to decode %s: %v", path, err)
			continue
		}
		// coronal slices are S0 rows by S2 columns
		if b := img.Bounds(); b.Dx() != 5 || b.Dy() != 3 {
			t.Errorf("Expected 5x3 image, got %dx%d", b.Dx(), b.Dy())
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "slice_y_004.jpg")); !os.IsNotExist(err) {
		t.Error("Expected no file past the last coronal slice")
	}
}

// TestSaveSliceSequenceGrayscale verifies grayscale export when no colors are given
func TestSaveSliceSequenceGrayscale(t *testing.T) {
	viewer := NewViewer(newPatternVolume(2, 2, 3))
	dir := filepath.Join(t.TempDir(), "slices")

	if err := viewer.SaveSliceSequence(models.Sagittal, dir, nil, 1); err != nil {
		t.Fatalf("Failed to save slice sequence: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Errorf("Expected 3 sagittal slices, got %d", len(entries))
	}

	if err := viewer.SaveSliceSequence(models.Axis(9), dir, nil, 0); err == nil {
		t.Error("Expected error for invalid axis")
	}
}

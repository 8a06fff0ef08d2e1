package models

import (
	"fmt"
	"slices"
)

// Axis identifies one of the three orthogonal viewing planes of a volume.
type Axis int

const (
	// Axial slices cut across the first volume axis.
	Axial Axis = iota
	// Coronal slices cut across the second volume axis.
	Coronal
	// Sagittal slices cut across the third volume axis.
	Sagittal
)

// Axes lists the viewing planes in volume axis order.
var Axes = []Axis{Axial, Coronal, Sagittal}

// Name returns the anatomical name of the plane
func (a Axis) Name() string {
	switch a {
	case Axial:
		return "Axial"
	case Coronal:
		return "Coronal"
	case Sagittal:
		return "Sagittal"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// Letter returns the coordinate letter used in slice titles and file names
func (a Axis) Letter() string {
	switch a {
	case Axial:
		return "z"
	case Coronal:
		return "y"
	case Sagittal:
		return "x"
	default:
		return "?"
	}
}

// Valid reports whether a is one of the three known planes
func (a Axis) Valid() bool {
	return a >= Axial && a <= Sagittal
}

// Volume represents a 3D label mask loaded from disk
type Volume struct {
	// Data holds one label per voxel with the first axis varying fastest,
	// the order NRRD stores samples in
	Data []int64

	// Shape is the length of each axis, conventionally (Z, Y, X)
	Shape [3]int

	// DType is the name of the sample type the labels were decoded from
	DType string

	// Spacing is the physical size of each voxel along each axis
	Spacing [3]float64
}

// NewVolume allocates a zero-filled volume of the given shape
func NewVolume(shape [3]int, dtype string) *Volume {
	n := 1
	for _, s := range shape {
		if s < 0 {
			s = 0
		}
		n *= s
	}
	return &Volume{
		Data:    make([]int64, n),
		Shape:   shape,
		DType:   dtype,
		Spacing: [3]float64{1, 1, 1},
	}
}

// Index returns the position of voxel (i, j, k) in Data
func (v *Volume) Index(i, j, k int) int {
	return i + v.Shape[0]*(j+v.Shape[1]*k)
}

// At returns the label at voxel (i, j, k)
func (v *Volume) At(i, j, k int) int64 {
	return v.Data[v.Index(i, j, k)]
}

// Set stores a label at voxel (i, j, k)
func (v *Volume) Set(i, j, k int, label int64) {
	v.Data[v.Index(i, j, k)] = label
}

// Len returns the number of voxels
func (v *Volume) Len() int {
	return len(v.Data)
}

// Degenerate reports whether any axis has zero length
func (v *Volume) Degenerate() bool {
	for _, s := range v.Shape {
		if s <= 0 {
			return true
		}
	}
	return false
}

// AxisLength returns the length of the volume axis a slice of the given
// plane is taken across
func (v *Volume) AxisLength(a Axis) int {
	if !a.Valid() {
		return 0
	}
	return v.Shape[a]
}

// Labels returns the distinct non-zero labels in ascending order
func (v *Volume) Labels() []int64 {
	seen := make(map[int64]struct{})
	for _, l := range v.Data {
		if l == 0 {
			continue
		}
		seen[l] = struct{}{}
	}

	labels := make([]int64, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	slices.Sort(labels)
	return labels
}

// Slice is a 2D plane of labels cut from a Volume
type Slice struct {
	// Data holds the labels in row-major order
	Data []int64

	// Rows and Cols are the slice dimensions
	Rows, Cols int

	// Axis is the plane the slice was cut along
	Axis Axis

	// Index is the position of the slice along its axis
	Index int
}

// NewSlice allocates a zero-filled slice
func NewSlice(rows, cols int) *Slice {
	return &Slice{
		Data: make([]int64, rows*cols),
		Rows: rows,
		Cols: cols,
	}
}

// At returns the label at row r, column c
func (s *Slice) At(r, c int) int64 {
	return s.Data[r*s.Cols+c]
}

// Set stores a label at row r, column c
func (s *Slice) Set(r, c int, label int64) {
	s.Data[r*s.Cols+c] = label
}

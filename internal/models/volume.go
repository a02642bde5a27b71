package models

import "fmt"

// Volume represents a 3D array of intensity samples.
//
// Data is stored in row-major order over the three axes (a0, a1, a2), so the
// sample at (i, j, k) lives at Data[(i*Shape[1]+j)*Shape[2]+k].
type Volume struct {
	// Data holds the samples as a 1D array in row-major order
	Data []float64

	// Shape is the extent of the volume along each axis
	Shape [3]int
}

// NewVolume allocates a zero-filled volume with the given extents
func NewVolume(d0, d1, d2 int) *Volume {
	return &Volume{
		Data:  make([]float64, d0*d1*d2),
		Shape: [3]int{d0, d1, d2},
	}
}

// FromData wraps an existing buffer. The buffer length must match the shape.
func FromData(data []float64, shape [3]int) (*Volume, error) {
	if n := shape[0] * shape[1] * shape[2]; n != len(data) {
		return nil, fmt.Errorf("buffer holds %d samples, shape %v needs %d", len(data), shape, n)
	}
	return &Volume{Data: data, Shape: shape}, nil
}

// Len returns the number of samples in the volume
func (v *Volume) Len() int {
	return v.Shape[0] * v.Shape[1] * v.Shape[2]
}

// Index flattens a coordinate into an offset in Data
func (v *Volume) Index(i, j, k int) int {
	return (i*v.Shape[1]+j)*v.Shape[2] + k
}

// Coord is the inverse of Index
func (v *Volume) Coord(idx int) (i, j, k int) {
	k = idx % v.Shape[2]
	idx /= v.Shape[2]
	j = idx % v.Shape[1]
	i = idx / v.Shape[1]
	return i, j, k
}

// At returns the sample at (i, j, k)
func (v *Volume) At(i, j, k int) float64 {
	return v.Data[v.Index(i, j, k)]
}

// Set stores a sample at (i, j, k)
func (v *Volume) Set(i, j, k int, value float64) {
	v.Data[v.Index(i, j, k)] = value
}

// Clone returns a deep copy
func (v *Volume) Clone() *Volume {
	data := make([]float64, len(v.Data))
	copy(data, v.Data)
	return &Volume{Data: data, Shape: v.Shape}
}

// Equal reports whether both volumes have the same shape and identical samples
func (v *Volume) Equal(o *Volume) bool {
	if v.Shape != o.Shape || len(v.Data) != len(o.Data) {
		return false
	}
	for i := range v.Data {
		if v.Data[i] != o.Data[i] {
			return false
		}
	}
	return true
}

func (v *Volume) String() string {
	return fmt.Sprintf("Volume%v", v.Shape)
}

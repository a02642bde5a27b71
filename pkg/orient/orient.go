// Package orient expresses the three orthogonal scans in one common frame.
//
// Every transform is a pure relabeling of samples built from 90 degree
// rotations of an axis pair and axis reversals. Nothing is interpolated and
// the source volume is never modified.
package orient

import (
	"fmt"

	"orthofuse/internal/models"
)

// Rot90 rotates the volume by 90 degrees in the plane of axes a and b, in
// the direction from the first axis towards the second.
//
// The extents along a and b are swapped and
//
//	out[a=p, b=q] = in[a=q, b=n_b-1-p]
//
// Rot90(v, b, a) undoes Rot90(v, a, b).
func Rot90(v *models.Volume, a, b int) (*models.Volume, error) {
	if err := checkAxis(a); err != nil {
		return nil, err
	}
	if err := checkAxis(b); err != nil {
		return nil, err
	}
	if a == b {
		return nil, fmt.Errorf("rotation axes must differ, got %d and %d", a, b)
	}

	shape := v.Shape
	shape[a], shape[b] = shape[b], shape[a]
	out := models.NewVolume(shape[0], shape[1], shape[2])
	nb := v.Shape[b]

	var c, src [3]int
	for c[0] = 0; c[0] < shape[0]; c[0]++ {
		for c[1] = 0; c[1] < shape[1]; c[1]++ {
			for c[2] = 0; c[2] < shape[2]; c[2]++ {
				src = c
				src[a] = c[b]
				src[b] = nb - 1 - c[a]
				out.Data[out.Index(c[0], c[1], c[2])] = v.At(src[0], src[1], src[2])
			}
		}
	}
	return out, nil
}

// Flip reverses the order of samples along one axis
func Flip(v *models.Volume, axis int) (*models.Volume, error) {
	if err := checkAxis(axis); err != nil {
		return nil, err
	}

	out := models.NewVolume(v.Shape[0], v.Shape[1], v.Shape[2])
	n := v.Shape[axis]

	var c, src [3]int
	for c[0] = 0; c[0] < v.Shape[0]; c[0]++ {
		for c[1] = 0; c[1] < v.Shape[1]; c[1]++ {
			for c[2] = 0; c[2] < v.Shape[2]; c[2]++ {
				src = c
				src[axis] = n - 1 - c[axis]
				out.Data[out.Index(c[0], c[1], c[2])] = v.At(src[0], src[1], src[2])
			}
		}
	}
	return out, nil
}

func checkAxis(axis int) error {
	if axis < 0 || axis > 2 {
		return fmt.Errorf("axis %d out of range [0,2]", axis)
	}
	return nil
}

// step is one rotation or flip in a transform sequence
type step struct {
	flip bool
	a, b int
}

func (s step) apply(v *models.Volume) (*models.Volume, error) {
	if s.flip {
		return Flip(v, s.a)
	}
	return Rot90(v, s.a, s.b)
}

func run(v *models.Volume, steps ...step) (*models.Volume, error) {
	out := v
	for _, s := range steps {
		next, err := s.apply(out)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}

// SagittalToAxial moves the sagittal scan's coarse axis from axis 0 of its
// native frame to axis 2 of the common frame.
// A native (depth, dim, dim) volume becomes (dim, dim, depth).
func SagittalToAxial(v *models.Volume) (*models.Volume, error) {
	return run(v, step{a: 0, b: 1}, step{a: 2, b: 1})
}

// AxialToSagittal inverts SagittalToAxial
func AxialToSagittal(v *models.Volume) (*models.Volume, error) {
	return run(v, step{a: 1, b: 2}, step{a: 1, b: 0})
}

// CoronalToAxial moves the coronal scan's coarse axis from axis 0 of its
// native frame to axis 1 of the common frame.
// A native (depth, dim, dim) volume becomes (dim, depth, dim).
func CoronalToAxial(v *models.Volume) (*models.Volume, error) {
	return run(v, step{a: 1, b: 0}, step{flip: true, a: 0})
}

// AxialToCoronal inverts CoronalToAxial
func AxialToCoronal(v *models.Volume) (*models.Volume, error) {
	return run(v, step{flip: true, a: 0}, step{a: 0, b: 1})
}

// ToCommon expresses a scan given in its native frame in the common frame.
// The axial scan is already in the common frame and is returned as a copy.
func ToCommon(scan models.Scan, v *models.Volume) (*models.Volume, error) {
	switch scan {
	case models.Sagittal:
		return SagittalToAxial(v)
	case models.Coronal:
		return CoronalToAxial(v)
	case models.Axial:
		return v.Clone(), nil
	}
	return nil, fmt.Errorf("unknown scan %d", int(scan))
}

// FromCommon is the inverse of ToCommon
func FromCommon(scan models.Scan, v *models.Volume) (*models.Volume, error) {
	switch scan {
	case models.Sagittal:
		return AxialToSagittal(v)
	case models.Coronal:
		return AxialToCoronal(v)
	case models.Axial:
		return v.Clone(), nil
	}
	return nil, fmt.Errorf("unknown scan %d", int(scan))
}

package fusion

import (
	"fmt"

	"orthofuse/internal/models"
)

// Synthesize produces the common-frame coarse scan an ideal acquisition of v
// would record: groups of n voxels along the scan's coarse axis are summed
// into one sample.
func Synthesize(v *models.Volume, scan models.Scan, n int) (*models.Volume, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: cube size must be positive, got %d", ErrConfiguration, n)
	}

	axis := scan.CoarseAxis()
	if v.Shape[axis]%n != 0 {
		return nil, fmt.Errorf("%w: extent %d along axis %d is not a multiple of cube size %d",
			ErrConfiguration, v.Shape[axis], axis, n)
	}

	shape := v.Shape
	shape[axis] /= n
	out := models.NewVolume(shape[0], shape[1], shape[2])

	var c [3]int
	for c[0] = 0; c[0] < v.Shape[0]; c[0]++ {
		for c[1] = 0; c[1] < v.Shape[1]; c[1]++ {
			for c[2] = 0; c[2] < v.Shape[2]; c[2]++ {
				dst := c
				dst[axis] /= n
				out.Data[out.Index(dst[0], dst[1], dst[2])] += v.At(c[0], c[1], c[2])
			}
		}
	}
	return out, nil
}

// SynthesizeAll returns the three common-frame scans of v indexed by models.Scan
func SynthesizeAll(v *models.Volume, n int) ([3]*models.Volume, error) {
	var scans [3]*models.Volume
	for _, scan := range models.Scans {
		s, err := Synthesize(v, scan, n)
		if err != nil {
			return scans, err
		}
		scans[scan] = s
	}
	return scans, nil
}

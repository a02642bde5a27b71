package volumeio

import (
	"fmt"
	"strings"

	"github.com/kshedden/gonpy"

	"orthofuse/internal/models"
	"orthofuse/pkg/fusion"
)

// ReadNpy loads a three-dimensional float32 or float64 numpy array
func ReadNpy(path string) (*models.Volume, error) {
	r, err := gonpy.NewFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	if len(r.Shape) != 3 {
		return nil, fmt.Errorf("%w: %s has %d dimensions, expected 3", fusion.ErrInputShape, path, len(r.Shape))
	}
	shape := [3]int{r.Shape[0], r.Shape[1], r.Shape[2]}

	var data []float64
	switch dtype := strings.TrimLeft(r.Dtype, "<>=|"); dtype {
	case "f8":
		if data, err = r.GetFloat64(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	case "f4":
		f32, err := r.GetFloat32()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		data = make([]float64, len(f32))
		for i, s := range f32 {
			data[i] = float64(s)
		}
	default:
		return nil, fmt.Errorf("%w: %s has dtype %s, expected f4 or f8", fusion.ErrInputShape, path, dtype)
	}

	if r.ColumnMajor {
		data = toRowMajor(data, shape)
	}
	return models.FromData(data, shape)
}

// WriteNpy stores the volume as a float32 numpy array
func WriteNpy(path string, v *models.Volume) error {
	samples := make([]float32, len(v.Data))
	for i, s := range v.Data {
		samples[i] = float32(s)
	}

	return writeAtomic(path, func(tmp string) error {
		w, err := gonpy.NewFileWriter(tmp)
		if err != nil {
			return err
		}
		w.Shape = []int{v.Shape[0], v.Shape[1], v.Shape[2]}
		return w.WriteFloat32(samples)
	})
}

// toRowMajor reorders a Fortran-ordered buffer
func toRowMajor(data []float64, shape [3]int) []float64 {
	out := make([]float64, len(data))
	for i := 0; i < shape[0]; i++ {
		for j := 0; j < shape[1]; j++ {
			for k := 0; k < shape[2]; k++ {
				out[(i*shape[1]+j)*shape[2]+k] = data[i+shape[0]*(j+shape[1]*k)]
			}
		}
	}
	return out
}

package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"

	"orthofuse/internal/models"
)

// Viewer renders planar slices of a fused volume as grayscale images.
//
// Intensities are mapped linearly from the volume's [min, max] range to the
// full 16-bit gray range, since fused samples are sums of raw intensities and
// have no fixed scale.
type Viewer struct {
	volume *models.Volume

	// intensity window used for every slice
	low, high float64

	// Quality is the JPEG quality of saved slices
	Quality int
}

// NewViewer creates a viewer for the volume
func NewViewer(volume *models.Volume) *Viewer {
	v := &Viewer{volume: volume, Quality: 90}
	if len(volume.Data) > 0 {
		v.low = floats.Min(volume.Data)
		v.high = floats.Max(volume.Data)
	}
	return v
}

// Window returns the intensity range mapped to black and white
func (v *Viewer) Window() (low, high float64) {
	return v.low, v.high
}

// gray maps an intensity into the 16-bit range
func (v *Viewer) gray(value float64) color.Gray16 {
	span := v.high - v.low
	if span <= 0 || math.IsNaN(value) {
		return color.Gray16{}
	}
	scaled := (value - v.low) / span * 65535
	return color.Gray16{Y: uint16(math.Max(0, math.Min(65535, math.Round(scaled))))}
}

// ExtractSlice extracts the plane perpendicular to axis at position.
// The remaining two axes, in ascending order, become the image rows and columns.
func (v *Viewer) ExtractSlice(axis, position int) (*image.Gray16, error) {
	if axis < 0 || axis > 2 {
		return nil, fmt.Errorf("invalid axis: %d (must be 0, 1 or 2)", axis)
	}
	if position < 0 || position >= v.volume.Shape[axis] {
		return nil, fmt.Errorf("position %d outside [0,%d) along axis %d", position, v.volume.Shape[axis], axis)
	}

	rowAxis, colAxis := planeAxes(axis)
	rows, cols := v.volume.Shape[rowAxis], v.volume.Shape[colAxis]
	img := image.NewGray16(image.Rect(0, 0, cols, rows))

	var c [3]int
	c[axis] = position
	for r := 0; r < rows; r++ {
		for q := 0; q < cols; q++ {
			c[rowAxis] = r
			c[colAxis] = q
			img.SetGray16(q, r, v.gray(v.volume.At(c[0], c[1], c[2])))
		}
	}

	return img, nil
}

func planeAxes(axis int) (int, int) {
	switch axis {
	case 0:
		return 1, 2
	case 1:
		return 0, 2
	}
	return 0, 1
}

// SaveSlice saves an extracted slice as a JPEG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	if err := jpeg.Encode(file, img, &jpeg.Options{Quality: v.Quality}); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// SaveSliceSequence extracts and saves every step-th slice along axis
func (v *Viewer) SaveSliceSequence(axis, step int, outputDir string) (int, error) {
	if step < 1 {
		step = 1
	}
	if axis < 0 || axis > 2 {
		return 0, fmt.Errorf("invalid axis: %d (must be 0, 1 or 2)", axis)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, err
	}

	saved := 0
	for pos := 0; pos < v.volume.Shape[axis]; pos += step {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return saved, err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%d_%03d.jpg", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return saved, err
		}
		saved++
	}

	return saved, nil
}

// SavePreviews saves slice sequences along all three axes into
// outputDir/axis0, outputDir/axis1 and outputDir/axis2
func (v *Viewer) SavePreviews(outputDir string, step int) (int, error) {
	total := 0
	for axis := 0; axis < 3; axis++ {
		n, err := v.SaveSliceSequence(axis, step, filepath.Join(outputDir, fmt.Sprintf("axis%d", axis)))
		total += n
		if err != nil {
			return total, fmt.Errorf("axis %d: %w", axis, err)
		}
	}
	return total, nil
}
